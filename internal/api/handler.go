// Package api expone la capa de datos por HTTP para el frontend que corre en el mismo equipo.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"pawdentify/internal/analytics"
	"pawdentify/internal/domain/feedback"
	"pawdentify/internal/domain/pets"
	"pawdentify/internal/domain/profile"
	"pawdentify/internal/domain/scans"
	"pawdentify/internal/gateway"
	"pawdentify/internal/live"
	"pawdentify/internal/middleware"
	"pawdentify/internal/orchestrator"
)

func RegisterRoutes(r chi.Router, m *orchestrator.Manager, hub *live.Hub) {
	r.Post("/session", signInHandler(m))
	r.Post("/session/refresh", refreshHandler(m))

	r.Route("/me", func(mr chi.Router) {
		mr.Get("/state", stateHandler(m))
		mr.Get("/snapshot", snapshotHandler(m))
		mr.Get("/live", liveHandler(m, hub))

		mr.Get("/history", listHistoryHandler(m))
		mr.Post("/history", addHistoryHandler(m))
		mr.Get("/export.xlsx", exportXLSXHandler(m))

		mr.Get("/searches", listSearchesHandler(m))
		mr.Post("/searches", recordSearchHandler(m))

		mr.Get("/favorites", listFavoritesHandler(m))
		mr.Post("/favorites", saveFavoriteHandler(m))
		mr.Delete("/favorites/{breed}", removeFavoriteHandler(m))

		mr.Get("/preferences", getPreferencesHandler(m))
		mr.Put("/preferences", updatePreferencesHandler(m))

		mr.Route("/analytics", func(ar chi.Router) {
			ar.Get("/dashboard", dashboardHandler(m))
			ar.Get("/breeds", breedsHandler(m))
			ar.Get("/trends", trendsHandler(m))
			ar.Post("/export", exportAnalyticsHandler(m))
		})

		mr.Route("/pets", func(pr chi.Router) {
			pr.Get("/", listPetsHandler(m))
			pr.Post("/", createPetHandler(m))
			pr.Put("/{petID}", updatePetHandler(m))
			pr.Delete("/{petID}", deletePetHandler(m))
		})

		mr.Route("/vaccinations", func(vr chi.Router) {
			vr.Get("/", listVaccinationsHandler(m))
			vr.Post("/", createVaccinationHandler(m))
			vr.Get("/upcoming", upcomingVaccinationsHandler(m))
			vr.Get("/overdue", overdueVaccinationsHandler(m))
			vr.Get("/stats", vaccinationStatsHandler(m))
			vr.Put("/{vaccinationID}/status", vaccinationStatusHandler(m))
		})

		mr.Get("/feedback", listFeedbackHandler(m))
		mr.Post("/feedback", submitFeedbackHandler(m))
		mr.Post("/feedback/flush", flushFeedbackHandler(m))
		mr.Post("/community-feedback", communityFeedbackHandler(m))
	})
}

func identityFrom(ctx context.Context) (profile.Identity, bool) {
	claims, ok := middleware.GetClaims(ctx)
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return profile.Identity{}, false
	}
	return profile.Identity{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Username:  claims.Username,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}, true
}

// session devuelve la sesión del usuario autenticado, sincronizándola la primera vez.
// Si falla, ya escribió la respuesta.
func session(w http.ResponseWriter, r *http.Request, m *orchestrator.Manager) (*orchestrator.Session, bool) {
	id, ok := identityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	s, err := m.Open(id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if s.State() == orchestrator.StateIdle {
		if _, err := s.SignIn(r.Context()); err != nil {
			writeError(w, err)
			return nil, false
		}
	}
	return s, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gateway.ErrValidation),
		errors.Is(err, analytics.ErrInvalidPeriod),
		errors.Is(err, pets.ErrInvalidInput),
		errors.Is(err, feedback.ErrInvalidInput),
		errors.Is(err, profile.ErrInvalidInput),
		errors.Is(err, scans.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, pets.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, orchestrator.ErrSyncInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, gateway.ErrRemoteOnly), errors.Is(err, gateway.ErrNetworkUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, gateway.ErrServerError), errors.Is(err, gateway.ErrEndpointAbsent):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

// queryInt devuelve def si el parámetro falta; un valor no numérico o negativo es error.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
