package api

import (
	"net/http"

	"pawdentify/internal/orchestrator"
	"pawdentify/internal/ports/remote"
)

// dashboardHandler godoc
// @Summary Dashboard de analítica
// @Description Lo calcula el servidor; sin conexión se calcula en el dispositivo con el mismo formato.
// @Tags analytics
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Param days query int false "Ventana en días (por defecto 30)"
// @Success 200 {object} analytics.Dashboard
// @Failure 400 {string} string "days inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 502 {string} string "server error"
// @Router /me/analytics/dashboard [get]
func dashboardHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		days, err := queryInt(r, "days", 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d, err := m.Gateway().GetAnalyticsDashboard(r.Context(), id.UserID, days)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// breedsHandler godoc
// @Summary Analítica por raza
// @Tags analytics
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Param breed_name query string false "Filtra por raza (coincidencia parcial)"
// @Success 200 {object} analytics.BreedReport
// @Failure 401 {string} string "unauthorized"
// @Router /me/analytics/breeds [get]
func breedsHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		rep, err := m.Gateway().GetBreedAnalytics(r.Context(), id.UserID, r.URL.Query().Get("breed_name"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// trendsHandler godoc
// @Summary Tendencias
// @Tags analytics
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Param period query string false "daily, weekly (por defecto) o monthly"
// @Success 200 {object} analytics.TrendReport
// @Failure 400 {string} string "period inválido"
// @Failure 401 {string} string "unauthorized"
// @Router /me/analytics/trends [get]
func trendsHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		rep, err := m.Gateway().GetAnalyticsTrends(r.Context(), id.UserID, r.URL.Query().Get("period"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// exportAnalyticsHandler godoc
// @Summary Export del servidor
// @Description Sólo disponible con conexión; sin servidor responde 503.
// @Tags analytics
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Param payload body remote.ExportRequest true "format: json|csv, data_type: all|scans|analytics"
// @Success 200 {object} object
// @Failure 400 {string} string "invalid json / formato inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 503 {string} string "operation requires the remote service"
// @Router /me/analytics/export [post]
func exportAnalyticsHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req remote.ExportRequest
		if !decodeBody(w, r, &req) {
			return
		}
		raw, err := m.Gateway().ExportAnalytics(r.Context(), id.UserID, req)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
	}
}
