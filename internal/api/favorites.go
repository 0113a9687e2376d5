package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pawdentify/internal/domain/profile"
	"pawdentify/internal/orchestrator"
)

// listFavoritesHandler godoc
// @Summary Razas guardadas
// @Tags favorites
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Success 200 {array} profile.FavoriteBreed
// @Failure 401 {string} string "unauthorized"
// @Router /me/favorites [get]
func listFavoritesHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.View().Favorites)
	}
}

type favoriteRequest struct {
	Breed string `json:"breed"`
}

// saveFavoriteHandler godoc
// @Summary Guardar raza
// @Description Guarda una raza favorita. Si ya estaba guardada (sin distinguir mayúsculas) devuelve la existente.
// @Tags favorites
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Param payload body favoriteRequest true "Raza a guardar"
// @Success 201 {object} profile.FavoriteBreed
// @Failure 400 {string} string "invalid json / breed vacío"
// @Failure 401 {string} string "unauthorized"
// @Router /me/favorites [post]
func saveFavoriteHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		var req favoriteRequest
		if !decodeBody(w, r, &req) {
			return
		}
		fav, err := s.SaveBreed(r.Context(), req.Breed)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, fav)
	}
}

// removeFavoriteHandler godoc
// @Summary Quitar raza guardada
// @Tags favorites
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Param breed path string true "Nombre de la raza"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Router /me/favorites/{breed} [delete]
func removeFavoriteHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		if err := s.RemoveSavedBreed(r.Context(), chi.URLParam(r, "breed")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// getPreferencesHandler godoc
// @Summary Preferencias del usuario
// @Tags preferences
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Success 200 {object} profile.Preferences
// @Failure 401 {string} string "unauthorized"
// @Router /me/preferences [get]
func getPreferencesHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.View().Preferences)
	}
}

// updatePreferencesHandler godoc
// @Summary Actualizar preferencias
// @Description saved_to_remote=false indica que sólo quedaron guardadas en el dispositivo.
// @Tags preferences
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Param payload body profile.Preferences true "Preferencias completas"
// @Success 200 {object} gateway.Write[profile.Preferences]
// @Failure 400 {string} string "invalid json / tema inválido"
// @Failure 401 {string} string "unauthorized"
// @Router /me/preferences [put]
func updatePreferencesHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		var req profile.Preferences
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := s.UpdatePreferences(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
