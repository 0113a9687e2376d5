package api

import (
	"net/http"
	"strings"

	"pawdentify/internal/domain/profile"
	"pawdentify/internal/live"
	"pawdentify/internal/orchestrator"
)

// signInHandler godoc
// @Summary Iniciar sesión de datos
// @Description Abre la sesión del usuario y la sincroniza con el servidor remoto. Si el servidor no responde, la sesión queda degradada y trabaja con los datos del dispositivo. Llamarlo de nuevo no vuelve a sincronizar.
// @Tags session
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Param X-User-Email header string false "Email del usuario"
// @Success 200 {object} orchestrator.View
// @Failure 401 {string} string "unauthorized"
// @Router /session [post]
func signInHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.View())
	}
}

// refreshHandler godoc
// @Summary Reintentar sincronización
// @Description Vuelve a consultar la disponibilidad del servidor y resincroniza la sesión.
// @Tags session
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Success 200 {object} orchestrator.View
// @Failure 401 {string} string "unauthorized"
// @Failure 409 {string} string "sync already in progress"
// @Router /session/refresh [post]
func refreshHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		if _, err := s.Refresh(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.View())
	}
}

// stateHandler godoc
// @Summary Estado de la sesión
// @Tags session
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Success 200 {object} orchestrator.View
// @Failure 401 {string} string "unauthorized"
// @Router /me/state [get]
func stateHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.View())
	}
}

// snapshotHandler godoc
// @Summary Snapshot de analítica
// @Description Estadísticas y dashboard calculados en el dispositivo a partir del historial en memoria.
// @Tags session
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Success 200 {object} analytics.Snapshot
// @Failure 401 {string} string "unauthorized"
// @Router /me/snapshot [get]
func snapshotHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot())
	}
}

// liveHandler abre el websocket de snapshots. Los navegadores no envían headers
// propios en el handshake, así que también acepta ?user_id=.
func liveHandler(m *orchestrator.Manager, hub *live.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s *orchestrator.Session
		if _, ok := identityFrom(r.Context()); ok {
			if s, ok = session(w, r, m); !ok {
				return
			}
		} else {
			uid := strings.TrimSpace(r.URL.Query().Get("user_id"))
			if uid == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			var err error
			if s, err = m.Open(profile.Identity{UserID: uid}); err != nil {
				writeError(w, err)
				return
			}
		}
		hub.Serve(w, r, s)
	}
}
