package api

import (
	"net/http"

	"pawdentify/internal/domain/feedback"
	"pawdentify/internal/orchestrator"
)

// submitFeedbackHandler godoc
// @Summary Enviar feedback
// @Description Sin conexión el feedback queda en cola (queued=true) y se reenvía en la próxima sincronización.
// @Tags feedback
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Param payload body feedback.Feedback true "Feedback; subject y message son obligatorios"
// @Success 201 {object} gateway.Write[feedback.Feedback]
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Router /me/feedback [post]
func submitFeedbackHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req feedback.Feedback
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := m.Gateway().SubmitFeedback(r.Context(), id.UserID, req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func listFeedbackHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		limit, err := queryInt(r, "limit", 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		skip, err := queryInt(r, "skip", 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		list, err := m.Gateway().ListFeedback(r.Context(), id.UserID, limit, skip)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func communityFeedbackHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req feedback.CommunityFeedback
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := m.Gateway().SubmitCommunityFeedback(r.Context(), id.UserID, req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

type flushResponse struct {
	Sent int `json:"sent"`
}

// flushFeedbackHandler reenvía la cola sin esperar a la próxima sincronización.
func flushFeedbackHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		n, err := m.Gateway().FlushQueuedFeedback(r.Context(), id.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, flushResponse{Sent: n})
	}
}
