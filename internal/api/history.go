package api

import (
	"net/http"

	"pawdentify/internal/analytics"
	"pawdentify/internal/domain/scans"
	"pawdentify/internal/export"
	"pawdentify/internal/orchestrator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// listHistoryHandler godoc
// @Summary Historial de escaneos
// @Description Devuelve el historial en memoria de la sesión, más reciente primero. Incluye los escaneos que sólo existen en el dispositivo (localOnly).
// @Tags history
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Param limit query int false "Máximo de registros (por defecto 50)"
// @Param skip query int false "Registros a saltar"
// @Success 200 {array} scans.ScanRecord
// @Failure 400 {string} string "limit/skip inválidos"
// @Failure 401 {string} string "unauthorized"
// @Router /me/history [get]
func listHistoryHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		limit, err := queryInt(r, "limit", scans.HistoryLimit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		skip, err := queryInt(r, "skip", 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, window(s.View().History, limit, skip))
	}
}

// addHistoryHandler godoc
// @Summary Agregar escaneo
// @Description Agrega el resultado del clasificador al historial. Se guarda de inmediato en el dispositivo y se confirma con el servidor si está disponible.
// @Tags history
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Param payload body scans.ClassifierResult true "Resultado del clasificador"
// @Success 201 {object} scans.ScanRecord
// @Failure 400 {string} string "invalid json / escaneo inválido"
// @Failure 401 {string} string "unauthorized"
// @Router /me/history [post]
func addHistoryHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		var req scans.ClassifierResult
		if !decodeBody(w, r, &req) {
			return
		}
		rec, err := s.AddToHistory(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

// exportXLSXHandler godoc
// @Summary Exportar a Excel
// @Description Libro XLSX generado en el dispositivo con historial, razas, tendencias y resumen.
// @Tags history
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Param period query string false "daily, weekly o monthly para la hoja de tendencias"
// @Success 200 {file} file
// @Failure 400 {string} string "period inválido"
// @Failure 401 {string} string "unauthorized"
// @Router /me/export.xlsx [get]
func exportXLSXHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		period, err := analytics.ParsePeriod(r.URL.Query().Get("period"))
		if err != nil {
			writeError(w, err)
			return
		}
		f, err := export.Workbook(s.View().History, m.Gateway().Engine(), period)
		if err != nil {
			writeError(w, err)
			return
		}
		defer func() { _ = f.Close() }()

		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="pawdentify-history.xlsx"`)
		w.WriteHeader(http.StatusOK)
		_ = f.Write(w)
	}
}

func listSearchesHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		terms, err := s.RecentSearches(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, terms)
	}
}

type searchRequest struct {
	Term string `json:"term"`
}

func recordSearchHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		var req searchRequest
		if !decodeBody(w, r, &req) {
			return
		}
		terms, err := s.RecordSearch(r.Context(), req.Term)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, terms)
	}
}

func window[T any](list []T, limit, skip int) []T {
	if skip >= len(list) {
		return []T{}
	}
	list = list[skip:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return append([]T{}, list...)
}
