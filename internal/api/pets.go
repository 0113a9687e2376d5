package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pawdentify/internal/domain/pets"
	"pawdentify/internal/orchestrator"
)

// listPetsHandler godoc
// @Summary Listar mascotas
// @Tags pets
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Success 200 {array} pets.Pet
// @Failure 401 {string} string "unauthorized"
// @Router /me/pets [get]
func listPetsHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		list, err := m.Gateway().ListPets(r.Context(), id.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// createPetHandler godoc
// @Summary Crear mascota
// @Tags pets
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Param payload body pets.CreateInput true "Datos de la mascota; name y breed son obligatorios"
// @Success 201 {object} gateway.Write[pets.Pet]
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Router /me/pets [post]
func createPetHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req pets.CreateInput
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := m.Gateway().CreatePet(r.Context(), id.UserID, req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

// updatePetHandler godoc
// @Summary Actualizar mascota (parcial)
// @Tags pets
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Param petID path string true "ID de la mascota"
// @Param payload body pets.UpdateInput true "Campos a modificar"
// @Success 200 {object} gateway.Write[pets.Pet]
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /me/pets/{petID} [put]
func updatePetHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req pets.UpdateInput
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := m.Gateway().UpdatePet(r.Context(), id.UserID, chi.URLParam(r, "petID"), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// deletePetHandler godoc
// @Summary Eliminar mascota
// @Description Elimina la mascota y sus vacunas.
// @Tags pets
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} gateway.Write[string]
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /me/pets/{petID} [delete]
func deletePetHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		res, err := m.Gateway().DeletePet(r.Context(), id.UserID, chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func listVaccinationsHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		list, err := m.Gateway().ListVaccinations(r.Context(), id.UserID, r.URL.Query().Get("pet_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// createVaccinationHandler godoc
// @Summary Registrar vacuna
// @Tags vaccinations
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ID de usuario (Clerk)"
// @Param payload body pets.VaccinationInput true "Datos de la vacuna; pet_id, vaccine_name y due_date son obligatorios"
// @Success 201 {object} gateway.Write[pets.Vaccination]
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Router /me/vaccinations [post]
func createVaccinationHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req pets.VaccinationInput
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := m.Gateway().CreateVaccination(r.Context(), id.UserID, req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func vaccinationStatusHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req pets.StatusUpdate
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := m.Gateway().UpdateVaccinationStatus(r.Context(), id.UserID, chi.URLParam(r, "vaccinationID"), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func upcomingVaccinationsHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		days, err := queryInt(r, "days_ahead", 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		list, err := m.Gateway().UpcomingVaccinations(r.Context(), id.UserID, days)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func overdueVaccinationsHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		list, err := m.Gateway().OverdueVaccinations(r.Context(), id.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func vaccinationStatsHandler(m *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		st, err := m.Gateway().VaccinationStatistics(r.Context(), id.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
