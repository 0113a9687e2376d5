package remote

import (
	"context"
	"encoding/json"

	"pawdentify/internal/analytics"
	"pawdentify/internal/domain/feedback"
	"pawdentify/internal/domain/pets"
	"pawdentify/internal/domain/profile"
	"pawdentify/internal/domain/scans"
)

// ExportRequest pide un export generado por el servidor.
type ExportRequest struct {
	Format   string `json:"format"`
	DataType string `json:"data_type"`
	Days     int    `json:"days,omitempty"`
}

// Service es el contrato del backend remoto que consume el gateway.
// Los errores de red y de status se devuelven tal cual los produce el transporte;
// clasificarlos es responsabilidad del caller.
type Service interface {
	// GetUser devuelve found=false si el usuario no existe.
	GetUser(ctx context.Context, userID string) (profile.User, bool, error)
	CreateUser(ctx context.Context, u profile.User) (profile.User, error)
	UpdateUser(ctx context.Context, userID string, up profile.UserUpdate) error

	ScanHistory(ctx context.Context, userID string, limit, skip int) ([]scans.ScanRecord, error)
	// AddScan devuelve el registro con el id asignado por el servidor.
	AddScan(ctx context.Context, userID string, rec scans.ScanRecord) (scans.ScanRecord, error)
	ScanStats(ctx context.Context, userID string) (analytics.ScanStats, error)

	// GetPreferences devuelve found=false si el usuario nunca guardó preferencias.
	GetPreferences(ctx context.Context, userID string) (profile.Preferences, bool, error)
	UpdatePreferences(ctx context.Context, userID string, p profile.Preferences) (profile.Preferences, error)

	AnalyticsDashboard(ctx context.Context, userID string, days int) (analytics.Dashboard, error)
	BreedAnalytics(ctx context.Context, userID, breed string) (analytics.BreedReport, error)
	AnalyticsTrends(ctx context.Context, userID string, period analytics.Period) (analytics.TrendReport, error)
	ExportAnalytics(ctx context.Context, userID string, req ExportRequest) (json.RawMessage, error)

	AddFavorite(ctx context.Context, userID, breed string) (profile.FavoriteBreed, error)
	RemoveFavorite(ctx context.Context, userID, breed string) error

	ListPets(ctx context.Context, userID string) ([]pets.Pet, error)
	CreatePet(ctx context.Context, userID string, p pets.Pet) (pets.Pet, error)
	UpdatePet(ctx context.Context, userID, petID string, in pets.UpdateInput) error
	DeletePet(ctx context.Context, userID, petID string) error

	ListVaccinations(ctx context.Context, userID, petID string) ([]pets.Vaccination, error)
	CreateVaccination(ctx context.Context, userID string, v pets.Vaccination) (pets.Vaccination, error)
	UpdateVaccinationStatus(ctx context.Context, userID, vaccinationID string, up pets.StatusUpdate) error
	UpcomingVaccinations(ctx context.Context, userID string, days int) ([]pets.Vaccination, error)
	OverdueVaccinations(ctx context.Context, userID string) ([]pets.Vaccination, error)
	VaccinationStats(ctx context.Context, userID string) (pets.VaccinationStats, error)

	SubmitFeedback(ctx context.Context, userID string, f feedback.Feedback) (feedback.Feedback, error)
	ListFeedback(ctx context.Context, userID string, limit, skip int) ([]feedback.Feedback, error)
	SubmitCommunityFeedback(ctx context.Context, userID string, c feedback.CommunityFeedback) (feedback.CommunityFeedback, error)
}
