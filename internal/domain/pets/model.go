package pets

import "time"

// Pet representa el perfil de una mascota del usuario.
type Pet struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	Name           string   `json:"name"`
	Breed          string   `json:"breed"`
	SecondaryBreed string   `json:"secondary_breed,omitempty"`
	AgeYears       *int     `json:"age_years,omitempty"`
	AgeMonths      *int     `json:"age_months,omitempty"`
	WeightLbs      *float64 `json:"weight_lbs,omitempty"`
	Color          string   `json:"color,omitempty"`
	MicrochipID    string   `json:"microchip_id,omitempty"`

	VeterinarianName    string `json:"veterinarian_name,omitempty"`
	VeterinarianContact string `json:"veterinarian_contact,omitempty"`

	Allergies         []string `json:"allergies"`
	MedicalConditions []string `json:"medical_conditions"`
	SpecialNotes      string   `json:"special_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VaccinationStatus define el estado de una vacuna.
// @Enum completed, overdue, upcoming, scheduled
type VaccinationStatus string

const (
	StatusCompleted VaccinationStatus = "completed"
	StatusOverdue   VaccinationStatus = "overdue"
	StatusUpcoming  VaccinationStatus = "upcoming"
	StatusScheduled VaccinationStatus = "scheduled"
)

func (s VaccinationStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusOverdue, StatusUpcoming, StatusScheduled:
		return true
	}
	return false
}

// Vaccination modela una vacuna aplicada o por aplicar.
type Vaccination struct {
	ID     string `json:"id"`
	PetID  string `json:"pet_id"`
	UserID string `json:"user_id"`

	VaccineName string `json:"vaccine_name"`
	VaccineType string `json:"vaccine_type"`

	DueDate          time.Time  `json:"due_date"`
	AdministeredDate *time.Time `json:"administered_date,omitempty"`
	NextDueDate      *time.Time `json:"next_due_date,omitempty"`

	Status          VaccinationStatus `json:"status"`
	IsCoreVaccine   bool              `json:"is_core_vaccine"`
	FrequencyMonths int               `json:"frequency_months"`

	VeterinarianName string `json:"veterinarian_name,omitempty"`
	ClinicName       string `json:"clinic_name,omitempty"`
	ClinicContact    string `json:"clinic_contact,omitempty"`
	Notes            string `json:"notes,omitempty"`
	Manufacturer     string `json:"manufacturer,omitempty"`
	LotNumber        string `json:"lot_number,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusUpdate es el cambio de estado de una vacuna (p.ej. marcarla aplicada).
type StatusUpdate struct {
	Status           VaccinationStatus `json:"status"`
	AdministeredDate *time.Time        `json:"administered_date,omitempty"`
	Notes            *string           `json:"notes,omitempty"`
}

// VaccinationStats cuenta vacunas por estado efectivo.
type VaccinationStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Upcoming  int `json:"upcoming"`
	Overdue   int `json:"overdue"`
	Scheduled int `json:"scheduled"`
}
