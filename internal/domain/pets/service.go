package pets

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

type CreateInput struct {
	Name                string   `json:"name"`
	Breed               string   `json:"breed"`
	SecondaryBreed      string   `json:"secondary_breed"`
	AgeYears            *int     `json:"age_years"`
	AgeMonths           *int     `json:"age_months"`
	WeightLbs           *float64 `json:"weight_lbs"`
	Color               string   `json:"color"`
	MicrochipID         string   `json:"microchip_id"`
	VeterinarianName    string   `json:"veterinarian_name"`
	VeterinarianContact string   `json:"veterinarian_contact"`
	Allergies           []string `json:"allergies"`
	MedicalConditions   []string `json:"medical_conditions"`
	SpecialNotes        string   `json:"special_notes"`
}

// NewPet valida y arma una mascota sin id (lo asigna quien persiste).
func NewPet(userID string, in CreateInput, now time.Time) (Pet, error) {
	if strings.TrimSpace(userID) == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Breed) == "" {
		return Pet{}, ErrInvalidInput
	}
	if in.WeightLbs != nil && *in.WeightLbs < 0 {
		return Pet{}, ErrInvalidInput
	}
	return Pet{
		UserID:              userID,
		Name:                strings.TrimSpace(in.Name),
		Breed:               strings.TrimSpace(in.Breed),
		SecondaryBreed:      strings.TrimSpace(in.SecondaryBreed),
		AgeYears:            in.AgeYears,
		AgeMonths:           in.AgeMonths,
		WeightLbs:           in.WeightLbs,
		Color:               strings.TrimSpace(in.Color),
		MicrochipID:         strings.TrimSpace(in.MicrochipID),
		VeterinarianName:    strings.TrimSpace(in.VeterinarianName),
		VeterinarianContact: strings.TrimSpace(in.VeterinarianContact),
		Allergies:           nonNil(in.Allergies),
		MedicalConditions:   nonNil(in.MedicalConditions),
		SpecialNotes:        strings.TrimSpace(in.SpecialNotes),
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// UpdateInput usa punteros para PATCH real: nil = no tocar.
type UpdateInput struct {
	Name              *string   `json:"name"`
	Breed             *string   `json:"breed"`
	SecondaryBreed    *string   `json:"secondary_breed"`
	AgeYears          *int      `json:"age_years"`
	AgeMonths         *int      `json:"age_months"`
	WeightLbs         *float64  `json:"weight_lbs"`
	Color             *string   `json:"color"`
	MicrochipID       *string   `json:"microchip_id"`
	Allergies         *[]string `json:"allergies"`
	MedicalConditions *[]string `json:"medical_conditions"`
	SpecialNotes      *string   `json:"special_notes"`
}

func ApplyUpdate(p Pet, in UpdateInput, now time.Time) (Pet, error) {
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Breed != nil {
		if strings.TrimSpace(*in.Breed) == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.SecondaryBreed != nil {
		p.SecondaryBreed = strings.TrimSpace(*in.SecondaryBreed)
	}
	if in.AgeYears != nil {
		p.AgeYears = in.AgeYears
	}
	if in.AgeMonths != nil {
		p.AgeMonths = in.AgeMonths
	}
	if in.WeightLbs != nil {
		if *in.WeightLbs < 0 {
			return Pet{}, ErrInvalidInput
		}
		p.WeightLbs = in.WeightLbs
	}
	if in.Color != nil {
		p.Color = strings.TrimSpace(*in.Color)
	}
	if in.MicrochipID != nil {
		p.MicrochipID = strings.TrimSpace(*in.MicrochipID)
	}
	if in.Allergies != nil {
		p.Allergies = nonNil(*in.Allergies)
	}
	if in.MedicalConditions != nil {
		p.MedicalConditions = nonNil(*in.MedicalConditions)
	}
	if in.SpecialNotes != nil {
		p.SpecialNotes = strings.TrimSpace(*in.SpecialNotes)
	}
	p.UpdatedAt = now
	return p, nil
}

type VaccinationInput struct {
	PetID            string            `json:"pet_id"`
	VaccineName      string            `json:"vaccine_name"`
	VaccineType      string            `json:"vaccine_type"`
	DueDate          time.Time         `json:"due_date"`
	AdministeredDate *time.Time        `json:"administered_date"`
	NextDueDate      *time.Time        `json:"next_due_date"`
	Status           VaccinationStatus `json:"status"`
	IsCoreVaccine    *bool             `json:"is_core_vaccine"`
	FrequencyMonths  int               `json:"frequency_months"`
	VeterinarianName string            `json:"veterinarian_name"`
	ClinicName       string            `json:"clinic_name"`
	ClinicContact    string            `json:"clinic_contact"`
	Notes            string            `json:"notes"`
	Manufacturer     string            `json:"manufacturer"`
	LotNumber        string            `json:"lot_number"`
}

// NewVaccination aplica los defaults del backend: status upcoming, core, cada 12 meses.
func NewVaccination(userID string, in VaccinationInput, now time.Time) (Vaccination, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(in.PetID) == "" {
		return Vaccination{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.VaccineName) == "" || in.DueDate.IsZero() {
		return Vaccination{}, ErrInvalidInput
	}
	status := in.Status
	if status == "" {
		status = StatusUpcoming
	}
	if !status.Valid() {
		return Vaccination{}, ErrInvalidInput
	}
	freq := in.FrequencyMonths
	if freq <= 0 {
		freq = 12
	}
	core := true
	if in.IsCoreVaccine != nil {
		core = *in.IsCoreVaccine
	}
	return Vaccination{
		PetID:            strings.TrimSpace(in.PetID),
		UserID:           userID,
		VaccineName:      strings.TrimSpace(in.VaccineName),
		VaccineType:      strings.TrimSpace(in.VaccineType),
		DueDate:          in.DueDate,
		AdministeredDate: in.AdministeredDate,
		NextDueDate:      in.NextDueDate,
		Status:           status,
		IsCoreVaccine:    core,
		FrequencyMonths:  freq,
		VeterinarianName: strings.TrimSpace(in.VeterinarianName),
		ClinicName:       strings.TrimSpace(in.ClinicName),
		ClinicContact:    strings.TrimSpace(in.ClinicContact),
		Notes:            strings.TrimSpace(in.Notes),
		Manufacturer:     strings.TrimSpace(in.Manufacturer),
		LotNumber:        strings.TrimSpace(in.LotNumber),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// ApplyStatus cambia el estado. Al completar, si no viene fecha se usa now
// y la próxima dosis se calcula con frequency_months.
func ApplyStatus(v Vaccination, up StatusUpdate, now time.Time) (Vaccination, error) {
	if !up.Status.Valid() {
		return Vaccination{}, ErrInvalidInput
	}
	v.Status = up.Status
	if up.Status == StatusCompleted {
		administered := now
		if up.AdministeredDate != nil && !up.AdministeredDate.IsZero() {
			administered = *up.AdministeredDate
		}
		v.AdministeredDate = &administered
		if v.FrequencyMonths > 0 {
			next := administered.AddDate(0, v.FrequencyMonths, 0)
			v.NextDueDate = &next
		}
	}
	if up.Notes != nil {
		v.Notes = strings.TrimSpace(*up.Notes)
	}
	v.UpdatedAt = now
	return v, nil
}

// EffectiveStatus: una vacuna no completada con due_date vencida está overdue.
func EffectiveStatus(v Vaccination, now time.Time) VaccinationStatus {
	if v.Status != StatusCompleted && v.DueDate.Before(now) {
		return StatusOverdue
	}
	return v.Status
}

// Upcoming devuelve vacunas upcoming/scheduled que vencen dentro de days, ordenadas por fecha.
func Upcoming(list []Vaccination, now time.Time, days int) []Vaccination {
	limit := now.AddDate(0, 0, days)
	out := make([]Vaccination, 0)
	for _, v := range list {
		if v.Status != StatusUpcoming && v.Status != StatusScheduled {
			continue
		}
		if v.DueDate.Before(now) || v.DueDate.After(limit) {
			continue
		}
		out = append(out, v)
	}
	sortByDue(out)
	return out
}

func Overdue(list []Vaccination, now time.Time) []Vaccination {
	out := make([]Vaccination, 0)
	for _, v := range list {
		if EffectiveStatus(v, now) == StatusOverdue {
			out = append(out, v)
		}
	}
	sortByDue(out)
	return out
}

func Stats(list []Vaccination, now time.Time) VaccinationStats {
	st := VaccinationStats{Total: len(list)}
	for _, v := range list {
		switch EffectiveStatus(v, now) {
		case StatusCompleted:
			st.Completed++
		case StatusOverdue:
			st.Overdue++
		case StatusScheduled:
			st.Scheduled++
		default:
			st.Upcoming++
		}
	}
	return st
}

// ForPet filtra por mascota; petID vacío devuelve todo.
func ForPet(list []Vaccination, petID string) []Vaccination {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return append([]Vaccination{}, list...)
	}
	out := make([]Vaccination, 0)
	for _, v := range list {
		if v.PetID == petID {
			out = append(out, v)
		}
	}
	return out
}

func sortByDue(list []Vaccination) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].DueDate.Before(list[j].DueDate)
	})
}

func nonNil(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
