package profile

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidInput = errors.New("invalid input")

// Theme define el tema visual preferido.
// @Enum light, dark, auto
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeAuto:
		return true
	}
	return false
}

type ProfileData struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url"`
}

// User es el perfil remoto del usuario (identificado por el id del proveedor de auth).
type User struct {
	ID             string      `json:"id"`
	ClerkUserID    string      `json:"clerk_user_id"`
	Email          string      `json:"email"`
	Username       string      `json:"username"`
	ProfileData    ProfileData `json:"profile_data"`
	FavoriteBreeds []string    `json:"favorite_breeds,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	LastLogin      time.Time   `json:"last_login"`
}

// Identity es lo que el proveedor de auth entrega al iniciar sesión.
type Identity struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url"`
}

// NewUser arma el usuario a crear a partir de la identidad.
// Si no hay username, se usa first_last en minúsculas.
func NewUser(id Identity, now time.Time) User {
	username := strings.TrimSpace(id.Username)
	if username == "" {
		username = strings.ToLower(strings.TrimSpace(id.FirstName) + "_" + strings.TrimSpace(id.LastName))
	}
	return User{
		ID:          id.UserID,
		ClerkUserID: id.UserID,
		Email:       strings.TrimSpace(id.Email),
		Username:    username,
		ProfileData: ProfileData{
			FirstName: id.FirstName,
			LastName:  id.LastName,
			AvatarURL: id.AvatarURL,
		},
		CreatedAt: now,
		LastLogin: now,
	}
}

// UserUpdate es un PATCH parcial del perfil: nil = no tocar.
type UserUpdate struct {
	Email       *string      `json:"email,omitempty"`
	Username    *string      `json:"username,omitempty"`
	ProfileData *ProfileData `json:"profile_data,omitempty"`
	LastLogin   *time.Time   `json:"last_login,omitempty"`
}

func (u User) Apply(up UserUpdate) User {
	if up.Email != nil {
		u.Email = strings.TrimSpace(*up.Email)
	}
	if up.Username != nil {
		u.Username = strings.TrimSpace(*up.Username)
	}
	if up.ProfileData != nil {
		u.ProfileData = *up.ProfileData
	}
	if up.LastLogin != nil {
		u.LastLogin = *up.LastLogin
	}
	return u
}

type Preferences struct {
	Notifications     map[string]bool `json:"notifications"`
	Privacy           map[string]bool `json:"privacy"`
	Theme             Theme           `json:"theme"`
	PreferredLanguage string          `json:"preferred_language"`
	MeasurementUnits  string          `json:"measurement_units"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Notifications: map[string]bool{
			"email":             true,
			"push":              false,
			"scan_reminders":    false,
			"vaccination_alert": true,
		},
		Privacy: map[string]bool{
			"share_scans":     false,
			"public_profile":  false,
			"analytics_usage": true,
		},
		Theme:             ThemeLight,
		PreferredLanguage: "en",
		MeasurementUnits:  "imperial",
	}
}

// Normalize completa campos vacíos con defaults y valida el tema.
func (p Preferences) Normalize() (Preferences, error) {
	def := DefaultPreferences()
	if p.Theme == "" {
		p.Theme = def.Theme
	}
	if !p.Theme.Valid() {
		return Preferences{}, ErrInvalidInput
	}
	if p.Notifications == nil {
		p.Notifications = def.Notifications
	}
	if p.Privacy == nil {
		p.Privacy = def.Privacy
	}
	if strings.TrimSpace(p.PreferredLanguage) == "" {
		p.PreferredLanguage = def.PreferredLanguage
	}
	if strings.TrimSpace(p.MeasurementUnits) == "" {
		p.MeasurementUnits = def.MeasurementUnits
	}
	return p, nil
}

// FavoriteBreed es una raza guardada explícitamente por el usuario.
type FavoriteBreed struct {
	ID        string    `json:"id"`
	Breed     string    `json:"breed"`
	Timestamp time.Time `json:"timestamp"`
	LocalOnly bool      `json:"localOnly,omitempty"`
}

// FavoriteID es el id estable de un favorito cuando el servidor sólo guarda nombres.
func FavoriteID(breed string) string {
	return "fav:" + strings.ToLower(strings.TrimSpace(breed))
}

func (f FavoriteBreed) RecordID() string { return f.ID }

func (f FavoriteBreed) WithRecordID(id string) FavoriteBreed {
	f.ID = id
	f.LocalOnly = false
	return f
}

func (f FavoriteBreed) AsLocalOnly() FavoriteBreed {
	f.LocalOnly = true
	return f
}

// HasBreed compara por nombre sin distinguir mayúsculas.
func HasBreed(list []FavoriteBreed, breed string) bool {
	for _, f := range list {
		if strings.EqualFold(strings.TrimSpace(f.Breed), strings.TrimSpace(breed)) {
			return true
		}
	}
	return false
}

// WithoutBreed elimina todas las entradas con ese nombre.
func WithoutBreed(list []FavoriteBreed, breed string) []FavoriteBreed {
	out := make([]FavoriteBreed, 0, len(list))
	for _, f := range list {
		if strings.EqualFold(strings.TrimSpace(f.Breed), strings.TrimSpace(breed)) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func BreedNames(list []FavoriteBreed) []string {
	out := make([]string, 0, len(list))
	for _, f := range list {
		out = append(out, f.Breed)
	}
	return out
}
