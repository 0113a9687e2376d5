package feedback

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidInput = errors.New("invalid feedback")

// Type clasifica el feedback enviado por el usuario.
// @Enum general, bug_report, feature_request, breed_correction, app_review
type Type string

const (
	TypeGeneral         Type = "general"
	TypeBugReport       Type = "bug_report"
	TypeFeatureRequest  Type = "feature_request"
	TypeBreedCorrection Type = "breed_correction"
	TypeAppReview       Type = "app_review"
)

func (t Type) Valid() bool {
	switch t {
	case TypeGeneral, TypeBugReport, TypeFeatureRequest, TypeBreedCorrection, TypeAppReview:
		return true
	}
	return false
}

var validPriorities = map[string]struct{}{
	"low": {}, "medium": {}, "high": {}, "urgent": {},
}

type Feedback struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	FeedbackType Type   `json:"feedback_type"`
	Subject      string `json:"subject"`
	Message      string `json:"message"`

	AppVersion string `json:"app_version,omitempty"`
	PageURL    string `json:"page_url,omitempty"`
	ScanID     string `json:"scan_id,omitempty"`

	PredictedBreed  string   `json:"predicted_breed,omitempty"`
	CorrectedBreed  string   `json:"corrected_breed,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`

	Priority          string `json:"priority"`
	Rating            *int   `json:"rating,omitempty"`
	FollowUpRequested bool   `json:"follow_up_requested"`

	CreatedAt time.Time `json:"submitted_at"`

	// Queued indica que sólo existe en la cola local a la espera de reenvío.
	Queued bool `json:"queued,omitempty"`
}

// Normalize valida campos obligatorios y completa la prioridad por defecto.
func (f Feedback) Normalize() (Feedback, error) {
	f.Subject = strings.TrimSpace(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
	if f.FeedbackType == "" {
		f.FeedbackType = TypeGeneral
	}
	if !f.FeedbackType.Valid() || f.Subject == "" || f.Message == "" {
		return Feedback{}, ErrInvalidInput
	}
	if f.FeedbackType == TypeBreedCorrection && strings.TrimSpace(f.CorrectedBreed) == "" {
		return Feedback{}, ErrInvalidInput
	}
	f.Priority = strings.ToLower(strings.TrimSpace(f.Priority))
	if f.Priority == "" {
		f.Priority = "medium"
	}
	if _, ok := validPriorities[f.Priority]; !ok {
		return Feedback{}, ErrInvalidInput
	}
	if f.Rating != nil && (*f.Rating < 1 || *f.Rating > 5) {
		return Feedback{}, ErrInvalidInput
	}
	if f.ConfidenceScore != nil && (*f.ConfidenceScore < 0 || *f.ConfidenceScore > 1) {
		return Feedback{}, ErrInvalidInput
	}
	return f, nil
}

// CommunityFeedback es un testimonio público.
type CommunityFeedback struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	DisplayName      string   `json:"display_name"`
	UserLocation     string   `json:"user_location,omitempty"`
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	Rating           int      `json:"rating"`
	UsageDuration    string   `json:"usage_duration,omitempty"`
	FavoriteFeatures []string `json:"favorite_features"`
	ScanCount        *int     `json:"scan_count,omitempty"`

	CreatedAt time.Time `json:"submitted_at"`
	Queued    bool      `json:"queued,omitempty"`
}

func (c CommunityFeedback) Normalize() (CommunityFeedback, error) {
	c.DisplayName = strings.TrimSpace(c.DisplayName)
	c.Title = strings.TrimSpace(c.Title)
	c.Content = strings.TrimSpace(c.Content)
	if c.DisplayName == "" || c.Title == "" || c.Content == "" {
		return CommunityFeedback{}, ErrInvalidInput
	}
	if c.Rating < 1 || c.Rating > 5 {
		return CommunityFeedback{}, ErrInvalidInput
	}
	if c.FavoriteFeatures == nil {
		c.FavoriteFeatures = []string{}
	}
	return c, nil
}
