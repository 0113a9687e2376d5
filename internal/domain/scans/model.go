package scans

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// HistoryLimit es el máximo de escaneos conservados por usuario (los más viejos se descartan).
const HistoryLimit = 50

var ErrInvalidInput = errors.New("invalid scan")

type Prediction struct {
	Breed      string  `json:"breed"`
	Confidence float64 `json:"confidence"`
}

// ScanRecord es un escaneo en el historial del usuario (más reciente primero).
type ScanRecord struct {
	ID                 string          `json:"id"`
	Breed              string          `json:"breed"`
	Confidence         float64         `json:"confidence"`
	Timestamp          time.Time       `json:"timestamp"`
	ImageURL           string          `json:"imageUrl,omitempty"`
	IsCrossbreed       bool            `json:"isCrossbreed"`
	TopPredictions     []Prediction    `json:"topPredictions,omitempty"`
	CrossbreedAnalysis json.RawMessage `json:"crossbreedAnalysis,omitempty"`
	DetectionMetadata  json.RawMessage `json:"detectionMetadata,omitempty"`

	// LocalOnly queda en true cuando la escritura remota falló y el registro conserva su id temporal.
	LocalOnly bool `json:"localOnly,omitempty"`
}

func (r ScanRecord) RecordID() string { return r.ID }

func (r ScanRecord) WithRecordID(id string) ScanRecord {
	r.ID = id
	r.LocalOnly = false
	return r
}

func (r ScanRecord) AsLocalOnly() ScanRecord {
	r.LocalOnly = true
	return r
}

// Validate rechaza escaneos sin raza o con confianza fuera de [0,1].
func (r ScanRecord) Validate() error {
	if strings.TrimSpace(r.Breed) == "" {
		return ErrInvalidInput
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return ErrInvalidInput
	}
	return nil
}

// ClassifierResult es la salida del clasificador tal como la entrega /predict.
type ClassifierResult struct {
	ID                    string          `json:"_id,omitempty"`
	PredictedClass        string          `json:"predicted_class"`
	Breed                 string          `json:"breed,omitempty"`
	Confidence            float64         `json:"confidence"`
	Timestamp             *time.Time      `json:"timestamp,omitempty"`
	ImageURL              string          `json:"imageUrl,omitempty"`
	IsPotentialCrossbreed bool            `json:"is_potential_crossbreed"`
	TopPredictions        []Prediction    `json:"top_predictions,omitempty"`
	CrossbreedAnalysis    json.RawMessage `json:"crossbreed_analysis,omitempty"`
	DetectionMetadata     json.RawMessage `json:"detection_metadata,omitempty"`
}

// FromClassifier arma el ScanRecord que se inserta en el historial.
// El id se asigna después (temporal o del servidor).
func FromClassifier(res ClassifierResult, now time.Time) ScanRecord {
	breed := strings.TrimSpace(res.PredictedClass)
	if breed == "" {
		breed = strings.TrimSpace(res.Breed)
	}
	ts := now
	if res.Timestamp != nil && !res.Timestamp.IsZero() {
		ts = *res.Timestamp
	}
	return ScanRecord{
		ID:                 res.ID,
		Breed:              breed,
		Confidence:         res.Confidence,
		Timestamp:          ts,
		ImageURL:           res.ImageURL,
		IsCrossbreed:       res.IsPotentialCrossbreed,
		TopPredictions:     res.TopPredictions,
		CrossbreedAnalysis: res.CrossbreedAnalysis,
		DetectionMetadata:  res.DetectionMetadata,
	}
}

// BreedOrUnknown normaliza la raza para agregaciones.
func (r ScanRecord) BreedOrUnknown() string {
	if b := strings.TrimSpace(r.Breed); b != "" {
		return b
	}
	return "Unknown"
}
