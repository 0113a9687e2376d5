package pawapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"pawdentify/internal/analytics"
	"pawdentify/internal/domain/scans"
)

// scanDTO tolera las variantes de nombre que devuelve el backend (_id, predicted_breed, image_url).
type scanDTO struct {
	ID                 string             `json:"id"`
	MongoID            string             `json:"_id"`
	Breed              string             `json:"breed"`
	PredictedBreed     string             `json:"predicted_breed"`
	Confidence         float64            `json:"confidence"`
	ConfidenceScore    *float64           `json:"confidence_score"`
	Timestamp          flexTime           `json:"timestamp"`
	CreatedAt          flexTime           `json:"created_at"`
	ImageURL           string             `json:"imageUrl"`
	ImageURLSnake      string             `json:"image_url"`
	IsCrossbreed       bool               `json:"isCrossbreed"`
	TopPredictions     []scans.Prediction `json:"topPredictions"`
	CrossbreedAnalysis json.RawMessage    `json:"crossbreedAnalysis"`
	DetectionMetadata  json.RawMessage    `json:"detectionMetadata"`
}

func (d scanDTO) toRecord() scans.ScanRecord {
	r := scans.ScanRecord{
		ID:                 d.ID,
		Breed:              d.Breed,
		Confidence:         d.Confidence,
		Timestamp:          d.Timestamp.Time,
		ImageURL:           d.ImageURL,
		IsCrossbreed:       d.IsCrossbreed,
		TopPredictions:     d.TopPredictions,
		CrossbreedAnalysis: d.CrossbreedAnalysis,
		DetectionMetadata:  d.DetectionMetadata,
	}
	if r.ID == "" {
		r.ID = d.MongoID
	}
	if r.Breed == "" {
		r.Breed = d.PredictedBreed
	}
	if r.Confidence == 0 && d.ConfidenceScore != nil {
		r.Confidence = *d.ConfidenceScore
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = d.CreatedAt.Time
	}
	if r.ImageURL == "" {
		r.ImageURL = d.ImageURLSnake
	}
	return r
}

// scanBody es lo que se envía al crear un escaneo: sin id temporal ni marcas locales.
type scanBody struct {
	Breed              string             `json:"breed"`
	Confidence         float64            `json:"confidence"`
	Timestamp          string             `json:"timestamp"`
	ImageURL           string             `json:"imageUrl,omitempty"`
	IsCrossbreed       bool               `json:"isCrossbreed"`
	TopPredictions     []scans.Prediction `json:"topPredictions,omitempty"`
	CrossbreedAnalysis json.RawMessage    `json:"crossbreedAnalysis,omitempty"`
	DetectionMetadata  json.RawMessage    `json:"detectionMetadata,omitempty"`
}

func (c *Client) ScanHistory(ctx context.Context, userID string, limit, skip int) ([]scans.ScanRecord, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	raw, err := c.get(ctx, userPath("/api/scan-history/user/%s", userID), "", q)
	if err != nil {
		return nil, fmt.Errorf("pawapi scan history: %w", err)
	}
	items, err := decodeList(raw, "scans", "history", "items")
	if err != nil {
		return nil, err
	}
	out := make([]scans.ScanRecord, 0, len(items))
	for _, it := range items {
		var d scanDTO
		if err := json.Unmarshal(it, &d); err != nil {
			return nil, fmt.Errorf("pawapi: decode scan: %w", err)
		}
		out = append(out, d.toRecord())
	}
	return out, nil
}

func (c *Client) AddScan(ctx context.Context, userID string, rec scans.ScanRecord) (scans.ScanRecord, error) {
	body := scanBody{
		Breed:              rec.Breed,
		Confidence:         rec.Confidence,
		Timestamp:          rec.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		ImageURL:           rec.ImageURL,
		IsCrossbreed:       rec.IsCrossbreed,
		TopPredictions:     rec.TopPredictions,
		CrossbreedAnalysis: rec.CrossbreedAnalysis,
		DetectionMetadata:  rec.DetectionMetadata,
	}
	raw, err := c.do(ctx, call{method: http.MethodPost, path: userPath("/api/scan-history/user/%s", userID), body: body})
	if err != nil {
		return scans.ScanRecord{}, fmt.Errorf("pawapi add scan: %w", err)
	}

	// {"scan": {...}} o {"id"/"_id"/"scan_id": "..."}; si no hay id se conserva el local
	inner := unwrap(raw, "scan")
	id := serverID(inner)
	if id == "" {
		id = serverID(raw)
	}
	return rec.WithRecordID(id), nil
}

func (c *Client) ScanStats(ctx context.Context, userID string) (analytics.ScanStats, error) {
	raw, err := c.get(ctx, userPath("/api/scan-history/user/%s/stats", userID), "", nil)
	if err != nil {
		return analytics.ScanStats{}, fmt.Errorf("pawapi scan stats: %w", err)
	}
	var st struct {
		TotalScans          int       `json:"total_scans"`
		UniqueBreeds        int       `json:"unique_breeds"`
		MostIdentifiedBreed string    `json:"most_identified_breed"`
		AverageConfidence   float64   `json:"average_confidence"`
		ThisMonth           int       `json:"this_month"`
		RecentScans         []scanDTO `json:"recent_scans"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &st); err != nil {
			return analytics.ScanStats{}, fmt.Errorf("pawapi: decode scan stats: %w", err)
		}
	}
	out := analytics.ScanStats{
		TotalScans:          st.TotalScans,
		UniqueBreeds:        st.UniqueBreeds,
		MostIdentifiedBreed: st.MostIdentifiedBreed,
		AverageConfidence:   st.AverageConfidence,
		ThisMonth:           st.ThisMonth,
		RecentScans:         make([]scans.ScanRecord, 0, len(st.RecentScans)),
	}
	if out.MostIdentifiedBreed == "" {
		out.MostIdentifiedBreed = analytics.NoneBreed
	}
	for _, d := range st.RecentScans {
		out.RecentScans = append(out.RecentScans, d.toRecord())
	}
	return out, nil
}
