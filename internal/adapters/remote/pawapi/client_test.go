package pawapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawdentify/internal/analytics"
	"pawdentify/internal/domain/feedback"
	"pawdentify/internal/domain/pets"
	"pawdentify/internal/domain/profile"
	"pawdentify/internal/domain/scans"
	"pawdentify/internal/platform/httpclient"
	"pawdentify/internal/ports/remote"
)

var fixedNow = time.Date(2025, 12, 22, 15, 0, 0, 0, time.UTC)

func newClient(t *testing.T, r http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	hc, err := httpclient.NewWithBaseURL(ts.URL, time.Second)
	require.NoError(t, err)
	return New(hc).WithClock(func() time.Time { return fixedNow })
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestGetUser_NotFoundIsNotAnError(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "User not found"})
	})
	c := newClient(t, r)

	_, found, err := c.GetUser(context.Background(), "user_1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetUser_TolerantShape(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"_id":           "665f",
			"clerk_user_id": chi.URLParam(r, "id"),
			"email":         "ana@example.com",
			"created_at":    "2025-01-02T03:04:05.123456",
		})
	})
	c := newClient(t, r)

	u, found, err := c.GetUser(context.Background(), "user_1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "user_1", u.ID)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 123456000, time.UTC), u.CreatedAt)
	assert.NotNil(t, u.FavoriteBreeds)
}

func TestGetUser_ServerErrorPropagates(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newClient(t, r)

	_, _, err := c.GetUser(context.Background(), "user_1")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, httpclient.StatusCode(err))
}

func TestCreateUser_MessageOnlyReplyKeepsInput(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "User created successfully"})
	})
	c := newClient(t, r)

	in := profile.NewUser(profile.Identity{UserID: "user_1", Email: "ana@example.com"}, fixedNow)
	got, err := c.CreateUser(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestScanHistory_DecodesVariants(t *testing.T) {
	var gotQuery string
	r := chi.NewRouter()
	r.Get("/api/scan-history/user/{id}", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{
			"scans": []map[string]any{
				{"_id": "s1", "predicted_breed": "Beagle", "confidence_score": 0.8, "created_at": "2025-12-20T10:00:00Z"},
				{"id": "s2", "breed": "Pug", "confidence": 0.7, "timestamp": "2025-12-21T10:00:00Z", "image_url": "x.png"},
			},
		})
	})
	c := newClient(t, r)

	list, err := c.ScanHistory(context.Background(), "user_1", 50, 0)
	require.NoError(t, err)
	assert.Equal(t, "limit=50", gotQuery)
	require.Len(t, list, 2)
	assert.Equal(t, "s1", list[0].ID)
	assert.Equal(t, "Beagle", list[0].Breed)
	assert.InDelta(t, 0.8, list[0].Confidence, 1e-9)
	assert.Equal(t, time.Date(2025, 12, 20, 10, 0, 0, 0, time.UTC), list[0].Timestamp)
	assert.Equal(t, "x.png", list[1].ImageURL)
}

func TestScanHistory_BareArray(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/scan-history/user/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": "s1", "breed": "Pug"}})
	})
	c := newClient(t, r)

	list, err := c.ScanHistory(context.Background(), "user_1", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Pug", list[0].Breed)
}

func TestAddScan_ServerIDReplacesLocal(t *testing.T) {
	var body map[string]any
	r := chi.NewRouter()
	r.Post("/api/scan-history/user/{id}", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "scan_id": "srv-1"})
	})
	c := newClient(t, r)

	rec := scans.ScanRecord{ID: "local-1", Breed: "Beagle", Confidence: 0.9, Timestamp: fixedNow, LocalOnly: true}
	saved, err := c.AddScan(context.Background(), "user_1", rec)
	require.NoError(t, err)
	assert.Equal(t, "srv-1", saved.ID)
	assert.False(t, saved.LocalOnly)
	assert.NotContains(t, body, "id")
	assert.NotContains(t, body, "localOnly")
	assert.Equal(t, "Beagle", body["breed"])
}

func TestAddScan_NoIDInReply(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/scan-history/user/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	c := newClient(t, r)

	saved, err := c.AddScan(context.Background(), "user_1", scans.ScanRecord{ID: "local-1", Breed: "Pug"})
	require.NoError(t, err)
	assert.Empty(t, saved.ID)
}

func TestScanStats_DefaultsBreed(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/scan-history/user/{id}/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"total_scans": 0})
	})
	c := newClient(t, r)

	st, err := c.ScanStats(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, analytics.NoneBreed, st.MostIdentifiedBreed)
	assert.NotNil(t, st.RecentScans)
}

func TestPreferences_HeaderAndUnwrap(t *testing.T) {
	var header string
	r := chi.NewRouter()
	r.Get("/api/preferences", func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get(HeaderUserID)
		writeJSON(w, http.StatusOK, map[string]any{
			"preferences": map[string]any{"theme": "dark", "preferred_language": "es"},
		})
	})
	c := newClient(t, r)

	p, found, err := c.GetPreferences(context.Background(), "user_1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "user_1", header)
	assert.Equal(t, profile.ThemeDark, p.Theme)
	assert.Equal(t, "es", p.PreferredLanguage)
}

func TestPreferences_NullMeansNotFound(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/preferences", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, nil)
	})
	c := newClient(t, r)

	_, found, err := c.GetPreferences(context.Background(), "user_1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAddFavorite_FallbackID(t *testing.T) {
	var body map[string]string
	r := chi.NewRouter()
	r.Post("/api/users/{id}/favorites", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]string{"message": "added"})
	})
	c := newClient(t, r)

	fav, err := c.AddFavorite(context.Background(), "user_1", "Golden Retriever")
	require.NoError(t, err)
	assert.Equal(t, "Golden Retriever", body["breed_name"])
	assert.Equal(t, "fav:golden retriever", fav.ID)
	assert.Equal(t, fixedNow, fav.Timestamp)
}

func TestPets_ListAndCreate(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/pets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"_id": "p1", "name": "Rex", "breed": "Boxer", "created_at": fixedNow, "updated_at": fixedNow},
		})
	})
	r.Post("/api/pets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Pet created", "pet": map[string]any{
			"id": "p2", "name": "Luna", "breed": "Pug", "created_at": fixedNow, "updated_at": fixedNow,
		}})
	})
	c := newClient(t, r)

	list, err := c.ListPets(context.Background(), "user_1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].ID)

	created, err := c.CreatePet(context.Background(), "user_1", pets.Pet{Name: "Luna", Breed: "Pug"})
	require.NoError(t, err)
	assert.Equal(t, "p2", created.ID)
	assert.Equal(t, "Luna", created.Name)
}

func TestVaccinations_UpcomingQuery(t *testing.T) {
	var q string
	r := chi.NewRouter()
	r.Get("/api/vaccinations/upcoming", func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Query().Get("days_ahead")
		writeJSON(w, http.StatusOK, map[string]any{"vaccinations": []any{}})
	})
	c := newClient(t, r)

	list, err := c.UpcomingVaccinations(context.Background(), "user_1", 14)
	require.NoError(t, err)
	assert.Equal(t, "14", q)
	assert.Empty(t, list)
}

func TestSubmitFeedback_TakesServerID(t *testing.T) {
	var got feedback.Feedback
	r := chi.NewRouter()
	r.Post("/api/feedback", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{"feedback": map[string]any{"_id": "fb1"}})
	})
	c := newClient(t, r)

	f, err := c.SubmitFeedback(context.Background(), "user_1", feedback.Feedback{Subject: "s", Message: "m", Queued: true})
	require.NoError(t, err)
	assert.Equal(t, "fb1", f.ID)
	assert.False(t, f.Queued)
	assert.False(t, got.Queued)
}

func TestExportAnalytics_RawBody(t *testing.T) {
	var req remote.ExportRequest
	r := chi.NewRouter()
	r.Post("/api/analytics/export", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, http.StatusOK, map[string]any{"rows": 3})
	})
	c := newClient(t, r)

	raw, err := c.ExportAnalytics(context.Background(), "user_1", remote.ExportRequest{Format: "json", DataType: "scans", Days: 7})
	require.NoError(t, err)
	assert.Equal(t, "scans", req.DataType)
	assert.JSONEq(t, `{"rows":3}`, string(raw))
}

func TestTransportFailure(t *testing.T) {
	hc, err := httpclient.NewWithBaseURL("http://127.0.0.1:1", 200*time.Millisecond)
	require.NoError(t, err)
	c := New(hc)

	_, err = c.ListPets(context.Background(), "user_1")
	require.Error(t, err)
	assert.ErrorIs(t, err, httpclient.ErrTransport)
}
