package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pawdentify/internal/adapters/storage/memory"
	"pawdentify/internal/analytics"
	"pawdentify/internal/gateway"
	"pawdentify/internal/localstore"
	"pawdentify/internal/orchestrator"
	"pawdentify/internal/router"
)

var testNow = time.Date(2025, 12, 22, 15, 0, 0, 0, time.UTC)

// newOfflineServer arma el router sin servicio remoto: todo se resuelve en el store local.
func newOfflineServer(t *testing.T) *httptest.Server {
	t.Helper()
	clock := func() time.Time { return testNow }
	gw := gateway.New(gateway.Deps{
		Local:  localstore.New(memory.NewKV(), nil),
		Engine: analytics.NewEngine(clock, analytics.DefaultDays),
		Now:    clock,
	})
	ts := httptest.NewServer(router.NewRouter(router.Options{Manager: orchestrator.NewManager(gw, nil)}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_OfflineSession(t *testing.T) {
	ts := newOfflineServer(t)
	userID := "user_1"

	// 1) Sin identidad => 401
	{
		st, _ := doReq(t, ts.URL, "POST", "/session", "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without user, got %d", st)
		}
	}

	// 2) Inicio de sesión sin servidor => degradada
	{
		st, body := doReq(t, ts.URL, "POST", "/session", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 sign in, got %d body=%s", st, string(body))
		}
		var view struct {
			State string `json:"state"`
		}
		_ = json.Unmarshal(body, &view)
		if view.State != string(orchestrator.StateDegraded) {
			t.Fatalf("expected degraded state, got %q", view.State)
		}
	}

	// 3) Escaneo queda sólo en el dispositivo
	{
		st, body := doReq(t, ts.URL, "POST", "/me/history", userID, map[string]any{
			"predicted_class": "Beagle",
			"confidence":      0.91,
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 add scan, got %d body=%s", st, string(body))
		}
		var rec struct {
			ID        string `json:"id"`
			LocalOnly bool   `json:"localOnly"`
		}
		_ = json.Unmarshal(body, &rec)
		if rec.ID == "" || !rec.LocalOnly {
			t.Fatalf("expected local-only scan with id, got %s", string(body))
		}
	}

	// 4) Escaneo inválido => 400
	{
		st, _ := doReq(t, ts.URL, "POST", "/me/history", userID, map[string]any{"confidence": 0.5})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for scan without breed, got %d", st)
		}
	}

	// 5) Historial y snapshot lo reflejan
	{
		st, body := doReq(t, ts.URL, "GET", "/me/history?limit=10", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list history, got %d", st)
		}
		var list []map[string]any
		_ = json.Unmarshal(body, &list)
		if len(list) != 1 {
			t.Fatalf("expected 1 scan, got %d", len(list))
		}

		st, body = doReq(t, ts.URL, "GET", "/me/snapshot", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 snapshot, got %d", st)
		}
		var snap analytics.Snapshot
		_ = json.Unmarshal(body, &snap)
		if snap.Stats.TotalScans != 1 {
			t.Fatalf("expected 1 scan in snapshot, got %d", snap.Stats.TotalScans)
		}
	}

	// 6) Favoritos sin duplicados
	{
		for _, breed := range []string{"Pug", "pug"} {
			st, body := doReq(t, ts.URL, "POST", "/me/favorites", userID, map[string]any{"breed": breed})
			if st != http.StatusCreated {
				t.Fatalf("expected 201 save breed, got %d body=%s", st, string(body))
			}
		}
		st, body := doReq(t, ts.URL, "GET", "/me/favorites", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 favorites, got %d", st)
		}
		var favs []map[string]any
		_ = json.Unmarshal(body, &favs)
		if len(favs) != 1 {
			t.Fatalf("expected 1 favorite, got %s", string(body))
		}

		st, _ = doReq(t, ts.URL, "DELETE", "/me/favorites/PUG", userID, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 remove breed, got %d", st)
		}
	}

	// 7) Preferencias: tema inválido => 400
	{
		st, _ := doReq(t, ts.URL, "PUT", "/me/preferences", userID, map[string]any{"theme": "neon"})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid theme, got %d", st)
		}
		st, body := doReq(t, ts.URL, "PUT", "/me/preferences", userID, map[string]any{"theme": "dark"})
		if st != http.StatusOK {
			t.Fatalf("expected 200 update preferences, got %d body=%s", st, string(body))
		}
	}

	// 8) Export del servidor no existe sin conexión
	{
		st, _ := doReq(t, ts.URL, "POST", "/me/analytics/export", userID, map[string]any{"format": "json"})
		if st != http.StatusServiceUnavailable {
			t.Fatalf("expected 503 remote-only export, got %d", st)
		}
	}

	// 9) Dashboard y tendencias locales
	{
		st, _ := doReq(t, ts.URL, "GET", "/me/analytics/dashboard?days=7", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 dashboard, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "GET", "/me/analytics/trends?period=yearly", userID, nil)
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 invalid period, got %d", st)
		}
	}

	// 10) Libro XLSX
	{
		st, body := doReq(t, ts.URL, "GET", "/me/export.xlsx", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 xlsx, got %d", st)
		}
		if !bytes.HasPrefix(body, []byte("PK")) {
			t.Fatalf("expected zip payload")
		}
	}
}

func TestHTTP_PetsAndFeedbackOffline(t *testing.T) {
	ts := newOfflineServer(t)
	userID := "user_2"

	st, body := doReq(t, ts.URL, "POST", "/me/pets/", userID, map[string]any{"name": "Milo", "breed": "Beagle"})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
		SavedToRemote bool `json:"saved_to_remote"`
	}
	_ = json.Unmarshal(body, &created)
	if created.Data.ID == "" || created.SavedToRemote {
		t.Fatalf("expected local pet with id, got %s", string(body))
	}

	st, _ = doReq(t, ts.URL, "POST", "/me/pets/", userID, map[string]any{"name": "NoBreed"})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 pet without breed, got %d", st)
	}

	st, body = doReq(t, ts.URL, "PUT", "/me/pets/"+created.Data.ID, userID, map[string]any{"name": "Milo II"})
	if st != http.StatusOK {
		t.Fatalf("expected 200 update pet, got %d body=%s", st, string(body))
	}

	st, _ = doReq(t, ts.URL, "DELETE", "/me/pets/"+created.Data.ID, userID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 delete pet, got %d", st)
	}
	st, _ = doReq(t, ts.URL, "DELETE", "/me/pets/"+created.Data.ID, userID, nil)
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 deleting twice, got %d", st)
	}

	st, body = doReq(t, ts.URL, "POST", "/me/feedback", userID, map[string]any{
		"feedback_type": "general",
		"subject":       "Hola",
		"message":       "Funciona sin conexión",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 feedback, got %d body=%s", st, string(body))
	}
	var fb struct {
		Data struct {
			Queued bool `json:"queued"`
		} `json:"data"`
	}
	_ = json.Unmarshal(body, &fb)
	if !fb.Data.Queued {
		t.Fatalf("expected queued feedback, got %s", string(body))
	}

	st, body = doReq(t, ts.URL, "POST", "/me/feedback/flush", userID, nil)
	if st != http.StatusOK || !bytes.Contains(body, []byte(`"sent":0`)) {
		t.Fatalf("expected nothing flushed offline, got %d body=%s", st, string(body))
	}
}

func TestHTTP_HealthAndSwagger(t *testing.T) {
	ts := newOfflineServer(t)

	st, body := doReq(t, ts.URL, "GET", "/health", "", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("expected ok health, got %d %s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "GET", "/swagger/doc.json", "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 swagger doc, got %d", st)
	}
	if !bytes.Contains(body, []byte(`"/me/history"`)) {
		t.Fatalf("swagger doc missing history path")
	}
}

func doReq(t *testing.T, baseURL, method, path, userID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
