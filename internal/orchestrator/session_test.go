package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawdentify/internal/adapters/remote/pawapi"
	"pawdentify/internal/adapters/storage/memory"
	"pawdentify/internal/analytics"
	"pawdentify/internal/domain/profile"
	"pawdentify/internal/domain/scans"
	"pawdentify/internal/gateway"
	"pawdentify/internal/localstore"
	"pawdentify/internal/merge"
	"pawdentify/internal/platform/httpclient"
	"pawdentify/internal/platform/logger"
)

var testNow = time.Date(2025, 12, 22, 15, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

var ana = profile.Identity{UserID: "user_1", Email: "ana@example.com", Username: "ana"}

// backend es un servidor remoto en memoria con la forma de respuestas del real.
type backend struct {
	mu        sync.Mutex
	userExist bool
	history   []map[string]any
	favorites []string
	nextID    int
	scanDelay func(n int) time.Duration
	// scanStatus y favStatus, si no son cero, hacen fallar la escritura tras la demora.
	scanStatus int
	favDelay   time.Duration
	favStatus  int
	// onList se llama después de leer el historial y antes de responder.
	onList func()
}

func (b *backend) router() http.Handler {
	r := chi.NewRouter()
	reply := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	r.Get("/api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !b.userExist {
			http.Error(w, `{"detail":"User not found"}`, http.StatusNotFound)
			return
		}
		reply(w, map[string]any{"clerk_user_id": chi.URLParam(r, "id"), "email": ana.Email, "favorite_breeds": b.favorites})
	})
	r.Post("/api/users", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.userExist = true
		b.mu.Unlock()
		reply(w, map[string]string{"message": "User created successfully"})
	})
	r.Put("/api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]string{"message": "updated"})
	})
	r.Get("/api/scan-history/user/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		list := append([]map[string]any{}, b.history...)
		hook := b.onList
		b.mu.Unlock()
		if hook != nil {
			hook()
		}
		reply(w, map[string]any{"scans": list})
	})
	r.Post("/api/scan-history/user/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		if b.scanStatus != 0 {
			status, delay := b.scanStatus, b.scanDelay
			b.mu.Unlock()
			if delay != nil {
				time.Sleep(delay(0))
			}
			http.Error(w, `{"detail":"write failed"}`, status)
			return
		}
		b.nextID++
		n := b.nextID
		id := fmt.Sprintf("srv-%d", n)
		body["id"] = id
		b.history = append([]map[string]any{body}, b.history...)
		delay := b.scanDelay
		b.mu.Unlock()
		if delay != nil {
			time.Sleep(delay(n))
		}
		reply(w, map[string]any{"message": "ok", "scan_id": id})
	})
	r.Get("/api/scan-history/user/{id}/stats", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		reply(w, map[string]any{"total_scans": len(b.history), "most_identified_breed": "Beagle"})
	})
	r.Get("/api/preferences", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"preferences": map[string]any{"theme": "dark"}})
	})
	r.Put("/api/preferences", func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		_ = json.NewDecoder(r.Body).Decode(&p)
		reply(w, map[string]any{"preferences": p})
	})
	r.Post("/api/users/{id}/favorites", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		delay, status := b.favDelay, b.favStatus
		b.mu.Unlock()
		time.Sleep(delay)
		if status != 0 {
			http.Error(w, `{"detail":"write failed"}`, status)
			return
		}
		b.mu.Lock()
		b.favorites = append(b.favorites, body["breed_name"])
		b.mu.Unlock()
		reply(w, map[string]string{"message": "added"})
	})
	r.Delete("/api/users/{id}/favorites", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]string{"message": "removed"})
	})
	return r
}

type harness struct {
	gw    *gateway.Gateway
	store *localstore.Store
	calls *atomic.Int32
}

func newHarness(t *testing.T, h http.Handler) harness {
	t.Helper()
	var calls atomic.Int32
	var hc *httpclient.Client
	if h == nil {
		hc = httpclient.NewWithTransport("http://pawdentify.test", time.Second, roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls.Add(1)
			return nil, errors.New("connection refused")
		}))
	} else {
		ts := httptest.NewServer(h)
		t.Cleanup(ts.Close)
		var err error
		hc, err = httpclient.NewWithBaseURL(ts.URL, 2*time.Second)
		require.NoError(t, err)
	}
	store := localstore.New(memory.NewKV(), logger.NewNop())
	gw := gateway.New(gateway.Deps{
		Remote: pawapi.New(hc).WithClock(clock),
		Local:  store,
		Engine: analytics.NewEngine(clock, analytics.DefaultDays),
		Now:    clock,
	})
	return harness{gw: gw, store: store, calls: &calls}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func remoteScan(id, breed string, ago time.Duration) map[string]any {
	return map[string]any{"_id": id, "breed": breed, "confidence": 0.9, "timestamp": testNow.Add(-ago).Format(time.RFC3339)}
}

func classified(breed string) scans.ClassifierResult {
	return scans.ClassifierResult{PredictedClass: breed, Confidence: 0.88}
}

func TestSignIn_Synced(t *testing.T) {
	b := &backend{
		userExist: true,
		favorites: []string{"Beagle"},
		history:   []map[string]any{remoteScan("s1", "Beagle", time.Hour), remoteScan("s2", "Pug", 2*time.Hour)},
	}
	h := newHarness(t, b.router())
	s := NewSession(ana, h.gw, logger.NewNop())

	var events []Event
	s.OnSnapshot(func(ev Event, _ analytics.Snapshot) { events = append(events, ev) })

	st, err := s.SignIn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSynced, st)

	v := s.View()
	require.Len(t, v.History, 2)
	assert.Equal(t, "s1", v.History[0].ID)
	assert.Equal(t, []string{"Beagle"}, profile.BreedNames(v.Favorites))
	assert.Equal(t, profile.ThemeDark, v.Preferences.Theme)
	assert.Equal(t, 2, v.Snapshot.Stats.TotalScans)
	require.NotNil(t, v.ServerStats)
	assert.Equal(t, []Event{EventSynced}, events)

	backup, err := h.store.History(context.Background(), ana.UserID)
	require.NoError(t, err)
	assert.Equal(t, v.History, backup)

	// un segundo sign-in no vuelve a sincronizar
	st, err = s.SignIn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSynced, st)
	assert.Len(t, events, 1)
}

func TestSignIn_CreatesMissingUser(t *testing.T) {
	b := &backend{}
	h := newHarness(t, b.router())
	s := NewSession(ana, h.gw, nil)

	st, err := s.SignIn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSynced, st)
	assert.True(t, b.userExist)
}

func TestSignIn_EmptyRemoteHistoryKeepsLocal(t *testing.T) {
	b := &backend{userExist: true}
	h := newHarness(t, b.router())
	ctx := context.Background()
	local := []scans.ScanRecord{{ID: "a", Breed: "Boxer", Confidence: 0.7, Timestamp: testNow.Add(-time.Hour)}}
	require.NoError(t, h.store.SaveHistory(ctx, ana.UserID, local))

	s := NewSession(ana, h.gw, nil)
	_, err := s.SignIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, local, s.View().History)
}

func TestSignIn_OfflineDegradesWithoutRetry(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	local := []scans.ScanRecord{{ID: "a", Breed: "Boxer", Confidence: 0.7, Timestamp: testNow.Add(-time.Hour)}}
	require.NoError(t, h.store.SaveHistory(ctx, ana.UserID, local))

	s := NewSession(ana, h.gw, nil)
	st, err := s.SignIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateDegraded, st)
	assert.Equal(t, local, s.View().History)
	assert.Equal(t, 1, s.Snapshot().Stats.TotalScans)
	assert.Equal(t, int32(1), h.calls.Load())

	// escrituras en degradado no tocan la red
	_, err = s.AddToHistory(ctx, classified("Pug"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), h.calls.Load())

	// sólo un refresh explícito vuelve a intentar
	st, err = s.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateDegraded, st)
	assert.Equal(t, int32(2), h.calls.Load())
}

func TestAddToHistory_ReconcilesServerID(t *testing.T) {
	b := &backend{userExist: true}
	h := newHarness(t, b.router())
	ctx := context.Background()
	s := NewSession(ana, h.gw, nil)
	_, err := s.SignIn(ctx)
	require.NoError(t, err)

	var snaps []analytics.Snapshot
	s.OnSnapshot(func(ev Event, snap analytics.Snapshot) {
		assert.Equal(t, EventHistoryChanged, ev)
		snaps = append(snaps, snap)
	})

	rec, err := s.AddToHistory(ctx, classified("Beagle"))
	require.NoError(t, err)
	assert.Equal(t, "srv-1", rec.ID)
	assert.False(t, rec.LocalOnly)

	hist := s.View().History
	require.Len(t, hist, 1)
	assert.Equal(t, "srv-1", hist[0].ID)

	// optimista + reconciliado, cada uno con el snapshot ya recalculado
	require.Len(t, snaps, 2)
	assert.Equal(t, 1, snaps[0].Stats.TotalScans)
	assert.Equal(t, 1, snaps[1].Stats.TotalScans)

	// recarga: otra sesión sobre el mismo almacenamiento ve la misma lista
	reloaded, err := h.store.History(ctx, ana.UserID)
	require.NoError(t, err)
	if diff := cmp.Diff(hist, reloaded); diff != "" {
		t.Fatalf("reloaded history mismatch (-mem +store):\n%s", diff)
	}
}

func TestAddToHistory_DegradedKeepsTempID(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	s := NewSession(ana, h.gw, nil)
	_, _ = s.SignIn(ctx)

	rec, err := s.AddToHistory(ctx, classified("Pug"))
	require.NoError(t, err)
	assert.True(t, merge.IsTemp(rec.ID))
	assert.True(t, rec.LocalOnly)

	stored, err := h.store.History(ctx, ana.UserID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, rec.ID, stored[0].ID)
	assert.True(t, stored[0].LocalOnly)

	_, err = s.AddToHistory(ctx, scans.ClassifierResult{Confidence: 0.5})
	assert.ErrorIs(t, err, gateway.ErrValidation)
}

func TestAddToHistory_ConcurrentLateResponses(t *testing.T) {
	b := &backend{
		userExist: true,
		// las primeras escrituras responden último
		scanDelay: func(n int) time.Duration { return time.Duration(6-n) * 15 * time.Millisecond },
	}
	h := newHarness(t, b.router())
	ctx := context.Background()
	s := NewSession(ana, h.gw, nil)
	_, err := s.SignIn(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, breed := range []string{"Beagle", "Pug", "Boxer", "Husky", "Akita"} {
		wg.Add(1)
		go func(breed string) {
			defer wg.Done()
			_, err := s.AddToHistory(ctx, classified(breed))
			assert.NoError(t, err)
		}(breed)
	}
	wg.Wait()

	hist := s.View().History
	require.Len(t, hist, 5)
	seen := map[string]bool{}
	for _, r := range hist {
		assert.False(t, merge.IsTemp(r.ID), "unreconciled record %s", r.ID)
		assert.True(t, strings.HasPrefix(r.ID, "srv-"))
		seen[r.ID] = true
	}
	assert.Len(t, seen, 5)
}

func TestRefresh_KeepsPendingOptimisticScan(t *testing.T) {
	b := &backend{
		userExist:  true,
		history:    []map[string]any{remoteScan("s1", "Beagle", time.Hour)},
		scanDelay:  func(int) time.Duration { return 300 * time.Millisecond },
		scanStatus: http.StatusInternalServerError,
	}
	h := newHarness(t, b.router())
	ctx := context.Background()
	s := NewSession(ana, h.gw, nil)
	_, err := s.SignIn(ctx)
	require.NoError(t, err)

	done := make(chan scans.ScanRecord)
	go func() {
		rec, err := s.AddToHistory(ctx, classified("Pug"))
		assert.NoError(t, err)
		done <- rec
	}()
	require.Eventually(t, func() bool { return len(s.View().History) == 2 }, time.Second, 5*time.Millisecond)

	// el refresh termina mientras la escritura sigue en vuelo
	st, err := s.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateSynced, st)
	hist := s.View().History
	require.Len(t, hist, 2)
	assert.Equal(t, "Pug", hist[0].Breed)
	assert.True(t, merge.IsTemp(hist[0].ID))

	rec := <-done
	assert.True(t, rec.LocalOnly)

	hist = s.View().History
	require.Len(t, hist, 2)
	assert.Equal(t, rec.ID, hist[0].ID)
	assert.True(t, hist[0].LocalOnly)
	assert.Equal(t, "s1", hist[1].ID)

	stored, err := h.store.History(ctx, ana.UserID)
	require.NoError(t, err)
	assert.Equal(t, hist, stored)
}

func TestRefresh_KeepsScanConfirmedDuringLoad(t *testing.T) {
	b := &backend{userExist: true, history: []map[string]any{remoteScan("s1", "Beagle", time.Hour)}}
	h := newHarness(t, b.router())
	ctx := context.Background()
	s := NewSession(ana, h.gw, nil)
	_, err := s.SignIn(ctx)
	require.NoError(t, err)

	// la escritura se confirma después de que el refresh leyó el historial remoto
	listed, release := make(chan struct{}), make(chan struct{})
	var once sync.Once
	b.mu.Lock()
	b.onList = func() {
		once.Do(func() { close(listed) })
		<-release
	}
	b.mu.Unlock()

	refreshed := make(chan State)
	go func() {
		st, err := s.Refresh(ctx)
		assert.NoError(t, err)
		refreshed <- st
	}()
	<-listed
	b.mu.Lock()
	b.onList = nil
	b.mu.Unlock()

	rec, err := s.AddToHistory(ctx, classified("Pug"))
	require.NoError(t, err)
	assert.Equal(t, "srv-1", rec.ID)
	close(release)
	assert.Equal(t, StateSynced, <-refreshed)

	var ids []string
	for _, r := range s.View().History {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"srv-1", "s1"}, ids)

	stored, err := h.store.History(ctx, ana.UserID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestRefresh_KeepsPendingFavorite(t *testing.T) {
	b := &backend{
		userExist: true,
		favorites: []string{"Beagle"},
		favDelay:  300 * time.Millisecond,
		favStatus: http.StatusInternalServerError,
	}
	h := newHarness(t, b.router())
	ctx := context.Background()
	s := NewSession(ana, h.gw, nil)
	_, err := s.SignIn(ctx)
	require.NoError(t, err)

	done := make(chan profile.FavoriteBreed)
	go func() {
		fav, err := s.SaveBreed(ctx, "Husky")
		assert.NoError(t, err)
		done <- fav
	}()
	require.Eventually(t, func() bool { return len(s.View().Favorites) == 2 }, time.Second, 5*time.Millisecond)

	st, err := s.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateSynced, st)
	assert.ElementsMatch(t, []string{"Husky", "Beagle"}, profile.BreedNames(s.View().Favorites))

	fav := <-done
	assert.True(t, fav.LocalOnly)
	favs := s.View().Favorites
	assert.ElementsMatch(t, []string{"Husky", "Beagle"}, profile.BreedNames(favs))
	assert.Contains(t, s.Snapshot().Stats.FavoriteBreeds, "Husky")

	saved, err := h.store.Saved(ctx, ana.UserID)
	require.NoError(t, err)
	assert.True(t, profile.HasBreed(saved, "Husky"))
}

func TestHistory_CappedAt50(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	s := NewSession(ana, h.gw, nil)
	_, _ = s.SignIn(ctx)

	var first scans.ScanRecord
	for i := 0; i < 55; i++ {
		rec, err := s.AddToHistory(ctx, classified(fmt.Sprintf("Breed %d", i)))
		require.NoError(t, err)
		if i == 0 {
			first = rec
		}
	}
	hist := s.View().History
	require.Len(t, hist, scans.HistoryLimit)
	assert.Equal(t, "Breed 54", hist[0].Breed)
	for _, r := range hist {
		assert.NotEqual(t, first.ID, r.ID)
	}
}

func TestSaveBreed_NoDuplicates(t *testing.T) {
	b := &backend{userExist: true}
	h := newHarness(t, b.router())
	ctx := context.Background()
	s := NewSession(ana, h.gw, nil)
	_, err := s.SignIn(ctx)
	require.NoError(t, err)

	fav, err := s.SaveBreed(ctx, "Beagle")
	require.NoError(t, err)
	assert.False(t, fav.LocalOnly)

	_, err = s.SaveBreed(ctx, "beagle")
	require.NoError(t, err)
	assert.Len(t, s.View().Favorites, 1)
	assert.Equal(t, []string{"Beagle"}, b.favorites)
	assert.Equal(t, []string{"Beagle"}, s.Snapshot().Stats.FavoriteBreeds)

	require.NoError(t, s.RemoveSavedBreed(ctx, "BEAGLE"))
	assert.Empty(t, s.View().Favorites)

	saved, err := h.store.Saved(ctx, ana.UserID)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestUpdatePreferences(t *testing.T) {
	b := &backend{userExist: true}
	h := newHarness(t, b.router())
	ctx := context.Background()
	s := NewSession(ana, h.gw, nil)

	p := profile.DefaultPreferences()
	p.Theme = profile.ThemeAuto
	w, err := s.UpdatePreferences(ctx, p)
	require.NoError(t, err)
	assert.True(t, w.SavedToRemote)
	assert.Equal(t, profile.ThemeAuto, s.View().Preferences.Theme)

	theme, err := h.store.Theme(ctx, ana.UserID)
	require.NoError(t, err)
	assert.Equal(t, profile.ThemeAuto, theme)

	p.Theme = "neon"
	_, err = s.UpdatePreferences(ctx, p)
	assert.ErrorIs(t, err, gateway.ErrValidation)
}

func TestRecordSearch_RecentFiveDeduped(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	s := NewSession(ana, h.gw, nil)

	for _, term := range []string{"pug", "beagle", "boxer", "husky", "akita", "corgi", "Beagle", "  "} {
		_, err := s.RecordSearch(ctx, term)
		require.NoError(t, err)
	}
	got, err := s.RecentSearches(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beagle", "corgi", "akita", "husky", "boxer"}, got)
	assert.Zero(t, h.calls.Load())
}

func TestManager_OneSessionPerUser(t *testing.T) {
	h := newHarness(t, nil)
	m := NewManager(h.gw, nil)

	var hooked int
	m.OnSession(func(*Session) { hooked++ })

	a, err := m.Open(ana)
	require.NoError(t, err)
	b, err := m.Open(profile.Identity{UserID: " user_1 "})
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, hooked)

	got, ok := m.Get("user_1")
	require.True(t, ok)
	assert.Same(t, a, got)

	m.Close("user_1")
	assert.Zero(t, m.Len())

	_, err = m.Open(profile.Identity{})
	assert.ErrorIs(t, err, gateway.ErrValidation)
}
