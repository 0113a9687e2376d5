package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawdentify/internal/availability"
	"pawdentify/internal/domain/profile"
)

func preferencesRouter(status int, body any) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/preferences", func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, `{"detail":"Preferences not found"}`, status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
	return r
}

func TestGetPreferences_RemoteIsMirrored(t *testing.T) {
	g, store := newGateway(t, serverRemote(t, preferencesRouter(http.StatusOK,
		map[string]any{"preferences": map[string]any{"theme": "dark"}})))
	ctx := context.Background()

	p, err := g.GetPreferences(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, profile.ThemeDark, p.Theme)
	assert.Equal(t, profile.DefaultPreferences().Notifications, p.Notifications)

	theme, err := store.Theme(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, profile.ThemeDark, theme)
}

func TestGetPreferences_NotFoundUsesLocal(t *testing.T) {
	g, store := newGateway(t, serverRemote(t, preferencesRouter(http.StatusNotFound, nil)))
	ctx := context.Background()
	require.NoError(t, store.SaveTheme(ctx, "user_1", profile.ThemeAuto))

	p, err := g.GetPreferences(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, profile.ThemeAuto, p.Theme)
	assert.Equal(t, profile.DefaultPreferences().Privacy, p.Privacy)
	// un 404 aquí es "sin preferencias", no un endpoint ausente
	assert.True(t, g.Availability.Usable())
}

func TestGetPreferences_UnavailableReadsLocal(t *testing.T) {
	var calls atomic.Int32
	g, _ := newGateway(t, countingRemote(&calls))
	g.Availability.Set(availability.Unavailable)
	ctx := context.Background()

	saved := profile.DefaultPreferences()
	saved.Theme = profile.ThemeDark
	saved.Notifications = map[string]bool{"email": false}
	require.NoError(t, g.SaveLocalPreferences(ctx, "user_1", saved))

	p, err := g.GetPreferences(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, profile.ThemeDark, p.Theme)
	assert.Equal(t, map[string]bool{"email": false}, p.Notifications)
	assert.Zero(t, calls.Load())

	// sin nada guardado se devuelven los defaults
	p, err = g.GetPreferences(ctx, "user_2")
	require.NoError(t, err)
	assert.Equal(t, profile.DefaultPreferences(), p)
}
