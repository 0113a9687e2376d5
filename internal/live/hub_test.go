package live

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawdentify/internal/adapters/storage/memory"
	"pawdentify/internal/analytics"
	"pawdentify/internal/availability"
	"pawdentify/internal/domain/profile"
	"pawdentify/internal/domain/scans"
	"pawdentify/internal/gateway"
	"pawdentify/internal/localstore"
	"pawdentify/internal/orchestrator"
)

var testNow = time.Date(2025, 12, 22, 15, 0, 0, 0, time.UTC)

func offlineSession(t *testing.T) *orchestrator.Session {
	t.Helper()
	clock := func() time.Time { return testNow }
	gw := gateway.New(gateway.Deps{
		Local:  localstore.New(memory.NewKV(), nil),
		Engine: analytics.NewEngine(clock, analytics.DefaultDays),
		Now:    clock,
	})
	gw.Availability.Set(availability.Unavailable)
	return orchestrator.NewSession(profile.Identity{UserID: "user_1"}, gw, nil)
}

func TestHub_PushesSnapshots(t *testing.T) {
	s := offlineSession(t)
	hub := NewHub(nil)
	defer hub.Attach(s)()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, s)
	}))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var first Message
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "snapshot", first.Type)
	require.NotNil(t, first.Snapshot)
	assert.Zero(t, first.Snapshot.Stats.TotalScans)

	require.Eventually(t, func() bool { return hub.Subscribers("user_1") == 1 }, time.Second, 10*time.Millisecond)

	_, err = s.AddToHistory(t.Context(), scans.ClassifierResult{PredictedClass: "Beagle", Confidence: 0.9})
	require.NoError(t, err)

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, orchestrator.EventHistoryChanged, msg.Event)
	require.NotNil(t, msg.Snapshot)
	assert.Equal(t, 1, msg.Snapshot.Stats.TotalScans)
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub := NewHub(nil)
	hub.Publish("nobody", Message{Type: "snapshot"})
	assert.Zero(t, hub.Subscribers("nobody"))
}
