// Package live empuja cada snapshot recalculado a los clientes websocket del usuario.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pawdentify/internal/analytics"
	"pawdentify/internal/orchestrator"
	"pawdentify/internal/platform/logger"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message es el formato JSON enviado por el socket.
type Message struct {
	Type     string              `json:"type"`
	Event    orchestrator.Event  `json:"event,omitempty"`
	State    orchestrator.State  `json:"state,omitempty"`
	Snapshot *analytics.Snapshot `json:"snapshot,omitempty"`
}

type subscriber struct {
	ch chan Message
}

type Hub struct {
	log logger.Logger

	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{log: log, subs: map[string]map[*subscriber]struct{}{}}
}

// Attach suscribe el hub a los snapshots de la sesión.
func (h *Hub) Attach(s *orchestrator.Session) func() {
	uid := s.UserID()
	return s.OnSnapshot(func(ev orchestrator.Event, snap analytics.Snapshot) {
		h.Publish(uid, Message{Type: "snapshot", Event: ev, State: s.State(), Snapshot: &snap})
	})
}

// Publish no bloquea: un suscriptor lento pierde mensajes intermedios.
func (h *Hub) Publish(userID string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[userID] {
		select {
		case sub.ch <- msg:
		default:
			h.log.Debug("live subscriber behind, dropping message", map[string]any{"user_id": userID})
		}
	}
}

func (h *Hub) subscribe(userID string) *subscriber {
	sub := &subscriber{ch: make(chan Message, sendBuffer)}
	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = map[*subscriber]struct{}{}
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) unsubscribe(userID string, sub *subscriber) {
	h.mu.Lock()
	delete(h.subs[userID], sub)
	if len(h.subs[userID]) == 0 {
		delete(h.subs, userID)
	}
	h.mu.Unlock()
}

// Subscribers devuelve cuántos sockets tiene abiertos el usuario.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Serve atiende un socket ya autenticado: envía el snapshot actual y luego cada cambio.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, s *orchestrator.Session) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", map[string]any{"error": err.Error()})
		return
	}
	defer func() { _ = conn.Close() }()
	// el ReadTimeout del http.Server sigue vigente tras el upgrade
	_ = conn.SetReadDeadline(time.Time{})

	uid := s.UserID()
	sub := h.subscribe(uid)
	defer h.unsubscribe(uid, sub)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// el cliente no envía comandos; leer sólo detecta el cierre
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	snap := s.Snapshot()
	if err := write(conn, Message{Type: "snapshot", State: s.State(), Snapshot: &snap}); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-sub.ch:
			if err := write(conn, msg); err != nil {
				return
			}
		}
	}
}

func write(conn *websocket.Conn, msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, b)
}
