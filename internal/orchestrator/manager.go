package orchestrator

import (
	"strings"
	"sync"

	"pawdentify/internal/domain/profile"
	"pawdentify/internal/gateway"
	"pawdentify/internal/platform/logger"
)

// Manager mantiene una sesión por usuario.
type Manager struct {
	gw  *gateway.Gateway
	log logger.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	onNew    []func(*Session)
}

func NewManager(gw *gateway.Gateway, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{gw: gw, log: log, sessions: map[string]*Session{}}
}

func (m *Manager) Gateway() *gateway.Gateway { return m.gw }

// OnSession se invoca con cada sesión nueva (p.ej. para suscribir el hub de snapshots).
func (m *Manager) OnSession(fn func(*Session)) {
	m.mu.Lock()
	m.onNew = append(m.onNew, fn)
	m.mu.Unlock()
}

// Open devuelve la sesión del usuario, creándola en idle si no existe.
func (m *Manager) Open(id profile.Identity) (*Session, error) {
	uid := strings.TrimSpace(id.UserID)
	if uid == "" {
		return nil, gateway.ErrValidation
	}
	id.UserID = uid

	m.mu.Lock()
	if s, ok := m.sessions[uid]; ok {
		m.mu.Unlock()
		return s, nil
	}
	s := NewSession(id, m.gw, m.log)
	m.sessions[uid] = s
	hooks := append([]func(*Session){}, m.onNew...)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(s)
	}
	return s, nil
}

func (m *Manager) Get(userID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[strings.TrimSpace(userID)]
	return s, ok
}

// Close descarta la sesión en memoria; los datos locales se conservan.
func (m *Manager) Close(userID string) {
	m.mu.Lock()
	delete(m.sessions, strings.TrimSpace(userID))
	m.mu.Unlock()
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
