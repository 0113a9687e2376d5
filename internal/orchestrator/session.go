// Package orchestrator mantiene el estado en memoria de un usuario con sesión iniciada
// y lo sincroniza con el gateway.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"pawdentify/internal/analytics"
	"pawdentify/internal/domain/profile"
	"pawdentify/internal/domain/scans"
	"pawdentify/internal/gateway"
	"pawdentify/internal/merge"
	"pawdentify/internal/platform/logger"
)

// State es la etapa de sincronización de la sesión.
type State string

const (
	StateIdle     State = "idle"
	StateSyncing  State = "syncing"
	StateSynced   State = "synced"
	StateDegraded State = "degraded"
)

// Event indica qué cambió antes de recalcular el snapshot.
type Event string

const (
	EventSynced           Event = "synced"
	EventHistoryChanged   Event = "history_changed"
	EventFavoritesChanged Event = "favorites_changed"
)

// RecentSearchLimit es cuántos términos de búsqueda recientes se conservan.
const RecentSearchLimit = 5

var ErrSyncInProgress = errors.New("sync already in progress")

// Listener recibe el snapshot ya recalculado.
type Listener func(ev Event, snap analytics.Snapshot)

// View es una copia del estado de la sesión.
type View struct {
	UserID      string                    `json:"user_id"`
	State       State                     `json:"state"`
	Remote      string                    `json:"remote"`
	User        profile.User              `json:"user"`
	History     []scans.ScanRecord        `json:"history"`
	Favorites   []profile.FavoriteBreed   `json:"favorites"`
	Preferences profile.Preferences       `json:"preferences"`
	Snapshot    analytics.Snapshot        `json:"snapshot"`
	ServerStats *analytics.DashboardStats `json:"server_stats,omitempty"`
}

type Session struct {
	identity profile.Identity
	gw       *gateway.Gateway
	log      logger.Logger

	// mu protege el estado en memoria; nunca se mantiene durante una llamada de red.
	mu          sync.Mutex
	state       State
	user        profile.User
	history     []scans.ScanRecord
	favorites   []profile.FavoriteBreed
	prefs       profile.Preferences
	snapshot    analytics.Snapshot
	serverStats *analytics.DashboardStats
	// landed son los ids que el servidor confirmó desde que arrancó la última sincronización.
	landed map[string]struct{}

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

func NewSession(id profile.Identity, gw *gateway.Gateway, log logger.Logger) *Session {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Session{
		identity:  id,
		gw:        gw,
		log:       log.With(map[string]any{"component": "session", "user_id": id.UserID}),
		state:     StateIdle,
		history:   []scans.ScanRecord{},
		favorites: []profile.FavoriteBreed{},
		prefs:     profile.DefaultPreferences(),
		landed:    map[string]struct{}{},
		listeners: map[int]Listener{},
	}
	s.snapshot = gw.Engine().Snapshot(s.history, nil)
	return s
}

func (s *Session) UserID() string { return s.identity.UserID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Snapshot() analytics.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		UserID:      s.identity.UserID,
		State:       s.state,
		Remote:      s.gw.Availability.State().String(),
		User:        s.user,
		History:     append([]scans.ScanRecord{}, s.history...),
		Favorites:   append([]profile.FavoriteBreed{}, s.favorites...),
		Preferences: s.prefs,
		Snapshot:    s.snapshot,
		ServerStats: s.serverStats,
	}
}

// OnSnapshot registra un listener y devuelve la función para darlo de baja.
func (s *Session) OnSnapshot(fn Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

// changedLocked recalcula el snapshot. Debe llamarse con mu tomado; la notificación
// se hace después de soltarlo con notify.
func (s *Session) changedLocked() analytics.Snapshot {
	s.snapshot = s.gw.Engine().Snapshot(s.history, profile.BreedNames(s.favorites))
	return s.snapshot
}

func (s *Session) notify(ev Event, snap analytics.Snapshot) {
	s.listenersMu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		ls = append(ls, fn)
	}
	s.listenersMu.Unlock()
	for _, fn := range ls {
		fn(ev, snap)
	}
}

// SignIn dispara la sincronización inicial. Sólo tiene efecto desde idle.
func (s *Session) SignIn(ctx context.Context) (State, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		st := s.state
		s.mu.Unlock()
		return st, nil
	}
	s.state = StateSyncing
	s.mu.Unlock()
	return s.sync(ctx), nil
}

// Refresh vuelve a sondear el servicio remoto y re-sincroniza desde cualquier estado.
// Es la única forma de salir de degraded.
func (s *Session) Refresh(ctx context.Context) (State, error) {
	s.mu.Lock()
	if s.state == StateSyncing {
		s.mu.Unlock()
		return StateSyncing, ErrSyncInProgress
	}
	s.state = StateSyncing
	s.mu.Unlock()

	s.gw.Recheck(ctx)
	return s.sync(ctx), nil
}

type loaded struct {
	history   []scans.ScanRecord
	favorites []profile.FavoriteBreed
	prefs     profile.Preferences
	stats     analytics.DashboardStats
}

func (s *Session) sync(ctx context.Context) State {
	uid := s.identity.UserID
	s.mu.Lock()
	s.landed = map[string]struct{}{}
	s.mu.Unlock()

	w, err := s.gw.SyncUser(ctx, s.identity)
	if err != nil || !w.SavedToRemote || !s.gw.Availability.Usable() {
		if err != nil {
			s.log.Warn("user sync failed", map[string]any{"error": err.Error()})
		}
		return s.degrade(ctx, w.Data)
	}

	var data loaded
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.history, err = s.gw.GetScanHistory(gctx, uid, scans.HistoryLimit, 0)
		return err
	})
	g.Go(func() error {
		var err error
		data.favorites, err = s.gw.GetFavorites(gctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		data.prefs, err = s.gw.GetPreferences(gctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		data.stats, err = s.gw.GetDashboardStats(gctx, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("remote load failed", map[string]any{"error": err.Error()})
		return s.degrade(ctx, w.Data)
	}
	// alguna carga cayó a local: la sesión no está sincronizada
	if !s.gw.Availability.Usable() {
		return s.degrade(ctx, w.Data)
	}

	local, err := s.gw.Local().History(ctx, uid)
	if err != nil {
		s.log.Warn("local history unreadable", map[string]any{"error": err.Error()})
	}
	history := reconcileHistory(data.history, local)

	if n, err := s.gw.FlushQueuedFeedback(ctx, uid); err != nil {
		s.log.Warn("feedback flush failed", map[string]any{"error": err.Error(), "sent": n})
	}

	stats := data.stats
	s.mu.Lock()
	s.state = StateSynced
	s.user = w.Data
	// escrituras optimistas que arrancaron durante la carga siguen pendientes
	s.history = merge.Carry(history, s.history, s.keepScanLocked, scans.HistoryLimit)
	s.favorites = merge.Carry(nonNil(data.favorites), s.favorites, s.keepFavoriteLocked, 0)
	s.prefs = data.prefs
	s.serverStats = &stats
	if err := s.gw.BackupHistory(ctx, uid, s.history); err != nil {
		s.log.Warn("history backup failed", map[string]any{"error": err.Error()})
	}
	s.persistFavoritesLocked(ctx)
	nHistory, nFavorites := len(s.history), len(s.favorites)
	snap := s.changedLocked()
	s.mu.Unlock()

	s.log.Info("session synced", map[string]any{"history": nHistory, "favorites": nFavorites})
	s.notify(EventSynced, snap)
	return StateSynced
}

// reconcileHistory usa el historial remoto; si viene vacío se conserva el local.
// Los registros pendientes que el servidor no conoce quedan al inicio.
func reconcileHistory(remote, local []scans.ScanRecord) []scans.ScanRecord {
	if len(remote) == 0 {
		return nonNil(local)
	}
	return merge.Carry(merge.Dedupe(remote), local, pendingScan, scans.HistoryLimit)
}

// pendingScan es un escaneo sin confirmar: falló su escritura o todavía está en vuelo.
func pendingScan(r scans.ScanRecord) bool {
	return r.LocalOnly || merge.IsTemp(r.ID)
}

// keepScanLocked y keepFavoriteLocked deciden qué entradas en memoria sobreviven a
// una carga que empezó antes que ellas. Deben llamarse con mu tomado.
func (s *Session) keepScanLocked(r scans.ScanRecord) bool {
	_, ok := s.landed[r.ID]
	return ok || pendingScan(r)
}

func (s *Session) keepFavoriteLocked(f profile.FavoriteBreed) bool {
	_, ok := s.landed[f.ID]
	return ok || f.LocalOnly
}

// degrade carga los tres conjuntos de datos desde el almacenamiento local.
func (s *Session) degrade(ctx context.Context, user profile.User) State {
	uid := s.identity.UserID
	store := s.gw.Local()

	history, hErr := store.History(ctx, uid)
	if hErr != nil {
		s.log.Error("local history load failed", map[string]any{"error": hErr.Error()})
	}
	favs, fErr := store.Saved(ctx, uid)
	if fErr != nil {
		s.log.Error("local favorites load failed", map[string]any{"error": fErr.Error()})
	}
	prefs, err := s.gw.LocalPreferences(ctx, uid)
	if err != nil {
		s.log.Error("local preferences load failed", map[string]any{"error": err.Error()})
		prefs = profile.DefaultPreferences()
	}
	if user.ID == "" {
		if u, found, _ := store.Profile(ctx, uid); found {
			user = u
		} else {
			user = profile.NewUser(s.identity, s.gw.Engine().Now())
		}
	}

	s.mu.Lock()
	s.state = StateDegraded
	s.user = user
	s.history = merge.Carry(nonNil(history), s.history, s.keepScanLocked, scans.HistoryLimit)
	s.favorites = merge.Carry(nonNil(favs), s.favorites, s.keepFavoriteLocked, 0)
	s.prefs = prefs
	s.serverStats = nil
	// con el almacenamiento ilegible no se pisa lo que haya guardado
	if hErr == nil {
		s.persistHistoryLocked(ctx)
	}
	if fErr == nil {
		s.persistFavoritesLocked(ctx)
	}
	snap := s.changedLocked()
	s.mu.Unlock()

	s.log.Warn("session degraded, serving local data", map[string]any{"history": len(history)})
	s.notify(EventSynced, snap)
	return StateDegraded
}

func (s *Session) persistHistoryLocked(ctx context.Context) {
	if err := s.gw.Local().SaveHistory(ctx, s.identity.UserID, s.history); err != nil {
		s.log.Error("history persist failed", map[string]any{"error": err.Error()})
	}
}

func (s *Session) persistFavoritesLocked(ctx context.Context) {
	if err := s.gw.Local().SaveSaved(ctx, s.identity.UserID, s.favorites); err != nil {
		s.log.Error("favorites persist failed", map[string]any{"error": err.Error()})
	}
}

// AddToHistory inserta el escaneo de forma optimista con un id temporal, lo escribe
// en el gateway y reconcilia por ese id. Si la escritura remota no se confirma el
// registro queda localOnly y persistido.
func (s *Session) AddToHistory(ctx context.Context, res scans.ClassifierResult) (scans.ScanRecord, error) {
	rec := scans.FromClassifier(res, s.gw.Engine().Now())
	if err := rec.Validate(); err != nil {
		return scans.ScanRecord{}, fmt.Errorf("%w: add to history: %w", gateway.ErrValidation, err)
	}
	tempID := merge.TempID()
	rec.ID = tempID

	s.mu.Lock()
	s.history = merge.Insert(s.history, rec, scans.HistoryLimit)
	s.persistHistoryLocked(ctx)
	snap := s.changedLocked()
	s.mu.Unlock()
	s.notify(EventHistoryChanged, snap)

	w, err := s.gw.AddScanToHistory(ctx, s.identity.UserID, rec)

	s.mu.Lock()
	result := rec.AsLocalOnly()
	if err != nil || !w.SavedToRemote {
		s.history = merge.MarkLocalOnly(s.history, tempID)
	} else {
		var outcome merge.Outcome
		s.history, outcome = merge.Reconcile(s.history, tempID, w.Data)
		result = w.Data
		if result.ID == "" {
			result.ID = tempID
		}
		s.landed[result.ID] = struct{}{}
		if outcome == merge.NotFound {
			s.log.Debug("scan evicted before remote write completed", map[string]any{"temp_id": tempID})
		}
	}
	s.persistHistoryLocked(ctx)
	snap = s.changedLocked()
	s.mu.Unlock()
	s.notify(EventHistoryChanged, snap)

	if err != nil {
		s.log.Warn("scan kept locally", map[string]any{"temp_id": tempID, "error": err.Error()})
	}
	return result, nil
}

// SaveBreed guarda una raza favorita. Guardar una raza ya guardada no hace nada.
func (s *Session) SaveBreed(ctx context.Context, breed string) (profile.FavoriteBreed, error) {
	breed = strings.TrimSpace(breed)
	if breed == "" {
		return profile.FavoriteBreed{}, fmt.Errorf("%w: save breed: %w", gateway.ErrValidation, profile.ErrInvalidInput)
	}

	s.mu.Lock()
	for _, f := range s.favorites {
		if strings.EqualFold(f.Breed, breed) {
			s.mu.Unlock()
			return f, nil
		}
	}
	fav := profile.FavoriteBreed{ID: profile.FavoriteID(breed), Breed: breed, Timestamp: s.gw.Engine().Now()}
	s.favorites = merge.Insert(s.favorites, fav.AsLocalOnly(), 0)
	s.persistFavoritesLocked(ctx)
	snap := s.changedLocked()
	s.mu.Unlock()
	s.notify(EventFavoritesChanged, snap)

	w, err := s.gw.AddFavorite(ctx, s.identity.UserID, breed)

	s.mu.Lock()
	result := fav.AsLocalOnly()
	if err == nil && w.SavedToRemote {
		saved := w.Data
		saved.Timestamp = fav.Timestamp
		s.favorites, _ = merge.Reconcile(s.favorites, fav.ID, saved)
		s.landed[saved.ID] = struct{}{}
		result = saved
	}
	s.persistFavoritesLocked(ctx)
	snap = s.changedLocked()
	s.mu.Unlock()
	s.notify(EventFavoritesChanged, snap)

	if err != nil {
		s.log.Warn("favorite kept locally", map[string]any{"breed": breed, "error": err.Error()})
	}
	return result, nil
}

func (s *Session) RemoveSavedBreed(ctx context.Context, breed string) error {
	breed = strings.TrimSpace(breed)
	if breed == "" {
		return fmt.Errorf("%w: remove breed: %w", gateway.ErrValidation, profile.ErrInvalidInput)
	}

	s.mu.Lock()
	s.favorites = profile.WithoutBreed(s.favorites, breed)
	s.persistFavoritesLocked(ctx)
	snap := s.changedLocked()
	s.mu.Unlock()
	s.notify(EventFavoritesChanged, snap)

	if _, err := s.gw.RemoveFavorite(ctx, s.identity.UserID, breed); err != nil {
		s.log.Warn("favorite removal not confirmed remotely", map[string]any{"breed": breed, "error": err.Error()})
	}
	return nil
}

// UpdatePreferences guarda las preferencias; si el servidor las rechaza quedan igual
// guardadas en el dispositivo.
func (s *Session) UpdatePreferences(ctx context.Context, p profile.Preferences) (gateway.Write[profile.Preferences], error) {
	w, err := s.gw.UpdatePreferences(ctx, s.identity.UserID, p)
	switch {
	case errors.Is(err, gateway.ErrServerError):
		s.log.Warn("preferences kept locally", map[string]any{"error": err.Error()})
		p, _ = p.Normalize()
		if lerr := s.gw.SaveLocalPreferences(ctx, s.identity.UserID, p); lerr != nil {
			return gateway.Write[profile.Preferences]{}, lerr
		}
		w = gateway.Write[profile.Preferences]{Data: p}
	case err != nil:
		return gateway.Write[profile.Preferences]{}, err
	}

	s.mu.Lock()
	s.prefs = w.Data
	s.mu.Unlock()
	return w, nil
}

// RecordSearch agrega term al inicio de las búsquedas recientes (sin duplicados, máximo 5).
func (s *Session) RecordSearch(ctx context.Context, term string) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.RecentSearches(ctx)
	}
	cur, err := s.gw.Local().RecentSearches(ctx, s.identity.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, RecentSearchLimit)
	out = append(out, term)
	for _, t := range cur {
		if len(out) == RecentSearchLimit {
			break
		}
		if strings.EqualFold(t, term) {
			continue
		}
		out = append(out, t)
	}
	return out, s.gw.Local().SaveRecentSearches(ctx, s.identity.UserID, out)
}

func (s *Session) RecentSearches(ctx context.Context) ([]string, error) {
	return s.gw.Local().RecentSearches(ctx, s.identity.UserID)
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
