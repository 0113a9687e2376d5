// Package localstore es el almacenamiento clave/valor por usuario del dispositivo.
// No tiene lógica de negocio: guarda y devuelve listas y registros tal cual.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pawdentify/internal/platform/logger"
)

var ErrNoNamespace = errors.New("local store: user id required")

// Backend es el KV físico (memoria, sqlite, postgres). Debe ser seguro para uso concurrente.
type Backend interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	Remove(ctx context.Context, namespace, key string) error
	Keys(ctx context.Context, namespace string) ([]string, error)
	Close() error
}

// Key es una clave lógica dentro del namespace de un usuario.
type Key string

const (
	KeyHistory        Key = "history"
	KeySaved          Key = "saved"
	KeyTheme          Key = "theme"
	KeyRecentSearches Key = "recent_searches"
	KeyPreferences    Key = "preferences"
	KeyProfile        Key = "profile"
	KeyPets           Key = "pets"
	KeyVaccinations   Key = "vaccinations"
	KeyFeedbackQueue  Key = "feedback_queue"
	KeyCommunityQueue Key = "community_queue"
)

type Store struct {
	backend Backend
	log     logger.Logger
}

func New(b Backend, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{backend: b, log: log}
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func namespace(userID string) (string, error) {
	ns := strings.TrimSpace(userID)
	if ns == "" {
		return "", ErrNoNamespace
	}
	return ns, nil
}

// Load lee key del usuario. Una clave ausente o ilegible devuelve def sin error;
// sólo las fallas del backend se propagan.
func Load[T any](ctx context.Context, s *Store, userID string, key Key, def T) (T, error) {
	ns, err := namespace(userID)
	if err != nil {
		return def, err
	}
	raw, ok, err := s.backend.Get(ctx, ns, string(key))
	if err != nil {
		return def, fmt.Errorf("local store get %s: %w", key, err)
	}
	if !ok {
		return def, nil
	}
	var out T
	if err := decode(raw, &out); err != nil {
		s.log.Warn("local value unreadable, using default", map[string]any{
			"user_id": ns,
			"key":     string(key),
			"error":   err,
		})
		return def, nil
	}
	return out, nil
}

func Save[T any](ctx context.Context, s *Store, userID string, key Key, v T) error {
	ns, err := namespace(userID)
	if err != nil {
		return err
	}
	raw, err := encode(v)
	if err != nil {
		return err
	}
	if err := s.backend.Set(ctx, ns, string(key), raw); err != nil {
		return fmt.Errorf("local store set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, userID string, key Key) error {
	ns, err := namespace(userID)
	if err != nil {
		return err
	}
	return s.backend.Remove(ctx, ns, string(key))
}

// Clear borra todas las claves del usuario (p.ej. al cerrar sesión en un dispositivo compartido).
func (s *Store) Clear(ctx context.Context, userID string) error {
	ns, err := namespace(userID)
	if err != nil {
		return err
	}
	keys, err := s.backend.Keys(ctx, ns)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.backend.Remove(ctx, ns, k); err != nil {
			return err
		}
	}
	return nil
}
