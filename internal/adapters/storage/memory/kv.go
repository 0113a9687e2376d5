package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

var ErrEmptyKey = errors.New("namespace and key required")

// KV es el backend en memoria del almacenamiento local. Se pierde al reiniciar;
// útil en dev y tests.
type KV struct {
	mu   sync.RWMutex
	byNS map[string]map[string][]byte
}

func NewKV() *KV {
	return &KV{
		byNS: make(map[string]map[string][]byte),
	}
}

func (r *KV) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.byNS[namespace][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (r *KV) Set(ctx context.Context, namespace, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(namespace) == "" || strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	ns, ok := r.byNS[namespace]
	if !ok {
		ns = make(map[string][]byte)
		r.byNS[namespace] = ns
	}
	ns[key] = append([]byte(nil), value...)
	return nil
}

func (r *KV) Remove(ctx context.Context, namespace, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byNS[namespace], key)
	return nil
}

func (r *KV) Keys(ctx context.Context, namespace string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byNS[namespace]))
	for k := range r.byNS[namespace] {
		out = append(out, k)
	}
	// orden estable (solo para consistencia en dev)
	sort.Strings(out)
	return out, nil
}

func (r *KV) Close() error { return nil }
