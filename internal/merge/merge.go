// Package merge reconcilia registros creados de forma optimista (id temporal)
// con la identidad que asigna el servicio remoto.
package merge

import (
	"strings"

	"github.com/google/uuid"
)

const tempPrefix = "local-"

// Record es cualquier registro de lista identificado por id.
type Record[T any] interface {
	RecordID() string
	WithRecordID(id string) T
	AsLocalOnly() T
}

// Outcome describe qué hizo Reconcile.
type Outcome string

const (
	Replaced      Outcome = "replaced"
	AlreadyMerged Outcome = "already_merged"
	NotFound      Outcome = "not_found"
)

// TempID genera un id temporal para una inserción optimista.
func TempID() string {
	return tempPrefix + uuid.NewString()
}

func IsTemp(id string) bool {
	return strings.HasPrefix(id, tempPrefix)
}

// Insert agrega rec al inicio, quita cualquier otra entrada con el mismo id
// y descarta las más viejas por encima de limit (limit <= 0 = sin tope).
func Insert[T Record[T]](list []T, rec T, limit int) []T {
	id := rec.RecordID()
	out := make([]T, 0, len(list)+1)
	out = append(out, rec)
	for _, r := range list {
		if r.RecordID() == id {
			continue
		}
		out = append(out, r)
	}
	return capTo(out, limit)
}

// Upsert reemplaza en su posición el registro con el mismo id; si no existe lo inserta al inicio.
func Upsert[T Record[T]](list []T, rec T, limit int) []T {
	if i := indexOf(list, rec.RecordID()); i >= 0 {
		out := append([]T(nil), list...)
		out[i] = rec
		return out
	}
	return Insert(list, rec, limit)
}

// Reconcile reemplaza sólo el registro con tempID por server, conservando su posición.
// Cualquier otra entrada que ya tenga el id del servidor se descarta.
// Si tempID ya no está: AlreadyMerged cuando el id del servidor existe, NotFound si no
// (no se reinserta un registro ya desalojado o borrado).
func Reconcile[T Record[T]](list []T, tempID string, server T) ([]T, Outcome) {
	serverID := server.RecordID()
	if serverID == "" {
		serverID = tempID
		server = server.WithRecordID(tempID)
	}

	i := indexOf(list, tempID)
	if i < 0 {
		if indexOf(list, serverID) >= 0 {
			return list, AlreadyMerged
		}
		return list, NotFound
	}

	out := make([]T, 0, len(list))
	for j, r := range list {
		switch {
		case j == i:
			out = append(out, server)
		case r.RecordID() == serverID:
			continue
		default:
			out = append(out, r)
		}
	}
	return out, Replaced
}

// MarkLocalOnly marca el registro tempID como no sincronizado; conserva su id temporal.
func MarkLocalOnly[T Record[T]](list []T, tempID string) []T {
	i := indexOf(list, tempID)
	if i < 0 {
		return list
	}
	out := append([]T(nil), list...)
	out[i] = out[i].AsLocalOnly()
	return out
}

// Remove quita el registro con ese id.
func Remove[T Record[T]](list []T, id string) []T {
	out := make([]T, 0, len(list))
	for _, r := range list {
		if r.RecordID() != id {
			out = append(out, r)
		}
	}
	return out
}

// Carry agrega al inicio de base las entradas de prev que cumplen pending y cuyo id
// base no contiene, en el mismo orden que tenían en prev.
func Carry[T Record[T]](base, prev []T, pending func(T) bool, limit int) []T {
	out := append([]T(nil), base...)
	for i := len(prev) - 1; i >= 0; i-- {
		r := prev[i]
		if !pending(r) || indexOf(out, r.RecordID()) >= 0 {
			continue
		}
		out = Insert(out, r, 0)
	}
	return capTo(out, limit)
}

// Dedupe conserva la primera aparición de cada id (listas remotas pueden repetir).
func Dedupe[T Record[T]](list []T) []T {
	seen := make(map[string]struct{}, len(list))
	out := make([]T, 0, len(list))
	for _, r := range list {
		id := r.RecordID()
		if id != "" {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}

func indexOf[T Record[T]](list []T, id string) int {
	if id == "" {
		return -1
	}
	for i, r := range list {
		if r.RecordID() == id {
			return i
		}
	}
	return -1
}

func capTo[T any](list []T, limit int) []T {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}
