// Package availability mantiene el indicador de sesión que dice si el servicio
// remoto se considera alcanzable.
package availability

import "sync/atomic"

type State int32

const (
	Unknown State = iota
	Available
	Unavailable
)

func (s State) String() string {
	switch s {
	case Available:
		return "available"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Flag es el indicador tri-estado compartido. Unknown se trata como disponible.
// Una vez en Unavailable sólo vuelve con un Set explícito (recheck).
type Flag struct {
	v atomic.Int32
}

func NewFlag() *Flag {
	return &Flag{}
}

func (f *Flag) State() State {
	return State(f.v.Load())
}

func (f *Flag) Set(s State) {
	f.v.Store(int32(s))
}

// Usable es true salvo que el remoto ya se haya marcado como caído.
func (f *Flag) Usable() bool {
	return f.State() != Unavailable
}

// MarkUnavailable devuelve true sólo en la transición (para loguear una vez).
func (f *Flag) MarkUnavailable() bool {
	return State(f.v.Swap(int32(Unavailable))) != Unavailable
}

// MarkAvailable pasa Unknown a Available; no revierte Unavailable.
func (f *Flag) MarkAvailable() {
	f.v.CompareAndSwap(int32(Unknown), int32(Available))
}
