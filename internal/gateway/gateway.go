// Package gateway decide en cada llamada entre el servicio remoto y el almacenamiento
// local del dispositivo. Ambos caminos devuelven la misma forma de respuesta.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"pawdentify/internal/analytics"
	"pawdentify/internal/availability"
	"pawdentify/internal/localstore"
	"pawdentify/internal/platform/httpclient"
	"pawdentify/internal/platform/logger"
	"pawdentify/internal/ports/remote"
)

var (
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrEndpointAbsent     = errors.New("endpoint absent")
	ErrServerError        = errors.New("server error")
	ErrValidation         = errors.New("validation error")
	ErrRemoteOnly         = errors.New("operation requires the remote service")
)

// Write es el resultado de una escritura: el dato y si quedó durable en el servidor.
type Write[T any] struct {
	Data          T    `json:"data"`
	SavedToRemote bool `json:"saved_to_remote"`
}

type Deps struct {
	Remote remote.Service
	Local  *localstore.Store
	// Probe es opcional; sin él Recheck sólo vuelve el flag a unknown.
	Probe  *availability.Probe
	Engine *analytics.Engine
	Logger logger.Logger
	Now    func() time.Time
}

type Gateway struct {
	// Availability es compartido con el probe; los tests pueden fijarlo directamente.
	Availability *availability.Flag

	remote remote.Service
	local  *localstore.Store
	probe  *availability.Probe
	engine *analytics.Engine
	log    logger.Logger
	now    func() time.Time

	// queueMu serializa las lecturas y escrituras de las colas de feedback.
	queueMu sync.Mutex
}

func New(d Deps) *Gateway {
	g := &Gateway{
		remote: d.Remote,
		local:  d.Local,
		probe:  d.Probe,
		engine: d.Engine,
		log:    d.Logger,
		now:    d.Now,
	}
	if g.log == nil {
		g.log = logger.NewNop()
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.engine == nil {
		g.engine = analytics.NewEngine(g.now, analytics.DefaultDays)
	}
	if d.Probe != nil {
		g.Availability = d.Probe.Flag()
	} else {
		g.Availability = availability.NewFlag()
	}
	g.log = g.log.With(map[string]any{"component": "gateway"})
	return g
}

func (g *Gateway) Engine() *analytics.Engine { return g.engine }

func (g *Gateway) Local() *localstore.Store { return g.local }

// Recheck vuelve a sondear el servicio remoto. Es la única forma de salir de unavailable.
func (g *Gateway) Recheck(ctx context.Context) bool {
	if g.probe == nil {
		g.Availability.Set(availability.Unknown)
		return true
	}
	return g.probe.Recheck(ctx)
}

// classify traduce un error del adapter remoto a la taxonomía del gateway.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrNetworkUnavailable), errors.Is(err, httpclient.ErrTransport):
		return ErrNetworkUnavailable
	case errors.Is(err, ErrEndpointAbsent):
		return ErrEndpointAbsent
	}
	switch httpclient.StatusCode(err) {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return ErrEndpointAbsent
	}
	return ErrServerError
}

// withFallback es el único lugar donde se aplica la regla de disponibilidad:
//   - unavailable: sólo local.
//   - error de red o endpoint ausente: el flag pasa a unavailable y se responde local.
//   - cualquier otro error remoto se devuelve como ErrServerError sin tocar el flag.
//
// fromRemote indica qué camino produjo el resultado.
func withFallback[T any](ctx context.Context, g *Gateway, op string,
	remoteOp func(context.Context) (T, error),
	localOp func(context.Context) (T, error),
) (out T, fromRemote bool, err error) {
	if g.remote == nil || !g.Availability.Usable() {
		out, err = localOp(ctx)
		return out, false, err
	}

	out, err = remoteOp(ctx)
	if err == nil {
		g.Availability.MarkAvailable()
		return out, true, nil
	}
	// cancelación del caller: no dice nada sobre el servidor
	if ctxErr := ctx.Err(); ctxErr != nil {
		var zero T
		return zero, false, fmt.Errorf("%s: %w", op, ctxErr)
	}

	kind := classify(err)
	if kind == ErrServerError {
		var zero T
		return zero, false, fmt.Errorf("%w: %s: %w", ErrServerError, op, err)
	}

	if g.Availability.MarkUnavailable() {
		g.log.Warn("remote service unavailable, switching to local storage", map[string]any{
			"op":    op,
			"kind":  kind.Error(),
			"error": err.Error(),
		})
	} else {
		g.log.Debug("remote call failed, using local storage", map[string]any{"op": op, "error": err.Error()})
	}
	out, err = localOp(ctx)
	return out, false, err
}

func invalid(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrValidation, op, err)
}

// write envuelve withFallback para escrituras.
func write[T any](ctx context.Context, g *Gateway, op string,
	remoteOp func(context.Context) (T, error),
	localOp func(context.Context) (T, error),
) (Write[T], error) {
	out, fromRemote, err := withFallback(ctx, g, op, remoteOp, localOp)
	if err != nil {
		return Write[T]{}, err
	}
	return Write[T]{Data: out, SavedToRemote: fromRemote}, nil
}

// read descarta el origen.
func read[T any](ctx context.Context, g *Gateway, op string,
	remoteOp func(context.Context) (T, error),
	localOp func(context.Context) (T, error),
) (T, error) {
	out, _, err := withFallback(ctx, g, op, remoteOp, localOp)
	return out, err
}

// mirror guarda una copia local de un dato obtenido del servidor. Un fallo acá no invalida
// la respuesta remota.
func (g *Gateway) mirror(op string, err error) {
	if err != nil {
		g.log.Warn("local mirror failed", map[string]any{"op": op, "error": err.Error()})
	}
}

func page[T any](list []T, limit, skip int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(list) {
		return []T{}
	}
	list = list[skip:]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return append([]T{}, list...)
}

func upsertBy[T any](list []T, v T, id func(T) string) []T {
	out := make([]T, 0, len(list)+1)
	replaced := false
	for _, it := range list {
		if id(it) == id(v) {
			if !replaced {
				out = append(out, v)
				replaced = true
			}
			continue
		}
		out = append(out, it)
	}
	if !replaced {
		out = append([]T{v}, out...)
	}
	return out
}

func findBy[T any](list []T, target string, id func(T) string) (T, bool) {
	for _, it := range list {
		if id(it) == target {
			return it, true
		}
	}
	var zero T
	return zero, false
}
