package availability

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"pawdentify/internal/platform/httpclient"
	"pawdentify/internal/platform/logger"
)

var DefaultHealthPaths = []string{"/health", "/api/health"}

// Probe consulta los endpoints de liveness. No reintenta por su cuenta:
// sólo Ensure (una vez) y Recheck (explícito) generan tráfico.
type Probe struct {
	client *httpclient.Client
	flag   *Flag
	paths  []string
	log    logger.Logger

	group singleflight.Group
}

func NewProbe(client *httpclient.Client, flag *Flag, log logger.Logger, paths ...string) *Probe {
	if flag == nil {
		flag = NewFlag()
	}
	if log == nil {
		log = logger.NewNop()
	}
	clean := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	if len(clean) == 0 {
		clean = DefaultHealthPaths
	}
	return &Probe{client: client, flag: flag, paths: clean, log: log}
}

func (p *Probe) Flag() *Flag { return p.flag }

// Check prueba cada path en orden; true con la primera respuesta 2xx.
// El resultado queda escrito en el Flag.
func (p *Probe) Check(ctx context.Context) bool {
	for _, path := range p.paths {
		err := p.client.DoJSON(ctx, httpclient.Request{Method: http.MethodGet, Path: path}, nil)
		if err == nil {
			p.flag.Set(Available)
			p.log.Debug("remote available", map[string]any{"path": path})
			return true
		}
		if ctx.Err() != nil {
			// cancelación del caller: no es evidencia de que el remoto esté caído
			return p.flag.Usable()
		}
		p.log.Debug("health path failed", map[string]any{
			"path":   path,
			"status": httpclient.StatusCode(err),
			"error":  err,
		})
	}
	p.flag.Set(Unavailable)
	p.log.Warn("remote unavailable, using local data", map[string]any{"paths": p.paths})
	return false
}

// Ensure sondea sólo mientras el estado sea Unknown.
func (p *Probe) Ensure(ctx context.Context) State {
	if s := p.flag.State(); s != Unknown {
		return s
	}
	p.Recheck(ctx)
	return p.flag.State()
}

// Recheck fuerza un nuevo sondeo. Llamadas concurrentes comparten una sola ronda.
func (p *Probe) Recheck(ctx context.Context) bool {
	v, _, _ := p.group.Do("probe", func() (any, error) {
		return p.Check(ctx), nil
	})
	return v.(bool)
}
