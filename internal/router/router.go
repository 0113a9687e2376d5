package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "pawdentify/docs"
	"pawdentify/internal/api"
	"pawdentify/internal/live"
	"pawdentify/internal/middleware"
	"pawdentify/internal/orchestrator"
	"pawdentify/internal/platform/logger"
)

type Options struct {
	Manager *orchestrator.Manager
	// Opcional: si es nil se crea uno sin sesiones enganchadas.
	Hub    *live.Hub
	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	hub := opts.Hub
	if hub == nil {
		hub = live.NewHub(log)
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext())

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	api.RegisterRoutes(r, opts.Manager, hub)

	return r
}
