package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pawdentify/internal/live"
	"pawdentify/internal/orchestrator"
	"pawdentify/internal/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Levanta la API local para el frontend",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	// el primer sondeo no bloquea el arranque
	go st.probe.Ensure(ctx)

	hub := live.NewHub(log)
	mgr := orchestrator.NewManager(st.gateway, log)
	mgr.OnSession(func(s *orchestrator.Session) { hub.Attach(s) })

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router.NewRouter(router.Options{Manager: mgr, Hub: hub, Logger: log}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":   cfg.HTTP.Addr,
			"remote": cfg.Remote.BaseURL,
			"store":  string(cfg.Store.Driver),
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info("shutting down", nil)
	return srv.Shutdown(shutdownCtx)
}
