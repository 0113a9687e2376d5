package main

import (
	"context"
	"fmt"

	"pawdentify/internal/adapters/remote/pawapi"
	"pawdentify/internal/adapters/storage/memory"
	"pawdentify/internal/adapters/storage/postgres"
	"pawdentify/internal/adapters/storage/sqlite"
	"pawdentify/internal/analytics"
	"pawdentify/internal/availability"
	"pawdentify/internal/gateway"
	"pawdentify/internal/localstore"
	"pawdentify/internal/platform/config"
	"pawdentify/internal/platform/httpclient"
)

// stack es todo lo que comparten los subcomandos.
type stack struct {
	store   *localstore.Store
	probe   *availability.Probe
	gateway *gateway.Gateway
}

func (s *stack) Close() error {
	return s.store.Close()
}

func openBackend(ctx context.Context, c config.Config) (localstore.Backend, error) {
	switch c.Store.Driver {
	case config.DriverMemory:
		return memory.NewKV(), nil
	case config.DriverSQLite:
		return sqlite.Open(c.Store.Path)
	case config.DriverPostgres:
		return postgres.OpenKV(ctx, c.Store.DSN)
	}
	return nil, fmt.Errorf("unknown store driver %q", c.Store.Driver)
}

func buildStack(ctx context.Context, c config.Config) (*stack, error) {
	backend, err := openBackend(ctx, c)
	if err != nil {
		return nil, err
	}
	store := localstore.New(backend, log)

	hc, err := httpclient.NewWithBaseURL(c.Remote.BaseURL, c.Remote.Timeout)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	probe := availability.NewProbe(hc, nil, log, c.Remote.HealthPaths...)

	gw := gateway.New(gateway.Deps{
		Remote: pawapi.New(hc),
		Local:  store,
		Probe:  probe,
		Engine: analytics.NewEngine(nil, c.Analytics.DefaultDays),
		Logger: log,
	})
	return &stack{store: store, probe: probe, gateway: gw}, nil
}
