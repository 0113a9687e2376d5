package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"pawdentify/internal/analytics"
	"pawdentify/internal/ports/remote"
)

func (g *Gateway) GetAnalyticsDashboard(ctx context.Context, userID string, days int) (analytics.Dashboard, error) {
	if days <= 0 {
		days = g.engine.DefaultDays()
	}
	return read(ctx, g, "analytics dashboard",
		func(ctx context.Context) (analytics.Dashboard, error) {
			return g.remote.AnalyticsDashboard(ctx, userID, days)
		},
		func(ctx context.Context) (analytics.Dashboard, error) {
			list, err := g.local.History(ctx, userID)
			if err != nil {
				return analytics.Dashboard{}, err
			}
			return g.engine.Dashboard(list, days), nil
		},
	)
}

func (g *Gateway) GetBreedAnalytics(ctx context.Context, userID, breed string) (analytics.BreedReport, error) {
	breed = strings.TrimSpace(breed)
	return read(ctx, g, "breed analytics",
		func(ctx context.Context) (analytics.BreedReport, error) {
			return g.remote.BreedAnalytics(ctx, userID, breed)
		},
		func(ctx context.Context) (analytics.BreedReport, error) {
			list, err := g.local.History(ctx, userID)
			if err != nil {
				return analytics.BreedReport{}, err
			}
			return g.engine.Breeds(list, breed), nil
		},
	)
}

func (g *Gateway) GetAnalyticsTrends(ctx context.Context, userID, period string) (analytics.TrendReport, error) {
	p, err := analytics.ParsePeriod(period)
	if err != nil {
		return analytics.TrendReport{}, invalid("analytics trends", err)
	}
	return read(ctx, g, "analytics trends",
		func(ctx context.Context) (analytics.TrendReport, error) {
			return g.remote.AnalyticsTrends(ctx, userID, p)
		},
		func(ctx context.Context) (analytics.TrendReport, error) {
			list, err := g.local.History(ctx, userID)
			if err != nil {
				return analytics.TrendReport{}, err
			}
			return g.engine.Trends(list, p)
		},
	)
}

var (
	errExportRequest = errors.New("unsupported export format or data type")

	exportFormats   = map[string]struct{}{"json": {}, "csv": {}}
	exportDataTypes = map[string]struct{}{"all": {}, "scans": {}, "analytics": {}}
)

// ExportAnalytics no tiene camino local: sin servidor devuelve ErrRemoteOnly.
// Para un export generado en el dispositivo ver el paquete export.
func (g *Gateway) ExportAnalytics(ctx context.Context, userID string, req remote.ExportRequest) (json.RawMessage, error) {
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	req.DataType = strings.ToLower(strings.TrimSpace(req.DataType))
	if req.Format == "" {
		req.Format = "json"
	}
	if req.DataType == "" {
		req.DataType = "all"
	}
	if _, ok := exportFormats[req.Format]; !ok {
		return nil, invalid("export analytics", errExportRequest)
	}
	if _, ok := exportDataTypes[req.DataType]; !ok {
		return nil, invalid("export analytics", errExportRequest)
	}
	return read(ctx, g, "export analytics",
		func(ctx context.Context) (json.RawMessage, error) {
			return g.remote.ExportAnalytics(ctx, userID, req)
		},
		func(context.Context) (json.RawMessage, error) {
			return nil, ErrRemoteOnly
		},
	)
}
