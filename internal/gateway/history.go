package gateway

import (
	"context"

	"pawdentify/internal/analytics"
	"pawdentify/internal/domain/scans"
	"pawdentify/internal/merge"
)

// GetScanHistory devuelve el historial más reciente primero. limit <= 0 usa el tope de 50.
func (g *Gateway) GetScanHistory(ctx context.Context, userID string, limit, skip int) ([]scans.ScanRecord, error) {
	if limit <= 0 || limit > scans.HistoryLimit {
		limit = scans.HistoryLimit
	}
	return read(ctx, g, "get scan history",
		func(ctx context.Context) ([]scans.ScanRecord, error) {
			list, err := g.remote.ScanHistory(ctx, userID, limit, skip)
			if list == nil && err == nil {
				list = []scans.ScanRecord{}
			}
			return list, err
		},
		func(ctx context.Context) ([]scans.ScanRecord, error) {
			list, err := g.local.History(ctx, userID)
			if err != nil {
				return nil, err
			}
			return page(list, limit, skip), nil
		},
	)
}

// AddScanToHistory escribe el escaneo. Por el camino remoto devuelve el registro con el
// id del servidor (vacío si no lo informó); por el local lo guarda marcado localOnly
// conservando el id temporal.
func (g *Gateway) AddScanToHistory(ctx context.Context, userID string, rec scans.ScanRecord) (Write[scans.ScanRecord], error) {
	if err := rec.Validate(); err != nil {
		return Write[scans.ScanRecord]{}, invalid("add scan", err)
	}
	if rec.ID == "" {
		rec.ID = merge.TempID()
	}
	return write(ctx, g, "add scan",
		func(ctx context.Context) (scans.ScanRecord, error) {
			return g.remote.AddScan(ctx, userID, rec)
		},
		func(ctx context.Context) (scans.ScanRecord, error) {
			local := rec.AsLocalOnly()
			list, err := g.local.History(ctx, userID)
			if err != nil {
				return scans.ScanRecord{}, err
			}
			list = merge.Upsert(list, local, scans.HistoryLimit)
			return local, g.local.SaveHistory(ctx, userID, list)
		},
	)
}

// BackupHistory reemplaza la copia local del historial.
func (g *Gateway) BackupHistory(ctx context.Context, userID string, list []scans.ScanRecord) error {
	list = merge.Dedupe(list)
	if len(list) > scans.HistoryLimit {
		list = list[:scans.HistoryLimit]
	}
	return g.local.SaveHistory(ctx, userID, list)
}

func (g *Gateway) GetScanStats(ctx context.Context, userID string) (analytics.ScanStats, error) {
	return read(ctx, g, "get scan stats",
		func(ctx context.Context) (analytics.ScanStats, error) {
			return g.remote.ScanStats(ctx, userID)
		},
		func(ctx context.Context) (analytics.ScanStats, error) {
			list, err := g.local.History(ctx, userID)
			if err != nil {
				return analytics.ScanStats{}, err
			}
			return g.engine.ScanStats(list), nil
		},
	)
}
