package analytics

import (
	"time"

	"pawdentify/internal/domain/scans"
)

// Engine fija el reloj y la ventana por defecto para las funciones puras del paquete.
type Engine struct {
	now         func() time.Time
	defaultDays int
}

func NewEngine(now func() time.Time, defaultDays int) *Engine {
	if now == nil {
		now = time.Now
	}
	if defaultDays <= 0 {
		defaultDays = DefaultDays
	}
	return &Engine{now: now, defaultDays: defaultDays}
}

func (e *Engine) Now() time.Time { return e.now() }

func (e *Engine) DefaultDays() int { return e.defaultDays }

func (e *Engine) Dashboard(history []scans.ScanRecord, days int) Dashboard {
	if days <= 0 {
		days = e.defaultDays
	}
	return BuildDashboard(history, e.now(), days)
}

func (e *Engine) Breeds(history []scans.ScanRecord, breed string) BreedReport {
	return BreedAnalytics(history, breed)
}

func (e *Engine) Trends(history []scans.ScanRecord, period Period) (TrendReport, error) {
	return BuildTrends(history, e.now(), period)
}

func (e *Engine) ScanStats(history []scans.ScanRecord) ScanStats {
	return BuildScanStats(history, e.now())
}

func (e *Engine) DashboardStats(history []scans.ScanRecord, favorites []string) DashboardStats {
	return BuildDashboardStats(history, favorites, e.now())
}

func (e *Engine) Snapshot(history []scans.ScanRecord, favorites []string) Snapshot {
	return BuildSnapshot(history, favorites, e.now(), e.defaultDays)
}
