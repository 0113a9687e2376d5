// Package export arma el libro XLSX local con el historial y la analítica del usuario.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"pawdentify/internal/analytics"
	"pawdentify/internal/domain/scans"
)

const (
	SheetHistory  = "History"
	SheetBreeds   = "Breeds"
	SheetTrends   = "Trends"
	SheetOverview = "Overview"
)

// table es una hoja: encabezados en la fila 1 y datos desde la 2.
type table struct {
	name    string
	headers []string
	rows    [][]any
}

// Workbook construye el libro en memoria. El llamador debe cerrarlo.
func Workbook(history []scans.ScanRecord, eng *analytics.Engine, period analytics.Period) (*excelize.File, error) {
	if eng == nil {
		eng = analytics.NewEngine(nil, analytics.DefaultDays)
	}
	if period == "" {
		period = analytics.PeriodWeekly
	}
	trends, err := eng.Trends(history, period)
	if err != nil {
		return nil, err
	}
	dash := eng.Dashboard(history, 0)

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetHistory); err != nil {
		_ = f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	tables := []table{
		historyTable(history),
		breedsTable(eng.Breeds(history, "")),
		trendsTable(trends),
		overviewTable(dash, eng.Now()),
	}
	for i, t := range tables {
		if i > 0 {
			if _, err := f.NewSheet(t.name); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
		if err := writeTable(f, t, bold); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("sheet %s: %w", t.name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write serializa el libro en w.
func Write(w io.Writer, history []scans.ScanRecord, eng *analytics.Engine, period analytics.Period) error {
	f, err := Workbook(history, eng, period)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.Write(w)
}

func SaveAs(path string, history []scans.ScanRecord, eng *analytics.Engine, period analytics.Period) error {
	f, err := Workbook(history, eng, period)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.SaveAs(path)
}

func writeTable(f *excelize.File, t table, headerStyle int) error {
	for i, h := range t.headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(t.name, cell, h); err != nil {
			return err
		}
	}
	if len(t.headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.headers), 1)
		if err := f.SetCellStyle(t.name, "A1", last, headerStyle); err != nil {
			return err
		}
	}
	for r, row := range t.rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(t.name, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func historyTable(history []scans.ScanRecord) table {
	t := table{
		name:    SheetHistory,
		headers: []string{"ID", "Breed", "Confidence", "Timestamp", "Crossbreed", "Local only"},
	}
	for _, r := range history {
		t.rows = append(t.rows, []any{
			r.ID, r.Breed, r.Confidence, r.Timestamp.UTC().Format(time.RFC3339), r.IsCrossbreed, r.LocalOnly,
		})
	}
	return t
}

func breedsTable(rep analytics.BreedReport) table {
	t := table{
		name:    SheetBreeds,
		headers: []string{"Breed", "Count", "Average confidence", "Latest scan"},
	}
	for _, b := range rep.BreedAnalytics {
		latest := ""
		if b.LatestScan != nil {
			latest = b.LatestScan.UTC().Format(time.RFC3339)
		}
		t.rows = append(t.rows, []any{b.Breed, b.Count, b.AverageConfidence, latest})
	}
	return t
}

func trendsTable(rep analytics.TrendReport) table {
	t := table{
		name:    SheetTrends,
		headers: []string{"Period", "Scans", "Average confidence", "Unique breeds"},
	}
	for _, p := range rep.Trends {
		t.rows = append(t.rows, []any{p.Period, p.ScanCount, p.AverageConfidence, p.UniqueBreeds})
	}
	return t
}

func overviewTable(d analytics.Dashboard, now time.Time) table {
	o := d.Overview
	return table{
		name:    SheetOverview,
		headers: []string{"Metric", "Value"},
		rows: [][]any{
			{"Generated at", now.UTC().Format(time.RFC3339)},
			{"Total scans", o.TotalScans},
			{"Unique breeds", o.UniqueBreeds},
			{"Average confidence", o.AverageConfidence},
			{"Streak days", o.StreakDays},
			{"This month", o.ThisMonth},
			{"Last month", o.LastMonth},
			{"Growth rate", o.GrowthRate},
			{"Favorite breed", d.Insights.FavoriteBreed},
			{"Most active hour", d.Insights.MostActiveHour},
		},
	}
}
