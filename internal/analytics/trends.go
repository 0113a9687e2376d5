package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"pawdentify/internal/domain/scans"
)

var ErrInvalidPeriod = errors.New("invalid trend period")

// Period define el tamaño de bucket de la serie de tendencias.
// @Enum daily, weekly, monthly
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod: vacío equivale a weekly.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodWeekly, nil
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	}
	return "", ErrInvalidPeriod
}

// Direction es la clasificación gruesa de una serie.
type Direction string

const (
	Increasing Direction = "increasing"
	Decreasing Direction = "decreasing"
	Stable     Direction = "stable"
)

// TrendDirection compara el promedio de los últimos 3 períodos contra el de los anteriores.
// Con menos de 3 períodos previos el divisor es max(1, n-3), así que "anteriores"
// vale 0 cuando no hay ninguno.
func TrendDirection(counts []int) Direction {
	n := len(counts)
	if n < 2 {
		return Stable
	}
	recentN := min(3, n)
	recent := float64(sum(counts[n-recentN:])) / float64(recentN)
	earlier := float64(sum(counts[:n-recentN])) / float64(max(1, n-3))

	switch {
	case recent > earlier*1.1:
		return Increasing
	case recent < earlier*0.9:
		return Decreasing
	}
	return Stable
}

// Slope es la pendiente por mínimos cuadrados de la serie (0 con menos de 2 puntos).
func Slope(counts []int) float64 {
	if len(counts) < 2 {
		return 0
	}
	xs := make([]float64, len(counts))
	ys := make([]float64, len(counts))
	for i, c := range counts {
		xs[i] = float64(i)
		ys[i] = float64(c)
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return beta
}

type TrendPoint struct {
	Period            string  `json:"period"`
	ScanCount         int     `json:"scanCount"`
	AverageConfidence float64 `json:"averageConfidence"`
	UniqueBreeds      int     `json:"uniqueBreeds"`
}

type TrendSummary struct {
	TotalPeriods          int       `json:"totalPeriods"`
	AverageScansPerPeriod float64   `json:"averageScansPerPeriod"`
	TrendDirection        Direction `json:"trendDirection"`
	Slope                 float64   `json:"slope"`
}

// TrendReport es la respuesta de /api/analytics/trends.
type TrendReport struct {
	Period  Period       `json:"period"`
	Trends  []TrendPoint `json:"trends"`
	Summary TrendSummary `json:"summary"`
}

type bucketSpec struct {
	count int
	start func(now time.Time) time.Time
	next  func(t time.Time) time.Time
	label func(t time.Time) string
}

var periodSpecs = map[Period]bucketSpec{
	// 7 días terminando hoy
	PeriodDaily: {
		count: 7,
		start: func(now time.Time) time.Time { return dayOf(now, now.Location()) },
		next:  func(t time.Time) time.Time { return t.AddDate(0, 0, 1) },
		label: func(t time.Time) string { return t.Format(time.DateOnly) },
	},
	// 5 semanas que empiezan el lunes
	PeriodWeekly: {
		count: 5,
		start: func(now time.Time) time.Time {
			d := dayOf(now, now.Location())
			return d.AddDate(0, 0, -((int(d.Weekday()) + 6) % 7))
		},
		next: func(t time.Time) time.Time { return t.AddDate(0, 0, 7) },
		label: func(t time.Time) string {
			y, w := t.ISOWeek()
			return fmt.Sprintf("%d-W%02d", y, w)
		},
	},
	// 12 meses calendario
	PeriodMonthly: {
		count: 12,
		start: func(now time.Time) time.Time {
			return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		},
		next:  func(t time.Time) time.Time { return t.AddDate(0, 1, 0) },
		label: func(t time.Time) string { return t.Format("2006-01") },
	},
}

// BuildTrends arma la serie de períodos (con ceros donde no hubo escaneos) terminando en el período actual.
func BuildTrends(history []scans.ScanRecord, now time.Time, period Period) (TrendReport, error) {
	bs, ok := periodSpecs[period]
	if !ok {
		return TrendReport{}, ErrInvalidPeriod
	}

	// retroceder count-1 buckets desde el actual
	first := bs.start(now)
	for i := 1; i < bs.count; i++ {
		first = prevBucket(first, period)
	}

	starts := make([]time.Time, bs.count+1)
	starts[0] = first
	for i := 1; i <= bs.count; i++ {
		starts[i] = bs.next(starts[i-1])
	}

	buckets := make([][]scans.ScanRecord, bs.count)
	for _, r := range history {
		ts := r.Timestamp.In(now.Location())
		if ts.Before(starts[0]) || !ts.Before(starts[bs.count]) {
			continue
		}
		for i := 0; i < bs.count; i++ {
			if ts.Before(starts[i+1]) {
				buckets[i] = append(buckets[i], r)
				break
			}
		}
	}

	points := make([]TrendPoint, bs.count)
	counts := make([]int, bs.count)
	total := 0
	for i, b := range buckets {
		points[i] = TrendPoint{
			Period:            bs.label(starts[i]),
			ScanCount:         len(b),
			AverageConfidence: MeanConfidence(b),
			UniqueBreeds:      uniqueBreeds(b),
		}
		counts[i] = len(b)
		total += len(b)
	}

	return TrendReport{
		Period: period,
		Trends: points,
		Summary: TrendSummary{
			TotalPeriods:          len(points),
			AverageScansPerPeriod: float64(total) / float64(len(points)),
			TrendDirection:        TrendDirection(counts),
			Slope:                 Slope(counts),
		},
	}, nil
}

func prevBucket(t time.Time, p Period) time.Time {
	switch p {
	case PeriodDaily:
		return t.AddDate(0, 0, -1)
	case PeriodWeekly:
		return t.AddDate(0, 0, -7)
	default:
		return t.AddDate(0, -1, 0)
	}
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}
