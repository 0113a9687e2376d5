// Package analytics agrega un historial de escaneos en las cifras del dashboard.
// Todas las funciones son puras: mismo input, mismo output, sin importar si
// el dato vino del servicio remoto o del almacenamiento local.
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"pawdentify/internal/domain/scans"
)

const (
	DefaultDays  = 30
	TopBreeds    = 5
	RecentScans  = 5
	NoneBreed    = "None"
	hoursPerDay  = 24
	percent      = 100.0
)

type Overview struct {
	TotalScans        int     `json:"total_scans"`
	UniqueBreeds      int     `json:"unique_breeds"`
	AverageConfidence float64 `json:"average_confidence"`
	StreakDays        int     `json:"streak_days"`
	ThisMonth         int     `json:"this_month"`
	LastMonth         int     `json:"last_month"`
	GrowthRate        float64 `json:"growth_rate"`
}

type DailyPoint struct {
	Date     string  `json:"date"`
	Scans    int     `json:"scans"`
	Accuracy float64 `json:"accuracy"`
}

type BreedShare struct {
	Breed      string  `json:"breed"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type Bucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

type HourCount struct {
	Hour  int `json:"hour"`
	Scans int `json:"scans"`
}

type Charts struct {
	DailyScans          []DailyPoint `json:"daily_scans"`
	BreedDistribution   []BreedShare `json:"breed_distribution"`
	ConfidenceHistogram []Bucket     `json:"confidence_histogram"`
	HourlyUsage         []HourCount  `json:"hourly_usage"`
}

type Insights struct {
	MostActiveHour    int     `json:"most_active_hour"`
	FavoriteBreed     string  `json:"favorite_breed"`
	AverageConfidence float64 `json:"average_confidence"`
	ScanFrequency     float64 `json:"scan_frequency"`
}

// Dashboard es la respuesta de /api/analytics/dashboard.
type Dashboard struct {
	Overview Overview `json:"overview"`
	Charts   Charts   `json:"charts"`
	Insights Insights `json:"insights"`
}

// Window separa los escaneos de los últimos days días y los del período anterior de igual largo.
func Window(history []scans.ScanRecord, now time.Time, days int) (current, previous []scans.ScanRecord) {
	if days <= 0 {
		days = DefaultDays
	}
	span := time.Duration(days) * hoursPerDay * time.Hour
	start := now.Add(-span)
	prevStart := start.Add(-span)

	current = make([]scans.ScanRecord, 0)
	previous = make([]scans.ScanRecord, 0)
	for _, r := range history {
		switch {
		case !r.Timestamp.Before(start):
			current = append(current, r)
		case !r.Timestamp.Before(prevStart):
			previous = append(previous, r)
		}
	}
	return current, previous
}

// GrowthRate devuelve la variación porcentual; previous == 0 fuerza 0.
func GrowthRate(current, previous int) float64 {
	if previous <= 0 {
		return 0
	}
	return float64(current-previous) / float64(previous) * percent
}

// Streak cuenta días consecutivos con al menos un escaneo, empezando hoy hacia atrás.
func Streak(history []scans.ScanRecord, now time.Time) int {
	loc := now.Location()
	days := make(map[string]struct{}, len(history))
	for _, r := range history {
		days[dayOf(r.Timestamp, loc).Format(time.DateOnly)] = struct{}{}
	}

	streak := 0
	for d := dayOf(now, loc); ; d = d.AddDate(0, 0, -1) {
		if _, ok := days[d.Format(time.DateOnly)]; !ok {
			return streak
		}
		streak++
	}
}

// MeanConfidence es 0 para una lista vacía, nunca NaN.
func MeanConfidence(list []scans.ScanRecord) float64 {
	if len(list) == 0 {
		return 0
	}
	data := make(stats.Float64Data, 0, len(list))
	for _, r := range list {
		data = append(data, r.Confidence)
	}
	m, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return m
}

type breedCount struct {
	breed string
	count int
}

// countBreeds ordena por cantidad desc y nombre asc para que el empate sea determinista.
func countBreeds(list []scans.ScanRecord) []breedCount {
	counts := make(map[string]int)
	for _, r := range list {
		counts[r.BreedOrUnknown()]++
	}
	out := make([]breedCount, 0, len(counts))
	for b, c := range counts {
		out = append(out, breedCount{breed: b, count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].breed < out[j].breed
	})
	return out
}

// BreedDistribution devuelve las top razas con su porcentaje sobre el total de la lista.
func BreedDistribution(list []scans.ScanRecord, top int) []BreedShare {
	out := make([]BreedShare, 0, top)
	if len(list) == 0 {
		return out
	}
	total := float64(len(list))
	for _, bc := range countBreeds(list) {
		if top > 0 && len(out) == top {
			break
		}
		out = append(out, BreedShare{
			Breed:      bc.breed,
			Count:      bc.count,
			Percentage: float64(bc.count) / total * percent,
		})
	}
	return out
}

var bucketLabels = [...]string{"0.5-0.6", "0.6-0.7", "0.7-0.8", "0.8-0.9", "0.9-1.0"}

// ConfidenceHistogram: debajo de 0.6 cae en el primer bucket y desde 0.9 en el último,
// así la suma de buckets es siempre len(list).
func ConfidenceHistogram(list []scans.ScanRecord) []Bucket {
	var counts [len(bucketLabels)]int
	for _, r := range list {
		c := r.Confidence
		switch {
		case c >= 0.9:
			counts[4]++
		case c >= 0.8:
			counts[3]++
		case c >= 0.7:
			counts[2]++
		case c >= 0.6:
			counts[1]++
		default:
			counts[0]++
		}
	}
	out := make([]Bucket, len(bucketLabels))
	for i, label := range bucketLabels {
		out[i] = Bucket{Range: label, Count: counts[i]}
	}
	return out
}

func HourlyUsage(list []scans.ScanRecord, loc *time.Location) []HourCount {
	out := make([]HourCount, hoursPerDay)
	for h := range out {
		out[h].Hour = h
	}
	for _, r := range list {
		out[r.Timestamp.In(loc).Hour()].Scans++
	}
	return out
}

// MostActiveHour devuelve la primera hora con el máximo de escaneos (0 si no hay datos).
func MostActiveHour(usage []HourCount) int {
	best := 0
	for h, u := range usage {
		if u.Scans > usage[best].Scans {
			best = h
		}
	}
	return best
}

// DailySeries agrupa por día local; sólo días con escaneos, en orden cronológico.
func DailySeries(list []scans.ScanRecord, loc *time.Location) []DailyPoint {
	byDay := make(map[string][]scans.ScanRecord)
	for _, r := range list {
		key := r.Timestamp.In(loc).Format(time.DateOnly)
		byDay[key] = append(byDay[key], r)
	}
	out := make([]DailyPoint, 0, len(byDay))
	for day, rs := range byDay {
		out = append(out, DailyPoint{Date: day, Scans: len(rs), Accuracy: MeanConfidence(rs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// MonthCounts cuenta por mes calendario: el mes de now y el anterior.
func MonthCounts(history []scans.ScanRecord, now time.Time) (thisMonth, lastMonth int) {
	loc := now.Location()
	cur := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	prev := cur.AddDate(0, -1, 0)
	for _, r := range history {
		ts := r.Timestamp.In(loc)
		m := time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, loc)
		switch {
		case m.Equal(cur):
			thisMonth++
		case m.Equal(prev):
			lastMonth++
		}
	}
	return thisMonth, lastMonth
}

func uniqueBreeds(list []scans.ScanRecord) int {
	seen := make(map[string]struct{}, len(list))
	for _, r := range list {
		seen[r.BreedOrUnknown()] = struct{}{}
	}
	return len(seen)
}

// BuildDashboard arma el dashboard completo para una ventana de days días.
func BuildDashboard(history []scans.ScanRecord, now time.Time, days int) Dashboard {
	if days <= 0 {
		days = DefaultDays
	}
	loc := now.Location()
	current, previous := Window(history, now, days)
	thisMonth, lastMonth := MonthCounts(history, now)
	avg := MeanConfidence(current)
	usage := HourlyUsage(current, loc)

	favorite := NoneBreed
	if bc := countBreeds(current); len(bc) > 0 {
		favorite = bc[0].breed
	}

	return Dashboard{
		Overview: Overview{
			TotalScans:        len(current),
			UniqueBreeds:      uniqueBreeds(current),
			AverageConfidence: avg,
			StreakDays:        Streak(history, now),
			ThisMonth:         thisMonth,
			LastMonth:         lastMonth,
			GrowthRate:        GrowthRate(len(current), len(previous)),
		},
		Charts: Charts{
			DailyScans:          DailySeries(current, loc),
			BreedDistribution:   BreedDistribution(current, TopBreeds),
			ConfidenceHistogram: ConfidenceHistogram(current),
			HourlyUsage:         usage,
		},
		Insights: Insights{
			MostActiveHour:    MostActiveHour(usage),
			FavoriteBreed:     favorite,
			AverageConfidence: avg,
			ScanFrequency:     float64(len(current)) / float64(days),
		},
	}
}

type BreedStat struct {
	Breed             string     `json:"breed"`
	Count             int        `json:"count"`
	AverageConfidence float64    `json:"average_confidence"`
	LatestScan        *time.Time `json:"latest_scan"`
}

// BreedReport es la respuesta de /api/analytics/breeds.
type BreedReport struct {
	BreedAnalytics    []BreedStat `json:"breed_analytics"`
	TotalUniqueBreeds int         `json:"total_unique_breeds"`
	MostIdentified    string      `json:"most_identified"`
}

// BreedAnalytics agrupa todo el historial por raza. Con filter no vacío devuelve una
// sola entrada con los escaneos cuya raza contiene filter (sin distinguir mayúsculas).
func BreedAnalytics(history []scans.ScanRecord, filter string) BreedReport {
	filter = strings.TrimSpace(filter)
	if filter != "" {
		needle := strings.ToLower(filter)
		matched := make([]scans.ScanRecord, 0)
		for _, r := range history {
			if strings.Contains(strings.ToLower(r.Breed), needle) {
				matched = append(matched, r)
			}
		}
		return BreedReport{
			BreedAnalytics:    []BreedStat{breedStat(filter, matched)},
			TotalUniqueBreeds: 1,
			MostIdentified:    filter,
		}
	}

	byBreed := make(map[string][]scans.ScanRecord)
	for _, r := range history {
		byBreed[r.BreedOrUnknown()] = append(byBreed[r.BreedOrUnknown()], r)
	}
	out := make([]BreedStat, 0, len(byBreed))
	for _, bc := range countBreeds(history) {
		out = append(out, breedStat(bc.breed, byBreed[bc.breed]))
	}
	most := NoneBreed
	if len(out) > 0 {
		most = out[0].Breed
	}
	return BreedReport{BreedAnalytics: out, TotalUniqueBreeds: len(out), MostIdentified: most}
}

func breedStat(breed string, list []scans.ScanRecord) BreedStat {
	st := BreedStat{Breed: breed, Count: len(list), AverageConfidence: MeanConfidence(list)}
	for _, r := range list {
		if st.LatestScan == nil || r.Timestamp.After(*st.LatestScan) {
			ts := r.Timestamp
			st.LatestScan = &ts
		}
	}
	return st
}

// ScanStats es la respuesta de /api/scan-history/user/{id}/stats.
type ScanStats struct {
	TotalScans          int                `json:"total_scans"`
	UniqueBreeds        int                `json:"unique_breeds"`
	MostIdentifiedBreed string             `json:"most_identified_breed"`
	AverageConfidence   float64            `json:"average_confidence"`
	ThisMonth           int                `json:"this_month"`
	RecentScans         []scans.ScanRecord `json:"recent_scans"`
}

func BuildScanStats(history []scans.ScanRecord, now time.Time) ScanStats {
	most := NoneBreed
	if bc := countBreeds(history); len(bc) > 0 {
		most = bc[0].breed
	}
	thisMonth, _ := MonthCounts(history, now)
	return ScanStats{
		TotalScans:          len(history),
		UniqueBreeds:        uniqueBreeds(history),
		MostIdentifiedBreed: most,
		AverageConfidence:   MeanConfidence(history),
		ThisMonth:           thisMonth,
		RecentScans:         newest(history, RecentScans),
	}
}

// DashboardStats es el resumen que muestra la pantalla principal.
type DashboardStats struct {
	TotalScans     int                `json:"totalScans"`
	ThisMonth      int                `json:"thisMonth"`
	AccuracyRate   float64            `json:"accuracyRate"`
	FavoriteBreeds []string           `json:"favoriteBreeds"`
	UniqueBreeds   int                `json:"uniqueBreeds"`
	RecentScans    []scans.ScanRecord `json:"recentScans"`
}

func BuildDashboardStats(history []scans.ScanRecord, favorites []string, now time.Time) DashboardStats {
	st := BuildScanStats(history, now)
	if favorites == nil {
		favorites = []string{}
	}
	return DashboardStats{
		TotalScans:     st.TotalScans,
		ThisMonth:      st.ThisMonth,
		AccuracyRate:   st.AverageConfidence,
		FavoriteBreeds: favorites,
		UniqueBreeds:   st.UniqueBreeds,
		RecentScans:    st.RecentScans,
	}
}

// Snapshot es la vista derivada que se recalcula ante cada cambio de historial o favoritos.
type Snapshot struct {
	Stats      DashboardStats `json:"stats"`
	Dashboard  Dashboard      `json:"dashboard"`
	ComputedAt time.Time      `json:"computed_at"`
}

func BuildSnapshot(history []scans.ScanRecord, favorites []string, now time.Time, days int) Snapshot {
	return Snapshot{
		Stats:      BuildDashboardStats(history, favorites, now),
		Dashboard:  BuildDashboard(history, now, days),
		ComputedAt: now,
	}
}

// newest devuelve hasta n registros ordenados del más reciente al más viejo.
func newest(list []scans.ScanRecord, n int) []scans.ScanRecord {
	out := append([]scans.ScanRecord(nil), list...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func dayOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
