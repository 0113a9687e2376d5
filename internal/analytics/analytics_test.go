package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pawdentify/internal/domain/scans"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2025, 12, 22, 15, 0, 0, 0, time.UTC) // lunes

func rec(breed string, conf float64, ts time.Time) scans.ScanRecord {
	return scans.ScanRecord{ID: ts.Format(time.RFC3339Nano) + breed, Breed: breed, Confidence: conf, Timestamp: ts}
}

func windowFixture() []scans.ScanRecord {
	breeds := []string{"Beagle", "Pug", "Collie", "Boxer"}
	confs := []float64{0.3, 0.55, 0.65, 0.75, 0.85, 0.95, 1.0}
	var out []scans.ScanRecord
	for i := 0; i < 35; i++ {
		out = append(out, rec(breeds[i%len(breeds)], confs[i%len(confs)], testNow.Add(-time.Duration(i)*12*time.Hour)))
	}
	for i := 0; i < 10; i++ {
		out = append(out, rec("Beagle", 0.9, testNow.Add(-40*24*time.Hour-time.Duration(i)*time.Hour)))
	}
	return out
}

func TestBuildDashboard_WindowTotals(t *testing.T) {
	d := BuildDashboard(windowFixture(), testNow, 30)

	assert.Equal(t, 35, d.Overview.TotalScans)
	assert.Equal(t, 4, d.Overview.UniqueBreeds)
	assert.InDelta(t, 250.0, d.Overview.GrowthRate, 1e-9)

	var pct float64
	for _, b := range d.Charts.BreedDistribution {
		pct += b.Percentage
	}
	assert.InDelta(t, 100.0, pct, 0.01)

	var hist int
	for _, b := range d.Charts.ConfidenceHistogram {
		hist += b.Count
	}
	assert.Equal(t, d.Overview.TotalScans, hist)
	assert.Len(t, d.Charts.HourlyUsage, 24)
	assert.InDelta(t, 35.0/30.0, d.Insights.ScanFrequency, 1e-9)
}

func TestBuildDashboard_EmptyHistoryIsFinite(t *testing.T) {
	d := BuildDashboard(nil, testNow, 30)

	assert.Equal(t, 0, d.Overview.TotalScans)
	assert.Equal(t, 0.0, d.Overview.AverageConfidence)
	assert.Equal(t, 0.0, d.Overview.GrowthRate)
	assert.Equal(t, NoneBreed, d.Insights.FavoriteBreed)
	assert.Empty(t, d.Charts.BreedDistribution)
	assert.Len(t, d.Charts.ConfidenceHistogram, 5)
}

func TestGrowthRate(t *testing.T) {
	cases := []struct {
		cur, prev int
		want      float64
	}{
		{10, 0, 0},
		{0, 0, 0},
		{15, 10, 50},
		{5, 10, -50},
	}
	for _, c := range cases {
		got := GrowthRate(c.cur, c.prev)
		assert.False(t, math.IsNaN(got) || math.IsInf(got, 0))
		assert.InDelta(t, c.want, got, 1e-9, "cur=%d prev=%d", c.cur, c.prev)
	}
}

func TestStreak(t *testing.T) {
	day := func(offset, hour int) time.Time {
		return time.Date(2025, 12, 22+offset, hour, 0, 0, 0, time.UTC)
	}
	now := day(0, 20)

	full := []scans.ScanRecord{
		rec("Pug", 0.9, day(0, 18)),
		rec("Pug", 0.9, day(0, 8)),
		rec("Pug", 0.9, day(-1, 10)),
		rec("Pug", 0.9, day(-2, 9)),
	}
	assert.Equal(t, 3, Streak(full, now))

	gap := []scans.ScanRecord{full[0], full[1], full[3]}
	assert.Equal(t, 1, Streak(gap, now))

	assert.Equal(t, 0, Streak(full[2:], now))
}

func TestConfidenceHistogram_EveryScanInOneBucket(t *testing.T) {
	list := []scans.ScanRecord{
		rec("a", 0.1, testNow), rec("a", 0.6, testNow), rec("a", 0.7, testNow),
		rec("a", 0.8, testNow), rec("a", 0.9, testNow), rec("a", 1.0, testNow),
	}
	h := ConfidenceHistogram(list)

	require.Len(t, h, 5)
	assert.Equal(t, []int{1, 1, 1, 1, 2}, []int{h[0].Count, h[1].Count, h[2].Count, h[3].Count, h[4].Count})
	assert.Equal(t, "0.5-0.6", h[0].Range)
}

func TestBreedDistribution_TopFive(t *testing.T) {
	var list []scans.ScanRecord
	for i, b := range []string{"A", "B", "C", "D", "E", "F"} {
		for j := 0; j <= i; j++ {
			list = append(list, rec(b, 0.8, testNow))
		}
	}
	got := BreedDistribution(list, TopBreeds)

	require.Len(t, got, 5)
	assert.Equal(t, "F", got[0].Breed)
	assert.Equal(t, 6, got[0].Count)
	assert.InDelta(t, 6.0/21.0*100, got[0].Percentage, 1e-9)
	assert.Equal(t, "B", got[4].Breed)
}

func TestHourlyUsage_UsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	list := []scans.ScanRecord{
		rec("Pug", 0.9, time.Date(2025, 12, 22, 3, 0, 0, 0, time.UTC)),
		rec("Pug", 0.9, time.Date(2025, 12, 22, 3, 30, 0, 0, time.UTC)),
		rec("Pug", 0.9, time.Date(2025, 12, 22, 12, 0, 0, 0, time.UTC)),
	}
	usage := HourlyUsage(list, loc)

	assert.Equal(t, 2, usage[22].Scans)
	assert.Equal(t, 22, MostActiveHour(usage))
	assert.Equal(t, 0, MostActiveHour(HourlyUsage(nil, loc)))
}

func TestMonthCounts(t *testing.T) {
	list := []scans.ScanRecord{
		rec("a", 0.9, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)),
		rec("a", 0.9, time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)),
		rec("a", 0.9, time.Date(2025, 11, 30, 23, 0, 0, 0, time.UTC)),
		rec("a", 0.9, time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)),
	}
	this, last := MonthCounts(list, testNow)

	assert.Equal(t, 2, this)
	assert.Equal(t, 1, last)
}

func TestTrendDirection(t *testing.T) {
	assert.Equal(t, Stable, TrendDirection(nil))
	assert.Equal(t, Stable, TrendDirection([]int{9}))
	assert.Equal(t, Increasing, TrendDirection([]int{0, 4}))
	assert.Equal(t, Increasing, TrendDirection([]int{1, 1, 1, 5, 5, 5}))
	assert.Equal(t, Decreasing, TrendDirection([]int{5, 5, 5, 1, 1, 1}))
	assert.Equal(t, Stable, TrendDirection([]int{2, 2, 2, 2}))
	assert.Equal(t, Stable, TrendDirection([]int{10, 10, 10, 10, 11}))
}

func TestBuildTrends_WeeklyZeroFilled(t *testing.T) {
	list := []scans.ScanRecord{
		rec("Pug", 0.8, time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)),
		rec("Beagle", 0.6, time.Date(2025, 12, 22, 11, 0, 0, 0, time.UTC)),
		rec("Pug", 0.9, time.Date(2025, 12, 16, 10, 0, 0, 0, time.UTC)),
		rec("Pug", 0.9, time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)),
	}
	rep, err := BuildTrends(list, testNow, PeriodWeekly)
	require.NoError(t, err)

	require.Len(t, rep.Trends, 5)
	assert.Equal(t, "2025-W48", rep.Trends[0].Period)
	assert.Equal(t, "2025-W52", rep.Trends[4].Period)
	assert.Equal(t, []int{0, 0, 0, 1, 2}, []int{
		rep.Trends[0].ScanCount, rep.Trends[1].ScanCount, rep.Trends[2].ScanCount,
		rep.Trends[3].ScanCount, rep.Trends[4].ScanCount,
	})
	assert.Equal(t, 2, rep.Trends[4].UniqueBreeds)
	assert.InDelta(t, 0.7, rep.Trends[4].AverageConfidence, 1e-9)
	assert.Equal(t, Increasing, rep.Summary.TrendDirection)
	assert.Greater(t, rep.Summary.Slope, 0.0)
	assert.InDelta(t, 0.6, rep.Summary.AverageScansPerPeriod, 1e-9)
}

func TestBuildTrends_DailyAndMonthlyShapes(t *testing.T) {
	daily, err := BuildTrends(nil, testNow, PeriodDaily)
	require.NoError(t, err)
	require.Len(t, daily.Trends, 7)
	assert.Equal(t, "2025-12-16", daily.Trends[0].Period)
	assert.Equal(t, "2025-12-22", daily.Trends[6].Period)
	assert.Equal(t, Stable, daily.Summary.TrendDirection)

	monthly, err := BuildTrends(nil, testNow, PeriodMonthly)
	require.NoError(t, err)
	require.Len(t, monthly.Trends, 12)
	assert.Equal(t, "2025-01", monthly.Trends[0].Period)
	assert.Equal(t, "2025-12", monthly.Trends[11].Period)

	_, err = BuildTrends(nil, testNow, Period("hourly"))
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeekly, p)

	p, err = ParsePeriod("Monthly")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonthly, p)

	_, err = ParsePeriod("yearly")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestBreedAnalytics(t *testing.T) {
	list := []scans.ScanRecord{
		rec("Beagle", 0.8, testNow),
		rec("Pug", 0.6, testNow.Add(-time.Hour)),
		rec("beagle mix", 0.6, testNow.Add(-2*time.Hour)),
		rec("Pug", 0.8, testNow.Add(-3*time.Hour)),
		rec("Pug", 0.7, testNow.Add(-4*time.Hour)),
	}

	all := BreedAnalytics(list, "")
	assert.Equal(t, "Pug", all.MostIdentified)
	assert.Equal(t, 3, all.TotalUniqueBreeds)
	assert.Equal(t, 3, all.BreedAnalytics[0].Count)

	one := BreedAnalytics(list, "BEAG")
	require.Len(t, one.BreedAnalytics, 1)
	assert.Equal(t, 2, one.BreedAnalytics[0].Count)
	assert.InDelta(t, 0.7, one.BreedAnalytics[0].AverageConfidence, 1e-9)
	require.NotNil(t, one.BreedAnalytics[0].LatestScan)
	assert.True(t, one.BreedAnalytics[0].LatestScan.Equal(testNow))
}

func TestBuildDashboardStats(t *testing.T) {
	var list []scans.ScanRecord
	for i := 0; i < 7; i++ {
		list = append(list, rec("Pug", 0.5, testNow.Add(-time.Duration(i)*time.Hour)))
	}
	st := BuildDashboardStats(list, nil, testNow)

	assert.Equal(t, 7, st.TotalScans)
	assert.Equal(t, 7, st.ThisMonth)
	assert.Len(t, st.RecentScans, RecentScans)
	assert.True(t, st.RecentScans[0].Timestamp.Equal(testNow))
	assert.NotNil(t, st.FavoriteBreeds)
}

func TestEngine_UsesInjectedClock(t *testing.T) {
	e := NewEngine(func() time.Time { return testNow }, 0)
	assert.Equal(t, DefaultDays, e.DefaultDays())

	snap := e.Snapshot(windowFixture(), []string{"Pug"})
	assert.Equal(t, 35, snap.Dashboard.Overview.TotalScans)
	assert.Equal(t, []string{"Pug"}, snap.Stats.FavoriteBreeds)
	assert.Equal(t, testNow, snap.ComputedAt)
}
