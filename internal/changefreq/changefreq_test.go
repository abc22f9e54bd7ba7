package changefreq_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfline/internal/changefreq"
	"pfline/internal/errs"
	"pfline/internal/series"
	"pfline/internal/stamps"
	"pfline/internal/units"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func rangeSeries(t *testing.T, start time.Time, freq stamps.Freq, unit units.Unit, values ...float64) series.Series {
	t.Helper()
	idx, err := stamps.Range(start, len(values), freq)
	require.NoError(t, err)
	return series.MustNew(idx, values, unit)
}

var (
	mw  = units.Canonical(units.Power)
	mwh = units.Canonical(units.Energy)
)

func TestInvalidFrequency(t *testing.T) {
	s := rangeSeries(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), stamps.Day, mw, 1, 2)
	_, err := changefreq.Averagable(s, "W")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidFrequency))
	assert.Contains(t, err.Error(), stamps.FrequencyList())
}

func TestRightBoundAliases(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	idx, err := stamps.RangeUntil(start, start.AddDate(1, 0, 0), stamps.Day)
	require.NoError(t, err)
	s := series.Constant(idx, 1, mwh)

	for _, alias := range []stamps.Freq{"M", "Q", "A"} {
		got, err := changefreq.Summable(s, alias)
		require.NoError(t, err, alias)
		assert.NotEqual(t, alias, got.Index().Freq())
	}
}

func TestEmpty(t *testing.T) {
	s := series.MustNew(stamps.Empty(stamps.Hour), nil, mw)
	got, err := changefreq.Averagable(s, stamps.Day)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
	assert.Equal(t, stamps.Day, got.Index().Freq())
}

func TestIdentity(t *testing.T) {
	s := rangeSeries(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), stamps.Hour, mw, 3, 1, 4, 1, 5)
	for _, summable := range []bool{true, false} {
		var got series.Series
		var err error
		if summable {
			got, err = changefreq.Summable(s, stamps.Hour)
		} else {
			got, err = changefreq.Averagable(s, stamps.Hour)
		}
		require.NoError(t, err)
		assert.True(t, got.Equal(s))
	}
}

func TestQuarterHourDay(t *testing.T) {
	loc := berlin(t)
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, loc)
	idx, err := stamps.RangeUntil(day, day.AddDate(0, 0, 1), stamps.QuarterHour)
	require.NoError(t, err)
	require.Equal(t, 96, idx.Len())

	w := series.Constant(idx, 12.5, mw)
	avg, err := changefreq.Averagable(w, stamps.Day)
	require.NoError(t, err)
	require.Equal(t, 1, avg.Len())
	assert.InDelta(t, 12.5, avg.At(0), 1e-9)

	q := series.Constant(idx, 3.125, mwh)
	sum, err := changefreq.Summable(q, stamps.Day)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Len())
	assert.InDelta(t, 96*3.125, sum.At(0), 1e-9)
}

func TestDownsample_DropsPartialPeriods(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	idx, err := stamps.RangeUntil(start, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), stamps.Day)
	require.NoError(t, err)
	values := make([]float64, idx.Len())
	for i := range values {
		values[i] = float64(i % 7)
	}
	q := series.MustNew(idx, values, mwh)

	months, err := changefreq.Summable(q, stamps.Month)
	require.NoError(t, err)
	require.Equal(t, 2, months.Len())
	assert.True(t, months.Index().Start().Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))

	for k := 0; k < months.Len(); k++ {
		child, err := stamps.RangeUntil(months.Index().At(k), months.Index().TsRight(k), stamps.Day)
		require.NoError(t, err)
		part, err := q.Loc(child)
		require.NoError(t, err)
		assert.InDelta(t, part.Sum(), months.At(k), 1e-9)
	}

	_, err = changefreq.Summable(q, stamps.Year)
	assert.True(t, errs.Is(err, errs.NoFullPeriods))
}

func TestDownsample_WeightsByDuration(t *testing.T) {
	loc := berlin(t)
	// Two days around the spring-forward transition: 24h at 10 MW, then 23h at 20 MW.
	s := rangeSeries(t, time.Date(2020, 3, 28, 0, 0, 0, 0, loc), stamps.Day, mw, 10, 20)
	hourly, err := changefreq.Averagable(s, stamps.Hour)
	require.NoError(t, err)
	assert.Equal(t, 47, hourly.Len())

	daily := rangeSeries(t, time.Date(2020, 3, 1, 0, 0, 0, 0, loc), stamps.Day, mw, make31(10, 20, 28)...)
	month, err := changefreq.Averagable(daily, stamps.Month)
	require.NoError(t, err)
	require.Equal(t, 1, month.Len())
	// 28 days of 24h at 10 MW, then the 23h day and 2 days of 24h at 20 MW.
	want := (28*24*10 + 23*20 + 2*24*20) / float64(743)
	assert.InDelta(t, want, month.At(0), 1e-9)
}

// make31 returns 31 values, lo for the first n and hi for the rest.
func make31(lo, hi float64, n int) []float64 {
	out := make([]float64, 31)
	for i := range out {
		out[i] = hi
		if i < n {
			out[i] = lo
		}
	}
	return out
}

func TestUpsample_Replicates(t *testing.T) {
	loc := berlin(t)
	p := rangeSeries(t, time.Date(2020, 10, 24, 0, 0, 0, 0, loc), stamps.Day, units.Canonical(units.Price), 40, 50, 60)

	quarters, err := changefreq.Averagable(p, stamps.QuarterHour)
	require.NoError(t, err)
	assert.Equal(t, 96+100+96, quarters.Len())

	for k := 0; k < quarters.Len(); k++ {
		parent, ok := p.Index().Position(stamps.Floor(quarters.Index().At(k), stamps.Day))
		require.True(t, ok)
		assert.Equal(t, p.At(parent), quarters.At(k))
	}
}

func TestUpsample_SplitsByDuration(t *testing.T) {
	loc := berlin(t)
	q := rangeSeries(t, time.Date(2020, 3, 29, 0, 0, 0, 0, loc), stamps.Day, mwh, 230)
	hourly, err := changefreq.Summable(q, stamps.Hour)
	require.NoError(t, err)
	require.Equal(t, 23, hourly.Len())
	for k := 0; k < hourly.Len(); k++ {
		assert.InDelta(t, 10, hourly.At(k), 1e-9)
	}
	assert.InDelta(t, 230, hourly.Sum(), 1e-9)
}

func TestRoundTrip_Averagable(t *testing.T) {
	loc := berlin(t)
	s := rangeSeries(t, time.Date(2020, 1, 1, 0, 0, 0, 0, loc), stamps.Month, mw, 5, 7, 11, 13)

	up, err := changefreq.Averagable(s, stamps.Hour)
	require.NoError(t, err)
	back, err := changefreq.Averagable(up, stamps.Month)
	require.NoError(t, err)
	assert.True(t, back.AllClose(s, 1e-9, 1e-9))

	qs, err := changefreq.Averagable(up, stamps.Quarter)
	require.NoError(t, err)
	require.Equal(t, 1, qs.Len())
	weighted := (5*744 + 7*696 + 11*743) / float64(744+696+743)
	assert.InDelta(t, weighted, qs.At(0), 1e-9)
}

func TestFrame_PerColumn(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	idx, err := stamps.Range(start, 48, stamps.Hour)
	require.NoError(t, err)
	a := series.Constant(idx, 1, mwh).WithName("q")
	b := series.Constant(idx, 2, units.Canonical(units.Revenue)).WithName("r")
	f, err := series.FrameOf(a, b)
	require.NoError(t, err)

	days, err := changefreq.SummableFrame(f, stamps.Day)
	require.NoError(t, err)
	assert.Equal(t, []string{"q", "r"}, days.Columns())
	r, ok := days.Get("r")
	require.True(t, ok)
	assert.Equal(t, []float64{48, 48}, r.Values())
	assert.Equal(t, units.Revenue, r.Unit().Dimension())
}
