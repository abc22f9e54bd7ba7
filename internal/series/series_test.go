package series_test

import (
	"math"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfline/internal/errs"
	"pfline/internal/series"
	"pfline/internal/stamps"
	"pfline/internal/units"
)

func hours(t *testing.T, n int) stamps.Index {
	t.Helper()
	idx, err := stamps.Range(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), n, stamps.Hour)
	require.NoError(t, err)
	return idx
}

func TestNew_LengthMismatch(t *testing.T) {
	_, err := series.New(hours(t, 3), []float64{1, 2}, units.None)
	assert.True(t, errs.Is(err, errs.InvalidIndex))
}

func TestSeries_Immutable(t *testing.T) {
	vals := []float64{1, 2, 3}
	s := series.MustNew(hours(t, 3), vals, units.None)
	vals[0] = 99
	assert.Equal(t, 1.0, s.At(0))

	out := s.Values()
	out[1] = 99
	assert.Equal(t, 2.0, s.At(1))

	scaled := s.Scale(2)
	assert.Equal(t, []float64{2, 4, 6}, scaled.Values())
	assert.Equal(t, []float64{1, 2, 3}, s.Values())
}

func TestAstype(t *testing.T) {
	idx := hours(t, 2)
	kw := units.MustParseUnit("kW")
	mw := units.MustParseUnit("MW")

	plain := series.MustNew(idx, []float64{1500, 2500}, units.None)
	tagged, err := plain.Astype(kw)
	require.NoError(t, err)
	assert.Equal(t, []float64{1500, 2500}, tagged.Values())

	converted, err := tagged.Astype(mw)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.5, 2.5}, converted.Values(), 1e-12)
	assert.True(t, converted.Unit().Equal(mw))

	_, err = tagged.Astype(units.MustParseUnit("MWh"))
	assert.True(t, errs.Is(err, errs.DimensionalityMismatch))
}

func TestLoc(t *testing.T) {
	idx := hours(t, 5)
	s := series.MustNew(idx, []float64{0, 1, 2, 3, 4}, units.None).WithName("x")

	sub, err := stamps.Range(idx.At(2), 2, stamps.Hour)
	require.NoError(t, err)
	got, err := s.Loc(sub)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, got.Values())
	assert.Equal(t, "x", got.Name())

	outside, err := stamps.Range(idx.At(4), 2, stamps.Hour)
	require.NoError(t, err)
	_, err = s.Loc(outside)
	assert.True(t, errs.Is(err, errs.InvalidIndex))
}

func TestDurations_Weighting(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	idx, err := stamps.Range(time.Date(2020, 3, 28, 0, 0, 0, 0, loc), 3, stamps.Day)
	require.NoError(t, err)

	w := series.Constant(idx, 2, units.Canonical(units.Power))
	q := w.MulDurations(units.Canonical(units.Energy))
	assert.Equal(t, []float64{48, 46, 48}, q.Values())
	assert.Equal(t, units.Energy, q.Unit().Dimension())

	back := q.DivDurations(units.Canonical(units.Power))
	assert.True(t, back.Equal(w))
}

func TestAllClose(t *testing.T) {
	idx := hours(t, 3)
	nan := math.NaN()
	a := series.MustNew(idx, []float64{1, nan, 3}, units.Canonical(units.Energy))
	b := series.MustNew(idx, []float64{1 + 1e-9, nan, 3}, units.Canonical(units.Energy))
	c := series.MustNew(idx, []float64{1000, nan, 3000}, units.MustParseUnit("kWh"))
	d := series.MustNew(idx, []float64{1, 2, 3}, units.Canonical(units.Energy))

	assert.True(t, a.AllClose(b, 1e-5, 1e-8))
	assert.True(t, a.AllClose(c, 1e-5, 1e-8))
	assert.False(t, a.AllClose(d, 1e-5, 1e-8))
	assert.False(t, a.AllClose(series.MustNew(idx, []float64{1, nan, 3}, units.Canonical(units.Power)), 1e-5, 1e-8))
}

func TestFrame(t *testing.T) {
	idx := hours(t, 4)
	nan := math.NaN()
	q := series.MustNew(idx, []float64{1, 2, 3, nan}, units.Canonical(units.Energy)).WithName("q")
	r := series.MustNew(idx, []float64{nan, 20, 30, 40}, units.Canonical(units.Revenue)).WithName("r")

	f, err := series.FrameOf(q, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"q", "r"}, f.Columns())

	_, err = series.FrameOf(q, q)
	assert.True(t, errs.Is(err, errs.DuplicateAttribute))

	dropped, err := f.DropNaRows()
	require.NoError(t, err)
	assert.Equal(t, 2, dropped.Len())
	got, ok := dropped.Get("r")
	require.True(t, ok)
	assert.Equal(t, []float64{20, 30}, got.Values())

	gap := series.MustNew(idx, []float64{1, nan, 3, 4}, units.None).WithName("g")
	withGap, err := series.FrameOf(gap)
	require.NoError(t, err)
	_, err = withGap.DropNaRows()
	assert.True(t, errs.Is(err, errs.InvalidIndex))
}
