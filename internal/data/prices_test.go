package data_test

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfline/internal/data"
	"pfline/internal/errs"
	"pfline/internal/model"
	"pfline/internal/series"
	"pfline/internal/stamps"
	"pfline/internal/units"
)

func intervals(start time.Time, step time.Duration, lmps ...float64) []model.LMPInterval {
	out := make([]model.LMPInterval, len(lmps))
	for i, v := range lmps {
		s := start.Add(time.Duration(i) * step)
		out[i] = model.LMPInterval{
			IntervalStartUTC: s,
			IntervalEndUTC:   s.Add(step),
			Location:         "HUB",
			LMP:              v,
			Energy:           v - 1,
		}
	}
	return out
}

func TestPriceSeries_FiveMinuteToQuarterHour(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := intervals(start, 5*time.Minute, 10, 20, 30, 40, 40, 40)

	s, err := data.PriceSeries(rows, data.PriceOptions{})
	require.NoError(t, err)
	assert.Equal(t, stamps.QuarterHour, s.Index().Freq())
	assert.True(t, s.Unit().Equal(units.MustParseUnit("USD/MWh")))
	assert.Equal(t, "lmp", s.Name())
	assert.InDeltaSlice(t, []float64{20, 40}, s.Values(), 1e-9)

	energy, err := data.PriceSeries(rows, data.PriceOptions{Component: model.ComponentEnergy})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{19, 39}, energy.Values(), 1e-9)
}

func TestPriceSeries_HourlyAndResample(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	lmps := make([]float64, 48)
	for i := range lmps {
		lmps[i] = float64(i % 24)
	}
	rows := intervals(start, time.Hour, lmps...)

	s, err := data.PriceSeries(rows, data.PriceOptions{})
	require.NoError(t, err)
	assert.Equal(t, stamps.Hour, s.Index().Freq())
	assert.Equal(t, 48, s.Len())

	daily, err := data.PriceSeries(rows, data.PriceOptions{Freq: stamps.Day})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{11.5, 11.5}, daily.Values(), 1e-9)
}

func TestPriceSeries_GapsAndFilter(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := append(intervals(start, time.Hour, 10), intervals(start.Add(2*time.Hour), time.Hour, 30)...)
	other := intervals(start, time.Hour, 99)
	other[0].Location = "OTHER"
	rows = append(rows, other...)

	s, err := data.PriceSeries(rows, data.PriceOptions{Location: "HUB"})
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	assert.True(t, math.IsNaN(s.At(1)))

	filled, err := data.PriceSeries(rows, data.PriceOptions{Location: "HUB", MaxGap: 1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{10, 20, 30}, filled.Values(), 1e-9)

	_, err = data.PriceSeries(rows, data.PriceOptions{Location: "NOWHERE"})
	assert.True(t, errs.Is(err, errs.InvalidIndex))

	_, err = data.PriceSeries(append(rows, intervals(start, time.Hour, 5)...), data.PriceOptions{Location: "HUB"})
	assert.True(t, errs.Is(err, errs.InvalidIndex), "overlapping intervals")
}

func TestFrameCSV_RoundTrip(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	idx, err := stamps.Range(time.Date(2020, 3, 28, 0, 0, 0, 0, loc), 3, stamps.Day)
	require.NoError(t, err)

	q := series.MustNew(idx, []float64{24, 23, math.NaN()}, units.MustParseUnit("MWh")).WithName("q")
	p := series.MustNew(idx, []float64{4.5, 5, 5.25}, units.MustParseUnit("ct/kWh")).WithName("p")
	n := series.MustNew(idx, []float64{1, 2, 3}, units.None).WithName("n")
	f, err := series.NewFrame(idx, q, p, n)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, data.WriteFrameCSV(&buf, f))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "ts,q[MWh],p[ct/kWh],n", lines[0])
	assert.Equal(t, "2020-03-30T00:00:00+02:00,,5.25,3", lines[3])

	back, err := data.ReadFrameCSV(&buf, stamps.Options{Location: loc})
	require.NoError(t, err)
	assert.True(t, back.Equal(f))

	path := filepath.Join(t.TempDir(), "frame.csv")
	require.NoError(t, data.WriteFrameCSVFile(path, f))
	fromFile, err := data.ReadFrameCSVFile(path, stamps.Options{Location: loc, Freq: stamps.Day})
	require.NoError(t, err)
	assert.True(t, fromFile.Equal(f))
}

func TestReadFrameCSV_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"no ts":       "time,q\n",
		"bad unit":    "ts,q[m]\n2024-01-01T00:00:00Z,1\n",
		"bad number":  "ts,q\n2024-01-01T00:00:00Z,abc\n2024-01-01T01:00:00Z,1\n",
		"bad time":    "ts,q\nyesterday,1\n",
		"gap":         "ts,q\n2024-01-01T00:00:00Z,1\n2024-01-01T01:00:00Z,1\n2024-01-01T03:00:00Z,1\n",
		"short stamp": "ts,q\n2024-01-01T00:00:00Z,1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := data.ReadFrameCSV(strings.NewReader(body), stamps.Options{})
			assert.Error(t, err)
		})
	}
}

func TestGroupByLocation(t *testing.T) {
	resp, err := data.DecodeGridStatusJSON(strings.NewReader(sampleBody))
	require.NoError(t, err)
	groups := data.GroupByLocation(resp)
	require.Len(t, groups["TH_NP15_GEN-APND"], 1)
	assert.Empty(t, data.GroupByLocation(nil))

	_, err = data.LoadGridStatusJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
