package data

import (
	"math"
	"sort"
	"time"

	"pfline/internal/changefreq"
	"pfline/internal/errs"
	"pfline/internal/model"
	"pfline/internal/series"
	"pfline/internal/stamps"
	"pfline/internal/units"
)

// PriceOptions configure PriceSeries.
type PriceOptions struct {
	Component model.Component
	// Location filters intervals by their location; empty keeps all.
	Location string
	// TZ is used for period boundaries; nil means UTC.
	TZ *time.Location
	// Freq, when set, resamples the result as an averagable series.
	Freq stamps.Freq
	// MaxGap is the longest run of missing periods that is interpolated.
	MaxGap int
}

// PriceSeries turns LMP intervals into a USD/MWh price series. Hourly data
// stays hourly; anything else is time-weighted into quarter hours. Periods
// that are not fully covered by intervals are NaN unless FillGaps closes them.
func PriceSeries(intervals []model.LMPInterval, opts PriceOptions) (series.Series, error) {
	loc := opts.TZ
	if loc == nil {
		loc = time.UTC
	}
	var rows []model.LMPInterval
	for _, it := range intervals {
		if opts.Location == "" || it.Location == opts.Location {
			rows = append(rows, it)
		}
	}
	if len(rows) == 0 {
		return series.Series{}, errs.New(errs.InvalidIndex, "no price intervals for location %q", opts.Location)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Start().Before(rows[j].Start()) })

	base := baseFreq(rows, loc)
	start := stamps.Floor(rows[0].Start().In(loc), base)
	end := rows[0].End()
	for _, it := range rows {
		if it.Duration() <= 0 {
			return series.Series{}, errs.New(errs.InvalidIndex, "interval at %s has no duration", it.Start().Format(time.RFC3339))
		}
		if it.End().After(end) {
			end = it.End()
		}
	}
	end = end.In(loc)
	if last := stamps.Floor(end, base); !last.Equal(end) {
		end = stamps.Next(last, base)
	}
	idx, err := stamps.RangeUntil(start, end, base)
	if err != nil {
		return series.Series{}, err
	}

	type acc struct{ sum, hours float64 }
	buckets := make(map[int64]*acc, idx.Len())
	value := opts.Component.Value
	for _, it := range rows {
		v := value(it)
		for t, stop := it.Start().In(loc), it.End(); t.Before(stop); {
			b := stamps.Floor(t, base)
			segEnd := stamps.Next(b, base)
			if segEnd.After(stop) {
				segEnd = stop
			}
			h := segEnd.Sub(t).Hours()
			a := buckets[b.Unix()]
			if a == nil {
				a = &acc{}
				buckets[b.Unix()] = a
			}
			a.sum += v * h
			a.hours += h
			t = segEnd.In(loc)
		}
	}

	values := make([]float64, idx.Len())
	for k := range values {
		values[k] = math.NaN()
		a := buckets[idx.At(k).Unix()]
		if a == nil {
			continue
		}
		full := idx.Duration(k)
		switch {
		case a.hours > full+1e-9:
			return series.Series{}, errs.New(errs.InvalidIndex, "overlapping intervals in period starting %s", idx.At(k).Format(time.RFC3339))
		case math.Abs(a.hours-full) < 1e-9:
			values[k] = a.sum / a.hours
		}
	}
	if opts.MaxGap > 0 {
		values = stamps.FillGaps(values, opts.MaxGap)
	}

	name := string(opts.Component)
	if name == "" {
		name = string(model.ComponentLMP)
	}
	s, err := series.New(idx, values, units.MustParseUnit("USD/MWh"))
	if err != nil {
		return series.Series{}, err
	}
	s = s.WithName(name)

	if opts.Freq == "" {
		return s, nil
	}
	freq, err := stamps.ParseFreq(string(opts.Freq))
	if err != nil {
		return series.Series{}, err
	}
	return changefreq.Averagable(s, freq)
}

// baseFreq is hourly when every interval is an hour starting on the hour.
func baseFreq(rows []model.LMPInterval, loc *time.Location) stamps.Freq {
	for _, it := range rows {
		start := it.Start().In(loc)
		if it.Duration() != time.Hour || !stamps.Floor(start, stamps.Hour).Equal(start) {
			return stamps.QuarterHour
		}
	}
	return stamps.Hour
}
