// Package changefreq moves time series to another frequency while keeping
// their physical meaning.
//
// A summable quantity (energy, revenue) aggregates by summation, an
// averagable one (power, price) by duration-weighted averaging. Both cases
// go through one sum-based resampler: averagable values are multiplied by
// their period duration on the way in and divided by the new duration on
// the way out, and the other way round when upsampling.
package changefreq

import (
	"time"

	"pfline/internal/errs"
	"pfline/internal/series"
	"pfline/internal/stamps"
)

// Summable resamples s, whose values add up over time, to freq.
func Summable(s series.Series, freq stamps.Freq) (series.Series, error) {
	return single(s, freq, true)
}

// Averagable resamples s, whose values are averages over their period, to
// freq.
func Averagable(s series.Series, freq stamps.Freq) (series.Series, error) {
	return single(s, freq, false)
}

// SummableFrame applies Summable to every column of f.
func SummableFrame(f series.Frame, freq stamps.Freq) (series.Frame, error) {
	return frame(f, freq, true)
}

// AveragableFrame applies Averagable to every column of f.
func AveragableFrame(f series.Frame, freq stamps.Freq) (series.Frame, error) {
	return frame(f, freq, false)
}

func single(s series.Series, freq stamps.Freq, isSummable bool) (series.Series, error) {
	idx, cols, err := general(s.Index(), [][]float64{s.Values()}, freq, isSummable)
	if err != nil {
		return series.Series{}, err
	}
	out, err := series.New(idx, cols[0], s.Unit())
	if err != nil {
		return series.Series{}, err
	}
	return out.WithName(s.Name()), nil
}

func frame(f series.Frame, freq stamps.Freq, isSummable bool) (series.Frame, error) {
	names := f.Columns()
	in := make([][]float64, len(names))
	for i, n := range names {
		c, _ := f.Get(n)
		in[i] = c.Values()
	}
	idx, cols, err := general(f.Index(), in, freq, isSummable)
	if err != nil {
		return series.Frame{}, err
	}
	out := make([]series.Series, len(names))
	for i, n := range names {
		c, _ := f.Get(n)
		s, err := series.New(idx, cols[i], c.Unit())
		if err != nil {
			return series.Frame{}, err
		}
		out[i] = s.WithName(n)
	}
	return series.NewFrame(idx, out...)
}

// general resamples the columns on idx to freq.
func general(idx stamps.Index, cols [][]float64, freq stamps.Freq, isSummable bool) (stamps.Index, [][]float64, error) {
	target, err := stamps.ParseFreq(string(freq))
	if err != nil {
		return stamps.Index{}, nil, err
	}

	if idx.IsEmpty() {
		return stamps.Empty(target), make([][]float64, len(cols)), nil
	}

	upOrDown, err := stamps.FreqUpOrDown(idx.Freq(), target)
	if err != nil {
		return stamps.Index{}, nil, err
	}

	switch {
	case upOrDown == 0:
		return idx, cols, nil

	case upOrDown < 0 && isSummable:
		return downsampleSum(idx, cols, target)

	case upOrDown < 0:
		summed := mulDurations(idx, cols)
		idx2, cols2, err := general(idx, summed, target, true)
		if err != nil {
			return stamps.Index{}, nil, err
		}
		return idx2, divDurations(idx2, cols2), nil

	case !isSummable:
		return upsampleReplicate(idx, cols, target)

	default:
		averaged := divDurations(idx, cols)
		idx2, cols2, err := general(idx, averaged, target, false)
		if err != nil {
			return stamps.Index{}, nil, err
		}
		return idx2, mulDurations(idx2, cols2), nil
	}
}

// downsampleSum sums source rows per target period and keeps only target
// periods fully covered by the source index. A NaN in a period makes its
// sum NaN.
func downsampleSum(idx stamps.Index, cols [][]float64, freq stamps.Freq) (stamps.Index, [][]float64, error) {
	var starts []time.Time
	sums := make([][]float64, len(cols))
	for k := 0; k < idx.Len(); k++ {
		start := stamps.Floor(idx.At(k), freq)
		if len(starts) == 0 || !starts[len(starts)-1].Equal(start) {
			starts = append(starts, start)
			for c := range sums {
				sums[c] = append(sums[c], 0)
			}
		}
		last := len(starts) - 1
		for c, col := range cols {
			sums[c][last] += col[k]
		}
	}

	first, end := idx.Start(), idx.End()
	lo, hi := 0, len(starts)
	if starts[lo].Before(first) {
		lo++
	}
	if hi > lo && stamps.Next(starts[hi-1], freq).After(end) {
		hi--
	}
	if lo >= hi {
		return stamps.Index{}, nil, errs.New(errs.NoFullPeriods, "there are no 'full' time periods at this frequency")
	}

	out, err := stamps.NewIndex(starts[lo:hi], freq)
	if err != nil {
		return stamps.Index{}, nil, err
	}
	for c := range sums {
		sums[c] = sums[c][lo:hi]
	}
	return out, sums, nil
}

// upsampleReplicate copies each source value into every target period it
// contains. The last source period is filled up to its end.
func upsampleReplicate(idx stamps.Index, cols [][]float64, freq stamps.Freq) (stamps.Index, [][]float64, error) {
	out, err := stamps.RangeUntil(idx.Start(), idx.End(), freq)
	if err != nil {
		return stamps.Index{}, nil, err
	}
	filled := make([][]float64, len(cols))
	for c := range filled {
		filled[c] = make([]float64, out.Len())
	}
	parent := 0
	for k := 0; k < out.Len(); k++ {
		for parent+1 < idx.Len() && !out.At(k).Before(idx.At(parent+1)) {
			parent++
		}
		for c, col := range cols {
			filled[c][k] = col[parent]
		}
	}
	return out, filled, nil
}

func mulDurations(idx stamps.Index, cols [][]float64) [][]float64 {
	return weigh(idx, cols, func(v, h float64) float64 { return v * h })
}

func divDurations(idx stamps.Index, cols [][]float64) [][]float64 {
	return weigh(idx, cols, func(v, h float64) float64 { return v / h })
}

func weigh(idx stamps.Index, cols [][]float64, fn func(v, hours float64) float64) [][]float64 {
	durations := idx.Durations()
	out := make([][]float64, len(cols))
	for c, col := range cols {
		out[c] = make([]float64, len(col))
		for k, v := range col {
			out[c][k] = fn(v, durations[k])
		}
	}
	return out
}
