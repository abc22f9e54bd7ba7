package stamps

import (
	"math"
	"time"

	"pfline/internal/errs"
)

// Bound tells whether timestamps mark the start or the end of their period.
type Bound int

const (
	Left Bound = iota
	Right
)

// ParseBound accepts "left" or "right"; an empty string means left.
func ParseBound(s string) (Bound, error) {
	switch s {
	case "", "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return Left, errs.New(errs.InvalidIndex, "bound must be 'left' or 'right'; got %q", s)
	}
}

// Options configure Standardize.
type Options struct {
	Bound Bound
	// Freq is inferred from the first two timestamps when empty.
	Freq Freq
	// Location, when set, converts the timestamps before anything else.
	Location *time.Location
}

// Standardize turns raw timestamps into a left-bound Index. It fails on
// unsorted timestamps, gaps, misaligned stamps, or when no supported
// frequency fits.
func Standardize(stamps []time.Time, opts Options) (Index, error) {
	ts := make([]time.Time, len(stamps))
	for i, t := range stamps {
		if opts.Location != nil {
			t = t.In(opts.Location)
		}
		ts[i] = t
	}
	for i := 1; i < len(ts); i++ {
		if !ts[i].After(ts[i-1]) {
			return Index{}, errs.New(errs.InvalidIndex, "timestamps not strictly increasing at %s", ts[i].Format(time.RFC3339))
		}
	}

	freq := opts.Freq
	if freq == "" {
		inferred, err := InferFreq(ts)
		if err != nil {
			return Index{}, err
		}
		freq = inferred
	} else if f, err := ParseFreq(string(freq)); err != nil {
		return Index{}, err
	} else {
		freq = f
	}

	if opts.Bound == Right {
		for i, t := range ts {
			if !Floor(t, freq).Equal(t) {
				return Index{}, errs.New(errs.InvalidIndex, "right-bound timestamp %s is not at a %s period boundary", t.Format(time.RFC3339), freq)
			}
			ts[i] = Prev(t, freq)
		}
	}
	return NewIndex(ts, freq)
}

// InferFreq returns the shortest supported frequency for which the first two
// timestamps are consecutive period starts.
func InferFreq(stamps []time.Time) (Freq, error) {
	if len(stamps) < 2 {
		return "", errs.New(errs.InvalidFrequency, "cannot infer frequency from %d timestamp(s); pass it explicitly", len(stamps))
	}
	for _, f := range Frequencies {
		if Floor(stamps[0], f).Equal(stamps[0]) && Next(stamps[0], f).Equal(stamps[1]) {
			return f, nil
		}
	}
	return "", errs.New(errs.InvalidFrequency, "timestamps %s and %s do not match any of %s",
		stamps[0].Format(time.RFC3339), stamps[1].Format(time.RFC3339), FrequencyList())
}

// FillGaps linearly interpolates runs of NaN that are at most maxGap long
// and bounded by values on both sides. Leading and trailing runs are kept.
func FillGaps(values []float64, maxGap int) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	for i := 0; i < len(out); {
		if !math.IsNaN(out[i]) {
			i++
			continue
		}
		j := i
		for j < len(out) && math.IsNaN(out[j]) {
			j++
		}
		if i > 0 && j < len(out) && j-i <= maxGap {
			lo, hi := out[i-1], out[j]
			step := (hi - lo) / float64(j-i+1)
			for k := i; k < j; k++ {
				out[k] = lo + step*float64(k-i+1)
			}
		}
		i = j
	}
	return out
}
