package stamps

import (
	"sort"
	"time"

	"pfline/internal/errs"
)

// Index is a gap-free, strictly increasing sequence of left-bound period
// starts at a single frequency. The zero Index is empty and has no frequency.
type Index struct {
	stamps []time.Time
	freq   Freq
}

// NewIndex validates stamps against freq and returns an Index. Every stamp
// must be the start of a period, and each stamp must be followed directly by
// the start of the next period.
func NewIndex(stamps []time.Time, freq Freq) (Index, error) {
	if !freq.Valid() {
		return Index{}, errs.New(errs.InvalidFrequency, "parameter freq must be one of %s; got %q", FrequencyList(), freq)
	}
	own := make([]time.Time, len(stamps))
	copy(own, stamps)
	for i, t := range own {
		if !Floor(t, freq).Equal(t) {
			return Index{}, errs.New(errs.InvalidIndex, "timestamp %s is not at the start of a %s period", t.Format(time.RFC3339), freq)
		}
		if i == 0 {
			continue
		}
		prev := own[i-1]
		if !t.After(prev) {
			return Index{}, errs.New(errs.InvalidIndex, "timestamps not strictly increasing at %s", t.Format(time.RFC3339))
		}
		if want := Next(prev, freq); !want.Equal(t) {
			return Index{}, errs.New(errs.InvalidIndex, "gap in timestamps: expected %s after %s, got %s",
				want.Format(time.RFC3339), prev.Format(time.RFC3339), t.Format(time.RFC3339))
		}
	}
	return Index{stamps: own, freq: freq}, nil
}

// Range returns an index of n periods starting at start.
func Range(start time.Time, periods int, freq Freq) (Index, error) {
	if !freq.Valid() {
		return Index{}, errs.New(errs.InvalidFrequency, "parameter freq must be one of %s; got %q", FrequencyList(), freq)
	}
	if !Floor(start, freq).Equal(start) {
		return Index{}, errs.New(errs.InvalidIndex, "start %s is not at the start of a %s period", start.Format(time.RFC3339), freq)
	}
	stamps := make([]time.Time, 0, max(periods, 0))
	for t := start; len(stamps) < periods; t = Next(t, freq) {
		stamps = append(stamps, t)
	}
	return Index{stamps: stamps, freq: freq}, nil
}

// RangeUntil returns the index of all periods in [start, end).
func RangeUntil(start, end time.Time, freq Freq) (Index, error) {
	if !freq.Valid() {
		return Index{}, errs.New(errs.InvalidFrequency, "parameter freq must be one of %s; got %q", FrequencyList(), freq)
	}
	if !Floor(start, freq).Equal(start) {
		return Index{}, errs.New(errs.InvalidIndex, "start %s is not at the start of a %s period", start.Format(time.RFC3339), freq)
	}
	var stamps []time.Time
	for t := start; t.Before(end); t = Next(t, freq) {
		stamps = append(stamps, t)
	}
	return Index{stamps: stamps, freq: freq}, nil
}

// Empty returns an index without periods at frequency freq.
func Empty(freq Freq) Index { return Index{freq: freq} }

func (i Index) Len() int                { return len(i.stamps) }
func (i Index) IsEmpty() bool           { return len(i.stamps) == 0 }
func (i Index) Freq() Freq              { return i.freq }
func (i Index) At(k int) time.Time      { return i.stamps[k] }
func (i Index) TsRight(k int) time.Time { return Next(i.stamps[k], i.freq) }

// Stamps returns a copy of the period starts.
func (i Index) Stamps() []time.Time {
	out := make([]time.Time, len(i.stamps))
	copy(out, i.stamps)
	return out
}

// Start returns the start of the first period. The index must not be empty.
func (i Index) Start() time.Time { return i.stamps[0] }

// End returns the (exclusive) end of the last period. The index must not be empty.
func (i Index) End() time.Time { return i.TsRight(len(i.stamps) - 1) }

// Duration returns the true elapsed duration of period k in hours.
func (i Index) Duration(k int) float64 { return i.TsRight(k).Sub(i.stamps[k]).Hours() }

// Durations returns the duration in hours of every period.
func (i Index) Durations() []float64 {
	out := make([]float64, len(i.stamps))
	for k := range i.stamps {
		out[k] = i.Duration(k)
	}
	return out
}

// Location returns the location of the timestamps, or UTC for an empty index.
func (i Index) Location() *time.Location {
	if len(i.stamps) == 0 {
		return time.UTC
	}
	return i.stamps[0].Location()
}

// Position returns the row of period start t.
func (i Index) Position(t time.Time) (int, bool) {
	k := sort.Search(len(i.stamps), func(k int) bool { return !i.stamps[k].Before(t) })
	if k < len(i.stamps) && i.stamps[k].Equal(t) {
		return k, true
	}
	return k, false
}

// Equal reports whether both indices have the same frequency and instants.
func (i Index) Equal(o Index) bool {
	if i.freq != o.freq || len(i.stamps) != len(o.stamps) {
		return false
	}
	for k, t := range i.stamps {
		if !t.Equal(o.stamps[k]) {
			return false
		}
	}
	return true
}

// Take returns the index made of the rows at positions, which must again
// form a gap-free index.
func (i Index) Take(positions []int) (Index, error) {
	stamps := make([]time.Time, len(positions))
	for k, p := range positions {
		stamps[k] = i.stamps[p]
	}
	return NewIndex(stamps, i.freq)
}

// Intersection returns the periods common to all indices, in the location of
// the first one. It fails when no index is given or when frequencies differ;
// an empty intersection is returned as an empty Index, not as an error.
func Intersection(indices ...Index) (Index, error) {
	if len(indices) == 0 {
		return Index{}, errs.New(errs.NoOverlap, "nothing to intersect: no timeseries index available")
	}
	freq := indices[0].freq
	for _, idx := range indices[1:] {
		if idx.freq != freq {
			return Index{}, errs.New(errs.InvalidIndex, "cannot intersect indices with frequencies %q and %q", freq, idx.freq)
		}
	}
	var common []time.Time
	for _, t := range indices[0].stamps {
		inAll := true
		for _, idx := range indices[1:] {
			if _, ok := idx.Position(t); !ok {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, t)
		}
	}
	if len(common) == 0 {
		return Empty(freq), nil
	}
	return NewIndex(common, freq)
}
