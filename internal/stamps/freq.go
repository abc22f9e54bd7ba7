// Package stamps implements the calendar layer: supported frequencies,
// left-bound period arithmetic and the duration-aware Index.
package stamps

import (
	"strings"
	"time"

	"pfline/internal/errs"
)

// Freq is a pandas-style frequency alias. Only the values in Frequencies
// are supported.
type Freq string

const (
	QuarterHour Freq = "15T"
	Hour        Freq = "H"
	Day         Freq = "D"
	Month       Freq = "MS"
	Quarter     Freq = "QS"
	Year        Freq = "AS"
)

// Frequencies lists the supported frequencies, from short to long.
var Frequencies = []Freq{QuarterHour, Hour, Day, Month, Quarter, Year}

// aliases maps accepted spellings onto a supported frequency. Right-bound
// aliases are normalized to their left-bound equivalent.
var aliases = map[string]Freq{
	"15min": QuarterHour,
	"h":     Hour,
	"M":     Month,
	"Q":     Quarter,
	"A":     Year,
	"Y":     Year,
	"YS":    Year,
}

// FrequencyList returns the supported frequencies as a comma-separated string.
func FrequencyList() string {
	names := make([]string, len(Frequencies))
	for i, f := range Frequencies {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}

// ParseFreq normalizes s and checks it is a supported frequency.
func ParseFreq(s string) (Freq, error) {
	s = strings.TrimSpace(s)
	if f, ok := aliases[s]; ok {
		return f, nil
	}
	f := Freq(s)
	if f.Valid() {
		return f, nil
	}
	return "", errs.New(errs.InvalidFrequency, "parameter freq must be one of %s; got %q", FrequencyList(), s)
}

// Valid reports whether f is one of the supported frequencies.
func (f Freq) Valid() bool { return f.rank() >= 0 }

func (f Freq) String() string { return string(f) }

func (f Freq) rank() int {
	for i, g := range Frequencies {
		if g == f {
			return i
		}
	}
	return -1
}

// FreqUpOrDown compares the granularity of source and target. It returns 1
// if going from source to target is upsampling (target is shorter), -1 if it
// is downsampling (target is longer), and 0 if they are equal.
func FreqUpOrDown(source, target Freq) (int, error) {
	rs, rt := source.rank(), target.rank()
	if rs < 0 {
		return 0, errs.New(errs.InvalidFrequency, "unsupported source frequency %q; must be one of %s", source, FrequencyList())
	}
	if rt < 0 {
		return 0, errs.New(errs.InvalidFrequency, "unsupported target frequency %q; must be one of %s", target, FrequencyList())
	}
	switch {
	case rs > rt:
		return 1, nil
	case rs < rt:
		return -1, nil
	default:
		return 0, nil
	}
}

// Floor returns the start of the period of frequency f that contains t, in
// t's location.
func Floor(t time.Time, f Freq) time.Time {
	switch f {
	case QuarterHour, Hour:
		d := time.Hour
		if f == QuarterHour {
			d = 15 * time.Minute
		}
		// Align on wall clock rather than on UTC, e.g. for +05:30 zones.
		_, off := t.Zone()
		shift := time.Duration(off) * time.Second
		return t.Add(shift).Truncate(d).Add(-shift)
	case Day:
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	case Month:
		y, m, _ := t.Date()
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	case Quarter:
		y, m, _ := t.Date()
		return time.Date(y, (m-1)/3*3+1, 1, 0, 0, 0, 0, t.Location())
	case Year:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	default:
		panic("stamps: unsupported frequency " + string(f))
	}
}

// Next returns the start of the period following the one that contains t.
func Next(t time.Time, f Freq) time.Time { return shift(Floor(t, f), f, 1) }

// Prev returns the start of the period preceding the one that contains t.
func Prev(t time.Time, f Freq) time.Time { return shift(Floor(t, f), f, -1) }

// shift moves a period start by n periods. Sub-daily periods move in
// elapsed time, longer ones in calendar time, so DST days last 23h or 25h.
func shift(start time.Time, f Freq, n int) time.Time {
	y, m, d := start.Date()
	loc := start.Location()
	switch f {
	case QuarterHour:
		return start.Add(time.Duration(n) * 15 * time.Minute)
	case Hour:
		return start.Add(time.Duration(n) * time.Hour)
	case Day:
		return time.Date(y, m, d+n, 0, 0, 0, 0, loc)
	case Month:
		return time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, loc)
	case Quarter:
		return time.Date(y, m+time.Month(3*n), 1, 0, 0, 0, 0, loc)
	case Year:
		return time.Date(y+n, 1, 1, 0, 0, 0, 0, loc)
	default:
		panic("stamps: unsupported frequency " + string(f))
	}
}
