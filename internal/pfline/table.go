// Package pfline builds the table of a single portfolio line: price only,
// volume only, or volume and revenue.
package pfline

import (
	"math"

	"pfline/internal/changefreq"
	"pfline/internal/errs"
	"pfline/internal/series"
	"pfline/internal/stamps"
	"pfline/internal/units"
)

// Kind is the shape of a line's table.
type Kind int

const (
	// KindPrice lines hold p.
	KindPrice Kind = iota + 1
	// KindVolume lines hold q.
	KindVolume
	// KindAll lines hold q and r; p and w are derived.
	KindAll
)

func (k Kind) String() string {
	switch k {
	case KindPrice:
		return "p"
	case KindVolume:
		return "q"
	case KindAll:
		return "all"
	default:
		return "unknown"
	}
}

// Line is anything that exposes the series of a portfolio line.
type Line interface {
	Kind() Kind
	Index() stamps.Index
	Q() series.Series
	P() series.Series
	R() series.Series
}

// Table is the validated table of a single line. Its frame has column p
// (KindPrice), q (KindVolume) or q and r (KindAll), in canonical units.
type Table struct {
	kind  Kind
	frame series.Frame
}

var _ Line = Table{}

func newTable(kind Kind, cols ...series.Series) (Table, error) {
	f, err := series.FrameOf(cols...)
	if err != nil {
		return Table{}, err
	}
	return Table{kind: kind, frame: f}, nil
}

func (t Table) Kind() Kind          { return t.kind }
func (t Table) Index() stamps.Index { return t.frame.Index() }
func (t Table) Frame() series.Frame { return t.frame }

// Q returns the volume in MWh. It is all NaN for price-only lines.
func (t Table) Q() series.Series {
	if q, ok := t.frame.Get("q"); ok {
		return q
	}
	return t.missing("q", units.Canonical(units.Energy))
}

// W returns the power in MW, derived from q and the period durations.
func (t Table) W() series.Series {
	return t.Q().DivDurations(units.Canonical(units.Power)).WithName("w")
}

// R returns the revenue. It is all NaN unless the line holds q and r.
func (t Table) R() series.Series {
	if r, ok := t.frame.Get("r"); ok {
		return r
	}
	return t.missing("r", units.Canonical(units.Revenue))
}

// P returns the price; for lines with q and r it is r / q.
func (t Table) P() series.Series {
	if p, ok := t.frame.Get("p"); ok {
		return p
	}
	if t.kind != KindAll {
		return t.missing("p", units.Canonical(units.Price))
	}
	r := t.R()
	unit := units.CanonicalIn(units.Price, r.Unit().Currency())
	p, err := r.Combine(t.Q(), unit, func(r, q float64) float64 { return r / q })
	if err != nil {
		// q and r share the frame index.
		panic(err.Error())
	}
	return p.WithName("p")
}

func (t Table) missing(name string, unit units.Unit) series.Series {
	return series.Constant(t.Index(), math.NaN(), unit).WithName(name)
}

// AllClose reports whether both tables have the same kind and their columns
// agree within tol.
func (t Table) AllClose(o Table, tol Tolerance) bool {
	if t.kind != o.kind {
		return false
	}
	for _, name := range t.frame.Columns() {
		a, _ := t.frame.Get(name)
		b, ok := o.frame.Get(name)
		if !ok || !a.AllClose(b, tol.RTol, tol.ATol) {
			return false
		}
	}
	return true
}

// Asfreq resamples the table to freq: p as an averagable quantity, q and r
// as summable ones.
func (t Table) Asfreq(freq stamps.Freq) (Table, error) {
	var (
		f   series.Frame
		err error
	)
	if t.kind == KindPrice {
		f, err = changefreq.AveragableFrame(t.frame, freq)
	} else {
		f, err = changefreq.SummableFrame(t.frame, freq)
	}
	if err != nil {
		return Table{}, errs.Wrap(err, errs.KindUnknown, "resampling %s line to %s", t.kind, freq)
	}
	return Table{kind: t.kind, frame: f}, nil
}
