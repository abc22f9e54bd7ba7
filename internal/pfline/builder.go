package pfline

import (
	"math"
	"time"

	"pfline/internal/errs"
	"pfline/internal/interop"
	"pfline/internal/series"
	"pfline/internal/stamps"
	"pfline/internal/units"
)

// Tolerance bounds the numeric comparisons of the builder. Two values a, b
// agree if |a-b| <= ATol + RTol*|b|; a volume is zero if |q| < Zero.
type Tolerance struct {
	RTol float64 `yaml:"rtol" json:"rtol"`
	ATol float64 `yaml:"atol" json:"atol"`
	Zero float64 `yaml:"zero" json:"zero"`
}

// DefaultTolerance is used by MakeTable.
var DefaultTolerance = Tolerance{RTol: 1e-5, ATol: 1e-8, Zero: 1e-5}

type dataKind int

const (
	dataNone dataKind = iota
	dataLine
	dataFrame
	dataSeries
	dataMapping
	dataInOp
)

// Data is the input of MakeTable.
type Data struct {
	kind    dataKind
	line    Line
	frame   series.Frame
	series  series.Series
	mapping map[string]interop.Value
	inop    interop.InOp
}

// FromLine takes the existing shape of l without deriving anything.
func FromLine(l Line) Data { return Data{kind: dataLine, line: l} }

// FromFrame reads columns w, q, p and r of f; other columns are ignored.
func FromFrame(f series.Frame) Data { return Data{kind: dataFrame, frame: f} }

// FromSeries treats s as a frame with one column named after s.
func FromSeries(s series.Series) Data { return Data{kind: dataSeries, series: s} }

// FromMapping aligns the series in m on the intersection of their indices
// and broadcasts scalars over it.
func FromMapping(m map[string]interop.Value) Data {
	own := make(map[string]interop.Value, len(m))
	for k, v := range m {
		own[k] = v
	}
	return Data{kind: dataMapping, mapping: own}
}

// FromInOp uses the power, energy, price and revenue slots of a reconciled
// bundle.
func FromInOp(io interop.InOp) Data { return Data{kind: dataInOp, inop: io} }

// Builder turns Data into a Table.
type Builder struct {
	Tolerance Tolerance
}

// MakeTable builds a table with DefaultTolerance.
func MakeTable(d Data) (Table, error) {
	return Builder{Tolerance: DefaultTolerance}.MakeTable(d)
}

// MakeTable extracts w, q, p and r from d and derives a minimal consistent
// table from them.
//
// Price alone gives a price-only table. Otherwise q is taken from q, from
// w times the period duration, or from r / p, and checked against w when
// both are given. Without p and r the result is volume-only. Otherwise r is
// taken from r or p times q, and checked against p times q when both are
// given. Where p is NaN or infinite, q must be zero and r is zero.
func (b Builder) MakeTable(d Data) (Table, error) {
	if d.kind == dataLine {
		return fromLine(d.line)
	}
	f, err := d.toFrame()
	if err != nil {
		return Table{}, err
	}
	cols, err := extract(f)
	if err != nil {
		return Table{}, err
	}
	return b.build(cols)
}

func fromLine(l Line) (Table, error) {
	switch l.Kind() {
	case KindPrice:
		return newTable(KindPrice, l.P().WithName("p"))
	case KindVolume:
		return newTable(KindVolume, l.Q().WithName("q"))
	case KindAll:
		return newTable(KindAll, l.Q().WithName("q"), l.R().WithName("r"))
	}
	return Table{}, errs.New(errs.UnsupportedType, "line has unknown kind %s", l.Kind())
}

func (d Data) toFrame() (series.Frame, error) {
	switch d.kind {
	case dataFrame:
		return d.frame, nil
	case dataSeries:
		return series.FrameOf(d.series)
	case dataMapping:
		return mappingToFrame(d.mapping)
	case dataInOp:
		ts, err := d.inop.ToTimeseries()
		if err != nil {
			return series.Frame{}, err
		}
		var cols []series.Series
		for _, dim := range []units.Dimension{units.Power, units.Energy, units.Price, units.Revenue} {
			if v := ts.Get(dim); v.IsSeries() {
				cols = append(cols, v.Series().WithName(dim.Attr()))
			}
		}
		if len(cols) == 0 {
			return series.Frame{}, underdetermined()
		}
		return series.FrameOf(cols...)
	}
	return series.Frame{}, errs.New(errs.UnsupportedType, "expecting a line, frame, series, mapping or bundle")
}

// mappingToFrame restricts all series to their common periods and
// broadcasts scalars over them.
func mappingToFrame(m map[string]interop.Value) (series.Frame, error) {
	var indices []stamps.Index
	for _, v := range m {
		if v.IsSeries() {
			indices = append(indices, v.Series().Index())
		}
	}
	common, err := stamps.Intersection(indices...)
	if err != nil {
		return series.Frame{}, err
	}
	var cols []series.Series
	for _, name := range []string{"w", "q", "p", "r"} {
		v, ok := m[name]
		if !ok || v.IsNone() {
			continue
		}
		if v.IsScalar() {
			cols = append(cols, series.FromQuantity(common, v.Quantity()).WithName(name))
			continue
		}
		s, err := v.Series().Loc(common)
		if err != nil {
			return series.Frame{}, err
		}
		cols = append(cols, s.WithName(name))
	}
	return series.NewFrame(common, cols...)
}

type wqpr struct {
	w, q, p, r *series.Series
}

// extract returns the w, q, p and r columns of f in canonical units. A
// missing or all-NaN column is absent.
func extract(f series.Frame) (wqpr, error) {
	var out wqpr
	targets := []struct {
		dim units.Dimension
		dst **series.Series
	}{
		{units.Power, &out.w},
		{units.Energy, &out.q},
		{units.Price, &out.p},
		{units.Revenue, &out.r},
	}
	for _, t := range targets {
		col, ok := f.Get(t.dim.Attr())
		if !ok || col.AllNaN() {
			continue
		}
		io, err := interop.Of(t.dim, interop.Series(col))
		if err != nil {
			return wqpr{}, errs.Wrap(err, errs.KindUnknown, "column '%s'", t.dim.Attr())
		}
		s := io.Get(t.dim).Series().WithName(t.dim.Attr())
		*t.dst = &s
	}
	return out, nil
}

func underdetermined() error {
	return errs.New(errs.UnderdeterminedInput, "must supply (a) volume, (b) price, or (c) both")
}

func (b Builder) build(c wqpr) (Table, error) {
	tol := b.Tolerance
	energy := units.Canonical(units.Energy)

	if c.p != nil && c.w == nil && c.q == nil && c.r == nil {
		return newTable(KindPrice, *c.p)
	}

	var q series.Series
	switch {
	case c.q == nil && c.w == nil:
		if c.r == nil || c.p == nil {
			return Table{}, underdetermined()
		}
		if err := sameCurrency(*c.p, *c.r); err != nil {
			return Table{}, err
		}
		derived, err := c.r.Combine(*c.p, energy, func(r, p float64) float64 { return r / p })
		if err != nil {
			return Table{}, err
		}
		q = derived
	case c.q == nil:
		q = c.w.MulDurations(energy)
	default:
		q = *c.q
		if c.w != nil && !q.AllClose(c.w.MulDurations(energy), tol.RTol, tol.ATol) {
			return Table{}, errs.New(errs.InconsistentInput, "passed values for 'q' and 'w' not consistent")
		}
	}
	q = q.WithName("q")

	if c.p == nil && c.r == nil {
		return newTable(KindVolume, q)
	}

	var r series.Series
	switch {
	case c.r == nil:
		revenue := units.CanonicalIn(units.Revenue, c.p.Unit().Currency())
		pq, err := c.p.Combine(q, revenue, func(p, q float64) float64 { return p * q })
		if err != nil {
			return Table{}, err
		}
		vals := pq.Values()
		for i, v := range vals {
			if !undefined(v) {
				continue
			}
			if math.Abs(q.At(i)) > tol.Zero {
				return Table{}, errs.New(errs.InconsistentInput,
					"found timestamps with 'p' undefined or infinite and 'q' != 0 (first at %s); unknown 'r'",
					q.Index().At(i).Format(time.RFC3339))
			}
			vals[i] = 0
		}
		if r, err = series.New(q.Index(), vals, revenue); err != nil {
			return Table{}, err
		}
	case c.p != nil:
		r = *c.r
		if err := sameCurrency(*c.p, r); err != nil {
			return Table{}, err
		}
		if !consistent(q, *c.p, r, tol) {
			return Table{}, errs.New(errs.InconsistentInput, "passed values for 'q', 'p' and 'r' not consistent")
		}
	default:
		r = *c.r
	}

	t, err := newTable(KindAll, q, r.WithName("r"))
	if err != nil {
		return Table{}, err
	}
	f, err := t.frame.DropNaRows()
	if err != nil {
		return Table{}, err
	}
	return Table{kind: KindAll, frame: f}, nil
}

// consistent checks r against p*q. Rows with undefined p are left out of
// the comparison if their q is zero.
func consistent(q, p, r series.Series, tol Tolerance) bool {
	pq, err := p.Combine(q, r.Unit(), func(p, q float64) float64 { return p * q })
	if err != nil {
		return false
	}
	if r.AllClose(pq, tol.RTol, tol.ATol) {
		return true
	}
	for i := 0; i < q.Len(); i++ {
		if undefined(p.At(i)) {
			if !(math.Abs(q.At(i)) < tol.Zero) {
				return false
			}
			continue
		}
		if !series.IsClose(r.At(i), p.At(i)*q.At(i), tol.RTol, tol.ATol) {
			return false
		}
	}
	return true
}

func undefined(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

func sameCurrency(p, r series.Series) error {
	if p.Unit().Currency() != r.Unit().Currency() {
		return errs.New(errs.DimensionalityMismatch, "price in %s and revenue in %s; currency conversion is not supported",
			p.Unit().Currency(), r.Unit().Currency())
	}
	return nil
}
