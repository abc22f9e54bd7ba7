// Package series holds immutable unit-tagged time series on a stamps.Index,
// and frames of such series sharing one index.
package series

import (
	"math"
	"time"

	"pfline/internal/errs"
	"pfline/internal/stamps"
	"pfline/internal/units"
)

// Series is a sequence of values, one per period of its index, all in one
// unit. Methods never modify the receiver.
type Series struct {
	index  stamps.Index
	values []float64
	unit   units.Unit
	name   string
}

// New returns a series of values on index, tagged with unit.
func New(index stamps.Index, values []float64, unit units.Unit) (Series, error) {
	if len(values) != index.Len() {
		return Series{}, errs.New(errs.InvalidIndex, "got %d values for an index of %d periods", len(values), index.Len())
	}
	own := make([]float64, len(values))
	copy(own, values)
	return Series{index: index, values: own, unit: unit}, nil
}

// MustNew is like New but panics on error.
func MustNew(index stamps.Index, values []float64, unit units.Unit) Series {
	s, err := New(index, values, unit)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// Constant returns a series with value v in every period of index.
func Constant(index stamps.Index, v float64, unit units.Unit) Series {
	values := make([]float64, index.Len())
	for i := range values {
		values[i] = v
	}
	return Series{index: index, values: values, unit: unit}
}

// FromQuantity broadcasts q over index, keeping its unit.
func FromQuantity(index stamps.Index, q units.Quantity) Series {
	return Constant(index, q.Magnitude, q.Unit)
}

func (s Series) Index() stamps.Index { return s.index }
func (s Series) Len() int            { return len(s.values) }
func (s Series) IsEmpty() bool       { return len(s.values) == 0 }
func (s Series) At(k int) float64    { return s.values[k] }
func (s Series) Unit() units.Unit    { return s.unit }
func (s Series) Name() string        { return s.name }

// Values returns a copy of the values.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// WithName returns s renamed.
func (s Series) WithName(name string) Series {
	s.name = name
	return s
}

// WithUnit returns s tagged with u without converting any value.
func (s Series) WithUnit(u units.Unit) Series {
	s.unit = u
	return s
}

// Astype attaches u to an agnostic series, or converts a unit-tagged one to
// u. Non-convertible units fail with DimensionalityMismatch.
func (s Series) Astype(u units.Unit) (Series, error) {
	if s.unit.IsAgnostic() {
		return s.WithUnit(u), nil
	}
	f, err := units.Factor(s.unit, u)
	if err != nil {
		return Series{}, err
	}
	out := s.Scale(f)
	out.unit = u
	return out, nil
}

// ToBase converts s to the canonical unit of its dimension.
func (s Series) ToBase() Series {
	if s.unit.IsAgnostic() {
		return s
	}
	out, err := s.Astype(s.unit.Base())
	if err != nil {
		// Base keeps dimension and currency, so conversion cannot fail.
		panic(err.Error())
	}
	return out
}

// Map returns a series with fn applied to every value. The unit is kept.
func (s Series) Map(fn func(float64) float64) Series {
	out := make([]float64, len(s.values))
	for i, v := range s.values {
		out[i] = fn(v)
	}
	s.values = out
	return s
}

// Scale multiplies every value by f.
func (s Series) Scale(f float64) Series {
	return s.Map(func(v float64) float64 { return v * f })
}

// Combine applies fn row by row to s and o, which must share an index, and
// tags the result with unit.
func (s Series) Combine(o Series, unit units.Unit, fn func(a, b float64) float64) (Series, error) {
	if !s.index.Equal(o.index) {
		return Series{}, errs.New(errs.InvalidIndex, "cannot combine series %q and %q: indices differ", s.name, o.name)
	}
	out := make([]float64, len(s.values))
	for i := range s.values {
		out[i] = fn(s.values[i], o.values[i])
	}
	return Series{index: s.index, values: out, unit: unit}, nil
}

// MulDurations multiplies every value by the duration of its period in
// hours, and tags the result with unit.
func (s Series) MulDurations(unit units.Unit) Series {
	out := make([]float64, len(s.values))
	for i, v := range s.values {
		out[i] = v * s.index.Duration(i)
	}
	return Series{index: s.index, values: out, unit: unit, name: s.name}
}

// DivDurations divides every value by the duration of its period in hours,
// and tags the result with unit.
func (s Series) DivDurations(unit units.Unit) Series {
	out := make([]float64, len(s.values))
	for i, v := range s.values {
		out[i] = v / s.index.Duration(i)
	}
	return Series{index: s.index, values: out, unit: unit, name: s.name}
}

// Loc restricts s to the periods of index. Every period of index must be
// present in s.
func (s Series) Loc(index stamps.Index) (Series, error) {
	if s.index.Equal(index) {
		return s, nil
	}
	if index.Freq() != s.index.Freq() {
		return Series{}, errs.New(errs.InvalidIndex, "cannot select %s periods from a %s series", index.Freq(), s.index.Freq())
	}
	out := make([]float64, index.Len())
	for k := 0; k < index.Len(); k++ {
		p, ok := s.index.Position(index.At(k))
		if !ok {
			return Series{}, errs.New(errs.InvalidIndex, "timestamp %s not in series %q", index.At(k).Format(time.RFC3339), s.name)
		}
		out[k] = s.values[p]
	}
	return Series{index: index, values: out, unit: s.unit, name: s.name}, nil
}

// Take returns the rows at positions, which must form a gap-free index.
func (s Series) Take(positions []int) (Series, error) {
	idx, err := s.index.Take(positions)
	if err != nil {
		return Series{}, err
	}
	out := make([]float64, len(positions))
	for k, p := range positions {
		out[k] = s.values[p]
	}
	return Series{index: idx, values: out, unit: s.unit, name: s.name}, nil
}

// AllNaN reports whether every value is NaN. An empty series is all NaN.
func (s Series) AllNaN() bool {
	for _, v := range s.values {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Sum returns the sum of all values.
func (s Series) Sum() float64 {
	var total float64
	for _, v := range s.values {
		total += v
	}
	return total
}

// Equal reports whether s and o have the same index, unit and values. NaN
// equals NaN; names are ignored.
func (s Series) Equal(o Series) bool {
	if !s.index.Equal(o.index) || !s.unit.Equal(o.unit) {
		return false
	}
	for i, v := range s.values {
		w := o.values[i]
		if v != w && !(math.IsNaN(v) && math.IsNaN(w)) {
			return false
		}
	}
	return true
}

// AllClose reports whether s and o share an index and, once o is expressed
// in s's unit, |a-b| <= atol + rtol*|b| holds on every row. NaN only
// matches NaN.
func (s Series) AllClose(o Series, rtol, atol float64) bool {
	if !s.index.Equal(o.index) {
		return false
	}
	o, err := o.Astype(s.unit)
	if err != nil {
		return false
	}
	for i, a := range s.values {
		if !IsClose(a, o.values[i], rtol, atol) {
			return false
		}
	}
	return true
}

// IsClose compares two numbers the way AllClose does.
func IsClose(a, b, rtol, atol float64) bool {
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		return math.IsNaN(a) && math.IsNaN(b)
	case math.IsInf(a, 0) || math.IsInf(b, 0):
		return a == b
	}
	return math.Abs(a-b) <= atol+rtol*math.Abs(b)
}
