package interop

import (
	"strings"

	"pfline/internal/errs"
	"pfline/internal/series"
	"pfline/internal/stamps"
	"pfline/internal/units"
)

type dataKind int

const (
	dataNone dataKind = iota
	dataNumber
	dataQuantity
	dataSeries
	dataQuantities
	dataMapping
	dataFrame
)

// Data is caller input in one of the shapes FromData understands. Build it
// with Number, Quantity, Series, Quantities, Mapping or Frame; the zero Data
// is rejected.
type Data struct {
	kind       dataKind
	number     float64
	quantity   units.Quantity
	series     series.Series
	index      stamps.Index
	quantities []units.Quantity
	entries    []Entry
	frame      series.Frame
}

// Key names a mapping entry. A single-element key must be an attribute name;
// a composite key resolves through its first or last element.
type Key []string

func (k Key) String() string {
	if len(k) == 1 {
		return k[0]
	}
	return "(" + strings.Join(k, ", ") + ")"
}

// Entry is one item of a Mapping.
type Entry struct {
	Key   Key
	Value Data
}

// Item returns an entry with a single-element key.
func Item(key string, value Data) Entry { return Entry{Key: Key{key}, Value: value} }

// Number is a plain number.
func Number(v float64) Data { return Data{kind: dataNumber, number: v} }

// Quantity is a unit-tagged scalar. An agnostic quantity behaves like Number.
func Quantity(q units.Quantity) Data { return Data{kind: dataQuantity, quantity: q} }

// Series is a time series, unit-tagged or agnostic.
func Series(s series.Series) Data { return Data{kind: dataSeries, series: s} }

// Quantities is a time series whose values each carry their own unit.
func Quantities(index stamps.Index, values []units.Quantity) Data {
	own := make([]units.Quantity, len(values))
	copy(own, values)
	return Data{kind: dataQuantities, index: index, quantities: own}
}

// Mapping is a collection of keyed values.
func Mapping(entries ...Entry) Data {
	own := make([]Entry, len(entries))
	copy(own, entries)
	return Data{kind: dataMapping, entries: own}
}

// Frame is a table whose column names act as mapping keys.
func Frame(f series.Frame) Data { return Data{kind: dataFrame, frame: f} }

type valueKind int

const (
	valueNone valueKind = iota
	valueScalar
	valueSeries
)

// Value is the content of one bundle slot: nothing, a scalar or a series.
type Value struct {
	kind   valueKind
	scalar units.Quantity
	series series.Series
}

// Scalar wraps q as a slot value.
func Scalar(q units.Quantity) Value { return Value{kind: valueScalar, scalar: q} }

// Timeseries wraps s as a slot value.
func Timeseries(s series.Series) Value { return Value{kind: valueSeries, series: s} }

func (v Value) IsNone() bool   { return v.kind == valueNone }
func (v Value) IsScalar() bool { return v.kind == valueScalar }
func (v Value) IsSeries() bool { return v.kind == valueSeries }

// Quantity returns the scalar. Only meaningful if IsScalar.
func (v Value) Quantity() units.Quantity { return v.scalar }

// Series returns the series. Only meaningful if IsSeries.
func (v Value) Series() series.Series { return v.series }

// Unit returns the unit of the scalar or series.
func (v Value) Unit() units.Unit {
	switch v.kind {
	case valueScalar:
		return v.scalar.Unit
	case valueSeries:
		return v.series.Unit()
	default:
		return units.None
	}
}

// Equal reports whether v and o hold the same kind of value with the same
// unit and numbers. Series names are ignored.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case valueScalar:
		return v.scalar.Unit.Equal(o.scalar.Unit) && v.scalar.Magnitude == o.scalar.Magnitude
	case valueSeries:
		return v.series.Equal(o.series)
	default:
		return true
	}
}

// Data turns v back into input form.
func (v Value) Data() Data {
	switch v.kind {
	case valueScalar:
		if v.scalar.Unit.IsAgnostic() {
			return Number(v.scalar.Magnitude)
		}
		return Quantity(v.scalar)
	case valueSeries:
		return Series(v.series)
	default:
		return Data{}
	}
}

// value turns single-valued input into a slot value, without unit checks.
func (d Data) value() (Value, error) {
	switch d.kind {
	case dataNumber:
		return Scalar(units.Number(d.number)), nil
	case dataQuantity:
		return Scalar(d.quantity), nil
	case dataSeries:
		return Timeseries(d.series), nil
	case dataQuantities:
		s, err := collapse(d.index, d.quantities)
		if err != nil {
			return Value{}, err
		}
		return Timeseries(s), nil
	case dataNone:
		return Value{}, errs.New(errs.UnsupportedType, "value should be a number, Quantity, or timeseries; got nothing")
	default:
		return Value{}, errs.New(errs.UnsupportedType, "value should be a number, Quantity, or timeseries; got a %s", d.kind)
	}
}

func (k dataKind) String() string {
	switch k {
	case dataNumber:
		return "number"
	case dataQuantity:
		return "quantity"
	case dataSeries:
		return "timeseries"
	case dataQuantities:
		return "timeseries of quantities"
	case dataMapping:
		return "mapping"
	case dataFrame:
		return "frame"
	default:
		return "nothing"
	}
}

// collapse turns per-value units into one series in base units. Values that
// are all plain numbers give an agnostic series.
func collapse(index stamps.Index, values []units.Quantity) (series.Series, error) {
	if len(values) == 0 {
		return series.Series{}, errs.New(errs.UnsupportedType, "timeseries of quantities is empty; cannot determine its dimension")
	}
	mags := make([]float64, len(values))
	unit := values[0].ToBase().Unit
	for i, q := range values {
		b := q.ToBase()
		if !b.Unit.Equal(unit) {
			return series.Series{}, errs.New(errs.DimensionalityMismatch, "timeseries with inconsistent dimension; found %s,%s", unit, b.Unit)
		}
		mags[i] = b.Magnitude
	}
	return series.New(index, mags, unit)
}
