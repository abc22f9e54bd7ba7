// Package interop extracts power, energy, price, revenue, dimensionless and
// dimension-agnostic information from heterogeneous input, without yet
// checking it for consistency.
//
// The result is an InOp: a fixed record of six optional slots. Every value
// that enters a slot is tagged with, or converted to, the canonical unit of
// that slot's dimension. InOp values are immutable.
package interop

import (
	"fmt"

	"pfline/internal/errs"
	"pfline/internal/series"
	"pfline/internal/stamps"
	"pfline/internal/units"
)

// InOp holds at most one value per dimension.
type InOp struct {
	w, q, p, r, nodim, agn Value
}

func (io InOp) W() Value     { return io.w }
func (io InOp) Q() Value     { return io.q }
func (io InOp) P() Value     { return io.p }
func (io InOp) R() Value     { return io.r }
func (io InOp) Nodim() Value { return io.nodim }
func (io InOp) Agn() Value   { return io.agn }

// Get returns the slot of dimension d.
func (io InOp) Get(d units.Dimension) Value { return *io.slot(d) }

func (io *InOp) slot(d units.Dimension) *Value {
	switch d {
	case units.Power:
		return &io.w
	case units.Energy:
		return &io.q
	case units.Price:
		return &io.p
	case units.Revenue:
		return &io.r
	case units.Dimensionless:
		return &io.nodim
	default:
		return &io.agn
	}
}

// Of returns a bundle with d prepared for the slot of dimension dim.
func Of(dim units.Dimension, d Data) (InOp, error) {
	v, err := d.value()
	if err != nil {
		return InOp{}, err
	}
	return with(dim, v)
}

func with(dim units.Dimension, v Value) (InOp, error) {
	prepared, err := prepare(dim, v)
	if err != nil {
		return InOp{}, err
	}
	var io InOp
	*io.slot(dim) = prepared
	return io, nil
}

// prepare attaches the canonical unit of dim to an agnostic value, or
// converts a unit-tagged one to it. Currencies are kept. The agnostic slot
// only takes plain numbers.
func prepare(dim units.Dimension, v Value) (Value, error) {
	if v.IsNone() {
		return v, nil
	}
	u := v.Unit()
	if dim == units.Agnostic {
		if !u.IsAgnostic() {
			return Value{}, errs.New(errs.DimensionalityMismatch,
				"agnostic values should not have a dimension and should not be dimensionless; found %s", u)
		}
		return v, nil
	}

	target := units.Canonical(dim)
	if !u.IsAgnostic() && u.Currency() != "" {
		target = units.CanonicalIn(dim, u.Currency())
	}
	if v.IsScalar() {
		if u.IsAgnostic() {
			return Scalar(units.Quantity{Magnitude: v.scalar.Magnitude, Unit: target}), nil
		}
		q, err := v.scalar.To(target)
		if err != nil {
			return Value{}, err
		}
		return Scalar(q), nil
	}
	s, err := v.series.Astype(target)
	if err != nil {
		return Value{}, err
	}
	return Timeseries(s), nil
}

// FromData turns d into a bundle.
//
// A number goes to the agnostic slot. A quantity or series goes to the slot
// of its unit's dimension. A timeseries of quantities is first brought to
// base units, which must all agree. Mapping and frame entries go to the slot
// their key names; two entries for one slot fail with DuplicateAttribute.
func FromData(d Data) (InOp, error) {
	switch d.kind {
	case dataNumber:
		return Of(units.Agnostic, d)

	case dataQuantity:
		return Of(d.quantity.Dimension(), d)

	case dataSeries:
		return Of(d.series.Unit().Dimension(), d)

	case dataQuantities:
		v, err := d.value()
		if err != nil {
			return InOp{}, err
		}
		return with(v.Unit().Dimension(), v)

	case dataMapping:
		var out InOp
		for _, e := range d.entries {
			dim, ok := keyDimension(e.Key)
			if !ok {
				return InOp{}, unexpectedKey(e.Key)
			}
			part, err := Of(dim, e.Value)
			if err != nil {
				return InOp{}, errs.Wrap(err, errs.KindUnknown, "item '%s'", e.Key)
			}
			if out, err = Union(out, part); err != nil {
				return InOp{}, err
			}
		}
		return out, nil

	case dataFrame:
		var out InOp
		for _, name := range d.frame.Columns() {
			key := Key{name}
			dim, ok := keyDimension(key)
			if !ok {
				return InOp{}, unexpectedKey(key)
			}
			col, _ := d.frame.Get(name)
			part, err := Of(dim, Series(col))
			if err != nil {
				return InOp{}, errs.Wrap(err, errs.KindUnknown, "column '%s'", name)
			}
			if out, err = Union(out, part); err != nil {
				return InOp{}, err
			}
		}
		return out, nil
	}
	return InOp{}, errs.New(errs.UnsupportedType,
		"expecting number, Quantity, timeseries, or mapping (e.g. frame); got %s", d.kind)
}

// keyDimension resolves a mapping key to a dimension by attribute name.
func keyDimension(k Key) (units.Dimension, bool) {
	switch len(k) {
	case 0:
		return units.Agnostic, false
	case 1:
		for _, d := range units.Dimensions {
			if k[0] == d.Attr() {
				return d, true
			}
		}
		return units.Agnostic, false
	}
	if d, ok := keyDimension(k[:1]); ok {
		return d, true
	}
	return keyDimension(k[len(k)-1:])
}

func unexpectedKey(k Key) error {
	return errs.New(errs.UnsupportedDimension,
		"found item with unexpected key/name '%s'; should be one of %s", k, units.AttrList())
}

// ToTimeseries returns a bundle in which every value is a series. The grid
// is the intersection of index (if given) and the indices of all series
// values; scalars are broadcast over it with their unit.
func (io InOp) ToTimeseries(index ...stamps.Index) (InOp, error) {
	indices := append([]stamps.Index(nil), index...)
	for _, d := range units.Dimensions {
		if v := io.Get(d); v.IsSeries() {
			indices = append(indices, v.series.Index())
		}
	}
	common, err := stamps.Intersection(indices...)
	if err != nil {
		return InOp{}, err
	}
	if common.IsEmpty() {
		return InOp{}, errs.New(errs.NoOverlap, "data has no overlapping timestamps")
	}

	var out InOp
	for _, d := range units.Dimensions {
		v := io.Get(d)
		switch {
		case v.IsSeries():
			s, err := v.series.Loc(common)
			if err != nil {
				return InOp{}, err
			}
			*out.slot(d) = Timeseries(s)
		case v.IsScalar():
			*out.slot(d) = Timeseries(series.FromQuantity(common, v.scalar))
		}
	}
	return out, nil
}

// AssignAgnostic moves the agnostic value into the slot of dim. It is a
// no-op when there is no agnostic value or dim is Agnostic, and fails with
// DuplicateAttribute if that slot is already populated.
func (io InOp) AssignAgnostic(dim units.Dimension) (InOp, error) {
	if io.agn.IsNone() || dim == units.Agnostic {
		return io, nil
	}
	moved, err := with(dim, io.agn)
	if err != nil {
		return InOp{}, err
	}
	return Union(io.Drop(units.Agnostic), moved)
}

// Drop returns io without the value of dimension d.
func (io InOp) Drop(d units.Dimension) InOp {
	*io.slot(d) = Value{}
	return io
}

// IsEmpty reports whether no slot is populated.
func (io InOp) IsEmpty() bool {
	for _, d := range units.Dimensions {
		if !io.Get(d).IsNone() {
			return false
		}
	}
	return true
}

// Dimensions returns the populated dimensions in attribute order.
func (io InOp) Dimensions() []units.Dimension {
	var out []units.Dimension
	for _, d := range units.Dimensions {
		if !io.Get(d).IsNone() {
			out = append(out, d)
		}
	}
	return out
}

// Union combines a and b slot by slot. A slot populated on both sides fails
// with DuplicateAttribute.
func Union(a, b InOp) (InOp, error) {
	out := a
	for _, d := range units.Dimensions {
		va, vb := a.Get(d), b.Get(d)
		if vb.IsNone() {
			continue
		}
		if !va.IsNone() {
			return InOp{}, errs.New(errs.DuplicateAttribute, "got two values for attribute '%s'", d.Attr())
		}
		*out.slot(d) = vb
	}
	return out, nil
}

// Or is Union(io, o).
func (io InOp) Or(o InOp) (InOp, error) { return Union(io, o) }

// Equal reports whether every slot of a and b holds an equal value.
func Equal(a, b InOp) bool {
	for _, d := range units.Dimensions {
		if !a.Get(d).Equal(b.Get(d)) {
			return false
		}
	}
	return true
}

// Equal is Equal(io, o).
func (io InOp) Equal(o InOp) bool { return Equal(io, o) }

// Data returns io as a mapping keyed by attribute name, so it can be fed to
// FromData again.
func (io InOp) Data() Data {
	var entries []Entry
	for _, d := range io.Dimensions() {
		entries = append(entries, Item(d.Attr(), io.Get(d).Data()))
	}
	return Mapping(entries...)
}

func (io InOp) String() string {
	s := "InOp("
	for i, d := range io.Dimensions() {
		if i > 0 {
			s += ", "
		}
		v := io.Get(d)
		if v.IsScalar() {
			s += fmt.Sprintf("%s=%s", d.Attr(), v.scalar)
		} else {
			s += fmt.Sprintf("%s=<%d x %s>", d.Attr(), v.series.Len(), v.series.Unit())
		}
	}
	return s + ")"
}
