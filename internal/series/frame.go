package series

import (
	"math"

	"pfline/internal/errs"
	"pfline/internal/stamps"
)

// Frame is an ordered set of named series on one index.
type Frame struct {
	index stamps.Index
	names []string
	cols  map[string]Series
}

// NewFrame returns a frame on index. Every column must be on index, and
// column names must be unique.
func NewFrame(index stamps.Index, cols ...Series) (Frame, error) {
	f := Frame{index: index, cols: make(map[string]Series, len(cols))}
	for _, c := range cols {
		if !c.index.Equal(index) {
			return Frame{}, errs.New(errs.InvalidIndex, "column %q is not on the frame index", c.name)
		}
		if _, dup := f.cols[c.name]; dup {
			return Frame{}, errs.New(errs.DuplicateAttribute, "duplicate column %q", c.name)
		}
		f.names = append(f.names, c.name)
		f.cols[c.name] = c
	}
	return f, nil
}

// FrameOf returns a frame on the index of the first column.
func FrameOf(cols ...Series) (Frame, error) {
	if len(cols) == 0 {
		return Frame{}, errs.New(errs.InvalidIndex, "a frame needs at least one column")
	}
	return NewFrame(cols[0].index, cols...)
}

func (f Frame) Index() stamps.Index { return f.index }
func (f Frame) Len() int            { return f.index.Len() }

// Columns returns the column names in insertion order.
func (f Frame) Columns() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Get returns the column named name.
func (f Frame) Get(name string) (Series, bool) {
	s, ok := f.cols[name]
	return s, ok
}

// With returns a frame with col added, or replacing the column of the same
// name.
func (f Frame) With(col Series) (Frame, error) {
	cols := make([]Series, 0, len(f.names)+1)
	replaced := false
	for _, n := range f.names {
		if n == col.name {
			cols = append(cols, col)
			replaced = true
			continue
		}
		cols = append(cols, f.cols[n])
	}
	if !replaced {
		cols = append(cols, col)
	}
	return NewFrame(f.index, cols...)
}

// DropNaRows removes every row in which any column is NaN. The remaining
// rows must still form a gap-free index.
func (f Frame) DropNaRows() (Frame, error) {
	var keep []int
	for k := 0; k < f.index.Len(); k++ {
		ok := true
		for _, n := range f.names {
			if math.IsNaN(f.cols[n].values[k]) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, k)
		}
	}
	if len(keep) == f.index.Len() {
		return f, nil
	}
	idx, err := f.index.Take(keep)
	if err != nil {
		return Frame{}, errs.Wrap(err, errs.KindUnknown, "dropping rows with missing values")
	}
	cols := make([]Series, len(f.names))
	for i, n := range f.names {
		c := f.cols[n]
		vals := make([]float64, len(keep))
		for k, p := range keep {
			vals[k] = c.values[p]
		}
		cols[i] = Series{index: idx, values: vals, unit: c.unit, name: n}
	}
	return NewFrame(idx, cols...)
}

// Equal reports whether both frames have the same columns, in any order,
// with equal series.
func (f Frame) Equal(o Frame) bool {
	if !f.index.Equal(o.index) || len(f.names) != len(o.names) {
		return false
	}
	for _, n := range f.names {
		oc, ok := o.cols[n]
		if !ok || !f.cols[n].Equal(oc) {
			return false
		}
	}
	return true
}
