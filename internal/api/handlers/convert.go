package handlers

import (
	"math"
	"sort"
	"time"

	"pfline/internal/api/models"
	"pfline/internal/interop"
	"pfline/internal/series"
	"pfline/internal/stamps"
	"pfline/internal/units"
)

// dimensionlessUnit names the dimensionless unit on the wire; an empty unit
// means a plain number.
const dimensionlessUnit = "dimensionless"

func parseUnit(symbol string) (units.Unit, error) {
	switch symbol {
	case "":
		return units.None, nil
	case dimensionlessUnit:
		return units.Canonical(units.Dimensionless), nil
	}
	return units.ParseUnit(symbol)
}

func unitString(u units.Unit) string {
	switch u.Dimension() {
	case units.Agnostic:
		return ""
	case units.Dimensionless:
		return dimensionlessUnit
	}
	return u.String()
}

func toSeries(p models.SeriesPayload) (series.Series, error) {
	if len(p.Timestamps) != len(p.Values) {
		return series.Series{}, badRequest("got %d timestamps and %d values", len(p.Timestamps), len(p.Values))
	}
	bound, err := stamps.ParseBound(p.Bound)
	if err != nil {
		return series.Series{}, err
	}
	opts := stamps.Options{Bound: bound, Freq: stamps.Freq(p.Freq)}
	if p.Timezone != "" {
		if opts.Location, err = time.LoadLocation(p.Timezone); err != nil {
			return series.Series{}, badRequest("unknown timezone %q", p.Timezone)
		}
	}
	idx, err := stamps.Standardize(p.Timestamps, opts)
	if err != nil {
		return series.Series{}, err
	}
	u, err := parseUnit(p.Unit)
	if err != nil {
		return series.Series{}, err
	}
	values := make([]float64, len(p.Values))
	for i, v := range p.Values {
		if v == nil {
			values[i] = math.NaN()
		} else {
			values[i] = *v
		}
	}
	s, err := series.New(idx, values, u)
	if err != nil {
		return series.Series{}, err
	}
	return s.WithName(p.Name), nil
}

// fromSeries renders s; NaN and infinite values become null.
func fromSeries(s series.Series) models.SeriesPayload {
	values := s.Values()
	out := models.SeriesPayload{
		Timestamps: s.Index().Stamps(),
		Values:     make([]*float64, len(values)),
		Unit:       unitString(s.Unit()),
		Name:       s.Name(),
		Freq:       string(s.Index().Freq()),
	}
	for i := range values {
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			continue
		}
		out.Values[i] = &values[i]
	}
	return out
}

func toData(v models.ValuePayload) (interop.Data, error) {
	switch {
	case v.Value != nil && v.Series != nil:
		return interop.Data{}, badRequest("value and series are mutually exclusive")
	case v.Series != nil:
		s, err := toSeries(*v.Series)
		if err != nil {
			return interop.Data{}, err
		}
		return interop.Series(s), nil
	case v.Value != nil:
		u, err := parseUnit(v.Unit)
		if err != nil {
			return interop.Data{}, err
		}
		if u.IsAgnostic() {
			return interop.Number(*v.Value), nil
		}
		return interop.Quantity(units.Quantity{Magnitude: *v.Value, Unit: u}), nil
	}
	return interop.Data{}, badRequest("either value or series is required")
}

func fromValue(v interop.Value) models.ValuePayload {
	if v.IsSeries() {
		s := fromSeries(v.Series())
		return models.ValuePayload{Series: &s}
	}
	q := v.Quantity()
	m := q.Magnitude
	return models.ValuePayload{Value: &m, Unit: unitString(q.Unit)}
}

// toInOp reconciles the keyed values of a request. Keys are visited in
// sorted order so that error messages are stable.
func toInOp(values map[string]models.ValuePayload) (interop.InOp, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]interop.Entry, 0, len(keys))
	for _, k := range keys {
		d, err := toData(values[k])
		if err != nil {
			return interop.InOp{}, wrapRequest(err, "values[%s]", k)
		}
		entries = append(entries, interop.Item(k, d))
	}
	return interop.FromData(interop.Mapping(entries...))
}

func assignAgnostic(io interop.InOp, attr string) (interop.InOp, error) {
	if attr == "" {
		return io, nil
	}
	dim, ok := units.ParseAttr(attr)
	if !ok {
		return interop.InOp{}, badRequest("assign_agnostic must be one of %s; got %q", units.AttrList(), attr)
	}
	return io.AssignAgnostic(dim)
}

func fromInOp(io interop.InOp) models.InteropResponse {
	out := models.InteropResponse{Values: map[string]models.ValuePayload{}}
	for _, d := range io.Dimensions() {
		out.Values[d.Attr()] = fromValue(io.Get(d))
	}
	return out
}
