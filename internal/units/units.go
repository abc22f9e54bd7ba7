// Package units maps physical dimensions to units and converts between them.
//
// Every dimension except agnostic and dimensionless has one canonical unit:
// MW for power, MWh for energy, <CUR>/MWh for price and <CUR> for revenue.
// Currencies are validated but never converted into one another.
package units

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"

	"pfline/internal/errs"
)

// DefaultCurrency is used when a plain number is tagged with a price or
// revenue unit.
const DefaultCurrency = "EUR"

// Dimension is the physical category of a value.
type Dimension int

const (
	// Agnostic values are plain numbers whose dimension is not decided yet.
	Agnostic Dimension = iota
	Power
	Energy
	Price
	Revenue
	Dimensionless
)

// Dimensions lists all dimensions in attribute order.
var Dimensions = []Dimension{Power, Energy, Price, Revenue, Dimensionless, Agnostic}

// Attr returns the short attribute name: w, q, p, r, nodim or agn.
func (d Dimension) Attr() string {
	switch d {
	case Power:
		return "w"
	case Energy:
		return "q"
	case Price:
		return "p"
	case Revenue:
		return "r"
	case Dimensionless:
		return "nodim"
	default:
		return "agn"
	}
}

func (d Dimension) String() string {
	switch d {
	case Power:
		return "power"
	case Energy:
		return "energy"
	case Price:
		return "price"
	case Revenue:
		return "revenue"
	case Dimensionless:
		return "dimensionless"
	default:
		return "agnostic"
	}
}

// AttrList returns the attribute names, comma separated.
func AttrList() string {
	names := make([]string, len(Dimensions))
	for i, d := range Dimensions {
		names[i] = d.Attr()
	}
	return strings.Join(names, ", ")
}

// ParseAttr returns the dimension whose attribute name or dimension name is s.
func ParseAttr(s string) (Dimension, bool) {
	for _, d := range Dimensions {
		if s == d.Attr() || s == d.String() {
			return d, true
		}
	}
	return Agnostic, false
}

// Unit is a unit of one dimension, stored as a scale relative to the
// canonical unit of that dimension. The zero Unit is the agnostic unit.
type Unit struct {
	dim      Dimension
	scale    float64
	currency string
	symbol   string
}

// None is the unit of agnostic values.
var None = Unit{}

// Canonical returns the canonical unit of d, in DefaultCurrency for price
// and revenue.
func Canonical(d Dimension) Unit { return CanonicalIn(d, DefaultCurrency) }

// CanonicalIn returns the canonical unit of d in the given currency.
func CanonicalIn(d Dimension, currency string) Unit {
	switch d {
	case Power:
		return Unit{dim: Power, scale: 1, symbol: "MW"}
	case Energy:
		return Unit{dim: Energy, scale: 1, symbol: "MWh"}
	case Price:
		return Unit{dim: Price, scale: 1, currency: currency, symbol: currency + "/MWh"}
	case Revenue:
		return Unit{dim: Revenue, scale: 1, currency: currency, symbol: currency}
	case Dimensionless:
		return Unit{dim: Dimensionless, scale: 1}
	default:
		return None
	}
}

var powerScales = map[string]float64{"W": 1e-6, "kW": 1e-3, "MW": 1, "GW": 1e3, "TW": 1e6}

var energyScales = map[string]float64{"Wh": 1e-6, "kWh": 1e-3, "MWh": 1, "GWh": 1e3, "TWh": 1e6}

// ParseUnit parses a unit symbol such as "kW", "GWh", "EUR/MWh", "ct/kWh",
// "kEUR" or "" (dimensionless). Unknown symbols fail with UnsupportedDimension.
func ParseUnit(s string) (Unit, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Canonical(Dimensionless), nil
	}
	if scale, ok := powerScales[s]; ok {
		return Unit{dim: Power, scale: scale, symbol: s}, nil
	}
	if scale, ok := energyScales[s]; ok {
		return Unit{dim: Energy, scale: scale, symbol: s}, nil
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		energy, ok := energyScales[den]
		if !ok {
			return Unit{}, unsupported(s)
		}
		if num == "ct" {
			return Unit{dim: Price, scale: 0.01 / energy, currency: "EUR", symbol: s}, nil
		}
		cur, ok := currencyCode(num)
		if !ok {
			return Unit{}, unsupported(s)
		}
		return Unit{dim: Price, scale: 1 / energy, currency: cur, symbol: cur + "/" + den}, nil
	}
	if cur, ok := currencyCode(s); ok {
		return Unit{dim: Revenue, scale: 1, currency: cur, symbol: cur}, nil
	}
	if len(s) > 1 {
		prefix := map[byte]float64{'k': 1e3, 'M': 1e6}
		if scale, ok := prefix[s[0]]; ok {
			if cur, ok := currencyCode(s[1:]); ok {
				return Unit{dim: Revenue, scale: scale, currency: cur, symbol: s[:1] + cur}, nil
			}
		}
	}
	return Unit{}, unsupported(s)
}

// MustParseUnit is like ParseUnit but panics on error.
func MustParseUnit(s string) Unit {
	u, err := ParseUnit(s)
	if err != nil {
		panic(err.Error())
	}
	return u
}

func unsupported(s string) error {
	return errs.New(errs.UnsupportedDimension, "cannot handle data with this unit (%s)", s)
}

// currencyCode returns the ISO code for s if go-money knows it.
func currencyCode(s string) (string, bool) {
	code := strings.ToUpper(s)
	if len(code) != 3 || money.GetCurrency(code) == nil {
		return "", false
	}
	return code, true
}

func (u Unit) Dimension() Dimension { return u.dim }
func (u Unit) Currency() string     { return u.currency }
func (u Unit) IsAgnostic() bool     { return u.dim == Agnostic }

// Base returns the canonical unit of u's dimension, keeping u's currency.
func (u Unit) Base() Unit { return CanonicalIn(u.dim, u.currency) }

// Equal reports whether u and o are the same unit.
func (u Unit) Equal(o Unit) bool {
	return u.dim == o.dim && u.scale == o.scale && u.currency == o.currency
}

func (u Unit) String() string {
	if u.dim == Agnostic {
		return "agnostic"
	}
	return u.symbol
}

// Factor returns the number by which a magnitude in u must be multiplied to
// express it in to.
func Factor(u, to Unit) (float64, error) {
	if u.dim != to.dim {
		return 0, errs.New(errs.DimensionalityMismatch, "cannot convert from '%s' (%s) to '%s' (%s)", u, u.dim, to, to.dim)
	}
	if u.dim == Agnostic {
		return 1, nil
	}
	if u.currency != to.currency {
		return 0, errs.New(errs.DimensionalityMismatch, "cannot convert from '%s' to '%s': currency conversion is not supported", u, to)
	}
	return u.scale / to.scale, nil
}

// Quantity is a scalar magnitude tagged with a unit.
type Quantity struct {
	Magnitude float64
	Unit      Unit
}

// NewQuantity tags magnitude with the unit parsed from symbol.
func NewQuantity(magnitude float64, symbol string) (Quantity, error) {
	u, err := ParseUnit(symbol)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Magnitude: magnitude, Unit: u}, nil
}

// MustQuantity is like NewQuantity but panics on error.
func MustQuantity(magnitude float64, symbol string) Quantity {
	q, err := NewQuantity(magnitude, symbol)
	if err != nil {
		panic(err.Error())
	}
	return q
}

// Number returns an agnostic quantity.
func Number(magnitude float64) Quantity { return Quantity{Magnitude: magnitude} }

func (q Quantity) Dimension() Dimension { return q.Unit.dim }

// To converts q to unit u.
func (q Quantity) To(u Unit) (Quantity, error) {
	f, err := Factor(q.Unit, u)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Magnitude: q.Magnitude * f, Unit: u}, nil
}

// ToBase converts q to the canonical unit of its dimension.
func (q Quantity) ToBase() Quantity {
	if q.Unit.dim == Agnostic {
		return q
	}
	return Quantity{Magnitude: q.Magnitude * q.Unit.scale, Unit: q.Unit.Base()}
}

func (q Quantity) String() string {
	switch q.Unit.dim {
	case Agnostic, Dimensionless:
		return fmt.Sprintf("%g", q.Magnitude)
	case Revenue:
		if q.Unit.scale == 1 {
			return money.NewFromFloat(q.Magnitude, q.Unit.currency).Display()
		}
	}
	return fmt.Sprintf("%g %s", q.Magnitude, q.Unit)
}
