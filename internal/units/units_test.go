package units_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfline/internal/errs"
	"pfline/internal/units"
)

func TestParseUnit(t *testing.T) {
	cases := []struct {
		symbol   string
		dim      units.Dimension
		toBase   float64
		currency string
	}{
		{"kW", units.Power, 1e-3, ""},
		{"GW", units.Power, 1e3, ""},
		{"GWh", units.Energy, 1e3, ""},
		{"EUR/MWh", units.Price, 1, "EUR"},
		{"Eur/kWh", units.Price, 1e3, "EUR"},
		{"ct/kWh", units.Price, 10, "EUR"},
		{"USD/MWh", units.Price, 1, "USD"},
		{"EUR", units.Revenue, 1, "EUR"},
		{"kEUR", units.Revenue, 1e3, "EUR"},
		{"MEUR", units.Revenue, 1e6, "EUR"},
		{"", units.Dimensionless, 1, ""},
	}
	for _, tc := range cases {
		t.Run(tc.symbol, func(t *testing.T) {
			u, err := units.ParseUnit(tc.symbol)
			require.NoError(t, err)
			assert.Equal(t, tc.dim, u.Dimension())
			assert.Equal(t, tc.currency, u.Currency())

			f, err := units.Factor(u, u.Base())
			require.NoError(t, err)
			assert.InDelta(t, tc.toBase, f, 1e-12)
		})
	}
}

func TestParseUnit_Unsupported(t *testing.T) {
	for _, s := range []string{"m", "kg/MWh", "XYZ", "EUR/kW"} {
		_, err := units.ParseUnit(s)
		require.Error(t, err, s)
		assert.True(t, errs.Is(err, errs.UnsupportedDimension), s)
		assert.Contains(t, err.Error(), "cannot handle data with this unit")
	}
}

func TestFactor(t *testing.T) {
	f, err := units.Factor(units.MustParseUnit("kW"), units.MustParseUnit("MW"))
	require.NoError(t, err)
	assert.InDelta(t, 1e-3, f, 1e-15)

	_, err = units.Factor(units.MustParseUnit("MW"), units.MustParseUnit("MWh"))
	assert.True(t, errs.Is(err, errs.DimensionalityMismatch))

	_, err = units.Factor(units.MustParseUnit("EUR/MWh"), units.MustParseUnit("USD/MWh"))
	assert.True(t, errs.Is(err, errs.DimensionalityMismatch))

	f, err = units.Factor(units.None, units.None)
	require.NoError(t, err)
	assert.Equal(t, 1.0, f)
}

func TestQuantity(t *testing.T) {
	q := units.MustQuantity(2500, "kW")
	base := q.ToBase()
	assert.InDelta(t, 2.5, base.Magnitude, 1e-12)
	assert.True(t, base.Unit.Equal(units.Canonical(units.Power)))

	gw, err := q.To(units.MustParseUnit("GW"))
	require.NoError(t, err)
	assert.InDelta(t, 0.0025, gw.Magnitude, 1e-15)

	_, err = q.To(units.MustParseUnit("MWh"))
	assert.True(t, errs.Is(err, errs.DimensionalityMismatch))

	n := units.Number(7)
	assert.Equal(t, units.Agnostic, n.Dimension())
	assert.Equal(t, 7.0, n.ToBase().Magnitude)
	assert.Equal(t, "7", n.String())

	assert.Equal(t, "12 MWh", units.MustQuantity(12, "MWh").String())
	assert.Contains(t, units.MustQuantity(10, "EUR").String(), "€")
}

func TestParseAttr(t *testing.T) {
	d, ok := units.ParseAttr("q")
	assert.True(t, ok)
	assert.Equal(t, units.Energy, d)

	d, ok = units.ParseAttr("price")
	assert.True(t, ok)
	assert.Equal(t, units.Price, d)

	_, ok = units.ParseAttr("volume")
	assert.False(t, ok)

	assert.Equal(t, "w, q, p, r, nodim, agn", units.AttrList())
}
