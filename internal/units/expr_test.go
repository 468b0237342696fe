package units_test

import (
	"testing"

	"github.com/aretw0/liveparams/internal/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(values map[string]units.Quantity) units.Resolver {
	return func(name string) (units.Quantity, bool, error) {
		q, ok := values[name]
		return q, ok, nil
	}
}

func TestConvert(t *testing.T) {
	width := units.Quantity{Value: 0.02, Dim: units.Dimension{1}} // 20 mm
	count := units.Quantity{Value: 3, Bare: true}
	resolve := params(map[string]units.Quantity{"width": width, "count": count})

	cases := []struct {
		expr string
		unit string
		want float64
	}{
		{"25", "mm", 25},
		{"25 mm", "mm", 25},
		{"2.5cm", "mm", 25},
		{"1 in", "mm", 25.4},
		{"10 + 5mm", "mm", 15},
		{"width * 2", "mm", 40},
		{"width / count", "mm", 20.0 / 3},
		{"width + 1cm", "cm", 3},
		{"(width + 10) / 2", "mm", 15},
		{"90 deg", "rad", 1.5707963267948966},
		{"count * 2", "", 6},
		{"width / 1mm", "", 20},
		{"sqrt(width * width)", "mm", 20},
		{"max(width, 30)", "mm", 30},
		{"-width", "mm", -20},
		{"2 ^ 3", "", 8},
		{"1e1 mm", "mm", 10},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := units.Convert(tc.expr, tc.unit, resolve)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestConvert_Invalid(t *testing.T) {
	resolve := params(map[string]units.Quantity{
		"width": {Value: 0.02, Dim: units.Dimension{1}},
	})

	cases := []struct {
		expr string
		unit string
		err  error
	}{
		{"", "mm", units.ErrSyntax},
		{"10 +", "mm", units.ErrSyntax},
		{"(10", "mm", units.ErrSyntax},
		{"10 $", "mm", units.ErrSyntax},
		{"10 parsecs", "mm", units.ErrUnknownUnit},
		{"10", "furlong", units.ErrUnknownUnit},
		{"height", "mm", units.ErrUnknownName},
		{"10 deg", "mm", units.ErrIncompatible},
		{"width * width", "mm", units.ErrIncompatible},
		{"width + 10 deg", "mm", units.ErrIncompatible},
		{"width", "", units.ErrIncompatible},
		{"1 / 0", "", units.ErrSyntax},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			_, err := units.Convert(tc.expr, tc.unit, resolve)
			assert.ErrorIs(t, err, tc.err)
			assert.False(t, units.Valid(tc.expr, tc.unit, resolve))
		})
	}
}

func TestReferences(t *testing.T) {
	refs, err := units.References("width * 2 + sqrt(depth) + 3 mm + PI * width")
	require.NoError(t, err)
	assert.Equal(t, []string{"width", "depth"}, refs)
}

func TestRename(t *testing.T) {
	out, err := units.Rename("Width*2 + Width_2 + 4 mm + Width", "Width", "Height")
	require.NoError(t, err)
	assert.Equal(t, "Height*2 + Width_2 + 4 mm + Height", out)

	// Unit suffixes are never rewritten.
	out, err = units.Rename("10 mm + mm", "mm", "x")
	require.NoError(t, err)
	assert.Equal(t, "10 mm + x", out)
}

func TestLookup(t *testing.T) {
	u, ok := units.Lookup("in")
	require.True(t, ok)
	assert.InDelta(t, 0.0254, u.Factor, 1e-12)

	_, ok = units.Lookup("parsec")
	assert.False(t, ok)
	assert.Contains(t, units.Names(), "mm")
}

func TestConvert_ExponentRange(t *testing.T) {
	resolve := params(map[string]units.Quantity{
		"width": {Value: 0.02, Dim: units.Dimension{1}},
	})

	for _, expr := range []string{
		"((width ^ 8) ^ 8) ^ 8",
		"(width ^ 8) * (width ^ 8) * (width ^ 8) * (width ^ 8) * (width ^ 8)",
		"1 / ((width ^ -8) ^ 8)",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := units.Convert(expr, "mm", resolve)
			assert.ErrorIs(t, err, units.ErrExponentRange)
			assert.ErrorIs(t, err, units.ErrIncompatible)
		})
	}

	got, err := units.Convert("(width ^ 4) / (width ^ 3)", "mm", resolve)
	require.NoError(t, err)
	assert.InDelta(t, 20, got, 1e-9)
}
