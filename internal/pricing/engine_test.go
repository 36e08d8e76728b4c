package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeTierPrices(t *testing.T) {
	cases := []struct {
		name       string
		base       string
		multiplier string
		want       string
	}{
		{"new customer markup", "47.00", "1.1500", "54.05"},
		{"premier discount", "47.00", "0.8500", "39.95"},
		{"round half up", "10.01", "1.0050", "10.06"},
		{"small base", "0.10", "0.8500", "0.09"},
		{"large base", "12345.67", "1.1500", "14197.52"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(dec(tc.base), dec(tc.multiplier))
			require.True(t, got.Equal(dec(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestComputeUnitMultiplierReproducesBaseExactly(t *testing.T) {
	base := dec("47.00")
	got := Compute(base, dec("1.0000"))
	// Byte-for-byte: identical string rendering, not just numeric equality.
	require.Equal(t, base.String(), got.String())

	base = dec("1999.99")
	require.Equal(t, base.String(), Compute(base, dec("1.0000")).String())
}

func TestComputeRoundsToTwoDecimals(t *testing.T) {
	got := Compute(dec("33.33"), dec("1.1500"))
	require.Equal(t, int32(-2), got.Exponent())
	require.True(t, got.Equal(dec("38.33")), "got %s", got)
}
