package pricing

import "github.com/shopspring/decimal"

// Compute derives a tier price from the base price: base × multiplier
// rounded half-up to 2 decimal places (currency granularity). A
// multiplier of exactly 1 short-circuits so the base price is
// reproduced byte-for-byte with no rounding drift.
func Compute(basePrice, multiplier decimal.Decimal) decimal.Decimal {
	if multiplier.Equal(decimal.New(1, 0)) {
		return basePrice
	}
	return basePrice.Mul(multiplier).Round(2)
}
