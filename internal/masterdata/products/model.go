package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable manufactured item. BasePrice is the Regular-tier
// anchor; every multiplier tier derives from it at lookup time, never
// stored per tier. The four legacy flat columns hold pre-tiering price
// list values kept for backward compatibility with historical data.
type Product struct {
	ID         int64            `json:"id"`
	Code       string           `json:"code"`
	Name       string           `json:"name"`
	Unit       string           `json:"unit"`
	BasePrice  decimal.Decimal  `json:"base_price"`
	PriceListA *decimal.Decimal `json:"price_list_a,omitempty"`
	PriceListB *decimal.Decimal `json:"price_list_b,omitempty"`
	PriceListC *decimal.Decimal `json:"price_list_c,omitempty"`
	PriceListD *decimal.Decimal `json:"price_list_d,omitempty"`
	IsActive   bool             `json:"is_active"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// LegacyPrice returns the flat price stored under a legacy price list
// code (A-D). The second return is false when the code is not a legacy
// code or the product has no value in that column.
func (p Product) LegacyPrice(code string) (decimal.Decimal, bool) {
	var col *decimal.Decimal
	switch code {
	case "A":
		col = p.PriceListA
	case "B":
		col = p.PriceListB
	case "C":
		col = p.PriceListC
	case "D":
		col = p.PriceListD
	default:
		return decimal.Decimal{}, false
	}
	if col == nil {
		return decimal.Decimal{}, false
	}
	return *col, true
}
