package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceTier is a named multiplier category applied to a product's base
// price (e.g. NEW 1.15, REGULAR 1.00, PREMIER 0.85). Exactly one tier
// is the default; customers reference tiers by code and never own them.
type PriceTier struct {
	ID           int64           `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Multiplier   decimal.Decimal `json:"multiplier"`
	IsDefault    bool            `json:"is_default"`
	DisplayOrder int             `json:"display_order"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Legacy price list codes resolved from flat per-product columns rather
// than a multiplier, kept for pre-tiering historical data.
var legacyTierNames = map[string]string{
	"A": "Legacy Price List A",
	"B": "Legacy Price List B",
	"C": "Legacy Price List C",
	"D": "Legacy Price List D",
}

// IsLegacyCode reports whether code names a legacy flat price list.
func IsLegacyCode(code string) bool {
	_, ok := legacyTierNames[code]
	return ok
}

// QuoteSource tells how a unit price was resolved.
type QuoteSource string

const (
	SourceTierMultiplier QuoteSource = "tier_multiplier"
	SourceLegacyFlat     QuoteSource = "legacy_flat"
)

// Quote is the result of a price lookup: the resolved unit price for a
// (product, tier) pair plus snapshot fields callers copy onto document
// lines so later master-data changes never alter history.
type Quote struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	TierCode    string          `json:"tier_code"`
	TierName    string          `json:"tier_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Source      QuoteSource     `json:"source"`
}
