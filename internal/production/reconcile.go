package production

import "github.com/shopspring/decimal"

// Reconciliation is the derived view of a job order line. Always
// computed from the raw fields at read time so the numbers cannot
// drift from their inputs after partial updates.
type Reconciliation struct {
	Shipped      decimal.Decimal `json:"shipped"`
	OrderBalance decimal.Decimal `json:"order_balance"`
	ToProduce    decimal.Decimal `json:"to_produce"`
	// OverShipped flags entries whose shipments exceed the ordered
	// quantity. A data-entry condition to surface, not to crash on.
	OverShipped bool `json:"over_shipped,omitempty"`
}

// Reconcile computes shipped, order balance and to-produce for one
// line. shipped is the sum of the eight slots; order balance is the
// ordered quantity minus shipped, clamped at zero; to-produce nets out
// the reserved and ready inventory snapshots.
func Reconcile(item JobOrderItem) Reconciliation {
	shipped := decimal.Zero
	for _, s := range item.Shipments {
		shipped = shipped.Add(s)
	}

	balance := item.Quantity.Sub(shipped)
	overShipped := balance.IsNegative()
	if overShipped {
		balance = decimal.Zero
	}

	return Reconciliation{
		Shipped:      shipped,
		OrderBalance: balance,
		ToProduce:    item.Quantity.Sub(item.Reserved).Sub(item.Ready),
		OverShipped:  overShipped,
	}
}

// ItemView pairs the raw line with its derived numbers for API
// responses.
type ItemView struct {
	JobOrderItem
	Reconciliation
}

// ViewItems reconciles every line of a job order.
func ViewItems(items []JobOrderItem) []ItemView {
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, ItemView{JobOrderItem: item, Reconciliation: Reconcile(item)})
	}
	return views
}
