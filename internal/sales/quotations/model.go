package quotations

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
	StatusConverted Status = "converted"
)

// statusTransitions is the single authoritative transition table.
// Terminal states have no outgoing edges.
var statusTransitions = map[Status][]Status{
	StatusDraft:   {StatusPending},
	StatusPending: {StatusApproved, StatusRejected, StatusExpired},
	// Approved quotations leave the table only through conversion, which
	// the orders module performs inside its own transaction.
	StatusApproved: {StatusConverted},
}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusExpired, StatusConverted:
		return true
	}
	return false
}

// CanTransition reports whether s -> next is a legal edge.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the quotation can change no further.
func (s Status) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

type Quotation struct {
	ID           int64                   `json:"id"`
	Number       string                  `json:"number"`
	Revision     int                     `json:"revision"`
	Status       Status                  `json:"status"`
	CustomerCode string                  `json:"customer_code"`
	TierCode     string                  `json:"tier_code"`
	Items        []QuotationItem         `json:"items"`
	Subtotal     decimal.Decimal         `json:"subtotal"`
	ShippingFee  decimal.Decimal         `json:"shipping_fee"`
	BankCharge   decimal.Decimal         `json:"bank_charge"`
	Discount     decimal.Decimal         `json:"discount"`
	Others       decimal.Decimal         `json:"others"`
	Total        decimal.Decimal         `json:"total"`
	ValidUntil   *time.Time              `json:"valid_until,omitempty"`
	Notes        *string                 `json:"notes,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// QuotationItem snapshots product name and unit price at quotation
// time. Later product or tier changes never alter historical lines.
type QuotationItem struct {
	ID          int64           `json:"id"`
	QuotationID int64           `json:"quotation_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// DocumentNumber returns the number+revision pair for external
// rendering.
func (q *Quotation) DocumentNumber() numbering.DocumentNumber {
	return numbering.DocumentNumber{Number: q.Number, Revision: q.Revision}
}

// Reference is the external document reference, e.g. "2026.08.014 R2".
func (q *Quotation) Reference() string {
	return q.DocumentNumber().String()
}

// ComputeTotals recalculates subtotal and total from the raw inputs.
// total = subtotal + shipping + bank charge - discount + others.
func (q *Quotation) ComputeTotals() {
	subtotal := decimal.Zero
	for i := range q.Items {
		q.Items[i].LineTotal = q.Items[i].Quantity.Mul(q.Items[i].UnitPrice).Round(2)
		subtotal = subtotal.Add(q.Items[i].LineTotal)
	}
	q.Subtotal = subtotal
	q.Total = subtotal.Add(q.ShippingFee).Add(q.BankCharge).Sub(q.Discount).Add(q.Others)
}

// CheckTotals verifies the totals invariant before any write.
func (q *Quotation) CheckTotals() error {
	subtotal := decimal.Zero
	for _, item := range q.Items {
		if !item.LineTotal.Equal(item.Quantity.Mul(item.UnitPrice).Round(2)) {
			return shared.NewError(shared.KindDataIntegrity,
				"line total for product %d does not match quantity x unit price", item.ProductID)
		}
		subtotal = subtotal.Add(item.LineTotal)
	}
	if !q.Subtotal.Equal(subtotal) {
		return shared.NewError(shared.KindDataIntegrity, "subtotal does not match sum of line totals")
	}
	want := subtotal.Add(q.ShippingFee).Add(q.BankCharge).Sub(q.Discount).Add(q.Others)
	if !q.Total.Equal(want) {
		return shared.NewError(shared.KindDataIntegrity,
			"total %s does not satisfy subtotal+shipping+bank-discount+others = %s", q.Total, want)
	}
	return nil
}
