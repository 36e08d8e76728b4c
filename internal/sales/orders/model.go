package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/numbering"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusPaid      Status = "paid"
)

var statusTransitions = map[Status][]Status{
	StatusDraft:     {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPaid, StatusCancelled},
}

func (s Status) CanTransition(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SalesOrder carries the same number and revision series as its source
// quotation so paper trails stay aligned across documents. Items are a
// point-in-time copy, not a shared reference.
type SalesOrder struct {
	ID                int64            `json:"id"`
	Number            string           `json:"number"`
	Revision          int              `json:"revision"`
	Status            Status           `json:"status"`
	IsConfirmed       bool             `json:"is_confirmed"`
	ConfirmedAt       *time.Time       `json:"confirmed_at,omitempty"`
	ConfirmedBy       *string          `json:"confirmed_by,omitempty"`
	CustomerCode      string           `json:"customer_code"`
	TierCode          string           `json:"tier_code"`
	SourceQuotationID int64            `json:"source_quotation_id"`
	Items             []SalesOrderItem `json:"items"`
	Subtotal          decimal.Decimal  `json:"subtotal"`
	ShippingFee       decimal.Decimal  `json:"shipping_fee"`
	BankCharge        decimal.Decimal  `json:"bank_charge"`
	Discount          decimal.Decimal  `json:"discount"`
	Others            decimal.Decimal  `json:"others"`
	Total             decimal.Decimal  `json:"total"`
	Notes             *string          `json:"notes,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

type SalesOrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

func (o *SalesOrder) DocumentNumber() numbering.DocumentNumber {
	return numbering.DocumentNumber{Number: o.Number, Revision: o.Revision}
}

func (o *SalesOrder) Reference() string {
	return o.DocumentNumber().String()
}
