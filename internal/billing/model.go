package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/numbering"
)

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

// Invoice is generated 1:1 from a confirmed sales order and inherits
// its number and revision. PaymentStatus is derived, never stored.
type Invoice struct {
	ID           int64           `json:"id"`
	Number       string          `json:"number"`
	Revision     int             `json:"revision"`
	SalesOrderID int64           `json:"sales_order_id"`
	CustomerCode string          `json:"customer_code"`
	Total        decimal.Decimal `json:"total"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// StatusAt derives the payment status as a pure function of paid
// amount versus total, with the due date deciding unpaid vs overdue.
func (i *Invoice) StatusAt(now time.Time) PaymentStatus {
	if i.PaidAmount.GreaterThanOrEqual(i.Total) && i.Total.IsPositive() {
		return PaymentPaid
	}
	if i.DueDate != nil && now.After(*i.DueDate) {
		return PaymentOverdue
	}
	if i.PaidAmount.IsPositive() {
		return PaymentPartial
	}
	return PaymentUnpaid
}

// Balance is the amount still owed, clamped at zero for overpayments.
func (i *Invoice) Balance() decimal.Decimal {
	b := i.Total.Sub(i.PaidAmount)
	if b.IsNegative() {
		return decimal.Zero
	}
	return b
}

func (i *Invoice) DocumentNumber() numbering.DocumentNumber {
	return numbering.DocumentNumber{Number: i.Number, Revision: i.Revision}
}

func (i *Invoice) Reference() string {
	return i.DocumentNumber().String()
}
