package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// WarehouseReserved is the logical bucket holding stock earmarked for
// confirmed sales orders.
const WarehouseReserved = "RESERVED"

// ReferenceTypeSalesOrder tags reservations deposited on order
// confirmation.
const ReferenceTypeSalesOrder = "sales_order"

// Reservation is one ledger entry earmarking stock for a document.
// Entries are never edited; a release stamps ReleasedAt and the entry
// stops counting toward the reserved balance.
type Reservation struct {
	ID              int64           `json:"id"`
	TransactionCode string          `json:"transaction_code"`
	ProductID       int64           `json:"product_id"`
	Warehouse       string          `json:"warehouse"`
	Quantity        decimal.Decimal `json:"quantity"`
	ReferenceType   string          `json:"reference_type"`
	ReferenceID     int64           `json:"reference_id"`
	CreatedAt       time.Time       `json:"created_at"`
	ReleasedAt      *time.Time      `json:"released_at,omitempty"`
}

// Active reports whether the entry still counts toward the reserved
// balance.
func (r Reservation) Active() bool { return r.ReleasedAt == nil }

// TotalReserved sums the quantities of the active entries.
func TotalReserved(entries []Reservation) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Active() {
			total = total.Add(e.Quantity)
		}
	}
	return total
}
