package production

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/numbering"
)

// ShipmentSlots is the fixed number of partial-shipment entries a job
// order line can carry.
const ShipmentSlots = 8

type Status string

const (
	StatusCreated      Status = "created"
	StatusInProduction Status = "in_production"
	StatusCompleted    Status = "completed"
)

var statusTransitions = map[Status][]Status{
	StatusCreated:      {StatusInProduction},
	StatusInProduction: {StatusCompleted},
}

func (s Status) CanTransition(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// JobOrder is generated 1:1 from a confirmed sales order and inherits
// its number and revision.
type JobOrder struct {
	ID                 int64          `json:"id"`
	Number             string         `json:"number"`
	Revision           int            `json:"revision"`
	Status             Status         `json:"status"`
	SourceSalesOrderID int64          `json:"source_sales_order_id"`
	CustomerCode       string         `json:"customer_code"`
	Items              []JobOrderItem `json:"items"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// JobOrderItem stores only raw inputs: the ordered quantity, the eight
// shipment slots, and the reserved/ready inventory snapshots. Shipped,
// order balance and to-produce are recomputed on every read and never
// persisted.
type JobOrderItem struct {
	ID          int64                          `json:"id"`
	JobOrderID  int64                          `json:"job_order_id"`
	ProductID   int64                          `json:"product_id"`
	ProductName string                         `json:"product_name"`
	Quantity    decimal.Decimal                `json:"quantity"`
	Shipments   [ShipmentSlots]decimal.Decimal `json:"shipments"`
	Reserved    decimal.Decimal                `json:"reserved"`
	Ready       decimal.Decimal                `json:"ready"`
}

func (j *JobOrder) DocumentNumber() numbering.DocumentNumber {
	return numbering.DocumentNumber{Number: j.Number, Revision: j.Revision}
}

func (j *JobOrder) Reference() string {
	return j.DocumentNumber().String()
}
