package quotations

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Money and quantity fields travel as decimal strings.
type LinePayload struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  string `json:"quantity" validate:"required"`
}

type CreateQuotationRequest struct {
	CustomerCode string        `json:"customer_code" validate:"required"`
	Lines        []LinePayload `json:"lines" validate:"required,min=1,dive"`
	ShippingFee  string        `json:"shipping_fee,omitempty"`
	BankCharge   string        `json:"bank_charge,omitempty"`
	Discount     string        `json:"discount,omitempty"`
	Others       string        `json:"others,omitempty"`
	ValidUntil   *time.Time    `json:"valid_until,omitempty"`
	Notes        *string       `json:"notes,omitempty"`
	Submit       bool          `json:"submit,omitempty"`
}

type ReviseQuotationRequest struct {
	Lines       []LinePayload `json:"lines" validate:"required,min=1,dive"`
	ShippingFee string        `json:"shipping_fee,omitempty"`
	BankCharge  string        `json:"bank_charge,omitempty"`
	Discount    string        `json:"discount,omitempty"`
	Others      string        `json:"others,omitempty"`
	ValidUntil  *time.Time    `json:"valid_until,omitempty"`
	Notes       *string       `json:"notes,omitempty"`
}

type ListQuotationsResponse struct {
	Quotations []Quotation `json:"quotations"`
	Total      int         `json:"total"`
}

func (r CreateQuotationRequest) toCommand() (CreateQuotationCommand, error) {
	lines, err := parseLines(r.Lines)
	if err != nil {
		return CreateQuotationCommand{}, err
	}
	charges, err := parseCharges(r.ShippingFee, r.BankCharge, r.Discount, r.Others)
	if err != nil {
		return CreateQuotationCommand{}, err
	}
	return CreateQuotationCommand{
		CustomerCode: r.CustomerCode,
		Lines:        lines,
		ShippingFee:  charges[0],
		BankCharge:   charges[1],
		Discount:     charges[2],
		Others:       charges[3],
		ValidUntil:   r.ValidUntil,
		Notes:        r.Notes,
		Submit:       r.Submit,
	}, nil
}

func (r ReviseQuotationRequest) toCommand() (ReviseQuotationCommand, error) {
	lines, err := parseLines(r.Lines)
	if err != nil {
		return ReviseQuotationCommand{}, err
	}
	charges, err := parseCharges(r.ShippingFee, r.BankCharge, r.Discount, r.Others)
	if err != nil {
		return ReviseQuotationCommand{}, err
	}
	return ReviseQuotationCommand{
		Lines:       lines,
		ShippingFee: charges[0],
		BankCharge:  charges[1],
		Discount:    charges[2],
		Others:      charges[3],
		ValidUntil:  r.ValidUntil,
		Notes:       r.Notes,
	}, nil
}

func parseLines(payloads []LinePayload) ([]LineCommand, error) {
	var lines []LineCommand
	for _, p := range payloads {
		qty, err := decimal.NewFromString(p.Quantity)
		if err != nil {
			return nil, shared.NewError(shared.KindValidation, "quantity for product %d is not a valid decimal", p.ProductID)
		}
		lines = append(lines, LineCommand{ProductID: p.ProductID, Quantity: qty})
	}
	return lines, nil
}

func parseCharges(raw ...string) ([]decimal.Decimal, error) {
	names := []string{"shipping_fee", "bank_charge", "discount", "others"}
	out := make([]decimal.Decimal, len(raw))
	for i, v := range raw {
		if v == "" {
			out[i] = decimal.Zero
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, shared.NewError(shared.KindValidation, "%s is not a valid decimal", names[i])
		}
		if d.IsNegative() {
			return nil, shared.NewError(shared.KindValidation, "%s must not be negative", names[i])
		}
		out[i] = d
	}
	return out, nil
}
