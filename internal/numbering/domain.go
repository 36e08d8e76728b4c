package numbering

import "fmt"

// DocumentType scopes a number sequence. Each type advances its own
// counter per calendar month.
type DocumentType string

const (
	DocTypeQuotation  DocumentType = "quotation"
	DocTypeSalesOrder DocumentType = "sales_order"
	DocTypeJobOrder   DocumentType = "job_order"
	DocTypeInvoice    DocumentType = "invoice"
)

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	switch t {
	case DocTypeQuotation, DocTypeSalesOrder, DocTypeJobOrder, DocTypeInvoice:
		return true
	}
	return false
}

// DocumentNumber is the number+revision pair stamped on a document.
// Number is the stable "YYYY.MM.###" identity; Revision starts at 1 and
// increments on in-place revisions without consuming a new sequence.
type DocumentNumber struct {
	Number   string `json:"number"`
	Revision int    `json:"revision"`
}

// RevisionLabel renders the revision as "R1", "R2", ...
func (n DocumentNumber) RevisionLabel() string {
	return fmt.Sprintf("R%d", n.Revision)
}

// String renders the external document reference. Consumers (PDF
// renderers, reports) parse this literally: the bare number for R1,
// with a " R{n}" suffix from the second revision on.
func (n DocumentNumber) String() string {
	if n.Revision >= 2 {
		return fmt.Sprintf("%s R%d", n.Number, n.Revision)
	}
	return n.Number
}

// Revised returns the same number with the revision incremented.
func (n DocumentNumber) Revised() DocumentNumber {
	return DocumentNumber{Number: n.Number, Revision: n.Revision + 1}
}
