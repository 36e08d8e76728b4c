package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service issues document numbers in the "YYYY.MM.###" scheme, one
// sequence per document type per calendar month. Downstream documents
// (sales order, job order, invoice) inherit their source document's
// number verbatim and never call Next.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Next issues the next number for docType in date's month, revision R1.
func (s *Service) Next(ctx context.Context, docType DocumentType, date time.Time) (DocumentNumber, error) {
	if !docType.Valid() {
		return DocumentNumber{}, shared.NewError(shared.KindValidation, "unknown document type %q", docType)
	}
	period := date.Format("2006.01")
	seq, err := s.repo.NextSequence(ctx, docType, period)
	if err != nil {
		return DocumentNumber{}, fmt.Errorf("numbering: next sequence for %s %s: %w", docType, period, err)
	}
	if seq <= 0 {
		return DocumentNumber{}, shared.NewError(shared.KindDataIntegrity, "sequence for %s %s returned %d", docType, period, seq)
	}
	return DocumentNumber{
		Number:   fmt.Sprintf("%s.%03d", period, seq),
		Revision: 1,
	}, nil
}
