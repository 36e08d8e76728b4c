package quotations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/pricing"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// NumberIssuer issues fresh document numbers. Only new quotations and
// duplicates draw a number; everything downstream inherits.
type NumberIssuer interface {
	Next(ctx context.Context, docType numbering.DocumentType, date time.Time) (numbering.DocumentNumber, error)
}

// PriceQuoter resolves a snapshot unit price for a quotation line.
type PriceQuoter interface {
	LookupForCustomer(ctx context.Context, productID int64, customerCode string) (pricing.Quote, error)
}

// LineCommand is one requested quotation line. Price and product name
// are resolved server-side, never taken from the caller.
type LineCommand struct {
	ProductID int64
	Quantity  decimal.Decimal
}

type CreateQuotationCommand struct {
	CustomerCode string
	Lines        []LineCommand
	ShippingFee  decimal.Decimal
	BankCharge   decimal.Decimal
	Discount     decimal.Decimal
	Others       decimal.Decimal
	ValidUntil   *time.Time
	Notes        *string
	Submit       bool
}

type ReviseQuotationCommand struct {
	Lines       []LineCommand
	ShippingFee decimal.Decimal
	BankCharge  decimal.Decimal
	Discount    decimal.Decimal
	Others      decimal.Decimal
	ValidUntil  *time.Time
	Notes       *string
}

type Service struct {
	logger  *slog.Logger
	repo    Repository
	numbers NumberIssuer
	pricer  PriceQuoter
	lock    LockPolicy
	clock   shared.Clock
}

func NewService(logger *slog.Logger, repo Repository, numbers NumberIssuer, pricer PriceQuoter, clock shared.Clock) *Service {
	return &Service{
		logger:  logger,
		repo:    repo,
		numbers: numbers,
		pricer:  pricer,
		lock:    NewLockPolicy(clock),
		clock:   clock,
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Quotation, int, error) {
	return s.repo.List(ctx, filters)
}

// Create builds a quotation with server-resolved price snapshots and a
// fresh document number.
func (s *Service) Create(ctx context.Context, cmd CreateQuotationCommand) (*Quotation, error) {
	if cmd.CustomerCode == "" {
		return nil, shared.NewError(shared.KindValidation, "customer code required")
	}
	items, tierCode, err := s.buildItems(ctx, cmd.CustomerCode, cmd.Lines)
	if err != nil {
		return nil, err
	}

	docNo, err := s.numbers.Next(ctx, numbering.DocTypeQuotation, s.clock.Now())
	if err != nil {
		return nil, err
	}

	q := &Quotation{
		Number:       docNo.Number,
		Revision:     docNo.Revision,
		Status:       StatusDraft,
		CustomerCode: cmd.CustomerCode,
		TierCode:     tierCode,
		Items:        items,
		ShippingFee:  cmd.ShippingFee,
		BankCharge:   cmd.BankCharge,
		Discount:     cmd.Discount,
		Others:       cmd.Others,
		ValidUntil:   cmd.ValidUntil,
		Notes:        cmd.Notes,
	}
	if cmd.Submit {
		q.Status = StatusPending
	}
	q.ComputeTotals()
	if err := q.CheckTotals(); err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Insert(ctx, q)
	})
	if err != nil {
		return nil, fmt.Errorf("insert quotation: %w", err)
	}
	s.logger.Info("quotation created",
		slog.String("number", q.Reference()),
		slog.String("customer", q.CustomerCode),
		slog.String("total", q.Total.String()))
	return q, nil
}

// Revise updates a quotation in place, bumping the revision while
// keeping the number. Prices are re-snapshotted at revision time.
func (s *Service) Revise(ctx context.Context, id int64, cmd ReviseQuotationCommand) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := s.lock.CanRevise(q); !d.Allowed {
		return nil, shared.NewError(shared.KindRevisionNotAllowed, "%s", d.Reason)
	}

	items, tierCode, err := s.buildItems(ctx, q.CustomerCode, cmd.Lines)
	if err != nil {
		return nil, err
	}

	q.Revision++
	q.TierCode = tierCode
	q.Items = items
	q.ShippingFee = cmd.ShippingFee
	q.BankCharge = cmd.BankCharge
	q.Discount = cmd.Discount
	q.Others = cmd.Others
	q.ValidUntil = cmd.ValidUntil
	q.Notes = cmd.Notes
	q.ComputeTotals()
	if err := q.CheckTotals(); err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.UpdateContent(ctx, q)
	})
	if err != nil {
		return nil, fmt.Errorf("update quotation %d: %w", id, err)
	}
	s.logger.Info("quotation revised", slog.String("number", q.Reference()))
	return q, nil
}

// Duplicate copies a quotation into a brand-new document: new number,
// revision reset to R1, status pending, converted linkage cleared.
// Item snapshots are carried over untouched.
func (s *Service) Duplicate(ctx context.Context, id int64) (*Quotation, error) {
	src, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	docNo, err := s.numbers.Next(ctx, numbering.DocTypeQuotation, s.clock.Now())
	if err != nil {
		return nil, err
	}

	dup := &Quotation{
		Number:       docNo.Number,
		Revision:     docNo.Revision,
		Status:       StatusPending,
		CustomerCode: src.CustomerCode,
		TierCode:     src.TierCode,
		ShippingFee:  src.ShippingFee,
		BankCharge:   src.BankCharge,
		Discount:     src.Discount,
		Others:       src.Others,
		ValidUntil:   src.ValidUntil,
		Notes:        src.Notes,
	}
	for _, item := range src.Items {
		dup.Items = append(dup.Items, QuotationItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}
	dup.ComputeTotals()
	if err := dup.CheckTotals(); err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Insert(ctx, dup)
	})
	if err != nil {
		return nil, fmt.Errorf("insert duplicate of quotation %d: %w", id, err)
	}
	s.logger.Info("quotation duplicated",
		slog.String("source", src.Reference()),
		slog.String("number", dup.Reference()))
	return dup, nil
}

// Submit moves a draft to pending.
func (s *Service) Submit(ctx context.Context, id int64) error {
	return s.transition(ctx, id, StatusPending)
}

// Approve moves a pending quotation to approved, after which the lock
// policy forbids revision.
func (s *Service) Approve(ctx context.Context, id int64) error {
	return s.transition(ctx, id, StatusApproved)
}

// Reject terminally rejects a pending quotation.
func (s *Service) Reject(ctx context.Context, id int64) error {
	return s.transition(ctx, id, StatusRejected)
}

// ExpireOverdue flips pending quotations past their validity date to
// expired. Called from the scheduler.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	ids, err := s.repo.ListExpirable(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("list expirable quotations: %w", err)
	}
	expired := 0
	for _, id := range ids {
		if err := s.repo.UpdateStatus(ctx, id, StatusPending, StatusExpired); err != nil {
			// Raced with an approval or rejection; skip.
			if shared.IsKind(err, shared.KindInvalidState) {
				continue
			}
			return expired, err
		}
		expired++
	}
	if expired > 0 {
		s.logger.Info("quotations expired", slog.Int("count", expired))
	}
	return expired, nil
}

func (s *Service) transition(ctx context.Context, id int64, to Status) error {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !q.Status.CanTransition(to) {
		return shared.NewError(shared.KindInvalidState,
			"quotation %s is %s and cannot become %s", q.Reference(), q.Status, to)
	}
	return s.repo.UpdateStatus(ctx, id, q.Status, to)
}

func (s *Service) buildItems(ctx context.Context, customerCode string, lines []LineCommand) ([]QuotationItem, string, error) {
	if len(lines) == 0 {
		return nil, "", shared.NewError(shared.KindValidation, "quotation needs at least one line")
	}
	var items []QuotationItem
	tierCode := ""
	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			return nil, "", shared.NewError(shared.KindValidation, "quantity for product %d must be greater than zero", line.ProductID)
		}
		quote, err := s.pricer.LookupForCustomer(ctx, line.ProductID, customerCode)
		if err != nil {
			return nil, "", err
		}
		tierCode = quote.TierCode
		items = append(items, QuotationItem{
			ProductID:   quote.ProductID,
			ProductName: quote.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   quote.UnitPrice,
			LineTotal:   line.Quantity.Mul(quote.UnitPrice).Round(2),
		})
	}
	return items, tierCode, nil
}
