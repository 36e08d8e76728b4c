package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/sales/orders"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// OrderSource reads the confirmed sales order an invoice bills.
type OrderSource interface {
	Get(ctx context.Context, id int64) (*orders.SalesOrder, error)
	MarkPaid(ctx context.Context, orderID int64) error
}

// defaultDueDays is the payment term applied when none is configured.
const defaultDueDays = 30

type Service struct {
	logger  *slog.Logger
	repo    Repository
	orders  OrderSource
	clock   shared.Clock
	dueDays int
}

func NewService(logger *slog.Logger, repo Repository, orderSource OrderSource, clock shared.Clock, dueDays int) *Service {
	if dueDays <= 0 {
		dueDays = defaultDueDays
	}
	return &Service{logger: logger, repo: repo, orders: orderSource, clock: clock, dueDays: dueDays}
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Invoice, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Generate creates the invoice for a confirmed sales order, inheriting
// number and revision and billing the order total. The due date is set
// from the configured payment term. Idempotent per order: a second
// call returns the existing invoice.
func (s *Service) Generate(ctx context.Context, orderID int64) (*Invoice, error) {
	existing, err := s.repo.GetBySourceOrder(ctx, orderID)
	if err == nil {
		return existing, nil
	}
	if !shared.IsKind(err, shared.KindNotFound) {
		return nil, err
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsConfirmed {
		return nil, shared.NewError(shared.KindInvalidState,
			"sales order %s is not confirmed; confirm before generating an invoice", order.Reference())
	}

	due := s.clock.Now().AddDate(0, 0, s.dueDays)
	inv := &Invoice{
		Number:       order.Number,
		Revision:     order.Revision,
		SalesOrderID: order.ID,
		CustomerCode: order.CustomerCode,
		Total:        order.Total,
		PaidAmount:   decimal.Zero,
		DueDate:      &due,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Insert(ctx, inv)
	})
	if err != nil {
		if winner, getErr := s.repo.GetBySourceOrder(ctx, orderID); getErr == nil {
			return winner, nil
		}
		return nil, fmt.Errorf("insert invoice for sales order %d: %w", orderID, err)
	}
	s.logger.Info("invoice generated",
		slog.String("number", inv.Reference()),
		slog.Int64("order_id", orderID),
		slog.String("total", inv.Total.String()))
	return inv, nil
}

// RecordPayment accumulates a payment. When the invoice reaches its
// total the source sales order is marked paid.
func (s *Service) RecordPayment(ctx context.Context, invoiceID int64, amount decimal.Decimal) (*Invoice, error) {
	if !amount.IsPositive() {
		return nil, shared.NewError(shared.KindValidation, "payment amount must be greater than zero")
	}
	inv, err := s.repo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.StatusAt(s.clock.Now()) == PaymentPaid {
		return nil, shared.NewError(shared.KindInvalidState, "invoice %s is already fully paid", inv.Reference())
	}

	if err := s.repo.AddPayment(ctx, invoiceID, amount); err != nil {
		return nil, fmt.Errorf("record payment on invoice %d: %w", invoiceID, err)
	}
	inv, err = s.repo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if inv.StatusAt(s.clock.Now()) == PaymentPaid {
		if err := s.orders.MarkPaid(ctx, inv.SalesOrderID); err != nil {
			// The order may already be cancelled or paid through another
			// path; the payment itself stands.
			s.logger.Warn("could not mark sales order paid",
				slog.Int64("order_id", inv.SalesOrderID),
				slog.Any("error", err))
		}
	}
	s.logger.Info("payment recorded",
		slog.String("number", inv.Reference()),
		slog.String("amount", amount.String()),
		slog.String("paid_amount", inv.PaidAmount.String()))
	return inv, nil
}
