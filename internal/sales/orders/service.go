package orders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/sales/quotations"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// QuotationSource reads the quotation being converted.
type QuotationSource interface {
	Get(ctx context.Context, id int64) (*quotations.Quotation, error)
}

// Service drives the quotation to sales order transition and the
// one-shot confirmation that reserves inventory. Every state change
// runs in a single transaction; a failed transition leaves the prior
// state intact.
type Service struct {
	logger     *slog.Logger
	repo       Repository
	quotations QuotationSource
	clock      shared.Clock
}

func NewService(logger *slog.Logger, repo Repository, quotations QuotationSource, clock shared.Clock) *Service {
	return &Service{logger: logger, repo: repo, quotations: quotations, clock: clock}
}

func (s *Service) Get(ctx context.Context, id int64) (*SalesOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]SalesOrder, int, error) {
	return s.repo.List(ctx, filters)
}

// ConvertFromQuotation turns an approved quotation into a draft sales
// order. The order inherits the quotation's number and revision
// verbatim and snapshots its items and totals. Marking the quotation
// converted and inserting the order commit or roll back together.
func (s *Service) ConvertFromQuotation(ctx context.Context, quotationID int64) (*SalesOrder, error) {
	q, err := s.quotations.Get(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if q.Status != quotations.StatusApproved {
		return nil, shared.NewError(shared.KindInvalidState,
			"quotation %s is %s; only approved quotations convert", q.Reference(), q.Status)
	}

	order := &SalesOrder{
		Number:            q.Number,
		Revision:          q.Revision,
		Status:            StatusDraft,
		CustomerCode:      q.CustomerCode,
		TierCode:          q.TierCode,
		SourceQuotationID: q.ID,
		ShippingFee:       q.ShippingFee,
		BankCharge:        q.BankCharge,
		Discount:          q.Discount,
		Others:            q.Others,
		Subtotal:          q.Subtotal,
		Total:             q.Total,
		Notes:             q.Notes,
	}
	for _, item := range q.Items {
		order.Items = append(order.Items, SalesOrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.MarkQuotationConverted(ctx, q.ID); err != nil {
			return err
		}
		return repo.Insert(ctx, order)
	})
	if err != nil {
		if shared.KindOf(err) != "" {
			return nil, err
		}
		return nil, fmt.Errorf("convert quotation %d: %w", quotationID, err)
	}
	s.logger.Info("quotation converted to sales order",
		slog.String("number", order.Reference()),
		slog.Int64("quotation_id", q.ID),
		slog.Int64("order_id", order.ID))
	return order, nil
}

// Confirm flips the one-shot confirmation flag and deposits one
// reservation per line into the reserved warehouse, tagged with the
// order ID. Flag flip and deposits succeed or fail together: no
// confirmed order without reserved stock, no reservation without a
// confirmed order.
func (s *Service) Confirm(ctx context.Context, orderID int64, confirmedBy string) (*SalesOrder, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsConfirmed {
		return nil, shared.NewError(shared.KindAlreadyConfirmed, "sales order %s is already confirmed", order.Reference())
	}
	if order.Status != StatusDraft {
		return nil, shared.NewError(shared.KindInvalidState, "sales order %s is %s", order.Reference(), order.Status)
	}

	now := s.clock.Now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Confirm(ctx, orderID, confirmedBy, now); err != nil {
			return err
		}
		for _, item := range order.Items {
			_, err := repo.DepositReservation(ctx, inventory.Reservation{
				ProductID:     item.ProductID,
				Warehouse:     inventory.WarehouseReserved,
				Quantity:      item.Quantity,
				ReferenceType: inventory.ReferenceTypeSalesOrder,
				ReferenceID:   orderID,
			})
			if err != nil {
				return fmt.Errorf("reserve %s for order %d: %w", item.ProductName, orderID, err)
			}
		}
		return nil
	})
	if err != nil {
		if shared.KindOf(err) != "" {
			return nil, err
		}
		return nil, fmt.Errorf("confirm sales order %d: %w", orderID, err)
	}
	s.logger.Info("sales order confirmed",
		slog.String("number", order.Reference()),
		slog.String("confirmed_by", confirmedBy),
		slog.Int("reserved_lines", len(order.Items)))
	return s.repo.Get(ctx, orderID)
}

// Cancel terminally cancels an order. Cancelling a confirmed order
// releases its reservations in the same transaction; this is the
// explicit compensation path, never automatic.
func (s *Service) Cancel(ctx context.Context, orderID int64) error {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.Status.CanTransition(StatusCancelled) {
		return shared.NewError(shared.KindInvalidState, "sales order %s is %s and cannot be cancelled", order.Reference(), order.Status)
	}

	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateStatus(ctx, orderID, order.Status, StatusCancelled); err != nil {
			return err
		}
		released, err := repo.ReleaseReservations(ctx, orderID)
		if err != nil {
			return err
		}
		if released > 0 {
			s.logger.Info("reservations released",
				slog.Int64("order_id", orderID),
				slog.Int("count", released))
		}
		return nil
	})
}

// MarkPaid closes out a confirmed order.
func (s *Service) MarkPaid(ctx context.Context, orderID int64) error {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.Status.CanTransition(StatusPaid) {
		return shared.NewError(shared.KindInvalidState, "sales order %s is %s and cannot be marked paid", order.Reference(), order.Status)
	}
	return s.repo.UpdateStatus(ctx, orderID, order.Status, StatusPaid)
}
