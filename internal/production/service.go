package production

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/sales/orders"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// OrderSource reads the confirmed sales order a job order is generated
// from.
type OrderSource interface {
	Get(ctx context.Context, id int64) (*orders.SalesOrder, error)
}

// ReservedSource reads the current reserved balance for a product,
// used to seed the item inventory snapshot at generation time.
type ReservedSource interface {
	ReservedBalance(ctx context.Context, productID int64) (decimal.Decimal, error)
}

type Service struct {
	logger   *slog.Logger
	repo     Repository
	orders   OrderSource
	reserved ReservedSource
}

func NewService(logger *slog.Logger, repo Repository, orderSource OrderSource, reserved ReservedSource) *Service {
	return &Service{logger: logger, repo: repo, orders: orderSource, reserved: reserved}
}

func (s *Service) Get(ctx context.Context, id int64) (*JobOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]JobOrder, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Generate creates the job order for a confirmed sales order,
// inheriting number and revision. Idempotent per order: a second call
// returns the existing job order instead of creating a duplicate.
func (s *Service) Generate(ctx context.Context, orderID int64) (*JobOrder, error) {
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
			"sales order %s is not confirmed; confirm before generating a job order", order.Reference())
	}

	job := &JobOrder{
		Number:             order.Number,
		Revision:           order.Revision,
		Status:             StatusCreated,
		SourceSalesOrderID: order.ID,
		CustomerCode:       order.CustomerCode,
	}
	for _, item := range order.Items {
		reserved := decimal.Zero
		if s.reserved != nil {
			if reserved, err = s.reserved.ReservedBalance(ctx, item.ProductID); err != nil {
				return nil, fmt.Errorf("reserved balance for product %d: %w", item.ProductID, err)
			}
		}
		job.Items = append(job.Items, JobOrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Reserved:    reserved,
		})
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Insert(ctx, job)
	})
	if err != nil {
		// A concurrent generation can beat us to the unique source
		// constraint; surface the winner.
		if winner, getErr := s.repo.GetBySourceOrder(ctx, orderID); getErr == nil {
			return winner, nil
		}
		return nil, fmt.Errorf("insert job order for sales order %d: %w", orderID, err)
	}
	s.logger.Info("job order generated",
		slog.String("number", job.Reference()),
		slog.Int64("order_id", orderID))
	return job, nil
}

// UpdateShipment records a partial shipment in one of the eight slots
// and returns the line with its derived numbers recomputed.
func (s *Service) UpdateShipment(ctx context.Context, itemID int64, slot int, value decimal.Decimal) (*ItemView, error) {
	if slot < 1 || slot > ShipmentSlots {
		return nil, shared.NewError(shared.KindValidation, "shipment slot must be between 1 and %d", ShipmentSlots)
	}
	if value.IsNegative() {
		return nil, shared.NewError(shared.KindValidation, "shipment quantity must not be negative")
	}
	if err := s.repo.UpdateShipmentSlot(ctx, itemID, slot, value); err != nil {
		return nil, err
	}
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	view := ItemView{JobOrderItem: *item, Reconciliation: Reconcile(*item)}
	if view.OverShipped {
		s.logger.Warn("job order line shipped more than ordered",
			slog.Int64("item_id", itemID),
			slog.String("quantity", item.Quantity.String()),
			slog.String("shipped", view.Shipped.String()))
	}
	return &view, nil
}

// RefreshInventorySnapshots re-reads the reserved balance for each
// line. Ready quantities are reported by the floor and left untouched.
func (s *Service) RefreshInventorySnapshots(ctx context.Context, jobOrderID int64) (*JobOrder, error) {
	job, err := s.repo.Get(ctx, jobOrderID)
	if err != nil {
		return nil, err
	}
	if s.reserved == nil {
		return job, nil
	}
	for _, item := range job.Items {
		reserved, err := s.reserved.ReservedBalance(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpdateInventorySnapshots(ctx, item.ID, reserved, item.Ready); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, jobOrderID)
}

// Start moves a job order into production.
func (s *Service) Start(ctx context.Context, id int64) error {
	return s.transition(ctx, id, StatusInProduction)
}

// Complete closes out production.
func (s *Service) Complete(ctx context.Context, id int64) error {
	return s.transition(ctx, id, StatusCompleted)
}

func (s *Service) transition(ctx context.Context, id int64, to Status) error {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !job.Status.CanTransition(to) {
		return shared.NewError(shared.KindInvalidState,
			"job order %s is %s and cannot become %s", job.Reference(), job.Status, to)
	}
	return s.repo.UpdateStatus(ctx, id, job.Status, to)
}
