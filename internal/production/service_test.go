package production

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/sales/orders"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	jobs   map[int64]*JobOrder
	items  map[int64]*JobOrderItem
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{jobs: make(map[int64]*JobOrder), items: make(map[int64]*JobOrderItem)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*JobOrder, error) {
	if j, ok := r.jobs[id]; ok {
		cp := *j
		cp.Items = nil
		for _, item := range r.items {
			if item.JobOrderID == id {
				cp.Items = append(cp.Items, *item)
			}
		}
		return &cp, nil
	}
	return nil, shared.NewError(shared.KindNotFound, "job order %d not found", id)
}

func (r *memoryRepo) GetBySourceOrder(ctx context.Context, orderID int64) (*JobOrder, error) {
	for id, j := range r.jobs {
		if j.SourceSalesOrderID == orderID {
			return r.Get(ctx, id)
		}
	}
	return nil, shared.NewError(shared.KindNotFound, "no job order for sales order %d", orderID)
}

func (r *memoryRepo) List(_ context.Context, _, _ int) ([]JobOrder, int, error) {
	var out []JobOrder
	for _, j := range r.jobs {
		out = append(out, *j)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Insert(_ context.Context, j *JobOrder) error {
	for _, existing := range r.jobs {
		if existing.SourceSalesOrderID == j.SourceSalesOrderID {
			return shared.NewError(shared.KindDataIntegrity, "job order for sales order %d already exists", j.SourceSalesOrderID)
		}
	}
	r.nextID++
	j.ID = r.nextID
	cp := *j
	cp.Items = nil
	r.jobs[j.ID] = &cp
	for i := range j.Items {
		r.nextID++
		j.Items[i].ID = r.nextID
		j.Items[i].JobOrderID = j.ID
		item := j.Items[i]
		r.items[item.ID] = &item
	}
	return nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id int64, from, to Status) error {
	j, ok := r.jobs[id]
	if !ok {
		return shared.NewError(shared.KindNotFound, "job order %d not found", id)
	}
	if j.Status != from {
		return shared.NewError(shared.KindInvalidState, "job order %d is not %s", id, from)
	}
	j.Status = to
	return nil
}

func (r *memoryRepo) GetItem(_ context.Context, itemID int64) (*JobOrderItem, error) {
	if item, ok := r.items[itemID]; ok {
		cp := *item
		return &cp, nil
	}
	return nil, shared.NewError(shared.KindNotFound, "job order item %d not found", itemID)
}

func (r *memoryRepo) UpdateShipmentSlot(_ context.Context, itemID int64, slot int, value decimal.Decimal) error {
	item, ok := r.items[itemID]
	if !ok {
		return shared.NewError(shared.KindNotFound, "job order item %d not found", itemID)
	}
	item.Shipments[slot-1] = value
	return nil
}

func (r *memoryRepo) UpdateInventorySnapshots(_ context.Context, itemID int64, reserved, ready decimal.Decimal) error {
	item, ok := r.items[itemID]
	if !ok {
		return shared.NewError(shared.KindNotFound, "job order item %d not found", itemID)
	}
	item.Reserved = reserved
	item.Ready = ready
	return nil
}

type orderStore map[int64]*orders.SalesOrder

func (s orderStore) Get(_ context.Context, id int64) (*orders.SalesOrder, error) {
	if o, ok := s[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, shared.NewError(shared.KindNotFound, "sales order %d not found", id)
}

type staticReserved map[int64]decimal.Decimal

func (s staticReserved) ReservedBalance(_ context.Context, productID int64) (decimal.Decimal, error) {
	return s[productID], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func confirmedOrder() *orders.SalesOrder {
	at := time.Now()
	by := "operations"
	return &orders.SalesOrder{
		ID:           3,
		Number:       "2026.08.014",
		Revision:     2,
		Status:       orders.StatusConfirmed,
		IsConfirmed:  true,
		ConfirmedAt:  &at,
		ConfirmedBy:  &by,
		CustomerCode: "ABA",
		Items: []orders.SalesOrderItem{
			{ProductID: 1, ProductName: "8in Straight Bundle", Quantity: dec("10"), UnitPrice: dec("39.95"), LineTotal: dec("399.50")},
		},
	}
}

func fixture(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	store := orderStore{3: confirmedOrder()}
	reserved := staticReserved{1: dec("10")}
	return NewService(testLogger(), repo, store, reserved), repo
}

func TestGenerateInheritsNumberAndSnapshots(t *testing.T) {
	svc, _ := fixture(t)

	job, err := svc.Generate(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, "2026.08.014", job.Number)
	require.Equal(t, 2, job.Revision)
	require.Equal(t, StatusCreated, job.Status)
	require.Len(t, job.Items, 1)
	require.True(t, job.Items[0].Quantity.Equal(dec("10")))
	require.True(t, job.Items[0].Reserved.Equal(dec("10")))
}

func TestGenerateIsIdempotent(t *testing.T) {
	svc, repo := fixture(t)
	ctx := context.Background()

	first, err := svc.Generate(ctx, 3)
	require.NoError(t, err)
	second, err := svc.Generate(ctx, 3)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.jobs, 1)
}

func TestGenerateRequiresConfirmedOrder(t *testing.T) {
	repo := newMemoryRepo()
	draft := confirmedOrder()
	draft.IsConfirmed = false
	draft.Status = orders.StatusDraft
	svc := NewService(testLogger(), repo, orderStore{3: draft}, nil)

	_, err := svc.Generate(context.Background(), 3)
	require.True(t, shared.IsKind(err, shared.KindInvalidState), "got %v", err)
	require.Empty(t, repo.jobs)
}

func TestUpdateShipmentRecomputesDerived(t *testing.T) {
	svc, _ := fixture(t)
	ctx := context.Background()

	job, err := svc.Generate(ctx, 3)
	require.NoError(t, err)
	itemID := job.Items[0].ID

	view, err := svc.UpdateShipment(ctx, itemID, 1, dec("4"))
	require.NoError(t, err)
	require.True(t, view.Shipped.Equal(dec("4")))
	require.True(t, view.OrderBalance.Equal(dec("6")))

	view, err = svc.UpdateShipment(ctx, itemID, 3, dec("2.5"))
	require.NoError(t, err)
	require.True(t, view.Shipped.Equal(dec("6.5")))
	require.True(t, view.OrderBalance.Equal(dec("3.5")))
}

func TestUpdateShipmentValidatesSlotAndValue(t *testing.T) {
	svc, _ := fixture(t)
	ctx := context.Background()

	job, err := svc.Generate(ctx, 3)
	require.NoError(t, err)
	itemID := job.Items[0].ID

	for _, slot := range []int{0, 9, -1} {
		_, err := svc.UpdateShipment(ctx, itemID, slot, dec("1"))
		require.True(t, shared.IsKind(err, shared.KindValidation), "slot %d: got %v", slot, err)
	}
	_, err = svc.UpdateShipment(ctx, itemID, 1, dec("-1"))
	require.True(t, shared.IsKind(err, shared.KindValidation), "got %v", err)
}

func TestStatusTransitions(t *testing.T) {
	svc, _ := fixture(t)
	ctx := context.Background()

	job, err := svc.Generate(ctx, 3)
	require.NoError(t, err)

	err = svc.Complete(ctx, job.ID)
	require.True(t, shared.IsKind(err, shared.KindInvalidState), "got %v", err)

	require.NoError(t, svc.Start(ctx, job.ID))
	require.NoError(t, svc.Complete(ctx, job.ID))

	err = svc.Start(ctx, job.ID)
	require.True(t, shared.IsKind(err, shared.KindInvalidState), "got %v", err)
}
