package quotations

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/pricing"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type memoryRepo struct {
	byID   map[int64]*Quotation
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[int64]*Quotation)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*Quotation, error) {
	if q, ok := r.byID[id]; ok {
		cp := *q
		cp.Items = append([]QuotationItem(nil), q.Items...)
		return &cp, nil
	}
	return nil, shared.NewError(shared.KindNotFound, "quotation %d not found", id)
}

func (r *memoryRepo) List(_ context.Context, _ ListFilters) ([]Quotation, int, error) {
	var out []Quotation
	for _, q := range r.byID {
		out = append(out, *q)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Insert(_ context.Context, q *Quotation) error {
	r.nextID++
	q.ID = r.nextID
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	cp := *q
	cp.Items = append([]QuotationItem(nil), q.Items...)
	r.byID[q.ID] = &cp
	return nil
}

func (r *memoryRepo) UpdateContent(_ context.Context, q *Quotation) error {
	stored, ok := r.byID[q.ID]
	if !ok {
		return shared.NewError(shared.KindNotFound, "quotation %d not found", q.ID)
	}
	cp := *q
	cp.CreatedAt = stored.CreatedAt
	cp.Items = append([]QuotationItem(nil), q.Items...)
	r.byID[q.ID] = &cp
	return nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id int64, from, to Status) error {
	q, ok := r.byID[id]
	if !ok {
		return shared.NewError(shared.KindNotFound, "quotation %d not found", id)
	}
	if q.Status != from {
		return shared.NewError(shared.KindInvalidState, "quotation %d is not %s", id, from)
	}
	q.Status = to
	return nil
}

func (r *memoryRepo) ListExpirable(_ context.Context, asOf time.Time) ([]int64, error) {
	var ids []int64
	for id, q := range r.byID {
		if q.Status == StatusPending && q.ValidUntil != nil && q.ValidUntil.Before(asOf) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type stubNumbers struct {
	seq int
}

func (n *stubNumbers) Next(_ context.Context, docType numbering.DocumentType, date time.Time) (numbering.DocumentNumber, error) {
	n.seq++
	return numbering.DocumentNumber{
		Number:   fmt.Sprintf("%s.%03d", date.Format("2006.01"), n.seq),
		Revision: 1,
	}, nil
}

type stubPricer map[int64]pricing.Quote

func (p stubPricer) LookupForCustomer(_ context.Context, productID int64, _ string) (pricing.Quote, error) {
	if q, ok := p[productID]; ok {
		return q, nil
	}
	return pricing.Quote{}, shared.NewError(shared.KindNotFound, "product %d not found", productID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func fixture(t *testing.T) (*Service, *memoryRepo, shared.FixedClock) {
	t.Helper()
	clock := manilaClockAt(t, "2026-08-28 10:00")
	repo := newMemoryRepo()
	pricer := stubPricer{
		1: {ProductID: 1, ProductName: "8in Straight Bundle", TierCode: "PREMIER", UnitPrice: dec("39.95")},
		2: {ProductID: 2, ProductName: "Clamp Set", TierCode: "PREMIER", UnitPrice: dec("12.50")},
	}
	svc := NewService(testLogger(), repo, &stubNumbers{}, pricer, clock)
	return svc, repo, clock
}

func TestCreateSnapshotsPricesAndTotals(t *testing.T) {
	svc, _, _ := fixture(t)

	q, err := svc.Create(context.Background(), CreateQuotationCommand{
		CustomerCode: "ABA",
		Lines: []LineCommand{
			{ProductID: 1, Quantity: dec("10")},
			{ProductID: 2, Quantity: dec("2")},
		},
		ShippingFee: dec("25.00"),
		Discount:    dec("5.00"),
	})
	require.NoError(t, err)
	require.Equal(t, "2026.08.001", q.Number)
	require.Equal(t, 1, q.Revision)
	require.Equal(t, StatusDraft, q.Status)
	require.Equal(t, "PREMIER", q.TierCode)

	// 10 x 39.95 + 2 x 12.50 = 424.50; + 25.00 shipping - 5.00 discount.
	require.True(t, q.Subtotal.Equal(dec("424.50")), "subtotal %s", q.Subtotal)
	require.True(t, q.Total.Equal(dec("444.50")), "total %s", q.Total)
	require.Equal(t, "8in Straight Bundle", q.Items[0].ProductName)
	require.NoError(t, q.CheckTotals())
}

func TestCreateRejectsBadLines(t *testing.T) {
	svc, _, _ := fixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateQuotationCommand{CustomerCode: "ABA"})
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.Create(ctx, CreateQuotationCommand{
		CustomerCode: "ABA",
		Lines:        []LineCommand{{ProductID: 1, Quantity: dec("0")}},
	})
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.Create(ctx, CreateQuotationCommand{
		CustomerCode: "ABA",
		Lines:        []LineCommand{{ProductID: 99, Quantity: dec("1")}},
	})
	require.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestReviseKeepsNumberBumpsRevision(t *testing.T) {
	svc, _, _ := fixture(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuotationCommand{
		CustomerCode: "ABA",
		Lines:        []LineCommand{{ProductID: 1, Quantity: dec("10")}},
	})
	require.NoError(t, err)

	revised, err := svc.Revise(ctx, q.ID, ReviseQuotationCommand{
		Lines: []LineCommand{{ProductID: 1, Quantity: dec("5")}},
	})
	require.NoError(t, err)
	require.Equal(t, q.Number, revised.Number)
	require.Equal(t, 2, revised.Revision)
	require.Equal(t, q.Number+" R2", revised.Reference())
	require.True(t, revised.Subtotal.Equal(dec("199.75")))
}

func TestReviseRefusedOnApprovedWithReason(t *testing.T) {
	svc, repo, _ := fixture(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuotationCommand{
		CustomerCode: "ABA",
		Lines:        []LineCommand{{ProductID: 1, Quantity: dec("1")}},
		Submit:       true,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, q.ID))

	_, err = svc.Revise(ctx, q.ID, ReviseQuotationCommand{
		Lines: []LineCommand{{ProductID: 1, Quantity: dec("2")}},
	})
	require.True(t, shared.IsKind(err, shared.KindRevisionNotAllowed), "got %v", err)
	require.Contains(t, shared.ReasonOf(err), "locked")

	// Refusal never mutates: the stored document is untouched.
	stored, err := repo.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.Revision)
	require.Equal(t, StatusApproved, stored.Status)
}

func TestReviseRefusedAfterCreationDay(t *testing.T) {
	svc, repo, clock := fixture(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuotationCommand{
		CustomerCode: "ABA",
		Lines:        []LineCommand{{ProductID: 1, Quantity: dec("1")}},
	})
	require.NoError(t, err)
	repo.byID[q.ID].CreatedAt = clock.Now().Add(-24 * time.Hour)

	_, err = svc.Revise(ctx, q.ID, ReviseQuotationCommand{
		Lines: []LineCommand{{ProductID: 1, Quantity: dec("2")}},
	})
	require.True(t, shared.IsKind(err, shared.KindRevisionNotAllowed), "got %v", err)
}

func TestDuplicateGetsNewNumberFreshRevision(t *testing.T) {
	svc, _, _ := fixture(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuotationCommand{
		CustomerCode: "ABA",
		Lines:        []LineCommand{{ProductID: 1, Quantity: dec("10")}},
		Submit:       true,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, q.ID))

	dup, err := svc.Duplicate(ctx, q.ID)
	require.NoError(t, err)
	require.NotEqual(t, q.Number, dup.Number)
	require.Equal(t, "2026.08.002", dup.Number)
	require.Equal(t, 1, dup.Revision)
	require.Equal(t, StatusPending, dup.Status)
	require.True(t, dup.Total.Equal(q.Total))
	require.Len(t, dup.Items, len(q.Items))
	// Snapshots carry over untouched, not re-priced.
	require.True(t, dup.Items[0].UnitPrice.Equal(q.Items[0].UnitPrice))
}

func TestTransitionTable(t *testing.T) {
	svc, _, _ := fixture(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuotationCommand{
		CustomerCode: "ABA",
		Lines:        []LineCommand{{ProductID: 1, Quantity: dec("1")}},
	})
	require.NoError(t, err)

	// draft cannot be approved directly.
	err = svc.Approve(ctx, q.ID)
	require.True(t, shared.IsKind(err, shared.KindInvalidState), "got %v", err)

	require.NoError(t, svc.Submit(ctx, q.ID))
	require.NoError(t, svc.Approve(ctx, q.ID))

	// approved is terminal for user transitions.
	err = svc.Reject(ctx, q.ID)
	require.True(t, shared.IsKind(err, shared.KindInvalidState), "got %v", err)
}

func TestExpireOverdue(t *testing.T) {
	svc, repo, clock := fixture(t)
	ctx := context.Background()

	past := clock.Now().Add(-48 * time.Hour)
	future := clock.Now().Add(48 * time.Hour)

	stale, err := svc.Create(ctx, CreateQuotationCommand{
		CustomerCode: "ABA",
		Lines:        []LineCommand{{ProductID: 1, Quantity: dec("1")}},
		ValidUntil:   &past,
		Submit:       true,
	})
	require.NoError(t, err)
	fresh, err := svc.Create(ctx, CreateQuotationCommand{
		CustomerCode: "ABA",
		Lines:        []LineCommand{{ProductID: 1, Quantity: dec("1")}},
		ValidUntil:   &future,
		Submit:       true,
	})
	require.NoError(t, err)

	n, err := svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, _ := repo.Get(ctx, stale.ID)
	require.Equal(t, StatusExpired, got.Status)
	got, _ = repo.Get(ctx, fresh.ID)
	require.Equal(t, StatusPending, got.Status)
}
