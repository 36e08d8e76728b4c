package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	byCode map[string]Customer
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byCode: make(map[string]Customer)}
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*Customer, error) {
	for _, c := range r.byCode {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, shared.NewError(shared.KindNotFound, "customer %d not found", id)
}

func (r *memoryRepo) GetByCode(_ context.Context, code string) (*Customer, error) {
	if c, ok := r.byCode[code]; ok {
		out := c
		return &out, nil
	}
	return nil, shared.NewError(shared.KindNotFound, "customer %q not found", code)
}

func (r *memoryRepo) List(_ context.Context, _ ListCustomersRequest) ([]Customer, int, error) {
	var out []Customer
	for _, c := range r.byCode {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Create(_ context.Context, customer Customer) (int64, error) {
	r.nextID++
	customer.ID = r.nextID
	r.byCode[customer.Code] = customer
	return customer.ID, nil
}

func (r *memoryRepo) Update(_ context.Context, id int64, customer Customer) error {
	for code, c := range r.byCode {
		if c.ID == id {
			customer.ID = id
			customer.Code = code
			r.byCode[code] = customer
			return nil
		}
	}
	return shared.NewError(shared.KindNotFound, "customer %d not found", id)
}

type staticTierChecker map[string]bool

func (c staticTierChecker) TierExists(_ context.Context, code string) (bool, error) {
	return c[code], nil
}

func fixtureService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	checker := staticTierChecker{"REGULAR": true, "PREMIER": true, "A": true}
	return NewService(repo, checker), repo
}

func TestCreateCustomer(t *testing.T) {
	svc, _ := fixtureService()
	ctx := context.Background()

	created, err := svc.Create(ctx, Customer{Code: "ABA", Name: "Abacus Industrial", Country: "PH", AssignedTierCode: "PREMIER"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.True(t, created.IsActive)

	_, err = svc.Create(ctx, Customer{Code: "ABA", Name: "Duplicate", AssignedTierCode: "REGULAR"})
	require.True(t, shared.IsKind(err, shared.KindValidation), "got %v", err)
}

func TestCreateCustomerRejectsUnknownTier(t *testing.T) {
	svc, _ := fixtureService()

	_, err := svc.Create(context.Background(), Customer{Code: "NEW1", Name: "Newco", AssignedTierCode: "WHOLESALE"})
	require.True(t, shared.IsKind(err, shared.KindUnknownTier), "got %v", err)
}

func TestCreateCustomerAcceptsLegacyListAssignment(t *testing.T) {
	svc, _ := fixtureService()

	created, err := svc.Create(context.Background(), Customer{Code: "OLD1", Name: "Oldco", AssignedTierCode: "A"})
	require.NoError(t, err)
	require.Equal(t, "A", created.AssignedTierCode)
}

func TestTierCodeForCustomer(t *testing.T) {
	svc, _ := fixtureService()
	ctx := context.Background()

	_, err := svc.Create(ctx, Customer{Code: "ABA", Name: "Abacus Industrial", AssignedTierCode: "PREMIER"})
	require.NoError(t, err)

	tier, err := svc.TierCodeForCustomer(ctx, "ABA")
	require.NoError(t, err)
	require.Equal(t, "PREMIER", tier)

	_, err = svc.TierCodeForCustomer(ctx, "NOPE")
	require.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestUpdateCustomerReassignsTier(t *testing.T) {
	svc, _ := fixtureService()
	ctx := context.Background()

	created, err := svc.Create(ctx, Customer{Code: "ABA", Name: "Abacus Industrial", AssignedTierCode: "REGULAR"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, Customer{Name: "Abacus Industrial", AssignedTierCode: "PREMIER", IsActive: true})
	require.NoError(t, err)
	require.Equal(t, "PREMIER", updated.AssignedTierCode)
}
