package pricing

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryTierRepo struct {
	tiers  map[string]PriceTier
	nextID int64
}

func newMemoryTierRepo(tiers ...PriceTier) *memoryTierRepo {
	r := &memoryTierRepo{tiers: make(map[string]PriceTier)}
	for _, t := range tiers {
		r.nextID++
		t.ID = r.nextID
		r.tiers[t.Code] = t
	}
	return r
}

func (r *memoryTierRepo) WithTx(ctx context.Context, fn func(context.Context, TierRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryTierRepo) List(context.Context) ([]PriceTier, error) {
	var out []PriceTier
	for _, t := range r.tiers {
		out = append(out, t)
	}
	return out, nil
}

func (r *memoryTierRepo) GetByCode(_ context.Context, code string) (PriceTier, error) {
	if t, ok := r.tiers[code]; ok {
		return t, nil
	}
	return PriceTier{}, shared.NewError(shared.KindNotFound, "price tier %q not found", code)
}

func (r *memoryTierRepo) GetDefault(context.Context) (PriceTier, error) {
	for _, t := range r.tiers {
		if t.IsDefault {
			return t, nil
		}
	}
	return PriceTier{}, shared.NewError(shared.KindDataIntegrity, "no default price tier configured")
}

func (r *memoryTierRepo) Create(_ context.Context, tier PriceTier) (int64, error) {
	r.nextID++
	tier.ID = r.nextID
	r.tiers[tier.Code] = tier
	return tier.ID, nil
}

func (r *memoryTierRepo) Update(_ context.Context, id int64, tier PriceTier) error {
	for code, t := range r.tiers {
		if t.ID == id {
			tier.ID = id
			if tier.Code == "" {
				tier.Code = code
			}
			delete(r.tiers, code)
			r.tiers[tier.Code] = tier
			return nil
		}
	}
	return shared.NewError(shared.KindNotFound, "price tier %d not found", id)
}

func (r *memoryTierRepo) ClearDefault(context.Context) error {
	for code, t := range r.tiers {
		t.IsDefault = false
		r.tiers[code] = t
	}
	return nil
}

func (r *memoryTierRepo) CountDefaults(context.Context) (int, error) {
	n := 0
	for _, t := range r.tiers {
		if t.IsDefault {
			n++
		}
	}
	return n, nil
}

type memoryProductPort struct {
	byID map[int64]products.Product
}

func (p *memoryProductPort) Get(_ context.Context, id int64) (products.Product, error) {
	if prod, ok := p.byID[id]; ok {
		return prod, nil
	}
	return products.Product{}, shared.NewError(shared.KindNotFound, "product %d not found", id)
}

type staticTierResolver map[string]string

func (r staticTierResolver) TierCodeForCustomer(_ context.Context, code string) (string, error) {
	if tier, ok := r[code]; ok {
		return tier, nil
	}
	return "", shared.NewError(shared.KindNotFound, "customer %q not found", code)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func fixtureService(t *testing.T, cache *QuoteCache) *Service {
	t.Helper()
	flatA := dec("50.00")
	port := &memoryProductPort{byID: map[int64]products.Product{
		1: {ID: 1, Code: "HW-8IN", Name: "8in Straight Bundle", Unit: "pc", BasePrice: dec("47.00"), PriceListA: &flatA, IsActive: true},
		2: {ID: 2, Code: "HW-RETIRED", Name: "Retired SKU", Unit: "pc", BasePrice: dec("10.00"), IsActive: false},
	}}
	tiers := newMemoryTierRepo(
		PriceTier{Code: "NEW", Name: "New Customer", Multiplier: dec("1.1500")},
		PriceTier{Code: "REGULAR", Name: "Regular Customer", Multiplier: dec("1.0000"), IsDefault: true},
		PriceTier{Code: "PREMIER", Name: "Premier Customer", Multiplier: dec("0.8500")},
	)
	resolver := staticTierResolver{"ABA": "PREMIER"}
	return NewService(testLogger(), tiers, port, resolver, cache)
}

func TestLookupMultiplierTier(t *testing.T) {
	svc := fixtureService(t, nil)
	ctx := context.Background()

	q, err := svc.Lookup(ctx, 1, "NEW")
	require.NoError(t, err)
	require.Equal(t, SourceTierMultiplier, q.Source)
	require.True(t, q.UnitPrice.Equal(dec("54.05")), "got %s", q.UnitPrice)

	q, err = svc.Lookup(ctx, 1, "PREMIER")
	require.NoError(t, err)
	require.True(t, q.UnitPrice.Equal(dec("39.95")), "got %s", q.UnitPrice)
}

func TestLookupRegularReproducesBasePrice(t *testing.T) {
	svc := fixtureService(t, nil)

	q, err := svc.Lookup(context.Background(), 1, "REGULAR")
	require.NoError(t, err)
	require.Equal(t, "47.00", q.UnitPrice.String())
}

func TestLookupLegacyFlatFallback(t *testing.T) {
	svc := fixtureService(t, nil)

	q, err := svc.Lookup(context.Background(), 1, "A")
	require.NoError(t, err)
	require.Equal(t, SourceLegacyFlat, q.Source)
	require.Equal(t, "Legacy Price List A", q.TierName)
	require.True(t, q.UnitPrice.Equal(dec("50.00")))
}

func TestLookupUnknownTier(t *testing.T) {
	svc := fixtureService(t, nil)

	// "B" is a legacy code but this product has no flat value for it.
	_, err := svc.Lookup(context.Background(), 1, "B")
	require.True(t, shared.IsKind(err, shared.KindUnknownTier), "got %v", err)

	_, err = svc.Lookup(context.Background(), 1, "WHOLESALE")
	require.True(t, shared.IsKind(err, shared.KindUnknownTier), "got %v", err)
}

func TestLookupUnknownOrInactiveProduct(t *testing.T) {
	svc := fixtureService(t, nil)

	_, err := svc.Lookup(context.Background(), 99, "REGULAR")
	require.True(t, shared.IsKind(err, shared.KindNotFound), "got %v", err)

	_, err = svc.Lookup(context.Background(), 2, "REGULAR")
	require.True(t, shared.IsKind(err, shared.KindNotFound), "got %v", err)
}

func TestLookupForCustomerUsesAssignedTier(t *testing.T) {
	svc := fixtureService(t, nil)

	q, err := svc.LookupForCustomer(context.Background(), 1, "ABA")
	require.NoError(t, err)
	require.Equal(t, "PREMIER", q.TierCode)
	require.True(t, q.UnitPrice.Equal(dec("39.95")))
}

func TestLookupServesFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewQuoteCache(client, time.Minute)
	svc := fixtureService(t, cache)
	ctx := context.Background()

	q1, err := svc.Lookup(ctx, 1, "NEW")
	require.NoError(t, err)

	// Second lookup is served from the cache even if the tier vanishes.
	require.NoError(t, svc.tiers.(*memoryTierRepo).clearAll())
	q2, err := svc.Lookup(ctx, 1, "NEW")
	require.NoError(t, err)
	require.True(t, q1.UnitPrice.Equal(q2.UnitPrice))

	// After TTL expiry the lookup goes back to the datastore.
	mr.FastForward(2 * time.Minute)
	_, err = svc.Lookup(ctx, 1, "NEW")
	require.Error(t, err)
}

func (r *memoryTierRepo) clearAll() error {
	r.tiers = make(map[string]PriceTier)
	return nil
}

func TestCreateTierKeepsSingleDefault(t *testing.T) {
	svc := fixtureService(t, nil)
	ctx := context.Background()

	created, err := svc.CreateTier(ctx, PriceTier{Code: "VIP", Name: "VIP", Multiplier: dec("0.8000"), IsDefault: true})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	n, err := svc.tiers.CountDefaults(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	def, err := svc.tiers.GetDefault(ctx)
	require.NoError(t, err)
	require.Equal(t, "VIP", def.Code)
}

func TestCreateTierRejectsLegacyAndBadMultiplier(t *testing.T) {
	svc := fixtureService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateTier(ctx, PriceTier{Code: "A", Name: "Clash", Multiplier: dec("1.0")})
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.CreateTier(ctx, PriceTier{Code: "ZERO", Name: "Zero", Multiplier: decimal.Zero})
	require.True(t, shared.IsKind(err, shared.KindValidation))
}
