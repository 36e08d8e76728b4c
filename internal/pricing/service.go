package pricing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ProductPort is the slice of the product master the pricing engine
// reads.
type ProductPort interface {
	Get(ctx context.Context, id int64) (products.Product, error)
}

// CustomerTierResolver maps a customer code to its assigned tier code.
// Implemented by the customers service; defined here to avoid an import
// cycle.
type CustomerTierResolver interface {
	TierCodeForCustomer(ctx context.Context, customerCode string) (string, error)
}

// Service resolves unit prices. Resolution order is fixed: multiplier
// tier code match first, legacy flat column second, otherwise the tier
// is unknown.
type Service struct {
	logger      *slog.Logger
	tiers       TierRepository
	productPort ProductPort
	customers   CustomerTierResolver
	cache       *QuoteCache
}

func NewService(logger *slog.Logger, tiers TierRepository, productPort ProductPort, customers CustomerTierResolver, cache *QuoteCache) *Service {
	return &Service{logger: logger, tiers: tiers, productPort: productPort, customers: customers, cache: cache}
}

// Lookup resolves the unit price of productID under tierCode.
func (s *Service) Lookup(ctx context.Context, productID int64, tierCode string) (Quote, error) {
	if tierCode == "" {
		return Quote{}, shared.NewError(shared.KindValidation, "tier code required")
	}

	if q, ok := s.cache.Get(ctx, productID, tierCode); ok {
		return q, nil
	}

	product, err := s.productPort.Get(ctx, productID)
	if err != nil {
		return Quote{}, err
	}
	if !product.IsActive {
		return Quote{}, shared.NewError(shared.KindNotFound, "product %q is inactive", product.Code)
	}

	quote, err := s.resolve(ctx, product, tierCode)
	if err != nil {
		return Quote{}, err
	}
	s.cache.Set(ctx, quote)
	return quote, nil
}

// LookupForCustomer resolves the unit price using the customer's
// assigned tier.
func (s *Service) LookupForCustomer(ctx context.Context, productID int64, customerCode string) (Quote, error) {
	tierCode, err := s.customers.TierCodeForCustomer(ctx, customerCode)
	if err != nil {
		return Quote{}, err
	}
	return s.Lookup(ctx, productID, tierCode)
}

func (s *Service) resolve(ctx context.Context, product products.Product, tierCode string) (Quote, error) {
	tier, err := s.tiers.GetByCode(ctx, tierCode)
	switch {
	case err == nil:
		if !tier.Multiplier.IsPositive() {
			return Quote{}, shared.NewError(shared.KindDataIntegrity, "tier %q has non-positive multiplier", tier.Code)
		}
		if !product.BasePrice.IsPositive() {
			return Quote{}, shared.NewError(shared.KindDataIntegrity, "product %q has non-positive base price", product.Code)
		}
		return Quote{
			ProductID:   product.ID,
			ProductName: product.Name,
			TierCode:    tier.Code,
			TierName:    tier.Name,
			UnitPrice:   Compute(product.BasePrice, tier.Multiplier),
			Source:      SourceTierMultiplier,
		}, nil
	case shared.IsKind(err, shared.KindNotFound):
		// Fall through to the legacy flat columns.
	default:
		return Quote{}, fmt.Errorf("pricing: get tier %q: %w", tierCode, err)
	}

	if flat, ok := product.LegacyPrice(tierCode); ok {
		return Quote{
			ProductID:   product.ID,
			ProductName: product.Name,
			TierCode:    tierCode,
			TierName:    legacyTierNames[tierCode],
			UnitPrice:   flat.Round(2),
			Source:      SourceLegacyFlat,
		}, nil
	}

	return Quote{}, shared.NewError(shared.KindUnknownTier, "price tier %q not found for product %q", tierCode, product.Code)
}

// TierExists reports whether code names a multiplier tier or a legacy
// price list. Used by the customers service when assigning tiers.
func (s *Service) TierExists(ctx context.Context, code string) (bool, error) {
	if IsLegacyCode(code) {
		return true, nil
	}
	_, err := s.tiers.GetByCode(ctx, code)
	if err == nil {
		return true, nil
	}
	if shared.IsKind(err, shared.KindNotFound) {
		return false, nil
	}
	return false, err
}

// Tiers lists the tier master in display order.
func (s *Service) Tiers(ctx context.Context) ([]PriceTier, error) {
	return s.tiers.List(ctx)
}

// CreateTier inserts a tier, keeping the single-default invariant:
// marking the new tier default clears the previous one in the same
// transaction, and the write aborts if the invariant would break.
func (s *Service) CreateTier(ctx context.Context, tier PriceTier) (PriceTier, error) {
	if err := validateTier(tier); err != nil {
		return PriceTier{}, err
	}
	err := s.tiers.WithTx(ctx, func(ctx context.Context, repo TierRepository) error {
		if tier.IsDefault {
			if err := repo.ClearDefault(ctx); err != nil {
				return err
			}
		}
		id, err := repo.Create(ctx, tier)
		if err != nil {
			return err
		}
		tier.ID = id
		return checkSingleDefault(ctx, repo)
	})
	if err != nil {
		return PriceTier{}, err
	}
	return tier, nil
}

// UpdateTier edits a tier under the same invariant.
func (s *Service) UpdateTier(ctx context.Context, id int64, tier PriceTier) error {
	if err := validateTier(tier); err != nil {
		return err
	}
	return s.tiers.WithTx(ctx, func(ctx context.Context, repo TierRepository) error {
		if tier.IsDefault {
			if err := repo.ClearDefault(ctx); err != nil {
				return err
			}
		}
		if err := repo.Update(ctx, id, tier); err != nil {
			return err
		}
		return checkSingleDefault(ctx, repo)
	})
}

func validateTier(tier PriceTier) error {
	if tier.Code == "" {
		return shared.NewError(shared.KindValidation, "tier code required")
	}
	if IsLegacyCode(tier.Code) {
		return shared.NewError(shared.KindValidation, "tier code %q is reserved for legacy price lists", tier.Code)
	}
	if !tier.Multiplier.IsPositive() {
		return shared.NewError(shared.KindValidation, "tier multiplier must be greater than zero")
	}
	return nil
}

func checkSingleDefault(ctx context.Context, repo TierRepository) error {
	n, err := repo.CountDefaults(ctx)
	if err != nil {
		return err
	}
	if n != 1 {
		return shared.NewError(shared.KindDataIntegrity, "expected exactly one default price tier, found %d", n)
	}
	return nil
}
