package products

import (
	"context"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// PriceInvalidator drops cached price quotes for a product after its
// master data changes. Implemented by the pricing quote cache; defined
// here to avoid an import cycle. May be nil.
type PriceInvalidator interface {
	InvalidateProduct(ctx context.Context, productID int64)
}

type Service struct {
	repo   Repository
	prices PriceInvalidator
}

func NewService(repo Repository, prices PriceInvalidator) *Service {
	return &Service{repo: repo, prices: prices}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, shared.NewError(shared.KindValidation, "invalid product ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (Product, error) {
	if code == "" {
		return Product{}, shared.NewError(shared.KindValidation, "product code required")
	}
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	product.IsActive = true
	return s.repo.Create(ctx, product)
}

func (s *Service) Update(ctx context.Context, id int64, product Product) error {
	if id <= 0 {
		return shared.NewError(shared.KindValidation, "invalid product ID")
	}
	if err := s.validate(product); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, product); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.NewError(shared.KindValidation, "invalid product ID")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.prices != nil {
		s.prices.InvalidateProduct(ctx, id)
	}
}

func (s *Service) validate(product Product) error {
	if product.Code == "" {
		return shared.NewError(shared.KindValidation, "product code required")
	}
	if product.Name == "" {
		return shared.NewError(shared.KindValidation, "product name required")
	}
	if !product.BasePrice.IsPositive() {
		return shared.NewError(shared.KindValidation, "base price must be greater than zero")
	}
	for _, lp := range []struct {
		code string
	}{{"A"}, {"B"}, {"C"}, {"D"}} {
		if v, ok := product.LegacyPrice(lp.code); ok && v.IsNegative() {
			return shared.NewError(shared.KindValidation, "legacy price list %s must not be negative", lp.code)
		}
	}
	return nil
}
