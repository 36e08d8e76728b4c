package customers

import (
	"context"
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// TierChecker verifies an assigned tier code exists. Implemented by the
// pricing module; defined here to avoid an import cycle.
type TierChecker interface {
	TierExists(ctx context.Context, code string) (bool, error)
}

type Service struct {
	repo  Repository
	tiers TierChecker
}

func NewService(repo Repository, tiers TierChecker) *Service {
	return &Service{repo: repo, tiers: tiers}
}

func (s *Service) Create(ctx context.Context, customer Customer) (*Customer, error) {
	if customer.Code == "" || customer.Name == "" {
		return nil, shared.NewError(shared.KindValidation, "customer code and name required")
	}
	existing, err := s.repo.GetByCode(ctx, customer.Code)
	if err != nil && !shared.IsKind(err, shared.KindNotFound) {
		return nil, fmt.Errorf("check existing customer: %w", err)
	}
	if existing != nil {
		return nil, shared.NewError(shared.KindValidation, "customer code %q already exists", customer.Code)
	}
	if err := s.checkTier(ctx, customer.AssignedTierCode); err != nil {
		return nil, err
	}

	customer.IsActive = true
	id, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	customer.ID = id
	return &customer, nil
}

func (s *Service) Update(ctx context.Context, id int64, customer Customer) (*Customer, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.checkTier(ctx, customer.AssignedTierCode); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, customer); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Customer, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	return s.repo.List(ctx, req)
}

// TierCodeForCustomer satisfies the pricing module's resolver port.
func (s *Service) TierCodeForCustomer(ctx context.Context, customerCode string) (string, error) {
	c, err := s.repo.GetByCode(ctx, customerCode)
	if err != nil {
		return "", err
	}
	return c.AssignedTierCode, nil
}

func (s *Service) checkTier(ctx context.Context, tierCode string) error {
	if tierCode == "" {
		return shared.NewError(shared.KindValidation, "assigned tier code required")
	}
	if s.tiers == nil {
		return nil
	}
	ok, err := s.tiers.TierExists(ctx, tierCode)
	if err != nil {
		return fmt.Errorf("verify tier %q: %w", tierCode, err)
	}
	if !ok {
		return shared.NewError(shared.KindUnknownTier, "price tier %q not found", tierCode)
	}
	return nil
}
