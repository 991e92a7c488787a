package testutil

import (
	"context"

	"github.com/ntechservices/subscription/internal/domain/price"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
)

// InMemoryPriceStore implements price.Repository
type InMemoryPriceStore struct {
	*InMemoryStore[*price.Price]
}

// NewInMemoryPriceStore creates a new in-memory price store
func NewInMemoryPriceStore() *InMemoryPriceStore {
	return &InMemoryPriceStore{
		InMemoryStore: NewInMemoryStore[*price.Price](),
	}
}

func copyPrice(p *price.Price) *price.Price {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}

func priceFilterFn(ctx context.Context, p *price.Price) bool {
	if p == nil {
		return false
	}
	if tenantID := types.GetTenantID(ctx); tenantID != "" && p.TenantID != tenantID {
		return false
	}
	return p.Status == types.StatusPublished
}

func (s *InMemoryPriceStore) Create(ctx context.Context, p *price.Price) error {
	if p == nil {
		return ierr.NewError("price cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, p.ID, copyPrice(p))
}

func (s *InMemoryPriceStore) Get(ctx context.Context, id string) (*price.Price, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !priceFilterFn(ctx, p) {
		return nil, ierr.NewError("price not found").
			WithHint("The price does not exist or was deleted").
			Mark(ierr.ErrNotFound)
	}
	return copyPrice(p), nil
}

func (s *InMemoryPriceStore) GetByPlanAndCycle(ctx context.Context, planID string, cycle types.BillingCycle) (*price.Price, error) {
	prices, err := s.InMemoryStore.List(ctx, func(ctx context.Context, p *price.Price) bool {
		return priceFilterFn(ctx, p) && p.PlanID == planID && p.BillingCycle == cycle
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, ierr.NewError("price not found").
			WithHint("No price exists for the plan and billing cycle").
			WithReportableDetails(map[string]any{
				"plan_id":       planID,
				"billing_cycle": cycle,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyPrice(prices[0]), nil
}

func (s *InMemoryPriceStore) ListByPlan(ctx context.Context, planID string) ([]*price.Price, error) {
	prices, err := s.InMemoryStore.List(ctx, func(ctx context.Context, p *price.Price) bool {
		return priceFilterFn(ctx, p) && p.PlanID == planID
	}, func(i, j *price.Price) bool {
		return i.CreatedAt.Before(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	result := make([]*price.Price, len(prices))
	for i, p := range prices {
		result[i] = copyPrice(p)
	}
	return result, nil
}

func (s *InMemoryPriceStore) Update(ctx context.Context, p *price.Price) error {
	if p == nil {
		return ierr.NewError("price cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if err := s.InMemoryStore.Update(ctx, p.ID, copyPrice(p)); err != nil {
		return ierr.NewError("price not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryPriceStore) Delete(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	p.Status = types.StatusDeleted
	return s.InMemoryStore.Update(ctx, id, p)
}

func (s *InMemoryPriceStore) DeleteByPlan(ctx context.Context, planID string) error {
	prices, err := s.ListByPlan(ctx, planID)
	if err != nil {
		return err
	}
	for _, p := range prices {
		p.Status = types.StatusDeleted
		if err := s.InMemoryStore.Update(ctx, p.ID, p); err != nil {
			return err
		}
	}
	return nil
}
