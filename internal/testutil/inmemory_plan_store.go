package testutil

import (
	"context"

	"github.com/ntechservices/subscription/internal/domain/plan"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
)

// InMemoryPlanStore implements plan.Repository
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]
}

// NewInMemoryPlanStore creates a new in-memory plan store
func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		InMemoryStore: NewInMemoryStore[*plan.Plan](),
	}
}

func copyPlan(p *plan.Plan) *plan.Plan {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}

func planFilterFn(ctx context.Context, p *plan.Plan) bool {
	if p == nil {
		return false
	}
	if tenantID := types.GetTenantID(ctx); tenantID != "" && p.TenantID != tenantID {
		return false
	}
	return p.Status == types.StatusPublished
}

func planSortFn(i, j *plan.Plan) bool {
	if i.DisplayOrder != j.DisplayOrder {
		return i.DisplayOrder < j.DisplayOrder
	}
	return i.CreatedAt.Before(j.CreatedAt)
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	if p == nil {
		return ierr.NewError("plan cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, p.ID, copyPlan(p))
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !planFilterFn(ctx, p) {
		return nil, ierr.NewError("plan not found").
			WithHint("The plan does not exist or was deleted").
			Mark(ierr.ErrNotFound)
	}
	return copyPlan(p), nil
}

func (s *InMemoryPlanStore) GetByLookupKey(ctx context.Context, lookupKey string) (*plan.Plan, error) {
	plans, err := s.InMemoryStore.List(ctx, func(ctx context.Context, p *plan.Plan) bool {
		return planFilterFn(ctx, p) && p.LookupKey == lookupKey
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, ierr.NewError("plan not found").
			WithHint("No plan exists with the given lookup key").
			WithReportableDetails(map[string]any{
				"lookup_key": lookupKey,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyPlan(plans[0]), nil
}

func (s *InMemoryPlanStore) List(ctx context.Context) ([]*plan.Plan, error) {
	plans, err := s.InMemoryStore.List(ctx, planFilterFn, planSortFn)
	if err != nil {
		return nil, err
	}
	result := make([]*plan.Plan, len(plans))
	for i, p := range plans {
		result[i] = copyPlan(p)
	}
	return result, nil
}

func (s *InMemoryPlanStore) Update(ctx context.Context, p *plan.Plan) error {
	if p == nil {
		return ierr.NewError("plan cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if err := s.InMemoryStore.Update(ctx, p.ID, copyPlan(p)); err != nil {
		return ierr.NewError("plan not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryPlanStore) Delete(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	p.Status = types.StatusDeleted
	return s.InMemoryStore.Update(ctx, id, p)
}
