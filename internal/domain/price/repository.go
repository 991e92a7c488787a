package price

import (
	"context"

	"github.com/ntechservices/subscription/internal/types"
)

// Repository defines the interface for price persistence
type Repository interface {
	Create(ctx context.Context, price *Price) error
	Get(ctx context.Context, id string) (*Price, error)
	GetByPlanAndCycle(ctx context.Context, planID string, cycle types.BillingCycle) (*Price, error)
	ListByPlan(ctx context.Context, planID string) ([]*Price, error)
	Update(ctx context.Context, price *Price) error
	Delete(ctx context.Context, id string) error
	DeleteByPlan(ctx context.Context, planID string) error
}
