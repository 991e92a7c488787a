package entitlement

import (
	"context"

	"github.com/ntechservices/subscription/internal/types"
)

// Repository defines the interface for entitlement persistence
type Repository interface {
	// Upsert creates the grant or replaces the value of an existing grant for
	// the same (entity_type, entity_id, feature_id) key.
	Upsert(ctx context.Context, e *Entitlement) (*Entitlement, error)
	Get(ctx context.Context, id string) (*Entitlement, error)
	GetByEntityAndFeature(ctx context.Context, entityType types.EntitlementEntityType, entityID, featureID string) (*Entitlement, error)
	ListByEntity(ctx context.Context, entityType types.EntitlementEntityType, entityID string) ([]*Entitlement, error)
	Delete(ctx context.Context, id string) error
	DeleteByEntity(ctx context.Context, entityType types.EntitlementEntityType, entityID string) error
}
