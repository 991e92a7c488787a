package testutil

import (
	"context"

	"github.com/ntechservices/subscription/internal/domain/entitlement"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
)

// InMemoryEntitlementStore implements entitlement.Repository
type InMemoryEntitlementStore struct {
	*InMemoryStore[*entitlement.Entitlement]
}

// NewInMemoryEntitlementStore creates a new in-memory entitlement store
func NewInMemoryEntitlementStore() *InMemoryEntitlementStore {
	return &InMemoryEntitlementStore{
		InMemoryStore: NewInMemoryStore[*entitlement.Entitlement](),
	}
}

func copyEntitlement(e *entitlement.Entitlement) *entitlement.Entitlement {
	if e == nil {
		return nil
	}
	copied := *e
	if e.OveragePrice != nil {
		overagePrice := *e.OveragePrice
		copied.OveragePrice = &overagePrice
	}
	return &copied
}

func entitlementFilterFn(ctx context.Context, e *entitlement.Entitlement) bool {
	if e == nil {
		return false
	}
	if tenantID := types.GetTenantID(ctx); tenantID != "" && e.TenantID != tenantID {
		return false
	}
	return e.Status == types.StatusPublished
}

// Upsert replaces the existing grant for the same (entity_type, entity_id,
// feature_id) key, mirroring the unique index of the postgres implementation.
func (s *InMemoryEntitlementStore) Upsert(ctx context.Context, e *entitlement.Entitlement) (*entitlement.Entitlement, error) {
	if e == nil {
		return nil, ierr.NewError("entitlement cannot be nil").
			Mark(ierr.ErrValidation)
	}

	existing, err := s.GetByEntityAndFeature(ctx, e.EntityType, e.EntityID, e.FeatureID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	stored := copyEntitlement(e)
	if existing != nil {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
		stored.CreatedBy = existing.CreatedBy
		if err := s.InMemoryStore.Update(ctx, stored.ID, stored); err != nil {
			return nil, err
		}
		return copyEntitlement(stored), nil
	}

	if err := s.InMemoryStore.Create(ctx, stored.ID, stored); err != nil {
		return nil, err
	}
	return copyEntitlement(stored), nil
}

func (s *InMemoryEntitlementStore) Get(ctx context.Context, id string) (*entitlement.Entitlement, error) {
	e, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !entitlementFilterFn(ctx, e) {
		return nil, ierr.NewError("entitlement not found").
			WithHint("The entitlement does not exist").
			Mark(ierr.ErrNotFound)
	}
	return copyEntitlement(e), nil
}

func (s *InMemoryEntitlementStore) GetByEntityAndFeature(ctx context.Context, entityType types.EntitlementEntityType, entityID, featureID string) (*entitlement.Entitlement, error) {
	entitlements, err := s.InMemoryStore.List(ctx, func(ctx context.Context, e *entitlement.Entitlement) bool {
		return entitlementFilterFn(ctx, e) &&
			e.EntityType == entityType &&
			e.EntityID == entityID &&
			e.FeatureID == featureID
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(entitlements) == 0 {
		return nil, ierr.NewError("entitlement not found").
			WithHint("No grant exists for the entity and feature").
			WithReportableDetails(map[string]any{
				"entity_type": entityType,
				"entity_id":   entityID,
				"feature_id":  featureID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyEntitlement(entitlements[0]), nil
}

func (s *InMemoryEntitlementStore) ListByEntity(ctx context.Context, entityType types.EntitlementEntityType, entityID string) ([]*entitlement.Entitlement, error) {
	entitlements, err := s.InMemoryStore.List(ctx, func(ctx context.Context, e *entitlement.Entitlement) bool {
		return entitlementFilterFn(ctx, e) &&
			e.EntityType == entityType &&
			e.EntityID == entityID
	}, func(i, j *entitlement.Entitlement) bool {
		return i.CreatedAt.Before(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	result := make([]*entitlement.Entitlement, len(entitlements))
	for i, e := range entitlements {
		result[i] = copyEntitlement(e)
	}
	return result, nil
}

func (s *InMemoryEntitlementStore) Delete(ctx context.Context, id string) error {
	if err := s.InMemoryStore.Delete(ctx, id); err != nil {
		return ierr.NewError("entitlement not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryEntitlementStore) DeleteByEntity(ctx context.Context, entityType types.EntitlementEntityType, entityID string) error {
	entitlements, err := s.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		return err
	}
	for _, e := range entitlements {
		if err := s.InMemoryStore.Delete(ctx, e.ID); err != nil {
			return err
		}
	}
	return nil
}
