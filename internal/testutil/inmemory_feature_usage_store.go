package testutil

import (
	"context"
	"time"

	"github.com/ntechservices/subscription/internal/domain/usage"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
)

// InMemoryFeatureUsageStore implements usage.Repository
type InMemoryFeatureUsageStore struct {
	*InMemoryStore[*usage.FeatureUsage]
}

// NewInMemoryFeatureUsageStore creates a new in-memory feature usage store
func NewInMemoryFeatureUsageStore() *InMemoryFeatureUsageStore {
	return &InMemoryFeatureUsageStore{
		InMemoryStore: NewInMemoryStore[*usage.FeatureUsage](),
	}
}

func copyFeatureUsage(u *usage.FeatureUsage) *usage.FeatureUsage {
	if u == nil {
		return nil
	}
	copied := *u
	return &copied
}

func featureUsageFilterFn(ctx context.Context, u *usage.FeatureUsage) bool {
	if u == nil {
		return false
	}
	if tenantID := types.GetTenantID(ctx); tenantID != "" && u.TenantID != tenantID {
		return false
	}
	return true
}

// GetOrCreate mirrors the postgres upsert: the (subscription_id, feature_id)
// pair is unique and a racing insert yields the stored row.
func (s *InMemoryFeatureUsageStore) GetOrCreate(ctx context.Context, u *usage.FeatureUsage) (*usage.FeatureUsage, error) {
	if u == nil {
		return nil, ierr.NewError("feature usage cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, u.SubscriptionID, u.FeatureID)
	if err == nil {
		return existing, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}

	if err := s.InMemoryStore.Create(ctx, u.ID, copyFeatureUsage(u)); err != nil {
		return nil, err
	}
	return copyFeatureUsage(u), nil
}

func (s *InMemoryFeatureUsageStore) Get(ctx context.Context, subscriptionID, featureID string) (*usage.FeatureUsage, error) {
	usages, err := s.InMemoryStore.List(ctx, func(ctx context.Context, u *usage.FeatureUsage) bool {
		return featureUsageFilterFn(ctx, u) &&
			u.SubscriptionID == subscriptionID &&
			u.FeatureID == featureID
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(usages) == 0 {
		return nil, ierr.NewError("feature usage not found").
			WithHint("No usage row exists for the subscription and feature").
			Mark(ierr.ErrNotFound)
	}
	return copyFeatureUsage(usages[0]), nil
}

func (s *InMemoryFeatureUsageStore) Update(ctx context.Context, u *usage.FeatureUsage) error {
	if u == nil {
		return ierr.NewError("feature usage cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if err := s.InMemoryStore.Update(ctx, u.ID, copyFeatureUsage(u)); err != nil {
		return ierr.NewError("feature usage not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryFeatureUsageStore) Increment(ctx context.Context, id string, usedDelta, overageDelta int64) error {
	u, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return ierr.NewError("feature usage not found").
			Mark(ierr.ErrNotFound)
	}
	updated := copyFeatureUsage(u)
	updated.Used += usedDelta
	updated.OverageCount += overageDelta
	updated.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, id, updated)
}

func (s *InMemoryFeatureUsageStore) ResetPeriod(ctx context.Context, id string, expectedResetAt, periodStart, periodEnd time.Time) (bool, error) {
	u, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return false, ierr.NewError("feature usage not found").
			Mark(ierr.ErrNotFound)
	}
	if !u.ResetAt.Equal(expectedResetAt) {
		return false, nil
	}
	updated := copyFeatureUsage(u)
	updated.Reset(periodStart, periodEnd)
	updated.UpdatedAt = time.Now().UTC()
	if err := s.InMemoryStore.Update(ctx, id, updated); err != nil {
		return false, err
	}
	return true, nil
}

func (s *InMemoryFeatureUsageStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*usage.FeatureUsage, error) {
	usages, err := s.InMemoryStore.List(ctx, func(ctx context.Context, u *usage.FeatureUsage) bool {
		return featureUsageFilterFn(ctx, u) && u.SubscriptionID == subscriptionID
	}, func(i, j *usage.FeatureUsage) bool {
		return i.CreatedAt.Before(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	result := make([]*usage.FeatureUsage, len(usages))
	for i, u := range usages {
		result[i] = copyFeatureUsage(u)
	}
	return result, nil
}

func (s *InMemoryFeatureUsageStore) DeleteBySubscription(ctx context.Context, subscriptionID string) error {
	usages, err := s.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}
	for _, u := range usages {
		if err := s.InMemoryStore.Delete(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}
