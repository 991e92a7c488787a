package testutil

import (
	"context"

	"github.com/ntechservices/subscription/internal/domain/feature"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
)

// InMemoryFeatureStore implements feature.Repository
type InMemoryFeatureStore struct {
	*InMemoryStore[*feature.Feature]
}

// NewInMemoryFeatureStore creates a new in-memory feature store
func NewInMemoryFeatureStore() *InMemoryFeatureStore {
	return &InMemoryFeatureStore{
		InMemoryStore: NewInMemoryStore[*feature.Feature](),
	}
}

func copyFeature(f *feature.Feature) *feature.Feature {
	if f == nil {
		return nil
	}
	copied := *f
	return &copied
}

func featureFilterFn(ctx context.Context, f *feature.Feature) bool {
	if f == nil {
		return false
	}
	if tenantID := types.GetTenantID(ctx); tenantID != "" && f.TenantID != tenantID {
		return false
	}
	return f.Status == types.StatusPublished
}

func (s *InMemoryFeatureStore) Create(ctx context.Context, f *feature.Feature) error {
	if f == nil {
		return ierr.NewError("feature cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, f.ID, copyFeature(f))
}

func (s *InMemoryFeatureStore) Get(ctx context.Context, id string) (*feature.Feature, error) {
	f, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !featureFilterFn(ctx, f) {
		return nil, ierr.NewError("feature not found").
			WithHint("The feature does not exist or was deleted").
			Mark(ierr.ErrNotFound)
	}
	return copyFeature(f), nil
}

func (s *InMemoryFeatureStore) GetByName(ctx context.Context, name string) (*feature.Feature, error) {
	features, err := s.InMemoryStore.List(ctx, func(ctx context.Context, f *feature.Feature) bool {
		return featureFilterFn(ctx, f) && f.Name == name
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, ierr.NewError("feature not found").
			WithHint("No feature exists with the given name").
			WithReportableDetails(map[string]any{
				"name": name,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyFeature(features[0]), nil
}

func (s *InMemoryFeatureStore) List(ctx context.Context) ([]*feature.Feature, error) {
	features, err := s.InMemoryStore.List(ctx, featureFilterFn, func(i, j *feature.Feature) bool {
		return i.Name < j.Name
	})
	if err != nil {
		return nil, err
	}
	result := make([]*feature.Feature, len(features))
	for i, f := range features {
		result[i] = copyFeature(f)
	}
	return result, nil
}

func (s *InMemoryFeatureStore) Update(ctx context.Context, f *feature.Feature) error {
	if f == nil {
		return ierr.NewError("feature cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if err := s.InMemoryStore.Update(ctx, f.ID, copyFeature(f)); err != nil {
		return ierr.NewError("feature not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryFeatureStore) Delete(ctx context.Context, id string) error {
	f, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	f.Status = types.StatusDeleted
	return s.InMemoryStore.Update(ctx, id, f)
}
