package feature

import (
	"context"
)

// Repository defines the interface for feature persistence
type Repository interface {
	Create(ctx context.Context, feature *Feature) error
	Get(ctx context.Context, id string) (*Feature, error)
	GetByName(ctx context.Context, name string) (*Feature, error)
	List(ctx context.Context) ([]*Feature, error)
	Update(ctx context.Context, feature *Feature) error
	Delete(ctx context.Context, id string) error
}
