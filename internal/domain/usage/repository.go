package usage

import (
	"context"
	"time"
)

// Repository defines the interface for feature usage persistence.
//
// Implementations must keep the (subscription_id, feature_id) uniqueness
// invariant: GetOrCreate is an atomic upsert, so two racing callers observe
// the same row rather than each inserting one.
type Repository interface {
	// GetOrCreate returns the row for the pair, inserting the given row if
	// none exists yet. The returned row is the stored one in either case.
	GetOrCreate(ctx context.Context, u *FeatureUsage) (*FeatureUsage, error)
	Get(ctx context.Context, subscriptionID, featureID string) (*FeatureUsage, error)
	Update(ctx context.Context, u *FeatureUsage) error
	// Increment atomically adds the deltas to the row's counters.
	Increment(ctx context.Context, id string, usedDelta, overageDelta int64) error
	// ResetPeriod zeroes the counters and restamps the period bounds only if
	// the stored reset_at still equals expectedResetAt. Returns false when
	// another caller reset the row first.
	ResetPeriod(ctx context.Context, id string, expectedResetAt, periodStart, periodEnd time.Time) (bool, error)
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*FeatureUsage, error)
	DeleteBySubscription(ctx context.Context, subscriptionID string) error
}
