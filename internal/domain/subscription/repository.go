package subscription

import (
	"context"

	"github.com/ntechservices/subscription/internal/types"
)

// Repository defines the interface for subscription persistence
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
	Delete(ctx context.Context, id string) error
	ListBySubscriber(ctx context.Context, subscriber types.Subscriber) ([]*Subscription, error)
	// GetOpenBySubscriber returns the subscriber's pending, trialing or
	// active subscription, if any. At most one such subscription may exist
	// per subscriber; this is how the invariant is checked.
	GetOpenBySubscriber(ctx context.Context, subscriber types.Subscriber) (*Subscription, error)
	ListByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*Subscription, error)
}

// HistoryRepository defines the interface for the append-only audit log
type HistoryRepository interface {
	Create(ctx context.Context, h *History) error
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*History, error)
}
