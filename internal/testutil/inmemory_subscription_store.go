package testutil

import (
	"context"

	"github.com/ntechservices/subscription/internal/domain/subscription"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
	"github.com/samber/lo"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

// NewInMemorySubscriptionStore creates a new in-memory subscription store
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	if sub == nil {
		return nil
	}
	copied := *sub
	if sub.CouponID != nil {
		couponID := *sub.CouponID
		copied.CouponID = &couponID
	}
	if sub.TrialEndsAt != nil {
		trialEndsAt := *sub.TrialEndsAt
		copied.TrialEndsAt = &trialEndsAt
	}
	if sub.LastBillingDate != nil {
		lastBillingDate := *sub.LastBillingDate
		copied.LastBillingDate = &lastBillingDate
	}
	return &copied
}

func subscriptionFilterFn(ctx context.Context, sub *subscription.Subscription) bool {
	if sub == nil {
		return false
	}
	if tenantID := types.GetTenantID(ctx); tenantID != "" && sub.TenantID != tenantID {
		return false
	}
	return sub.Status == types.StatusPublished
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !subscriptionFilterFn(ctx, sub) {
		return nil, ierr.NewError("subscription not found").
			WithHint("The subscription does not exist or was deleted").
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if err := s.InMemoryStore.Update(ctx, sub.ID, copySubscription(sub)); err != nil {
		return ierr.NewError("subscription not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemorySubscriptionStore) Delete(ctx context.Context, id string) error {
	if err := s.InMemoryStore.Delete(ctx, id); err != nil {
		return ierr.NewError("subscription not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemorySubscriptionStore) ListBySubscriber(ctx context.Context, subscriber types.Subscriber) ([]*subscription.Subscription, error) {
	subs, err := s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return subscriptionFilterFn(ctx, sub) && sub.Subscriber == subscriber
	}, func(i, j *subscription.Subscription) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	result := make([]*subscription.Subscription, len(subs))
	for i, sub := range subs {
		result[i] = copySubscription(sub)
	}
	return result, nil
}

func (s *InMemorySubscriptionStore) GetOpenBySubscriber(ctx context.Context, subscriber types.Subscriber) (*subscription.Subscription, error) {
	open := types.OpenSubscriptionStatuses()
	subs, err := s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return subscriptionFilterFn(ctx, sub) &&
			sub.Subscriber == subscriber &&
			lo.Contains(open, sub.SubStatus)
	}, func(i, j *subscription.Subscription) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ierr.NewError("subscription not found").
			WithHint("The subscriber has no open subscription").
			WithReportableDetails(map[string]any{
				"subscriber": subscriber.Key(),
			}).
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(subs[0]), nil
}

func (s *InMemorySubscriptionStore) ListByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*subscription.Subscription, error) {
	subs, err := s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return subscriptionFilterFn(ctx, sub) && sub.SubStatus == status
	}, func(i, j *subscription.Subscription) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	result := make([]*subscription.Subscription, len(subs))
	for i, sub := range subs {
		result[i] = copySubscription(sub)
	}
	return result, nil
}
