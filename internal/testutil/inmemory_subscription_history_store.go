package testutil

import (
	"context"

	"github.com/ntechservices/subscription/internal/domain/subscription"
	ierr "github.com/ntechservices/subscription/internal/errors"
)

// InMemorySubscriptionHistoryStore implements subscription.HistoryRepository
type InMemorySubscriptionHistoryStore struct {
	*InMemoryStore[*subscription.History]
}

// NewInMemorySubscriptionHistoryStore creates a new in-memory history store
func NewInMemorySubscriptionHistoryStore() *InMemorySubscriptionHistoryStore {
	return &InMemorySubscriptionHistoryStore{
		InMemoryStore: NewInMemoryStore[*subscription.History](),
	}
}

func (s *InMemorySubscriptionHistoryStore) Create(ctx context.Context, h *subscription.History) error {
	if h == nil {
		return ierr.NewError("history cannot be nil").
			Mark(ierr.ErrValidation)
	}
	copied := *h
	return s.InMemoryStore.Create(ctx, h.ID, &copied)
}

func (s *InMemorySubscriptionHistoryStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*subscription.History, error) {
	histories, err := s.InMemoryStore.List(ctx, func(ctx context.Context, h *subscription.History) bool {
		return h != nil && h.SubscriptionID == subscriptionID
	}, func(i, j *subscription.History) bool {
		return i.CreatedAt.Before(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	result := make([]*subscription.History, len(histories))
	for i, h := range histories {
		copied := *h
		result[i] = &copied
	}
	return result, nil
}
