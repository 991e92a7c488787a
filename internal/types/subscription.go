package types

import (
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the business state of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusTrialing  SubscriptionStatus = "trialing"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCanceled  SubscriptionStatus = "canceled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusPending,
		SubscriptionStatusTrialing,
		SubscriptionStatusActive,
		SubscriptionStatusCanceled,
		SubscriptionStatusExpired,
		SubscriptionStatusSuspended,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Invalid subscription status").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal reports whether the status ends the subscription's lifecycle
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusCanceled || s == SubscriptionStatusExpired
}

// OpenSubscriptionStatuses are the states that count against the
// one-open-subscription-per-subscriber invariant.
func OpenSubscriptionStatuses() []SubscriptionStatus {
	return []SubscriptionStatus{
		SubscriptionStatusPending,
		SubscriptionStatusTrialing,
		SubscriptionStatusActive,
	}
}
