package subscription

import (
	"testing"
	"time"

	"github.com/ntechservices/subscription/internal/types"
	"github.com/stretchr/testify/assert"
)

func baseSubscription(status types.SubscriptionStatus, now time.Time) *Subscription {
	return &Subscription{
		ID:              "subs_test",
		Subscriber:      types.Subscriber{Type: "user", ID: "user_1"},
		PlanID:          "plan_test",
		PlanPriceID:     "price_test",
		StartDate:       now.AddDate(0, 0, -10),
		NextBillingDate: now.AddDate(0, 0, 20),
		SubStatus:       status,
	}
}

func TestIsActive(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	trialEnd := now.AddDate(0, 0, 5)
	trialOver := now.AddDate(0, 0, -1)

	testCases := []struct {
		name     string
		mutate   func(s *Subscription)
		expected bool
	}{
		{
			name:     "active_before_billing_date",
			mutate:   func(s *Subscription) {},
			expected: true,
		},
		{
			name: "active_past_billing_date_no_grace",
			mutate: func(s *Subscription) {
				s.NextBillingDate = now.AddDate(0, 0, -1)
			},
			expected: false,
		},
		{
			name: "active_past_billing_date_inside_grace",
			mutate: func(s *Subscription) {
				s.NextBillingDate = now.AddDate(0, 0, -1)
				s.GraceValue = 1
				s.GraceCycle = types.BillingCycleWeekly
			},
			expected: true,
		},
		{
			name: "active_past_billing_date_grace_exhausted",
			mutate: func(s *Subscription) {
				s.NextBillingDate = now.AddDate(0, 0, -10)
				s.GraceValue = 1
				s.GraceCycle = types.BillingCycleWeekly
			},
			expected: false,
		},
		{
			name: "active_trial_overlay_covers_lapsed_billing",
			mutate: func(s *Subscription) {
				s.NextBillingDate = now.AddDate(0, 0, -1)
				s.TrialEndsAt = &trialEnd
			},
			expected: true,
		},
		{
			name: "trialing_inside_window",
			mutate: func(s *Subscription) {
				s.SubStatus = types.SubscriptionStatusTrialing
				s.TrialEndsAt = &trialEnd
			},
			expected: true,
		},
		{
			name: "trialing_window_over",
			mutate: func(s *Subscription) {
				s.SubStatus = types.SubscriptionStatusTrialing
				s.TrialEndsAt = &trialOver
			},
			expected: false,
		},
		{
			name: "trialing_without_trial_end",
			mutate: func(s *Subscription) {
				s.SubStatus = types.SubscriptionStatusTrialing
			},
			expected: false,
		},
		{
			name: "pending_is_not_active",
			mutate: func(s *Subscription) {
				s.SubStatus = types.SubscriptionStatusPending
			},
			expected: false,
		},
		{
			name: "canceled_is_not_active",
			mutate: func(s *Subscription) {
				s.SubStatus = types.SubscriptionStatusCanceled
			},
			expected: false,
		},
		{
			name: "suspended_is_not_active",
			mutate: func(s *Subscription) {
				s.SubStatus = types.SubscriptionStatusSuspended
			},
			expected: false,
		},
		{
			name: "canceled_ignores_grace",
			mutate: func(s *Subscription) {
				s.SubStatus = types.SubscriptionStatusCanceled
				s.GraceValue = 1
				s.GraceCycle = types.BillingCycleMonthly
			},
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := baseSubscription(types.SubscriptionStatusActive, now)
			tc.mutate(s)
			assert.Equal(t, tc.expected, s.IsActive(now))
		})
	}
}

func TestGracePeriodEndUsesFixedDays(t *testing.T) {
	now := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	s := baseSubscription(types.SubscriptionStatusActive, now)
	s.NextBillingDate = now
	s.GraceValue = 1
	s.GraceCycle = types.BillingCycleMonthly

	// Grace is a fixed 30 days, not one calendar month: from Jan 31 it ends
	// Mar 2, where calendar arithmetic would clamp to Feb 28.
	assert.True(t, s.GracePeriodEnd().Equal(now.AddDate(0, 0, 30)))

	s.GraceValue = 2
	s.GraceCycle = types.BillingCycleWeekly
	assert.True(t, s.GracePeriodEnd().Equal(now.AddDate(0, 0, 14)))
}

func TestInGracePeriod(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	s := baseSubscription(types.SubscriptionStatusActive, now)
	s.NextBillingDate = now.AddDate(0, 0, -3)

	assert.False(t, s.InGracePeriod(now), "no grace configured")

	s.GraceValue = 1
	s.GraceCycle = types.BillingCycleWeekly
	assert.True(t, s.InGracePeriod(now))

	s.NextBillingDate = now.AddDate(0, 0, -7)
	assert.False(t, s.InGracePeriod(now), "grace window closed exactly at its end")
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	s := baseSubscription(types.SubscriptionStatusActive, now)

	s.NextBillingDate = now
	assert.False(t, s.IsExpired(now), "expiry is strict: the billing instant itself has not passed")

	s.NextBillingDate = now.Add(-time.Second)
	assert.True(t, s.IsExpired(now))
}

func TestSubscriptionValidate(t *testing.T) {
	now := time.Now().UTC()

	s := baseSubscription(types.SubscriptionStatusActive, now)
	assert.NoError(t, s.Validate())

	s = baseSubscription(types.SubscriptionStatusActive, now)
	s.Subscriber.ID = ""
	assert.Error(t, s.Validate())

	s = baseSubscription(types.SubscriptionStatusActive, now)
	s.PlanID = ""
	assert.Error(t, s.Validate())

	s = baseSubscription("bogus", now)
	assert.Error(t, s.Validate())
}
