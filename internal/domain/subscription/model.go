package subscription

import (
	"time"

	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
	"github.com/shopspring/decimal"
)

// Subscription ties a subscriber to a plan price and tracks its billing
// state. All date checks are parameterized on a clock instant so the model
// stays pure and testable.
type Subscription struct {
	ID              string                   `db:"id" json:"id"`
	Subscriber      types.Subscriber         `json:"subscriber"`
	PlanID          string                   `db:"plan_id" json:"plan_id"`
	PlanPriceID     string                   `db:"plan_price_id" json:"plan_price_id"`
	CouponID        *string                  `db:"coupon_id" json:"coupon_id"`
	StartDate       time.Time                `db:"start_date" json:"start_date"`
	TrialEndsAt     *time.Time               `db:"trial_ends_at" json:"trial_ends_at"`
	NextBillingDate time.Time                `db:"next_billing_date" json:"next_billing_date"`
	LastBillingDate *time.Time               `db:"last_billing_date" json:"last_billing_date"`
	AmountDue       decimal.Decimal          `db:"amount_due" json:"amount_due"`
	ProratedAmount  decimal.Decimal          `db:"prorated_amount" json:"prorated_amount"`
	Currency        string                   `db:"currency" json:"currency"`
	SubStatus       types.SubscriptionStatus `db:"sub_status" json:"sub_status"`
	GraceValue      int                      `db:"grace_value" json:"grace_value"`
	GraceCycle      types.BillingCycle       `db:"grace_cycle" json:"grace_cycle"`
	types.BaseModel
}

// IsExpired reports whether the billing date has passed
func (s *Subscription) IsExpired(now time.Time) bool {
	return now.After(s.NextBillingDate)
}

// IsInTrialPeriod reports whether the subscription is inside its trial window
func (s *Subscription) IsInTrialPeriod(now time.Time) bool {
	return s.TrialEndsAt != nil && now.Before(*s.TrialEndsAt)
}

// GracePeriodEnd returns the end of the grace window. Grace length is the
// fixed-day table (daily=1, weekly=7, monthly=30, quarterly=90, yearly=365)
// multiplied by the grace value; it deliberately does not use calendar
// arithmetic the way trials do.
func (s *Subscription) GracePeriodEnd() time.Time {
	days := s.GraceCycle.FixedDays() * s.GraceValue
	return s.NextBillingDate.AddDate(0, 0, days)
}

// InGracePeriod reports whether now falls inside the grace window that
// follows the next billing date
func (s *Subscription) InGracePeriod(now time.Time) bool {
	if s.GraceValue <= 0 || s.GraceCycle == "" {
		return false
	}
	return now.Before(s.GracePeriodEnd())
}

// IsActive is the gate every entitlement check goes through. It combines
// three signals: the status flag, calendar expiry against the next billing
// date, and the grace/trial overlays. A subscription with status active but
// past its billing date is NOT active unless grace covers now; a trialing
// subscription is active only while the trial window lasts.
func (s *Subscription) IsActive(now time.Time) bool {
	switch s.SubStatus {
	case types.SubscriptionStatusTrialing:
		return s.IsInTrialPeriod(now)
	case types.SubscriptionStatusActive:
	default:
		return false
	}

	if s.IsInTrialPeriod(now) {
		return true
	}

	if s.IsExpired(now) {
		return s.InGracePeriod(now)
	}

	return true
}

// Validate performs validation on the subscription
func (s *Subscription) Validate() error {
	if err := s.Subscriber.Validate(); err != nil {
		return err
	}
	if s.PlanID == "" {
		return ierr.NewError("plan_id is required").
			WithHint("Please provide a valid plan ID").
			Mark(ierr.ErrValidation)
	}
	if s.PlanPriceID == "" {
		return ierr.NewError("plan_price_id is required").
			WithHint("Please provide a valid plan price ID").
			Mark(ierr.ErrValidation)
	}
	return s.SubStatus.Validate()
}
