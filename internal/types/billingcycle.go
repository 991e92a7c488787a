package types

import (
	"time"

	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/samber/lo"
)

// BillingCycle is the recurring period at which a subscription rebills.
// The same enum drives trial length units and grace period units.
type BillingCycle string

const (
	BillingCycleDaily     BillingCycle = "daily"
	BillingCycleWeekly    BillingCycle = "weekly"
	BillingCycleMonthly   BillingCycle = "monthly"
	BillingCycleQuarterly BillingCycle = "quarterly"
	BillingCycleYearly    BillingCycle = "yearly"
)

func (c BillingCycle) String() string {
	return string(c)
}

func (c BillingCycle) Validate() error {
	allowed := []BillingCycle{
		BillingCycleDaily,
		BillingCycleWeekly,
		BillingCycleMonthly,
		BillingCycleQuarterly,
		BillingCycleYearly,
	}
	if !lo.Contains(allowed, c) {
		return ierr.NewError("invalid billing cycle").
			WithHint("Invalid billing cycle").
			WithReportableDetails(map[string]any{
				"billing_cycle":  c,
				"allowed_values": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Advance returns t moved forward by one cycle using calendar arithmetic.
// Month and year steps clamp to the end of the target month, so a monthly
// subscription billed on Jan 31 rebills on Feb 28/29.
func (c BillingCycle) Advance(t time.Time) time.Time {
	return c.AdvanceBy(t, 1)
}

// AdvanceBy returns t moved forward by value cycles using calendar arithmetic.
// This is the trial and renewal math. Grace periods intentionally do NOT use
// this; they use the fixed-day table below (see FixedDays).
func (c BillingCycle) AdvanceBy(t time.Time, value int) time.Time {
	if value <= 0 {
		return t
	}
	switch c {
	case BillingCycleDaily:
		return AddClampedDate(t, 0, 0, value)
	case BillingCycleWeekly:
		return AddClampedDate(t, 0, 0, 7*value)
	case BillingCycleMonthly:
		return AddClampedDate(t, 0, value, 0)
	case BillingCycleQuarterly:
		return AddClampedDate(t, 0, 3*value, 0)
	case BillingCycleYearly:
		return AddClampedDate(t, value, 0, 0)
	default:
		return t
	}
}

// FixedDays returns the fixed day count for one cycle. Grace period length,
// proration day counts and usage period back-off multiply this table; they do
// not use calendar arithmetic. The asymmetry with AdvanceBy is the business
// rule as shipped and is covered by tests.
func (c BillingCycle) FixedDays() int {
	switch c {
	case BillingCycleDaily:
		return 1
	case BillingCycleWeekly:
		return 7
	case BillingCycleMonthly:
		return 30
	case BillingCycleQuarterly:
		return 90
	case BillingCycleYearly:
		return 365
	default:
		return 0
	}
}
