package usage

import (
	"time"

	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
)

// FeatureUsage is the per-period counter for a (subscription, feature) pair.
// A single row is reused across billing periods: on rollover the counter is
// reset in place and ResetAt advanced, rather than appending a row per
// period. Unique per (subscription_id, feature_id).
type FeatureUsage struct {
	ID             string             `db:"id" json:"id"`
	SubscriptionID string             `db:"subscription_id" json:"subscription_id"`
	FeatureID      string             `db:"feature_id" json:"feature_id"`
	Used           int64              `db:"used" json:"used"`
	CachedLimit    types.FeatureValue `db:"cached_limit" json:"cached_limit"`
	OverageCount   int64              `db:"overage_count" json:"overage_count"`
	PeriodStart    time.Time          `db:"period_start" json:"period_start"`
	PeriodEnd      time.Time          `db:"period_end" json:"period_end"`
	ResetAt        time.Time          `db:"reset_at" json:"reset_at"`
	types.BaseModel
}

// NeedsReset reports whether the row belongs to a lapsed period. Two cases:
// the stamped reset instant has passed, or the subscription's billing date
// has drifted more than a day from the stamp (an admin moved the billing
// date after the row was written).
func (u *FeatureUsage) NeedsReset(now, nextBillingDate time.Time) bool {
	if now.After(u.ResetAt) {
		return true
	}

	drift := u.ResetAt.Sub(nextBillingDate)
	if drift < 0 {
		drift = -drift
	}
	return drift > 24*time.Hour
}

// Reset zeroes the counters and restamps the period bounds in place
func (u *FeatureUsage) Reset(periodStart, periodEnd time.Time) {
	u.Used = 0
	u.OverageCount = 0
	u.PeriodStart = periodStart
	u.PeriodEnd = periodEnd
	u.ResetAt = periodEnd
}

// Validate performs validation on the usage row
func (u *FeatureUsage) Validate() error {
	if u.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Please provide a valid subscription ID").
			Mark(ierr.ErrValidation)
	}
	if u.FeatureID == "" {
		return ierr.NewError("feature_id is required").
			WithHint("Please provide a valid feature ID").
			Mark(ierr.ErrValidation)
	}
	if u.Used < 0 {
		return ierr.NewError("used cannot be negative").
			WithReportableDetails(map[string]any{
				"used": u.Used,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
