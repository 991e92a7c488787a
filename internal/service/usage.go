package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/ntechservices/subscription/internal/domain/entitlement"
	"github.com/ntechservices/subscription/internal/domain/feature"
	"github.com/ntechservices/subscription/internal/domain/subscription"
	"github.com/ntechservices/subscription/internal/domain/usage"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
	"github.com/shopspring/decimal"
)

const usageLockStripes = 64

// FeatureUsageDetails is the read model for a feature's consumption state
// within the current billing period.
type FeatureUsageDetails struct {
	FeatureID       string             `json:"feature_id"`
	FeatureName     string             `json:"feature_name"`
	Limit           types.FeatureValue `json:"limit"`
	Used            int64              `json:"used"`
	Remaining       *int64             `json:"remaining"`
	PercentageUsed  float64            `json:"percentage_used"`
	IsUnlimited     bool               `json:"is_unlimited"`
	HasReachedLimit bool               `json:"has_reached_limit"`
	IsSoftLimit     bool               `json:"is_soft_limit"`
	OverageCount    int64              `json:"overage_count"`
	PeriodStart     time.Time          `json:"period_start"`
	PeriodEnd       time.Time          `json:"period_end"`
}

// FeatureUsageService meters feature consumption against entitlement limits.
// Counters reset lazily: nothing runs on a schedule, the first touch after a
// period boundary restamps the row.
type FeatureUsageService interface {
	// IncrementUsage consumes amount units of the feature. It resolves the
	// entitlement, rolls the counter over if the period lapsed, then adds.
	// Hard limits reject the overflowing call; soft limits absorb it into
	// the overage counter.
	IncrementUsage(ctx context.Context, subscriptionID, featureName string, amount int64) (*usage.FeatureUsage, error)
	// GetUsage returns the current-period row, applying the same rollover
	// check as the write path. Reading is idempotent within a period.
	GetUsage(ctx context.Context, subscriptionID, featureName string) (*usage.FeatureUsage, error)
	GetFeatureUsageDetails(ctx context.Context, subscriptionID, featureName string) (*FeatureUsageDetails, error)
	// CurrentPeriodStart computes the start of the running billing period.
	CurrentPeriodStart(ctx context.Context, sub *subscription.Subscription) (time.Time, error)
	// ResetUsage zeroes the feature's counter for the current period.
	ResetUsage(ctx context.Context, subscriptionID, featureName string) error
}

type featureUsageService struct {
	ServiceParams
	locks [usageLockStripes]sync.Mutex
}

func NewFeatureUsageService(params ServiceParams) FeatureUsageService {
	return &featureUsageService{ServiceParams: params}
}

// lockFor serializes mutations per (subscription, feature) pair. Striping
// keeps unrelated pairs concurrent without a lock per row.
func (s *featureUsageService) lockFor(subscriptionID, featureID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(subscriptionID))
	h.Write([]byte{':'})
	h.Write([]byte(featureID))
	return &s.locks[h.Sum32()%usageLockStripes]
}

func (s *featureUsageService) IncrementUsage(ctx context.Context, subscriptionID, featureName string, amount int64) (*usage.FeatureUsage, error) {
	if amount <= 0 {
		return nil, ierr.NewError("amount must be positive").
			WithReportableDetails(map[string]any{"amount": amount}).
			Mark(ierr.ErrValidation)
	}

	sub, f, grant, err := s.resolveForUsage(ctx, subscriptionID, featureName)
	if err != nil {
		return nil, err
	}

	if grant.Value.IsFalsy() {
		return nil, s.featureUnavailable(sub, featureName)
	}

	mu := s.lockFor(sub.ID, f.ID)
	mu.Lock()
	defer mu.Unlock()

	row, err := s.currentRow(ctx, sub, f, grant)
	if err != nil {
		return nil, err
	}

	// Unlimited and pure boolean grants have no numeric ceiling.
	limit, limited := grant.Value.Decimal()
	if grant.Value.IsUnlimited() || !limited {
		if err := s.UsageRepo.Increment(ctx, row.ID, amount, 0); err != nil {
			return nil, err
		}
		row.Used += amount
		return row, nil
	}

	attempted := row.Used + amount
	if decimal.NewFromInt(attempted).GreaterThan(limit) {
		if !grant.IsSoftLimit {
			return nil, ierr.NewError("feature usage limit exceeded").
				WithHintf("Usage limit for %s reached", featureName).
				WithReportableDetails(map[string]any{
					"feature":   featureName,
					"used":      row.Used,
					"limit":     grant.Value,
					"attempted": attempted,
				}).
				Mark(ierr.ErrUsageLimitExceeded)
		}

		// Soft limit: the call succeeds and the spill past the limit is
		// tracked separately for overage billing.
		prevOver := overageAbove(row.Used, limit)
		overageDelta := overageAbove(attempted, limit) - prevOver
		if err := s.UsageRepo.Increment(ctx, row.ID, amount, overageDelta); err != nil {
			return nil, err
		}
		row.Used = attempted
		row.OverageCount += overageDelta
		return row, nil
	}

	if err := s.UsageRepo.Increment(ctx, row.ID, amount, 0); err != nil {
		return nil, err
	}
	row.Used = attempted
	return row, nil
}

func (s *featureUsageService) GetUsage(ctx context.Context, subscriptionID, featureName string) (*usage.FeatureUsage, error) {
	sub, f, grant, err := s.resolveForUsage(ctx, subscriptionID, featureName)
	if err != nil {
		return nil, err
	}

	mu := s.lockFor(sub.ID, f.ID)
	mu.Lock()
	defer mu.Unlock()

	return s.currentRow(ctx, sub, f, grant)
}

func (s *featureUsageService) GetFeatureUsageDetails(ctx context.Context, subscriptionID, featureName string) (*FeatureUsageDetails, error) {
	sub, f, grant, err := s.resolveForUsage(ctx, subscriptionID, featureName)
	if err != nil {
		return nil, err
	}

	mu := s.lockFor(sub.ID, f.ID)
	mu.Lock()
	row, err := s.currentRow(ctx, sub, f, grant)
	mu.Unlock()
	if err != nil {
		return nil, err
	}

	details := &FeatureUsageDetails{
		FeatureID:    f.ID,
		FeatureName:  f.Name,
		Limit:        grant.Value,
		Used:         row.Used,
		IsUnlimited:  grant.Value.IsUnlimited(),
		IsSoftLimit:  grant.IsSoftLimit,
		OverageCount: row.OverageCount,
		PeriodStart:  row.PeriodStart,
		PeriodEnd:    row.PeriodEnd,
	}

	if details.IsUnlimited {
		return details, nil
	}

	limit, ok := grant.Value.Decimal()
	if !ok {
		return details, nil
	}

	limitInt := limit.IntPart()
	remaining := limitInt - row.Used
	if remaining < 0 {
		remaining = 0
	}
	details.Remaining = &remaining
	details.HasReachedLimit = row.Used >= limitInt

	switch {
	case limitInt > 0:
		pct := decimal.NewFromInt(row.Used).
			Div(decimal.NewFromInt(limitInt)).
			Mul(decimal.NewFromInt(100)).
			Round(2)
		details.PercentageUsed, _ = pct.Float64()
	case row.Used > 0:
		details.PercentageUsed = 100
	}

	return details, nil
}

func (s *featureUsageService) CurrentPeriodStart(ctx context.Context, sub *subscription.Subscription) (time.Time, error) {
	if sub.SubStatus == types.SubscriptionStatusTrialing {
		return sub.StartDate, nil
	}

	pr, err := s.PriceRepo.Get(ctx, sub.PlanPriceID)
	if err != nil {
		return time.Time{}, err
	}

	// Back off one fixed-day cycle from the next billing date, never before
	// the subscription started.
	start := sub.NextBillingDate.AddDate(0, 0, -pr.BillingCycle.FixedDays())
	if start.Before(sub.StartDate) {
		start = sub.StartDate
	}
	return start, nil
}

func (s *featureUsageService) ResetUsage(ctx context.Context, subscriptionID, featureName string) error {
	sub, f, grant, err := s.resolveForUsage(ctx, subscriptionID, featureName)
	if err != nil {
		return err
	}

	mu := s.lockFor(sub.ID, f.ID)
	mu.Lock()
	defer mu.Unlock()

	row, err := s.currentRow(ctx, sub, f, grant)
	if err != nil {
		return err
	}

	periodStart, err := s.CurrentPeriodStart(ctx, sub)
	if err != nil {
		return err
	}

	row.Reset(periodStart, sub.NextBillingDate)
	return s.UsageRepo.Update(ctx, row)
}

// resolveForUsage loads the subscription, feature and effective grant for a
// usage operation. Unlike entitlement reads, metering fails hard: a missing
// or inactive subscription and an absent grant are typed errors the caller
// can map to a response.
func (s *featureUsageService) resolveForUsage(ctx context.Context, subscriptionID, featureName string) (*subscription.Subscription, *feature.Feature, *entitlement.Entitlement, error) {
	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !sub.IsActive(time.Now().UTC()) {
		return nil, nil, nil, s.featureUnavailable(sub, featureName)
	}

	f, err := s.FeatureRepo.GetByName(ctx, featureName)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil, nil, s.featureUnavailable(sub, featureName)
		}
		return nil, nil, nil, err
	}

	grant, err := s.EntitlementRepo.GetByEntityAndFeature(ctx, types.EntitlementEntityTypePrice, sub.PlanPriceID, f.ID)
	if err != nil {
		if !ierr.IsNotFound(err) {
			return nil, nil, nil, err
		}
		grant, err = s.EntitlementRepo.GetByEntityAndFeature(ctx, types.EntitlementEntityTypePlan, sub.PlanID, f.ID)
		if err != nil {
			if ierr.IsNotFound(err) {
				return nil, nil, nil, s.featureUnavailable(sub, featureName)
			}
			return nil, nil, nil, err
		}
	}

	return sub, f, grant, nil
}

// currentRow returns the usage row for the pair, creating it on first touch
// and rolling it over when its period lapsed. Callers must hold the stripe
// lock for the pair.
func (s *featureUsageService) currentRow(ctx context.Context, sub *subscription.Subscription, f *feature.Feature, grant *entitlement.Entitlement) (*usage.FeatureUsage, error) {
	periodStart, err := s.CurrentPeriodStart(ctx, sub)
	if err != nil {
		return nil, err
	}

	row, err := s.UsageRepo.GetOrCreate(ctx, &usage.FeatureUsage{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEATURE_USAGE),
		SubscriptionID: sub.ID,
		FeatureID:      f.ID,
		CachedLimit:    grant.Value,
		PeriodStart:    periodStart,
		PeriodEnd:      sub.NextBillingDate,
		ResetAt:        sub.NextBillingDate,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if row.NeedsReset(now, sub.NextBillingDate) {
		won, err := s.UsageRepo.ResetPeriod(ctx, row.ID, row.ResetAt, periodStart, sub.NextBillingDate)
		if err != nil {
			return nil, err
		}
		if won {
			s.Logger.Debugw("rolled usage counter into new period",
				"subscription_id", sub.ID,
				"feature_id", f.ID,
				"period_end", sub.NextBillingDate,
			)
		}
		// Re-read either way: a racing caller may have won the reset.
		row, err = s.UsageRepo.Get(ctx, sub.ID, f.ID)
		if err != nil {
			return nil, err
		}
	}

	if row.CachedLimit != grant.Value {
		row.CachedLimit = grant.Value
		if err := s.UsageRepo.Update(ctx, row); err != nil {
			return nil, err
		}
	}

	return row, nil
}

func (s *featureUsageService) featureUnavailable(sub *subscription.Subscription, featureName string) error {
	return ierr.NewError("feature not available on the subscribed plan").
		WithHintf("Feature %s is not part of your subscription", featureName).
		WithReportableDetails(map[string]any{
			"subscription_id": sub.ID,
			"plan_id":         sub.PlanID,
			"feature":         featureName,
		}).
		Mark(ierr.ErrFeatureUnavailable)
}

// overageAbove returns how far used sits past the limit, floored at zero
func overageAbove(used int64, limit decimal.Decimal) int64 {
	over := used - limit.IntPart()
	if over < 0 {
		return 0
	}
	return over
}
