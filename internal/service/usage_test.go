package service

import (
	"testing"
	"time"

	"github.com/ntechservices/subscription/internal/domain/feature"
	"github.com/ntechservices/subscription/internal/domain/plan"
	"github.com/ntechservices/subscription/internal/domain/price"
	"github.com/ntechservices/subscription/internal/domain/subscription"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/testutil"
	"github.com/ntechservices/subscription/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type FeatureUsageServiceSuite struct {
	testutil.BaseServiceTestSuite
	service FeatureUsageService
	planSvc PlanService

	plan    *plan.Plan
	monthly *price.Price
	sub     *subscription.Subscription
}

func TestFeatureUsageService(t *testing.T) {
	suite.Run(t, new(FeatureUsageServiceSuite))
}

func (s *FeatureUsageServiceSuite) params() ServiceParams {
	return ServiceParams{
		Logger:          s.GetLogger(),
		Config:          s.GetConfig(),
		DB:              s.GetStores().DB,
		PlanRepo:        s.GetStores().PlanRepo,
		PriceRepo:       s.GetStores().PriceRepo,
		FeatureRepo:     s.GetStores().FeatureRepo,
		EntitlementRepo: s.GetStores().EntitlementRepo,
		CouponRepo:      s.GetStores().CouponRepo,
		SubRepo:         s.GetStores().SubRepo,
		HistoryRepo:     s.GetStores().HistoryRepo,
		UsageRepo:       s.GetStores().UsageRepo,
	}
}

func (s *FeatureUsageServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewFeatureUsageService(s.params())
	s.planSvc = NewPlanService(s.params())

	var err error
	s.plan, err = s.planSvc.CreatePlan(s.GetContext(), &plan.Plan{Name: "Pro", LookupKey: "pro"})
	s.NoError(err)
	s.monthly, err = s.planSvc.CreatePrice(s.GetContext(), &price.Price{
		PlanID:       s.plan.ID,
		Amount:       decimal.NewFromInt(50),
		Currency:     "USD",
		BillingCycle: types.BillingCycleMonthly,
	})
	s.NoError(err)

	now := time.Now().UTC()
	s.sub = &subscription.Subscription{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		Subscriber:      types.Subscriber{Type: "user", ID: "user_1"},
		PlanID:          s.plan.ID,
		PlanPriceID:     s.monthly.ID,
		StartDate:       now.AddDate(0, 0, -5),
		NextBillingDate: now.AddDate(0, 0, 25),
		AmountDue:       decimal.NewFromInt(50),
		Currency:        "USD",
		SubStatus:       types.SubscriptionStatusActive,
		BaseModel:       types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().SubRepo.Create(s.GetContext(), s.sub))
}

func (s *FeatureUsageServiceSuite) grantFeature(name string, value types.FeatureValue, softLimit bool) *feature.Feature {
	f, err := s.planSvc.CreateFeature(s.GetContext(), &feature.Feature{Name: name})
	s.NoError(err)
	_, err = s.planSvc.SetPlanFeature(s.GetContext(), s.plan.ID, f.ID, value, softLimit)
	s.NoError(err)
	return f
}

func (s *FeatureUsageServiceSuite) TestIncrementWithinLimit() {
	s.grantFeature("api_calls", "10", false)

	row, err := s.service.IncrementUsage(s.GetContext(), s.sub.ID, "api_calls", 3)
	s.NoError(err)
	s.Equal(int64(3), row.Used)

	row, err = s.service.IncrementUsage(s.GetContext(), s.sub.ID, "api_calls", 4)
	s.NoError(err)
	s.Equal(int64(7), row.Used)
	s.Equal(int64(0), row.OverageCount)
}

func (s *FeatureUsageServiceSuite) TestHardLimitRejectsOverflow() {
	s.grantFeature("api_calls", "5", false)

	_, err := s.service.IncrementUsage(s.GetContext(), s.sub.ID, "api_calls", 5)
	s.NoError(err, "consuming exactly the limit succeeds")

	_, err = s.service.IncrementUsage(s.GetContext(), s.sub.ID, "api_calls", 1)
	s.Error(err)
	s.True(ierr.IsUsageLimitExceeded(err))

	// The rejected call must not have consumed anything.
	row, err := s.service.GetUsage(s.GetContext(), s.sub.ID, "api_calls")
	s.NoError(err)
	s.Equal(int64(5), row.Used)
}

func (s *FeatureUsageServiceSuite) TestSoftLimitAbsorbsOverflow() {
	s.grantFeature("api_calls", "5", true)

	row, err := s.service.IncrementUsage(s.GetContext(), s.sub.ID, "api_calls", 4)
	s.NoError(err)
	s.Equal(int64(0), row.OverageCount)

	row, err = s.service.IncrementUsage(s.GetContext(), s.sub.ID, "api_calls", 3)
	s.NoError(err, "a soft limit never fails the call")
	s.Equal(int64(7), row.Used)
	s.Equal(int64(2), row.OverageCount, "only the spill past the limit counts as overage")
}

func (s *FeatureUsageServiceSuite) TestUnlimitedFeatureNeverBlocks() {
	s.grantFeature("storage", "unlimited", false)

	row, err := s.service.IncrementUsage(s.GetContext(), s.sub.ID, "storage", 1_000_000)
	s.NoError(err)
	s.Equal(int64(1_000_000), row.Used)
}

func (s *FeatureUsageServiceSuite) TestUngrantedFeatureUnavailable() {
	_, err := s.service.IncrementUsage(s.GetContext(), s.sub.ID, "unknown", 1)
	s.Error(err)
	s.True(ierr.IsFeatureUnavailable(err))
}

func (s *FeatureUsageServiceSuite) TestInactiveSubscriptionUnavailable() {
	s.grantFeature("api_calls", "10", false)

	stored, err := s.GetStores().SubRepo.Get(s.GetContext(), s.sub.ID)
	s.NoError(err)
	stored.SubStatus = types.SubscriptionStatusCanceled
	s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), stored))

	_, err = s.service.IncrementUsage(s.GetContext(), s.sub.ID, "api_calls", 1)
	s.Error(err)
	s.True(ierr.IsFeatureUnavailable(err))
}

func (s *FeatureUsageServiceSuite) TestGetUsageIsIdempotentWithinPeriod() {
	s.grantFeature("api_calls", "10", false)

	_, err := s.service.IncrementUsage(s.GetContext(), s.sub.ID, "api_calls", 2)
	s.NoError(err)

	first, err := s.service.GetUsage(s.GetContext(), s.sub.ID, "api_calls")
	s.NoError(err)
	second, err := s.service.GetUsage(s.GetContext(), s.sub.ID, "api_calls")
	s.NoError(err)
	s.Equal(first.Used, second.Used)
	s.True(first.ResetAt.Equal(second.ResetAt))
}

func (s *FeatureUsageServiceSuite) TestRolloverResetsThenIncrements() {
	s.grantFeature("api_calls", "10", false)

	_, err := s.service.IncrementUsage(s.GetContext(), s.sub.ID, "api_calls", 9)
	s.NoError(err)

	// Age the row into the previous period.
	row, err := s.GetStores().UsageRepo.Get(s.GetContext(), s.sub.ID, s.featureID("api_calls"))
	s.NoError(err)
	row.ResetAt = time.Now().UTC().AddDate(0, 0, -1)
	s.NoError(s.GetStores().UsageRepo.Update(s.GetContext(), row))

	// The next increment lands in a fresh period, so the old 9 units are
	// gone and the counter starts over.
	fresh, err := s.service.IncrementUsage(s.GetContext(), s.sub.ID, "api_calls", 2)
	s.NoError(err)
	s.Equal(int64(2), fresh.Used)
	s.True(fresh.ResetAt.Equal(s.subNextBillingDate()))
}

func (s *FeatureUsageServiceSuite) TestBillingDateDriftForcesReset() {
	s.grantFeature("api_calls", "10", false)

	_, err := s.service.IncrementUsage(s.GetContext(), s.sub.ID, "api_calls", 5)
	s.NoError(err)

	// An admin moved the billing date; the stamped reset instant now drifts
	// more than a day from it.
	stored, err := s.GetStores().SubRepo.Get(s.GetContext(), s.sub.ID)
	s.NoError(err)
	stored.NextBillingDate = stored.NextBillingDate.AddDate(0, 0, 10)
	s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), stored))

	row, err := s.service.GetUsage(s.GetContext(), s.sub.ID, "api_calls")
	s.NoError(err)
	s.Equal(int64(0), row.Used, "drifted rows reset on the next touch")
	s.True(row.ResetAt.Equal(stored.NextBillingDate))
}

func (s *FeatureUsageServiceSuite) TestGetFeatureUsageDetails() {
	s.grantFeature("api_calls", "3", false)

	_, err := s.service.IncrementUsage(s.GetContext(), s.sub.ID, "api_calls", 1)
	s.NoError(err)

	details, err := s.service.GetFeatureUsageDetails(s.GetContext(), s.sub.ID, "api_calls")
	s.NoError(err)
	s.Equal(int64(1), details.Used)
	s.NotNil(details.Remaining)
	s.Equal(int64(2), *details.Remaining)
	s.False(details.IsUnlimited)
	s.False(details.HasReachedLimit)
	s.InDelta(33.33, details.PercentageUsed, 0.001, "percentage rounds to two decimals")

	_, err = s.service.IncrementUsage(s.GetContext(), s.sub.ID, "api_calls", 2)
	s.NoError(err)
	details, err = s.service.GetFeatureUsageDetails(s.GetContext(), s.sub.ID, "api_calls")
	s.NoError(err)
	s.True(details.HasReachedLimit)
	s.InDelta(100, details.PercentageUsed, 0.001)
}

func (s *FeatureUsageServiceSuite) TestGetFeatureUsageDetailsUnlimited() {
	s.grantFeature("storage", "unlimited", false)

	_, err := s.service.IncrementUsage(s.GetContext(), s.sub.ID, "storage", 42)
	s.NoError(err)

	details, err := s.service.GetFeatureUsageDetails(s.GetContext(), s.sub.ID, "storage")
	s.NoError(err)
	s.True(details.IsUnlimited)
	s.Nil(details.Remaining)
	s.False(details.HasReachedLimit)
	s.Zero(details.PercentageUsed)
}

func (s *FeatureUsageServiceSuite) TestCurrentPeriodStart() {
	start, err := s.service.CurrentPeriodStart(s.GetContext(), s.sub)
	s.NoError(err)

	// Active subscriptions back off one fixed 30-day cycle from the next
	// billing date, clamped to the subscription start.
	expected := s.sub.NextBillingDate.AddDate(0, 0, -30)
	if expected.Before(s.sub.StartDate) {
		expected = s.sub.StartDate
	}
	s.True(start.Equal(expected))

	trialing := *s.sub
	trialing.SubStatus = types.SubscriptionStatusTrialing
	start, err = s.service.CurrentPeriodStart(s.GetContext(), &trialing)
	s.NoError(err)
	s.True(start.Equal(s.sub.StartDate), "trialing periods start at the subscription start")
}

func (s *FeatureUsageServiceSuite) TestResetUsage() {
	s.grantFeature("api_calls", "10", false)

	_, err := s.service.IncrementUsage(s.GetContext(), s.sub.ID, "api_calls", 7)
	s.NoError(err)
	s.NoError(s.service.ResetUsage(s.GetContext(), s.sub.ID, "api_calls"))

	row, err := s.service.GetUsage(s.GetContext(), s.sub.ID, "api_calls")
	s.NoError(err)
	s.Equal(int64(0), row.Used)
}

func (s *FeatureUsageServiceSuite) featureID(name string) string {
	f, err := s.GetStores().FeatureRepo.GetByName(s.GetContext(), name)
	s.NoError(err)
	return f.ID
}

func (s *FeatureUsageServiceSuite) subNextBillingDate() time.Time {
	stored, err := s.GetStores().SubRepo.Get(s.GetContext(), s.sub.ID)
	s.NoError(err)
	return stored.NextBillingDate
}
