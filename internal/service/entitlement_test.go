package service

import (
	"testing"
	"time"

	"github.com/ntechservices/subscription/internal/domain/feature"
	"github.com/ntechservices/subscription/internal/domain/plan"
	"github.com/ntechservices/subscription/internal/domain/price"
	"github.com/ntechservices/subscription/internal/domain/subscription"
	"github.com/ntechservices/subscription/internal/testutil"
	"github.com/ntechservices/subscription/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type EntitlementServiceSuite struct {
	testutil.BaseServiceTestSuite
	service EntitlementService
	planSvc PlanService

	plan    *plan.Plan
	monthly *price.Price
	yearly  *price.Price
}

func TestEntitlementService(t *testing.T) {
	suite.Run(t, new(EntitlementServiceSuite))
}

func (s *EntitlementServiceSuite) params() ServiceParams {
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

func (s *EntitlementServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewEntitlementService(s.params())
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
	s.yearly, err = s.planSvc.CreatePrice(s.GetContext(), &price.Price{
		PlanID:       s.plan.ID,
		Amount:       decimal.NewFromInt(500),
		Currency:     "USD",
		BillingCycle: types.BillingCycleYearly,
	})
	s.NoError(err)
}

func (s *EntitlementServiceSuite) grantPlanFeature(name string, value types.FeatureValue) *feature.Feature {
	f, err := s.planSvc.CreateFeature(s.GetContext(), &feature.Feature{Name: name})
	s.NoError(err)
	_, err = s.planSvc.SetPlanFeature(s.GetContext(), s.plan.ID, f.ID, value, false)
	s.NoError(err)
	return f
}

func (s *EntitlementServiceSuite) activeSubscription(priceID string) *subscription.Subscription {
	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		Subscriber:      types.Subscriber{Type: "user", ID: "user_1"},
		PlanID:          s.plan.ID,
		PlanPriceID:     priceID,
		StartDate:       now.AddDate(0, 0, -5),
		NextBillingDate: now.AddDate(0, 0, 25),
		AmountDue:       decimal.NewFromInt(50),
		Currency:        "USD",
		SubStatus:       types.SubscriptionStatusActive,
		BaseModel:       types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().SubRepo.Create(s.GetContext(), sub))
	return sub
}

func (s *EntitlementServiceSuite) TestResolveValuePlanGrant() {
	s.grantPlanFeature("api_calls", "100")
	sub := s.activeSubscription(s.monthly.ID)

	value, err := s.service.ResolveValue(s.GetContext(), sub.ID, "api_calls")
	s.NoError(err)
	s.NotNil(value)
	s.Equal(types.FeatureValue("100"), *value)
}

func (s *EntitlementServiceSuite) TestPriceOverrideWinsOverPlanGrant() {
	f := s.grantPlanFeature("api_calls", "100")
	_, err := s.planSvc.SetPriceOverride(s.GetContext(), s.yearly.ID, f.ID, "1000", false)
	s.NoError(err)

	monthlySub := s.activeSubscription(s.monthly.ID)
	value, err := s.service.ResolveValue(s.GetContext(), monthlySub.ID, "api_calls")
	s.NoError(err)
	s.Equal(types.FeatureValue("100"), *value)

	s.NoError(s.GetStores().SubRepo.Delete(s.GetContext(), monthlySub.ID))
	yearlySub := s.activeSubscription(s.yearly.ID)
	value, err = s.service.ResolveValue(s.GetContext(), yearlySub.ID, "api_calls")
	s.NoError(err)
	s.Equal(types.FeatureValue("1000"), *value)
}

func (s *EntitlementServiceSuite) TestResolveValueNilCases() {
	s.grantPlanFeature("api_calls", "100")
	sub := s.activeSubscription(s.monthly.ID)

	value, err := s.service.ResolveValue(s.GetContext(), sub.ID, "unknown_feature")
	s.NoError(err)
	s.Nil(value, "an ungranted feature resolves to nil, not an error")

	value, err = s.service.ResolveValue(s.GetContext(), "subs_missing", "api_calls")
	s.NoError(err)
	s.Nil(value)

	// An expired subscription with no grace resolves nothing.
	stored, err := s.GetStores().SubRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	stored.NextBillingDate = time.Now().UTC().AddDate(0, 0, -1)
	s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), stored))

	value, err = s.service.ResolveValue(s.GetContext(), sub.ID, "api_calls")
	s.NoError(err)
	s.Nil(value)
}

func (s *EntitlementServiceSuite) TestHasFeature() {
	s.grantPlanFeature("sso", "true")
	s.grantPlanFeature("audit_log", "false")
	sub := s.activeSubscription(s.monthly.ID)

	has, err := s.service.HasFeature(s.GetContext(), sub.ID, "sso")
	s.NoError(err)
	s.True(has)

	has, err = s.service.HasFeature(s.GetContext(), sub.ID, "audit_log")
	s.NoError(err)
	s.False(has, "an explicit disablement flag does not count as having the feature")

	has, err = s.service.HasFeature(s.GetContext(), sub.ID, "unknown")
	s.NoError(err)
	s.False(has)
}

func (s *EntitlementServiceSuite) TestHasFeatureWithValue() {
	s.grantPlanFeature("api_calls", "100")
	s.grantPlanFeature("storage", "unlimited")
	s.grantPlanFeature("sso", "true")
	s.grantPlanFeature("tier", "gold")
	sub := s.activeSubscription(s.monthly.ID)

	testCases := []struct {
		name     string
		feature  string
		required string
		expected bool
	}{
		{"numeric_satisfied", "api_calls", "50", true},
		{"numeric_exact", "api_calls", "100", true},
		{"numeric_insufficient", "api_calls", "200", false},
		{"unlimited_always_satisfies", "storage", "99999", true},
		{"truthy_always_satisfies", "sso", "anything", true},
		{"string_exact_match", "tier", "gold", true},
		{"string_mismatch", "tier", "silver", false},
		{"missing_feature", "unknown", "1", false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			got, err := s.service.HasFeatureWithValue(s.GetContext(), sub.ID, tc.feature, tc.required)
			s.NoError(err)
			s.Equal(tc.expected, got)
		})
	}
}

func (s *EntitlementServiceSuite) TestHasReachedLimit() {
	s.grantPlanFeature("api_calls", "3")
	s.grantPlanFeature("storage", "unlimited")
	sub := s.activeSubscription(s.monthly.ID)

	reached, err := s.service.HasReachedLimit(s.GetContext(), sub.ID, "api_calls")
	s.NoError(err)
	s.False(reached, "no usage recorded yet")

	reached, err = s.service.HasReachedLimit(s.GetContext(), sub.ID, "storage")
	s.NoError(err)
	s.False(reached)

	reached, err = s.service.HasReachedLimit(s.GetContext(), sub.ID, "unknown")
	s.NoError(err)
	s.True(reached, "an ungranted feature counts as exhausted")

	usageSvc := NewFeatureUsageService(s.params())
	for i := 0; i < 3; i++ {
		_, err := usageSvc.IncrementUsage(s.GetContext(), sub.ID, "api_calls", 1)
		s.NoError(err)
	}

	reached, err = s.service.HasReachedLimit(s.GetContext(), sub.ID, "api_calls")
	s.NoError(err)
	s.True(reached)
}

func (s *EntitlementServiceSuite) TestGetAvailableFeatures() {
	f := s.grantPlanFeature("api_calls", "100")
	s.grantPlanFeature("storage", "10")
	_, err := s.planSvc.SetPriceOverride(s.GetContext(), s.yearly.ID, f.ID, "1000", false)
	s.NoError(err)

	sub := s.activeSubscription(s.yearly.ID)
	grants, err := s.service.GetAvailableFeatures(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Len(grants, 2)

	byName := map[string]*FeatureGrant{}
	for _, g := range grants {
		byName[g.Name] = g
	}
	s.Equal(types.FeatureValue("1000"), byName["api_calls"].Value)
	s.True(byName["api_calls"].IsOverride)
	s.Equal(types.FeatureValue("10"), byName["storage"].Value)

	// Cancelation empties the feature set.
	stored, err := s.GetStores().SubRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	stored.SubStatus = types.SubscriptionStatusCanceled
	s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), stored))

	grants, err = s.service.GetAvailableFeatures(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Empty(grants)
}
