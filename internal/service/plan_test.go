package service

import (
	"testing"

	"github.com/ntechservices/subscription/internal/domain/feature"
	"github.com/ntechservices/subscription/internal/domain/plan"
	"github.com/ntechservices/subscription/internal/domain/price"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/testutil"
	"github.com/ntechservices/subscription/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PlanServiceSuite struct {
	testutil.BaseServiceTestSuite
	service PlanService
}

func TestPlanService(t *testing.T) {
	suite.Run(t, new(PlanServiceSuite))
}

func (s *PlanServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewPlanService(ServiceParams{
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
	})
}

func (s *PlanServiceSuite) createPlan(name, lookupKey string) *plan.Plan {
	p, err := s.service.CreatePlan(s.GetContext(), &plan.Plan{
		Name:      name,
		LookupKey: lookupKey,
	})
	s.NoError(err)
	return p
}

func (s *PlanServiceSuite) createPrice(planID string, amount int64, cycle types.BillingCycle) *price.Price {
	pr, err := s.service.CreatePrice(s.GetContext(), &price.Price{
		PlanID:       planID,
		Amount:       decimal.NewFromInt(amount),
		Currency:     "USD",
		BillingCycle: cycle,
	})
	s.NoError(err)
	return pr
}

func (s *PlanServiceSuite) createFeature(name string) *feature.Feature {
	f, err := s.service.CreateFeature(s.GetContext(), &feature.Feature{Name: name})
	s.NoError(err)
	return f
}

func (s *PlanServiceSuite) TestCreatePlanValidation() {
	testCases := []struct {
		name          string
		input         *plan.Plan
		expectedError bool
	}{
		{
			name:  "valid_plan",
			input: &plan.Plan{Name: "Pro", LookupKey: "pro"},
		},
		{
			name:          "missing_name",
			input:         &plan.Plan{LookupKey: "pro2"},
			expectedError: true,
		},
		{
			name:          "missing_lookup_key",
			input:         &plan.Plan{Name: "Pro"},
			expectedError: true,
		},
		{
			name:          "negative_trial",
			input:         &plan.Plan{Name: "Pro", LookupKey: "pro3", TrialValue: -1},
			expectedError: true,
		},
		{
			name:          "trial_without_cycle",
			input:         &plan.Plan{Name: "Pro", LookupKey: "pro4", TrialValue: 7},
			expectedError: true,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.service.CreatePlan(s.GetContext(), tc.input)
			if tc.expectedError {
				s.Error(err)
			} else {
				s.NoError(err)
			}
		})
	}
}

func (s *PlanServiceSuite) TestGetPlanByLookupKey() {
	created := s.createPlan("Pro", "pro")

	found, err := s.service.GetPlanByLookupKey(s.GetContext(), "pro")
	s.NoError(err)
	s.Equal(created.ID, found.ID)

	_, err = s.service.GetPlanByLookupKey(s.GetContext(), "missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PlanServiceSuite) TestGetPriceByPlanAndCycle() {
	p := s.createPlan("Pro", "pro")
	monthly := s.createPrice(p.ID, 50, types.BillingCycleMonthly)
	s.createPrice(p.ID, 500, types.BillingCycleYearly)

	found, err := s.service.GetPriceByPlanAndCycle(s.GetContext(), p.ID, types.BillingCycleMonthly)
	s.NoError(err)
	s.Equal(monthly.ID, found.ID)

	_, err = s.service.GetPriceByPlanAndCycle(s.GetContext(), p.ID, types.BillingCycleWeekly)
	s.Error(err)
	s.True(ierr.IsNotFound(err), "a missing price for a cycle is a typed not-found")
}

func (s *PlanServiceSuite) TestSetPlanFeatureUpsertsValue() {
	p := s.createPlan("Pro", "pro")
	f := s.createFeature("api_calls")

	_, err := s.service.SetPlanFeature(s.GetContext(), p.ID, f.ID, "100", false)
	s.NoError(err)

	// Re-granting replaces the value instead of duplicating the grant.
	_, err = s.service.SetPlanFeature(s.GetContext(), p.ID, f.ID, "200", false)
	s.NoError(err)

	grants, err := s.service.ListPlanFeatures(s.GetContext(), p.ID, "")
	s.NoError(err)
	s.Len(grants, 1)
	s.Equal(types.FeatureValue("200"), grants[0].Value)
}

func (s *PlanServiceSuite) TestListPlanFeaturesOverrideAware() {
	p := s.createPlan("Pro", "pro")
	monthly := s.createPrice(p.ID, 50, types.BillingCycleMonthly)
	yearly := s.createPrice(p.ID, 500, types.BillingCycleYearly)

	apiCalls := s.createFeature("api_calls")
	storage := s.createFeature("storage_gb")

	_, err := s.service.SetPlanFeature(s.GetContext(), p.ID, apiCalls.ID, "100", false)
	s.NoError(err)
	_, err = s.service.SetPlanFeature(s.GetContext(), p.ID, storage.ID, "10", false)
	s.NoError(err)

	// The yearly tier bumps api_calls to 1000; storage stays at the plan value.
	_, err = s.service.SetPriceOverride(s.GetContext(), yearly.ID, apiCalls.ID, "1000", false)
	s.NoError(err)

	monthlyGrants, err := s.service.ListPlanFeatures(s.GetContext(), p.ID, monthly.ID)
	s.NoError(err)
	byName := map[string]*FeatureGrant{}
	for _, g := range monthlyGrants {
		byName[g.Name] = g
	}
	s.Equal(types.FeatureValue("100"), byName["api_calls"].Value)
	s.False(byName["api_calls"].IsOverride)

	yearlyGrants, err := s.service.ListPlanFeatures(s.GetContext(), p.ID, yearly.ID)
	s.NoError(err)
	byName = map[string]*FeatureGrant{}
	for _, g := range yearlyGrants {
		byName[g.Name] = g
	}
	s.Equal(types.FeatureValue("1000"), byName["api_calls"].Value)
	s.True(byName["api_calls"].IsOverride)
	s.Equal(types.FeatureValue("10"), byName["storage_gb"].Value)
	s.False(byName["storage_gb"].IsOverride)
}

func (s *PlanServiceSuite) TestDeletePlanCascades() {
	p := s.createPlan("Pro", "pro")
	monthly := s.createPrice(p.ID, 50, types.BillingCycleMonthly)
	f := s.createFeature("api_calls")

	_, err := s.service.SetPlanFeature(s.GetContext(), p.ID, f.ID, "100", false)
	s.NoError(err)
	_, err = s.service.SetPriceOverride(s.GetContext(), monthly.ID, f.ID, "1000", false)
	s.NoError(err)

	s.NoError(s.service.DeletePlan(s.GetContext(), p.ID))

	_, err = s.service.GetPlan(s.GetContext(), p.ID)
	s.True(ierr.IsNotFound(err))
	_, err = s.service.GetPrice(s.GetContext(), monthly.ID)
	s.True(ierr.IsNotFound(err))

	grants, err := s.GetStores().EntitlementRepo.ListByEntity(s.GetContext(), types.EntitlementEntityTypePlan, p.ID)
	s.NoError(err)
	s.Empty(grants)
	overrides, err := s.GetStores().EntitlementRepo.ListByEntity(s.GetContext(), types.EntitlementEntityTypePrice, monthly.ID)
	s.NoError(err)
	s.Empty(overrides)
}

func (s *PlanServiceSuite) TestRemovePlanFeature() {
	p := s.createPlan("Pro", "pro")
	f := s.createFeature("api_calls")

	_, err := s.service.SetPlanFeature(s.GetContext(), p.ID, f.ID, "100", false)
	s.NoError(err)
	s.NoError(s.service.RemovePlanFeature(s.GetContext(), p.ID, f.ID))

	grants, err := s.service.ListPlanFeatures(s.GetContext(), p.ID, "")
	s.NoError(err)
	s.Empty(grants)
}
