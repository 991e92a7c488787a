package service

import (
	"testing"
	"time"

	"github.com/ntechservices/subscription/internal/domain/coupon"
	"github.com/ntechservices/subscription/internal/testutil"
	"github.com/ntechservices/subscription/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CouponServiceSuite struct {
	testutil.BaseServiceTestSuite
	service CouponService
}

func TestCouponService(t *testing.T) {
	suite.Run(t, new(CouponServiceSuite))
}

func (s *CouponServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewCouponService(ServiceParams{
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

func (s *CouponServiceSuite) createCoupon(code string, amount float64, discountType types.CouponDiscountType, expiresAt *time.Time, active bool) *coupon.Coupon {
	c, err := s.service.CreateCoupon(s.GetContext(), &coupon.Coupon{
		Code:           code,
		DiscountAmount: decimal.NewFromFloat(amount),
		DiscountType:   discountType,
		ExpiresAt:      expiresAt,
		IsActive:       active,
	})
	s.NoError(err)
	return c
}

func (s *CouponServiceSuite) TestResolvePercentageDiscount() {
	s.createCoupon("SAVE20", 20, types.CouponDiscountTypePercentage, nil, true)

	res, err := s.service.Resolve(s.GetContext(), "SAVE20", decimal.NewFromInt(50))
	s.NoError(err)
	s.True(res.Applied())
	s.Equal(types.CouponResolutionApplied, res.Reason)
	s.True(res.Discount.Equal(decimal.NewFromInt(10)), "20%% of 50 should be 10, got %s", res.Discount)
}

func (s *CouponServiceSuite) TestResolveFixedDiscountClampedToPrice() {
	s.createCoupon("BIGFIXED", 80, types.CouponDiscountTypeFixed, nil, true)

	res, err := s.service.Resolve(s.GetContext(), "BIGFIXED", decimal.NewFromInt(50))
	s.NoError(err)
	s.True(res.Applied())
	s.True(res.Discount.Equal(decimal.NewFromInt(50)), "fixed discount must not exceed the price")
}

func (s *CouponServiceSuite) TestResolveFailsSoft() {
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(24 * time.Hour)
	s.createCoupon("EXPIRED", 10, types.CouponDiscountTypeFixed, &past, true)
	s.createCoupon("INACTIVE", 10, types.CouponDiscountTypeFixed, &future, false)

	testCases := []struct {
		name           string
		code           string
		expectedReason types.CouponResolutionReason
	}{
		{"empty_code", "", types.CouponResolutionEmptyCode},
		{"unknown_code", "NOPE", types.CouponResolutionNotFound},
		{"expired_code", "EXPIRED", types.CouponResolutionExpired},
		{"inactive_code", "INACTIVE", types.CouponResolutionInactive},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			res, err := s.service.Resolve(s.GetContext(), tc.code, decimal.NewFromInt(100))
			s.NoError(err)
			s.False(res.Applied())
			s.Equal(tc.expectedReason, res.Reason)
			s.True(res.Discount.IsZero())
		})
	}
}

func (s *CouponServiceSuite) TestResolveExactlyAtExpiryIsExpired() {
	// A coupon expiring exactly now must no longer apply; validity requires
	// a strictly future expiry.
	now := time.Now().UTC()
	c := s.createCoupon("EDGE", 10, types.CouponDiscountTypeFixed, &now, true)

	s.False(c.IsValid(now))
	res, err := s.service.Resolve(s.GetContext(), "EDGE", decimal.NewFromInt(100))
	s.NoError(err)
	s.Equal(types.CouponResolutionExpired, res.Reason)
}

func (s *CouponServiceSuite) TestDiscountNeverNegative() {
	c := &coupon.Coupon{
		Code:           "FULL",
		DiscountAmount: decimal.NewFromInt(200),
		DiscountType:   types.CouponDiscountTypeFixed,
		IsActive:       true,
	}
	price := decimal.NewFromInt(100)
	s.True(c.ApplyDiscount(price).IsZero(), "discounted price must floor at zero")
}
