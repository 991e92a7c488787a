package service

import (
	"context"
	"time"

	"github.com/ntechservices/subscription/internal/domain/coupon"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
	"github.com/shopspring/decimal"
)

// CouponResolution is the outcome of resolving a coupon code against a
// price. Resolution never fails hard: an unknown, expired or inactive code
// simply resolves to a zero discount, and Reason says why.
type CouponResolution struct {
	Coupon   *coupon.Coupon               `json:"coupon,omitempty"`
	Discount decimal.Decimal              `json:"discount"`
	Reason   types.CouponResolutionReason `json:"reason"`
}

// Applied reports whether the coupon produced a discount
func (r *CouponResolution) Applied() bool {
	return r.Reason == types.CouponResolutionApplied
}

// CouponService defines the interface for coupon operations
type CouponService interface {
	CreateCoupon(ctx context.Context, c *coupon.Coupon) (*coupon.Coupon, error)
	GetCoupon(ctx context.Context, id string) (*coupon.Coupon, error)
	// Resolve validates a coupon code against expiry and activity and
	// computes the discount for the given price. Fails soft.
	Resolve(ctx context.Context, code string, price decimal.Decimal) (*CouponResolution, error)
}

type couponService struct {
	ServiceParams
}

func NewCouponService(params ServiceParams) CouponService {
	return &couponService{ServiceParams: params}
}

func (s *couponService) CreateCoupon(ctx context.Context, c *coupon.Coupon) (*coupon.Coupon, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if c.ID == "" {
		c.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_COUPON)
	}
	c.BaseModel = types.GetDefaultBaseModel(ctx)

	if err := s.CouponRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *couponService) GetCoupon(ctx context.Context, id string) (*coupon.Coupon, error) {
	return s.CouponRepo.Get(ctx, id)
}

func (s *couponService) Resolve(ctx context.Context, code string, price decimal.Decimal) (*CouponResolution, error) {
	if code == "" {
		return &CouponResolution{
			Discount: decimal.Zero,
			Reason:   types.CouponResolutionEmptyCode,
		}, nil
	}

	c, err := s.CouponRepo.GetByCode(ctx, code)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Debugw("coupon code not found, ignoring", "code", code)
			return &CouponResolution{
				Discount: decimal.Zero,
				Reason:   types.CouponResolutionNotFound,
			}, nil
		}
		return nil, err
	}

	now := time.Now().UTC()

	if !c.IsActive {
		return &CouponResolution{
			Coupon:   c,
			Discount: decimal.Zero,
			Reason:   types.CouponResolutionInactive,
		}, nil
	}

	if !c.IsValid(now) {
		return &CouponResolution{
			Coupon:   c,
			Discount: decimal.Zero,
			Reason:   types.CouponResolutionExpired,
		}, nil
	}

	return &CouponResolution{
		Coupon:   c,
		Discount: c.CalculateDiscount(price),
		Reason:   types.CouponResolutionApplied,
	}, nil
}
