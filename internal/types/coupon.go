package types

import (
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/samber/lo"
)

// CouponDiscountType determines how a coupon's discount amount is interpreted
type CouponDiscountType string

const (
	CouponDiscountTypeFixed      CouponDiscountType = "fixed"
	CouponDiscountTypePercentage CouponDiscountType = "percentage"
)

func (t CouponDiscountType) String() string {
	return string(t)
}

func (t CouponDiscountType) Validate() error {
	allowed := []CouponDiscountType{
		CouponDiscountTypeFixed,
		CouponDiscountTypePercentage,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid coupon discount type").
			WithHint("Invalid coupon discount type").
			WithReportableDetails(map[string]any{
				"discount_type":  t,
				"allowed_values": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CouponResolutionReason explains why a coupon did or did not apply.
// Resolution fails soft: an invalid code yields a zero discount, and the
// reason code is the only way callers can tell "no coupon" from "bad coupon".
type CouponResolutionReason string

const (
	CouponResolutionApplied   CouponResolutionReason = "applied"
	CouponResolutionEmptyCode CouponResolutionReason = "empty_code"
	CouponResolutionNotFound  CouponResolutionReason = "not_found"
	CouponResolutionExpired   CouponResolutionReason = "expired"
	CouponResolutionInactive  CouponResolutionReason = "inactive"
)
