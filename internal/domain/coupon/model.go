package coupon

import (
	"time"

	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
	"github.com/shopspring/decimal"
)

// Coupon is a discount code applied at subscribe and renewal time
type Coupon struct {
	ID             string                   `db:"id" json:"id"`
	Code           string                   `db:"code" json:"code"`
	DiscountAmount decimal.Decimal          `db:"discount_amount" json:"discount_amount"`
	DiscountType   types.CouponDiscountType `db:"discount_type" json:"discount_type"`
	ExpiresAt      *time.Time               `db:"expires_at" json:"expires_at"`
	IsActive       bool                     `db:"is_active" json:"is_active"`
	types.BaseModel
}

// IsValid checks if the coupon can be applied at the given instant.
// A nil expiry never expires; an expiry equal to now counts as expired.
func (c *Coupon) IsValid(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return false
	}
	return true
}

// CalculateDiscount calculates the discount amount for a given price.
// Percentage coupons discount price * amount / 100; fixed coupons discount
// min(amount, price) so the discount never exceeds the price.
func (c *Coupon) CalculateDiscount(price decimal.Decimal) decimal.Decimal {
	switch c.DiscountType {
	case types.CouponDiscountTypePercentage:
		return price.Mul(c.DiscountAmount).Div(decimal.NewFromInt(100))
	case types.CouponDiscountTypeFixed:
		if c.DiscountAmount.GreaterThan(price) {
			return price
		}
		return c.DiscountAmount
	default:
		return decimal.Zero
	}
}

// ApplyDiscount applies the discount to a given price and returns the final price
func (c *Coupon) ApplyDiscount(price decimal.Decimal) decimal.Decimal {
	final := price.Sub(c.CalculateDiscount(price))
	if final.IsNegative() {
		return decimal.Zero
	}
	return final
}

// Validate performs validation on the coupon
func (c *Coupon) Validate() error {
	if c.Code == "" {
		return ierr.NewError("code is required").
			WithHint("Please provide a coupon code").
			Mark(ierr.ErrValidation)
	}
	if c.DiscountAmount.IsNegative() {
		return ierr.NewError("discount_amount cannot be negative").
			WithReportableDetails(map[string]any{
				"discount_amount": c.DiscountAmount,
			}).
			Mark(ierr.ErrValidation)
	}
	return c.DiscountType.Validate()
}
