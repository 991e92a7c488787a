package coupon

import (
	"testing"
	"time"

	"github.com/ntechservices/subscription/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCouponIsValid(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	c := &Coupon{Code: "SAVE", IsActive: true}
	assert.True(t, c.IsValid(now), "nil expiry never expires")

	c.ExpiresAt = &future
	assert.True(t, c.IsValid(now))

	c.ExpiresAt = &past
	assert.False(t, c.IsValid(now))

	c.ExpiresAt = &now
	assert.False(t, c.IsValid(now), "expiry equal to now counts as expired")

	c.ExpiresAt = &future
	c.IsActive = false
	assert.False(t, c.IsValid(now))
}

func TestCalculateDiscount(t *testing.T) {
	price := decimal.NewFromInt(50)

	percentage := &Coupon{
		Code:           "SAVE20",
		DiscountType:   types.CouponDiscountTypePercentage,
		DiscountAmount: decimal.NewFromInt(20),
	}
	assert.True(t, percentage.CalculateDiscount(price).Equal(decimal.NewFromInt(10)))

	fixed := &Coupon{
		Code:           "TENOFF",
		DiscountType:   types.CouponDiscountTypeFixed,
		DiscountAmount: decimal.NewFromInt(10),
	}
	assert.True(t, fixed.CalculateDiscount(price).Equal(decimal.NewFromInt(10)))

	// A fixed discount larger than the price is capped at the price.
	fixed.DiscountAmount = decimal.NewFromInt(80)
	assert.True(t, fixed.CalculateDiscount(price).Equal(price))
}

func TestApplyDiscountFloorsAtZero(t *testing.T) {
	c := &Coupon{
		Code:           "FULL",
		DiscountType:   types.CouponDiscountTypeFixed,
		DiscountAmount: decimal.NewFromInt(200),
	}
	assert.True(t, c.ApplyDiscount(decimal.NewFromInt(100)).IsZero())

	c.DiscountType = types.CouponDiscountTypePercentage
	c.DiscountAmount = decimal.NewFromInt(25)
	assert.True(t, c.ApplyDiscount(decimal.NewFromInt(100)).Equal(decimal.NewFromInt(75)))
}

func TestCouponValidate(t *testing.T) {
	valid := &Coupon{
		Code:           "SAVE",
		DiscountType:   types.CouponDiscountTypeFixed,
		DiscountAmount: decimal.NewFromInt(5),
	}
	assert.NoError(t, valid.Validate())

	missingCode := &Coupon{
		DiscountType:   types.CouponDiscountTypeFixed,
		DiscountAmount: decimal.NewFromInt(5),
	}
	assert.Error(t, missingCode.Validate())

	negative := &Coupon{
		Code:           "NEG",
		DiscountType:   types.CouponDiscountTypeFixed,
		DiscountAmount: decimal.NewFromInt(-5),
	}
	assert.Error(t, negative.Validate())

	badType := &Coupon{
		Code:           "BAD",
		DiscountType:   "lottery",
		DiscountAmount: decimal.NewFromInt(5),
	}
	assert.Error(t, badType.Validate())
}
