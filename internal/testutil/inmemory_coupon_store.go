package testutil

import (
	"context"

	"github.com/ntechservices/subscription/internal/domain/coupon"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
)

// InMemoryCouponStore implements coupon.Repository
type InMemoryCouponStore struct {
	*InMemoryStore[*coupon.Coupon]
}

// NewInMemoryCouponStore creates a new in-memory coupon store
func NewInMemoryCouponStore() *InMemoryCouponStore {
	return &InMemoryCouponStore{
		InMemoryStore: NewInMemoryStore[*coupon.Coupon](),
	}
}

func copyCoupon(c *coupon.Coupon) *coupon.Coupon {
	if c == nil {
		return nil
	}
	copied := *c
	if c.ExpiresAt != nil {
		expiresAt := *c.ExpiresAt
		copied.ExpiresAt = &expiresAt
	}
	return &copied
}

func couponFilterFn(ctx context.Context, c *coupon.Coupon) bool {
	if c == nil {
		return false
	}
	if tenantID := types.GetTenantID(ctx); tenantID != "" && c.TenantID != tenantID {
		return false
	}
	return c.Status == types.StatusPublished
}

func (s *InMemoryCouponStore) Create(ctx context.Context, c *coupon.Coupon) error {
	if c == nil {
		return ierr.NewError("coupon cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, c.ID, copyCoupon(c))
}

func (s *InMemoryCouponStore) Get(ctx context.Context, id string) (*coupon.Coupon, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !couponFilterFn(ctx, c) {
		return nil, ierr.NewError("coupon not found").
			WithHint("The coupon does not exist or was deleted").
			Mark(ierr.ErrNotFound)
	}
	return copyCoupon(c), nil
}

func (s *InMemoryCouponStore) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	coupons, err := s.InMemoryStore.List(ctx, func(ctx context.Context, c *coupon.Coupon) bool {
		return couponFilterFn(ctx, c) && c.Code == code
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(coupons) == 0 {
		return nil, ierr.NewError("coupon not found").
			WithHint("The coupon code does not exist").
			WithReportableDetails(map[string]any{
				"code": code,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyCoupon(coupons[0]), nil
}

func (s *InMemoryCouponStore) Update(ctx context.Context, c *coupon.Coupon) error {
	if c == nil {
		return ierr.NewError("coupon cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if err := s.InMemoryStore.Update(ctx, c.ID, copyCoupon(c)); err != nil {
		return ierr.NewError("coupon not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryCouponStore) Delete(ctx context.Context, id string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	c.Status = types.StatusDeleted
	return s.InMemoryStore.Update(ctx, id, c)
}
