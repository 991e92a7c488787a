package service

import (
	"context"
	"time"

	"github.com/ntechservices/subscription/internal/domain/entitlement"
	"github.com/ntechservices/subscription/internal/domain/subscription"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
	"github.com/shopspring/decimal"
)

// EntitlementService answers "what does this subscription get". Resolution
// order is price override first, plan grant second; an inactive subscription
// resolves to nothing. All checks fail soft: an absent grant is a nil value,
// not an error.
type EntitlementService interface {
	// ResolveValue returns the effective value of the named feature for the
	// subscription, nil when the subscription is not active or carries no
	// grant for it.
	ResolveValue(ctx context.Context, subscriptionID, featureName string) (*types.FeatureValue, error)
	// HasFeature reports whether the feature resolves to a usable value
	// (present and not an explicit disablement flag).
	HasFeature(ctx context.Context, subscriptionID, featureName string) (bool, error)
	// HasFeatureWithValue checks the resolved value against a requirement:
	// unlimited always satisfies, boolean flags satisfy any requirement,
	// numeric values satisfy numerically, anything else compares exactly.
	HasFeatureWithValue(ctx context.Context, subscriptionID, featureName, required string) (bool, error)
	// HasReachedLimit reports whether the feature's counter is at or past
	// its numeric limit. No grant and disablement flags count as reached;
	// unlimited never does.
	HasReachedLimit(ctx context.Context, subscriptionID, featureName string) (bool, error)
	// GetAvailableFeatures lists the subscription's effective grants, price
	// overrides applied. Empty for an inactive subscription.
	GetAvailableFeatures(ctx context.Context, subscriptionID string) ([]*FeatureGrant, error)
}

type entitlementService struct {
	ServiceParams
	planSvc PlanService
}

func NewEntitlementService(params ServiceParams) EntitlementService {
	return &entitlementService{
		ServiceParams: params,
		planSvc:       NewPlanService(params),
	}
}

// resolveGrant finds the effective grant for the subscription and feature.
// A nil grant with a nil error means "no entitlement": the subscription is
// inactive, the feature is unknown, or neither the price nor the plan carries
// a grant.
func (s *entitlementService) resolveGrant(ctx context.Context, sub *subscription.Subscription, featureName string) (*entitlement.Entitlement, error) {
	if !sub.IsActive(time.Now().UTC()) {
		return nil, nil
	}

	f, err := s.FeatureRepo.GetByName(ctx, featureName)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	// Price override wins over the plan grant.
	e, err := s.EntitlementRepo.GetByEntityAndFeature(ctx, types.EntitlementEntityTypePrice, sub.PlanPriceID, f.ID)
	if err == nil {
		return e, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}

	e, err = s.EntitlementRepo.GetByEntityAndFeature(ctx, types.EntitlementEntityTypePlan, sub.PlanID, f.ID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func (s *entitlementService) ResolveValue(ctx context.Context, subscriptionID, featureName string) (*types.FeatureValue, error) {
	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	grant, err := s.resolveGrant(ctx, sub, featureName)
	if err != nil || grant == nil {
		return nil, err
	}
	return &grant.Value, nil
}

func (s *entitlementService) HasFeature(ctx context.Context, subscriptionID, featureName string) (bool, error) {
	value, err := s.ResolveValue(ctx, subscriptionID, featureName)
	if err != nil {
		return false, err
	}
	if value == nil {
		return false, nil
	}
	return !value.IsFalsy(), nil
}

func (s *entitlementService) HasFeatureWithValue(ctx context.Context, subscriptionID, featureName, required string) (bool, error) {
	value, err := s.ResolveValue(ctx, subscriptionID, featureName)
	if err != nil {
		return false, err
	}
	if value == nil {
		return false, nil
	}

	if value.IsUnlimited() {
		return true, nil
	}
	if value.IsTruthy() {
		return true, nil
	}
	if value.IsFalsy() {
		return false, nil
	}

	have, haveOK := value.Decimal()
	want, wantOK := types.FeatureValue(required).Decimal()
	if haveOK && wantOK {
		return have.GreaterThanOrEqual(want), nil
	}

	return value.String() == required, nil
}

func (s *entitlementService) HasReachedLimit(ctx context.Context, subscriptionID, featureName string) (bool, error) {
	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return true, nil
		}
		return false, err
	}

	grant, err := s.resolveGrant(ctx, sub, featureName)
	if err != nil {
		return false, err
	}
	if grant == nil {
		return true, nil
	}

	if grant.Value.IsUnlimited() {
		return false, nil
	}
	if grant.Value.IsFalsy() {
		return true, nil
	}

	limit, ok := grant.Value.Decimal()
	if !ok {
		// A non-numeric enablement flag has no counter to exhaust.
		return false, nil
	}

	f, err := s.FeatureRepo.GetByName(ctx, featureName)
	if err != nil {
		return false, err
	}

	used := int64(0)
	row, err := s.UsageRepo.Get(ctx, sub.ID, f.ID)
	if err != nil {
		if !ierr.IsNotFound(err) {
			return false, err
		}
	} else if !row.NeedsReset(time.Now().UTC(), sub.NextBillingDate) {
		// A row from a lapsed period counts as zero without mutating it;
		// the write path owns the actual reset.
		used = row.Used
	}

	return decimal.NewFromInt(used).GreaterThanOrEqual(limit), nil
}

func (s *entitlementService) GetAvailableFeatures(ctx context.Context, subscriptionID string) ([]*FeatureGrant, error) {
	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return []*FeatureGrant{}, nil
		}
		return nil, err
	}

	if !sub.IsActive(time.Now().UTC()) {
		return []*FeatureGrant{}, nil
	}

	return s.planSvc.ListPlanFeatures(ctx, sub.PlanID, sub.PlanPriceID)
}
