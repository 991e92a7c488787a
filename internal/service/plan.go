package service

import (
	"context"

	"github.com/ntechservices/subscription/internal/domain/entitlement"
	"github.com/ntechservices/subscription/internal/domain/feature"
	"github.com/ntechservices/subscription/internal/domain/plan"
	"github.com/ntechservices/subscription/internal/domain/price"
	"github.com/ntechservices/subscription/internal/types"
)

// FeatureGrant is the read model for a plan's feature listing: the feature
// joined with its effective value, override-aware.
type FeatureGrant struct {
	FeatureID   string             `json:"feature_id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Value       types.FeatureValue `json:"value"`
	IsSoftLimit bool               `json:"is_soft_limit"`
	IsOverride  bool               `json:"is_override"`
}

// PlanService manages the catalog: plans, their prices, features and grants.
// The catalog is read-only reference data for the rest of the system.
type PlanService interface {
	CreatePlan(ctx context.Context, p *plan.Plan) (*plan.Plan, error)
	GetPlan(ctx context.Context, id string) (*plan.Plan, error)
	GetPlanByLookupKey(ctx context.Context, lookupKey string) (*plan.Plan, error)
	ListPlans(ctx context.Context) ([]*plan.Plan, error)
	UpdatePlan(ctx context.Context, p *plan.Plan) (*plan.Plan, error)
	// DeletePlan cascades: the plan's prices, its plan level grants and the
	// price level overrides of its prices are removed with it.
	DeletePlan(ctx context.Context, id string) error

	CreatePrice(ctx context.Context, pr *price.Price) (*price.Price, error)
	GetPrice(ctx context.Context, id string) (*price.Price, error)
	GetPriceByPlanAndCycle(ctx context.Context, planID string, cycle types.BillingCycle) (*price.Price, error)
	ListPrices(ctx context.Context, planID string) ([]*price.Price, error)
	// DeletePrice cascades to the price's feature overrides.
	DeletePrice(ctx context.Context, id string) error

	CreateFeature(ctx context.Context, f *feature.Feature) (*feature.Feature, error)
	GetFeatureByName(ctx context.Context, name string) (*feature.Feature, error)
	ListFeatures(ctx context.Context) ([]*feature.Feature, error)

	// SetPlanFeature grants a feature at plan level, upserting the value.
	SetPlanFeature(ctx context.Context, planID, featureID string, value types.FeatureValue, isSoftLimit bool) (*entitlement.Entitlement, error)
	// SetPriceOverride grants a feature at price level, superseding the plan
	// grant for subscriptions on that price.
	SetPriceOverride(ctx context.Context, priceID, featureID string, value types.FeatureValue, isSoftLimit bool) (*entitlement.Entitlement, error)
	RemovePlanFeature(ctx context.Context, planID, featureID string) error
	RemovePriceOverride(ctx context.Context, priceID, featureID string) error
	// ListPlanFeatures returns the plan's grants joined with feature
	// metadata. When priceID is non-empty, price overrides replace the plan
	// values for the features they cover.
	ListPlanFeatures(ctx context.Context, planID, priceID string) ([]*FeatureGrant, error)
}

type planService struct {
	ServiceParams
}

func NewPlanService(params ServiceParams) PlanService {
	return &planService{ServiceParams: params}
}

func (s *planService) CreatePlan(ctx context.Context, p *plan.Plan) (*plan.Plan, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if p.ID == "" {
		p.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN)
	}
	p.BaseModel = types.GetDefaultBaseModel(ctx)

	if err := s.PlanRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.Logger.Infow("created plan", "plan_id", p.ID, "lookup_key", p.LookupKey)
	return p, nil
}

func (s *planService) GetPlan(ctx context.Context, id string) (*plan.Plan, error) {
	return s.PlanRepo.Get(ctx, id)
}

func (s *planService) GetPlanByLookupKey(ctx context.Context, lookupKey string) (*plan.Plan, error) {
	return s.PlanRepo.GetByLookupKey(ctx, lookupKey)
}

func (s *planService) ListPlans(ctx context.Context) ([]*plan.Plan, error) {
	return s.PlanRepo.List(ctx)
}

func (s *planService) UpdatePlan(ctx context.Context, p *plan.Plan) (*plan.Plan, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.PlanRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *planService) DeletePlan(ctx context.Context, id string) error {
	return s.DB.WithTx(ctx, func(ctx context.Context) error {
		prices, err := s.PriceRepo.ListByPlan(ctx, id)
		if err != nil {
			return err
		}

		// Overrides hang off prices, so they go first.
		for _, pr := range prices {
			if err := s.EntitlementRepo.DeleteByEntity(ctx, types.EntitlementEntityTypePrice, pr.ID); err != nil {
				return err
			}
		}

		if err := s.PriceRepo.DeleteByPlan(ctx, id); err != nil {
			return err
		}

		if err := s.EntitlementRepo.DeleteByEntity(ctx, types.EntitlementEntityTypePlan, id); err != nil {
			return err
		}

		if err := s.PlanRepo.Delete(ctx, id); err != nil {
			return err
		}

		s.Logger.Infow("deleted plan with prices and grants", "plan_id", id, "price_count", len(prices))
		return nil
	})
}

func (s *planService) CreatePrice(ctx context.Context, pr *price.Price) (*price.Price, error) {
	if err := pr.Validate(); err != nil {
		return nil, err
	}

	// The owning plan must exist.
	if _, err := s.PlanRepo.Get(ctx, pr.PlanID); err != nil {
		return nil, err
	}

	if pr.ID == "" {
		pr.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN_PRICE)
	}
	pr.BaseModel = types.GetDefaultBaseModel(ctx)

	if err := s.PriceRepo.Create(ctx, pr); err != nil {
		return nil, err
	}
	return pr, nil
}

func (s *planService) GetPrice(ctx context.Context, id string) (*price.Price, error) {
	return s.PriceRepo.Get(ctx, id)
}

func (s *planService) GetPriceByPlanAndCycle(ctx context.Context, planID string, cycle types.BillingCycle) (*price.Price, error) {
	return s.PriceRepo.GetByPlanAndCycle(ctx, planID, cycle)
}

func (s *planService) ListPrices(ctx context.Context, planID string) ([]*price.Price, error) {
	return s.PriceRepo.ListByPlan(ctx, planID)
}

func (s *planService) DeletePrice(ctx context.Context, id string) error {
	return s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.EntitlementRepo.DeleteByEntity(ctx, types.EntitlementEntityTypePrice, id); err != nil {
			return err
		}
		return s.PriceRepo.Delete(ctx, id)
	})
}

func (s *planService) CreateFeature(ctx context.Context, f *feature.Feature) (*feature.Feature, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	if f.ID == "" {
		f.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEATURE)
	}
	f.BaseModel = types.GetDefaultBaseModel(ctx)

	if err := s.FeatureRepo.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *planService) GetFeatureByName(ctx context.Context, name string) (*feature.Feature, error) {
	return s.FeatureRepo.GetByName(ctx, name)
}

func (s *planService) ListFeatures(ctx context.Context) ([]*feature.Feature, error) {
	return s.FeatureRepo.List(ctx)
}

func (s *planService) SetPlanFeature(ctx context.Context, planID, featureID string, value types.FeatureValue, isSoftLimit bool) (*entitlement.Entitlement, error) {
	return s.setGrant(ctx, types.EntitlementEntityTypePlan, planID, featureID, value, isSoftLimit)
}

func (s *planService) SetPriceOverride(ctx context.Context, priceID, featureID string, value types.FeatureValue, isSoftLimit bool) (*entitlement.Entitlement, error) {
	return s.setGrant(ctx, types.EntitlementEntityTypePrice, priceID, featureID, value, isSoftLimit)
}

func (s *planService) setGrant(ctx context.Context, entityType types.EntitlementEntityType, entityID, featureID string, value types.FeatureValue, isSoftLimit bool) (*entitlement.Entitlement, error) {
	if _, err := s.FeatureRepo.Get(ctx, featureID); err != nil {
		return nil, err
	}

	e := &entitlement.Entitlement{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ENTITLEMENT),
		EntityType:  entityType,
		EntityID:    entityID,
		FeatureID:   featureID,
		Value:       value,
		IsSoftLimit: isSoftLimit,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	return s.EntitlementRepo.Upsert(ctx, e)
}

func (s *planService) RemovePlanFeature(ctx context.Context, planID, featureID string) error {
	return s.removeGrant(ctx, types.EntitlementEntityTypePlan, planID, featureID)
}

func (s *planService) RemovePriceOverride(ctx context.Context, priceID, featureID string) error {
	return s.removeGrant(ctx, types.EntitlementEntityTypePrice, priceID, featureID)
}

func (s *planService) removeGrant(ctx context.Context, entityType types.EntitlementEntityType, entityID, featureID string) error {
	e, err := s.EntitlementRepo.GetByEntityAndFeature(ctx, entityType, entityID, featureID)
	if err != nil {
		return err
	}
	return s.EntitlementRepo.Delete(ctx, e.ID)
}

func (s *planService) ListPlanFeatures(ctx context.Context, planID, priceID string) ([]*FeatureGrant, error) {
	grants, err := s.EntitlementRepo.ListByEntity(ctx, types.EntitlementEntityTypePlan, planID)
	if err != nil {
		return nil, err
	}

	overridesByFeature := map[string]*entitlement.Entitlement{}
	if priceID != "" {
		overrides, err := s.EntitlementRepo.ListByEntity(ctx, types.EntitlementEntityTypePrice, priceID)
		if err != nil {
			return nil, err
		}
		for _, o := range overrides {
			overridesByFeature[o.FeatureID] = o
		}
	}

	result := make([]*FeatureGrant, 0, len(grants))
	for _, g := range grants {
		f, err := s.FeatureRepo.Get(ctx, g.FeatureID)
		if err != nil {
			return nil, err
		}

		grant := &FeatureGrant{
			FeatureID:   f.ID,
			Name:        f.Name,
			Description: f.Description,
			Value:       g.Value,
			IsSoftLimit: g.IsSoftLimit,
		}
		if o, ok := overridesByFeature[g.FeatureID]; ok {
			grant.Value = o.Value
			grant.IsSoftLimit = o.IsSoftLimit
			grant.IsOverride = true
		}
		result = append(result, grant)
	}

	return result, nil
}
