package entitlement

import (
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
	"github.com/shopspring/decimal"
)

// Entitlement is a feature grant. EntityType plan is the plan level grant;
// EntityType price is a price-tier override that supersedes the plan grant
// for subscriptions on that price. Unique per (entity_type, entity_id,
// feature_id).
type Entitlement struct {
	ID              string                      `db:"id" json:"id"`
	EntityType      types.EntitlementEntityType `db:"entity_type" json:"entity_type"`
	EntityID        string                      `db:"entity_id" json:"entity_id"`
	FeatureID       string                      `db:"feature_id" json:"feature_id"`
	Value           types.FeatureValue          `db:"value" json:"value"`
	IsSoftLimit     bool                        `db:"is_soft_limit" json:"is_soft_limit"`
	OveragePrice    *decimal.Decimal            `db:"overage_price" json:"overage_price"`
	OverageCurrency string                      `db:"overage_currency" json:"overage_currency"`
	types.BaseModel
}

// Validate performs validation on the entitlement
func (e *Entitlement) Validate() error {
	if err := e.EntityType.Validate(); err != nil {
		return err
	}
	if e.EntityID == "" {
		return ierr.NewError("entity_id is required").
			WithHint("Please provide a valid plan or price ID").
			Mark(ierr.ErrValidation)
	}
	if e.FeatureID == "" {
		return ierr.NewError("feature_id is required").
			WithHint("Please provide a valid feature ID").
			Mark(ierr.ErrValidation)
	}
	if e.Value == "" {
		return ierr.NewError("value is required").
			WithHint("Please provide a feature value").
			WithReportableDetails(map[string]any{
				"entity_type": e.EntityType,
				"entity_id":   e.EntityID,
				"feature_id":  e.FeatureID,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
