package plan

import (
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
)

// Plan is a sellable tier in the catalog. Prices attach billing-cycle
// specific amounts to it; entitlements attach feature grants.
type Plan struct {
	ID           string             `db:"id" json:"id"`
	Name         string             `db:"name" json:"name"`
	LookupKey    string             `db:"lookup_key" json:"lookup_key"`
	Description  string             `db:"description" json:"description"`
	TrialValue   int                `db:"trial_value" json:"trial_value"`
	TrialCycle   types.BillingCycle `db:"trial_cycle" json:"trial_cycle"`
	DisplayOrder int                `db:"display_order" json:"display_order"`
	Popular      bool               `db:"popular" json:"popular"`
	types.BaseModel
}

// HasTrial reports whether subscriptions to this plan start with a trial window
func (p *Plan) HasTrial() bool {
	return p.TrialValue > 0
}

// Validate performs validation on the plan
func (p *Plan) Validate() error {
	if p.Name == "" {
		return ierr.NewError("name is required").
			WithHint("Please provide a plan name").
			Mark(ierr.ErrValidation)
	}
	if p.LookupKey == "" {
		return ierr.NewError("lookup_key is required").
			WithHint("Please provide a unique plan lookup key").
			Mark(ierr.ErrValidation)
	}
	if p.TrialValue < 0 {
		return ierr.NewError("trial_value cannot be negative").
			WithReportableDetails(map[string]any{
				"trial_value": p.TrialValue,
			}).
			Mark(ierr.ErrValidation)
	}
	if p.TrialValue > 0 {
		if err := p.TrialCycle.Validate(); err != nil {
			return err
		}
	}
	return nil
}
