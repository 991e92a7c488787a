package types

import (
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/samber/lo"
)

// EntitlementEntityType is the level a feature grant attaches to. Price level
// grants override plan level grants for subscriptions on that price tier.
type EntitlementEntityType string

const (
	EntitlementEntityTypePlan  EntitlementEntityType = "plan"
	EntitlementEntityTypePrice EntitlementEntityType = "price"
)

func (t EntitlementEntityType) String() string {
	return string(t)
}

func (t EntitlementEntityType) Validate() error {
	allowed := []EntitlementEntityType{
		EntitlementEntityTypePlan,
		EntitlementEntityTypePrice,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid entitlement entity type").
			WithHint("Invalid entitlement entity type").
			WithReportableDetails(map[string]any{
				"entity_type":    t,
				"allowed_values": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
