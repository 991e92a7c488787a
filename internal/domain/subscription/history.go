package subscription

import (
	"time"

	"github.com/ntechservices/subscription/internal/types"
)

// History is an append-only audit record of a subscription transition.
// Rows are written explicitly by the lifecycle service after each successful
// state change, never by persistence hooks, and deliberately outlive a hard
// deleted parent subscription. PlanName is denormalized so the row stays
// meaningful after the plan itself is gone.
type History struct {
	ID             string                   `db:"id" json:"id"`
	SubscriptionID string                   `db:"subscription_id" json:"subscription_id"`
	PlanID         string                   `db:"plan_id" json:"plan_id"`
	PlanName       string                   `db:"plan_name" json:"plan_name"`
	PlanPriceID    string                   `db:"plan_price_id" json:"plan_price_id"`
	SubStatus      types.SubscriptionStatus `db:"sub_status" json:"sub_status"`
	Details        string                   `db:"details" json:"details"`
	TenantID       string                   `db:"tenant_id" json:"tenant_id"`
	CreatedAt      time.Time                `db:"created_at" json:"created_at"`
	CreatedBy      string                   `db:"created_by" json:"created_by"`
}
