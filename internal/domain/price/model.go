package price

import (
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
	"github.com/shopspring/decimal"
)

// Price is a billing-cycle specific price point of a plan. A plan usually
// carries one price per billing cycle, though the schema does not enforce it.
type Price struct {
	ID           string             `db:"id" json:"id"`
	PlanID       string             `db:"plan_id" json:"plan_id"`
	Amount       decimal.Decimal    `db:"amount" json:"amount"`
	Currency     string             `db:"currency" json:"currency"`
	BillingCycle types.BillingCycle `db:"billing_cycle" json:"billing_cycle"`
	types.BaseModel
}

// Validate performs validation on the price
func (p *Price) Validate() error {
	if p.PlanID == "" {
		return ierr.NewError("plan_id is required").
			WithHint("Please provide a valid plan ID").
			Mark(ierr.ErrValidation)
	}
	if p.Amount.IsNegative() {
		return ierr.NewError("amount cannot be negative").
			WithReportableDetails(map[string]any{
				"amount": p.Amount,
			}).
			Mark(ierr.ErrValidation)
	}
	if p.Currency == "" {
		return ierr.NewError("currency is required").
			WithHint("Please provide a currency code").
			Mark(ierr.ErrValidation)
	}
	return p.BillingCycle.Validate()
}
