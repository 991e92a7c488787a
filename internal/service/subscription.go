package service

import (
	"context"
	"time"

	"github.com/ntechservices/subscription/internal/domain/price"
	"github.com/ntechservices/subscription/internal/domain/subscription"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
	"github.com/ntechservices/subscription/internal/validator"
	"github.com/shopspring/decimal"
)

// SubscribeRequest carries the inputs for opening a subscription
type SubscribeRequest struct {
	Subscriber types.Subscriber   `json:"subscriber" validate:"required"`
	PlanID     string             `json:"plan_id" validate:"required"`
	Cycle      types.BillingCycle `json:"cycle" validate:"required"`
	CouponCode string             `json:"coupon_code"`
}

// SubscriptionService drives the lifecycle state machine. Transitions are
// explicit operations; every successful one appends a history row. Mutations
// addressed at a subscription that no longer exists are soft no-ops so that
// callers retrying stale work do not fail.
type SubscriptionService interface {
	// Subscribe opens a pending subscription on the plan's price for the
	// requested cycle, applying the coupon if it resolves. A subscriber can
	// hold at most one open (pending/trialing/active) subscription.
	Subscribe(ctx context.Context, req *SubscribeRequest) (*subscription.Subscription, error)
	// StartBilling moves a pending subscription into its first billing
	// period: trialing with a calendar-computed trial window when the plan
	// carries a trial, active otherwise.
	StartBilling(ctx context.Context, id string) (*subscription.Subscription, error)
	// Renew advances an expired subscription into its next period,
	// re-evaluating the stored coupon against the current price.
	Renew(ctx context.Context, id string) (*subscription.Subscription, error)
	// Cancel ends the subscription. Soft cancel flips the status; hard
	// cancel removes the row and its usage counters after recording history.
	Cancel(ctx context.Context, id string, hard bool) error
	Suspend(ctx context.Context, id string) error
	Resume(ctx context.Context, id string) error
	// EnterGracePeriod stamps a grace window onto the subscription. Zero
	// values fall back to the configured defaults.
	EnterGracePeriod(ctx context.Context, id string, graceValue int, graceCycle types.BillingCycle) (*subscription.Subscription, error)
	// ChangePrice switches the subscription to another price, optionally
	// crediting the unused remainder of the current period.
	ChangePrice(ctx context.Context, id string, newPriceID string) (*subscription.Subscription, error)

	GetSubscription(ctx context.Context, id string) (*subscription.Subscription, error)
	GetOpenSubscription(ctx context.Context, subscriber types.Subscriber) (*subscription.Subscription, error)
	// ListSubscriptions returns every subscription the subscriber ever held,
	// open or not, newest first.
	ListSubscriptions(ctx context.Context, subscriber types.Subscriber) ([]*subscription.Subscription, error)
	ListByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*subscription.Subscription, error)
	// IsActive reports whether the subscriber currently has entitlement
	// bearing access: an open subscription whose status, billing date and
	// trial/grace overlays line up.
	IsActive(ctx context.Context, subscriber types.Subscriber) (bool, error)
	ListHistory(ctx context.Context, subscriptionID string) ([]*subscription.History, error)
}

type subscriptionService struct {
	ServiceParams
	couponSvc CouponService
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
		couponSvc:     NewCouponService(params),
	}
}

func (s *subscriptionService) Subscribe(ctx context.Context, req *SubscribeRequest) (*subscription.Subscription, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := req.Subscriber.Validate(); err != nil {
		return nil, err
	}
	if err := req.Cycle.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.SubRepo.GetOpenBySubscriber(ctx, req.Subscriber)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, ierr.NewError("subscriber already has an open subscription").
			WithHint("Cancel or expire the current subscription before subscribing again").
			WithReportableDetails(map[string]any{
				"subscriber":      req.Subscriber.Key(),
				"subscription_id": existing.ID,
			}).
			Mark(ierr.ErrSubscriptionInvalid)
	}

	plan, err := s.PlanRepo.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	pr, err := s.PriceRepo.GetByPlanAndCycle(ctx, plan.ID, req.Cycle)
	if err != nil {
		return nil, err
	}

	resolution, err := s.couponSvc.Resolve(ctx, req.CouponCode, pr.Amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		Subscriber:      req.Subscriber,
		PlanID:          plan.ID,
		PlanPriceID:     pr.ID,
		StartDate:       now,
		NextBillingDate: now,
		AmountDue:       pr.Amount.Sub(resolution.Discount),
		ProratedAmount:  decimal.Zero,
		Currency:        pr.Currency,
		SubStatus:       types.SubscriptionStatusPending,
		GraceValue:      s.Config.Subscription.DefaultGraceValue,
		GraceCycle:      s.Config.Subscription.DefaultGraceCycle,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
	if resolution.Applied() {
		sub.CouponID = &resolution.Coupon.ID
	}
	if sub.AmountDue.IsNegative() {
		sub.AmountDue = decimal.Zero
	}

	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if err := s.SubRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, sub, "created")
	s.Logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"subscriber", req.Subscriber.Key(),
		"plan_id", plan.ID,
		"coupon_reason", resolution.Reason,
	)
	return sub, nil
}

func (s *subscriptionService) StartBilling(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, ok, err := s.getForMutation(ctx, id, "start billing")
	if err != nil || !ok {
		return nil, err
	}

	plan, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	pr, err := s.PriceRepo.Get(ctx, sub.PlanPriceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub.LastBillingDate = &now
	// The billing clock starts immediately either way; a trial only overlays
	// the status and its own end date on top of the running period.
	sub.NextBillingDate = pr.BillingCycle.Advance(now)

	if plan.HasTrial() {
		trialEnd := plan.TrialCycle.AdvanceBy(now, plan.TrialValue)
		sub.TrialEndsAt = &trialEnd
		sub.SubStatus = types.SubscriptionStatusTrialing
	} else {
		sub.SubStatus = types.SubscriptionStatusActive
	}
	sub.Touch(ctx)

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, sub, "billing started")
	return sub, nil
}

func (s *subscriptionService) Renew(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, ok, err := s.getForMutation(ctx, id, "renew")
	if err != nil || !ok {
		return nil, err
	}

	now := time.Now().UTC()
	if !sub.IsExpired(now) {
		s.Logger.Debugw("subscription not yet expired, skipping renewal",
			"subscription_id", id,
			"next_billing_date", sub.NextBillingDate,
		)
		return sub, nil
	}

	pr, err := s.PriceRepo.Get(ctx, sub.PlanPriceID)
	if err != nil {
		return nil, err
	}

	// The stored coupon is re-evaluated each period, so an expired or
	// deactivated coupon stops discounting without being unlinked.
	amountDue := pr.Amount.Sub(s.currentDiscount(ctx, sub, pr))
	if amountDue.IsNegative() {
		amountDue = decimal.Zero
	}

	// The new period starts now, not at the lapsed billing date: a
	// subscription renewed three days late still gets a full cycle.
	sub.LastBillingDate = &now
	sub.NextBillingDate = pr.BillingCycle.Advance(now)
	sub.AmountDue = amountDue
	sub.ProratedAmount = decimal.Zero
	sub.SubStatus = types.SubscriptionStatusActive
	sub.Touch(ctx)

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, sub, "renewed")
	return sub, nil
}

func (s *subscriptionService) Cancel(ctx context.Context, id string, hard bool) error {
	sub, ok, err := s.getForMutation(ctx, id, "cancel")
	if err != nil || !ok {
		return err
	}

	if hard {
		// History outlives the subscription, so the record goes in before
		// the row disappears.
		sub.SubStatus = types.SubscriptionStatusCanceled
		s.recordHistory(ctx, sub, "deleted")

		err := s.DB.WithTx(ctx, func(ctx context.Context) error {
			if err := s.UsageRepo.DeleteBySubscription(ctx, sub.ID); err != nil {
				return err
			}
			return s.SubRepo.Delete(ctx, sub.ID)
		})
		if err != nil {
			return err
		}
		s.Logger.Infow("hard deleted subscription", "subscription_id", sub.ID)
		return nil
	}

	return s.transition(ctx, sub, types.SubscriptionStatusCanceled, "canceled")
}

func (s *subscriptionService) Suspend(ctx context.Context, id string) error {
	sub, ok, err := s.getForMutation(ctx, id, "suspend")
	if err != nil || !ok {
		return err
	}
	return s.transition(ctx, sub, types.SubscriptionStatusSuspended, "suspended")
}

func (s *subscriptionService) Resume(ctx context.Context, id string) error {
	sub, ok, err := s.getForMutation(ctx, id, "resume")
	if err != nil || !ok {
		return err
	}
	if sub.SubStatus != types.SubscriptionStatusSuspended {
		return ierr.NewError("only suspended subscriptions can be resumed").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
				"sub_status":      sub.SubStatus,
			}).
			Mark(ierr.ErrSubscriptionInvalid)
	}
	return s.transition(ctx, sub, types.SubscriptionStatusActive, "resumed")
}

func (s *subscriptionService) EnterGracePeriod(ctx context.Context, id string, graceValue int, graceCycle types.BillingCycle) (*subscription.Subscription, error) {
	sub, ok, err := s.getForMutation(ctx, id, "enter grace period")
	if err != nil || !ok {
		return nil, err
	}

	if graceValue <= 0 {
		graceValue = s.Config.Subscription.DefaultGraceValue
	}
	if graceCycle == "" {
		graceCycle = s.Config.Subscription.DefaultGraceCycle
	}
	if err := graceCycle.Validate(); err != nil {
		return nil, err
	}

	// Grace pushes the billing date itself, in fixed days from now, so the
	// subscription stays billable without any other overlay consulted.
	sub.GraceValue = graceValue
	sub.GraceCycle = graceCycle
	sub.NextBillingDate = time.Now().UTC().AddDate(0, 0, graceCycle.FixedDays()*graceValue)
	sub.Touch(ctx)

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, sub, "grace period entered")
	return sub, nil
}

func (s *subscriptionService) ChangePrice(ctx context.Context, id string, newPriceID string) (*subscription.Subscription, error) {
	sub, ok, err := s.getForMutation(ctx, id, "change price")
	if err != nil || !ok {
		return nil, err
	}

	newPrice, err := s.PriceRepo.Get(ctx, newPriceID)
	if err != nil {
		return nil, err
	}
	oldPrice, err := s.PriceRepo.Get(ctx, sub.PlanPriceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	prorated := s.prorate(sub, oldPrice, now)

	planChanged := sub.PlanID != newPrice.PlanID
	sub.PlanID = newPrice.PlanID
	sub.PlanPriceID = newPrice.ID
	sub.Currency = newPrice.Currency
	sub.ProratedAmount = prorated
	sub.AmountDue = newPrice.Amount.Sub(prorated)
	if sub.AmountDue.IsNegative() {
		sub.AmountDue = decimal.Zero
	}
	// Switching prices opens a fresh period on the new cycle; the credit for
	// the old period's remainder already sits in ProratedAmount.
	sub.LastBillingDate = &now
	sub.NextBillingDate = newPrice.BillingCycle.Advance(now)
	sub.Touch(ctx)

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	if planChanged {
		s.recordHistory(ctx, sub, "plan changed")
	}
	s.recordHistory(ctx, sub, "price changed")

	s.Logger.Infow("changed subscription price",
		"subscription_id", sub.ID,
		"price_id", newPrice.ID,
		"prorated_amount", prorated,
	)
	return sub, nil
}

// prorate credits the unused remainder of the running period: the current
// amount due spread over the old cycle's fixed day count, multiplied by the
// days left until the next billing date. Disabled by configuration it is zero.
func (s *subscriptionService) prorate(sub *subscription.Subscription, oldPrice *price.Price, now time.Time) decimal.Decimal {
	if !s.Config.Subscription.EnableProratedBilling {
		return decimal.Zero
	}

	cycleDays := oldPrice.BillingCycle.FixedDays()
	if cycleDays <= 0 {
		return decimal.Zero
	}

	remaining := int(sub.NextBillingDate.Sub(now).Hours() / 24)
	if remaining <= 0 {
		return decimal.Zero
	}
	if remaining > cycleDays {
		// Calendar periods can run a day or so longer than the fixed cycle
		// length; the credit never exceeds what the period was billed at.
		remaining = cycleDays
	}

	perDay := sub.AmountDue.Div(decimal.NewFromInt(int64(cycleDays)))
	return perDay.Mul(decimal.NewFromInt(int64(remaining)))
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*subscription.Subscription, error) {
	return s.SubRepo.Get(ctx, id)
}

func (s *subscriptionService) GetOpenSubscription(ctx context.Context, subscriber types.Subscriber) (*subscription.Subscription, error) {
	return s.SubRepo.GetOpenBySubscriber(ctx, subscriber)
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, subscriber types.Subscriber) ([]*subscription.Subscription, error) {
	if err := subscriber.Validate(); err != nil {
		return nil, err
	}
	return s.SubRepo.ListBySubscriber(ctx, subscriber)
}

func (s *subscriptionService) ListByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*subscription.Subscription, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}
	return s.SubRepo.ListByStatus(ctx, status)
}

func (s *subscriptionService) IsActive(ctx context.Context, subscriber types.Subscriber) (bool, error) {
	sub, err := s.SubRepo.GetOpenBySubscriber(ctx, subscriber)
	if err != nil {
		if ierr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return sub.IsActive(time.Now().UTC()), nil
}

func (s *subscriptionService) ListHistory(ctx context.Context, subscriptionID string) ([]*subscription.History, error) {
	return s.HistoryRepo.ListBySubscription(ctx, subscriptionID)
}

// getForMutation fetches a subscription for a lifecycle mutation. A missing
// subscription is not an error for mutations: it is logged and skipped.
func (s *subscriptionService) getForMutation(ctx context.Context, id, op string) (*subscription.Subscription, bool, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("subscription not found, skipping mutation",
				"subscription_id", id,
				"operation", op,
			)
			return nil, false, nil
		}
		return nil, false, err
	}
	return sub, true, nil
}

func (s *subscriptionService) transition(ctx context.Context, sub *subscription.Subscription, status types.SubscriptionStatus, details string) error {
	sub.SubStatus = status
	sub.Touch(ctx)

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}

	s.recordHistory(ctx, sub, details)
	return nil
}

// currentDiscount computes the discount the stored coupon yields against the
// given price right now, zero when the coupon is gone, inactive or expired.
func (s *subscriptionService) currentDiscount(ctx context.Context, sub *subscription.Subscription, pr *price.Price) decimal.Decimal {
	if sub.CouponID == nil {
		return decimal.Zero
	}

	c, err := s.CouponRepo.Get(ctx, *sub.CouponID)
	if err != nil {
		s.Logger.Warnw("stored coupon could not be loaded, billing full price",
			"subscription_id", sub.ID,
			"coupon_id", *sub.CouponID,
			"error", err,
		)
		return decimal.Zero
	}
	if !c.IsActive || !c.IsValid(time.Now().UTC()) {
		return decimal.Zero
	}
	return c.CalculateDiscount(pr.Amount)
}

// recordHistory appends an audit row for the subscription's current state.
// History is best effort: a failed write is logged, never propagated, so an
// audit hiccup cannot roll back a completed transition.
func (s *subscriptionService) recordHistory(ctx context.Context, sub *subscription.Subscription, details string) {
	planName := ""
	if plan, err := s.PlanRepo.Get(ctx, sub.PlanID); err == nil {
		planName = plan.Name
	}

	h := &subscription.History{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION_HISTORY),
		SubscriptionID: sub.ID,
		PlanID:         sub.PlanID,
		PlanName:       planName,
		PlanPriceID:    sub.PlanPriceID,
		SubStatus:      sub.SubStatus,
		Details:        details,
		TenantID:       types.GetTenantID(ctx),
		CreatedAt:      time.Now().UTC(),
		CreatedBy:      types.GetUserID(ctx),
	}
	if err := s.HistoryRepo.Create(ctx, h); err != nil {
		s.Logger.Errorw("failed to record subscription history",
			"subscription_id", sub.ID,
			"details", details,
			"error", err,
		)
	}
}
