package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/ntechservices/subscription/internal/domain/subscription"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/logger"
	"github.com/ntechservices/subscription/internal/postgres"
	"github.com/ntechservices/subscription/internal/types"
)

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

const subscriptionSelectColumns = `
	id, tenant_id, subscriber_type, subscriber_id, plan_id, plan_price_id, coupon_id,
	start_date, trial_ends_at, next_billing_date, last_billing_date,
	amount_due, prorated_amount, currency, sub_status, grace_value, grace_cycle,
	status, created_at, updated_at, created_by, updated_by
`

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	query := `
	INSERT INTO subscriptions (
		id, tenant_id, subscriber_type, subscriber_id, plan_id, plan_price_id, coupon_id,
		start_date, trial_ends_at, next_billing_date, last_billing_date,
		amount_due, prorated_amount, currency, sub_status, grace_value, grace_cycle,
		status, created_at, updated_at, created_by, updated_by
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
		$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
	)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		sub.ID,
		sub.TenantID,
		sub.Subscriber.Type,
		sub.Subscriber.ID,
		sub.PlanID,
		sub.PlanPriceID,
		sub.CouponID,
		sub.StartDate,
		sub.TrialEndsAt,
		sub.NextBillingDate,
		sub.LastBillingDate,
		sub.AmountDue,
		sub.ProratedAmount,
		sub.Currency,
		sub.SubStatus,
		sub.GraceValue,
		sub.GraceCycle,
		sub.Status,
		sub.CreatedAt,
		sub.UpdatedAt,
		sub.CreatedBy,
		sub.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) scan(row interface{ Scan(dest ...any) error }) (*subscription.Subscription, error) {
	var s subscription.Subscription
	err := row.Scan(
		&s.ID,
		&s.TenantID,
		&s.Subscriber.Type,
		&s.Subscriber.ID,
		&s.PlanID,
		&s.PlanPriceID,
		&s.CouponID,
		&s.StartDate,
		&s.TrialEndsAt,
		&s.NextBillingDate,
		&s.LastBillingDate,
		&s.AmountDue,
		&s.ProratedAmount,
		&s.Currency,
		&s.SubStatus,
		&s.GraceValue,
		&s.GraceCycle,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.CreatedBy,
		&s.UpdatedBy,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("subscription not found").
				WithHint("The subscription does not exist or was deleted").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to read subscription").
			Mark(ierr.ErrDatabase)
	}
	return &s, nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionSelectColumns + `
	FROM subscriptions WHERE id = $1 AND tenant_id = $2 AND status = $3`

	return r.scan(r.db.GetQuerier(ctx).QueryRowContext(ctx, query, id, types.GetTenantID(ctx), types.StatusPublished))
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	query := `
	UPDATE subscriptions SET
		plan_id = $3, plan_price_id = $4, coupon_id = $5,
		trial_ends_at = $6, next_billing_date = $7, last_billing_date = $8,
		amount_due = $9, prorated_amount = $10, currency = $11,
		sub_status = $12, grace_value = $13, grace_cycle = $14,
		updated_at = $15, updated_by = $16
	WHERE id = $1 AND tenant_id = $2 AND status = $17
	`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		sub.ID,
		types.GetTenantID(ctx),
		sub.PlanID,
		sub.PlanPriceID,
		sub.CouponID,
		sub.TrialEndsAt,
		sub.NextBillingDate,
		sub.LastBillingDate,
		sub.AmountDue,
		sub.ProratedAmount,
		sub.Currency,
		sub.SubStatus,
		sub.GraceValue,
		sub.GraceCycle,
		sub.UpdatedAt,
		sub.UpdatedBy,
		types.StatusPublished,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ierr.NewError("subscription not found").
			WithHint("The subscription does not exist or was deleted").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// Delete removes the row for good. History rows are kept on purpose; they
// reference the subscription by ID without a foreign key.
func (r *subscriptionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM subscriptions WHERE id = $1 AND tenant_id = $2`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, types.GetTenantID(ctx))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete subscription").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) ListBySubscriber(ctx context.Context, subscriber types.Subscriber) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionSelectColumns + `
	FROM subscriptions
	WHERE subscriber_type = $1 AND subscriber_id = $2 AND tenant_id = $3 AND status = $4
	ORDER BY created_at DESC`

	return r.list(ctx, query, subscriber.Type, subscriber.ID, types.GetTenantID(ctx), types.StatusPublished)
}

func (r *subscriptionRepository) GetOpenBySubscriber(ctx context.Context, subscriber types.Subscriber) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionSelectColumns + `
	FROM subscriptions
	WHERE subscriber_type = $1 AND subscriber_id = $2 AND tenant_id = $3 AND status = $4
	AND sub_status = ANY($5)
	ORDER BY created_at DESC
	LIMIT 1`

	open := types.OpenSubscriptionStatuses()
	statuses := make([]string, len(open))
	for i, s := range open {
		statuses[i] = s.String()
	}

	return r.scan(r.db.GetQuerier(ctx).QueryRowContext(ctx, query,
		subscriber.Type,
		subscriber.ID,
		types.GetTenantID(ctx),
		types.StatusPublished,
		pq.Array(statuses),
	))
}

func (r *subscriptionRepository) ListByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionSelectColumns + `
	FROM subscriptions
	WHERE sub_status = $1 AND tenant_id = $2 AND status = $3
	ORDER BY created_at DESC`

	return r.list(ctx, query, status, types.GetTenantID(ctx), types.StatusPublished)
}

func (r *subscriptionRepository) list(ctx context.Context, query string, args ...any) ([]*subscription.Subscription, error) {
	rows, err := r.db.GetQuerier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var subs []*subscription.Subscription
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}

type subscriptionHistoryRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionHistoryRepository(db *postgres.DB, logger *logger.Logger) subscription.HistoryRepository {
	return &subscriptionHistoryRepository{db: db, logger: logger}
}

func (r *subscriptionHistoryRepository) Create(ctx context.Context, h *subscription.History) error {
	query := `
	INSERT INTO subscription_histories (
		id, subscription_id, plan_id, plan_name, plan_price_id, sub_status,
		details, tenant_id, created_at, created_by
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
	)
	`

	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		h.ID,
		h.SubscriptionID,
		h.PlanID,
		h.PlanName,
		h.PlanPriceID,
		h.SubStatus,
		h.Details,
		h.TenantID,
		h.CreatedAt,
		h.CreatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record subscription history").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionHistoryRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*subscription.History, error) {
	query := `
	SELECT id, subscription_id, plan_id, plan_name, plan_price_id, sub_status,
		details, tenant_id, created_at, created_by
	FROM subscription_histories
	WHERE subscription_id = $1 AND tenant_id = $2
	ORDER BY created_at ASC
	`

	rows, err := r.db.GetQuerier(ctx).QueryContext(ctx, query, subscriptionID, types.GetTenantID(ctx))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscription history").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var histories []*subscription.History
	for rows.Next() {
		var h subscription.History
		err := rows.Scan(
			&h.ID,
			&h.SubscriptionID,
			&h.PlanID,
			&h.PlanName,
			&h.PlanPriceID,
			&h.SubStatus,
			&h.Details,
			&h.TenantID,
			&h.CreatedAt,
			&h.CreatedBy,
		)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to read subscription history").
				Mark(ierr.ErrDatabase)
		}
		histories = append(histories, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscription history").
			Mark(ierr.ErrDatabase)
	}
	return histories, nil
}
