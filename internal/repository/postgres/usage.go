package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/ntechservices/subscription/internal/domain/usage"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/logger"
	"github.com/ntechservices/subscription/internal/postgres"
	"github.com/ntechservices/subscription/internal/types"
)

type usageRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewUsageRepository(db *postgres.DB, logger *logger.Logger) usage.Repository {
	return &usageRepository{db: db, logger: logger}
}

const usageSelectColumns = `
	id, tenant_id, subscription_id, feature_id, used, cached_limit, overage_count,
	period_start, period_end, reset_at, status, created_at, updated_at, created_by, updated_by
`

// GetOrCreate leans on the unique index over (tenant_id, subscription_id,
// feature_id): the no-op conflict update makes RETURNING yield the stored row
// whether this call inserted it or lost the race.
func (r *usageRepository) GetOrCreate(ctx context.Context, u *usage.FeatureUsage) (*usage.FeatureUsage, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	query := `
	INSERT INTO feature_usages (
		id, tenant_id, subscription_id, feature_id, used, cached_limit, overage_count,
		period_start, period_end, reset_at, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
	)
	ON CONFLICT (tenant_id, subscription_id, feature_id) DO UPDATE SET
		updated_at = feature_usages.updated_at
	RETURNING ` + usageSelectColumns

	return r.scan(r.db.GetQuerier(ctx).QueryRowContext(ctx, query,
		u.ID,
		u.TenantID,
		u.SubscriptionID,
		u.FeatureID,
		u.Used,
		u.CachedLimit,
		u.OverageCount,
		u.PeriodStart,
		u.PeriodEnd,
		u.ResetAt,
		u.Status,
		u.CreatedAt,
		u.UpdatedAt,
		u.CreatedBy,
		u.UpdatedBy,
	))
}

func (r *usageRepository) scan(row interface{ Scan(dest ...any) error }) (*usage.FeatureUsage, error) {
	var u usage.FeatureUsage
	err := row.Scan(
		&u.ID,
		&u.TenantID,
		&u.SubscriptionID,
		&u.FeatureID,
		&u.Used,
		&u.CachedLimit,
		&u.OverageCount,
		&u.PeriodStart,
		&u.PeriodEnd,
		&u.ResetAt,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.CreatedBy,
		&u.UpdatedBy,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("feature usage not found").
				WithHint("No usage row exists for the subscription and feature").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to read feature usage").
			Mark(ierr.ErrDatabase)
	}
	return &u, nil
}

func (r *usageRepository) Get(ctx context.Context, subscriptionID, featureID string) (*usage.FeatureUsage, error) {
	query := `SELECT ` + usageSelectColumns + `
	FROM feature_usages
	WHERE subscription_id = $1 AND feature_id = $2 AND tenant_id = $3`

	return r.scan(r.db.GetQuerier(ctx).QueryRowContext(ctx, query,
		subscriptionID, featureID, types.GetTenantID(ctx)))
}

func (r *usageRepository) Update(ctx context.Context, u *usage.FeatureUsage) error {
	query := `
	UPDATE feature_usages SET
		used = $3, cached_limit = $4, overage_count = $5,
		period_start = $6, period_end = $7, reset_at = $8,
		updated_at = $9, updated_by = $10
	WHERE id = $1 AND tenant_id = $2
	`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		u.ID,
		types.GetTenantID(ctx),
		u.Used,
		u.CachedLimit,
		u.OverageCount,
		u.PeriodStart,
		u.PeriodEnd,
		u.ResetAt,
		time.Now().UTC(),
		types.GetUserID(ctx),
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update feature usage").
			Mark(ierr.ErrDatabase)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ierr.NewError("feature usage not found").
			WithHint("The usage row does not exist").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *usageRepository) Increment(ctx context.Context, id string, usedDelta, overageDelta int64) error {
	query := `
	UPDATE feature_usages SET
		used = used + $3, overage_count = overage_count + $4, updated_at = $5
	WHERE id = $1 AND tenant_id = $2
	`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		id,
		types.GetTenantID(ctx),
		usedDelta,
		overageDelta,
		time.Now().UTC(),
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to increment feature usage").
			Mark(ierr.ErrDatabase)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ierr.NewError("feature usage not found").
			WithHint("The usage row does not exist").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// ResetPeriod guards the rollover with a compare-and-set on reset_at so that
// two racing callers cannot both zero the counter.
func (r *usageRepository) ResetPeriod(ctx context.Context, id string, expectedResetAt, periodStart, periodEnd time.Time) (bool, error) {
	query := `
	UPDATE feature_usages SET
		used = 0, overage_count = 0,
		period_start = $4, period_end = $5, reset_at = $5, updated_at = $6
	WHERE id = $1 AND tenant_id = $2 AND reset_at = $3
	`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		id,
		types.GetTenantID(ctx),
		expectedResetAt,
		periodStart,
		periodEnd,
		time.Now().UTC(),
	)
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to reset feature usage period").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to reset feature usage period").
			Mark(ierr.ErrDatabase)
	}
	return affected > 0, nil
}

func (r *usageRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*usage.FeatureUsage, error) {
	query := `SELECT ` + usageSelectColumns + `
	FROM feature_usages
	WHERE subscription_id = $1 AND tenant_id = $2
	ORDER BY created_at ASC`

	rows, err := r.db.GetQuerier(ctx).QueryContext(ctx, query, subscriptionID, types.GetTenantID(ctx))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list feature usage").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var usages []*usage.FeatureUsage
	for rows.Next() {
		u, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		usages = append(usages, u)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list feature usage").
			Mark(ierr.ErrDatabase)
	}
	return usages, nil
}

func (r *usageRepository) DeleteBySubscription(ctx context.Context, subscriptionID string) error {
	query := `DELETE FROM feature_usages WHERE subscription_id = $1 AND tenant_id = $2`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, subscriptionID, types.GetTenantID(ctx))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete feature usage").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
