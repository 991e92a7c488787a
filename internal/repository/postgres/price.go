package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/ntechservices/subscription/internal/domain/price"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/logger"
	"github.com/ntechservices/subscription/internal/postgres"
	"github.com/ntechservices/subscription/internal/types"
)

type priceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPriceRepository(db *postgres.DB, logger *logger.Logger) price.Repository {
	return &priceRepository{db: db, logger: logger}
}

const priceSelectColumns = `
	id, tenant_id, plan_id, amount, currency, billing_cycle,
	status, created_at, updated_at, created_by, updated_by
`

func (r *priceRepository) Create(ctx context.Context, p *price.Price) error {
	query := `
	INSERT INTO plan_prices (
		id, tenant_id, plan_id, amount, currency, billing_cycle,
		status, created_at, updated_at, created_by, updated_by
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
	)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		p.ID,
		p.TenantID,
		p.PlanID,
		p.Amount,
		p.Currency,
		p.BillingCycle,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
		p.CreatedBy,
		p.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create price").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *priceRepository) scan(row interface{ Scan(dest ...any) error }) (*price.Price, error) {
	var p price.Price
	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.PlanID,
		&p.Amount,
		&p.Currency,
		&p.BillingCycle,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.CreatedBy,
		&p.UpdatedBy,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("price not found").
				WithHint("No price exists for the plan and billing cycle").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to read price").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *priceRepository) Get(ctx context.Context, id string) (*price.Price, error) {
	query := `SELECT ` + priceSelectColumns + `
	FROM plan_prices WHERE id = $1 AND tenant_id = $2 AND status = $3`

	return r.scan(r.db.GetQuerier(ctx).QueryRowContext(ctx, query, id, types.GetTenantID(ctx), types.StatusPublished))
}

func (r *priceRepository) GetByPlanAndCycle(ctx context.Context, planID string, cycle types.BillingCycle) (*price.Price, error) {
	query := `SELECT ` + priceSelectColumns + `
	FROM plan_prices
	WHERE plan_id = $1 AND billing_cycle = $2 AND tenant_id = $3 AND status = $4
	ORDER BY created_at DESC
	LIMIT 1`

	return r.scan(r.db.GetQuerier(ctx).QueryRowContext(ctx, query, planID, cycle, types.GetTenantID(ctx), types.StatusPublished))
}

func (r *priceRepository) ListByPlan(ctx context.Context, planID string) ([]*price.Price, error) {
	query := `SELECT ` + priceSelectColumns + `
	FROM plan_prices
	WHERE plan_id = $1 AND tenant_id = $2 AND status = $3
	ORDER BY created_at ASC`

	rows, err := r.db.GetQuerier(ctx).QueryContext(ctx, query, planID, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list prices").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var prices []*price.Price
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list prices").
			Mark(ierr.ErrDatabase)
	}
	return prices, nil
}

func (r *priceRepository) Update(ctx context.Context, p *price.Price) error {
	query := `
	UPDATE plan_prices SET
		amount = $3, currency = $4, billing_cycle = $5, updated_at = $6, updated_by = $7
	WHERE id = $1 AND tenant_id = $2 AND status = $8
	`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		p.ID,
		types.GetTenantID(ctx),
		p.Amount,
		p.Currency,
		p.BillingCycle,
		time.Now().UTC(),
		types.GetUserID(ctx),
		types.StatusPublished,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update price").
			Mark(ierr.ErrDatabase)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ierr.NewError("price not found").
			WithHint("The price does not exist or was deleted").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *priceRepository) Delete(ctx context.Context, id string) error {
	query := `
	UPDATE plan_prices SET status = $3, updated_at = $4, updated_by = $5
	WHERE id = $1 AND tenant_id = $2
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		id,
		types.GetTenantID(ctx),
		types.StatusDeleted,
		time.Now().UTC(),
		types.GetUserID(ctx),
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete price").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *priceRepository) DeleteByPlan(ctx context.Context, planID string) error {
	query := `
	UPDATE plan_prices SET status = $3, updated_at = $4, updated_by = $5
	WHERE plan_id = $1 AND tenant_id = $2
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		planID,
		types.GetTenantID(ctx),
		types.StatusDeleted,
		time.Now().UTC(),
		types.GetUserID(ctx),
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete plan prices").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
