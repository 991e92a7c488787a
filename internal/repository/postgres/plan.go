package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/ntechservices/subscription/internal/cache"
	"github.com/ntechservices/subscription/internal/domain/plan"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/logger"
	"github.com/ntechservices/subscription/internal/postgres"
	"github.com/ntechservices/subscription/internal/types"
)

type planRepository struct {
	db     *postgres.DB
	logger *logger.Logger
	cache  cache.Cache
}

func NewPlanRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) plan.Repository {
	return &planRepository{db: db, logger: logger, cache: cache}
}

func (r *planRepository) Create(ctx context.Context, p *plan.Plan) error {
	query := `
	INSERT INTO plans (
		id, tenant_id, name, lookup_key, description, trial_value, trial_cycle,
		display_order, popular, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
	)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		p.ID,
		p.TenantID,
		p.Name,
		p.LookupKey,
		p.Description,
		p.TrialValue,
		p.TrialCycle,
		p.DisplayOrder,
		p.Popular,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
		p.CreatedBy,
		p.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create plan").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

const planSelectColumns = `
	id, tenant_id, name, lookup_key, description, trial_value, trial_cycle,
	display_order, popular, status, created_at, updated_at, created_by, updated_by
`

func (r *planRepository) scan(row interface{ Scan(dest ...any) error }) (*plan.Plan, error) {
	var p plan.Plan
	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.Name,
		&p.LookupKey,
		&p.Description,
		&p.TrialValue,
		&p.TrialCycle,
		&p.DisplayOrder,
		&p.Popular,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.CreatedBy,
		&p.UpdatedBy,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("plan not found").
				WithHint("The plan does not exist or was deleted").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to read plan").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	key := cache.GenerateKey(cache.PrefixPlan, types.GetTenantID(ctx), "id", id)
	if cached, ok := r.cache.Get(ctx, key); ok {
		if p, ok := cached.(*plan.Plan); ok {
			return p, nil
		}
	}

	query := `SELECT ` + planSelectColumns + `
	FROM plans WHERE id = $1 AND tenant_id = $2 AND status = $3`

	p, err := r.scan(r.db.GetQuerier(ctx).QueryRowContext(ctx, query, id, types.GetTenantID(ctx), types.StatusPublished))
	if err != nil {
		return nil, err
	}

	r.cache.Set(ctx, key, p, 5*time.Minute)
	return p, nil
}

func (r *planRepository) GetByLookupKey(ctx context.Context, lookupKey string) (*plan.Plan, error) {
	key := cache.GenerateKey(cache.PrefixPlan, types.GetTenantID(ctx), "lookup_key", lookupKey)
	if cached, ok := r.cache.Get(ctx, key); ok {
		if p, ok := cached.(*plan.Plan); ok {
			return p, nil
		}
	}

	query := `SELECT ` + planSelectColumns + `
	FROM plans WHERE lookup_key = $1 AND tenant_id = $2 AND status = $3`

	p, err := r.scan(r.db.GetQuerier(ctx).QueryRowContext(ctx, query, lookupKey, types.GetTenantID(ctx), types.StatusPublished))
	if err != nil {
		return nil, err
	}

	r.cache.Set(ctx, key, p, 5*time.Minute)
	return p, nil
}

func (r *planRepository) List(ctx context.Context) ([]*plan.Plan, error) {
	query := `SELECT ` + planSelectColumns + `
	FROM plans WHERE tenant_id = $1 AND status = $2
	ORDER BY display_order ASC, created_at ASC`

	rows, err := r.db.GetQuerier(ctx).QueryContext(ctx, query, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plans").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var plans []*plan.Plan
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plans").
			Mark(ierr.ErrDatabase)
	}
	return plans, nil
}

func (r *planRepository) Update(ctx context.Context, p *plan.Plan) error {
	query := `
	UPDATE plans SET
		name = $3, lookup_key = $4, description = $5, trial_value = $6,
		trial_cycle = $7, display_order = $8, popular = $9,
		updated_at = $10, updated_by = $11
	WHERE id = $1 AND tenant_id = $2 AND status = $12
	`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		p.ID,
		types.GetTenantID(ctx),
		p.Name,
		p.LookupKey,
		p.Description,
		p.TrialValue,
		p.TrialCycle,
		p.DisplayOrder,
		p.Popular,
		time.Now().UTC(),
		types.GetUserID(ctx),
		types.StatusPublished,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update plan").
			Mark(ierr.ErrDatabase)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ierr.NewError("plan not found").
			WithHint("The plan does not exist or was deleted").
			Mark(ierr.ErrNotFound)
	}

	r.invalidate(ctx, p)
	return nil
}

func (r *planRepository) Delete(ctx context.Context, id string) error {
	p, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	query := `
	UPDATE plans SET status = $3, updated_at = $4, updated_by = $5
	WHERE id = $1 AND tenant_id = $2
	`

	_, err = r.db.GetQuerier(ctx).ExecContext(ctx, query,
		id,
		types.GetTenantID(ctx),
		types.StatusDeleted,
		time.Now().UTC(),
		types.GetUserID(ctx),
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete plan").
			Mark(ierr.ErrDatabase)
	}

	r.invalidate(ctx, p)
	return nil
}

func (r *planRepository) invalidate(ctx context.Context, p *plan.Plan) {
	tenantID := types.GetTenantID(ctx)
	r.cache.Delete(ctx, cache.GenerateKey(cache.PrefixPlan, tenantID, "id", p.ID))
	r.cache.Delete(ctx, cache.GenerateKey(cache.PrefixPlan, tenantID, "lookup_key", p.LookupKey))
}
