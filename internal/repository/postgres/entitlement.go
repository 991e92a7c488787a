package postgres

import (
	"context"
	"database/sql"

	"github.com/ntechservices/subscription/internal/domain/entitlement"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/logger"
	"github.com/ntechservices/subscription/internal/postgres"
	"github.com/ntechservices/subscription/internal/types"
)

type entitlementRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewEntitlementRepository(db *postgres.DB, logger *logger.Logger) entitlement.Repository {
	return &entitlementRepository{db: db, logger: logger}
}

const entitlementSelectColumns = `
	id, tenant_id, entity_type, entity_id, feature_id, value, is_soft_limit,
	overage_price, overage_currency, status, created_at, updated_at, created_by, updated_by
`

// Upsert relies on the unique index over (tenant_id, entity_type, entity_id,
// feature_id) so that re-granting a feature replaces the value in place.
func (r *entitlementRepository) Upsert(ctx context.Context, e *entitlement.Entitlement) (*entitlement.Entitlement, error) {
	query := `
	INSERT INTO entitlements (
		id, tenant_id, entity_type, entity_id, feature_id, value, is_soft_limit,
		overage_price, overage_currency, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
	)
	ON CONFLICT (tenant_id, entity_type, entity_id, feature_id) DO UPDATE SET
		value = EXCLUDED.value,
		is_soft_limit = EXCLUDED.is_soft_limit,
		overage_price = EXCLUDED.overage_price,
		overage_currency = EXCLUDED.overage_currency,
		status = EXCLUDED.status,
		updated_at = EXCLUDED.updated_at,
		updated_by = EXCLUDED.updated_by
	RETURNING ` + entitlementSelectColumns

	return r.scan(r.db.GetQuerier(ctx).QueryRowContext(ctx, query,
		e.ID,
		e.TenantID,
		e.EntityType,
		e.EntityID,
		e.FeatureID,
		e.Value,
		e.IsSoftLimit,
		e.OveragePrice,
		e.OverageCurrency,
		e.Status,
		e.CreatedAt,
		e.UpdatedAt,
		e.CreatedBy,
		e.UpdatedBy,
	))
}

func (r *entitlementRepository) scan(row interface{ Scan(dest ...any) error }) (*entitlement.Entitlement, error) {
	var e entitlement.Entitlement
	err := row.Scan(
		&e.ID,
		&e.TenantID,
		&e.EntityType,
		&e.EntityID,
		&e.FeatureID,
		&e.Value,
		&e.IsSoftLimit,
		&e.OveragePrice,
		&e.OverageCurrency,
		&e.Status,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.CreatedBy,
		&e.UpdatedBy,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("entitlement not found").
				WithHint("No grant exists for the entity and feature").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to read entitlement").
			Mark(ierr.ErrDatabase)
	}
	return &e, nil
}

func (r *entitlementRepository) Get(ctx context.Context, id string) (*entitlement.Entitlement, error) {
	query := `SELECT ` + entitlementSelectColumns + `
	FROM entitlements WHERE id = $1 AND tenant_id = $2 AND status = $3`

	return r.scan(r.db.GetQuerier(ctx).QueryRowContext(ctx, query, id, types.GetTenantID(ctx), types.StatusPublished))
}

func (r *entitlementRepository) GetByEntityAndFeature(ctx context.Context, entityType types.EntitlementEntityType, entityID, featureID string) (*entitlement.Entitlement, error) {
	query := `SELECT ` + entitlementSelectColumns + `
	FROM entitlements
	WHERE entity_type = $1 AND entity_id = $2 AND feature_id = $3 AND tenant_id = $4 AND status = $5`

	return r.scan(r.db.GetQuerier(ctx).QueryRowContext(ctx, query,
		entityType, entityID, featureID, types.GetTenantID(ctx), types.StatusPublished))
}

func (r *entitlementRepository) ListByEntity(ctx context.Context, entityType types.EntitlementEntityType, entityID string) ([]*entitlement.Entitlement, error) {
	query := `SELECT ` + entitlementSelectColumns + `
	FROM entitlements
	WHERE entity_type = $1 AND entity_id = $2 AND tenant_id = $3 AND status = $4
	ORDER BY created_at ASC`

	rows, err := r.db.GetQuerier(ctx).QueryContext(ctx, query,
		entityType, entityID, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list entitlements").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var entitlements []*entitlement.Entitlement
	for rows.Next() {
		e, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		entitlements = append(entitlements, e)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list entitlements").
			Mark(ierr.ErrDatabase)
	}
	return entitlements, nil
}

func (r *entitlementRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM entitlements WHERE id = $1 AND tenant_id = $2`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, types.GetTenantID(ctx))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete entitlement").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *entitlementRepository) DeleteByEntity(ctx context.Context, entityType types.EntitlementEntityType, entityID string) error {
	query := `DELETE FROM entitlements WHERE entity_type = $1 AND entity_id = $2 AND tenant_id = $3`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, entityType, entityID, types.GetTenantID(ctx))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete entitlements").
			Mark(ierr.ErrDatabase)
	}
	if affected, _ := result.RowsAffected(); affected > 0 {
		r.logger.Debugw("deleted entitlements",
			"entity_type", entityType,
			"entity_id", entityID,
			"count", affected,
		)
	}
	return nil
}
