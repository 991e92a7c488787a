package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/ntechservices/subscription/internal/domain/coupon"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/logger"
	"github.com/ntechservices/subscription/internal/postgres"
	"github.com/ntechservices/subscription/internal/types"
)

type couponRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewCouponRepository(db *postgres.DB, logger *logger.Logger) coupon.Repository {
	return &couponRepository{db: db, logger: logger}
}

const couponSelectColumns = `
	id, tenant_id, code, discount_amount, discount_type, expires_at, is_active,
	status, created_at, updated_at, created_by, updated_by
`

func (r *couponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	query := `
	INSERT INTO coupons (
		id, tenant_id, code, discount_amount, discount_type, expires_at, is_active,
		status, created_at, updated_at, created_by, updated_by
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
	)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		c.ID,
		c.TenantID,
		c.Code,
		c.DiscountAmount,
		c.DiscountType,
		c.ExpiresAt,
		c.IsActive,
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
		c.CreatedBy,
		c.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create coupon").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *couponRepository) scan(row interface{ Scan(dest ...any) error }) (*coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(
		&c.ID,
		&c.TenantID,
		&c.Code,
		&c.DiscountAmount,
		&c.DiscountType,
		&c.ExpiresAt,
		&c.IsActive,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.CreatedBy,
		&c.UpdatedBy,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("coupon not found").
				WithHint("The coupon code does not exist").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to read coupon").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *couponRepository) Get(ctx context.Context, id string) (*coupon.Coupon, error) {
	query := `SELECT ` + couponSelectColumns + `
	FROM coupons WHERE id = $1 AND tenant_id = $2 AND status = $3`

	return r.scan(r.db.GetQuerier(ctx).QueryRowContext(ctx, query, id, types.GetTenantID(ctx), types.StatusPublished))
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	query := `SELECT ` + couponSelectColumns + `
	FROM coupons WHERE code = $1 AND tenant_id = $2 AND status = $3`

	return r.scan(r.db.GetQuerier(ctx).QueryRowContext(ctx, query, code, types.GetTenantID(ctx), types.StatusPublished))
}

func (r *couponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	query := `
	UPDATE coupons SET
		code = $3, discount_amount = $4, discount_type = $5, expires_at = $6,
		is_active = $7, updated_at = $8, updated_by = $9
	WHERE id = $1 AND tenant_id = $2 AND status = $10
	`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		c.ID,
		types.GetTenantID(ctx),
		c.Code,
		c.DiscountAmount,
		c.DiscountType,
		c.ExpiresAt,
		c.IsActive,
		time.Now().UTC(),
		types.GetUserID(ctx),
		types.StatusPublished,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update coupon").
			Mark(ierr.ErrDatabase)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ierr.NewError("coupon not found").
			WithHint("The coupon does not exist or was deleted").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *couponRepository) Delete(ctx context.Context, id string) error {
	query := `
	UPDATE coupons SET status = $3, updated_at = $4, updated_by = $5
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
			WithHint("Failed to delete coupon").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
