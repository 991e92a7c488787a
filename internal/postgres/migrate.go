package postgres

import (
	"context"

	ierr "github.com/ntechservices/subscription/internal/errors"
)

// schema holds the DDL for every table the repositories touch. Statements are
// idempotent so Migrate can run at every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS plans (
		id VARCHAR(50) PRIMARY KEY,
		tenant_id VARCHAR(50) NOT NULL,
		name VARCHAR(255) NOT NULL,
		lookup_key VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		trial_value INTEGER NOT NULL DEFAULT 0,
		trial_cycle VARCHAR(20) NOT NULL DEFAULT '',
		display_order INTEGER NOT NULL DEFAULT 0,
		popular BOOLEAN NOT NULL DEFAULT FALSE,
		status VARCHAR(20) NOT NULL DEFAULT 'published',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		created_by VARCHAR(50) NOT NULL DEFAULT '',
		updated_by VARCHAR(50) NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_plans_tenant_lookup_key
		ON plans (tenant_id, lookup_key) WHERE status = 'published'`,

	`CREATE TABLE IF NOT EXISTS plan_prices (
		id VARCHAR(50) PRIMARY KEY,
		tenant_id VARCHAR(50) NOT NULL,
		plan_id VARCHAR(50) NOT NULL,
		amount NUMERIC(20,8) NOT NULL DEFAULT 0,
		currency VARCHAR(10) NOT NULL,
		billing_cycle VARCHAR(20) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'published',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		created_by VARCHAR(50) NOT NULL DEFAULT '',
		updated_by VARCHAR(50) NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_plan_prices_plan
		ON plan_prices (tenant_id, plan_id, billing_cycle)`,

	`CREATE TABLE IF NOT EXISTS features (
		id VARCHAR(50) PRIMARY KEY,
		tenant_id VARCHAR(50) NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'published',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		created_by VARCHAR(50) NOT NULL DEFAULT '',
		updated_by VARCHAR(50) NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_features_tenant_name
		ON features (tenant_id, name) WHERE status = 'published'`,

	`CREATE TABLE IF NOT EXISTS coupons (
		id VARCHAR(50) PRIMARY KEY,
		tenant_id VARCHAR(50) NOT NULL,
		code VARCHAR(100) NOT NULL,
		discount_amount NUMERIC(20,8) NOT NULL DEFAULT 0,
		discount_type VARCHAR(20) NOT NULL,
		expires_at TIMESTAMPTZ,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		status VARCHAR(20) NOT NULL DEFAULT 'published',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		created_by VARCHAR(50) NOT NULL DEFAULT '',
		updated_by VARCHAR(50) NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_coupons_tenant_code
		ON coupons (tenant_id, code) WHERE status = 'published'`,

	`CREATE TABLE IF NOT EXISTS entitlements (
		id VARCHAR(50) PRIMARY KEY,
		tenant_id VARCHAR(50) NOT NULL,
		entity_type VARCHAR(20) NOT NULL,
		entity_id VARCHAR(50) NOT NULL,
		feature_id VARCHAR(50) NOT NULL,
		value VARCHAR(255) NOT NULL,
		is_soft_limit BOOLEAN NOT NULL DEFAULT FALSE,
		overage_price NUMERIC(20,8),
		overage_currency VARCHAR(10) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'published',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		created_by VARCHAR(50) NOT NULL DEFAULT '',
		updated_by VARCHAR(50) NOT NULL DEFAULT '',
		CONSTRAINT uq_entitlements_entity_feature
			UNIQUE (tenant_id, entity_type, entity_id, feature_id)
	)`,

	`CREATE TABLE IF NOT EXISTS subscriptions (
		id VARCHAR(50) PRIMARY KEY,
		tenant_id VARCHAR(50) NOT NULL,
		subscriber_type VARCHAR(50) NOT NULL,
		subscriber_id VARCHAR(255) NOT NULL,
		plan_id VARCHAR(50) NOT NULL,
		plan_price_id VARCHAR(50) NOT NULL,
		coupon_id VARCHAR(50),
		start_date TIMESTAMPTZ NOT NULL,
		trial_ends_at TIMESTAMPTZ,
		next_billing_date TIMESTAMPTZ NOT NULL,
		last_billing_date TIMESTAMPTZ,
		amount_due NUMERIC(20,8) NOT NULL DEFAULT 0,
		prorated_amount NUMERIC(20,8) NOT NULL DEFAULT 0,
		currency VARCHAR(10) NOT NULL,
		sub_status VARCHAR(20) NOT NULL,
		grace_value INTEGER NOT NULL DEFAULT 0,
		grace_cycle VARCHAR(20) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'published',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		created_by VARCHAR(50) NOT NULL DEFAULT '',
		updated_by VARCHAR(50) NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_subscriber
		ON subscriptions (tenant_id, subscriber_type, subscriber_id, sub_status)`,

	`CREATE TABLE IF NOT EXISTS subscription_histories (
		id VARCHAR(50) PRIMARY KEY,
		subscription_id VARCHAR(50) NOT NULL,
		plan_id VARCHAR(50) NOT NULL,
		plan_name VARCHAR(255) NOT NULL DEFAULT '',
		plan_price_id VARCHAR(50) NOT NULL,
		sub_status VARCHAR(20) NOT NULL,
		details TEXT NOT NULL DEFAULT '',
		tenant_id VARCHAR(50) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		created_by VARCHAR(50) NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscription_histories_subscription
		ON subscription_histories (subscription_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS feature_usages (
		id VARCHAR(50) PRIMARY KEY,
		tenant_id VARCHAR(50) NOT NULL,
		subscription_id VARCHAR(50) NOT NULL,
		feature_id VARCHAR(50) NOT NULL,
		used BIGINT NOT NULL DEFAULT 0,
		cached_limit VARCHAR(255) NOT NULL DEFAULT '',
		overage_count BIGINT NOT NULL DEFAULT 0,
		period_start TIMESTAMPTZ NOT NULL,
		period_end TIMESTAMPTZ NOT NULL,
		reset_at TIMESTAMPTZ NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'published',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		created_by VARCHAR(50) NOT NULL DEFAULT '',
		updated_by VARCHAR(50) NOT NULL DEFAULT '',
		CONSTRAINT uq_feature_usages_pair
			UNIQUE (tenant_id, subscription_id, feature_id)
	)`,
}

// Migrate applies the schema. Every statement is a no-op when the object
// already exists, so callers can run it unconditionally at startup.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to apply database schema").
				Mark(ierr.ErrDatabase)
		}
	}
	db.logger.Debugw("database schema is up to date", "statements", len(schema))
	return nil
}
