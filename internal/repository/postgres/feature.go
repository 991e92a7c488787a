package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/ntechservices/subscription/internal/cache"
	"github.com/ntechservices/subscription/internal/domain/feature"
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/logger"
	"github.com/ntechservices/subscription/internal/postgres"
	"github.com/ntechservices/subscription/internal/types"
)

type featureRepository struct {
	db     *postgres.DB
	logger *logger.Logger
	cache  cache.Cache
}

func NewFeatureRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) feature.Repository {
	return &featureRepository{db: db, logger: logger, cache: cache}
}

const featureSelectColumns = `
	id, tenant_id, name, description, status, created_at, updated_at, created_by, updated_by
`

func (r *featureRepository) Create(ctx context.Context, f *feature.Feature) error {
	query := `
	INSERT INTO features (
		id, tenant_id, name, description, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9
	)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		f.ID,
		f.TenantID,
		f.Name,
		f.Description,
		f.Status,
		f.CreatedAt,
		f.UpdatedAt,
		f.CreatedBy,
		f.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create feature").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *featureRepository) scan(row interface{ Scan(dest ...any) error }) (*feature.Feature, error) {
	var f feature.Feature
	err := row.Scan(
		&f.ID,
		&f.TenantID,
		&f.Name,
		&f.Description,
		&f.Status,
		&f.CreatedAt,
		&f.UpdatedAt,
		&f.CreatedBy,
		&f.UpdatedBy,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("feature not found").
				WithHint("The feature does not exist or was deleted").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to read feature").
			Mark(ierr.ErrDatabase)
	}
	return &f, nil
}

func (r *featureRepository) Get(ctx context.Context, id string) (*feature.Feature, error) {
	query := `SELECT ` + featureSelectColumns + `
	FROM features WHERE id = $1 AND tenant_id = $2 AND status = $3`

	return r.scan(r.db.GetQuerier(ctx).QueryRowContext(ctx, query, id, types.GetTenantID(ctx), types.StatusPublished))
}

func (r *featureRepository) GetByName(ctx context.Context, name string) (*feature.Feature, error) {
	key := cache.GenerateKey(cache.PrefixFeature, types.GetTenantID(ctx), "name", name)
	if cached, ok := r.cache.Get(ctx, key); ok {
		if f, ok := cached.(*feature.Feature); ok {
			return f, nil
		}
	}

	query := `SELECT ` + featureSelectColumns + `
	FROM features WHERE name = $1 AND tenant_id = $2 AND status = $3`

	f, err := r.scan(r.db.GetQuerier(ctx).QueryRowContext(ctx, query, name, types.GetTenantID(ctx), types.StatusPublished))
	if err != nil {
		return nil, err
	}

	r.cache.Set(ctx, key, f, 5*time.Minute)
	return f, nil
}

func (r *featureRepository) List(ctx context.Context) ([]*feature.Feature, error) {
	query := `SELECT ` + featureSelectColumns + `
	FROM features WHERE tenant_id = $1 AND status = $2
	ORDER BY name ASC`

	rows, err := r.db.GetQuerier(ctx).QueryContext(ctx, query, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list features").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var features []*feature.Feature
	for rows.Next() {
		f, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list features").
			Mark(ierr.ErrDatabase)
	}
	return features, nil
}

func (r *featureRepository) Update(ctx context.Context, f *feature.Feature) error {
	query := `
	UPDATE features SET
		name = $3, description = $4, updated_at = $5, updated_by = $6
	WHERE id = $1 AND tenant_id = $2 AND status = $7
	`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		f.ID,
		types.GetTenantID(ctx),
		f.Name,
		f.Description,
		time.Now().UTC(),
		types.GetUserID(ctx),
		types.StatusPublished,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update feature").
			Mark(ierr.ErrDatabase)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ierr.NewError("feature not found").
			WithHint("The feature does not exist or was deleted").
			Mark(ierr.ErrNotFound)
	}

	r.cache.Delete(ctx, cache.GenerateKey(cache.PrefixFeature, types.GetTenantID(ctx), "name", f.Name))
	return nil
}

func (r *featureRepository) Delete(ctx context.Context, id string) error {
	f, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	query := `
	UPDATE features SET status = $3, updated_at = $4, updated_by = $5
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
			WithHint("Failed to delete feature").
			Mark(ierr.ErrDatabase)
	}

	r.cache.Delete(ctx, cache.GenerateKey(cache.PrefixFeature, types.GetTenantID(ctx), "name", f.Name))
	return nil
}
