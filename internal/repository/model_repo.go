package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"emotion-diary/internal/domain"
)

type ModelRepository interface {
	// Create registra una versión; si IsActive, desactiva las demás.
	Create(ctx context.Context, meta domain.ModelMetadata) error
	Active(ctx context.Context) (domain.ModelMetadata, error)
	ListVersions(ctx context.Context) ([]domain.ModelMetadata, error)
	Activate(ctx context.Context, version string) error
}

type PgModelRepository struct {
	pool *pgxpool.Pool
}

func NewPgModelRepository(pool *pgxpool.Pool) *PgModelRepository {
	return &PgModelRepository{pool: pool}
}

const modelColumns = `id, version, model_path, created_at, metrics, feature_names, is_active`

func (r *PgModelRepository) Create(ctx context.Context, meta domain.ModelMetadata) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if meta.IsActive {
		if _, err := tx.Exec(ctx, `UPDATE model_metadata SET is_active = FALSE WHERE is_active`); err != nil {
			return err
		}
	}
	const query = `
		INSERT INTO model_metadata (` + modelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.Exec(ctx, query,
		meta.ID,
		meta.Version,
		meta.ModelPath,
		meta.CreatedAt,
		meta.Metrics,
		meta.FeatureNames,
		meta.IsActive,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PgModelRepository) Active(ctx context.Context) (domain.ModelMetadata, error) {
	const query = `
		SELECT ` + modelColumns + `
		FROM model_metadata
		WHERE is_active
		ORDER BY created_at DESC
		LIMIT 1
	`
	meta, err := scanModel(r.pool.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ModelMetadata{}, ErrNotFound
	}
	return meta, err
}

func (r *PgModelRepository) ListVersions(ctx context.Context) ([]domain.ModelMetadata, error) {
	const query = `
		SELECT ` + modelColumns + `
		FROM model_metadata
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ModelMetadata
	for rows.Next() {
		meta, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Activate deja una única versión activa.
func (r *PgModelRepository) Activate(ctx context.Context, version string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `UPDATE model_metadata SET is_active = (version = $1)`, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM model_metadata WHERE version = $1)`, version).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func scanModel(row pgx.Row) (domain.ModelMetadata, error) {
	var m domain.ModelMetadata
	err := row.Scan(&m.ID, &m.Version, &m.ModelPath, &m.CreatedAt, &m.Metrics, &m.FeatureNames, &m.IsActive)
	return m, err
}
