package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"emotion-diary/internal/domain"
)

// FeatureRepository guarda los vectores calculados para entrenamientos futuros.
type FeatureRepository interface {
	SaveSnapshot(ctx context.Context, snapshot domain.FeatureSnapshot) error
	ListSnapshots(ctx context.Context, filter domain.FeatureSnapshotFilter) ([]domain.FeatureSnapshot, error)
}

type PgFeatureRepository struct {
	pool *pgxpool.Pool
}

func NewPgFeatureRepository(pool *pgxpool.Pool) *PgFeatureRepository {
	return &PgFeatureRepository{pool: pool}
}

func (r *PgFeatureRepository) SaveSnapshot(ctx context.Context, snapshot domain.FeatureSnapshot) error {
	const query = `
		INSERT INTO computed_features (id, device_id, timestamp, feature_names, features, window_start, window_end, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		snapshot.ID,
		snapshot.DeviceID,
		snapshot.Timestamp,
		snapshot.Names,
		pgvector.NewVector(toFloat32(snapshot.Values)),
		snapshot.WindowStart,
		snapshot.WindowEnd,
		snapshot.CreatedAt,
	)
	return err
}

func (r *PgFeatureRepository) ListSnapshots(ctx context.Context, filter domain.FeatureSnapshotFilter) ([]domain.FeatureSnapshot, error) {
	var where pgWhere
	if filter.DeviceID != "" {
		where.add("device_id = $%d", filter.DeviceID)
	}
	where.timeRange("timestamp", filter.From, filter.To)
	query := `
		SELECT id, device_id, timestamp, feature_names, features, window_start, window_end, created_at
		FROM computed_features
		` + where.String() + `
		ORDER BY timestamp DESC
		` + where.limit(filter.Limit)

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FeatureSnapshot
	for rows.Next() {
		var s domain.FeatureSnapshot
		var vec pgvector.Vector
		if err := rows.Scan(&s.ID, &s.DeviceID, &s.Timestamp, &s.Names, &vec, &s.WindowStart, &s.WindowEnd, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Values = toFloat64(vec.Slice())
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
