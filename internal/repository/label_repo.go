package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"emotion-diary/internal/domain"
)

type LabelRepository interface {
	Create(ctx context.Context, label domain.EmotionLabel) error
	List(ctx context.Context, filter domain.LabelFilter) ([]domain.EmotionLabel, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.EmotionRecord, error)
}

type PgLabelRepository struct {
	pool *pgxpool.Pool
}

func NewPgLabelRepository(pool *pgxpool.Pool) *PgLabelRepository {
	return &PgLabelRepository{pool: pool}
}

func (r *PgLabelRepository) Create(ctx context.Context, label domain.EmotionLabel) error {
	const query = `
		INSERT INTO emotion_labels (id, device_id, timestamp, emotion, intensity, note)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		label.ID,
		label.DeviceID,
		label.Timestamp,
		string(label.Emotion),
		label.Intensity,
		label.Note,
	)
	return err
}

func (r *PgLabelRepository) List(ctx context.Context, filter domain.LabelFilter) ([]domain.EmotionLabel, error) {
	var where pgWhere
	if filter.DeviceID != "" {
		where.add("device_id = $%d", filter.DeviceID)
	}
	where.timeRange("timestamp", filter.From, filter.To)
	query := `
		SELECT id, device_id, timestamp, emotion, intensity, note
		FROM emotion_labels
		` + where.String() + `
		ORDER BY timestamp DESC
		` + where.limit(filter.Limit)

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []domain.EmotionLabel
	for rows.Next() {
		var l domain.EmotionLabel
		var emotion string
		if err := rows.Scan(&l.ID, &l.DeviceID, &l.Timestamp, &emotion, &l.Intensity, &l.Note); err != nil {
			return nil, err
		}
		l.Emotion = domain.Emotion(emotion)
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

func (r *PgLabelRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.EmotionRecord, error) {
	const query = `
		SELECT timestamp, emotion, intensity
		FROM emotion_labels
		WHERE timestamp >= $1 AND timestamp <= $2
		ORDER BY timestamp ASC
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.EmotionRecord
	for rows.Next() {
		var rec domain.EmotionRecord
		var emotion string
		if err := rows.Scan(&rec.Timestamp, &emotion, &rec.Intensity); err != nil {
			return nil, err
		}
		rec.Emotion = domain.Emotion(emotion)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
