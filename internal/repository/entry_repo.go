package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"emotion-diary/internal/domain"
)

type EntryRepository interface {
	Create(ctx context.Context, entry domain.DiaryEntry) error
	List(ctx context.Context, filter domain.EntryFilter) ([]domain.DiaryEntry, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.EmotionRecord, error)
}

type PgEntryRepository struct {
	pool *pgxpool.Pool
}

func NewPgEntryRepository(pool *pgxpool.Pool) *PgEntryRepository {
	return &PgEntryRepository{pool: pool}
}

func (r *PgEntryRepository) Create(ctx context.Context, entry domain.DiaryEntry) error {
	const query = `
		INSERT INTO diary_entries (id, created_at, content, emotion, intensity, sentiment_score)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.CreatedAt,
		entry.Content,
		string(entry.Emotion),
		entry.Intensity,
		entry.SentimentScore,
	)
	return err
}

// List devuelve las entradas más recientes primero.
func (r *PgEntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]domain.DiaryEntry, error) {
	var where pgWhere
	where.timeRange("created_at", filter.From, filter.To)
	query := `
		SELECT id, created_at, content, emotion, intensity, sentiment_score
		FROM diary_entries
		` + where.String() + `
		ORDER BY created_at DESC
		` + where.limit(filter.Limit)

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.DiaryEntry
	for rows.Next() {
		var e domain.DiaryEntry
		var emotion string
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Content, &emotion, &e.Intensity, &e.SentimentScore); err != nil {
			return nil, err
		}
		e.Emotion = domain.Emotion(emotion)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListBetween devuelve registros con from <= created_at <= to en orden ascendente.
func (r *PgEntryRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.EmotionRecord, error) {
	const query = `
		SELECT created_at, emotion, intensity
		FROM diary_entries
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at ASC
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
