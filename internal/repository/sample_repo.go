package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"emotion-diary/internal/domain"
)

type SampleRepository interface {
	Create(ctx context.Context, sample domain.WatchSample) error
	CreateBatch(ctx context.Context, samples []domain.WatchSample) error
	// ListWindow devuelve las muestras del dispositivo en [from, to], ascendente por tiempo.
	ListWindow(ctx context.Context, deviceID string, from, to time.Time) ([]domain.WatchSample, error)
	// List devuelve las muestras más recientes primero.
	List(ctx context.Context, filter domain.SampleFilter) ([]domain.WatchSample, error)
	Latest(ctx context.Context, deviceID string) (domain.WatchSample, error)
	// ListPeriod devuelve todas las muestras en [from, to], ascendente; deviceID vacío no filtra.
	ListPeriod(ctx context.Context, deviceID string, from, to time.Time) ([]domain.WatchSample, error)
}

const sampleColumns = `id, device_id, timestamp, heart_rate, hrv, spo2, stress_level, steps, calories,
		distance, active_minutes, sleep_hours, sleep_quality, body_battery, skin_temperature, respiratory_rate`

const insertSampleQuery = `
	INSERT INTO watch_data (` + sampleColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
`

type PgSampleRepository struct {
	pool *pgxpool.Pool
}

func NewPgSampleRepository(pool *pgxpool.Pool) *PgSampleRepository {
	return &PgSampleRepository{pool: pool}
}

func sampleArgs(s domain.WatchSample) []interface{} {
	return []interface{}{
		s.ID, s.DeviceID, s.Timestamp,
		s.HeartRate, s.HRV, s.SpO2, s.StressLevel, s.Steps, s.Calories,
		s.Distance, s.ActiveMinutes, s.SleepHours, s.SleepQuality, s.BodyBattery,
		s.SkinTemperature, s.RespiratoryRate,
	}
}

func (r *PgSampleRepository) Create(ctx context.Context, sample domain.WatchSample) error {
	_, err := r.pool.Exec(ctx, insertSampleQuery, sampleArgs(sample)...)
	return err
}

// CreateBatch inserta todas las muestras en una sola transacción.
func (r *PgSampleRepository) CreateBatch(ctx context.Context, samples []domain.WatchSample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, s := range samples {
		batch.Queue(insertSampleQuery, sampleArgs(s)...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PgSampleRepository) ListWindow(ctx context.Context, deviceID string, from, to time.Time) ([]domain.WatchSample, error) {
	const query = `
		SELECT ` + sampleColumns + `
		FROM watch_data
		WHERE device_id = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC
	`
	return r.query(ctx, query, deviceID, from, to)
}

func (r *PgSampleRepository) List(ctx context.Context, filter domain.SampleFilter) ([]domain.WatchSample, error) {
	var where pgWhere
	if filter.DeviceID != "" {
		where.add("device_id = $%d", filter.DeviceID)
	}
	where.timeRange("timestamp", filter.From, filter.To)
	query := `
		SELECT ` + sampleColumns + `
		FROM watch_data
		` + where.String() + `
		ORDER BY timestamp DESC
		` + where.limit(filter.Limit)
	return r.query(ctx, query, where.args...)
}

func (r *PgSampleRepository) Latest(ctx context.Context, deviceID string) (domain.WatchSample, error) {
	var where pgWhere
	if deviceID != "" {
		where.add("device_id = $%d", deviceID)
	}
	query := `
		SELECT ` + sampleColumns + `
		FROM watch_data
		` + where.String() + `
		ORDER BY timestamp DESC
		LIMIT 1
	`
	sample, err := scanSample(r.pool.QueryRow(ctx, query, where.args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WatchSample{}, ErrNotFound
	}
	return sample, err
}

func (r *PgSampleRepository) ListPeriod(ctx context.Context, deviceID string, from, to time.Time) ([]domain.WatchSample, error) {
	var where pgWhere
	if deviceID != "" {
		where.add("device_id = $%d", deviceID)
	}
	where.timeRange("timestamp", &from, &to)
	query := `
		SELECT ` + sampleColumns + `
		FROM watch_data
		` + where.String() + `
		ORDER BY timestamp ASC
	`
	return r.query(ctx, query, where.args...)
}

func (r *PgSampleRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.WatchSample, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []domain.WatchSample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

func scanSample(row pgx.Row) (domain.WatchSample, error) {
	var s domain.WatchSample
	err := row.Scan(
		&s.ID, &s.DeviceID, &s.Timestamp,
		&s.HeartRate, &s.HRV, &s.SpO2, &s.StressLevel, &s.Steps, &s.Calories,
		&s.Distance, &s.ActiveMinutes, &s.SleepHours, &s.SleepQuality, &s.BodyBattery,
		&s.SkinTemperature, &s.RespiratoryRate,
	)
	return s, err
}
