package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements crea el esquema de Postgres. Son idempotentes.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS diary_entries (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		content TEXT NOT NULL,
		emotion TEXT NOT NULL,
		intensity DOUBLE PRECISION NOT NULL,
		sentiment_score DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS idx_diary_entries_created_at ON diary_entries (created_at)`,
	`CREATE TABLE IF NOT EXISTS watch_data (
		id TEXT PRIMARY KEY,
		device_id TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		heart_rate INTEGER,
		hrv DOUBLE PRECISION,
		spo2 INTEGER,
		stress_level INTEGER,
		steps INTEGER,
		calories INTEGER,
		distance DOUBLE PRECISION,
		active_minutes INTEGER,
		sleep_hours DOUBLE PRECISION,
		sleep_quality INTEGER,
		body_battery INTEGER,
		skin_temperature DOUBLE PRECISION,
		respiratory_rate INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_watch_device_ts ON watch_data (device_id, timestamp)`,
	`CREATE TABLE IF NOT EXISTS emotion_labels (
		id TEXT PRIMARY KEY,
		device_id TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		emotion TEXT NOT NULL,
		intensity DOUBLE PRECISION NOT NULL,
		note TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_emotion_labels_ts ON emotion_labels (timestamp)`,
	`CREATE TABLE IF NOT EXISTS model_metadata (
		id TEXT PRIMARY KEY,
		version TEXT NOT NULL UNIQUE,
		model_path TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		metrics JSONB,
		feature_names TEXT[],
		is_active BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS computed_features (
		id TEXT PRIMARY KEY,
		device_id TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		feature_names TEXT[] NOT NULL,
		features vector NOT NULL,
		window_start TIMESTAMPTZ NOT NULL,
		window_end TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_computed_features_device_ts ON computed_features (device_id, timestamp)`,
}

// Migrate aplica el esquema sobre el pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
