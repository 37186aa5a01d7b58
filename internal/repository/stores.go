package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"emotion-diary/internal/config"
	"emotion-diary/internal/db"
)

// Stores reune los repositorios de un mismo backend de almacenamiento.
type Stores struct {
	Driver   string
	Entries  EntryRepository
	Samples  SampleRepository
	Labels   LabelRepository
	Models   ModelRepository
	Features FeatureRepository

	close func()
}

// Close libera la conexión subyacente.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStores abre Postgres o SQLite según STORAGE_DRIVER y aplica el esquema.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Ping(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("storage ready", zap.String("driver", cfg.StorageDriver))
		return &Stores{
			Driver:   cfg.StorageDriver,
			Entries:  NewPgEntryRepository(pool),
			Samples:  NewPgSampleRepository(pool),
			Labels:   NewPgLabelRepository(pool),
			Models:   NewPgModelRepository(pool),
			Features: NewPgFeatureRepository(pool),
			close:    pool.Close,
		}, nil

	case config.DriverSQLite:
		gdb, err := db.OpenSQLite(cfg.SQLitePath, SQLiteModels()...)
		if err != nil {
			return nil, err
		}
		logger.Info("storage ready", zap.String("driver", cfg.StorageDriver), zap.String("path", cfg.SQLitePath))
		return &Stores{
			Driver:   cfg.StorageDriver,
			Entries:  NewSqliteEntryRepository(gdb),
			Samples:  NewSqliteSampleRepository(gdb),
			Labels:   NewSqliteLabelRepository(gdb),
			Models:   NewSqliteModelRepository(gdb),
			Features: NewSqliteFeatureRepository(gdb),
			close: func() {
				if sqlDB, err := gdb.DB(); err == nil {
					_ = sqlDB.Close()
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
