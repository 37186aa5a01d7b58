package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"emotion-diary/internal/domain"
)

// sampleBatchSize acota las sentencias INSERT multi-fila en SQLite.
const sampleBatchSize = 200

func timeRange(q *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where(column+" >= ?", toMicros(*from))
	}
	if to != nil {
		q = q.Where(column+" <= ?", toMicros(*to))
	}
	return q
}

func withLimit(q *gorm.DB, n int) *gorm.DB {
	if n > 0 {
		q = q.Limit(n)
	}
	return q
}

// SqliteEntryRepository implementa EntryRepository sobre gorm.
type SqliteEntryRepository struct {
	db *gorm.DB
}

func NewSqliteEntryRepository(db *gorm.DB) *SqliteEntryRepository {
	return &SqliteEntryRepository{db: db}
}

func (r *SqliteEntryRepository) Create(ctx context.Context, entry domain.DiaryEntry) error {
	row := newEntryRow(entry)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create diary entry: %w", err)
	}
	return nil
}

func (r *SqliteEntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]domain.DiaryEntry, error) {
	var rows []entryRow
	q := timeRange(r.db.WithContext(ctx), "created_at", filter.From, filter.To)
	if err := withLimit(q.Order("created_at DESC"), filter.Limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list diary entries: %w", err)
	}
	out := make([]domain.DiaryEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *SqliteEntryRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.EmotionRecord, error) {
	var rows []entryRow
	q := timeRange(r.db.WithContext(ctx), "created_at", &from, &to)
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list diary entries between: %w", err)
	}
	out := make([]domain.EmotionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain().Record())
	}
	return out, nil
}

// SqliteSampleRepository implementa SampleRepository sobre gorm.
type SqliteSampleRepository struct {
	db *gorm.DB
}

func NewSqliteSampleRepository(db *gorm.DB) *SqliteSampleRepository {
	return &SqliteSampleRepository{db: db}
}

func (r *SqliteSampleRepository) Create(ctx context.Context, sample domain.WatchSample) error {
	row := newSampleRow(sample)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create watch sample: %w", err)
	}
	return nil
}

func (r *SqliteSampleRepository) CreateBatch(ctx context.Context, samples []domain.WatchSample) error {
	if len(samples) == 0 {
		return nil
	}
	rows := make([]sampleRow, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, newSampleRow(s))
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&rows, sampleBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("create watch samples: %w", err)
	}
	return nil
}

func (r *SqliteSampleRepository) ListWindow(ctx context.Context, deviceID string, from, to time.Time) ([]domain.WatchSample, error) {
	q := r.db.WithContext(ctx).Where("device_id = ?", deviceID)
	return r.find(timeRange(q, "timestamp", &from, &to).Order("timestamp ASC"))
}

func (r *SqliteSampleRepository) List(ctx context.Context, filter domain.SampleFilter) ([]domain.WatchSample, error) {
	q := r.db.WithContext(ctx)
	if filter.DeviceID != "" {
		q = q.Where("device_id = ?", filter.DeviceID)
	}
	q = timeRange(q, "timestamp", filter.From, filter.To).Order("timestamp DESC")
	return r.find(withLimit(q, filter.Limit))
}

func (r *SqliteSampleRepository) Latest(ctx context.Context, deviceID string) (domain.WatchSample, error) {
	q := r.db.WithContext(ctx)
	if deviceID != "" {
		q = q.Where("device_id = ?", deviceID)
	}
	var row sampleRow
	err := q.Order("timestamp DESC").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.WatchSample{}, ErrNotFound
	}
	if err != nil {
		return domain.WatchSample{}, fmt.Errorf("latest watch sample: %w", err)
	}
	return row.toDomain(), nil
}

func (r *SqliteSampleRepository) ListPeriod(ctx context.Context, deviceID string, from, to time.Time) ([]domain.WatchSample, error) {
	q := r.db.WithContext(ctx)
	if deviceID != "" {
		q = q.Where("device_id = ?", deviceID)
	}
	return r.find(timeRange(q, "timestamp", &from, &to).Order("timestamp ASC"))
}

func (r *SqliteSampleRepository) find(q *gorm.DB) ([]domain.WatchSample, error) {
	var rows []sampleRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list watch samples: %w", err)
	}
	out := make([]domain.WatchSample, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// SqliteLabelRepository implementa LabelRepository sobre gorm.
type SqliteLabelRepository struct {
	db *gorm.DB
}

func NewSqliteLabelRepository(db *gorm.DB) *SqliteLabelRepository {
	return &SqliteLabelRepository{db: db}
}

func (r *SqliteLabelRepository) Create(ctx context.Context, label domain.EmotionLabel) error {
	row := newLabelRow(label)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create emotion label: %w", err)
	}
	return nil
}

func (r *SqliteLabelRepository) List(ctx context.Context, filter domain.LabelFilter) ([]domain.EmotionLabel, error) {
	q := r.db.WithContext(ctx)
	if filter.DeviceID != "" {
		q = q.Where("device_id = ?", filter.DeviceID)
	}
	q = withLimit(timeRange(q, "timestamp", filter.From, filter.To).Order("timestamp DESC"), filter.Limit)

	var rows []labelRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list emotion labels: %w", err)
	}
	out := make([]domain.EmotionLabel, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *SqliteLabelRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.EmotionRecord, error) {
	var rows []labelRow
	q := timeRange(r.db.WithContext(ctx), "timestamp", &from, &to)
	if err := q.Order("timestamp ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list emotion labels between: %w", err)
	}
	out := make([]domain.EmotionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain().Record())
	}
	return out, nil
}

// SqliteModelRepository implementa ModelRepository sobre gorm.
type SqliteModelRepository struct {
	db *gorm.DB
}

func NewSqliteModelRepository(db *gorm.DB) *SqliteModelRepository {
	return &SqliteModelRepository{db: db}
}

func (r *SqliteModelRepository) Create(ctx context.Context, meta domain.ModelMetadata) error {
	row := newModelRow(meta)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if meta.IsActive {
			if err := tx.Model(&modelRow{}).Where("is_active = ?", true).Update("is_active", false).Error; err != nil {
				return fmt.Errorf("deactivate models: %w", err)
			}
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create model metadata: %w", err)
		}
		return nil
	})
}

func (r *SqliteModelRepository) Active(ctx context.Context) (domain.ModelMetadata, error) {
	var row modelRow
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at DESC").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ModelMetadata{}, ErrNotFound
	}
	if err != nil {
		return domain.ModelMetadata{}, fmt.Errorf("active model: %w", err)
	}
	return row.toDomain(), nil
}

func (r *SqliteModelRepository) ListVersions(ctx context.Context) ([]domain.ModelMetadata, error) {
	var rows []modelRow
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list model versions: %w", err)
	}
	out := make([]domain.ModelMetadata, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *SqliteModelRepository) Activate(ctx context.Context, version string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&modelRow{}).Where("version = ?", version).Count(&count).Error; err != nil {
			return fmt.Errorf("find model version: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		if err := tx.Model(&modelRow{}).Where("version <> ?", version).Update("is_active", false).Error; err != nil {
			return fmt.Errorf("deactivate models: %w", err)
		}
		if err := tx.Model(&modelRow{}).Where("version = ?", version).Update("is_active", true).Error; err != nil {
			return fmt.Errorf("activate model: %w", err)
		}
		return nil
	})
}

// SqliteFeatureRepository implementa FeatureRepository sobre gorm; el vector se guarda como JSON.
type SqliteFeatureRepository struct {
	db *gorm.DB
}

func NewSqliteFeatureRepository(db *gorm.DB) *SqliteFeatureRepository {
	return &SqliteFeatureRepository{db: db}
}

func (r *SqliteFeatureRepository) SaveSnapshot(ctx context.Context, snapshot domain.FeatureSnapshot) error {
	row := newFeatureRow(snapshot)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("save feature snapshot: %w", err)
	}
	return nil
}

func (r *SqliteFeatureRepository) ListSnapshots(ctx context.Context, filter domain.FeatureSnapshotFilter) ([]domain.FeatureSnapshot, error) {
	q := r.db.WithContext(ctx)
	if filter.DeviceID != "" {
		q = q.Where("device_id = ?", filter.DeviceID)
	}
	q = withLimit(timeRange(q, "timestamp", filter.From, filter.To).Order("timestamp DESC"), filter.Limit)

	var rows []featureRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list feature snapshots: %w", err)
	}
	out := make([]domain.FeatureSnapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

var (
	_ EntryRepository   = (*SqliteEntryRepository)(nil)
	_ SampleRepository  = (*SqliteSampleRepository)(nil)
	_ LabelRepository   = (*SqliteLabelRepository)(nil)
	_ ModelRepository   = (*SqliteModelRepository)(nil)
	_ FeatureRepository = (*SqliteFeatureRepository)(nil)

	_ EntryRepository   = (*PgEntryRepository)(nil)
	_ SampleRepository  = (*PgSampleRepository)(nil)
	_ LabelRepository   = (*PgLabelRepository)(nil)
	_ ModelRepository   = (*PgModelRepository)(nil)
	_ FeatureRepository = (*PgFeatureRepository)(nil)
)
