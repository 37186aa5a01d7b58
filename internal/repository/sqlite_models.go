package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"emotion-diary/internal/domain"
)

// Las filas SQLite guardan instantes como microsegundos Unix (UTC) para que
// los rangos se comparen numéricamente.

func toMicros(t time.Time) int64 { return t.UTC().UnixMicro() }

func fromMicros(us int64) time.Time { return time.UnixMicro(us).UTC() }

// jsonColumn serializa slices y mapas como texto JSON.
type jsonColumn[T any] struct {
	V T
}

func (j jsonColumn[T]) Value() (driver.Value, error) {
	raw, err := json.Marshal(j.V)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (j *jsonColumn[T]) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, &j.V)
}

type entryRow struct {
	ID             string  `gorm:"primaryKey;size:36"`
	CreatedMicros  int64   `gorm:"column:created_at;index;not null"`
	Content        string  `gorm:"type:text;not null"`
	Emotion        string  `gorm:"size:32;not null"`
	Intensity      float64 `gorm:"not null"`
	SentimentScore float64
}

func (entryRow) TableName() string { return "diary_entries" }

func newEntryRow(e domain.DiaryEntry) entryRow {
	return entryRow{
		ID:             e.ID,
		CreatedMicros:  toMicros(e.CreatedAt),
		Content:        e.Content,
		Emotion:        string(e.Emotion),
		Intensity:      e.Intensity,
		SentimentScore: e.SentimentScore,
	}
}

func (r entryRow) toDomain() domain.DiaryEntry {
	return domain.DiaryEntry{
		ID:             r.ID,
		CreatedAt:      fromMicros(r.CreatedMicros),
		Content:        r.Content,
		Emotion:        domain.Emotion(r.Emotion),
		Intensity:      r.Intensity,
		SentimentScore: r.SentimentScore,
	}
}

type sampleRow struct {
	ID              string `gorm:"primaryKey;size:36"`
	DeviceID        string `gorm:"size:128;index:idx_watch_device_ts;not null"`
	TimestampMicros int64  `gorm:"column:timestamp;index:idx_watch_device_ts;not null"`
	HeartRate       *int
	HRV             *float64 `gorm:"column:hrv"`
	SpO2            *int     `gorm:"column:spo2"`
	StressLevel     *int
	Steps           *int
	Calories        *int
	Distance        *float64
	ActiveMinutes   *int
	SleepHours      *float64
	SleepQuality    *int
	BodyBattery     *int
	SkinTemperature *float64
	RespiratoryRate *int
}

func (sampleRow) TableName() string { return "watch_data" }

func newSampleRow(s domain.WatchSample) sampleRow {
	return sampleRow{
		ID:              s.ID,
		DeviceID:        s.DeviceID,
		TimestampMicros: toMicros(s.Timestamp),
		HeartRate:       s.HeartRate,
		HRV:             s.HRV,
		SpO2:            s.SpO2,
		StressLevel:     s.StressLevel,
		Steps:           s.Steps,
		Calories:        s.Calories,
		Distance:        s.Distance,
		ActiveMinutes:   s.ActiveMinutes,
		SleepHours:      s.SleepHours,
		SleepQuality:    s.SleepQuality,
		BodyBattery:     s.BodyBattery,
		SkinTemperature: s.SkinTemperature,
		RespiratoryRate: s.RespiratoryRate,
	}
}

func (r sampleRow) toDomain() domain.WatchSample {
	return domain.WatchSample{
		ID:              r.ID,
		DeviceID:        r.DeviceID,
		Timestamp:       fromMicros(r.TimestampMicros),
		HeartRate:       r.HeartRate,
		HRV:             r.HRV,
		SpO2:            r.SpO2,
		StressLevel:     r.StressLevel,
		Steps:           r.Steps,
		Calories:        r.Calories,
		Distance:        r.Distance,
		ActiveMinutes:   r.ActiveMinutes,
		SleepHours:      r.SleepHours,
		SleepQuality:    r.SleepQuality,
		BodyBattery:     r.BodyBattery,
		SkinTemperature: r.SkinTemperature,
		RespiratoryRate: r.RespiratoryRate,
	}
}

type labelRow struct {
	ID              string  `gorm:"primaryKey;size:36"`
	DeviceID        string  `gorm:"size:128;index;not null"`
	TimestampMicros int64   `gorm:"column:timestamp;index;not null"`
	Emotion         string  `gorm:"size:32;not null"`
	Intensity       float64 `gorm:"not null"`
	Note            *string `gorm:"type:text"`
}

func (labelRow) TableName() string { return "emotion_labels" }

func newLabelRow(l domain.EmotionLabel) labelRow {
	return labelRow{
		ID:              l.ID,
		DeviceID:        l.DeviceID,
		TimestampMicros: toMicros(l.Timestamp),
		Emotion:         string(l.Emotion),
		Intensity:       l.Intensity,
		Note:            l.Note,
	}
}

func (r labelRow) toDomain() domain.EmotionLabel {
	return domain.EmotionLabel{
		ID:        r.ID,
		DeviceID:  r.DeviceID,
		Timestamp: fromMicros(r.TimestampMicros),
		Emotion:   domain.Emotion(r.Emotion),
		Intensity: r.Intensity,
		Note:      r.Note,
	}
}

type modelRow struct {
	ID            string                         `gorm:"primaryKey;size:36"`
	Version       string                         `gorm:"size:64;uniqueIndex;not null"`
	ModelPath     string                         `gorm:"size:512;not null"`
	CreatedMicros int64                          `gorm:"column:created_at;not null"`
	Metrics       jsonColumn[map[string]float64] `gorm:"type:text"`
	FeatureNames  jsonColumn[[]string]           `gorm:"type:text"`
	IsActive      bool                           `gorm:"index;not null;default:false"`
}

func (modelRow) TableName() string { return "model_metadata" }

func newModelRow(m domain.ModelMetadata) modelRow {
	return modelRow{
		ID:            m.ID,
		Version:       m.Version,
		ModelPath:     m.ModelPath,
		CreatedMicros: toMicros(m.CreatedAt),
		Metrics:       jsonColumn[map[string]float64]{V: m.Metrics},
		FeatureNames:  jsonColumn[[]string]{V: m.FeatureNames},
		IsActive:      m.IsActive,
	}
}

func (r modelRow) toDomain() domain.ModelMetadata {
	return domain.ModelMetadata{
		ID:           r.ID,
		Version:      r.Version,
		ModelPath:    r.ModelPath,
		CreatedAt:    fromMicros(r.CreatedMicros),
		Metrics:      r.Metrics.V,
		FeatureNames: r.FeatureNames.V,
		IsActive:     r.IsActive,
	}
}

type featureRow struct {
	ID                string                `gorm:"primaryKey;size:36"`
	DeviceID          string                `gorm:"size:128;index;not null"`
	TimestampMicros   int64                 `gorm:"column:timestamp;index;not null"`
	FeatureNames      jsonColumn[[]string]  `gorm:"type:text"`
	Features          jsonColumn[[]float64] `gorm:"type:text"`
	WindowStartMicros int64                 `gorm:"column:window_start"`
	WindowEndMicros   int64                 `gorm:"column:window_end"`
	CreatedMicros     int64                 `gorm:"column:created_at"`
}

func (featureRow) TableName() string { return "computed_features" }

func newFeatureRow(s domain.FeatureSnapshot) featureRow {
	return featureRow{
		ID:                s.ID,
		DeviceID:          s.DeviceID,
		TimestampMicros:   toMicros(s.Timestamp),
		FeatureNames:      jsonColumn[[]string]{V: s.Names},
		Features:          jsonColumn[[]float64]{V: s.Values},
		WindowStartMicros: toMicros(s.WindowStart),
		WindowEndMicros:   toMicros(s.WindowEnd),
		CreatedMicros:     toMicros(s.CreatedAt),
	}
}

func (r featureRow) toDomain() domain.FeatureSnapshot {
	return domain.FeatureSnapshot{
		ID:          r.ID,
		DeviceID:    r.DeviceID,
		Timestamp:   fromMicros(r.TimestampMicros),
		Names:       r.FeatureNames.V,
		Values:      r.Features.V,
		WindowStart: fromMicros(r.WindowStartMicros),
		WindowEnd:   fromMicros(r.WindowEndMicros),
		CreatedAt:   fromMicros(r.CreatedMicros),
	}
}

// SQLiteModels lista las filas que AutoMigrate debe crear.
func SQLiteModels() []interface{} {
	return []interface{}{
		&entryRow{},
		&sampleRow{},
		&labelRow{},
		&modelRow{},
		&featureRow{},
	}
}
