package domain

import "time"

// ModelMetadata es la fila persistida de un artefacto entrenado.
// Solo una versión puede estar activa a la vez.
type ModelMetadata struct {
	ID           string             `json:"id"`
	Version      string             `json:"version"`
	ModelPath    string             `json:"model_path"`
	CreatedAt    time.Time          `json:"created_at"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	FeatureNames []string           `json:"feature_names,omitempty"`
	IsActive     bool               `json:"is_active"`
}

// FeatureSnapshot guarda el vector calculado para una predicción.
type FeatureSnapshot struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"device_id"`
	Timestamp   time.Time `json:"timestamp"`
	Names       []string  `json:"names"`
	Values      []float64 `json:"values"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	CreatedAt   time.Time `json:"created_at"`
}

// FeatureSnapshotFilter acota los listados de snapshots.
type FeatureSnapshotFilter struct {
	DeviceID string
	From     *time.Time
	To       *time.Time
	Limit    int
}
