package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"emotion-diary/internal/domain"
	"emotion-diary/internal/features"
)

const (
	ModelFileName    = "emotion_model.json"
	MetadataFileName = "model_metadata.json"
)

// Model es la salida cruda por clase de un clasificador ya cargado.
type Model interface {
	NumClass() int
	Predict(vector []float64) ([]float64, error)
}

// Metadata es el documento que acompaña al modelo entrenado.
type Metadata struct {
	Version           string   `json:"version"`
	CreatedAt         string   `json:"created_at"`
	Accuracy          float64  `json:"accuracy"`
	F1Score           float64  `json:"f1_score"`
	CVMean            float64  `json:"cv_mean"`
	CVStd             float64  `json:"cv_std"`
	FeatureNames      []string `json:"feature_names"`
	EmotionCategories []string `json:"emotion_categories"`
}

// Metrics devuelve las métricas en el formato de la tabla model_metadata.
func (m Metadata) Metrics() map[string]float64 {
	return map[string]float64{
		"accuracy": m.Accuracy,
		"f1_score": m.F1Score,
		"cv_mean":  m.CVMean,
		"cv_std":   m.CVStd,
	}
}

// Artifact es un modelo cargado junto con su contrato de features.
type Artifact struct {
	Model    Model
	Metadata Metadata
	Layout   features.Layout
	Path     string
	LoadedAt time.Time
	Warnings []string
}

// UnavailableReason explica por que no hay artefacto utilizable.
type UnavailableReason string

const (
	ReasonModelMissing    UnavailableReason = "model_missing"
	ReasonModelInvalid    UnavailableReason = "model_invalid"
	ReasonMetadataMissing UnavailableReason = "metadata_missing"
	ReasonMetadataInvalid UnavailableReason = "metadata_invalid"
	ReasonLayoutInvalid   UnavailableReason = "layout_invalid"
)

// LoadResult es Artifact o bien Unavailable(Reason, Err); nunca ambos.
type LoadResult struct {
	Artifact *Artifact
	Reason   UnavailableReason
	Err      error
}

func (r LoadResult) Loaded() bool { return r.Artifact != nil }

func unavailable(reason UnavailableReason, err error) LoadResult {
	return LoadResult{Reason: reason, Err: err}
}

// Load lee emotion_model.json y model_metadata.json desde dir.
// Sin metadata el modelo se carga igual con el layout canónico y un warning.
func Load(dir string) LoadResult {
	modelPath := filepath.Join(dir, ModelFileName)
	raw, err := os.ReadFile(modelPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return unavailable(ReasonModelMissing, fmt.Errorf("model file not found at %s", modelPath))
		}
		return unavailable(ReasonModelInvalid, fmt.Errorf("read model: %w", err))
	}
	booster, err := ParseBooster(raw)
	if err != nil {
		return unavailable(ReasonModelInvalid, err)
	}

	art := &Artifact{
		Model:    booster,
		Path:     modelPath,
		LoadedAt: time.Now().UTC(),
	}

	meta, found, err := readMetadata(filepath.Join(dir, MetadataFileName))
	if err != nil {
		return unavailable(ReasonMetadataInvalid, err)
	}
	if !found {
		art.Warnings = append(art.Warnings, string(ReasonMetadataMissing)+": using canonical feature order")
	} else if len(meta.FeatureNames) == 0 {
		art.Warnings = append(art.Warnings, "metadata has no feature_names: using canonical feature order")
	}
	if err := checkCategories(meta.EmotionCategories); err != nil {
		return unavailable(ReasonMetadataInvalid, err)
	}
	art.Metadata = meta

	layout := features.NewLayout(meta.FeatureNames)
	if err := layout.Validate(); err != nil {
		return unavailable(ReasonLayoutInvalid, err)
	}
	if n := booster.NumFeature(); n > 0 && n != layout.Len() {
		return unavailable(ReasonLayoutInvalid, fmt.Errorf("model expects %d features, layout has %d", n, layout.Len()))
	}
	art.Layout = layout

	return LoadResult{Artifact: art}
}

func readMetadata(path string) (Metadata, bool, error) {
	var meta Metadata
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return meta, false, nil
		}
		return meta, false, fmt.Errorf("read metadata: %w", err)
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return meta, true, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, true, nil
}

// checkCategories exige que, si la metadata declara categorías, coincidan con el orden fijo.
func checkCategories(categories []string) error {
	if len(categories) == 0 {
		return nil
	}
	order := domain.Emotions()
	if len(categories) != len(order) {
		return fmt.Errorf("metadata declares %d emotion categories, expected %d", len(categories), len(order))
	}
	for i, c := range categories {
		if domain.Emotion(c) != order[i] {
			return fmt.Errorf("emotion category %d is %q, expected %q", i, c, order[i])
		}
	}
	return nil
}
