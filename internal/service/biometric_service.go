package service

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"emotion-diary/internal/classifier"
	"emotion-diary/internal/domain"
	"emotion-diary/internal/features"
	"emotion-diary/internal/repository"
)

// Motivos de fallback que no vienen del cargador del modelo.
const (
	FallbackFeatureStore = "feature_store_error"
	FallbackPredictError = "predict_error"
	FallbackOutputShape  = "unexpected_output_shape"
)

// FallbackEmotion es la etiqueta de la distribución uniforme de respaldo.
const FallbackEmotion = domain.EmotionCalm

// BiometricStatus describe el modelo publicado en este proceso.
type BiometricStatus struct {
	Loaded         bool       `json:"loaded"`
	Version        string     `json:"version,omitempty"`
	ModelPath      string     `json:"model_path,omitempty"`
	LayoutChecksum string     `json:"layout_checksum"`
	FeatureCount   int        `json:"feature_count"`
	CanonicalOrder bool       `json:"canonical_order"`
	LoadedAt       *time.Time `json:"loaded_at,omitempty"`
	Warnings       []string   `json:"warnings,omitempty"`
	Reason         string     `json:"unavailable_reason,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// modelSnapshot es inmutable; se reemplaza entero en cada Reload.
type modelSnapshot struct {
	result classifier.LoadResult
	layout features.Layout
}

func (s *modelSnapshot) status() BiometricStatus {
	st := BiometricStatus{
		Loaded:         s.result.Loaded(),
		LayoutChecksum: s.layout.Checksum(),
		FeatureCount:   s.layout.Len(),
		CanonicalOrder: s.layout.IsCanonical(),
	}
	if a := s.result.Artifact; a != nil {
		loadedAt := a.LoadedAt
		st.Version = a.Metadata.Version
		st.ModelPath = a.Path
		st.LoadedAt = &loadedAt
		st.Warnings = append([]string(nil), a.Warnings...)
		return st
	}
	st.Reason = string(s.result.Reason)
	if s.result.Err != nil {
		st.Error = s.result.Err.Error()
	}
	return st
}

// BiometricService resuelve una emoción a partir de la ventana reciente de muestras del reloj.
// Predict nunca devuelve error: cualquier fallo cae en la distribución uniforme.
type BiometricService struct {
	modelDir    string
	extractor   *features.Extractor
	featureRepo repository.FeatureRepository
	logger      *zap.Logger
	load        func(dir string) classifier.LoadResult
	now         func() time.Time

	snapshot atomic.Pointer[modelSnapshot]
}

// NewBiometricService carga el modelo de modelDir. featureRepo puede ser nil.
func NewBiometricService(
	modelDir string,
	extractor *features.Extractor,
	featureRepo repository.FeatureRepository,
	logger *zap.Logger,
) *BiometricService {
	return newBiometricService(modelDir, extractor, featureRepo, logger, classifier.Load)
}

func newBiometricService(
	modelDir string,
	extractor *features.Extractor,
	featureRepo repository.FeatureRepository,
	logger *zap.Logger,
	load func(dir string) classifier.LoadResult,
) *BiometricService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &BiometricService{
		modelDir:    modelDir,
		extractor:   extractor,
		featureRepo: featureRepo,
		logger:      logger,
		load:        load,
		now:         time.Now,
	}
	s.Reload()
	return s
}

// Reload construye un snapshot nuevo y lo publica con un único Store.
// Las predicciones en curso terminan con el snapshot que leyeron.
func (s *BiometricService) Reload() BiometricStatus {
	result := s.load(s.modelDir)
	snap := &modelSnapshot{result: result, layout: features.CanonicalLayout()}
	if result.Loaded() {
		snap.layout = result.Artifact.Layout
		for _, w := range result.Artifact.Warnings {
			s.logger.Warn("emotion model loaded with warning", zap.String("warning", w))
		}
		s.logger.Info("emotion model loaded",
			zap.String("path", result.Artifact.Path),
			zap.String("version", result.Artifact.Metadata.Version),
			zap.String("layout_checksum", snap.layout.Checksum()),
		)
	} else {
		s.logger.Warn("emotion model unavailable, using fallback",
			zap.String("reason", string(result.Reason)),
			zap.Error(result.Err),
		)
	}
	s.snapshot.Store(snap)
	return snap.status()
}

func (s *BiometricService) Status() BiometricStatus {
	return s.snapshot.Load().status()
}

// Predict calcula features para deviceID en el instante at y las clasifica.
func (s *BiometricService) Predict(ctx context.Context, deviceID string, at time.Time) domain.EmotionResolution {
	if deviceID == "" {
		deviceID = domain.DefaultDeviceID
	}
	snap := s.snapshot.Load()

	values, window, err := s.extractor.Compute(ctx, deviceID, at)
	if err != nil {
		s.logger.Error("feature extraction failed", zap.String("device_id", deviceID), zap.Error(err))
		return FallbackResolution(FallbackFeatureStore)
	}
	s.saveSnapshot(ctx, deviceID, at, window, snap.layout, values)

	return s.resolve(snap, values)
}

// Resolve clasifica un conjunto de features ya calculado con el snapshot actual.
func (s *BiometricService) Resolve(values features.Values) domain.EmotionResolution {
	return s.resolve(s.snapshot.Load(), values)
}

func (s *BiometricService) resolve(snap *modelSnapshot, values features.Values) domain.EmotionResolution {
	if !snap.result.Loaded() {
		return FallbackResolution(string(snap.result.Reason))
	}

	vector := snap.layout.Vector(values)
	probs, err := snap.result.Artifact.Model.Predict(vector)
	if err != nil {
		s.logger.Error("emotion model prediction failed", zap.Error(err))
		return FallbackResolution(FallbackPredictError)
	}
	if len(probs) != domain.EmotionCount() {
		s.logger.Warn("unexpected prediction shape", zap.Int("outputs", len(probs)))
		return FallbackResolution(FallbackOutputShape)
	}

	best := 0
	probabilities := make(map[domain.Emotion]float64, len(probs))
	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			s.logger.Warn("prediction contains non-finite probability", zap.Int("index", i))
			return FallbackResolution(FallbackPredictError)
		}
		e, _ := domain.EmotionAt(i)
		probabilities[e] = p
		if p > probs[best] {
			best = i
		}
	}
	emotion, _ := domain.EmotionAt(best)
	return domain.EmotionResolution{
		Emotion:       emotion,
		Confidence:    probs[best],
		Probabilities: probabilities,
		Source:        domain.ResolutionSourceModel,
	}
}

func (s *BiometricService) saveSnapshot(ctx context.Context, deviceID string, at time.Time, window features.Window, layout features.Layout, values features.Values) {
	if s.featureRepo == nil {
		return
	}
	snapshot := domain.FeatureSnapshot{
		ID:          uuid.NewString(),
		DeviceID:    deviceID,
		Timestamp:   at,
		Names:       layout.Names(),
		Values:      layout.Vector(values),
		WindowStart: window.Start,
		WindowEnd:   window.End,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.featureRepo.SaveSnapshot(ctx, snapshot); err != nil {
		s.logger.Warn("feature snapshot save failed", zap.String("device_id", deviceID), zap.Error(err))
	}
}

// FallbackResolution es la distribución uniforme sobre las seis categorías.
func FallbackResolution(reason string) domain.EmotionResolution {
	n := domain.EmotionCount()
	p := 1.0 / float64(n)
	probabilities := make(map[domain.Emotion]float64, n)
	for _, e := range domain.Emotions() {
		probabilities[e] = p
	}
	return domain.EmotionResolution{
		Emotion:        FallbackEmotion,
		Confidence:     p,
		Probabilities:  probabilities,
		Source:         domain.ResolutionSourceFallback,
		FallbackReason: reason,
	}
}
