package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"emotion-diary/internal/classifier"
	"emotion-diary/internal/domain"
	"emotion-diary/internal/features"
)

type stubSampleReader struct {
	samples []domain.WatchSample
	err     error
}

func (s *stubSampleReader) ListWindow(_ context.Context, _ string, _, _ time.Time) ([]domain.WatchSample, error) {
	return s.samples, s.err
}

type stubModel struct {
	out     []float64
	err     error
	lastVec []float64
}

func (m *stubModel) NumClass() int { return len(m.out) }

func (m *stubModel) Predict(v []float64) ([]float64, error) {
	m.lastVec = v
	return m.out, m.err
}

type recordingFeatureRepo struct {
	mu    sync.Mutex
	saved []domain.FeatureSnapshot
	err   error
}

func (r *recordingFeatureRepo) SaveSnapshot(_ context.Context, s domain.FeatureSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, s)
	return r.err
}

func (r *recordingFeatureRepo) ListSnapshots(_ context.Context, _ domain.FeatureSnapshotFilter) ([]domain.FeatureSnapshot, error) {
	return r.saved, nil
}

func loadedWith(model classifier.Model, layout features.Layout) func(string) classifier.LoadResult {
	return func(string) classifier.LoadResult {
		return classifier.LoadResult{Artifact: &classifier.Artifact{
			Model:    model,
			Layout:   layout,
			Metadata: classifier.Metadata{Version: "v-test"},
			Path:     "models/emotion_model.json",
			LoadedAt: time.Now(),
		}}
	}
}

func unavailableWith(reason classifier.UnavailableReason) func(string) classifier.LoadResult {
	return func(string) classifier.LoadResult {
		return classifier.LoadResult{Reason: reason, Err: errors.New(string(reason))}
	}
}

func hrSamples(at time.Time, values ...int) []domain.WatchSample {
	out := make([]domain.WatchSample, 0, len(values))
	for i, v := range values {
		hr := v
		out = append(out, domain.WatchSample{
			DeviceID:  "watch-1",
			Timestamp: at.Add(time.Duration(i-len(values)) * time.Minute),
			HeartRate: &hr,
		})
	}
	return out
}

func assertUniformFallback(t *testing.T, res domain.EmotionResolution, reason string) {
	t.Helper()
	if !res.IsFallback() || res.FallbackReason != reason {
		t.Fatalf("expected fallback %q, got %+v", reason, res)
	}
	if res.Emotion != domain.EmotionCalm {
		t.Fatalf("fallback emotion should be calm, got %s", res.Emotion)
	}
	if len(res.Probabilities) != 6 {
		t.Fatalf("fallback must cover six categories, got %d", len(res.Probabilities))
	}
	for e, p := range res.Probabilities {
		if p != 1.0/6.0 {
			t.Fatalf("fallback probability for %s = %v", e, p)
		}
	}
	if res.Confidence != 1.0/6.0 {
		t.Fatalf("fallback confidence = %v", res.Confidence)
	}
}

func TestBiometricService_UnloadedModelFallsBack(t *testing.T) {
	at := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	ex := features.NewExtractor(&stubSampleReader{samples: hrSamples(at, 70, 75)}, time.Hour)
	svc := newBiometricService("models", ex, nil, nil, unavailableWith(classifier.ReasonModelMissing))

	res := svc.Predict(context.Background(), "watch-1", at)

	assertUniformFallback(t, res, "model_missing")
	st := svc.Status()
	if st.Loaded || st.Reason != "model_missing" || !st.CanonicalOrder || st.FeatureCount != 30 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestBiometricService_PicksArgmaxInCanonicalOrder(t *testing.T) {
	at := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	model := &stubModel{out: []float64{0.1, 0.3, 0.05, 0.3, 0.15, 0.1}}
	ex := features.NewExtractor(&stubSampleReader{samples: hrSamples(at, 70, 80)}, time.Hour)
	svc := newBiometricService("models", ex, nil, nil, loadedWith(model, features.CanonicalLayout()))

	res := svc.Predict(context.Background(), "watch-1", at)

	if res.IsFallback() {
		t.Fatalf("unexpected fallback: %+v", res)
	}
	if res.Emotion != domain.EmotionSadness || res.Confidence != 0.3 {
		t.Fatalf("expected first max (грусть 0.3), got %+v", res)
	}
	if res.Probabilities[domain.EmotionFear] != 0.3 {
		t.Fatalf("probabilities not mapped by index: %+v", res.Probabilities)
	}
	if len(model.lastVec) != 30 || model.lastVec[0] != 75 {
		t.Fatalf("expected canonical vector with hr_mean first, got %v", model.lastVec)
	}
}

func TestBiometricService_UsesNamedLayout(t *testing.T) {
	at := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	model := &stubModel{out: []float64{1, 0, 0, 0, 0, 0}}
	layout := features.NewLayout([]string{"data_points_count", "hr_max"})
	ex := features.NewExtractor(&stubSampleReader{samples: hrSamples(at, 60, 90, 70)}, time.Hour)
	svc := newBiometricService("models", ex, nil, nil, loadedWith(model, layout))

	svc.Predict(context.Background(), "watch-1", at)

	if len(model.lastVec) != 2 || model.lastVec[0] != 3 || model.lastVec[1] != 90 {
		t.Fatalf("vector does not follow layout: %v", model.lastVec)
	}
	if svc.Status().LayoutChecksum != layout.Checksum() {
		t.Fatalf("status should expose layout checksum")
	}
}

func TestBiometricService_WrongOutputShapeFallsBack(t *testing.T) {
	at := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	model := &stubModel{out: []float64{0.5, 0.5}}
	ex := features.NewExtractor(&stubSampleReader{}, time.Hour)
	svc := newBiometricService("models", ex, nil, nil, loadedWith(model, features.CanonicalLayout()))

	assertUniformFallback(t, svc.Predict(context.Background(), "watch-1", at), FallbackOutputShape)
}

func TestBiometricService_PredictErrorFallsBack(t *testing.T) {
	model := &stubModel{err: errors.New("boom")}
	ex := features.NewExtractor(&stubSampleReader{}, time.Hour)
	svc := newBiometricService("models", ex, nil, nil, loadedWith(model, features.CanonicalLayout()))

	assertUniformFallback(t, svc.Predict(context.Background(), "", time.Now()), FallbackPredictError)
}

func TestBiometricService_StoreErrorFallsBackAndSkipsSnapshot(t *testing.T) {
	model := &stubModel{out: []float64{1, 0, 0, 0, 0, 0}}
	repo := &recordingFeatureRepo{}
	ex := features.NewExtractor(&stubSampleReader{err: errors.New("db down")}, time.Hour)
	svc := newBiometricService("models", ex, repo, nil, loadedWith(model, features.CanonicalLayout()))

	assertUniformFallback(t, svc.Predict(context.Background(), "watch-1", time.Now()), FallbackFeatureStore)
	if len(repo.saved) != 0 {
		t.Fatalf("no snapshot expected on store error")
	}
}

func TestBiometricService_SavesFeatureSnapshot(t *testing.T) {
	at := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	repo := &recordingFeatureRepo{err: errors.New("write failed")}
	ex := features.NewExtractor(&stubSampleReader{samples: hrSamples(at, 70)}, 30*time.Minute)
	svc := newBiometricService("models", ex, repo, nil, unavailableWith(classifier.ReasonModelMissing))

	res := svc.Predict(context.Background(), "", at)

	if !res.IsFallback() {
		t.Fatalf("expected fallback without model")
	}
	if len(repo.saved) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(repo.saved))
	}
	snap := repo.saved[0]
	if snap.DeviceID != domain.DefaultDeviceID || len(snap.Values) != 30 || snap.Values[0] != 70 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if !snap.WindowStart.Equal(at.Add(-30 * time.Minute)) {
		t.Fatalf("unexpected window start %v", snap.WindowStart)
	}
}

func TestBiometricService_ReloadSwapsSnapshot(t *testing.T) {
	model := &stubModel{out: []float64{0, 0, 0, 0, 0, 1}}
	loaded := false
	load := func(dir string) classifier.LoadResult {
		if !loaded {
			return unavailableWith(classifier.ReasonModelMissing)(dir)
		}
		return loadedWith(model, features.CanonicalLayout())(dir)
	}
	ex := features.NewExtractor(&stubSampleReader{}, time.Hour)
	svc := newBiometricService("models", ex, nil, nil, load)

	if !svc.Resolve(features.Empty()).IsFallback() {
		t.Fatalf("expected fallback before reload")
	}
	loaded = true
	st := svc.Reload()
	if !st.Loaded || st.Version != "v-test" {
		t.Fatalf("unexpected status after reload: %+v", st)
	}
	if res := svc.Resolve(features.Empty()); res.Emotion != domain.EmotionAnxiety {
		t.Fatalf("expected тревога after reload, got %+v", res)
	}
	// Reload es idempotente.
	if st2 := svc.Reload(); st2.Loaded != st.Loaded || st2.LayoutChecksum != st.LayoutChecksum {
		t.Fatalf("reload not idempotent: %+v vs %+v", st, st2)
	}
}
