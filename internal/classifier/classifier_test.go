package classifier

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"emotion-diary/internal/features"
)

// stumpModel arma un softprob de 6 clases con un árbol por clase sobre la feature 0:
// x[0] < threshold suma low[c], si no high[c]. NaN va a la izquierda.
func stumpModel(t *testing.T, numFeature int, threshold float64, low, high []float64) []byte {
	t.Helper()
	return stumpModelWithBase(t, numFeature, threshold, low, high, "5E-1")
}

func stumpModelWithBase(t *testing.T, numFeature int, threshold float64, low, high []float64, baseScore string) []byte {
	t.Helper()
	trees := make([]map[string]any, 0, len(low))
	info := make([]int, 0, len(low))
	for c := range low {
		trees = append(trees, map[string]any{
			"left_children":    []int{1, -1, -1},
			"right_children":   []int{2, -1, -1},
			"split_indices":    []int{0, 0, 0},
			"split_conditions": []float64{threshold, low[c], high[c]},
			"default_left":     []int{1, 0, 0},
		})
		info = append(info, c)
	}
	doc := map[string]any{
		"learner": map[string]any{
			"learner_model_param": map[string]any{
				"base_score":  baseScore,
				"num_class":   "6",
				"num_feature": strconv.Itoa(numFeature),
			},
			"objective": map[string]any{"name": ObjectiveSoftProb},
			"gradient_booster": map[string]any{
				"name": "gbtree",
				"model": map[string]any{
					"tree_info": info,
					"trees":     trees,
				},
			},
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return raw
}

var (
	lowJoy      = []float64{2, 0, 0, 0, 0, 0}
	highAnxiety = []float64{0, 0, 0, 0, 0, 2}
)

func TestBooster_SoftProbFollowsSplit(t *testing.T) {
	b, err := ParseBooster(stumpModel(t, 30, 80, lowJoy, highAnxiety))
	require.NoError(t, err)
	require.Equal(t, 6, b.NumClass())
	require.Equal(t, 30, b.NumFeature())

	x := make([]float64, 30)
	x[0] = 70
	probs, err := b.Predict(x)
	require.NoError(t, err)
	require.Len(t, probs, 6)

	want := math.Exp(2) / (math.Exp(2) + 5)
	require.InDelta(t, want, probs[0], 1e-9)
	require.InDelta(t, 1/(math.Exp(2)+5), probs[5], 1e-9)

	var total float64
	for _, p := range probs {
		total += p
	}
	require.InDelta(t, 1.0, total, 1e-9)

	x[0] = 95
	probs, err = b.Predict(x)
	require.NoError(t, err)
	require.InDelta(t, want, probs[5], 1e-9)
}

func TestBooster_ComparesInputAsFloat32(t *testing.T) {
	b, err := ParseBooster(stumpModel(t, 1, 0.5, lowJoy, highAnxiety))
	require.NoError(t, err)

	// sin(2π·2/24) queda apenas debajo de 0.5 en float64 pero es 0.5 en float32.
	hourSin := features.TimeEncoding(time.Date(2024, 3, 4, 2, 0, 0, 0, time.UTC))["hour_sin"]
	require.Less(t, hourSin, 0.5)
	require.Equal(t, float32(0.5), float32(hourSin))

	probs, err := b.Predict([]float64{hourSin})
	require.NoError(t, err)
	require.Greater(t, probs[5], probs[0], "value equal to the threshold in float32 must go right")
}

func TestBooster_PerClassBaseScore(t *testing.T) {
	zero := make([]float64, 6)
	b, err := ParseBooster(stumpModelWithBase(t, 1, 0.5, zero, zero, "[1E0,0E0,0E0,0E0,0E0,0E0]"))
	require.NoError(t, err)

	probs, err := b.Predict([]float64{0})
	require.NoError(t, err)
	require.InDelta(t, math.E/(math.E+5), probs[0], 1e-9)
	for _, p := range probs[1:] {
		require.InDelta(t, 1/(math.E+5), p, 1e-9)
	}

	b, err = ParseBooster(stumpModelWithBase(t, 1, 0.5, zero, zero, "[5E-1]"))
	require.NoError(t, err)
	probs, err = b.Predict([]float64{0})
	require.NoError(t, err)
	require.InDelta(t, 1.0/6, probs[3], 1e-9)
}

func TestBooster_BaseScoreLengthMismatchIsInvalid(t *testing.T) {
	zero := make([]float64, 6)
	_, err := ParseBooster(stumpModelWithBase(t, 1, 0.5, zero, zero, "[1E0,0E0]"))
	require.ErrorIs(t, err, ErrInvalidModel)

	dir := t.TempDir()
	writeArtifact(t, dir, stumpModelWithBase(t, 30, 0.5, zero, zero, "[1E0,0E0]"), nil)
	res := Load(dir)
	require.False(t, res.Loaded())
	require.Equal(t, ReasonModelInvalid, res.Reason)
}

func TestBooster_MissingValueUsesDefaultLeft(t *testing.T) {
	b, err := ParseBooster(stumpModel(t, 30, 80, lowJoy, highAnxiety))
	require.NoError(t, err)

	x := make([]float64, 30)
	x[0] = math.NaN()
	probs, err := b.Predict(x)
	require.NoError(t, err)
	require.Greater(t, probs[0], probs[5])
}

func TestBooster_RejectsWrongVectorLength(t *testing.T) {
	b, err := ParseBooster(stumpModel(t, 30, 80, lowJoy, highAnxiety))
	require.NoError(t, err)

	_, err = b.Predict(make([]float64, 29))
	require.Error(t, err)
}

func TestParseBooster_Invalid(t *testing.T) {
	_, err := ParseBooster([]byte("{not json"))
	require.ErrorIs(t, err, ErrInvalidModel)

	_, err = ParseBooster([]byte(`{"learner":{"learner_model_param":{"num_class":"6"},"gradient_booster":{"name":"gbtree","model":{"tree_info":[],"trees":[]}}}}`))
	require.ErrorIs(t, err, ErrInvalidModel)

	_, err = ParseBooster([]byte(`{"learner":{"gradient_booster":{"name":"gblinear"}}}`))
	require.ErrorIs(t, err, ErrInvalidModel)
}

func TestParseBooster_BoolDefaultLeftAndBracketedBaseScore(t *testing.T) {
	raw := []byte(`{"learner":{
		"learner_model_param":{"base_score":"[5E-1]","num_class":"0","num_feature":"1"},
		"objective":{"name":"binary:logistic"},
		"gradient_booster":{"name":"gbtree","model":{"tree_info":[0],"trees":[{
			"left_children":[1,-1,-1],"right_children":[2,-1,-1],
			"split_indices":[0,0,0],"split_conditions":[1.5,-1,1],
			"default_left":[false,false,false]}]}}}}`)
	b, err := ParseBooster(raw)
	require.NoError(t, err)

	out, err := b.Predict([]float64{3})
	require.NoError(t, err)
	require.InDelta(t, 1/(1+math.Exp(-1)), out[0], 1e-9)
}

func writeArtifact(t *testing.T, dir string, model []byte, meta any) {
	t.Helper()
	if model != nil {
		require.NoError(t, os.WriteFile(filepath.Join(dir, ModelFileName), model, 0o644))
	}
	if meta != nil {
		raw, err := json.Marshal(meta)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFileName), raw, 0o644))
	}
}

func TestLoad_ModelMissing(t *testing.T) {
	res := Load(t.TempDir())
	require.False(t, res.Loaded())
	require.Equal(t, ReasonModelMissing, res.Reason)
	require.Error(t, res.Err)
}

func TestLoad_ModelInvalid(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, []byte("garbage"), nil)

	res := Load(dir)
	require.False(t, res.Loaded())
	require.Equal(t, ReasonModelInvalid, res.Reason)
}

func TestLoad_WithoutMetadataUsesCanonicalLayout(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, stumpModel(t, 30, 80, lowJoy, highAnxiety), nil)

	res := Load(dir)
	require.True(t, res.Loaded())
	require.True(t, res.Artifact.Layout.IsCanonical())
	require.NotEmpty(t, res.Artifact.Warnings)
	require.Equal(t, 6, res.Artifact.Model.NumClass())
}

func TestLoad_WithMetadataUsesNamedLayout(t *testing.T) {
	dir := t.TempDir()
	names := []string{"stress_mean", "hr_mean"}
	writeArtifact(t, dir, stumpModel(t, 2, 50, lowJoy, highAnxiety), map[string]any{
		"version":            "20240301_120000",
		"created_at":         "2024-03-01T12:00:00",
		"accuracy":           0.71,
		"f1_score":           0.69,
		"cv_mean":            0.7,
		"cv_std":             0.02,
		"feature_names":      names,
		"emotion_categories": []string{"радость", "грусть", "злость", "страх", "спокойствие", "тревога"},
	})

	res := Load(dir)
	require.True(t, res.Loaded(), "reason=%s err=%v", res.Reason, res.Err)
	a := res.Artifact
	require.Equal(t, "20240301_120000", a.Metadata.Version)
	require.Equal(t, names, a.Layout.Names())
	require.Equal(t, features.NewLayout(names).Checksum(), a.Layout.Checksum())
	require.Empty(t, a.Warnings)
	require.Equal(t, 0.71, a.Metadata.Metrics()["accuracy"])
}

func TestLoad_MetadataInvalid(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, stumpModel(t, 30, 80, lowJoy, highAnxiety), nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFileName), []byte("{"), 0o644))

	res := Load(dir)
	require.Equal(t, ReasonMetadataInvalid, res.Reason)
}

func TestLoad_CategoryOrderMismatch(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, stumpModel(t, 30, 80, lowJoy, highAnxiety), map[string]any{
		"emotion_categories": []string{"грусть", "радость", "злость", "страх", "спокойствие", "тревога"},
	})

	res := Load(dir)
	require.Equal(t, ReasonMetadataInvalid, res.Reason)
}

func TestLoad_LayoutInvalid(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, stumpModel(t, 2, 80, lowJoy, highAnxiety), map[string]any{
		"feature_names": []string{"hr_mean", "mood_score"},
	})
	res := Load(dir)
	require.Equal(t, ReasonLayoutInvalid, res.Reason)
	require.ErrorIs(t, res.Err, features.ErrUnknownFeature)

	dir = t.TempDir()
	writeArtifact(t, dir, stumpModel(t, 3, 80, lowJoy, highAnxiety), map[string]any{
		"feature_names": []string{"hr_mean", "hr_std"},
	})
	res = Load(dir)
	require.Equal(t, ReasonLayoutInvalid, res.Reason)
}
