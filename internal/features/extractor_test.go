package features

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"emotion-diary/internal/domain"
)

type fakeSampleReader struct {
	samples  []domain.WatchSample
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastID   string
}

func (f *fakeSampleReader) ListWindow(_ context.Context, deviceID string, from, to time.Time) ([]domain.WatchSample, error) {
	f.lastID = deviceID
	f.lastFrom = from
	f.lastTo = to
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.WatchSample
	for _, s := range f.samples {
		if s.DeviceID == deviceID && !s.Timestamp.Before(from) && !s.Timestamp.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func sampleAt(at time.Time, hr int) domain.WatchSample {
	return domain.WatchSample{DeviceID: "watch-1", Timestamp: at, HeartRate: intPtr(hr)}
}

func TestFromSamples_EmptyWindowIsZeroVector(t *testing.T) {
	for _, at := range []time.Time{
		time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC),
	} {
		v := FromSamples(nil, at)
		require.Len(t, v, len(CanonicalNames()))
		for _, name := range CanonicalNames() {
			require.Equal(t, 0.0, v[name], name)
		}
		require.Equal(t, 0.0, v["data_points_count"])
	}
}

func TestFromSamples_HeartRateStatistics(t *testing.T) {
	at := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	samples := []domain.WatchSample{
		sampleAt(at.Add(-30*time.Minute), 60),
		sampleAt(at.Add(-20*time.Minute), 70),
		sampleAt(at.Add(-10*time.Minute), 80),
	}

	v := FromSamples(samples, at)

	require.Equal(t, 70.0, v["hr_mean"])
	require.Equal(t, 60.0, v["hr_min"])
	require.Equal(t, 80.0, v["hr_max"])
	require.Equal(t, 70.0, v["hr_median"])
	require.Equal(t, 10.0, v["hr_avg_change"])
	require.Equal(t, 10.0, v["hr_max_change"])
	require.InDelta(t, math.Sqrt(200.0/3.0), v["hr_std"], 1e-9)
	require.Equal(t, 3.0, v["data_points_count"])
	require.Len(t, v, len(CanonicalNames()))
}

func TestFromSamples_SingleSampleHasNoDeltas(t *testing.T) {
	at := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	samples := []domain.WatchSample{{
		DeviceID:  "watch-1",
		Timestamp: at,
		HeartRate: intPtr(72),
		HRV:       floatPtr(41.5),
	}}

	v := FromSamples(samples, at)

	require.Equal(t, 0.0, v["hr_avg_change"])
	require.Equal(t, 0.0, v["hr_max_change"])
	require.Equal(t, 0.0, v["hrv_avg_change"])
	require.Equal(t, 72.0, v["hr_mean"])
	require.Equal(t, 0.0, v["hr_std"])
	require.Equal(t, 41.5, v["hrv_median"])
}

func TestFromSamples_MaxChangeUsesAbsoluteDelta(t *testing.T) {
	at := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	samples := []domain.WatchSample{
		sampleAt(at.Add(-3*time.Minute), 90),
		sampleAt(at.Add(-2*time.Minute), 60),
		sampleAt(at.Add(-1*time.Minute), 65),
	}

	v := FromSamples(samples, at)

	require.Equal(t, -12.5, v["hr_avg_change"])
	require.Equal(t, 30.0, v["hr_max_change"])
	require.Equal(t, 65.0, v["hr_median"])
}

func TestFromSamples_SumsAndPointInTimeChannels(t *testing.T) {
	at := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	samples := []domain.WatchSample{
		{DeviceID: "w", Timestamp: at.Add(-40 * time.Minute), Steps: intPtr(100), Calories: intPtr(10), SleepHours: floatPtr(7.5), BodyBattery: intPtr(80)},
		{DeviceID: "w", Timestamp: at.Add(-20 * time.Minute), Steps: intPtr(300), RespiratoryRate: intPtr(14)},
		{DeviceID: "w", Timestamp: at.Add(-5 * time.Minute), Calories: intPtr(5), BodyBattery: intPtr(60), RespiratoryRate: intPtr(16)},
	}

	v := FromSamples(samples, at)

	require.Equal(t, 400.0, v["steps_total"])
	require.Equal(t, 200.0, v["steps_mean"])
	require.Equal(t, 15.0, v["calories_total"])
	require.Equal(t, 15.0, v["respiratory_mean"])
	// Solo cuenta la última muestra: sin sueño informado vale 0.
	require.Equal(t, 0.0, v["sleep_hours"])
	require.Equal(t, 60.0, v["body_battery"])
	require.Equal(t, 0.0, v["hr_mean"])
}

func TestTimeEncoding_IsOnUnitCircle(t *testing.T) {
	base := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC) // lunes
	for h := 0; h < 24; h++ {
		enc := TimeEncoding(base.Add(time.Duration(h) * time.Hour))
		require.Equal(t, float64(h), enc["hour_of_day"])
		require.InDelta(t, 1.0, enc["hour_sin"]*enc["hour_sin"]+enc["hour_cos"]*enc["hour_cos"], 1e-12)
	}
	for d := 0; d < 7; d++ {
		enc := TimeEncoding(base.AddDate(0, 0, d))
		require.Equal(t, float64(d), enc["day_of_week"])
		require.InDelta(t, 1.0, enc["day_sin"]*enc["day_sin"]+enc["day_cos"]*enc["day_cos"], 1e-12)
	}
}

func TestTimeEncoding_UsesReferenceNotSamples(t *testing.T) {
	at := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC) // domingo
	samples := []domain.WatchSample{sampleAt(at.Add(-50*time.Minute), 70)}

	v := FromSamples(samples, at)

	require.Equal(t, 18.0, v["hour_of_day"])
	require.Equal(t, 6.0, v["day_of_week"])
}

func TestExtractor_ComputeQueriesWindow(t *testing.T) {
	at := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	reader := &fakeSampleReader{samples: []domain.WatchSample{
		sampleAt(at.Add(-2*time.Hour), 100),
		sampleAt(at.Add(-30*time.Minute), 60),
		sampleAt(at, 80),
	}}
	ex := NewExtractor(reader, 0)

	v, w, err := ex.Compute(context.Background(), "watch-1", at)

	require.NoError(t, err)
	require.Equal(t, at.Add(-time.Hour), reader.lastFrom)
	require.Equal(t, at, reader.lastTo)
	require.Equal(t, at, w.End)
	require.Equal(t, 2.0, v["data_points_count"])
	require.Equal(t, 70.0, v["hr_mean"])
}

func TestExtractor_ComputeReaderError(t *testing.T) {
	reader := &fakeSampleReader{err: errors.New("db down")}
	ex := NewExtractor(reader, 30*time.Minute)

	v, _, err := ex.Compute(context.Background(), "watch-1", time.Now())

	require.Error(t, err)
	require.Equal(t, Empty(), v)
}
