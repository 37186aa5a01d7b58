package features

import (
	"context"
	"fmt"
	"math"
	"time"

	"emotion-diary/internal/domain"
)

// DefaultWindow es la ventana de muestras hacia atrás desde el instante de referencia.
const DefaultWindow = time.Hour

// Values mapea nombre de feature a valor.
type Values map[string]float64

// SampleReader es la vista de solo lectura sobre el almacen de muestras.
// Debe devolver las muestras ordenadas por tiempo ascendente.
type SampleReader interface {
	ListWindow(ctx context.Context, deviceID string, from, to time.Time) ([]domain.WatchSample, error)
}

// Window es el intervalo cerrado [Start, End] usado para un cálculo.
type Window struct {
	Start time.Time
	End   time.Time
}

// Extractor convierte una ventana de muestras en un vector de features.
type Extractor struct {
	reader SampleReader
	window time.Duration
}

func NewExtractor(reader SampleReader, window time.Duration) *Extractor {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Extractor{reader: reader, window: window}
}

// Compute lee la ventana [at-window, at] del dispositivo y calcula sus features.
func (e *Extractor) Compute(ctx context.Context, deviceID string, at time.Time) (Values, Window, error) {
	w := Window{Start: at.Add(-e.window), End: at}
	samples, err := e.reader.ListWindow(ctx, deviceID, w.Start, w.End)
	if err != nil {
		return Empty(), w, fmt.Errorf("list samples for device %s: %w", deviceID, err)
	}
	return FromSamples(samples, at), w, nil
}

// Empty devuelve el vector canónico con todos los valores en 0.0.
func Empty() Values {
	v := make(Values, len(canonicalNames))
	for _, n := range canonicalNames {
		v[n] = 0
	}
	return v
}

// FromSamples calcula las features de muestras ya ordenadas por tiempo.
// Sin muestras devuelve Empty(), incluida la codificación temporal.
func FromSamples(samples []domain.WatchSample, at time.Time) Values {
	if len(samples) == 0 {
		return Empty()
	}

	var hr, hrv, spo2, stress, steps, calories, respiratory []float64
	for _, s := range samples {
		hr = appendInt(hr, s.HeartRate)
		hrv = appendFloat(hrv, s.HRV)
		spo2 = appendInt(spo2, s.SpO2)
		stress = appendInt(stress, s.StressLevel)
		steps = appendInt(steps, s.Steps)
		calories = appendInt(calories, s.Calories)
		respiratory = appendInt(respiratory, s.RespiratoryRate)
	}

	v := make(Values, len(canonicalNames))

	v["hr_mean"] = mean(hr)
	v["hr_std"] = stdDev(hr)
	v["hr_min"] = minOf(hr)
	v["hr_max"] = maxOf(hr)
	v["hr_median"] = median(hr)
	hrDiff := diffs(hr)
	v["hr_avg_change"] = mean(hrDiff)
	v["hr_max_change"] = maxAbs(hrDiff)

	v["hrv_mean"] = mean(hrv)
	v["hrv_std"] = stdDev(hrv)
	v["hrv_min"] = minOf(hrv)
	v["hrv_max"] = maxOf(hrv)
	v["hrv_median"] = median(hrv)
	v["hrv_avg_change"] = mean(diffs(hrv))

	v["spo2_mean"] = mean(spo2)
	v["spo2_min"] = minOf(spo2)

	v["stress_mean"] = mean(stress)
	v["stress_max"] = maxOf(stress)

	v["steps_total"] = sum(steps)
	v["steps_mean"] = mean(steps)

	v["calories_total"] = sum(calories)

	v["respiratory_mean"] = mean(respiratory)

	// Canales puntuales: solo cuenta la última muestra de la ventana.
	latest := samples[len(samples)-1]
	v["sleep_hours"] = derefFloat(latest.SleepHours)
	v["body_battery"] = derefInt(latest.BodyBattery)

	for name, value := range TimeEncoding(at) {
		v[name] = value
	}

	v["data_points_count"] = float64(len(samples))

	return v
}

// TimeEncoding codifica hora del día (periodo 24) y día de semana (lunes=0, periodo 7).
func TimeEncoding(at time.Time) Values {
	hour := float64(at.Hour())
	day := float64(Weekday(at))
	return Values{
		"hour_of_day": hour,
		"hour_sin":    math.Sin(2 * math.Pi * hour / 24),
		"hour_cos":    math.Cos(2 * math.Pi * hour / 24),
		"day_of_week": day,
		"day_sin":     math.Sin(2 * math.Pi * day / 7),
		"day_cos":     math.Cos(2 * math.Pi * day / 7),
	}
}

// Weekday devuelve el día de semana ISO con lunes=0.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func appendInt(dst []float64, v *int) []float64 {
	if v == nil {
		return dst
	}
	return append(dst, float64(*v))
}

func appendFloat(dst []float64, v *float64) []float64 {
	if v == nil {
		return dst
	}
	return append(dst, *v)
}

func derefInt(v *int) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
