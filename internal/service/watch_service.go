package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"emotion-diary/internal/domain"
	"emotion-diary/internal/features"
	"emotion-diary/internal/repository"
)

type AnalyticsPeriod string

const (
	PeriodDay   AnalyticsPeriod = "day"
	PeriodWeek  AnalyticsPeriod = "week"
	PeriodMonth AnalyticsPeriod = "month"
)

const (
	defaultSampleLimit = 100
	trendTail          = 50
)

var (
	ErrInvalidPeriod = errors.New("invalid period")
	ErrEmptyBatch    = errors.New("empty batch")
)

// ParsePeriod acepta day, week o month; vacío equivale a day.
func ParsePeriod(raw string) (AnalyticsPeriod, error) {
	switch p := AnalyticsPeriod(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodWeek, PeriodMonth:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
	}
}

// WatchService guarda y resume las muestras del reloj.
type WatchService struct {
	logger  *zap.Logger
	samples repository.SampleRepository
	loc     *time.Location
	now     func() time.Time
}

func NewWatchService(logger *zap.Logger, samples repository.SampleRepository, loc *time.Location) *WatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &WatchService{
		logger:  logger,
		samples: samples,
		loc:     loc,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Location es la zona usada para cortar los periodos.
func (s *WatchService) Location() *time.Location {
	return s.loc
}

// normalize completa id, dispositivo y hora de recepción.
func (s *WatchService) normalize(sample domain.WatchSample) domain.WatchSample {
	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}
	if strings.TrimSpace(sample.DeviceID) == "" {
		sample.DeviceID = domain.DefaultDeviceID
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = s.now()
	}
	return sample
}

func (s *WatchService) Create(ctx context.Context, sample domain.WatchSample) (domain.WatchSample, error) {
	sample = s.normalize(sample)
	if err := s.samples.Create(ctx, sample); err != nil {
		s.logger.Error("watch sample not stored", zap.String("device_id", sample.DeviceID), zap.Error(err))
		return domain.WatchSample{}, fmt.Errorf("create watch sample: %w", err)
	}
	s.logger.Info("watch sample stored",
		zap.String("sample_id", sample.ID),
		zap.String("device_id", sample.DeviceID),
		zap.Time("timestamp", sample.Timestamp),
	)
	return sample, nil
}

// CreateBatch guarda todas las muestras o ninguna.
func (s *WatchService) CreateBatch(ctx context.Context, samples []domain.WatchSample) ([]domain.WatchSample, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyBatch
	}
	out := make([]domain.WatchSample, 0, len(samples))
	for _, sample := range samples {
		out = append(out, s.normalize(sample))
	}
	if err := s.samples.CreateBatch(ctx, out); err != nil {
		return nil, fmt.Errorf("create watch batch: %w", err)
	}
	s.logger.Info("watch batch stored", zap.Int("count", len(out)))
	return out, nil
}

func (s *WatchService) List(ctx context.Context, filter domain.SampleFilter) ([]domain.WatchSample, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultSampleLimit
	}
	samples, err := s.samples.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list watch samples: %w", err)
	}
	return samples, nil
}

// Latest devuelve la última muestra; false si el dispositivo no tiene ninguna.
func (s *WatchService) Latest(ctx context.Context, deviceID string) (domain.WatchSample, bool, error) {
	sample, err := s.samples.Latest(ctx, deviceID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.WatchSample{}, false, nil
	}
	if err != nil {
		return domain.WatchSample{}, false, fmt.Errorf("latest watch sample: %w", err)
	}
	return sample, true, nil
}

// PeriodBounds devuelve el intervalo cerrado del periodo que contiene date.
func (s *WatchService) PeriodBounds(period AnalyticsPeriod, date time.Time) (time.Time, time.Time) {
	d := date.In(s.loc)
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
	var start, next time.Time
	switch period {
	case PeriodWeek:
		start = day.AddDate(0, 0, -features.Weekday(day))
		next = start.AddDate(0, 0, 7)
	case PeriodMonth:
		start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, s.loc)
		next = start.AddDate(0, 1, 0)
	default:
		start = day
		next = day.AddDate(0, 0, 1)
	}
	return start, next.Add(-time.Microsecond)
}

func (s *WatchService) Analytics(ctx context.Context, period AnalyticsPeriod, date time.Time, deviceID string) (domain.WatchAnalytics, error) {
	start, end := s.PeriodBounds(period, date)
	samples, err := s.samples.ListPeriod(ctx, deviceID, start, end)
	if err != nil {
		return domain.WatchAnalytics{}, fmt.Errorf("watch analytics: %w", err)
	}
	return summarizeSamples(samples, start, end), nil
}

// summarizeSamples espera las muestras en orden ascendente.
// Los promedios ignoran valores ausentes y ceros.
func summarizeSamples(samples []domain.WatchSample, start, end time.Time) domain.WatchAnalytics {
	out := domain.WatchAnalytics{
		PeriodStart:    start,
		PeriodEnd:      end,
		TotalRecords:   len(samples),
		HeartRateTrend: []domain.TrendPoint{},
		StressTrend:    []domain.TrendPoint{},
		ActivityTrend:  []domain.ActivityPoint{},
	}
	if len(samples) == 0 {
		return out
	}

	var hr, hrv, spo2, stress, sleep, quality, battery []float64
	var minHR, maxHR int
	for _, smp := range samples {
		if v := intValue(smp.HeartRate); v != 0 {
			if len(hr) == 0 || v < minHR {
				minHR = v
			}
			if len(hr) == 0 || v > maxHR {
				maxHR = v
			}
			hr = append(hr, float64(v))
			out.HeartRateTrend = append(out.HeartRateTrend, domain.TrendPoint{Time: smp.Timestamp, Value: float64(v)})
		}
		if v := intValue(smp.StressLevel); v != 0 {
			stress = append(stress, float64(v))
			out.StressTrend = append(out.StressTrend, domain.TrendPoint{Time: smp.Timestamp, Value: float64(v)})
		}
		hrv = appendNonZero(hrv, floatValue(smp.HRV))
		spo2 = appendNonZero(spo2, float64(intValue(smp.SpO2)))
		sleep = appendNonZero(sleep, floatValue(smp.SleepHours))
		quality = appendNonZero(quality, float64(intValue(smp.SleepQuality)))
		battery = appendNonZero(battery, float64(intValue(smp.BodyBattery)))

		out.TotalSteps += intValue(smp.Steps)
		out.TotalCalories += intValue(smp.Calories)
		out.TotalDistance += floatValue(smp.Distance)
		out.TotalActiveMinutes += intValue(smp.ActiveMinutes)
		out.ActivityTrend = append(out.ActivityTrend, domain.ActivityPoint{
			Time:     smp.Timestamp,
			Steps:    intValue(smp.Steps),
			Calories: intValue(smp.Calories),
		})
	}

	if len(hr) > 0 {
		out.MinHeartRate = &minHR
		out.MaxHeartRate = &maxHR
	}
	out.AvgHeartRate = average(hr)
	out.AvgHRV = average(hrv)
	out.AvgSpO2 = average(spo2)
	out.AvgStressLevel = average(stress)
	out.AvgSleepHours = average(sleep)
	out.AvgSleepQuality = average(quality)
	out.AvgBodyBattery = average(battery)

	out.HeartRateTrend = tail(out.HeartRateTrend, trendTail)
	out.StressTrend = tail(out.StressTrend, trendTail)
	out.ActivityTrend = tail(out.ActivityTrend, trendTail)
	return out
}

func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func floatValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func appendNonZero(dst []float64, v float64) []float64 {
	if v == 0 {
		return dst
	}
	return append(dst, v)
}

func average(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var total float64
	for _, v := range values {
		total += v
	}
	avg := total / float64(len(values))
	return &avg
}

func tail[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
