package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"emotion-diary/internal/domain"
	"emotion-diary/internal/features"
)

var ErrInvalidDate = errors.New("invalid date")

// EmotionRecordReader es la vista de solo lectura que necesita el agregador.
// ListBetween debe incluir ambos extremos.
type EmotionRecordReader interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.EmotionRecord, error)
}

// StatsService compone estadísticas diarias, semanales y mensuales.
// Cada nivel llama al inferior; no hay acumuladores compartidos.
type StatsService struct {
	reader EmotionRecordReader
	loc    *time.Location
	logger *zap.Logger
}

func NewStatsService(reader EmotionRecordReader, loc *time.Location, logger *zap.Logger) *StatsService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{reader: reader, loc: loc, logger: logger}
}

// ParseTargetDate interpreta YYYY-MM-DD en loc; vacío significa hoy.
func ParseTargetDate(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		n := now.In(loc)
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc), nil
	}
	t, err := time.ParseInLocation(domain.DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return t, nil
}

// civilDay normaliza a la medianoche del día calendario en la zona del servicio.
func (s *StatsService) civilDay(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

// dayBounds devuelve [00:00:00, 23:59:59.999999] del día.
func (s *StatsService) dayBounds(day time.Time) (time.Time, time.Time) {
	start := s.civilDay(day)
	end := start.AddDate(0, 0, 1).Add(-time.Microsecond)
	return start, end
}

func (s *StatsService) Daily(ctx context.Context, date time.Time) (domain.DailyStat, error) {
	start, end := s.dayBounds(date)
	stat := domain.DailyStat{
		Date:                start.Format(domain.DateLayout),
		DominantEmotion:     domain.NoDataEmotion,
		EmotionDistribution: map[domain.Emotion]int{},
	}

	records, err := s.reader.ListBetween(ctx, start, end)
	if err != nil {
		return domain.DailyStat{}, fmt.Errorf("list records for %s: %w", stat.Date, err)
	}
	if len(records) == 0 {
		return stat, nil
	}

	tally := newEmotionTally()
	var totalIntensity float64
	for _, r := range records {
		tally.Add(r.Emotion)
		totalIntensity += r.Intensity
	}
	dominant, _ := tally.Dominant()

	stat.TotalEntries = len(records)
	stat.DominantEmotion = dominant
	stat.AvgIntensity = totalIntensity / float64(len(records))
	stat.EmotionDistribution = tally.Counts()
	return stat, nil
}

// Weekly cubre los siete días desde el lunes de la semana de date.
func (s *StatsService) Weekly(ctx context.Context, date time.Time) (domain.WeeklyStat, error) {
	day := s.civilDay(date)
	weekStart := day.AddDate(0, 0, -features.Weekday(day))
	weekEnd := weekStart.AddDate(0, 0, 6)

	stat := domain.WeeklyStat{
		WeekStart:    weekStart.Format(domain.DateLayout),
		WeekEnd:      weekEnd.Format(domain.DateLayout),
		DailyStats:   make([]domain.DailyStat, 0, 7),
		EmotionTrend: map[domain.Emotion][]float64{},
	}
	for i := 0; i < 7; i++ {
		daily, err := s.Daily(ctx, weekStart.AddDate(0, 0, i))
		if err != nil {
			return domain.WeeklyStat{}, err
		}
		stat.DailyStats = append(stat.DailyStats, daily)
		stat.TotalEntries += daily.TotalEntries
		for emotion, count := range daily.EmotionDistribution {
			trend, ok := stat.EmotionTrend[emotion]
			if !ok {
				trend = make([]float64, 7)
				stat.EmotionTrend[emotion] = trend
			}
			trend[i] = float64(count)
		}
	}
	return stat, nil
}

// Monthly recorre el mes en pasos de 7 días desde el día 1 y pide la semana de cada paso.
// Las semanas son siempre de lunes a domingo: pueden incluir días de los meses vecinos
// y, si el mes empieza en domingo, dejar fuera sus últimos días.
func (s *StatsService) Monthly(ctx context.Context, date time.Time) (domain.MonthlyStat, error) {
	day := s.civilDay(date)
	monthStart := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, s.loc)
	monthEnd := monthStart.AddDate(0, 1, -1)

	stat := domain.MonthlyStat{
		Month:           int(day.Month()),
		Year:            day.Year(),
		EmotionPatterns: map[domain.Emotion]float64{},
	}
	for cur := monthStart; !cur.After(monthEnd); cur = cur.AddDate(0, 0, 7) {
		weekly, err := s.Weekly(ctx, cur)
		if err != nil {
			return domain.MonthlyStat{}, err
		}
		stat.WeeklyStats = append(stat.WeeklyStats, weekly)
		stat.TotalEntries += weekly.TotalEntries
	}

	totals := newEmotionTally()
	for _, w := range stat.WeeklyStats {
		for _, d := range w.DailyStats {
			for emotion, count := range d.EmotionDistribution {
				totals.AddN(emotion, count)
			}
		}
	}
	if total := totals.Total(); total > 0 {
		for emotion, count := range totals.Counts() {
			stat.EmotionPatterns[emotion] = float64(count) / float64(total)
		}
	}
	return stat, nil
}
