package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"emotion-diary/internal/domain"
	"emotion-diary/internal/features"
	"emotion-diary/internal/repository"
	"emotion-diary/internal/service"
	"emotion-diary/internal/testutil"
)

type testServer struct {
	router *gin.Engine
	tokens *service.TokenService
	models repository.ModelRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.OpenTestDB(t)
	logger := zap.NewNop()

	entryRepo := repository.NewSqliteEntryRepository(db)
	labelRepo := repository.NewSqliteLabelRepository(db)
	sampleRepo := repository.NewSqliteSampleRepository(db)
	modelRepo := repository.NewSqliteModelRepository(db)
	featureRepo := repository.NewSqliteFeatureRepository(db)

	analyzer := service.NewTextAnalyzer(nil, nil, logger)
	biometric := service.NewBiometricService(t.TempDir(), features.NewExtractor(sampleRepo, time.Hour), featureRepo, logger)
	tokens := service.NewTokenService("secret", time.Hour)

	h := Handlers{
		Entries: NewEntryHandler(logger, service.NewEntryService(logger, entryRepo, analyzer)),
		Stats: NewStatsHandler(logger,
			service.NewStatsService(entryRepo, time.UTC, logger),
			service.NewStatsService(labelRepo, time.UTC, logger),
			time.UTC,
		),
		Watch:    NewWatchHandler(logger, service.NewWatchService(logger, sampleRepo, time.UTC)),
		Emotions: NewEmotionHandler(logger, service.NewLabelService(logger, labelRepo), biometric),
		Models:   NewModelHandler(logger, biometric, modelRepo),
	}
	return &testServer{router: NewRouter(logger, h, tokens), tokens: tokens, models: modelRepo}
}

func (s *testServer) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestRoot(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected a request id header")
	}
}

func TestEntries_CreateAndList(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/entries", map[string]string{"content": "Мне очень грустно сегодня"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var entry domain.DiaryEntry
	decode(t, rec, &entry)
	if entry.Emotion != domain.EmotionSadness || entry.Intensity != 0.9 {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	rec = s.do(t, http.MethodGet, "/api/entries", nil)
	var entries []domain.DiaryEntry
	decode(t, rec, &entries)
	if len(entries) != 1 || entries[0].ID != entry.ID {
		t.Fatalf("unexpected list: %+v", entries)
	}

	if rec := s.do(t, http.MethodPost, "/api/entries", map[string]string{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing content should be rejected, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/entries?start_date=yesterday", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad start_date should be rejected, got %d", rec.Code)
	}
}

func TestStats_DailyFromEntries(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/entries", map[string]string{"content": "Я счастлив"})
	s.do(t, http.MethodPost, "/api/entries", map[string]string{"content": "Я счастлив"})

	rec := s.do(t, http.MethodGet, "/api/stats/daily", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var stat domain.DailyStat
	decode(t, rec, &stat)
	if stat.TotalEntries != 2 || stat.DominantEmotion != domain.EmotionJoy {
		t.Fatalf("unexpected daily stat: %+v", stat)
	}

	rec = s.do(t, http.MethodGet, "/api/stats/daily?source=labels", nil)
	decode(t, rec, &stat)
	if stat.TotalEntries != 0 || stat.DominantEmotion != domain.NoDataEmotion {
		t.Fatalf("labels source should be empty: %+v", stat)
	}
}

func TestStats_Validation(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(t, http.MethodGet, "/api/stats/weekly?target_date=04.03.2024", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/stats/monthly?source=diary", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown source, got %d", rec.Code)
	}
}

func TestStats_WeeklyAndMonthlyShape(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/stats/weekly?target_date=2024-03-06", nil)
	var week domain.WeeklyStat
	decode(t, rec, &week)
	if week.WeekStart != "2024-03-04" || len(week.DailyStats) != 7 {
		t.Fatalf("unexpected week: %+v", week)
	}

	rec = s.do(t, http.MethodGet, "/api/stats/monthly?target_date=2024-03-06", nil)
	var month domain.MonthlyStat
	decode(t, rec, &month)
	if month.Month != 3 || len(month.WeeklyStats) != 5 || month.EmotionPatterns == nil {
		t.Fatalf("unexpected month: %+v", month)
	}
}

func TestStats_MonthlyExport(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/stats/monthly/export?target_date=2024-03-06", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("unexpected content type %q", ct)
	}
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if idx, err := f.GetSheetIndex("Daily"); err != nil || idx < 0 {
		t.Fatalf("workbook has no daily sheet")
	}
}

func TestWatch_IngestListLatestAnalytics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/watch", map[string]any{
		"device_id":  "w1",
		"timestamp":  "2024-03-04T10:00:00",
		"heart_rate": 70,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/watch/batch", map[string]any{"data": []map[string]any{
		{"device_id": "w1", "timestamp": "2024-03-04T11:00:00Z", "heart_rate": 90, "steps": 500},
		{"device_id": "w2", "timestamp": "2024-03-04T12:00:00Z", "heart_rate": 60},
	}})
	if rec.Code != http.StatusOK {
		t.Fatalf("batch: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/watch?device_id=w1&limit=1", nil)
	var listed []domain.WatchSample
	decode(t, rec, &listed)
	if len(listed) != 1 || *listed[0].HeartRate != 90 {
		t.Fatalf("unexpected list: %+v", listed)
	}

	rec = s.do(t, http.MethodGet, "/api/watch/latest?device_id=w2", nil)
	var latest domain.WatchSample
	decode(t, rec, &latest)
	if latest.DeviceID != "w2" {
		t.Fatalf("unexpected latest: %+v", latest)
	}
	if rec := s.do(t, http.MethodGet, "/api/watch/latest?device_id=none", nil); rec.Body.String() != "null" {
		t.Fatalf("expected null, got %q", rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/watch/analytics?period=day&target_date=2024-03-04&device_id=w1", nil)
	var analytics domain.WatchAnalytics
	decode(t, rec, &analytics)
	if analytics.TotalRecords != 2 || analytics.AvgHeartRate == nil || *analytics.AvgHeartRate != 80 || analytics.TotalSteps != 500 {
		t.Fatalf("unexpected analytics: %+v", analytics)
	}

	if rec := s.do(t, http.MethodGet, "/api/watch/analytics?period=year", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad period, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/watch/batch", map[string]any{"data": []any{}}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", rec.Code)
	}
}

func TestEmotions_LabelsAndPredictFallback(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/emotions", map[string]any{"emotion": "страх", "intensity": 0.4, "note": "экзамен"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var label domain.EmotionLabel
	decode(t, rec, &label)
	if label.DeviceID != domain.DefaultDeviceID || label.Note == nil || *label.Note != "экзамен" {
		t.Fatalf("unexpected label: %+v", label)
	}

	if rec := s.do(t, http.MethodPost, "/api/emotions", map[string]any{"emotion": "скука", "intensity": 0.4}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown emotion, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/emotions?limit=5", nil)
	var labels []domain.EmotionLabel
	decode(t, rec, &labels)
	if len(labels) != 1 {
		t.Fatalf("expected one label, got %d", len(labels))
	}

	rec = s.do(t, http.MethodGet, "/api/emotions/predict?device_id=w1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("predict should always answer 200, got %d", rec.Code)
	}
	var pred struct {
		Emotion        domain.Emotion             `json:"emotion"`
		Confidence     float64                    `json:"confidence"`
		Probabilities  map[domain.Emotion]float64 `json:"probabilities"`
		Source         string                     `json:"source"`
		FallbackReason string                     `json:"fallback_reason"`
		Timestamp      time.Time                  `json:"timestamp"`
	}
	decode(t, rec, &pred)
	if pred.Emotion != domain.EmotionCalm || pred.Source != "fallback" || pred.FallbackReason != "model_missing" {
		t.Fatalf("unexpected prediction: %+v", pred)
	}
	if len(pred.Probabilities) != 6 || pred.Timestamp.IsZero() {
		t.Fatalf("unexpected prediction payload: %+v", pred)
	}
}

func TestModels_StatusAndOperatorRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/models/status", nil)
	var status struct {
		Runtime service.BiometricStatus `json:"runtime"`
		Active  *domain.ModelMetadata   `json:"active"`
	}
	decode(t, rec, &status)
	if status.Runtime.Loaded || status.Active != nil {
		t.Fatalf("unexpected status: %+v", status)
	}

	if rec := s.do(t, http.MethodPost, "/api/models/reload", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("reload without token should be 401, got %d", rec.Code)
	}

	token, _, err := s.tokens.Issue("ops")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	auth := []string{"Authorization", "Bearer " + token}

	if rec := s.do(t, http.MethodPost, "/api/models/reload", nil, auth...); rec.Code != http.StatusOK {
		t.Fatalf("reload with token should be 200, got %d", rec.Code)
	}

	if rec := s.do(t, http.MethodPost, "/api/models/v9/activate", nil, auth...); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown version should be 404, got %d", rec.Code)
	}

	err = s.models.Create(context.Background(), domain.ModelMetadata{ID: "m1", Version: "v1", ModelPath: "models/emotion_model.json", CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("create model row: %v", err)
	}
	rec = s.do(t, http.MethodPost, "/api/models/v1/activate", nil, auth...)
	decode(t, rec, &status)
	if rec.Code != http.StatusOK || status.Active == nil || status.Active.Version != "v1" {
		t.Fatalf("unexpected activate response %d: %s", rec.Code, rec.Body.String())
	}
}
