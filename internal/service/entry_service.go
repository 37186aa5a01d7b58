package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"emotion-diary/internal/domain"
	"emotion-diary/internal/repository"
)

// EntryService etiqueta y persiste entradas del diario.
type EntryService struct {
	logger   *zap.Logger
	entries  repository.EntryRepository
	analyzer *TextAnalyzer
	now      func() time.Time
}

func NewEntryService(logger *zap.Logger, entries repository.EntryRepository, analyzer *TextAnalyzer) *EntryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryService{
		logger:   logger,
		entries:  entries,
		analyzer: analyzer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create analiza el texto, guarda la entrada con la emoción resuelta y,
// solo si quedó guardada, envía el aviso de riesgo que corresponda.
func (s *EntryService) Create(ctx context.Context, content string) (domain.DiaryEntry, error) {
	analysis := s.analyzer.Analyze(ctx, content)

	entry := domain.DiaryEntry{
		ID:             uuid.NewString(),
		CreatedAt:      s.now(),
		Content:        content,
		Emotion:        analysis.Emotion,
		Intensity:      analysis.Intensity,
		SentimentScore: analysis.SentimentScore,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return domain.DiaryEntry{}, fmt.Errorf("create entry: %w", err)
	}
	s.logger.Info("diary entry created",
		zap.String("entry_id", entry.ID),
		zap.String("emotion", entry.Emotion.String()),
		zap.String("tier", analysis.Tier),
	)
	s.analyzer.NotifyRisk(ctx, entry.ID, content, analysis)
	return entry, nil
}

// List devuelve las entradas más recientes primero.
func (s *EntryService) List(ctx context.Context, filter domain.EntryFilter) ([]domain.DiaryEntry, error) {
	entries, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}
