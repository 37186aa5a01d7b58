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
	"emotion-diary/internal/repository"
)

var (
	ErrInvalidEmotion   = errors.New("invalid emotion")
	ErrInvalidIntensity = errors.New("intensity must be between 0 and 1")
)

const defaultLabelLimit = 100

// LabelService registra las emociones autodeclaradas que sirven de verdad de campo.
type LabelService struct {
	logger *zap.Logger
	labels repository.LabelRepository
	now    func() time.Time
}

func NewLabelService(logger *zap.Logger, labels repository.LabelRepository) *LabelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LabelService{
		logger: logger,
		labels: labels,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type CreateLabelInput struct {
	DeviceID  string
	Emotion   string
	Intensity float64
	Note      *string
}

func (s *LabelService) Create(ctx context.Context, input CreateLabelInput) (domain.EmotionLabel, error) {
	emotion, ok := domain.ParseEmotion(input.Emotion)
	if !ok {
		return domain.EmotionLabel{}, fmt.Errorf("%w: %q", ErrInvalidEmotion, input.Emotion)
	}
	if input.Intensity < 0 || input.Intensity > 1 {
		return domain.EmotionLabel{}, ErrInvalidIntensity
	}
	deviceID := strings.TrimSpace(input.DeviceID)
	if deviceID == "" {
		deviceID = domain.DefaultDeviceID
	}

	label := domain.EmotionLabel{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		Timestamp: s.now(),
		Emotion:   emotion,
		Intensity: input.Intensity,
		Note:      input.Note,
	}
	if err := s.labels.Create(ctx, label); err != nil {
		return domain.EmotionLabel{}, fmt.Errorf("create emotion label: %w", err)
	}
	s.logger.Info("emotion label created",
		zap.String("label_id", label.ID),
		zap.String("device_id", label.DeviceID),
		zap.String("emotion", label.Emotion.String()),
	)
	return label, nil
}

func (s *LabelService) List(ctx context.Context, filter domain.LabelFilter) ([]domain.EmotionLabel, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLabelLimit
	}
	labels, err := s.labels.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list emotion labels: %w", err)
	}
	return labels, nil
}
