package email

import (
	"context"
	"errors"
	"time"
)

// RiskAlert describe una entrada de diario que activo el léxico de riesgo.
type RiskAlert struct {
	EntryID    string
	Emotion    string
	Phrase     string
	Excerpt    string
	DetectedAt time.Time
}

// Sender define la interfaz para envío de avisos de riesgo.
type Sender interface {
	SendRiskAlert(ctx context.Context, alert RiskAlert) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendRiskAlert(_ context.Context, _ RiskAlert) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
