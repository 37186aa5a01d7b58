package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"emotion-diary/internal/domain"
)

const ingestQoS = 1

var ErrEmptyPayload = errors.New("empty payload")

// Subscriber es la parte del cliente que usa el consumidor.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler MessageHandler) error
	Unsubscribe(topics ...string) error
}

// SampleSink guarda las muestras decodificadas.
type SampleSink interface {
	CreateBatch(ctx context.Context, samples []domain.WatchSample) ([]domain.WatchSample, error)
}

// SampleConsumer traduce mensajes del reloj a muestras persistidas.
// Acepta un objeto o un arreglo de objetos por mensaje.
type SampleConsumer struct {
	sub    Subscriber
	sink   SampleSink
	topic  string
	logger *zap.Logger
}

func NewSampleConsumer(sub Subscriber, sink SampleSink, topic string, logger *zap.Logger) *SampleConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SampleConsumer{sub: sub, sink: sink, topic: topic, logger: logger}
}

// Start se suscribe y bloquea hasta que ctx termina.
func (c *SampleConsumer) Start(ctx context.Context) error {
	handler := func(topic string, payload []byte) error {
		return c.HandleMessage(ctx, topic, payload)
	}
	if err := c.sub.Subscribe(c.topic, ingestQoS, handler); err != nil {
		return err
	}
	c.logger.Info("watch ingest started", zap.String("topic", c.topic))

	<-ctx.Done()
	if err := c.sub.Unsubscribe(c.topic); err != nil {
		c.logger.Warn("unsubscribe failed", zap.Error(err))
	}
	c.logger.Info("watch ingest stopped")
	return nil
}

func (c *SampleConsumer) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	samples, err := DecodeSamples(topic, payload)
	if err != nil {
		c.logger.Warn("watch payload rejected", zap.String("topic", topic), zap.Error(err))
		return err
	}
	stored, err := c.sink.CreateBatch(ctx, samples)
	if err != nil {
		return fmt.Errorf("store samples from %s: %w", topic, err)
	}
	c.logger.Debug("watch samples ingested", zap.String("topic", topic), zap.Int("count", len(stored)))
	return nil
}

// DecodeSamples lee el payload JSON; el dispositivo viene del payload o,
// si falta, del segundo segmento del topic (watch/{device}/samples).
func DecodeSamples(topic string, payload []byte) ([]domain.WatchSample, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, ErrEmptyPayload
	}

	var payloads []domain.SamplePayload
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &payloads); err != nil {
			return nil, fmt.Errorf("decode samples: %w", err)
		}
	} else {
		var one domain.SamplePayload
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, fmt.Errorf("decode sample: %w", err)
		}
		payloads = append(payloads, one)
	}
	if len(payloads) == 0 {
		return nil, ErrEmptyPayload
	}

	device := deviceFromTopic(topic)
	samples := make([]domain.WatchSample, 0, len(payloads))
	for _, p := range payloads {
		s := p.Sample()
		if strings.TrimSpace(s.DeviceID) == "" {
			s.DeviceID = device
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func deviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}
