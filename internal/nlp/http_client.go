package nlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var ErrEmptyResponse = errors.New("inference returned no scores")

// probeText es la entrada mínima usada para comprobar que el modelo responde.
const probeText = "проверка"

// HTTPClient habla con una API de inferencia estilo HuggingFace: POST {base}/models/{model}.
type HTTPClient struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// 503 = el modelo se está cargando en el proveedor.
			return err == nil && r.StatusCode() == http.StatusServiceUnavailable
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &HTTPClient{http: client, logger: logger}
}

type inferenceRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type inferenceError struct {
	Error string `json:"error"`
}

type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

func (c *HTTPClient) post(ctx context.Context, model string, body inferenceRequest) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/models/" + model)
	if err != nil {
		return nil, fmt.Errorf("inference call %s: %w", model, err)
	}
	if resp.IsError() {
		var apiErr inferenceError
		_ = json.Unmarshal(resp.Body(), &apiErr)
		c.logger.Warn("inference api error",
			zap.String("model", model),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("error", apiErr.Error),
		)
		return nil, fmt.Errorf("inference http error: model=%s status=%d", model, resp.StatusCode())
	}
	return resp.Body(), nil
}

// TextClassification devuelve los scores de un modelo de clasificación de texto.
// Acepta tanto [[{label,score}...]] como [{label,score}...].
func (c *HTTPClient) TextClassification(ctx context.Context, model, text string) ([]LabelScore, error) {
	raw, err := c.post(ctx, model, inferenceRequest{Inputs: text})
	if err != nil {
		return nil, err
	}
	var nested [][]LabelScore
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, ErrEmptyResponse
		}
		return nested[0], nil
	}
	var flat []LabelScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode classification response: %w", err)
	}
	return flat, nil
}

// ZeroShot devuelve los scores de las etiquetas candidatas en el orden que da el modelo.
func (c *HTTPClient) ZeroShot(ctx context.Context, model, text string, labels []string) ([]LabelScore, error) {
	raw, err := c.post(ctx, model, inferenceRequest{
		Inputs:     text,
		Parameters: map[string]any{"candidate_labels": labels},
	})
	if err != nil {
		return nil, err
	}
	var zr zeroShotResponse
	if err := json.Unmarshal(raw, &zr); err != nil {
		return nil, fmt.Errorf("decode zero-shot response: %w", err)
	}
	if len(zr.Labels) != len(zr.Scores) {
		return nil, fmt.Errorf("zero-shot response has %d labels and %d scores", len(zr.Labels), len(zr.Scores))
	}
	out := make([]LabelScore, len(zr.Labels))
	for i := range zr.Labels {
		out[i] = LabelScore{Label: zr.Labels[i], Score: zr.Scores[i]}
	}
	return out, nil
}

// SentimentModel liga un HTTPClient a un modelo de sentimiento concreto.
type SentimentModel struct {
	client *HTTPClient
	model  string
}

func (c *HTTPClient) SentimentModel(model string) *SentimentModel {
	return &SentimentModel{client: c, model: model}
}

func (m *SentimentModel) Name() string { return m.model }

// Classify devuelve la etiqueta con mayor score.
func (m *SentimentModel) Classify(ctx context.Context, text string) (Sentiment, error) {
	scores, err := m.client.TextClassification(ctx, m.model, text)
	if err != nil {
		return Sentiment{}, err
	}
	if len(scores) == 0 {
		return Sentiment{}, ErrEmptyResponse
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return Sentiment{Label: best.Label, Score: best.Score}, nil
}

func (m *SentimentModel) Probe(ctx context.Context) error {
	_, err := m.Classify(ctx, probeText)
	return err
}

// ZeroShotModel liga un HTTPClient a un modelo zero-shot concreto.
type ZeroShotModel struct {
	client *HTTPClient
	model  string
}

func (c *HTTPClient) ZeroShotModel(model string) *ZeroShotModel {
	return &ZeroShotModel{client: c, model: model}
}

func (m *ZeroShotModel) Name() string { return m.model }

func (m *ZeroShotModel) Classify(ctx context.Context, text string, labels []string) ([]LabelScore, error) {
	return m.client.ZeroShot(ctx, m.model, text, labels)
}

func (m *ZeroShotModel) Probe(ctx context.Context) error {
	_, err := m.Classify(ctx, probeText, []string{"да", "нет"})
	return err
}
