package nlp

import (
	"context"
	"strings"
)

// Sentiment es la etiqueta de polaridad más probable y su score.
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// LabelScore es un par etiqueta/score de clasificación zero-shot.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SentimentClassifier devuelve la polaridad de un texto.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (Sentiment, error)
}

// ZeroShotClassifier puntúa un texto contra etiquetas candidatas.
type ZeroShotClassifier interface {
	Classify(ctx context.Context, text string, labels []string) ([]LabelScore, error)
}

// Prober verifica que un modelo remoto responde; es el paso de "carga".
type Prober interface {
	Probe(ctx context.Context) error
}

type Polarity int

const (
	PolarityNeutral Polarity = iota
	PolarityNegative
	PolarityPositive
)

// PolarityOf clasifica una etiqueta de sentimiento por subcadena (inglés o ruso).
// Cualquier otra etiqueta, incluidas las de estrellas, cuenta como neutral.
func PolarityOf(label string) Polarity {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "negative") || strings.Contains(l, "негативн"):
		return PolarityNegative
	case strings.Contains(l, "positive") || strings.Contains(l, "позитивн"):
		return PolarityPositive
	default:
		return PolarityNeutral
	}
}
