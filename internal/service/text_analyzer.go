package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"emotion-diary/internal/domain"
	"emotion-diary/internal/email"
	"emotion-diary/internal/nlp"
)

// Niveles de la cadena de decisión del analizador de texto.
const (
	TierEmpty       = "empty"
	TierLexicon     = "lexicon"
	TierStatistical = "statistical"
	TierKeyword     = "keyword"
)

const (
	minTextIntensity = 0.3
	maxTextIntensity = 1.0
	lexiconIntensity = 0.9
)

// textStrategy intenta resolver un texto; ok=false cede al siguiente nivel.
type textStrategy interface {
	Name() string
	TryResolve(ctx context.Context, text, lower string) (emotion domain.Emotion, intensity float64, ok bool)
}

// ModelSource entrega los clasificadores estadísticos si están disponibles.
type ModelSource interface {
	Get(ctx context.Context) (nlp.Models, bool)
}

// TextAnalyzer resuelve emoción e intensidad de una entrada de diario.
type TextAnalyzer struct {
	strategies []textStrategy
	alerts     email.Sender
	logger     *zap.Logger
	now        func() time.Time
}

// NewTextAnalyzer arma la cadena léxico -> estadístico -> palabras clave.
// models y alerts pueden ser nil.
func NewTextAnalyzer(models ModelSource, alerts email.Sender, logger *zap.Logger) *TextAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	strategies := []textStrategy{&lexiconStrategy{logger: logger}}
	if models != nil {
		strategies = append(strategies, &statisticalStrategy{models: models, logger: logger})
	}
	strategies = append(strategies, keywordStrategy{})
	return &TextAnalyzer{
		strategies: strategies,
		alerts:     alerts,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Analyze nunca falla: el último nivel siempre produce resultado.
func (a *TextAnalyzer) Analyze(ctx context.Context, text string) domain.TextAnalysis {
	if strings.TrimSpace(text) == "" {
		return domain.TextAnalysis{
			Emotion:        domain.EmotionCalm,
			Intensity:      0.5,
			SentimentScore: 0.5,
			Tier:           TierEmpty,
		}
	}

	lower := strings.ToLower(text)
	for _, s := range a.strategies {
		emotion, intensity, ok := s.TryResolve(ctx, text, lower)
		if !ok {
			continue
		}
		intensity = clamp(intensity, minTextIntensity, maxTextIntensity)
		a.logger.Info("text emotion resolved",
			zap.String("emotion", emotion.String()),
			zap.Float64("intensity", intensity),
			zap.String("tier", s.Name()),
		)
		analysis := domain.TextAnalysis{
			Emotion:        emotion,
			Intensity:      intensity,
			SentimentScore: intensity,
			Tier:           s.Name(),
		}
		if s.Name() == TierLexicon && emotion == domain.EmotionAnxiety {
			_, analysis.RiskPhrase, _ = MatchCriticalPhrase(lower)
		}
		return analysis
	}
	// Inalcanzable mientras keywordStrategy cierre la cadena.
	return domain.TextAnalysis{Emotion: domain.EmotionCalm, Intensity: 0.5, SentimentScore: 0.5, Tier: TierKeyword}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type lexiconEntry struct {
	emotion domain.Emotion
	phrases []string
}

// criticalLexicon se recorre en este orden; gana la primera frase encontrada.
var criticalLexicon = []lexiconEntry{
	{domain.EmotionAnxiety, []string{
		"хочу умереть", "не хочу жить", "суицид", "покончить с собой",
		"лучше бы я умер", "не вижу смысла", "все безнадежно",
		"не могу больше", "устал от жизни", "нет сил",
	}},
	{domain.EmotionSadness, []string{
		"очень грустно", "все плохо", "ничего не радует", "депрессия",
		"подавлен", "опустошен", "безнадежно", "бесполезно",
	}},
	{domain.EmotionFear, []string{
		"боюсь", "страшно", "паника", "ужас", "тревожно", "опасно",
	}},
	{domain.EmotionAnger, []string{
		"ненавижу", "бесит", "злой", "ярость", "раздражает", "гнев",
	}},
	{domain.EmotionJoy, []string{
		"счастлив", "рад", "отлично", "прекрасно", "восторг", "радость",
		"замечательно", "чудесно", "восхитительно",
	}},
}

// MatchCriticalPhrase devuelve la categoría y frase del primer acierto del léxico.
func MatchCriticalPhrase(lower string) (domain.Emotion, string, bool) {
	for _, entry := range criticalLexicon {
		for _, phrase := range entry.phrases {
			if strings.Contains(lower, phrase) {
				return entry.emotion, phrase, true
			}
		}
	}
	return "", "", false
}

type lexiconStrategy struct {
	logger *zap.Logger
}

func (lexiconStrategy) Name() string { return TierLexicon }

func (s *lexiconStrategy) TryResolve(_ context.Context, _, lower string) (domain.Emotion, float64, bool) {
	emotion, phrase, ok := MatchCriticalPhrase(lower)
	if !ok {
		return "", 0, false
	}
	s.logger.Warn("critical phrase detected", zap.String("emotion", emotion.String()), zap.String("phrase", phrase))
	return emotion, lexiconIntensity, true
}

// NotifyRisk avisa por correo cuando el análisis marcó una frase de riesgo.
// Se llama después de persistir, para que entryID exista. Un fallo de envío solo se registra.
func (a *TextAnalyzer) NotifyRisk(ctx context.Context, entryID, text string, analysis domain.TextAnalysis) {
	if analysis.RiskPhrase == "" || a.alerts == nil {
		return
	}
	alert := email.RiskAlert{
		EntryID:    entryID,
		Emotion:    analysis.Emotion.String(),
		Phrase:     analysis.RiskPhrase,
		Excerpt:    text,
		DetectedAt: a.now(),
	}
	if err := a.alerts.SendRiskAlert(ctx, alert); err != nil {
		a.logger.Warn("risk alert not sent", zap.String("entry_id", entryID), zap.Error(err))
	}
}

type statisticalStrategy struct {
	models ModelSource
	logger *zap.Logger
}

func (statisticalStrategy) Name() string { return TierStatistical }

func (s *statisticalStrategy) TryResolve(ctx context.Context, text, _ string) (domain.Emotion, float64, bool) {
	models, ok := s.models.Get(ctx)
	if !ok {
		return "", 0, false
	}

	scores := newFusedScores()
	if models.Sentiment != nil {
		sentiment, err := models.Sentiment.Classify(ctx, text)
		if err != nil {
			s.logger.Warn("sentiment analysis failed", zap.Error(err))
		} else {
			mergeSentiment(scores, sentiment)
		}
	}
	if models.ZeroShot != nil {
		result, err := models.ZeroShot.Classify(ctx, text, emotionLabels())
		if err != nil {
			s.logger.Warn("zero-shot classification failed", zap.Error(err))
		} else {
			mergeZeroShot(scores, result)
		}
	}

	emotion, score, ok := scores.Best()
	if !ok {
		return "", 0, false
	}
	if score > 1 {
		score = 1
	}
	return emotion, score, true
}

func emotionLabels() []string {
	out := make([]string, 0, domain.EmotionCount())
	for _, e := range domain.Emotions() {
		out = append(out, e.String())
	}
	return out
}

// fusedScores guarda el puntaje por categoría recordando el orden de inserción:
// primero las que aporta el sentimiento, luego las del zero-shot en el orden del modelo.
type fusedScores struct {
	order  []domain.Emotion
	scores map[domain.Emotion]float64
}

func newFusedScores() *fusedScores {
	return &fusedScores{scores: make(map[domain.Emotion]float64)}
}

func (f *fusedScores) set(e domain.Emotion, v float64) {
	if _, seen := f.scores[e]; !seen {
		f.order = append(f.order, e)
	}
	f.scores[e] = v
}

// raise conserva el máximo; una categoría existente no cambia de posición.
func (f *fusedScores) raise(e domain.Emotion, v float64) {
	if prev, seen := f.scores[e]; seen && prev >= v {
		return
	}
	f.set(e, v)
}

// Best desempata por orden de inserción.
func (f *fusedScores) Best() (domain.Emotion, float64, bool) {
	var best domain.Emotion
	bestScore := 0.0
	for i, e := range f.order {
		if v := f.scores[e]; i == 0 || v > bestScore {
			best, bestScore = e, v
		}
	}
	return best, bestScore, len(f.order) > 0
}

func mergeSentiment(scores *fusedScores, s nlp.Sentiment) {
	switch nlp.PolarityOf(s.Label) {
	case nlp.PolarityNegative:
		scores.set(domain.EmotionSadness, s.Score*0.8)
		scores.set(domain.EmotionAnxiety, s.Score*0.6)
	case nlp.PolarityPositive:
		scores.set(domain.EmotionJoy, s.Score*0.8)
		scores.set(domain.EmotionCalm, s.Score*0.5)
	default:
		scores.set(domain.EmotionCalm, s.Score*0.6)
	}
}

// mergeZeroShot conserva el máximo por categoría; ignora etiquetas fuera del conjunto.
func mergeZeroShot(scores *fusedScores, result []nlp.LabelScore) {
	for _, ls := range result {
		e := domain.Emotion(ls.Label)
		if !e.Valid() {
			continue
		}
		scores.raise(e, ls.Score)
	}
}

var (
	negativeKeywords = []string{"плохо", "грустно", "ужасно", "страшно", "боюсь", "ненавижу", "умереть", "смерть"}
	positiveKeywords = []string{"хорошо", "отлично", "рад", "счастлив", "прекрасно"}
)

type keywordStrategy struct{}

func (keywordStrategy) Name() string { return TierKeyword }

func (keywordStrategy) TryResolve(_ context.Context, _, lower string) (domain.Emotion, float64, bool) {
	hasNegative := containsAny(lower, negativeKeywords)
	hasPositive := containsAny(lower, positiveKeywords)
	switch {
	case hasNegative && !hasPositive:
		return domain.EmotionSadness, 0.7, true
	case hasPositive:
		return domain.EmotionJoy, 0.6, true
	default:
		return domain.EmotionCalm, 0.5, true
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
