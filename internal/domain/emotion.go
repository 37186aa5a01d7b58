package domain

import "strings"

// Emotion es una de las seis categorías emocionales que maneja el sistema.
// Los valores se persisten tal cual (en ruso), igual que en los datos históricos.
type Emotion string

const (
	EmotionJoy     Emotion = "радость"
	EmotionSadness Emotion = "грусть"
	EmotionAnger   Emotion = "злость"
	EmotionFear    Emotion = "страх"
	EmotionCalm    Emotion = "спокойствие"
	EmotionAnxiety Emotion = "тревога"
)

// NoDataEmotion es el centinela de "dominante" para periodos sin registros.
const NoDataEmotion Emotion = "нет данных"

// emotionOrder es el orden canónico: coincide con el orden de salida del clasificador.
var emotionOrder = [...]Emotion{
	EmotionJoy,
	EmotionSadness,
	EmotionAnger,
	EmotionFear,
	EmotionCalm,
	EmotionAnxiety,
}

var emotionAliases = map[string]Emotion{
	"joy":     EmotionJoy,
	"sadness": EmotionSadness,
	"anger":   EmotionAnger,
	"fear":    EmotionFear,
	"calm":    EmotionCalm,
	"anxiety": EmotionAnxiety,
}

// Emotions devuelve una copia del conjunto de categorías en orden canónico.
func Emotions() []Emotion {
	out := make([]Emotion, len(emotionOrder))
	copy(out, emotionOrder[:])
	return out
}

// EmotionCount es el tamaño del conjunto cerrado de categorías.
func EmotionCount() int {
	return len(emotionOrder)
}

// EmotionAt devuelve la categoría en la posición i del orden canónico.
func EmotionAt(i int) (Emotion, bool) {
	if i < 0 || i >= len(emotionOrder) {
		return "", false
	}
	return emotionOrder[i], true
}

// Index devuelve la posición canónica o -1 si la categoría no pertenece al conjunto.
func (e Emotion) Index() int {
	for i, candidate := range emotionOrder {
		if candidate == e {
			return i
		}
	}
	return -1
}

// Valid indica si la categoría pertenece al conjunto cerrado.
func (e Emotion) Valid() bool {
	return e.Index() >= 0
}

func (e Emotion) String() string {
	return string(e)
}

// ParseEmotion acepta la etiqueta canónica o su alias en inglés.
func ParseEmotion(raw string) (Emotion, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", false
	}
	if e := Emotion(value); e.Valid() {
		return e, true
	}
	if e, ok := emotionAliases[value]; ok {
		return e, true
	}
	return "", false
}

// EmotionResolution es el resultado inmutable del resolvedor biométrico.
type EmotionResolution struct {
	Emotion        Emotion             `json:"emotion"`
	Confidence     float64             `json:"confidence"`
	Probabilities  map[Emotion]float64 `json:"probabilities,omitempty"`
	Source         ResolutionSource    `json:"source"`
	FallbackReason string              `json:"fallback_reason,omitempty"`
}

type ResolutionSource string

const (
	ResolutionSourceModel    ResolutionSource = "model"
	ResolutionSourceFallback ResolutionSource = "fallback"
)

// IsFallback indica si la resolución proviene de la distribución uniforme de respaldo.
func (r EmotionResolution) IsFallback() bool {
	return r.Source == ResolutionSourceFallback
}

// TextAnalysis es el resultado del resolvedor de texto.
type TextAnalysis struct {
	Emotion        Emotion `json:"emotion"`
	Intensity      float64 `json:"intensity"`
	SentimentScore float64 `json:"sentiment_score"`
	Tier           string  `json:"tier"`

	// RiskPhrase es la frase crítica que disparó тревога en el nivel léxico; vacía en otro caso.
	RiskPhrase string `json:"-"`
}
