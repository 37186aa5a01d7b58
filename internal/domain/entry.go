package domain

import "time"

// DiaryEntry es una entrada del diario ya etiquetada por el analizador de texto.
type DiaryEntry struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Content        string    `json:"content"`
	Emotion        Emotion   `json:"emotion"`
	Intensity      float64   `json:"intensity"`
	SentimentScore float64   `json:"sentiment_score"`
}

// EmotionLabel es una etiqueta autodeclarada, usada como verdad de campo para entrenar.
type EmotionLabel struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`
	Emotion   Emotion   `json:"emotion"`
	Intensity float64   `json:"intensity"`
	Note      *string   `json:"note,omitempty"`
}

// EntryFilter acota los listados de entradas por fecha de creación.
type EntryFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// LabelFilter acota los listados de etiquetas.
type LabelFilter struct {
	DeviceID string
	From     *time.Time
	To       *time.Time
	Limit    int
}

// EmotionRecord es la vista mínima que consume el agregador temporal.
type EmotionRecord struct {
	Timestamp time.Time
	Emotion   Emotion
	Intensity float64
}

// Record proyecta la entrada al formato del agregador.
func (e DiaryEntry) Record() EmotionRecord {
	return EmotionRecord{Timestamp: e.CreatedAt, Emotion: e.Emotion, Intensity: e.Intensity}
}

// Record proyecta la etiqueta al formato del agregador.
func (l EmotionLabel) Record() EmotionRecord {
	return EmotionRecord{Timestamp: l.Timestamp, Emotion: l.Emotion, Intensity: l.Intensity}
}
