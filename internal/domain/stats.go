package domain

// DailyStat resume un día calendario.
type DailyStat struct {
	Date                string          `json:"date"`
	TotalEntries        int             `json:"total_entries"`
	DominantEmotion     Emotion         `json:"dominant_emotion"`
	AvgIntensity        float64         `json:"avg_intensity"`
	EmotionDistribution map[Emotion]int `json:"emotion_distribution"`
}

// WeeklyStat agrupa siete DailyStat consecutivos desde el lunes.
type WeeklyStat struct {
	WeekStart    string                `json:"week_start"`
	WeekEnd      string                `json:"week_end"`
	TotalEntries int                   `json:"total_entries"`
	DailyStats   []DailyStat           `json:"daily_stats"`
	EmotionTrend map[Emotion][]float64 `json:"emotion_trend"`
}

// MonthlyStat agrupa las semanas que tocan el mes.
type MonthlyStat struct {
	Month           int                 `json:"month"`
	Year            int                 `json:"year"`
	TotalEntries    int                 `json:"total_entries"`
	WeeklyStats     []WeeklyStat        `json:"weekly_stats"`
	EmotionPatterns map[Emotion]float64 `json:"emotion_patterns"`
}

// DateLayout es el formato de fecha de los parámetros y respuestas.
const DateLayout = "2006-01-02"
