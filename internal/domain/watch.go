package domain

import "time"

// WatchSample es una observación del reloj; cada canal puede venir vacío.
type WatchSample struct {
	ID              string    `json:"id"`
	DeviceID        string    `json:"device_id"`
	Timestamp       time.Time `json:"timestamp"`
	HeartRate       *int      `json:"heart_rate"`
	HRV             *float64  `json:"hrv"`
	SpO2            *int      `json:"spo2"`
	StressLevel     *int      `json:"stress_level"`
	Steps           *int      `json:"steps"`
	Calories        *int      `json:"calories"`
	Distance        *float64  `json:"distance"`
	ActiveMinutes   *int      `json:"active_minutes"`
	SleepHours      *float64  `json:"sleep_hours"`
	SleepQuality    *int      `json:"sleep_quality"`
	BodyBattery     *int      `json:"body_battery"`
	SkinTemperature *float64  `json:"skin_temperature"`
	RespiratoryRate *int      `json:"respiratory_rate"`
}

// DefaultDeviceID se usa cuando el cliente no informa dispositivo.
const DefaultDeviceID = "default"

// SampleFilter acota los listados de muestras.
type SampleFilter struct {
	DeviceID string
	From     *time.Time
	To       *time.Time
	Limit    int
}

// TrendPoint es un punto de serie para los gráficos del panel.
type TrendPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// ActivityPoint resume actividad de una muestra.
type ActivityPoint struct {
	Time     time.Time `json:"time"`
	Steps    int       `json:"steps"`
	Calories int       `json:"calories"`
}

// WatchAnalytics agrega las muestras de un periodo (día, semana o mes).
type WatchAnalytics struct {
	PeriodStart        time.Time       `json:"period_start"`
	PeriodEnd          time.Time       `json:"period_end"`
	TotalRecords       int             `json:"total_records"`
	AvgHeartRate       *float64        `json:"avg_heart_rate"`
	MinHeartRate       *int            `json:"min_heart_rate"`
	MaxHeartRate       *int            `json:"max_heart_rate"`
	AvgHRV             *float64        `json:"avg_hrv"`
	AvgSpO2            *float64        `json:"avg_spo2"`
	AvgStressLevel     *float64        `json:"avg_stress_level"`
	TotalSteps         int             `json:"total_steps"`
	TotalCalories      int             `json:"total_calories"`
	TotalDistance      float64         `json:"total_distance"`
	TotalActiveMinutes int             `json:"total_active_minutes"`
	AvgSleepHours      *float64        `json:"avg_sleep_hours"`
	AvgSleepQuality    *float64        `json:"avg_sleep_quality"`
	AvgBodyBattery     *float64        `json:"avg_body_battery"`
	HeartRateTrend     []TrendPoint    `json:"heart_rate_trend"`
	StressTrend        []TrendPoint    `json:"stress_trend"`
	ActivityTrend      []ActivityPoint `json:"activity_trend"`
}
