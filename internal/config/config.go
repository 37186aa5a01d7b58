package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8000"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	DatabaseURL   string `env:"DATABASE_URL"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"./data/emotion_diary.db"`

	ModelDir      string        `env:"MODEL_DIR" envDefault:"./models"`
	FeatureWindow time.Duration `env:"FEATURE_WINDOW" envDefault:"1h"`
	Timezone      string        `env:"TIMEZONE" envDefault:"UTC"`

	InferenceBaseURL   string        `env:"INFERENCE_BASE_URL" envDefault:"https://api-inference.huggingface.co"`
	InferenceAPIKey    string        `env:"INFERENCE_API_KEY"`
	SentimentModel     string        `env:"SENTIMENT_MODEL" envDefault:"blanchefort/rubert-base-cased-sentiment"`
	ZeroShotModel      string        `env:"ZERO_SHOT_MODEL" envDefault:"cointegrated/rubert-tiny2"`
	AltSentimentModel  string        `env:"ALT_SENTIMENT_MODEL" envDefault:"nlptown/bert-base-multilingual-uncased-sentiment"`
	InferenceTimeout   time.Duration `env:"INFERENCE_TIMEOUT" envDefault:"10s"`
	ModelRetryCooldown time.Duration `env:"MODEL_RETRY_COOLDOWN" envDefault:"5m"`

	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	ScoreCacheTTL  time.Duration `env:"SCORE_CACHE_TTL" envDefault:"24h"`
	ScoreCacheSize int           `env:"SCORE_CACHE_SIZE" envDefault:"10000"`

	JWTSecret   string        `env:"JWT_SECRET"`
	OperatorTTL time.Duration `env:"OPERATOR_TOKEN_TTL" envDefault:"720h"`

	MQTTBroker   string `env:"MQTT_BROKER" envDefault:"tcp://localhost:1883"`
	MQTTClientID string `env:"MQTT_CLIENT_ID" envDefault:"emotion-diary-ingest"`
	MQTTUsername string `env:"MQTT_USERNAME"`
	MQTTPassword string `env:"MQTT_PASSWORD"`
	MQTTTopic    string `env:"MQTT_TOPIC" envDefault:"watch/+/samples"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"Emotion Diary"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`
	AlertTo      string `env:"ALERT_TO"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa combinaciones que env no puede expresar con tags.
func (c *Config) Validate() error {
	var errs []error
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORAGE_DRIVER=postgres"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when STORAGE_DRIVER=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err))
	}
	if c.FeatureWindow <= 0 {
		errs = append(errs, errors.New("FEATURE_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

// Location devuelve la zona horaria usada para cortar días en las estadísticas.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AlertsEnabled indica si hay SMTP y destinatario para avisos de riesgo.
func (c *Config) AlertsEnabled() bool {
	return c.SMTPHost != "" && c.AlertTo != ""
}
