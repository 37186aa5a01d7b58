package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New construye el logger del proceso.
// level: debug, info, warn, error (info por defecto). format: json o console.
func New(level, format, service string) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if service != "" {
		logger = logger.With(zap.String("service_name", service))
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		logger = logger.With(zap.String("hostname", hostname))
	}
	return logger, nil
}

// ParseLevel traduce el nivel textual; valores desconocidos caen en info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
