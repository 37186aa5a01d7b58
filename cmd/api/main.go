package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"emotion-diary/internal/config"
	"emotion-diary/internal/email"
	"emotion-diary/internal/features"
	apihttp "emotion-diary/internal/http"
	"emotion-diary/internal/logging"
	"emotion-diary/internal/nlp"
	"emotion-diary/internal/repository"
	"emotion-diary/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "emotion-diary-api")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	stores, err := repository.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage init", zap.Error(err))
	}
	defer stores.Close()

	var scoreCache nlp.ScoreCache = nlp.NewMemoryScoreCache(cfg.ScoreCacheSize, cfg.ScoreCacheTTL)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory score cache", zap.Error(err))
		} else {
			scoreCache = nlp.NewRedisScoreCache(redisClient, logger)
		}
		cancel()
	}

	inference := nlp.NewHTTPClient(cfg.InferenceBaseURL, cfg.InferenceAPIKey, cfg.InferenceTimeout, logger)
	cachedSentiment := func(model string) nlp.SentimentClassifier {
		return nlp.NewCachedSentiment(inference.SentimentModel(model), scoreCache, model, cfg.ScoreCacheTTL)
	}
	modelLoader := nlp.NewLoader([]nlp.Candidate{
		{
			Name:      cfg.SentimentModel,
			Sentiment: cachedSentiment(cfg.SentimentModel),
			ZeroShot:  nlp.NewCachedZeroShot(inference.ZeroShotModel(cfg.ZeroShotModel), scoreCache, cfg.ZeroShotModel, cfg.ScoreCacheTTL),
		},
		{
			Name:      cfg.AltSentimentModel,
			Sentiment: cachedSentiment(cfg.AltSentimentModel),
		},
	}, cfg.ModelRetryCooldown, logger)

	alertSender := email.NewDisabledSender("risk alerts not configured")
	if cfg.AlertsEnabled() {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.AlertTo, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			alertSender = sender
		}
	}

	loc := cfg.Location()
	analyzer := service.NewTextAnalyzer(modelLoader, alertSender, logger)
	extractor := features.NewExtractor(stores.Samples, cfg.FeatureWindow)
	biometric := service.NewBiometricService(cfg.ModelDir, extractor, stores.Features, logger)

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.OperatorTTL)
	if !tokens.Enabled() {
		logger.Warn("jwt secret not configured, operator routes disabled")
	}

	handlers := apihttp.Handlers{
		Entries: apihttp.NewEntryHandler(logger, service.NewEntryService(logger, stores.Entries, analyzer)),
		Stats: apihttp.NewStatsHandler(logger,
			service.NewStatsService(stores.Entries, loc, logger),
			service.NewStatsService(stores.Labels, loc, logger),
			loc,
		),
		Watch:    apihttp.NewWatchHandler(logger, service.NewWatchService(logger, stores.Samples, loc)),
		Emotions: apihttp.NewEmotionHandler(logger, service.NewLabelService(logger, stores.Labels), biometric),
		Models:   apihttp.NewModelHandler(logger, biometric, stores.Models),
	}
	router := apihttp.NewRouter(logger, handlers, tokens)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("storage", stores.Driver),
		zap.String("timezone", loc.String()),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
