package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"emotion-diary/internal/config"
	"emotion-diary/internal/logging"
	"emotion-diary/internal/mqtt"
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

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "emotion-diary-ingest")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	stores, err := repository.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage init", zap.Error(err))
	}
	defer stores.Close()

	client, err := mqtt.NewClient(mqtt.Options{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientID,
		Username: cfg.MQTTUsername,
		Password: cfg.MQTTPassword,
	}, logger)
	if err != nil {
		logger.Fatal("mqtt connect", zap.Error(err))
	}
	defer client.Disconnect()

	watch := service.NewWatchService(logger, stores.Samples, cfg.Location())
	consumer := mqtt.NewSampleConsumer(client, watch, cfg.MQTTTopic, logger)
	if err := consumer.Start(ctx); err != nil {
		logger.Fatal("watch ingest", zap.Error(err))
	}
}
