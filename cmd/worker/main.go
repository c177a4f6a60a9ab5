package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/hyunjae-dev/prooflink/config"
	apprepository "github.com/hyunjae-dev/prooflink/internal/app/repository"
	appservice "github.com/hyunjae-dev/prooflink/internal/app/service"
	"github.com/hyunjae-dev/prooflink/internal/infra/logger"
	infraNATS "github.com/hyunjae-dev/prooflink/internal/infra/nats"
	infraPostgres "github.com/hyunjae-dev/prooflink/internal/infra/postgres"
	"github.com/hyunjae-dev/prooflink/internal/messaging"
	"github.com/hyunjae-dev/prooflink/internal/security"
	"github.com/hyunjae-dev/prooflink/internal/worker"
)

const workerConcurrency = 10

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()

	cipher, err := security.NewPhoneCipher(cfg.Security.EncryptionKey)
	if err != nil {
		log.Fatal("Failed to init phone cipher", zap.Error(err))
	}

	primary, err := messaging.NewPrimary(cfg.Messaging)
	if err != nil {
		log.Warn("Primary messaging provider not configured; sends will fail until fixed",
			zap.String("provider", cfg.Messaging.Provider), zap.Error(err))
		primary = messaging.Unconfigured(err)
	}
	smsFallback := primary
	if !messaging.IsSMSOnlyFamily(cfg.Messaging.Provider) {
		smsFallback, err = messaging.NewSMSFallback(cfg.Messaging)
		if err != nil {
			log.Warn("SMS fallback provider not configured; fallback sends will fail",
				zap.Error(err))
			smsFallback = messaging.Unconfigured(err)
		}
	}

	orderRepo := apprepository.NewOrderRepository(gormDB)
	tokenRepo := apprepository.NewTokenRepository(gormDB)
	notificationRepo := apprepository.NewNotificationRepository(gormDB)
	shortLinkRepo := apprepository.NewShortLinkRepository(gormDB)
	clickRepo := apprepository.NewClickEventRepository(gormDB)

	shortLinks := appservice.NewShortLinkService(log, shortLinkRepo, orderRepo, cfg.App, cfg.Security.ShortCodeLength)

	// The worker never enqueues, it only consumes; Deliver is invoked with
	// the payload already dequeued.
	notifications := appservice.NewNotificationService(log, cfg, orderRepo, tokenRepo,
		notificationRepo, shortLinks, cipher, primary, smsFallback, nil)

	clickConsumer := appservice.NewClickConsumer(js, log, clickRepo)
	if err := clickConsumer.Start(); err != nil {
		log.Error("Failed to start click consumer", zap.Error(err))
	}

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, asynq.Config{
		Concurrency: workerConcurrency,
	})

	processor := worker.NewProcessor(log, notifications)
	mux := processor.Handler()

	go func() {
		<-ctx.Done()
		log.Info("Shutting down worker")
		server.Shutdown()
	}()

	log.Info("Worker started", zap.Int("concurrency", workerConcurrency))
	if err := server.Run(mux); err != nil {
		log.Fatal("Worker stopped", zap.Error(err))
	}
}
