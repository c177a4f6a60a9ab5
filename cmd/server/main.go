package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/hyunjae-dev/prooflink/config"
	appmodel "github.com/hyunjae-dev/prooflink/internal/app/model"
	apprepository "github.com/hyunjae-dev/prooflink/internal/app/repository"
	appserver "github.com/hyunjae-dev/prooflink/internal/app/server"
	appservice "github.com/hyunjae-dev/prooflink/internal/app/service"
	"github.com/hyunjae-dev/prooflink/internal/infra/logger"
	infraNATS "github.com/hyunjae-dev/prooflink/internal/infra/nats"
	infraPostgres "github.com/hyunjae-dev/prooflink/internal/infra/postgres"
	infraPrometheus "github.com/hyunjae-dev/prooflink/internal/infra/prometheus"
	infraRedis "github.com/hyunjae-dev/prooflink/internal/infra/redis"
	"github.com/hyunjae-dev/prooflink/internal/messaging"
	"github.com/hyunjae-dev/prooflink/internal/queue"
	"github.com/hyunjae-dev/prooflink/internal/security"
	"github.com/hyunjae-dev/prooflink/internal/storage"
)

func main() {
	ctx := context.Background()

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

	log.Info("Configuration loaded successfully",
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.String("messaging_provider", cfg.Messaging.Provider),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB,
		&appmodel.Organization{},
		&appmodel.Order{},
		&appmodel.ProofToken{},
		&appmodel.Proof{},
		&appmodel.Notification{},
		&appmodel.ShortLink{},
		&appmodel.ClickEvent{},
	); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatal("Failed to init proof storage", zap.Error(err))
	}

	cipher, err := security.NewPhoneCipher(cfg.Security.EncryptionKey)
	if err != nil {
		log.Fatal("Failed to init phone cipher", zap.Error(err))
	}

	primary, smsFallback := buildProviders(log, cfg)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()
	enqueuer := queue.NewClient(asynqClient)

	orderRepo := apprepository.NewOrderRepository(gormDB)
	tokenRepo := apprepository.NewTokenRepository(gormDB)
	proofRepo := apprepository.NewProofRepository(gormDB)
	notificationRepo := apprepository.NewNotificationRepository(gormDB)
	shortLinkRepo := apprepository.NewShortLinkRepository(gormDB)
	organizationRepo := apprepository.NewOrganizationRepository(gormDB)

	shortLinks := appservice.NewShortLinkService(log, shortLinkRepo, orderRepo, cfg.App, cfg.Security.ShortCodeLength)
	tokens := appservice.NewTokenService(log, cfg, orderRepo, tokenRepo, proofRepo, store.URL)
	notifications := appservice.NewNotificationService(log, cfg, orderRepo, tokenRepo,
		notificationRepo, shortLinks, cipher, primary, smsFallback, enqueuer)
	proofs := appservice.NewProofService(log, cfg, tokens, proofRepo, orderRepo, store, notifications)

	clickPublisher := appservice.NewClickPublisher(js)

	server := appserver.New(appserver.Dependencies{
		Logger:         log,
		Config:         cfg,
		Postgres:       pool,
		Redis:          redisClient,
		NATS:           natsConn,
		JetStream:      js,
		Orders:         orderRepo,
		Proofs:         proofRepo,
		Organizations:  organizationRepo,
		TokenService:   tokens,
		ProofService:   proofs,
		Notifications:  notifications,
		ShortLinks:     shortLinks,
		ClickPublisher: clickPublisher,
	})

	if err := server.Listen(cfg.App.ListenAddr); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}

// buildProviders keeps a misconfigured provider from crashing the process:
// the construction error is deferred to send time, where it lands in the
// notification audit trail as a CONFIG_MISSING failure.
func buildProviders(log *zap.Logger, cfg *config.Config) (messaging.Provider, messaging.Provider) {
	primary, err := messaging.NewPrimary(cfg.Messaging)
	if err != nil {
		log.Warn("Primary messaging provider not configured; sends will fail until fixed",
			zap.String("provider", cfg.Messaging.Provider), zap.Error(err))
		primary = messaging.Unconfigured(err)
	}

	if messaging.IsSMSOnlyFamily(cfg.Messaging.Provider) {
		return primary, primary
	}
	smsFallback, err := messaging.NewSMSFallback(cfg.Messaging)
	if err != nil {
		log.Warn("SMS fallback provider not configured; fallback sends will fail",
			zap.Error(err))
		smsFallback = messaging.Unconfigured(err)
	}
	return primary, smsFallback
}
