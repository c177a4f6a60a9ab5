package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hyunjae-dev/prooflink/config"
	"github.com/hyunjae-dev/prooflink/internal/app/repository"
	"github.com/hyunjae-dev/prooflink/internal/app/service"
	inthttp "github.com/hyunjae-dev/prooflink/internal/http/handler"
	"github.com/hyunjae-dev/prooflink/internal/http/middleware"
)

// Dependencies bundles infrastructure dependencies required by the HTTP server.
type Dependencies struct {
	Logger         *zap.Logger
	Config         *config.Config
	Postgres       *pgxpool.Pool
	Redis          *redis.Client
	NATS           *nats.Conn
	JetStream      nats.JetStreamContext
	Orders         repository.OrderRepository
	Proofs         repository.ProofRepository
	Organizations  repository.OrganizationRepository
	TokenService   *service.TokenService
	ProofService   *service.ProofService
	Notifications  *service.NotificationService
	ShortLinks     *service.ShortLinkService
	ClickPublisher *service.ClickPublisher
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: int(deps.Config.Upload.MaxBytes) + 1<<20,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.CORS())

	s.app.Get("/", s.Health)
	s.app.Get("/health", s.Health)

	// The token-scoped surface and the short-link redirect are reachable
	// without authentication, so both sit behind the Redis limiter.
	publicLimit := middleware.RateLimitConfig{
		MaxRequests: s.deps.Config.Security.PublicRatePerMin,
		Window:      time.Minute,
		KeyPrefix:   "ratelimit:public",
	}
	limiter := middleware.RateLimit(s.deps.Redis, publicLimit, s.deps.Logger)
	s.app.Use("/public", limiter)
	s.app.Use("/s", limiter)

	publicHandler := inthttp.NewPublicHandler(inthttp.PublicDeps{
		Logger:       s.deps.Logger,
		TokenService: s.deps.TokenService,
		ProofService: s.deps.ProofService,
	})
	publicHandler.Register(s.app)

	shortHandler := inthttp.NewShortHandler(inthttp.ShortDeps{
		Logger:         s.deps.Logger,
		ShortLinks:     s.deps.ShortLinks,
		ClickPublisher: s.deps.ClickPublisher,
	})
	shortHandler.Register(s.app)

	adminHandler := inthttp.NewAdminHandler(inthttp.AdminDeps{
		Logger:        s.deps.Logger,
		Orders:        s.deps.Orders,
		Proofs:        s.deps.Proofs,
		Organizations: s.deps.Organizations,
		TokenService:  s.deps.TokenService,
		Notifications: s.deps.Notifications,
	})
	adminHandler.Register(s.app)
}

// Health reports process liveness plus a Postgres round trip.
func (s *Server) Health(c *fiber.Ctx) error {
	status := "ok"
	dbStatus := "ok"
	if s.deps.Postgres != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := s.deps.Postgres.Ping(ctx); err != nil {
			status = "degraded"
			dbStatus = "unreachable"
		}
	}
	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"service":  "prooflink",
		"status":   status,
		"database": dbStatus,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
