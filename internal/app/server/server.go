package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/tessara/linkgate/internal/app/linkstore"
	inthttp "github.com/tessara/linkgate/internal/http/handler"
	"github.com/tessara/linkgate/internal/http/middleware"
	httpUtil "github.com/tessara/linkgate/internal/http/util"
	"go.uber.org/zap"
)

const purgeTokenTTL = 60 * time.Second

// Dependencies bundles infrastructure dependencies required by the HTTP server.
type Dependencies struct {
	Logger      *zap.Logger
	Redis       *redis.Client
	NATS        *nats.Conn
	JetStream   nats.JetStreamContext
	Pipeline    inthttp.Pipeline
	Cache       inthttp.CacheInvalidator
	Aggregator  linkstore.Aggregator
	PurgeSecret []byte
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	app := fiber.New()

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
	if s.deps.Redis != nil {
		s.app.Use(middleware.RateLimit(s.deps.Redis, middleware.DefaultRateLimitConfig(), s.deps.Logger))
	}

	if s.deps.Aggregator != nil {
		statsHandler := inthttp.NewStatsHandler(inthttp.StatsDeps{
			Logger:     s.deps.Logger,
			Aggregator: s.deps.Aggregator,
		})
		statsHandler.Register(s.app)
	}

	if s.deps.Cache != nil {
		adminHandler := inthttp.NewAdminHandler(inthttp.AdminDeps{
			Logger: s.deps.Logger,
			Cache:  s.deps.Cache,
			Tokens: httpUtil.NewTokenSigner(s.deps.PurgeSecret, purgeTokenTTL),
		})
		adminHandler.Register(s.app)
	}

	// The catch-all /:code route goes last.
	redirectHandler := inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:   s.deps.Logger,
		Pipeline: s.deps.Pipeline,
	})
	redirectHandler.Register(s.app)
}
