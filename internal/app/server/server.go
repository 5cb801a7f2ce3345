package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/tinylink-dev/tinylink/internal/app/service"
	"github.com/tinylink-dev/tinylink/internal/app/store"
	"github.com/tinylink-dev/tinylink/internal/http/handler"
	"github.com/tinylink-dev/tinylink/internal/http/middleware"
	"go.uber.org/zap"
)

// Dependencies bundles everything the HTTP server needs. Redis, the pgx
// pool and the click publisher are optional; nil disables the feature.
type Dependencies struct {
	Logger         *zap.Logger
	Store          store.Store
	Registry       *service.Registry
	Metadata       *service.MetadataFetcher
	ClickPublisher *service.ClickPublisher
	Redis          *redis.Client
	Pool           *pgxpool.Pool

	BaseURL      string
	DBConfigured bool
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates the HTTP server with all routes registered.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:      "tinylink",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	s := &Server{app: app, deps: deps}
	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber app, used by handler tests.
func (s *Server) App() *fiber.App {
	return s.app
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

	// Landing page; unknown short codes redirect here.
	s.app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "tinylink",
			"status":  "ok",
		})
	})

	healthHandler := handler.NewHealthHandler(handler.HealthDeps{
		Logger:       s.deps.Logger,
		Store:        s.deps.Store,
		Pool:         s.deps.Pool,
		BaseURL:      s.deps.BaseURL,
		DBConfigured: s.deps.DBConfigured,
	})
	healthHandler.Register(s.app)

	apiHandler := handler.NewAPIHandler(handler.APIDeps{
		Logger:   s.deps.Logger,
		Registry: s.deps.Registry,
	})
	var createMiddleware []fiber.Handler
	if s.deps.Redis != nil {
		createMiddleware = append(createMiddleware,
			middleware.RateLimit(s.deps.Redis, middleware.DefaultRateLimitConfig(), s.deps.Logger))
	}
	apiHandler.Register(s.app, createMiddleware...)

	// Registered last: /:code matches everything else.
	redirectHandler := handler.NewRedirectHandler(handler.RedirectDeps{
		Logger:         s.deps.Logger,
		Registry:       s.deps.Registry,
		Metadata:       s.deps.Metadata,
		ClickPublisher: s.deps.ClickPublisher,
		BaseURL:        s.deps.BaseURL,
	})
	redirectHandler.Register(s.app)
}
