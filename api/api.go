package api

import (
	"errors"
	"log/slog"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apimcp "github.com/papercomputeco/companion/api/mcp"
	"github.com/papercomputeco/companion/pkg/companion"
	"github.com/papercomputeco/companion/pkg/metrics"
	"github.com/papercomputeco/companion/pkg/storage"
	"github.com/papercomputeco/companion/pkg/worker"
)

// Server is the companion API server.
type Server struct {
	config  Config
	service *companion.Service
	storer  storage.Driver
	pool    *worker.Pool
	metrics *metrics.Metrics
	logger  *slog.Logger
	app     *fiber.App
}

// NewServer creates a new API server. The storer and pool are injected so
// they can be shared with other components and closed by the caller.
func NewServer(config Config, svc *companion.Service, storer storage.Driver, pool *worker.Pool, logger *slog.Logger) (*Server, error) {
	if svc == nil {
		return nil, errors.New("companion service is required")
	}
	if storer == nil {
		return nil, errors.New("storage driver is required")
	}
	if pool == nil {
		return nil, errors.New("worker pool is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if config.Metrics == nil {
		config.Metrics = metrics.New(nil)
	}

	s := &Server{
		config:  config,
		service: svc,
		storer:  storer,
		pool:    pool,
		metrics: config.Metrics,
		logger:  logger,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app = app

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.CORSOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	prom := fiberprometheus.NewWithRegistry(s.metrics.Registry, "companion", "companion", "http", nil)
	app.Use(prom.Middleware)
	app.Use(s.requestLogger())
	if config.RateLimit > 0 {
		app.Use(s.rateLimiter())
	}

	app.Get("/ping", s.handlePing)
	app.Get("/health", s.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))

	v1 := app.Group("/v1")
	v1.Post("/chat", s.handleChat)

	v1.Get("/conversations", s.handleListConversations)
	v1.Get("/conversations/:id/insights", s.handleInsights)
	v1.Post("/conversations/:id/restart", s.handleRestart)
	v1.Delete("/conversations/:id", s.handleDeleteConversation)

	v1.Get("/memory/status", s.handleMemoryStatus)
	v1.Post("/memory/cleanup", s.handleMemoryCleanup)

	v1.Get("/users/:id/profile", s.handleUserProfile)
	v1.Get("/system/stats", s.handleSystemStats)

	v1.Get("/demo", s.handleListDemos)
	v1.Post("/demo/:kind", s.handleDemo)

	if config.Events != nil {
		v1.Get("/events", s.handleEvents)
	}

	if !config.DisableMCP {
		mcpServer, err := apimcp.NewServer(apimcp.Config{
			Service: svc,
			Storer:  storer,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
