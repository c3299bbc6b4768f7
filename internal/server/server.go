package server

import (
	"time"

	"mailtriage/internal/compose"
	"mailtriage/internal/config"
	"mailtriage/internal/email"
	"mailtriage/internal/handlers"
	"mailtriage/internal/ingest"
	"mailtriage/internal/stats"
	"mailtriage/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Server represents the application server
type Server struct {
	echo     *echo.Echo
	config   *config.Config
	logger   zerolog.Logger
	store    store.Store
	stats    *stats.Service
	composer *compose.Composer
	sender   email.Sender
	ingest   *ingest.Service
}

// New creates a new server instance
func New(cfg *config.Config, st store.Store, sender email.Sender, logger zerolog.Logger) *Server {
	return &Server{
		config:   cfg,
		logger:   logger,
		store:    st,
		sender:   sender,
		stats:    stats.NewService(st, time.Duration(cfg.StatsCacheTTL)*time.Second),
		composer: compose.NewComposer(st, cfg.OpenAIKey, time.Duration(cfg.OpenAITimeout)*time.Second),
		ingest:   ingest.NewService(st, logger),
	}
}

// zerologMiddleware creates a zerolog-based logging middleware for Echo
func (s *Server) zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			s.logger.Info().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("remote_ip", c.RealIP()).
				Int("status", res.Status).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Str("user_agent", req.UserAgent()).
				Msg("HTTP request")

			return err
		}
	}
}

// Initialize sets up the Echo framework with middleware and routes
func (s *Server) Initialize() {
	s.echo = echo.New()

	// Middleware
	s.echo.Use(s.zerologMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())

	// Hide Echo banner
	s.echo.HideBanner = true

	// Setup routes
	s.setupRoutes()
}

// setupRoutes configures all the application routes
func (s *Server) setupRoutes() {
	// API group with /api prefix
	api := s.echo.Group("/api")

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Health endpoint (keep at root level for monitoring)
	s.echo.GET("/healthz", handlers.HealthHandler(s.config.Version, s.store))

	// Triage API
	api.GET("/emails", handlers.ListEmailsHandler(s.store))
	api.GET("/emails/stats", handlers.StatsHandler(s.stats))
	api.GET("/emails/:id", handlers.GetEmailHandler(s.store))
	api.POST("/emails/load_csv", handlers.LoadCSVHandler(s.ingest, s.stats, s.config))
	api.POST("/emails/load_inbox", handlers.LoadInboxHandler(s.ingest, s.stats, s.config, s.logger))
	api.POST("/emails/:id/draft", handlers.DraftHandler(s.store, s.composer))
	api.POST("/emails/:id/send", handlers.SendHandler(s.store, s.composer, s.sender, s.stats, s.config))
	api.POST("/emails/send_bulk", handlers.BulkSendHandler(s.store, s.sender, s.stats, s.config))
	api.POST("/emails/clear", handlers.ClearHandler(s.store, s.stats))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("port", s.config.Port).Msg("Server starting")
	return s.echo.Start(":" + s.config.Port)
}
