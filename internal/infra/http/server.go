// Package http provides the gateway HTTP server and request pipeline.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/studenttools/gateway/internal/config"
	"github.com/studenttools/gateway/internal/gateway/loginguard"
	"github.com/studenttools/gateway/internal/gateway/ratelimit"
	"github.com/studenttools/gateway/internal/gateway/redirect"
	"github.com/studenttools/gateway/internal/gateway/token"
	"github.com/studenttools/gateway/internal/gateway/trafficfilter"
	"github.com/studenttools/gateway/internal/infra/http/handler"
	"github.com/studenttools/gateway/internal/infra/http/middleware"
	"github.com/studenttools/gateway/pkg/logger"
)

// Deps are the gateway components the server composes into a pipeline.
type Deps struct {
	Limiter  *ratelimit.Limiter
	Guard    *loginguard.Guard
	Verifier loginguard.Verifier
	Tokens   *token.Service
	Filter   *trafficfilter.Filter
	Policy   *redirect.Policy

	// Pinger reports shared-store health for the readiness endpoint.
	// Nil when running on the in-memory store.
	Pinger handler.Pinger

	// App receives requests that pass the whole pipeline and are not
	// handled by the gateway itself. Defaults to a 404 handler.
	App http.Handler
}

// Server represents the gateway HTTP server.
type Server struct {
	httpServer   *http.Server
	router       *chi.Mux
	config       *config.Config
	logger       *logger.Logger
	cleanupFuncs []func()
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithCleanup registers a function to run on shutdown.
func WithCleanup(fn func()) ServerOption {
	return func(s *Server) {
		s.cleanupFuncs = append(s.cleanupFuncs, fn)
	}
}

// NewServer creates a new gateway server with the full request pipeline.
func NewServer(cfg *config.Config, log *logger.Logger, deps Deps, opts ...ServerOption) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: log,
	}

	for _, opt := range opts {
		opt(s)
	}

	app := deps.App
	if app == nil {
		app = http.NotFoundHandler()
	}

	skipPaths := []string{"/metrics"}
	if cfg.Log.SkipHealthLogs {
		skipPaths = append(skipPaths, "/health", "/ready")
	}

	// Pipeline order matters. Identity resolution feeds everything
	// downstream; the traffic filter rejects noise before any counter
	// is touched; rate limiting runs before redirect gating and
	// handlers so rejected requests stay cheap.
	s.router.Use(middleware.RecoveryWithConfig(middleware.RecoveryConfig{
		Logger:       log,
		IncludeStack: !cfg.IsProduction(),
	}))
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Identity())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.AdminOverlay(deps.Policy))
	if cfg.Server.EnforceHTTPS {
		s.router.Use(middleware.HTTPSEnforce())
	}
	s.router.Use(middleware.Metrics())
	s.router.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Logger:               log,
		SkipPaths:            skipPaths,
		SlowRequestThreshold: time.Duration(cfg.Log.SlowRequestSeconds) * time.Second,
	}))
	s.router.Use(middleware.Compress())
	s.router.Use(middleware.TrafficFilter(deps.Filter, log))
	if cfg.RateLimit.Enabled {
		s.router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Limiter:   deps.Limiter,
			Logger:    log,
			SkipPaths: []string{"/health", "/ready", "/metrics"},
		}))
	}
	s.router.Use(middleware.AuthRedirect(deps.Policy, cfg.Auth.CookieName))
	s.router.Use(middleware.Decompress())
	s.router.Use(middleware.BodyLimit(cfg.Server.MaxBodySize))

	s.registerRoutes(deps, app)

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

func (s *Server) registerRoutes(deps Deps, app http.Handler) {
	authHandler := handler.NewAuthHandler(handler.AuthHandlerConfig{
		Guard:      deps.Guard,
		Verifier:   deps.Verifier,
		Tokens:     deps.Tokens,
		Logger:     s.logger,
		AdminEmail: s.config.Auth.AdminEmail,
		LoginDelay: s.config.Auth.LoginDelay,
	})
	healthHandler := handler.NewHealthHandler(s.config.App.Version, deps.Pinger)

	s.router.Get("/health", healthHandler.Health)
	s.router.Get("/ready", healthHandler.Ready)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Get("/verify", authHandler.Verify)
	})

	s.router.NotFound(app.ServeHTTP)
}

// Handler returns the composed pipeline, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting gateway",
		"addr", s.config.Server.Addr(),
		"env", s.config.App.Env,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down gateway")

	for _, cleanup := range s.cleanupFuncs {
		cleanup()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("gateway stopped")
	return nil
}
