package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/studenttools/gateway/internal/config"
	"github.com/studenttools/gateway/internal/gateway/loginguard"
	"github.com/studenttools/gateway/internal/gateway/ratelimit"
	"github.com/studenttools/gateway/internal/gateway/redirect"
	"github.com/studenttools/gateway/internal/gateway/token"
	"github.com/studenttools/gateway/internal/gateway/trafficfilter"
	gwhttp "github.com/studenttools/gateway/internal/infra/http"
	"github.com/studenttools/gateway/internal/infra/http/handler"
	"github.com/studenttools/gateway/internal/infra/redis"
	"github.com/studenttools/gateway/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	// ==========================================================================
	// Configuration & Logger
	// ==========================================================================
	cfg, err := config.Load()
	if err != nil {
		log := logger.NewDefault()
		log.Error("failed to load configuration", "error", err)
		return 1
	}

	log := initLogger(cfg)
	log.Info("starting gateway", "app", cfg.App.Name, "env", cfg.App.Env, "version", cfg.App.Version)

	// ==========================================================================
	// Rate Limit Store
	// ==========================================================================
	var (
		store  ratelimit.Store
		pinger handler.Pinger
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(&cfg.Redis, log)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			return 1
		}
		defer closeWithLog(redisClient, "redis", log)

		store, err = ratelimit.NewRedisStore(redisClient.Client(), "gw")
		if err != nil {
			log.Error("failed to create redis store", "error", err)
			return 1
		}
		pinger = redisClient
		log.Info("using redis rate limit store", "addr", cfg.Redis.Addr())
	} else {
		store = ratelimit.NewMemoryStore()
		log.Info("using in-memory rate limit store")
	}

	// ==========================================================================
	// Gateway Components
	// ==========================================================================
	tokens, err := token.NewService(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Error("failed to create token service", "error", err)
		return 1
	}

	rules, err := trafficfilter.LoadRules(cfg.Filter.RulesFile)
	if err != nil {
		log.Error("failed to load filter rules", "error", err, "file", cfg.Filter.RulesFile)
		return 1
	}
	filter := trafficfilter.New(rules)

	limiter := ratelimit.NewLimiter(store, map[string]ratelimit.Rule{
		ratelimit.CategoryAuth: {Limit: cfg.RateLimit.AuthLimit, Window: cfg.RateLimit.AuthWindow},
		ratelimit.CategoryAPI:  {Limit: cfg.RateLimit.APILimit, Window: cfg.RateLimit.APIWindow},
	})
	guard := loginguard.NewGuard(store, cfg.Auth.MaxLoginAttempts, cfg.Auth.LockoutDuration)
	verifier := loginguard.NewStaticVerifier(cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, cfg.Auth.AdminPasswordHashed)
	policy := redirect.NewPolicy()

	// ==========================================================================
	// Expired Entry Sweeper
	// ==========================================================================
	var sweeper *ratelimit.Sweeper
	if cfg.Sweep.Enabled {
		sweeper, err = ratelimit.NewSweeper(store, cfg.Sweep.Schedule, log)
		if err != nil {
			log.Error("failed to create sweeper", "error", err, "schedule", cfg.Sweep.Schedule)
			return 1
		}
		if err := sweeper.Start(); err != nil {
			log.Error("failed to start sweeper", "error", err)
			return 1
		}
		log.Info("sweeper started", "schedule", cfg.Sweep.Schedule)
	}

	// ==========================================================================
	// HTTP Server
	// ==========================================================================
	server := gwhttp.NewServer(cfg, log, gwhttp.Deps{
		Limiter:  limiter,
		Guard:    guard,
		Verifier: verifier,
		Tokens:   tokens,
		Filter:   filter,
		Policy:   policy,
		Pinger:   pinger,
	})

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", "error", err)
		}
	}()
	log.Info("gateway started", "http_addr", cfg.Server.Addr())

	// ==========================================================================
	// Graceful Shutdown
	// ==========================================================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if sweeper != nil {
		sweeper.Stop()
		log.Info("sweeper stopped")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return 1
	}

	log.Info("gateway stopped")
	return 0
}

func initLogger(cfg *config.Config) *logger.Logger {
	var log *logger.Logger
	if cfg.IsProduction() {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	log.SetDefault()
	return log
}

type closer interface {
	Close() error
}

func closeWithLog(c closer, name string, log *logger.Logger) {
	if err := c.Close(); err != nil {
		log.Error("failed to close "+name, "error", err)
	}
}
