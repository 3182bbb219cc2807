package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/darkodi/urlshorten/internal/cache"
	"github.com/darkodi/urlshorten/internal/config"
	"github.com/darkodi/urlshorten/internal/handler"
	"github.com/darkodi/urlshorten/internal/logger"
	"github.com/darkodi/urlshorten/internal/middleware"
	"github.com/darkodi/urlshorten/internal/repository"
	"github.com/darkodi/urlshorten/internal/service"
)

func main() {
	// ============================================================
	// LOAD CONFIGURATION
	// ============================================================
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration: "+err.Error())
		os.Exit(1)
	}

	log := logger.New(cfg.Log)

	log.Info("starting urlshorten",
		"level", cfg.Log.Level,
		"format", cfg.Log.Format,
		"environment", cfg.App.Environment)

	// ============================================================
	// INITIALIZE LAYERS
	// ============================================================
	repo, err := repository.NewURLRepository(cfg.Database.URL)
	if err != nil {
		log.Error("failed to initialize database", "error", err.Error())
		os.Exit(1)
	}
	log.Info("database ready", "driver", repo.Driver())

	opts := []service.Option{}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		log.Info("connecting to Redis...", "addr", cfg.Redis.Addr)
		redisCache, err = cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Error("failed to connect to Redis", "error", err.Error())
			repo.Close()
			os.Exit(1)
		}
		opts = append(opts, service.WithCache(redisCache))
		log.Info("Redis connected successfully")
	}

	svc := service.NewURLService(repo, log, opts...)

	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfig{
			Limit:      cfg.RateLimit.Limit,
			Window:     cfg.RateLimit.Window,
			Cleanup:    cfg.RateLimit.Cleanup,
			TrustProxy: cfg.RateLimit.TrustProxy,
		},
		log,
	)
	log.Info("rate limiter enabled",
		"limit", cfg.RateLimit.Limit,
		"window", cfg.RateLimit.Window,
	)

	h := handler.NewURLHandler(svc, log)
	router := h.SetupRoutes(rateLimiter.Middleware())

	// ============================================================
	// BUILD MIDDLEWARE CHAIN
	// ============================================================
	wrappedRouter := middleware.Chain(router,
		middleware.RequestID,
		middleware.RecoveryWithLogger(log),
		middleware.LoggingWithLogger(log),
	)

	// ============================================================
	// CREATE SERVER WITH CONFIG TIMEOUTS
	// ============================================================
	addr := ":" + cfg.Server.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      wrappedRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	go func() {
		log.Info("server starting", "addr", addr)
		serverErr <- server.ListenAndServe()
	}()

	// ============================================================
	// WAIT FOR SHUTDOWN OR ERROR
	// ============================================================
	exitCode := 0
	select {
	case err := <-serverErr:
		log.Error("server error", "error", err.Error())
		exitCode = 1

	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig.String())
		ctx, cancel := context.WithTimeout(
			context.Background(),
			cfg.Server.ShutdownTimeout,
		)

		// Attempt graceful shutdown
		if err := server.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "error", err.Error())
			// force close if graceful shutdown fails
			if err := server.Close(); err != nil {
				log.Error("forced shutdown failed", "error", err.Error())
			}
		}
		cancel()
	}

	rateLimiter.Close()

	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			log.Error("failed to close Redis client", "error", err.Error())
		}
	}

	if err := repo.Close(); err != nil {
		log.Error("failed to close database", "error", err.Error())
	}

	log.Info("server stopped")
	os.Exit(exitCode)
}
