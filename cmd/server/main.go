package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/darkodi/alias-shortener/internal/cache"
	"github.com/darkodi/alias-shortener/internal/config"
	"github.com/darkodi/alias-shortener/internal/encoder"
	"github.com/darkodi/alias-shortener/internal/handler"
	"github.com/darkodi/alias-shortener/internal/logger"
	"github.com/darkodi/alias-shortener/internal/middleware"
	"github.com/darkodi/alias-shortener/internal/repository"
	"github.com/darkodi/alias-shortener/internal/service"
)

func main() {
	// ============================================================
	// LOAD CONFIGURATION
	// ============================================================
	fmt.Println("📋 Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if cfg.IsDevelopment() {
		fmt.Printf("   Environment: %s\n", cfg.App.Environment)
		fmt.Printf("   Port: %s\n", cfg.Server.Port)
		fmt.Printf("   Database: %s\n", cfg.Database.Driver)
		fmt.Printf("   Base URL: %s\n", orDefault(cfg.App.BaseURL, "(from request)"))
	}

	// ============================================================
	// Initialize logger
	// ============================================================
	log := logger.New(cfg.Log)

	log.Info("starting alias-shortener",
		"level", cfg.Log.Level,
		"format", cfg.Log.Format,
		"environment", cfg.App.Environment)

	// ============================================================
	// INITIALIZE STORAGE
	// ============================================================
	ctx := context.Background()

	if cfg.Database.Driver == config.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			log.Error("failed to create database directory", "error", err.Error())
			os.Exit(1)
		}
	}

	log.Info("connecting to database...", "driver", cfg.Database.Driver)
	repo, err := repository.NewURLRepository(ctx, &cfg.Database)
	if err != nil {
		log.Error("Failed to initialize database", "error", err.Error())
		os.Exit(1)
	}

	// ============================================================
	// INITIALIZE REDIS CACHE
	// ============================================================
	var redirectCache service.Cache
	if cfg.Redis.Enabled {
		log.Info("connecting to Redis...", "addr", cfg.Redis.Addr)
		redisCache, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Error("Failed to connect to Redis", "error", err.Error())
			os.Exit(1)
		}
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error("Failed to close Redis client", "error", err.Error())
			}
		}()
		redirectCache = redisCache
		log.Info("Redis connected successfully!")
	}

	svc := service.NewURLService(repo, encoder.NewGenerator(encoder.NewSource()), service.Options{
		MaxAliasAttempts: cfg.App.MaxAliasAttempts,
		Cache:            redirectCache,
		Logger:           log,
	})

	h := handler.NewURLHandler(svc, &cfg.App, log)
	router := h.SetupRoutes()

	// ============================================================
	// BUILD MIDDLEWARE CHAIN
	// ============================================================
	wrappedRouter := middleware.Wrap(router, log)

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

	// Channel to track server errors
	serverErr := make(chan error, 1)

	go func() {
		if cfg.IsDevelopment() {
			fmt.Printf("🚀 Server starting on http://localhost%s%s\n", addr, cfg.App.ContextPath)
			fmt.Println("───────────────────────────────────────")
			fmt.Println("Endpoints:")
			fmt.Println("  POST   /shorten   - Create short URL")
			fmt.Println("  GET    /{alias}   - Redirect to full URL")
			fmt.Println("  DELETE /{alias}   - Delete short URL")
			fmt.Println("  GET    /urls      - List short URLs")
			fmt.Println("  GET    /health    - Health check")
			fmt.Println("───────────────────────────────────────")
			fmt.Println("Press Ctrl+C to shutdown gracefully")
		}
		log.Info("server starting", "addr", addr)
		serverErr <- server.ListenAndServe()
	}()

	// ============================================================
	// WAIT FOR SHUTDOWN OR ERROR
	// ============================================================
	select {
	case err := <-serverErr:
		log.Error("server error", "error", err.Error())
		_ = repo.Close()
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "error", err.Error())
			// force close if graceful shutdown fails
			if err := server.Close(); err != nil {
				log.Error("forced shutdown failed", "error", err.Error())
			}
		}

		if err := repo.Close(); err != nil {
			log.Error("failed to close database", "error", err.Error())
		}

		log.Info("server stopped")
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
