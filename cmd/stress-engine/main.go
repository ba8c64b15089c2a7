package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mindwell/stress-engine/internal/api"
	"github.com/mindwell/stress-engine/internal/cache"
	"github.com/mindwell/stress-engine/internal/catalog"
	"github.com/mindwell/stress-engine/internal/config"
	"github.com/mindwell/stress-engine/internal/detector"
	"github.com/mindwell/stress-engine/internal/service"
	"github.com/mindwell/stress-engine/internal/storage"
	"github.com/mindwell/stress-engine/migrations"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting stress-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Initialize database repository
	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN: cfg.Database.DSN,
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	// Run embedded database migrations
	if err := storage.RunMigrations(initCtx, repo.Pool(), migrations.Files); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize the pattern cache. The service degrades to
	// database-only reads when Redis is unreachable.
	patternCache, err := cache.NewPatternCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CacheTTL)
	if err != nil {
		slog.Warn("redis unavailable, pattern cache disabled", "address", cfg.Redis.Address, "error", err)
		patternCache = nil
	}

	// Load exercise catalog
	exercises := catalog.NewLoader()
	if err := exercises.LoadFromDir(cfg.Exercises.Dir); err != nil {
		slog.Warn("failed to load exercises from dir", "dir", cfg.Exercises.Dir, "error", err)
	}

	// Initialize pattern detector worker
	worker := detector.NewWorker(repo, patternCache, cfg.Detector.QueueSize, cfg.Detector.SweepInterval)

	// Initialize stress service
	stress := service.NewStressService(repo, patternCache, worker)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, cfg.Auth, cfg.RateLimit, stress, exercises, worker, repo)

	// Pattern updates fan out to websocket watchers
	worker.SetNotifier(server.Hub())

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start detector worker
	worker.Start(ctx)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if patternCache != nil {
		if err := patternCache.Close(); err != nil {
			slog.Error("cache close error", "error", err)
		}
	}

	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("stress-engine stopped")
}
