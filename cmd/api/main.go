// Command api serves a collected Steam library over HTTP.
//
// Usage:
//
//	steam-api
//	API_PORT=8080 REFRESH_INTERVAL_MINUTES=360 steam-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/steam-ledger/internal/api"
	"github.com/albapepper/steam-ledger/internal/api/handler"
	"github.com/albapepper/steam-ledger/internal/cache"
	"github.com/albapepper/steam-ledger/internal/collect"
	"github.com/albapepper/steam-ledger/internal/config"
	"github.com/albapepper/steam-ledger/internal/db"
	"github.com/albapepper/steam-ledger/internal/library"
	"github.com/albapepper/steam-ledger/internal/maintenance"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	file := library.File{Path: cfg.OutputFile}
	var (
		source  library.Source = file
		sinks                  = library.Sinks{Targets: []library.Sink{file}, Logger: logger}
		checker handler.HealthChecker
	)

	// Connect to database when configured; the CSV file is used otherwise.
	if cfg.HasDatabase() {
		if cfg.SteamID == "" {
			logger.Error("STEAM_ID is required to serve a library from Postgres")
			os.Exit(1)
		}
		logger.Info("Connecting to database...")
		pool, err := db.New(ctx, cfg)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)

		tbl := library.Table{Store: pool, SteamID: cfg.SteamID}
		source = tbl
		sinks.Targets = append(sinks.Targets, tbl)
		checker = pool
	} else {
		logger.Info("Serving library from file", "path", cfg.OutputFile)
	}

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	defer appCache.Close()
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Start the refresh ticker when an interval and credentials are configured
	if creds, err := cfg.Credentials(); err == nil && cfg.RefreshInterval > 0 {
		refresher := &maintenance.Refresher{
			Collector: collect.NewSteamPipeline(
				collect.Endpoints{APIBaseURL: cfg.APIBaseURL, StoreBaseURL: cfg.StoreBaseURL},
				cfg.Policy(),
				collect.Options{Workers: cfg.Workers},
				logger,
			),
			Creds:  creds,
			Sink:   sinks,
			Cache:  appCache,
			Logger: logger,
		}
		go maintenance.Start(ctx, maintenance.Config{RefreshInterval: cfg.RefreshInterval}, refresher, logger)
	} else if cfg.RefreshInterval > 0 {
		logger.Warn("Library refresh disabled", "error", err)
	}

	// Create router
	router := api.NewRouter(source, appCache, cfg, checker)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Steam Ledger API",
			"addr", addr,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
