// Scamtrap - honeypot session tracker for scam detection
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/nmehra/scamtrap/internal/agent"
	"github.com/nmehra/scamtrap/internal/api"
	"github.com/nmehra/scamtrap/internal/config"
	"github.com/nmehra/scamtrap/internal/finalize"
	"github.com/nmehra/scamtrap/internal/metrics"
	"github.com/nmehra/scamtrap/internal/middleware"
	"github.com/nmehra/scamtrap/internal/report"
	"github.com/nmehra/scamtrap/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "data_dir", cfg.DataDir)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DataDir, store.Options{
		ScamFlagThreshold: cfg.ScamFlagThreshold,
	})
	if err != nil {
		slog.Error("Failed to initialize databases", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Databases connected")

	reporter := report.NewClient(cfg.Report.Endpoint, cfg.Report.Enabled, cfg.Report.PushTimeout)
	if reporter.Enabled() {
		slog.Info("External reporting enabled", "endpoint", cfg.Report.Endpoint)
	} else {
		slog.Info("External reporting disabled, reports stay pending")
	}

	engine := finalize.NewEngine(repo, reporter, cfg.SessionTimeout)

	// Model-backed generator (optional).
	var gen agent.Generator
	if cfg.LLMEnabled() {
		gen = agent.NewLLMGenerator(agent.LLMConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
		})
		slog.Info("LLM generator initialized", "model", cfg.LLM.Model)
	} else {
		slog.Info("AI features disabled (LLM_API_KEY or LLM_MODEL not set), using canned replies")
	}

	analyzer := agent.NewAnalyzer(cfg.FlagConfidence)
	m, metricsHandler := metrics.New()

	handler := api.NewHandler(repo, engine, analyzer, gen, reporter, m)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	// Public routes.
	handler.RegisterPublic(r)

	// Authenticated routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKey(cfg.APIKey))
		handler.RegisterRoutes(r)
		r.Handle("/metrics", metricsHandler)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start timeout sweeper.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	finalize.StartSweeper(ctx, engine, cfg.SweepInterval, func(count int) {
		if count > 0 {
			m.SessionsFinalized.Add(float64(count))
		}
		if active, err := repo.ActiveCount(ctx); err == nil {
			m.ActiveSessions.Set(float64(active))
		}
	})

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
