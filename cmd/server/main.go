package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RichardoC/pad-agent/internal/api"
	"github.com/RichardoC/pad-agent/internal/config"
	"github.com/RichardoC/pad-agent/internal/db"
	"github.com/RichardoC/pad-agent/internal/llm"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	if err := cfg.RequireCredentials(); err != nil {
		logger.Fatal("API keys missing; set them in the environment or a .env file", zap.Error(err))
	}

	service := llm.New(
		llm.Credentials{
			GroqAPIKey:   cfg.GroqAPIKey,
			OpenAIAPIKey: cfg.OpenAIAPIKey,
			TavilyAPIKey: cfg.TavilyAPIKey,
		},
		llm.WithLogger(logger),
		llm.WithMaxIterations(cfg.MaxIterations),
	)

	// The exchange log is optional; without it the backend keeps no state.
	var (
		exchanges api.ExchangeStore
		database  *db.Database
	)
	if cfg.ExchangeDB != "" {
		database, err = db.New(cfg.ExchangeDB)
		if err != nil {
			logger.Fatal("failed to initialize database",
				zap.Error(err),
				zap.String("dbPath", cfg.ExchangeDB))
		}
		defer database.Close()
		exchanges = database
	}

	var limiter *api.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = api.NewRateLimiter(cfg.RateLimitPerMinute)
	}

	handler := api.NewHandler(service, exchanges, cfg.Catalog, cfg.AgentTimeout, logger)
	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           api.NewRouter(handler, limiter, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go housekeeping(ctx, limiter, database, cfg.ExchangeRetention, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down server", zap.Error(err))
		}
	}()

	logger.Info("Starting server", zap.String("addr", cfg.ServerAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// housekeeping prunes idle rate-limit buckets and, when a retention is set,
// exchanges older than it.
func housekeeping(ctx context.Context, limiter *api.RateLimiter, database *db.Database, retention time.Duration, logger *zap.Logger) {
	purge := database != nil && retention > 0
	if limiter == nil && !purge {
		return
	}

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if limiter != nil {
				limiter.Prune(30 * time.Minute)
			}
			if purge {
				purgeExchanges(database, retention, time.Now(), logger)
			}
		}
	}
}

func purgeExchanges(database *db.Database, retention time.Duration, now time.Time, logger *zap.Logger) int64 {
	n, err := database.PurgeBefore(now.Add(-retention))
	if err != nil {
		logger.Warn("failed to purge exchanges", zap.Error(err))
		return 0
	}
	if n > 0 {
		logger.Info("purged exchanges", zap.Int64("count", n))
	}
	return n
}
