package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RichardoC/pad-agent/internal/client"
	"github.com/RichardoC/pad-agent/internal/config"
	"github.com/RichardoC/pad-agent/internal/llm"
	"github.com/RichardoC/pad-agent/internal/ui"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	addr := flag.String("addr", cfg.UIAddr, "address to serve the UI on")
	backend := flag.String("backend", cfg.BackendURL, "backend base URL, e.g. "+client.DefaultBaseURL+"; empty runs the agent in-process")
	flag.Parse()

	var (
		responder ui.Responder
		mode      string
	)
	if *backend != "" {
		c, err := client.New(*backend, nil)
		if err != nil {
			logger.Fatal("invalid backend URL", zap.Error(err), zap.String("backend", *backend))
		}
		responder, mode = c, "backend "+*backend
	} else {
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
		responder, mode = ui.InProcess{Runner: service}, "in-process"
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           ui.NewServer(responder, cfg.Catalog, mode, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down UI", zap.Error(err))
		}
	}()

	logger.Info("Starting UI", zap.String("addr", *addr), zap.String("mode", mode))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("failed to start UI", zap.Error(err))
	}
}
