package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tpatole/rag-helper-bot/internal/api"
	"github.com/tpatole/rag-helper-bot/internal/avatar"
	"github.com/tpatole/rag-helper-bot/internal/backend"
	"github.com/tpatole/rag-helper-bot/internal/config"
	"github.com/tpatole/rag-helper-bot/internal/server"
	"github.com/tpatole/rag-helper-bot/internal/session"
	"github.com/tpatole/rag-helper-bot/internal/telemetry"
	"github.com/tpatole/rag-helper-bot/internal/tokens"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.Setup("rag-helper-bot", version, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	configPath := os.Getenv("HELPERBOT_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	answerer := backend.NewClient(cfg.Backend.BaseURL,
		backend.WithAPIKey(cfg.Backend.APIKey),
		backend.WithTimeout(cfg.Backend.RequestTimeout()),
	)
	registry := session.New(answerer, logger)
	avatars := avatar.New(cfg.Avatar.Size, logger)
	counter := tokens.NewCounter(logger)

	// HTTP requests must outlive a full backend exchange.
	srv := server.New(cfg.Server.Port, cfg.Backend.RequestTimeout()+30*time.Second, logger)
	handler := api.NewHandler(registry, avatars, counter, cfg.Profile, logger)
	handler.Register(srv.Router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
