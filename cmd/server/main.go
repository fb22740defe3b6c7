// Package main implements the entry point for the coursegen server, which
// admits, schedules and runs course generation requests against a language
// model, falling back to template content when the model cannot deliver.
package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/phrazzld/coursegen/internal/config"
	"github.com/phrazzld/coursegen/internal/platform/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("coursegen server failed: %v", err)
	}
}

// run loads configuration, builds the application and serves until ctx ends.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"journal", journalKind(cfg),
		"llm_configured", cfg.LLM.GeminiAPIKey != "")
	l.Debug("scheduler configuration",
		"concurrent_limit", cfg.Scheduler.ConcurrentLimit,
		"max_attempts", cfg.Scheduler.MaxAttempts,
		"retry_delays", cfg.Scheduler.RetryDelays)

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

func journalKind(cfg *config.Config) string {
	if cfg.Database.URL == "" {
		return "memory"
	}
	return "postgres"
}

