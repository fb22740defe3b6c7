package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/coursegen/internal/admission"
	"github.com/phrazzld/coursegen/internal/config"
	"github.com/phrazzld/coursegen/internal/events"
	"github.com/phrazzld/coursegen/internal/generation"
	"github.com/phrazzld/coursegen/internal/metrics"
	"github.com/phrazzld/coursegen/internal/observability"
	"github.com/phrazzld/coursegen/internal/platform/gemini"
	"github.com/phrazzld/coursegen/internal/platform/postgres"
	"github.com/phrazzld/coursegen/internal/quality"
	"github.com/phrazzld/coursegen/internal/service"
	"github.com/phrazzld/coursegen/internal/service/auth"
	"github.com/phrazzld/coursegen/internal/store"
	"github.com/phrazzld/coursegen/internal/task"
)

// application holds the shared dependencies so they can be wired once and
// shut down in order.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	registry *prometheus.Registry

	jwtService        auth.JWTService
	generator         generation.Generator
	controller        *admission.Controller
	scheduler         *task.Scheduler
	generationService service.GenerationService
	recorder          *quality.Recorder

	shutdownTracing func(context.Context) error
}

// newApplication wires every component. A database is opened only when a
// URL is configured, and the Gemini generator only when an API key is.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var err error
	app.shutdownTracing, err = observability.InitTracing(ctx, observability.Config{
		Exporter:    cfg.Tracing.Exporter,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	var journal store.OutcomeStore
	if cfg.Database.URL != "" {
		app.db, err = setupAppDatabase(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		journal = postgres.NewOutcomeStore(app.db, logger)
	} else {
		journal = quality.NewMemoryStore(quality.DefaultMemoryCapacity)
		logger.Info("no database configured, outcome journal kept in memory",
			"capacity", quality.DefaultMemoryCapacity)
	}
	app.recorder = quality.NewRecorder(journal, logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(app.recorder)

	if cfg.LLM.GeminiAPIKey != "" {
		app.generator, err = gemini.NewGenerator(ctx, logger.With("component", "llm_generator"), cfg.LLM)
		if err != nil {
			app.cleanup(context.Background())
			return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
		}
		logger.Info("LLM generator initialized", "model", cfg.LLM.ModelName)
	} else {
		app.generator = generation.Offline{}
		logger.Warn("no Gemini API key configured, all requests will receive fallback content")
	}

	app.controller = admission.NewController(
		admissionConfig(cfg.Admission),
		logger,
		admission.WithMetrics(metrics.NewAdmission(app.registry)),
	)

	app.scheduler = task.NewScheduler(
		app.generator,
		schedulerConfig(cfg.Scheduler),
		logger,
		task.WithEmitter(emitter),
		task.WithMetrics(metrics.NewScheduler(app.registry)),
	)
	if err := app.scheduler.Start(); err != nil {
		app.cleanup(context.Background())
		return nil, fmt.Errorf("failed to start task scheduler: %w", err)
	}

	app.generationService, err = service.NewGenerationService(app.controller, app.scheduler, logger)
	if err != nil {
		app.cleanup(context.Background())
		return nil, fmt.Errorf("failed to create generation service: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

func admissionConfig(c config.AdmissionConfig) admission.Config {
	cfg := admission.DefaultConfig()
	cfg.MaxConcurrentGlobal = c.MaxConcurrentGlobal
	cfg.MinConcurrentGlobal = c.MinConcurrentGlobal
	cfg.MaxConcurrentGlobalCeiling = c.MaxConcurrentGlobalCeiling
	cfg.MaxConcurrentPerSubmitter = c.MaxConcurrentPerSubmitter
	cfg.MaxRetries = c.MaxRetries
	cfg.AverageProcessingTime = c.AverageProcessingTime
	cfg.StaleAfter = c.StaleAfter
	cfg.AdjustInterval = c.AdjustInterval
	cfg.CleanupInterval = c.CleanupInterval
	return cfg
}

func schedulerConfig(c config.SchedulerConfig) task.SchedulerConfig {
	return task.SchedulerConfig{
		ConcurrentLimit:         c.ConcurrentLimit,
		MaxInFlightPerSubmitter: c.MaxInFlightPerSubmitter,
		MaxAttempts:             c.MaxAttempts,
		RetryDelays:             c.RetryDelays,
		AttemptTimeout:          c.AttemptTimeout,
	}
}

// Run serves HTTP and runs admission maintenance until ctx ends, then shuts
// everything down.
func (app *application) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.controller.Run(gctx)
	})

	g.Go(func() error {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	app.cleanup(context.Background())
	return err
}

// cleanup stops the scheduler, which resolves queued tasks with fallback
// content, then flushes traces and closes the database.
func (app *application) cleanup(ctx context.Context) {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.shutdownTracing != nil {
		if err := app.shutdownTracing(ctx); err != nil {
			app.logger.Error("error shutting down tracing", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
