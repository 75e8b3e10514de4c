package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talenttrack_backend/internal/adapters/storage"
	"talenttrack_backend/internal/candidates"
	"talenttrack_backend/internal/clients"
	apphttp "talenttrack_backend/internal/http"
	"talenttrack_backend/internal/http/router"
	"talenttrack_backend/internal/notification"
	"talenttrack_backend/internal/resumes"
	"talenttrack_backend/internal/scheduler"
	"talenttrack_backend/migrations"
	"talenttrack_backend/platform/config"
	"talenttrack_backend/platform/db"
	"talenttrack_backend/platform/events"
	"talenttrack_backend/platform/logger"
	"talenttrack_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	followups, closeFollowups := initFollowUpScheduler(cfg, log)
	if closeFollowups != nil {
		defer closeFollowups()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to placement events (not HTTP-facing)
	notificationModule := notification.NewModule(cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	clientsModule := clients.NewModule(pool, val, log, cfg)

	// Client contracts supply fee and guarantee terms for placements
	candidatesModule := candidates.NewModule(pool, clientsModule.Service(), followups, eventBus, val, log, cfg)

	modules := []apphttp.Module{
		clientsModule,
		candidatesModule,
	}

	if resumesModule := initResumesModule(ctx, cfg, candidatesModule, eventBus, log); resumesModule != nil {
		modules = append(modules, resumesModule)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules:  modules,
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initFollowUpScheduler builds the asynq client for guarantee follow-up
// reminders. A nil client is usable: scheduling becomes a no-op, so the
// API can run without Redis in development.
func initFollowUpScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; placement follow-up reminders disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize follow-up scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

// initResumesModule wires resume upload when MinIO is configured. Field
// extraction is layered on top when a Gemini key is present.
func initResumesModule(
	ctx context.Context,
	cfg *config.Config,
	candidatesModule *candidates.Module,
	bus events.Bus,
	log *logger.Logger,
) *resumes.Module {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; resume uploads disabled")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure resumes bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, cfg.GetMinioBucketResumes())
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketResumes())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "resumesBucket", cfg.GetMinioBucketResumes())

	var extractor resumes.FieldExtractor
	if gemini, err := resumes.NewGeminiExtractor(ctx, cfg, log); err != nil {
		log.Error("failed to initialize field extractor", "error", err)
	} else if gemini != nil {
		extractor = gemini
		log.Info("resume field extraction enabled", "model", cfg.GetExtractionModel())
	}

	service := resumes.NewService(
		resumes.NewParser(),
		extractor,
		storageSvc,
		candidatesModule.Repository(),
		candidatesModule.Lifecycle(),
		bus,
		log,
		cfg,
	)
	return resumes.NewModule(service)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
