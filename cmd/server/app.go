package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkpress/inkpress-api/internal/agent"
	"github.com/inkpress/inkpress-api/internal/agent/skills"
	"github.com/inkpress/inkpress-api/internal/cms"
	"github.com/inkpress/inkpress-api/internal/cms/notion"
	"github.com/inkpress/inkpress-api/internal/config"
	"github.com/inkpress/inkpress-api/internal/domain"
	"github.com/inkpress/inkpress-api/internal/imaging"
	"github.com/inkpress/inkpress-api/internal/platform/gemini"
	"github.com/inkpress/inkpress-api/internal/platform/postgres"
	"github.com/inkpress/inkpress-api/internal/service"
	"github.com/inkpress/inkpress-api/internal/service/auth"
	"github.com/inkpress/inkpress-api/internal/store"
	"github.com/inkpress/inkpress-api/internal/telemetry"
)

// application holds the shared application dependencies so wiring and
// shutdown stay in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	tenantStore  store.TenantStore
	taskStore    store.TaskStore
	taskLogStore store.TaskLogStore

	jwtService     *auth.JWTService
	tenantService  *service.TenantService
	contentService *service.ContentService

	metrics      *telemetry.Metrics
	orchestrator *agent.Orchestrator
	poller       *cms.Poller
}

// newApplication wires all dependencies from configuration to handlers.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.jwtService = auth.NewJWTService(cfg.Auth)

	app.tenantStore = postgres.NewTenantStore(db)
	app.taskStore = postgres.NewTaskStore(db)
	app.taskLogStore = postgres.NewTaskLogStore(db)

	provider, err := gemini.NewProvider(ctx, logger.With("component", "llm_provider"), cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}

	app.metrics = telemetry.New()

	var imageGenerator imaging.Generator
	var imageUploader imaging.Uploader
	if cfg.Image.Enabled {
		imageGenerator = imaging.NewOpenRouterClient(logger, cfg.Image.APIKey, cfg.Image.Model, cfg.Image.BaseURL)
		imageUploader = imaging.NewFileHostUploader(logger, cfg.Image.UploadURL)
		logger.Info("cover image generation enabled", "model", cfg.Image.Model)
	}

	notionAdapter := notion.NewAdapter(logger, notion.NewClient(logger))
	cmsFactory := cms.NewFactory()
	cmsFactory.Register(domain.CMSProviderNotion, notionAdapter)

	registry := agent.NewRegistry(logger)
	skills.RegisterAll(registry, skills.Deps{
		Logger:         logger,
		Provider:       provider,
		ImageGenerator: imageGenerator,
		ImageUploader:  imageUploader,
		ImagesEnabled:  cfg.Image.Enabled,
		CMS:            cmsFactory,
	})

	pipeline := agent.NewPipeline(registry, app.metrics)
	app.orchestrator = agent.NewOrchestrator(
		logger,
		app.taskStore,
		app.tenantStore,
		app.taskLogStore,
		pipeline,
		app.metrics,
		time.Duration(cfg.Task.RetryBaseDelaySeconds)*time.Second,
	)

	app.tenantService = service.NewTenantService(logger, app.tenantStore)
	app.contentService = service.NewContentService(
		logger,
		app.taskStore,
		app.taskLogStore,
		app.orchestrator,
		cfg.Task.MaxRetries,
	)

	app.poller = cms.NewPoller(
		logger,
		app.tenantStore,
		app.taskStore,
		cmsFactory,
		app.orchestrator,
		cfg.Notion.PollSchedule,
		cfg.Task.MaxRetries,
	)

	logger.Info("application initialized")
	return app, nil
}

// Run resumes interrupted tasks, starts the poller and serves HTTP until a
// shutdown signal arrives.
func (app *application) Run(ctx context.Context) error {
	if err := app.orchestrator.ResumePending(ctx); err != nil {
		app.logger.Error("failed to resume pending tasks", "error", err)
	}

	if app.config.Notion.PollingEnabled {
		if err := app.poller.Start(); err != nil {
			return fmt.Errorf("start CMS poller: %w", err)
		}
		app.logger.Info("CMS trigger polling started", "schedule", app.config.Notion.PollSchedule)
	}

	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup stops background work, draining in-flight tasks before returning.
func (app *application) cleanup() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if app.config.Notion.PollingEnabled {
		if err := app.poller.Stop(shutdownCtx); err != nil {
			app.logger.Error("poller shutdown failed", "error", err)
		}
	}

	if err := app.orchestrator.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("orchestrator shutdown failed", "error", err)
	}

	app.logger.Info("application shutdown completed")
}
