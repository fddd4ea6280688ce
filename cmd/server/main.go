package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/yukikurage/project-management-api/internal/cache"
	"github.com/yukikurage/project-management-api/internal/clerk"
	"github.com/yukikurage/project-management-api/internal/config"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/dto"
	"github.com/yukikurage/project-management-api/internal/handlers"
	"github.com/yukikurage/project-management-api/internal/jobs"
	"github.com/yukikurage/project-management-api/internal/mailer"
	"github.com/yukikurage/project-management-api/internal/metrics"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/workflow"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogger(cfg.Logging)
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	var deduper cache.Deduper = cache.NewMemoryDeduper()
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		deduper = cache.NewRedisDeduper(rdb)
	}

	mail, err := mailer.New(cfg.Mail)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure mailer")
	}

	var (
		registry  *prometheus.Registry
		wfMetrics *metrics.Workflow
	)
	if cfg.Metrics.Enabled {
		registry = metrics.NewRegistry()
		wfMetrics = metrics.NewWorkflow(registry)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	engine := workflow.New(db, workflow.Options{
		Workers:      cfg.Workflow.Workers,
		PollInterval: cfg.Workflow.PollInterval,
		LeaseTimeout: cfg.Workflow.LeaseTimeout,
		MaxAttempts:  cfg.Workflow.MaxAttempts,
		RetryBackoff: cfg.Workflow.RetryBackoff,
		Metrics:      wfMetrics,
	})

	var aiService *services.AIService
	if cfg.OpenAI.APIKey != "" {
		aiService = services.NewAIService(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	}

	syncService := services.NewSyncService(userRepo, workspaceRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo, engine, aiService)

	notifier := jobs.NewTaskNotifier(taskRepo, mail, cfg.App.ClientURL, cfg.App.Location(), wfMetrics)
	functions := append(jobs.NewClerkSync(syncService).Functions(), notifier.Function())
	if err := engine.Register(functions...); err != nil {
		log.Fatal().Err(err).Msg("Failed to register workflow functions")
	}

	tokens, err := middleware.NewTokenVerifier(cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure token verification")
	}

	var webhookVerifier *clerk.Verifier
	if cfg.Clerk.WebhookSecret != "" {
		webhookVerifier, err = clerk.NewVerifier(cfg.Clerk.WebhookSecret, constants.WebhookTolerance)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure webhook verification")
		}
	} else {
		log.Warn().Msg("clerk.webhook_secret is not set; webhooks will be rejected")
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidators(v); err != nil {
			log.Fatal().Err(err).Msg("Failed to register validators")
		}
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	if registry != nil {
		r.Use(metrics.HTTPMiddleware(registry))
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	handlers.RegisterRoutes(r, handlers.Handlers{
		Health:    handlers.NewHealthHandler(db),
		Workspace: handlers.NewWorkspaceHandler(services.NewWorkspaceService(workspaceRepo, userRepo)),
		Project:   handlers.NewProjectHandler(services.NewProjectService(projectRepo, workspaceRepo, userRepo)),
		Task:      handlers.NewTaskHandler(taskService),
		Comment:   handlers.NewCommentHandler(services.NewCommentService(commentRepo, taskRepo, projectRepo)),
		Webhook:   handlers.NewWebhookHandler(webhookVerifier, deduper, engine),
	}, middleware.RequireAuth(tokens))

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		engine.Start(ctx)
	}()

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      middleware.CORS(cfg.Server.AllowedOrigins)(r),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	engine.Stop()
	select {
	case <-engineDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("Workflow engine did not stop before the shutdown timeout")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info().Msg("Server stopped")
}

func setupLogger(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
