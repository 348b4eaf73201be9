package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/BerylCAtieno/casevia/internal/analyzer"
	"github.com/BerylCAtieno/casevia/internal/config"
	"github.com/BerylCAtieno/casevia/internal/db"
	"github.com/BerylCAtieno/casevia/internal/jobs"
	"github.com/BerylCAtieno/casevia/internal/notifier"
	"github.com/BerylCAtieno/casevia/internal/repository"
	"github.com/BerylCAtieno/casevia/internal/router"
	"github.com/BerylCAtieno/casevia/internal/services"
	"github.com/BerylCAtieno/casevia/internal/storage"
	"github.com/BerylCAtieno/casevia/internal/transcriber"
	"github.com/BerylCAtieno/casevia/internal/utils"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run migrations
	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	// Initialize database
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()
	logger.Info("Database ready", "dialect", db.DialectOf(cfg.DatabaseURL))

	var store storage.Storage
	switch cfg.StorageDriver {
	case "memory":
		logger.Warn("Using in-memory storage; uploads are lost on restart")
		store = storage.NewMemoryStorage("memory://" + cfg.S3BucketName)
	default:
		store, err = storage.NewS3Storage(ctx, cfg)
		if err != nil {
			logger.Fatal("Failed to initialize S3 storage", "error", err)
		}
	}

	locker := jobs.NewNoopLocker()
	if cfg.RedisURL != "" {
		redisLocker, closeRedis, err := jobs.NewRedisLocker(ctx, cfg.RedisURL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to redis", "error", err)
		}
		defer closeRedis()
		locker = redisLocker
	}

	if cfg.WebhookURL() != "" && cfg.WebhookSecret == "" {
		logger.Warn("PUBLIC_BASE_URL is set without WEBHOOK_SECRET; webhooks will be rejected")
	}

	jobRepo := repository.NewJobRepository(database)
	svc := services.NewService(services.Dependencies{
		Projects:      repository.NewProjectRepository(database),
		CaseStudies:   repository.NewCaseStudyRepository(database),
		Jobs:          jobRepo,
		Organizations: repository.NewOrganizationRepository(database),
		Storage:       store,
		Transcriber:   transcriber.NewAssemblyAIClient(cfg.AssemblyAIAPIKey, cfg.AssemblyAIBaseURL, logger),
		Analyzer:      analyzer.NewOpenRouterAnalyzer(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.OpenRouterBaseURL, logger),
		Notifier:      notifier.New(cfg),
		Config:        cfg,
		Logger:        logger,
	})

	// Start background jobs
	registry := jobs.NewRegistry()
	svc.RegisterJobs(registry)
	worker := jobs.NewWorker(jobRepo, registry, locker, logger, cfg.WorkerConcurrency, cfg.WorkerInterval)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Run(ctx); err != nil {
			logger.Error("Job worker stopped", "error", err)
		}
	}()

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.NewRouter(svc, cfg, logger),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn("Job worker did not stop in time")
	}

	logger.Info("Server exited")
}
