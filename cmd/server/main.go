package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"call-coach-go/internal/analysis"
	"call-coach-go/internal/config"
	"call-coach-go/internal/database"
	"call-coach-go/internal/handlers"
	"call-coach-go/internal/ingest"
	"call-coach-go/internal/matcher"
	metricsPkg "call-coach-go/internal/metrics"
	"call-coach-go/internal/provider"
	"call-coach-go/internal/repository"
	"call-coach-go/internal/router"
	"call-coach-go/internal/scheduler"
	"call-coach-go/internal/settings"
	"call-coach-go/internal/syncer"
)

func main() {
	// Configure logging
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	logrus.Info("Starting Call Coach Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Configuration validation failed: %v", err)
	}

	// Initialize database
	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize metrics
	metrics := metricsPkg.NewMetrics(nil)

	repo := repository.New(db)
	match := matcher.New(repo)

	// Settings layer DB values over env fallbacks, so provider credentials
	// can be rotated through the API without a restart
	settingsService := settings.NewService(repo, cfg.Provider.APIKey, cfg.Provider.WebhookSecret)

	providerClient := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.Timeout, settingsService)

	llm := analysis.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.Timeout)
	analysisService := analysis.NewService(repo, llm)
	trigger := analysis.NewTrigger(analysisService, cfg.Analysis.QueueSize, cfg.Analysis.MaxRetries)

	// Calls stranded in analyzing by a previous crash can only be moved by
	// us; nothing is in flight yet, so every one of them is fair game.
	if _, err := analysis.RecoverStuckCalls(repo, trigger, 0); err != nil {
		logrus.Errorf("Failed to recover stuck calls: %v", err)
	}

	ingestService := ingest.NewService(repo, match, trigger, metrics)
	syncService := syncer.New(repo, match, ingestService, providerClient, metrics, cfg.Scheduler.LookbackHours, cfg.Scheduler.SyncLimit)

	// Initialize scheduler
	sched := scheduler.NewScheduler(&cfg.Scheduler, syncService)

	// Initialize HTTP handlers
	h := handlers.NewHandlers(db, repo, ingestService, analysisService, trigger, sched, settingsService, providerClient, metrics)

	// Setup HTTP server
	r := router.SetupRouter(h)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start scheduler
	if err := sched.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop scheduler and wait for an in-flight sync
	if err := sched.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	sched.Wait()

	// Drain the analysis queue before closing the database
	trigger.Close()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	logrus.Info("Server stopped gracefully")
}
