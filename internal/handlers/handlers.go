// Package handlers exposes the HTTP API: webhook ingestion, call and rep
// management, manual sync and analysis triggers, settings, and health.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"call-coach-go/internal/analysis"
	"call-coach-go/internal/ingest"
	metricsPkg "call-coach-go/internal/metrics"
	"call-coach-go/internal/models"
	"call-coach-go/internal/provider"
	"call-coach-go/internal/repository"
	"call-coach-go/internal/scheduler"
	"call-coach-go/internal/settings"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db        *gorm.DB
	repo      *repository.Repository
	ingest    *ingest.Service
	analysis  *analysis.Service
	trigger   ingest.Enqueuer
	scheduler *scheduler.Scheduler
	settings  *settings.Service
	provider  *provider.Client
	metrics   *metricsPkg.Metrics
}

// NewHandlers creates new HTTP handlers
func NewHandlers(
	db *gorm.DB,
	repo *repository.Repository,
	ing *ingest.Service,
	analysisService *analysis.Service,
	trigger ingest.Enqueuer,
	sched *scheduler.Scheduler,
	settingsService *settings.Service,
	providerClient *provider.Client,
	metrics *metricsPkg.Metrics,
) *Handlers {
	return &Handlers{
		db:        db,
		repo:      repo,
		ingest:    ing,
		analysis:  analysisService,
		trigger:   trigger,
		scheduler: sched,
		settings:  settingsService,
		provider:  providerClient,
		metrics:   metrics,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/webhook/provider", h.HandleWebhook)
		api.GET("/webhook/provider", h.WebhookStatus)

		api.GET("/calls", h.GetCalls)
		api.GET("/calls/:id", h.GetCall)
		api.POST("/calls/recover", h.RecoverStuckCalls)

		api.POST("/analyze", h.TriggerAnalysis)

		api.GET("/reps", h.GetReps)
		api.POST("/reps", h.CreateRep)
		api.GET("/reps/:id", h.GetRep)
		api.PUT("/reps/:id", h.UpdateRep)
		api.PATCH("/reps/:id/archive", h.ArchiveRep)
		api.PATCH("/reps/:id/restore", h.RestoreRep)

		api.GET("/unmatched-calls", h.GetUnmatchedCalls)
		api.PATCH("/unmatched-calls/:id/review", h.ReviewUnmatchedCall)

		api.GET("/webhook-logs", h.GetWebhookLogs)

		api.POST("/sync", h.RunSync)

		api.GET("/settings", h.GetSettings)
		api.PUT("/settings", h.UpdateSettings)
		api.POST("/settings/test-connection", h.TestConnection)

		api.POST("/scheduler/start", h.StartScheduler)
		api.POST("/scheduler/stop", h.StopScheduler)
		api.GET("/scheduler/status", h.GetSchedulerStatus)
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := models.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  "ok",
		Details:   make(map[string]string),
	}

	if err := h.db.Raw("SELECT 1").Error; err != nil {
		response.Status = "error"
		response.Database = "error"
		logrus.Errorf("Database health check failed: %v", err)
	}

	if h.scheduler.IsRunning() {
		response.Details["scheduler"] = "running"
		response.Details["next_run"] = h.scheduler.GetNextRun().Format(time.RFC3339)
	} else {
		response.Details["scheduler"] = "stopped"
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
