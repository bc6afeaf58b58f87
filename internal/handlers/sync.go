package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"call-coach-go/internal/models"
)

// RunSync triggers one provider sync immediately. ?hours=N overrides the
// sync watermark with an explicit lookback window.
func (h *Handlers) RunSync(c *gin.Context) {
	hours, err := strconv.Atoi(c.DefaultQuery("hours", "0"))
	if err != nil || hours < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "hours must be a non-negative integer",
			Code:    http.StatusBadRequest,
		})
		return
	}

	result, err := h.scheduler.RunOnce(hours)
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "sync_error",
			Message: err.Error(),
			Code:    http.StatusBadGateway,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// StartScheduler starts the periodic sync
func (h *Handlers) StartScheduler(c *gin.Context) {
	if err := h.scheduler.Start(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusOK)
}

// StopScheduler stops the periodic sync
func (h *Handlers) StopScheduler(c *gin.Context) {
	if err := h.scheduler.Stop(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusOK)
}

// GetSchedulerStatus returns scheduler status
func (h *Handlers) GetSchedulerStatus(c *gin.Context) {
	status := "stopped"
	if h.scheduler.IsRunning() {
		status = "running"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"next_run": h.scheduler.GetNextRun(),
		"last_run": h.scheduler.GetLastRun(),
	})
}
