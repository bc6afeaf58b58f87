package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"call-coach-go/internal/analysis"
	"call-coach-go/internal/models"
)

type analyzeRequest struct {
	CallID string `json:"callId" binding:"required"`
}

// TriggerAnalysis scores one call synchronously. A call that was already
// analyzed returns the stored result without spending another LLM request.
func (h *Handlers) TriggerAnalysis(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "callId is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	result, err := h.analysis.Analyze(c.Request.Context(), req.CallID)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrCallNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "Call not found", Code: http.StatusNotFound})
		case errors.Is(err, analysis.ErrInsufficientTranscript):
			h.metrics.AnalysisFailures.Inc()
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: "insufficient_transcript", Message: "Transcript is too short to analyze", Code: http.StatusUnprocessableEntity})
		case errors.Is(err, analysis.ErrInvalidModelOutput):
			h.metrics.AnalysisFailures.Inc()
			c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "invalid_model_output", Message: "Model returned an unusable result", Code: http.StatusBadGateway})
		default:
			h.metrics.AnalysisFailures.Inc()
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "analysis_error", Message: "Failed to analyze call", Code: http.StatusInternalServerError})
		}
		return
	}

	h.metrics.AnalysisSuccesses.Inc()
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"score":      result.OverallScore,
		"analysisId": result.ID,
		"analysis":   result,
	})
}

// RecoverStuckCalls resets calls abandoned mid-scoring back to pending and
// re-enqueues them. `minutes` overrides how old a call must be to count as
// stuck; 0 recovers every analyzing call.
func (h *Handlers) RecoverStuckCalls(c *gin.Context) {
	olderThan := analysis.DefaultStuckThreshold
	if raw := c.Query("minutes"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes < 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: "minutes must be a non-negative integer",
				Code:    http.StatusBadRequest,
			})
			return
		}
		olderThan = time.Duration(minutes) * time.Minute
	}

	recovered, err := analysis.RecoverStuckCalls(h.repo, h.trigger, olderThan)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "recovery_error",
			Message: "Failed to recover stuck calls",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "recovered": recovered})
}
