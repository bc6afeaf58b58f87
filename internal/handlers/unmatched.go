package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"call-coach-go/internal/models"
	"call-coach-go/internal/repository"
)

// GetUnmatchedCalls returns calls awaiting manual triage. Pass
// ?include_reviewed=true to see handled ones as well.
func (h *Handlers) GetUnmatchedCalls(c *gin.Context) {
	includeReviewed, _ := strconv.ParseBool(c.DefaultQuery("include_reviewed", "false"))

	calls, err := h.repo.ListUnmatchedCalls(includeReviewed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch unmatched calls",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, calls)
}

// ReviewUnmatchedCall flags an unmatched call as handled.
func (h *Handlers) ReviewUnmatchedCall(c *gin.Context) {
	if err := h.repo.MarkUnmatchedReviewed(c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "Unmatched call not found", Code: http.StatusNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to mark call reviewed", Code: http.StatusInternalServerError})
		return
	}
	c.Status(http.StatusNoContent)
}
