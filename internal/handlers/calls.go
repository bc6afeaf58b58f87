package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"call-coach-go/internal/models"
	"call-coach-go/internal/repository"
)

// GetCalls returns calls newest first, paginated via ?page= and ?limit=.
func (h *Handlers) GetCalls(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	calls, total, err := h.repo.ListCalls((page-1)*limit, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch calls",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"calls": calls,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetCall returns a single call with its rep and analysis.
func (h *Handlers) GetCall(c *gin.Context) {
	call, err := h.repo.GetCall(c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "Call not found", Code: http.StatusNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to fetch call", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, call)
}
