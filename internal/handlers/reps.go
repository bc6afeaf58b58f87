package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"call-coach-go/internal/models"
	"call-coach-go/internal/repository"
)

// GetReps returns all sales reps, active first.
func (h *Handlers) GetReps(c *gin.Context) {
	reps, err := h.repo.ListReps()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch reps",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, reps)
}

// CreateRep creates a new sales rep
func (h *Handlers) CreateRep(c *gin.Context) {
	var req models.SalesRepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	rep := models.SalesRep{
		Name:  strings.TrimSpace(req.Name),
		Email: req.Email,
		Teams: datatypes.NewJSONSlice(req.Teams),
	}
	if err := h.repo.CreateRep(&rep); err != nil {
		status := http.StatusInternalServerError
		label := "database_error"
		if strings.Contains(err.Error(), "already exists") {
			status = http.StatusConflict
			label = "duplicate_email"
		}
		c.JSON(status, models.ErrorResponse{Error: label, Message: err.Error(), Code: status})
		return
	}

	c.JSON(http.StatusCreated, rep)
}

// GetRep returns a single rep by ID
func (h *Handlers) GetRep(c *gin.Context) {
	rep, err := h.repo.GetRep(c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "Rep not found", Code: http.StatusNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to fetch rep", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// UpdateRep updates an existing rep
func (h *Handlers) UpdateRep(c *gin.Context) {
	rep, err := h.repo.GetRep(c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "Rep not found", Code: http.StatusNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to fetch rep", Code: http.StatusInternalServerError})
		return
	}

	var req models.SalesRepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation_error", Message: "Invalid request body", Code: http.StatusBadRequest})
		return
	}

	rep.Name = strings.TrimSpace(req.Name)
	rep.Email = req.Email
	rep.Teams = datatypes.NewJSONSlice(req.Teams)

	if err := h.repo.UpdateRep(rep); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to update rep", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// ArchiveRep removes a rep from matching without deleting its call history.
func (h *Handlers) ArchiveRep(c *gin.Context) {
	if err := h.repo.ArchiveRep(c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "Rep not found or already archived", Code: http.StatusNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to archive rep", Code: http.StatusInternalServerError})
		return
	}
	c.Status(http.StatusNoContent)
}

// RestoreRep makes an archived rep matchable again.
func (h *Handlers) RestoreRep(c *gin.Context) {
	if err := h.repo.RestoreRep(c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "Rep not found", Code: http.StatusNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to restore rep", Code: http.StatusInternalServerError})
		return
	}
	c.Status(http.StatusNoContent)
}
