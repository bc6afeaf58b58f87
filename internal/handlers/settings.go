package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"call-coach-go/internal/models"
	"call-coach-go/internal/settings"
)

// GetSettings returns the current settings with credentials masked.
func (h *Handlers) GetSettings(c *gin.Context) {
	view, err := h.settings.Get()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to load settings",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateSettings stores new provider credentials. Omitted fields are left
// untouched; changes take effect on the next request without a restart.
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var update settings.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if update.ProviderAPIKey == nil && update.WebhookSecret == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "No settings provided",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if err := h.settings.Apply(&update); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to save settings",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	view, err := h.settings.Get()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Settings saved but could not be reloaded",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, view)
}

// TestConnection checks the stored provider credential against the live API
// and records the outcome.
func (h *Handlers) TestConnection(c *gin.Context) {
	err := h.provider.TestConnection(c.Request.Context())
	if recordErr := h.settings.RecordConnectionStatus(err == nil); recordErr != nil {
		logrus.WithError(recordErr).Error("Failed to record connection test outcome")
	}

	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
