package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"call-coach-go/internal/models"
	"call-coach-go/internal/webhook"
)

const webhookEndpoint = "/api/v1/webhook/provider"

// HandleWebhook processes one inbound call-recording webhook: signature
// check, payload validation, then ingestion. Every attempt is recorded in
// the webhook audit log, including rejected ones.
func (h *Handlers) HandleWebhook(c *gin.Context) {
	start := time.Now()
	h.metrics.WebhookRequests.Inc()

	body, err := c.GetRawData()
	if err != nil {
		h.auditWebhook("", http.StatusBadRequest, "failed to read request body", start)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "read_error",
			Message: "Failed to read request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	secret, err := h.settings.WebhookSecret()
	if err != nil {
		h.auditWebhook("", http.StatusInternalServerError, err.Error(), start)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "settings_error",
			Message: "Failed to load webhook secret",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	// No secret anywhere (DB or env) is a server misconfiguration, not a bad
	// caller; without it no signature could ever validate.
	if secret == "" {
		h.auditWebhook("", http.StatusInternalServerError, "webhook secret not configured", start)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "settings_error",
			Message: "Webhook secret is not configured",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	if !webhook.VerifySignature(secret, body, c.GetHeader(webhook.SignatureHeader)) {
		h.auditWebhook("", http.StatusUnauthorized, "invalid webhook signature", start)
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_signature",
			Message: "Webhook signature verification failed",
			Code:    http.StatusUnauthorized,
		})
		return
	}

	var payload webhook.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.auditWebhook("", http.StatusBadRequest, "invalid JSON payload", start)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_json",
			Message: "Request body is not valid JSON",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if verr := webhook.ValidatePayload(&payload); verr != nil {
		h.auditWebhook(payload.CallID, http.StatusBadRequest, verr.Error(), start)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "validation_error",
			"message":        "Payload is missing required fields",
			"missing_fields": verr.MissingFields,
		})
		return
	}

	payload.Sanitize()

	// Started and failed recordings are acknowledged but carry nothing to
	// persist yet; only completed calls have a transcript.
	if payload.Event != webhook.EventCallCompleted {
		h.auditWebhook(payload.CallID, http.StatusOK, "", start)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"status": "ignored", "event": payload.Event},
		})
		return
	}

	result, err := h.ingest.IngestWebhook(&payload)
	if err != nil {
		logrus.WithError(err).WithField("external_id", payload.CallID).Error("Webhook ingestion failed")
		h.auditWebhook(payload.CallID, http.StatusInternalServerError, err.Error(), start)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "ingest_error",
			Message: "Failed to process call",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	h.metrics.IngestDuration.Observe(time.Since(start).Seconds())
	h.auditWebhook(payload.CallID, http.StatusOK, "", start)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// WebhookStatus confirms the endpoint is reachable, for provider-side checks.
func (h *Handlers) WebhookStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"endpoint":  webhookEndpoint,
	})
}

func (h *Handlers) auditWebhook(externalID string, statusCode int, errMsg string, start time.Time) {
	h.repo.LogWebhook(&models.WebhookLog{
		Endpoint:         webhookEndpoint,
		Method:           http.MethodPost,
		ExternalID:       externalID,
		StatusCode:       statusCode,
		ErrorMessage:     errMsg,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}
