package repository

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"call-coach-go/internal/models"
)

// LogWebhook appends one audit row for an inbound webhook attempt. Failures
// are logged but never propagated: the audit trail must not take down the
// request that produced it.
func (r *Repository) LogWebhook(entry *models.WebhookLog) {
	if err := r.db.Create(entry).Error; err != nil {
		logrus.WithError(err).Error("Failed to write webhook audit log")
	}
}

// ListWebhookLogs returns webhook audit rows, newest first, with the total
// count for pagination.
func (r *Repository) ListWebhookLogs(offset, limit int) ([]models.WebhookLog, int64, error) {
	var logs []models.WebhookLog
	var total int64

	if err := r.db.Model(&models.WebhookLog{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count webhook logs: %w", err)
	}
	if err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch webhook logs: %w", err)
	}
	return logs, total, nil
}
