package models

import "time"

// WebhookLog is one row per inbound webhook attempt, recorded regardless of
// outcome. Append-only.
type WebhookLog struct {
	ID               uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Endpoint         string    `json:"endpoint" gorm:"type:varchar(255);not null"`
	Method           string    `json:"method" gorm:"type:varchar(16);not null"`
	ExternalID       string    `json:"external_id" gorm:"type:varchar(255);index"`
	StatusCode       int       `json:"status_code" gorm:"not null"`
	ErrorMessage     string    `json:"error_message" gorm:"type:text"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName specifies the table name for WebhookLog
func (WebhookLog) TableName() string {
	return "webhook_logs"
}
