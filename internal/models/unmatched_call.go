package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UnmatchedCall is a recording whose participants could not be resolved to an
// active sales rep. It sits in a review queue until an operator handles it.
type UnmatchedCall struct {
	ID           string                           `json:"id" gorm:"type:varchar(36);primaryKey"`
	ExternalID   string                           `json:"external_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	Title        string                           `json:"title" gorm:"type:varchar(512)"`
	StartedAt    time.Time                        `json:"started_at"`
	Duration     int                              `json:"duration"`
	Transcript   string                           `json:"transcript" gorm:"type:text"`
	RecordingURL string                           `json:"recording_url" gorm:"type:varchar(1024)"`
	Participants datatypes.JSONSlice[Participant] `json:"participants"`
	Reviewed     bool                             `json:"reviewed" gorm:"default:false;index"`
	CreatedAt    time.Time                        `json:"created_at"`
}

// TableName specifies the table name for UnmatchedCall
func (UnmatchedCall) TableName() string {
	return "unmatched_calls"
}

func (u *UnmatchedCall) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
