package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Call processing status values. Transitions pending -> analyzing ->
// completed|failed are driven by the analysis service.
const (
	CallStatusPending   = "pending"
	CallStatusAnalyzing = "analyzing"
	CallStatusCompleted = "completed"
	CallStatusFailed    = "failed"
)

// Call is one imported meeting recording. ExternalID carries the provider's
// recording identifier; its unique index is what ultimately enforces
// at-most-once ingestion.
type Call struct {
	ID           string                           `json:"id" gorm:"type:varchar(36);primaryKey"`
	ExternalID   string                           `json:"external_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	RepID        string                           `json:"rep_id" gorm:"type:varchar(36);not null;index"`
	Title        string                           `json:"title" gorm:"type:varchar(512)"`
	StartedAt    time.Time                        `json:"started_at"`
	Duration     int                              `json:"duration"`
	Transcript   string                           `json:"transcript" gorm:"type:text"`
	RecordingURL string                           `json:"recording_url" gorm:"type:varchar(1024)"`
	Participants datatypes.JSONSlice[Participant] `json:"participants"`
	Team         string                           `json:"team" gorm:"type:varchar(255);index"`
	Status       string                           `json:"status" gorm:"type:varchar(32);not null;default:pending"`
	SyncedAt     time.Time                        `json:"synced_at"`
	CreatedAt    time.Time                        `json:"created_at"`
	UpdatedAt    time.Time                        `json:"updated_at"`

	// Relationships
	Rep      *SalesRep `json:"rep,omitempty" gorm:"foreignKey:RepID"`
	Analysis *Analysis `json:"analysis,omitempty" gorm:"foreignKey:CallID"`
}

// TableName specifies the table name for Call
func (Call) TableName() string {
	return "calls"
}

func (c *Call) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
