package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Sentiment buckets derived from the overall score.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// CategoryScore is one scored framework category with coaching feedback.
type CategoryScore struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Analysis is the scoring result for exactly one call. The unique index on
// CallID backs the at-most-one-analysis-per-call invariant; rows are never
// mutated after creation.
type Analysis struct {
	ID             string                             `json:"id" gorm:"type:varchar(36);primaryKey"`
	CallID         string                             `json:"call_id" gorm:"type:varchar(36);not null;uniqueIndex"`
	OverallScore   int                                `json:"overall_score" gorm:"not null"`
	CategoryScores datatypes.JSONSlice[CategoryScore] `json:"category_scores"`
	Sentiment      string                             `json:"sentiment" gorm:"type:varchar(16)"`
	KeyTopics      datatypes.JSONSlice[string]        `json:"key_topics"`
	Summary        string                             `json:"summary" gorm:"type:text"`
	Strengths      string                             `json:"strengths" gorm:"type:text"`
	Improvements   string                             `json:"improvements" gorm:"type:text"`
	Model          string                             `json:"model" gorm:"type:varchar(128)"`
	TokensUsed     int                                `json:"tokens_used"`
	AnalyzedAt     time.Time                          `json:"analyzed_at"`
	CreatedAt      time.Time                          `json:"created_at"`
}

// TableName specifies the table name for Analysis
func (Analysis) TableName() string {
	return "analyses"
}

func (a *Analysis) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
