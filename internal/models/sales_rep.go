package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SalesRep represents a sales representative eligible to own imported calls.
// Reps are archived rather than deleted; only non-archived reps are match
// targets for the ingestion pipeline.
type SalesRep struct {
	ID         string                      `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name       string                      `json:"name" gorm:"type:varchar(255);not null"`
	Email      string                      `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Teams      datatypes.JSONSlice[string] `json:"teams"`
	ArchivedAt *time.Time                  `json:"archived_at,omitempty" gorm:"index"`
	CreatedAt  time.Time                   `json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for SalesRep
func (SalesRep) TableName() string {
	return "sales_reps"
}

func (r *SalesRep) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Active reports whether the rep is a valid match target.
func (r *SalesRep) Active() bool {
	return r.ArchivedAt == nil
}

// AllowsTeam reports whether a recording tagged with the given team label may
// be imported for this rep. An empty allow-list means all teams are allowed.
func (r *SalesRep) AllowsTeam(team string) bool {
	if len(r.Teams) == 0 {
		return true
	}
	for _, t := range r.Teams {
		if t == team {
			return true
		}
	}
	return false
}
