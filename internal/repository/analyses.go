package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"call-coach-go/internal/models"
)

// GetAnalysisByCallID returns the analysis for a call, or (nil, nil) when the
// call has not been scored yet.
func (r *Repository) GetAnalysisByCallID(callID string) (*models.Analysis, error) {
	var analysis models.Analysis
	result := r.db.Where("call_id = ?", callID).First(&analysis)
	if result.Error == nil {
		return &analysis, nil
	}
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, fmt.Errorf("database error fetching analysis: %w", result.Error)
}

// CreateAnalysis inserts a scoring result. The unique index on call_id is the
// backstop for the one-analysis-per-call invariant; a violation is returned
// as ErrDuplicateAnalysis.
func (r *Repository) CreateAnalysis(analysis *models.Analysis) error {
	if err := r.db.Create(analysis).Error; err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicateAnalysis
		}
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}
