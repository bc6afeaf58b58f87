package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"call-coach-go/internal/models"
)

// CallExists reports whether a call with the given external recording id has
// already been ingested. The answer is advisory only: a concurrent request
// can still insert between this check and ours, so CreateCall remains the
// source of truth via the unique index on external_id.
func (r *Repository) CallExists(externalID string) (bool, error) {
	var call models.Call
	result := r.db.Select("id").Where("external_id = ?", externalID).First(&call)
	if result.Error == nil {
		return true, nil
	}
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("database error checking call existence: %w", result.Error)
}

// CreateCall inserts a new call row. A unique violation on external_id is
// returned as ErrDuplicateCall.
func (r *Repository) CreateCall(call *models.Call) error {
	if err := r.db.Create(call).Error; err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicateCall
		}
		return fmt.Errorf("failed to create call: %w", err)
	}
	return nil
}

// GetCall fetches a call by id with its rep preloaded.
func (r *Repository) GetCall(id string) (*models.Call, error) {
	var call models.Call
	result := r.db.Preload("Rep").Preload("Analysis").Where("id = ?", id).First(&call)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch call: %w", result.Error)
	}
	return &call, nil
}

// GetCallByExternalID fetches a call by its provider recording id.
func (r *Repository) GetCallByExternalID(externalID string) (*models.Call, error) {
	var call models.Call
	result := r.db.Where("external_id = ?", externalID).First(&call)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch call: %w", result.Error)
	}
	return &call, nil
}

// UpdateCallStatus transitions a call's processing status.
func (r *Repository) UpdateCallStatus(id, status string) error {
	result := r.db.Model(&models.Call{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update call status: %w", result.Error)
	}
	return nil
}

// FindStuckAnalyzingCalls returns calls that entered analyzing before the
// cutoff and never reached a terminal status, e.g. because the process died
// mid-scoring.
func (r *Repository) FindStuckAnalyzingCalls(before time.Time) ([]models.Call, error) {
	var calls []models.Call
	if err := r.db.Where("status = ? AND updated_at < ?", models.CallStatusAnalyzing, before).
		Find(&calls).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch stuck calls: %w", err)
	}
	return calls, nil
}

// BackfillCallTeam sets the team label on an existing call that has none.
func (r *Repository) BackfillCallTeam(id, team string) error {
	result := r.db.Model(&models.Call{}).
		Where("id = ? AND (team IS NULL OR team = '')", id).
		Update("team", team)
	if result.Error != nil {
		return fmt.Errorf("failed to backfill call team: %w", result.Error)
	}
	return nil
}

// ListCalls returns calls ordered by start time, newest first, with the
// total count for pagination.
func (r *Repository) ListCalls(offset, limit int) ([]models.Call, int64, error) {
	var calls []models.Call
	var total int64

	if err := r.db.Model(&models.Call{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count calls: %w", err)
	}
	if err := r.db.Preload("Rep").Preload("Analysis").
		Order("started_at DESC").Offset(offset).Limit(limit).Find(&calls).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch calls: %w", err)
	}
	return calls, total, nil
}

// LastSyncTime returns the most recent synced_at across all calls. The
// second return is false when no call has been synced yet.
func (r *Repository) LastSyncTime() (time.Time, bool, error) {
	var call models.Call
	result := r.db.Order("synced_at DESC").Select("synced_at").First(&call)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if result.Error != nil {
		return time.Time{}, false, fmt.Errorf("failed to fetch last sync time: %w", result.Error)
	}
	return call.SyncedAt, true, nil
}

// CreateUnmatchedCall adds a call to the manual review queue.
func (r *Repository) CreateUnmatchedCall(call *models.UnmatchedCall) error {
	if err := r.db.Create(call).Error; err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicateCall
		}
		return fmt.Errorf("failed to create unmatched call: %w", err)
	}
	return nil
}

// ListUnmatchedCalls returns unreviewed calls awaiting manual triage.
func (r *Repository) ListUnmatchedCalls(includeReviewed bool) ([]models.UnmatchedCall, error) {
	var calls []models.UnmatchedCall
	query := r.db.Order("created_at DESC")
	if !includeReviewed {
		query = query.Where("reviewed = ?", false)
	}
	if err := query.Find(&calls).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch unmatched calls: %w", err)
	}
	return calls, nil
}

// MarkUnmatchedReviewed flags an unmatched call as handled.
func (r *Repository) MarkUnmatchedReviewed(id string) error {
	result := r.db.Model(&models.UnmatchedCall{}).Where("id = ?", id).Update("reviewed", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark unmatched call reviewed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
