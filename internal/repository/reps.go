package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"call-coach-go/internal/models"
)

// FindActiveRepByEmail looks up a non-archived rep by email,
// case-insensitively. Returns (nil, nil) when no active rep matches.
func (r *Repository) FindActiveRepByEmail(email string) (*models.SalesRep, error) {
	var rep models.SalesRep
	result := r.db.Where("LOWER(email) = ? AND archived_at IS NULL", strings.ToLower(email)).First(&rep)
	if result.Error == nil {
		return &rep, nil
	}
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, fmt.Errorf("database error finding rep: %w", result.Error)
}

// FindActiveRepsByEmails returns all non-archived reps whose email appears in
// the given list. Emails are compared lowercase.
func (r *Repository) FindActiveRepsByEmails(emails []string) ([]models.SalesRep, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	lowered := make([]string, 0, len(emails))
	for _, e := range emails {
		lowered = append(lowered, strings.ToLower(e))
	}

	var reps []models.SalesRep
	result := r.db.Where("LOWER(email) IN ? AND archived_at IS NULL", lowered).Find(&reps)
	if result.Error != nil {
		return nil, fmt.Errorf("database error finding reps: %w", result.Error)
	}
	return reps, nil
}

// CreateRep inserts a new sales rep. Email is stored lowercase.
func (r *Repository) CreateRep(rep *models.SalesRep) error {
	rep.Email = strings.ToLower(strings.TrimSpace(rep.Email))
	if err := r.db.Create(rep).Error; err != nil {
		if isDuplicateErr(err) {
			return fmt.Errorf("rep with email %s already exists: %w", rep.Email, err)
		}
		return fmt.Errorf("failed to create rep: %w", err)
	}
	return nil
}

// GetRep fetches a rep by id.
func (r *Repository) GetRep(id string) (*models.SalesRep, error) {
	var rep models.SalesRep
	result := r.db.Where("id = ?", id).First(&rep)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch rep: %w", result.Error)
	}
	return &rep, nil
}

// UpdateRep persists changes to an existing rep.
func (r *Repository) UpdateRep(rep *models.SalesRep) error {
	rep.Email = strings.ToLower(strings.TrimSpace(rep.Email))
	if err := r.db.Save(rep).Error; err != nil {
		return fmt.Errorf("failed to update rep: %w", err)
	}
	return nil
}

// ListReps returns all reps, active first, newest first within each group.
func (r *Repository) ListReps() ([]models.SalesRep, error) {
	var reps []models.SalesRep
	if err := r.db.Order("archived_at IS NOT NULL, created_at DESC").Find(&reps).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch reps: %w", err)
	}
	return reps, nil
}

// ArchiveRep removes a rep from the pool of match targets without deleting
// its history.
func (r *Repository) ArchiveRep(id string) error {
	now := time.Now()
	result := r.db.Model(&models.SalesRep{}).Where("id = ? AND archived_at IS NULL", id).Update("archived_at", &now)
	if result.Error != nil {
		return fmt.Errorf("failed to archive rep: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RestoreRep makes an archived rep eligible for matching again.
func (r *Repository) RestoreRep(id string) error {
	result := r.db.Model(&models.SalesRep{}).Where("id = ?", id).Update("archived_at", nil)
	if result.Error != nil {
		return fmt.Errorf("failed to restore rep: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
