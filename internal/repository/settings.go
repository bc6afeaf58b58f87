package repository

import (
	"fmt"

	"gorm.io/gorm/clause"

	"call-coach-go/internal/models"
)

// GetSettings returns the stored values for the given keys. Missing keys are
// simply absent from the result map.
func (r *Repository) GetSettings(keys []string) (map[string]string, error) {
	var rows []models.Setting
	if err := r.db.Where("setting_key IN ?", keys).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// UpsertSetting stores or replaces one setting value.
func (r *Repository) UpsertSetting(key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"setting_value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", key, err)
	}
	return nil
}
