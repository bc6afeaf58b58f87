package models

import "time"

// Setting keys for provider credentials managed through the settings API.
// Values stored here override the corresponding environment variables.
const (
	SettingProviderAPIKey        = "provider_api_key"
	SettingProviderWebhookSecret = "provider_webhook_secret"
	SettingProviderStatus        = "provider_connection_status"
	SettingProviderLastTested    = "provider_last_tested"
)

// Setting is one key/value system setting row.
type Setting struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Key       string    `json:"key" gorm:"column:setting_key;type:varchar(255);not null;uniqueIndex"`
	Value     string    `json:"value" gorm:"column:setting_value;type:text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Setting
func (Setting) TableName() string {
	return "system_settings"
}
