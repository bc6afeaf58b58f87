// Package settings layers database-stored configuration over environment
// fallbacks. Values written through the API take effect without a restart;
// reads go through a short-lived cache so hot paths do not hit the database
// per request.
package settings

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"call-coach-go/internal/models"
)

// cacheTTL bounds how stale a cached settings read may be.
const cacheTTL = 30 * time.Second

var managedKeys = []string{
	models.SettingProviderAPIKey,
	models.SettingProviderWebhookSecret,
	models.SettingProviderStatus,
	models.SettingProviderLastTested,
}

// Store is the persistence contract the settings service needs.
type Store interface {
	GetSettings(keys []string) (map[string]string, error)
	UpsertSetting(key, value string) error
}

// View is the read model returned to the API. Credentials are masked.
type View struct {
	ProviderAPIKey       string `json:"provider_api_key"`
	WebhookSecret        string `json:"webhook_secret"`
	ConnectionStatus     string `json:"connection_status"`
	LastTested           string `json:"last_tested,omitempty"`
	APIKeyConfigured     bool   `json:"api_key_configured"`
	WebhookSecretEnvOnly bool   `json:"webhook_secret_env_only"`
}

// Update carries settings writes. Nil fields are left untouched.
type Update struct {
	ProviderAPIKey *string `json:"provider_api_key"`
	WebhookSecret  *string `json:"webhook_secret"`
}

// Service resolves settings with database values winning over environment
// fallbacks.
type Service struct {
	store     Store
	envAPIKey string
	envSecret string
	now       func() time.Time

	mu        sync.Mutex
	cache     map[string]string
	expiresAt time.Time
}

// NewService creates the settings service. Environment values act as
// fallbacks when no database row exists for a key.
func NewService(store Store, envAPIKey, envWebhookSecret string) *Service {
	return &Service{
		store:     store,
		envAPIKey: envAPIKey,
		envSecret: envWebhookSecret,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ProviderAPIKey returns the effective provider API key, database value
// first, environment fallback second.
func (s *Service) ProviderAPIKey() (string, error) {
	values, err := s.load()
	if err != nil {
		return "", err
	}
	if key := values[models.SettingProviderAPIKey]; key != "" {
		return key, nil
	}
	return s.envAPIKey, nil
}

// WebhookSecret returns the effective webhook signing secret.
func (s *Service) WebhookSecret() (string, error) {
	values, err := s.load()
	if err != nil {
		return "", err
	}
	if secret := values[models.SettingProviderWebhookSecret]; secret != "" {
		return secret, nil
	}
	return s.envSecret, nil
}

// Get returns the masked settings view for the API.
func (s *Service) Get() (*View, error) {
	values, err := s.load()
	if err != nil {
		return nil, err
	}

	apiKey := values[models.SettingProviderAPIKey]
	if apiKey == "" {
		apiKey = s.envAPIKey
	}
	secret := values[models.SettingProviderWebhookSecret]
	secretFromEnv := secret == ""
	if secretFromEnv {
		secret = s.envSecret
	}

	status := values[models.SettingProviderStatus]
	if status == "" {
		status = "untested"
	}

	return &View{
		ProviderAPIKey:       Mask(apiKey),
		WebhookSecret:        Mask(secret),
		ConnectionStatus:     status,
		LastTested:           values[models.SettingProviderLastTested],
		APIKeyConfigured:     apiKey != "",
		WebhookSecretEnvOnly: secretFromEnv && s.envSecret != "",
	}, nil
}

// Apply persists the non-nil fields of an update and invalidates the cache,
// so the new credentials are used on the next read.
func (s *Service) Apply(u *Update) error {
	if u.ProviderAPIKey != nil {
		value := strings.TrimSpace(*u.ProviderAPIKey)
		if err := s.store.UpsertSetting(models.SettingProviderAPIKey, value); err != nil {
			return err
		}
		logrus.Info("Provider API key updated")
	}
	if u.WebhookSecret != nil {
		value := strings.TrimSpace(*u.WebhookSecret)
		if err := s.store.UpsertSetting(models.SettingProviderWebhookSecret, value); err != nil {
			return err
		}
		logrus.Info("Provider webhook secret updated")
	}

	s.Invalidate()
	return nil
}

// RecordConnectionStatus stores the outcome of a credential test.
func (s *Service) RecordConnectionStatus(ok bool) error {
	status := "connected"
	if !ok {
		status = "error"
	}
	if err := s.store.UpsertSetting(models.SettingProviderStatus, status); err != nil {
		return err
	}
	if err := s.store.UpsertSetting(models.SettingProviderLastTested, s.now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// Invalidate drops the cached settings snapshot.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
	s.expiresAt = time.Time{}
}

func (s *Service) load() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil && s.now().Before(s.expiresAt) {
		return s.cache, nil
	}

	values, err := s.store.GetSettings(managedKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	s.cache = values
	s.expiresAt = s.now().Add(cacheTTL)
	return values, nil
}

// Mask hides all but the last four characters of a credential.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", 8) + value[len(value)-4:]
}
