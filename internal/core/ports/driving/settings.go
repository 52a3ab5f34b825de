package driving

import "github.com/just-ask-ai/justask/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Set stores a single dot-notation setting after validating it.
	Set(key, value string) error

	// Keys lists every recognised setting key.
	Keys() []string

	// Validate checks the current settings for inconsistencies.
	Validate() error
}
