package driving

import "github.com/custodia-labs/archaeologist/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings with defaults filled in.
	Get() (*domain.AppSettings, error)

	// Set writes one configuration key after validating it.
	Set(key, value string) error

	// Validate checks that the configured providers are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ConfigPath returns the location of the configuration file.
	ConfigPath() string
}
