package driving

import "github.com/custodia-labs/docuquery/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings with defaults applied.
	Get() (*domain.Settings, error)

	// Set stores a single setting by dotted key.
	Set(key, value string) error

	// Keys returns the known setting keys in display order.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings

	// Validate checks current settings.
	Validate() error
}
