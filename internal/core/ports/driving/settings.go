package driving

import "github.com/custodia-labs/homeradar/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get builds settings from the current configuration.
	Get() (*domain.Settings, error)

	// Reload re-reads configuration and publishes a new settings value.
	Reload() (*domain.Settings, error)

	// SetLLMProvider configures the LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings

	// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
	ValidateLLMConfig() error
}
