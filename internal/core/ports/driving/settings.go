package driving

import "github.com/alrouf-labs/marjaa-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the current settings, applying defaults for any value
	// not present in the configuration store.
	Get() (*domain.AppSettings, error)

	// SetEmbeddingProvider configures the embedding provider.
	// An empty model selects the provider's default. The vector index
	// dimension is updated when the model's dimensions are known.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the generation provider.
	// An empty model selects the provider's default.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks that the stored configuration is internally
	// consistent, without contacting any provider.
	Validate() error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig pings the configured generation provider.
	ValidateLLMConfig() error
}
