package driven

import "github.com/alrouf-labs/marjaa-cli/internal/core/domain"

// AIConfigValidator validates AI provider configurations by creating a
// service and pinging it. Used by the settings command to reject broken
// credentials at configuration time rather than at first query.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM validates a generation configuration.
	ValidateLLM(config *domain.LLMSettings) error
}
