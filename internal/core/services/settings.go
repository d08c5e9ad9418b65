package services

import (
	"fmt"
	"time"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driven"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// SettingsService manages application settings backed by a ConfigStore.
// Settings not present in the store fall back to defaults, so a fresh
// installation works without any configuration step.
type SettingsService struct {
	config    driven.ConfigStore
	validator driven.AIConfigValidator
}

// NewSettingsService creates a settings service.
// The validator may be nil; provider validation is then skipped.
func NewSettingsService(config driven.ConfigStore, validator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		config:    config,
		validator: validator,
	}
}

// Get returns the current settings with defaults applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()

	if v := s.config.GetString("embedding.provider"); v != "" {
		settings.Embedding.Provider = domain.AIProvider(v)
	}
	if v := s.config.GetString("embedding.model"); v != "" {
		settings.Embedding.Model = v
	}
	settings.Embedding.BaseURL = s.config.GetString("embedding.base_url")
	settings.Embedding.APIKey = s.config.GetString("embedding.api_key")

	if v := s.config.GetString("llm.provider"); v != "" {
		settings.LLM.Provider = domain.AIProvider(v)
	}
	if v := s.config.GetString("llm.model"); v != "" {
		settings.LLM.Model = v
	}
	settings.LLM.BaseURL = s.config.GetString("llm.base_url")
	settings.LLM.APIKey = s.config.GetString("llm.api_key")

	if v := s.config.GetInt("chunking.max_chunk_size"); v > 0 {
		settings.Chunking.MaxChunkSize = v
	}
	if v := s.config.GetInt("chunking.min_chunk_size"); v > 0 {
		settings.Chunking.MinChunkSize = v
	}
	if v, ok := s.config.Get("chunking.overlap"); ok {
		if overlap, isInt := toInt(v); isInt && overlap >= 0 {
			settings.Chunking.Overlap = overlap
		}
	}

	if v := s.config.GetInt("retrieval.top_k"); v > 0 {
		settings.Retrieval.TopK = v
	}
	if v := s.config.GetFloat("retrieval.min_similarity"); v > 0 {
		settings.Retrieval.MinSimilarity = v
	}
	if v := s.config.GetInt("retrieval.max_context_chars"); v > 0 {
		settings.Retrieval.MaxContextChars = v
	}
	settings.Retrieval.SameLanguageOnly = s.config.GetBool("retrieval.same_language_only")
	if v := s.config.GetString("retrieval.default_language"); v != "" {
		settings.Retrieval.DefaultLanguage = domain.Language(v)
	}

	if v := s.config.GetInt("ingest.workers"); v > 0 {
		settings.Ingest.Workers = v
	}
	if v := s.config.GetInt("ingest.embed_batch_size"); v > 0 {
		settings.Ingest.EmbedBatchSize = v
	}
	if v := s.config.GetInt("ingest.embed_max_attempts"); v > 0 {
		settings.Ingest.EmbedMaxAttempts = v
	}
	if v := s.config.GetInt("ingest.embed_retry_base_delay_ms"); v > 0 {
		settings.Ingest.EmbedRetryBaseDelay = time.Duration(v) * time.Millisecond
	}
	if v := s.config.GetFloat("ingest.embed_requests_per_second"); v > 0 {
		settings.Ingest.EmbedRequestsPerSecond = v
	}

	if v := s.config.GetInt("vector_index.dimensions"); v > 0 {
		settings.VectorIndex.Dimensions = v
	}
	if v := s.config.GetString("vector_index.metric"); v != "" {
		settings.VectorIndex.Metric = domain.SimilarityMetric(v)
	}
	settings.VectorIndex.Path = s.config.GetString("vector_index.path")

	return &settings, nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, provider)
	}
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: provider %s requires an API key", domain.ErrInvalidInput, provider)
	}

	if err := s.config.Set("embedding.provider", provider.String()); err != nil {
		return fmt.Errorf("failed to save embedding provider: %w", err)
	}
	if err := s.config.Set("embedding.model", model); err != nil {
		return fmt.Errorf("failed to save embedding model: %w", err)
	}
	if apiKey != "" {
		if err := s.config.Set("embedding.api_key", apiKey); err != nil {
			return fmt.Errorf("failed to save embedding API key: %w", err)
		}
	}

	// Keep the index dimension in step with the model where known.
	// A dimension change requires re-ingestion; the index rejects
	// mismatched vectors rather than silently mixing spaces.
	if dims, ok := domain.EmbeddingDimensions()[model]; ok {
		if err := s.config.Set("vector_index.dimensions", dims); err != nil {
			return fmt.Errorf("failed to save index dimensions: %w", err)
		}
	}

	return nil
}

// SetLLMProvider configures the generation provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: unknown LLM provider %q", domain.ErrInvalidInput, provider)
	}
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: provider %s requires an API key", domain.ErrInvalidInput, provider)
	}

	if err := s.config.Set("llm.provider", provider.String()); err != nil {
		return fmt.Errorf("failed to save LLM provider: %w", err)
	}
	if err := s.config.Set("llm.model", model); err != nil {
		return fmt.Errorf("failed to save LLM model: %w", err)
	}
	if apiKey != "" {
		if err := s.config.Set("llm.api_key", apiKey); err != nil {
			return fmt.Errorf("failed to save LLM API key: %w", err)
		}
	}

	return nil
}

// Validate checks the stored configuration without contacting providers.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q",
			domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	if !settings.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown LLM provider %q",
			domain.ErrInvalidInput, settings.LLM.Provider)
	}
	if settings.Embedding.Provider.RequiresAPIKey() && settings.Embedding.APIKey == "" {
		return fmt.Errorf("%w: embedding provider %s requires an API key",
			domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	if settings.LLM.Provider.RequiresAPIKey() && settings.LLM.APIKey == "" {
		return fmt.Errorf("%w: LLM provider %s requires an API key",
			domain.ErrInvalidInput, settings.LLM.Provider)
	}
	if !settings.Retrieval.DefaultLanguage.IsValid() {
		return fmt.Errorf("%w: unsupported default language %q",
			domain.ErrInvalidInput, settings.Retrieval.DefaultLanguage)
	}
	if !settings.VectorIndex.Metric.IsValid() {
		return fmt.Errorf("%w: unknown similarity metric %q",
			domain.ErrInvalidInput, settings.VectorIndex.Metric)
	}
	if dims, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok &&
		dims != settings.VectorIndex.Dimensions {
		return fmt.Errorf("%w: model %s produces %d-dimensional vectors but the index is configured for %d",
			domain.ErrInvalidInput, settings.Embedding.Model, dims, settings.VectorIndex.Dimensions)
	}

	return nil
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig pings the configured generation provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidateLLM(&settings.LLM)
}

// toInt widens TOML numeric types to int.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
