package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the generation model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the generation provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings holds chunker configuration.
type ChunkingSettings struct {
	// MaxChunkSize is the upper bound on chunk length in bytes.
	// Never exceeded: the chunker hard-cuts when no natural boundary fits.
	MaxChunkSize int

	// MinChunkSize is the lower bound on chunk length in bytes.
	// Only a document's final chunk may be shorter.
	MinChunkSize int

	// Overlap is the number of bytes consecutive chunks share.
	Overlap int
}

// RetrievalSettings holds query-path configuration.
type RetrievalSettings struct {
	// TopK is the maximum number of chunks retrieved per query.
	TopK int

	// MinSimilarity is the score threshold below which chunks are dropped.
	// A query whose best hit falls below this yields no relevant context.
	MinSimilarity float64

	// MaxContextChars bounds the assembled context size.
	MaxContextChars int

	// SameLanguageOnly restricts retrieval to chunks tagged with the
	// query's language. Off by default: embeddings are language-agnostic,
	// so an Arabic question can retrieve English source material.
	SameLanguageOnly bool

	// DefaultLanguage is the fallback when detection is inconclusive.
	DefaultLanguage Language
}

// IngestSettings holds ingestion-path configuration.
type IngestSettings struct {
	// Workers is the number of parallel document workers.
	Workers int

	// EmbedBatchSize is the number of chunks embedded per request batch.
	EmbedBatchSize int

	// EmbedMaxAttempts bounds embedding retries per batch.
	EmbedMaxAttempts int

	// EmbedRetryBaseDelay is the first retry delay; doubles per attempt.
	EmbedRetryBaseDelay time.Duration

	// EmbedRequestsPerSecond rate-limits outbound embedding calls.
	EmbedRequestsPerSecond float64
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Dimensions is the fixed embedding vector size for the index.
	Dimensions int

	// Metric is the similarity metric, fixed at index creation.
	Metric SimilarityMetric

	// Path is the snapshot file location for the flat index.
	Path string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds generation provider settings.
	LLM LLMSettings

	// Chunking holds chunker settings.
	Chunking ChunkingSettings

	// Retrieval holds query-path settings.
	Retrieval RetrievalSettings

	// Ingest holds ingestion-path settings.
	Ingest IngestSettings

	// VectorIndex holds vector index settings.
	VectorIndex VectorIndexSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The defaults mirror the original knowledge-base configuration:
// 1000-byte chunks with 200-byte overlap, top-3 retrieval.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    "nomic-embed-text",
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    "llama3",
		},
		Chunking: ChunkingSettings{
			MaxChunkSize: 1000,
			MinChunkSize: 200,
			Overlap:      200,
		},
		Retrieval: RetrievalSettings{
			TopK:             3,
			MinSimilarity:    0.25,
			MaxContextChars:  4000,
			SameLanguageOnly: false,
			DefaultLanguage:  LanguageEnglish,
		},
		Ingest: IngestSettings{
			Workers:                4,
			EmbedBatchSize:         16,
			EmbedMaxAttempts:       3,
			EmbedRetryBaseDelay:    500 * time.Millisecond,
			EmbedRequestsPerSecond: 8,
		},
		VectorIndex: VectorIndexSettings{
			Dimensions: 768, // nomic-embed-text default
			Metric:     MetricCosine,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultLLMModels returns default models for each generation provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llama3",
		AIProviderOpenAI: "gpt-4o-mini",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
	}
}
