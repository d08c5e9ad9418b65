// Command marjaa is the bilingual knowledge base and quotation CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/alrouf-labs/marjaa-cli/internal/adapters/driven/ai"
	"github.com/alrouf-labs/marjaa-cli/internal/adapters/driven/config/file"
	"github.com/alrouf-labs/marjaa-cli/internal/adapters/driven/storage/sqlite"
	"github.com/alrouf-labs/marjaa-cli/internal/adapters/driven/vector/flat"
	"github.com/alrouf-labs/marjaa-cli/internal/adapters/driven/vector/pgvector"
	"github.com/alrouf-labs/marjaa-cli/internal/adapters/driving/cli"
	"github.com/alrouf-labs/marjaa-cli/internal/connectors"
	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driven"
	"github.com/alrouf-labs/marjaa-cli/internal/core/services"
	"github.com/alrouf-labs/marjaa-cli/internal/normalisers"
	"github.com/alrouf-labs/marjaa-cli/internal/normalisers/markdown"
	"github.com/alrouf-labs/marjaa-cli/internal/normalisers/plaintext"
	"github.com/alrouf-labs/marjaa-cli/internal/postprocessors"
	"github.com/alrouf-labs/marjaa-cli/internal/postprocessors/chunker"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A .env file is optional; the environment wins either way.
	_ = godotenv.Load() //nolint:errcheck

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dataDir, err := marjaaDir()
	if err != nil {
		return err
	}

	configStore, err := file.NewConfigStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to open config store: %w", err)
	}

	promptStore, err := file.NewPromptStore(filepath.Join(dataDir, "prompts"))
	if err != nil {
		return fmt.Errorf("failed to open prompt store: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	defer store.Close() //nolint:errcheck

	index, err := openVectorIndex(configStore, settings.VectorIndex, dataDir)
	if err != nil {
		return fmt.Errorf("failed to open vector index: %w", err)
	}
	defer index.Close() //nolint:errcheck

	// AI services are optional at startup: commands that need them fail
	// with guidance, everything else keeps working unconfigured.
	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedding service: %w", err)
	}
	if embedder != nil {
		defer embedder.Close() //nolint:errcheck
	}
	llm, err := ai.CreateLLMService(&settings.LLM)
	if err != nil {
		return fmt.Errorf("failed to create LLM service: %w", err)
	}
	if llm != nil {
		defer llm.Close() //nolint:errcheck
	}

	registry := normalisers.NewRegistry()
	registry.Register(plaintext.New())
	registry.Register(markdown.New())

	pipeline := postprocessors.NewPipeline(chunker.New(
		chunker.WithMaxChunkSize(settings.Chunking.MaxChunkSize),
		chunker.WithMinChunkSize(settings.Chunking.MinChunkSize),
		chunker.WithOverlap(settings.Chunking.Overlap),
	))

	factory := connectors.NewFactory()
	router := services.NewRouter(settings.Retrieval.DefaultLanguage)

	cli.SetVersion(version)
	cli.SetServices(&cli.Services{
		Ingest: services.NewIngestService(
			store.SourceStore(),
			store.SyncStateStore(),
			store.DocumentStore(),
			factory,
			registry,
			pipeline,
			index,
			embedder,
			settings.Ingest,
		),
		Ask: services.NewRetrievalService(
			store.DocumentStore(),
			index,
			embedder,
			llm,
			promptStore,
			router,
			settings.Retrieval,
		),
		Quote: services.NewQuoteBuilder(os.Getenv("MARJAA_API_COMPANY_NAME")),
		Sources: services.NewSourceService(
			store.SourceStore(),
			store.SyncStateStore(),
			store.DocumentStore(),
			index,
			factory,
		),
		Settings: settingsService,
	})

	return cli.Execute()
}

// marjaaDir returns the application data directory (~/.marjaa),
// creating it if needed. MARJAA_HOME overrides the location.
func marjaaDir() (string, error) {
	if dir := os.Getenv("MARJAA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".marjaa"), nil
}

// openVectorIndex opens the configured vector index: pgvector when a
// Postgres URL is configured, the persistent flat index otherwise.
func openVectorIndex(config driven.ConfigStore, settings domain.VectorIndexSettings, dataDir string) (driven.VectorIndex, error) {
	if url := config.GetString("vector_index.postgres_url"); url != "" {
		return pgvector.New(context.Background(), url, settings.Dimensions)
	}

	path := settings.Path
	if path == "" {
		path = filepath.Join(dataDir, "index", "vectors.idx")
	}

	index, err := flat.New(settings.Dimensions, settings.Metric, path)
	if err != nil {
		return nil, err
	}
	if err := index.Load(context.Background()); err != nil {
		return nil, err
	}
	return index, nil
}
