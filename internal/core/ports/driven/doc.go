// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Connector: Fetches documents from a data source
//   - Normaliser: Transforms raw documents into indexed form
//   - NormaliserRegistry: Selects appropriate normaliser
//   - PostProcessorPipeline: Produces chunks from documents
//   - DocumentStore: Document and chunk persistence
//   - SourceStore: Source configuration persistence
//   - SyncStateStore: Ingestion progress persistence
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndex: Vector storage and nearest-neighbour search
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Text generation. Without it, queries return the assembled
//     context and sources but no generated answer.
//   - PromptStore: Customisable prompt templates. Without it, embedded
//     defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
