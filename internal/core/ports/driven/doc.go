// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ArticleStore: Relational article persistence (source of truth)
//   - VectorStore: Per-field vector persistence and similarity search
//   - EmbeddingService: Turns text into fixed-dimension vectors
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Exporter: Writes query results to a file. Export is disabled without it.
//   - EventPublisher: Receives ingest outcomes. Nothing is published without it.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
