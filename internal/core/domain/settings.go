package domain

const unknownDescription = "Unknown"

// EmbeddingProvider identifies an embedding service provider.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderHashing is the built-in feature-hashing embedder. It needs no service.
	EmbeddingProviderHashing EmbeddingProvider = "hashing"

	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderOpenAI is the OpenAI cloud API.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderHashing, EmbeddingProviderOllama, EmbeddingProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderOpenAI
}

// IsLocal returns true if this provider runs without a network service.
func (p EmbeddingProvider) IsLocal() bool {
	return p == EmbeddingProviderHashing
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderHashing:
		return "Hashing (built-in, offline)"
	case EmbeddingProviderOllama:
		return "Ollama (local)"
	case EmbeddingProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// StorageBackend identifies where articles and vectors are stored.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite keeps both stores in one SQLite file.
	StorageSQLite StorageBackend = "sqlite"

	// StoragePostgres uses PostgreSQL with the pgvector extension.
	StoragePostgres StorageBackend = "postgres"

	// StorageMemory keeps everything in process memory.
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StoragePostgres, StorageMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider EmbeddingProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible APIs).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the embedding vector size. Zero means the model default.
	Dimensions int

	// RateLimit caps embedding requests per second. Zero disables limiting.
	RateLimit float64
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

// StorageSettings holds storage backend configuration.
type StorageSettings struct {
	// Backend selects the store implementation.
	Backend StorageBackend

	// PostgresDSN is the connection string for StoragePostgres.
	PostgresDSN string
}

// QuerySettings holds query engine configuration.
type QuerySettings struct {
	// TopK is the per-field candidate count.
	TopK int
}

// IngestSettings holds ingestion configuration.
type IngestSettings struct {
	// Workers bounds concurrent ingestions in a batch.
	Workers int
}

// EventSettings holds outcome event publishing configuration.
type EventSettings struct {
	// KafkaBrokers enables publishing when non-empty.
	KafkaBrokers []string

	// KafkaTopic is the destination topic.
	KafkaTopic string
}

// Enabled reports whether events should be published.
func (e EventSettings) Enabled() bool {
	return len(e.KafkaBrokers) > 0
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	Storage   StorageSettings
	Query     QuerySettings
	Ingest    IngestSettings
	Events    EventSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The built-in hashing embedder and SQLite keep a fresh install usable offline.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   EmbeddingProviderHashing,
			Model:      DefaultEmbeddingModels()[EmbeddingProviderHashing],
			Dimensions: 768,
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
		Query: QuerySettings{
			TopK: DefaultTopK,
		},
		Ingest: IngestSettings{
			Workers: 4,
		},
		Events: EventSettings{
			KafkaTopic: "litsearch.ingest",
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []EmbeddingProvider {
	return []EmbeddingProvider{
		EmbeddingProviderHashing,
		EmbeddingProviderOllama,
		EmbeddingProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[EmbeddingProvider]string {
	return map[EmbeddingProvider]string{
		EmbeddingProviderHashing: "fnv-bow",
		EmbeddingProviderOllama:  "nomic-embed-text",
		EmbeddingProviderOpenAI:  "text-embedding-3-small",
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
		"text-embedding-ada-002": 1536,
	}
}
