package driven

import "context"

// EmbeddingService turns article fields and query text into vectors.
// Ingestion and querying must share one service, since scores are only
// comparable within a single vector space.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order. An error
	// means no vector in the batch can be trusted.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the length of every vector produced. Vector stores are
	// opened with it.
	Dimensions() int

	// ModelName identifies the model, for logs and settings output.
	ModelName() string

	// Ping makes the cheapest request that proves the service answers.
	Ping(ctx context.Context) error

	Close() error
}
