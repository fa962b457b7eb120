package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// The vector dimension is fixed by the loaded model and identical for
// every call during a process lifetime.
//
// Note: This is separate from the vector index which stores and
// searches vectors. EmbeddingService generates vectors; the index
// stores them.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// Output order matches input order 1:1.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	Dimensions() int

	// ModelName returns the embedding model identifier. Recorded in
	// the index manifest for staleness detection.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request. Used at startup before committing to a rebuild.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
