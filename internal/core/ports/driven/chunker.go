package driven

import "github.com/policybot-io/policybot/internal/core/domain"

// Chunker splits a parsed document into categorised chunks.
// Splitting is deterministic and order-preserving.
type Chunker interface {
	// Split divides the document text into bounded, overlapping
	// chunks tagged with span offsets and an inferred category.
	Split(doc *domain.Document) []domain.Chunk
}
