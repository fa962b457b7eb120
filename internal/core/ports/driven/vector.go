package driven

import (
	"time"

	"github.com/policybot-io/policybot/internal/core/domain"
)

// VectorSearcher is an immutable index snapshot supporting similarity
// search. Snapshots are safe for unlimited concurrent readers; they
// are replaced wholesale on rebuild, never mutated in place.
type VectorSearcher interface {
	// Search returns the k nearest chunks to the query vector by
	// cosine similarity, sorted by decreasing score. Ties are broken
	// by original insertion order.
	Search(query []float32, k int) []VectorHit

	// Len returns the number of chunks in the snapshot.
	Len() int

	// Dimensions returns the embedding dimension of the snapshot.
	Dimensions() int

	// BuiltAt returns when the snapshot was built.
	BuiltAt() time.Time
}

// VectorHit is a single similarity search result.
type VectorHit struct {
	// Chunk is the matched chunk with its metadata.
	Chunk domain.Chunk

	// Score is the cosine similarity to the query.
	Score float64
}

// IndexProvider hands out the live index snapshot. The reference is
// swapped atomically on rebuild; in-flight readers keep using the
// snapshot they already hold.
type IndexProvider interface {
	// Current returns the live snapshot, or nil when not ready.
	Current() VectorSearcher

	// IngestErrors returns the per-source failure count of the most
	// recent ingestion run.
	IngestErrors() int
}
