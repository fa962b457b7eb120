// Package index provides the flat cosine-similarity vector index:
// an immutable, queryable snapshot of embedded chunks plus the
// manager that swaps snapshots under concurrent readers and the
// persistence layer that writes them to disk atomically.
package index

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/policybot-io/policybot/internal/core/domain"
	"github.com/policybot-io/policybot/internal/core/ports/driven"
)

// Ensure Index implements the searcher port.
var _ driven.VectorSearcher = (*Index)(nil)

// Index is an immutable snapshot of embedded chunks. Vectors are
// stored unit-normalised so cosine similarity reduces to a dot
// product at query time. An Index is never mutated after Build; it
// is safe for unlimited concurrent readers.
type Index struct {
	chunks  []domain.Chunk
	vectors [][]float32
	dim     int
	builtAt time.Time
}

// Build constructs an index over the chunks. Every chunk must carry
// an embedding of the same dimension; an empty chunk list or a
// dimension mismatch fails with domain.ErrIndexBuild.
func Build(chunks []domain.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks", domain.ErrIndexBuild)
	}

	dim := len(chunks[0].Embedding)
	if dim == 0 {
		return nil, fmt.Errorf("%w: chunk 0 has no embedding", domain.ErrIndexBuild)
	}

	idx := &Index{
		chunks:  make([]domain.Chunk, len(chunks)),
		vectors: make([][]float32, len(chunks)),
		dim:     dim,
		builtAt: time.Now(),
	}

	for i, chunk := range chunks {
		if len(chunk.Embedding) != dim {
			return nil, fmt.Errorf("%w: chunk %d has dimension %d, want %d",
				domain.ErrIndexBuild, i, len(chunk.Embedding), dim)
		}
		idx.chunks[i] = chunk
		idx.vectors[i] = normalise(chunk.Embedding)
	}

	return idx, nil
}

// Search returns the k nearest chunks to the query vector by cosine
// similarity, sorted by decreasing score. Ties are broken by original
// insertion order (stable). A k larger than the index returns every
// chunk; a non-positive k or mismatched query dimension returns nil.
func (idx *Index) Search(query []float32, k int) []driven.VectorHit {
	if k <= 0 || len(query) != idx.dim {
		return nil
	}

	q := normalise(query)

	hits := make([]driven.VectorHit, len(idx.chunks))
	for i := range idx.chunks {
		hits[i] = driven.VectorHit{
			Chunk: idx.chunks[i],
			Score: dot(q, idx.vectors[i]),
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}

// Len returns the number of chunks in the index.
func (idx *Index) Len() int { return len(idx.chunks) }

// Dimensions returns the embedding dimension.
func (idx *Index) Dimensions() int { return idx.dim }

// BuiltAt returns when the index was built.
func (idx *Index) BuiltAt() time.Time { return idx.builtAt }

// Chunks returns the indexed chunks in insertion order.
// Callers must not modify the returned slice.
func (idx *Index) Chunks() []domain.Chunk { return idx.chunks }

// normalise returns a unit-length copy of v. A zero vector is
// returned as an all-zero copy so it scores 0 against everything.
func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}

	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

// dot computes the inner product of two equal-length vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
