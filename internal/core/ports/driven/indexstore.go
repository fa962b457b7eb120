package driven

import "github.com/policybot-io/policybot/internal/core/domain"

// IndexStore builds, persists, loads and publishes index snapshots.
// Build and Load produce immutable snapshots; Swap makes a snapshot
// visible to readers atomically. Persist only accepts snapshots that
// this store's own Build or Load produced.
type IndexStore interface {
	// Build constructs a snapshot over embedded chunks. Fails with
	// domain.ErrIndexBuild on an empty chunk list or mismatched
	// embedding dimensions.
	Build(chunks []domain.Chunk) (VectorSearcher, error)

	// Persist writes the snapshot and its manifest to disk using
	// write-to-temporary-then-rename so readers never observe a
	// partial index.
	Persist(snapshot VectorSearcher, man domain.IndexManifest) error

	// Load reconstructs the persisted snapshot. Returns
	// os.ErrNotExist when no index was ever persisted and
	// domain.ErrIndexLoad when the persisted artifacts are corrupt
	// or inconsistent.
	Load() (VectorSearcher, *domain.IndexManifest, error)

	// Manifest reads only the persisted index manifest, for
	// staleness checks without loading vectors.
	Manifest() (*domain.IndexManifest, error)

	// Swap atomically publishes the snapshot to readers. In-flight
	// searches keep the snapshot they already hold.
	Swap(snapshot VectorSearcher)

	// SetIngestErrors records the per-source failure count of the
	// most recent ingestion run for status reporting.
	SetIngestErrors(n int)
}
