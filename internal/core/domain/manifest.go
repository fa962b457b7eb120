package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// IndexManifest records what the persisted index was built from.
// Comparing SourceHash and Model against the current manifest allows
// staleness detection without reprocessing any document.
type IndexManifest struct {
	// SourceHash is the content hash of the ordered source list.
	SourceHash string `toml:"source_hash"`

	// Model is the embedding model identifier the index was built
	// with. A model change always invalidates the index.
	Model string `toml:"model"`

	// Dimensions is the embedding vector size.
	Dimensions int `toml:"dimensions"`

	// ChunkCount is the number of chunks persisted.
	ChunkCount int `toml:"chunk_count"`

	// BuiltAt is when the index build completed.
	BuiltAt time.Time `toml:"built_at"`
}

// HashSources computes a deterministic hash over the ordered source
// list and the embedding model identifier. Any reorder, edit or
// model swap produces a different hash.
func HashSources(entries []SourceEntry, model string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	for _, e := range entries {
		h.Write([]byte(e.Kind))
		h.Write([]byte{0})
		h.Write([]byte(e.Location))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Matches reports whether the persisted manifest still describes an
// index built from the given source hash and model.
func (m *IndexManifest) Matches(sourceHash, model string) bool {
	return m != nil && m.SourceHash == sourceHash && m.Model == model
}
