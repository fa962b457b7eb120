package index

import (
	"fmt"

	"github.com/policybot-io/policybot/internal/core/domain"
	"github.com/policybot-io/policybot/internal/core/ports/driven"
)

// Ensure Store implements the port.
var _ driven.IndexStore = (*Store)(nil)

// Store ties the flat index, its on-disk layout and the live-snapshot
// manager together behind the driven.IndexStore port.
type Store struct {
	dir     string
	manager *Manager
}

// NewStore creates a store persisting to dir and publishing through
// the manager.
func NewStore(dir string, manager *Manager) *Store {
	return &Store{dir: dir, manager: manager}
}

// Build constructs a snapshot over embedded chunks.
func (s *Store) Build(chunks []domain.Chunk) (driven.VectorSearcher, error) {
	return Build(chunks)
}

// Persist writes the snapshot and its manifest to dir atomically.
// The snapshot must come from this store's Build or Load.
func (s *Store) Persist(snapshot driven.VectorSearcher, man domain.IndexManifest) error {
	idx, ok := snapshot.(*Index)
	if !ok {
		return fmt.Errorf("%w: foreign snapshot type %T", domain.ErrIndexBuild, snapshot)
	}
	return Persist(idx, man, s.dir)
}

// Load reconstructs the persisted snapshot from dir.
func (s *Store) Load() (driven.VectorSearcher, *domain.IndexManifest, error) {
	idx, man, err := Load(s.dir)
	if err != nil {
		return nil, nil, err
	}
	return idx, man, nil
}

// Manifest reads only the persisted index manifest.
func (s *Store) Manifest() (*domain.IndexManifest, error) {
	return LoadManifest(s.dir)
}

// Swap atomically publishes the snapshot to readers.
func (s *Store) Swap(snapshot driven.VectorSearcher) {
	idx, ok := snapshot.(*Index)
	if !ok {
		return
	}
	s.manager.Swap(idx)
}

// SetIngestErrors records the failure count of the last ingestion run.
func (s *Store) SetIngestErrors(n int) {
	s.manager.SetIngestErrors(n)
}
