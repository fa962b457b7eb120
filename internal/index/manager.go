package index

import (
	"sync/atomic"

	"github.com/policybot-io/policybot/internal/core/ports/driven"
)

// Ensure Manager implements the provider port.
var _ driven.IndexProvider = (*Manager)(nil)

// Manager holds the live index snapshot behind an atomically-updated
// pointer. Readers load the pointer once and keep using that snapshot
// for the duration of their call; a rebuild swaps in a brand-new
// snapshot without coordinating with readers. The previous snapshot
// is reclaimed by the garbage collector once its last reader returns,
// so no explicit retirement bookkeeping is needed.
type Manager struct {
	current      atomic.Pointer[Index]
	ingestErrors atomic.Int64
}

// NewManager creates a manager with no index loaded.
func NewManager() *Manager {
	return &Manager{}
}

// Current returns the live snapshot, or nil when not ready.
// The returned value is nil as a driven.VectorSearcher when unset.
func (m *Manager) Current() driven.VectorSearcher {
	idx := m.current.Load()
	if idx == nil {
		return nil
	}
	return idx
}

// Swap atomically replaces the live snapshot. In-flight Search calls
// continue against the snapshot they already hold.
func (m *Manager) Swap(idx *Index) {
	m.current.Store(idx)
}

// SetIngestErrors records the per-source failure count of the most
// recent ingestion run for status reporting.
func (m *Manager) SetIngestErrors(n int) {
	m.ingestErrors.Store(int64(n))
}

// IngestErrors returns the recorded per-source failure count.
func (m *Manager) IngestErrors() int {
	return int(m.ingestErrors.Load())
}
