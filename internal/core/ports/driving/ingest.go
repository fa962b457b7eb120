package driving

import (
	"context"

	"github.com/policybot-io/policybot/internal/core/domain"
)

// IngestOrchestrator runs the ingestion pipeline:
// parse -> chunk -> embed -> build -> persist -> swap.
type IngestOrchestrator interface {
	// Rebuild runs one ingestion pass over the source manifest.
	// When force is false and neither the source list nor the
	// embedding model changed since the persisted index was built,
	// the rebuild is skipped. Concurrent calls return
	// domain.ErrRebuildInProgress.
	Rebuild(ctx context.Context, force bool) (*domain.RebuildReport, error)

	// Start blocks until a valid index is loaded from disk or, when
	// none exists, a first rebuild completes. On failure the core
	// stays not-ready and the error is surfaced to the caller;
	// Start never retries silently.
	Start(ctx context.Context) error
}
