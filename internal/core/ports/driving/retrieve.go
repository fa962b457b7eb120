package driving

import (
	"context"

	"github.com/policybot-io/policybot/internal/core/domain"
)

// RetrievalService answers queries against the live index.
type RetrievalService interface {
	// Retrieve embeds the query, performs top-k similarity search and
	// returns ranked, budget-constrained context chunks. An empty
	// index yields an empty slice, not an error. A not-ready core
	// fails fast with domain.ErrNotReady.
	Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) ([]domain.RetrievedChunk, error)

	// Status reports readiness, chunk count and last build time.
	Status(ctx context.Context) domain.Status
}
