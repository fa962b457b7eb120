package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/policybot-io/policybot/internal/core/domain"
	"github.com/policybot-io/policybot/internal/core/ports/driven"
	"github.com/policybot-io/policybot/internal/core/ports/driving"
	"github.com/policybot-io/policybot/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// Default retrieval parameters, overridable per call and via config.
const (
	DefaultK             = 15
	DefaultContextBudget = 6000
)

// RetrievalService answers queries against the live index snapshot.
// The read path takes no locks: the snapshot reference is loaded
// once per call and used for the whole call, so concurrent requests
// and background rebuilds never interfere.
type RetrievalService struct {
	provider driven.IndexProvider
	embedder driven.EmbeddingService

	defaultK      int
	defaultBudget int
}

// NewRetrievalService creates a retrieval service.
func NewRetrievalService(
	provider driven.IndexProvider,
	embedder driven.EmbeddingService,
	defaultK, defaultBudget int,
) *RetrievalService {
	if defaultK <= 0 {
		defaultK = DefaultK
	}
	if defaultBudget <= 0 {
		defaultBudget = DefaultContextBudget
	}
	return &RetrievalService{
		provider:      provider,
		embedder:      embedder,
		defaultK:      defaultK,
		defaultBudget: defaultBudget,
	}
}

// Retrieve embeds the query, searches the live snapshot and returns
// ranked, deduplicated, budget-constrained context.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, opts domain.RetrieveOptions,
) ([]domain.RetrievedChunk, error) {
	logger.Section("Retrieval")

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("empty query, returning no results")
		return []domain.RetrievedChunk{}, nil
	}

	snapshot := s.provider.Current()
	if snapshot == nil {
		return nil, domain.ErrNotReady
	}
	if snapshot.Len() == 0 {
		// Empty corpus is not an error; the generation collaborator
		// is responsible for the "no information found" response.
		return []domain.RetrievedChunk{}, nil
	}

	k := opts.K
	if k <= 0 {
		k = s.defaultK
	}
	budget := opts.ContextBudget
	if budget <= 0 {
		budget = s.defaultBudget
	}
	logger.Debug("query=%q k=%d budget=%d diversify=%t", query, k, budget, opts.Diversify)

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalTimeout, err)
		}
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// A dimension mismatch means the snapshot was built by a different
	// model than the configured embedder. Search would quietly return
	// nothing; fail loudly instead.
	if len(vector) != snapshot.Dimensions() {
		return nil, fmt.Errorf("%w: index dimension %d, model %q produces %d; run a rebuild",
			domain.ErrStaleIndex, snapshot.Dimensions(), s.embedder.ModelName(), len(vector))
	}

	hits := snapshot.Search(vector, k)
	logger.Debug("search returned %d hits", len(hits))

	if opts.Diversify {
		hits = dedupeByDocument(hits)
		logger.Debug("after diversify: %d hits", len(hits))
	}

	return applyBudget(hits, budget), nil
}

// Status reports readiness, chunk count and last build time.
func (s *RetrievalService) Status(_ context.Context) domain.Status {
	st := domain.Status{
		IngestErrors: s.provider.IngestErrors(),
	}
	if snapshot := s.provider.Current(); snapshot != nil {
		st.Ready = true
		st.ChunkCount = snapshot.Len()
		st.LastBuild = snapshot.BuiltAt()
	}
	return st
}

// dedupeByDocument keeps only the best-scoring chunk per parent
// document. Hits are already sorted, so the first occurrence wins.
func dedupeByDocument(hits []driven.VectorHit) []driven.VectorHit {
	seen := make(map[string]bool, len(hits))
	deduped := hits[:0:0]
	for _, hit := range hits {
		if seen[hit.Chunk.DocumentID] {
			continue
		}
		seen[hit.Chunk.DocumentID] = true
		deduped = append(deduped, hit)
	}
	return deduped
}

// applyBudget greedily accepts hits in score order until the next
// chunk would exceed the context budget. Chunks are never truncated:
// a chunk either fits whole or is dropped, except the top-scoring
// chunk which is always included so an undersized budget still
// yields usable context.
func applyBudget(hits []driven.VectorHit, budget int) []domain.RetrievedChunk {
	results := make([]domain.RetrievedChunk, 0, len(hits))
	total := 0
	for _, hit := range hits {
		if len(results) > 0 && total+len(hit.Chunk.Text) > budget {
			break
		}
		results = append(results, domain.RetrievedChunk{
			Text:     hit.Chunk.Text,
			SourceID: hit.Chunk.SourceLocation,
			Category: hit.Chunk.Category,
			Score:    hit.Score,
		})
		total += len(hit.Chunk.Text)
	}
	return results
}
