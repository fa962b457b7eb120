package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policybot-io/policybot/internal/core/domain"
	"github.com/policybot-io/policybot/internal/core/ports/driven"
	"github.com/policybot-io/policybot/internal/index"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService with a fixed answer.
type mockEmbedder struct {
	vec      []float32
	embedErr error
	batchErr error
	calls    int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vec, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return len(m.vec) }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// emptySearcher simulates a valid but empty snapshot.
type emptySearcher struct{}

func (emptySearcher) Search(_ []float32, _ int) []driven.VectorHit { return nil }
func (emptySearcher) Len() int                                     { return 0 }
func (emptySearcher) Dimensions() int                              { return 0 }
func (emptySearcher) BuiltAt() time.Time                           { return time.Time{} }

// staticProvider hands out a fixed snapshot.
type staticProvider struct {
	snapshot driven.VectorSearcher
	errs     int
}

func (p *staticProvider) Current() driven.VectorSearcher { return p.snapshot }
func (p *staticProvider) IngestErrors() int              { return p.errs }

// --- Test helpers ---

func readyProvider(t *testing.T, chunks ...domain.Chunk) *index.Manager {
	t.Helper()
	idx, err := index.Build(chunks)
	require.NoError(t, err)
	m := index.NewManager()
	m.Swap(idx)
	return m
}

func policyChunk(id, docID, text string, category domain.Category, vec ...float32) domain.Chunk {
	return domain.Chunk{
		ID:             id,
		DocumentID:     docID,
		SourceLocation: "/policies/" + docID + ".txt",
		Text:           text,
		Category:       category,
		Embedding:      vec,
	}
}

// --- Tests ---

func TestRetrieve_EmptyQuery(t *testing.T) {
	embedder := &mockEmbedder{vec: []float32{1, 0}}
	provider := readyProvider(t, policyChunk("a", "d1", "text", "general", 1, 0))
	svc := NewRetrievalService(provider, embedder, 0, 0)

	results, err := svc.Retrieve(context.Background(), "   ", domain.RetrieveOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, embedder.calls, "empty query must not hit the embedder")
}

func TestRetrieve_NotReady(t *testing.T) {
	svc := NewRetrievalService(index.NewManager(), &mockEmbedder{vec: []float32{1}}, 0, 0)

	_, err := svc.Retrieve(context.Background(), "how much vacation do I get", domain.RetrieveOptions{})
	assert.ErrorIs(t, err, domain.ErrNotReady)
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	provider := &staticProvider{snapshot: emptySearcher{}}
	svc := NewRetrievalService(provider, &mockEmbedder{vec: []float32{1}}, 0, 0)

	results, err := svc.Retrieve(context.Background(), "anything", domain.RetrieveOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieve_RanksByScore(t *testing.T) {
	provider := readyProvider(t,
		policyChunk("far", "d1", "payroll schedule", "compensation", 0, 1),
		policyChunk("near", "d2", "vacation policy", "leave", 1, 0),
		policyChunk("mid", "d3", "general info", "general", 1, 1),
	)
	embedder := &mockEmbedder{vec: []float32{1, 0}}
	svc := NewRetrievalService(provider, embedder, 0, 0)

	results, err := svc.Retrieve(context.Background(), "vacation", domain.RetrieveOptions{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "vacation policy", results[0].Text)
	assert.Equal(t, "/policies/d2.txt", results[0].SourceID)
	assert.Equal(t, domain.Category("leave"), results[0].Category)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Greater(t, results[1].Score, results[2].Score)
}

func TestRetrieve_RespectsK(t *testing.T) {
	provider := readyProvider(t,
		policyChunk("a", "d1", "one", "general", 1, 0),
		policyChunk("b", "d2", "two", "general", 0.9, 0.1),
		policyChunk("c", "d3", "three", "general", 0.8, 0.2),
	)
	svc := NewRetrievalService(provider, &mockEmbedder{vec: []float32{1, 0}}, 0, 0)

	results, err := svc.Retrieve(context.Background(), "q", domain.RetrieveOptions{K: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRetrieve_BudgetDropsOverflow(t *testing.T) {
	longText := "vacation accrual details " // 25 chars
	provider := readyProvider(t,
		policyChunk("top", "d1", longText, "leave", 1, 0),
		policyChunk("next", "d2", "more detail that will not fit", "leave", 0.9, 0.1),
	)
	svc := NewRetrievalService(provider, &mockEmbedder{vec: []float32{1, 0}}, 0, 0)

	results, err := svc.Retrieve(context.Background(), "q", domain.RetrieveOptions{
		ContextBudget: len(longText),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, longText, results[0].Text)
}

func TestRetrieve_BudgetAlwaysIncludesTopHit(t *testing.T) {
	provider := readyProvider(t,
		policyChunk("top", "d1", "a chunk much longer than the tiny budget", "general", 1, 0),
	)
	svc := NewRetrievalService(provider, &mockEmbedder{vec: []float32{1, 0}}, 0, 0)

	results, err := svc.Retrieve(context.Background(), "q", domain.RetrieveOptions{ContextBudget: 5})
	require.NoError(t, err)
	require.Len(t, results, 1, "top hit is never dropped by the budget")
}

func TestRetrieve_Diversify(t *testing.T) {
	provider := readyProvider(t,
		policyChunk("a1", "doc-a", "best from a", "general", 1, 0),
		policyChunk("a2", "doc-a", "second from a", "general", 0.95, 0.05),
		policyChunk("b1", "doc-b", "best from b", "general", 0.5, 0.5),
	)
	svc := NewRetrievalService(provider, &mockEmbedder{vec: []float32{1, 0}}, 0, 0)

	results, err := svc.Retrieve(context.Background(), "q", domain.RetrieveOptions{Diversify: true})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "best from a", results[0].Text)
	assert.Equal(t, "best from b", results[1].Text)
}

func TestRetrieve_StaleIndexFailsLoudly(t *testing.T) {
	// Index built from 3-dim embeddings while the configured embedder
	// now produces 4-dim vectors, as happens when the model changes
	// after an index was persisted. This must surface as an error,
	// never as an empty result set.
	provider := readyProvider(t, policyChunk("a", "d1", "vacation policy", "leave", 1, 0, 0))
	embedder := &mockEmbedder{vec: []float32{1, 0, 0, 0}}
	svc := NewRetrievalService(provider, embedder, 0, 0)

	results, err := svc.Retrieve(context.Background(), "vacation", domain.RetrieveOptions{})
	require.ErrorIs(t, err, domain.ErrStaleIndex)
	assert.Nil(t, results)
}

func TestRetrieve_DeadlineMapsToTimeout(t *testing.T) {
	provider := readyProvider(t, policyChunk("a", "d1", "text", "general", 1, 0))
	embedder := &mockEmbedder{vec: []float32{1, 0}, embedErr: context.DeadlineExceeded}
	svc := NewRetrievalService(provider, embedder, 0, 0)

	_, err := svc.Retrieve(context.Background(), "q", domain.RetrieveOptions{})
	assert.ErrorIs(t, err, domain.ErrRetrievalTimeout)
}

func TestStatus(t *testing.T) {
	notReady := NewRetrievalService(index.NewManager(), &mockEmbedder{vec: []float32{1}}, 0, 0)
	st := notReady.Status(context.Background())
	assert.False(t, st.Ready)
	assert.Zero(t, st.ChunkCount)

	provider := readyProvider(t,
		policyChunk("a", "d1", "one", "general", 1, 0),
		policyChunk("b", "d2", "two", "general", 0, 1),
	)
	provider.SetIngestErrors(2)
	ready := NewRetrievalService(provider, &mockEmbedder{vec: []float32{1, 0}}, 0, 0)

	st = ready.Status(context.Background())
	assert.True(t, st.Ready)
	assert.Equal(t, 2, st.ChunkCount)
	assert.Equal(t, 2, st.IngestErrors)
	assert.False(t, st.LastBuild.IsZero())
}
