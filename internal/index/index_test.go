package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policybot-io/policybot/internal/core/domain"
)

func embeddedChunk(id string, vec ...float32) domain.Chunk {
	return domain.Chunk{
		ID:             id,
		DocumentID:     "doc-" + id,
		SourceLocation: "/policies/" + id + ".txt",
		Text:           "chunk " + id,
		Category:       domain.CategoryGeneral,
		Embedding:      vec,
	}
}

func TestBuild_Empty(t *testing.T) {
	_, err := Build(nil)
	assert.ErrorIs(t, err, domain.ErrIndexBuild)
}

func TestBuild_MissingEmbedding(t *testing.T) {
	_, err := Build([]domain.Chunk{{ID: "a", Text: "no vector"}})
	assert.ErrorIs(t, err, domain.ErrIndexBuild)
}

func TestBuild_DimensionMismatch(t *testing.T) {
	_, err := Build([]domain.Chunk{
		embeddedChunk("a", 1, 0, 0),
		embeddedChunk("b", 1, 0),
	})
	assert.ErrorIs(t, err, domain.ErrIndexBuild)
}

func TestSearch_RanksByCosine(t *testing.T) {
	idx, err := Build([]domain.Chunk{
		embeddedChunk("x", 1, 0),
		embeddedChunk("y", 0, 1),
		embeddedChunk("mid", 1, 1),
	})
	require.NoError(t, err)

	hits := idx.Search([]float32{1, 0}, 3)
	require.Len(t, hits, 3)
	assert.Equal(t, "x", hits[0].Chunk.ID)
	assert.Equal(t, "mid", hits[1].Chunk.ID)
	assert.Equal(t, "y", hits[2].Chunk.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.InDelta(t, 0.0, hits[2].Score, 1e-6)
}

func TestSearch_ScaleInvariant(t *testing.T) {
	// Cosine similarity ignores magnitude: a scaled copy of the query
	// scores exactly 1.
	idx, err := Build([]domain.Chunk{embeddedChunk("a", 3, 4)})
	require.NoError(t, err)

	hits := idx.Search([]float32{30, 40}, 1)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	// Identical vectors score identically; order must be stable.
	idx, err := Build([]domain.Chunk{
		embeddedChunk("first", 1, 1),
		embeddedChunk("second", 1, 1),
		embeddedChunk("third", 1, 1),
	})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		hits := idx.Search([]float32{1, 1}, 3)
		require.Len(t, hits, 3)
		assert.Equal(t, "first", hits[0].Chunk.ID)
		assert.Equal(t, "second", hits[1].Chunk.ID)
		assert.Equal(t, "third", hits[2].Chunk.ID)
	}
}

func TestSearch_KBounds(t *testing.T) {
	idx, err := Build([]domain.Chunk{
		embeddedChunk("a", 1, 0),
		embeddedChunk("b", 0, 1),
	})
	require.NoError(t, err)

	assert.Len(t, idx.Search([]float32{1, 0}, 1), 1)
	assert.Len(t, idx.Search([]float32{1, 0}, 10), 2, "k beyond size returns everything")
	assert.Nil(t, idx.Search([]float32{1, 0}, 0))
	assert.Nil(t, idx.Search([]float32{1, 0, 0}, 1), "dimension mismatch returns nil")
}

func TestSearch_ZeroVectorScoresZero(t *testing.T) {
	idx, err := Build([]domain.Chunk{
		embeddedChunk("zero", 0, 0),
		embeddedChunk("unit", 1, 0),
	})
	require.NoError(t, err)

	hits := idx.Search([]float32{1, 0}, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, "unit", hits[0].Chunk.ID)
	assert.InDelta(t, 0.0, hits[1].Score, 1e-6)
}

func TestIndex_Accessors(t *testing.T) {
	idx, err := Build([]domain.Chunk{embeddedChunk("a", 1, 2, 3)})
	require.NoError(t, err)

	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 3, idx.Dimensions())
	assert.False(t, idx.BuiltAt().IsZero())
	require.Len(t, idx.Chunks(), 1)
	assert.Equal(t, "a", idx.Chunks()[0].ID)
}

func TestBuild_ErrorMessageNamesOffendingChunk(t *testing.T) {
	_, err := Build([]domain.Chunk{
		embeddedChunk("ok", 1, 0),
		embeddedChunk("bad", 1, 0, 0),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIndexBuild))
	assert.Contains(t, err.Error(), "chunk 1")
}
