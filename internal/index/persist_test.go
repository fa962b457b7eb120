package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policybot-io/policybot/internal/core/domain"
)

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Build([]domain.Chunk{
		{
			ID: "c1", DocumentID: "d1", SourceLocation: "/policies/leave.txt",
			Text: "Vacation accrues monthly.", StartOffset: 0, EndOffset: 25,
			Category: "leave", Embedding: []float32{1, 0, 0},
		},
		{
			ID: "c2", DocumentID: "d1", SourceLocation: "/policies/leave.txt",
			Text: "Sick days are unlimited.", StartOffset: 20, EndOffset: 44,
			Category: "leave", Embedding: []float32{0, 1, 0},
		},
		{
			ID: "c3", DocumentID: "d2", SourceLocation: "/policies/pay.txt",
			Text: "Payroll runs on the 25th.", StartOffset: 0, EndOffset: 25,
			Category: "compensation", Embedding: []float32{0, 0, 1},
		},
	})
	require.NoError(t, err)
	return idx
}

func TestPersistLoad_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	idx := buildTestIndex(t)

	man := domain.IndexManifest{SourceHash: "hash-1", Model: "test-model"}
	require.NoError(t, Persist(idx, man, dir))

	loaded, loadedMan, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, idx.Len(), loaded.Len())
	assert.Equal(t, idx.Dimensions(), loaded.Dimensions())
	assert.Equal(t, "hash-1", loadedMan.SourceHash)
	assert.Equal(t, "test-model", loadedMan.Model)
	assert.Equal(t, 3, loadedMan.ChunkCount)
	assert.Equal(t, 3, loadedMan.Dimensions)
	assert.WithinDuration(t, idx.BuiltAt(), loaded.BuiltAt(), time.Second)

	// Chunk metadata and order survive the roundtrip.
	for i, want := range idx.Chunks() {
		got := loaded.Chunks()[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.DocumentID, got.DocumentID)
		assert.Equal(t, want.SourceLocation, got.SourceLocation)
		assert.Equal(t, want.Text, got.Text)
		assert.Equal(t, want.StartOffset, got.StartOffset)
		assert.Equal(t, want.EndOffset, got.EndOffset)
		assert.Equal(t, want.Category, got.Category)
	}

	// Search behaves identically against the reloaded index.
	hits := loaded.Search([]float32{0, 1, 0}, 1)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].Chunk.ID)
}

func TestLoad_MissingIndex(t *testing.T) {
	_, _, err := Load(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist, "an absent index is not-exist, not corrupt")
}

func TestLoad_MissingVectorFile(t *testing.T) {
	dir := t.TempDir()
	idx := buildTestIndex(t)
	require.NoError(t, Persist(idx, domain.IndexManifest{SourceHash: "h", Model: "m"}, dir))

	require.NoError(t, os.Remove(filepath.Join(dir, VectorFile)))

	_, _, err := Load(dir)
	assert.ErrorIs(t, err, domain.ErrIndexLoad)
}

func TestLoad_TruncatedVectorFile(t *testing.T) {
	dir := t.TempDir()
	idx := buildTestIndex(t)
	require.NoError(t, Persist(idx, domain.IndexManifest{SourceHash: "h", Model: "m"}, dir))

	path := filepath.Join(dir, VectorFile)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-8], 0o600))

	_, _, err = Load(dir)
	assert.ErrorIs(t, err, domain.ErrIndexLoad)
}

func TestLoad_CorruptMagic(t *testing.T) {
	dir := t.TempDir()
	idx := buildTestIndex(t)
	require.NoError(t, Persist(idx, domain.IndexManifest{SourceHash: "h", Model: "m"}, dir))

	path := filepath.Join(dir, VectorFile)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	copy(data, "XXXX")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, _, err = Load(dir)
	assert.ErrorIs(t, err, domain.ErrIndexLoad)
}

func TestLoad_CountMismatch(t *testing.T) {
	dir := t.TempDir()
	idx := buildTestIndex(t)

	man := domain.IndexManifest{SourceHash: "h", Model: "m"}
	require.NoError(t, Persist(idx, man, dir))

	// Rewrite the manifest with a wrong chunk count.
	bad := domain.IndexManifest{
		SourceHash: "h", Model: "m",
		ChunkCount: 99, Dimensions: idx.Dimensions(), BuiltAt: idx.BuiltAt(),
	}
	require.NoError(t, writeManifestForTest(t, dir, bad))

	_, _, err := Load(dir)
	assert.ErrorIs(t, err, domain.ErrIndexLoad)
}

func TestPersist_Empty(t *testing.T) {
	err := Persist(nil, domain.IndexManifest{}, t.TempDir())
	assert.ErrorIs(t, err, domain.ErrIndexBuild)
}

func TestPersist_OverwritesPreviousBuild(t *testing.T) {
	dir := t.TempDir()
	first := buildTestIndex(t)
	require.NoError(t, Persist(first, domain.IndexManifest{SourceHash: "h1", Model: "m"}, dir))

	second, err := Build([]domain.Chunk{
		{ID: "only", DocumentID: "d9", SourceLocation: "/p.txt", Text: "t", Embedding: []float32{1, 1}},
	})
	require.NoError(t, err)
	require.NoError(t, Persist(second, domain.IndexManifest{SourceHash: "h2", Model: "m"}, dir))

	loaded, man, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
	assert.Equal(t, "h2", man.SourceHash)
	assert.Equal(t, 2, man.Dimensions)
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := LoadManifest(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// writeManifestForTest overwrites the persisted manifest directly.
func writeManifestForTest(t *testing.T, dir string, man domain.IndexManifest) error {
	t.Helper()
	data, err := toml.Marshal(man)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o600)
}
