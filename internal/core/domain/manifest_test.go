package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashSources_Deterministic(t *testing.T) {
	entries := []SourceEntry{
		{Kind: SourceFile, Location: "/policies/handbook.pdf"},
		{Kind: SourceURL, Location: "https://intranet.example.com/leave"},
	}

	assert.Equal(t, HashSources(entries, "nomic-embed-text"), HashSources(entries, "nomic-embed-text"))
}

func TestHashSources_SensitiveToChanges(t *testing.T) {
	a := []SourceEntry{
		{Kind: SourceFile, Location: "a.txt"},
		{Kind: SourceFile, Location: "b.txt"},
	}
	reordered := []SourceEntry{a[1], a[0]}
	edited := []SourceEntry{a[0], {Kind: SourceFile, Location: "c.txt"}}

	base := HashSources(a, "model-1")
	assert.NotEqual(t, base, HashSources(reordered, "model-1"), "reorder must change the hash")
	assert.NotEqual(t, base, HashSources(edited, "model-1"), "edit must change the hash")
	assert.NotEqual(t, base, HashSources(a, "model-2"), "model swap must change the hash")
}

func TestHashSources_FieldBoundaries(t *testing.T) {
	// The kind/location boundary must be unambiguous.
	a := []SourceEntry{{Kind: "file", Location: "x/ab.txt"}}
	b := []SourceEntry{{Kind: "filex", Location: "/ab.txt"}}

	assert.NotEqual(t, HashSources(a, "m"), HashSources(b, "m"))
}

func TestIndexManifest_Matches(t *testing.T) {
	man := &IndexManifest{SourceHash: "abc", Model: "m1"}

	assert.True(t, man.Matches("abc", "m1"))
	assert.False(t, man.Matches("abc", "m2"))
	assert.False(t, man.Matches("xyz", "m1"))

	var missing *IndexManifest
	assert.False(t, missing.Matches("abc", "m1"))
}
