package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policybot-io/policybot/internal/core/domain"
)

func TestSupports(t *testing.T) {
	p := New()

	assert.True(t, p.Supports(domain.SourceEntry{Kind: domain.SourceFile, Location: "/a/policy.txt"}))
	assert.True(t, p.Supports(domain.SourceEntry{Kind: domain.SourceFile, Location: "/a/README.md"}))
	assert.True(t, p.Supports(domain.SourceEntry{Kind: domain.SourceFile, Location: "/a/NOTES.TXT"}))
	assert.False(t, p.Supports(domain.SourceEntry{Kind: domain.SourceFile, Location: "/a/policy.pdf"}))
	assert.False(t, p.Supports(domain.SourceEntry{Kind: domain.SourceURL, Location: "https://example.com/a.txt"}))
}

func TestParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leave_policy.txt")
	require.NoError(t, os.WriteFile(path, []byte("Line one.\r\nLine two.\n\n"), 0o600))

	p := New()
	doc, err := p.Parse(context.Background(), domain.SourceEntry{
		Kind: domain.SourceFile, Location: path,
	})
	require.NoError(t, err)

	assert.Equal(t, "Line one.\nLine two.", doc.Text, "CRLF normalised, trailing newlines trimmed")
	assert.Equal(t, "text", doc.Format)
	assert.Equal(t, path, doc.Source.Location)
	assert.Equal(t, "leave policy", doc.Metadata[domain.MetaTitle])
	assert.NotEmpty(t, doc.ID)
	assert.False(t, doc.ParsedAt.IsZero())
}

func TestParse_MissingFile(t *testing.T) {
	p := New()
	_, err := p.Parse(context.Background(), domain.SourceEntry{
		Kind: domain.SourceFile, Location: filepath.Join(t.TempDir(), "gone.txt"),
	})
	assert.Error(t, err)
}
