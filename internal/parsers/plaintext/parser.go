// Package plaintext provides the pass-through parser for .txt files.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/policybot-io/policybot/internal/core/domain"
	"github.com/policybot-io/policybot/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser handles plain text files.
type Parser struct{}

// New creates a plain text parser.
func New() *Parser {
	return &Parser{}
}

// Format returns the canonical format name.
func (p *Parser) Format() string { return "text" }

// Supports reports whether this parser can handle the entry.
func (p *Parser) Supports(entry domain.SourceEntry) bool {
	if entry.Kind != domain.SourceFile {
		return false
	}
	ext := strings.ToLower(filepath.Ext(entry.Location))
	return ext == ".txt" || ext == ".text" || ext == ".md"
}

// Parse reads the file and normalises line endings. The text is
// otherwise passed through untouched so chunk offsets map directly
// onto the source.
func (p *Parser) Parse(_ context.Context, entry domain.SourceEntry) (*domain.Document, error) {
	data, err := os.ReadFile(entry.Location)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimRight(text, "\n")

	return &domain.Document{
		ID:     uuid.New().String(),
		Source: entry,
		Format: p.Format(),
		Text:   text,
		Metadata: map[string]any{
			domain.MetaTitle: titleFromPath(entry.Location),
		},
		ParsedAt: time.Now(),
	}, nil
}

// titleFromPath derives a human-readable title from the filename.
func titleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}
