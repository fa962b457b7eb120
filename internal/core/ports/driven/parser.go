package driven

import (
	"context"

	"github.com/policybot-io/policybot/internal/core/domain"
)

// Parser extracts normalised UTF-8 text from sources of one format.
// Each parser handles specific file extensions or source kinds.
type Parser interface {
	// Format returns the canonical format name (pdf, html, csv, text).
	Format() string

	// Supports reports whether this parser can handle the entry.
	Supports(entry domain.SourceEntry) bool

	// Parse extracts text and metadata from the source. Failures are
	// wrapped into a *domain.ParseError by the ingestion pipeline;
	// one failing source never aborts the run.
	Parse(ctx context.Context, entry domain.SourceEntry) (*domain.Document, error)
}

// ParserRegistry selects the parser responsible for a manifest entry.
type ParserRegistry interface {
	// For returns the parser for the entry, or
	// domain.ErrUnsupportedFormat when none matches.
	For(entry domain.SourceEntry) (Parser, error)
}
