package domain

import "time"

// SourceKind identifies how a source location is fetched.
type SourceKind string

const (
	// SourceFile is a path on the local filesystem.
	SourceFile SourceKind = "file"

	// SourceURL is a web page fetched over HTTP.
	SourceURL SourceKind = "url"
)

// Valid reports whether the kind is one of the supported values.
func (k SourceKind) Valid() bool {
	return k == SourceFile || k == SourceURL
}

// SourceEntry is a single record from the source manifest.
// Manifest order defines deterministic ingestion order.
type SourceEntry struct {
	// Kind is how Location should be fetched.
	Kind SourceKind

	// Location is a file path or URL.
	Location string
}

// Document is the normalised text of one successfully parsed source.
// It is created once per parse, never mutated, and discarded after
// chunking; only chunks outlive an ingestion run.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Source is the manifest entry that produced this document.
	Source SourceEntry

	// Format is the detected input format (pdf, html, csv, text).
	Format string

	// Text is the full normalised UTF-8 text.
	Text string

	// Metadata carries parser hints such as heading positions,
	// page boundaries or CSV column headers.
	Metadata map[string]any

	// ParsedAt is when the document was extracted.
	ParsedAt time.Time
}

// Chunk is a bounded, overlapping span of a document's text.
// It is the unit of embedding and retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// SourceLocation is the parent document's origin, kept so
	// retrieval results can cite their source after the Document
	// itself has been discarded.
	SourceLocation string

	// Text is the chunk's span of the document text.
	Text string

	// StartOffset and EndOffset locate the span within the parent
	// document. EndOffset-StartOffset never exceeds the configured
	// chunk size.
	StartOffset int
	EndOffset   int

	// Category is the label assigned by keyword classification.
	// Assigned once at chunking time, never mutated.
	Category Category

	// Embedding is the vector representation for similarity search.
	Embedding []float32
}
