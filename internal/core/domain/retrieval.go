package domain

import "time"

// RetrievedChunk is one ranked retrieval result handed to the
// answer-generation collaborator.
type RetrievedChunk struct {
	// Text is the chunk's text content.
	Text string

	// SourceID cites the originating source location.
	SourceID string

	// Category is the chunk's assigned content label.
	Category Category

	// Score is the cosine similarity to the query, in [0, 1]
	// for non-degenerate vectors.
	Score float64
}

// RetrieveOptions controls a single retrieval call.
type RetrieveOptions struct {
	// K is the number of nearest chunks to fetch before budget
	// trimming. Zero means the configured default.
	K int

	// ContextBudget caps the cumulative text length of the result
	// in characters. Zero means the configured default.
	ContextBudget int

	// Diversify dedupes results by parent document, keeping only
	// the best-scoring chunk per document. Off by default: HR
	// answers often need adjacent chunks of the same policy.
	Diversify bool
}

// Status describes the serving state of the core.
type Status struct {
	// Ready is true once a valid index is loaded or built.
	Ready bool

	// ChunkCount is the number of chunks in the live index.
	ChunkCount int

	// LastBuild is when the live index was built. Zero when no
	// index is loaded.
	LastBuild time.Time

	// IngestErrors is the number of per-source failures recorded
	// by the most recent ingestion run.
	IngestErrors int
}

// RebuildReport summarises one ingestion run.
type RebuildReport struct {
	// Skipped is true when the source manifest and model were
	// unchanged and no rebuild was performed.
	Skipped bool

	// AddedChunks is the number of chunks in the new index.
	AddedChunks int

	// SkippedSources lists sources that failed to parse.
	SkippedSources []SourceEntry

	// Errors holds one ParseError per skipped source.
	Errors []*ParseError
}
