package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotReady indicates no valid index is loaded yet.
	// Retrieval against a not-ready core fails fast rather than
	// returning degraded results.
	ErrNotReady = errors.New("index not ready")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates no parser handles the source.
	ErrUnsupportedFormat = errors.New("unsupported source format")

	// ErrRebuildInProgress indicates an ingestion run is already
	// active. Rebuilds never run concurrently with themselves.
	ErrRebuildInProgress = errors.New("rebuild in progress")

	// ErrIndexBuild indicates the index could not be constructed.
	// The previously persisted index remains authoritative.
	ErrIndexBuild = errors.New("index build failed")

	// ErrIndexLoad indicates a persisted index is corrupt or
	// incomplete. Fatal at startup: the service stays not-ready.
	ErrIndexLoad = errors.New("index load failed")

	// ErrStaleIndex indicates the loaded index was built by a
	// different embedding model than the one configured, so its
	// vectors are incomparable with query embeddings. A rebuild
	// clears the condition.
	ErrStaleIndex = errors.New("index is stale")

	// ErrEmbedding indicates the embedding service failed after
	// retries were exhausted. Aborts the current ingestion run.
	ErrEmbedding = errors.New("embedding failed")

	// ErrRetrievalTimeout indicates a single retrieval call exceeded
	// its deadline. Local to one request; index health is unaffected.
	ErrRetrievalTimeout = errors.New("retrieval timed out")
)

// ParseError records the failure of a single source during ingestion.
// Per-source failures are recoverable: the pipeline collects one
// ParseError per failing source and continues with the rest.
type ParseError struct {
	// Source is the manifest entry that failed.
	Source SourceEntry

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Source.Kind, e.Source.Location, e.Err)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}
