package driven

import "context"

// CompletionService is the opaque answer-generation collaborator.
// The core hands it a prompt assembled by the caller and receives
// free text back; it has no knowledge of prompt construction.
//
// This is an optional service - when nil, callers receive retrieval
// results without a generated answer.
type CompletionService interface {
	// Complete generates free text for the given prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// Close releases resources.
	Close() error
}
