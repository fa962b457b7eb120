package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/policybot-io/policybot/internal/core/domain"
	"github.com/policybot-io/policybot/internal/core/ports/driven"
	"github.com/policybot-io/policybot/internal/core/ports/driving"
	"github.com/policybot-io/policybot/internal/logger"
	"github.com/policybot-io/policybot/internal/manifest"
)

// Ensure IngestService implements the interface.
var _ driving.IngestOrchestrator = (*IngestService)(nil)

// IngestService runs the ingestion pipeline:
// parse -> chunk -> embed -> build -> persist -> swap.
//
// Rebuilds never run concurrently with themselves; a second caller
// gets domain.ErrRebuildInProgress instead of queueing. Retrieval is
// unaffected while a rebuild runs: readers keep the previous snapshot
// until the new one is swapped in.
type IngestService struct {
	manifestPath string
	registry     driven.ParserRegistry
	chunker      driven.Chunker
	embedder     driven.EmbeddingService
	store        driven.IndexStore

	mu sync.Mutex // single-flight guard for Rebuild
}

// NewIngestService creates an ingestion orchestrator.
func NewIngestService(
	manifestPath string,
	registry driven.ParserRegistry,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	store driven.IndexStore,
) *IngestService {
	return &IngestService{
		manifestPath: manifestPath,
		registry:     registry,
		chunker:      chunker,
		embedder:     embedder,
		store:        store,
	}
}

// Rebuild runs one ingestion pass over the source manifest.
func (s *IngestService) Rebuild(ctx context.Context, force bool) (*domain.RebuildReport, error) {
	if !s.mu.TryLock() {
		return nil, domain.ErrRebuildInProgress
	}
	defer s.mu.Unlock()

	logger.Section("Ingestion")
	started := time.Now()

	entries, err := manifest.Load(s.manifestPath)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: manifest %q lists no sources", domain.ErrIndexBuild, s.manifestPath)
	}
	logger.Info("manifest: %d sources", len(entries))

	sourceHash := domain.HashSources(entries, s.embedder.ModelName())
	if !force {
		if man, err := s.store.Manifest(); err == nil && man.Matches(sourceHash, s.embedder.ModelName()) {
			logger.Info("sources and model unchanged, skipping rebuild")
			return &domain.RebuildReport{Skipped: true, AddedChunks: man.ChunkCount}, nil
		}
	}

	report := &domain.RebuildReport{}
	chunks := s.parseAndChunk(ctx, entries, report)
	if len(chunks) == 0 {
		return report, fmt.Errorf("%w: no source produced any chunk", domain.ErrIndexBuild)
	}
	logger.Info("chunked %d sources into %d chunks", len(entries)-len(report.SkippedSources), len(chunks))

	if err := s.embedChunks(ctx, chunks); err != nil {
		// The previous index, in memory and on disk, stays authoritative.
		return report, err
	}

	snapshot, err := s.store.Build(chunks)
	if err != nil {
		return report, err
	}

	man := domain.IndexManifest{
		SourceHash: sourceHash,
		Model:      s.embedder.ModelName(),
	}
	if err := s.store.Persist(snapshot, man); err != nil {
		return report, fmt.Errorf("persist index: %w", err)
	}

	s.store.Swap(snapshot)
	s.store.SetIngestErrors(len(report.Errors))
	report.AddedChunks = snapshot.Len()

	logger.Info("rebuild complete: %d chunks, %d skipped sources, %s",
		report.AddedChunks, len(report.SkippedSources), time.Since(started).Round(time.Millisecond))
	return report, nil
}

// Start blocks until a valid index is loaded from disk or, when none
// was ever persisted, a first rebuild completes. A corrupt persisted
// index is fatal: the core stays not-ready and the error surfaces to
// the caller instead of being retried silently.
func (s *IngestService) Start(ctx context.Context) error {
	snapshot, man, err := s.store.Load()
	switch {
	case err == nil:
		s.store.Swap(snapshot)
		logger.Info("loaded persisted index: %d chunks (built %s)",
			snapshot.Len(), man.BuiltAt.Format(time.RFC3339))
		return nil

	case errors.Is(err, os.ErrNotExist):
		logger.Info("no persisted index, running first build")
		_, err := s.Rebuild(ctx, false)
		return err

	default:
		return err
	}
}

// parseAndChunk processes every manifest entry, recording one
// ParseError per failing source and continuing with the rest.
func (s *IngestService) parseAndChunk(
	ctx context.Context, entries []domain.SourceEntry, report *domain.RebuildReport,
) []domain.Chunk {
	var chunks []domain.Chunk

	for _, entry := range entries {
		doc, err := s.parseEntry(ctx, entry)
		if err != nil {
			parseErr := &domain.ParseError{Source: entry, Err: err}
			logger.Warn("%v (skipping source)", parseErr)
			report.SkippedSources = append(report.SkippedSources, entry)
			report.Errors = append(report.Errors, parseErr)
			continue
		}

		docChunks := s.chunker.Split(doc)
		logger.Debug("%s %q: %d chunks", entry.Kind, entry.Location, len(docChunks))
		chunks = append(chunks, docChunks...)
	}

	return chunks
}

// parseEntry resolves the parser for the entry and runs it.
func (s *IngestService) parseEntry(ctx context.Context, entry domain.SourceEntry) (*domain.Document, error) {
	parser, err := s.registry.For(entry)
	if err != nil {
		return nil, err
	}

	doc, err := parser.Parse(ctx, entry)
	if err != nil {
		return nil, err
	}
	if doc.Text == "" {
		return nil, fmt.Errorf("%w: source produced no text", domain.ErrInvalidInput)
	}
	return doc, nil
}

// embedChunks batch-embeds all chunk texts and attaches the vectors.
// Output order matches input order, so vectors line up by position.
func (s *IngestService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	logger.Debug("embedding %d chunks with %s", len(chunks), s.embedder.ModelName())
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: got %d vectors for %d chunks",
			domain.ErrEmbedding, len(vectors), len(chunks))
	}

	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	return nil
}
