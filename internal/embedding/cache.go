package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/policybot-io/policybot/internal/core/ports/driven"
	"github.com/policybot-io/policybot/internal/logger"
)

// Factory builds an embedding service for a model identifier.
type Factory func() (driven.EmbeddingService, error)

// Cache is a process-scoped registry of embedding services keyed by
// model identifier. A model's service is built lazily on first
// Acquire, shared by every later Acquire of the same identifier, and
// torn down only when the last handle is closed. Construction is
// guarded so concurrent first acquisitions build the model once.
//
// Ingestion and retrieval both acquire the configured model here, so
// a process never loads the same model twice.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	service driven.EmbeddingService
	refs    int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// Default is the process-wide cache.
var Default = NewCache()

// Acquire returns a handle on the shared service for the model.
// The factory runs only when the model is not yet loaded.
func (c *Cache) Acquire(model string, build Factory) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[model]
	if !ok {
		logger.Debug("loading embedding model %q", model)
		service, err := build()
		if err != nil {
			return nil, fmt.Errorf("load embedding model %q: %w", model, err)
		}
		e = &entry{service: service}
		c.entries[model] = e
	}
	e.refs++

	return &Handle{cache: c, model: model, service: e.service}, nil
}

// release drops one reference; the service is closed once unreferenced.
func (c *Cache) release(model string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[model]
	if !ok {
		return nil
	}
	e.refs--
	if e.refs > 0 {
		return nil
	}

	delete(c.entries, model)
	logger.Debug("unloading embedding model %q", model)
	return e.service.Close()
}

// Ensure Handle implements the interface.
var _ driven.EmbeddingService = (*Handle)(nil)

// Handle is one holder's reference to a cached embedding service.
// It forwards every call to the shared service; Close releases the
// reference rather than closing the shared service directly.
type Handle struct {
	cache   *Cache
	model   string
	service driven.EmbeddingService

	once sync.Once
}

// Embed generates a vector embedding for the given text.
func (h *Handle) Embed(ctx context.Context, text string) ([]float32, error) {
	return h.service.Embed(ctx, text)
}

// EmbedBatch generates embeddings for multiple texts.
func (h *Handle) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return h.service.EmbedBatch(ctx, texts)
}

// Dimensions returns the embedding vector size.
func (h *Handle) Dimensions() int { return h.service.Dimensions() }

// ModelName returns the embedding model identifier.
func (h *Handle) ModelName() string { return h.service.ModelName() }

// Ping validates the shared service is reachable.
func (h *Handle) Ping(ctx context.Context) error { return h.service.Ping(ctx) }

// Close releases this handle's reference. Idempotent.
func (h *Handle) Close() error {
	var err error
	h.once.Do(func() {
		err = h.cache.release(h.model)
	})
	return err
}
