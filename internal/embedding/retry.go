// Package embedding provides the process-wide embedding model cache
// and a retry decorator shared by all embedding adapters.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/policybot-io/policybot/internal/core/domain"
	"github.com/policybot-io/policybot/internal/core/ports/driven"
	"github.com/policybot-io/policybot/internal/logger"
)

// Ensure Retrying implements the interface.
var _ driven.EmbeddingService = (*Retrying)(nil)

// Default retry policy for transient embedding failures.
const (
	DefaultMaxRetries      = 4
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 10 * time.Second
)

// Retrying decorates an EmbeddingService with bounded exponential
// backoff. Transient failures are retried up to the attempt budget;
// after that the call escalates with domain.ErrEmbedding so the
// ingestion run aborts. Context cancellation and deadlines are never
// retried: they surface immediately.
type Retrying struct {
	inner      driven.EmbeddingService
	maxRetries uint64
}

// WithRetry wraps the service with the default retry policy.
func WithRetry(inner driven.EmbeddingService) *Retrying {
	return &Retrying{inner: inner, maxRetries: DefaultMaxRetries}
}

// WithRetryN wraps the service with a custom attempt budget.
func WithRetryN(inner driven.EmbeddingService, maxRetries uint64) *Retrying {
	return &Retrying{inner: inner, maxRetries: maxRetries}
}

// Embed generates an embedding, retrying transient failures.
func (r *Retrying) Embed(ctx context.Context, text string) ([]float32, error) {
	var result []float32
	err := r.retry(ctx, func() error {
		var err error
		result, err = r.inner.Embed(ctx, text)
		return err
	})
	return result, err
}

// EmbedBatch generates embeddings, retrying transient failures.
// The whole batch is retried: adapters are idempotent and partial
// results are never kept.
func (r *Retrying) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var result [][]float32
	err := r.retry(ctx, func() error {
		var err error
		result, err = r.inner.EmbedBatch(ctx, texts)
		return err
	})
	return result, err
}

// retry runs op under the backoff policy.
func (r *Retrying) retry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(newExponential(), r.maxRetries), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		// Cancellation is the caller's decision, not a transient
		// service failure.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		logger.Warn("embedding attempt %d failed: %v", attempt, err)
		return err
	}, policy)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: after %d attempts: %w", domain.ErrEmbedding, attempt, err)
}

func newExponential() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = DefaultInitialInterval
	b.MaxInterval = DefaultMaxInterval
	return b
}

// Dimensions returns the embedding vector size.
func (r *Retrying) Dimensions() int { return r.inner.Dimensions() }

// ModelName returns the embedding model identifier.
func (r *Retrying) ModelName() string { return r.inner.ModelName() }

// Ping validates the underlying service is reachable.
func (r *Retrying) Ping(ctx context.Context) error { return r.inner.Ping(ctx) }

// Close releases the underlying service.
func (r *Retrying) Close() error { return r.inner.Close() }
