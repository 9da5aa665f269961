// ABOUTME: Batching embedder that adapts a provider backend to core.Embedder
// ABOUTME: Caps item size, batches requests and bisects batches the server rejects
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harper/podcast-index/internal/core"
)

const (
	// DefaultEmbedBatchSize stays well below the 2048-input API cap
	DefaultEmbedBatchSize = 64
	// DefaultEmbedMaxChars keeps single inputs under the model token limit
	DefaultEmbedMaxChars = 8000
)

// EmbeddingBackend embeds one request worth of texts
type EmbeddingBackend interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
}

// BatchEmbedder implements core.Embedder on top of an EmbeddingBackend
type BatchEmbedder struct {
	backend   EmbeddingBackend
	batchSize int
	maxChars  int
	logger    *slog.Logger

	dimension int
}

var _ core.Embedder = (*BatchEmbedder)(nil)

// NewBatchEmbedder wraps backend. Non-positive sizes select the defaults.
func NewBatchEmbedder(backend EmbeddingBackend, batchSize, maxChars int, logger *slog.Logger) *BatchEmbedder {
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	if maxChars <= 0 {
		maxChars = DefaultEmbedMaxChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchEmbedder{
		backend:   backend,
		batchSize: batchSize,
		maxChars:  maxChars,
		logger:    logger,
	}
}

// Embed returns one vector per input, in input order. All vectors share a
// dimension; the first successful batch fixes it for the embedder's lifetime.
func (e *BatchEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	capped := make([]string, len(texts))
	for i, t := range texts {
		capped[i] = core.TruncateText(t, e.maxChars)
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(capped); start += e.batchSize {
		end := min(start+e.batchSize, len(capped))
		vectors, err := e.embedBatch(ctx, capped[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed items %d-%d: %w", start, end-1, err)
		}
		out = append(out, vectors...)
	}

	for i, v := range out {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty embedding for item %d", ErrMalformedResponse, i)
		}
		if e.dimension == 0 {
			e.dimension = len(v)
		}
		if len(v) != e.dimension {
			return nil, fmt.Errorf("%w: embedding %d dimension mismatch: got %d, want %d", ErrMalformedResponse, i, len(v), e.dimension)
		}
	}
	return out, nil
}

// embedBatch sends batch, halving it on server-side failures until single
// items fail on their own
func (e *BatchEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float64, error) {
	vectors, err := e.backend.EmbedTexts(ctx, batch)
	if err == nil {
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: count mismatch: got %d, want %d", ErrMalformedResponse, len(vectors), len(batch))
		}
		return vectors, nil
	}

	if len(batch) <= 1 || !IsServerError(err) || ctx.Err() != nil {
		return nil, err
	}

	mid := len(batch) / 2
	e.logger.Warn("embedding batch failed server-side, bisecting",
		"size", len(batch), "error", err)

	left, err := e.embedBatch(ctx, batch[:mid])
	if err != nil {
		return nil, err
	}
	right, err := e.embedBatch(ctx, batch[mid:])
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

// Dimension reports the vector size seen so far, 0 before the first call
func (e *BatchEmbedder) Dimension() int {
	return e.dimension
}

