// ABOUTME: Retriever answers queries with level-weighted, contextualized hits
// ABOUTME: Classify → embed → over-fetch similarity search → rank → assemble context
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harper/podcast-index/internal/models"
)

// RetrieverConfig controls the search path
type RetrieverConfig struct {
	MinSimilarity   float64
	OverFetchFactor int
	// StrictLevels restricts the store query to the preferred levels
	StrictLevels bool
}

// DefaultRetrieverConfig returns the default search settings
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		MinSimilarity:   0.2,
		OverFetchFactor: 2,
	}
}

// SearchParams are per-query options
type SearchParams struct {
	Limit        int
	TranscriptID string
}

// Retriever runs the query path
type Retriever struct {
	classifier *QueryClassifier
	ranker     *LevelWeightedRanker
	assembler  *ContextAssembler
	embedder   Embedder
	store      ChunkStore
	config     RetrieverConfig
	logger     *slog.Logger
}

// NewRetriever creates a Retriever
func NewRetriever(embedder Embedder, store ChunkStore, config RetrieverConfig, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	if config.OverFetchFactor < 1 {
		config.OverFetchFactor = 1
	}
	return &Retriever{
		classifier: NewQueryClassifier(),
		ranker:     NewLevelWeightedRanker(),
		assembler:  NewContextAssembler(store, logger),
		embedder:   embedder,
		store:      store,
		config:     config,
		logger:     logger,
	}
}

// Classify exposes the routing decision for a query
func (r *Retriever) Classify(query string) models.Classification {
	return r.classifier.Classify(query)
}

// Search returns up to params.Limit hits with context. Query embedding failure
// is fatal.
func (r *Retriever) Search(ctx context.Context, query string, params SearchParams) ([]models.RankedHit, models.Classification, error) {
	classification := r.classifier.Classify(query)
	if strings.TrimSpace(query) == "" {
		return nil, classification, errors.New("query must not be empty")
	}
	if params.Limit <= 0 {
		params.Limit = 5
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, classification, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, classification, fmt.Errorf("embedding query: got %d vectors", len(vectors))
	}

	opts := models.SearchOptions{
		MinSimilarity: r.config.MinSimilarity,
		Limit:         params.Limit * r.config.OverFetchFactor,
		TranscriptID:  params.TranscriptID,
	}
	if r.config.StrictLevels {
		opts.Levels = classification.Levels
	}

	pool, err := r.store.SearchSimilar(ctx, vectors[0], opts)
	if err != nil {
		return nil, classification, fmt.Errorf("similarity search: %w", err)
	}

	ranked := r.ranker.Rank(pool, classification, params.Limit)

	hits := make([]models.RankedHit, 0, len(ranked))
	for _, res := range ranked {
		hits = append(hits, models.RankedHit{
			SearchResult: res,
			Context:      r.assembler.Assemble(ctx, res, pool),
		})
	}

	r.logger.Debug("search complete",
		"category", classification.Category,
		"pool", len(pool),
		"hits", len(hits))
	return hits, classification, nil
}
