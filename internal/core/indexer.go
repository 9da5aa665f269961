// ABOUTME: Indexer runs the ingestion pipeline for one transcript end to end
// ABOUTME: Align → segment → split → embed → transactional save with id remap
package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harper/podcast-index/internal/models"
)

// IndexRequest is one transcript to ingest
type IndexRequest struct {
	Title  string
	Source string
	Text   string
}

// Indexer wires the pipeline stages to an embedder and a store
type Indexer struct {
	aligner   *TimestampAligner
	segmenter *ChapterSegmenter
	splitter  *HierarchicalSplitter
	embedder  Embedder
	store     ChunkStore
	logger    *slog.Logger
}

// NewIndexer creates an Indexer
func NewIndexer(segmenter *ChapterSegmenter, splitter *HierarchicalSplitter, embedder Embedder, store ChunkStore, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		aligner:   NewTimestampAligner(),
		segmenter: segmenter,
		splitter:  splitter,
		embedder:  embedder,
		store:     store,
		logger:    logger,
	}
}

// BuildTree runs the text stages only and returns the provisional tree
func (ix *Indexer) BuildTree(ctx context.Context, raw string) ([]models.Chunk, Segmentation, error) {
	aligned := ix.aligner.Align(raw)
	if strings.TrimSpace(aligned.Text) == "" {
		return nil, Segmentation{}, ErrEmptyTranscript
	}
	if len(aligned.Anchors) == 0 {
		ix.logger.Info("no timestamps found, time ranges will be unresolved")
	}

	seg := ix.segmenter.Segment(ctx, aligned)

	chunks, err := ix.splitter.Split(ctx, aligned, seg)
	if err != nil {
		return nil, seg, err
	}
	return chunks, seg, nil
}

// Index ingests one transcript. Embedding and summary failures abort the
// whole operation and nothing is persisted.
func (ix *Indexer) Index(ctx context.Context, req IndexRequest) (*models.Transcript, error) {
	start := time.Now()

	chunks, seg, err := ix.BuildTree(ctx, req.Text)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	episode := chunks[0]
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = fmt.Sprintf("Episode with %s", episode.GuestName)
	}

	transcript := &models.Transcript{
		ID:          "tr_" + uuid.New().String(),
		Title:       title,
		Source:      req.Source,
		GuestName:   episode.GuestName,
		Summary:     episode.Summary,
		ChunkCount:  len(chunks),
		LevelCounts: models.CountLevels(chunks),
		Degraded:    seg.Degraded,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := ix.store.SaveTree(ctx, transcript, chunks, vectors); err != nil {
		return nil, fmt.Errorf("saving chunk tree: %w", err)
	}

	ix.logger.Info("indexed transcript",
		"transcript_id", transcript.ID,
		"chunks", len(chunks),
		"topics", transcript.LevelCounts[models.LevelTopic],
		"degraded", seg.Degraded,
		"duration_ms", time.Since(start).Milliseconds())
	return transcript, nil
}
