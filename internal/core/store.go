// ABOUTME: ChunkStore is the persistence boundary for transcript chunk trees
// ABOUTME: Implemented by the SQLite store and the Charm KV store
package core

import (
	"context"
	"errors"

	"github.com/harper/podcast-index/internal/models"
)

var (
	// ErrNotFound is returned when a transcript or chunk does not exist
	ErrNotFound = errors.New("not found")

	// ErrEmptyTranscript is returned when there is nothing to index
	ErrEmptyTranscript = errors.New("transcript has no indexable text")
)

// ChunkStore persists chunk trees and serves similarity search
type ChunkStore interface {
	ChunkLookup

	// SaveTree stores a transcript and its chunks atomically. chunks and vectors
	// are parallel slices in creation order; the returned map is
	// sequence index → durable chunk id.
	SaveTree(ctx context.Context, transcript *models.Transcript, chunks []models.Chunk, vectors [][]float64) (map[int]string, error)

	SearchSimilar(ctx context.Context, vector []float64, opts models.SearchOptions) ([]models.SearchResult, error)
	GetTranscript(ctx context.Context, id string) (*models.Transcript, error)
	ListTranscripts(ctx context.Context) ([]models.Transcript, error)
	ListChunks(ctx context.Context, transcriptID string, level models.Level) ([]models.StoredChunk, error)
	DeleteTranscript(ctx context.Context, id string) error
	Close() error
}

// RemapParents resolves provisional parent references into durable ids using
// the sequence → id table built while persisting in creation order
func RemapParents(chunks []models.Chunk, ids map[int]string) map[int]string {
	parents := make(map[int]string, len(chunks))
	for _, c := range chunks {
		if c.ParentRef == nil {
			continue
		}
		if id, ok := ids[*c.ParentRef]; ok {
			parents[c.SequenceIndex] = id
		}
	}
	return parents
}
