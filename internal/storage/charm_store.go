// ABOUTME: Charm KV implementation of core.ChunkStore with cosine similarity search
// ABOUTME: Chunk records are written first; the transcript record marks the tree visible
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harper/podcast-index/internal/charm"
	"github.com/harper/podcast-index/internal/core"
	"github.com/harper/podcast-index/internal/models"
	"github.com/harper/podcast-index/internal/storage/sqlite"
)

// KV is the subset of the charm client the store needs
type KV interface {
	SetJSON(key string, value any) error
	GetJSON(key string, dest any) error
	Delete(key string) error
	ListKeys(prefix string) ([]string, error)
	Sync() error
	Close() error
}

// CharmStore keeps transcripts and chunks in a cloud-synced Charm KV
type CharmStore struct {
	kv KV
}

var _ core.ChunkStore = (*CharmStore)(nil)

// NewCharmStore creates a store over kv
func NewCharmStore(kv KV) *CharmStore {
	return &CharmStore{kv: kv}
}

// SaveTree writes every chunk, then the transcript record. On failure the
// chunks already written are removed so the tree never becomes visible.
func (s *CharmStore) SaveTree(ctx context.Context, transcript *models.Transcript, chunks []models.Chunk, vectors [][]float64) (map[int]string, error) {
	if transcript == nil || transcript.ID == "" {
		return nil, fmt.Errorf("transcript id is required")
	}
	if len(chunks) == 0 {
		return nil, core.ErrEmptyTranscript
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}
	createdAt := transcript.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	ids := make(map[int]string, len(chunks))
	for _, c := range chunks {
		if _, dup := ids[c.SequenceIndex]; dup {
			return nil, fmt.Errorf("duplicate sequence index %d", c.SequenceIndex)
		}
		ids[c.SequenceIndex] = "chunk_" + uuid.New().String()
	}
	parents := core.RemapParents(chunks, ids)

	var written []string
	rollback := func() {
		for _, key := range written {
			_ = s.kv.Delete(key)
		}
	}

	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			rollback()
			return nil, err
		}
		stored := models.StoredChunk{
			ID:            ids[c.SequenceIndex],
			TranscriptID:  transcript.ID,
			ParentID:      parents[c.SequenceIndex],
			Level:         c.Level,
			SequenceIndex: c.SequenceIndex,
			Text:          c.Text,
			FullText:      c.FullText,
			TimeRange:     c.TimeRange,
			Speaker:       c.Speaker,
			TopicBoundary: c.TopicBoundary,
			Title:         c.Title,
			Theme:         c.Theme,
			Summary:       c.Summary,
			GuestName:     c.GuestName,
			Vector:        vectors[i],
			CreatedAt:     createdAt,
		}
		key := charm.ChunkKey(transcript.ID, stored.ID)
		if err := s.kv.SetJSON(key, stored); err != nil {
			rollback()
			return nil, fmt.Errorf("failed to save chunk %d: %w", c.SequenceIndex, err)
		}
		written = append(written, key)
	}

	record := *transcript
	record.CreatedAt = createdAt
	if err := s.kv.SetJSON(charm.TranscriptKey(transcript.ID), record); err != nil {
		rollback()
		return nil, fmt.Errorf("failed to save transcript: %w", err)
	}

	_ = s.kv.Sync()
	return ids, nil
}

// SearchSimilar performs cosine similarity search across visible chunks
func (s *CharmStore) SearchSimilar(ctx context.Context, vector []float64, opts models.SearchOptions) ([]models.SearchResult, error) {
	visible, err := s.transcriptIDs()
	if err != nil {
		return nil, err
	}

	prefix := charm.ChunkPrefix
	if opts.TranscriptID != "" {
		prefix = charm.TranscriptChunkPrefix(opts.TranscriptID)
	}
	keys, err := s.kv.ListKeys(prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk keys: %w", err)
	}

	var results []models.SearchResult
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var chunk models.StoredChunk
		if err := s.kv.GetJSON(key, &chunk); err != nil {
			continue
		}
		if !visible[chunk.TranscriptID] || !levelAllowed(chunk.Level, opts.Levels) {
			continue
		}

		similarity := sqlite.CosineSimilarity(vector, chunk.Vector)
		if similarity < opts.MinSimilarity {
			continue
		}
		chunk.Vector = nil
		results = append(results, models.SearchResult{
			Chunk:      chunk,
			Similarity: similarity,
			Score:      similarity,
		})
	}

	// KV key order is arbitrary; settle ties by tree position
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		if results[i].Chunk.TranscriptID != results[j].Chunk.TranscriptID {
			return results[i].Chunk.TranscriptID < results[j].Chunk.TranscriptID
		}
		return results[i].Chunk.SequenceIndex < results[j].Chunk.SequenceIndex
	})

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// GetChunk finds a chunk by id
func (s *CharmStore) GetChunk(ctx context.Context, id string) (*models.StoredChunk, error) {
	keys, err := s.kv.ListKeys(charm.ChunkPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk keys: %w", err)
	}
	for _, key := range keys {
		if !strings.HasSuffix(key, ":"+id) {
			continue
		}
		var chunk models.StoredChunk
		if err := s.kv.GetJSON(key, &chunk); err != nil {
			return nil, fmt.Errorf("failed to load chunk %s: %w", id, err)
		}
		chunk.Vector = nil
		return &chunk, nil
	}
	return nil, fmt.Errorf("chunk %s: %w", id, core.ErrNotFound)
}

// GetTranscript returns one transcript record
func (s *CharmStore) GetTranscript(ctx context.Context, id string) (*models.Transcript, error) {
	var t models.Transcript
	if err := s.kv.GetJSON(charm.TranscriptKey(id), &t); err != nil {
		if errors.Is(err, charm.ErrKeyNotFound) {
			return nil, fmt.Errorf("transcript %s: %w", id, core.ErrNotFound)
		}
		return nil, err
	}
	return &t, nil
}

// ListTranscripts returns all transcripts, newest first
func (s *CharmStore) ListTranscripts(ctx context.Context) ([]models.Transcript, error) {
	keys, err := s.kv.ListKeys(charm.TranscriptPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcript keys: %w", err)
	}

	out := make([]models.Transcript, 0, len(keys))
	for _, key := range keys {
		var t models.Transcript
		if err := s.kv.GetJSON(key, &t); err != nil {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListChunks returns a visible transcript's chunks in creation order
func (s *CharmStore) ListChunks(ctx context.Context, transcriptID string, level models.Level) ([]models.StoredChunk, error) {
	if _, err := s.GetTranscript(ctx, transcriptID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	keys, err := s.kv.ListKeys(charm.TranscriptChunkPrefix(transcriptID))
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk keys: %w", err)
	}

	var out []models.StoredChunk
	for _, key := range keys {
		var chunk models.StoredChunk
		if err := s.kv.GetJSON(key, &chunk); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", key, err)
		}
		if level != "" && chunk.Level != level {
			continue
		}
		chunk.Vector = nil
		out = append(out, chunk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceIndex < out[j].SequenceIndex })
	return out, nil
}

// DeleteTranscript hides the tree by removing the transcript record first,
// then removes its chunks
func (s *CharmStore) DeleteTranscript(ctx context.Context, id string) error {
	if _, err := s.GetTranscript(ctx, id); err != nil {
		return err
	}
	if err := s.kv.Delete(charm.TranscriptKey(id)); err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}

	keys, err := s.kv.ListKeys(charm.TranscriptChunkPrefix(id))
	if err != nil {
		return fmt.Errorf("failed to list chunk keys: %w", err)
	}
	for _, key := range keys {
		if err := s.kv.Delete(key); err != nil {
			return fmt.Errorf("failed to delete chunk: %w", err)
		}
	}

	_ = s.kv.Sync()
	return nil
}

// SyncNow forces a round trip with the charm cloud when the KV supports it
func (s *CharmStore) SyncNow() error {
	if f, ok := s.kv.(interface{ SyncNow() error }); ok {
		return f.SyncNow()
	}
	return s.kv.Sync()
}

// Close closes the underlying KV
func (s *CharmStore) Close() error {
	return s.kv.Close()
}

// transcriptIDs returns the set of committed transcripts
func (s *CharmStore) transcriptIDs() (map[string]bool, error) {
	keys, err := s.kv.ListKeys(charm.TranscriptPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcript keys: %w", err)
	}
	ids := make(map[string]bool, len(keys))
	for _, key := range keys {
		ids[strings.TrimPrefix(key, charm.TranscriptPrefix)] = true
	}
	return ids, nil
}

func levelAllowed(level models.Level, levels []models.Level) bool {
	if len(levels) == 0 {
		return true
	}
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}
