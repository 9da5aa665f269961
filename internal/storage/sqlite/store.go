// ABOUTME: SQLite implementation of core.ChunkStore
// ABOUTME: Persists chunk trees transactionally and scans vectors for cosine search
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harper/podcast-index/internal/core"
	"github.com/harper/podcast-index/internal/models"
)

// Store manages transcripts and chunks in SQLite
type Store struct {
	db *DB
}

var _ core.ChunkStore = (*Store)(nil)

// NewStore initializes storage at the default path
func NewStore() (*Store, error) {
	return NewStoreWithPath(DefaultDBPath())
}

// NewStoreWithPath initializes storage with a custom database path
func NewStoreWithPath(dbPath string) (*Store, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreInMemory creates an in-memory store (for testing)
func NewStoreInMemory() (*Store, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveTree inserts the transcript and every chunk in creation order inside one
// transaction, then rewrites parent references to the durable ids
func (s *Store) SaveTree(ctx context.Context, transcript *models.Transcript, chunks []models.Chunk, vectors [][]float64) (map[int]string, error) {
	if transcript == nil || transcript.ID == "" {
		return nil, fmt.Errorf("transcript id is required")
	}
	if len(chunks) == 0 {
		return nil, core.ErrEmptyTranscript
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	counts, err := json.Marshal(transcript.LevelCounts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode level counts: %w", err)
	}
	createdAt := transcript.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transcripts (id, title, source, guest_name, summary, chunk_count, level_counts, degraded, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, transcript.ID, transcript.Title, nullString(transcript.Source), nullString(transcript.GuestName),
		nullString(transcript.Summary), transcript.ChunkCount, string(counts), boolToInt(transcript.Degraded), createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transcript: %w", err)
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, transcript_id, level, sequence_index, text, full_text, start_time, end_time,
			speaker, topic_boundary, title, theme, summary, guest_name, vector, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() { _ = insert.Close() }()

	ids := make(map[int]string, len(chunks))
	for i, c := range chunks {
		id := "chunk_" + uuid.New().String()
		_, err := insert.ExecContext(ctx,
			id, transcript.ID, string(c.Level), c.SequenceIndex, c.Text, nullString(c.FullText),
			c.TimeRange.Start, c.TimeRange.End, nullString(c.Speaker), boolToInt(c.TopicBoundary),
			nullString(c.Title), nullString(c.Theme), nullString(c.Summary), nullString(c.GuestName),
			vectorToBlob(vectors[i]), createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert chunk %d: %w", c.SequenceIndex, err)
		}
		ids[c.SequenceIndex] = id
	}

	update, err := tx.PrepareContext(ctx, `UPDATE chunks SET parent_id = ? WHERE id = ?`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare parent update: %w", err)
	}
	defer func() { _ = update.Close() }()

	for seq, parentID := range core.RemapParents(chunks, ids) {
		if _, err := update.ExecContext(ctx, parentID, ids[seq]); err != nil {
			return nil, fmt.Errorf("failed to link chunk %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit chunk tree: %w", err)
	}
	return ids, nil
}

// SearchSimilar scores every candidate chunk against vector and returns the
// best matches at or above MinSimilarity
func (s *Store) SearchSimilar(ctx context.Context, vector []float64, opts models.SearchOptions) ([]models.SearchResult, error) {
	query := `SELECT ` + chunkColumns + `, vector FROM chunks WHERE 1=1`
	var args []any

	if len(opts.Levels) > 0 {
		placeholders := make([]string, len(opts.Levels))
		for i, l := range opts.Levels {
			placeholders[i] = "?"
			args = append(args, string(l))
		}
		query += ` AND level IN (` + strings.Join(placeholders, ",") + `)`
	}
	if opts.TranscriptID != "" {
		query += ` AND transcript_id = ?`
		args = append(args, opts.TranscriptID)
	}
	query += ` ORDER BY transcript_id, sequence_index`

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []models.SearchResult
	for rows.Next() {
		var blob []byte
		chunk, err := scanChunk(rows, &blob)
		if err != nil {
			return nil, err
		}

		similarity := CosineSimilarity(vector, blobToVector(blob))
		if similarity < opts.MinSimilarity {
			continue
		}
		results = append(results, models.SearchResult{
			Chunk:      *chunk,
			Similarity: similarity,
			Score:      similarity,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// GetChunk returns one chunk by durable id
func (s *Store) GetChunk(ctx context.Context, id string) (*models.StoredChunk, error) {
	row := s.db.conn.QueryRowContext(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE id = ?`, id)
	chunk, err := scanChunk(row, nil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chunk %s: %w", id, core.ErrNotFound)
	}
	return chunk, err
}

// GetTranscript returns one transcript record
func (s *Store) GetTranscript(ctx context.Context, id string) (*models.Transcript, error) {
	row := s.db.conn.QueryRowContext(ctx, `SELECT `+transcriptColumns+` FROM transcripts WHERE id = ?`, id)
	t, err := scanTranscript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transcript %s: %w", id, core.ErrNotFound)
	}
	return t, err
}

// ListTranscripts returns all transcripts, newest first
func (s *Store) ListTranscripts(ctx context.Context) ([]models.Transcript, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT `+transcriptColumns+` FROM transcripts ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Transcript
	for rows.Next() {
		t, err := scanTranscript(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// ListChunks returns a transcript's chunks in creation order; an empty level
// returns every level
func (s *Store) ListChunks(ctx context.Context, transcriptID string, level models.Level) ([]models.StoredChunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE transcript_id = ?`
	args := []any{transcriptID}
	if level != "" {
		query += ` AND level = ?`
		args = append(args, string(level))
	}
	query += ` ORDER BY sequence_index`

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.StoredChunk
	for rows.Next() {
		c, err := scanChunk(rows, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// DeleteTranscript removes a transcript; its chunks cascade
func (s *Store) DeleteTranscript(ctx context.Context, id string) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM transcripts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("transcript %s: %w", id, core.ErrNotFound)
	}
	return nil
}

const chunkColumns = `id, transcript_id, parent_id, level, sequence_index, text, full_text, start_time, end_time,
	speaker, topic_boundary, title, theme, summary, guest_name, created_at`

const transcriptColumns = `id, title, source, guest_name, summary, chunk_count, level_counts, degraded, created_at`

type scanner interface {
	Scan(dest ...any) error
}

// scanChunk reads chunkColumns, plus the vector BLOB when blob is non-nil
func scanChunk(row scanner, blob *[]byte) (*models.StoredChunk, error) {
	var (
		c                                         models.StoredChunk
		level                                     string
		parentID, fullText, startTime, endTime    sql.NullString
		speaker, title, theme, summary, guestName sql.NullString
		topicBoundary                             int
	)
	dest := []any{
		&c.ID, &c.TranscriptID, &parentID, &level, &c.SequenceIndex, &c.Text, &fullText,
		&startTime, &endTime, &speaker, &topicBoundary, &title, &theme, &summary, &guestName, &c.CreatedAt,
	}
	if blob != nil {
		dest = append(dest, blob)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	c.Level = models.Level(level)
	c.ParentID = parentID.String
	c.FullText = fullText.String
	c.TimeRange = models.TimeRange{Start: orSentinel(startTime), End: orSentinel(endTime)}
	c.Speaker = speaker.String
	c.TopicBoundary = topicBoundary != 0
	c.Title = title.String
	c.Theme = theme.String
	c.Summary = summary.String
	c.GuestName = guestName.String
	return &c, nil
}

func scanTranscript(row scanner) (*models.Transcript, error) {
	var (
		t                          models.Transcript
		source, guestName, summary sql.NullString
		counts                     sql.NullString
		degraded                   int
	)
	err := row.Scan(&t.ID, &t.Title, &source, &guestName, &summary, &t.ChunkCount, &counts, &degraded, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	t.Source = source.String
	t.GuestName = guestName.String
	t.Summary = summary.String
	t.Degraded = degraded != 0
	t.LevelCounts = make(map[models.Level]int)
	if counts.Valid && counts.String != "" {
		if err := json.Unmarshal([]byte(counts.String), &t.LevelCounts); err != nil {
			return nil, fmt.Errorf("failed to decode level counts: %w", err)
		}
	}
	return &t, nil
}

func orSentinel(s sql.NullString) string {
	if !s.Valid || s.String == "" {
		return models.UnresolvedTimestamp
	}
	return s.String
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
