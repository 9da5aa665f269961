// ABOUTME: Test doubles for oracles, embedders and the chunk store
// ABOUTME: Shared by the pipeline and retrieval tests in this package
package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/harper/podcast-index/internal/models"
)

type fakeChapterOracle struct {
	chapters []models.ChapterCandidate
	err      error
	gotText  string
}

func (f *fakeChapterOracle) IdentifyChapters(ctx context.Context, text string) ([]models.ChapterCandidate, error) {
	f.gotText = text
	return f.chapters, f.err
}

type fakeSummarizer struct {
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	return f.summary, f.err
}

type fakeGuest struct {
	name string
	err  error
}

func (f *fakeGuest) ExtractGuest(ctx context.Context, text string) (string, error) {
	return f.name, f.err
}

// fakeEmbedder returns a deterministic 3-d vector per text
type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)%7) + 1, float64(strings.Count(t, " ")%5) + 1, 1}
	}
	return out, nil
}

// memStore is an in-memory ChunkStore
type memStore struct {
	mu          sync.Mutex
	transcripts map[string]models.Transcript
	chunks      map[string]models.StoredChunk
	saveErr     error
	pool        []models.SearchResult
	lastOpts    models.SearchOptions
	saves       int
}

func newMemStore() *memStore {
	return &memStore{
		transcripts: make(map[string]models.Transcript),
		chunks:      make(map[string]models.StoredChunk),
	}
}

func (m *memStore) SaveTree(ctx context.Context, transcript *models.Transcript, chunks []models.Chunk, vectors [][]float64) (map[int]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saves++

	ids := make(map[int]string, len(chunks))
	for _, c := range chunks {
		ids[c.SequenceIndex] = fmt.Sprintf("%s_c%d", transcript.ID, c.SequenceIndex)
	}
	parents := RemapParents(chunks, ids)
	for i, c := range chunks {
		m.chunks[ids[c.SequenceIndex]] = models.StoredChunk{
			ID:            ids[c.SequenceIndex],
			TranscriptID:  transcript.ID,
			ParentID:      parents[c.SequenceIndex],
			Level:         c.Level,
			SequenceIndex: c.SequenceIndex,
			Text:          c.Text,
			Vector:        vectors[i],
		}
	}
	m.transcripts[transcript.ID] = *transcript
	return ids, nil
}

func (m *memStore) SearchSimilar(ctx context.Context, vector []float64, opts models.SearchOptions) ([]models.SearchResult, error) {
	m.lastOpts = opts
	return m.pool, nil
}

func (m *memStore) GetChunk(ctx context.Context, id string) (*models.StoredChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chunks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *memStore) GetTranscript(ctx context.Context, id string) (*models.Transcript, error) {
	t, ok := m.transcripts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *memStore) ListTranscripts(ctx context.Context) ([]models.Transcript, error) {
	var out []models.Transcript
	for _, t := range m.transcripts {
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) ListChunks(ctx context.Context, transcriptID string, level models.Level) ([]models.StoredChunk, error) {
	var out []models.StoredChunk
	for _, c := range m.chunks {
		if c.TranscriptID == transcriptID && (level == "" || c.Level == level) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceIndex < out[j].SequenceIndex })
	return out, nil
}

func (m *memStore) DeleteTranscript(ctx context.Context, id string) error {
	if _, ok := m.transcripts[id]; !ok {
		return ErrNotFound
	}
	delete(m.transcripts, id)
	return nil
}

func (m *memStore) Close() error { return nil }

var errOracleDown = errors.New("oracle unavailable")

// speakerTranscript builds an untimed transcript of alternating speakers
func speakerTranscript(lines int) string {
	var b strings.Builder
	for i := 0; i < lines; i++ {
		speaker := "Host"
		if i%2 == 1 {
			speaker = "Guest"
		}
		fmt.Fprintf(&b, "%s: This is sentence number %d about distributed systems and careful engineering. We keep discussing item %d at length today.\n", speaker, i, i)
	}
	return b.String()
}

// chapteredTranscript builds a timed transcript with three sections and
// returns the raw text plus the opening line of each section
func chapteredTranscript() (string, []string) {
	openings := []string{
		"Host: Welcome back to the podcast, today we talk about robots.",
		"Guest: Let me tell you about the first robot I ever built.",
		"Host: Now let us turn to the future of artificial intelligence.",
	}
	times := []string{"[00:00:00]", "[00:10:00]", "[00:20:00]"}

	var b strings.Builder
	for s, opening := range openings {
		fmt.Fprintf(&b, "%s %s\n", times[s], opening)
		for i := 0; i < 5; i++ {
			fmt.Fprintf(&b, "Filler line %d of section %d keeps the conversation going for a while.\n", i, s)
		}
	}
	return b.String(), openings
}

// srtTranscript builds subtitle cues 10 seconds apart, one dialogue line each.
// The returned lines are the cue texts in order.
func srtTranscript(cues int) (string, []string) {
	var b strings.Builder
	lines := make([]string, cues)
	for i := 0; i < cues; i++ {
		start := i * 10
		end := start + 9
		lines[i] = fmt.Sprintf("Speaker %d: cue number %d talks about subject %d at length.", i%2, i, i/13)
		fmt.Fprintf(&b, "%d\n%02d:%02d:%02d,000 --> %02d:%02d:%02d,500\n%s\n\n",
			i+1,
			start/3600, (start/60)%60, start%60,
			end/3600, (end/60)%60, end%60,
			lines[i])
	}
	return b.String(), lines
}
