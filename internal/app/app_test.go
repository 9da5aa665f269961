// ABOUTME: End-to-end tests for the wired pipeline over in-memory SQLite
// ABOUTME: Uses scripted oracles and a bag-of-words embedding backend
package app

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"testing"

	"github.com/harper/podcast-index/internal/config"
	"github.com/harper/podcast-index/internal/core"
	"github.com/harper/podcast-index/internal/models"
	"github.com/harper/podcast-index/internal/storage/sqlite"
)

type scriptedOracles struct {
	chapters []models.ChapterCandidate
}

func (s *scriptedOracles) IdentifyChapters(ctx context.Context, text string) ([]models.ChapterCandidate, error) {
	if s.chapters == nil {
		return nil, errors.New("no chapters")
	}
	return s.chapters, nil
}

func (s *scriptedOracles) Summarize(ctx context.Context, text string) (string, error) {
	return "A conversation about robots and the future of AI.", nil
}

func (s *scriptedOracles) ExtractGuest(ctx context.Context, text string) (string, error) {
	return "Ada Lovelace", nil
}

// bagOfWords hashes words into a fixed-size vector
type bagOfWords struct{}

func (bagOfWords) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v := make([]float64, 64)
		for _, w := range strings.Fields(strings.ToLower(t)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(strings.Trim(w, ".,:?!")))
			v[h.Sum32()%64]++
		}
		norm := 0.0
		for _, x := range v {
			norm += x * x
		}
		if norm == 0 {
			v[0] = 1
		}
		out[i] = v
	}
	return out, nil
}

func testTranscript() string {
	openings := []string{
		"Host: Welcome back to the podcast, today we talk about robots.",
		"Ada: Let me tell you about the first robot I ever built.",
		"Host: Now let us turn to the future of artificial intelligence.",
	}
	times := []string{"[00:00:00]", "[00:10:00]", "[00:20:00]"}

	var b strings.Builder
	for s, opening := range openings {
		fmt.Fprintf(&b, "%s %s\n", times[s], opening)
		for i := 0; i < 6; i++ {
			fmt.Fprintf(&b, "Ada: Line %d of section %d explains how careful engineering keeps the robots working.\n", i, s)
		}
	}
	return b.String()
}

func testConfig() *config.Config {
	return &config.Config{
		Backend:            config.BackendSQLite,
		Provider:           config.ProviderOpenAI,
		EmbedBatchSize:     8,
		EmbedMaxChars:      8000,
		ChapterPrefixChars: 12000,
		MatchThreshold:     0.7,
		FallbackThreshold:  0.4,
		FallbackBlocks:     4,
		MinTopicChars:      200,
		ParagraphSize:      1000,
		ParagraphOverlap:   200,
		MinSimilarity:      0,
		OverFetchFactor:    2,
		LogLevel:           "info",
	}
}

func newTestService(t *testing.T, oracles *scriptedOracles) *Service {
	t.Helper()
	store, err := sqlite.NewStoreInMemory()
	if err != nil {
		t.Fatalf("NewStoreInMemory: %v", err)
	}
	svc := NewService(testConfig(), store, &Oracles{
		Chapters: oracles,
		Summary:  oracles,
		Guest:    oracles,
		Backend:  bagOfWords{},
	}, nil)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestIndexAndSearch(t *testing.T) {
	oracles := &scriptedOracles{chapters: []models.ChapterCandidate{
		{Title: "Welcome", Theme: "Intro", FirstSentence: "Welcome back to the podcast, today we talk about robots."},
		{Title: "First robot", Theme: "Origins", FirstSentence: "Let me tell you about the first robot I ever built."},
		{Title: "Future", Theme: "AI", FirstSentence: "Now let us turn to the future of artificial intelligence."},
	}}
	svc := newTestService(t, oracles)
	ctx := context.Background()

	transcript, err := svc.Indexer.Index(ctx, core.IndexRequest{Text: testTranscript(), Source: "robots.txt"})
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if transcript.Title != "Episode with Ada Lovelace" {
		t.Errorf("Title = %q", transcript.Title)
	}
	if transcript.Degraded {
		t.Error("chapters matched, transcript should not be degraded")
	}
	if transcript.LevelCounts[models.LevelEpisode] != 1 {
		t.Errorf("level counts = %v", transcript.LevelCounts)
	}

	topics, err := svc.Store.ListChunks(ctx, transcript.ID, models.LevelTopic)
	if err != nil {
		t.Fatalf("ListChunks: %v", err)
	}
	if len(topics) != 3 {
		t.Fatalf("got %d topics, want 3", len(topics))
	}
	if topics[1].Title != "First robot" || topics[1].TimeRange.Start != "00:10:00" {
		t.Errorf("topic 1 = %+v", topics[1])
	}

	hits, classification, err := svc.Retriever.Search(ctx, "what does Ada say about the first robot", core.SearchParams{Limit: 3})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if classification.Category != models.QuerySpecific {
		t.Errorf("category = %s, want specific", classification.Category)
	}
	if len(hits) == 0 || len(hits) > 3 {
		t.Fatalf("got %d hits", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score+1e-12 {
			t.Errorf("hits not sorted by score")
		}
	}
	if math.IsNaN(hits[0].Similarity) {
		t.Error("similarity is NaN")
	}
}

func TestIndexDegradedWithoutChapters(t *testing.T) {
	svc := newTestService(t, &scriptedOracles{})

	transcript, err := svc.Indexer.Index(context.Background(), core.IndexRequest{Title: "Robots", Text: testTranscript()})
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if !transcript.Degraded {
		t.Error("expected degraded segmentation")
	}
	if transcript.Title != "Robots" {
		t.Errorf("Title = %q", transcript.Title)
	}
	if transcript.LevelCounts[models.LevelTopic] == 0 {
		t.Error("degraded transcript still needs topics")
	}
}

func TestReadOnlyService(t *testing.T) {
	store, err := sqlite.NewStoreInMemory()
	if err != nil {
		t.Fatalf("NewStoreInMemory: %v", err)
	}
	svc := NewReadOnlyService(store, nil)
	defer func() { _ = svc.Close() }()

	if !svc.ReadOnly() {
		t.Error("expected read-only")
	}
	if !errors.Is(svc.RequireWritable(), ErrReadOnly) {
		t.Error("RequireWritable should return ErrReadOnly")
	}
	if got := svc.Classifier.Classify("episodes about robots"); got.Category != models.QueryBroad {
		t.Errorf("category = %s", got.Category)
	}
}

func TestConfigMapping(t *testing.T) {
	cfg := testConfig()
	cfg.MatchThreshold = 0.8
	cfg.ParagraphSize = 500
	cfg.StrictLevels = true

	if SegmenterConfig(cfg).MatchThreshold != 0.8 {
		t.Error("match threshold not mapped")
	}
	if SplitterConfig(cfg).ParagraphSize != 500 {
		t.Error("paragraph size not mapped")
	}
	if !RetrieverConfig(cfg).StrictLevels {
		t.Error("strict levels not mapped")
	}
}

func TestNewOraclesRequiresKey(t *testing.T) {
	cfg := testConfig()
	if _, err := NewOracles(cfg); err == nil {
		t.Error("openai without key should fail")
	}
}
