// ABOUTME: Tests for HierarchicalSplitter tree construction
// ABOUTME: Verifies level invariants, parent resolution, fallbacks and determinism
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/harper/podcast-index/internal/models"
)

func splitRaw(t *testing.T, oracle ChapterOracle, summarizer Summarizer, guest GuestExtractor, raw string) []models.Chunk {
	t.Helper()
	aligned := NewTimestampAligner().Align(raw)
	seg := NewChapterSegmenter(oracle, DefaultSegmenterConfig(), nil).Segment(context.Background(), aligned)
	splitter := NewHierarchicalSplitter(summarizer, guest, DefaultSplitterConfig(), nil)
	chunks, err := splitter.Split(context.Background(), aligned, seg)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	return chunks
}

func bySequence(chunks []models.Chunk) map[int]models.Chunk {
	m := make(map[int]models.Chunk, len(chunks))
	for _, c := range chunks {
		m[c.SequenceIndex] = c
	}
	return m
}

func ofLevel(chunks []models.Chunk, level models.Level) []models.Chunk {
	var out []models.Chunk
	for _, c := range chunks {
		if c.Level == level {
			out = append(out, c)
		}
	}
	return out
}

func TestSplit_TreeInvariants(t *testing.T) {
	chunks := splitRaw(t, nil, &fakeSummarizer{summary: "A talk."}, &fakeGuest{name: "Ada"}, speakerTranscript(60))

	episodes := ofLevel(chunks, models.LevelEpisode)
	if len(episodes) != 1 {
		t.Fatalf("expected exactly one episode chunk, got %d", len(episodes))
	}
	if episodes[0].ParentRef != nil {
		t.Error("episode chunk must not have a parent")
	}

	seq := bySequence(chunks)
	if len(seq) != len(chunks) {
		t.Fatal("sequence indexes are not unique")
	}

	for i, c := range chunks {
		if c.SequenceIndex != i {
			t.Errorf("chunk %d has sequence %d", i, c.SequenceIndex)
		}
		if c.Level == models.LevelEpisode {
			continue
		}
		if c.ParentRef == nil {
			t.Fatalf("chunk %d (%s) has no parent", i, c.Level)
		}
		if *c.ParentRef >= c.SequenceIndex {
			t.Errorf("chunk %d parent %d was not created first", i, *c.ParentRef)
		}

		cur := c
		for steps := 0; cur.ParentRef != nil; steps++ {
			if steps > 3 {
				t.Fatalf("chunk %d parent chain too deep", i)
			}
			cur = seq[*cur.ParentRef]
		}
		if cur.Level != models.LevelEpisode {
			t.Errorf("chunk %d chain ends at %s, want episode", i, cur.Level)
		}
	}

	if len(ofLevel(chunks, models.LevelParagraph)) == 0 {
		t.Error("expected paragraph chunks")
	}
	if len(ofLevel(chunks, models.LevelSentence)) == 0 {
		t.Error("expected sentence chunks")
	}
}

func TestSplit_NoTimestampsUsesSentinel(t *testing.T) {
	chunks := splitRaw(t, nil, &fakeSummarizer{summary: "s"}, nil, speakerTranscript(30))

	for _, c := range chunks {
		if c.TimeRange.Start != models.UnresolvedTimestamp || c.TimeRange.End != models.UnresolvedTimestamp {
			t.Errorf("%s chunk %d time range = %+v, want sentinel", c.Level, c.SequenceIndex, c.TimeRange)
		}
	}
}

func TestSplit_EpisodeChunk(t *testing.T) {
	raw := speakerTranscript(100)
	chunks := splitRaw(t, nil, &fakeSummarizer{summary: "Summary text"}, &fakeGuest{err: errOracleDown}, raw)
	ep := chunks[0]

	if ep.Level != models.LevelEpisode {
		t.Fatalf("first chunk level = %s, want episode", ep.Level)
	}
	if len(ep.FullText) <= 8000 {
		t.Fatalf("test transcript too short: %d", len(ep.FullText))
	}
	if len(ep.Text) != 8003 || !strings.HasSuffix(ep.Text, "...") {
		t.Errorf("episode Text length = %d, want 8000 plus ellipsis", len(ep.Text))
	}
	if ep.Summary != "Summary text" {
		t.Errorf("Summary = %q", ep.Summary)
	}
	if ep.GuestName != DefaultGuestName {
		t.Errorf("GuestName = %q, want %q", ep.GuestName, DefaultGuestName)
	}
	if ep.CharRange.Start != 0 || ep.CharRange.End != len(ep.FullText) {
		t.Errorf("episode CharRange = %+v", ep.CharRange)
	}
	if ep.TopicBoundary {
		t.Error("episode must not be a topic boundary")
	}
}

func TestSplit_SummaryFailureIsFatal(t *testing.T) {
	aligned := NewTimestampAligner().Align(speakerTranscript(20))
	seg := NewChapterSegmenter(nil, DefaultSegmenterConfig(), nil).Segment(context.Background(), aligned)

	summarizer := WithSummaryFallback(&fakeSummarizer{err: errOracleDown}, 6000, true, nil)
	splitter := NewHierarchicalSplitter(summarizer, nil, DefaultSplitterConfig(), nil)

	_, err := splitter.Split(context.Background(), aligned, seg)
	if !errors.Is(err, errOracleDown) {
		t.Errorf("Split() error = %v, want oracle error", err)
	}
}

func TestSplit_ChapterTopics(t *testing.T) {
	raw, openings := chapteredTranscript()
	oracle := &fakeChapterOracle{chapters: []models.ChapterCandidate{
		{Title: "Intro", Theme: "robots", FirstSentence: openings[0]},
		{Title: "First robot", Theme: "history", FirstSentence: openings[1]},
		{Title: "Future", Theme: "AI", FirstSentence: openings[2]},
	}}

	chunks := splitRaw(t, oracle, &fakeSummarizer{summary: "s"}, &fakeGuest{name: "Ada"}, raw)
	topics := ofLevel(chunks, models.LevelTopic)

	if len(topics) != 3 {
		t.Fatalf("expected 3 topics, got %d", len(topics))
	}

	episodeLen := chunks[0].CharRange.End
	if topics[0].CharRange.Start != 0 || topics[2].CharRange.End != episodeLen {
		t.Errorf("topics do not cover transcript: first %+v last %+v", topics[0].CharRange, topics[2].CharRange)
	}
	for i := 0; i+1 < len(topics); i++ {
		if topics[i].CharRange.End != topics[i+1].CharRange.Start {
			t.Errorf("topic %d and %d are not contiguous", i, i+1)
		}
	}

	wantSpeakers := []string{"Host", "Guest", "Host"}
	wantTimes := []models.TimeRange{
		{Start: "00:00:00", End: "00:10:00"},
		{Start: "00:10:00", End: "00:20:00"},
		{Start: "00:20:00", End: "00:20:00"},
	}
	for i, topic := range topics {
		if !topic.TopicBoundary {
			t.Errorf("topic %d TopicBoundary = false", i)
		}
		if *topic.ParentRef != 0 {
			t.Errorf("topic %d parent = %d, want episode", i, *topic.ParentRef)
		}
		if topic.Speaker != wantSpeakers[i] {
			t.Errorf("topic %d speaker = %q, want %q", i, topic.Speaker, wantSpeakers[i])
		}
		if topic.TimeRange != wantTimes[i] {
			t.Errorf("topic %d time = %+v, want %+v", i, topic.TimeRange, wantTimes[i])
		}
	}
	if topics[1].Title != "First robot" || topics[1].Theme != "history" {
		t.Errorf("topic metadata = %q/%q", topics[1].Title, topics[1].Theme)
	}

	seq := bySequence(chunks)
	for _, p := range ofLevel(chunks, models.LevelParagraph) {
		parent := seq[*p.ParentRef]
		if parent.Level != models.LevelTopic {
			t.Errorf("paragraph %d parent level = %s, want topic", p.SequenceIndex, parent.Level)
			continue
		}
		if !parent.CharRange.Contains(p.CharRange.Start) {
			t.Errorf("paragraph %d start %d outside parent topic %+v", p.SequenceIndex, p.CharRange.Start, parent.CharRange)
		}
	}

	first := ofLevel(chunks, models.LevelParagraph)[0]
	if first.TimeRange.Start != "00:00:00" || first.TimeRange.End != "00:10:00" {
		t.Errorf("first paragraph time = %+v", first.TimeRange)
	}
}

func TestSplit_ShortChaptersDropped(t *testing.T) {
	raw, openings := chapteredTranscript()
	// the closing line is its own chapter and spans under 200 characters
	lastLine := "Filler line 4 of section 2 keeps the conversation going for a while."
	oracle := &fakeChapterOracle{chapters: []models.ChapterCandidate{
		{Title: "Intro", FirstSentence: openings[0]},
		{Title: "Tail", FirstSentence: lastLine},
	}}

	chunks := splitRaw(t, oracle, &fakeSummarizer{summary: "s"}, nil, raw)
	topics := ofLevel(chunks, models.LevelTopic)

	if len(topics) != 1 {
		t.Fatalf("expected 1 topic after dropping the short chapter, got %d", len(topics))
	}
	if topics[0].Title != "Intro" {
		t.Errorf("kept topic = %q, want Intro", topics[0].Title)
	}
}

func TestSplit_DegradedUsesBoundaryDetector(t *testing.T) {
	chunks := splitRaw(t, &fakeChapterOracle{err: errOracleDown}, &fakeSummarizer{summary: "s"}, nil, speakerTranscript(60))
	topics := ofLevel(chunks, models.LevelTopic)

	if len(topics) < 2 {
		t.Fatalf("expected several detected topics, got %d", len(topics))
	}
	for i, topic := range topics {
		if !strings.HasPrefix(topic.Title, "Topic ") {
			t.Errorf("topic %d title = %q, want detector title", i, topic.Title)
		}
		if topic.CharRange.Len() < 200 {
			t.Errorf("topic %d spans %d chars, want >= 200", i, topic.CharRange.Len())
		}
		if i > 0 && topic.CharRange.Start < topics[i-1].CharRange.End {
			t.Errorf("topic %d overlaps topic %d", i, i-1)
		}
	}
}

func TestSplit_SentenceFilters(t *testing.T) {
	chunks := splitRaw(t, nil, &fakeSummarizer{summary: "s"}, nil, speakerTranscript(20))
	seq := bySequence(chunks)

	for _, s := range ofLevel(chunks, models.LevelSentence) {
		if len(s.Text) < 30 || len(s.Text) > 500 {
			t.Errorf("sentence length %d outside [30, 500]: %q", len(s.Text), s.Text)
		}
		parent := seq[*s.ParentRef]
		if parent.Level != models.LevelParagraph {
			t.Errorf("sentence parent level = %s, want paragraph", parent.Level)
			continue
		}
		if !strings.Contains(parent.Text, s.Text) {
			t.Errorf("parent paragraph does not contain sentence %q", s.Text)
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	raw := speakerTranscript(80)
	a := splitRaw(t, nil, &fakeSummarizer{summary: "s"}, nil, raw)
	b := splitRaw(t, nil, &fakeSummarizer{summary: "s"}, nil, raw)

	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Level != b[i].Level || a[i].Text != b[i].Text {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	text := "Short one. This sentence is comfortably long enough to keep! Is this question long enough to be kept? tail without punctuation here"
	spans := SplitSentences(text, 20, 500)

	want := []string{
		"This sentence is comfortably long enough to keep!",
		"Is this question long enough to be kept?",
		"tail without punctuation here",
	}
	if len(spans) != len(want) {
		t.Fatalf("got %d sentences, want %d: %+v", len(spans), len(want), spans)
	}
	for i, w := range want {
		if spans[i].text != w {
			t.Errorf("sentence %d = %q, want %q", i, spans[i].text, w)
		}
		if text[spans[i].rng.Start:spans[i].rng.End] != w {
			t.Errorf("sentence %d range does not point at its text", i)
		}
	}
}

func TestTopicBoundaryDetector(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		speaker := "Alice"
		if i >= 10 {
			speaker = "Bob"
		}
		b.WriteString(speaker + ": " + strings.Repeat("word ", 20) + "\n")
	}
	text := b.String()

	bounds := NewTopicBoundaryDetector(DefaultDetectorConfig()).Boundaries(text, nil, nil)

	if len(bounds) != 2 {
		t.Fatalf("expected 2 boundaries, got %v", bounds)
	}
	if want := strings.Index(text, "Bob:"); bounds[1] != want {
		t.Errorf("boundary at %d, want speaker change at %d", bounds[1], want)
	}
}

func TestTopicBoundaryDetector_BlankLine(t *testing.T) {
	para := strings.Repeat("This line is part of a long monologue without speakers. ", 30)
	text := para + "\n\n" + "A new substantial paragraph begins right here with plenty of text.\n"

	bounds := NewTopicBoundaryDetector(DefaultDetectorConfig()).Boundaries(text, nil, nil)

	if len(bounds) != 2 {
		t.Fatalf("expected a blank-line boundary, got %v", bounds)
	}
}

func TestTopicBoundaryDetector_BlankLineAfterAlignment(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "Line %d of a long monologue that carries on without any speaker labels.\n", i)
	}
	b.WriteString("\n")
	b.WriteString("A new substantial paragraph begins right here with plenty of text.\n")
	b.WriteString("It keeps going for a little while longer before the episode ends.\n")

	aligned := NewTimestampAligner().Align(b.String())
	if strings.Contains(aligned.Text, "\n\n") {
		t.Fatal("clean text should not keep blank lines")
	}

	bounds := NewTopicBoundaryDetector(DefaultDetectorConfig()).Boundaries(aligned.Text, nil, aligned.Breaks)

	want := strings.Index(aligned.Text, "A new substantial")
	if len(bounds) != 2 || bounds[1] != want {
		t.Fatalf("bounds = %v, want [0 %d]", bounds, want)
	}

	if got := NewTopicBoundaryDetector(DefaultDetectorConfig()).Boundaries(aligned.Text, nil, nil); len(got) != 1 {
		t.Errorf("without breaks the detector should see one topic, got %v", got)
	}
}

func TestExtractSpeaker(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"Host: welcome back", "Host"},
		{"Dr. Jane Smith: thanks", "Dr. Jane Smith"},
		{"  Guest:  hello", "Guest"},
		{"no speaker here", ""},
		{"10:30 is the time", ""},
	}
	for _, tt := range tests {
		if got := ExtractSpeaker(tt.line); got != tt.want {
			t.Errorf("ExtractSpeaker(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
