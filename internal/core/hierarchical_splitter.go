// ABOUTME: HierarchicalSplitter builds the episode → topic → paragraph → sentence chunk tree
// ABOUTME: Resolves parent references by char-range containment on provisional sequence indexes
package core

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
	"golang.org/x/sync/errgroup"

	"github.com/harper/podcast-index/internal/models"
)

// sentenceEndPattern matches terminal punctuation, closing quotes and trailing space
var sentenceEndPattern = regexp.MustCompile(`[.!?]+["')\]]*(?:\s+|$)`)

// paragraphSeparators is the recursive splitting cascade. Aligned text has no
// blank lines, so splitting starts at line breaks.
var paragraphSeparators = []string{"\n", ". ", "? ", "! ", " ", ""}

// SplitterConfig holds the sizes used at each level
type SplitterConfig struct {
	EpisodeTextChars   int
	SummaryPrefixChars int
	GuestPrefixChars   int
	MinTopicChars      int
	ParagraphSize      int
	ParagraphOverlap   int
	SentenceMinChars   int
	SentenceMaxChars   int
	SentenceFloorChars int
	SpeakerScanLines   int
	Detector           DetectorConfig
}

// DefaultSplitterConfig returns the default sizes
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{
		EpisodeTextChars:   8000,
		SummaryPrefixChars: 6000,
		GuestPrefixChars:   2000,
		MinTopicChars:      200,
		ParagraphSize:      1000,
		ParagraphOverlap:   200,
		SentenceMinChars:   20,
		SentenceMaxChars:   500,
		SentenceFloorChars: 30,
		SpeakerScanLines:   3,
		Detector:           DefaultDetectorConfig(),
	}
}

// HierarchicalSplitter produces the four chunk levels for one transcript
type HierarchicalSplitter struct {
	summarizer Summarizer
	guest      GuestExtractor
	detector   *TopicBoundaryDetector
	config     SplitterConfig
	logger     *slog.Logger
}

// NewHierarchicalSplitter creates a splitter. Callers normally pass the
// fallback-wrapped oracles from WithSummaryFallback and WithGuestFallback.
func NewHierarchicalSplitter(summarizer Summarizer, guest GuestExtractor, config SplitterConfig, logger *slog.Logger) *HierarchicalSplitter {
	if logger == nil {
		logger = slog.Default()
	}
	if summarizer == nil {
		summarizer = WithSummaryFallback(nil, config.SummaryPrefixChars, false, logger)
	}
	if guest == nil {
		guest = WithGuestFallback(nil, logger)
	}
	return &HierarchicalSplitter{
		summarizer: summarizer,
		guest:      guest,
		detector:   NewTopicBoundaryDetector(config.Detector),
		config:     config,
		logger:     logger,
	}
}

// treeBuilder hands out sequence indexes in creation order
type treeBuilder struct {
	chunks []models.Chunk
}

func (b *treeBuilder) add(c models.Chunk) int {
	c.SequenceIndex = len(b.chunks)
	b.chunks = append(b.chunks, c)
	return c.SequenceIndex
}

// Split builds the chunk tree. Only a summary failure is returned as an error.
func (s *HierarchicalSplitter) Split(ctx context.Context, aligned AlignedText, seg Segmentation) ([]models.Chunk, error) {
	text := aligned.Text
	anchors := NewAnchorTable(aligned.Anchors)

	episode, err := s.episodeChunk(ctx, text, anchors)
	if err != nil {
		return nil, err
	}

	b := &treeBuilder{}
	episodeRef := b.add(episode)

	topicRefs := s.addTopics(b, text, anchors, aligned.Breaks, seg, episodeRef)

	paragraphRefs, err := s.addParagraphs(b, text, anchors, topicRefs, episodeRef)
	if err != nil {
		return nil, err
	}

	s.addSentences(b, text, anchors, paragraphRefs, episodeRef)

	s.logger.Debug("split transcript",
		"chunks", len(b.chunks),
		"topics", len(topicRefs),
		"paragraphs", len(paragraphRefs))
	return b.chunks, nil
}

// episodeChunk fetches summary and guest name concurrently
func (s *HierarchicalSplitter) episodeChunk(ctx context.Context, text string, anchors *AnchorTable) (models.Chunk, error) {
	var summary, guest string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.summarizer.Summarize(gctx, prefix(text, s.config.SummaryPrefixChars))
		return err
	})
	g.Go(func() error {
		name, err := s.guest.ExtractGuest(gctx, prefix(text, s.config.GuestPrefixChars))
		if err != nil || strings.TrimSpace(name) == "" {
			name = DefaultGuestName
		}
		guest = name
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.Chunk{}, fmt.Errorf("episode summary: %w", err)
	}

	return models.Chunk{
		Level:     models.LevelEpisode,
		Text:      TruncateText(text, s.config.EpisodeTextChars),
		FullText:  text,
		TimeRange: models.TimeRange{Start: anchors.First(), End: anchors.Last()},
		Summary:   summary,
		GuestName: guest,
		CharRange: models.CharRange{Start: 0, End: len(text)},
	}, nil
}

// topicRef pairs a topic's sequence index with its range for containment checks
type topicRef struct {
	ref int
	rng models.CharRange
}

func (s *HierarchicalSplitter) addTopics(b *treeBuilder, text string, anchors *AnchorTable, breaks []int, seg Segmentation, episodeRef int) []topicRef {
	chapters := seg.Chapters
	if seg.Degraded {
		if detected := s.detectedChapters(text, anchors, breaks); len(detected) > 0 {
			chapters = detected
		}
	}

	var refs []topicRef
	for _, ch := range chapters {
		rng := ch.Range()
		if rng.Len() < s.config.MinTopicChars {
			continue
		}
		body := strings.TrimSpace(text[rng.Start:rng.End])
		ref := b.add(models.Chunk{
			Level:         models.LevelTopic,
			Text:          body,
			ParentRef:     models.IntRef(episodeRef),
			TimeRange:     models.TimeRange{Start: orSentinel(ch.StartTime), End: orSentinel(ch.EndTime)},
			Speaker:       SpeakerFromLines(body, s.config.SpeakerScanLines),
			TopicBoundary: true,
			Title:         ch.Title,
			Theme:         ch.Theme,
			CharRange:     rng,
		})
		refs = append(refs, topicRef{ref: ref, rng: rng})
	}
	return refs
}

// detectedChapters turns boundary-detector offsets into chapters, keeping only
// spans long enough to become topics
func (s *HierarchicalSplitter) detectedChapters(text string, anchors *AnchorTable, breaks []int) []models.Chapter {
	bounds := s.detector.Boundaries(text, anchors, breaks)

	var chapters []models.Chapter
	for i, start := range bounds {
		end := len(text)
		if i+1 < len(bounds) {
			end = bounds[i+1]
		}
		if end-start < s.config.MinTopicChars {
			continue
		}
		startTime, endTime := spanTimes(anchors, start, end)
		n := len(chapters) + 1
		chapters = append(chapters, models.Chapter{
			ChapterCandidate: models.ChapterCandidate{
				Title:         fmt.Sprintf("Topic %d", n),
				FirstSentence: firstLine(text[start:end]),
			},
			StartOffset: start,
			EndOffset:   end,
			StartTime:   startTime,
			EndTime:     endTime,
		})
	}
	return chapters
}

// paragraphRef pairs a paragraph's sequence index with its text and range
type paragraphRef struct {
	ref  int
	text string
	rng  models.CharRange
}

func (s *HierarchicalSplitter) addParagraphs(b *treeBuilder, text string, anchors *AnchorTable, topics []topicRef, episodeRef int) ([]paragraphRef, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithSeparators(paragraphSeparators),
		textsplitter.WithChunkSize(s.config.ParagraphSize),
		textsplitter.WithChunkOverlap(s.config.ParagraphOverlap),
	)
	pieces, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split paragraphs: %w", err)
	}

	var refs []paragraphRef
	cursor := 0
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		start := cursor
		if idx := strings.Index(text[cursor:], piece); idx >= 0 {
			start = cursor + idx
		}
		rng := models.CharRange{Start: start, End: start + len(piece)}
		if rng.End > len(text) {
			rng.End = len(text)
		}
		if start+1 <= len(text) {
			cursor = start + 1
		}

		parent := episodeRef
		for _, t := range topics {
			if t.rng.Contains(start) {
				parent = t.ref
				break
			}
		}

		ref := b.add(models.Chunk{
			Level:     models.LevelParagraph,
			Text:      piece,
			ParentRef: models.IntRef(parent),
			TimeRange: anchors.TimeRangeAt(start),
			Speaker:   SpeakerFromLines(piece, s.config.SpeakerScanLines),
			CharRange: rng,
		})
		refs = append(refs, paragraphRef{ref: ref, text: piece, rng: rng})
	}
	return refs, nil
}

func (s *HierarchicalSplitter) addSentences(b *treeBuilder, text string, anchors *AnchorTable, paragraphs []paragraphRef, episodeRef int) {
	for _, sent := range SplitSentences(text, s.config.SentenceMinChars, s.config.SentenceMaxChars) {
		if len(sent.text) < s.config.SentenceFloorChars {
			continue
		}

		parent := -1
		for _, p := range paragraphs {
			if strings.Contains(p.text, sent.text) {
				parent = p.ref
				break
			}
		}
		if parent < 0 {
			for _, p := range paragraphs {
				if p.rng.Contains(sent.rng.Start) {
					parent = p.ref
					break
				}
			}
		}
		if parent < 0 {
			parent = episodeRef
		}

		b.add(models.Chunk{
			Level:     models.LevelSentence,
			Text:      sent.text,
			ParentRef: models.IntRef(parent),
			TimeRange: anchors.TimeRangeAt(sent.rng.Start),
			CharRange: sent.rng,
		})
	}
}

// sentenceSpan is a candidate sentence and its offsets in the source text
type sentenceSpan struct {
	text string
	rng  models.CharRange
}

// SplitSentences splits on terminal punctuation and keeps trimmed candidates
// whose length lies within [minChars, maxChars]
func SplitSentences(text string, minChars, maxChars int) []sentenceSpan {
	var out []sentenceSpan
	emit := func(start, end int) {
		raw := text[start:end]
		trimmed := strings.TrimSpace(raw)
		if len(trimmed) < minChars || len(trimmed) > maxChars {
			return
		}
		off := start + strings.Index(raw, trimmed)
		out = append(out, sentenceSpan{text: trimmed, rng: models.CharRange{Start: off, End: off + len(trimmed)}})
	}

	start := 0
	for _, m := range sentenceEndPattern.FindAllStringIndex(text, -1) {
		emit(start, m[1])
		start = m[1]
	}
	if start < len(text) {
		emit(start, len(text))
	}
	return out
}

// spanTimes resolves start and end timestamps for [start, end)
func spanTimes(anchors *AnchorTable, start, end int) (string, string) {
	startTime := models.UnresolvedTimestamp
	if ts, ok := anchors.At(start); ok {
		startTime = ts
	}
	endTime := startTime
	if ts, ok := anchors.At(end); ok && end > start {
		endTime = ts
	}
	return startTime, endTime
}

func orSentinel(ts string) string {
	if ts == "" {
		return models.UnresolvedTimestamp
	}
	return ts
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
