// ABOUTME: ChapterSegmenter obtains chapters from the titling oracle or a line-block fallback
// ABOUTME: Aligns each chapter's first sentence to a timestamp anchor and a char range
package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/harper/podcast-index/internal/models"
)

// SegmenterConfig holds the chapter segmentation heuristics
type SegmenterConfig struct {
	PrefixChars       int     // transcript prefix sent to the oracle
	MatchThreshold    float64 // TextSimilarity an anchor must exceed
	FallbackThreshold float64 // WordOverlap for the lower-confidence pass
	FallbackBlocks    int     // number of line blocks when the oracle fails
	MinBlockLines     int
}

// DefaultSegmenterConfig returns the default heuristics
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		PrefixChars:       12000,
		MatchThreshold:    0.7,
		FallbackThreshold: 0.4,
		FallbackBlocks:    4,
		MinBlockLines:     10,
	}
}

// Segmentation is the segmenter's output. Degraded is set when the oracle gave
// nothing usable and the chapters come from the line-block fallback.
type Segmentation struct {
	Chapters []models.Chapter
	Degraded bool
}

// ChapterSegmenter turns clean text into contiguous chapters
type ChapterSegmenter struct {
	oracle ChapterOracle
	config SegmenterConfig
	logger *slog.Logger
}

// NewChapterSegmenter creates a segmenter; oracle may be nil
func NewChapterSegmenter(oracle ChapterOracle, config SegmenterConfig, logger *slog.Logger) *ChapterSegmenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChapterSegmenter{oracle: oracle, config: config, logger: logger}
}

// Segment proposes chapters and resolves their offsets and timestamps
func (s *ChapterSegmenter) Segment(ctx context.Context, aligned AlignedText) Segmentation {
	candidates, err := s.proposeChapters(ctx, aligned.Text)
	degraded := false
	if err != nil {
		s.logger.Warn("chapter oracle failed, using line-block fallback", "error", err)
		candidates = FallbackChapters(aligned.Text, s.config.FallbackBlocks, s.config.MinBlockLines)
		degraded = true
	}

	chapters := s.resolve(aligned, candidates)
	s.logger.Debug("segmented transcript", "chapters", len(chapters), "degraded", degraded)
	return Segmentation{Chapters: chapters, Degraded: degraded}
}

func (s *ChapterSegmenter) proposeChapters(ctx context.Context, text string) ([]models.ChapterCandidate, error) {
	if s.oracle == nil {
		return nil, fmt.Errorf("no chapter oracle configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty transcript")
	}

	candidates, err := s.oracle.IdentifyChapters(ctx, prefix(text, s.config.PrefixChars))
	if err != nil {
		return nil, err
	}

	var valid []models.ChapterCandidate
	for _, c := range candidates {
		if strings.TrimSpace(c.FirstSentence) == "" {
			continue
		}
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("oracle returned no usable chapters")
	}
	return valid, nil
}

// resolve matches each candidate to an anchor and a char offset, then orders
// the chapters and makes them contiguous over the whole text
func (s *ChapterSegmenter) resolve(aligned AlignedText, candidates []models.ChapterCandidate) []models.Chapter {
	if len(candidates) == 0 {
		return nil
	}

	chapters := make([]models.Chapter, 0, len(candidates))
	for i, c := range candidates {
		ch := models.Chapter{ChapterCandidate: c, StartTime: models.UnresolvedTimestamp}

		anchor, score, ok := s.matchAnchor(aligned.Anchors, c.FirstSentence)
		if ok {
			ch.StartTime = anchor.Timestamp
			ch.MatchScore = score
		}

		switch idx := strings.Index(aligned.Text, c.FirstSentence); {
		case idx >= 0:
			ch.StartOffset = idx
		case ok:
			ch.StartOffset = anchor.Offset
		case i > 0:
			ch.StartOffset = chapters[i-1].StartOffset
		default:
			ch.StartOffset = 0
		}
		chapters = append(chapters, ch)
	}

	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].StartOffset < chapters[j].StartOffset
	})
	chapters[0].StartOffset = 0

	lastTime := NewAnchorTable(aligned.Anchors).Last()
	for i := range chapters {
		if i+1 < len(chapters) {
			chapters[i].EndOffset = chapters[i+1].StartOffset
			chapters[i].EndTime = chapters[i+1].StartTime
		} else {
			chapters[i].EndOffset = len(aligned.Text)
			chapters[i].EndTime = lastTime
		}
	}
	return chapters
}

// matchAnchor returns the best anchor above MatchThreshold, else the best
// anchor above FallbackThreshold by significant-word overlap
func (s *ChapterSegmenter) matchAnchor(anchors []models.Anchor, sentence string) (models.Anchor, float64, bool) {
	best, bestScore := -1, s.config.MatchThreshold
	for i, a := range anchors {
		if score := TextSimilarity(a.Text, sentence); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 {
		return anchors[best], bestScore, true
	}

	best, bestScore = -1, s.config.FallbackThreshold
	for i, a := range anchors {
		if score := WordOverlap(a.Text, sentence); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 {
		return anchors[best], bestScore, true
	}
	return models.Anchor{}, 0, false
}

// FallbackChapters partitions text into roughly equal line blocks titled
// "Chapter N", each opening with its first non-trivial line
func FallbackChapters(text string, blocks, minBlockLines int) []models.ChapterCandidate {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	if blocks <= 0 {
		blocks = 1
	}

	size := len(lines) / blocks
	if size < minBlockLines {
		size = minBlockLines
	}
	if size < 1 {
		size = 1
	}

	var chapters []models.ChapterCandidate
	for start := 0; start < len(lines); start += size {
		end := start + size
		if end > len(lines) {
			end = len(lines)
		}
		block := lines[start:end]
		first := block[0]
		for _, l := range block {
			if len(strings.TrimSpace(l)) > minKeptLineLen {
				first = l
				break
			}
		}
		n := len(chapters) + 1
		chapters = append(chapters, models.ChapterCandidate{
			Title:         fmt.Sprintf("Chapter %d", n),
			Theme:         fmt.Sprintf("Part %d of the conversation", n),
			FirstSentence: first,
		})
	}
	return chapters
}
