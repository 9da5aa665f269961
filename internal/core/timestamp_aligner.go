// ABOUTME: TimestampAligner strips timestamp markers from raw transcripts
// ABOUTME: Produces clean text plus an ordered table of (offset → HH:MM:SS) anchors
package core

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/harper/podcast-index/internal/models"
)

// minKeptLineLen filters short artifact lines that carry no timestamp
const minKeptLineLen = 10

var (
	// optional leading index, then one of: HH:MM:SS[,mmm][ --> HH:MM:SS[,mmm]], [HH:MM:SS], (HH:MM:SS)
	timestampLinePattern = regexp.MustCompile(
		`^\s*(?:\d+\s+)?(?:\[(\d{1,2}:\d{1,2}:\d{1,2})(?:[,.]\d{1,3})?\]|\((\d{1,2}:\d{1,2}:\d{1,2})(?:[,.]\d{1,3})?\)|(\d{1,2}:\d{1,2}:\d{1,2})(?:[,.]\d{1,3})?(?:\s*-->\s*\d{1,2}:\d{1,2}:\d{1,2}(?:[,.]\d{1,3})?)?)(.*)$`)

	bareTimestampPattern = regexp.MustCompile(`^(\d{1,2}):(\d{1,2}):(\d{1,2})$`)
)

// AlignedText is the aligner's output. Breaks holds the clean-text offsets of
// lines that followed one or more blank lines in the raw transcript.
type AlignedText struct {
	Text    string
	Anchors []models.Anchor
	Breaks  []int
}

// TimestampAligner extracts timestamp anchors from transcript lines
type TimestampAligner struct{}

// NewTimestampAligner creates a new TimestampAligner
func NewTimestampAligner() *TimestampAligner {
	return &TimestampAligner{}
}

// Align walks raw line by line. A timestamp line records an anchor at the current
// output offset and contributes its remaining text; other lines survive only when
// their trimmed length exceeds minKeptLineLen. An anchor whose line carries no
// text (subtitle cues) takes the text of the next emitted line.
func (a *TimestampAligner) Align(raw string) AlignedText {
	var (
		b        strings.Builder
		anchors  []models.Anchor
		breaks   []int
		offset   int
		pending  []int
		sawBlank bool
	)

	emit := func(text string) {
		for _, i := range pending {
			anchors[i].Text = text
		}
		pending = pending[:0]
		if sawBlank && offset > 0 {
			breaks = append(breaks, offset)
		}
		sawBlank = false
		b.WriteString(text)
		b.WriteByte('\n')
		offset += len(text) + 1
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")

		if ts, rest, ok := matchTimestampLine(line); ok {
			anchors = append(anchors, models.Anchor{Offset: offset, Timestamp: ts, Text: rest})
			if rest != "" {
				emit(rest)
			} else {
				pending = append(pending, len(anchors)-1)
			}
			continue
		}

		if strings.TrimSpace(line) == "" {
			sawBlank = true
			continue
		}
		if len(strings.TrimSpace(line)) > minKeptLineLen {
			emit(line)
		}
	}

	return AlignedText{Text: b.String(), Anchors: anchors, Breaks: breaks}
}

// matchTimestampLine returns the normalized timestamp and trimmed remainder of a line
func matchTimestampLine(line string) (string, string, bool) {
	m := timestampLinePattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}

	var raw string
	for _, g := range m[1:4] {
		if g != "" {
			raw = g
			break
		}
	}

	ts, ok := NormalizeTimestamp(raw)
	if !ok {
		return "", "", false
	}
	return ts, strings.TrimSpace(m[4]), true
}

// NormalizeTimestamp zero-pads an H:M:S string (milliseconds and range ends
// already removed) into HH:MM:SS
func NormalizeTimestamp(s string) (string, bool) {
	m := bareTimestampPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}

	parts := make([]int, 3)
	for i := range parts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return "", false
		}
		parts[i] = n
	}
	if parts[1] > 59 || parts[2] > 59 {
		return "", false
	}

	return fmt.Sprintf("%02d:%02d:%02d", parts[0], parts[1], parts[2]), true
}

// AnchorTable answers nearest-anchor lookups over an ordered anchor list
type AnchorTable struct {
	anchors []models.Anchor
}

// NewAnchorTable wraps anchors, which must be in non-decreasing offset order
func NewAnchorTable(anchors []models.Anchor) *AnchorTable {
	return &AnchorTable{anchors: anchors}
}

// Len returns the number of anchors
func (t *AnchorTable) Len() int {
	return len(t.anchors)
}

// latestIndex returns the index of the last anchor at or before offset, or -1
func (t *AnchorTable) latestIndex(offset int) int {
	// first anchor strictly after offset
	i := sort.Search(len(t.anchors), func(i int) bool {
		return t.anchors[i].Offset > offset
	})
	return i - 1
}

// At returns the timestamp of the latest anchor at or before offset
func (t *AnchorTable) At(offset int) (string, bool) {
	i := t.latestIndex(offset)
	if i < 0 {
		return "", false
	}
	return t.anchors[i].Timestamp, true
}

// After returns the timestamp of the first anchor strictly after offset
func (t *AnchorTable) After(offset int) (string, bool) {
	i := t.latestIndex(offset) + 1
	if i >= len(t.anchors) {
		return "", false
	}
	return t.anchors[i].Timestamp, true
}

// First returns the earliest timestamp, or the sentinel
func (t *AnchorTable) First() string {
	if len(t.anchors) == 0 {
		return models.UnresolvedTimestamp
	}
	return t.anchors[0].Timestamp
}

// Last returns the latest timestamp, or the sentinel
func (t *AnchorTable) Last() string {
	if len(t.anchors) == 0 {
		return models.UnresolvedTimestamp
	}
	return t.anchors[len(t.anchors)-1].Timestamp
}

// TimeRangeAt resolves a range starting at offset: the latest anchor at or before
// it, then the next anchor after it. Missing ends fall back to the sentinel.
func (t *AnchorTable) TimeRangeAt(offset int) models.TimeRange {
	tr := models.UnresolvedTimeRange()
	if len(t.anchors) == 0 {
		return tr
	}
	if ts, ok := t.At(offset); ok {
		tr.Start = ts
	}
	if ts, ok := t.After(offset); ok {
		tr.End = ts
	} else {
		tr.End = tr.Start
	}
	return tr
}

// IsAnchoredLine reports whether an anchor sits exactly at offset
func (t *AnchorTable) IsAnchoredLine(offset int) bool {
	i := t.latestIndex(offset)
	return i >= 0 && t.anchors[i].Offset == offset
}
