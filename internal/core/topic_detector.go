// ABOUTME: Lower-cost topic boundary detector used when chapter detection degrades
// ABOUTME: Declares boundaries on time lines, speaker changes and paragraph breaks
package core

import (
	"regexp"
	"strings"
)

// speakerPattern matches a leading "Name:" label
var speakerPattern = regexp.MustCompile(`^\s*([A-Z][A-Za-z0-9.'\- ]{0,40}?)\s*:\s+\S`)

// DetectorConfig holds the minimum distances between boundaries
type DetectorConfig struct {
	TimeLineGap      int // chars since last boundary for an anchored time line
	SpeakerChangeGap int // chars since last boundary for a speaker change
	BlankLineGap     int // chars since last boundary for a blank line break
	SubstantialLine  int // trimmed length of the line after a blank line
}

// DefaultDetectorConfig returns the default boundary distances
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		TimeLineGap:      1000,
		SpeakerChangeGap: 800,
		BlankLineGap:     1500,
		SubstantialLine:  40,
	}
}

// TopicBoundaryDetector finds topic starts in clean text
type TopicBoundaryDetector struct {
	config DetectorConfig
}

// NewTopicBoundaryDetector creates a detector
func NewTopicBoundaryDetector(config DetectorConfig) *TopicBoundaryDetector {
	return &TopicBoundaryDetector{config: config}
}

// Boundaries returns ascending start offsets of detected topics. The first
// topic always starts at 0. Boundaries closer than the configured gaps are
// suppressed. breaks lists offsets of lines that followed a blank line before
// alignment removed it; blank lines still present in text count too.
func (d *TopicBoundaryDetector) Boundaries(text string, anchors *AnchorTable, breaks []int) []int {
	if text == "" {
		return nil
	}

	afterBreak := make(map[int]bool, len(breaks))
	for _, off := range breaks {
		afterBreak[off] = true
	}

	boundaries := []int{0}
	last := 0
	offset := 0
	currentSpeaker := ""
	prevBlank := false

	for _, line := range strings.Split(text, "\n") {
		lineStart := offset
		offset += len(line) + 1
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			prevBlank = true
			continue
		}

		since := lineStart - last
		speaker := ExtractSpeaker(line)
		speakerChanged := speaker != "" && currentSpeaker != "" && speaker != currentSpeaker

		isBoundary := false
		switch {
		case anchors != nil && anchors.IsAnchoredLine(lineStart) && since >= d.config.TimeLineGap:
			isBoundary = true
		case speakerChanged && since >= d.config.SpeakerChangeGap:
			isBoundary = true
		case (prevBlank || afterBreak[lineStart]) && len(trimmed) >= d.config.SubstantialLine && since >= d.config.BlankLineGap:
			isBoundary = true
		}

		if isBoundary && lineStart > 0 {
			boundaries = append(boundaries, lineStart)
			last = lineStart
		}
		if speaker != "" {
			currentSpeaker = speaker
		}
		prevBlank = false
	}

	return boundaries
}

// ExtractSpeaker returns the name from a leading "Name:" label, or ""
func ExtractSpeaker(line string) string {
	m := speakerPattern.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// SpeakerFromLines scans the first n lines of text for a speaker label
func SpeakerFromLines(text string, n int) string {
	lines := strings.SplitN(text, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	for _, line := range lines {
		if s := ExtractSpeaker(line); s != "" {
			return s
		}
	}
	return ""
}
