// ABOUTME: Timestamp anchors and chapters produced while segmenting a transcript
// ABOUTME: Both are transient and discarded once the chunk tree exists
package models

// Anchor maps a character offset in clean text to a normalized timestamp
type Anchor struct {
	Offset    int    `json:"offset"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// ChapterCandidate is what the titling oracle (or the fallback) proposes
type ChapterCandidate struct {
	Title         string `json:"title"`
	Theme         string `json:"theme"`
	FirstSentence string `json:"first_sentence"`
}

// Chapter is a candidate resolved against the clean text and its anchors
type Chapter struct {
	ChapterCandidate
	StartOffset int     `json:"start_offset"`
	EndOffset   int     `json:"end_offset"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	MatchScore  float64 `json:"match_score"`
}

// Range returns the chapter's character range
func (c Chapter) Range() CharRange {
	return CharRange{Start: c.StartOffset, End: c.EndOffset}
}
