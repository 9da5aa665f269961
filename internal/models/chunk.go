// ABOUTME: Chunk represents one node of a transcript's four-level index tree
// ABOUTME: Supports episode → topic → paragraph → sentence hierarchy
package models

import (
	"fmt"
	"time"
)

// Level represents the granularity of a chunk in the hierarchy
type Level string

const (
	LevelEpisode   Level = "episode"
	LevelTopic     Level = "topic"
	LevelParagraph Level = "paragraph"
	LevelSentence  Level = "sentence"
)

// UnresolvedTimestamp is the sentinel used when no anchor covers a chunk
const UnresolvedTimestamp = "00:00:00"

// AllLevels returns every level from broadest to narrowest
func AllLevels() []Level {
	return []Level{LevelEpisode, LevelTopic, LevelParagraph, LevelSentence}
}

// IsValid reports whether the level is one of the four known levels
func (l Level) IsValid() bool {
	switch l {
	case LevelEpisode, LevelTopic, LevelParagraph, LevelSentence:
		return true
	}
	return false
}

// ParseLevel converts a user-supplied string to a Level
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.IsValid() {
		return "", fmt.Errorf("unknown level %q (want episode, topic, paragraph or sentence)", s)
	}
	return l, nil
}

// TimeRange is a best-effort start/end pair in HH:MM:SS form
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// UnresolvedTimeRange returns the sentinel range
func UnresolvedTimeRange() TimeRange {
	return TimeRange{Start: UnresolvedTimestamp, End: UnresolvedTimestamp}
}

// CharRange is a half-open [Start, End) byte range into the clean transcript text
type CharRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether offset falls inside the range
func (r CharRange) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// Len returns the span of the range
func (r CharRange) Len() int {
	return r.End - r.Start
}

// Chunk is a provisional tree node produced by the splitter before persistence.
// ParentRef points at the parent's SequenceIndex; the store rewrites it into a
// durable id once every node has one.
type Chunk struct {
	Level         Level     `json:"level"`
	SequenceIndex int       `json:"sequence_index"`
	Text          string    `json:"text"`
	FullText      string    `json:"full_text,omitempty"`
	ParentRef     *int      `json:"parent_ref,omitempty"`
	TimeRange     TimeRange `json:"time_range"`
	Speaker       string    `json:"speaker,omitempty"`
	TopicBoundary bool      `json:"topic_boundary"`
	Title         string    `json:"title,omitempty"`
	Theme         string    `json:"theme,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	GuestName     string    `json:"guest_name,omitempty"`
	CharRange     CharRange `json:"-"`
}

// IntRef returns a pointer to i, used for ParentRef
func IntRef(i int) *int {
	return &i
}

// StoredChunk is a persisted chunk with its durable identity
type StoredChunk struct {
	ID            string    `json:"id"`
	TranscriptID  string    `json:"transcript_id"`
	ParentID      string    `json:"parent_id,omitempty"`
	Level         Level     `json:"level"`
	SequenceIndex int       `json:"sequence_index"`
	Text          string    `json:"text"`
	FullText      string    `json:"full_text,omitempty"`
	TimeRange     TimeRange `json:"time_range"`
	Speaker       string    `json:"speaker,omitempty"`
	TopicBoundary bool      `json:"topic_boundary"`
	Title         string    `json:"title,omitempty"`
	Theme         string    `json:"theme,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	GuestName     string    `json:"guest_name,omitempty"`
	Vector        []float64 `json:"vector,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
