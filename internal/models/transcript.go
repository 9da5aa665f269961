// ABOUTME: Transcript is the top-level record owning one chunk tree
// ABOUTME: Carries episode metadata and per-level chunk counts
package models

import "time"

// Transcript describes one ingested transcript
type Transcript struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Source      string        `json:"source,omitempty"`
	GuestName   string        `json:"guest_name,omitempty"`
	Summary     string        `json:"summary,omitempty"`
	ChunkCount  int           `json:"chunk_count"`
	LevelCounts map[Level]int `json:"level_counts"`
	Degraded    bool          `json:"degraded"`
	CreatedAt   time.Time     `json:"created_at"`
}

// CountLevels tallies chunks per level
func CountLevels(chunks []Chunk) map[Level]int {
	counts := make(map[Level]int, 4)
	for _, c := range chunks {
		counts[c.Level]++
	}
	return counts
}
