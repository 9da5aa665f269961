// ABOUTME: Search request and result types for level-aware retrieval
// ABOUTME: Defines SearchOptions, SearchResult and hierarchical context bundles
package models

// SearchOptions restricts a similarity search
type SearchOptions struct {
	Levels        []Level
	MinSimilarity float64
	Limit         int
	TranscriptID  string
}

// SearchResult is a stored chunk with its raw and reweighted scores
type SearchResult struct {
	Chunk      StoredChunk `json:"chunk"`
	Similarity float64     `json:"similarity"`
	Score      float64     `json:"score"`
}

// ContextBundle is the tree neighbourhood around a hit
type ContextBundle struct {
	Parent   *SearchResult  `json:"parent,omitempty"`
	Children []SearchResult `json:"children"`
	Siblings []SearchResult `json:"siblings"`
}

// RankedHit is a final search result with its assembled context
type RankedHit struct {
	SearchResult
	Context ContextBundle `json:"context"`
}
