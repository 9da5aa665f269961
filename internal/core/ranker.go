// ABOUTME: LevelWeightedRanker rescales similarity by level and query preference
// ABOUTME: Discounts episode and sentence hits and boosts preferred levels
package core

import (
	"sort"

	"github.com/harper/podcast-index/internal/models"
)

const (
	preferredMultiplier    = 1.2
	nonPreferredMultiplier = 0.8
)

// baseLevelWeights discount levels that are usually too broad or too narrow
var baseLevelWeights = map[models.Level]float64{
	models.LevelEpisode:   0.8,
	models.LevelTopic:     1.0,
	models.LevelParagraph: 1.0,
	models.LevelSentence:  0.9,
}

// LevelWeightedRanker reorders raw similarity hits
type LevelWeightedRanker struct{}

// NewLevelWeightedRanker creates a ranker
func NewLevelWeightedRanker() *LevelWeightedRanker {
	return &LevelWeightedRanker{}
}

// AdjustedScore returns similarity * base weight * preference multiplier
func AdjustedScore(similarity float64, level models.Level, preferred models.Classification) float64 {
	weight, ok := baseLevelWeights[level]
	if !ok {
		weight = 1.0
	}
	multiplier := nonPreferredMultiplier
	if preferred.Prefers(level) {
		multiplier = preferredMultiplier
	}
	return similarity * weight * multiplier
}

// Rank scores a copy of results, sorts it descending and truncates to limit.
// A non-positive limit keeps everything.
func (r *LevelWeightedRanker) Rank(results []models.SearchResult, preferred models.Classification, limit int) []models.SearchResult {
	ranked := make([]models.SearchResult, len(results))
	copy(ranked, results)

	for i := range ranked {
		ranked[i].Score = AdjustedScore(ranked[i].Similarity, ranked[i].Chunk.Level, preferred)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
