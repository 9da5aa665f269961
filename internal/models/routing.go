// ABOUTME: Query routing types for the level classifier
// ABOUTME: Maps a query category to the chunk levels most likely to answer it
package models

// QueryCategory names the lexical rule that matched a query
type QueryCategory string

const (
	// QueryBroad - discovery across episodes → episode, topic
	QueryBroad QueryCategory = "broad"

	// QuerySpecific - a precise detail or quote → paragraph, sentence
	QuerySpecific QueryCategory = "specific"

	// QueryExploratory - open-ended background → episode, topic, paragraph
	QueryExploratory QueryCategory = "exploratory"

	// QueryDefault - nothing matched → topic, paragraph
	QueryDefault QueryCategory = "default"
)

// Classification is the classifier's routing decision
type Classification struct {
	Category      QueryCategory `json:"category"`
	Levels        []Level       `json:"levels"`
	MatchedPhrase string        `json:"matched_phrase,omitempty"`
}

// Prefers reports whether level is among the preferred levels
func (c Classification) Prefers(level Level) bool {
	for _, l := range c.Levels {
		if l == level {
			return true
		}
	}
	return false
}
