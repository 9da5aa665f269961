// ABOUTME: QueryClassifier routes a query to the chunk levels most likely to answer it
// ABOUTME: Deterministic phrase matching with broad > specific > exploratory precedence
package core

import (
	"strings"

	"github.com/harper/podcast-index/internal/models"
)

// phraseRule maps indicator phrases to a category and its preferred levels
type phraseRule struct {
	category models.QueryCategory
	phrases  []string
	levels   []models.Level
}

// classifierRules are evaluated in order; the first matching rule wins
var classifierRules = []phraseRule{
	{
		category: models.QueryBroad,
		phrases: []string{
			"episodes about", "episode about", "episodes that", "which episode",
			"discusses", "discuss", "mentions", "mention",
		},
		levels: []models.Level{models.LevelEpisode, models.LevelTopic},
	},
	{
		category: models.QuerySpecific,
		phrases:  []string{"what does", "what did", "explain", "exact", "quote", "how does"},
		levels:   []models.Level{models.LevelParagraph, models.LevelSentence},
	},
	{
		category: models.QueryExploratory,
		phrases:  []string{"tell me about", "overview", "summarize", "summary of"},
		levels:   []models.Level{models.LevelEpisode, models.LevelTopic, models.LevelParagraph},
	},
}

var defaultLevels = []models.Level{models.LevelTopic, models.LevelParagraph}

// QueryClassifier maps free text to preferred levels
type QueryClassifier struct {
	rules []phraseRule
}

// NewQueryClassifier creates a classifier with the built-in phrase lists
func NewQueryClassifier() *QueryClassifier {
	return &QueryClassifier{rules: classifierRules}
}

// Classify returns the first matching category, or the default
func (c *QueryClassifier) Classify(query string) models.Classification {
	q := strings.ToLower(query)
	for _, rule := range c.rules {
		for _, phrase := range rule.phrases {
			if strings.Contains(q, phrase) {
				return models.Classification{
					Category:      rule.category,
					Levels:        append([]models.Level(nil), rule.levels...),
					MatchedPhrase: phrase,
				}
			}
		}
	}
	return models.Classification{
		Category: models.QueryDefault,
		Levels:   append([]models.Level(nil), defaultLevels...),
	}
}
