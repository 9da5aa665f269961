// ABOUTME: Fuzzy text similarity used to align chapter openings with timestamp anchors
// ABOUTME: Exact, containment and significant-word overlap scoring
package core

import "strings"

// minSignificantWordLen is the length a word must exceed to count toward overlap
const minSignificantWordLen = 2

// TextSimilarity scores two strings in [0, 1]: exact match after case folding
// and trimming is 1.0, containment in either direction is 0.9, otherwise the
// ratio 2*common/(len(words1)+len(words2)).
func TextSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.9
	}

	words1 := strings.Fields(a)
	words2 := strings.Fields(b)
	return overlapRatio(words1, words2)
}

// WordOverlap is the lower-confidence score: the same ratio computed over
// significant words only.
func WordOverlap(a, b string) float64 {
	words1 := significantWords(strings.ToLower(a))
	words2 := significantWords(strings.ToLower(b))
	return overlapRatio(words1, words2)
}

func overlapRatio(words1, words2 []string) float64 {
	total := len(words1) + len(words2)
	if total == 0 {
		return 0
	}
	common := 0
	for _, w1 := range words1 {
		if len(w1) <= minSignificantWordLen {
			continue
		}
		for _, w2 := range words2 {
			if len(w2) <= minSignificantWordLen {
				continue
			}
			if strings.Contains(w1, w2) || strings.Contains(w2, w1) {
				common++
				break
			}
		}
	}
	ratio := 2 * float64(common) / float64(total)
	if ratio > 1 {
		return 1
	}
	return ratio
}

func significantWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		w = strings.Trim(w, ".,!?;:\"'()[]")
		if len(w) > minSignificantWordLen {
			out = append(out, w)
		}
	}
	return out
}
