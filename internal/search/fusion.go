package search

import (
	"sort"

	"github.com/docdex/docdex/internal/store"
)

// candidate holds intermediate ranking state before enrichment.
type candidate struct {
	snippetID     int64
	score         float64
	keywordScore  float64
	semanticScore float64
	inBoth        bool
}

// semanticHit is one snippet scored by vector similarity.
type semanticHit struct {
	snippetID  int64
	similarity float64
}

// fuseResults merges the keyword and semantic legs into one ranked list.
// Keyword scores are min-max normalized within the leg; a zero range means
// every hit normalizes to 1.0. Semantic similarities are divided by the
// leg's maximum, floored at 1.0 so already-small similarities are not
// inflated. The fused score weights keyword at 0.3 and semantic at 0.7,
// with a missing leg contributing 0.
func fuseResults(keyword []store.KeywordResult, semantic []semanticHit) []*candidate {
	byID := make(map[int64]*candidate, len(keyword)+len(semantic))

	if len(keyword) > 0 {
		minScore, maxScore := keyword[0].Score, keyword[0].Score
		for _, r := range keyword[1:] {
			if r.Score < minScore {
				minScore = r.Score
			}
			if r.Score > maxScore {
				maxScore = r.Score
			}
		}
		scoreRange := maxScore - minScore
		for _, r := range keyword {
			norm := 1.0
			if scoreRange > 0 {
				norm = (r.Score - minScore) / scoreRange
			}
			byID[r.SnippetID] = &candidate{
				snippetID:    r.SnippetID,
				keywordScore: norm,
			}
		}
	}

	if len(semantic) > 0 {
		maxSim := 1.0
		for _, h := range semantic {
			if h.similarity > maxSim {
				maxSim = h.similarity
			}
		}
		for _, h := range semantic {
			norm := h.similarity / maxSim
			if c, ok := byID[h.snippetID]; ok {
				c.semanticScore = norm
				c.inBoth = true
			} else {
				byID[h.snippetID] = &candidate{
					snippetID:     h.snippetID,
					semanticScore: norm,
				}
			}
		}
	}

	results := make([]*candidate, 0, len(byID))
	for _, c := range byID {
		c.score = keywordWeight*c.keywordScore + semanticWeight*c.semanticScore
		results = append(results, c)
	}
	sortCandidates(results)
	return results
}

// sortCandidates orders by score descending, snippet id ascending on ties
// so results are stable across runs.
func sortCandidates(results []*candidate) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].snippetID < results[j].snippetID
	})
}
