package internal

import (
	"math"
	"sort"
)

// CosineSimilarity returns the normalized dot product of a and b.
// The vectors must have equal length; a mismatch means the store's
// dimensionality invariant was broken upstream, so it panics rather
// than returning an error.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		panic("cosine similarity: vector length mismatch")
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores every record against the query embedding and returns
// candidates sorted by score descending. Ties are broken by content
// ascending so results do not depend on map iteration order.
func Rank(query []float64, records []VectorRecord) []RankedCandidate {
	candidates := make([]RankedCandidate, 0, len(records))

	for _, rec := range records {
		candidates = append(candidates, RankedCandidate{
			Content: rec.Content,
			Source:  rec.Source,
			Score:   CosineSimilarity(query, rec.Embedding),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Content < candidates[j].Content
	})

	return candidates
}

// FilterByMean keeps only candidates scoring at or above the arithmetic
// mean of all scores. The threshold adapts to the query's own score
// distribution, and the top candidate always survives it, so a
// non-empty input never filters down to nothing. An empty input returns
// an empty result instead of dividing by zero.
func FilterByMean(candidates []RankedCandidate) []RankedCandidate {
	if len(candidates) == 0 {
		return nil
	}

	var sum float64
	for _, c := range candidates {
		sum += c.Score
	}
	mean := sum / float64(len(candidates))

	filtered := make([]RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= mean {
			filtered = append(filtered, c)
		}
	}

	return filtered
}
