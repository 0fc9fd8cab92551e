// Package similarity implements cosine similarity and linear-scan nearest
// neighbor ranking over embedding vectors. The scale target is thousands of
// vectors, so no index structure is used.
package similarity

import (
	"math"
	"sort"
)

const (
	// DefaultThreshold is the minimum similarity used by the semantic engine
	// call sites.
	DefaultThreshold = 0.7

	// DefaultLimit is the maximum result count used by the semantic engine
	// call sites.
	DefaultLimit = 5
)

// Candidate is a stored vector with the metadata that should be copied onto
// its result.
type Candidate struct {
	Id       string
	Vector   []float32
	Metadata map[string]string
}

// Result is an ephemeral per-query match. Score is cosine similarity in
// [-1, 1]; threshold filtering keeps the displayed range at [0, 1] in
// practice.
type Result struct {
	Id       string
	Metadata map[string]string
	Score    float64
}

// Cosine returns the cosine similarity of two vectors. Mismatched lengths,
// empty vectors, and zero-norm vectors all yield 0.0 rather than an error.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores every candidate against the query vector, discards candidates
// scoring strictly below threshold, sorts the rest by score descending with
// ties keeping their input order, and returns at most limit results.
func Rank(query []float32, candidates []Candidate, limit int, threshold float64) []Result {
	if limit < 1 {
		return nil
	}

	results := make([]Result, 0, len(candidates))

	for _, cand := range candidates {
		score := Cosine(query, cand.Vector)
		if score < threshold {
			continue
		}
		results = append(results, Result{
			Id:       cand.Id,
			Metadata: cand.Metadata,
			Score:    score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results
}
