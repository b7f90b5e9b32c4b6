package rag

import "sort"

// DefaultRRFK is the rank constant used when none is configured.
const DefaultRRFK = 60

// ReciprocalRankFusion merges ranked lists with score(d) = Σ wᵢ / (k + rankᵢ(d) + 1),
// rank being zero-based. Missing weights default to 1. The first occurrence of
// a document supplies its fields.
func ReciprocalRankFusion(lists [][]Hit, weights []float64, k int) []Hit {
	if k <= 0 {
		k = DefaultRRFK
	}
	scores := make(map[string]float64)
	first := make(map[string]Hit)
	var order []string

	for li, list := range lists {
		w := 1.0
		if li < len(weights) {
			w = weights[li]
		}
		for rank, h := range list {
			if _, ok := first[h.DocID]; !ok {
				first[h.DocID] = h
				order = append(order, h.DocID)
			}
			scores[h.DocID] += w / float64(k+rank+1)
		}
	}

	out := make([]Hit, 0, len(order))
	for _, id := range order {
		h := first[id]
		h.Score = scores[id]
		h.OriginalScore = scores[id]
		out = append(out, h)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
