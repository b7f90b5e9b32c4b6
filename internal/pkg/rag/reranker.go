package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/infra/httpclient"
)

// HTTPReranker adapts the cross-encoder server client to Reranker.
type HTTPReranker struct {
	Client *httpclient.RerankerClient
}

func (r HTTPReranker) Rerank(ctx context.Context, query string, texts []string) ([]float64, error) {
	scores, err := r.Client.Rerank(ctx, query, texts)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(texts))
	seen := make([]bool, len(texts))
	for _, s := range scores {
		if s.Index < 0 || s.Index >= len(texts) {
			return nil, fmt.Errorf("rerank index %d out of range", s.Index)
		}
		out[s.Index] = s.Score
		seen[s.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("rerank score missing for candidate %d", i)
		}
	}
	return out, nil
}

// ApplyRerank rescores hits and sorts them by rerank score, descending. The
// pre-rerank score is kept in OriginalScore.
func ApplyRerank(ctx context.Context, r Reranker, query string, hits []Hit) ([]Hit, error) {
	if len(hits) == 0 {
		return hits, nil
	}
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
	}
	scores, err := r.Rerank(ctx, query, texts)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(hits) {
		return nil, fmt.Errorf("reranker returned %d scores for %d hits", len(scores), len(hits))
	}
	out := make([]Hit, len(hits))
	for i, h := range hits {
		s := scores[i]
		h.OriginalScore = h.Score
		h.RerankScore = &s
		h.Score = s
		out[i] = h
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}
