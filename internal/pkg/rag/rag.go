// Package rag retrieves HTP interpretation snippets by vector, lexical and
// hybrid search with optional cross-encoder reranking.
package rag

import (
	"context"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/repo"
)

type Hit struct {
	DocID    string            `json:"doc_id"`
	Document string            `json:"document"`
	Element  string            `json:"element"`
	Text     string            `json:"text"`
	Metadata model.RAGMetadata `json:"metadata"`
	// Score is the ranking score of the final ordering.
	Score float64 `json:"score"`
	// OriginalScore keeps the pre-rerank score for diagnostics.
	OriginalScore float64  `json:"original_score"`
	RerankScore   *float64 `json:"rerank_score,omitempty"`
}

func hitFromDoc(d model.RAGDocument, score float64) Hit {
	return Hit{
		DocID:         d.ID,
		Document:      d.Document,
		Element:       d.Element,
		Text:          d.Text,
		Metadata:      d.Metadata.Data(),
		Score:         score,
		OriginalScore: score,
	}
}

type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Reranker interface {
	// Rerank returns one score per text, aligned with texts.
	Rerank(ctx context.Context, query string, texts []string) ([]float64, error)
}

// Store is the persistence the searcher reads from.
type Store interface {
	VectorSearch(ctx context.Context, q repo.VectorQuery) ([]repo.ScoredDocument, error)
	ListAll(ctx context.Context) ([]model.RAGDocument, error)
}

type Searcher interface {
	VectorSearch(ctx context.Context, query string, k int, document, element string) ([]Hit, error)
	HybridSearch(ctx context.Context, query string, k int, useReranker bool) ([]Hit, error)
}
