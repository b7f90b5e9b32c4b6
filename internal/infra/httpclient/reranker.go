package httpclient

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type RerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
	Truncate  bool     `json:"truncate"`
}

type RerankScore struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// RerankerClient calls a text-embeddings-inference style /rerank endpoint
// serving a cross-encoder.
type RerankerClient struct {
	baseClient
}

func NewRerankerClient(baseURL, token string, timeout time.Duration, log *zap.Logger) *RerankerClient {
	return &RerankerClient{baseClient: newBaseClient(baseURL, token, timeout, log)}
}

func (c *RerankerClient) Rerank(ctx context.Context, query string, texts []string) ([]RerankScore, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var scores []RerankScore
	req := RerankRequest{Query: query, Texts: texts, Truncate: true}
	if err := c.postJSON(ctx, "rerank", c.BaseURL+"/rerank", req, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}
