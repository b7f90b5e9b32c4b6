package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint, such as a
// text-embeddings-inference server hosting a Korean sentence model.
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	dim       int
	batchSize int
}

func NewOpenAIEmbedder(baseURL, apiKey, model string, dim, batchSize int, timeout time.Duration) *OpenAIEmbedder {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	return &OpenAIEmbedder{client: openai.NewClient(opts...), model: model, dim: dim, batchSize: batchSize}
}

func (e *OpenAIEmbedder) Model() string { return e.model }

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Model: openai.EmbeddingModel(e.model),
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts[start:end]},
		})
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		for _, d := range resp.Data {
			i := start + int(d.Index)
			if i < start || i >= end {
				return nil, fmt.Errorf("embedding index %d out of range", d.Index)
			}
			v := make([]float32, len(d.Embedding))
			for j, f := range d.Embedding {
				v[j] = float32(f)
			}
			if e.dim > 0 && len(v) != e.dim {
				return nil, fmt.Errorf("embedding dim %d, want %d", len(v), e.dim)
			}
			out[i] = v
		}
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return out, nil
}

// CachedEmbedder memoizes query embeddings in Redis.
type CachedEmbedder struct {
	next  Embedder
	rdb   *redis.Client
	model string
	ttl   time.Duration
}

func NewCachedEmbedder(next Embedder, rdb *redis.Client, model string, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{next: next, rdb: rdb, model: model, ttl: ttl}
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(c.model + "\x00" + text))
	return "htp:emb:" + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, t := range texts {
		raw, err := c.rdb.Get(ctx, c.key(t)).Bytes()
		if err == nil {
			var v []float32
			if sonic.Unmarshal(raw, &v) == nil && len(v) > 0 {
				out[i] = v
				continue
			}
		} else if !errors.Is(err, redis.Nil) {
			// cache unavailable, fall through to the model
			missIdx, missTexts = allIndexes(texts), texts
			break
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		if b, err := sonic.Marshal(vecs[j]); err == nil {
			_ = c.rdb.Set(ctx, c.key(texts[i]), b, c.ttl).Err()
		}
	}
	return out, nil
}

func allIndexes(texts []string) []int {
	idx := make([]int, len(texts))
	for i := range idx {
		idx[i] = i
	}
	return idx
}
