package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	contents := make([]*genai.Content, 0, len(req.Turns))
	for _, t := range req.Turns {
		role := genai.RoleUser
		if t.Role == RoleAssistant {
			role = genai.RoleModel
		}
		parts := make([]*genai.Part, 0, len(t.Images)+1)
		for _, img := range t.Images {
			mt := img.MediaType
			if mt == "" {
				mt = "image/jpeg"
			}
			parts = append(parts, genai.NewPartFromBytes(img.Data, mt))
		}
		if t.Text != "" {
			parts = append(parts, &genai.Part{Text: t.Text})
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	gcfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		gcfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		gcfg.Temperature = &t
	}
	if req.MaxTokens > 0 {
		gcfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, gcfg)
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate content: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return Response{}, ErrEmptyResponse
	}

	out := Response{Text: text, Model: model}
	if um := resp.UsageMetadata; um != nil && (um.PromptTokenCount > 0 || um.CandidatesTokenCount > 0) {
		out.Usage = Usage{Input: int(um.PromptTokenCount), Output: int(um.CandidatesTokenCount)}
	} else {
		out.Usage = EstimateUsage(req, text)
	}
	return out, nil
}
