package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type classifyRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

// ClassifierClient calls the HuggingFace text-classification inference API
// at {base_url}/{model_name}.
type ClassifierClient struct {
	baseClient
	Model string
}

func NewClassifierClient(baseURL, token, model string, timeout time.Duration, log *zap.Logger) *ClassifierClient {
	return &ClassifierClient{baseClient: newBaseClient(baseURL, token, timeout, log), Model: model}
}

// Classify returns a score for every label the model knows.
func (c *ClassifierClient) Classify(ctx context.Context, text string) ([]LabelScore, error) {
	req := classifyRequest{
		Inputs:     text,
		Parameters: map[string]any{"top_k": 5, "function_to_apply": "none"},
		Options:    map[string]any{"wait_for_model": true},
	}
	var raw json.RawMessage
	if err := c.postJSON(ctx, "classify", c.BaseURL+"/"+c.Model, req, &raw); err != nil {
		return nil, err
	}
	return parseLabelScores(raw)
}

// Ping checks that the model endpoint answers.
func (c *ClassifierClient) Ping(ctx context.Context) error {
	_, err := c.Classify(ctx, "안녕")
	return err
}

// parseLabelScores accepts both the nested [[...]] and flat [...] shapes the
// inference API returns, plus its {"error": ...} body.
func parseLabelScores(raw []byte) ([]LabelScore, error) {
	var nested [][]LabelScore
	if err := sonic.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}
	var flat []LabelScore
	if err := sonic.Unmarshal(raw, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := sonic.Unmarshal(raw, &apiErr); err == nil && apiErr.Error != "" {
		return nil, fmt.Errorf("classifier: %s", apiErr.Error)
	}
	return nil, errors.New("classifier: unexpected response shape")
}
