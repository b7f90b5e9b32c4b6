// Package llm is the text/vision completion capability shared by the
// interpretation stage and the chat engine.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/config"
)

var ErrEmptyResponse = errors.New("llm returned no content")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Image struct {
	MediaType string
	Data      []byte
}

type Turn struct {
	Role   Role
	Text   string
	Images []Image
}

type Request struct {
	// Model overrides the client's default model when set.
	Model       string
	System      string
	Turns       []Turn
	Temperature *float64
	MaxTokens   int
}

type Usage struct {
	Input     int  `json:"input"`
	Output    int  `json:"output"`
	Estimated bool `json:"estimated"`
}

func (u Usage) Total() int { return u.Input + u.Output }

// Add sums two usages. The result is estimated if either side was.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		Input:     u.Input + o.Input,
		Output:    u.Output + o.Output,
		Estimated: u.Estimated || o.Estimated,
	}
}

type Response struct {
	Text  string
	Model string
	Usage Usage
}

type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Temperature is a convenience for Request.Temperature.
func Temperature(t float64) *float64 { return &t }

// EstimateTokens approximates a token count as ceil(chars/4).
func EstimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	return (n + 3) / 4
}

// EstimateUsage is used when a provider omits usage.
func EstimateUsage(req Request, output string) Usage {
	var b strings.Builder
	b.WriteString(req.System)
	for _, t := range req.Turns {
		b.WriteString(t.Text)
	}
	return Usage{Input: EstimateTokens(b.String()), Output: EstimateTokens(output), Estimated: true}
}

// UserText builds a single-turn request body.
func UserText(text string, images ...Image) []Turn {
	return []Turn{{Role: RoleUser, Text: text, Images: images}}
}

// New selects the provider named by llm.provider.
func New(cfg *config.Config, model string) (Client, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return NewOpenAI(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.BaseURL, model, cfg.LLM.MaxRetries, cfg.LLM.Timeout), nil
	case "anthropic":
		return NewAnthropic(cfg.LLM.Anthropic.APIKey, model, cfg.LLM.MaxRetries, cfg.LLM.Timeout), nil
	case "gemini":
		return NewGemini(context.Background(), cfg.LLM.Gemini.APIKey, model, cfg.LLM.Timeout)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (Response, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
