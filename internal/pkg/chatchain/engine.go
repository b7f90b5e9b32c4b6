package chatchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/llm"
	"go.uber.org/zap"
)

type Options struct {
	Temperature      float64
	MaxTokens        int
	SummaryMaxChars  int
	GreetingMaxChars int
}

type Engine struct {
	llm  llm.Client
	cat  *Catalog
	opts Options
	log  *zap.Logger
}

func NewEngine(client llm.Client, cat *Catalog, opts Options, log *zap.Logger) *Engine {
	return &Engine{llm: client, cat: cat, opts: opts, log: log}
}

type Reply struct {
	Text string
	// Base is the stage-1 answer before the persona transform.
	Base     string
	Usage    llm.Usage
	Fallback bool
	Err      error
}

func (e *Engine) call(ctx context.Context, stage string, req llm.Request) (string, llm.Usage, error) {
	req.Temperature = llm.Temperature(e.opts.Temperature)
	req.MaxTokens = e.opts.MaxTokens
	resp, err := e.llm.Complete(ctx, req)
	if err != nil {
		return "", llm.Usage{}, fmt.Errorf("%s: %w", stage, err)
	}
	e.log.Info("llm call",
		zap.String("stage", stage),
		zap.String("model", resp.Model),
		zap.Int("input_tokens", resp.Usage.Input),
		zap.Int("output_tokens", resp.Usage.Output),
		zap.Bool("usage_estimated", resp.Usage.Estimated))
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", resp.Usage, fmt.Errorf("%s: %w", stage, llm.ErrEmptyResponse)
	}
	return text, resp.Usage, nil
}

// Reply runs both stages. It never fails: on any error the canned fallback
// line is returned with Fallback set and Err recording the cause.
func (e *Engine) Reply(ctx context.Context, in TurnInput) Reply {
	persona, ok := e.cat.Persona(in.PersonaID)
	if !ok {
		return e.fallback(llm.Usage{}, fmt.Errorf("unknown persona %d", in.PersonaID))
	}

	base, u1, err := e.call(ctx, "common_rules", BuildStage1(e.cat, in))
	if err != nil {
		return e.fallback(u1, err)
	}
	text, u2, err := e.call(ctx, "persona_"+persona.Key, BuildStage2(persona, base, in.UserText))
	usage := u1.Add(u2)
	if err != nil {
		return e.fallback(usage, err)
	}

	e.log.Info("chat reply generated",
		zap.Int("persona_id", in.PersonaID),
		zap.Int("total_tokens", usage.Total()),
		zap.Bool("usage_estimated", usage.Estimated))
	return Reply{Text: text, Base: base, Usage: usage}
}

func (e *Engine) fallback(usage llm.Usage, err error) Reply {
	e.log.Warn("chat chain failed, sending fallback reply", zap.Error(err))
	return Reply{Text: FallbackReply, Usage: usage, Fallback: true, Err: err}
}

// Summarize folds older messages into the running summary.
func (e *Engine) Summarize(ctx context.Context, existing string, older []Message) (string, llm.Usage, error) {
	if len(older) == 0 {
		return existing, llm.Usage{}, nil
	}
	text, usage, err := e.call(ctx, "summary", BuildSummary(existing, older, e.opts.SummaryMaxChars))
	if err != nil {
		return "", usage, err
	}
	return TruncateRunes(text, e.opts.SummaryMaxChars), usage, nil
}

// Greeting returns the personalized opening line, or "" without calling the
// model when there is no analysis to ground it on.
func (e *Engine) Greeting(ctx context.Context, personaID int, g *Grounding) (string, error) {
	if g == nil || strings.TrimSpace(g.ResultText) == "" {
		return "", nil
	}
	persona, ok := e.cat.Persona(personaID)
	if !ok {
		return "", fmt.Errorf("unknown persona %d", personaID)
	}
	text, _, err := e.call(ctx, "greeting", BuildGreeting(persona, *g, e.opts.GreetingMaxChars))
	if err != nil {
		return "", err
	}
	return TruncateRunes(text, e.opts.GreetingMaxChars), nil
}
