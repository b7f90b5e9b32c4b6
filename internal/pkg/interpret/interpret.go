// Package interpret produces the grounded two-pass analysis of a drawing and
// its user-facing summary.
package interpret

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/artifact"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/llm"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/progress"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/rag"
	"go.uber.org/zap"
)

var ErrNoImage = errors.New("original image not found")

type Item struct {
	Element   string   `json:"element"`
	Condition string   `json:"condition"`
	Keywords  []string `json:"keywords"`
}

type RAGContext struct {
	Query string    `json:"query"`
	Hits  []rag.Hit `json:"hits"`
}

// Result is persisted as the interpretation artifact and read back by the
// classifier and the chat engine.
type Result struct {
	RawText     string      `json:"raw_text"`
	ResultText  string      `json:"result_text"`
	Items       []Item      `json:"items"`
	RAGContext  *RAGContext `json:"rag_context"`
	InitialText string      `json:"initial_text,omitempty"`
	Elements    []string    `json:"elements,omitempty"`
	Usage       llm.Usage   `json:"usage"`
}

type Options struct {
	Temperature float64
	MaxTokens   int
	// UseReranker enables cross-encoder rescoring of retrieval candidates.
	UseReranker bool
}

type Stage struct {
	llm      llm.Client
	searcher rag.Searcher
	store    artifact.Store
	tracker  progress.Tracker
	opts     Options
	log      *zap.Logger
}

// NewStage builds the stage. searcher may be nil, in which case analyses are
// not grounded.
func NewStage(client llm.Client, searcher rag.Searcher, store artifact.Store, tracker progress.Tracker, opts Options, log *zap.Logger) *Stage {
	return &Stage{llm: client, searcher: searcher, store: store, tracker: tracker, opts: opts, log: log}
}

func (s *Stage) complete(ctx context.Context, prompt string, img *llm.Image, usage *llm.Usage) (string, error) {
	var images []llm.Image
	if img != nil {
		images = append(images, *img)
	}
	resp, err := s.llm.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Turns:       llm.UserText(prompt, images...),
		Temperature: llm.Temperature(s.opts.Temperature),
		MaxTokens:   s.opts.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	*usage = usage.Add(resp.Usage)
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

// Run analyzes the original image of uniqueID, writes the interpretation
// artifact and sets the analysis marker. labels are the detector's classes and
// only serve as a hint to the model.
func (s *Stage) Run(ctx context.Context, uniqueID string, labels []string) (*Result, error) {
	raw, err := s.store.Get(ctx, uniqueID, artifact.StageOriginal)
	if errors.Is(err, artifact.ErrNotFound) {
		return nil, ErrNoImage
	}
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}
	img := &llm.Image{MediaType: "image/jpeg", Data: raw}

	var usage llm.Usage
	initial, err := s.complete(ctx, buildInitialPrompt(labels), img, &usage)
	if err != nil {
		return nil, fmt.Errorf("initial analysis: %w", err)
	}

	elements := ExtractElements(initial)
	ragCtx, ref := s.retrieve(ctx, uniqueID, Query(elements))

	final, err := s.complete(ctx, buildFinalPrompt(initial, ref), img, &usage)
	if err != nil {
		return nil, fmt.Errorf("final analysis: %w", err)
	}
	summary, err := s.complete(ctx, buildSummaryPrompt(final), nil, &usage)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}

	res := &Result{
		RawText:     final,
		ResultText:  summary,
		Items:       buildItems(elements, ref),
		RAGContext:  ragCtx,
		InitialText: initial,
		Elements:    elements,
		Usage:       usage,
	}
	payload, err := sonic.Marshal(res)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Put(ctx, uniqueID, artifact.StageInterpretation, payload); err != nil {
		return nil, fmt.Errorf("store interpretation: %w", err)
	}
	if err := s.tracker.Mark(ctx, uniqueID, progress.StageAnalysis); err != nil {
		s.log.Warn("set analysis marker", zap.String("task_id", uniqueID), zap.Error(err))
	}

	s.log.Info("interpretation finished",
		zap.String("task_id", uniqueID),
		zap.Int("elements", len(elements)),
		zap.Bool("grounded", ref != nil),
		zap.Int("input_tokens", usage.Input),
		zap.Int("output_tokens", usage.Output),
		zap.Bool("usage_estimated", usage.Estimated))
	return res, nil
}

// retrieve fetches the single best reference snippet. Failures are logged
// and yield an ungrounded analysis.
func (s *Stage) retrieve(ctx context.Context, uniqueID, query string) (*RAGContext, *rag.Hit) {
	if s.searcher == nil || query == "" {
		return nil, nil
	}
	hits, err := s.searcher.HybridSearch(ctx, query, 1, s.opts.UseReranker)
	if err != nil {
		s.log.Warn("rag retrieval failed, continuing without reference",
			zap.String("task_id", uniqueID), zap.Error(err))
		return nil, nil
	}
	if len(hits) == 0 {
		return &RAGContext{Query: query, Hits: []rag.Hit{}}, nil
	}
	top := hits[0]
	return &RAGContext{Query: query, Hits: []rag.Hit{top}}, &top
}

func buildItems(elements []string, ref *rag.Hit) []Item {
	if ref != nil {
		return []Item{{
			Element:   ref.Element,
			Condition: strings.Join(ref.Metadata.Conditions, "; "),
			Keywords:  nonNil(ref.Metadata.Keywords),
		}}
	}
	items := make([]Item, 0, len(elements))
	for _, e := range elements {
		items = append(items, Item{Element: e, Keywords: []string{}})
	}
	return items
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Load reads a stored interpretation artifact.
func Load(ctx context.Context, store artifact.Store, uniqueID string) (*Result, error) {
	raw, err := store.Get(ctx, uniqueID, artifact.StageInterpretation)
	if err != nil {
		return nil, err
	}
	var res Result
	if err := sonic.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode interpretation %s: %w", uniqueID, err)
	}
	return &res, nil
}
