package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/repo"
	"go.uber.org/zap"
)

var ErrEmptyQuery = errors.New("rag: empty query")

type Options struct {
	EfSearch      int
	CandidatePool int
	RRFK          int
	VectorWeight  float64
	LexicalWeight float64
}

func (o Options) withDefaults() Options {
	if o.CandidatePool <= 0 {
		o.CandidatePool = 20
	}
	if o.RRFK <= 0 {
		o.RRFK = DefaultRRFK
	}
	if o.VectorWeight == 0 {
		o.VectorWeight = 1
	}
	if o.LexicalWeight == 0 {
		o.LexicalWeight = 1
	}
	return o
}

type searcher struct {
	store    Store
	embedder Embedder
	reranker Reranker
	opts     Options
	log      *zap.Logger

	mu  sync.Mutex
	lex *LexicalIndex
}

// NewSearcher builds a Searcher. reranker may be nil, in which case
// use_reranker requests are served unreranked.
func NewSearcher(store Store, embedder Embedder, reranker Reranker, opts Options, log *zap.Logger) Searcher {
	return &searcher{
		store:    store,
		embedder: embedder,
		reranker: reranker,
		opts:     opts.withDefaults(),
		log:      log,
	}
}

func (s *searcher) embedQuery(ctx context.Context, query string) (model.Vector, error) {
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vecs))
	}
	return model.Vector(vecs[0]), nil
}

func (s *searcher) VectorSearch(ctx context.Context, query string, k int, document, element string) ([]Hit, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	emb, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.VectorSearch(ctx, repo.VectorQuery{
		Embedding: emb,
		K:         k,
		Document:  document,
		Element:   element,
		EfSearch:  s.opts.EfSearch,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	hits := make([]Hit, len(rows))
	for i, r := range rows {
		hits[i] = hitFromDoc(r.RAGDocument, r.Score)
	}
	return hits, nil
}

func (s *searcher) lexical(ctx context.Context) (*LexicalIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lex != nil {
		return s.lex, nil
	}
	docs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.lex = NewLexicalIndex(docs)
	return s.lex, nil
}

// Reload drops the cached lexical index so the next query re-reads the corpus.
func (s *searcher) Reload() {
	s.mu.Lock()
	s.lex = nil
	s.mu.Unlock()
}

func (s *searcher) HybridSearch(ctx context.Context, query string, k int, useReranker bool) ([]Hit, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = 5
	}
	pool := max(s.opts.CandidatePool, k)
	document := DocumentFilter(query)

	vec, err := s.VectorSearch(ctx, query, pool, document, "")
	if err != nil {
		return nil, err
	}

	var lex []Hit
	if idx, err := s.lexical(ctx); err != nil {
		s.log.Warn("lexical index unavailable, using vector results only", zap.Error(err))
	} else {
		lex = idx.Search(query, pool, document)
	}

	fused := ReciprocalRankFusion([][]Hit{vec, lex}, []float64{s.opts.VectorWeight, s.opts.LexicalWeight}, s.opts.RRFK)
	if len(fused) > pool {
		fused = fused[:pool]
	}

	if useReranker && s.reranker != nil && len(fused) > 0 {
		reranked, err := ApplyRerank(ctx, s.reranker, query, fused)
		if err != nil {
			s.log.Warn("rerank failed, keeping fused order", zap.Error(err))
		} else {
			fused = reranked
		}
	}

	if len(fused) > k {
		fused = fused[:k]
	}
	return fused, nil
}
