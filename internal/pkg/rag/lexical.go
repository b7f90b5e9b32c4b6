package rag

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
)

// Field boosts for the multi-match query.
const (
	BoostText         = 2.0
	BoostKeywords     = 5.0
	BoostExplanations = 1.5
	BoostConditions   = 1.0
)

const bm25K1 = 1.2

type lexField struct {
	boost  float64
	tokens []string
}

type lexDoc struct {
	hit    Hit
	fields []lexField
}

// LexicalIndex is an in-memory weighted multi-match over the corpus. The
// corpus is small and static, so it is rebuilt wholesale on reload.
type LexicalIndex struct {
	docs []lexDoc
}

func NewLexicalIndex(docs []model.RAGDocument) *LexicalIndex {
	idx := &LexicalIndex{docs: make([]lexDoc, 0, len(docs))}
	for _, d := range docs {
		meta := d.Metadata.Data()
		idx.docs = append(idx.docs, lexDoc{
			hit: hitFromDoc(d, 0),
			fields: []lexField{
				{boost: BoostText, tokens: Tokenize(d.Text)},
				{boost: BoostKeywords, tokens: Tokenize(strings.Join(meta.Keywords, " "))},
				{boost: BoostExplanations, tokens: Tokenize(strings.Join(meta.Explanations, " "))},
				{boost: BoostConditions, tokens: Tokenize(strings.Join(meta.Conditions, " "))},
			},
		})
	}
	return idx
}

func (x *LexicalIndex) Len() int { return len(x.docs) }

// Search ranks documents by boosted BM25-style term scores. document, when
// non-empty, restricts candidates to one drawing type.
func (x *LexicalIndex) Search(query string, k int, document string) []Hit {
	terms := uniqueTokens(Tokenize(query))
	if len(terms) == 0 || len(x.docs) == 0 {
		return nil
	}

	n := float64(len(x.docs))
	idf := make([]float64, len(terms))
	for ti, t := range terms {
		df := 0
		for _, d := range x.docs {
			if d.matches(t) {
				df++
			}
		}
		idf[ti] = math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
	}

	var hits []Hit
	for _, d := range x.docs {
		if document != "" && d.hit.Document != document {
			continue
		}
		score := 0.0
		for ti, t := range terms {
			for _, f := range d.fields {
				tf := float64(countMatches(f.tokens, t))
				if tf == 0 {
					continue
				}
				score += f.boost * idf[ti] * tf * (bm25K1 + 1) / (tf + bm25K1)
			}
		}
		if score <= 0 {
			continue
		}
		h := d.hit
		h.Score = score
		h.OriginalScore = score
		hits = append(hits, h)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func (d lexDoc) matches(term string) bool {
	for _, f := range d.fields {
		if countMatches(f.tokens, term) > 0 {
			return true
		}
	}
	return false
}

func countMatches(tokens []string, term string) int {
	c := 0
	for _, tok := range tokens {
		if tokenMatch(tok, term) {
			c++
		}
	}
	return c
}

// tokenMatch treats a trailing Korean particle as noise, so "창문이" matches
// "창문". Single-rune prefixes only match exactly.
func tokenMatch(tok, term string) bool {
	if tok == term {
		return true
	}
	short, long := tok, term
	if len(short) > len(long) {
		short, long = long, short
	}
	if utf8.RuneCountInString(short) < 2 {
		return false
	}
	return strings.HasPrefix(long, short)
}

// Tokenize lowercases text and splits it on anything that is not a letter or
// digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// DocumentFilter maps a drawing-type word in the query to a document type.
// Checked in house, person, tree order; "" means no restriction.
func DocumentFilter(query string) string {
	switch {
	case strings.Contains(query, "집"), strings.Contains(query, "주택"):
		return model.DocumentHouse
	case strings.Contains(query, "사람"), strings.Contains(query, "인물"):
		return model.DocumentPerson
	case strings.Contains(query, "나무"):
		return model.DocumentTree
	}
	return ""
}
