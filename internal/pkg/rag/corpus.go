package rag

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"gorm.io/datatypes"
)

// Item is one annotated element parsed from a corpus markdown file.
type Item struct {
	Element      string
	Conditions   []string
	Keywords     []string
	Explanations []string
}

const (
	markElement     = "요소:"
	markCondition   = "조건:"
	markKeyword     = "키워드:"
	markExplanation = "해석:"
)

// ParseMarkdown splits an annotation file into items. Each "요소:" starts a
// new item; "조건:", "키워드:" and "해석:" lines attach to the current one.
// Bare continuation lines extend the last explanation.
func ParseMarkdown(content string) []Item {
	var items []Item
	var cur *Item
	last := ""

	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := cleanLine(sc.Text())
		if line == "" {
			continue
		}
		if v, ok := cutMark(line, markElement); ok {
			items = append(items, Item{Element: v})
			cur = &items[len(items)-1]
			last = markElement
			continue
		}
		if cur == nil {
			continue
		}
		switch {
		case hasMark(line, markCondition):
			v, _ := cutMark(line, markCondition)
			if v != "" {
				cur.Conditions = append(cur.Conditions, v)
			}
			last = markCondition
		case hasMark(line, markKeyword):
			v, _ := cutMark(line, markKeyword)
			cur.Keywords = append(cur.Keywords, splitKeywords(v)...)
			last = markKeyword
		case hasMark(line, markExplanation):
			v, _ := cutMark(line, markExplanation)
			if v != "" {
				cur.Explanations = append(cur.Explanations, v)
			}
			last = markExplanation
		case last == markExplanation && len(cur.Explanations) > 0:
			n := len(cur.Explanations) - 1
			cur.Explanations[n] += " " + line
		}
	}

	out := items[:0]
	for _, it := range items {
		if it.Element != "" {
			out = append(out, it)
		}
	}
	return out
}

func cleanLine(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "#>-*• \t")
	s = strings.ReplaceAll(s, "**", "")
	return strings.TrimSpace(s)
}

func hasMark(line, mark string) bool {
	return strings.HasPrefix(line, mark)
}

func cutMark(line, mark string) (string, bool) {
	rest, ok := strings.CutPrefix(line, mark)
	return strings.TrimSpace(rest), ok
}

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '/' || r == '·' }) {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Text is the string embedded for an item.
func (it Item) Text() string {
	var b strings.Builder
	b.WriteString(markElement + " " + it.Element)
	if len(it.Conditions) > 0 {
		b.WriteString("\n" + markCondition + " " + strings.Join(it.Conditions, "; "))
	}
	if len(it.Keywords) > 0 {
		b.WriteString("\n" + markKeyword + " " + strings.Join(it.Keywords, ", "))
	}
	if len(it.Explanations) > 0 {
		b.WriteString("\n" + markExplanation + " " + strings.Join(it.Explanations, " "))
	}
	return b.String()
}

// DocumentFromFilename infers the drawing type from a corpus file name such
// as "house_roof.md" or "나무.md".
func DocumentFromFilename(name string) (string, error) {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	switch {
	case strings.Contains(base, "house"), strings.Contains(base, "집"):
		return model.DocumentHouse, nil
	case strings.Contains(base, "tree"), strings.Contains(base, "나무"):
		return model.DocumentTree, nil
	case strings.Contains(base, "person"), strings.Contains(base, "사람"):
		return model.DocumentPerson, nil
	}
	return "", fmt.Errorf("cannot infer drawing type from %q", name)
}

// ToDocuments converts parsed items to rows with deterministic ids so that
// re-indexing the same file overwrites instead of duplicating.
func ToDocuments(source, document string, items []Item) []model.RAGDocument {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	docs := make([]model.RAGDocument, len(items))
	for i, it := range items {
		docs[i] = model.RAGDocument{
			ID:       fmt.Sprintf("%s-%s-%03d", document, stem, i),
			Document: document,
			Element:  it.Element,
			Text:     it.Text(),
			Metadata: datatypes.NewJSONType(model.RAGMetadata{
				Keywords:     nonNil(it.Keywords),
				Conditions:   nonNil(it.Conditions),
				Explanations: nonNil(it.Explanations),
			}),
			Source: filepath.Base(source),
		}
	}
	return docs
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
