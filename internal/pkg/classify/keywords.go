package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Weight is how many times primary keywords are repeated ahead of the
// ambient ones.
const Weight = 3

// DefaultAmbientLimit caps ambient keywords appended to the classifier input.
const DefaultAmbientLimit = 15

const maxKeywordRunes = 15

// families is the fixed emotion dictionary scanned against the analysis text.
var families = [][]string{
	{"불안", "걱정", "초조", "긴장"},
	{"우울", "슬픔", "무기력", "침체"},
	{"외로움", "고독", "고립", "소외"},
	{"분노", "짜증", "공격성", "적대감"},
	{"두려움", "공포", "위축"},
	{"애정 결핍", "애정 욕구", "사랑"},
	{"인정 욕구", "인정받"},
	{"자존감", "열등감", "자신감 부족"},
	{"안정감", "편안함", "평온"},
	{"행복", "기쁨", "즐거움"},
	{"희망", "기대", "낙관"},
	{"방어", "회피", "경계심"},
	{"의존", "의존성"},
	{"통제", "강박", "완벽주의"},
	{"성취", "야망", "추진력"},
}

var (
	keywordHeading = regexp.MustCompile(`주요[ \t]*감정[ \t]*키워드[^\n]*`)
	sectionBreak   = regexp.MustCompile(`^[ \t]*#{1,4}[ \t]`)
	listMarker     = regexp.MustCompile(`^[ \t]*(?:[-*•·]|\d+[.)])[ \t]*`)
	suffixPattern  = regexp.MustCompile(`[가-힣]+(?:욕구|불안|결핍)`)
	phrasePatterns = []string{"애정 결핍", "사회 불안", "인정 욕구"}
)

// SectionKeywords parses the "주요 감정 키워드" block: bullets, numbered
// items or bare lines, each possibly comma separated.
func SectionKeywords(text string) []string {
	loc := keywordHeading.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	var out []string
	for _, line := range strings.Split(text[loc[1]:], "\n") {
		if strings.TrimSpace(line) == "" {
			if len(out) > 0 {
				break
			}
			continue
		}
		if sectionBreak.MatchString(line) {
			break
		}
		line = listMarker.ReplaceAllString(line, "")
		if head, _, ok := strings.Cut(line, ":"); ok {
			line = head
		}
		for _, part := range strings.Split(line, ",") {
			if kw := cleanKeyword(part); kw != "" {
				out = append(out, kw)
			}
		}
	}
	return out
}

func cleanKeyword(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.Trim(s, " \t.·-*\"'()[]")
	if s == "" || utf8.RuneCountInString(s) > maxKeywordRunes {
		return ""
	}
	return s
}

// PatternKeywords finds "*욕구", "*불안", "*결핍" compounds and a few fixed
// phrases anywhere in text.
func PatternKeywords(text string) []string {
	out := suffixPattern.FindAllString(text, -1)
	for _, p := range phrasePatterns {
		if strings.Contains(text, p) {
			out = append(out, p)
		}
	}
	return out
}

// DictionaryKeywords returns every dictionary word literally present in text,
// in dictionary order.
func DictionaryKeywords(text string) []string {
	var out []string
	for _, fam := range families {
		for _, w := range fam {
			if strings.Contains(text, w) {
				out = append(out, w)
			}
		}
	}
	return out
}

// Assemble builds the classifier input keywords: primary keywords from the
// analysis, deduplicated and repeated Weight times, then up to ambientLimit
// ambient keywords not already present. Multiplicity carries the weighting.
func Assemble(text string, ambient []string, ambientLimit int) []string {
	var primary []string
	primary = append(primary, SectionKeywords(text)...)
	primary = append(primary, PatternKeywords(text)...)
	primary = append(primary, DictionaryKeywords(text)...)
	primary = Dedupe(primary)

	out := make([]string, 0, len(primary)*Weight+ambientLimit)
	for range Weight {
		out = append(out, primary...)
	}

	seen := make(map[string]struct{}, len(primary))
	for _, k := range primary {
		seen[k] = struct{}{}
	}
	added := 0
	for _, k := range ambient {
		if added >= ambientLimit {
			break
		}
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
		added++
	}
	return out
}

// Dedupe keeps the first occurrence of each keyword.
func Dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, k := range in {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
