package classify

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
)

//go:embed ambient/*.txt
var ambientFS embed.FS

// psychStems selects the ambient words related to emotional state; everyday
// nouns mined alongside them are dropped.
var psychStems = []string{
	"불안", "우울", "외로", "스트레스", "걱정", "긴장", "무기력", "자존", "열등",
	"분노", "짜증", "두려", "공포", "슬픔", "상실", "죄책", "수치", "소외", "고립",
	"공허", "행복", "기쁨", "안정", "편안", "희망", "설렘", "기대", "욕구", "결핍",
	"성취", "책임", "관계", "애정", "인정",
}

func isPsych(word string) bool {
	for _, s := range psychStems {
		if strings.Contains(word, s) {
			return true
		}
	}
	return false
}

// LoadAmbient reads keyword files (one keyword per line, # comments) and
// keeps psych-related words in file order. With no paths the embedded
// default vocabulary is used.
func LoadAmbient(paths []string) ([]string, error) {
	var words []string
	if len(paths) == 0 {
		entries, err := ambientFS.ReadDir("ambient")
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			raw, err := ambientFS.ReadFile("ambient/" + e.Name())
			if err != nil {
				return nil, err
			}
			words = append(words, parseKeywordFile(raw)...)
		}
	}
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read ambient keywords %s: %w", p, err)
		}
		words = append(words, parseKeywordFile(raw)...)
	}

	out := words[:0]
	for _, w := range Dedupe(words) {
		if isPsych(w) {
			out = append(out, w)
		}
	}
	return out, nil
}

func parseKeywordFile(raw []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
