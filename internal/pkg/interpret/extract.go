package interpret

import (
	"regexp"
	"strings"
)

var (
	sectionTwoStart = regexp.MustCompile(`(?m)^[ \t]*(#{1,4}[ \t]*)?(\*\*)?2\.[ \t]`)
	nextHeading     = regexp.MustCompile(`(?m)^[ \t]*#{1,4}[ \t]`)
	bulletLine      = regexp.MustCompile(`^[ \t]*(?:[-*•·]|\d+[.)]|[가-힣][.)])[ \t]+(.+)$`)
	spaces          = regexp.MustCompile(`\s+`)
)

// Heading styles accepted for the first section, tried in order. A markdown
// heading runs until the next markdown heading so numbered items inside it
// survive; the other styles run until "2.".
var sectionOnePatterns = []struct {
	start, end *regexp.Regexp
}{
	{regexp.MustCompile(`(?m)^[ \t]*#{1,4}[ \t]*1\.[^\n]*$`), nextHeading},
	{regexp.MustCompile(`(?m)^[ \t]*1\.[ \t]*\*\*[^\n]*\*\*[^\n]*$`), sectionTwoStart},
	{regexp.MustCompile(`(?m)^[ \t]*1\.[ \t]*심리[ \t]*분석[ \t]*요소[ \t]*식별[^\n]*$`), sectionTwoStart},
	{regexp.MustCompile(`(?m)^[^\n]*심리[ \t]*분석[ \t]*요소[ \t]*식별[^\n]*$`), sectionTwoStart},
}

// fallbackElements are scanned for when the first section cannot be parsed.
var fallbackElements = []string{"집", "나무", "사람"}

const maxElements = 20

// SectionOne returns the body of the "심리 분석 요소 식별" section, or "" when
// no supported heading is found.
func SectionOne(text string) string {
	for _, p := range sectionOnePatterns {
		loc := p.start.FindStringIndex(text)
		if loc == nil {
			continue
		}
		body := text[loc[1]:]
		if end := p.end.FindStringIndex(body); end != nil {
			body = body[:end[0]]
		}
		if strings.TrimSpace(body) != "" {
			return body
		}
	}
	return ""
}

// ExtractElements lists the observed element phrases of the first section in
// order. When the section is missing, the fixed drawing types found in the
// text are returned instead.
func ExtractElements(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(s string) {
		if _, ok := seen[s]; ok || s == "" || len(out) >= maxElements {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, line := range strings.Split(SectionOne(text), "\n") {
		m := bulletLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		add(cleanPhrase(m[1]))
	}
	if len(out) > 0 {
		return out
	}

	for _, e := range fallbackElements {
		if strings.Contains(text, e) {
			add(e)
		}
	}
	return out
}

func cleanPhrase(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.Trim(s, " \t:*-")
	return spaces.ReplaceAllString(s, " ")
}

// Query joins element phrases into one retrieval query.
func Query(elements []string) string {
	return strings.TrimSpace(strings.Join(elements, " "))
}
