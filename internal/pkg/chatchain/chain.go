// Package chatchain builds the persona-chained counseling prompts: a
// common-rules answer, a persona transform of it, rolling conversation
// summaries and the first-turn greeting.
package chatchain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/llm"
)

// FallbackReply is sent when either stage fails.
const FallbackReply = "미안해... 지금은 마음이 좀 복잡해서 제대로 답변을 주기 어려워. 잠시 후에 다시 이야기해줄 수 있을까..?"

const rawPrefixRunes = 200

type Message struct {
	Role    llm.Role
	Content string
}

// Grounding is the user's latest drawing analysis.
type Grounding struct {
	ResultText string
	RawText    string
}

type TurnInput struct {
	PersonaID int
	UserText  string
	// Recent is the live window, oldest first.
	Recent    []Message
	Summary   string
	Grounding *Grounding
}

// BuildStage1 assembles the common-rules request.
func BuildStage1(cat *Catalog, in TurnInput) llm.Request {
	var sys strings.Builder
	sys.WriteString(cat.CommonRules)

	if g := in.Grounding; g != nil && (g.ResultText != "" || g.RawText != "") {
		sys.WriteString("\n\n[사용자의 HTP 그림 분석 결과]\n")
		sys.WriteString("아래 분석은 사용자를 이해하는 데에만 참고하고, 문장을 그대로 옮기지 마라.\n")
		if g.ResultText != "" {
			sys.WriteString("요약: " + strings.TrimSpace(g.ResultText) + "\n")
		}
		if g.RawText != "" {
			sys.WriteString("상세 분석 일부: " + TruncateRunes(strings.TrimSpace(g.RawText), rawPrefixRunes) + "\n")
		}
	}

	if s := strings.TrimSpace(in.Summary); s != "" {
		sys.WriteString("\n\n이전 대화의 흐름을 이어서 자연스럽게 대화하라.\n[과거 대화 요약]\n")
		sys.WriteString(s)
	}

	turns := make([]llm.Turn, 0, len(in.Recent)+1)
	for _, m := range in.Recent {
		turns = append(turns, llm.Turn{Role: m.Role, Text: m.Content})
	}
	turns = append(turns, llm.Turn{Role: llm.RoleUser, Text: in.UserText})

	return llm.Request{System: sys.String(), Turns: turns}
}

// BuildStage2 asks for the stage-1 answer rewritten in the persona's voice.
func BuildStage2(p Persona, base, userText string) llm.Request {
	sys := fmt.Sprintf(`너는 아래 페르소나로 말하는 상담 챗봇이다.

%s

[사용자 메시지]
%s

[기본 답변]
%s

기본 답변의 의도, 정보, 안전 안내는 그대로 유지하면서 말투와 어조만 페르소나에 맞게 바꿔라.
바꾼 답변만 출력하고 설명은 덧붙이지 마라.`, p.Prompt, strings.TrimSpace(userText), strings.TrimSpace(base))

	return llm.Request{
		System: sys,
		Turns:  llm.UserText("기본 답변을 " + p.Name + " 페르소나의 말투로 바꿔 줘."),
	}
}

// Transcript renders messages with 사용자/상담사 labels.
func Transcript(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		label := "사용자"
		if m.Role == llm.RoleAssistant {
			label = "상담사"
		}
		b.WriteString(label + ": " + strings.TrimSpace(m.Content) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildSummary compresses older messages together with the existing summary.
func BuildSummary(existing string, older []Message, maxRunes int) llm.Request {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "다음 상담 대화를 %d자 이내의 한국어 요약으로 정리해 줘.\n", maxRunes)
	prompt.WriteString("사용자의 주요 고민과 상담사가 건넨 핵심 조언은 반드시 남겨 줘. 요약문만 출력해.\n")
	if s := strings.TrimSpace(existing); s != "" {
		prompt.WriteString("\n[기존 요약]\n" + s + "\n기존 요약의 내용도 새 요약에 통합해 줘.\n")
	}
	prompt.WriteString("\n[대화]\n" + Transcript(older))

	return llm.Request{
		System: "너는 상담 기록을 간결하게 요약하는 도우미다.",
		Turns:  llm.UserText(prompt.String()),
	}
}

// BuildGreeting asks for a short opening line grounded on the analysis.
func BuildGreeting(p Persona, g Grounding, maxRunes int) llm.Request {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "사용자와의 첫 대화를 여는 인사말을 %d자 이내로 써 줘.\n", maxRunes)
	prompt.WriteString("그림 분석 내용을 자연스럽게 한 가지 짚되, 진단처럼 들리지 않게 따뜻하게 대화를 청해 줘.\n")
	prompt.WriteString("인사말만 출력해.\n\n[그림 분석 요약]\n" + strings.TrimSpace(g.ResultText))

	return llm.Request{
		System: fmt.Sprintf("너는 %s 페르소나의 상담 챗봇이다. %s\n\n%s", p.Name, p.Greeting, p.Prompt),
		Turns:  llm.UserText(prompt.String()),
	}
}

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
