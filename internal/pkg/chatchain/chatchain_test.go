package chatchain

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"unicode/utf8"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func catalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := LoadCatalog("")
	require.NoError(t, err)
	return cat
}

func TestLoadCatalog_Embedded(t *testing.T) {
	cat := catalog(t)
	assert.Contains(t, cat.CommonRules, "위기 대응")
	keys := map[int]string{1: "chujin", 2: "nemyeon", 3: "gwangye", 4: "querock", 5: "anjeong"}
	for id, key := range keys {
		p, ok := cat.Persona(id)
		require.True(t, ok)
		assert.Equal(t, key, p.Key)
		assert.NotEmpty(t, p.Prompt)
		assert.NotEmpty(t, p.Greeting)
	}
	_, ok := cat.Persona(6)
	assert.False(t, ok)
}

func TestLoadCatalogFS_RejectsWrongKey(t *testing.T) {
	fsys := fstest.MapFS{
		"common_rules.md": {Data: []byte("rules")},
		"manifest.yaml":   {Data: []byte("personas:\n  - id: 1\n    key: wrong\n    file: p.md\n")},
		"p.md":            {Data: []byte("x")},
	}
	_, err := LoadCatalogFS(fsys)
	assert.ErrorContains(t, err, "chujin")

	fsys["manifest.yaml"] = &fstest.MapFile{Data: []byte("personas:\n  - id: 1\n    key: chujin\n    file: p.md\n")}
	_, err = LoadCatalogFS(fsys)
	assert.ErrorContains(t, err, "missing")
}

func TestBuildStage1(t *testing.T) {
	cat := catalog(t)
	raw := strings.Repeat("가", 300)
	req := BuildStage1(cat, TurnInput{
		PersonaID: 2,
		UserText:  "요즘 너무 힘들어",
		Recent: []Message{
			{Role: llm.RoleUser, Content: "안녕"},
			{Role: llm.RoleAssistant, Content: "안녕, 반가워"},
		},
		Summary:   "시험 스트레스를 이야기함",
		Grounding: &Grounding{ResultText: "불안이 보입니다.", RawText: raw},
	})

	assert.True(t, strings.HasPrefix(req.System, cat.CommonRules))
	assert.Contains(t, req.System, "불안이 보입니다.")
	assert.Contains(t, req.System, strings.Repeat("가", 200))
	assert.NotContains(t, req.System, strings.Repeat("가", 201))
	assert.Contains(t, req.System, "[과거 대화 요약]\n시험 스트레스를 이야기함")
	require.Len(t, req.Turns, 3)
	assert.Equal(t, llm.RoleAssistant, req.Turns[1].Role)
	assert.Equal(t, llm.Turn{Role: llm.RoleUser, Text: "요즘 너무 힘들어"}, req.Turns[2])

	bare := BuildStage1(cat, TurnInput{UserText: "hi"})
	assert.Equal(t, cat.CommonRules, bare.System)
	assert.Len(t, bare.Turns, 1)
}

func TestBuildStage2(t *testing.T) {
	p, _ := catalog(t).Persona(3)
	req := BuildStage2(p, "기본 답이야", "힘들어")
	assert.Contains(t, req.System, p.Prompt)
	assert.Contains(t, req.System, "[기본 답변]\n기본 답이야")
	assert.Contains(t, req.System, "[사용자 메시지]\n힘들어")
	require.Len(t, req.Turns, 1)
	assert.Contains(t, req.Turns[0].Text, "관계형")
}

func TestSplitWindowAndSummaryTrigger(t *testing.T) {
	msgs := make([]Message, 10)
	for i := range msgs {
		msgs[i] = Message{Content: string(rune('a' + i))}
	}
	older, recent := SplitWindow(msgs, 8)
	assert.Len(t, older, 2)
	assert.Len(t, recent, 8)
	assert.Equal(t, "c", recent[0].Content)

	older, recent = SplitWindow(msgs[:5], 8)
	assert.Empty(t, older)
	assert.Len(t, recent, 5)

	assert.False(t, NeedsSummary(9, 10))
	assert.True(t, NeedsSummary(10, 10))
}

func TestUnfolded(t *testing.T) {
	older := []Message{{Content: "a"}, {Content: "b"}, {Content: "c"}}
	tests := []struct {
		name   string
		folded int
		want   []string
	}{
		{"nothing folded", 0, []string{"a", "b", "c"}},
		{"partially folded", 2, []string{"c"}},
		{"fully folded", 3, nil},
		{"window grew back", 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, m := range Unfolded(older, tt.folded) {
				got = append(got, m.Content)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranscript(t *testing.T) {
	got := Transcript([]Message{{Role: llm.RoleUser, Content: "힘들어 "}, {Role: llm.RoleAssistant, Content: "그랬구나"}})
	assert.Equal(t, "사용자: 힘들어\n상담사: 그랬구나", got)
}

type recordingLLM struct {
	replies []string
	errAt   int
	reqs    []llm.Request
}

func (r *recordingLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	r.reqs = append(r.reqs, req)
	if len(r.reqs) == r.errAt {
		return llm.Response{}, errors.New("upstream 500")
	}
	text := r.replies[len(r.reqs)-1]
	return llm.Response{Text: text, Model: "gpt-4o", Usage: llm.Usage{Input: 100, Output: 20}}, nil
}

func engine(t *testing.T, client llm.Client) *Engine {
	return NewEngine(client, catalog(t), Options{Temperature: 0.9, MaxTokens: 1000, SummaryMaxChars: 200, GreetingMaxChars: 150}, zap.NewNop())
}

func TestEngine_Reply(t *testing.T) {
	client := &recordingLLM{replies: []string{"기본 답변", "페르소나 답변"}}
	r := engine(t, client).Reply(t.Context(), TurnInput{PersonaID: 1, UserText: "힘들어"})

	assert.False(t, r.Fallback)
	assert.Equal(t, "페르소나 답변", r.Text)
	assert.Equal(t, "기본 답변", r.Base)
	assert.Equal(t, llm.Usage{Input: 200, Output: 40}, r.Usage)
	require.Len(t, client.reqs, 2)
	assert.InDelta(t, 0.9, *client.reqs[0].Temperature, 1e-9)
	assert.Equal(t, 1000, client.reqs[1].MaxTokens)
	assert.Contains(t, client.reqs[1].System, "기본 답변")
}

func TestEngine_ReplyFallback(t *testing.T) {
	for _, errAt := range []int{1, 2} {
		client := &recordingLLM{replies: []string{"a", "b"}, errAt: errAt}
		r := engine(t, client).Reply(t.Context(), TurnInput{PersonaID: 1, UserText: "x"})
		assert.True(t, r.Fallback)
		assert.Equal(t, FallbackReply, r.Text)
		assert.ErrorContains(t, r.Err, "upstream 500")
	}

	r := engine(t, &recordingLLM{}).Reply(t.Context(), TurnInput{PersonaID: 9})
	assert.True(t, r.Fallback)
}

func TestEngine_Summarize(t *testing.T) {
	long := strings.Repeat("요", 250)
	client := &recordingLLM{replies: []string{long}}
	e := engine(t, client)

	s, _, err := e.Summarize(t.Context(), "이전 요약", []Message{{Role: llm.RoleUser, Content: "고민"}})
	require.NoError(t, err)
	assert.Equal(t, 200, utf8.RuneCountInString(s))
	assert.Contains(t, client.reqs[0].Turns[0].Text, "[기존 요약]\n이전 요약")
	assert.Contains(t, client.reqs[0].Turns[0].Text, "사용자: 고민")

	s, _, err = e.Summarize(t.Context(), "그대로", nil)
	require.NoError(t, err)
	assert.Equal(t, "그대로", s)
	assert.Len(t, client.reqs, 1)
}

func TestEngine_Greeting(t *testing.T) {
	client := &recordingLLM{replies: []string{"안녕! 반가워."}}
	e := engine(t, client)

	g, err := e.Greeting(t.Context(), 2, nil)
	require.NoError(t, err)
	assert.Empty(t, g)
	assert.Empty(t, client.reqs, "no analysis means no model call")

	g, err = e.Greeting(t.Context(), 2, &Grounding{ResultText: "차분한 성향입니다."})
	require.NoError(t, err)
	assert.Equal(t, "안녕! 반가워.", g)
	assert.Contains(t, client.reqs[0].System, "내면형")
}
