package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/artifact"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/chatchain"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/llm"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/paging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type chatFixture struct {
	svc      *chatService
	chats    *MockChatRepo
	personas *MockPersonaRepo
	drawings *MockDrawingRepo
	engine   *MockChatEngine
	store    *artifact.FSStore
}

var chatNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	f := &chatFixture{
		chats:    &MockChatRepo{},
		personas: &MockPersonaRepo{},
		drawings: &MockDrawingRepo{},
		engine:   &MockChatEngine{},
		store:    newStore(t),
	}
	f.svc = NewChatService(f.chats, f.personas, f.drawings, f.store, f.engine, ChatOptions{
		WindowSize:         8,
		SummarizeThreshold: 10,
	}, zap.NewNop()).(*chatService)
	f.svc.now = func() time.Time { return chatNow }
	return f
}

func ownedSession(userID uint) *model.ChatSession {
	return &model.ChatSession{ID: uuid.MustParse("3f1c2b7a-0d7e-4a59-9b0a-6f4f3f5b2c10"), UserID: userID, PersonaID: 2, IsActive: true}
}

func history(n int) []model.ChatMessage {
	out := make([]model.ChatMessage, 0, n)
	for i := range n {
		sender := model.SenderUser
		if i%2 == 1 {
			sender = model.SenderAssistant
		}
		out = append(out, model.ChatMessage{
			ID:         uuid.New(),
			SenderType: sender,
			Content:    fmt.Sprintf("m%d", i),
			CreatedAt:  chatNow.Add(time.Duration(i-n) * time.Minute),
		})
	}
	return out
}

func TestChatCreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("active persona", func(t *testing.T) {
		f := newChatFixture(t)
		f.personas.On("Get", mock.Anything, uint(2)).Return(&model.Persona{ID: 2, Name: "내면형", IsActive: true}, nil)
		f.chats.On("CreateSession", mock.Anything, mock.MatchedBy(func(s *model.ChatSession) bool {
			return s.UserID == 1 && s.PersonaID == 2 && s.IsActive && s.UpdatedAt.Equal(chatNow)
		})).Return(nil)

		name := "첫 상담"
		sess, err := f.svc.CreateSession(ctx, 1, CreateSessionInput{PersonaID: 2, SessionName: &name})
		require.NoError(t, err)
		assert.Equal(t, &name, sess.SessionName)
		f.chats.AssertExpectations(t)
	})

	t.Run("inactive persona", func(t *testing.T) {
		f := newChatFixture(t)
		f.personas.On("Get", mock.Anything, uint(4)).Return(&model.Persona{ID: 4, IsActive: false}, nil)
		_, err := f.svc.CreateSession(ctx, 1, CreateSessionInput{PersonaID: 4})
		assert.ErrorIs(t, err, ErrPersonaNotFound)
	})

	t.Run("unknown persona", func(t *testing.T) {
		f := newChatFixture(t)
		f.personas.On("Get", mock.Anything, uint(9)).Return(nil, errNotFound)
		_, err := f.svc.CreateSession(ctx, 1, CreateSessionInput{PersonaID: 9})
		assert.ErrorIs(t, err, ErrPersonaNotFound)
	})
}

func TestChatOwnership(t *testing.T) {
	ctx := context.Background()
	sess := ownedSession(1)

	f := newChatFixture(t)
	f.chats.On("GetSession", mock.Anything, sess.ID).Return(sess, nil)
	_, err := f.svc.GetSession(ctx, 2, sess.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteSession(ctx, 2, sess.ID), ErrForbidden)
	f.chats.AssertNotCalled(t, "DeleteSession", mock.Anything, mock.Anything)

	missing := uuid.New()
	f.chats.On("GetSession", mock.Anything, missing).Return(nil, errNotFound)
	_, err = f.svc.GetSession(ctx, 1, missing)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestChatSendMessage_GroundedTurn(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	sess := ownedSession(1)
	recent := history(4)

	pt := uint(2)
	f.chats.On("GetSession", mock.Anything, sess.ID).Return(sess, nil)
	f.chats.On("CountMessages", mock.Anything, sess.ID).Return(int64(4), nil)
	f.chats.On("RecentMessages", mock.Anything, sess.ID, 8).Return(recent, nil)
	f.drawings.On("LatestAnalyzed", mock.Anything, uint(1)).Return(&model.DrawingTest{
		ID:       5,
		UserID:   1,
		ImageRef: "result/images/" + fixedTask + ".jpg",
		Result:   &model.DrawingTestResult{TestID: 5, PersonaType: &pt, SummaryText: "조용히 내면을 살피는 편입니다."},
	}, nil)
	_, err := f.store.Put(ctx, fixedTask, artifact.StageInterpretation, []byte(`{"raw_text":"집이 작게 그려졌습니다.","result_text":"요약"}`))
	require.NoError(t, err)

	f.engine.On("Reply", mock.Anything, mock.MatchedBy(func(in chatchain.TurnInput) bool {
		return in.PersonaID == 2 &&
			in.UserText == "요즘 너무 힘들어" &&
			len(in.Recent) == 4 &&
			in.Recent[0].Role == llm.RoleUser && in.Recent[1].Role == llm.RoleAssistant &&
			in.Grounding != nil &&
			in.Grounding.ResultText == "조용히 내면을 살피는 편입니다." &&
			in.Grounding.RawText == "집이 작게 그려졌습니다."
	})).Return(chatchain.Reply{Text: "많이 지쳤구나.", Usage: llm.Usage{Input: 120, Output: 30}})

	var userMsg, asstMsg *model.ChatMessage
	f.chats.On("AppendTurn", mock.Anything, sess.ID, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		userMsg = args.Get(2).(*model.ChatMessage)
		asstMsg = args.Get(3).(*model.ChatMessage)
	}).Return(nil)

	out, err := f.svc.SendMessage(ctx, 1, sess.ID, "  요즘 너무 힘들어 ")
	require.NoError(t, err)
	assert.True(t, out.SessionUpdated)
	assert.Equal(t, model.SenderUser, userMsg.SenderType)
	assert.Equal(t, "요즘 너무 힘들어", userMsg.Content)
	assert.Equal(t, model.SenderAssistant, asstMsg.SenderType)
	assert.Equal(t, "많이 지쳤구나.", asstMsg.Content)
	assert.True(t, asstMsg.CreatedAt.After(userMsg.CreatedAt))
	assert.Equal(t, out.AssistantMessage.Content, asstMsg.Content)
	f.chats.AssertNotCalled(t, "UpdateSummary", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChatSendMessage_FallbackStillPersists(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	sess := ownedSession(1)

	f.chats.On("GetSession", mock.Anything, sess.ID).Return(sess, nil)
	f.chats.On("CountMessages", mock.Anything, sess.ID).Return(int64(0), nil)
	f.chats.On("RecentMessages", mock.Anything, sess.ID, 8).Return([]model.ChatMessage{}, nil)
	f.drawings.On("LatestAnalyzed", mock.Anything, uint(1)).Return(nil, errNotFound)
	f.engine.On("Reply", mock.Anything, mock.MatchedBy(func(in chatchain.TurnInput) bool {
		return in.Grounding == nil
	})).Return(chatchain.Reply{Text: chatchain.FallbackReply, Fallback: true, Err: errors.New("timeout")})
	f.chats.On("AppendTurn", mock.Anything, sess.ID, mock.Anything, mock.Anything).Return(nil)

	out, err := f.svc.SendMessage(ctx, 1, sess.ID, "안녕")
	require.NoError(t, err)
	assert.Equal(t, chatchain.FallbackReply, out.AssistantMessage.Content)
	assert.Equal(t, "안녕", out.UserMessage.Content)
	f.chats.AssertNumberOfCalls(t, "AppendTurn", 1)
}

func TestChatSendMessage_SummarizesOlderMessages(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	sess := ownedSession(1)
	prev := "예전 요약"
	sess.ConversationSummary = &prev
	all := history(10)

	f.chats.On("GetSession", mock.Anything, sess.ID).Return(sess, nil)
	f.chats.On("CountMessages", mock.Anything, sess.ID).Return(int64(10), nil)
	f.chats.On("ListMessages", mock.Anything, sess.ID).Return(all, nil)
	f.engine.On("Summarize", mock.Anything, "예전 요약", mock.MatchedBy(func(older []chatchain.Message) bool {
		return len(older) == 2 && older[0].Content == "m0" && older[1].Content == "m1"
	})).Return("사용자는 직장 스트레스를 호소함", llm.Usage{Input: 50, Output: 20}, nil)
	f.chats.On("UpdateSummary", mock.Anything, sess.ID, "사용자는 직장 스트레스를 호소함", 2).Return(nil)
	f.chats.On("RecentMessages", mock.Anything, sess.ID, 8).Return(all[2:], nil)
	f.drawings.On("LatestAnalyzed", mock.Anything, uint(1)).Return(nil, errNotFound)
	f.engine.On("Reply", mock.Anything, mock.MatchedBy(func(in chatchain.TurnInput) bool {
		return in.Summary == "사용자는 직장 스트레스를 호소함" && len(in.Recent) == 8
	})).Return(chatchain.Reply{Text: "그랬구나."})
	f.chats.On("AppendTurn", mock.Anything, sess.ID, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.SendMessage(ctx, 1, sess.ID, "계속 얘기할게")
	require.NoError(t, err)
	f.chats.AssertExpectations(t)
	f.engine.AssertExpectations(t)
}

func TestChatSendMessage_FoldsOnlyNewlyAgedMessages(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	sess := ownedSession(1)
	prev := "사용자는 직장 스트레스를 호소함"
	sess.ConversationSummary = &prev
	sess.SummarizedCount = 2
	all := history(12)

	f.chats.On("GetSession", mock.Anything, sess.ID).Return(sess, nil)
	f.chats.On("CountMessages", mock.Anything, sess.ID).Return(int64(12), nil)
	f.chats.On("ListMessages", mock.Anything, sess.ID).Return(all, nil)
	f.engine.On("Summarize", mock.Anything, prev, mock.MatchedBy(func(older []chatchain.Message) bool {
		return len(older) == 2 && older[0].Content == "m2" && older[1].Content == "m3"
	})).Return("스트레스와 수면 문제", llm.Usage{Input: 30, Output: 10}, nil)
	f.chats.On("UpdateSummary", mock.Anything, sess.ID, "스트레스와 수면 문제", 4).Return(nil)
	f.chats.On("RecentMessages", mock.Anything, sess.ID, 8).Return(all[4:], nil)
	f.drawings.On("LatestAnalyzed", mock.Anything, uint(1)).Return(nil, errNotFound)
	f.engine.On("Reply", mock.Anything, mock.MatchedBy(func(in chatchain.TurnInput) bool {
		return in.Summary == "스트레스와 수면 문제"
	})).Return(chatchain.Reply{Text: "잠은 좀 잤어?"})
	f.chats.On("AppendTurn", mock.Anything, sess.ID, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.SendMessage(ctx, 1, sess.ID, "요즘 잠을 못 자")
	require.NoError(t, err)
	assert.Equal(t, 4, sess.SummarizedCount)
	f.chats.AssertExpectations(t)
	f.engine.AssertExpectations(t)
}

func TestChatSendMessage_SummaryUpToDateSkipsFold(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	sess := ownedSession(1)
	prev := "예전 요약"
	sess.ConversationSummary = &prev
	sess.SummarizedCount = 2
	all := history(10)

	f.chats.On("GetSession", mock.Anything, sess.ID).Return(sess, nil)
	f.chats.On("CountMessages", mock.Anything, sess.ID).Return(int64(10), nil)
	f.chats.On("ListMessages", mock.Anything, sess.ID).Return(all, nil)
	f.chats.On("RecentMessages", mock.Anything, sess.ID, 8).Return(all[2:], nil)
	f.drawings.On("LatestAnalyzed", mock.Anything, uint(1)).Return(nil, errNotFound)
	f.engine.On("Reply", mock.Anything, mock.MatchedBy(func(in chatchain.TurnInput) bool {
		return in.Summary == "예전 요약"
	})).Return(chatchain.Reply{Text: "응."})
	f.chats.On("AppendTurn", mock.Anything, sess.ID, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.SendMessage(ctx, 1, sess.ID, "음")
	require.NoError(t, err)
	f.engine.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything, mock.Anything)
	f.chats.AssertNotCalled(t, "UpdateSummary", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChatSendMessage_SummaryFailureKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	sess := ownedSession(1)
	prev := "예전 요약"
	sess.ConversationSummary = &prev

	f.chats.On("GetSession", mock.Anything, sess.ID).Return(sess, nil)
	f.chats.On("CountMessages", mock.Anything, sess.ID).Return(int64(12), nil)
	f.chats.On("ListMessages", mock.Anything, sess.ID).Return(history(12), nil)
	f.engine.On("Summarize", mock.Anything, "예전 요약", mock.Anything).Return("", llm.Usage{}, errors.New("503"))
	f.chats.On("RecentMessages", mock.Anything, sess.ID, 8).Return(history(8), nil)
	f.drawings.On("LatestAnalyzed", mock.Anything, uint(1)).Return(nil, errNotFound)
	f.engine.On("Reply", mock.Anything, mock.MatchedBy(func(in chatchain.TurnInput) bool {
		return in.Summary == "예전 요약"
	})).Return(chatchain.Reply{Text: "응."})
	f.chats.On("AppendTurn", mock.Anything, sess.ID, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.SendMessage(ctx, 1, sess.ID, "음")
	require.NoError(t, err)
	f.chats.AssertNotCalled(t, "UpdateSummary", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChatSendMessage_Empty(t *testing.T) {
	f := newChatFixture(t)
	_, err := f.svc.SendMessage(context.Background(), 1, uuid.New(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestChatListMessages_Cursor(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	sess := ownedSession(1)
	msgs := history(3)

	f.chats.On("GetSession", mock.Anything, sess.ID).Return(sess, nil)
	f.chats.On("ListMessagesWithCursor", mock.Anything, sess.ID, time.Time{}, uuid.Nil, 3).Return(msgs, nil)

	out, err := f.svc.ListMessages(ctx, 1, ListMessagesInput{SessionID: sess.ID, Limit: 2})
	require.NoError(t, err)
	assert.True(t, out.HasMore)
	assert.Len(t, out.Items, 2)

	afterT, afterID, err := paging.DecodeCursor(out.NextCursor)
	require.NoError(t, err)
	assert.True(t, afterT.Equal(msgs[1].CreatedAt))
	assert.Equal(t, msgs[1].ID, afterID)

	f.chats.On("ListMessagesWithCursor", mock.Anything, sess.ID, mock.Anything, msgs[1].ID, 3).Return(msgs[2:], nil)
	out, err = f.svc.ListMessages(ctx, 1, ListMessagesInput{SessionID: sess.ID, Limit: 2, Cursor: out.NextCursor})
	require.NoError(t, err)
	assert.False(t, out.HasMore)
	assert.Empty(t, out.NextCursor)
	assert.Len(t, out.Items, 1)
}

func TestChatGreeting(t *testing.T) {
	ctx := context.Background()

	t.Run("no analysis skips the model", func(t *testing.T) {
		f := newChatFixture(t)
		sess := ownedSession(1)
		f.chats.On("GetSession", mock.Anything, sess.ID).Return(sess, nil)
		f.drawings.On("LatestAnalyzed", mock.Anything, uint(1)).Return(nil, errNotFound)

		g, err := f.svc.Greeting(ctx, 1, sess.ID)
		require.NoError(t, err)
		assert.Empty(t, g)
		f.engine.AssertNotCalled(t, "Greeting", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unclassified result is not grounding", func(t *testing.T) {
		f := newChatFixture(t)
		sess := ownedSession(1)
		f.chats.On("GetSession", mock.Anything, sess.ID).Return(sess, nil)
		f.drawings.On("LatestAnalyzed", mock.Anything, uint(1)).Return(&model.DrawingTest{
			Result: &model.DrawingTestResult{SummaryText: AnalysisErrorPrefix + "boom"},
		}, nil)

		g, err := f.svc.Greeting(ctx, 1, sess.ID)
		require.NoError(t, err)
		assert.Empty(t, g)
		f.engine.AssertNotCalled(t, "Greeting", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("grounded greeting", func(t *testing.T) {
		f := newChatFixture(t)
		sess := ownedSession(1)
		pt := uint(2)
		f.chats.On("GetSession", mock.Anything, sess.ID).Return(sess, nil)
		f.drawings.On("LatestAnalyzed", mock.Anything, uint(1)).Return(&model.DrawingTest{
			ImageRef: "result/images/missing.jpg",
			Result:   &model.DrawingTestResult{PersonaType: &pt, SummaryText: "요약"},
		}, nil)
		f.engine.On("Greeting", mock.Anything, 2, &chatchain.Grounding{ResultText: "요약"}).Return("반가워요.", nil)

		g, err := f.svc.Greeting(ctx, 1, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "반가워요.", g)
	})
}

func TestChatTokenCounts(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	sess := ownedSession(1)
	f.chats.On("GetSession", mock.Anything, sess.ID).Return(sess, nil)
	f.chats.On("ListMessages", mock.Anything, sess.ID).Return([]model.ChatMessage{
		{Content: "hello world"},
		{Content: "안녕하세요"},
	}, nil)

	out, err := f.svc.TokenCounts(ctx, 1, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, out.MessageCount)
	assert.Positive(t, out.TotalTokens)
}
