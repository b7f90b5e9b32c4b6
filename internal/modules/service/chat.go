package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/repo"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/artifact"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/chatchain"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/interpret"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/llm"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/paging"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/tokenizer"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/telemetry"
	"go.uber.org/zap"
)

// ChatEngine produces replies, summaries and greetings.
type ChatEngine interface {
	Reply(ctx context.Context, in chatchain.TurnInput) chatchain.Reply
	Summarize(ctx context.Context, existing string, older []chatchain.Message) (string, llm.Usage, error)
	Greeting(ctx context.Context, personaID int, g *chatchain.Grounding) (string, error)
}

type ChatService interface {
	CreateSession(ctx context.Context, userID uint, in CreateSessionInput) (*model.ChatSession, error)
	GetSession(ctx context.Context, userID uint, sessionID uuid.UUID) (*model.ChatSession, error)
	ListSessions(ctx context.Context, userID uint) ([]model.ChatSession, error)
	DeleteSession(ctx context.Context, userID uint, sessionID uuid.UUID) error
	ListMessages(ctx context.Context, userID uint, in ListMessagesInput) (*ListMessagesOutput, error)
	SendMessage(ctx context.Context, userID uint, sessionID uuid.UUID, content string) (*SendMessageOutput, error)
	Greeting(ctx context.Context, userID uint, sessionID uuid.UUID) (string, error)
	TokenCounts(ctx context.Context, userID uint, sessionID uuid.UUID) (*TokenCountsOutput, error)
}

type CreateSessionInput struct {
	PersonaID   uint    `json:"persona_id"`
	SessionName *string `json:"session_name"`
}

const DefaultMessagePageSize = 50

type ListMessagesInput struct {
	SessionID uuid.UUID `json:"session_id"`
	Limit     int       `json:"limit"`
	Cursor    string    `json:"cursor"`
}

type ListMessagesOutput struct {
	Items      []model.ChatMessage `json:"items"`
	NextCursor string              `json:"next_cursor,omitempty"`
	HasMore    bool                `json:"has_more"`
}

type SendMessageOutput struct {
	UserMessage      model.ChatMessage `json:"user_message"`
	AssistantMessage model.ChatMessage `json:"assistant_message"`
	SessionUpdated   bool              `json:"session_updated"`
}

type TokenCountsOutput struct {
	TotalTokens  int `json:"total_tokens"`
	MessageCount int `json:"message_count"`
}

type ChatOptions struct {
	// WindowSize is how many stored messages are replayed each turn.
	WindowSize int
	// SummarizeThreshold is the stored message count at which older
	// messages are folded into the session summary.
	SummarizeThreshold int
}

type chatService struct {
	chats    repo.ChatRepo
	personas repo.PersonaRepo
	drawings repo.DrawingRepo
	store    artifact.Store
	engine   ChatEngine
	opts     ChatOptions
	log      *zap.Logger
	now      func() time.Time
}

func NewChatService(chats repo.ChatRepo, personas repo.PersonaRepo, drawings repo.DrawingRepo, store artifact.Store, engine ChatEngine, opts ChatOptions, log *zap.Logger) ChatService {
	return &chatService{
		chats:    chats,
		personas: personas,
		drawings: drawings,
		store:    store,
		engine:   engine,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

func (s *chatService) CreateSession(ctx context.Context, userID uint, in CreateSessionInput) (*model.ChatSession, error) {
	p, err := s.personas.Get(ctx, in.PersonaID)
	if repo.IsNotFound(err) {
		return nil, ErrPersonaNotFound
	}
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrPersonaNotFound
	}

	now := s.now()
	sess := &model.ChatSession{
		UserID:      userID,
		PersonaID:   p.ID,
		SessionName: in.SessionName,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.chats.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// owned loads a session and checks that userID owns it.
func (s *chatService) owned(ctx context.Context, userID uint, sessionID uuid.UUID) (*model.ChatSession, error) {
	sess, err := s.chats.GetSession(ctx, sessionID)
	if repo.IsNotFound(err) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, ErrForbidden
	}
	return sess, nil
}

func (s *chatService) GetSession(ctx context.Context, userID uint, sessionID uuid.UUID) (*model.ChatSession, error) {
	return s.owned(ctx, userID, sessionID)
}

func (s *chatService) ListSessions(ctx context.Context, userID uint) ([]model.ChatSession, error) {
	return s.chats.ListSessions(ctx, userID)
}

func (s *chatService) DeleteSession(ctx context.Context, userID uint, sessionID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.chats.DeleteSession(ctx, sessionID)
}

func (s *chatService) ListMessages(ctx context.Context, userID uint, in ListMessagesInput) (*ListMessagesOutput, error) {
	if _, err := s.owned(ctx, userID, in.SessionID); err != nil {
		return nil, err
	}

	if in.Limit <= 0 {
		in.Limit = DefaultMessagePageSize
	}

	// Parse cursor (createdAt, id); an empty cursor starts from the oldest message
	var afterT time.Time
	var afterID uuid.UUID
	var err error
	if in.Cursor != "" {
		afterT, afterID, err = paging.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, err
		}
	}

	// Query limit+1 is used to determine has_more
	msgs, err := s.chats.ListMessagesWithCursor(ctx, in.SessionID, afterT, afterID, in.Limit+1)
	if err != nil {
		return nil, err
	}

	out := &ListMessagesOutput{Items: msgs}
	if len(msgs) > in.Limit {
		out.HasMore = true
		out.Items = msgs[:in.Limit]
		last := out.Items[len(out.Items)-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}
	return out, nil
}

func toChain(msgs []model.ChatMessage) []chatchain.Message {
	out := make([]chatchain.Message, 0, len(msgs))
	for _, m := range msgs {
		role := llm.RoleUser
		if m.SenderType == model.SenderAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, chatchain.Message{Role: role, Content: m.Content})
	}
	return out
}

func (s *chatService) SendMessage(ctx context.Context, userID uint, sessionID uuid.UUID, content string) (*SendMessageOutput, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	sess, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	log := s.log.With(zap.String("session_id", sessionID.String()), zap.Uint("user_id", userID))

	count, err := s.chats.CountMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	summary := sess.Summary()
	if chatchain.NeedsSummary(count, s.opts.SummarizeThreshold) {
		summary = s.refreshSummary(ctx, sess, log)
	}

	recent, err := s.chats.RecentMessages(ctx, sessionID, s.opts.WindowSize)
	if err != nil {
		return nil, err
	}

	reply := s.engine.Reply(ctx, chatchain.TurnInput{
		PersonaID: int(sess.PersonaID),
		UserText:  content,
		Recent:    toChain(recent),
		Summary:   summary,
		Grounding: s.grounding(ctx, userID, log),
	})
	if reply.Fallback {
		log.Warn("chat turn fell back", zap.Error(reply.Err))
	}

	now := s.now()
	userMsg := &model.ChatMessage{ID: uuid.New(), SenderType: model.SenderUser, Content: content, CreatedAt: now}
	asstMsg := &model.ChatMessage{ID: uuid.New(), SenderType: model.SenderAssistant, Content: reply.Text, CreatedAt: now.Add(time.Microsecond)}
	if err := s.chats.AppendTurn(ctx, sessionID, userMsg, asstMsg); err != nil {
		return nil, err
	}
	telemetry.RecordChatTurn(ctx, int(sess.PersonaID), reply.Fallback, reply.Usage.Input, reply.Usage.Output, reply.Usage.Estimated)
	log.Info("chat turn stored",
		zap.Int("input_tokens", reply.Usage.Input),
		zap.Int("output_tokens", reply.Usage.Output),
		zap.Bool("usage_estimated", reply.Usage.Estimated))

	return &SendMessageOutput{UserMessage: *userMsg, AssistantMessage: *asstMsg, SessionUpdated: true}, nil
}

// refreshSummary folds the messages that left the live window since the last
// fold into the session summary. Failures keep the previous summary.
func (s *chatService) refreshSummary(ctx context.Context, sess *model.ChatSession, log *zap.Logger) string {
	existing := sess.Summary()
	all, err := s.chats.ListMessages(ctx, sess.ID)
	if err != nil {
		log.Warn("load messages for summary", zap.Error(err))
		return existing
	}
	older, _ := chatchain.SplitWindow(toChain(all), s.opts.WindowSize)
	fresh := chatchain.Unfolded(older, sess.SummarizedCount)
	if len(fresh) == 0 {
		return existing
	}
	summary, usage, err := s.engine.Summarize(ctx, existing, fresh)
	if err != nil {
		log.Warn("summarize conversation", zap.Error(err))
		return existing
	}
	if err := s.chats.UpdateSummary(ctx, sess.ID, summary, len(older)); err != nil {
		log.Warn("store conversation summary", zap.Error(err))
		return summary
	}
	sess.ConversationSummary = &summary
	sess.SummarizedCount = len(older)
	log.Info("conversation summarized",
		zap.Int("folded_messages", len(fresh)),
		zap.Int("summary_runes", len([]rune(summary))),
		zap.Int("total_tokens", usage.Total()))
	return summary
}

// grounding returns the user's latest classified analysis, or nil.
func (s *chatService) grounding(ctx context.Context, userID uint, log *zap.Logger) *chatchain.Grounding {
	t, err := s.drawings.LatestAnalyzed(ctx, userID)
	if err != nil {
		if !repo.IsNotFound(err) {
			log.Warn("load latest analysis", zap.Error(err))
		}
		return nil
	}
	if t.Result == nil || t.Result.PersonaType == nil {
		return nil
	}
	g := &chatchain.Grounding{ResultText: t.Result.SummaryText}
	uniqueID := artifact.UniqueIDFromRef(t.ImageRef)
	if uniqueID == "" {
		return g
	}
	res, err := interpret.Load(ctx, s.store, uniqueID)
	switch {
	case err == nil:
		g.RawText = res.RawText
		if g.ResultText == "" {
			g.ResultText = res.ResultText
		}
	case errors.Is(err, artifact.ErrNotFound):
	default:
		log.Warn("load interpretation artifact", zap.String("task_id", uniqueID), zap.Error(err))
	}
	return g
}

func (s *chatService) Greeting(ctx context.Context, userID uint, sessionID uuid.UUID) (string, error) {
	sess, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}
	log := s.log.With(zap.String("session_id", sessionID.String()))
	g := s.grounding(ctx, userID, log)
	if g == nil {
		return "", nil
	}
	greeting, err := s.engine.Greeting(ctx, int(sess.PersonaID), g)
	if err != nil {
		log.Warn("personalized greeting failed", zap.Error(err))
		return "", nil
	}
	return greeting, nil
}

func (s *chatService) TokenCounts(ctx context.Context, userID uint, sessionID uuid.UUID) (*TokenCountsOutput, error) {
	sess, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.chats.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(msgs)+1)
	for _, m := range msgs {
		texts = append(texts, m.Content)
	}
	texts = append(texts, sess.Summary())
	total, err := tokenizer.CountTexts(ctx, texts...)
	if err != nil {
		return nil, err
	}
	return &TokenCountsOutput{TotalTokens: total, MessageCount: len(msgs)}, nil
}
