package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/artifact"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/chatchain"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/llm"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/progress"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockDrawingRepo is a mock implementation of DrawingRepo
type MockDrawingRepo struct {
	mock.Mock
}

func (m *MockDrawingRepo) Create(ctx context.Context, t *model.DrawingTest) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockDrawingRepo) Get(ctx context.Context, testID uint) (*model.DrawingTest, error) {
	args := m.Called(ctx, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DrawingTest), args.Error(1)
}

func (m *MockDrawingRepo) Exists(ctx context.Context, testID uint) (bool, error) {
	args := m.Called(ctx, testID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDrawingRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]model.DrawingTest, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DrawingTest), args.Error(1)
}

func (m *MockDrawingRepo) Delete(ctx context.Context, userID, testID uint) (int64, error) {
	args := m.Called(ctx, userID, testID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDrawingRepo) GetResult(ctx context.Context, testID uint) (*model.DrawingTestResult, error) {
	args := m.Called(ctx, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DrawingTestResult), args.Error(1)
}

func (m *MockDrawingRepo) UpsertResult(ctx context.Context, r *model.DrawingTestResult) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockDrawingRepo) LatestAnalyzed(ctx context.Context, userID uint) (*model.DrawingTest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DrawingTest), args.Error(1)
}

// MockChatRepo is a mock implementation of ChatRepo
type MockChatRepo struct {
	mock.Mock
}

func (m *MockChatRepo) CreateSession(ctx context.Context, s *model.ChatSession) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockChatRepo) GetSession(ctx context.Context, sessionID uuid.UUID) (*model.ChatSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatSession), args.Error(1)
}

func (m *MockChatRepo) ListSessions(ctx context.Context, userID uint) ([]model.ChatSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChatSession), args.Error(1)
}

func (m *MockChatRepo) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockChatRepo) UpdateSummary(ctx context.Context, sessionID uuid.UUID, summary string, folded int) error {
	args := m.Called(ctx, sessionID, summary, folded)
	return args.Error(0)
}

func (m *MockChatRepo) CountMessages(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChatRepo) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]model.ChatMessage, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChatMessage), args.Error(1)
}

func (m *MockChatRepo) RecentMessages(ctx context.Context, sessionID uuid.UUID, n int) ([]model.ChatMessage, error) {
	args := m.Called(ctx, sessionID, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChatMessage), args.Error(1)
}

func (m *MockChatRepo) ListMessagesWithCursor(ctx context.Context, sessionID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.ChatMessage, error) {
	args := m.Called(ctx, sessionID, afterCreatedAt, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChatMessage), args.Error(1)
}

func (m *MockChatRepo) AppendTurn(ctx context.Context, sessionID uuid.UUID, user, assistant *model.ChatMessage) error {
	args := m.Called(ctx, sessionID, user, assistant)
	return args.Error(0)
}

// MockPersonaRepo is a mock implementation of PersonaRepo
type MockPersonaRepo struct {
	mock.Mock
}

func (m *MockPersonaRepo) List(ctx context.Context, activeOnly bool) ([]model.Persona, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Persona), args.Error(1)
}

func (m *MockPersonaRepo) Get(ctx context.Context, personaID uint) (*model.Persona, error) {
	args := m.Called(ctx, personaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Persona), args.Error(1)
}

func (m *MockPersonaRepo) Seed(ctx context.Context, personas []model.Persona) error {
	args := m.Called(ctx, personas)
	return args.Error(0)
}

// MockUserRepo is a mock implementation of UserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepo) Get(ctx context.Context, userID uint) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepo) UpdateStatus(ctx context.Context, userID uint, status model.UserStatus) error {
	args := m.Called(ctx, userID, status)
	return args.Error(0)
}

// MockDispatcher is a mock implementation of Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, job AnalysisJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockChatEngine is a mock implementation of ChatEngine
type MockChatEngine struct {
	mock.Mock
}

func (m *MockChatEngine) Reply(ctx context.Context, in chatchain.TurnInput) chatchain.Reply {
	args := m.Called(ctx, in)
	return args.Get(0).(chatchain.Reply)
}

func (m *MockChatEngine) Summarize(ctx context.Context, existing string, older []chatchain.Message) (string, llm.Usage, error) {
	args := m.Called(ctx, existing, older)
	return args.String(0), args.Get(1).(llm.Usage), args.Error(2)
}

func (m *MockChatEngine) Greeting(ctx context.Context, personaID int, g *chatchain.Grounding) (string, error) {
	args := m.Called(ctx, personaID, g)
	return args.String(0), args.Error(1)
}

func newStore(t *testing.T) *artifact.FSStore {
	t.Helper()
	s, err := artifact.NewFSStore(t.TempDir(), "/static")
	require.NoError(t, err)
	return s
}

func newTracker(t *testing.T) progress.Tracker {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return progress.NewRedisTracker(rdb, time.Hour)
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

var errNotFound = gorm.ErrRecordNotFound
