package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/service"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/chatchain"
	"github.com/stretchr/testify/mock"
)

// MockAnalysisService is a mock implementation of AnalysisService
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Start(ctx context.Context, in service.StartAnalysisInput) (*service.StartAnalysisOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StartAnalysisOutput), args.Error(1)
}

func (m *MockAnalysisService) Status(ctx context.Context, userID, testID uint) (*service.AnalysisStatus, error) {
	args := m.Called(ctx, userID, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalysisStatus), args.Error(1)
}

// MockDrawingService is a mock implementation of DrawingService
type MockDrawingService struct {
	mock.Mock
}

func (m *MockDrawingService) List(ctx context.Context, userID uint, limit, offset int) ([]service.DrawingTestView, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.DrawingTestView), args.Error(1)
}

func (m *MockDrawingService) Delete(ctx context.Context, userID, testID uint) error {
	args := m.Called(ctx, userID, testID)
	return args.Error(0)
}

// MockChatService is a mock implementation of ChatService
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) CreateSession(ctx context.Context, userID uint, in service.CreateSessionInput) (*model.ChatSession, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatSession), args.Error(1)
}

func (m *MockChatService) GetSession(ctx context.Context, userID uint, sessionID uuid.UUID) (*model.ChatSession, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatSession), args.Error(1)
}

func (m *MockChatService) ListSessions(ctx context.Context, userID uint) ([]model.ChatSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChatSession), args.Error(1)
}

func (m *MockChatService) DeleteSession(ctx context.Context, userID uint, sessionID uuid.UUID) error {
	args := m.Called(ctx, userID, sessionID)
	return args.Error(0)
}

func (m *MockChatService) ListMessages(ctx context.Context, userID uint, in service.ListMessagesInput) (*service.ListMessagesOutput, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListMessagesOutput), args.Error(1)
}

func (m *MockChatService) SendMessage(ctx context.Context, userID uint, sessionID uuid.UUID, content string) (*service.SendMessageOutput, error) {
	args := m.Called(ctx, userID, sessionID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SendMessageOutput), args.Error(1)
}

func (m *MockChatService) Greeting(ctx context.Context, userID uint, sessionID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID, sessionID)
	return args.String(0), args.Error(1)
}

func (m *MockChatService) TokenCounts(ctx context.Context, userID uint, sessionID uuid.UUID) (*service.TokenCountsOutput, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenCountsOutput), args.Error(1)
}

// MockPersonaService is a mock implementation of PersonaService
type MockPersonaService struct {
	mock.Mock
}

func (m *MockPersonaService) List(ctx context.Context) ([]model.Persona, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Persona), args.Error(1)
}

func (m *MockPersonaService) Seed(ctx context.Context, cat *chatchain.Catalog) error {
	args := m.Called(ctx, cat)
	return args.Error(0)
}

// withUser stands in for middleware.UserAuth.
func withUser(id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user", &model.User{ID: id, Nickname: "tester", Status: model.UserStatusActive})
		c.Next()
	}
}
