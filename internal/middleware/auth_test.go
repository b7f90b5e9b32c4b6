package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/config"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/service"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/utils/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Authenticate(ctx context.Context, userID uint) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Create(ctx context.Context, nickname string) (*model.User, error) {
	args := m.Called(ctx, nickname)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Deactivate(ctx context.Context, userID uint) error {
	return m.Called(ctx, userID).Error(0)
}

func TestUserAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Auth: config.AuthCfg{TokenPrefix: "htp_", SecretPepper: "pepper"}}

	tests := []struct {
		name           string
		header         string
		setup          func(*MockUserService)
		expectedStatus int
	}{
		{
			name:   "active user",
			header: "Bearer " + tokens.IssueUserToken("htp_", "pepper", 7),
			setup: func(s *MockUserService) {
				s.On("Authenticate", mock.Anything, uint(7)).Return(&model.User{ID: 7, Nickname: "민지", Status: model.UserStatusActive}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing header",
			setup:          func(s *MockUserService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "forged token",
			header:         "Bearer " + tokens.IssueUserToken("htp_", "guess", 7),
			setup:          func(s *MockUserService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "inactive user",
			header: "Bearer " + tokens.IssueUserToken("htp_", "pepper", 8),
			setup: func(s *MockUserService) {
				s.On("Authenticate", mock.Anything, uint(8)).Return(nil, service.ErrUserInactive)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "database down",
			header: "Bearer " + tokens.IssueUserToken("htp_", "pepper", 9),
			setup: func(s *MockUserService) {
				s.On("Authenticate", mock.Anything, uint(9)).Return(nil, errors.New("dial tcp: refused"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &MockUserService{}
			tt.setup(users)

			r := gin.New()
			r.Use(ZapLogger(zap.NewNop()))
			r.GET("/ping", UserAuth(cfg, users), func(c *gin.Context) {
				u := c.MustGet(UserContextKey).(*model.User)
				c.String(http.StatusOK, u.Nickname)
			})

			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "민지", w.Body.String())
			}
			users.AssertExpectations(t)
		})
	}
}
