package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/serializer"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDrawingHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	serializer.SetLogger(zap.NewNop())

	tests := []struct {
		name           string
		method         string
		path           string
		setup          func(*MockDrawingService)
		expectedStatus int
	}{
		{
			name:   "list with defaults",
			method: http.MethodGet,
			path:   "/drawing-tests",
			setup: func(svc *MockDrawingService) {
				svc.On("List", mock.Anything, uint(7), 20, 0).Return([]service.DrawingTestView{
					{DrawingTest: model.DrawingTest{ID: 3}, Status: "completed", PersonaName: "안정형"},
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "list with bad limit",
			method:         http.MethodGet,
			path:           "/drawing-tests?limit=0",
			setup:          func(svc *MockDrawingService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "delete",
			method: http.MethodDelete,
			path:   "/drawing-tests/3",
			setup: func(svc *MockDrawingService) {
				svc.On("Delete", mock.Anything, uint(7), uint(3)).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "delete missing",
			method: http.MethodDelete,
			path:   "/drawing-tests/4",
			setup: func(svc *MockDrawingService) {
				svc.On("Delete", mock.Anything, uint(7), uint(4)).Return(service.ErrTestNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "delete someone else's",
			method: http.MethodDelete,
			path:   "/drawing-tests/5",
			setup: func(svc *MockDrawingService) {
				svc.On("Delete", mock.Anything, uint(7), uint(5)).Return(service.ErrForbidden)
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDrawingService{}
			tt.setup(svc)
			h := NewDrawingHandler(svc)

			router := gin.New()
			router.GET("/drawing-tests", withUser(7), h.ListDrawingTests)
			router.DELETE("/drawing-tests/:test_id", withUser(7), h.DeleteDrawingTest)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestPersonaHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &MockPersonaService{}
	svc.On("List", mock.Anything).Return([]model.Persona{
		{ID: 1, Name: "추진형", IsActive: true},
		{ID: 2, Name: "내면형", IsActive: true},
	}, nil)
	h := NewPersonaHandler(svc)

	router := gin.New()
	router.GET("/personas", h.ListPersonas)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/personas", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp serializer.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp.Data.([]interface{})
	assert.Len(t, items, 2)
	assert.Equal(t, "추진형", items[0].(map[string]interface{})["name"])
}
