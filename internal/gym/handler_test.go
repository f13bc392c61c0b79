package gym

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"classbook/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateGym(ctx context.Context, req CreateGymRequest) (*Gym, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Gym), args.Error(1)
}

func (m *MockService) GetGym(ctx context.Context, id string) (*Gym, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Gym), args.Error(1)
}

func (m *MockService) CreateClass(ctx context.Context, gymID string, req CreateClassRequest) (*ClassSession, error) {
	args := m.Called(ctx, gymID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ClassSession), args.Error(1)
}

func (m *MockService) GetClass(ctx context.Context, id string) (*ClassWithAvailability, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ClassWithAvailability), args.Error(1)
}

func (m *MockService) ListClasses(ctx context.Context, gymID string, onlyUpcoming bool) ([]ClassWithAvailability, error) {
	args := m.Called(ctx, gymID, onlyUpcoming)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ClassWithAvailability), args.Error(1)
}

func setupRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		auth.SetIdentity(c, "staff-1", "g1", auth.RoleStaff)
		c.Next()
	})

	h := NewHandler(svc)
	router.POST("/admin/gyms", h.CreateGym)
	router.POST("/admin/classes", h.CreateClass)
	router.GET("/admin/classes", h.ListClasses)
	router.GET("/classes", h.ListClasses)
	router.GET("/classes/:classID", h.GetClass)
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateGym(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc)

	req := CreateGymRequest{ID: "g2", Name: "Riverside"}
	svc.On("CreateGym", mock.Anything, req).Return(&Gym{ID: "g2", Name: "Riverside"}, nil).Once()

	w := doJSON(router, http.MethodPost, "/admin/gyms", req)
	assert.Equal(t, http.StatusCreated, w.Code)

	svc.On("CreateGym", mock.Anything, req).Return(nil, ErrGymExists).Once()
	w = doJSON(router, http.MethodPost, "/admin/gyms", req)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(router, http.MethodPost, "/admin/gyms", map[string]string{"id": "g3"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}

func TestHandler_CreateClass(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		setupMock  func(*MockService)
		wantStatus int
	}{
		{
			name: "created in caller's gym",
			body: CreateClassRequest{Title: "Spin", StartsAt: "2026-12-20T10:00:00Z", EndsAt: "2026-12-20T11:00:00Z", Capacity: 10},
			setupMock: func(m *MockService) {
				m.On("CreateClass", mock.Anything, "g1", mock.AnythingOfType("gym.CreateClassRequest")).
					Return(&ClassSession{ID: "c1", GymID: "g1", Capacity: 10}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing title",
			body:       map[string]interface{}{"starts_at": "2026-12-20T10:00:00Z", "ends_at": "2026-12-20T11:00:00Z", "capacity": 10},
			setupMock:  func(m *MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "capacity above limit",
			body:       CreateClassRequest{Title: "Huge", StartsAt: "2026-12-20T10:00:00Z", EndsAt: "2026-12-20T11:00:00Z", Capacity: 5000},
			setupMock:  func(m *MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "invalid times",
			body: CreateClassRequest{Title: "Spin", StartsAt: "2026-12-20T12:00:00Z", EndsAt: "2026-12-20T11:00:00Z", Capacity: 10},
			setupMock: func(m *MockService) {
				m.On("CreateClass", mock.Anything, "g1", mock.Anything).Return(nil, ErrClassInvalid)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "storage failure",
			body: CreateClassRequest{Title: "Spin", StartsAt: "2026-12-20T10:00:00Z", EndsAt: "2026-12-20T11:00:00Z", Capacity: 10},
			setupMock: func(m *MockService) {
				m.On("CreateClass", mock.Anything, "g1", mock.Anything).Return(nil, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			w := doJSON(setupRouter(svc), http.MethodPost, "/admin/classes", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_ListClasses(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc)

	svc.On("ListClasses", mock.Anything, "g1", true).Return([]ClassWithAvailability{
		{ClassSession: ClassSession{ID: "c1", GymID: "g1", Capacity: 4}, ReservedCount: 1, Available: 3},
	}, nil)
	svc.On("ListClasses", mock.Anything, "g1", false).Return([]ClassWithAvailability{}, nil)

	w := doJSON(router, http.MethodGet, "/classes", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var classes []ClassWithAvailability
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &classes))
	require.Len(t, classes, 1)
	assert.Equal(t, 3, classes[0].Available)

	w = doJSON(router, http.MethodGet, "/admin/classes", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.AssertExpectations(t)
}

func TestHandler_GetClass(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc)

	svc.On("GetClass", mock.Anything, "c1").Return(&ClassWithAvailability{ClassSession: ClassSession{ID: "c1", GymID: "g1"}}, nil)
	svc.On("GetClass", mock.Anything, "other").Return(&ClassWithAvailability{ClassSession: ClassSession{ID: "other", GymID: "g9"}}, nil)
	svc.On("GetClass", mock.Anything, "missing").Return(nil, ErrClassNotFound)

	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, "/classes/c1", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodGet, "/classes/other", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodGet, "/classes/missing", nil).Code)
}
