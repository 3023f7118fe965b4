package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avern/vidfeed-server/internal/api/http/middleware"
	"github.com/avern/vidfeed-server/internal/model"
	"github.com/avern/vidfeed-server/internal/testutil"
)

// MockRatingService mocks the RatingService interface
type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) Rate(ctx context.Context, videoID, userID uuid.UUID, rating int) error {
	args := m.Called(ctx, videoID, userID, rating)
	return args.Error(0)
}

func (m *MockRatingService) VideoRating(ctx context.Context, videoID uuid.UUID) (model.VideoRating, error) {
	args := m.Called(ctx, videoID)
	return args.Get(0).(model.VideoRating), args.Error(1)
}

func (m *MockRatingService) UserRating(ctx context.Context, videoID, userID uuid.UUID) (model.UserVideoRating, error) {
	args := m.Called(ctx, videoID, userID)
	return args.Get(0).(model.UserVideoRating), args.Error(1)
}

func newRatingTestRouter(service RatingService, caller uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewRating(service, testutil.MakeNoopLogger())

	withCaller := func(c *gin.Context) {
		if caller != uuid.Nil {
			middleware.SetUserID(c, caller)
		}
	}

	engine := gin.New()
	engine.POST("/videos/:id/rating", withCaller, h.Rate)
	engine.GET("/videos/:id/rating", h.VideoRating)
	engine.GET("/videos/:id/rating/me", withCaller, h.UserRating)
	return engine
}

func TestRatingHandler_Rate(t *testing.T) {
	service := &MockRatingService{}
	videoID := uuid.New()
	userID := uuid.New()

	service.On("Rate", mock.Anything, videoID, userID, 4).Return(nil)

	engine := newRatingTestRouter(service, userID)

	req := httptest.NewRequest(http.MethodPost, "/videos/"+videoID.String()+"/rating", bytes.NewBufferString(`{"rating":4}`))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	service.AssertExpectations(t)
}

func TestRatingHandler_Rate_OutOfRange(t *testing.T) {
	service := &MockRatingService{}
	engine := newRatingTestRouter(service, uuid.New())

	for _, body := range []string{`{"rating":0}`, `{"rating":6}`, `{}`} {
		req := httptest.NewRequest(http.MethodPost, "/videos/"+uuid.NewString()+"/rating", bytes.NewBufferString(body))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}
	service.AssertNotCalled(t, "Rate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRatingHandler_Rate_Unauthenticated(t *testing.T) {
	service := &MockRatingService{}
	engine := newRatingTestRouter(service, uuid.Nil)

	req := httptest.NewRequest(http.MethodPost, "/videos/"+uuid.NewString()+"/rating", bytes.NewBufferString(`{"rating":3}`))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	service.AssertNotCalled(t, "Rate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRatingHandler_VideoRating(t *testing.T) {
	service := &MockRatingService{}
	videoID := uuid.New()

	service.On("VideoRating", mock.Anything, videoID).
		Return(model.VideoRating{VideoID: videoID, RatingCounter: 3, RatingTotal: 12}, nil)

	engine := newRatingTestRouter(service, uuid.Nil)

	req := httptest.NewRequest(http.MethodGet, "/videos/"+videoID.String()+"/rating", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		VideoID       uuid.UUID `json:"video_id"`
		RatingCounter int64     `json:"rating_counter"`
		RatingTotal   int64     `json:"rating_total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, videoID, resp.VideoID)
	assert.Equal(t, int64(3), resp.RatingCounter)
	assert.Equal(t, int64(12), resp.RatingTotal)
}

func TestRatingHandler_UserRating(t *testing.T) {
	service := &MockRatingService{}
	videoID := uuid.New()
	userID := uuid.New()

	service.On("UserRating", mock.Anything, videoID, userID).
		Return(model.UserVideoRating{VideoID: videoID, UserID: userID, Rating: 2}, nil)

	engine := newRatingTestRouter(service, userID)

	req := httptest.NewRequest(http.MethodGet, "/videos/"+videoID.String()+"/rating/me", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rating":2`)
}

func TestRatingHandler_InvalidVideoID(t *testing.T) {
	service := &MockRatingService{}
	engine := newRatingTestRouter(service, uuid.Nil)

	req := httptest.NewRequest(http.MethodGet, "/videos/not-a-uuid/rating", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
