package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avern/vidfeed-server/internal/model"
	"github.com/avern/vidfeed-server/internal/testutil"
)

type MockCommentStore struct {
	mock.Mock
}

func (m *MockCommentStore) Insert(ctx context.Context, comment model.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentStore) VideoComments(ctx context.Context, videoID uuid.UUID, limit int, pageState []byte, startingCommentID uuid.UUID) ([]model.Comment, []byte, error) {
	args := m.Called(ctx, videoID, limit, pageState, startingCommentID)
	return commentReturns(args)
}

func (m *MockCommentStore) UserComments(ctx context.Context, userID uuid.UUID, limit int, pageState []byte, startingCommentID uuid.UUID) ([]model.Comment, []byte, error) {
	args := m.Called(ctx, userID, limit, pageState, startingCommentID)
	return commentReturns(args)
}

func commentReturns(args mock.Arguments) ([]model.Comment, []byte, error) {
	var comments []model.Comment
	if v := args.Get(0); v != nil {
		comments = v.([]model.Comment)
	}
	var next []byte
	if v := args.Get(1); v != nil {
		next = v.([]byte)
	}
	return comments, next, args.Error(2)
}

func newTestComments(store *MockCommentStore, pub model.Publisher) *Comments {
	s := NewComments(store, pub, PageConfig{DefaultPageSize: 10, MaxPageSize: 100}, testutil.MakeNoopLogger())
	s.now = func() time.Time { return feedTestTime }
	return s
}

func TestComments_Add(t *testing.T) {
	ctx := context.Background()
	store := &MockCommentStore{}
	pub := &MockPublisher{}

	videoID := uuid.New()
	userID := uuid.New()

	store.On("Insert", mock.Anything, mock.MatchedBy(func(c model.Comment) bool {
		return c.VideoID == videoID && c.UserID == userID &&
			c.Comment == "nice video" && c.CommentID != uuid.Nil
	})).Return(nil)
	pub.On("Publish", mock.Anything, model.EventVideoCommented, mock.Anything).Return(nil)

	s := newTestComments(store, pub)

	comment, err := s.Add(ctx, videoID, userID, "nice video")
	require.NoError(t, err)

	// The id is time-based so both partitions stay in insertion order.
	assert.Equal(t, uuid.Version(1), comment.CommentID.Version())
	assert.Equal(t, feedTestTime, comment.AddedDate)
	store.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestComments_Add_StoreFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	store := &MockCommentStore{}
	store.On("Insert", mock.Anything, mock.Anything).Return(errors.New("write timeout"))

	s := newTestComments(store, noopPublisher{})

	_, err := s.Add(ctx, uuid.New(), uuid.New(), "hello")
	var retryable *model.RetryableError
	assert.True(t, errors.As(err, &retryable))
}

func TestComments_Add_PublishFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	store := &MockCommentStore{}
	pub := &MockPublisher{}

	store.On("Insert", mock.Anything, mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bus down"))

	s := newTestComments(store, pub)

	_, err := s.Add(ctx, uuid.New(), uuid.New(), "hello")
	require.NoError(t, err)
}

func TestComments_VideoComments_PassesNativeToken(t *testing.T) {
	ctx := context.Background()
	store := &MockCommentStore{}
	videoID := uuid.New()
	token := []byte("native-token")
	next := []byte("next-token")

	store.On("VideoComments", mock.Anything, videoID, 10, token, uuid.Nil).
		Return([]model.Comment{{VideoID: videoID}}, next, nil)

	s := newTestComments(store, noopPublisher{})

	comments, got, err := s.VideoComments(ctx, videoID, 0, token, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
	assert.Equal(t, next, got)
}

func TestComments_UserComments_ClampsPageSize(t *testing.T) {
	ctx := context.Background()
	store := &MockCommentStore{}
	userID := uuid.New()

	store.On("UserComments", mock.Anything, userID, 100, []byte(nil), uuid.Nil).
		Return(nil, nil, nil)

	s := newTestComments(store, noopPublisher{})

	_, _, err := s.UserComments(ctx, userID, 5000, nil, uuid.Nil)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestComments_VideoComments_StartingPointPassedThrough(t *testing.T) {
	ctx := context.Background()
	store := &MockCommentStore{}
	videoID := uuid.New()
	starting, err := uuid.NewUUID()
	require.NoError(t, err)

	store.On("VideoComments", mock.Anything, videoID, 10, []byte(nil), starting).
		Return(nil, nil, nil)

	s := newTestComments(store, noopPublisher{})

	_, _, err = s.VideoComments(ctx, videoID, 0, nil, starting)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestComments_UserComments_StoreFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	store := &MockCommentStore{}
	store.On("UserComments", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil, errors.New("coordinator timeout"))

	s := newTestComments(store, noopPublisher{})

	_, _, err := s.UserComments(ctx, uuid.New(), 10, nil, uuid.Nil)
	var retryable *model.RetryableError
	assert.True(t, errors.As(err, &retryable))
}
