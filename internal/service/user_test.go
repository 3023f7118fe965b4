package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avern/vidfeed-server/internal/model"
	"github.com/avern/vidfeed-server/internal/testutil"
)

// MockUserStore mocks the UserStore interface
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) ReserveCredentials(ctx context.Context, creds model.Credentials) (bool, model.Credentials, error) {
	args := m.Called(ctx, creds)
	return args.Bool(0), args.Get(1).(model.Credentials), args.Error(2)
}

func (m *MockUserStore) InsertProfile(ctx context.Context, user model.User) (bool, error) {
	args := m.Called(ctx, user)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) GetCredentials(ctx context.Context, email string) (model.Credentials, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.Credentials), args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserStore) DeleteCredentials(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// MockPublisher mocks the Publisher interface
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, kind string, payload any) error {
	args := m.Called(ctx, kind, payload)
	return args.Error(0)
}

// fakeUserStore is an in-memory store with real compare-and-set semantics,
// used where the protocol outcome depends on actual claim state.
type fakeUserStore struct {
	mu    sync.Mutex
	creds map[string]model.Credentials
	users map[uuid.UUID]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		creds: make(map[string]model.Credentials),
		users: make(map[uuid.UUID]model.User),
	}
}

func (f *fakeUserStore) ReserveCredentials(_ context.Context, creds model.Credentials) (bool, model.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.creds[creds.Email]; ok {
		return false, existing, nil
	}
	f.creds[creds.Email] = creds
	return true, model.Credentials{}, nil
}

func (f *fakeUserStore) InsertProfile(_ context.Context, user model.User) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; ok {
		return false, nil
	}
	f.users[user.ID] = user
	return true, nil
}

func (f *fakeUserStore) GetCredentials(_ context.Context, email string) (model.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	creds, ok := f.creds[email]
	if !ok {
		return model.Credentials{}, model.ErrNotFound
	}
	return creds, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) DeleteProfile(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) DeleteCredentials(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.creds, email)
	return nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, any) error { return nil }

func TestUser_Create_Success(t *testing.T) {
	ctx := context.Background()
	store := &MockUserStore{}
	pub := &MockPublisher{}

	store.On("ReserveCredentials", mock.Anything, mock.Anything).Return(true, model.Credentials{}, nil)
	store.On("InsertProfile", mock.Anything, mock.Anything).Return(true, nil)
	pub.On("Publish", mock.Anything, model.EventUserCreated, mock.Anything).Return(nil)

	s := NewUser(store, pub, testutil.MakeNoopLogger())

	id, err := s.Create(ctx, model.CreateUserRequest{Email: "a@x.com", Password: "s1", FirstName: "Ada"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	store.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestUser_Create_NormalizesEmail(t *testing.T) {
	ctx := context.Background()
	store := &MockUserStore{}

	store.On("ReserveCredentials", mock.Anything, mock.MatchedBy(func(c model.Credentials) bool {
		return c.Email == "a@x.com"
	})).Return(true, model.Credentials{}, nil)
	store.On("InsertProfile", mock.Anything, mock.Anything).Return(true, nil)

	s := NewUser(store, noopPublisher{}, testutil.MakeNoopLogger())

	_, err := s.Create(ctx, model.CreateUserRequest{Email: "  A@X.Com ", Password: "s1"})
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestUser_Create_Duplicate(t *testing.T) {
	ctx := context.Background()
	store := &MockUserStore{}

	rival := model.Credentials{Email: "a@x.com", UserID: uuid.New(), RequestID: uuid.New()}
	store.On("ReserveCredentials", mock.Anything, mock.Anything).Return(false, rival, nil)

	s := NewUser(store, noopPublisher{}, testutil.MakeNoopLogger())

	_, err := s.Create(ctx, model.CreateUserRequest{Email: "a@x.com", Password: "s2", RequestID: uuid.New()})
	require.Error(t, err)

	var dup *model.DuplicateEmailError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "a@x.com", dup.Email)
	store.AssertNotCalled(t, "InsertProfile", mock.Anything, mock.Anything)
}

func TestUser_Create_ResumesOwnClaim(t *testing.T) {
	ctx := context.Background()
	store := &MockUserStore{}
	requestID := uuid.New()
	priorID := uuid.New()

	// The claim row carries our own request id: the earlier attempt won.
	store.On("ReserveCredentials", mock.Anything, mock.Anything).
		Return(false, model.Credentials{Email: "a@x.com", UserID: priorID, RequestID: requestID}, nil)
	store.On("InsertProfile", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.ID == priorID
	})).Return(true, nil)

	s := NewUser(store, noopPublisher{}, testutil.MakeNoopLogger())

	id, err := s.Create(ctx, model.CreateUserRequest{Email: "a@x.com", Password: "s1", RequestID: requestID})
	require.NoError(t, err)
	assert.Equal(t, priorID, id)
	store.AssertExpectations(t)
}

func TestUser_Create_ResumedProfileAlreadyWritten(t *testing.T) {
	ctx := context.Background()
	store := &MockUserStore{}
	requestID := uuid.New()
	priorID := uuid.New()

	store.On("ReserveCredentials", mock.Anything, mock.Anything).
		Return(false, model.Credentials{Email: "a@x.com", UserID: priorID, RequestID: requestID}, nil)
	// Not applied because the earlier attempt finished the profile write too.
	store.On("InsertProfile", mock.Anything, mock.Anything).Return(false, nil)

	s := NewUser(store, noopPublisher{}, testutil.MakeNoopLogger())

	id, err := s.Create(ctx, model.CreateUserRequest{Email: "a@x.com", Password: "s1", RequestID: requestID})
	require.NoError(t, err)
	assert.Equal(t, priorID, id)
	store.AssertNotCalled(t, "DeleteCredentials", mock.Anything, mock.Anything)
}

func TestUser_Create_IDCollisionRollsBackClaim(t *testing.T) {
	ctx := context.Background()
	store := &MockUserStore{}

	store.On("ReserveCredentials", mock.Anything, mock.Anything).Return(true, model.Credentials{}, nil)
	store.On("InsertProfile", mock.Anything, mock.Anything).Return(false, nil)
	store.On("DeleteCredentials", mock.Anything, "a@x.com").Return(nil)

	s := NewUser(store, noopPublisher{}, testutil.MakeNoopLogger())

	_, err := s.Create(ctx, model.CreateUserRequest{Email: "a@x.com", Password: "s1"})
	require.Error(t, err)

	var collision *model.IDCollisionError
	assert.True(t, errors.As(err, &collision))
	store.AssertExpectations(t)
}

func TestUser_Create_TransientReserveFailure(t *testing.T) {
	ctx := context.Background()
	store := &MockUserStore{}

	store.On("ReserveCredentials", mock.Anything, mock.Anything).
		Return(false, model.Credentials{}, errors.New("timeout"))

	s := NewUser(store, noopPublisher{}, testutil.MakeNoopLogger())

	_, err := s.Create(ctx, model.CreateUserRequest{Email: "a@x.com", Password: "s1"})
	require.Error(t, err)

	var retryable *model.RetryableError
	assert.True(t, errors.As(err, &retryable))
	store.AssertNotCalled(t, "InsertProfile", mock.Anything, mock.Anything)
}

func TestUser_Create_PublishFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	store := &MockUserStore{}
	pub := &MockPublisher{}

	store.On("ReserveCredentials", mock.Anything, mock.Anything).Return(true, model.Credentials{}, nil)
	store.On("InsertProfile", mock.Anything, mock.Anything).Return(true, nil)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bus down"))

	s := NewUser(store, pub, testutil.MakeNoopLogger())

	id, err := s.Create(ctx, model.CreateUserRequest{Email: "a@x.com", Password: "s1"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
}

func TestUser_CreateAndVerify_Scenario(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	s := NewUser(store, noopPublisher{}, testutil.MakeNoopLogger())

	id1, err := s.Create(ctx, model.CreateUserRequest{Email: "a@x.com", Password: "s1"})
	require.NoError(t, err)

	_, err = s.Create(ctx, model.CreateUserRequest{Email: "a@x.com", Password: "s2"})
	var dup *model.DuplicateEmailError
	require.True(t, errors.As(err, &dup))

	got, err := s.VerifyCredentials(ctx, "a@x.com", "s1")
	require.NoError(t, err)
	assert.Equal(t, id1, got)

	// Case-folded email verifies too.
	got, err = s.VerifyCredentials(ctx, "A@X.COM", "s1")
	require.NoError(t, err)
	assert.Equal(t, id1, got)

	_, err = s.VerifyCredentials(ctx, "a@x.com", "s2")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	// Unknown email is indistinguishable from a wrong password.
	_, err = s.VerifyCredentials(ctx, "nobody@x.com", "s1")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestUser_VerifyCredentials_StoreFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	store := &MockUserStore{}
	store.On("GetCredentials", mock.Anything, "a@x.com").
		Return(model.Credentials{}, errors.New("coordinator timeout"))

	s := NewUser(store, noopPublisher{}, testutil.MakeNoopLogger())

	_, err := s.VerifyCredentials(ctx, "a@x.com", "s1")
	var retryable *model.RetryableError
	assert.True(t, errors.As(err, &retryable))
}

func TestUser_Create_ConcurrentAttempts_ExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	s := NewUser(store, noopPublisher{}, testutil.MakeNoopLogger())

	const attempts = 16
	results := make([]error, attempts)
	ids := make([]uuid.UUID, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], results[i] = s.Create(ctx, model.CreateUserRequest{
				Email:     "contended@x.com",
				Password:  "pw",
				RequestID: uuid.New(),
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for i, err := range results {
		if err == nil {
			winners++
			assert.NotEqual(t, uuid.Nil, ids[i])
			continue
		}
		var dup *model.DuplicateEmailError
		assert.True(t, errors.As(err, &dup), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, winners)
}

func TestUser_Delete_Success(t *testing.T) {
	ctx := context.Background()
	store := &MockUserStore{}
	id := uuid.New()

	store.On("GetByID", mock.Anything, id).Return(model.User{ID: id, Email: "a@x.com"}, nil)
	store.On("DeleteProfile", mock.Anything, id).Return(nil)
	store.On("DeleteCredentials", mock.Anything, "a@x.com").Return(nil)

	s := NewUser(store, noopPublisher{}, testutil.MakeNoopLogger())

	require.NoError(t, s.Delete(ctx, id))
	store.AssertExpectations(t)
}

func TestUser_Delete_PartialFailureSurfaced(t *testing.T) {
	ctx := context.Background()
	store := &MockUserStore{}
	id := uuid.New()

	store.On("GetByID", mock.Anything, id).Return(model.User{ID: id, Email: "a@x.com"}, nil)
	store.On("DeleteProfile", mock.Anything, id).Return(nil)
	store.On("DeleteCredentials", mock.Anything, "a@x.com").Return(errors.New("unavailable"))

	s := NewUser(store, noopPublisher{}, testutil.MakeNoopLogger())

	err := s.Delete(ctx, id)
	require.Error(t, err)

	var partial *model.PartialDeleteError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, id, partial.UserID)
	assert.Equal(t, "a@x.com", partial.Email)
}

func TestUser_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	store := &MockUserStore{}
	id := uuid.New()

	store.On("GetByID", mock.Anything, id).Return(model.User{}, model.ErrNotFound)

	s := NewUser(store, noopPublisher{}, testutil.MakeNoopLogger())

	_, err := s.Get(ctx, id)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
