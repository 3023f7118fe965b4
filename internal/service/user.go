package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avern/vidfeed-server/internal/logger"
	"github.com/avern/vidfeed-server/internal/model"
	"github.com/avern/vidfeed-server/internal/security"
)

// User implements the user creation protocol: a globally unique email
// enforced with two conditional single-partition writes, no cross-partition
// transaction. The service is stateless; all serialization of conflicting
// writes happens in the store's conditional-write primitive.
type User struct {
	users     model.UserStore
	publisher model.Publisher
	logger    *logger.Logger
}

func NewUser(users model.UserStore, publisher model.Publisher, logger *logger.Logger) *User {
	return &User{
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

// Create reserves the email in the credentials table with a conditional
// insert, then writes the profile row guarded by the generated id. The claim
// write is the linearization point: of any number of concurrent attempts on
// the same email, exactly one observes applied=true.
//
// The request id stored with the claim closes the retry ambiguity: when a
// retried attempt loses the conditional insert to a claim carrying its own
// request id, the earlier attempt actually won and the operation resumes at
// the profile write instead of failing as a duplicate.
func (s *User) Create(ctx context.Context, req model.CreateUserRequest) (uuid.UUID, error) {
	email := model.NormalizeEmail(req.Email)
	userID := uuid.New()
	requestID := req.RequestID
	if requestID == uuid.Nil {
		requestID = uuid.New()
	}

	s.logger.Debug("User service: creating user", "email", email, "request_id", requestID)

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to hash password: %w", err)
	}

	applied, existing, err := s.users.ReserveCredentials(ctx, model.Credentials{
		Email:        email,
		PasswordHash: hash,
		UserID:       userID,
		RequestID:    requestID,
	})
	if err != nil {
		return uuid.Nil, &model.RetryableError{Op: "reserve credentials", Err: err}
	}

	resumed := false
	if !applied {
		if existing.RequestID == uuid.Nil || existing.RequestID != requestID {
			s.logger.Info("User service: email already claimed", "email", email)
			return uuid.Nil, &model.DuplicateEmailError{Email: email}
		}
		// Our own earlier attempt won the claim before a transient failure;
		// finish what it started.
		s.logger.Info("User service: resuming own claim after retry",
			"email", email, "request_id", requestID)
		userID = existing.UserID
		resumed = true
	}

	applied, err = s.users.InsertProfile(ctx, model.User{
		ID:        userID,
		Email:     email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		// The claim stays committed; a retry with the same request id resumes
		// here instead of failing as a duplicate.
		return uuid.Nil, &model.RetryableError{Op: "insert profile", Err: err}
	}
	if !applied {
		if resumed {
			// The earlier attempt already completed the profile write too.
			return userID, nil
		}
		// Generated id already taken. Release the claim so the email can be
		// retried with a fresh id; if the release fails the claim is left for
		// the background reconciler.
		if delErr := s.users.DeleteCredentials(ctx, email); delErr != nil {
			s.logger.Error("User service: failed to release claim after id collision",
				"email", email, "user_id", userID, "error", delErr.Error())
		}
		return uuid.Nil, &model.IDCollisionError{ID: userID}
	}

	if err := s.publisher.Publish(ctx, model.EventUserCreated, model.UserCreated{
		UserID:    userID,
		Email:     email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Error("User service: failed to publish user created event",
			"user_id", userID, "error", err.Error())
	}

	s.logger.Info("User service: user created", "email", email, "user_id", userID)

	return userID, nil
}

// VerifyCredentials checks an email/password pair and returns the owning
// user id. Unknown email and wrong password are indistinguishable to the
// caller.
func (s *User) VerifyCredentials(ctx context.Context, email, password string) (uuid.UUID, error) {
	creds, err := s.users.GetCredentials(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return uuid.Nil, model.ErrUnauthenticated
		}
		return uuid.Nil, &model.RetryableError{Op: "get credentials", Err: err}
	}

	if !security.CheckPassword(creds.PasswordHash, password) {
		return uuid.Nil, model.ErrUnauthenticated
	}

	return creds.UserID, nil
}

// Get returns a user profile by id.
func (s *User) Get(ctx context.Context, id uuid.UUID) (model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Delete removes the profile and the credentials claim as two independent
// single-partition deletes. When the first leg succeeds and the second
// fails, the inconsistency is surfaced as a PartialDeleteError for the
// external reconciler; it is never swallowed.
func (s *User) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to get user for delete: %w", err)
	}

	if err := s.users.DeleteProfile(ctx, id); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if err := s.users.DeleteCredentials(ctx, user.Email); err != nil {
		return &model.PartialDeleteError{UserID: id, Email: user.Email, Err: err}
	}

	s.logger.Info("User service: user deleted", "user_id", id)

	return nil
}
