package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated is returned for any failed credential check. It is
	// deliberately generic: callers must not be able to tell an unknown email
	// from a wrong password.
	ErrUnauthenticated = errors.New("invalid email or password")

	// ErrMalformedCursor is returned when a feed cursor token was not produced
	// by this server or belongs to an incompatible version. Pagination must be
	// restarted from the beginning; the token is never silently ignored.
	ErrMalformedCursor = errors.New("malformed feed cursor")
)

// DuplicateEmailError is returned when the conditional credentials insert was
// not applied because another user already owns the email.
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("email %s is already taken", e.Email)
}

// IDCollisionError is returned when the profile insert was not applied
// because the generated user id already exists. Safe to retry with a fresh
// id; never retried with the same one.
type IDCollisionError struct {
	ID uuid.UUID
}

func (e *IDCollisionError) Error() string {
	return fmt.Sprintf("user id %s already exists", e.ID)
}

// RetryableError wraps a transient store failure. The whole operation may be
// retried by the caller; the conditional writes underneath are idempotent.
type RetryableError struct {
	Op  string
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("transient store failure during %s: %v", e.Op, e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// PartialDeleteError is returned when deleting a user removed the profile but
// failed to remove the credentials row. The remaining row must be reconciled
// by an external job; the condition is surfaced, never swallowed.
type PartialDeleteError struct {
	UserID uuid.UUID
	Email  string
	Err    error
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("deleted profile %s but failed to delete credentials for %s: %v", e.UserID, e.Email, e.Err)
}

func (e *PartialDeleteError) Unwrap() error {
	return e.Err
}
