package model

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users and their credentials.
// Credential writes are conditional (insert-if-not-exists) single-partition
// operations; the applied result is how uniqueness is decided.
type UserStore interface {
	// ReserveCredentials conditionally inserts the credentials row. When the
	// insert is not applied, the previously committed row is returned so the
	// caller can distinguish its own earlier attempt from a true duplicate.
	ReserveCredentials(ctx context.Context, creds Credentials) (applied bool, existing Credentials, err error)
	// InsertProfile conditionally inserts the profile row keyed by user id.
	InsertProfile(ctx context.Context, user User) (applied bool, err error)
	GetCredentials(ctx context.Context, email string) (Credentials, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	DeleteProfile(ctx context.Context, id uuid.UUID) error
	DeleteCredentials(ctx context.Context, email string) error
}

// Credentials is the uniqueness claim for an email. At most one row per email
// ever commits; the row is only removed when the owning user is deleted.
type Credentials struct {
	Email        string
	PasswordHash string
	UserID       uuid.UUID
	// RequestID is the caller-supplied idempotency token recorded with the
	// claim. A retry that lost the conditional insert to its own earlier
	// attempt recognizes the claim by this value.
	RequestID uuid.UUID
}

// User represents a stored user profile.
type User struct {
	ID        uuid.UUID
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// CreateUserRequest carries the inputs of the user creation protocol.
type CreateUserRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	// RequestID identifies this logical creation attempt across retries.
	RequestID uuid.UUID
}

// NormalizeEmail canonicalizes an email for use as a claim key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
