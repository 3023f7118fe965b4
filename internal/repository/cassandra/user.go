package cassandra

import (
	"context"
	"errors"
	"fmt"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/google/uuid"

	"github.com/avern/vidfeed-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

// UserRepository persists users and their credential claims.
type UserRepository struct {
	db    *Connection
	stmts *Catalog
}

func NewUserRepository(db *Connection, stmts *Catalog) *UserRepository {
	return &UserRepository{
		db:    db,
		stmts: stmts,
	}
}

// ReserveCredentials conditionally claims the email. On a lost race the
// previously committed row comes back from the conditional result so the
// caller can inspect its owner and idempotency token.
func (r *UserRepository) ReserveCredentials(ctx context.Context, creds model.Credentials) (bool, model.Credentials, error) {
	q := r.stmts.ReserveCredentials.bind(r.db.Session,
		creds.Email, creds.PasswordHash, gocql.UUID(creds.UserID), gocql.UUID(creds.RequestID),
	).WithContext(ctx)

	prev := map[string]interface{}{}
	applied, err := q.MapScanCAS(prev)
	if err != nil {
		return false, model.Credentials{}, fmt.Errorf("failed to reserve credentials: %w", err)
	}
	if applied {
		return true, model.Credentials{}, nil
	}

	return false, credentialsFromRow(prev), nil
}

func credentialsFromRow(row map[string]interface{}) model.Credentials {
	creds := model.Credentials{}
	if v, ok := row["email"].(string); ok {
		creds.Email = v
	}
	if v, ok := row["password"].(string); ok {
		creds.PasswordHash = v
	}
	if v, ok := row["userid"].(gocql.UUID); ok {
		creds.UserID = uuid.UUID(v)
	}
	if v, ok := row["request_id"].(gocql.UUID); ok {
		creds.RequestID = uuid.UUID(v)
	}
	return creds
}

// InsertProfile conditionally inserts the profile row keyed by user id.
func (r *UserRepository) InsertProfile(ctx context.Context, user model.User) (bool, error) {
	q := r.stmts.InsertProfile.bind(r.db.Session,
		gocql.UUID(user.ID), user.FirstName, user.LastName, user.Email, user.CreatedAt,
	).WithContext(ctx)

	applied, err := q.MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, fmt.Errorf("failed to insert profile: %w", err)
	}
	return applied, nil
}

func (r *UserRepository) GetCredentials(ctx context.Context, email string) (model.Credentials, error) {
	var (
		gotEmail  string
		password  string
		userID    gocql.UUID
		requestID gocql.UUID
	)
	err := r.stmts.SelectCredentials.bind(r.db.Session, email).WithContext(ctx).
		Scan(&gotEmail, &password, &userID, &requestID)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return model.Credentials{}, model.ErrNotFound
		}
		return model.Credentials{}, fmt.Errorf("failed to get credentials: %w", err)
	}

	return model.Credentials{
		Email:        gotEmail,
		PasswordHash: password,
		UserID:       uuid.UUID(userID),
		RequestID:    uuid.UUID(requestID),
	}, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var (
		userID gocql.UUID
		user   model.User
	)
	err := r.stmts.SelectProfile.bind(r.db.Session, gocql.UUID(id)).WithContext(ctx).
		Scan(&userID, &user.FirstName, &user.LastName, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	user.ID = uuid.UUID(userID)
	return user, nil
}

func (r *UserRepository) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	if err := r.stmts.DeleteProfile.bind(r.db.Session, gocql.UUID(id)).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

func (r *UserRepository) DeleteCredentials(ctx context.Context, email string) error {
	if err := r.stmts.DeleteCredentials.bind(r.db.Session, email).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}
