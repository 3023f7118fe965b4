package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CommentStore defines persistence operations for comments. Comments are
// written to a by-video and a by-user table in one logged batch and read per
// partition with store-native continuation tokens.
type CommentStore interface {
	Insert(ctx context.Context, comment Comment) error
	// VideoComments pages through one video partition, newest first.
	// startingCommentID, when not uuid.Nil, seeks to comments at or before
	// that id and replaces the native token for the first call.
	VideoComments(ctx context.Context, videoID uuid.UUID, limit int, pageState []byte, startingCommentID uuid.UUID) ([]Comment, []byte, error)
	// UserComments pages through one user partition, newest first.
	UserComments(ctx context.Context, userID uuid.UUID, limit int, pageState []byte, startingCommentID uuid.UUID) ([]Comment, []byte, error)
}

// Comment is a single comment. CommentID is a time-based UUID: it orders the
// partition and carries the creation timestamp, so no separate date column is
// stored.
type Comment struct {
	CommentID uuid.UUID
	VideoID   uuid.UUID
	UserID    uuid.UUID
	Comment   string
	AddedDate time.Time
}
