package model

import (
	"context"

	"github.com/google/uuid"
)

// RatingStore defines persistence operations for ratings. Aggregates live in
// a counter table and the per-user value in a plain table; counters cannot be
// batched with regular writes, so Rate performs two separate writes.
type RatingStore interface {
	Rate(ctx context.Context, videoID, userID uuid.UUID, rating int) error
	// VideoRating returns the aggregate for a video. A video nobody rated
	// yields zero counters, not ErrNotFound.
	VideoRating(ctx context.Context, videoID uuid.UUID) (VideoRating, error)
	// UserRating returns the rating one user gave a video, zero if none.
	UserRating(ctx context.Context, videoID, userID uuid.UUID) (UserVideoRating, error)
}

// VideoRating is the aggregate rating of a video. The mean is
// RatingTotal / RatingCounter when RatingCounter is non-zero.
type VideoRating struct {
	VideoID       uuid.UUID
	RatingCounter int64
	RatingTotal   int64
}

// UserVideoRating is the rating a single user gave a video.
type UserVideoRating struct {
	VideoID uuid.UUID
	UserID  uuid.UUID
	Rating  int
}
