package cassandra

import (
	"context"
	"errors"
	"fmt"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/google/uuid"

	"github.com/avern/vidfeed-server/internal/model"
)

var _ model.RatingStore = (*RatingRepository)(nil)

// RatingRepository persists per-video rating aggregates and per-user ratings.
type RatingRepository struct {
	db    *Connection
	stmts *Catalog
}

func NewRatingRepository(db *Connection, stmts *Catalog) *RatingRepository {
	return &RatingRepository{db: db, stmts: stmts}
}

// Rate bumps the aggregate counters and records the user's rating. The
// counter update cannot share a batch with the plain insert, so the writes
// run one after the other; a failure between them leaves the aggregate ahead
// of the by-user row, which the caller may retry.
func (r *RatingRepository) Rate(ctx context.Context, videoID, userID uuid.UUID, rating int) error {
	err := r.stmts.UpdateVideoRating.bind(r.db.Session, rating, gocql.UUID(videoID)).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to update rating counters: %w", err)
	}

	err = r.stmts.InsertUserVideoRating.bind(r.db.Session, gocql.UUID(videoID), gocql.UUID(userID), rating).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to insert user rating: %w", err)
	}
	return nil
}

// VideoRating returns the aggregate for a video. An unrated video has no
// counter row and reads back as zeros.
func (r *RatingRepository) VideoRating(ctx context.Context, videoID uuid.UUID) (model.VideoRating, error) {
	var (
		id      gocql.UUID
		counter int64
		total   int64
	)
	err := r.stmts.SelectVideoRating.bind(r.db.Session, gocql.UUID(videoID)).WithContext(ctx).
		Scan(&id, &counter, &total)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return model.VideoRating{VideoID: videoID}, nil
		}
		return model.VideoRating{}, fmt.Errorf("failed to get video rating: %w", err)
	}

	return model.VideoRating{VideoID: videoID, RatingCounter: counter, RatingTotal: total}, nil
}

// UserRating returns the rating one user gave a video, zero if none.
func (r *RatingRepository) UserRating(ctx context.Context, videoID, userID uuid.UUID) (model.UserVideoRating, error) {
	var (
		vid    gocql.UUID
		uid    gocql.UUID
		rating int
	)
	err := r.stmts.SelectUserVideoRating.bind(r.db.Session, gocql.UUID(videoID), gocql.UUID(userID)).WithContext(ctx).
		Scan(&vid, &uid, &rating)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return model.UserVideoRating{VideoID: videoID, UserID: userID}, nil
		}
		return model.UserVideoRating{}, fmt.Errorf("failed to get user rating: %w", err)
	}

	return model.UserVideoRating{VideoID: videoID, UserID: userID, Rating: rating}, nil
}
