package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/avern/vidfeed-server/internal/logger"
	"github.com/avern/vidfeed-server/internal/model"
)

// Ratings implements video ratings: a per-video counter aggregate plus the
// individual rating each user gave. Rating the same video twice overwrites
// the per-user row but bumps the aggregate again; the aggregate is a counter
// and offers no read-back correction.
type Ratings struct {
	ratings   model.RatingStore
	publisher model.Publisher
	logger    *logger.Logger
	// now is swapped in tests.
	now func() time.Time
}

func NewRatings(ratings model.RatingStore, publisher model.Publisher, logger *logger.Logger) *Ratings {
	return &Ratings{
		ratings:   ratings,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Rate records a user's rating of a video and announces it.
func (s *Ratings) Rate(ctx context.Context, videoID, userID uuid.UUID, rating int) error {
	if err := s.ratings.Rate(ctx, videoID, userID, rating); err != nil {
		return &model.RetryableError{Op: "rate video", Err: err}
	}

	if err := s.publisher.Publish(ctx, model.EventVideoRated, model.VideoRated{
		VideoID: videoID,
		UserID:  userID,
		Rating:  rating,
		RatedAt: s.now().UTC(),
	}); err != nil {
		s.logger.Error("Ratings: failed to publish video rated event",
			"video_id", videoID, "error", err.Error())
	}

	s.logger.Info("Ratings: video rated", "video_id", videoID, "user_id", userID, "rating", rating)

	return nil
}

// VideoRating returns a video's aggregate rating, zeros if nobody rated it.
func (s *Ratings) VideoRating(ctx context.Context, videoID uuid.UUID) (model.VideoRating, error) {
	agg, err := s.ratings.VideoRating(ctx, videoID)
	if err != nil {
		return model.VideoRating{}, &model.RetryableError{Op: "get video rating", Err: err}
	}
	return agg, nil
}

// UserRating returns the rating one user gave a video, zero if none.
func (s *Ratings) UserRating(ctx context.Context, videoID, userID uuid.UUID) (model.UserVideoRating, error) {
	rating, err := s.ratings.UserRating(ctx, videoID, userID)
	if err != nil {
		return model.UserVideoRating{}, &model.RetryableError{Op: "get user rating", Err: err}
	}
	return rating, nil
}
