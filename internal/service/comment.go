package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avern/vidfeed-server/internal/logger"
	"github.com/avern/vidfeed-server/internal/model"
)

// PageConfig bounds page sizes for single-partition paged reads.
type PageConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Comments implements commenting on videos. A comment is dual-written to a
// by-video and a by-user partition; its id is a time-based UUID so both
// partitions stay ordered newest first without a separate date column.
type Comments struct {
	comments  model.CommentStore
	publisher model.Publisher
	cfg       PageConfig
	logger    *logger.Logger
	// now is swapped in tests.
	now func() time.Time
}

func NewComments(comments model.CommentStore, publisher model.Publisher, cfg PageConfig, logger *logger.Logger) *Comments {
	return &Comments{
		comments:  comments,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Add stores a comment and announces it. The generated time-based id is the
// comment's position in both partitions.
func (s *Comments) Add(ctx context.Context, videoID, userID uuid.UUID, text string) (model.Comment, error) {
	commentID, err := uuid.NewUUID()
	if err != nil {
		return model.Comment{}, fmt.Errorf("failed to generate comment id: %w", err)
	}

	comment := model.Comment{
		CommentID: commentID,
		VideoID:   videoID,
		UserID:    userID,
		Comment:   text,
		AddedDate: s.now().UTC(),
	}
	if err := s.comments.Insert(ctx, comment); err != nil {
		return model.Comment{}, &model.RetryableError{Op: "insert comment", Err: err}
	}

	if err := s.publisher.Publish(ctx, model.EventVideoCommented, model.VideoCommented{
		CommentID: commentID,
		VideoID:   videoID,
		UserID:    userID,
		AddedDate: comment.AddedDate,
	}); err != nil {
		s.logger.Error("Comments: failed to publish video commented event",
			"comment_id", commentID, "error", err.Error())
	}

	s.logger.Info("Comments: comment added", "comment_id", commentID, "video_id", videoID, "user_id", userID)

	return comment, nil
}

// VideoComments returns one page of a video's comments, newest first.
func (s *Comments) VideoComments(ctx context.Context, videoID uuid.UUID, pageSize int, pageState []byte, startingCommentID uuid.UUID) ([]model.Comment, []byte, error) {
	pageSize = s.clampPageSize(pageSize)

	comments, next, err := s.comments.VideoComments(ctx, videoID, pageSize, pageState, startingCommentID)
	if err != nil {
		return nil, nil, &model.RetryableError{Op: "scan video comments", Err: err}
	}
	return comments, next, nil
}

// UserComments returns one page of a user's comments, newest first.
func (s *Comments) UserComments(ctx context.Context, userID uuid.UUID, pageSize int, pageState []byte, startingCommentID uuid.UUID) ([]model.Comment, []byte, error) {
	pageSize = s.clampPageSize(pageSize)

	comments, next, err := s.comments.UserComments(ctx, userID, pageSize, pageState, startingCommentID)
	if err != nil {
		return nil, nil, &model.RetryableError{Op: "scan user comments", Err: err}
	}
	return comments, next, nil
}

func (s *Comments) clampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return s.cfg.DefaultPageSize
	}
	if s.cfg.MaxPageSize > 0 && pageSize > s.cfg.MaxPageSize {
		return s.cfg.MaxPageSize
	}
	return pageSize
}
