package cassandra

import (
	"context"
	"fmt"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/google/uuid"

	"github.com/avern/vidfeed-server/internal/model"
)

var _ model.CommentStore = (*CommentRepository)(nil)

// CommentRepository persists comments in the by-video and by-user tables.
type CommentRepository struct {
	db    *Connection
	stmts *Catalog
}

func NewCommentRepository(db *Connection, stmts *Catalog) *CommentRepository {
	return &CommentRepository{db: db, stmts: stmts}
}

// Insert writes the comment into both tables as one logged batch.
func (r *CommentRepository) Insert(ctx context.Context, comment model.Comment) error {
	batch := r.db.Session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(r.stmts.InsertCommentByVideo.CQL(),
		gocql.UUID(comment.VideoID), gocql.UUID(comment.CommentID), gocql.UUID(comment.UserID), comment.Comment)
	batch.Query(r.stmts.InsertCommentByUser.CQL(),
		gocql.UUID(comment.UserID), gocql.UUID(comment.CommentID), gocql.UUID(comment.VideoID), comment.Comment)

	if err := r.db.Session.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// VideoComments pages through one video partition, newest first.
func (r *CommentRepository) VideoComments(ctx context.Context, videoID uuid.UUID, limit int, pageState []byte, startingCommentID uuid.UUID) ([]model.Comment, []byte, error) {
	var q *gocql.Query
	if startingCommentID != uuid.Nil {
		q = r.stmts.VideoCommentsFrom.bind(r.db.Session, gocql.UUID(videoID), gocql.UUID(startingCommentID))
	} else {
		q = r.stmts.VideoComments.bind(r.db.Session, gocql.UUID(videoID))
	}
	return r.scanComments(ctx, q, limit, pageState)
}

// UserComments pages through one user partition, newest first.
func (r *CommentRepository) UserComments(ctx context.Context, userID uuid.UUID, limit int, pageState []byte, startingCommentID uuid.UUID) ([]model.Comment, []byte, error) {
	var q *gocql.Query
	if startingCommentID != uuid.Nil {
		q = r.stmts.UserCommentsFrom.bind(r.db.Session, gocql.UUID(userID), gocql.UUID(startingCommentID))
	} else {
		q = r.stmts.UserComments.bind(r.db.Session, gocql.UUID(userID))
	}
	return r.scanComments(ctx, q, limit, pageState)
}

// scanComments executes one page of a comment query. Both comment tables feed
// the same column order, so one scanner serves both. The next-page token is
// captured before iteration so only rows of the fetched page are consumed.
func (r *CommentRepository) scanComments(ctx context.Context, q *gocql.Query, limit int, pageState []byte) ([]model.Comment, []byte, error) {
	q = q.WithContext(ctx).PageSize(limit)
	if len(pageState) > 0 {
		q = q.PageState(pageState)
	}

	iter := q.Iter()
	next := iter.PageState()

	comments := make([]model.Comment, 0, limit)
	var (
		videoID   gocql.UUID
		commentID gocql.UUID
		userID    gocql.UUID
		text      string
		added     time.Time
	)
	for len(comments) < limit && iter.Scan(&videoID, &commentID, &userID, &text, &added) {
		comments = append(comments, model.Comment{
			CommentID: uuid.UUID(commentID),
			VideoID:   uuid.UUID(videoID),
			UserID:    uuid.UUID(userID),
			Comment:   text,
			AddedDate: added,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to scan comments: %w", err)
	}

	return comments, next, nil
}
