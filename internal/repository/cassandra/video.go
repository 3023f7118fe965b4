package cassandra

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/google/uuid"

	"github.com/avern/vidfeed-server/internal/model"
	"github.com/avern/vidfeed-server/internal/paging"
)

var (
	_ model.VideoStore = (*VideoRepository)(nil)
	_ model.FeedStore  = (*VideoRepository)(nil)
)

// VideoRepository persists videos and serves the bucketed feed scans.
type VideoRepository struct {
	db    *Connection
	stmts *Catalog
	// feedTTL bounds latest_videos rows to the feed lookback window.
	feedTTL time.Duration
}

func NewVideoRepository(db *Connection, stmts *Catalog, lookbackBuckets int) *VideoRepository {
	return &VideoRepository{
		db:      db,
		stmts:   stmts,
		feedTTL: time.Duration(lookbackBuckets) * 24 * time.Hour,
	}
}

// Insert writes the video into all three tables as one logged batch, so a
// partially applied submission is retried by the store rather than left
// half-visible.
func (r *VideoRepository) Insert(ctx context.Context, video model.Video) error {
	bucket := video.AddedDate.UTC().Format(paging.BucketFormat)
	ttlSeconds := int(r.feedTTL.Seconds())

	batch := r.db.Session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(r.stmts.InsertVideo.CQL(),
		gocql.UUID(video.ID), gocql.UUID(video.UserID), video.Name, video.Description,
		video.Location, int(video.LocationType), video.PreviewImageLocation, video.Tags, video.AddedDate)
	batch.Query(r.stmts.InsertUserVideo.CQL(),
		gocql.UUID(video.UserID), video.AddedDate, gocql.UUID(video.ID), video.Name, video.PreviewImageLocation)
	batch.Query(r.stmts.InsertLatestVideo.CQL(),
		bucket, video.AddedDate, gocql.UUID(video.ID), gocql.UUID(video.UserID),
		video.Name, video.PreviewImageLocation, ttlSeconds)

	if err := r.db.Session.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}
	return nil
}

func (r *VideoRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Video, error) {
	var (
		videoID      gocql.UUID
		userID       gocql.UUID
		locationType int
		video        model.Video
	)
	err := r.stmts.SelectVideo.bind(r.db.Session, gocql.UUID(id)).WithContext(ctx).
		Scan(&videoID, &userID, &video.Name, &video.Description, &video.Location,
			&locationType, &video.PreviewImageLocation, &video.Tags, &video.AddedDate)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return model.Video{}, model.ErrNotFound
		}
		return model.Video{}, fmt.Errorf("failed to get video by id: %w", err)
	}

	video.ID = uuid.UUID(videoID)
	video.UserID = uuid.UUID(userID)
	video.LocationType = model.VideoLocationType(locationType)
	return video, nil
}

func (r *VideoRepository) UpdatePreviewImage(ctx context.Context, id uuid.UUID, location string) error {
	err := r.stmts.UpdatePreviewImage.bind(r.db.Session, location, gocql.UUID(id)).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to update preview image: %w", err)
	}
	return nil
}

// UserVideos pages through one user partition using the store-native token.
func (r *VideoRepository) UserVideos(ctx context.Context, userID uuid.UUID, limit int, pageState []byte, resume *model.FeedResume) ([]model.VideoPreview, []byte, error) {
	var q *gocql.Query
	if resume != nil {
		q = r.stmts.UserVideosFrom.bind(r.db.Session, gocql.UUID(userID), resume.AddedDate, gocql.UUID(resume.VideoID))
	} else {
		q = r.stmts.UserVideos.bind(r.db.Session, gocql.UUID(userID))
	}
	return r.scanPreviews(ctx, q, limit, pageState)
}

// ScanBucket reads up to limit feed rows from a single daily partition.
// pageState must be a token previously returned for the same bucket; the
// returned token is likewise only valid for this bucket.
func (r *VideoRepository) ScanBucket(ctx context.Context, bucket string, limit int, pageState []byte, resume *model.FeedResume) ([]model.VideoPreview, []byte, error) {
	var q *gocql.Query
	if resume != nil {
		q = r.stmts.LatestByBucketFrom.bind(r.db.Session, bucket, resume.AddedDate, gocql.UUID(resume.VideoID))
	} else {
		q = r.stmts.LatestByBucket.bind(r.db.Session, bucket)
	}
	return r.scanPreviews(ctx, q, limit, pageState)
}

// scanPreviews executes one page of a preview query. The next-page token is
// captured before iteration so only rows of the fetched page are consumed.
func (r *VideoRepository) scanPreviews(ctx context.Context, q *gocql.Query, limit int, pageState []byte) ([]model.VideoPreview, []byte, error) {
	q = q.WithContext(ctx).PageSize(limit)
	if len(pageState) > 0 {
		q = q.PageState(pageState)
	}

	iter := q.Iter()
	next := iter.PageState()

	previews := make([]model.VideoPreview, 0, limit)
	var (
		videoID gocql.UUID
		userID  gocql.UUID
		name    string
		preview string
		added   time.Time
	)
	for len(previews) < limit && iter.Scan(&videoID, &userID, &name, &preview, &added) {
		previews = append(previews, model.VideoPreview{
			VideoID:              uuid.UUID(videoID),
			UserID:               uuid.UUID(userID),
			Name:                 name,
			PreviewImageLocation: preview,
			AddedDate:            added,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to scan previews: %w", err)
	}

	return previews, next, nil
}
