package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/avern/vidfeed-server/internal/logger"
	"github.com/avern/vidfeed-server/internal/model"
	"github.com/avern/vidfeed-server/internal/paging"
)

// FeedConfig tunes the latest-videos feed.
type FeedConfig struct {
	LookbackBuckets int
	DefaultPageSize int
	MaxPageSize     int
}

// VideoCatalog implements video submission and the bucketed latest-videos
// feed. The feed presents a sequence of daily partitions as one continuous
// reverse-chronological stream, stitching the store-native per-partition
// page token into a multi-bucket cursor.
type VideoCatalog struct {
	videos     model.VideoStore
	feed       model.FeedStore
	thumbnails model.Storage
	publisher  model.Publisher
	cfg        FeedConfig
	logger     *logger.Logger
	// now is swapped in tests to pin the bucket sequence.
	now func() time.Time
}

func NewVideoCatalog(
	videos model.VideoStore,
	feed model.FeedStore,
	thumbnails model.Storage,
	publisher model.Publisher,
	cfg FeedConfig,
	logger *logger.Logger,
) *VideoCatalog {
	return &VideoCatalog{
		videos:     videos,
		feed:       feed,
		thumbnails: thumbnails,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Submit stores a YouTube video and makes it visible in the feed.
func (s *VideoCatalog) Submit(ctx context.Context, req model.SubmitVideoRequest) (uuid.UUID, error) {
	videoID := uuid.New()
	now := s.now().UTC()

	video := model.Video{
		ID:                   videoID,
		UserID:               req.UserID,
		Name:                 req.Name,
		Description:          req.Description,
		Location:             req.Location,
		LocationType:         model.LocationTypeYouTube,
		PreviewImageLocation: "//img.youtube.com/vi/" + req.Location + "/hqdefault.jpg",
		Tags:                 req.Tags,
		AddedDate:            now,
	}

	if err := s.videos.Insert(ctx, video); err != nil {
		return uuid.Nil, fmt.Errorf("failed to submit video: %w", err)
	}

	if err := s.publisher.Publish(ctx, model.EventVideoAdded, model.VideoAdded{
		VideoID:              videoID,
		UserID:               req.UserID,
		Name:                 req.Name,
		Location:             req.Location,
		PreviewImageLocation: video.PreviewImageLocation,
		Tags:                 req.Tags,
		AddedDate:            now,
	}); err != nil {
		s.logger.Error("Video catalog: failed to publish video added event",
			"video_id", videoID, "error", err.Error())
	}

	s.logger.Info("Video catalog: video submitted", "video_id", videoID, "user_id", req.UserID)

	return videoID, nil
}

// Get returns a video by id.
func (s *VideoCatalog) Get(ctx context.Context, id uuid.UUID) (model.Video, error) {
	video, err := s.videos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Video{}, model.ErrNotFound
		}
		return model.Video{}, fmt.Errorf("failed to get video: %w", err)
	}
	return video, nil
}

// LatestFeed returns one page of the latest-videos feed.
//
// Without an incoming cursor the bucket sequence is the last N days, newest
// first, today included. With a cursor the sequence, position and native
// page token are restored from it. A resume point is a value-based seek for
// the first bucket only and replaces the native token.
//
// Buckets are scanned strictly sequentially; the native token is used at
// most once, for the bucket it was issued against, and is discarded the
// moment the scan advances to an older bucket. A new cursor is emitted only
// when more rows may exist: either the current bucket reported another page,
// or older buckets remain. Otherwise the cursor is empty and the feed is
// exhausted.
func (s *VideoCatalog) LatestFeed(ctx context.Context, pageSize int, cursor string, resume *model.FeedResume) (model.FeedPage, error) {
	pageSize = s.clampPageSize(pageSize)

	var st paging.State
	if cursor == "" {
		st = paging.NewState(s.now(), s.cfg.LookbackBuckets)
	} else {
		var err error
		st, err = paging.Decode(cursor)
		if err != nil {
			return model.FeedPage{}, err
		}
	}
	if resume != nil {
		// A value-based seek is incompatible with an opaque native token.
		st.PageState = nil
	}

	videos := make([]model.VideoPreview, 0, pageSize)
	idx := st.Index
	native := st.PageState
	var nextCursor string

	for idx < len(st.Buckets) && len(videos) < pageSize {
		remaining := pageSize - len(videos)

		rows, nativeNext, err := s.feed.ScanBucket(ctx, st.Buckets[idx], remaining, native, resume)
		if err != nil {
			return model.FeedPage{}, &model.RetryableError{Op: "scan feed bucket", Err: err}
		}
		if len(rows) > remaining {
			rows = rows[:remaining]
		}
		videos = append(videos, rows...)

		if len(nativeNext) > 0 {
			// Rows remain in this bucket. The store may return a short page
			// together with a continuation token, so exhaustion is keyed on
			// the token, never on the row count.
			native = nativeNext
			if len(videos) == pageSize {
				// The page filled mid-bucket: the only case where the native
				// token survives into the outgoing cursor.
				nextCursor, err = paging.Encode(paging.State{Buckets: st.Buckets, Index: idx, PageState: nativeNext})
				if err != nil {
					return model.FeedPage{}, fmt.Errorf("failed to encode cursor: %w", err)
				}
				break
			}
			continue
		}

		// Bucket exhausted: move to the next one. The native token and the
		// resume point are scoped to the bucket just finished.
		idx++
		native = nil
		resume = nil
	}

	if nextCursor == "" && len(videos) == pageSize && idx < len(st.Buckets) {
		var err error
		nextCursor, err = paging.Encode(paging.State{Buckets: st.Buckets, Index: idx})
		if err != nil {
			return model.FeedPage{}, fmt.Errorf("failed to encode cursor: %w", err)
		}
	}

	return model.FeedPage{Videos: videos, Cursor: nextCursor}, nil
}

// UserVideos returns one page of a user's submissions. A single user is one
// partition, so the store-native token is used directly as the cursor.
func (s *VideoCatalog) UserVideos(ctx context.Context, userID uuid.UUID, pageSize int, pageState []byte, resume *model.FeedResume) ([]model.VideoPreview, []byte, error) {
	pageSize = s.clampPageSize(pageSize)

	rows, next, err := s.videos.UserVideos(ctx, userID, pageSize, pageState, resume)
	if err != nil {
		return nil, nil, &model.RetryableError{Op: "scan user videos", Err: err}
	}
	return rows, next, nil
}

// SetThumbnail stores a custom preview image and points the video at it.
func (s *VideoCatalog) SetThumbnail(ctx context.Context, videoID uuid.UUID, reader io.Reader) (string, error) {
	if _, err := s.videos.GetByID(ctx, videoID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.ErrNotFound
		}
		return "", fmt.Errorf("failed to get video for thumbnail: %w", err)
	}

	key := thumbnailKey(videoID)
	if err := s.thumbnails.Upload(ctx, key, reader); err != nil {
		return "", fmt.Errorf("failed to upload thumbnail: %w", err)
	}
	if err := s.videos.UpdatePreviewImage(ctx, videoID, key); err != nil {
		return "", fmt.Errorf("failed to update preview image location: %w", err)
	}

	return key, nil
}

// Thumbnail streams a previously stored custom preview image.
func (s *VideoCatalog) Thumbnail(ctx context.Context, videoID uuid.UUID) (io.ReadCloser, error) {
	key := thumbnailKey(videoID)
	exists, err := s.thumbnails.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check thumbnail: %w", err)
	}
	if !exists {
		return nil, model.ErrNotFound
	}
	return s.thumbnails.Download(ctx, key)
}

func (s *VideoCatalog) clampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return s.cfg.DefaultPageSize
	}
	if s.cfg.MaxPageSize > 0 && pageSize > s.cfg.MaxPageSize {
		return s.cfg.MaxPageSize
	}
	return pageSize
}

func thumbnailKey(videoID uuid.UUID) string {
	return "thumbnails/" + videoID.String() + ".jpg"
}
