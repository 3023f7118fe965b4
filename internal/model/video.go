package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// VideoStore defines persistence operations for videos.
type VideoStore interface {
	// Insert writes the video into the videos, user_videos and latest_videos
	// tables as one logged batch.
	Insert(ctx context.Context, video Video) error
	GetByID(ctx context.Context, id uuid.UUID) (Video, error)
	// UserVideos pages through a single user partition. pageState is the
	// store-native continuation token from a previous call, or nil.
	UserVideos(ctx context.Context, userID uuid.UUID, limit int, pageState []byte, resume *FeedResume) ([]VideoPreview, []byte, error)
	UpdatePreviewImage(ctx context.Context, id uuid.UUID, location string) error
}

// FeedStore is the single-bucket scan the latest-videos paginator is built
// on. pageState is the store-native token and is only meaningful for the
// exact bucket that produced it.
type FeedStore interface {
	ScanBucket(ctx context.Context, bucket string, limit int, pageState []byte, resume *FeedResume) ([]VideoPreview, []byte, error)
}

// Video represents a stored video.
type Video struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	Name                 string
	Description          string
	Location             string
	LocationType         VideoLocationType
	PreviewImageLocation string
	Tags                 []string
	AddedDate            time.Time
}

// VideoLocationType identifies where a video is hosted.
type VideoLocationType int

const (
	LocationTypeYouTube VideoLocationType = iota
	LocationTypeUpload
)

// VideoPreview is the feed row shape: enough to render a feed entry without
// reading the videos table.
type VideoPreview struct {
	VideoID              uuid.UUID
	UserID               uuid.UUID
	Name                 string
	PreviewImageLocation string
	AddedDate            time.Time
}

// FeedResume is a value-based seek position: rows with a sort key at or
// before (AddedDate, VideoID) are returned. It is incompatible with a native
// page token and replaces it for the first bucket scanned.
type FeedResume struct {
	AddedDate time.Time
	VideoID   uuid.UUID
}

// FeedPage is one page of the latest-videos feed. An empty Cursor means the
// feed is exhausted.
type FeedPage struct {
	Videos []VideoPreview
	Cursor string
}

// SubmitVideoRequest carries the inputs for submitting a YouTube video.
type SubmitVideoRequest struct {
	UserID      uuid.UUID
	Name        string
	Description string
	// Location is the YouTube video identifier.
	Location string
	Tags     []string
}
