package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event kinds published by the services.
const (
	EventUserCreated    = "user.created"
	EventVideoAdded     = "video.added"
	EventVideoCommented = "video.commented"
	EventVideoRated     = "video.rated"
)

// Publisher delivers domain events to interested subscribers. Publishing is
// fire-and-forget from the services' perspective: no ack is awaited and a
// publish failure never fails the operation that raised the event.
type Publisher interface {
	Publish(ctx context.Context, kind string, payload any) error
}

// UserCreated is emitted after a user creation commits both writes.
type UserCreated struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

// VideoAdded is emitted after a video submission commits.
type VideoAdded struct {
	VideoID              uuid.UUID `json:"video_id"`
	UserID               uuid.UUID `json:"user_id"`
	Name                 string    `json:"name"`
	Location             string    `json:"location"`
	PreviewImageLocation string    `json:"preview_image_location"`
	Tags                 []string  `json:"tags,omitempty"`
	AddedDate            time.Time `json:"added_date"`
}

// VideoCommented is emitted after a comment commits both writes.
type VideoCommented struct {
	CommentID uuid.UUID `json:"comment_id"`
	VideoID   uuid.UUID `json:"video_id"`
	UserID    uuid.UUID `json:"user_id"`
	AddedDate time.Time `json:"added_date"`
}

// VideoRated is emitted after both rating writes commit.
type VideoRated struct {
	VideoID uuid.UUID `json:"video_id"`
	UserID  uuid.UUID `json:"user_id"`
	Rating  int       `json:"rating"`
	RatedAt time.Time `json:"rated_at"`
}
