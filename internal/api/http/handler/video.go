package handler

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avern/vidfeed-server/internal/api/http/middleware"
	"github.com/avern/vidfeed-server/internal/logger"
	"github.com/avern/vidfeed-server/internal/model"
)

// VideoService defines video catalog operations.
type VideoService interface {
	Submit(ctx context.Context, req model.SubmitVideoRequest) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (model.Video, error)
	LatestFeed(ctx context.Context, pageSize int, cursor string, resume *model.FeedResume) (model.FeedPage, error)
	UserVideos(ctx context.Context, userID uuid.UUID, pageSize int, pageState []byte, resume *model.FeedResume) ([]model.VideoPreview, []byte, error)
	SetThumbnail(ctx context.Context, videoID uuid.UUID, reader io.Reader) (string, error)
	Thumbnail(ctx context.Context, videoID uuid.UUID) (io.ReadCloser, error)
}

// Video handles HTTP endpoints for the video catalog.
type Video struct {
	videoService VideoService
	logger       *logger.Logger
}

// NewVideo creates a new Video handler.
func NewVideo(videoService VideoService, logger *logger.Logger) *Video {
	return &Video{
		videoService: videoService,
		logger:       logger,
	}
}

type submitVideoRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	YouTubeID   string   `json:"youtube_id" binding:"required"`
	Tags        []string `json:"tags"`
}

type videoResponse struct {
	ID                   uuid.UUID `json:"id"`
	UserID               uuid.UUID `json:"user_id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description,omitempty"`
	Location             string    `json:"location"`
	PreviewImageLocation string    `json:"preview_image_location"`
	Tags                 []string  `json:"tags,omitempty"`
	AddedDate            time.Time `json:"added_date"`
}

type videoPreviewResponse struct {
	VideoID              uuid.UUID `json:"video_id"`
	UserID               uuid.UUID `json:"user_id"`
	Name                 string    `json:"name"`
	PreviewImageLocation string    `json:"preview_image_location"`
	AddedDate            time.Time `json:"added_date"`
}

func previewResponses(rows []model.VideoPreview) []videoPreviewResponse {
	out := make([]videoPreviewResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, videoPreviewResponse{
			VideoID:              row.VideoID,
			UserID:               row.UserID,
			Name:                 row.Name,
			PreviewImageLocation: row.PreviewImageLocation,
			AddedDate:            row.AddedDate,
		})
	}
	return out
}

// Submit adds a YouTube video to the catalog.
func (h *Video) Submit(c *gin.Context) {
	var req submitVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
		return
	}

	videoID, err := h.videoService.Submit(c.Request.Context(), model.SubmitVideoRequest{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Location:    req.YouTubeID,
		Tags:        req.Tags,
	})
	if err != nil {
		h.logger.Error("Video handler: submit failed", "user_id", userID, "error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": videoID})
}

// Get returns full video details by id.
func (h *Video) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}

	video, err := h.videoService.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, videoResponse{
		ID:                   video.ID,
		UserID:               video.UserID,
		Name:                 video.Name,
		Description:          video.Description,
		Location:             video.Location,
		PreviewImageLocation: video.PreviewImageLocation,
		Tags:                 video.Tags,
		AddedDate:            video.AddedDate,
	})
}

// LatestFeed returns one page of the most recently added videos. The cursor
// from a previous response continues the walk; a missing cursor starts at
// the newest video. An optional starting position (added date plus video id)
// seeks into the feed by value instead.
func (h *Video) LatestFeed(c *gin.Context) {
	pageSize, err := pageSizeParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page_size"})
		return
	}

	resume, err := resumeParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.videoService.LatestFeed(c.Request.Context(), pageSize, c.Query("cursor"), resume)
	if err != nil {
		h.logger.Error("Video handler: latest feed failed", "error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videos": previewResponses(page.Videos),
		"cursor": page.Cursor,
	})
}

// UserVideos returns one page of a user's submissions, newest first.
func (h *Video) UserVideos(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	pageSize, err := pageSizeParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page_size"})
		return
	}

	var pageState []byte
	if raw := c.Query("page_state"); raw != "" {
		pageState, err = base64.URLEncoding.DecodeString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page_state"})
			return
		}
	}

	resume, err := resumeParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, next, err := h.videoService.UserVideos(c.Request.Context(), userID, pageSize, pageState, resume)
	if err != nil {
		h.logger.Error("Video handler: user videos failed", "user_id", userID, "error", err.Error())
		handleError(c, err)
		return
	}

	var nextState string
	if len(next) > 0 {
		nextState = base64.URLEncoding.EncodeToString(next)
	}

	c.JSON(http.StatusOK, gin.H{
		"videos":     previewResponses(rows),
		"page_state": nextState,
	})
}

// SetThumbnail stores a custom preview image for a video owned by the
// caller.
func (h *Video) SetThumbnail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
		return
	}

	video, err := h.videoService.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	if video.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot modify another user's video"})
		return
	}

	key, err := h.videoService.SetThumbnail(c.Request.Context(), id, c.Request.Body)
	if err != nil {
		h.logger.Error("Video handler: thumbnail upload failed", "video_id", id, "error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"location": key})
}

// Thumbnail streams a stored custom preview image.
func (h *Video) Thumbnail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}

	rc, err := h.videoService.Thumbnail(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", "image/jpeg")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.logger.Error("Video handler: thumbnail stream failed", "video_id", id, "error", err.Error())
	}
}

func pageSizeParam(c *gin.Context) (int, error) {
	raw := c.Query("page_size")
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// resumeParams reads the optional value-based starting position. Both
// parameters must be supplied together.
func resumeParams(c *gin.Context) (*model.FeedResume, error) {
	rawDate := c.Query("starting_added_date")
	rawID := c.Query("starting_video_id")
	if rawDate == "" && rawID == "" {
		return nil, nil
	}
	if rawDate == "" || rawID == "" {
		return nil, errInvalidResume
	}

	addedDate, err := time.Parse(time.RFC3339, rawDate)
	if err != nil {
		return nil, errInvalidResume
	}
	videoID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, errInvalidResume
	}

	return &model.FeedResume{AddedDate: addedDate, VideoID: videoID}, nil
}
