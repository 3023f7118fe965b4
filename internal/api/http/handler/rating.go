package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avern/vidfeed-server/internal/api/http/middleware"
	"github.com/avern/vidfeed-server/internal/logger"
	"github.com/avern/vidfeed-server/internal/model"
)

// RatingService defines rating operations.
type RatingService interface {
	Rate(ctx context.Context, videoID, userID uuid.UUID, rating int) error
	VideoRating(ctx context.Context, videoID uuid.UUID) (model.VideoRating, error)
	UserRating(ctx context.Context, videoID, userID uuid.UUID) (model.UserVideoRating, error)
}

// Rating handles HTTP endpoints for video ratings.
type Rating struct {
	ratingService RatingService
	logger        *logger.Logger
}

// NewRating creates a new Rating handler.
func NewRating(ratingService RatingService, logger *logger.Logger) *Rating {
	return &Rating{
		ratingService: ratingService,
		logger:        logger,
	}
}

type rateVideoRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

// Rate records the authenticated caller's rating of a video.
func (h *Rating) Rate(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}

	var req rateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
		return
	}

	if err := h.ratingService.Rate(c.Request.Context(), videoID, userID, req.Rating); err != nil {
		h.logger.Error("Rating handler: rate failed", "video_id", videoID, "error", err.Error())
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// VideoRating returns a video's aggregate rating. A video nobody rated reads
// as zero counters.
func (h *Rating) VideoRating(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}

	agg, err := h.ratingService.VideoRating(c.Request.Context(), videoID)
	if err != nil {
		h.logger.Error("Rating handler: video rating failed", "video_id", videoID, "error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"video_id":       agg.VideoID,
		"rating_counter": agg.RatingCounter,
		"rating_total":   agg.RatingTotal,
	})
}

// UserRating returns the rating the authenticated caller gave a video, zero
// if they never rated it.
func (h *Rating) UserRating(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
		return
	}

	rating, err := h.ratingService.UserRating(c.Request.Context(), videoID, userID)
	if err != nil {
		h.logger.Error("Rating handler: user rating failed", "video_id", videoID, "error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"video_id": rating.VideoID,
		"user_id":  rating.UserID,
		"rating":   rating.Rating,
	})
}
