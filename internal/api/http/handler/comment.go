package handler

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avern/vidfeed-server/internal/api/http/middleware"
	"github.com/avern/vidfeed-server/internal/logger"
	"github.com/avern/vidfeed-server/internal/model"
)

// CommentService defines commenting operations.
type CommentService interface {
	Add(ctx context.Context, videoID, userID uuid.UUID, text string) (model.Comment, error)
	VideoComments(ctx context.Context, videoID uuid.UUID, pageSize int, pageState []byte, startingCommentID uuid.UUID) ([]model.Comment, []byte, error)
	UserComments(ctx context.Context, userID uuid.UUID, pageSize int, pageState []byte, startingCommentID uuid.UUID) ([]model.Comment, []byte, error)
}

// Comment handles HTTP endpoints for video comments.
type Comment struct {
	commentService CommentService
	logger         *logger.Logger
}

// NewComment creates a new Comment handler.
func NewComment(commentService CommentService, logger *logger.Logger) *Comment {
	return &Comment{
		commentService: commentService,
		logger:         logger,
	}
}

type addCommentRequest struct {
	Comment string `json:"comment" binding:"required"`
}

type commentResponse struct {
	CommentID uuid.UUID `json:"comment_id"`
	VideoID   uuid.UUID `json:"video_id"`
	UserID    uuid.UUID `json:"user_id"`
	Comment   string    `json:"comment"`
	AddedDate time.Time `json:"added_date"`
}

func commentResponses(rows []model.Comment) []commentResponse {
	out := make([]commentResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, commentResponse{
			CommentID: row.CommentID,
			VideoID:   row.VideoID,
			UserID:    row.UserID,
			Comment:   row.Comment,
			AddedDate: row.AddedDate,
		})
	}
	return out
}

// Add posts a comment on a video as the authenticated caller.
func (h *Comment) Add(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}

	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
		return
	}

	comment, err := h.commentService.Add(c.Request.Context(), videoID, userID, req.Comment)
	if err != nil {
		h.logger.Error("Comment handler: add failed", "video_id", videoID, "error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, commentResponse{
		CommentID: comment.CommentID,
		VideoID:   comment.VideoID,
		UserID:    comment.UserID,
		Comment:   comment.Comment,
		AddedDate: comment.AddedDate,
	})
}

// VideoComments returns one page of a video's comments, newest first.
func (h *Comment) VideoComments(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}
	h.page(c, func(pageSize int, pageState []byte, starting uuid.UUID) ([]model.Comment, []byte, error) {
		return h.commentService.VideoComments(c.Request.Context(), videoID, pageSize, pageState, starting)
	})
}

// UserComments returns one page of a user's comments, newest first.
func (h *Comment) UserComments(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	h.page(c, func(pageSize int, pageState []byte, starting uuid.UUID) ([]model.Comment, []byte, error) {
		return h.commentService.UserComments(c.Request.Context(), userID, pageSize, pageState, starting)
	})
}

// page handles the shared paging surface of both comment listings: page_size,
// page_state and an optional starting_comment_id value seek.
func (h *Comment) page(c *gin.Context, fetch func(int, []byte, uuid.UUID) ([]model.Comment, []byte, error)) {
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

	starting := uuid.Nil
	if raw := c.Query("starting_comment_id"); raw != "" {
		starting, err = uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid starting_comment_id"})
			return
		}
	}

	rows, next, err := fetch(pageSize, pageState, starting)
	if err != nil {
		h.logger.Error("Comment handler: listing failed", "error", err.Error())
		handleError(c, err)
		return
	}

	var nextState string
	if len(next) > 0 {
		nextState = base64.URLEncoding.EncodeToString(next)
	}

	c.JSON(http.StatusOK, gin.H{
		"comments":   commentResponses(rows),
		"page_state": nextState,
	})
}
