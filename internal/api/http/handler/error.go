package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avern/vidfeed-server/internal/model"
)

var errInvalidResume = errors.New("starting_added_date (RFC3339) and starting_video_id (uuid) must be supplied together")

// handleError translates service errors into HTTP responses. The login
// failure message is intentionally shared between unknown-email and
// wrong-password so the surface never reveals whether an email is
// registered.
func handleError(c *gin.Context, err error) {
	var (
		duplicate *model.DuplicateEmailError
		collision *model.IDCollisionError
		retryable *model.RetryableError
	)

	switch {
	case errors.As(err, &duplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, model.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, model.ErrMalformedCursor):
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed cursor"})
	case errors.As(err, &collision), errors.As(err, &retryable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable, retry the request"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
