package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avern/vidfeed-server/internal/api/http/middleware"
	"github.com/avern/vidfeed-server/internal/logger"
	"github.com/avern/vidfeed-server/internal/model"
)

// UserService defines user account operations.
type UserService interface {
	Create(ctx context.Context, req model.CreateUserRequest) (uuid.UUID, error)
	VerifyCredentials(ctx context.Context, email, password string) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// User handles HTTP endpoints for user accounts and sessions.
type User struct {
	userService UserService
	tokens      model.TokenManager
	logger      *logger.Logger
}

// NewUser creates a new User handler.
func NewUser(userService UserService, tokens model.TokenManager, logger *logger.Logger) *User {
	return &User{
		userService: userService,
		tokens:      tokens,
		logger:      logger,
	}
}

type createUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Create registers a new user. A client supplied X-Request-Id header is the
// idempotency token: retrying the same request after a timeout converges on
// the original outcome instead of a duplicate-email failure.
func (h *User) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requestID := uuid.New()
	if header := c.GetHeader("X-Request-Id"); header != "" {
		parsed, err := uuid.Parse(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid X-Request-Id"})
			return
		}
		requestID = parsed
	}

	h.logger.Debug("User handler: processing create request", "email", req.Email)

	userID, err := h.userService.Create(c.Request.Context(), model.CreateUserRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RequestID: requestID,
	})
	if err != nil {
		h.logger.Error("User handler: create failed", "email", req.Email, "error", err.Error())
		handleError(c, err)
		return
	}

	h.logger.Info("User handler: user created", "user_id", userID)

	c.JSON(http.StatusCreated, gin.H{"id": userID})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues an access token.
func (h *User) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := h.userService.VerifyCredentials(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}

	token, err := h.tokens.GenerateAccessToken(userID)
	if err != nil {
		h.logger.Error("User handler: failed to generate token", "user_id", userID, "error", err.Error())
		handleError(c, err)
		return
	}

	h.logger.Info("User handler: user logged in", "user_id", userID)

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "access_token": token})
}

// Get returns a user profile by id.
func (h *User) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, userResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt,
	})
}

// Delete removes the authenticated user's own account.
func (h *User) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	callerID, ok := middleware.UserID(c)
	if !ok || callerID != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot delete another user"})
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("User handler: delete failed", "user_id", id, "error", err.Error())
		handleError(c, err)
		return
	}

	h.logger.Info("User handler: user deleted", "user_id", id)

	c.Status(http.StatusNoContent)
}
