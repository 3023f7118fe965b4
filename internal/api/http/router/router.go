package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avern/vidfeed-server/internal/api/http/handler"
	"github.com/avern/vidfeed-server/internal/api/http/middleware"
	"github.com/avern/vidfeed-server/internal/logger"
	"github.com/avern/vidfeed-server/internal/model"
)

// Router wires handlers and middleware into the HTTP route tree.
type Router struct {
	userHandler    *handler.User
	videoHandler   *handler.Video
	commentHandler *handler.Comment
	ratingHandler  *handler.Rating
	tokens         model.TokenManager
	logger         *logger.Logger
}

// New creates a new Router instance.
func New(
	userService handler.UserService,
	videoService handler.VideoService,
	commentService handler.CommentService,
	ratingService handler.RatingService,
	tokens model.TokenManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		userHandler:    handler.NewUser(userService, tokens, logger),
		videoHandler:   handler.NewVideo(videoService, logger),
		commentHandler: handler.NewComment(commentService, logger),
		ratingHandler:  handler.NewRating(ratingService, logger),
		tokens:         tokens,
		logger:         logger,
	}
}

// Handler builds the gin engine. Account creation, login and all reads are
// public; submissions, comments, ratings and account deletion require a
// bearer token.
func (r *Router) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.NewLogging(r.logger).Handle)

	authenticate := middleware.NewAuthenticate(r.tokens, r.logger).Handle

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/users", r.userHandler.Create)
		v1.POST("/sessions", r.userHandler.Login)
		v1.GET("/users/:id", r.userHandler.Get)
		v1.DELETE("/users/:id", authenticate, r.userHandler.Delete)
		v1.GET("/users/:id/videos", r.videoHandler.UserVideos)
		v1.GET("/users/:id/comments", r.commentHandler.UserComments)

		v1.POST("/videos", authenticate, r.videoHandler.Submit)
		v1.GET("/videos/latest", r.videoHandler.LatestFeed)
		v1.GET("/videos/:id", r.videoHandler.Get)
		v1.PUT("/videos/:id/thumbnail", authenticate, r.videoHandler.SetThumbnail)
		v1.GET("/videos/:id/thumbnail", r.videoHandler.Thumbnail)

		v1.POST("/videos/:id/comments", authenticate, r.commentHandler.Add)
		v1.GET("/videos/:id/comments", r.commentHandler.VideoComments)
		v1.POST("/videos/:id/rating", authenticate, r.ratingHandler.Rate)
		v1.GET("/videos/:id/rating", r.ratingHandler.VideoRating)
		v1.GET("/videos/:id/rating/me", authenticate, r.ratingHandler.UserRating)
	}

	return engine
}
