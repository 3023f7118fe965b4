package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/avern/vidfeed-server/internal/api/http/router"
	"github.com/avern/vidfeed-server/internal/config"
	"github.com/avern/vidfeed-server/internal/events/redis"
	"github.com/avern/vidfeed-server/internal/logger"
	"github.com/avern/vidfeed-server/internal/model"
	"github.com/avern/vidfeed-server/internal/repository/cassandra"
	"github.com/avern/vidfeed-server/internal/server"
	"github.com/avern/vidfeed-server/internal/service"
	storage "github.com/avern/vidfeed-server/internal/storage/minio"
	"github.com/avern/vidfeed-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := cassandra.NewConnection(ctx, cfg.Cassandra)
	if err != nil {
		logger.Fatal("failed to initialize column store", "error", err)
	}
	defer db.Close()

	stmts, err := cassandra.NewCatalog(cfg.Cassandra.Keyspace)
	if err != nil {
		logger.Fatal("failed to build statement catalog", "error", err)
	}

	userRepo := cassandra.NewUserRepository(db, stmts)
	videoRepo := cassandra.NewVideoRepository(db, stmts, cfg.Feed.LookbackBuckets)
	commentRepo := cassandra.NewCommentRepository(db, stmts)
	ratingRepo := cassandra.NewRatingRepository(db, stmts)
	tokenManager := token.NewJWT(cfg.JWT.Secret)

	publisher, err := redis.NewPublisher(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("failed to initialize event publisher", "error", err)
	}
	defer publisher.Close()

	storageClient, err := storage.NewClient(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	userService := service.NewUser(userRepo, publisher, logger)
	videoService := service.NewVideoCatalog(videoRepo, videoRepo, storageClient, publisher, service.FeedConfig{
		LookbackBuckets: cfg.Feed.LookbackBuckets,
		DefaultPageSize: cfg.Feed.DefaultPageSize,
		MaxPageSize:     cfg.Feed.MaxPageSize,
	}, logger)
	commentService := service.NewComments(commentRepo, publisher, service.PageConfig{
		DefaultPageSize: cfg.Feed.DefaultPageSize,
		MaxPageSize:     cfg.Feed.MaxPageSize,
	}, logger)
	ratingService := service.NewRatings(ratingRepo, publisher, logger)

	r := router.New(userService, videoService, commentService, ratingService, tokenManager, logger)
	httpServer := server.NewHTTPServer(r.Handler(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
