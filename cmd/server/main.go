// Package main runs the video kiosk HTTP server with WebSocket broadcast and
// graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/video-kiosk/backend/config"
	"github.com/video-kiosk/backend/internal/kiosk"
	"github.com/video-kiosk/backend/internal/middleware"
	"github.com/video-kiosk/backend/internal/qr"
	"github.com/video-kiosk/backend/internal/realtime"
	"github.com/video-kiosk/backend/internal/sessions"
	"github.com/video-kiosk/backend/internal/uploads"
	"github.com/video-kiosk/backend/internal/worker"
	"github.com/video-kiosk/backend/pkg/queue"
	"github.com/video-kiosk/backend/pkg/redis"
	"github.com/video-kiosk/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("redis disabled", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			VideosBucket:         cfg.AWS.VideosBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 archive disabled", zap.Error(err))
		}
	}

	store := sessions.NewStore()
	receiver, err := uploads.NewReceiver(cfg.Upload.Dir, cfg.Upload.MaxSizeMiB, logger)
	if err != nil {
		logger.Fatal("upload receiver", zap.Error(err))
	}
	encoder := qr.NewEncoder()

	var hub *realtime.Hub
	if rdb != nil {
		pubsub := realtime.NewRedisPubSub(rdb.Client, logger)
		hub = realtime.NewHub(logger, pubsub, pubsub)
	} else {
		hub = realtime.NewHub(logger, nil, nil)
	}
	defer hub.Close()

	var jobQueue *queue.Queue
	if rdb != nil && s3Client != nil {
		jobQueue = queue.NewQueue(rdb.Client, logger)
	}

	handler := kiosk.NewHandler(store, receiver, encoder, hub, jobQueue, s3Client, cfg.Server.PublicBaseURL, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.MaxMultipartMemory = 8 << 20

	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.POST("/start-recording", handler.StartRecording)
		api.POST("/stop-recording/:sessionId", handler.StopRecording)
		api.GET("/download/:sessionId", handler.Download)
		api.GET("/session/:sessionId", handler.GetSession)
		api.GET("/archive/:sessionId/download-url", handler.ArchiveDownloadURL)
	}

	// Read-only serving of stored videos, mirroring the download endpoint.
	router.Static("/uploads", receiver.Dir())

	router.GET("/ws", realtime.ServeWs(hub, logger))

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	var archiveRemover sessions.ArchiveRemover
	if s3Client != nil {
		archiveRemover = s3Client
	}
	reaper := sessions.NewReaper(store, cfg.Retention.MaxAge, cfg.Retention.SweepInterval, archiveRemover, logger)
	go reaper.Run(bgCtx)

	if jobQueue != nil {
		archiver := worker.NewArchiver(store, s3Client, jobQueue, logger)
		go archiver.Run(bgCtx)
		logger.Info("archive worker started")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	bgCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
