package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/codewithsadee/blog-api/api/swagger"
	"github.com/codewithsadee/blog-api/internal/handler"
	"github.com/codewithsadee/blog-api/internal/repository"
	"github.com/codewithsadee/blog-api/internal/service"
	"github.com/codewithsadee/blog-api/pkg/cache"
	"github.com/codewithsadee/blog-api/pkg/config"
	"github.com/codewithsadee/blog-api/pkg/database"
	"github.com/codewithsadee/blog-api/pkg/jobs"
	"github.com/codewithsadee/blog-api/pkg/logger"
	ratelimitmiddleware "github.com/codewithsadee/blog-api/pkg/middleware/ratelimit"
	"github.com/codewithsadee/blog-api/pkg/storage"
)

// @title Blog API
// @version 1.0.0
// @description REST API for a blog publishing platform
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	uploads, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload storage", "error", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	blogRepo := repository.NewBlogRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	// a nil client turns the cache repository into a no-op
	var cacheClient *redis.Client
	if cfg.BlogCache.Enabled {
		cacheClient = redisClient
	}
	cacheRepo := repository.NewCacheRepository(cacheClient, logr)

	tokenSvc := service.NewTokenService(cfg.Auth)
	maintenanceSvc := service.NewMaintenanceService(tokenRepo, uploads, logr)

	queue := jobs.NewQueue("maintenance", maintenanceSvc.Handle, jobs.QueueConfig{
		Workers: 2,
		Logger:  logr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)
	defer queue.Stop()

	go runTokenPurge(ctx, queue, cfg.Auth.TokenPurgeInterval, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, tokenRepo, tokenSvc, validate, logr, cfg.Auth)
	userSvc := service.NewUserService(userRepo, tokenRepo, blogRepo, queue, validate, logr)

	blogSvc := service.NewBlogService(blogRepo, uploads, cacheRepo, queue, metricsSvc, validate, logr, cfg.BlogCache.TTL)
	commentSvc := service.NewCommentService(commentRepo, blogRepo, validate, logr)
	likeSvc := service.NewLikeService(likeRepo, blogRepo, logr)

	var limiter *ratelimitmiddleware.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimitmiddleware.New(redisClient, cfg.RateLimit.Limit, cfg.RateLimit.Window, logr)
	}

	router := handler.NewRouter(handler.RouterDeps{
		Config:  cfg,
		Logger:  logr,
		Users:   userRepo,
		Auth:    handler.NewAuthHandler(authSvc, cfg.Auth, cfg.APIPrefix+"/auth"),
		User:    handler.NewUserHandler(userSvc),
		Blog:    handler.NewBlogHandler(blogSvc, userSvc, cfg.Uploads.MaxFileSizeBytes),
		Comment: handler.NewCommentHandler(commentSvc),
		Like:    handler.NewLikeHandler(likeSvc),
		Tokens:  tokenSvc,
		Metrics: metricsSvc,
		Limiter: limiter,
		Uploads: http.Dir(uploads.BaseDir()),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// runTokenPurge enqueues a registry sweep on a fixed interval so expired
// refresh tokens never pile up.
func runTokenPurge(ctx context.Context, queue *jobs.Queue, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := queue.Enqueue(service.TokenPurgeJob(uuid.NewString())); err != nil {
				logr.Sugar().Warnw("failed to enqueue token purge", "error", err)
			}
		}
	}
}
