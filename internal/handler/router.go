package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/codewithsadee/blog-api/internal/middleware"
	"github.com/codewithsadee/blog-api/internal/models"
	"github.com/codewithsadee/blog-api/internal/repository"
	"github.com/codewithsadee/blog-api/internal/service"
	"github.com/codewithsadee/blog-api/pkg/config"
	"github.com/codewithsadee/blog-api/pkg/logger"
	corsmiddleware "github.com/codewithsadee/blog-api/pkg/middleware/cors"
	ratelimitmiddleware "github.com/codewithsadee/blog-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/codewithsadee/blog-api/pkg/middleware/requestid"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Config  *config.Config
	Logger  *zap.Logger
	Users   *repository.UserRepository
	Auth    *AuthHandler
	User    *UserHandler
	Blog    *BlogHandler
	Comment *CommentHandler
	Like    *LikeHandler
	Tokens  *service.TokenService
	Metrics *service.MetricsService
	Limiter *ratelimitmiddleware.Limiter
	Uploads http.FileSystem
}

// NewRouter assembles the gin engine with all middleware and routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	if deps.Limiter != nil {
		r.Use(deps.Limiter.Middleware())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if deps.Uploads != nil {
		r.StaticFS("/uploads", deps.Uploads)
	}

	authed := middleware.Auth(deps.Tokens)
	optional := middleware.OptionalAuth(deps.Tokens)
	adminOnly := middleware.RequireRoles(deps.Users, models.RoleAdmin)
	anyRole := middleware.RequireRoles(deps.Users, models.RoleUser, models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", deps.Auth.Register)
			auth.POST("/login", deps.Auth.Login)
			auth.POST("/refresh-token", deps.Auth.Refresh)
			auth.POST("/logout", authed, deps.Auth.Logout)
		}

		users := api.Group("/users", authed)
		{
			users.GET("/current", anyRole, deps.User.GetCurrent)
			users.PUT("/current", anyRole, deps.User.UpdateCurrent)
			users.DELETE("/current", anyRole, deps.User.DeleteCurrent)

			users.GET("", adminOnly, deps.User.List)
			users.GET("/:userId", adminOnly, deps.User.Get)
			users.DELETE("/:userId", adminOnly, deps.User.Delete)
		}

		blogs := api.Group("/blogs")
		{
			blogs.POST("", authed, adminOnly, deps.Blog.Create)
			blogs.GET("", optional, deps.Blog.List)
			blogs.GET("/user/:userId", optional, deps.Blog.ListByAuthor)
			blogs.GET("/:slug", optional, deps.Blog.GetBySlug)
			blogs.PUT("/:blogId", authed, adminOnly, deps.Blog.Update)
			blogs.DELETE("/:blogId", authed, adminOnly, deps.Blog.Delete)
		}

		comments := api.Group("/comments")
		{
			comments.POST("/blog/:blogId", authed, anyRole, deps.Comment.Create)
			comments.GET("/blog/:blogId", deps.Comment.ListByBlog)
			comments.DELETE("/:commentId", authed, anyRole, deps.Comment.Delete)
		}

		likes := api.Group("/likes", authed, anyRole)
		{
			likes.POST("/blog/:blogId", deps.Like.Like)
			likes.DELETE("/blog/:blogId", deps.Like.Unlike)
		}
	}

	return r
}
