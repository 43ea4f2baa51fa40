package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/codewithsadee/blog-api/internal/models"
	"github.com/codewithsadee/blog-api/internal/repository"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
	"github.com/codewithsadee/blog-api/pkg/jobs"
)

const blogCachePattern = "blogs:*"

type blogRepository interface {
	Create(ctx context.Context, blog *models.Blog) error
	FindByID(ctx context.Context, id string) (*models.Blog, error)
	FindBySlug(ctx context.Context, slug string) (*models.Blog, error)
	List(ctx context.Context, filter models.BlogFilter) ([]models.Blog, int, error)
	Update(ctx context.Context, blog *models.Blog) error
	Delete(ctx context.Context, id string) error
}

type bannerStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

type blogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// BannerUpload is a banner image received with a create or update request.
type BannerUpload struct {
	Filename string
	Data     []byte
}

// BlogList is the cached shape of a paginated blog listing.
type BlogList struct {
	Blogs      []models.Blog     `json:"blogs"`
	Pagination models.Pagination `json:"pagination"`
}

// BlogService owns the post lifecycle: sanitized content, generated slugs,
// banner storage and the Redis-backed listing cache.
type BlogService struct {
	blogs     blogRepository
	storage   bannerStore
	cache     blogCache
	cleanup   bannerCleanupQueue
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	policy    *bluemonday.Policy
	cacheTTL  time.Duration
}

// NewBlogService constructs a BlogService instance. A nil cache disables
// listing caching; a nil metrics service disables cache instrumentation.
func NewBlogService(blogs blogRepository, storage bannerStore, cache blogCache, cleanup bannerCleanupQueue, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *BlogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BlogService{
		blogs:     blogs,
		storage:   storage,
		cache:     cache,
		cleanup:   cleanup,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		policy:    bluemonday.UGCPolicy(),
		cacheTTL:  cacheTTL,
	}
}

// Create publishes a new post for the author. Content is sanitized, the
// slug derives from the title with a random suffix, and the banner (if any)
// lands on local storage.
func (s *BlogService) Create(ctx context.Context, authorID string, req models.CreateBlogRequest, banner *BannerUpload) (*models.Blog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid blog payload")
	}

	status := models.BlogStatus(req.Status)
	if status == "" {
		status = models.StatusDraft
	}

	blog := &models.Blog{
		Title:    req.Title,
		Slug:     genSlug(req.Title),
		Content:  s.policy.Sanitize(req.Content),
		AuthorID: authorID,
		Status:   status,
	}

	if banner != nil {
		if err := s.attachBanner(blog, banner); err != nil {
			return nil, err
		}
	}

	if err := s.blogs.Create(ctx, blog); err != nil {
		if repository.IsUniqueViolation(err) {
			// random suffix collided; one retry with a fresh slug
			blog.ID = ""
			blog.Slug = genSlug(req.Title)
			if err := s.blogs.Create(ctx, blog); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create blog")
			}
		} else {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create blog")
		}
	}

	s.invalidateListings(ctx)
	s.logger.Info("blog created", zap.String("blog_id", blog.ID), zap.String("slug", blog.Slug))
	return blog, nil
}

// List returns posts matching the filter. Drafts are stripped unless the
// caller may see them. Cacheable listings are served from Redis when fresh.
func (s *BlogService) List(ctx context.Context, filter models.BlogFilter, includeDrafts bool) (*BlogList, error) {
	if !includeDrafts {
		published := models.StatusPublished
		filter.Status = &published
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	key := listCacheKey(filter, includeDrafts)
	if s.cache != nil {
		var cached BlogList
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheLookup(true)
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("blog cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheLookup(false)
	}

	blogs, total, err := s.blogs.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blogs")
	}

	list := &BlogList{
		Blogs:      blogs,
		Pagination: models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total},
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, list, s.cacheTTL); err != nil {
			s.logger.Warn("blog cache write failed", zap.Error(err))
		}
	}
	return list, nil
}

// GetBySlug returns one post. Drafts stay hidden from readers without
// draft visibility.
func (s *BlogService) GetBySlug(ctx context.Context, slugValue string, includeDrafts bool) (*models.Blog, error) {
	blog, err := s.blogs.FindBySlug(ctx, slugValue)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blog not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch blog")
	}
	if blog.Status == models.StatusDraft && !includeDrafts {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "blog not found")
	}
	return blog, nil
}

// Get returns one post by identifier, applying the same draft visibility
// rule as GetBySlug.
func (s *BlogService) Get(ctx context.Context, id string, includeDrafts bool) (*models.Blog, error) {
	blog, err := s.blogs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blog not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch blog")
	}
	if blog.Status == models.StatusDraft && !includeDrafts {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "blog not found")
	}
	return blog, nil
}

// Update applies partial changes to a post. A changed title regenerates the
// slug; a new banner replaces the old file.
func (s *BlogService) Update(ctx context.Context, id string, req models.UpdateBlogRequest, banner *BannerUpload) (*models.Blog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid blog payload")
	}

	blog, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}

	oldBanner := ""
	titleChanged := req.Title != nil && *req.Title != blog.Title
	if titleChanged {
		blog.Title = *req.Title
		blog.Slug = genSlug(*req.Title)
	}
	if req.Content != nil {
		blog.Content = s.policy.Sanitize(*req.Content)
	}
	if req.Status != nil {
		blog.Status = models.BlogStatus(*req.Status)
	}
	if banner != nil {
		oldBanner = blog.BannerPath
		if err := s.attachBanner(blog, banner); err != nil {
			return nil, err
		}
	}

	if err := s.blogs.Update(ctx, blog); err != nil {
		if titleChanged && repository.IsUniqueViolation(err) {
			// random suffix collided; one retry with a fresh slug
			blog.Slug = genSlug(blog.Title)
			if err := s.blogs.Update(ctx, blog); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update blog")
			}
		} else {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update blog")
		}
	}

	if oldBanner != "" && oldBanner != blog.BannerPath {
		s.enqueueBannerCleanup(oldBanner)
	}
	s.invalidateListings(ctx)
	return blog, nil
}

// Delete removes a post and schedules its banner file for cleanup.
func (s *BlogService) Delete(ctx context.Context, id string) error {
	blog, err := s.Get(ctx, id, true)
	if err != nil {
		return err
	}

	if err := s.blogs.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete blog")
	}

	if blog.BannerPath != "" {
		s.enqueueBannerCleanup(blog.BannerPath)
	}
	s.invalidateListings(ctx)
	s.logger.Info("blog deleted", zap.String("blog_id", id))
	return nil
}

func (s *BlogService) attachBanner(blog *models.Blog, banner *BannerUpload) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(banner.Data))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "banner must be a valid image")
	}

	ext := strings.ToLower(filepath.Ext(banner.Filename))
	name := fmt.Sprintf("banners/%s%s", uuid.NewString(), ext)
	stored, err := s.storage.SaveStream(name, bytes.NewReader(banner.Data))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store banner")
	}

	blog.BannerPath = stored
	blog.BannerWidth = cfg.Width
	blog.BannerHeight = cfg.Height
	return nil
}

func (s *BlogService) enqueueBannerCleanup(path string) {
	if s.cleanup == nil {
		return
	}
	if err := s.cleanup.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobBannerCleanup, Payload: []string{path}}); err != nil {
		s.logger.Warn("failed to enqueue banner cleanup", zap.Error(err), zap.String("path", path))
	}
}

func (s *BlogService) invalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, blogCachePattern); err != nil {
		s.logger.Warn("failed to invalidate blog cache", zap.Error(err))
	}
}

func listCacheKey(filter models.BlogFilter, includeDrafts bool) string {
	status := "published"
	if includeDrafts {
		status = "all"
	}
	author := filter.AuthorID
	if author == "" {
		author = "-"
	}
	return fmt.Sprintf("blogs:list:%s:%s:%d:%d", status, author, filter.Page, filter.PageSize)
}

// genSlug derives a URL slug from the title plus a short random suffix so
// identical titles never fight over one slug.
func genSlug(title string) string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return slug.Make(title) + "-" + uuid.NewString()[:8]
	}
	return slug.Make(title) + "-" + hex.EncodeToString(buf)
}
