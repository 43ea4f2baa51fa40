package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/codewithsadee/blog-api/internal/models"
	"github.com/codewithsadee/blog-api/internal/repository"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
)

type likeRepository interface {
	Create(ctx context.Context, like *models.Like) error
	Delete(ctx context.Context, blogID, userID string) (bool, error)
}

type likeBlogRepository interface {
	FindByID(ctx context.Context, id string) (*models.Blog, error)
	AdjustLikes(ctx context.Context, id string, delta int) error
}

// LikeService handles liking and unliking posts. One like per user per
// post; the counter on the blog row follows along.
type LikeService struct {
	likes  likeRepository
	blogs  likeBlogRepository
	logger *zap.Logger
}

// NewLikeService constructs a LikeService instance.
func NewLikeService(likes likeRepository, blogs likeBlogRepository, logger *zap.Logger) *LikeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LikeService{likes: likes, blogs: blogs, logger: logger}
}

// Like records the user's like and returns the updated count.
func (s *LikeService) Like(ctx context.Context, blogID, userID string) (int, error) {
	blog, err := s.requireBlog(ctx, blogID)
	if err != nil {
		return 0, err
	}

	like := &models.Like{BlogID: blogID, UserID: userID}
	if err := s.likes.Create(ctx, like); err != nil {
		if repository.IsUniqueViolation(err) {
			return 0, appErrors.Clone(appErrors.ErrValidation, "you already liked this blog")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to like blog")
	}

	if err := s.blogs.AdjustLikes(ctx, blogID, 1); err != nil {
		s.logger.Warn("failed to bump like counter", zap.Error(err), zap.String("blog_id", blogID))
	}
	return blog.LikesCount + 1, nil
}

// Unlike removes the user's like and returns the updated count. Unliking a
// post that was never liked is a not-found.
func (s *LikeService) Unlike(ctx context.Context, blogID, userID string) (int, error) {
	blog, err := s.requireBlog(ctx, blogID)
	if err != nil {
		return 0, err
	}

	removed, err := s.likes.Delete(ctx, blogID, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unlike blog")
	}
	if !removed {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "like not found")
	}

	if err := s.blogs.AdjustLikes(ctx, blogID, -1); err != nil {
		s.logger.Warn("failed to drop like counter", zap.Error(err), zap.String("blog_id", blogID))
	}
	count := blog.LikesCount - 1
	if count < 0 {
		count = 0
	}
	return count, nil
}

func (s *LikeService) requireBlog(ctx context.Context, blogID string) (*models.Blog, error) {
	blog, err := s.blogs.FindByID(ctx, blogID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blog not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch blog")
	}
	return blog, nil
}
