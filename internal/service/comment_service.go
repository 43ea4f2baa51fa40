package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/codewithsadee/blog-api/internal/models"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
)

type commentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindByID(ctx context.Context, id string) (*models.Comment, error)
	ListByBlog(ctx context.Context, blogID string) ([]models.Comment, error)
	Delete(ctx context.Context, id string) error
}

type commentBlogRepository interface {
	FindByID(ctx context.Context, id string) (*models.Blog, error)
	AdjustComments(ctx context.Context, id string, delta int) error
}

// CommentRequest is the payload for posting a comment.
type CommentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// CommentService handles reader comments and keeps the per-post counter in
// step.
type CommentService struct {
	comments  commentRepository
	blogs     commentBlogRepository
	validator *validator.Validate
	logger    *zap.Logger
	policy    *bluemonday.Policy
}

// NewCommentService constructs a CommentService instance.
func NewCommentService(comments commentRepository, blogs commentBlogRepository, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CommentService{comments: comments, blogs: blogs, validator: validate, logger: logger, policy: bluemonday.StrictPolicy()}
}

// Create posts a comment on a blog post.
func (s *CommentService) Create(ctx context.Context, blogID, userID string, req CommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}

	if _, err := s.requireBlog(ctx, blogID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		BlogID:  blogID,
		UserID:  userID,
		Content: s.policy.Sanitize(req.Content),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create comment")
	}

	if err := s.blogs.AdjustComments(ctx, blogID, 1); err != nil {
		s.logger.Warn("failed to bump comment counter", zap.Error(err), zap.String("blog_id", blogID))
	}
	return comment, nil
}

// ListByBlog returns all comments on a blog post.
func (s *CommentService) ListByBlog(ctx context.Context, blogID string) ([]models.Comment, error) {
	if _, err := s.requireBlog(ctx, blogID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByBlog(ctx, blogID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	return comments, nil
}

// Delete removes a comment. Only the comment's author or an admin may do
// this; the handler establishes the caller, the service enforces the rule.
func (s *CommentService) Delete(ctx context.Context, commentID, userID string, isAdmin bool) error {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch comment")
	}

	if !isAdmin && comment.UserID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "you can only delete your own comments")
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete comment")
	}

	if err := s.blogs.AdjustComments(ctx, comment.BlogID, -1); err != nil {
		s.logger.Warn("failed to drop comment counter", zap.Error(err), zap.String("blog_id", comment.BlogID))
	}
	return nil
}

func (s *CommentService) requireBlog(ctx context.Context, blogID string) (*models.Blog, error) {
	blog, err := s.blogs.FindByID(ctx, blogID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blog not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch blog")
	}
	return blog, nil
}
