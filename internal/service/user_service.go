package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/codewithsadee/blog-api/internal/models"
	"github.com/codewithsadee/blog-api/internal/repository"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
	"github.com/codewithsadee/blog-api/pkg/jobs"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type userTokenRegistry interface {
	DeleteByUser(ctx context.Context, userID string) error
}

type userBlogRepository interface {
	BannerPathsByAuthor(ctx context.Context, authorID string) ([]string, error)
}

type bannerCleanupQueue interface {
	Enqueue(job jobs.Job) error
}

// UserService covers profile management plus the admin user directory.
type UserService struct {
	users     userRepository
	tokens    userTokenRegistry
	blogs     userBlogRepository
	cleanup   bannerCleanupQueue
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(users userRepository, tokens userTokenRegistry, blogs userBlogRepository, cleanup bannerCleanupQueue, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{users: users, tokens: tokens, blogs: blogs, cleanup: cleanup, validator: validate, logger: logger}
}

// Get returns a user by identifier.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	return user, nil
}

// Update applies the provided profile changes to a user.
func (s *UserService) Update(ctx context.Context, id string, req models.UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Website != nil {
		user.Website = *req.Website
	}
	if req.Facebook != nil {
		user.Facebook = *req.Facebook
	}
	if req.Instagram != nil {
		user.Instagram = *req.Instagram
	}
	if req.LinkedIn != nil {
		user.LinkedIn = *req.LinkedIn
	}
	if req.X != nil {
		user.X = *req.X
	}
	if req.YouTube != nil {
		user.YouTube = *req.YouTube
	}

	if err := s.users.Update(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "username or email already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// List returns users for the admin directory with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Delete removes an account along with its sessions. Blog rows cascade in
// the database; banner files are cleaned up asynchronously so a slow disk
// never holds up the response.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	banners, err := s.blogs.BannerPathsByAuthor(ctx, id)
	if err != nil {
		s.logger.Warn("failed to collect banner paths before delete", zap.Error(err), zap.String("user_id", id))
	}

	if err := s.tokens.DeleteByUser(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke sessions")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	if s.cleanup != nil && len(banners) > 0 {
		if err := s.cleanup.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobBannerCleanup, Payload: banners}); err != nil {
			s.logger.Warn("failed to enqueue banner cleanup", zap.Error(err), zap.String("user_id", id))
		}
	}

	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}
