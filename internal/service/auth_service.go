package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/codewithsadee/blog-api/internal/models"
	"github.com/codewithsadee/blog-api/internal/repository"
	"github.com/codewithsadee/blog-api/pkg/config"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
)

type authUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type refreshTokenRegistry interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	Exists(ctx context.Context, token string) (bool, error)
	Delete(ctx context.Context, token string) error
}

type tokenIssuer interface {
	IssueAccessToken(userID string) (string, time.Time, error)
	IssueRefreshToken(userID string) (string, time.Time, error)
	VerifyRefreshToken(token string) (*models.AccessClaims, error)
}

// AuthService drives the session lifecycle: register, login, refresh and
// logout. Refresh tokens live in the registry; a token missing from the
// registry is dead no matter what its signature says.
type AuthService struct {
	users     authUserRepository
	tokens    refreshTokenRegistry
	issuer    tokenIssuer
	validator *validator.Validate
	logger    *zap.Logger
	config    config.AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, tokens refreshTokenRegistry, issuer tokenIssuer, validate *validator.Validate, logger *zap.Logger, cfg config.AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{users: users, tokens: tokens, issuer: issuer, validator: validate, logger: logger, config: cfg}
}

// Register creates an account and opens a session. Requesting the admin
// role is honored only for allow-listed emails; anyone else gets a hard
// denial rather than a silent downgrade.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, *models.TokenPair, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing user")
	}

	role := models.UserRole(req.Role)
	if role == "" {
		role = models.RoleUser
	}
	if role == models.RoleAdmin && !s.emailAllowlisted(req.Email) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot register as an admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     genUsername(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	pair, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &models.AuthResponse{User: user.Info(), AccessToken: pair.AccessToken}, pair, nil
}

// Login authenticates credentials and opens a session. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, *models.TokenPair, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid email or password")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid email or password")
	}

	pair, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return &models.AuthResponse{User: user.Info(), AccessToken: pair.AccessToken}, pair, nil
}

// Refresh exchanges a registered refresh token for a new access token. The
// registry is consulted before the signature: a revoked token must fail
// identically whether or not it would still verify. The refresh token
// itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.RefreshResponse, error) {
	if refreshToken == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "refresh token required")
	}

	exists, err := s.tokens.Exists(ctx, refreshToken)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check refresh token")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid refresh token, please login again")
	}

	claims, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrTokenExpired.Code {
			return nil, appErrors.Clone(appErrors.ErrTokenExpired, "refresh token expired, please login again")
		}
		return nil, err
	}

	accessToken, _, err := s.issuer.IssueAccessToken(claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return &models.RefreshResponse{AccessToken: accessToken}, nil
}

// Logout revokes the presented refresh token by deleting its registry
// record. Logging out twice is fine.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokens.Delete(ctx, refreshToken); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke refresh token")
	}
	return nil
}

func (s *AuthService) openSession(ctx context.Context, userID string) (*models.TokenPair, error) {
	accessToken, accessExp, err := s.issuer.IssueAccessToken(userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refreshToken, refreshExp, err := s.issuer.IssueRefreshToken(userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	record := &models.RefreshToken{
		UserID:    userID,
		Token:     refreshToken,
		ExpiresAt: refreshExp,
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
	}

	return &models.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) emailAllowlisted(email string) bool {
	for _, allowed := range s.config.AdminAllowlist {
		if strings.EqualFold(allowed, email) {
			return true
		}
	}
	return false
}

// genUsername produces a random handle like "user-3f9a2c1b". Users can
// change it later; the suffix keeps collisions out of practical reach.
func genUsername() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "user-" + uuid.NewString()[:8]
	}
	return "user-" + hex.EncodeToString(buf)
}
