package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/codewithsadee/blog-api/internal/models"
	"github.com/codewithsadee/blog-api/pkg/config"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
)

// TokenService mints and verifies the two JWT families. Access and refresh
// tokens are signed with distinct secrets so one can never pass for the
// other. Claims carry only the user identifier.
type TokenService struct {
	config config.AuthConfig
}

// NewTokenService constructs a TokenService instance.
func NewTokenService(cfg config.AuthConfig) *TokenService {
	return &TokenService{config: cfg}
}

// IssueAccessToken mints a short-lived access token for the user.
func (s *TokenService) IssueAccessToken(userID string) (string, time.Time, error) {
	return s.sign(userID, s.config.AccessTokenSecret, s.config.AccessTokenExpiry)
}

// IssueRefreshToken mints a long-lived refresh token for the user. Callers
// must register the token before handing it out.
func (s *TokenService) IssueRefreshToken(userID string) (string, time.Time, error) {
	return s.sign(userID, s.config.RefreshTokenSecret, s.config.RefreshTokenExpiry)
}

// VerifyAccessToken validates signature and expiry of an access token and
// returns its claims. Expiry maps to the dedicated token-expired error so
// clients know to refresh rather than re-authenticate.
func (s *TokenService) VerifyAccessToken(token string) (*models.AccessClaims, error) {
	return s.verify(token, s.config.AccessTokenSecret)
}

// VerifyRefreshToken validates signature and expiry of a refresh token.
func (s *TokenService) VerifyRefreshToken(token string) (*models.AccessClaims, error) {
	return s.verify(token, s.config.RefreshTokenSecret)
}

func (s *TokenService) sign(userID, secret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	claims := models.AccessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *TokenService) verify(token, secret string) (*models.AccessClaims, error) {
	claims := &models.AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrTokenExpired, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return claims, nil
}
