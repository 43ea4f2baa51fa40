package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithsadee/blog-api/internal/models"
	"github.com/codewithsadee/blog-api/pkg/config"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenSecret:  "access-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenSecret: "refresh-secret",
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		Issuer:             "blog-api",
	}
}

func TestTokenServiceIssueAndVerifyAccessToken(t *testing.T) {
	svc := NewTokenService(testAuthConfig())

	token, expiresAt, err := svc.IssueAccessToken("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "blog-api", claims.Issuer)
}

func TestTokenServiceSecretsAreNotInterchangeable(t *testing.T) {
	svc := NewTokenService(testAuthConfig())

	refresh, _, err := svc.IssueRefreshToken("user-1")
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(refresh)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)

	access, _, err := svc.IssueAccessToken("user-1")
	require.NoError(t, err)
	_, err = svc.VerifyRefreshToken(access)
	require.Error(t, err)
}

func TestTokenServiceExpiredToken(t *testing.T) {
	cfg := testAuthConfig()
	cfg.AccessTokenExpiry = -time.Minute
	svc := NewTokenService(cfg)

	token, _, err := svc.IssueAccessToken("user-1")
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTokenExpired.Code, appErr.Code)
}

func TestTokenServiceRejectsTamperedToken(t *testing.T) {
	svc := NewTokenService(testAuthConfig())

	token, _, err := svc.IssueAccessToken("user-1")
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token + "x")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestTokenServiceRejectsUnexpectedSigningMethod(t *testing.T) {
	svc := NewTokenService(testAuthConfig())

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, models.AccessClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
