package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/codewithsadee/blog-api/internal/models"
	"github.com/codewithsadee/blog-api/pkg/config"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
)

type fakeUserStore struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type fakeRegistry struct {
	tokens map[string]*models.RefreshToken
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{tokens: map[string]*models.RefreshToken{}}
}

func (f *fakeRegistry) Create(_ context.Context, token *models.RefreshToken) error {
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeRegistry) Exists(_ context.Context, token string) (bool, error) {
	_, ok := f.tokens[token]
	return ok, nil
}

func (f *fakeRegistry) Delete(_ context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

func newAuthService(cfg config.AuthConfig) (*AuthService, *fakeUserStore, *fakeRegistry) {
	users := newFakeUserStore()
	registry := newFakeRegistry()
	svc := NewAuthService(users, registry, NewTokenService(cfg), nil, nil, cfg)
	return svc, users, registry
}

func TestAuthServiceRegisterDefaultsToUserRole(t *testing.T) {
	svc, users, registry := newAuthService(testAuthConfig())

	resp, pair, err := svc.Register(context.Background(), models.RegisterRequest{Email: "reader@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, resp.User.Role)
	assert.NotEmpty(t, resp.User.Username)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	stored := users.byEmail["reader@example.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	ok, _ := registry.Exists(context.Background(), pair.RefreshToken)
	assert.True(t, ok)
}

func TestAuthServiceRegisterAdminRequiresAllowlist(t *testing.T) {
	svc, _, _ := newAuthService(testAuthConfig())

	_, _, err := svc.Register(context.Background(), models.RegisterRequest{Email: "mallory@example.com", Password: "secret1", Role: "admin"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestAuthServiceRegisterAdminAllowlisted(t *testing.T) {
	cfg := testAuthConfig()
	cfg.AdminAllowlist = []string{"Boss@Example.com"}
	svc, _, _ := newAuthService(cfg)

	resp, _, err := svc.Register(context.Background(), models.RegisterRequest{Email: "boss@example.com", Password: "secret1", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthService(testAuthConfig())

	_, _, err := svc.Register(context.Background(), models.RegisterRequest{Email: "reader@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), models.RegisterRequest{Email: "reader@example.com", Password: "another1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAuthServiceRegisterDuplicateEmailWinsOverAllowlist(t *testing.T) {
	svc, _, _ := newAuthService(testAuthConfig())

	_, _, err := svc.Register(context.Background(), models.RegisterRequest{Email: "reader@example.com", Password: "secret1"})
	require.NoError(t, err)

	// re-registering a taken email as admin reports the conflict, not the
	// allow-list denial
	_, _, err = svc.Register(context.Background(), models.RegisterRequest{Email: "reader@example.com", Password: "another1", Role: "admin"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAuthServiceRegisterInvalidPayload(t *testing.T) {
	svc, _, _ := newAuthService(testAuthConfig())

	_, _, err := svc.Register(context.Background(), models.RegisterRequest{Email: "not-an-email", Password: "short"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAuthServiceLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, users, _ := newAuthService(testAuthConfig())

	hash, err := bcrypt.GenerateFromPassword([]byte("correct1"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &models.User{Username: "reader", Email: "reader@example.com", PasswordHash: string(hash), Role: models.RoleUser}))

	_, _, wrongPass := svc.Login(context.Background(), models.LoginRequest{Email: "reader@example.com", Password: "wrong111"})
	_, _, unknown := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "whatever"})

	require.Error(t, wrongPass)
	require.Error(t, unknown)
	assert.Equal(t, appErrors.FromError(wrongPass).Code, appErrors.FromError(unknown).Code)
	assert.Equal(t, appErrors.FromError(wrongPass).Message, appErrors.FromError(unknown).Message)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	svc, users, registry := newAuthService(testAuthConfig())

	hash, err := bcrypt.GenerateFromPassword([]byte("correct1"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &models.User{Username: "reader", Email: "reader@example.com", PasswordHash: string(hash), Role: models.RoleUser}))

	resp, pair, err := svc.Login(context.Background(), models.LoginRequest{Email: "reader@example.com", Password: "correct1"})
	require.NoError(t, err)
	assert.Equal(t, "reader", resp.User.Username)
	assert.NotEmpty(t, resp.AccessToken)

	ok, _ := registry.Exists(context.Background(), pair.RefreshToken)
	assert.True(t, ok)
}

func TestAuthServiceRefreshReissuesAccessOnly(t *testing.T) {
	svc, _, registry := newAuthService(testAuthConfig())

	_, pair, err := svc.Register(context.Background(), models.RegisterRequest{Email: "reader@example.com", Password: "secret1"})
	require.NoError(t, err)

	resp, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	// no rotation: the original refresh token stays registered and valid
	ok, _ := registry.Exists(context.Background(), pair.RefreshToken)
	assert.True(t, ok)
	assert.Len(t, registry.tokens, 1)
}

func TestAuthServiceRefreshUnregisteredToken(t *testing.T) {
	cfg := testAuthConfig()
	svc, _, _ := newAuthService(cfg)

	// properly signed but never registered
	stray, _, err := NewTokenService(cfg).IssueRefreshToken("user-1")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), stray)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceRefreshExpiredToken(t *testing.T) {
	cfg := testAuthConfig()
	cfg.RefreshTokenExpiry = -time.Minute
	svc, _, _ := newAuthService(cfg)

	_, pair, err := svc.Register(context.Background(), models.RegisterRequest{Email: "reader@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTokenExpired.Code, appErr.Code)
}

func TestAuthServiceLogoutRevokesSession(t *testing.T) {
	svc, _, registry := newAuthService(testAuthConfig())

	_, pair, err := svc.Register(context.Background(), models.RegisterRequest{Email: "reader@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))
	ok, _ := registry.Exists(context.Background(), pair.RefreshToken)
	assert.False(t, ok)

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	// logging out again is a no-op
	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))
}
