package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithsadee/blog-api/internal/middleware"
	"github.com/codewithsadee/blog-api/internal/models"
	"github.com/codewithsadee/blog-api/internal/service"
	"github.com/codewithsadee/blog-api/pkg/config"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
)

type userStoreMock struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func newUserStoreMock() *userStoreMock {
	return &userStoreMock{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}}
}

func (m *userStoreMock) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *userStoreMock) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *userStoreMock) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type registryMock struct {
	tokens map[string]*models.RefreshToken
}

func newRegistryMock() *registryMock {
	return &registryMock{tokens: map[string]*models.RefreshToken{}}
}

func (m *registryMock) Create(_ context.Context, token *models.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *registryMock) Exists(_ context.Context, token string) (bool, error) {
	_, ok := m.tokens[token]
	return ok, nil
}

func (m *registryMock) Delete(_ context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}

func authTestConfig() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenSecret:  "access-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenSecret: "refresh-secret",
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		Issuer:             "blog-api",
	}
}

func newAuthRouter(t *testing.T) (*gin.Engine, *registryMock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := authTestConfig()
	tokens := service.NewTokenService(cfg)
	registry := newRegistryMock()
	authSvc := service.NewAuthService(newUserStoreMock(), registry, tokens, nil, nil, cfg)
	authHandler := NewAuthHandler(authSvc, cfg, "/api/v1/auth")

	r := gin.New()
	auth := r.Group("/api/v1/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh-token", authHandler.Refresh)
	auth.POST("/logout", middleware.Auth(tokens), authHandler.Logout)
	return r, registry
}

func postJSON(router *gin.Engine, path string, payload interface{}, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", "application/json")
	for _, fn := range mutate {
		fn(req)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == refreshCookieName {
			return cookie
		}
	}
	t.Fatal("refresh cookie not set")
	return nil
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func TestAuthHandlerRegisterSetsRefreshCookie(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := postJSON(router, "/api/v1/auth/register", models.RegisterRequest{Email: "reader@example.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	cookie := refreshCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, "/api/v1/auth", cookie.Path)
	assert.NotEmpty(t, cookie.Value)

	var resp models.AuthResponse
	decodeData(t, rec, &resp)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, models.RoleUser, resp.User.Role)
	// the refresh token never appears in the body
	assert.NotContains(t, rec.Body.String(), cookie.Value)
}

func TestAuthHandlerRegisterAdminDenied(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := postJSON(router, "/api/v1/auth/register", models.RegisterRequest{Email: "mallory@example.com", Password: "secret1", Role: "admin"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), appErrors.ErrForbidden.Code)
}

func TestAuthHandlerLoginAndRefreshFlow(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := postJSON(router, "/api/v1/auth/register", models.RegisterRequest{Email: "reader@example.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(router, "/api/v1/auth/login", models.LoginRequest{Email: "reader@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := refreshCookie(t, rec)

	rec = postJSON(router, "/api/v1/auth/refresh-token", nil, func(req *http.Request) {
		req.AddCookie(cookie)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.RefreshResponse
	decodeData(t, rec, &resp)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestAuthHandlerRefreshWithoutCookie(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := postJSON(router, "/api/v1/auth/refresh-token", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), appErrors.ErrValidation.Code)
}

func TestAuthHandlerLogoutRevokesRefreshToken(t *testing.T) {
	router, registry := newAuthRouter(t)

	rec := postJSON(router, "/api/v1/auth/register", models.RegisterRequest{Email: "reader@example.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	cookie := refreshCookie(t, rec)

	var resp models.AuthResponse
	decodeData(t, rec, &resp)

	rec = postJSON(router, "/api/v1/auth/logout", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
		req.AddCookie(cookie)
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, registry.tokens)

	// the cleared cookie comes back expired
	cleared := refreshCookie(t, rec)
	assert.Empty(t, cleared.Value)

	rec = postJSON(router, "/api/v1/auth/refresh-token", nil, func(req *http.Request) {
		req.AddCookie(cookie)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerLogoutRequiresAccessToken(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := postJSON(router, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
