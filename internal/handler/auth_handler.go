package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codewithsadee/blog-api/internal/models"
	"github.com/codewithsadee/blog-api/internal/service"
	"github.com/codewithsadee/blog-api/pkg/config"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
	"github.com/codewithsadee/blog-api/pkg/response"
)

// refreshCookieName is the HTTP-only cookie carrying the refresh token.
const refreshCookieName = "refreshToken"

// AuthHandler exposes the session lifecycle endpoints.
type AuthHandler struct {
	auth       *service.AuthService
	config     config.AuthConfig
	cookiePath string
}

// NewAuthHandler constructs an AuthHandler. The cookie path pins the
// refresh token to the auth endpoints so it never rides along on other
// requests.
func NewAuthHandler(auth *service.AuthService, cfg config.AuthConfig, cookiePath string) *AuthHandler {
	if cookiePath == "" {
		cookiePath = "/"
	}
	return &AuthHandler{auth: auth, config: cfg, cookiePath: cookiePath}
}

// Register godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope{data=models.AuthResponse}
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	resp, pair, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setRefreshCookie(c, pair)
	response.Created(c, resp)
}

// Login godoc
// @Summary Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope{data=models.AuthResponse}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	resp, pair, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setRefreshCookie(c, pair)
	response.JSON(c, http.StatusOK, resp, nil)
}

// Refresh godoc
// @Summary Exchange the refresh cookie for a new access token
// @Tags auth
// @Produce json
// @Success 200 {object} response.Envelope{data=models.RefreshResponse}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh-token [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(refreshCookieName)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "refresh token required"))
		return
	}

	resp, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, resp, nil)
}

// Logout godoc
// @Summary Revoke the current session
// @Tags auth
// @Produce json
// @Success 204
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(refreshCookieName)
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		response.Error(c, err)
		return
	}

	h.clearRefreshCookie(c)
	response.NoContent(c)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, pair *models.TokenPair) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, pair.RefreshToken, int(h.config.RefreshTokenExpiry.Seconds()), h.cookiePath, "", h.config.CookieSecure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, h.cookiePath, "", h.config.CookieSecure, true)
}
