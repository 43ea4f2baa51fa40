package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codewithsadee/blog-api/internal/models"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
	"github.com/codewithsadee/blog-api/pkg/response"
)

// ContextUserIDKey is the gin context key storing the authenticated user id.
const ContextUserIDKey = "currentUserID"

type accessTokenVerifier interface {
	VerifyAccessToken(token string) (*models.AccessClaims, error)
}

// Auth protects routes by requiring a valid bearer access token. Only the
// user id lands in the context; anything role-shaped is looked up fresh by
// the authorization layer.
func Auth(tokens accessTokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed authorization header"))
			c.Abort()
			return
		}

		claims, err := tokens.VerifyAccessToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// OptionalAuth attaches the user id when a valid token is present but never
// blocks. Public listings use it to decide draft visibility.
func OptionalAuth(tokens accessTokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := tokens.VerifyAccessToken(token)
		if err != nil {
			c.Next()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// UserID extracts the authenticated user id from the context.
func UserID(c *gin.Context) (string, bool) {
	value, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}
