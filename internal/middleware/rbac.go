package middleware

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/codewithsadee/blog-api/internal/models"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
	"github.com/codewithsadee/blog-api/pkg/response"
)

// ContextRoleKey is the gin context key storing the resolved role.
const ContextRoleKey = "currentUserRole"

type roleSource interface {
	FindRole(ctx context.Context, id string) (models.UserRole, error)
}

// RequireRoles enforces role-based access. The role comes from the store on
// every request, never from token claims, so a demotion takes effect on the
// next call even while old tokens circulate. A user deleted after token
// issue fails authentication here.
func RequireRoles(users roleSource, allowed ...models.UserRole) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedRoles[role] = struct{}{}
	}

	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		role, err := users.FindRole(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "user no longer exists"))
			} else {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve role"))
			}
			c.Abort()
			return
		}

		if _, ok := allowedRoles[role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Set(ContextRoleKey, role)
		c.Next()
	}
}

// Role extracts the resolved role from the context.
func Role(c *gin.Context) (models.UserRole, bool) {
	value, exists := c.Get(ContextRoleKey)
	if !exists {
		return "", false
	}
	role, ok := value.(models.UserRole)
	return role, ok
}
