package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ferias-api/internal/models"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
	"github.com/noah-isme/ferias-api/pkg/response"
)

// RequireRoles lets through only users holding one of roles.
// An empty list admits any authenticated user.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[claims.Role]; !ok {
				response.Error(c, appErrors.Clonef(appErrors.ErrForbidden, "role %s may not access this resource", claims.Role))
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
