package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/totargaming/stockinfo/internal/constants"
	apierrors "github.com/totargaming/stockinfo/internal/errors"
	"github.com/totargaming/stockinfo/internal/models"
	"github.com/totargaming/stockinfo/internal/repository"
)

// RequireRole checks that the authenticated user's role is in the allowed
// set: 401 when unauthenticated, 403 when authenticated with another role.
func RequireRole(userRepo repository.UserRepository, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		user, err := userRepo.FindByID(userID)
		if err != nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Set(constants.ContextKeyRole, user.Role)
				c.Next()
				return
			}
		}

		apierrors.Forbidden(c, "")
		c.Abort()
	}
}
