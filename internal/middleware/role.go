package middleware

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/worktime-api/internal/errors"
)

// RequireAdmin lets only admins and the superadmin through.
// It must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, exists := GetActor(c)
		if !exists {
			apierrors.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		if !actor.IsAdmin() {
			apierrors.Forbidden(c, "Only administrators can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}
