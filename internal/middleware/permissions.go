package middleware

import (
	"fmt"
	"net/http"

	"clean-street/internal/models"

	"github.com/gin-gonic/gin"
)

// RequireAnyRole lets the request through when the current user holds one
// of roles. It must run after AuthMiddleware.
func RequireAnyRole(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortWithMessage(c, http.StatusUnauthorized, "User not authenticated")
			return
		}

		if !allowed[user.Role] {
			abortWithMessage(c, http.StatusForbidden,
				fmt.Sprintf("Role '%s' is not allowed to access this resource", user.Role))
			return
		}

		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return RequireAnyRole(models.RoleAdmin)
}

// RequirePrivileged admits volunteers and admins.
func RequirePrivileged() gin.HandlerFunc {
	return RequireAnyRole(models.RoleVolunteer, models.RoleAdmin)
}
