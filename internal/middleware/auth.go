package middleware

import (
	"context"
	"net/http"
	"strings"

	"clean-street/internal/apperr"
	"clean-street/internal/models"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "current_user"

// Authenticator resolves a bearer token into the account it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

func AuthMiddleware(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithMessage(c, http.StatusUnauthorized, "No token provided")
			return
		}

		// "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithMessage(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			appErr := apperr.As(err)
			if appErr.Kind == apperr.KindInternal {
				_ = c.Error(err)
			}
			abortWithMessage(c, appErr.HTTPStatus(), appErr.Message)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the account attached by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

func abortWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}
