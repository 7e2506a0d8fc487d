package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apperr "pujabook/internal/errors"
	"pujabook/internal/logger"
	"pujabook/internal/models"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "current_user"

const msgInvalidCredentials = "Could not validate credentials"

// Authenticator resolves a bearer token to a user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// BearerAuth требует заголовок Authorization: Bearer <token>.
// Любая ошибка токена отдается одним и тем же сообщением.
func BearerAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c)
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, apperr.ErrUnauthorized) {
				slog.Error("Failed to authenticate request", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			unauthorized(c)
			return
		}

		c.Set(currentUserKey, user)
		c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), user.ID))

		c.Next()
	}
}

// RequireRole пропускает пользователей с ролью не ниже min.
// Для super_admin допускается только super_admin.
func RequireRole(min models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			unauthorized(c)
			return
		}
		if !user.Role.AtLeast(min) {
			msg := "Not enough permissions"
			if min == models.RoleSuperAdmin {
				msg = "Super admin permissions required"
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user set by BearerAuth
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials})
}
