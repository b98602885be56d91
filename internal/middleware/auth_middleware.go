package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"property-service/internal/models"
)

const ActorKey = "actor"

// Authenticator resolves a bearer token to the stored account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type AuthMiddleware struct {
	authenticator Authenticator
}

func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// AuthRequired middleware that requires a valid JWT token
func (m *AuthMiddleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authorization token required",
				"code":    "MISSING_TOKEN",
			})
			return
		}

		user, err := m.authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Could not validate credentials",
				"code":    "INVALID_TOKEN",
			})
			return
		}

		c.Set(ActorKey, user)
		c.Set("user_id", user.ID.String())
		c.Set("user_role", string(user.Role))

		c.Next()
	}
}

// GetActor returns the authenticated account, or nil outside AuthRequired.
func GetActor(c *gin.Context) *models.User {
	if v, ok := c.Get(ActorKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
