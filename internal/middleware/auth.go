package middleware

import (
	"net/http"
	"strings"

	"souvenir/internal/access"
	"souvenir/internal/domain"
	jwtsvc "souvenir/internal/pkg/jwt"
	"souvenir/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Auth verifies the bearer token and stores the decoded identity on the
// context. Everything behind this middleware can trust user_id and role.
func Auth(jwt *jwtsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing Authorization header")
			c.Abort()
			return
		}

		if !strings.HasPrefix(h, "Bearer ") {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid Authorization header")
			c.Abort()
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Empty token")
			c.Abort()
			return
		}

		claims, err := jwt.ValidateToken(tokenStr)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// Actor rebuilds the access-policy actor from the authenticated context.
func Actor(c *gin.Context) access.Actor {
	return access.Actor{
		ID:   c.GetInt64("user_id"),
		Role: domain.Role(c.GetString("role")),
	}
}
