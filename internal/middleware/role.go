package middleware

import (
	"net/http"

	"souvenir/internal/domain"
	"souvenir/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// StaffOnly admits admins and managers (the two are equivalent here).
// Finer-grained decisions live in the access package; this gate only
// keeps clients and masters off staff route groups.
func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}

		if !domain.Role(role.(string)).IsStaff() {
			response.Error(c, http.StatusForbidden, "ACCESS_DENIED", "Access denied: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}
