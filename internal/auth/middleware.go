package auth

import (
	"net/http"
	"strings"

	"linkup/backend/internal/store"
	"linkup/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// Middleware creates a gin middleware that validates the Bearer token and
// loads the account it belongs to, exposing userID, userName, and userRole
// in the request context.
func Middleware(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		userID, err := jwt.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, err := st.FindUserByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
			return
		}

		c.Set("userID", user.ID)
		c.Set("userName", user.UserName)
		c.Set("userRole", user.Role)
		c.Next()
	}
}
