package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zahlentech/str8up_server/internal/pkg/jwt"
	"github.com/zahlentech/str8up_server/internal/pkg/response"
)

const (
	AdminKey = "admin"
)

// AdminAuth requires a back-office bearer token.
func AdminAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AuthError(c, "missing authorization header")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			response.AuthError(c, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(tokenString, jwtSecret)
		if err != nil {
			response.AuthError(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(AdminKey, claims.Username)
		c.Next()
	}
}

// GetAdmin returns the authenticated back-office user.
func GetAdmin(c *gin.Context) (string, bool) {
	v, exists := c.Get(AdminKey)
	if !exists {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}
