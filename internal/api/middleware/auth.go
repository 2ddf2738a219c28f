package middleware

import (
	"Purng/internal/pkg/response"
	"Purng/internal/pkg/security"
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

// bearerClaims 解析 Authorization: Bearer <token>
func bearerClaims(c *gin.Context) (*security.UserClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, false
	}
	claims, err := security.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return nil, false
	}
	return claims, true
}

func injectClaims(c *gin.Context, claims *security.UserClaims) {
	c.Set("user_id", claims.UserID)
	c.Set("roles", claims.Roles)

	newCtx := context.WithValue(c.Request.Context(), "user_id", claims.UserID)
	c.Request = c.Request.WithContext(newCtx)
}

// AuthMiddleware 负责验证 JWT 并将用户身份信息注入 Context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c)
		if !ok {
			response.Fail(c, response.Unauthorized, "Not authenticated")
			c.Abort()
			return
		}

		injectClaims(c, claims)
		c.Next()
	}
}
