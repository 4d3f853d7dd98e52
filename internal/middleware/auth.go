package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mathsia/memocard-service/internal/models"
	"github.com/mathsia/memocard-service/internal/services"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextLevel  = "level"
)

// Authenticate validates the bearer token and stores the caller's identity in
// the request context.
func Authenticate(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Missing or malformed Authorization header",
			})
			return
		}

		claims, err := auth.ValidateAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or expired token",
			})
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextRole, claims.Role)
		if claims.Level != nil {
			c.Set(ContextLevel, *claims.Level)
		}
		c.Next()
	}
}

// RequireRole rejects callers whose token does not carry one of the given
// roles. It must run after Authenticate.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "User not authenticated",
			})
			return
		}
		role, _ := value.(models.UserRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"message": "Insufficient permissions",
		})
	}
}
