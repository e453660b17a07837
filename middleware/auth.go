package middleware

import (
	"net/http"
	"strings"

	"locumly/upstream"
	"locumly/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// Role constants carried in the JWT "role" claim.
const (
	RolePoster = "poster"
	RoleWorker = "worker"
)

// revokedKeyPrefix namespaces revoked-token hashes in the auth cache.
const revokedKeyPrefix = "revoked:"

// JWTAuthMiddleware authenticates a bearer token, enforces the required
// role, and stores the caller's bearer in the request context so upstream
// calls are made on the caller's own marketplace session.
func JWTAuthMiddleware(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		userID, role, err := utils.ExtractIdentityFromToken(tokenString)
		if err != nil || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		if requiredRole != "" && role != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
				"code":  1,
			})
			return
		}

		// Revoked tokens are tracked by hash in the auth cache.
		cache := utils.GetAuthCacheClient()
		if cache != nil {
			key := revokedKeyPrefix + utils.HashToken(tokenString)
			if _, err := cache.Get(c.Request.Context(), key).Result(); err == nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Token has been revoked",
					"code":  0,
				})
				return
			} else if err != redis.Nil {
				utils.GetLogger().Warn("auth: revocation check unavailable")
			}
		}

		c.Set("userID", userID)
		c.Set("role", role)
		c.Request = c.Request.WithContext(upstream.WithBearer(c.Request.Context(), tokenString))
		c.Next()
	}
}
