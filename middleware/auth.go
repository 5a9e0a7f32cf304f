package middleware

import (
	"net/http"
	"strings"

	"nextbus-api/services"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is the gin context key holding the validated *services.Claims.
const ClaimsKey = "authClaims"

// RequireAuth validates the bearer token and, when roles are given,
// requires the claim's role to be one of them.
func RequireAuth(auth *services.AuthService, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		if len(roles) > 0 {
			allowed := false
			for _, r := range roles {
				if claims.Role == r {
					allowed = true
					break
				}
			}
			if !allowed {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
				return
			}
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom pulls the validated claims out of the request context.
func ClaimsFrom(c *gin.Context) (*services.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*services.Claims)
	return claims, ok
}
