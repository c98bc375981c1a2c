package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/auth"
)

const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
	ContextTenantID = "tenant_id"
)

func RequireAuth(jwt *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)
		c.Set(ContextTenantID, claims.TenantID)
		c.Next()
	}
}

// TenantID returns the caller's tenant from the verified claims; zero means
// the request never passed RequireAuth.
func TenantID(c *gin.Context) int64 {
	v, ok := c.Get(ContextTenantID)
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}
