package middleware

import (
	"net/http"

	"courtbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole ensures the request carried a vendor token with one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		role := c.GetString(roleKey)
		if role == "" || !Scope(c).IsScoped() {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Vendor token required")
			return
		}
		if !allowed[role] {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}
		c.Next()
	}
}

// VendorOnly admits vendor owners and their staff.
func VendorOnly() gin.HandlerFunc {
	return RequireRole("vendor", "staff")
}
