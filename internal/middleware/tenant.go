package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"courtbook/internal/domain"
	"courtbook/internal/pkg/jwt"
	"courtbook/internal/pkg/logger"
	"courtbook/internal/pkg/response"
	"courtbook/internal/repository"

	"github.com/gin-gonic/gin"
)

const (
	scopeKey = "tenant_scope"
	roleKey  = "role"
)

type VendorResolver interface {
	VendorBySlug(ctx context.Context, slug string) (*domain.Vendor, error)
}

// ignoredLabels are subdomains that never name a vendor.
var ignoredLabels = map[string]bool{"www": true, "api": true, "app": true}

// Tenant resolves the vendor scope of a request from its subdomain under
// baseDomain and from a bearer token. When both are present they must agree.
func Tenant(vendors VendorResolver, tokens *jwt.Service, baseDomain string, log *slog.Logger) gin.HandlerFunc {
	baseDomain = strings.ToLower(strings.Trim(baseDomain, "."))

	return func(c *gin.Context) {
		var scope domain.TenantScope

		if slug := subdomain(c.Request.Host, baseDomain); slug != "" {
			v, err := vendors.VendorBySlug(c.Request.Context(), slug)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					response.Abort(c, http.StatusNotFound, "TENANT_NOT_FOUND", "Unknown vendor")
					return
				}
				log.Error("tenant lookup failed", slog.String("slug", slug), logger.Err(err))
				response.Abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve tenant")
				return
			}
			scope.VendorID = v.ID
		}

		if raw := bearerToken(c); raw != "" {
			claims, err := tokens.ValidateToken(raw)
			if err != nil {
				response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
				return
			}
			if scope.IsScoped() && scope.VendorID != claims.VendorID {
				response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Token does not belong to this vendor")
				return
			}
			scope.VendorID = claims.VendorID
			c.Set(roleKey, claims.Role)
		}

		c.Set(scopeKey, scope)
		c.Next()
	}
}

// Scope returns the tenant scope resolved for c; unscoped when none was set.
func Scope(c *gin.Context) domain.TenantScope {
	if v, ok := c.Get(scopeKey); ok {
		if s, ok := v.(domain.TenantScope); ok {
			return s
		}
	}
	return domain.TenantScope{}
}

func subdomain(host, baseDomain string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if baseDomain == "" || !strings.HasSuffix(host, "."+baseDomain) {
		return ""
	}

	prefix := strings.TrimSuffix(host, "."+baseDomain)
	if i := strings.LastIndex(prefix, "."); i >= 0 {
		prefix = prefix[i+1:]
	}
	if ignoredLabels[prefix] {
		return ""
	}
	return prefix
}

// bearerToken reads the Authorization header. Websocket handshakes cannot set
// headers from a browser, so they may pass ?token= instead.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return c.Query("token")
	}
	return ""
}
