package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/granary/backend/internal/domain/identity"
	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/infrastructure/auth"
	"github.com/granary/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// JWT context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTTenantIDKey = "jwt_tenant_id"
	JWTRoleKey     = "jwt_role"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "

	TenantOverrideHeader = "X-Tenant-ID"
)

// JWTAuth validates the bearer token and stores the caller's identity on
// the request context. Requests without a valid token are rejected.
func JWTAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, "Token has expired")
				return
			}
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTTenantIDKey, claims.TenantID)
		c.Set(JWTRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in the allowed set
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	allowed := make(map[identity.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(c *gin.Context) {
		role := identity.Role(c.GetString(JWTRoleKey))
		if !allowed[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
				shared.CodeForbidden,
				"Insufficient role for this operation",
				c.GetString(RequestIDContextKey),
			))
			return
		}
		c.Next()
	}
}

// GetTenantID returns the authenticated caller's tenant ID
func GetTenantID(c *gin.Context) (uuid.UUID, error) {
	tenantIDStr := c.GetString(JWTTenantIDKey)
	if tenantIDStr == "" {
		return uuid.Nil, errors.New("tenant ID not found in context")
	}
	return uuid.Parse(tenantIDStr)
}

// EffectiveTenantID resolves the tenant a request operates on. Admins and
// managers may act on another tenant by sending X-Tenant-ID; everyone else
// is pinned to the tenant in their token.
func EffectiveTenantID(c *gin.Context) (uuid.UUID, error) {
	if override := c.GetHeader(TenantOverrideHeader); override != "" {
		if !GetRole(c).CrossTenant() {
			return uuid.Nil, shared.NewDomainError(shared.CodeForbidden,
				"Role cannot act on another tenant")
		}
		return uuid.Parse(override)
	}
	return GetTenantID(c)
}

// GetUserID returns the authenticated caller's user ID
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr := c.GetString(JWTUserIDKey)
	if userIDStr == "" {
		return uuid.Nil, errors.New("user ID not found in context")
	}
	return uuid.Parse(userIDStr)
}

// GetRole returns the authenticated caller's role
func GetRole(c *gin.Context) identity.Role {
	return identity.Role(c.GetString(JWTRoleKey))
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
		shared.CodeUnauthorized,
		message,
		c.GetString(RequestIDContextKey),
	))
}
