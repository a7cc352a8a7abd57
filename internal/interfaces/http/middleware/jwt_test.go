package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/granary/backend/internal/domain/identity"
	"github.com/granary/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthedContext(t *testing.T, tenantID uuid.UUID, role identity.Role) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req, err := http.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, err)
	c.Request = req
	c.Set(JWTTenantIDKey, tenantID.String())
	c.Set(JWTRoleKey, role.String())
	return c
}

func TestEffectiveTenantID(t *testing.T) {
	ownTenant := uuid.New()
	otherTenant := uuid.New()

	t.Run("defaults to token tenant", func(t *testing.T) {
		c := newAuthedContext(t, ownTenant, identity.RoleAssistant)

		got, err := EffectiveTenantID(c)

		require.NoError(t, err)
		assert.Equal(t, ownTenant, got)
	})

	t.Run("admin overrides via header", func(t *testing.T) {
		c := newAuthedContext(t, ownTenant, identity.RoleAdmin)
		c.Request.Header.Set(TenantOverrideHeader, otherTenant.String())

		got, err := EffectiveTenantID(c)

		require.NoError(t, err)
		assert.Equal(t, otherTenant, got)
	})

	t.Run("manager overrides via header", func(t *testing.T) {
		c := newAuthedContext(t, ownTenant, identity.RoleManager)
		c.Request.Header.Set(TenantOverrideHeader, otherTenant.String())

		got, err := EffectiveTenantID(c)

		require.NoError(t, err)
		assert.Equal(t, otherTenant, got)
	})

	t.Run("assistant cannot override", func(t *testing.T) {
		c := newAuthedContext(t, ownTenant, identity.RoleAssistant)
		c.Request.Header.Set(TenantOverrideHeader, otherTenant.String())

		_, err := EffectiveTenantID(c)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeForbidden, domainErr.Code)
	})

	t.Run("rejects malformed override", func(t *testing.T) {
		c := newAuthedContext(t, ownTenant, identity.RoleAdmin)
		c.Request.Header.Set(TenantOverrideHeader, "not-a-uuid")

		_, err := EffectiveTenantID(c)

		assert.Error(t, err)
	})
}
