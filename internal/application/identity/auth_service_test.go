package identity

import (
	"context"
	"testing"
	"time"

	"github.com/granary/backend/internal/domain/identity"
	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/infrastructure/auth"
	"github.com/granary/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByPhone(ctx context.Context, phone string) (*identity.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-for-auth-tests",
		Expiration: time.Hour,
		Issuer:     "granary-test",
	})
}

func newTestUser(t *testing.T, phone, password string, role identity.Role) *identity.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	user, err := identity.NewUser(uuid.New(), phone, "Mohan Lal", hash, role)
	require.NoError(t, err)
	return user
}

func TestAuthServiceLogin(t *testing.T) {
	logger := zap.NewNop()

	t.Run("issues a token for valid credentials", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewAuthService(userRepo, newTestJWTService(), logger)
		user := newTestUser(t, "9876543210", "secret123", identity.RoleManager)

		userRepo.On("FindByPhone", mock.Anything, "9876543210").Return(user, nil)

		resp, err := service.Login(context.Background(), LoginRequest{
			Phone:    "9876543210",
			Password: "secret123",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, user.ID, resp.User.ID)
		assert.Equal(t, "MANAGER", resp.User.Role)
	})

	t.Run("rejects a wrong password with the generic message", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewAuthService(userRepo, newTestJWTService(), logger)
		user := newTestUser(t, "9876543210", "secret123", identity.RoleManager)

		userRepo.On("FindByPhone", mock.Anything, "9876543210").Return(user, nil)

		_, err := service.Login(context.Background(), LoginRequest{
			Phone:    "9876543210",
			Password: "wrong",
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeUnauthorized, domainErr.Code)
		assert.Equal(t, "Invalid phone or password", domainErr.Message)
	})

	t.Run("unknown phone yields the same message as a wrong password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewAuthService(userRepo, newTestJWTService(), logger)

		userRepo.On("FindByPhone", mock.Anything, "0000000000").Return(nil, shared.ErrNotFound)

		_, err := service.Login(context.Background(), LoginRequest{
			Phone:    "0000000000",
			Password: "whatever",
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "Invalid phone or password", domainErr.Message)
	})

	t.Run("rejects a deactivated account", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewAuthService(userRepo, newTestJWTService(), logger)
		user := newTestUser(t, "9876543210", "secret123", identity.RoleAssistant)
		user.Deactivate()

		userRepo.On("FindByPhone", mock.Anything, "9876543210").Return(user, nil)

		_, err := service.Login(context.Background(), LoginRequest{
			Phone:    "9876543210",
			Password: "secret123",
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeUnauthorized, domainErr.Code)
	})

	t.Run("issued token round-trips through validation", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		jwtService := newTestJWTService()
		service := NewAuthService(userRepo, jwtService, logger)
		user := newTestUser(t, "9876543210", "secret123", identity.RoleAdmin)

		userRepo.On("FindByPhone", mock.Anything, "9876543210").Return(user, nil)

		resp, err := service.Login(context.Background(), LoginRequest{
			Phone:    "9876543210",
			Password: "secret123",
		})
		require.NoError(t, err)

		claims, err := jwtService.ValidateToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.Subject)
		assert.Equal(t, user.TenantID.String(), claims.TenantID)
		assert.Equal(t, "ADMIN", claims.Role)
	})
}

func TestAuthServiceRegister(t *testing.T) {
	logger := zap.NewNop()

	t.Run("creates an account with a hashed password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewAuthService(userRepo, newTestJWTService(), logger)
		tenantID := uuid.New()

		userRepo.On("FindByPhone", mock.Anything, "9123456789").Return(nil, shared.ErrNotFound)
		userRepo.On("Save", mock.Anything, mock.MatchedBy(func(u *identity.User) bool {
			return u.Phone == "9123456789" &&
				u.PasswordHash != "plainpass" &&
				auth.VerifyPassword(u.PasswordHash, "plainpass")
		})).Return(nil)

		resp, err := service.Register(context.Background(), RegisterRequest{
			TenantID: tenantID,
			Phone:    "9123456789",
			Name:     "Sita Devi",
			Password: "plainpass",
			Role:     identity.RoleAssistant,
		})

		require.NoError(t, err)
		assert.Equal(t, tenantID, resp.TenantID)
		assert.Equal(t, "ASSISTANT", resp.Role)
		assert.True(t, resp.Active)
		userRepo.AssertExpectations(t)
	})

	t.Run("rejects a duplicate phone", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewAuthService(userRepo, newTestJWTService(), logger)
		existing := newTestUser(t, "9123456789", "whatever1", identity.RoleManager)

		userRepo.On("FindByPhone", mock.Anything, "9123456789").Return(existing, nil)

		_, err := service.Register(context.Background(), RegisterRequest{
			TenantID: uuid.New(),
			Phone:    "9123456789",
			Name:     "Someone Else",
			Password: "plainpass",
			Role:     identity.RoleAssistant,
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
		userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
