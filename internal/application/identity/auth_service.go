package identity

import (
	"context"
	"time"

	"github.com/granary/backend/internal/domain/identity"
	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo identity.UserRepository, jwtService *auth.JWTService, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required,max=20"`
	Password string `json:"password" binding:"required"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Phone    string    `json:"phone"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	Active   bool      `json:"active"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// Login authenticates a user by phone and password and issues a token.
// Unknown phone and wrong password produce the same error, so callers
// cannot probe which phones are registered.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.FindByPhone(ctx, req.Phone)
	if err != nil {
		s.logger.Warn("Login attempt for unknown phone", zap.String("phone", req.Phone))
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Invalid phone or password")
	}
	if !user.Active {
		s.logger.Warn("Login attempt for deactivated account", zap.String("phone", req.Phone))
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Account has been deactivated")
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		s.logger.Warn("Failed login", zap.String("phone", req.Phone))
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Invalid phone or password")
	}

	token, err := s.jwtService.GenerateToken(auth.GenerateTokenInput{
		TenantID: user.TenantID,
		UserID:   user.ID,
		Phone:    user.Phone,
		Role:     user.Role.String(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return &LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		User:        toUserResponse(user),
	}, nil
}

// RegisterRequest represents a request to create a user account
type RegisterRequest struct {
	TenantID uuid.UUID     `json:"tenant_id" binding:"required"`
	Phone    string        `json:"phone" binding:"required,max=20"`
	Name     string        `json:"name" binding:"required,max=200"`
	Password string        `json:"password" binding:"required,min=6"`
	Role     identity.Role `json:"role" binding:"required"`
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	if existing, _ := s.userRepo.FindByPhone(ctx, req.Phone); existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "An account with this phone already exists")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, err.Error())
	}

	user, err := identity.NewUser(req.TenantID, req.Phone, req.Name, hash, req.Role)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()), zap.String("role", user.Role.String()))
	response := toUserResponse(user)
	return &response, nil
}

// GetUser gets a user by ID
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := toUserResponse(user)
	return &response, nil
}

func toUserResponse(user *identity.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		TenantID: user.TenantID,
		Phone:    user.Phone,
		Name:     user.Name,
		Role:     user.Role.String(),
		Active:   user.Active,
	}
}
