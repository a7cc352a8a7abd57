package identity

import (
	"time"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Role gates what a caller may see and do. Admins and managers may query
// across tenants; assistants and users are confined to their own tenant.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleManager   Role = "MANAGER"
	RoleAssistant Role = "ASSISTANT"
	RoleUser      Role = "USER"
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAssistant, RoleUser:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// CrossTenant reports whether the role may see records of other tenants
func (r Role) CrossTenant() bool {
	return r == RoleAdmin || r == RoleManager
}

// User represents an account that operates the system. The password is
// stored only as a bcrypt hash produced by the auth infrastructure.
type User struct {
	shared.TenantAggregateRoot
	Phone        string
	Name         string
	PasswordHash string
	Role         Role
	Active       bool
}

// NewUser creates a new user with an already-hashed password
func NewUser(tenantID uuid.UUID, phone, name, passwordHash string, role Role) (*User, error) {
	if phone == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Phone cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Name cannot be empty")
	}
	if passwordHash == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Password hash cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid role")
	}

	return &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Phone:               phone,
		Name:                name,
		PasswordHash:        passwordHash,
		Role:                role,
		Active:              true,
	}, nil
}

// Deactivate blocks the user from logging in
func (u *User) Deactivate() {
	u.Active = false
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// ChangeRole assigns a new role
func (u *User) ChangeRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Invalid role")
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}
