package models

import (
	"github.com/granary/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User aggregate root.
type UserModel struct {
	TenantAggregateModel
	Phone        string        `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name         string        `gorm:"type:varchar(200);not null"`
	PasswordHash string        `gorm:"type:varchar(100);not null"`
	Role         identity.Role `gorm:"type:varchar(20);not null"`
	Active       bool          `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User.
func (m *UserModel) ToDomain() *identity.User {
	user := &identity.User{
		Phone:        m.Phone,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		Active:       m.Active,
	}
	m.PopulateTenantAggregateRoot(&user.TenantAggregateRoot)
	return user
}

// FromDomain populates the persistence model from a domain User.
func (m *UserModel) FromDomain(user *identity.User) {
	m.FromDomainTenantAggregateRoot(user.TenantAggregateRoot)
	m.Phone = user.Phone
	m.Name = user.Name
	m.PasswordHash = user.PasswordHash
	m.Role = user.Role
	m.Active = user.Active
}

// UserModelFromDomain creates a new persistence model from a domain User.
func UserModelFromDomain(user *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(user)
	return m
}
