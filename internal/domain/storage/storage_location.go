package storage

import (
	"time"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StorageLocation represents a physical storage site (a cold store or
// warehouse) owned by a tenant. Areas belong to exactly one location.
type StorageLocation struct {
	shared.TenantAggregateRoot
	Name    string
	Address string
}

// NewStorageLocation creates a new storage location
func NewStorageLocation(tenantID uuid.UUID, name, address string) (*StorageLocation, error) {
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Location name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Location name cannot exceed 200 characters")
	}

	return &StorageLocation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Address:             address,
	}, nil
}

// Rename changes the location's display name. Bills issued before the
// rename keep the old name through their billing snapshot.
func (l *StorageLocation) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Location name cannot be empty")
	}
	l.Name = name
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}
