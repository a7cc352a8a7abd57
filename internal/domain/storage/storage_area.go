package storage

import (
	"fmt"
	"time"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StorageArea represents a bounded section of a storage location (a room,
// chamber or rack block) with a fixed capacity in bags. Usage is never
// stored on the area; it is derived from live inflow allocations so there
// is no counter to drift out of sync.
type StorageArea struct {
	shared.TenantAggregateRoot
	LocationID uuid.UUID
	Name       string
	Capacity   decimal.Decimal
}

// NewStorageArea creates a new storage area within a location
func NewStorageArea(tenantID, locationID uuid.UUID, name string, capacity decimal.Decimal) (*StorageArea, error) {
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Location ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Area name cannot be empty")
	}
	if capacity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Area capacity must be positive")
	}

	return &StorageArea{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		LocationID:          locationID,
		Name:                name,
		Capacity:            capacity,
	}, nil
}

// Resize changes the area capacity. Shrinking below the currently used
// quantity is rejected by the caller via the capacity ledger; the aggregate
// only guards against non-positive values.
func (a *StorageArea) Resize(capacity decimal.Decimal) error {
	if capacity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Area capacity must be positive")
	}
	a.Capacity = capacity
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

// CapacityExceededError builds the rejection for an allocation that would
// overflow this area, naming the area so the caller can highlight it.
func (a *StorageArea) CapacityExceededError(requested, available decimal.Decimal) *shared.DomainError {
	return shared.NewDomainError(shared.CodeCapacityExceeded,
		fmt.Sprintf("Area %s (%s) cannot hold %s more bags, only %s available",
			a.Name, a.ID, requested.String(), available.String()))
}
