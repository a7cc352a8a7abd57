package storage

import (
	"context"
	"time"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StorageLocationRepository defines persistence for storage locations
type StorageLocationRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*StorageLocation, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StorageLocation, error)
	Save(ctx context.Context, location *StorageLocation) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// StorageAreaRepository defines persistence for storage areas
type StorageAreaRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*StorageArea, error)
	FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]StorageArea, error)
	// FindByIDsForUpdate loads areas with row locks held for the duration
	// of the surrounding transaction, so capacity validation and the
	// allocation write form one atomic step per area.
	FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]StorageArea, error)
	FindByLocation(ctx context.Context, tenantID, locationID uuid.UUID) ([]StorageArea, error)
	Save(ctx context.Context, area *StorageArea) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// CropTypeRepository defines persistence for crop types
type CropTypeRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CropType, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]CropType, error)
	Save(ctx context.Context, cropType *CropType) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// InflowFilter defines filtering options for inflow queries
type InflowFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	CropTypeID *uuid.UUID
	AreaID     *uuid.UUID
	FromDate   *time.Time
	ToDate     *time.Time
}

// InflowRepository defines persistence for inflows and their allocations.
// An inflow is saved atomically with its allocation rows.
type InflowRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Inflow, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InflowFilter) ([]Inflow, error)
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]Inflow, error)
	Save(ctx context.Context, inflow *Inflow) error
	// SaveWithLock saves with optimistic locking (version check); returns
	// a CONCURRENCY_CONFLICT domain error when another writer got there
	// first.
	SaveWithLock(ctx context.Context, inflow *Inflow) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter InflowFilter) (int64, error)
}
