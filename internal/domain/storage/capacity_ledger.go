package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AreaUsageReader is the read-side port the capacity ledger aggregates
// over: the summed quantity of all live inflow allocations referencing an
// area. The persistence layer answers it with a single aggregation query;
// nothing is ever counted twice because no usage counter is stored.
type AreaUsageReader interface {
	// UsedQuantity returns the total allocated quantity for one area
	UsedQuantity(ctx context.Context, tenantID, areaID uuid.UUID) (decimal.Decimal, error)
	// UsedQuantityByArea returns the total allocated quantity for each of
	// the given areas; areas with no allocations are absent from the map
	UsedQuantityByArea(ctx context.Context, tenantID uuid.UUID, areaIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

// CapacityLedger answers capacity questions for storage areas. Usage is a
// pure derivation, so reading it twice with no intervening writes always
// yields the same value.
type CapacityLedger struct {
	usage AreaUsageReader
}

// NewCapacityLedger creates a capacity ledger over the given usage reader
func NewCapacityLedger(usage AreaUsageReader) *CapacityLedger {
	return &CapacityLedger{usage: usage}
}

// Available returns the unallocated capacity of an area:
// capacity minus the sum of live allocations referencing it.
func (l *CapacityLedger) Available(ctx context.Context, area *StorageArea) (decimal.Decimal, error) {
	used, err := l.usage.UsedQuantity(ctx, area.TenantID, area.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return area.Capacity.Sub(used), nil
}

// ValidateAllocation rejects an allocation that would overflow the area
// with a CAPACITY_EXCEEDED error naming the area.
func (l *CapacityLedger) ValidateAllocation(ctx context.Context, area *StorageArea, quantity decimal.Decimal) error {
	available, err := l.Available(ctx, area)
	if err != nil {
		return err
	}
	if quantity.GreaterThan(available) {
		return area.CapacityExceededError(quantity, available)
	}
	return nil
}
