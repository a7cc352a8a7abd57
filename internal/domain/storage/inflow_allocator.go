package storage

import (
	"context"
	"fmt"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationRequest is one caller-chosen (area, quantity) pair for a new
// inflow. The caller decides which areas receive the crop and how much;
// there is no automatic splitting.
type AllocationRequest struct {
	AreaID   uuid.UUID
	Quantity decimal.Decimal
}

// Allocator validates a set of allocation requests against the capacity
// ledger and constructs an inflow's allocations verbatim. Rejection is
// all-or-nothing: if any single request is invalid the whole inflow
// creation fails, naming the offending area.
type Allocator struct {
	ledger *CapacityLedger
}

// NewAllocator creates an allocator over the given capacity ledger
func NewAllocator(ledger *CapacityLedger) *Allocator {
	return &Allocator{ledger: ledger}
}

// Allocate validates each request against the ledger and returns the area
// allocations for the new inflow. The areas map must contain every area
// referenced by the requests.
func (a *Allocator) Allocate(ctx context.Context, areas map[uuid.UUID]*StorageArea, requests []AllocationRequest) ([]AreaAllocation, error) {
	if len(requests) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "At least one allocation request is required")
	}

	seen := make(map[uuid.UUID]bool, len(requests))
	allocations := make([]AreaAllocation, 0, len(requests))
	for _, req := range requests {
		if req.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError(shared.CodeInvalidInput,
				fmt.Sprintf("Requested quantity for area %s must be positive", req.AreaID))
		}
		if seen[req.AreaID] {
			return nil, shared.NewDomainError(shared.CodeInvalidInput,
				fmt.Sprintf("Area %s appears more than once in the request", req.AreaID))
		}
		seen[req.AreaID] = true

		area, ok := areas[req.AreaID]
		if !ok {
			return nil, shared.NewDomainError(shared.CodeNotFound,
				fmt.Sprintf("Storage area %s not found", req.AreaID))
		}

		if err := a.ledger.ValidateAllocation(ctx, area, req.Quantity); err != nil {
			if shared.IsCode(err, shared.CodeCapacityExceeded) {
				return nil, shared.NewDomainError(shared.CodeInsufficientCapacity,
					fmt.Sprintf("Inflow rejected: area %s (%s) cannot hold %s bags",
						area.Name, area.ID, req.Quantity.String()))
			}
			return nil, err
		}

		allocations = append(allocations, AreaAllocation{
			AreaID:   req.AreaID,
			Quantity: req.Quantity,
		})
	}

	return allocations, nil
}
