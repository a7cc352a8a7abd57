package storage

import (
	"fmt"
	"sort"
	"time"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AreaAllocation records where part of an inflow physically sits: a
// (storage area, quantity) pairing. An inflow never holds two allocations
// for the same area.
type AreaAllocation struct {
	AreaID   uuid.UUID       `json:"area_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Inflow represents a single deposit of crop into one or more storage
// areas. It is created atomically with its allocations and is mutated only
// by withdrawals: allocations shrink, and the record is removed entirely
// once its quantity reaches zero.
type Inflow struct {
	shared.TenantAggregateRoot
	CropTypeID   uuid.UUID
	CustomerID   uuid.UUID
	CustomerName string // denormalized at creation for display
	DateAdded    time.Time
	LabourCharge decimal.Decimal // flat total, already multiplied by quantity at intake
	Allocations  []AreaAllocation
}

// NewInflow creates a new inflow from already-validated allocations. The
// allocation list is produced by the Allocator; this constructor only
// enforces structural invariants.
func NewInflow(
	tenantID uuid.UUID,
	cropTypeID uuid.UUID,
	customerID uuid.UUID,
	customerName string,
	dateAdded time.Time,
	labourCharge decimal.Decimal,
	allocations []AreaAllocation,
) (*Inflow, error) {
	if cropTypeID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Crop type ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Customer ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Customer name cannot be empty")
	}
	if labourCharge.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Labour charge cannot be negative")
	}
	if len(allocations) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Inflow requires at least one area allocation")
	}
	seen := make(map[uuid.UUID]bool, len(allocations))
	for _, alloc := range allocations {
		if alloc.AreaID == uuid.Nil {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Allocation area ID cannot be empty")
		}
		if alloc.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError(shared.CodeInvalidInput,
				fmt.Sprintf("Allocation quantity for area %s must be positive", alloc.AreaID))
		}
		if seen[alloc.AreaID] {
			return nil, shared.NewDomainError(shared.CodeInvalidInput,
				fmt.Sprintf("Area %s appears more than once in the allocations", alloc.AreaID))
		}
		seen[alloc.AreaID] = true
	}
	if dateAdded.IsZero() {
		dateAdded = time.Now()
	}

	inflow := &Inflow{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CropTypeID:          cropTypeID,
		CustomerID:          customerID,
		CustomerName:        customerName,
		DateAdded:           dateAdded,
		LabourCharge:        labourCharge,
		Allocations:         allocations,
	}

	inflow.AddDomainEvent(NewInflowCreatedEvent(inflow))

	return inflow, nil
}

// TotalQuantity returns the quantity still in storage: the sum of all
// allocation quantities.
func (f *Inflow) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, alloc := range f.Allocations {
		total = total.Add(alloc.Quantity)
	}
	return total
}

// IsDepleted reports whether nothing remains in storage
func (f *Inflow) IsDepleted() bool {
	return f.TotalQuantity().IsZero()
}

// ExceedsStockError builds the rejection for a withdrawal larger than the
// remaining quantity.
func (f *Inflow) ExceedsStockError(requested decimal.Decimal) *shared.DomainError {
	return shared.NewDomainError(shared.CodeExceedsStock,
		fmt.Sprintf("Cannot withdraw %s bags from inflow %s, only %s remain",
			requested.String(), f.ID, f.TotalQuantity().String()))
}

// Withdraw applies a settlement to the inflow in a single state change:
// the quantity is drained from the allocations and the labour charge is
// zeroed, since it has now been billed into an outflow. Labour is billed
// exactly once across the inflow's lifetime, even across multiple partial
// withdrawals. A zero quantity is a valid pay-only settlement that only
// clears the labour charge.
func (f *Inflow) Withdraw(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Withdrawal quantity cannot be negative")
	}
	if quantity.GreaterThan(f.TotalQuantity()) {
		return f.ExceedsStockError(quantity)
	}

	if quantity.IsPositive() {
		f.Allocations = reduceAllocations(f.Allocations, quantity)
	}
	f.LabourCharge = decimal.Zero
	f.UpdatedAt = time.Now()
	f.IncrementVersion()
	return nil
}

// reduceAllocations drains a quantity from allocations deterministically:
// areas are processed in ascending lexical order of their IDs, each drained
// fully before the next is touched, so repeated runs always empty the same
// areas first. Untouched allocations remain unchanged; fully drained ones
// are removed.
func reduceAllocations(allocations []AreaAllocation, quantity decimal.Decimal) []AreaAllocation {
	ordered := make([]AreaAllocation, len(allocations))
	copy(ordered, allocations)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].AreaID.String() < ordered[j].AreaID.String()
	})

	remaining := quantity
	result := make([]AreaAllocation, 0, len(ordered))
	for _, alloc := range ordered {
		if remaining.IsZero() {
			result = append(result, alloc)
			continue
		}
		if alloc.Quantity.LessThanOrEqual(remaining) {
			remaining = remaining.Sub(alloc.Quantity)
			continue // drained entirely
		}
		alloc.Quantity = alloc.Quantity.Sub(remaining)
		remaining = decimal.Zero
		result = append(result, alloc)
	}
	return result
}
