package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocator_Allocate(t *testing.T) {
	areaA := newTestArea(t, 100)
	areaB := newTestArea(t, 200)
	areas := map[uuid.UUID]*StorageArea{areaA.ID: areaA, areaB.ID: areaB}

	ledger := NewCapacityLedger(&stubUsageReader{used: map[uuid.UUID]decimal.Decimal{
		areaB.ID: decimal.NewFromInt(150),
	}})
	allocator := NewAllocator(ledger)

	allocations, err := allocator.Allocate(context.Background(), areas, []AllocationRequest{
		{AreaID: areaA.ID, Quantity: decimal.NewFromInt(100)},
		{AreaID: areaB.ID, Quantity: decimal.NewFromInt(50)},
	})
	require.NoError(t, err)

	require.Len(t, allocations, 2)
	assert.Equal(t, areaA.ID, allocations[0].AreaID)
	assert.True(t, allocations[0].Quantity.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, areaB.ID, allocations[1].AreaID)
	assert.True(t, allocations[1].Quantity.Equal(decimal.NewFromInt(50)))
}

func TestAllocator_RejectsOverflowNamingTheArea(t *testing.T) {
	area := newTestArea(t, 100)
	areas := map[uuid.UUID]*StorageArea{area.ID: area}

	ledger := NewCapacityLedger(&stubUsageReader{used: map[uuid.UUID]decimal.Decimal{
		area.ID: decimal.NewFromInt(80),
	}})
	allocator := NewAllocator(ledger)

	_, err := allocator.Allocate(context.Background(), areas, []AllocationRequest{
		{AreaID: area.ID, Quantity: decimal.NewFromInt(21)},
	})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInsufficientCapacity))
	assert.True(t, strings.Contains(err.Error(), area.Name))
}

func TestAllocator_AllOrNothing(t *testing.T) {
	fits := newTestArea(t, 100)
	full := newTestArea(t, 50)
	areas := map[uuid.UUID]*StorageArea{fits.ID: fits, full.ID: full}

	ledger := NewCapacityLedger(&stubUsageReader{used: map[uuid.UUID]decimal.Decimal{
		full.ID: decimal.NewFromInt(50),
	}})
	allocator := NewAllocator(ledger)

	// The first request is valid on its own, but the second fails, so the
	// whole inflow is rejected.
	_, err := allocator.Allocate(context.Background(), areas, []AllocationRequest{
		{AreaID: fits.ID, Quantity: decimal.NewFromInt(10)},
		{AreaID: full.ID, Quantity: decimal.NewFromInt(1)},
	})
	assert.True(t, shared.IsCode(err, shared.CodeInsufficientCapacity))
}

func TestAllocator_RejectsDuplicateAndNonPositive(t *testing.T) {
	area := newTestArea(t, 100)
	areas := map[uuid.UUID]*StorageArea{area.ID: area}
	allocator := NewAllocator(NewCapacityLedger(&stubUsageReader{used: map[uuid.UUID]decimal.Decimal{}}))

	_, err := allocator.Allocate(context.Background(), areas, []AllocationRequest{
		{AreaID: area.ID, Quantity: decimal.NewFromInt(10)},
		{AreaID: area.ID, Quantity: decimal.NewFromInt(10)},
	})
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))

	_, err = allocator.Allocate(context.Background(), areas, []AllocationRequest{
		{AreaID: area.ID, Quantity: decimal.Zero},
	})
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))

	_, err = allocator.Allocate(context.Background(), areas, nil)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
}

func TestAllocator_UnknownArea(t *testing.T) {
	allocator := NewAllocator(NewCapacityLedger(&stubUsageReader{used: map[uuid.UUID]decimal.Decimal{}}))

	_, err := allocator.Allocate(context.Background(), map[uuid.UUID]*StorageArea{}, []AllocationRequest{
		{AreaID: uuid.New(), Quantity: decimal.NewFromInt(5)},
	})
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}
