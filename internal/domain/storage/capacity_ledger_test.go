package storage

import (
	"context"
	"testing"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubUsageReader answers usage queries from a fixed map, the way the
// persistence layer answers them from an aggregation query.
type stubUsageReader struct {
	used map[uuid.UUID]decimal.Decimal
}

func (s *stubUsageReader) UsedQuantity(_ context.Context, _ uuid.UUID, areaID uuid.UUID) (decimal.Decimal, error) {
	if qty, ok := s.used[areaID]; ok {
		return qty, nil
	}
	return decimal.Zero, nil
}

func (s *stubUsageReader) UsedQuantityByArea(_ context.Context, _ uuid.UUID, areaIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	result := make(map[uuid.UUID]decimal.Decimal)
	for _, id := range areaIDs {
		if qty, ok := s.used[id]; ok {
			result[id] = qty
		}
	}
	return result, nil
}

func newTestArea(t *testing.T, capacity int64) *StorageArea {
	t.Helper()
	area, err := NewStorageArea(uuid.New(), uuid.New(), "Chamber 1", decimal.NewFromInt(capacity))
	require.NoError(t, err)
	return area
}

func TestCapacityLedger_Available(t *testing.T) {
	area := newTestArea(t, 1000)
	ledger := NewCapacityLedger(&stubUsageReader{used: map[uuid.UUID]decimal.Decimal{
		area.ID: decimal.NewFromInt(700),
	}})

	available, err := ledger.Available(context.Background(), area)
	require.NoError(t, err)
	assert.True(t, available.Equal(decimal.NewFromInt(300)))

	// Usage is derived, so a second read with no writes in between
	// returns the same value.
	again, err := ledger.Available(context.Background(), area)
	require.NoError(t, err)
	assert.True(t, again.Equal(available))
}

func TestCapacityLedger_AvailableWithNoUsage(t *testing.T) {
	area := newTestArea(t, 500)
	ledger := NewCapacityLedger(&stubUsageReader{used: map[uuid.UUID]decimal.Decimal{}})

	available, err := ledger.Available(context.Background(), area)
	require.NoError(t, err)
	assert.True(t, available.Equal(decimal.NewFromInt(500)))
}

func TestCapacityLedger_ValidateAllocation(t *testing.T) {
	area := newTestArea(t, 1000)
	ledger := NewCapacityLedger(&stubUsageReader{used: map[uuid.UUID]decimal.Decimal{
		area.ID: decimal.NewFromInt(900),
	}})

	assert.NoError(t, ledger.ValidateAllocation(context.Background(), area, decimal.NewFromInt(100)))

	err := ledger.ValidateAllocation(context.Background(), area, decimal.NewFromInt(101))
	assert.True(t, shared.IsCode(err, shared.CodeCapacityExceeded))
}
