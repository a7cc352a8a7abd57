package storage

import (
	"testing"
	"time"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInflowWith(t *testing.T, allocations []AreaAllocation, labour int64) *Inflow {
	t.Helper()
	inflow, err := NewInflow(
		uuid.New(),
		uuid.New(),
		uuid.New(),
		"Ram Kumar",
		time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		decimal.NewFromInt(labour),
		allocations,
	)
	require.NoError(t, err)
	return inflow
}

func TestNewInflow_Validation(t *testing.T) {
	alloc := []AreaAllocation{{AreaID: uuid.New(), Quantity: decimal.NewFromInt(10)}}

	_, err := NewInflow(uuid.New(), uuid.Nil, uuid.New(), "Ram", time.Time{}, decimal.Zero, alloc)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))

	_, err = NewInflow(uuid.New(), uuid.New(), uuid.New(), "", time.Time{}, decimal.Zero, alloc)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))

	_, err = NewInflow(uuid.New(), uuid.New(), uuid.New(), "Ram", time.Time{}, decimal.NewFromInt(-1), alloc)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))

	_, err = NewInflow(uuid.New(), uuid.New(), uuid.New(), "Ram", time.Time{}, decimal.Zero, nil)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))

	dup := uuid.New()
	_, err = NewInflow(uuid.New(), uuid.New(), uuid.New(), "Ram", time.Time{}, decimal.Zero, []AreaAllocation{
		{AreaID: dup, Quantity: decimal.NewFromInt(5)},
		{AreaID: dup, Quantity: decimal.NewFromInt(5)},
	})
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))

	_, err = NewInflow(uuid.New(), uuid.New(), uuid.New(), "Ram", time.Time{}, decimal.Zero, []AreaAllocation{
		{AreaID: uuid.New(), Quantity: decimal.Zero},
	})
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
}

func TestNewInflow_EmitsCreatedEvent(t *testing.T) {
	inflow := newInflowWith(t, []AreaAllocation{{AreaID: uuid.New(), Quantity: decimal.NewFromInt(25)}}, 100)

	events := inflow.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeInflowCreated, events[0].EventType())
	assert.True(t, inflow.TotalQuantity().Equal(decimal.NewFromInt(25)))
}

func TestWithdraw_DrainsAreasInLexicalOrder(t *testing.T) {
	areaA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	areaB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	// Insertion order has areaB first; lexical order decides anyway.
	inflow := newInflowWith(t, []AreaAllocation{
		{AreaID: areaB, Quantity: decimal.NewFromInt(50)},
		{AreaID: areaA, Quantity: decimal.NewFromInt(30)},
	}, 0)

	require.NoError(t, inflow.Withdraw(decimal.NewFromInt(40)))

	require.Len(t, inflow.Allocations, 1)
	assert.Equal(t, areaB, inflow.Allocations[0].AreaID)
	assert.True(t, inflow.Allocations[0].Quantity.Equal(decimal.NewFromInt(40)))
	assert.True(t, inflow.TotalQuantity().Equal(decimal.NewFromInt(40)))
}

func TestWithdraw_FullDepletesInflow(t *testing.T) {
	inflow := newInflowWith(t, []AreaAllocation{
		{AreaID: uuid.New(), Quantity: decimal.NewFromInt(30)},
		{AreaID: uuid.New(), Quantity: decimal.NewFromInt(20)},
	}, 0)

	require.NoError(t, inflow.Withdraw(decimal.NewFromInt(50)))
	assert.True(t, inflow.IsDepleted())
	assert.Empty(t, inflow.Allocations)
}

func TestWithdraw_ExceedsStock(t *testing.T) {
	inflow := newInflowWith(t, []AreaAllocation{{AreaID: uuid.New(), Quantity: decimal.NewFromInt(50)}}, 200)

	err := inflow.Withdraw(decimal.NewFromInt(51))
	assert.True(t, shared.IsCode(err, shared.CodeExceedsStock))

	// A rejected withdrawal changes nothing, labour included.
	assert.True(t, inflow.TotalQuantity().Equal(decimal.NewFromInt(50)))
	assert.True(t, inflow.LabourCharge.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 1, inflow.Version)
}

func TestWithdraw_ZeroesLabourChargeOnce(t *testing.T) {
	inflow := newInflowWith(t, []AreaAllocation{{AreaID: uuid.New(), Quantity: decimal.NewFromInt(100)}}, 900)

	require.NoError(t, inflow.Withdraw(decimal.NewFromInt(30)))
	assert.True(t, inflow.LabourCharge.IsZero())

	require.NoError(t, inflow.Withdraw(decimal.NewFromInt(30)))
	assert.True(t, inflow.LabourCharge.IsZero())
	assert.True(t, inflow.TotalQuantity().Equal(decimal.NewFromInt(40)))
}

func TestWithdraw_ZeroQuantityIsPayOnly(t *testing.T) {
	inflow := newInflowWith(t, []AreaAllocation{{AreaID: uuid.New(), Quantity: decimal.NewFromInt(60)}}, 350)

	require.NoError(t, inflow.Withdraw(decimal.Zero))
	assert.True(t, inflow.LabourCharge.IsZero())
	assert.True(t, inflow.TotalQuantity().Equal(decimal.NewFromInt(60)))
}

func TestWithdraw_IncrementsVersionOncePerCall(t *testing.T) {
	inflow := newInflowWith(t, []AreaAllocation{{AreaID: uuid.New(), Quantity: decimal.NewFromInt(100)}}, 400)
	require.Equal(t, 1, inflow.Version)

	require.NoError(t, inflow.Withdraw(decimal.NewFromInt(10)))
	assert.Equal(t, 2, inflow.Version)

	require.NoError(t, inflow.Withdraw(decimal.NewFromInt(10)))
	assert.Equal(t, 3, inflow.Version)
}
