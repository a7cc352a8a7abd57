package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/domain/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInflowForLock(t *testing.T) *storage.Inflow {
	t.Helper()

	inflow := &storage.Inflow{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New()),
		CropTypeID:          uuid.New(),
		CustomerID:          uuid.New(),
		CustomerName:        "Ram Kumar",
		DateAdded:           time.Now(),
		LabourCharge:        decimal.NewFromInt(200),
		Allocations: []storage.AreaAllocation{
			{AreaID: uuid.New(), Quantity: decimal.NewFromInt(20)},
		},
	}
	inflow.Version = 2
	return inflow
}

func TestInflowRepositorySaveWithLock(t *testing.T) {
	t.Run("reports conflict when the stored version moved on", func(t *testing.T) {
		database, mock, sqlDB := newMockDatabase(t)
		defer sqlDB.Close()
		repo := NewGormInflowRepository(database)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "inflows" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.SaveWithLock(context.Background(), testInflowForLock(t))

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the allocation rewrite fails", func(t *testing.T) {
		database, mock, sqlDB := newMockDatabase(t)
		defer sqlDB.Close()
		repo := NewGormInflowRepository(database)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "inflows" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "inflow_allocations"`).
			WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err := repo.SaveWithLock(context.Background(), testInflowForLock(t))

		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInflowRepositoryDeleteForTenant(t *testing.T) {
	t.Run("not found when no row matches the tenant", func(t *testing.T) {
		database, mock, sqlDB := newMockDatabase(t)
		defer sqlDB.Close()
		repo := NewGormInflowRepository(database)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "inflow_allocations"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM "inflows"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.DeleteForTenant(context.Background(), uuid.New(), uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes the inflow together with its allocations", func(t *testing.T) {
		database, mock, sqlDB := newMockDatabase(t)
		defer sqlDB.Close()
		repo := NewGormInflowRepository(database)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "inflow_allocations"`).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(`DELETE FROM "inflows"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.DeleteForTenant(context.Background(), uuid.New(), uuid.New())

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAreaUsageReaderUsedQuantity(t *testing.T) {
	database, mock, sqlDB := newMockDatabase(t)
	defer sqlDB.Close()
	reader := NewGormAreaUsageReader(database)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(quantity\), 0\) FROM "inflow_allocations"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("125.5"))

	used, err := reader.UsedQuantity(context.Background(), uuid.New(), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, "125.5", used.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAreaUsageReaderUsedQuantityByArea(t *testing.T) {
	t.Run("groups usage per area", func(t *testing.T) {
		database, mock, sqlDB := newMockDatabase(t)
		defer sqlDB.Close()
		reader := NewGormAreaUsageReader(database)

		areaA := uuid.New()
		areaB := uuid.New()
		areaEmpty := uuid.New()

		mock.ExpectQuery(`SELECT area_id, COALESCE\(SUM\(quantity\), 0\) AS used FROM "inflow_allocations"`).
			WillReturnRows(sqlmock.NewRows([]string{"area_id", "used"}).
				AddRow(areaA, "40").
				AddRow(areaB, "12.25"))

		usage, err := reader.UsedQuantityByArea(
			context.Background(), uuid.New(), []uuid.UUID{areaA, areaB, areaEmpty})

		require.NoError(t, err)
		require.Len(t, usage, 2)
		assert.Equal(t, "40", usage[areaA].String())
		assert.Equal(t, "12.25", usage[areaB].String())
		_, present := usage[areaEmpty]
		assert.False(t, present, "areas without allocations stay absent")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("short-circuits on an empty area list", func(t *testing.T) {
		database, _, sqlDB := newMockDatabase(t)
		defer sqlDB.Close()
		reader := NewGormAreaUsageReader(database)

		usage, err := reader.UsedQuantityByArea(context.Background(), uuid.New(), nil)

		require.NoError(t, err)
		assert.Empty(t, usage)
	})
}
