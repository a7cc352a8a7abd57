package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/granary/backend/internal/domain/billing"
	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase wires a sqlmock connection behind GORM's postgres dialector
// so repository SQL can be asserted without a running database.
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock, mockDB
}

func testOutflowForLock(t *testing.T) *billing.Outflow {
	t.Helper()

	outflow := &billing.Outflow{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New()),
		BillNumber:          "OF-20260831-00001",
		InflowID:            uuid.New(),
		CustomerID:          uuid.New(),
		CropTypeID:          uuid.New(),
		QuantityWithdrawn:   decimal.NewFromInt(10),
		StorageMonths:       3,
		CostPerBag:          decimal.NewFromInt(110),
		StorageCost:         decimal.NewFromInt(1100),
		InsuranceCharge:     decimal.NewFromInt(50),
		LabourCharge:        decimal.NewFromInt(100),
		TotalBill:           decimal.NewFromInt(1250),
		AmountPaid:          decimal.NewFromInt(500),
		BalanceDue:          decimal.NewFromInt(750),
		Status:              billing.OutflowStatusPartial,
		BilledAt:            time.Now(),
		Snapshot:            billing.BillingSnapshot{CustomerName: "Ram Kumar", CropTypeName: "Potato"},
	}
	outflow.Version = 3
	return outflow
}

func TestOutflowRepositorySaveWithLock(t *testing.T) {
	t.Run("updates when stored version matches", func(t *testing.T) {
		database, mock, sqlDB := newMockDatabase(t)
		defer sqlDB.Close()
		repo := NewGormOutflowRepository(database)

		mock.ExpectExec(`UPDATE "outflows" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveWithLock(context.Background(), testOutflowForLock(t))

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports conflict when another writer won", func(t *testing.T) {
		database, mock, sqlDB := newMockDatabase(t)
		defer sqlDB.Close()
		repo := NewGormOutflowRepository(database)

		mock.ExpectExec(`UPDATE "outflows" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), testOutflowForLock(t))

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates database errors", func(t *testing.T) {
		database, mock, sqlDB := newMockDatabase(t)
		defer sqlDB.Close()
		repo := NewGormOutflowRepository(database)

		mock.ExpectExec(`UPDATE "outflows" SET`).
			WillReturnError(assert.AnError)

		err := repo.SaveWithLock(context.Background(), testOutflowForLock(t))

		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutflowRepositoryGenerateBillNumber(t *testing.T) {
	today := time.Now().Format("20060102")

	t.Run("starts at one when no bills exist today", func(t *testing.T) {
		database, mock, sqlDB := newMockDatabase(t)
		defer sqlDB.Close()
		repo := NewGormOutflowRepository(database)

		mock.ExpectQuery(`SELECT "bill_number" FROM "outflows"`).
			WillReturnRows(sqlmock.NewRows([]string{"bill_number"}))

		number, err := repo.GenerateBillNumber(context.Background(), uuid.New())

		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("OF-%s-00001", today), number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("continues from the highest number today", func(t *testing.T) {
		database, mock, sqlDB := newMockDatabase(t)
		defer sqlDB.Close()
		repo := NewGormOutflowRepository(database)

		mock.ExpectQuery(`SELECT "bill_number" FROM "outflows"`).
			WillReturnRows(sqlmock.NewRows([]string{"bill_number"}).
				AddRow(fmt.Sprintf("OF-%s-00042", today)))

		number, err := repo.GenerateBillNumber(context.Background(), uuid.New())

		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("OF-%s-00043", today), number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutflowRepositoryFindByIDForTenant(t *testing.T) {
	t.Run("maps missing rows to not found", func(t *testing.T) {
		database, mock, sqlDB := newMockDatabase(t)
		defer sqlDB.Close()
		repo := NewGormOutflowRepository(database)

		mock.ExpectQuery(`SELECT \* FROM "outflows"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByIDForTenant(context.Background(), uuid.New(), uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutflowRepositoryFindOutstandingByCustomer(t *testing.T) {
	database, mock, sqlDB := newMockDatabase(t)
	defer sqlDB.Close()
	repo := NewGormOutflowRepository(database)

	tenantID := uuid.New()
	customerID := uuid.New()
	olderID := uuid.New()
	newerID := uuid.New()

	columns := []string{
		"id", "tenant_id", "bill_number", "customer_id",
		"total_bill", "amount_paid", "balance_due", "status", "billed_at",
		"snapshot", "payment_records", "version",
	}
	rows := sqlmock.NewRows(columns).
		AddRow(olderID, tenantID, "OF-20260801-00003", customerID,
			"1000", "200", "800", "PARTIAL", time.Now().AddDate(0, 0, -30),
			[]byte(`{}`), []byte(`[]`), 2).
		AddRow(newerID, tenantID, "OF-20260830-00001", customerID,
			"500", "0", "500", "PENDING", time.Now().AddDate(0, 0, -1),
			[]byte(`{}`), []byte(`[]`), 1)

	mock.ExpectQuery(`SELECT \* FROM "outflows" .*balance_due > 0.*ORDER BY billed_at ASC`).
		WillReturnRows(rows)

	outflows, err := repo.FindOutstandingByCustomer(context.Background(), tenantID, customerID)

	require.NoError(t, err)
	require.Len(t, outflows, 2)
	assert.Equal(t, olderID, outflows[0].ID)
	assert.Equal(t, "800", outflows[0].BalanceDue.String())
	assert.Equal(t, newerID, outflows[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
