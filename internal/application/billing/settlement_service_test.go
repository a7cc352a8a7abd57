package billing

import (
	"context"
	"testing"
	"time"

	"github.com/granary/backend/internal/domain/billing"
	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/domain/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockInflowRepository is a mock implementation of InflowRepository
type MockInflowRepository struct {
	mock.Mock
}

func (m *MockInflowRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*storage.Inflow, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Inflow), args.Error(1)
}

func (m *MockInflowRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter storage.InflowFilter) ([]storage.Inflow, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Inflow), args.Error(1)
}

func (m *MockInflowRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]storage.Inflow, error) {
	args := m.Called(ctx, tenantID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Inflow), args.Error(1)
}

func (m *MockInflowRepository) Save(ctx context.Context, inflow *storage.Inflow) error {
	args := m.Called(ctx, inflow)
	return args.Error(0)
}

func (m *MockInflowRepository) SaveWithLock(ctx context.Context, inflow *storage.Inflow) error {
	args := m.Called(ctx, inflow)
	return args.Error(0)
}

func (m *MockInflowRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockInflowRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter storage.InflowFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockStorageAreaRepository is a mock implementation of StorageAreaRepository
type MockStorageAreaRepository struct {
	mock.Mock
}

func (m *MockStorageAreaRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*storage.StorageArea, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.StorageArea), args.Error(1)
}

func (m *MockStorageAreaRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]storage.StorageArea, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.StorageArea), args.Error(1)
}

func (m *MockStorageAreaRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]storage.StorageArea, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.StorageArea), args.Error(1)
}

func (m *MockStorageAreaRepository) FindByLocation(ctx context.Context, tenantID, locationID uuid.UUID) ([]storage.StorageArea, error) {
	args := m.Called(ctx, tenantID, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.StorageArea), args.Error(1)
}

func (m *MockStorageAreaRepository) Save(ctx context.Context, area *storage.StorageArea) error {
	args := m.Called(ctx, area)
	return args.Error(0)
}

func (m *MockStorageAreaRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockStorageLocationRepository is a mock implementation of StorageLocationRepository
type MockStorageLocationRepository struct {
	mock.Mock
}

func (m *MockStorageLocationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*storage.StorageLocation, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.StorageLocation), args.Error(1)
}

func (m *MockStorageLocationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]storage.StorageLocation, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.StorageLocation), args.Error(1)
}

func (m *MockStorageLocationRepository) Save(ctx context.Context, location *storage.StorageLocation) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *MockStorageLocationRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockCropTypeRepository is a mock implementation of CropTypeRepository
type MockCropTypeRepository struct {
	mock.Mock
}

func (m *MockCropTypeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*storage.CropType, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.CropType), args.Error(1)
}

func (m *MockCropTypeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]storage.CropType, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.CropType), args.Error(1)
}

func (m *MockCropTypeRepository) Save(ctx context.Context, cropType *storage.CropType) error {
	args := m.Called(ctx, cropType)
	return args.Error(0)
}

func (m *MockCropTypeRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

type settlementFixture struct {
	service     *SettlementService
	inflowRepo  *MockInflowRepository
	areaRepo    *MockStorageAreaRepository
	locRepo     *MockStorageLocationRepository
	cropRepo    *MockCropTypeRepository
	outflowRepo *MockOutflowRepository
	paymentRepo *MockPaymentRepository
	eventBus    *recordingEventBus

	tenantID uuid.UUID
	crop     *storage.CropType
	area     *storage.StorageArea
	location *storage.StorageLocation
	inflow   *storage.Inflow
}

// newSettlementFixture wires a service around a 100-bag inflow stored
// three whole months ago, monthly rate 10 and insurance 2 per bag.
func newSettlementFixture(t *testing.T, labour int64) *settlementFixture {
	t.Helper()

	f := &settlementFixture{
		inflowRepo:  new(MockInflowRepository),
		areaRepo:    new(MockStorageAreaRepository),
		locRepo:     new(MockStorageLocationRepository),
		cropRepo:    new(MockCropTypeRepository),
		outflowRepo: new(MockOutflowRepository),
		paymentRepo: new(MockPaymentRepository),
		eventBus:    &recordingEventBus{},
		tenantID:    uuid.New(),
	}
	f.service = NewSettlementService(
		f.inflowRepo, f.areaRepo, f.locRepo, f.cropRepo,
		f.outflowRepo, f.paymentRepo, fakeTxManager{}, f.eventBus,
	)

	var err error
	f.crop, err = storage.NewCropType(f.tenantID, "Chipsona", storage.RateCard{
		Monthly:    decimal.NewFromInt(10),
		HalfYearly: decimal.NewFromInt(55),
		Yearly:     decimal.NewFromInt(100),
	}, decimal.NewFromInt(2))
	require.NoError(t, err)

	f.location, err = storage.NewStorageLocation(f.tenantID, "Cold Store Unit 1", "NH-24, Aligarh")
	require.NoError(t, err)
	f.area, err = storage.NewStorageArea(f.tenantID, f.location.ID, "Chamber A", decimal.NewFromInt(500))
	require.NoError(t, err)

	f.inflow, err = storage.NewInflow(
		f.tenantID, f.crop.ID, uuid.New(), "Ram Kumar",
		time.Now().AddDate(0, -3, -5),
		decimal.NewFromInt(labour),
		[]storage.AreaAllocation{{AreaID: f.area.ID, Quantity: decimal.NewFromInt(100)}},
	)
	require.NoError(t, err)
	f.inflow.ClearDomainEvents()

	f.inflowRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, f.inflow.ID).Return(f.inflow, nil)
	f.cropRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, f.crop.ID).Return(f.crop, nil)
	f.areaRepo.On("FindByIDsForTenant", mock.Anything, f.tenantID, []uuid.UUID{f.area.ID}).
		Return([]storage.StorageArea{*f.area}, nil)
	f.locRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, f.location.ID).Return(f.location, nil)
	return f
}

func TestSettlementServicePreviewBill(t *testing.T) {
	f := newSettlementFixture(t, 500)

	resp, err := f.service.PreviewBill(context.Background(), f.tenantID, PreviewBillRequest{
		InflowID: f.inflow.ID,
		Quantity: decimal.NewFromInt(40),
	})

	require.NoError(t, err)
	assert.Equal(t, 3, resp.Months)
	assert.Equal(t, "30", resp.CostPerBag.String())
	assert.Equal(t, "1200", resp.StorageCost.String())
	assert.Equal(t, "80", resp.InsuranceCharge.String())
	assert.Equal(t, "500", resp.LabourCharge.String())
	assert.Equal(t, "1780", resp.Total.String())

	// Previewing quotes only; nothing may be written.
	f.outflowRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.inflowRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestSettlementServiceSettle(t *testing.T) {
	t.Run("partial withdrawal keeps the inflow and records the payment", func(t *testing.T) {
		f := newSettlementFixture(t, 500)

		f.outflowRepo.On("GenerateBillNumber", mock.Anything, f.tenantID).Return("OF-20260831-00001", nil)
		f.outflowRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Outflow")).Return(nil)
		f.inflowRepo.On("SaveWithLock", mock.Anything, f.inflow).Return(nil)
		f.paymentRepo.On("SaveAll", mock.Anything, mock.MatchedBy(func(payments []*billing.Payment) bool {
			return len(payments) == 1 && payments[0].Amount.Equal(decimal.NewFromInt(1000))
		})).Return(nil)

		resp, err := f.service.Settle(context.Background(), f.tenantID, SettleRequest{
			InflowID:   f.inflow.ID,
			Quantity:   decimal.NewFromInt(40),
			AmountPaid: decimal.NewFromInt(1000),
			Method:     billing.PaymentMethodCash,
		})

		require.NoError(t, err)
		assert.False(t, resp.InflowRemoved)
		assert.Equal(t, "OF-20260831-00001", resp.Outflow.BillNumber)
		assert.Equal(t, "1780", resp.Outflow.TotalBill.String())
		assert.Equal(t, "780", resp.Outflow.BalanceDue.String())
		assert.Equal(t, "PARTIAL", resp.Outflow.Status)
		assert.Equal(t, "Ram Kumar", resp.Outflow.Snapshot.CustomerName)
		assert.Equal(t, "Cold Store Unit 1", resp.Outflow.Snapshot.LocationName)
		assert.Contains(t, resp.Outflow.Snapshot.AreaNames, "Chamber A")

		types := f.eventBus.EventTypesSeen()
		assert.Contains(t, types, billing.EventTypeOutflowSettled)
		assert.Contains(t, types, storage.EventTypeInflowWithdrawn)

		f.outflowRepo.AssertExpectations(t)
		f.inflowRepo.AssertExpectations(t)
		f.paymentRepo.AssertExpectations(t)
	})

	t.Run("full withdrawal deletes the inflow", func(t *testing.T) {
		f := newSettlementFixture(t, 0)

		f.outflowRepo.On("GenerateBillNumber", mock.Anything, f.tenantID).Return("OF-20260831-00002", nil)
		f.outflowRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.inflowRepo.On("DeleteForTenant", mock.Anything, f.tenantID, f.inflow.ID).Return(nil)

		resp, err := f.service.Settle(context.Background(), f.tenantID, SettleRequest{
			InflowID: f.inflow.ID,
			Quantity: decimal.NewFromInt(100),
		})

		require.NoError(t, err)
		assert.True(t, resp.InflowRemoved)
		assert.Contains(t, f.eventBus.EventTypesSeen(), storage.EventTypeInflowDepleted)
		f.inflowRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		f.inflowRepo.AssertExpectations(t)
	})

	t.Run("rejects a withdrawal above the remaining stock", func(t *testing.T) {
		f := newSettlementFixture(t, 0)

		f.outflowRepo.On("GenerateBillNumber", mock.Anything, f.tenantID).Return("OF-20260831-00003", nil)

		_, err := f.service.Settle(context.Background(), f.tenantID, SettleRequest{
			InflowID: f.inflow.ID,
			Quantity: decimal.NewFromInt(101),
		})

		assert.Equal(t, shared.CodeExceedsStock, domainErrorCode(t, err))
		f.outflowRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.inflowRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		f.inflowRepo.AssertNotCalled(t, "DeleteForTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("aborts when a concurrent settlement won the version race", func(t *testing.T) {
		f := newSettlementFixture(t, 0)

		f.outflowRepo.On("GenerateBillNumber", mock.Anything, f.tenantID).Return("OF-20260831-00004", nil)
		f.outflowRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.inflowRepo.On("SaveWithLock", mock.Anything, f.inflow).Return(shared.ErrConcurrencyConflict)

		_, err := f.service.Settle(context.Background(), f.tenantID, SettleRequest{
			InflowID: f.inflow.ID,
			Quantity: decimal.NewFromInt(10),
		})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Empty(t, f.eventBus.EventTypesSeen())
	})

	t.Run("pay-only settlement clears the labour charge without moving stock", func(t *testing.T) {
		f := newSettlementFixture(t, 350)

		f.outflowRepo.On("GenerateBillNumber", mock.Anything, f.tenantID).Return("OF-20260831-00005", nil)
		f.outflowRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.inflowRepo.On("SaveWithLock", mock.Anything, f.inflow).Return(nil)
		f.paymentRepo.On("SaveAll", mock.Anything, mock.Anything).Return(nil)

		resp, err := f.service.Settle(context.Background(), f.tenantID, SettleRequest{
			InflowID:   f.inflow.ID,
			Quantity:   decimal.Zero,
			AmountPaid: decimal.NewFromInt(350),
			Method:     billing.PaymentMethodUPI,
		})

		require.NoError(t, err)
		assert.False(t, resp.InflowRemoved)
		assert.Equal(t, "350", resp.Outflow.TotalBill.String())
		assert.Equal(t, "PAID", resp.Outflow.Status)
		assert.True(t, f.inflow.LabourCharge.IsZero())
		assert.True(t, f.inflow.TotalQuantity().Equal(decimal.NewFromInt(100)))
	})
}
