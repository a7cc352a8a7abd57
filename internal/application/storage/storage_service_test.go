package storage

import (
	"context"
	"testing"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/domain/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

type storageFixture struct {
	service  *StorageService
	locRepo  *MockStorageLocationRepository
	areaRepo *MockStorageAreaRepository
	cropRepo *MockCropTypeRepository
	usage    *stubUsageReader
	tenantID uuid.UUID
}

func newStorageFixture(t *testing.T) *storageFixture {
	t.Helper()

	f := &storageFixture{
		locRepo:  new(MockStorageLocationRepository),
		areaRepo: new(MockStorageAreaRepository),
		cropRepo: new(MockCropTypeRepository),
		usage:    &stubUsageReader{usage: map[uuid.UUID]decimal.Decimal{}},
		tenantID: uuid.New(),
	}
	f.service = NewStorageService(f.locRepo, f.areaRepo, f.cropRepo, f.usage)
	return f
}

func newTestArea(t *testing.T, tenantID uuid.UUID, capacity int64) *storage.StorageArea {
	t.Helper()
	area, err := storage.NewStorageArea(tenantID, uuid.New(), "Chamber B", decimal.NewFromInt(capacity))
	require.NoError(t, err)
	return area
}

func TestStorageServiceResizeArea(t *testing.T) {
	t.Run("grows an area and reports derived usage", func(t *testing.T) {
		f := newStorageFixture(t)
		area := newTestArea(t, f.tenantID, 100)
		f.usage.usage[area.ID] = decimal.NewFromInt(80)

		f.areaRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, area.ID).Return(area, nil)
		f.areaRepo.On("Save", mock.Anything, area).Return(nil)

		resp, err := f.service.ResizeArea(context.Background(), f.tenantID, area.ID, ResizeAreaRequest{
			Capacity: decimal.NewFromInt(150),
		})

		require.NoError(t, err)
		assert.Equal(t, "150", resp.Capacity.String())
		assert.Equal(t, "80", resp.Used.String())
		assert.Equal(t, "70", resp.Available.String())
	})

	t.Run("refuses to shrink below the stored quantity", func(t *testing.T) {
		f := newStorageFixture(t)
		area := newTestArea(t, f.tenantID, 100)
		f.usage.usage[area.ID] = decimal.NewFromInt(80)

		f.areaRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, area.ID).Return(area, nil)

		_, err := f.service.ResizeArea(context.Background(), f.tenantID, area.ID, ResizeAreaRequest{
			Capacity: decimal.NewFromInt(79),
		})

		assert.Equal(t, shared.CodeInvalidInput, domainErrorCode(t, err))
		f.areaRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestStorageServiceDeleteArea(t *testing.T) {
	t.Run("deletes an empty area", func(t *testing.T) {
		f := newStorageFixture(t)
		areaID := uuid.New()

		f.areaRepo.On("DeleteForTenant", mock.Anything, f.tenantID, areaID).Return(nil)

		err := f.service.DeleteArea(context.Background(), f.tenantID, areaID)

		assert.NoError(t, err)
		f.areaRepo.AssertExpectations(t)
	})

	t.Run("refuses to delete an area that still holds stock", func(t *testing.T) {
		f := newStorageFixture(t)
		areaID := uuid.New()
		f.usage.usage[areaID] = decimal.NewFromInt(12)

		err := f.service.DeleteArea(context.Background(), f.tenantID, areaID)

		assert.Equal(t, shared.CodeInvalidInput, domainErrorCode(t, err))
		f.areaRepo.AssertNotCalled(t, "DeleteForTenant", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStorageServiceListAreasByLocation(t *testing.T) {
	f := newStorageFixture(t)
	locationID := uuid.New()

	areaA := newTestArea(t, f.tenantID, 100)
	areaB := newTestArea(t, f.tenantID, 60)
	f.usage.usage[areaA.ID] = decimal.NewFromInt(40)

	f.areaRepo.On("FindByLocation", mock.Anything, f.tenantID, locationID).
		Return([]storage.StorageArea{*areaA, *areaB}, nil)

	areas, err := f.service.ListAreasByLocation(context.Background(), f.tenantID, locationID)

	require.NoError(t, err)
	require.Len(t, areas, 2)
	assert.Equal(t, "40", areas[0].Used.String())
	assert.Equal(t, "60", areas[0].Available.String())
	assert.True(t, areas[1].Used.IsZero())
	assert.Equal(t, "60", areas[1].Available.String())
}
