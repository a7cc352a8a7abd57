package persistence

import (
	"context"
	"errors"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/domain/storage"
	"github.com/granary/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStorageAreaRepository implements StorageAreaRepository using GORM
type GormStorageAreaRepository struct {
	db *gorm.DB
}

// NewGormStorageAreaRepository creates a new GormStorageAreaRepository
func NewGormStorageAreaRepository(database *Database) *GormStorageAreaRepository {
	return &GormStorageAreaRepository{db: database.DB}
}

// FindByIDForTenant finds a storage area by ID for a specific tenant
func (r *GormStorageAreaRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*storage.StorageArea, error) {
	var model models.StorageAreaModel
	if err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDsForTenant finds the given storage areas for a tenant
func (r *GormStorageAreaRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]storage.StorageArea, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var areaModels []models.StorageAreaModel
	if err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&areaModels).Error; err != nil {
		return nil, err
	}
	return toDomainAreas(areaModels), nil
}

// FindByIDsForUpdate loads areas with FOR UPDATE row locks. Must run
// inside a transaction; the locks block concurrent deposits into the same
// areas until the surrounding capacity check and write commit.
func (r *GormStorageAreaRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]storage.StorageArea, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var areaModels []models.StorageAreaModel
	if err := dbFor(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&areaModels).Error; err != nil {
		return nil, err
	}
	return toDomainAreas(areaModels), nil
}

// FindByLocation finds all areas within a location
func (r *GormStorageAreaRepository) FindByLocation(ctx context.Context, tenantID, locationID uuid.UUID) ([]storage.StorageArea, error) {
	var areaModels []models.StorageAreaModel
	if err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND location_id = ?", tenantID, locationID).
		Order("name ASC").
		Find(&areaModels).Error; err != nil {
		return nil, err
	}
	return toDomainAreas(areaModels), nil
}

// Save creates or updates a storage area
func (r *GormStorageAreaRepository) Save(ctx context.Context, area *storage.StorageArea) error {
	model := models.StorageAreaModelFromDomain(area)
	return dbFor(ctx, r.db).Save(model).Error
}

// DeleteForTenant deletes a storage area for a tenant
func (r *GormStorageAreaRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := dbFor(ctx, r.db).Delete(&models.StorageAreaModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainAreas(areaModels []models.StorageAreaModel) []storage.StorageArea {
	areas := make([]storage.StorageArea, len(areaModels))
	for i, model := range areaModels {
		areas[i] = *model.ToDomain()
	}
	return areas
}
