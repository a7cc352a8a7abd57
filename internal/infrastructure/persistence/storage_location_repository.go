package persistence

import (
	"context"
	"errors"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/domain/storage"
	"github.com/granary/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStorageLocationRepository implements StorageLocationRepository using GORM
type GormStorageLocationRepository struct {
	db *gorm.DB
}

// NewGormStorageLocationRepository creates a new GormStorageLocationRepository
func NewGormStorageLocationRepository(database *Database) *GormStorageLocationRepository {
	return &GormStorageLocationRepository{db: database.DB}
}

// FindByIDForTenant finds a storage location by ID for a specific tenant
func (r *GormStorageLocationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*storage.StorageLocation, error) {
	var model models.StorageLocationModel
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

// FindAllForTenant finds all storage locations for a tenant
func (r *GormStorageLocationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]storage.StorageLocation, error) {
	var locationModels []models.StorageLocationModel
	query := dbFor(ctx, r.db).Model(&models.StorageLocationModel{}).
		Where("tenant_id = ?", tenantID)
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	query = applyPagination(query, filter)

	if err := query.Order("name ASC").Find(&locationModels).Error; err != nil {
		return nil, err
	}
	locations := make([]storage.StorageLocation, len(locationModels))
	for i, model := range locationModels {
		locations[i] = *model.ToDomain()
	}
	return locations, nil
}

// Save creates or updates a storage location
func (r *GormStorageLocationRepository) Save(ctx context.Context, location *storage.StorageLocation) error {
	model := models.StorageLocationModelFromDomain(location)
	return dbFor(ctx, r.db).Save(model).Error
}

// DeleteForTenant deletes a storage location for a tenant
func (r *GormStorageLocationRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := dbFor(ctx, r.db).Delete(&models.StorageLocationModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyPagination applies page/page-size limits to a query
func applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}
