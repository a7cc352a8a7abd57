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

// GormCropTypeRepository implements CropTypeRepository using GORM
type GormCropTypeRepository struct {
	db *gorm.DB
}

// NewGormCropTypeRepository creates a new GormCropTypeRepository
func NewGormCropTypeRepository(database *Database) *GormCropTypeRepository {
	return &GormCropTypeRepository{db: database.DB}
}

// FindByIDForTenant finds a crop type by ID for a specific tenant
func (r *GormCropTypeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*storage.CropType, error) {
	var model models.CropTypeModel
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

// FindAllForTenant finds all crop types for a tenant with optional search
func (r *GormCropTypeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]storage.CropType, error) {
	query := dbFor(ctx, r.db).Where("tenant_id = ?", tenantID)
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	query = applyPagination(query, filter)

	var cropModels []models.CropTypeModel
	if err := query.Order("name ASC").Find(&cropModels).Error; err != nil {
		return nil, err
	}

	cropTypes := make([]storage.CropType, len(cropModels))
	for i, model := range cropModels {
		cropTypes[i] = *model.ToDomain()
	}
	return cropTypes, nil
}

// Save creates or updates a crop type
func (r *GormCropTypeRepository) Save(ctx context.Context, cropType *storage.CropType) error {
	model := models.CropTypeModelFromDomain(cropType)
	return dbFor(ctx, r.db).Save(model).Error
}

// DeleteForTenant deletes a crop type for a tenant
func (r *GormCropTypeRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := dbFor(ctx, r.db).Delete(&models.CropTypeModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
