package persistence

import (
	"context"
	"errors"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/domain/storage"
	"github.com/granary/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInflowRepository implements InflowRepository using GORM
type GormInflowRepository struct {
	db *gorm.DB
}

// NewGormInflowRepository creates a new GormInflowRepository
func NewGormInflowRepository(database *Database) *GormInflowRepository {
	return &GormInflowRepository{db: database.DB}
}

// FindByIDForTenant finds an inflow with its allocations by ID
func (r *GormInflowRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*storage.Inflow, error) {
	var model models.InflowModel
	if err := dbFor(ctx, r.db).
		Preload("Allocations").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds inflows for a tenant matching the filter
func (r *GormInflowRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter storage.InflowFilter) ([]storage.Inflow, error) {
	query := r.buildFilterQuery(ctx, tenantID, filter)
	query = applyPagination(query, filter.Filter)

	var inflowModels []models.InflowModel
	if err := query.
		Preload("Allocations").
		Order("date_added DESC, id DESC").
		Find(&inflowModels).Error; err != nil {
		return nil, err
	}
	return toDomainInflows(inflowModels), nil
}

// FindByCustomer finds all inflows held by one customer
func (r *GormInflowRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]storage.Inflow, error) {
	var inflowModels []models.InflowModel
	if err := dbFor(ctx, r.db).
		Preload("Allocations").
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("date_added DESC, id DESC").
		Find(&inflowModels).Error; err != nil {
		return nil, err
	}
	return toDomainInflows(inflowModels), nil
}

// Save creates or updates an inflow together with its allocation rows. The
// allocation rows are replaced wholesale so removed areas do not leave
// stale usage behind.
func (r *GormInflowRepository) Save(ctx context.Context, inflow *storage.Inflow) error {
	return r.inTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Delete(&models.InflowAllocationModel{}, "inflow_id = ?", inflow.ID).Error; err != nil {
			return err
		}
		model := models.InflowModelFromDomain(inflow)
		return tx.Save(model).Error
	})
}

// SaveWithLock updates an inflow with optimistic locking. The update only
// lands when the stored version matches the version the caller loaded;
// otherwise another writer won and the caller must reload.
func (r *GormInflowRepository) SaveWithLock(ctx context.Context, inflow *storage.Inflow) error {
	return r.inTx(ctx, func(tx *gorm.DB) error {
		model := models.InflowModelFromDomain(inflow)
		result := tx.Model(&models.InflowModel{}).
			Where("id = ? AND version = ?", inflow.ID, inflow.Version-1).
			Updates(map[string]interface{}{
				"labour_charge": model.LabourCharge,
				"version":       model.Version,
				"updated_at":    model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		if err := tx.Delete(&models.InflowAllocationModel{}, "inflow_id = ?", inflow.ID).Error; err != nil {
			return err
		}
		if len(model.Allocations) == 0 {
			return nil
		}
		return tx.Create(&model.Allocations).Error
	})
}

// DeleteForTenant deletes an inflow and its allocations
func (r *GormInflowRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.inTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Delete(&models.InflowAllocationModel{}, "inflow_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.InflowModel{}, "tenant_id = ? AND id = ?", tenantID, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// CountForTenant counts inflows for a tenant matching the filter
func (r *GormInflowRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter storage.InflowFilter) (int64, error) {
	var count int64
	err := r.buildFilterQuery(ctx, tenantID, filter).
		Model(&models.InflowModel{}).
		Count(&count).Error
	return count, err
}

func (r *GormInflowRepository) buildFilterQuery(ctx context.Context, tenantID uuid.UUID, filter storage.InflowFilter) *gorm.DB {
	query := dbFor(ctx, r.db).Where("inflows.tenant_id = ?", tenantID)
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.CropTypeID != nil {
		query = query.Where("crop_type_id = ?", *filter.CropTypeID)
	}
	if filter.AreaID != nil {
		query = query.Where(
			"id IN (SELECT inflow_id FROM inflow_allocations WHERE area_id = ?)",
			*filter.AreaID,
		)
	}
	if filter.FromDate != nil {
		query = query.Where("date_added >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date_added <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		query = query.Where("customer_name ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// inTx runs fn inside the transaction already carried by ctx, or opens a
// fresh one. Multi-statement writes on the inflow aggregate must not be
// split across transaction boundaries.
func (r *GormInflowRepository) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return fn(tx.WithContext(ctx))
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

func toDomainInflows(inflowModels []models.InflowModel) []storage.Inflow {
	inflows := make([]storage.Inflow, len(inflowModels))
	for i, model := range inflowModels {
		inflows[i] = *model.ToDomain()
	}
	return inflows
}

// GormAreaUsageReader answers area usage questions with a single SUM over
// the inflow allocation rows. No usage counter is stored anywhere.
type GormAreaUsageReader struct {
	db *gorm.DB
}

// NewGormAreaUsageReader creates a new GormAreaUsageReader
func NewGormAreaUsageReader(database *Database) *GormAreaUsageReader {
	return &GormAreaUsageReader{db: database.DB}
}

// UsedQuantity returns the total allocated quantity in one area
func (r *GormAreaUsageReader) UsedQuantity(ctx context.Context, tenantID, areaID uuid.UUID) (decimal.Decimal, error) {
	var used decimal.Decimal
	err := dbFor(ctx, r.db).
		Model(&models.InflowAllocationModel{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("tenant_id = ? AND area_id = ?", tenantID, areaID).
		Scan(&used).Error
	if err != nil {
		return decimal.Zero, err
	}
	return used, nil
}

// UsedQuantityByArea returns the total allocated quantity per area. Areas
// with no allocations are absent from the result.
func (r *GormAreaUsageReader) UsedQuantityByArea(ctx context.Context, tenantID uuid.UUID, areaIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	result := make(map[uuid.UUID]decimal.Decimal)
	if len(areaIDs) == 0 {
		return result, nil
	}

	type usageRow struct {
		AreaID uuid.UUID
		Used   decimal.Decimal
	}
	var rows []usageRow
	err := dbFor(ctx, r.db).
		Model(&models.InflowAllocationModel{}).
		Select("area_id, COALESCE(SUM(quantity), 0) AS used").
		Where("tenant_id = ? AND area_id IN ?", tenantID, areaIDs).
		Group("area_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.AreaID] = row.Used
	}
	return result, nil
}
