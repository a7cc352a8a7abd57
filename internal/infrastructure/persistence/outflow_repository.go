package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/granary/backend/internal/domain/billing"
	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOutflowRepository implements OutflowRepository using GORM
type GormOutflowRepository struct {
	db *gorm.DB
}

// NewGormOutflowRepository creates a new GormOutflowRepository
func NewGormOutflowRepository(database *Database) *GormOutflowRepository {
	return &GormOutflowRepository{db: database.DB}
}

// FindByIDForTenant finds an outflow bill by ID for a specific tenant
func (r *GormOutflowRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Outflow, error) {
	var model models.OutflowModel
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

// FindByIDsForTenant finds the given outflow bills for a tenant
func (r *GormOutflowRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]billing.Outflow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var outflowModels []models.OutflowModel
	if err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&outflowModels).Error; err != nil {
		return nil, err
	}
	return toDomainOutflows(outflowModels), nil
}

// FindAllForTenant finds outflow bills for a tenant matching the filter
func (r *GormOutflowRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.OutflowFilter) ([]billing.Outflow, error) {
	query := r.applyOutflowFilter(dbFor(ctx, r.db).Where("tenant_id = ?", tenantID), filter)
	query = applyPagination(query, filter.Filter)

	var outflowModels []models.OutflowModel
	if err := query.
		Order("billed_at DESC, id DESC").
		Find(&outflowModels).Error; err != nil {
		return nil, err
	}
	return toDomainOutflows(outflowModels), nil
}

// FindOutstandingByCustomer returns the customer's bills that still carry a
// balance due, oldest first. The ordering drives payment allocation.
func (r *GormOutflowRepository) FindOutstandingByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]billing.Outflow, error) {
	var outflowModels []models.OutflowModel
	if err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND customer_id = ? AND balance_due > 0", tenantID, customerID).
		Order("billed_at ASC, id ASC").
		Find(&outflowModels).Error; err != nil {
		return nil, err
	}
	return toDomainOutflows(outflowModels), nil
}

// Save creates or updates an outflow bill
func (r *GormOutflowRepository) Save(ctx context.Context, outflow *billing.Outflow) error {
	model := models.OutflowModelFromDomain(outflow)
	return dbFor(ctx, r.db).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormOutflowRepository) SaveWithLock(ctx context.Context, outflow *billing.Outflow) error {
	model := models.OutflowModelFromDomain(outflow)
	result := dbFor(ctx, r.db).
		Model(model).
		Where("id = ? AND version = ?", outflow.ID, outflow.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// CountForTenant counts outflow bills for a tenant matching the filter
func (r *GormOutflowRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.OutflowFilter) (int64, error) {
	var count int64
	err := r.applyOutflowFilter(dbFor(ctx, r.db).Where("tenant_id = ?", tenantID), filter).
		Model(&models.OutflowModel{}).
		Count(&count).Error
	return count, err
}

// GenerateBillNumber generates a unique bill number
func (r *GormOutflowRepository) GenerateBillNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	// Format: OF-YYYYMMDD-XXXXX
	date := time.Now().Format("20060102")
	prefix := fmt.Sprintf("OF-%s-", date)

	// Find the highest number for today
	var maxNumber string
	if err := dbFor(ctx, r.db).
		Model(&models.OutflowModel{}).
		Select("bill_number").
		Where("tenant_id = ? AND bill_number LIKE ?", tenantID, prefix+"%").
		Order("bill_number DESC").
		Limit(1).
		Pluck("bill_number", &maxNumber).Error; err != nil {
		return "", err
	}

	var nextNum int
	if maxNumber != "" {
		parts := strings.Split(maxNumber, "-")
		if len(parts) == 3 {
			fmt.Sscanf(parts[2], "%d", &nextNum)
		}
	}
	nextNum++

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

func (r *GormOutflowRepository) applyOutflowFilter(query *gorm.DB, filter billing.OutflowFilter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.InflowID != nil {
		query = query.Where("inflow_id = ?", *filter.InflowID)
	}
	if filter.FromDate != nil {
		query = query.Where("billed_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("billed_at <= ?", *filter.ToDate)
	}
	if filter.OutstandingOnly {
		query = query.Where("balance_due > 0")
	}
	if filter.Search != "" {
		query = query.Where("bill_number ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}

func toDomainOutflows(outflowModels []models.OutflowModel) []billing.Outflow {
	outflows := make([]billing.Outflow, len(outflowModels))
	for i, model := range outflowModels {
		outflows[i] = *model.ToDomain()
	}
	return outflows
}
