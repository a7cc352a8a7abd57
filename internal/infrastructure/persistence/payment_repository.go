package persistence

import (
	"context"

	"github.com/granary/backend/internal/domain/billing"
	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(database *Database) *GormPaymentRepository {
	return &GormPaymentRepository{db: database.DB}
}

// Save creates a payment audit row. Payments are immutable once written.
func (r *GormPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return dbFor(ctx, r.db).Create(model).Error
}

// SaveAll creates payment audit rows in one statement
func (r *GormPaymentRepository) SaveAll(ctx context.Context, payments []*billing.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	paymentModels := make([]*models.PaymentModel, len(payments))
	for i, payment := range payments {
		paymentModels[i] = models.PaymentModelFromDomain(payment)
	}
	return dbFor(ctx, r.db).Create(&paymentModels).Error
}

// FindByOutflow finds all payments applied to one outflow bill
func (r *GormPaymentRepository) FindByOutflow(ctx context.Context, tenantID, outflowID uuid.UUID) ([]billing.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND outflow_id = ?", tenantID, outflowID).
		Order("paid_at ASC, id ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	return toDomainPayments(paymentModels), nil
}

// FindByCustomer finds a customer's payments, newest first
func (r *GormPaymentRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]billing.Payment, error) {
	query := dbFor(ctx, r.db).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID)
	query = applyPagination(query, filter)

	var paymentModels []models.PaymentModel
	if err := query.
		Order("paid_at DESC, id DESC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	return toDomainPayments(paymentModels), nil
}

func toDomainPayments(paymentModels []models.PaymentModel) []billing.Payment {
	payments := make([]billing.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments
}
