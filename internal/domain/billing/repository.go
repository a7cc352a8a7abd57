package billing

import (
	"context"
	"time"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OutflowFilter defines filtering options for outflow queries
type OutflowFilter struct {
	shared.Filter
	CustomerID      *uuid.UUID
	Status          *OutflowStatus
	InflowID        *uuid.UUID
	FromDate        *time.Time
	ToDate          *time.Time
	OutstandingOnly bool
}

// OutflowRepository defines persistence for outflow bills
type OutflowRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Outflow, error)
	FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Outflow, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter OutflowFilter) ([]Outflow, error)
	// FindOutstandingByCustomer returns the customer's bills that still
	// carry a balance due, oldest first.
	FindOutstandingByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]Outflow, error)
	Save(ctx context.Context, outflow *Outflow) error
	// SaveWithLock saves with optimistic locking (version check); returns
	// a CONCURRENCY_CONFLICT domain error when the row changed underneath.
	SaveWithLock(ctx context.Context, outflow *Outflow) error
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter OutflowFilter) (int64, error)
	// GenerateBillNumber produces the next bill number for a tenant,
	// formatted OF-YYYYMMDD-XXXXX.
	GenerateBillNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// PaymentRepository defines persistence for payment audit rows
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	SaveAll(ctx context.Context, payments []*Payment) error
	FindByOutflow(ctx context.Context, tenantID, outflowID uuid.UUID) ([]Payment, error)
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]Payment, error)
}
