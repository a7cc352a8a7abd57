package billing

import (
	"time"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is the standalone, immutable audit row for a single payment
// event against one outflow. It mirrors the PaymentRecord embedded in the
// outflow aggregate; one row is written per bill touched, never merged,
// even when a single user action pays several bills.
type Payment struct {
	shared.BaseEntity
	TenantID   uuid.UUID
	OutflowID  uuid.UUID
	CustomerID uuid.UUID
	RecordID   uuid.UUID // ID of the matching PaymentRecord inside the outflow
	Amount     decimal.Decimal
	Method     PaymentMethod
	PaidAt     time.Time
	Notes      string
}

// NewPayment creates the audit row for a payment record applied to an
// outflow.
func NewPayment(outflow *Outflow, record *PaymentRecord) *Payment {
	return &Payment{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   outflow.TenantID,
		OutflowID:  outflow.ID,
		CustomerID: outflow.CustomerID,
		RecordID:   record.ID,
		Amount:     record.Amount,
		Method:     record.Method,
		PaidAt:     record.PaidAt,
		Notes:      record.Notes,
	}
}
