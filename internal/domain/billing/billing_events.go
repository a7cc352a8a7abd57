package billing

import (
	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeOutflow = "Outflow"

// Event type constants
const (
	EventTypeOutflowSettled = "OutflowSettled"
	EventTypePaymentApplied = "PaymentApplied"
)

// OutflowSettledEvent is the billing event emitted when a withdrawal is
// settled into a bill. It carries the snapshot display names so downstream
// consumers (receipt rendering, SMS dispatch) need no further lookups.
type OutflowSettledEvent struct {
	shared.BaseDomainEvent
	OutflowID         uuid.UUID       `json:"outflow_id"`
	BillNumber        string          `json:"bill_number"`
	InflowID          uuid.UUID       `json:"inflow_id"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	QuantityWithdrawn decimal.Decimal `json:"quantity_withdrawn"`
	StorageMonths     int             `json:"storage_months"`
	StorageCost       decimal.Decimal `json:"storage_cost"`
	InsuranceCharge   decimal.Decimal `json:"insurance_charge"`
	LabourCharge      decimal.Decimal `json:"labour_charge"`
	TotalBill         decimal.Decimal `json:"total_bill"`
	AmountPaid        decimal.Decimal `json:"amount_paid"`
	BalanceDue        decimal.Decimal `json:"balance_due"`
	Snapshot          BillingSnapshot `json:"snapshot"`
}

// NewOutflowSettledEvent creates a new OutflowSettledEvent
func NewOutflowSettledEvent(o *Outflow) *OutflowSettledEvent {
	return &OutflowSettledEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeOutflowSettled, AggregateTypeOutflow, o.ID, o.TenantID),
		OutflowID:         o.ID,
		BillNumber:        o.BillNumber,
		InflowID:          o.InflowID,
		CustomerID:        o.CustomerID,
		QuantityWithdrawn: o.QuantityWithdrawn,
		StorageMonths:     o.StorageMonths,
		StorageCost:       o.StorageCost,
		InsuranceCharge:   o.InsuranceCharge,
		LabourCharge:      o.LabourCharge,
		TotalBill:         o.TotalBill,
		AmountPaid:        o.AmountPaid,
		BalanceDue:        o.BalanceDue,
		Snapshot:          o.Snapshot,
	}
}

// PaymentAppliedEvent is emitted for each payment record applied to an
// outflow, including the one created at settlement time.
type PaymentAppliedEvent struct {
	shared.BaseDomainEvent
	OutflowID  uuid.UUID       `json:"outflow_id"`
	BillNumber string          `json:"bill_number"`
	CustomerID uuid.UUID       `json:"customer_id"`
	RecordID   uuid.UUID       `json:"record_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     PaymentMethod   `json:"method"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	BalanceDue decimal.Decimal `json:"balance_due"`
	Snapshot   BillingSnapshot `json:"snapshot"`
}

// NewPaymentAppliedEvent creates a new PaymentAppliedEvent
func NewPaymentAppliedEvent(o *Outflow, record *PaymentRecord) *PaymentAppliedEvent {
	return &PaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentApplied, AggregateTypeOutflow, o.ID, o.TenantID),
		OutflowID:       o.ID,
		BillNumber:      o.BillNumber,
		CustomerID:      o.CustomerID,
		RecordID:        record.ID,
		Amount:          record.Amount,
		Method:          record.Method,
		AmountPaid:      o.AmountPaid,
		BalanceDue:      o.BalanceDue,
		Snapshot:        o.Snapshot,
	}
}
