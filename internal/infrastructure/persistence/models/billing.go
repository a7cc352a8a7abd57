package models

import (
	"time"

	"github.com/granary/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OutflowModel is the persistence model for the Outflow aggregate root.
type OutflowModel struct {
	TenantAggregateModel
	BillNumber        string                  `gorm:"type:varchar(50);not null;uniqueIndex:idx_outflow_tenant_bill,priority:2"`
	InflowID          uuid.UUID               `gorm:"type:uuid;not null;index"`
	CustomerID        uuid.UUID               `gorm:"type:uuid;not null;index"`
	CropTypeID        uuid.UUID               `gorm:"type:uuid;not null;index"`
	QuantityWithdrawn decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	StorageMonths     int                     `gorm:"not null"`
	CostPerBag        decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	StorageCost       decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	InsuranceCharge   decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	LabourCharge      decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	TotalBill         decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	AmountPaid        decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	BalanceDue        decimal.Decimal         `gorm:"type:decimal(18,4);not null;index"`
	Status            billing.OutflowStatus   `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	BilledAt          time.Time               `gorm:"not null;index"`
	Snapshot          billing.BillingSnapshot `gorm:"type:jsonb;not null;default:'{}'"`
	PaymentRecords    billing.PaymentRecords  `gorm:"type:jsonb;not null;default:'[]'"`
}

// TableName returns the table name for GORM
func (OutflowModel) TableName() string {
	return "outflows"
}

// ToDomain converts the persistence model to a domain Outflow.
func (m *OutflowModel) ToDomain() *billing.Outflow {
	outflow := &billing.Outflow{
		BillNumber:        m.BillNumber,
		InflowID:          m.InflowID,
		CustomerID:        m.CustomerID,
		CropTypeID:        m.CropTypeID,
		QuantityWithdrawn: m.QuantityWithdrawn,
		StorageMonths:     m.StorageMonths,
		CostPerBag:        m.CostPerBag,
		StorageCost:       m.StorageCost,
		InsuranceCharge:   m.InsuranceCharge,
		LabourCharge:      m.LabourCharge,
		TotalBill:         m.TotalBill,
		AmountPaid:        m.AmountPaid,
		BalanceDue:        m.BalanceDue,
		Status:            m.Status,
		BilledAt:          m.BilledAt,
		Snapshot:          m.Snapshot,
		PaymentRecords:    m.PaymentRecords,
	}
	m.PopulateTenantAggregateRoot(&outflow.TenantAggregateRoot)
	return outflow
}

// FromDomain populates the persistence model from a domain Outflow.
func (m *OutflowModel) FromDomain(outflow *billing.Outflow) {
	m.FromDomainTenantAggregateRoot(outflow.TenantAggregateRoot)
	m.BillNumber = outflow.BillNumber
	m.InflowID = outflow.InflowID
	m.CustomerID = outflow.CustomerID
	m.CropTypeID = outflow.CropTypeID
	m.QuantityWithdrawn = outflow.QuantityWithdrawn
	m.StorageMonths = outflow.StorageMonths
	m.CostPerBag = outflow.CostPerBag
	m.StorageCost = outflow.StorageCost
	m.InsuranceCharge = outflow.InsuranceCharge
	m.LabourCharge = outflow.LabourCharge
	m.TotalBill = outflow.TotalBill
	m.AmountPaid = outflow.AmountPaid
	m.BalanceDue = outflow.BalanceDue
	m.Status = outflow.Status
	m.BilledAt = outflow.BilledAt
	m.Snapshot = outflow.Snapshot
	m.PaymentRecords = outflow.PaymentRecords
}

// OutflowModelFromDomain creates a new persistence model from a domain Outflow.
func OutflowModelFromDomain(outflow *billing.Outflow) *OutflowModel {
	m := &OutflowModel{}
	m.FromDomain(outflow)
	return m
}

// PaymentModel is the persistence model for the immutable Payment audit row.
type PaymentModel struct {
	BaseModel
	TenantID   uuid.UUID             `gorm:"type:uuid;not null;index"`
	OutflowID  uuid.UUID             `gorm:"type:uuid;not null;index"`
	CustomerID uuid.UUID             `gorm:"type:uuid;not null;index"`
	RecordID   uuid.UUID             `gorm:"type:uuid;not null"`
	Amount     decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Method     billing.PaymentMethod `gorm:"type:varchar(20);not null"`
	PaidAt     time.Time             `gorm:"not null;index"`
	Notes      string                `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		OutflowID:  m.OutflowID,
		CustomerID: m.CustomerID,
		RecordID:   m.RecordID,
		Amount:     m.Amount,
		Method:     m.Method,
		PaidAt:     m.PaidAt,
		Notes:      m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(payment *billing.Payment) {
	m.FromDomainBaseEntity(payment.BaseEntity)
	m.TenantID = payment.TenantID
	m.OutflowID = payment.OutflowID
	m.CustomerID = payment.CustomerID
	m.RecordID = payment.RecordID
	m.Amount = payment.Amount
	m.Method = payment.Method
	m.PaidAt = payment.PaidAt
	m.Notes = payment.Notes
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(payment *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(payment)
	return m
}
