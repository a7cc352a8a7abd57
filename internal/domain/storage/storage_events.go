package storage

import (
	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeInflow = "Inflow"
)

// Event type constants
const (
	EventTypeInflowCreated   = "InflowCreated"
	EventTypeInflowWithdrawn = "InflowWithdrawn"
	EventTypeInflowDepleted  = "InflowDepleted"
)

// InflowCreatedEvent is raised when a deposit is recorded
type InflowCreatedEvent struct {
	shared.BaseDomainEvent
	InflowID     uuid.UUID        `json:"inflow_id"`
	CustomerID   uuid.UUID        `json:"customer_id"`
	CropTypeID   uuid.UUID        `json:"crop_type_id"`
	Quantity     decimal.Decimal  `json:"quantity"`
	LabourCharge decimal.Decimal  `json:"labour_charge"`
	Allocations  []AreaAllocation `json:"allocations"`
}

// NewInflowCreatedEvent creates a new InflowCreatedEvent
func NewInflowCreatedEvent(inflow *Inflow) *InflowCreatedEvent {
	return &InflowCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInflowCreated, AggregateTypeInflow, inflow.ID, inflow.TenantID),
		InflowID:        inflow.ID,
		CustomerID:      inflow.CustomerID,
		CropTypeID:      inflow.CropTypeID,
		Quantity:        inflow.TotalQuantity(),
		LabourCharge:    inflow.LabourCharge,
		Allocations:     inflow.Allocations,
	}
}

// InflowWithdrawnEvent is raised when quantity is withdrawn from an inflow
type InflowWithdrawnEvent struct {
	shared.BaseDomainEvent
	InflowID          uuid.UUID       `json:"inflow_id"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	QuantityWithdrawn decimal.Decimal `json:"quantity_withdrawn"`
	QuantityRemaining decimal.Decimal `json:"quantity_remaining"`
}

// NewInflowWithdrawnEvent creates a new InflowWithdrawnEvent
func NewInflowWithdrawnEvent(inflow *Inflow, withdrawn decimal.Decimal) *InflowWithdrawnEvent {
	return &InflowWithdrawnEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeInflowWithdrawn, AggregateTypeInflow, inflow.ID, inflow.TenantID),
		InflowID:          inflow.ID,
		CustomerID:        inflow.CustomerID,
		QuantityWithdrawn: withdrawn,
		QuantityRemaining: inflow.TotalQuantity(),
	}
}

// InflowDepletedEvent is raised when a full withdrawal removes the inflow
type InflowDepletedEvent struct {
	shared.BaseDomainEvent
	InflowID   uuid.UUID `json:"inflow_id"`
	CustomerID uuid.UUID `json:"customer_id"`
}

// NewInflowDepletedEvent creates a new InflowDepletedEvent
func NewInflowDepletedEvent(inflow *Inflow) *InflowDepletedEvent {
	return &InflowDepletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInflowDepleted, AggregateTypeInflow, inflow.ID, inflow.TenantID),
		InflowID:        inflow.ID,
		CustomerID:      inflow.CustomerID,
	}
}
