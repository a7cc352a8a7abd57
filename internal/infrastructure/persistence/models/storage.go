package models

import (
	"time"

	"github.com/granary/backend/internal/domain/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StorageLocationModel is the persistence model for the StorageLocation aggregate root.
type StorageLocationModel struct {
	TenantAggregateModel
	Name    string `gorm:"type:varchar(200);not null"`
	Address string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (StorageLocationModel) TableName() string {
	return "storage_locations"
}

// ToDomain converts the persistence model to a domain StorageLocation.
func (m *StorageLocationModel) ToDomain() *storage.StorageLocation {
	location := &storage.StorageLocation{
		Name:    m.Name,
		Address: m.Address,
	}
	m.PopulateTenantAggregateRoot(&location.TenantAggregateRoot)
	return location
}

// FromDomain populates the persistence model from a domain StorageLocation.
func (m *StorageLocationModel) FromDomain(location *storage.StorageLocation) {
	m.FromDomainTenantAggregateRoot(location.TenantAggregateRoot)
	m.Name = location.Name
	m.Address = location.Address
}

// StorageLocationModelFromDomain creates a new persistence model from a domain StorageLocation.
func StorageLocationModelFromDomain(location *storage.StorageLocation) *StorageLocationModel {
	m := &StorageLocationModel{}
	m.FromDomain(location)
	return m
}

// StorageAreaModel is the persistence model for the StorageArea aggregate root.
// Usage is never stored here; it is derived from inflow allocation rows.
type StorageAreaModel struct {
	TenantAggregateModel
	LocationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name       string          `gorm:"type:varchar(200);not null"`
	Capacity   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (StorageAreaModel) TableName() string {
	return "storage_areas"
}

// ToDomain converts the persistence model to a domain StorageArea.
func (m *StorageAreaModel) ToDomain() *storage.StorageArea {
	area := &storage.StorageArea{
		LocationID: m.LocationID,
		Name:       m.Name,
		Capacity:   m.Capacity,
	}
	m.PopulateTenantAggregateRoot(&area.TenantAggregateRoot)
	return area
}

// FromDomain populates the persistence model from a domain StorageArea.
func (m *StorageAreaModel) FromDomain(area *storage.StorageArea) {
	m.FromDomainTenantAggregateRoot(area.TenantAggregateRoot)
	m.LocationID = area.LocationID
	m.Name = area.Name
	m.Capacity = area.Capacity
}

// StorageAreaModelFromDomain creates a new persistence model from a domain StorageArea.
func StorageAreaModelFromDomain(area *storage.StorageArea) *StorageAreaModel {
	m := &StorageAreaModel{}
	m.FromDomain(area)
	return m
}

// CropTypeModel is the persistence model for the CropType aggregate root.
type CropTypeModel struct {
	TenantAggregateModel
	Name            string           `gorm:"type:varchar(200);not null"`
	Rates           storage.RateCard `gorm:"type:jsonb;not null;default:'{}'"`
	InsurancePerBag decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (CropTypeModel) TableName() string {
	return "crop_types"
}

// ToDomain converts the persistence model to a domain CropType.
func (m *CropTypeModel) ToDomain() *storage.CropType {
	cropType := &storage.CropType{
		Name:            m.Name,
		Rates:           m.Rates,
		InsurancePerBag: m.InsurancePerBag,
	}
	m.PopulateTenantAggregateRoot(&cropType.TenantAggregateRoot)
	return cropType
}

// FromDomain populates the persistence model from a domain CropType.
func (m *CropTypeModel) FromDomain(cropType *storage.CropType) {
	m.FromDomainTenantAggregateRoot(cropType.TenantAggregateRoot)
	m.Name = cropType.Name
	m.Rates = cropType.Rates
	m.InsurancePerBag = cropType.InsurancePerBag
}

// CropTypeModelFromDomain creates a new persistence model from a domain CropType.
func CropTypeModelFromDomain(cropType *storage.CropType) *CropTypeModel {
	m := &CropTypeModel{}
	m.FromDomain(cropType)
	return m
}

// InflowModel is the persistence model for the Inflow aggregate root.
// Allocations live in their own table so area usage can be answered by a
// single SUM over inflow_allocations.
type InflowModel struct {
	TenantAggregateModel
	CropTypeID   uuid.UUID              `gorm:"type:uuid;not null;index"`
	CustomerID   uuid.UUID              `gorm:"type:uuid;not null;index"`
	CustomerName string                 `gorm:"type:varchar(200);not null"`
	DateAdded    time.Time              `gorm:"not null;index"`
	LabourCharge decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Allocations  []InflowAllocationModel `gorm:"foreignKey:InflowID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InflowModel) TableName() string {
	return "inflows"
}

// ToDomain converts the persistence model to a domain Inflow.
func (m *InflowModel) ToDomain() *storage.Inflow {
	allocations := make([]storage.AreaAllocation, len(m.Allocations))
	for i, a := range m.Allocations {
		allocations[i] = storage.AreaAllocation{
			AreaID:   a.AreaID,
			Quantity: a.Quantity,
		}
	}
	inflow := &storage.Inflow{
		CropTypeID:   m.CropTypeID,
		CustomerID:   m.CustomerID,
		CustomerName: m.CustomerName,
		DateAdded:    m.DateAdded,
		LabourCharge: m.LabourCharge,
		Allocations:  allocations,
	}
	m.PopulateTenantAggregateRoot(&inflow.TenantAggregateRoot)
	return inflow
}

// FromDomain populates the persistence model from a domain Inflow,
// including the allocation rows.
func (m *InflowModel) FromDomain(inflow *storage.Inflow) {
	m.FromDomainTenantAggregateRoot(inflow.TenantAggregateRoot)
	m.CropTypeID = inflow.CropTypeID
	m.CustomerID = inflow.CustomerID
	m.CustomerName = inflow.CustomerName
	m.DateAdded = inflow.DateAdded
	m.LabourCharge = inflow.LabourCharge
	m.Allocations = make([]InflowAllocationModel, len(inflow.Allocations))
	for i, a := range inflow.Allocations {
		m.Allocations[i] = InflowAllocationModel{
			ID:       uuid.New(),
			InflowID: inflow.ID,
			TenantID: inflow.TenantID,
			AreaID:   a.AreaID,
			Quantity: a.Quantity,
		}
	}
}

// InflowModelFromDomain creates a new persistence model from a domain Inflow.
func InflowModelFromDomain(inflow *storage.Inflow) *InflowModel {
	m := &InflowModel{}
	m.FromDomain(inflow)
	return m
}

// InflowAllocationModel is one (area, quantity) row of an inflow. TenantID
// is denormalized onto the row so the usage aggregation touches one table.
type InflowAllocationModel struct {
	ID       uuid.UUID       `gorm:"type:uuid;primary_key"`
	InflowID uuid.UUID       `gorm:"type:uuid;not null;index"`
	TenantID uuid.UUID       `gorm:"type:uuid;not null;index:idx_allocation_tenant_area,priority:1"`
	AreaID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_allocation_tenant_area,priority:2"`
	Quantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (InflowAllocationModel) TableName() string {
	return "inflow_allocations"
}
