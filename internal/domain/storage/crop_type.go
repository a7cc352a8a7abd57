package storage

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateCard holds the per-bag storage rates for the three duration tiers.
// Stored as JSONB inside the crop type row.
type RateCard struct {
	Monthly    decimal.Decimal `json:"1"`  // per bag per month, applied up to 5 months
	HalfYearly decimal.Decimal `json:"6"`  // flat per-bag block for a partial year
	Yearly     decimal.Decimal `json:"12"` // per bag per whole year
}

// Value implements driver.Valuer for JSONB storage
func (r RateCard) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB storage
func (r *RateCard) Scan(value interface{}) error {
	if value == nil {
		*r = RateCard{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan RateCard: unsupported type")
	}
	if len(bytes) == 0 {
		*r = RateCard{}
		return nil
	}
	return json.Unmarshal(bytes, r)
}

// IsValid reports whether every tier carries a non-negative rate
func (r RateCard) IsValid() bool {
	return !r.Monthly.IsNegative() && !r.HalfYearly.IsNegative() && !r.Yearly.IsNegative()
}

// CropType represents a storable crop variety for a tenant, carrying the
// rate card and per-bag insurance rate used to bill withdrawals. Issued
// bills snapshot the figures they were computed from, so editing a crop
// type never retroactively changes an existing bill.
type CropType struct {
	shared.TenantAggregateRoot
	Name            string
	Rates           RateCard
	InsurancePerBag decimal.Decimal
}

// NewCropType creates a new crop type
func NewCropType(tenantID uuid.UUID, name string, rates RateCard, insurancePerBag decimal.Decimal) (*CropType, error) {
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Crop type name cannot be empty")
	}
	if !rates.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Rates cannot be negative")
	}
	if insurancePerBag.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Insurance rate cannot be negative")
	}

	return &CropType{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Rates:               rates,
		InsurancePerBag:     insurancePerBag,
	}, nil
}

// UpdateRates replaces the rate card and insurance rate. Only future bills
// are affected.
func (c *CropType) UpdateRates(rates RateCard, insurancePerBag decimal.Decimal) error {
	if !rates.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Rates cannot be negative")
	}
	if insurancePerBag.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Insurance rate cannot be negative")
	}
	c.Rates = rates
	c.InsurancePerBag = insurancePerBag
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}
