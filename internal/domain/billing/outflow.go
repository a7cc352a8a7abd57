package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OutflowStatus represents the payment status of an outflow bill
type OutflowStatus string

const (
	OutflowStatusPending OutflowStatus = "PENDING" // unpaid, balance due equals the total
	OutflowStatusPartial OutflowStatus = "PARTIAL" // partially paid
	OutflowStatusPaid    OutflowStatus = "PAID"    // fully settled
)

// IsValid checks if the status is a valid OutflowStatus
func (s OutflowStatus) IsValid() bool {
	switch s {
	case OutflowStatusPending, OutflowStatusPartial, OutflowStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of OutflowStatus
func (s OutflowStatus) String() string {
	return string(s)
}

// CanApplyPayment returns true if payments can be applied in this status
func (s OutflowStatus) CanApplyPayment() bool {
	return s == OutflowStatusPending || s == OutflowStatusPartial
}

// PaymentMethod represents the method of payment
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodUPI          PaymentMethod = "UPI"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodUPI,
		PaymentMethodCheque, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// BillingSnapshot freezes the display names a bill was issued under.
// Renaming a location or crop type later never changes what is printed on
// an already-issued receipt. Stored as JSONB inside the outflow row.
type BillingSnapshot struct {
	CustomerName string   `json:"customer_name"`
	LocationName string   `json:"location_name"`
	CropTypeName string   `json:"crop_type_name"`
	AreaNames    []string `json:"area_names,omitempty"`
}

// Value implements driver.Valuer for JSONB storage
func (s BillingSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB storage
func (s *BillingSnapshot) Scan(value interface{}) error {
	if value == nil {
		*s = BillingSnapshot{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan BillingSnapshot: unsupported type")
	}
	if len(bytes) == 0 {
		*s = BillingSnapshot{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// PaymentRecord is one immutable payment event against the outflow. It is
// a value object within the Outflow aggregate, stored as JSONB; the same
// payments are also persisted as standalone Payment rows for audit
// queries.
type PaymentRecord struct {
	ID     uuid.UUID       `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Method PaymentMethod   `json:"method"`
	PaidAt time.Time       `json:"paid_at"`
	Notes  string          `json:"notes,omitempty"`
}

// PaymentRecords is a slice of PaymentRecord that implements GORM
// Scanner/Valuer for JSONB storage
type PaymentRecords []PaymentRecord

// Value implements driver.Valuer for JSONB storage
func (p PaymentRecords) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB storage
func (p *PaymentRecords) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentRecords{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentRecords: unsupported type")
	}
	if len(bytes) == 0 {
		*p = PaymentRecords{}
		return nil
	}
	return json.Unmarshal(bytes, p)
}

// Outflow represents a withdrawal bill: the aggregate root created when
// quantity is withdrawn from an inflow. All cost fields are immutable
// after creation; only AmountPaid/BalanceDue change, through payments.
// The invariants 0 <= AmountPaid <= TotalBill and
// BalanceDue == TotalBill - AmountPaid hold at all times.
type Outflow struct {
	shared.TenantAggregateRoot
	BillNumber        string
	InflowID          uuid.UUID
	CustomerID        uuid.UUID
	CropTypeID        uuid.UUID
	QuantityWithdrawn decimal.Decimal
	StorageMonths     int
	CostPerBag        decimal.Decimal
	StorageCost       decimal.Decimal
	InsuranceCharge   decimal.Decimal
	LabourCharge      decimal.Decimal
	TotalBill         decimal.Decimal
	AmountPaid        decimal.Decimal
	BalanceDue        decimal.Decimal
	Status            OutflowStatus
	BilledAt          time.Time
	Snapshot          BillingSnapshot
	PaymentRecords    PaymentRecords
}

// NewOutflow creates a new outflow bill from a computed Bill. When
// amountPaid is positive the outflow is born with its first payment
// record, so the sum of payment records equals AmountPaid from the start.
func NewOutflow(
	tenantID uuid.UUID,
	billNumber string,
	inflowID uuid.UUID,
	customerID uuid.UUID,
	cropTypeID uuid.UUID,
	quantity decimal.Decimal,
	bill *Bill,
	amountPaid decimal.Decimal,
	method PaymentMethod,
	billedAt time.Time,
	snapshot BillingSnapshot,
) (*Outflow, error) {
	if billNumber == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Bill number cannot be empty")
	}
	if inflowID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Inflow ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Customer ID cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Withdrawn quantity cannot be negative")
	}
	if amountPaid.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Amount paid cannot be negative")
	}
	if amountPaid.GreaterThan(bill.Total) {
		return nil, shared.NewDomainError(shared.CodeOverPayment,
			fmt.Sprintf("Amount paid %s exceeds the bill total %s", amountPaid.String(), bill.Total.String()))
	}

	o := &Outflow{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BillNumber:          billNumber,
		InflowID:            inflowID,
		CustomerID:          customerID,
		CropTypeID:          cropTypeID,
		QuantityWithdrawn:   quantity,
		StorageMonths:       bill.Months,
		CostPerBag:          bill.CostPerBag,
		StorageCost:         bill.StorageCost,
		InsuranceCharge:     bill.InsuranceCharge,
		LabourCharge:        bill.LabourCharge,
		TotalBill:           bill.Total,
		AmountPaid:          decimal.Zero,
		BalanceDue:          bill.Total,
		Status:              OutflowStatusPending,
		BilledAt:            billedAt,
		Snapshot:            snapshot,
		PaymentRecords:      PaymentRecords{},
	}

	if amountPaid.IsPositive() {
		if _, err := o.ApplyPayment(amountPaid, method, "Paid at settlement"); err != nil {
			return nil, err
		}
	}

	o.AddDomainEvent(NewOutflowSettledEvent(o))

	return o, nil
}

// ApplyPayment applies one payment event to the bill and returns the
// resulting record. A payment larger than the remaining balance is
// rejected; distribution of a lump sum across bills happens in the
// payment allocator, never here.
func (o *Outflow) ApplyPayment(amount decimal.Decimal, method PaymentMethod, notes string) (*PaymentRecord, error) {
	if !o.Status.CanApplyPayment() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("Cannot apply payment to outflow %s in %s status", o.BillNumber, o.Status))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payment amount must be positive")
	}
	if amount.GreaterThan(o.BalanceDue) {
		return nil, shared.NewDomainError(shared.CodeOverPayment,
			fmt.Sprintf("Payment %s exceeds balance due %s on bill %s",
				amount.String(), o.BalanceDue.String(), o.BillNumber))
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid payment method")
	}

	record := PaymentRecord{
		ID:     uuid.New(),
		Amount: amount,
		Method: method,
		PaidAt: time.Now(),
		Notes:  notes,
	}
	o.PaymentRecords = append(o.PaymentRecords, record)

	o.AmountPaid = o.AmountPaid.Add(amount)
	o.BalanceDue = o.TotalBill.Sub(o.AmountPaid)

	if o.BalanceDue.IsZero() {
		o.Status = OutflowStatusPaid
	} else {
		o.Status = OutflowStatusPartial
	}

	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	o.AddDomainEvent(NewPaymentAppliedEvent(o, &record))

	return &record, nil
}

// IsOutstanding reports whether the bill still carries a balance
func (o *Outflow) IsOutstanding() bool {
	return o.BalanceDue.IsPositive()
}
