package billing

import (
	"context"
	"time"

	"github.com/granary/backend/internal/domain/billing"
	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentService handles payments against already-issued bills: direct
// payments on one bill and bulk payments distributed across several.
type PaymentService struct {
	outflowRepo billing.OutflowRepository
	paymentRepo billing.PaymentRepository
	txManager   shared.TransactionManager
	eventBus    shared.EventBus
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	outflowRepo billing.OutflowRepository,
	paymentRepo billing.PaymentRepository,
	txManager shared.TransactionManager,
	eventBus shared.EventBus,
) *PaymentService {
	return &PaymentService{
		outflowRepo: outflowRepo,
		paymentRepo: paymentRepo,
		txManager:   txManager,
		eventBus:    eventBus,
	}
}

// PaymentRecordResponse represents one payment applied to an outflow
type PaymentRecordResponse struct {
	ID     uuid.UUID       `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	PaidAt time.Time       `json:"paid_at"`
	Notes  string          `json:"notes,omitempty"`
}

// OutflowResponse represents an outflow bill in API responses
type OutflowResponse struct {
	ID                uuid.UUID               `json:"id"`
	BillNumber        string                  `json:"bill_number"`
	InflowID          uuid.UUID               `json:"inflow_id"`
	CustomerID        uuid.UUID               `json:"customer_id"`
	CropTypeID        uuid.UUID               `json:"crop_type_id"`
	QuantityWithdrawn decimal.Decimal         `json:"quantity_withdrawn"`
	StorageMonths     int                     `json:"storage_months"`
	CostPerBag        decimal.Decimal         `json:"cost_per_bag"`
	StorageCost       decimal.Decimal         `json:"storage_cost"`
	InsuranceCharge   decimal.Decimal         `json:"insurance_charge"`
	LabourCharge      decimal.Decimal         `json:"labour_charge"`
	TotalBill         decimal.Decimal         `json:"total_bill"`
	AmountPaid        decimal.Decimal         `json:"amount_paid"`
	BalanceDue        decimal.Decimal         `json:"balance_due"`
	Status            string                  `json:"status"`
	BilledAt          time.Time               `json:"billed_at"`
	Snapshot          billing.BillingSnapshot `json:"snapshot"`
	PaymentRecords    []PaymentRecordResponse `json:"payment_records,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	Version           int                     `json:"version"`
}

// PayBillRequest represents a payment against a single bill
type PayBillRequest struct {
	Amount decimal.Decimal       `json:"amount" binding:"required"`
	Method billing.PaymentMethod `json:"method" binding:"required"`
	Notes  string                `json:"notes" binding:"max=500"`
}

// BulkPaymentRequest represents one payment to be distributed across
// several of a customer's outstanding bills
type BulkPaymentRequest struct {
	CustomerID uuid.UUID             `json:"customer_id" binding:"required"`
	OutflowIDs []uuid.UUID           `json:"outflow_ids" binding:"required,min=1"`
	Amount     decimal.Decimal       `json:"amount" binding:"required"`
	Method     billing.PaymentMethod `json:"method" binding:"required"`
	Notes      string                `json:"notes" binding:"max=500"`
}

// BulkPaymentResponse reports how a bulk payment was distributed
type BulkPaymentResponse struct {
	Outflows []OutflowResponse `json:"outflows"`
}

// PayBill applies a payment to one bill. The bill is saved under its
// optimistic lock, so two cashiers recording payments against the same
// bill cannot both succeed on the same version.
func (s *PaymentService) PayBill(ctx context.Context, tenantID, outflowID uuid.UUID, req PayBillRequest) (*OutflowResponse, error) {
	outflow, err := s.outflowRepo.FindByIDForTenant(ctx, tenantID, outflowID)
	if err != nil {
		return nil, err
	}

	record, err := outflow.ApplyPayment(req.Amount, req.Method, req.Notes)
	if err != nil {
		return nil, err
	}
	payment := billing.NewPayment(outflow, record)

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.outflowRepo.SaveWithLock(txCtx, outflow); err != nil {
			return err
		}
		return s.paymentRepo.Save(txCtx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, outflow)
	return toOutflowResponse(outflow), nil
}

// RecordBulkPayment distributes one payment across the caller-selected
// bills, oldest first. The selection is never inferred; callers list the
// customer's outstanding bills first and pass the ones being paid. Every
// touched bill and its payment audit row commit in one transaction; a
// payment above the selected dues is rejected before anything is written.
func (s *PaymentService) RecordBulkPayment(ctx context.Context, tenantID uuid.UUID, req BulkPaymentRequest) (*BulkPaymentResponse, error) {
	if len(req.OutflowIDs) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "No bills selected for payment")
	}
	outflows, err := s.outflowRepo.FindByIDsForTenant(ctx, tenantID, req.OutflowIDs)
	if err != nil {
		return nil, err
	}
	if len(outflows) == 0 {
		return nil, shared.NewDomainError(shared.CodeNotFound, "None of the selected bills were found")
	}

	selected := make([]*billing.Outflow, 0, len(outflows))
	for i := range outflows {
		if outflows[i].CustomerID != req.CustomerID {
			return nil, shared.NewDomainError(shared.CodeInvalidInput,
				"Bill "+outflows[i].BillNumber+" does not belong to this customer")
		}
		selected = append(selected, &outflows[i])
	}

	result, err := billing.AllocatePayment(req.Amount, req.Method, req.Notes, selected)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		for _, outflow := range result.UpdatedOutflows() {
			if err := s.outflowRepo.SaveWithLock(txCtx, outflow); err != nil {
				return err
			}
		}
		return s.paymentRepo.SaveAll(txCtx, result.Payments())
	})
	if err != nil {
		return nil, err
	}

	responses := make([]OutflowResponse, 0, len(result.Allocations))
	for _, allocation := range result.Allocations {
		s.publishEvents(ctx, allocation.Outflow)
		responses = append(responses, *toOutflowResponse(allocation.Outflow))
	}
	return &BulkPaymentResponse{Outflows: responses}, nil
}

// GetOutflow gets an outflow bill by ID
func (s *PaymentService) GetOutflow(ctx context.Context, tenantID, id uuid.UUID) (*OutflowResponse, error) {
	outflow, err := s.outflowRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toOutflowResponse(outflow), nil
}

// ListOutflows lists a tenant's outflow bills with filtering and pagination
func (s *PaymentService) ListOutflows(ctx context.Context, tenantID uuid.UUID, filter billing.OutflowFilter) (*shared.Paginated[OutflowResponse], error) {
	outflows, err := s.outflowRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.outflowRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]OutflowResponse, len(outflows))
	for i := range outflows {
		responses[i] = *toOutflowResponse(&outflows[i])
	}

	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	result := shared.NewPaginated(responses, total, page, pageSize)
	return &result, nil
}

// ListOutstanding lists a customer's bills that still carry a balance due,
// oldest first
func (s *PaymentService) ListOutstanding(ctx context.Context, tenantID, customerID uuid.UUID) ([]OutflowResponse, error) {
	outflows, err := s.outflowRepo.FindOutstandingByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	responses := make([]OutflowResponse, len(outflows))
	for i := range outflows {
		responses[i] = *toOutflowResponse(&outflows[i])
	}
	return responses, nil
}

// ListPaymentsByCustomer lists a customer's payment audit rows
func (s *PaymentService) ListPaymentsByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]PaymentResponse, error) {
	payments, err := s.paymentRepo.FindByCustomer(ctx, tenantID, customerID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = *toPaymentResponse(&payments[i])
	}
	return responses, nil
}

// PaymentResponse represents a payment audit row in API responses
type PaymentResponse struct {
	ID         uuid.UUID       `json:"id"`
	OutflowID  uuid.UUID       `json:"outflow_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	PaidAt     time.Time       `json:"paid_at"`
	Notes      string          `json:"notes,omitempty"`
}

func (s *PaymentService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	if s.eventBus == nil {
		return
	}
	for _, event := range aggregate.GetDomainEvents() {
		_ = s.eventBus.Publish(ctx, event)
	}
	aggregate.ClearDomainEvents()
}

func toPaymentResponse(payment *billing.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:         payment.ID,
		OutflowID:  payment.OutflowID,
		CustomerID: payment.CustomerID,
		Amount:     payment.Amount,
		Method:     payment.Method.String(),
		PaidAt:     payment.PaidAt,
		Notes:      payment.Notes,
	}
}

func toOutflowResponse(outflow *billing.Outflow) *OutflowResponse {
	records := make([]PaymentRecordResponse, len(outflow.PaymentRecords))
	for i, r := range outflow.PaymentRecords {
		records[i] = PaymentRecordResponse{
			ID:     r.ID,
			Amount: r.Amount,
			Method: r.Method.String(),
			PaidAt: r.PaidAt,
			Notes:  r.Notes,
		}
	}
	return &OutflowResponse{
		ID:                outflow.ID,
		BillNumber:        outflow.BillNumber,
		InflowID:          outflow.InflowID,
		CustomerID:        outflow.CustomerID,
		CropTypeID:        outflow.CropTypeID,
		QuantityWithdrawn: outflow.QuantityWithdrawn,
		StorageMonths:     outflow.StorageMonths,
		CostPerBag:        outflow.CostPerBag,
		StorageCost:       outflow.StorageCost,
		InsuranceCharge:   outflow.InsuranceCharge,
		LabourCharge:      outflow.LabourCharge,
		TotalBill:         outflow.TotalBill,
		AmountPaid:        outflow.AmountPaid,
		BalanceDue:        outflow.BalanceDue,
		Status:            outflow.Status.String(),
		BilledAt:          outflow.BilledAt,
		Snapshot:          outflow.Snapshot,
		PaymentRecords:    records,
		CreatedAt:         outflow.CreatedAt,
		Version:           outflow.Version,
	}
}
