package billing

import (
	"context"
	"time"

	"github.com/granary/backend/internal/domain/billing"
	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/domain/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementService orchestrates withdrawal settlements: it loads the
// aggregates, runs the domain engine and persists the outcome in a single
// transaction.
type SettlementService struct {
	inflowRepo   storage.InflowRepository
	areaRepo     storage.StorageAreaRepository
	locationRepo storage.StorageLocationRepository
	cropRepo     storage.CropTypeRepository
	outflowRepo  billing.OutflowRepository
	paymentRepo  billing.PaymentRepository
	engine       *billing.SettlementEngine
	txManager    shared.TransactionManager
	eventBus     shared.EventBus
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	inflowRepo storage.InflowRepository,
	areaRepo storage.StorageAreaRepository,
	locationRepo storage.StorageLocationRepository,
	cropRepo storage.CropTypeRepository,
	outflowRepo billing.OutflowRepository,
	paymentRepo billing.PaymentRepository,
	txManager shared.TransactionManager,
	eventBus shared.EventBus,
) *SettlementService {
	return &SettlementService{
		inflowRepo:   inflowRepo,
		areaRepo:     areaRepo,
		locationRepo: locationRepo,
		cropRepo:     cropRepo,
		outflowRepo:  outflowRepo,
		paymentRepo:  paymentRepo,
		engine:       billing.NewSettlementEngine(),
		txManager:    txManager,
		eventBus:     eventBus,
	}
}

// SettleRequest represents a request to settle a withdrawal against an
// inflow. A zero quantity with a labour charge outstanding is a valid
// pay-only settlement.
type SettleRequest struct {
	InflowID           uuid.UUID             `json:"inflow_id" binding:"required"`
	Quantity           decimal.Decimal       `json:"quantity"`
	AmountPaid         decimal.Decimal       `json:"amount_paid"`
	Method             billing.PaymentMethod `json:"method"`
	CostPerBagOverride *decimal.Decimal      `json:"cost_per_bag_override"`
	Notes              string                `json:"notes" binding:"max=500"`
}

// PreviewBillRequest represents a request to preview a bill without
// settling anything
type PreviewBillRequest struct {
	InflowID           uuid.UUID        `json:"inflow_id" binding:"required"`
	Quantity           decimal.Decimal  `json:"quantity"`
	CostPerBagOverride *decimal.Decimal `json:"cost_per_bag_override"`
}

// BillPreviewResponse represents a computed bill before settlement
type BillPreviewResponse struct {
	Months          int             `json:"months"`
	CostPerBag      decimal.Decimal `json:"cost_per_bag"`
	ComputedPerBag  decimal.Decimal `json:"computed_per_bag"`
	StorageCost     decimal.Decimal `json:"storage_cost"`
	InsuranceCharge decimal.Decimal `json:"insurance_charge"`
	LabourCharge    decimal.Decimal `json:"labour_charge"`
	Total           decimal.Decimal `json:"total"`
}

// SettleResponse represents the outcome of a settlement
type SettleResponse struct {
	Outflow       OutflowResponse `json:"outflow"`
	InflowRemoved bool            `json:"inflow_removed"`
}

// PreviewBill computes the bill a settlement would produce, without
// touching any state. Operators use it to quote before the crop leaves.
func (s *SettlementService) PreviewBill(ctx context.Context, tenantID uuid.UUID, req PreviewBillRequest) (*BillPreviewResponse, error) {
	inflow, err := s.inflowRepo.FindByIDForTenant(ctx, tenantID, req.InflowID)
	if err != nil {
		return nil, err
	}
	cropType, err := s.cropRepo.FindByIDForTenant(ctx, tenantID, inflow.CropTypeID)
	if err != nil {
		return nil, err
	}
	bill, err := billing.ComputeBill(inflow, cropType, req.Quantity, time.Now(), req.CostPerBagOverride)
	if err != nil {
		return nil, err
	}
	return &BillPreviewResponse{
		Months:          bill.Months,
		CostPerBag:      bill.CostPerBag,
		ComputedPerBag:  bill.ComputedPerBag,
		StorageCost:     bill.StorageCost,
		InsuranceCharge: bill.InsuranceCharge,
		LabourCharge:    bill.LabourCharge,
		Total:           bill.Total,
	}, nil
}

// Settle processes a withdrawal: it bills the withdrawn quantity, reduces
// or removes the inflow and records any counter payment. The outflow
// insert and the inflow mutation commit in one transaction; the inflow is
// saved under its optimistic lock, so a concurrent settlement of the same
// inflow fails with CONCURRENCY_CONFLICT instead of double-billing.
func (s *SettlementService) Settle(ctx context.Context, tenantID uuid.UUID, req SettleRequest) (*SettleResponse, error) {
	inflow, err := s.inflowRepo.FindByIDForTenant(ctx, tenantID, req.InflowID)
	if err != nil {
		return nil, err
	}
	cropType, err := s.cropRepo.FindByIDForTenant(ctx, tenantID, inflow.CropTypeID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.buildSnapshot(ctx, tenantID, inflow, cropType)
	if err != nil {
		return nil, err
	}
	billNumber, err := s.outflowRepo.GenerateBillNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Settle(inflow, cropType, billNumber, snapshot, billing.SettlementCommand{
		WithdrawQuantity:   req.Quantity,
		AmountPaid:         req.AmountPaid,
		Method:             req.Method,
		CostPerBagOverride: req.CostPerBagOverride,
		Notes:              req.Notes,
	}, time.Now())
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.outflowRepo.Save(txCtx, result.Outflow); err != nil {
			return err
		}
		if result.InflowRemoved {
			if err := s.inflowRepo.DeleteForTenant(txCtx, tenantID, inflow.ID); err != nil {
				return err
			}
		} else if err := s.inflowRepo.SaveWithLock(txCtx, inflow); err != nil {
			return err
		}
		if len(result.Payments) > 0 {
			return s.paymentRepo.SaveAll(txCtx, result.Payments)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, result.Outflow)
	s.publishEvents(ctx, inflow)

	return &SettleResponse{
		Outflow:       *toOutflowResponse(result.Outflow),
		InflowRemoved: result.InflowRemoved,
	}, nil
}

// buildSnapshot captures the display names a printed bill carries. Names
// are resolved now so later renames never rewrite history.
func (s *SettlementService) buildSnapshot(ctx context.Context, tenantID uuid.UUID, inflow *storage.Inflow, cropType *storage.CropType) (billing.BillingSnapshot, error) {
	snapshot := billing.BillingSnapshot{
		CustomerName: inflow.CustomerName,
		CropTypeName: cropType.Name,
	}

	areaIDs := make([]uuid.UUID, len(inflow.Allocations))
	for i, a := range inflow.Allocations {
		areaIDs[i] = a.AreaID
	}
	areas, err := s.areaRepo.FindByIDsForTenant(ctx, tenantID, areaIDs)
	if err != nil {
		return snapshot, err
	}
	for _, area := range areas {
		snapshot.AreaNames = append(snapshot.AreaNames, area.Name)
	}
	if len(areas) > 0 {
		location, err := s.locationRepo.FindByIDForTenant(ctx, tenantID, areas[0].LocationID)
		if err == nil {
			snapshot.LocationName = location.Name
		}
	}
	return snapshot, nil
}

func (s *SettlementService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	if s.eventBus == nil {
		return
	}
	for _, event := range aggregate.GetDomainEvents() {
		_ = s.eventBus.Publish(ctx, event)
	}
	aggregate.ClearDomainEvents()
}
