package storage

import (
	"context"
	"time"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/domain/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InflowService handles the intake side of the inventory: recording
// deposits and querying live stock.
type InflowService struct {
	inflowRepo  storage.InflowRepository
	areaRepo    storage.StorageAreaRepository
	cropRepo    storage.CropTypeRepository
	usageReader storage.AreaUsageReader
	txManager   shared.TransactionManager
	eventBus    shared.EventBus
}

// NewInflowService creates a new InflowService
func NewInflowService(
	inflowRepo storage.InflowRepository,
	areaRepo storage.StorageAreaRepository,
	cropRepo storage.CropTypeRepository,
	usageReader storage.AreaUsageReader,
	txManager shared.TransactionManager,
	eventBus shared.EventBus,
) *InflowService {
	return &InflowService{
		inflowRepo:  inflowRepo,
		areaRepo:    areaRepo,
		cropRepo:    cropRepo,
		usageReader: usageReader,
		txManager:   txManager,
		eventBus:    eventBus,
	}
}

// AllocationInput is one caller-chosen (area, quantity) pair
type AllocationInput struct {
	AreaID   uuid.UUID       `json:"area_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// RecordInflowRequest represents a request to record a deposit
type RecordInflowRequest struct {
	CropTypeID   uuid.UUID         `json:"crop_type_id" binding:"required"`
	CustomerID   uuid.UUID         `json:"customer_id" binding:"required"`
	CustomerName string            `json:"customer_name" binding:"required,max=200"`
	DateAdded    *time.Time        `json:"date_added"`
	LabourCharge decimal.Decimal   `json:"labour_charge"`
	Allocations  []AllocationInput `json:"allocations" binding:"required,min=1,dive"`
}

// AllocationResponse represents one allocation of an inflow
type AllocationResponse struct {
	AreaID   uuid.UUID       `json:"area_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// InflowResponse represents an inflow in API responses
type InflowResponse struct {
	ID            uuid.UUID            `json:"id"`
	CropTypeID    uuid.UUID            `json:"crop_type_id"`
	CustomerID    uuid.UUID            `json:"customer_id"`
	CustomerName  string               `json:"customer_name"`
	DateAdded     time.Time            `json:"date_added"`
	LabourCharge  decimal.Decimal      `json:"labour_charge"`
	TotalQuantity decimal.Decimal      `json:"total_quantity"`
	Allocations   []AllocationResponse `json:"allocations"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	Version       int                  `json:"version"`
}

// RecordInflow records a deposit. The referenced areas are loaded with row
// locks inside one transaction, so the capacity check and the allocation
// write are a single atomic step: two concurrent deposits cannot both pass
// validation against the same free space.
func (s *InflowService) RecordInflow(ctx context.Context, tenantID uuid.UUID, req RecordInflowRequest) (*InflowResponse, error) {
	if _, err := s.cropRepo.FindByIDForTenant(ctx, tenantID, req.CropTypeID); err != nil {
		return nil, err
	}

	requests := make([]storage.AllocationRequest, len(req.Allocations))
	areaIDs := make([]uuid.UUID, len(req.Allocations))
	for i, a := range req.Allocations {
		requests[i] = storage.AllocationRequest{AreaID: a.AreaID, Quantity: a.Quantity}
		areaIDs[i] = a.AreaID
	}

	dateAdded := time.Now()
	if req.DateAdded != nil {
		dateAdded = *req.DateAdded
	}

	var inflow *storage.Inflow
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		areas, err := s.areaRepo.FindByIDsForUpdate(txCtx, tenantID, areaIDs)
		if err != nil {
			return err
		}
		areaMap := make(map[uuid.UUID]*storage.StorageArea, len(areas))
		for i := range areas {
			areaMap[areas[i].ID] = &areas[i]
		}

		allocator := storage.NewAllocator(storage.NewCapacityLedger(s.usageReader))
		allocations, err := allocator.Allocate(txCtx, areaMap, requests)
		if err != nil {
			return err
		}

		inflow, err = storage.NewInflow(
			tenantID,
			req.CropTypeID,
			req.CustomerID,
			req.CustomerName,
			dateAdded,
			req.LabourCharge,
			allocations,
		)
		if err != nil {
			return err
		}
		return s.inflowRepo.Save(txCtx, inflow)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, inflow)
	return toInflowResponse(inflow), nil
}

// GetInflow gets an inflow by ID
func (s *InflowService) GetInflow(ctx context.Context, tenantID, id uuid.UUID) (*InflowResponse, error) {
	inflow, err := s.inflowRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toInflowResponse(inflow), nil
}

// ListInflows lists a tenant's inflows with filtering and pagination
func (s *InflowService) ListInflows(ctx context.Context, tenantID uuid.UUID, filter storage.InflowFilter) (*shared.Paginated[InflowResponse], error) {
	inflows, err := s.inflowRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.inflowRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]InflowResponse, len(inflows))
	for i := range inflows {
		responses[i] = *toInflowResponse(&inflows[i])
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

// ListCustomerStock lists a customer's live inflows
func (s *InflowService) ListCustomerStock(ctx context.Context, tenantID, customerID uuid.UUID) ([]InflowResponse, error) {
	inflows, err := s.inflowRepo.FindByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	responses := make([]InflowResponse, len(inflows))
	for i := range inflows {
		responses[i] = *toInflowResponse(&inflows[i])
	}
	return responses, nil
}

func (s *InflowService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	if s.eventBus == nil {
		return
	}
	for _, event := range aggregate.GetDomainEvents() {
		// Event delivery is best-effort; handlers log their own failures.
		_ = s.eventBus.Publish(ctx, event)
	}
	aggregate.ClearDomainEvents()
}

func toInflowResponse(inflow *storage.Inflow) *InflowResponse {
	allocations := make([]AllocationResponse, len(inflow.Allocations))
	for i, a := range inflow.Allocations {
		allocations[i] = AllocationResponse{AreaID: a.AreaID, Quantity: a.Quantity}
	}
	return &InflowResponse{
		ID:            inflow.ID,
		CropTypeID:    inflow.CropTypeID,
		CustomerID:    inflow.CustomerID,
		CustomerName:  inflow.CustomerName,
		DateAdded:     inflow.DateAdded,
		LabourCharge:  inflow.LabourCharge,
		TotalQuantity: inflow.TotalQuantity(),
		Allocations:   allocations,
		CreatedAt:     inflow.CreatedAt,
		UpdatedAt:     inflow.UpdatedAt,
		Version:       inflow.Version,
	}
}
