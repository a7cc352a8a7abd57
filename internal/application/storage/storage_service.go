package storage

import (
	"context"
	"time"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/domain/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StorageService provides application-level operations over the storage
// catalogue: locations, areas and crop types.
type StorageService struct {
	locationRepo storage.StorageLocationRepository
	areaRepo     storage.StorageAreaRepository
	cropTypeRepo storage.CropTypeRepository
	usageReader  storage.AreaUsageReader
}

// NewStorageService creates a new StorageService
func NewStorageService(
	locationRepo storage.StorageLocationRepository,
	areaRepo storage.StorageAreaRepository,
	cropTypeRepo storage.CropTypeRepository,
	usageReader storage.AreaUsageReader,
) *StorageService {
	return &StorageService{
		locationRepo: locationRepo,
		areaRepo:     areaRepo,
		cropTypeRepo: cropTypeRepo,
		usageReader:  usageReader,
	}
}

// ===================== Storage Location Operations =====================

// LocationResponse represents a storage location in API responses
type LocationResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateLocationRequest represents a request to create a storage location
type CreateLocationRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Address string `json:"address" binding:"max=500"`
}

// UpdateLocationRequest represents a request to rename a storage location
type UpdateLocationRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// CreateLocation creates a new storage location for a tenant
func (s *StorageService) CreateLocation(ctx context.Context, tenantID uuid.UUID, req CreateLocationRequest) (*LocationResponse, error) {
	location, err := storage.NewStorageLocation(tenantID, req.Name, req.Address)
	if err != nil {
		return nil, err
	}
	if err := s.locationRepo.Save(ctx, location); err != nil {
		return nil, err
	}
	return toLocationResponse(location), nil
}

// UpdateLocation renames a storage location
func (s *StorageService) UpdateLocation(ctx context.Context, tenantID, id uuid.UUID, req UpdateLocationRequest) (*LocationResponse, error) {
	location, err := s.locationRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := location.Rename(req.Name); err != nil {
		return nil, err
	}
	if err := s.locationRepo.Save(ctx, location); err != nil {
		return nil, err
	}
	return toLocationResponse(location), nil
}

// GetLocation gets a storage location by ID
func (s *StorageService) GetLocation(ctx context.Context, tenantID, id uuid.UUID) (*LocationResponse, error) {
	location, err := s.locationRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toLocationResponse(location), nil
}

// ListLocations lists a tenant's storage locations
func (s *StorageService) ListLocations(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]LocationResponse, error) {
	locations, err := s.locationRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]LocationResponse, len(locations))
	for i := range locations {
		responses[i] = *toLocationResponse(&locations[i])
	}
	return responses, nil
}

// DeleteLocation removes a storage location. Locations that still hold
// areas with live stock are protected at the database level.
func (s *StorageService) DeleteLocation(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.locationRepo.DeleteForTenant(ctx, tenantID, id)
}

func toLocationResponse(location *storage.StorageLocation) *LocationResponse {
	return &LocationResponse{
		ID:        location.ID,
		Name:      location.Name,
		Address:   location.Address,
		CreatedAt: location.CreatedAt,
		UpdatedAt: location.UpdatedAt,
	}
}

// ===================== Storage Area Operations =====================

// AreaResponse represents a storage area in API responses. Used and
// Available are derived from live allocations at read time.
type AreaResponse struct {
	ID         uuid.UUID       `json:"id"`
	LocationID uuid.UUID       `json:"location_id"`
	Name       string          `json:"name"`
	Capacity   decimal.Decimal `json:"capacity"`
	Used       decimal.Decimal `json:"used"`
	Available  decimal.Decimal `json:"available"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CreateAreaRequest represents a request to create a storage area
type CreateAreaRequest struct {
	LocationID uuid.UUID       `json:"location_id" binding:"required"`
	Name       string          `json:"name" binding:"required,max=200"`
	Capacity   decimal.Decimal `json:"capacity" binding:"required"`
}

// ResizeAreaRequest represents a request to change an area's capacity
type ResizeAreaRequest struct {
	Capacity decimal.Decimal `json:"capacity" binding:"required"`
}

// CreateArea creates a new storage area within a location
func (s *StorageService) CreateArea(ctx context.Context, tenantID uuid.UUID, req CreateAreaRequest) (*AreaResponse, error) {
	if _, err := s.locationRepo.FindByIDForTenant(ctx, tenantID, req.LocationID); err != nil {
		return nil, err
	}
	area, err := storage.NewStorageArea(tenantID, req.LocationID, req.Name, req.Capacity)
	if err != nil {
		return nil, err
	}
	if err := s.areaRepo.Save(ctx, area); err != nil {
		return nil, err
	}
	return s.toAreaResponse(ctx, area)
}

// ResizeArea changes an area's capacity. Shrinking below the quantity
// currently stored there is rejected.
func (s *StorageService) ResizeArea(ctx context.Context, tenantID, id uuid.UUID, req ResizeAreaRequest) (*AreaResponse, error) {
	area, err := s.areaRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	used, err := s.usageReader.UsedQuantity(ctx, tenantID, area.ID)
	if err != nil {
		return nil, err
	}
	if req.Capacity.LessThan(used) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput,
			"Cannot shrink area below the "+used.String()+" bags currently stored in it")
	}
	if err := area.Resize(req.Capacity); err != nil {
		return nil, err
	}
	if err := s.areaRepo.Save(ctx, area); err != nil {
		return nil, err
	}
	return s.toAreaResponse(ctx, area)
}

// GetArea gets a storage area by ID with its derived usage
func (s *StorageService) GetArea(ctx context.Context, tenantID, id uuid.UUID) (*AreaResponse, error) {
	area, err := s.areaRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.toAreaResponse(ctx, area)
}

// ListAreasByLocation lists a location's areas with their derived usage,
// answered by one aggregation query for the whole set.
func (s *StorageService) ListAreasByLocation(ctx context.Context, tenantID, locationID uuid.UUID) ([]AreaResponse, error) {
	areas, err := s.areaRepo.FindByLocation(ctx, tenantID, locationID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(areas))
	for i := range areas {
		ids[i] = areas[i].ID
	}
	usage, err := s.usageReader.UsedQuantityByArea(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	responses := make([]AreaResponse, len(areas))
	for i := range areas {
		used := usage[areas[i].ID]
		responses[i] = AreaResponse{
			ID:         areas[i].ID,
			LocationID: areas[i].LocationID,
			Name:       areas[i].Name,
			Capacity:   areas[i].Capacity,
			Used:       used,
			Available:  areas[i].Capacity.Sub(used),
			CreatedAt:  areas[i].CreatedAt,
			UpdatedAt:  areas[i].UpdatedAt,
		}
	}
	return responses, nil
}

// DeleteArea removes a storage area. Areas still referenced by live
// allocations cannot be deleted.
func (s *StorageService) DeleteArea(ctx context.Context, tenantID, id uuid.UUID) error {
	used, err := s.usageReader.UsedQuantity(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if used.IsPositive() {
		return shared.NewDomainError(shared.CodeInvalidInput,
			"Cannot delete an area that still holds "+used.String()+" bags")
	}
	return s.areaRepo.DeleteForTenant(ctx, tenantID, id)
}

func (s *StorageService) toAreaResponse(ctx context.Context, area *storage.StorageArea) (*AreaResponse, error) {
	used, err := s.usageReader.UsedQuantity(ctx, area.TenantID, area.ID)
	if err != nil {
		return nil, err
	}
	return &AreaResponse{
		ID:         area.ID,
		LocationID: area.LocationID,
		Name:       area.Name,
		Capacity:   area.Capacity,
		Used:       used,
		Available:  area.Capacity.Sub(used),
		CreatedAt:  area.CreatedAt,
		UpdatedAt:  area.UpdatedAt,
	}, nil
}

// ===================== Crop Type Operations =====================

// CropTypeResponse represents a crop type in API responses
type CropTypeResponse struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Rates           storage.RateCard `json:"rates"`
	InsurancePerBag decimal.Decimal  `json:"insurance_per_bag"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// CreateCropTypeRequest represents a request to create a crop type
type CreateCropTypeRequest struct {
	Name            string           `json:"name" binding:"required,max=200"`
	Rates           storage.RateCard `json:"rates" binding:"required"`
	InsurancePerBag decimal.Decimal  `json:"insurance_per_bag"`
}

// UpdateCropTypeRequest represents a request to update a crop type's rates
type UpdateCropTypeRequest struct {
	Rates           storage.RateCard `json:"rates" binding:"required"`
	InsurancePerBag decimal.Decimal  `json:"insurance_per_bag"`
}

// CreateCropType creates a new crop type for a tenant
func (s *StorageService) CreateCropType(ctx context.Context, tenantID uuid.UUID, req CreateCropTypeRequest) (*CropTypeResponse, error) {
	cropType, err := storage.NewCropType(tenantID, req.Name, req.Rates, req.InsurancePerBag)
	if err != nil {
		return nil, err
	}
	if err := s.cropTypeRepo.Save(ctx, cropType); err != nil {
		return nil, err
	}
	return toCropTypeResponse(cropType), nil
}

// UpdateCropType replaces a crop type's rate card. Bills already issued
// keep the figures they were computed from.
func (s *StorageService) UpdateCropType(ctx context.Context, tenantID, id uuid.UUID, req UpdateCropTypeRequest) (*CropTypeResponse, error) {
	cropType, err := s.cropTypeRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := cropType.UpdateRates(req.Rates, req.InsurancePerBag); err != nil {
		return nil, err
	}
	if err := s.cropTypeRepo.Save(ctx, cropType); err != nil {
		return nil, err
	}
	return toCropTypeResponse(cropType), nil
}

// GetCropType gets a crop type by ID
func (s *StorageService) GetCropType(ctx context.Context, tenantID, id uuid.UUID) (*CropTypeResponse, error) {
	cropType, err := s.cropTypeRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toCropTypeResponse(cropType), nil
}

// ListCropTypes lists a tenant's crop types
func (s *StorageService) ListCropTypes(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]CropTypeResponse, error) {
	cropTypes, err := s.cropTypeRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]CropTypeResponse, len(cropTypes))
	for i := range cropTypes {
		responses[i] = *toCropTypeResponse(&cropTypes[i])
	}
	return responses, nil
}

// DeleteCropType removes a crop type
func (s *StorageService) DeleteCropType(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.cropTypeRepo.DeleteForTenant(ctx, tenantID, id)
}

func toCropTypeResponse(cropType *storage.CropType) *CropTypeResponse {
	return &CropTypeResponse{
		ID:              cropType.ID,
		Name:            cropType.Name,
		Rates:           cropType.Rates,
		InsurancePerBag: cropType.InsurancePerBag,
		CreatedAt:       cropType.CreatedAt,
		UpdatedAt:       cropType.UpdatedAt,
	}
}
