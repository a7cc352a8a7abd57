package handler

import (
	storageapp "github.com/granary/backend/internal/application/storage"
	"github.com/gin-gonic/gin"
)

// StorageHandler handles storage location, area and crop type endpoints
type StorageHandler struct {
	BaseHandler
	storageService *storageapp.StorageService
}

// NewStorageHandler creates a new StorageHandler
func NewStorageHandler(storageService *storageapp.StorageService) *StorageHandler {
	return &StorageHandler{storageService: storageService}
}

// CreateLocation handles POST /api/v1/locations
func (h *StorageHandler) CreateLocation(c *gin.Context) {
	tenantID, ok := tenantOnly(c)
	if !ok {
		return
	}
	var req storageapp.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.storageService.CreateLocation(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateLocation handles PUT /api/v1/locations/:id
func (h *StorageHandler) UpdateLocation(c *gin.Context) {
	tenantID, id, ok := tenantAnd(c, "id")
	if !ok {
		return
	}
	var req storageapp.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.storageService.UpdateLocation(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetLocation handles GET /api/v1/locations/:id
func (h *StorageHandler) GetLocation(c *gin.Context) {
	tenantID, id, ok := tenantAnd(c, "id")
	if !ok {
		return
	}

	resp, err := h.storageService.GetLocation(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListLocations handles GET /api/v1/locations
func (h *StorageHandler) ListLocations(c *gin.Context) {
	tenantID, ok := tenantOnly(c)
	if !ok {
		return
	}
	listReq, err := parseListRequest(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.storageService.ListLocations(c.Request.Context(), tenantID, toFilter(listReq))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteLocation handles DELETE /api/v1/locations/:id
func (h *StorageHandler) DeleteLocation(c *gin.Context) {
	tenantID, id, ok := tenantAnd(c, "id")
	if !ok {
		return
	}

	if err := h.storageService.DeleteLocation(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateArea handles POST /api/v1/areas
func (h *StorageHandler) CreateArea(c *gin.Context) {
	tenantID, ok := tenantOnly(c)
	if !ok {
		return
	}
	var req storageapp.CreateAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.storageService.CreateArea(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ResizeArea handles PUT /api/v1/areas/:id
func (h *StorageHandler) ResizeArea(c *gin.Context) {
	tenantID, id, ok := tenantAnd(c, "id")
	if !ok {
		return
	}
	var req storageapp.ResizeAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.storageService.ResizeArea(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetArea handles GET /api/v1/areas/:id
func (h *StorageHandler) GetArea(c *gin.Context) {
	tenantID, id, ok := tenantAnd(c, "id")
	if !ok {
		return
	}

	resp, err := h.storageService.GetArea(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListAreasByLocation handles GET /api/v1/locations/:id/areas
func (h *StorageHandler) ListAreasByLocation(c *gin.Context) {
	tenantID, locationID, ok := tenantAnd(c, "id")
	if !ok {
		return
	}

	resp, err := h.storageService.ListAreasByLocation(c.Request.Context(), tenantID, locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteArea handles DELETE /api/v1/areas/:id
func (h *StorageHandler) DeleteArea(c *gin.Context) {
	tenantID, id, ok := tenantAnd(c, "id")
	if !ok {
		return
	}

	if err := h.storageService.DeleteArea(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateCropType handles POST /api/v1/crop-types
func (h *StorageHandler) CreateCropType(c *gin.Context) {
	tenantID, ok := tenantOnly(c)
	if !ok {
		return
	}
	var req storageapp.CreateCropTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.storageService.CreateCropType(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateCropType handles PUT /api/v1/crop-types/:id
func (h *StorageHandler) UpdateCropType(c *gin.Context) {
	tenantID, id, ok := tenantAnd(c, "id")
	if !ok {
		return
	}
	var req storageapp.UpdateCropTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.storageService.UpdateCropType(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetCropType handles GET /api/v1/crop-types/:id
func (h *StorageHandler) GetCropType(c *gin.Context) {
	tenantID, id, ok := tenantAnd(c, "id")
	if !ok {
		return
	}

	resp, err := h.storageService.GetCropType(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListCropTypes handles GET /api/v1/crop-types
func (h *StorageHandler) ListCropTypes(c *gin.Context) {
	tenantID, ok := tenantOnly(c)
	if !ok {
		return
	}
	listReq, err := parseListRequest(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.storageService.ListCropTypes(c.Request.Context(), tenantID, toFilter(listReq))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteCropType handles DELETE /api/v1/crop-types/:id
func (h *StorageHandler) DeleteCropType(c *gin.Context) {
	tenantID, id, ok := tenantAnd(c, "id")
	if !ok {
		return
	}

	if err := h.storageService.DeleteCropType(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
