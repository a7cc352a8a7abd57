package handler

import (
	"time"

	storageapp "github.com/granary/backend/internal/application/storage"
	"github.com/granary/backend/internal/domain/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InflowHandler handles inflow endpoints
type InflowHandler struct {
	BaseHandler
	inflowService *storageapp.InflowService
}

// NewInflowHandler creates a new InflowHandler
func NewInflowHandler(inflowService *storageapp.InflowService) *InflowHandler {
	return &InflowHandler{inflowService: inflowService}
}

// parseUUIDQuery parses an optional UUID query parameter
func parseUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseDateQuery parses an optional YYYY-MM-DD query parameter
func parseDateQuery(c *gin.Context, name string) (*time.Time, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

// RecordInflow handles POST /api/v1/inflows
func (h *InflowHandler) RecordInflow(c *gin.Context) {
	tenantID, ok := tenantOnly(c)
	if !ok {
		return
	}
	var req storageapp.RecordInflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.inflowService.RecordInflow(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetInflow handles GET /api/v1/inflows/:id
func (h *InflowHandler) GetInflow(c *gin.Context) {
	tenantID, id, ok := tenantAnd(c, "id")
	if !ok {
		return
	}

	resp, err := h.inflowService.GetInflow(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListInflows handles GET /api/v1/inflows
func (h *InflowHandler) ListInflows(c *gin.Context) {
	tenantID, ok := tenantOnly(c)
	if !ok {
		return
	}
	listReq, err := parseListRequest(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := storage.InflowFilter{Filter: toFilter(listReq)}
	if filter.CustomerID, err = parseUUIDQuery(c, "customer_id"); err != nil {
		h.BadRequest(c, "Invalid customer_id parameter")
		return
	}
	if filter.CropTypeID, err = parseUUIDQuery(c, "crop_type_id"); err != nil {
		h.BadRequest(c, "Invalid crop_type_id parameter")
		return
	}
	if filter.AreaID, err = parseUUIDQuery(c, "area_id"); err != nil {
		h.BadRequest(c, "Invalid area_id parameter")
		return
	}
	if filter.FromDate, err = parseDateQuery(c, "from_date"); err != nil {
		h.BadRequest(c, "Invalid from_date parameter, expected YYYY-MM-DD")
		return
	}
	if filter.ToDate, err = parseDateQuery(c, "to_date"); err != nil {
		h.BadRequest(c, "Invalid to_date parameter, expected YYYY-MM-DD")
		return
	}

	resp, err := h.inflowService.ListInflows(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp.Items, resp.Total, resp.Page, resp.PageSize)
}

// ListCustomerStock handles GET /api/v1/customers/:id/stock
func (h *InflowHandler) ListCustomerStock(c *gin.Context) {
	tenantID, customerID, ok := tenantAnd(c, "id")
	if !ok {
		return
	}

	resp, err := h.inflowService.ListCustomerStock(c.Request.Context(), tenantID, customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
