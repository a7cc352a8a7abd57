package handler

import (
	billingapp "github.com/granary/backend/internal/application/billing"
	"github.com/granary/backend/internal/domain/billing"
	"github.com/gin-gonic/gin"
)

// BillingHandler handles settlement and payment endpoints
type BillingHandler struct {
	BaseHandler
	settlementService *billingapp.SettlementService
	paymentService    *billingapp.PaymentService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(settlementService *billingapp.SettlementService, paymentService *billingapp.PaymentService) *BillingHandler {
	return &BillingHandler{
		settlementService: settlementService,
		paymentService:    paymentService,
	}
}

// PreviewBill handles POST /api/v1/outflows/preview
func (h *BillingHandler) PreviewBill(c *gin.Context) {
	tenantID, ok := tenantOnly(c)
	if !ok {
		return
	}
	var req billingapp.PreviewBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.settlementService.PreviewBill(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Settle handles POST /api/v1/outflows
func (h *BillingHandler) Settle(c *gin.Context) {
	tenantID, ok := tenantOnly(c)
	if !ok {
		return
	}
	var req billingapp.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.settlementService.Settle(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetOutflow handles GET /api/v1/outflows/:id
func (h *BillingHandler) GetOutflow(c *gin.Context) {
	tenantID, id, ok := tenantAnd(c, "id")
	if !ok {
		return
	}

	resp, err := h.paymentService.GetOutflow(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListOutflows handles GET /api/v1/outflows
func (h *BillingHandler) ListOutflows(c *gin.Context) {
	tenantID, ok := tenantOnly(c)
	if !ok {
		return
	}
	listReq, err := parseListRequest(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := billing.OutflowFilter{Filter: toFilter(listReq)}
	if filter.CustomerID, err = parseUUIDQuery(c, "customer_id"); err != nil {
		h.BadRequest(c, "Invalid customer_id parameter")
		return
	}
	if filter.InflowID, err = parseUUIDQuery(c, "inflow_id"); err != nil {
		h.BadRequest(c, "Invalid inflow_id parameter")
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
	if status := c.Query("status"); status != "" {
		outflowStatus := billing.OutflowStatus(status)
		if !outflowStatus.IsValid() {
			h.BadRequest(c, "Invalid status parameter")
			return
		}
		filter.Status = &outflowStatus
	}
	filter.OutstandingOnly = c.Query("outstanding") == "true"

	resp, err := h.paymentService.ListOutflows(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp.Items, resp.Total, resp.Page, resp.PageSize)
}

// PayBill handles POST /api/v1/outflows/:id/payments
func (h *BillingHandler) PayBill(c *gin.Context) {
	tenantID, id, ok := tenantAnd(c, "id")
	if !ok {
		return
	}
	var req billingapp.PayBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.paymentService.PayBill(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RecordBulkPayment handles POST /api/v1/payments
func (h *BillingHandler) RecordBulkPayment(c *gin.Context) {
	tenantID, ok := tenantOnly(c)
	if !ok {
		return
	}
	var req billingapp.BulkPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.paymentService.RecordBulkPayment(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListOutstanding handles GET /api/v1/customers/:id/outstanding
func (h *BillingHandler) ListOutstanding(c *gin.Context) {
	tenantID, customerID, ok := tenantAnd(c, "id")
	if !ok {
		return
	}

	resp, err := h.paymentService.ListOutstanding(c.Request.Context(), tenantID, customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListCustomerPayments handles GET /api/v1/customers/:id/payments
func (h *BillingHandler) ListCustomerPayments(c *gin.Context) {
	tenantID, customerID, ok := tenantAnd(c, "id")
	if !ok {
		return
	}
	listReq, err := parseListRequest(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.paymentService.ListPaymentsByCustomer(c.Request.Context(), tenantID, customerID, toFilter(listReq))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
