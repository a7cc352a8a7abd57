package handler

import (
	"errors"
	"net/http"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/interfaces/http/dto"
	"github.com/granary/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
		dto.ErrCodeBadRequest, message, middleware.GetRequestID(c)))
}

// HandleError converts domain errors to HTTP responses. Unknown error
// types land on 500 without leaking internals.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		c.JSON(dto.GetHTTPStatus(domainErr.Code), dto.NewErrorResponse(
			domainErr.Code, domainErr.Message, middleware.GetRequestID(c)))
		return
	}

	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.ErrCodeInternal, "An unexpected error occurred", middleware.GetRequestID(c)))
}

// tenantAnd resolves the effective tenant plus a UUID path parameter
func tenantAnd(c *gin.Context, param string) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := middleware.EffectiveTenantID(c)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			c.JSON(http.StatusForbidden, dto.NewErrorResponse(
				domainErr.Code, domainErr.Message, middleware.GetRequestID(c)))
			return uuid.Nil, uuid.Nil, false
		}
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			shared.CodeUnauthorized, "Missing tenant context", middleware.GetRequestID(c)))
		return uuid.Nil, uuid.Nil, false
	}
	if param == "" {
		return tenantID, uuid.Nil, true
	}
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.ErrCodeBadRequest, "Invalid "+param+" parameter", middleware.GetRequestID(c)))
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, id, true
}

// tenantOnly parses the caller's tenant from the JWT claims
func tenantOnly(c *gin.Context) (uuid.UUID, bool) {
	tenantID, _, ok := tenantAnd(c, "")
	return tenantID, ok
}

// parseListRequest binds pagination query params with defaults applied
func parseListRequest(c *gin.Context) (dto.ListRequest, error) {
	req := dto.ListRequest{}
	if err := c.ShouldBindQuery(&req); err != nil {
		return req, err
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}
	return req, nil
}

func toFilter(req dto.ListRequest) shared.Filter {
	return shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Search:   req.Search,
	}
}
