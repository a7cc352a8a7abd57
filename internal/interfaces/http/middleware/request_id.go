package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Request ID keys
const (
	RequestIDContextKey = "request_id"
	RequestIDHeader     = "X-Request-ID"
)

// RequestID assigns every request an ID, honoring one supplied by the
// caller. The ID is echoed back in the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDContextKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// GetRequestID returns the request ID assigned to this request
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDContextKey)
}
