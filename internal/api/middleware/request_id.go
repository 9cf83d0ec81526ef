package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the header name for request ID.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the context key for request ID.
	RequestIDKey = "request_id"
)

// deliveryHeaders carry the ids repository hosts assign to webhook deliveries.
var deliveryHeaders = []string{"X-GitHub-Delivery", "X-Gitlab-Event-UUID"}

// RequestID injects a request ID into each request. A client supplied X-Request-ID wins,
// then a webhook delivery id, otherwise a new UUID is generated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		for _, h := range deliveryHeaders {
			if requestID != "" {
				break
			}
			requestID = c.GetHeader(h)
		}
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		c.Next()
	}
}
