// Package response holds the JSON envelopes shared by the HTTP handlers.
//
// Management endpoints answer {data,message} or {error,details,trace_id}.
// Webhook and tool endpoints answer the flat {success,message} acknowledgement
// that chat-bot and repository-host callers expect.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestIDKey mirrors middleware.RequestIDKey without importing the middleware package.
const requestIDKey = "request_id"

// SuccessResponse represents a successful API response.
type SuccessResponse struct {
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse represents an error API response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// WebhookAck is the body every inbound webhook answer carries.
type WebhookAck struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"GitHub事件处理: push"`
} // @name WebhookAck

// Success sends data with statusCode.
func Success(c *gin.Context, statusCode int, data interface{}, message string) {
	c.JSON(statusCode, SuccessResponse{Data: data, Message: message})
}

// OK sends data with 200.
func OK(c *gin.Context, data interface{}) {
	Success(c, http.StatusOK, data, "")
}

// Created sends a freshly created resource with 201.
func Created(c *gin.Context, data interface{}, message string) {
	Success(c, http.StatusCreated, data, message)
}

// Accepted reports that work was queued and will finish after the response.
func Accepted(c *gin.Context, message string) {
	Success(c, http.StatusAccepted, nil, message)
}

// NoContent sends an empty 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error body tagged with the request's trace id.
func Error(c *gin.Context, statusCode int, err string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		Error:   err,
		Details: details,
		TraceID: GetRequestID(c),
	})
}

// BadRequest sends a 400 with details.
func BadRequest(c *gin.Context, err string, details interface{}) {
	Error(c, http.StatusBadRequest, err, details)
}

// NotFound sends a 404.
func NotFound(c *gin.Context, err string) {
	Error(c, http.StatusNotFound, err, nil)
}

// InternalServerError sends a 500. The cause stays in the server log.
func InternalServerError(c *gin.Context, err string) {
	Error(c, http.StatusInternalServerError, err, nil)
}

// Ack sends a webhook acknowledgement.
func Ack(c *gin.Context, statusCode int, success bool, message string) {
	c.JSON(statusCode, WebhookAck{Success: success, Message: message})
}

// Acknowledged answers 200 {success:true}.
func Acknowledged(c *gin.Context, message string) {
	Ack(c, http.StatusOK, true, message)
}

// Declined answers 200 {success:false}. Callers retry on non-2xx, so handled
// failures stay 200.
func Declined(c *gin.Context, message string) {
	Ack(c, http.StatusOK, false, message)
}

// GetRequestID returns the id set by the request id middleware, or a fresh UUID
// when the middleware did not run.
func GetRequestID(c *gin.Context) string {
	if id := c.GetString(requestIDKey); id != "" {
		return id
	}
	return uuid.New().String()
}
