package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the standardized API error response body.
// Detail carries the underlying error text and is omitted in release mode.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Detail  string `json:"error,omitempty"`
}

// RespondWithError sends an error response with the standard envelope.
func RespondWithError(c *gin.Context, statusCode int, message string, err error) {
	body := Envelope{
		Success: false,
		Message: message,
	}
	if err != nil && gin.Mode() != gin.ReleaseMode {
		body.Detail = err.Error()
	}
	c.JSON(statusCode, body)
}

// Unauthorized sends a 401 response.
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, message, nil)
}

// Forbidden sends a 403 response.
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, http.StatusForbidden, message, nil)
}

// NotFound sends a 404 response.
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, message, nil)
}

// BadRequest sends a 400 response.
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, message, nil)
}

// Conflict sends a 409 response.
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "Resource conflict"
	}
	RespondWithError(c, http.StatusConflict, message, nil)
}

// RateLimited sends a 429 response.
func RateLimited(c *gin.Context, message string) {
	if message == "" {
		message = "API rate limit exceeded"
	}
	RespondWithError(c, http.StatusTooManyRequests, message, nil)
}

// InternalError sends a 500 response.
func InternalError(c *gin.Context, message string, err error) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, message, err)
}

// ServiceUnavailable sends a 503 response.
func ServiceUnavailable(c *gin.Context, message string, err error) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	RespondWithError(c, http.StatusServiceUnavailable, message, err)
}
