// internal/common/errors/handler.go
package errors

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorHandler converts request errors into JSON error responses
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// ErrorResponse is the JSON body returned for any failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// HandleRequestError handles any error raised while serving a request
func (h *ErrorHandler) HandleRequestError(c *gin.Context, err error) {
	// Normalize to StandardError
	stdErr := h.normalizeError(err)

	status := HTTPStatus(stdErr.Code)

	h.logError(c, stdErr, status)

	body := ErrorResponse{
		Error: stdErr.Message,
		Code:  string(stdErr.Code),
	}
	// Internal details stay out of 5xx responses
	if status < 500 {
		body.Details = stdErr.Details
	}

	c.AbortWithStatusJSON(status, body)
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) logError(c *gin.Context, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"method":        c.Request.Method,
		"path":          c.FullPath(),
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if status >= 500 {
		h.logger.Error("Request failed", fields)
	} else {
		h.logger.Warn("Request rejected", fields)
	}
}
