// Package errors provides standardized error handling for the resume matching API.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"

	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeDuplicateApplication ErrorCode = "DUPLICATE_APPLICATION"
	ErrCodeInvalidStatus        ErrorCode = "INVALID_STATUS"
	ErrCodeUnsupportedFileType  ErrorCode = "UNSUPPORTED_FILE_TYPE"
	ErrCodeFileTooLarge         ErrorCode = "FILE_TOO_LARGE"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeCacheFailed              ErrorCode = "CACHE_FAILED"
	ErrCodeStorageFailed            ErrorCode = "STORAGE_FAILED"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeUpstreamError  ErrorCode = "UPSTREAM_ERROR"
	ErrCodeUpstreamAuth   ErrorCode = "UPSTREAM_AUTH_FAILED"
	ErrCodeParseError     ErrorCode = "PARSE_ERROR"
	ErrCodeAITimeout      ErrorCode = "AI_TIMEOUT"
	ErrCodeExtractionFail ErrorCode = "TEXT_EXTRACTION_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewUnauthorizedError creates a non-retryable authentication error.
func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Authentication required",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewForbiddenError creates a non-retryable authorization error.
func NewForbiddenError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeForbidden,
		Message:   "Not allowed to access this resource",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError creates a non-retryable not found error.
func NewNotFoundError(resource, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateApplicationError creates a non-retryable duplicate application error.
func NewDuplicateApplicationError(userID, jobID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateApplication,
		Message:   "Application already exists for this job",
		Details:   fmt.Sprintf("userId: %s, jobId: %s", userID, jobID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidStatusError creates a non-retryable status transition error.
func NewInvalidStatusError(status string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidStatus,
		Message:   "Invalid application status",
		Details:   fmt.Sprintf("status: %s", status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnsupportedFileTypeError creates a non-retryable file type error.
func NewUnsupportedFileTypeError(fileType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedFileType,
		Message:   "Unsupported resume file type",
		Details:   fmt.Sprintf("fileType: %s, allowed: pdf, doc, docx", fileType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFileTooLargeError creates a non-retryable file size error.
func NewFileTooLargeError(size, limit int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeFileTooLarge,
		Message:   "Resume file exceeds size limit",
		Details:   fmt.Sprintf("size: %d, limit: %d", size, limit),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheFailedError creates a retryable document store error.
func NewCacheFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheFailed,
		Message:   "Document store operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageFailedError creates a retryable object storage error.
func NewStorageFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageFailed,
		Message:   "Object storage operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Search query error",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexNotFoundError creates a non-retryable index not found error.
func NewIndexNotFoundError(indexName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexNotFound,
		Message:   "Search index not found",
		Details:   fmt.Sprintf("indexName: %s", indexName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamError creates a retryable AI provider error.
func NewUpstreamError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamError,
		Message:   fmt.Sprintf("AI provider '%s' error", provider),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamAuthError creates a non-retryable AI provider auth error.
func NewUpstreamAuthError(provider string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamAuth,
		Message:   fmt.Sprintf("AI provider '%s' rejected credentials", provider),
		Details:   "check api key configuration",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewParseError creates a non-retryable AI response parse error.
func NewParseError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeParseError,
		Message:   "Failed to parse AI response",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAITimeoutError creates a retryable AI call timeout error.
func NewAITimeoutError(provider string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAITimeout,
		Message:   fmt.Sprintf("AI provider '%s' timeout", provider),
		Details:   "call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTextExtractionFailedError creates a non-retryable document extraction error.
func NewTextExtractionFailedError(fileType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionFail,
		Message:   "Failed to extract text from resume file",
		Details:   fmt.Sprintf("fileType: %s, error: %s", fileType, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError creates a non-retryable internal error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected internal error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Status Mapping
// ==========================

// HTTPStatusMapping maps internal error codes to HTTP status codes.
var HTTPStatusMapping = map[ErrorCode]int{
	ErrCodeUnauthorized:             http.StatusUnauthorized,
	ErrCodeForbidden:                http.StatusForbidden,
	ErrCodeNotFound:                 http.StatusNotFound,
	ErrCodeValidationFailed:         http.StatusBadRequest,
	ErrCodeInvalidStatus:            http.StatusBadRequest,
	ErrCodeUnsupportedFileType:      http.StatusBadRequest,
	ErrCodeFileTooLarge:             http.StatusRequestEntityTooLarge,
	ErrCodeDuplicateApplication:     http.StatusConflict,
	ErrCodeUpstreamError:            http.StatusBadGateway,
	ErrCodeUpstreamAuth:             http.StatusBadGateway,
	ErrCodeParseError:               http.StatusBadGateway,
	ErrCodeAITimeout:                http.StatusGatewayTimeout,
	ErrCodeExtractionFail:           http.StatusUnprocessableEntity,
	ErrCodeDatabaseConnectionFailed: http.StatusInternalServerError,
	ErrCodeQueryExecutionFailed:     http.StatusInternalServerError,
	ErrCodeDatabaseInsertFailed:     http.StatusInternalServerError,
	ErrCodeCacheFailed:              http.StatusInternalServerError,
	ErrCodeStorageFailed:            http.StatusInternalServerError,
	ErrCodeSearchQueryFailed:        http.StatusInternalServerError,
	ErrCodeIndexNotFound:            http.StatusInternalServerError,
	ErrCodeNotificationSendFailed:   http.StatusInternalServerError,
	ErrCodeInternal:                 http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func HTTPStatus(code ErrorCode) int {
	if status, ok := HTTPStatusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryable checks if an error is a retryable StandardError.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case codeStr == "UNAUTHORIZED" || codeStr == "FORBIDDEN":
		return "AUTH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "CACHE") || strings.Contains(codeStr, "STORAGE"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "UPSTREAM") || strings.Contains(codeStr, "AI_") || strings.Contains(codeStr, "PARSE") || strings.Contains(codeStr, "EXTRACTION"):
		return "AI"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") ||
		strings.Contains(codeStr, "DUPLICATE") || strings.Contains(codeStr, "FILE"):
		return "VALIDATION"
	case codeStr == "NOT_FOUND":
		return "RESOURCE"
	default:
		return "INTERNAL"
	}
}
