// Package errors provides standardized error handling for the dispatch worker and the REST services.
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

// Dispatch taxonomy
const (
	ErrCodeMalformedEvent     ErrorCode = "MALFORMED_EVENT"
	ErrCodeResolutionFailure  ErrorCode = "RESOLUTION_FAILURE"
	ErrCodeNoDeviceToken      ErrorCode = "NO_DEVICE_TOKEN"
	ErrCodePushFailure        ErrorCode = "PUSH_FAILURE"
	ErrCodeUnexpectedFailure  ErrorCode = "UNEXPECTED_FAILURE"
	ErrCodeAuditWriteFailed   ErrorCode = "AUDIT_WRITE_FAILED"
	ErrCodeSubscriptionFailed ErrorCode = "SUBSCRIPTION_CHECK_FAILED"
)

// Persistence and API codes
const (
	ErrCodeDatabaseQueryFailed  ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeDatabaseInsertFailed ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeResourceNotFound     ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeDuplicateResource    ErrorCode = "DUPLICATE_RESOURCE"
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeBadRequest           ErrorCode = "BAD_REQUEST"
	ErrCodeExternalService      ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout              ErrorCode = "TIMEOUT_ERROR"
	ErrCodeAuthentication       ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeSearchQueryFailed    ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeServiceUnavailable   ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
// Message is safe to show to API clients; Details is for logs.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches any StandardError carrying the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Unwrap exposes the underlying failure to errors.Is and errors.As.
func (e *StandardError) Unwrap() error {
	return e.Cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// wrapError keeps err as the cause and its text as the details.
func wrapError(code ErrorCode, message, details string, err error, retryable bool) *StandardError {
	e := newError(code, message, details, retryable)
	e.Cause = err
	return e
}

// NewMalformedEventError marks an inbound event that cannot be dispatched.
func NewMalformedEventError(details string) *StandardError {
	return newError(ErrCodeMalformedEvent, "Malformed notification event", details, false)
}

// NewResolutionFailureError wraps a recoverable collaborator failure.
func NewResolutionFailureError(step string, err error) *StandardError {
	return wrapError(ErrCodeResolutionFailure, fmt.Sprintf("Resolution of %s failed", step), err.Error(), err, true)
}

func NewNoDeviceTokenError(userID string) *StandardError {
	return newError(ErrCodeNoDeviceToken, "No device token found", fmt.Sprintf("userId: %s", userID), false)
}

func NewPushFailureError(err error) *StandardError {
	return wrapError(ErrCodePushFailure, "Push notification delivery failed", err.Error(), err, false)
}

func NewUnexpectedFailureError(details string) *StandardError {
	return newError(ErrCodeUnexpectedFailure, "Unexpected dispatch failure", details, false)
}

func NewAuditWriteFailedError(err error) *StandardError {
	return wrapError(ErrCodeAuditWriteFailed, "Failed to record notification history", err.Error(), err, true)
}

func NewSubscriptionCheckFailedError(err error) *StandardError {
	return wrapError(ErrCodeSubscriptionFailed, "Database error during subscription check", err.Error(), err, true)
}

// NewDatabaseQueryFailedError creates a retryable query execution error.
func NewDatabaseQueryFailedError(queryType string, err error) *StandardError {
	return wrapError(ErrCodeDatabaseQueryFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), err, true)
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return wrapError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), err, true)
}

// NewResourceNotFoundError carries the client-facing message, e.g. "Notification not found".
func NewResourceNotFoundError(message, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, message, details, false)
}

func NewDuplicateResourceError(message, details string) *StandardError {
	return newError(ErrCodeDuplicateResource, message, details, false)
}

func NewValidationError(message string) *StandardError {
	return newError(ErrCodeValidationFailed, message, "", false)
}

func NewBadRequestError(message string) *StandardError {
	return newError(ErrCodeBadRequest, message, "", false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return wrapError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), err, true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return wrapError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), err, true)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthentication, "Authentication failed", details, false)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return wrapError(ErrCodeSearchQueryFailed, "Search query failed",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), err, true)
}

func NewServiceUnavailableError(message string) *StandardError {
	return newError(ErrCodeServiceUnavailable, message, "", true)
}

// ==========================
// 3. Utility Functions
// ==========================

// HTTPStatus maps an error code to the status the REST services answer with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeResourceNotFound, ErrCodeNoDeviceToken:
		return http.StatusNotFound
	case ErrCodeDuplicateResource, ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeValidationFailed, ErrCodeMalformedEvent:
		return http.StatusUnprocessableEntity
	case ErrCodeAuthentication:
		return http.StatusUnauthorized
	case ErrCodeExternalService, ErrCodeResolutionFailure:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryableErrorCode reports whether a failure with this code is worth retrying later.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeResolutionFailure,
		ErrCodeAuditWriteFailed,
		ErrCodeSubscriptionFailed,
		ErrCodeDatabaseQueryFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeExternalService,
		ErrCodeTimeout,
		ErrCodeSearchQueryFailed,
		ErrCodeServiceUnavailable:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SUBSCRIPTION"):
		return "SUBSCRIPTION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "AUDIT"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "PUSH") || strings.Contains(codeStr, "DEVICE_TOKEN"):
		return "PUSH"
	case strings.Contains(codeStr, "RESOLUTION") || strings.Contains(codeStr, "EXTERNAL") || strings.Contains(codeStr, "TIMEOUT"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "MALFORMED") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "BAD_REQUEST"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND") || strings.Contains(codeStr, "DUPLICATE"):
		return "RESOURCE"
	default:
		return "OTHER"
	}
}
