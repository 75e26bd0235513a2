// Package errors provides the standardized error shape used at component
// boundaries: gateway transport failures, submission rejections and
// draft-persistence faults all normalize to a StandardError.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Transport errors (remote gateway)
const (
	ErrCodeRequestTimeout   ErrorCode = "REQUEST_TIMEOUT"
	ErrCodeTransportFailed  ErrorCode = "TRANSPORT_FAILED"
	ErrCodeUnexpectedStatus ErrorCode = "UNEXPECTED_STATUS"
	ErrCodeMalformedPayload ErrorCode = "MALFORMED_PAYLOAD"
)

// Business / local errors
const (
	ErrCodeSubmissionRejected ErrorCode = "SUBMISSION_REJECTED"
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodePersistenceFailed  ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error. Message is safe
// to show to the visitor; Details is for logs.
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

// NewTimeoutError creates a retryable timeout error for an operation.
func NewTimeoutError(operation string, timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestTimeout,
		Message:   "The request timed out. Please try again.",
		Details:   fmt.Sprintf("operation: %s, timeout: %s", operation, timeout),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportError creates a retryable network failure error.
func NewTransportError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportFailed,
		Message:   "Unable to reach the server. Please check your connection.",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnexpectedStatusError creates an error for non-2xx responses.
func NewUnexpectedStatusError(operation string, status int) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnexpectedStatus,
		Message:   fmt.Sprintf("HTTP error! status: %d", status),
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: status >= 500,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedPayloadError creates a non-retryable decode error.
func NewMalformedPayloadError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedPayload,
		Message:   "The server returned an unexpected response.",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionRejectedError wraps a success:false reply. An empty backend
// message falls back to "Submission failed".
func NewSubmissionRejectedError(message string) *StandardError {
	if strings.TrimSpace(message) == "" {
		message = "Submission failed"
	}
	return &StandardError{
		Code:      ErrCodeSubmissionRejected,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError summarizes a failed whole-record validation.
func NewValidationFailedError(fields []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Please correct the highlighted fields",
		Details:   fmt.Sprintf("fields: %s", strings.Join(fields, ",")),
		Retryable: false,
		Metadata:  map[string]interface{}{"fields": fields},
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceError wraps a draft storage fault. These are never shown to
// the visitor.
func NewPersistenceError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Draft storage unavailable",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps anything that escaped classification.
func NewInternalError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "An unknown error occurred",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return &StandardError{
			Code:      ErrCodeRequestTimeout,
			Message:   "The request timed out. Please try again.",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}
	return NewInternalError(err.Error())
}

// Message returns the visitor-facing message for any error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return Normalize(err).Message
}

// IsRetryableCode reports whether an operation failing with code may be
// retried by the visitor as-is.
func IsRetryableCode(code ErrorCode) bool {
	switch code {
	case ErrCodeRequestTimeout, ErrCodeTransportFailed, ErrCodePersistenceFailed:
		return true
	default:
		return false
	}
}

// Category returns the taxonomy bucket of the error code.
func Category(code ErrorCode) string {
	switch code {
	case ErrCodeRequestTimeout, ErrCodeTransportFailed, ErrCodeUnexpectedStatus, ErrCodeMalformedPayload:
		return "TRANSPORT"
	case ErrCodeSubmissionRejected:
		return "SUBMISSION"
	case ErrCodeValidationFailed:
		return "VALIDATION"
	case ErrCodePersistenceFailed:
		return "PERSISTENCE"
	default:
		return "OTHER"
	}
}
