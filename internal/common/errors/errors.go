// internal/common/errors/errors.go

// Package errors provides standardized error handling for the admission engine.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeCourseNotFound      ErrorCode = "COURSE_NOT_FOUND"
	ErrCodeApplicationNotFound ErrorCode = "APPLICATION_NOT_FOUND"

	ErrCodeInvalidMarks      ErrorCode = "INVALID_MARKS"
	ErrCodeInvalidStatus     ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"

	ErrCodeUsernameExhausted      ErrorCode = "USERNAME_EXHAUSTED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeDatabaseQueryFailed ErrorCode = "DATABASE_QUERY_FAILED"
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

// NewCourseNotFoundError creates a non-retryable lookup error.
func NewCourseNotFoundError(courseID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCourseNotFound,
		Message:   "Course not found",
		Details:   fmt.Sprintf("courseId: %s", courseID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewApplicationNotFoundError creates a non-retryable lookup error.
func NewApplicationNotFoundError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationNotFound,
		Message:   "Application not found",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidMarksError creates a non-retryable input validation error.
func NewInvalidMarksError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidMarks,
		Message:   "Subject marks failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidStatusError creates a non-retryable error for an unknown status value.
func NewInvalidStatusError(status string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidStatus,
		Message:   "Unknown application status",
		Details:   fmt.Sprintf("status: %s", status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError creates a non-retryable error for a lifecycle
// edge outside the transition graph.
func NewInvalidTransitionError(from, to string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   "Invalid Transition",
		Details:   fmt.Sprintf("from: %s, to: %s", from, to),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUsernameExhaustedError is returned when collision probing hit its ceiling.
func NewUsernameExhaustedError(base string, attempts int) *StandardError {
	return &StandardError{
		Code:      ErrCodeUsernameExhausted,
		Message:   "Username generation exhausted its retry ceiling",
		Details:   fmt.Sprintf("base: %s, attempts: %d", base, attempts),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notifier error. It is
// logged and swallowed by callers, never propagated past the engine.
func NewNotificationSendFailedError(kind string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("kind: %s, error: %v", kind, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseQueryFailedError creates a retryable database error.
func NewDatabaseQueryFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseQueryFailed,
		Message:   "Database query error",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// GetCode extracts the ErrorCode from an error chain, or "" if none.
func GetCode(err error) ErrorCode {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsNotFound reports whether err is a course or application lookup failure.
func IsNotFound(err error) bool {
	code := GetCode(err)
	return code == ErrCodeCourseNotFound || code == ErrCodeApplicationNotFound
}

// IsInvalidInput reports whether err was caused by caller-supplied data.
func IsInvalidInput(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidMarks, ErrCodeInvalidStatus, ErrCodeInvalidTransition:
		return true
	}
	return false
}

// IsRetryable reports whether the operation may succeed if retried.
func IsRetryable(err error) bool {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Retryable
	}
	return false
}
