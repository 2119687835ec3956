package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Registry errors
	ErrViewNotFound ErrorCode = "VIEW_NOT_FOUND"
	ErrViewInvalid  ErrorCode = "VIEW_INVALID"

	// Content errors
	ErrInvalidEnvelope ErrorCode = "INVALID_ENVELOPE"
	ErrInvalidMarker   ErrorCode = "INVALID_MARKER"
	ErrRenderFailed    ErrorCode = "RENDER_FAILED"

	// State errors
	ErrInvalidState ErrorCode = "INVALID_STATE"
	ErrStateStore   ErrorCode = "STATE_STORE"

	// Pipeline errors
	ErrSurfaceTimeout ErrorCode = "SURFACE_TIMEOUT"
	ErrSlotBusy       ErrorCode = "SLOT_BUSY"

	// Asset errors
	ErrAssetFetch       ErrorCode = "ASSET_FETCH"
	ErrAssetUnavailable ErrorCode = "ASSET_UNAVAILABLE"

	// Export errors
	ErrExportFailed ErrorCode = "EXPORT_FAILED"

	// Message errors
	ErrUnknownMessage ErrorCode = "UNKNOWN_MESSAGE"
)

// ViewerError represents a structured error with code and details
type ViewerError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ViewerError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ViewerError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *ViewerError) Is(target error) bool {
	var targetErr *ViewerError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ViewerError with the given code and message
func New(code ErrorCode, message string) *ViewerError {
	return &ViewerError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ViewerError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ViewerError {
	return &ViewerError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ViewerError
func Wrap(err error, code ErrorCode, message string) *ViewerError {
	if err == nil {
		return nil
	}
	return &ViewerError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ViewerError {
	if err == nil {
		return nil
	}
	return &ViewerError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *ViewerError) WithDetail(key string, value interface{}) *ViewerError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var viewerErr *ViewerError
	if errors.As(err, &viewerErr) {
		return viewerErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ViewerError
func GetErrorCode(err error) ErrorCode {
	var viewerErr *ViewerError
	if errors.As(err, &viewerErr) {
		return viewerErr.Code
	}
	return ErrUnknown
}
