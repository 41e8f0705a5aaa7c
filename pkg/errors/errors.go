// Package errors provides the structured error system for jsonfs with error codes and categories.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a structured error code for jsonfs operations.
type ErrorCode string

const (
	// Request errors. Every one of these is final: it reflects a permanent
	// property of the declared tree or a policy of the filesystem, so there
	// is nothing to retry.
	ErrCodeNotFound    ErrorCode = "NOT_FOUND"
	ErrCodeReadOnly    ErrorCode = "READ_ONLY"
	ErrCodeNoAttribute ErrorCode = "NO_SUCH_ATTRIBUTE"

	// Construction errors. Fatal to instance startup; never returned for a
	// request once the filesystem is serving.
	ErrCodeInvalidConfig    ErrorCode = "CONFIGURATION_INVALID"
	ErrCodeLayoutUnreadable ErrorCode = "LAYOUT_UNREADABLE"
	ErrCodeMountFailed      ErrorCode = "MOUNT_FAILED"
)

// ErrorCategory represents the general category of an error.
type ErrorCategory string

const (
	CategoryRequest       ErrorCategory = "request"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryMount         ErrorCategory = "mount"
)

// GetCategory determines the category based on the error code.
func GetCategory(code ErrorCode) ErrorCategory {
	switch code {
	case ErrCodeNotFound, ErrCodeReadOnly, ErrCodeNoAttribute:
		return CategoryRequest
	case ErrCodeInvalidConfig, ErrCodeLayoutUnreadable:
		return CategoryConfiguration
	case ErrCodeMountFailed:
		return CategoryMount
	default:
		return CategoryRequest
	}
}

// JSONFSError represents a structured error with code, category, and context.
type JSONFSError struct {
	Code     ErrorCode     `json:"code"`
	Category ErrorCategory `json:"category"`
	Message  string        `json:"message"`
	Path     string        `json:"path,omitempty"`
	Op       string        `json:"op,omitempty"`
	Cause    error         `json:"-"`
}

// Error implements the error interface.
func (e *JSONFSError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error wrapping compatibility.
func (e *JSONFSError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error (for errors.Is compatibility).
func (e *JSONFSError) Is(target error) bool {
	if fsErr, ok := target.(*JSONFSError); ok {
		return e.Code == fsErr.Code
	}
	return false
}

// NewError creates a new jsonfs error with the category derived from the code.
func NewError(code ErrorCode, message string) *JSONFSError {
	return &JSONFSError{
		Code:     code,
		Category: GetCategory(code),
		Message:  message,
	}
}

// WithOperation sets the operation for an error
func (e *JSONFSError) WithOperation(op string) *JSONFSError {
	e.Op = op
	return e
}

// WithCause sets the underlying cause
func (e *JSONFSError) WithCause(cause error) *JSONFSError {
	e.Cause = cause
	return e
}

// NewNotFound reports a path absent from the declared tree, or present but
// of the wrong kind for the requested operation.
func NewNotFound(path string) *JSONFSError {
	err := NewError(ErrCodeNotFound, fmt.Sprintf("path not found: %s", path))
	err.Path = path
	return err
}

// NewReadOnly rejects a mutating operation. The filesystem is read-only by
// construction; this is not configurable.
func NewReadOnly(op, path string) *JSONFSError {
	err := NewError(ErrCodeReadOnly, "read-only filesystem")
	err.Op = op
	err.Path = path
	return err
}

// NewNoAttribute reports an extended attribute read; no attributes exist.
func NewNoAttribute(path, attr string) *JSONFSError {
	err := NewError(ErrCodeNoAttribute, fmt.Sprintf("no attribute %q", attr))
	err.Path = path
	return err
}

// NewInvalidConfig reports a configuration or layout-document violation
// detected at construction.
func NewInvalidConfig(message string) *JSONFSError {
	return NewError(ErrCodeInvalidConfig, message)
}

// NewInvalidConfigf is NewInvalidConfig with formatting.
func NewInvalidConfigf(format string, args ...interface{}) *JSONFSError {
	return NewInvalidConfig(fmt.Sprintf(format, args...))
}

// NewLayoutUnreadable reports a layout document that could not be fetched
// or decoded.
func NewLayoutUnreadable(source string, cause error) *JSONFSError {
	err := NewError(ErrCodeLayoutUnreadable, fmt.Sprintf("cannot read layout %s", source))
	err.Cause = cause
	return err
}

// NewMountFailed reports a mount or unmount failure.
func NewMountFailed(mountpoint string, cause error) *JSONFSError {
	err := NewError(ErrCodeMountFailed, fmt.Sprintf("mount failed: %s", mountpoint))
	err.Path = mountpoint
	err.Cause = cause
	return err
}

// CodeOf extracts the jsonfs error code from err, unwrapping as needed.
// Returns "" for nil or foreign errors.
func CodeOf(err error) ErrorCode {
	var fsErr *JSONFSError
	if stderrors.As(err, &fsErr) {
		return fsErr.Code
	}
	return ""
}

// IsNotFound reports whether err carries NOT_FOUND.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsReadOnly reports whether err carries READ_ONLY.
func IsReadOnly(err error) bool {
	return CodeOf(err) == ErrCodeReadOnly
}

// IsNoAttribute reports whether err carries NO_SUCH_ATTRIBUTE.
func IsNoAttribute(err error) bool {
	return CodeOf(err) == ErrCodeNoAttribute
}

// IsInvalidConfig reports whether err carries CONFIGURATION_INVALID.
func IsInvalidConfig(err error) bool {
	return CodeOf(err) == ErrCodeInvalidConfig
}
