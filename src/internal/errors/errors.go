// Package errors provides domain-specific error types for dns-browser.
//
// Every failure on the proxy path carries a code so that error pages, API
// responses and logs name the same category.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a category of error that can occur in the application.
type ErrorCode string

const (
	// ErrCodeResolution indicates a hostname could not be resolved.
	ErrCodeResolution ErrorCode = "RESOLUTION_ERROR"

	// ErrCodeUpstreamConnect indicates the resolved destination refused or never accepted the connection.
	ErrCodeUpstreamConnect ErrorCode = "UPSTREAM_CONNECT_ERROR"

	// ErrCodeParse indicates a malformed proxy request.
	ErrCodeParse ErrorCode = "PARSE_ERROR"

	// ErrCodeCacheInvalidation indicates a best-effort resolver cache flush failed.
	ErrCodeCacheInvalidation ErrorCode = "CACHE_INVALIDATION_ERROR"

	// ErrCodeConfig indicates a configuration-related error.
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"

	// ErrCodeValidation indicates a validation error.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Error represents a domain-specific error with an error code and optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Reason returns the message and cause without the code prefix.
func (e *Error) Reason() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new domain error with the specified code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first domain error in err's chain, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err's chain contains a domain error with the given code.
func HasCode(err error, code ErrorCode) bool {
	return stderrors.Is(err, &Error{Code: code})
}

// NewResolutionError creates a new hostname resolution error.
func NewResolutionError(message string, cause error) *Error {
	return Wrap(ErrCodeResolution, message, cause)
}

// NewUpstreamConnectError creates a new upstream connect error.
func NewUpstreamConnectError(message string, cause error) *Error {
	return Wrap(ErrCodeUpstreamConnect, message, cause)
}

// NewParseError creates a new proxy request parse error.
func NewParseError(message string, cause error) *Error {
	return Wrap(ErrCodeParse, message, cause)
}

// NewCacheInvalidationError creates a new cache invalidation error.
func NewCacheInvalidationError(message string, cause error) *Error {
	return Wrap(ErrCodeCacheInvalidation, message, cause)
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, cause error) *Error {
	return Wrap(ErrCodeConfig, message, cause)
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, cause error) *Error {
	return Wrap(ErrCodeValidation, message, cause)
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *Error {
	return Wrap(ErrCodeInternal, message, cause)
}
