package api

import (
	"encoding/json"
	"net/http"

	domainerrors "github.com/dns-browser/dns-browser/src/internal/errors"
)

// ErrorCode is the machine-readable error kind the browser shell switches on.
type ErrorCode string

const (
	ErrCodeInvalidRequest   ErrorCode = "invalid_request"
	ErrCodeForbidden        ErrorCode = "forbidden"
	ErrCodeConflict         ErrorCode = "conflict" // DNS list changed since the client read it
	ErrCodeInternalError    ErrorCode = "internal_error"
	ErrCodeValidationFailed ErrorCode = "validation_failed"
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps an APIError for JSON responses.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// domainStatus maps application error codes onto the API error kind and HTTP status.
var domainStatus = map[domainerrors.ErrorCode]struct {
	code   ErrorCode
	status int
}{
	domainerrors.ErrCodeValidation: {ErrCodeInvalidRequest, http.StatusBadRequest},
	domainerrors.ErrCodeConfig:     {ErrCodeInternalError, http.StatusInternalServerError},
}

// WriteError writes an error response to the HTTP response writer.
func WriteError(w http.ResponseWriter, statusCode int, err APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: err})
}

// WriteDomainError translates an application error. The application code travels in details
// so the shell can tell a resolution failure from a config failure.
func WriteDomainError(w http.ResponseWriter, message string, err error) {
	code := domainerrors.CodeOf(err)
	mapped, ok := domainStatus[code]
	if !ok {
		mapped.code, mapped.status = ErrCodeInternalError, http.StatusInternalServerError
	}
	WriteError(w, mapped.status, APIError{
		Code:    mapped.code,
		Message: message + ": " + err.Error(),
		Details: map[string]interface{}{"error_code": string(code)},
	})
}

func WriteInvalidRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, APIError{Code: ErrCodeInvalidRequest, Message: message})
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, APIError{Code: ErrCodeForbidden, Message: message})
}

func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, APIError{Code: ErrCodeConflict, Message: message})
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, APIError{Code: ErrCodeInternalError, Message: message})
}

// WriteValidationError writes a 400 carrying the per-field validation errors in details.
func WriteValidationError(w http.ResponseWriter, message string, details map[string]interface{}) {
	WriteError(w, http.StatusBadRequest, APIError{Code: ErrCodeValidationFailed, Message: message, Details: details})
}
