package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes grouped by concern. Stable, documented API surface.
const (
	CodeNotFound          = "PAY_001"
	CodeInvalidState      = "PAY_002"
	CodeValidation        = "PAY_003"
	CodeIntegrity         = "SEC_001"
	CodeInternal          = "SYS_001"
	CodeEncryptionFailure = "SYS_002"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ErrNotFound reports an unknown payment reference or id. Never retried
// automatically.
func ErrNotFound(entity string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ErrInvalidState reports an operation that is not valid for the aggregate's
// current status. Permanent; callers must not blindly retry.
func ErrInvalidState(message string) *AppError {
	return New(CodeInvalidState, message, http.StatusConflict)
}

// Validation rejects malformed input before any mutation.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

// ErrIntegrity reports an AEAD authentication failure on decrypt. Fatal for
// that payload; surfaced distinctly from validation since it signals possible
// tampering, not bad input.
func ErrIntegrity(err error) *AppError {
	return Wrap(CodeIntegrity, "Payload integrity check failed", http.StatusUnprocessableEntity, err)
}

// ErrEncryptionFailure wraps an unexpected failure inside the cipher itself.
func ErrEncryptionFailure(err error) *AppError {
	return Wrap(CodeEncryptionFailure, "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}

// IsCode reports whether err is (or wraps) an *AppError carrying the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
