package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeInvalidSmartCode     ErrorCode = "InvalidSmartCode"
	ErrCodeProcedureNotFound    ErrorCode = "ProcedureNotFound"
	ErrCodeValidationFailed     ErrorCode = "ValidationFailed"
	ErrCodeIdempotencyConflict  ErrorCode = "IdempotencyConflict"
	ErrCodeOrganizationNotFound ErrorCode = "OrganizationNotFound"
	ErrCodeExecutionError       ErrorCode = "ExecutionError"
	ErrCodeTimeout              ErrorCode = "Timeout"
	ErrCodeNotFound             ErrorCode = "NotFound"
	ErrCodeUnauthorized         ErrorCode = "Unauthorized"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf builds a domain error with a formatted message.
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrOrganizationNotFound = NewError(ErrCodeOrganizationNotFound, "organization not found")
	ErrEntityNotFound       = NewError(ErrCodeNotFound, "entity not found")
	ErrTransactionNotFound  = NewError(ErrCodeNotFound, "transaction not found")
	ErrLineNotFound         = NewError(ErrCodeNotFound, "transaction line not found")
	ErrFieldNotFound        = NewError(ErrCodeNotFound, "dynamic field not found")
	ErrLedgerEntryNotFound  = NewError(ErrCodeNotFound, "ledger entry not found")
	ErrInvalidPayload       = NewError(ErrCodeValidationFailed, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// CodeOf extracts the domain error code, defaulting to ExecutionError for
// errors that did not originate here.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ErrCodeExecutionError
}
