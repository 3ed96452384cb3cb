package mockapi

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
)

// DomainError represents a structured error with additional context.
// Message is what API callers see.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && (t.Message == "" || e.Message == t.Message)
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Messages that double as error codes are rendered client-side by code.
var (
	ErrUserNotFound   = NewDomainError(ErrorTypeNotFound, "User not found", nil)
	ErrBranchNotFound = NewDomainError(ErrorTypeNotFound, "Branch not found", nil)
	ErrLoadNotFound   = NewDomainError(ErrorTypeNotFound, "Load not found", nil)

	ErrWeakPassword = NewDomainError(ErrorTypeValidation, "WEAK_PASSWORD", nil)
	ErrInvalidCode  = NewDomainError(ErrorTypeValidation, "Invalid verification code provided, please try again.", nil)
	ErrExpiredCode  = NewDomainError(ErrorTypeValidation, "Invalid code provided, please request a code again.", nil)

	ErrInvalidCredentials = NewDomainError(ErrorTypeUnauthorized, "Incorrect username or password.", nil)
	ErrNotConfirmed       = NewDomainError(ErrorTypeUnauthorized, "User is not confirmed.", nil)
	ErrUserDisabled       = NewDomainError(ErrorTypeUnauthorized, "User is disabled.", nil)
	ErrInvalidToken       = NewDomainError(ErrorTypeUnauthorized, "Invalid or expired token", nil)

	ErrForbidden = NewDomainError(ErrorTypeForbidden, "Insufficient permissions", nil)

	ErrEmailExists      = NewDomainError(ErrorTypeConflict, "EMAIL_ALREADY_EXISTS", nil)
	ErrAlreadyConfirmed = NewDomainError(ErrorTypeConflict, "User is already confirmed.", nil)
)

func isType(err error, t ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return isType(err, ErrorTypeValidation) }

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool { return isType(err, ErrorTypeUnauthorized) }

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool { return isType(err, ErrorTypeForbidden) }

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool { return isType(err, ErrorTypeConflict) }

// PublicMessage returns the caller-facing message of a domain error, or
// false for anything else
func PublicMessage(err error) (string, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message, true
	}
	return "", false
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
