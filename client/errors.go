package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents the category of a failed request
type ErrorType string

const (
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeNetwork      ErrorType = "network"
)

// GenericErrorMessage is surfaced when nothing better is available
const GenericErrorMessage = "Request failed"

// internalErrorPatterns mark transport messages that describe a programming
// error rather than anything a user can act on
var internalErrorPatterns = []string{
	"is not a function",
	"cannot read",
	"nil pointer dereference",
	"invalid memory address",
}

// APIError is the normalized form of every failed request. Status is zero
// when no response was received.
type APIError struct {
	Type    ErrorType
	Message string
	Status  int
	Body    []byte
	Err     error
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches another *APIError of the same type
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// BodyField returns a string field of the JSON response body
func (e *APIError) BodyField(name string) (string, bool) {
	fields := bodyFields(e.Body)
	v, ok := fields[name].(string)
	return v, ok
}

func newStatusError(status int, body []byte) *APIError {
	transport := fmt.Sprintf("Request failed with status code %d", status)
	return &APIError{
		Type:    typeForStatus(status),
		Message: extractMessage(body, transport),
		Status:  status,
		Body:    body,
	}
}

func newTransportError(err error) *APIError {
	return &APIError{
		Type:    ErrorTypeNetwork,
		Message: extractMessage(nil, err.Error()),
		Err:     err,
	}
}

// extractMessage picks the body's message field, then its error field, then
// the transport message unless it looks internal, then the generic text.
func extractMessage(body []byte, transport string) string {
	fields := bodyFields(body)
	if msg, ok := fields["message"].(string); ok && msg != "" {
		return msg
	}
	if msg, ok := fields["error"].(string); ok && msg != "" {
		return msg
	}
	if transport != "" && !isInternalMessage(transport) {
		return transport
	}
	return GenericErrorMessage
}

func bodyFields(body []byte) map[string]any {
	if len(body) == 0 {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil
	}
	return fields
}

func isInternalMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, pattern := range internalErrorPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func typeForStatus(status int) ErrorType {
	switch {
	case status == http.StatusUnauthorized:
		return ErrorTypeUnauthorized
	case status == http.StatusForbidden:
		return ErrorTypeForbidden
	case status == http.StatusNotFound:
		return ErrorTypeNotFound
	case status == http.StatusConflict:
		return ErrorTypeConflict
	case status == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case status >= 400 && status < 500:
		return ErrorTypeValidation
	default:
		return ErrorTypeInternal
	}
}

func isType(err error, t ErrorType) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == t
	}
	return false
}

// IsUnauthorizedError reports a 401. The session has already been cleared
// by the time the caller sees it.
func IsUnauthorizedError(err error) bool {
	return isType(err, ErrorTypeUnauthorized)
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return isType(err, ErrorTypeForbidden)
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return isType(err, ErrorTypeConflict)
}

// IsNetworkError checks if the request never got a response
func IsNetworkError(err error) bool {
	return isType(err, ErrorTypeNetwork)
}
