package domain

import (
	"errors"
	"fmt"
)

// Application error codes.
// The HTTP layer maps each code to a status and decides what the shopper sees.
const (
	ECONFLICT    = "conflict"         // 409 - cart exclusivity, duplicate submission
	EINTERNAL    = "internal"         // 500 - hide details
	EINVALID     = "invalid"          // 400 - bad input, failed form validation
	EFORBIDDEN   = "forbidden"        // 403 - failed CSRF check
	ENOTFOUND    = "not_found"        // 404
	EUNAVAILABLE = "unavailable"      // 503 - out of stock, upstream backend failure
	EPAYMENT     = "payment_required" // 402 - payment step failed after the order exists
	ERATELIMIT   = "rate_limit"       // 429
)

// Error is an application error with a machine-readable code and a message
// that is safe to show to shoppers.
type Error struct {
	// Code is one of the E* constants.
	Code string

	// Message is shown to users unless Code is EINTERNAL.
	Message string

	// Op names the operation that failed (e.g. "checkout.submit"). Logged, never shown.
	Op string

	// Err is the wrapped cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by code and message so that an error rebuilt
// with a different Op still compares equal to its sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// ErrorCode extracts the error code from an error.
// Returns EINTERNAL for non-domain errors and "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return EINTERNAL
}

const internalMessage = "An internal error occurred. Please try again later."

// ErrorMessage extracts a user-facing message from an error.
// Internal and unknown errors get a generic message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return "Please correct the highlighted fields."
	}

	var e *Error
	if errors.As(err, &e) {
		if e.Code == EINTERNAL {
			return internalMessage
		}
		return e.Message
	}

	return internalMessage
}

// ErrorOp extracts the operation from an error for logging.
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Errorf creates a new domain error with a formatted message.
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps err with a code, operation and user-facing message.
// Returns nil if err is nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// =============================================================================
// Validation errors (field-level, checkout form)
// =============================================================================

// ValidationError carries one message per invalid form field.
type ValidationError struct {
	Fields map[string]string
	Op     string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		for field, msg := range e.Fields {
			if e.Op != "" {
				return fmt.Sprintf("%s: %s: %s", e.Op, field, msg)
			}
			return fmt.Sprintf("%s: %s", field, msg)
		}
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: validation failed for %d fields", e.Op, len(e.Fields))
	}
	return fmt.Sprintf("validation failed for %d fields", len(e.Fields))
}

// FirstField returns the first field in order that has an error, or "" if
// none of them do. Forms pass their visual field order.
func (e *ValidationError) FirstField(order []string) string {
	for _, f := range order {
		if _, ok := e.Fields[f]; ok {
			return f
		}
	}
	return ""
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(op, field, message string) error {
	return &ValidationError{
		Op:     op,
		Fields: map[string]string{field: message},
	}
}

// AddFieldError adds a field error to err, creating a ValidationError when
// err is nil or of another type.
func AddFieldError(err error, field, message string) error {
	var ve *ValidationError
	if err != nil && errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}

	return &ValidationError{
		Fields: map[string]string{field: message},
	}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// GetValidationFields returns the field map of a ValidationError, or nil.
func GetValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// =============================================================================
// Convenience constructors
// =============================================================================

// NotFound creates a not found error for a resource.
// Example: domain.NotFound("catalog.product", "product", id)
func NotFound(op, resource, identifier string) error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
	}
}

// Invalid creates a single-issue input error.
func Invalid(op, message string) error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

// Conflict creates a conflict error.
func Conflict(op, message string) error {
	return &Error{Code: ECONFLICT, Op: op, Message: message}
}

// Unavailable creates an error for out-of-stock items or an unreachable backend.
func Unavailable(op, message string) error {
	return &Error{Code: EUNAVAILABLE, Op: op, Message: message}
}

// Internal wraps an unexpected failure. Users only see a generic message.
func Internal(err error, op, message string) error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}

// Forbidden creates an error for a rejected request, such as a failed CSRF check.
func Forbidden(op, message string) error {
	return &Error{Code: EFORBIDDEN, Op: op, Message: message}
}
