package querysql

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a fatal translation error. Field and operation errors are
// never absorbed by recovery: they mean the caller named something the
// schema cannot answer.
type Error struct {
	// Type identifies the error category.
	Type ErrorType

	// FieldName is the offending field path, when there is one.
	FieldName string

	// Operation is the offending operator, when there is one.
	Operation string

	// Message is the technical description for logs.
	Message string

	// UserMessage is safe to show to end users.
	UserMessage string

	// Suggestions lists known field names for invalid_field errors.
	Suggestions []string
}

// ErrorType categorizes translation errors.
type ErrorType string

const (
	// ErrTypeInvalidField indicates a field that is not a column, entity,
	// or metadata key.
	ErrTypeInvalidField ErrorType = "invalid_field"

	// ErrTypeInvalidOperation indicates an operator or value that does not
	// fit the field's kind.
	ErrTypeInvalidOperation ErrorType = "invalid_operation"

	// ErrTypeInvalidQuery indicates a query nothing could be made of.
	ErrTypeInvalidQuery ErrorType = "invalid_query"
)

var (
	// ErrInvalidSortOrder is returned when sort_order is not asc or desc.
	ErrInvalidSortOrder = errors.New("sort order must be 'asc' or 'desc'")

	// ErrNotReady is returned when no schema snapshot has been published.
	ErrNotReady = errors.New("query planner has no schema")
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.FieldName != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Type, e.Message, e.FieldName)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// AsError unwraps err to an *Error.
func AsError(err error) (*Error, bool) {
	var qe *Error
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

// IsFieldError returns true if err is an invalid_field error.
func IsFieldError(err error) bool {
	qe, ok := AsError(err)
	return ok && qe.Type == ErrTypeInvalidField
}

// IsOperationError returns true if err is an invalid_operation error.
func IsOperationError(err error) bool {
	qe, ok := AsError(err)
	return ok && qe.Type == ErrTypeInvalidOperation
}

// IsValidationError returns true for field and operation errors, the two
// kinds recovery must propagate.
func IsValidationError(err error) bool {
	return IsFieldError(err) || IsOperationError(err)
}

func fieldError(field string, available []string) *Error {
	suggestions := available
	more := ""
	if len(suggestions) > 10 {
		suggestions = suggestions[:10]
		more = "..."
	}
	return &Error{
		Type:        ErrTypeInvalidField,
		FieldName:   field,
		Message:     fmt.Sprintf("Field '%s' does not exist in the database schema or metadata", field),
		UserMessage: fmt.Sprintf("The field '%s' is not available for searching. Available fields include: %s%s", field, strings.Join(suggestions, ", "), more),
		Suggestions: append([]string(nil), suggestions...),
	}
}

func operationError(field, op, message, userMessage string) *Error {
	return &Error{
		Type:        ErrTypeInvalidOperation,
		FieldName:   field,
		Operation:   op,
		Message:     message,
		UserMessage: userMessage,
	}
}
