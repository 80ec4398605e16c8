package engine

import (
	"errors"
	"fmt"
)

// PlanError represents a statement the engine cannot plan or run.
//
// Plan errors include:
//   - Unknown or ambiguous fields in the select list, order-by or group-by
//   - Select-list fields that are neither grouped nor aggregated
//   - Aggregates applied to a field of the wrong type
//   - A view whose definition is not a query
//   - Results larger than the row limit
type PlanError struct {
	// Code identifies the error category.
	Code PlanErrorCode

	// Message is a human-readable description.
	Message string

	// StatementID identifies the statement being run, when known.
	StatementID string
}

// PlanErrorCode categorizes plan errors.
type PlanErrorCode string

const (
	// ErrCodeUnknownField indicates a field no table in the query has.
	ErrCodeUnknownField PlanErrorCode = "UNKNOWN_FIELD"

	// ErrCodeAmbiguousField indicates a field more than one table has.
	ErrCodeAmbiguousField PlanErrorCode = "AMBIGUOUS_FIELD"

	// ErrCodeDuplicateTable indicates a table listed twice in one query.
	ErrCodeDuplicateTable PlanErrorCode = "DUPLICATE_TABLE"

	// ErrCodeInvalidGrouping indicates a select-list or order-by field that
	// is neither grouped nor an aggregate.
	ErrCodeInvalidGrouping PlanErrorCode = "INVALID_GROUPING"

	// ErrCodeInvalidAggregate indicates an aggregate over the wrong field type.
	ErrCodeInvalidAggregate PlanErrorCode = "INVALID_AGGREGATE"

	// ErrCodeInvalidView indicates a view definition that cannot be used.
	ErrCodeInvalidView PlanErrorCode = "INVALID_VIEW"

	// ErrCodeRowLimit indicates a result with more rows than allowed.
	ErrCodeRowLimit PlanErrorCode = "ROW_LIMIT"
)

// Error implements the error interface.
func (e *PlanError) Error() string {
	if e.StatementID != "" {
		return fmt.Sprintf("%s: %s (statement=%s)", e.Code, e.Message, e.StatementID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func planErrorf(code PlanErrorCode, format string, args ...any) *PlanError {
	return &PlanError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsPlanError returns true if err is or wraps a PlanError.
func IsPlanError(err error) bool {
	var pe *PlanError
	return errors.As(err, &pe)
}

// IsRowLimitError returns true if the error is a row limit error.
// Uses errors.As to handle wrapped errors.
func IsRowLimitError(err error) bool {
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeRowLimit
	}
	return false
}
