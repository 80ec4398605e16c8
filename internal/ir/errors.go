package ir

import (
	"errors"
	"fmt"
)

// EvaluationErrorCode categorizes evaluation errors.
type EvaluationErrorCode string

const (
	// ErrCodeKindMismatch indicates a comparison between different constant kinds.
	ErrCodeKindMismatch EvaluationErrorCode = "KIND_MISMATCH"

	// ErrCodeUnknownOperator indicates a comparison operator outside the defined set.
	ErrCodeUnknownOperator EvaluationErrorCode = "UNKNOWN_OPERATOR"

	// ErrCodeFieldType indicates a typed accessor was used on a field of another type.
	ErrCodeFieldType EvaluationErrorCode = "FIELD_TYPE"

	// ErrCodeUnknownField indicates a field that no cursor provides.
	ErrCodeUnknownField EvaluationErrorCode = "UNKNOWN_FIELD"
)

// EvaluationError is raised when a predicate or cursor access cannot be
// evaluated. It is terminal for the statement being processed.
type EvaluationError struct {
	Code    EvaluationErrorCode
	Message string
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewEvaluationError creates an EvaluationError.
func NewEvaluationError(code EvaluationErrorCode, format string, args ...any) *EvaluationError {
	return &EvaluationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsEvaluationError returns true if err is or wraps an EvaluationError.
func IsEvaluationError(err error) bool {
	var ee *EvaluationError
	return errors.As(err, &ee)
}

func newKindMismatch(a, b Constant) *EvaluationError {
	if b == nil {
		return NewEvaluationError(ErrCodeKindMismatch, "cannot compare %s with missing value", a)
	}
	return NewEvaluationError(ErrCodeKindMismatch, "cannot compare %s %s with %s %s", a.Kind(), a, b.Kind(), b)
}
