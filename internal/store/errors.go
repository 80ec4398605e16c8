package store

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeTableNotFound indicates a table that does not exist.
	ErrCodeTableNotFound ErrorCode = "TABLE_NOT_FOUND"

	// ErrCodeAlreadyExists indicates a table, view or index name already in use.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// ErrCodeFieldNotFound indicates a field the table does not have.
	ErrCodeFieldNotFound ErrorCode = "FIELD_NOT_FOUND"

	// ErrCodeTypeMismatch indicates a value of the wrong kind for its field.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeValueTooLong indicates a string longer than its varchar field.
	ErrCodeValueTooLong ErrorCode = "VALUE_TOO_LONG"
)

// Error is returned when a statement does not fit the stored tables.
type Error struct {
	Code    ErrorCode
	Table   string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s: %s (table=%s)", e.Code, e.Message, e.Table)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, table, format string, args ...any) *Error {
	return &Error{Code: code, Table: table, Message: fmt.Sprintf(format, args...)}
}

// IsStoreError returns true if err is or wraps a store Error.
func IsStoreError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

// IsNotFound returns true if err reports a missing table.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == ErrCodeTableNotFound
}
