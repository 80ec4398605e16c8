package query

import "github.com/roach88/minirel/internal/ir"

// Scan is a row cursor.
//
// A fresh cursor is positioned before the first row. Next advances to the
// next row and reports false once the rows are exhausted. Field accessors
// read from the current row.
type Scan interface {
	BeforeFirst() error
	Next() (bool, error)
	GetInt(field string) (int64, error)
	GetString(field string) (string, error)
	GetVal(field string) (ir.Constant, error)
	HasField(field string) bool
	Close() error
}

// SortScan is a cursor over a sorted stream that can bookmark a row and
// rewind to it.
type SortScan interface {
	Scan

	// SavePosition remembers the current row.
	SavePosition()

	// RestorePosition makes the saved row current again.
	RestorePosition() error
}

// PlanStats supplies the statistics selectivity estimation needs.
type PlanStats interface {
	DistinctValues(field string) int
}

// IntValue unwraps an integer field value.
func IntValue(field string, c ir.Constant) (int64, error) {
	v, ok := c.(ir.IntConstant)
	if !ok {
		return 0, ir.NewEvaluationError(ir.ErrCodeFieldType, "field %q is not an int", field)
	}
	return int64(v), nil
}

// StringValue unwraps a varchar field value.
func StringValue(field string, c ir.Constant) (string, error) {
	v, ok := c.(ir.StringConstant)
	if !ok {
		return "", ir.NewEvaluationError(ir.ErrCodeFieldType, "field %q is not a varchar", field)
	}
	return string(v), nil
}

// UnknownField reports a field no cursor provides.
func UnknownField(field string) error {
	return ir.NewEvaluationError(ir.ErrCodeUnknownField, "field %q not found", field)
}
