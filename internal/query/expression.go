package query

import (
	"fmt"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/record"
)

// Expression is either a field reference or a constant.
// Exactly one of the two is set; the zero value is not a valid expression.
type Expression struct {
	field string
	val   ir.Constant
}

// FieldExpr creates a field reference.
func FieldExpr(name string) Expression {
	return Expression{field: name}
}

// ConstExpr creates a constant expression.
func ConstExpr(c ir.Constant) Expression {
	return Expression{val: c}
}

// IsFieldName reports whether the expression is a field reference.
func (e Expression) IsFieldName() bool {
	return e.val == nil && e.field != ""
}

// AsFieldName returns the referenced field, or "" for a constant.
func (e Expression) AsFieldName() string {
	if e.val != nil {
		return ""
	}
	return e.field
}

// AsConstant returns the constant, or nil for a field reference.
func (e Expression) AsConstant() ir.Constant {
	return e.val
}

// Evaluate returns the value of the expression for the current row of s.
func (e Expression) Evaluate(s Scan) (ir.Constant, error) {
	if e.val != nil {
		return e.val, nil
	}
	if e.field == "" {
		return nil, fmt.Errorf("evaluate empty expression")
	}
	return s.GetVal(e.field)
}

// AppliesTo reports whether the expression can be evaluated against rows
// of sch. Constants apply to every schema.
func (e Expression) AppliesTo(sch *record.Schema) bool {
	if e.val != nil {
		return true
	}
	return sch.HasField(e.field)
}

// Equal reports structural equality.
func (e Expression) Equal(other Expression) bool {
	if e.val != nil || other.val != nil {
		return ir.ConstantEqual(e.val, other.val)
	}
	return e.field == other.field
}

func (e Expression) String() string {
	if e.val != nil {
		return e.val.String()
	}
	return e.field
}
