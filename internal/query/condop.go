package query

import (
	"fmt"

	"github.com/roach88/minirel/internal/ir"
)

// CondOp is a comparison operator. The zero value is not a valid operator.
type CondOp int

const (
	LessThan CondOp = iota + 1
	LessThanOrEquals
	Equals
	MoreThan
	MoreThanOrEquals
	NotEquals
)

var condOpSymbols = map[CondOp]string{
	LessThan:         "<",
	LessThanOrEquals: "<=",
	Equals:           "=",
	MoreThan:         ">",
	MoreThanOrEquals: ">=",
	NotEquals:        "<>",
}

// ParseCondOp maps an operator symbol to its CondOp.
func ParseCondOp(symbol string) (CondOp, error) {
	for op, s := range condOpSymbols {
		if s == symbol {
			return op, nil
		}
	}
	return 0, ir.NewEvaluationError(ir.ErrCodeUnknownOperator, "unknown operator %q", symbol)
}

// Valid reports whether op is one of the six operators.
func (op CondOp) Valid() bool {
	_, ok := condOpSymbols[op]
	return ok
}

func (op CondOp) String() string {
	if s, ok := condOpSymbols[op]; ok {
		return s
	}
	return fmt.Sprintf("condop(%d)", int(op))
}

// Evaluate applies the operator to a and b.
// Constants of different kinds are never coerced; comparing them fails.
func (op CondOp) Evaluate(a, b ir.Constant) (bool, error) {
	if !op.Valid() {
		return false, ir.NewEvaluationError(ir.ErrCodeUnknownOperator, "operator %s is not defined", op)
	}
	if a == nil || b == nil {
		return false, ir.NewEvaluationError(ir.ErrCodeKindMismatch, "cannot apply %s to a missing value", op)
	}
	c, err := a.Compare(b)
	if err != nil {
		return false, err
	}
	switch op {
	case LessThan:
		return c < 0, nil
	case LessThanOrEquals:
		return c <= 0, nil
	case Equals:
		return c == 0, nil
	case MoreThan:
		return c > 0, nil
	case MoreThanOrEquals:
		return c >= 0, nil
	default:
		return c != 0, nil
	}
}

// Reverse returns the operator that holds for (b, a) whenever op holds
// for (a, b).
func (op CondOp) Reverse() CondOp {
	switch op {
	case LessThan:
		return MoreThan
	case LessThanOrEquals:
		return MoreThanOrEquals
	case MoreThan:
		return LessThan
	case MoreThanOrEquals:
		return LessThanOrEquals
	default:
		return op
	}
}

// IsStrictInequality reports whether op is < or >.
func (op CondOp) IsStrictInequality() bool {
	return op == LessThan || op == MoreThan
}

// IsInequality reports whether op is <= or >=.
func (op CondOp) IsInequality() bool {
	return op == LessThanOrEquals || op == MoreThanOrEquals
}
