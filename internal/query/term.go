package query

import (
	"math"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/record"
)

// Term is a comparison between two expressions.
type Term struct {
	lhs Expression
	op  CondOp
	rhs Expression
}

// NewTerm creates a term "lhs op rhs".
func NewTerm(lhs Expression, op CondOp, rhs Expression) Term {
	return Term{lhs: lhs, op: op, rhs: rhs}
}

// LHS returns the left-hand expression.
func (t Term) LHS() Expression { return t.lhs }

// RHS returns the right-hand expression.
func (t Term) RHS() Expression { return t.rhs }

// Op returns the comparison operator.
func (t Term) Op() CondOp { return t.op }

// IsSatisfied evaluates the term against the current row of s.
func (t Term) IsSatisfied(s Scan) (bool, error) {
	l, err := t.lhs.Evaluate(s)
	if err != nil {
		return false, err
	}
	r, err := t.rhs.Evaluate(s)
	if err != nil {
		return false, err
	}
	return t.op.Evaluate(l, r)
}

// ReductionFactor estimates how much the term shrinks its input.
//
// Two fields give the larger of their distinct-value counts; one field
// gives its count. Two constants give 1 when they are equal (the term is
// always true) and math.MaxInt otherwise (the term is always false).
func (t Term) ReductionFactor(stats PlanStats) int {
	switch {
	case t.lhs.IsFieldName() && t.rhs.IsFieldName():
		return max(stats.DistinctValues(t.lhs.AsFieldName()), stats.DistinctValues(t.rhs.AsFieldName()))
	case t.lhs.IsFieldName():
		return stats.DistinctValues(t.lhs.AsFieldName())
	case t.rhs.IsFieldName():
		return stats.DistinctValues(t.rhs.AsFieldName())
	}
	if ir.ConstantEqual(t.lhs.AsConstant(), t.rhs.AsConstant()) {
		return 1
	}
	return math.MaxInt
}

// EquatesWithConstant returns c if the term has the form "field = c" or
// "c = field".
func (t Term) EquatesWithConstant(field string) (ir.Constant, bool) {
	if t.op != Equals {
		return nil, false
	}
	if t.lhs.IsFieldName() && t.lhs.AsFieldName() == field && !t.rhs.IsFieldName() {
		return t.rhs.AsConstant(), true
	}
	if t.rhs.IsFieldName() && t.rhs.AsFieldName() == field && !t.lhs.IsFieldName() {
		return t.lhs.AsConstant(), true
	}
	return nil, false
}

// EquatesWithField returns g if the term has the form "field = g" or
// "g = field" where g is another field.
func (t Term) EquatesWithField(field string) (string, bool) {
	if t.op != Equals || !t.lhs.IsFieldName() || !t.rhs.IsFieldName() {
		return "", false
	}
	if t.lhs.AsFieldName() == field {
		return t.rhs.AsFieldName(), true
	}
	if t.rhs.AsFieldName() == field {
		return t.lhs.AsFieldName(), true
	}
	return "", false
}

// AppliesTo reports whether both sides can be evaluated against sch.
func (t Term) AppliesTo(sch *record.Schema) bool {
	return t.lhs.AppliesTo(sch) && t.rhs.AppliesTo(sch)
}

// HasRelationBetweenFields reports whether the term compares f1 and f2
// directly, in either order.
func (t Term) HasRelationBetweenFields(f1, f2 string) bool {
	if !t.lhs.IsFieldName() || !t.rhs.IsFieldName() {
		return false
	}
	l, r := t.lhs.AsFieldName(), t.rhs.AsFieldName()
	return (l == f1 && r == f2) || (l == f2 && r == f1)
}

// Equal reports structural equality.
func (t Term) Equal(other Term) bool {
	return t.op == other.op && t.lhs.Equal(other.lhs) && t.rhs.Equal(other.rhs)
}

func (t Term) String() string {
	return t.lhs.String() + " " + t.op.String() + " " + t.rhs.String()
}
