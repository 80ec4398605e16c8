package query

import (
	"math"
	"slices"
	"strings"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/record"
)

// Predicate is a conjunction of terms. The empty predicate is always true.
// A nil *Predicate behaves as the empty predicate for read operations.
type Predicate struct {
	terms []Term
}

// NewPredicate creates a predicate from terms, in order.
func NewPredicate(terms ...Term) *Predicate {
	return &Predicate{terms: slices.Clone(terms)}
}

// Terms returns a copy of the terms in order.
func (p *Predicate) Terms() []Term {
	if p == nil {
		return nil
	}
	return slices.Clone(p.terms)
}

// Len returns the number of terms.
func (p *Predicate) Len() int {
	if p == nil {
		return 0
	}
	return len(p.terms)
}

// IsEmpty reports whether the predicate has no terms.
func (p *Predicate) IsEmpty() bool {
	return p.Len() == 0
}

// ConjoinWith appends the terms of other.
func (p *Predicate) ConjoinWith(other *Predicate) {
	if other == nil {
		return
	}
	p.terms = append(p.terms, other.terms...)
}

// DifferenceWith removes every term that also appears in other.
func (p *Predicate) DifferenceWith(other *Predicate) {
	if other == nil {
		return
	}
	p.terms = slices.DeleteFunc(p.terms, func(t Term) bool {
		return slices.ContainsFunc(other.terms, t.Equal)
	})
}

// IsSatisfied evaluates every term against the current row of s,
// stopping at the first false term.
func (p *Predicate) IsSatisfied(s Scan) (bool, error) {
	for _, t := range p.Terms() {
		ok, err := t.IsSatisfied(s)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// ReductionFactor multiplies the reduction factors of all terms,
// saturating at math.MaxInt.
func (p *Predicate) ReductionFactor(stats PlanStats) int {
	factor := 1
	for _, t := range p.Terms() {
		rf := t.ReductionFactor(stats)
		if rf > 0 && factor > math.MaxInt/rf {
			return math.MaxInt
		}
		factor *= rf
	}
	return factor
}

// SelectSubPred returns the terms that apply entirely to sch, or nil if
// there are none.
func (p *Predicate) SelectSubPred(sch *record.Schema) *Predicate {
	result := &Predicate{}
	for _, t := range p.Terms() {
		if t.AppliesTo(sch) {
			result.terms = append(result.terms, t)
		}
	}
	if result.IsEmpty() {
		return nil
	}
	return result
}

// JoinSubPred returns the terms that apply to the union of sch1 and sch2
// but to neither schema alone, or nil if there are none.
func (p *Predicate) JoinSubPred(sch1, sch2 *record.Schema) *Predicate {
	union := record.Union(sch1, sch2)
	result := &Predicate{}
	for _, t := range p.Terms() {
		if !t.AppliesTo(sch1) && !t.AppliesTo(sch2) && t.AppliesTo(union) {
			result.terms = append(result.terms, t)
		}
	}
	if result.IsEmpty() {
		return nil
	}
	return result
}

// GetMostConstrainingTerm picks the term best suited to drive a scan.
// The first equality wins outright. Otherwise the first < or > term is
// preferred, then the first <= or >= term, then the first <> term.
func (p *Predicate) GetMostConstrainingTerm() (Term, bool) {
	var strict, nonStrict, notEqual *Term
	for i := 0; i < p.Len(); i++ {
		t := &p.terms[i]
		switch {
		case t.op == Equals:
			return *t, true
		case t.op.IsStrictInequality():
			if strict == nil {
				strict = t
			}
		case t.op.IsInequality():
			if nonStrict == nil {
				nonStrict = t
			}
		case t.op == NotEquals:
			if notEqual == nil {
				notEqual = t
			}
		}
	}
	for _, t := range []*Term{strict, nonStrict, notEqual} {
		if t != nil {
			return *t, true
		}
	}
	return Term{}, false
}

// EquatesWithConstant returns c from the first term of the form
// "field = c".
func (p *Predicate) EquatesWithConstant(field string) (ir.Constant, bool) {
	for _, t := range p.Terms() {
		if c, ok := t.EquatesWithConstant(field); ok {
			return c, true
		}
	}
	return nil, false
}

// EquatesWithField returns g from the first term of the form
// "field = g".
func (p *Predicate) EquatesWithField(field string) (string, bool) {
	for _, t := range p.Terms() {
		if g, ok := t.EquatesWithField(field); ok {
			return g, true
		}
	}
	return "", false
}

// RelationBetweenFields returns the operator relating f1 to f2, read as
// "f1 op f2". An equality wins over any earlier relation; otherwise the
// first relation in term order is returned.
func (p *Predicate) RelationBetweenFields(f1, f2 string) (CondOp, bool) {
	var first CondOp
	found := false
	for _, t := range p.Terms() {
		if !t.HasRelationBetweenFields(f1, f2) {
			continue
		}
		op := t.op
		if t.lhs.AsFieldName() != f1 {
			op = op.Reverse()
		}
		if op == Equals {
			return op, true
		}
		if !found {
			first, found = op, true
		}
	}
	return first, found
}

// String renders the predicate as "t1 and t2 and ...". The empty
// predicate renders as "".
func (p *Predicate) String() string {
	parts := make([]string, 0, p.Len())
	for _, t := range p.Terms() {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, " and ")
}

// TypeCheck verifies that every field the predicate names exists in sch
// and that both sides of each term have the same kind.
func (p *Predicate) TypeCheck(sch *record.Schema) error {
	for _, t := range p.Terms() {
		l, err := expressionKind(t.lhs, sch)
		if err != nil {
			return err
		}
		r, err := expressionKind(t.rhs, sch)
		if err != nil {
			return err
		}
		if l != r {
			return ir.NewEvaluationError(ir.ErrCodeKindMismatch, "term %s compares %s with %s", t, l, r)
		}
	}
	return nil
}

func expressionKind(e Expression, sch *record.Schema) (ir.Kind, error) {
	if c := e.AsConstant(); c != nil {
		return c.Kind(), nil
	}
	if !sch.HasField(e.AsFieldName()) {
		return 0, UnknownField(e.AsFieldName())
	}
	return sch.Type(e.AsFieldName()), nil
}
