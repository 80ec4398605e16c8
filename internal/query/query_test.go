package query

import (
	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/record"
)

// rowScan is a single-row cursor over a fixed set of values.
type rowScan map[string]ir.Constant

func (rowScan) BeforeFirst() error  { return nil }
func (rowScan) Next() (bool, error) { return false, nil }
func (rowScan) Close() error        { return nil }

func (r rowScan) GetVal(field string) (ir.Constant, error) {
	v, ok := r[field]
	if !ok {
		return nil, ir.NewEvaluationError(ir.ErrCodeUnknownField, "field %q not found", field)
	}
	return v, nil
}

func (r rowScan) GetInt(field string) (int64, error) {
	v, err := r.GetVal(field)
	if err != nil {
		return 0, err
	}
	return int64(v.(ir.IntConstant)), nil
}

func (r rowScan) GetString(field string) (string, error) {
	v, err := r.GetVal(field)
	if err != nil {
		return "", err
	}
	return string(v.(ir.StringConstant)), nil
}

func (r rowScan) HasField(field string) bool {
	_, ok := r[field]
	return ok
}

type fixedStats map[string]int

func (s fixedStats) DistinctValues(field string) int { return s[field] }

func schemaOf(fields ...string) *record.Schema {
	sch := record.NewSchema()
	for _, f := range fields {
		sch.AddIntField(f)
	}
	return sch
}

func intTerm(field string, op CondOp, n int64) Term {
	return NewTerm(FieldExpr(field), op, ConstExpr(ir.NewInt(n)))
}

func fieldTerm(a string, op CondOp, b string) Term {
	return NewTerm(FieldExpr(a), op, FieldExpr(b))
}
