package materialize

import (
	"fmt"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/query"
)

// AggregationFn folds the rows of one group into a single value.
type AggregationFn interface {
	// ProcessFirst starts a new group at the current row of s.
	ProcessFirst(s query.Scan) error

	// ProcessNext folds the current row of s into the group.
	ProcessNext(s query.Scan) error

	// FieldName is the name of the output field, e.g. "countofsid".
	FieldName() string

	// Value returns the aggregate of the group processed so far.
	Value() ir.Constant

	// Name returns the aggregate keyword, e.g. "count".
	Name() string

	// ArgField returns the field being aggregated.
	ArgField() string
}

// Aggregate keywords.
const (
	AggAvg   = "avg"
	AggCount = "count"
	AggMax   = "max"
	AggMin   = "min"
	AggSum   = "sum"
)

// NewAggregationFn instantiates the aggregate called name over field.
func NewAggregationFn(name, field string) (AggregationFn, error) {
	switch name {
	case AggAvg:
		return NewAvgFn(field), nil
	case AggCount:
		return NewCountFn(field), nil
	case AggMax:
		return NewMaxFn(field), nil
	case AggMin:
		return NewMinFn(field), nil
	case AggSum:
		return NewSumFn(field), nil
	default:
		return nil, fmt.Errorf("unknown aggregate %q", name)
	}
}

// Describe renders an aggregate as it appears in a select list.
func Describe(fn AggregationFn) string {
	return fn.Name() + "(" + fn.ArgField() + ")"
}

type base struct {
	name  string
	field string
}

func (b base) FieldName() string { return b.name + "of" + b.field }
func (b base) Name() string      { return b.name }
func (b base) ArgField() string  { return b.field }

// CountFn counts the rows of a group.
type CountFn struct {
	base
	count int64
}

func NewCountFn(field string) *CountFn {
	return &CountFn{base: base{name: AggCount, field: field}}
}

func (f *CountFn) ProcessFirst(query.Scan) error {
	f.count = 1
	return nil
}

func (f *CountFn) ProcessNext(query.Scan) error {
	f.count++
	return nil
}

func (f *CountFn) Value() ir.Constant { return ir.NewInt(f.count) }

// SumFn adds up an int field.
type SumFn struct {
	base
	sum int64
}

func NewSumFn(field string) *SumFn {
	return &SumFn{base: base{name: AggSum, field: field}}
}

func (f *SumFn) ProcessFirst(s query.Scan) error {
	f.sum = 0
	return f.ProcessNext(s)
}

func (f *SumFn) ProcessNext(s query.Scan) error {
	n, err := s.GetInt(f.field)
	if err != nil {
		return fmt.Errorf("%s(%s): %w", f.name, f.field, err)
	}
	f.sum += n
	return nil
}

func (f *SumFn) Value() ir.Constant { return ir.NewInt(f.sum) }

// AvgFn averages an int field. The result is truncated toward zero.
type AvgFn struct {
	base
	sum, count int64
}

func NewAvgFn(field string) *AvgFn {
	return &AvgFn{base: base{name: AggAvg, field: field}}
}

func (f *AvgFn) ProcessFirst(s query.Scan) error {
	f.sum, f.count = 0, 0
	return f.ProcessNext(s)
}

func (f *AvgFn) ProcessNext(s query.Scan) error {
	n, err := s.GetInt(f.field)
	if err != nil {
		return fmt.Errorf("%s(%s): %w", f.name, f.field, err)
	}
	f.sum += n
	f.count++
	return nil
}

func (f *AvgFn) Value() ir.Constant {
	if f.count == 0 {
		return ir.NewInt(0)
	}
	return ir.NewInt(f.sum / f.count)
}

// extremeFn keeps the smallest or largest value of any kind.
type extremeFn struct {
	base
	keepIfGreater bool
	val           ir.Constant
}

func (f *extremeFn) ProcessFirst(s query.Scan) error {
	v, err := s.GetVal(f.field)
	if err != nil {
		return fmt.Errorf("%s(%s): %w", f.name, f.field, err)
	}
	f.val = v
	return nil
}

func (f *extremeFn) ProcessNext(s query.Scan) error {
	v, err := s.GetVal(f.field)
	if err != nil {
		return fmt.Errorf("%s(%s): %w", f.name, f.field, err)
	}
	c, err := v.Compare(f.val)
	if err != nil {
		return fmt.Errorf("%s(%s): %w", f.name, f.field, err)
	}
	if (f.keepIfGreater && c > 0) || (!f.keepIfGreater && c < 0) {
		f.val = v
	}
	return nil
}

func (f *extremeFn) Value() ir.Constant { return f.val }

// MaxFn keeps the largest value of a field.
type MaxFn struct{ extremeFn }

func NewMaxFn(field string) *MaxFn {
	return &MaxFn{extremeFn{base: base{name: AggMax, field: field}, keepIfGreater: true}}
}

// MinFn keeps the smallest value of a field.
type MinFn struct{ extremeFn }

func NewMinFn(field string) *MinFn {
	return &MinFn{extremeFn{base: base{name: AggMin, field: field}}}
}
