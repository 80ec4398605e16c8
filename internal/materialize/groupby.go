package materialize

import (
	"slices"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/query"
)

// GroupByScan groups consecutive rows of s that agree on the group fields
// and computes the aggregates of each group. The input must be sorted on
// the group fields. With no group fields the whole input is one group.
type GroupByScan struct {
	s          query.Scan
	fields     []string
	fns        []AggregationFn
	groupVal   map[string]ir.Constant
	moreGroups bool
}

// NewGroupByScan wraps s and positions it before the first group.
func NewGroupByScan(s query.Scan, groupFields []string, fns []AggregationFn) (*GroupByScan, error) {
	g := &GroupByScan{s: s, fields: slices.Clone(groupFields), fns: fns}
	if err := g.BeforeFirst(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GroupByScan) BeforeFirst() error {
	g.groupVal = nil
	if err := g.s.BeforeFirst(); err != nil {
		return err
	}
	more, err := g.s.Next()
	if err != nil {
		return err
	}
	g.moreGroups = more
	return nil
}

func (g *GroupByScan) Next() (bool, error) {
	if !g.moreGroups {
		return false, nil
	}
	for _, fn := range g.fns {
		if err := fn.ProcessFirst(g.s); err != nil {
			return false, err
		}
	}
	current, err := g.currentGroup()
	if err != nil {
		return false, err
	}
	g.groupVal = current
	for {
		more, err := g.s.Next()
		if err != nil {
			return false, err
		}
		g.moreGroups = more
		if !more {
			break
		}
		next, err := g.currentGroup()
		if err != nil {
			return false, err
		}
		if !sameGroup(current, next) {
			break
		}
		for _, fn := range g.fns {
			if err := fn.ProcessNext(g.s); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

func (g *GroupByScan) currentGroup() (map[string]ir.Constant, error) {
	vals := make(map[string]ir.Constant, len(g.fields))
	for _, f := range g.fields {
		v, err := g.s.GetVal(f)
		if err != nil {
			return nil, err
		}
		vals[f] = v
	}
	return vals, nil
}

func sameGroup(a, b map[string]ir.Constant) bool {
	for f, v := range a {
		if !ir.ConstantEqual(v, b[f]) {
			return false
		}
	}
	return true
}

func (g *GroupByScan) GetVal(field string) (ir.Constant, error) {
	if v, ok := g.groupVal[field]; ok {
		return v, nil
	}
	for _, fn := range g.fns {
		if fn.FieldName() == field {
			return fn.Value(), nil
		}
	}
	return nil, query.UnknownField(field)
}

func (g *GroupByScan) GetInt(field string) (int64, error) {
	v, err := g.GetVal(field)
	if err != nil {
		return 0, err
	}
	return query.IntValue(field, v)
}

func (g *GroupByScan) GetString(field string) (string, error) {
	v, err := g.GetVal(field)
	if err != nil {
		return "", err
	}
	return query.StringValue(field, v)
}

func (g *GroupByScan) HasField(field string) bool {
	if slices.Contains(g.fields, field) {
		return true
	}
	return slices.ContainsFunc(g.fns, func(fn AggregationFn) bool { return fn.FieldName() == field })
}

func (g *GroupByScan) Close() error { return g.s.Close() }
