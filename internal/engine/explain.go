package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/parse"
	"github.com/roach88/minirel/internal/query"
	"github.com/roach88/minirel/internal/scan"
	"github.com/roach88/minirel/internal/store"
)

// Explanation describes how a query would run.
type Explanation struct {
	Statement string         `json:"statement"`
	JoinMode  string         `json:"join_mode"`
	Tables    []TableExplain `json:"tables"`
	Joins     []JoinExplain  `json:"joins"`
	Residual  string         `json:"residual"`
	GroupBy   []string       `json:"group_by"`
	OrderBy   string         `json:"order_by"`
	Distinct  bool           `json:"distinct"`
	Output    []string       `json:"output"`
}

// TableExplain describes the read of one FROM entry.
type TableExplain struct {
	Name     string `json:"name"`
	View     bool   `json:"view"`
	Rows     int    `json:"rows"`
	Pushdown string `json:"pushdown"`

	// DrivingTerm is the pushed-down term most likely to narrow the read.
	DrivingTerm string `json:"driving_term"`

	// Indexes lists the indexes on the driving term's field.
	Indexes []string `json:"indexes"`

	ReductionFactor int `json:"reduction_factor"`
	EstimatedRows   int `json:"estimated_rows"`
}

// JoinExplain describes one join step.
type JoinExplain struct {
	Table      string `json:"table"`
	Method     string `json:"method"`
	Condition  string `json:"condition"`
	LeftField  string `json:"left_field,omitempty"`
	RightField string `json:"right_field,omitempty"`
}

// Explain plans a select statement without running it. Table statistics
// are read from the store; views are run to measure them.
func (e *Engine) Explain(ctx context.Context, statement string) (*Explanation, error) {
	cmd, err := parse.Parse(statement)
	if err != nil {
		return nil, err
	}
	q, ok := cmd.(*parse.QueryData)
	if !ok {
		return nil, fmt.Errorf("explain supports select statements only, got %s", commandKind(cmd))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.planQuery(ctx, q, 0)
	if err != nil {
		return nil, err
	}

	x := &Explanation{
		Statement: q.String(),
		JoinMode:  string(p.mode),
		Tables:    []TableExplain{},
		Joins:     []JoinExplain{},
		Residual:  p.residual.String(),
		GroupBy:   append([]string{}, q.GroupBy...),
		Distinct:  q.Distinct,
		Output:    q.OutputFields(),
	}
	order := make([]string, len(q.OrderBy))
	for i, o := range q.OrderBy {
		order[i] = o.String()
	}
	x.OrderBy = strings.Join(order, ", ")

	for _, src := range p.sources {
		te, err := e.explainSource(ctx, src)
		if err != nil {
			return nil, err
		}
		x.Tables = append(x.Tables, te)
	}
	for i, step := range p.joins {
		x.Joins = append(x.Joins, JoinExplain{
			Table:      p.sources[i+1].name,
			Method:     string(step.method),
			Condition:  step.cond.String(),
			LeftField:  step.leftField,
			RightField: step.rightField,
		})
	}
	return x, nil
}

func (e *Engine) explainSource(ctx context.Context, src *source) (TableExplain, error) {
	te := TableExplain{
		Name:     src.name,
		View:     src.view != nil,
		Pushdown: src.pushdown.String(),
		Indexes:  []string{},
	}

	var stats *store.TableStats
	if src.view == nil {
		var err error
		if stats, err = e.store.Stats(ctx, src.name); err != nil {
			return te, err
		}
		if t, ok := src.pushdown.GetMostConstrainingTerm(); ok {
			te.DrivingTerm = t.String()
			ixs, err := e.store.Indexes(ctx, src.name)
			if err != nil {
				return te, err
			}
			for _, ix := range ixs {
				if termMentions(t, ix.Field) {
					te.Indexes = append(te.Indexes, ix.Name)
				}
			}
		}
	} else {
		m, err := e.materializeView(ctx, src)
		if err != nil {
			return te, err
		}
		stats = statsOf(src.name, m)
		if t, ok := src.pushdown.GetMostConstrainingTerm(); ok {
			te.DrivingTerm = t.String()
		}
	}

	te.Rows = stats.Rows
	te.ReductionFactor = src.pushdown.ReductionFactor(stats)
	te.EstimatedRows = stats.Rows / te.ReductionFactor
	return te, nil
}

func termMentions(t query.Term, field string) bool {
	return (t.LHS().IsFieldName() && t.LHS().AsFieldName() == field) ||
		(t.RHS().IsFieldName() && t.RHS().AsFieldName() == field)
}

// statsOf counts the rows and distinct values of an in-memory result.
func statsOf(name string, m *scan.Materialized) *store.TableStats {
	fields := m.Schema().Fields()
	st := &store.TableStats{Table: name, Rows: m.Len(), Distinct: make(map[string]int, len(fields))}
	for i, f := range fields {
		seen := make(map[string]struct{})
		for _, row := range m.Rows() {
			seen[valueKey(row[i])] = struct{}{}
		}
		st.Distinct[f] = len(seen)
	}
	return st
}

func valueKey(c ir.Constant) string {
	return c.Kind().String() + ":" + c.String()
}

// String renders the explanation as indented text.
func (x *Explanation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "query: %s\n", x.Statement)
	fmt.Fprintf(&b, "join mode: %s\n", x.JoinMode)
	for _, t := range x.Tables {
		kind := "table"
		if t.View {
			kind = "view"
		}
		fmt.Fprintf(&b, "%s %s: rows=%d estimated=%d reduction=%d\n", kind, t.Name, t.Rows, t.EstimatedRows, t.ReductionFactor)
		if t.Pushdown != "" {
			fmt.Fprintf(&b, "  pushdown: %s\n", t.Pushdown)
		}
		if t.DrivingTerm != "" {
			fmt.Fprintf(&b, "  driving term: %s\n", t.DrivingTerm)
		}
		if len(t.Indexes) > 0 {
			fmt.Fprintf(&b, "  indexes: %s\n", strings.Join(t.Indexes, ", "))
		}
	}
	for _, j := range x.Joins {
		switch j.Method {
		case string(JoinMethodMerge):
			fmt.Fprintf(&b, "join %s: merge on %s = %s\n", j.Table, j.LeftField, j.RightField)
		default:
			fmt.Fprintf(&b, "join %s: nested\n", j.Table)
		}
		if j.Condition != "" {
			fmt.Fprintf(&b, "  condition: %s\n", j.Condition)
		}
	}
	if x.Residual != "" {
		fmt.Fprintf(&b, "filter: %s\n", x.Residual)
	}
	if len(x.GroupBy) > 0 {
		fmt.Fprintf(&b, "group by: %s\n", strings.Join(x.GroupBy, ", "))
	}
	if x.OrderBy != "" {
		fmt.Fprintf(&b, "order by: %s\n", x.OrderBy)
	}
	if x.Distinct {
		b.WriteString("distinct\n")
	}
	fmt.Fprintf(&b, "output: %s\n", strings.Join(x.Output, ", "))
	return b.String()
}
