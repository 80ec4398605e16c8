package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/minirel/internal/config"
	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/materialize"
	"github.com/roach88/minirel/internal/parse"
	"github.com/roach88/minirel/internal/query"
	"github.com/roach88/minirel/internal/record"
	"github.com/roach88/minirel/internal/scan"
)

// maxViewDepth bounds how deeply views may be defined on other views.
const maxViewDepth = 16

// JoinMethod names how two inputs of a query are combined.
type JoinMethod string

const (
	// JoinMethodMerge sorts both sides on an equated field pair and merges.
	JoinMethodMerge JoinMethod = "merge"

	// JoinMethodNested pairs every row of one side with every row of the other.
	JoinMethodNested JoinMethod = "nested"
)

// source is one entry of a FROM list.
type source struct {
	name     string
	view     *queryPlan // nil for a stored table
	schema   *record.Schema
	pushdown *query.Predicate // terms that apply to this source alone, or nil
}

// joinStep adds one source to the left-deep join built so far.
type joinStep struct {
	method     JoinMethod
	leftField  string
	rightField string
	cond       *query.Predicate // terms relating the two sides, or nil
}

// queryPlan is a checked select statement, ready to open.
type queryPlan struct {
	q        *parse.QueryData
	mode     config.JoinMode
	sources  []*source
	joins    []joinStep // joins[i] adds sources[i+1]
	joined   *record.Schema
	residual *query.Predicate
	grouped  bool
	grouping *record.Schema // schema of group-by output, when grouped
	output   *record.Schema
}

// planQuery resolves the tables of q, checks every field reference, and
// decides pushdown and join order.
//
// Joins are left-deep in FROM order. In merge mode a pair of sources
// related by an equality between their fields is merge joined; every
// other pair is joined by nested loop. The full predicate, minus the
// terms pushed into single-source reads, is applied after the joins.
func (e *Engine) planQuery(ctx context.Context, q *parse.QueryData, depth int) (*queryPlan, error) {
	if depth > maxViewDepth {
		return nil, planErrorf(ErrCodeInvalidView, "views nested more than %d deep", maxViewDepth)
	}

	p := &queryPlan{q: q, mode: e.cfg.JoinMode(), joined: record.NewSchema()}
	seen := make(map[string]bool, len(q.Tables))
	for _, name := range q.Tables {
		if seen[name] {
			return nil, planErrorf(ErrCodeDuplicateTable, "table %q listed twice", name)
		}
		seen[name] = true

		src, err := e.planSource(ctx, name, depth)
		if err != nil {
			return nil, err
		}
		for _, f := range src.schema.Fields() {
			if p.joined.HasField(f) {
				return nil, planErrorf(ErrCodeAmbiguousField, "field %q appears in more than one table", f)
			}
		}
		p.joined.AddAll(src.schema)
		p.sources = append(p.sources, src)
	}

	if err := q.Pred.TypeCheck(p.joined); err != nil {
		return nil, err
	}

	p.residual = query.NewPredicate(q.Pred.Terms()...)
	for _, src := range p.sources {
		src.pushdown = q.Pred.SelectSubPred(src.schema)
		p.residual.DifferenceWith(src.pushdown)
	}
	p.planJoins()

	if err := p.planOutput(); err != nil {
		return nil, err
	}

	slog.Debug("query planned",
		"tables", len(p.sources),
		"join_mode", p.mode,
		"residual", p.residual.String(),
		"grouped", p.grouped,
	)
	return p, nil
}

// planSource resolves a FROM entry to a stored table or a view.
func (e *Engine) planSource(ctx context.Context, name string, depth int) (*source, error) {
	def, isView, err := e.store.ViewDef(ctx, name)
	if err != nil {
		return nil, err
	}
	if !isView {
		sch, err := e.store.Schema(ctx, name)
		if err != nil {
			return nil, err
		}
		return &source{name: name, schema: sch}, nil
	}

	cmd, err := parse.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", name, err)
	}
	vq, ok := cmd.(*parse.QueryData)
	if !ok {
		return nil, planErrorf(ErrCodeInvalidView, "view %s is not defined by a query", name)
	}
	vp, err := e.planQuery(ctx, vq, depth+1)
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", name, err)
	}
	return &source{name: name, view: vp, schema: vp.output}, nil
}

func (p *queryPlan) planJoins() {
	if len(p.sources) == 0 {
		return
	}
	left := p.sources[0].schema
	for _, src := range p.sources[1:] {
		step := joinStep{method: JoinMethodNested, cond: p.q.Pred.JoinSubPred(left, src.schema)}
		if p.mode == config.JoinMerge {
			if lf, rf, ok := equiJoinFields(step.cond, left, src.schema); ok {
				step.method, step.leftField, step.rightField = JoinMethodMerge, lf, rf
			}
		}
		p.joins = append(p.joins, step)
		left = record.Union(left, src.schema)
	}
}

// equiJoinFields finds the first pair of fields, one from each side, that
// cond equates.
func equiJoinFields(cond *query.Predicate, left, right *record.Schema) (string, string, bool) {
	for _, t := range cond.Terms() {
		if !t.LHS().IsFieldName() || !t.RHS().IsFieldName() {
			continue
		}
		a, b := t.LHS().AsFieldName(), t.RHS().AsFieldName()
		if !left.HasField(a) {
			a, b = b, a
		}
		if !left.HasField(a) || !right.HasField(b) {
			continue
		}
		if op, ok := cond.RelationBetweenFields(a, b); ok && op == query.Equals {
			return a, b, true
		}
	}
	return "", "", false
}

// planOutput checks the select list, group-by and order-by, and builds
// the output schema.
func (p *queryPlan) planOutput() error {
	q := p.q
	for _, f := range q.Fields() {
		if !p.joined.HasField(f) {
			return planErrorf(ErrCodeUnknownField, "field %q not found", f)
		}
	}
	for _, f := range q.GroupBy {
		if !p.joined.HasField(f) {
			return planErrorf(ErrCodeUnknownField, "group by field %q not found", f)
		}
	}

	fns := q.Aggregates()
	p.grouped = len(fns) > 0 || len(q.GroupBy) > 0
	available := p.joined

	if p.grouped {
		p.grouping = record.NewSchema()
		for _, f := range q.GroupBy {
			p.grouping.AddField(f, p.joined)
		}
		for _, proj := range q.Projections {
			if proj.Aggregate == nil && !p.grouping.HasField(proj.Field) {
				return planErrorf(ErrCodeInvalidGrouping, "field %q must appear in group by or inside an aggregate", proj.Field)
			}
		}
		for _, fn := range fns {
			info, err := aggregateInfo(fn, p.joined)
			if err != nil {
				return err
			}
			p.grouping.Add(fn.FieldName(), info)
		}
		available = p.grouping
	}

	for _, o := range q.OrderBy {
		if available.HasField(o.Field) {
			continue
		}
		if p.grouped {
			return planErrorf(ErrCodeInvalidGrouping, "order by field %q must be grouped or aggregated", o.Field)
		}
		return planErrorf(ErrCodeUnknownField, "order by field %q not found", o.Field)
	}

	p.output = record.NewSchema()
	for _, f := range q.OutputFields() {
		p.output.AddField(f, available)
	}
	return nil
}

// aggregateInfo returns the type of an aggregate's output field.
func aggregateInfo(fn materialize.AggregationFn, sch *record.Schema) (record.FieldInfo, error) {
	arg, _ := sch.Info(fn.ArgField())
	switch fn.Name() {
	case materialize.AggCount:
		return record.FieldInfo{Type: ir.KindInt}, nil
	case materialize.AggSum, materialize.AggAvg:
		if arg.Type != ir.KindInt {
			return record.FieldInfo{}, planErrorf(ErrCodeInvalidAggregate,
				"%s needs an int field, %q is %s", fn.Name(), fn.ArgField(), arg.Type)
		}
		return record.FieldInfo{Type: ir.KindInt}, nil
	default:
		return arg, nil
	}
}

// open builds the scan tree for the plan. Stored tables are read with
// their pushed-down terms applied by the store; views are run and
// filtered in memory. On error every scan opened so far is closed.
func (e *Engine) open(ctx context.Context, p *queryPlan) (_ query.Scan, err error) {
	inputs := make([]query.Scan, 0, len(p.sources))
	for _, src := range p.sources {
		s, err := e.openSource(ctx, src)
		if err != nil {
			closeAll(inputs)
			return nil, err
		}
		inputs = append(inputs, s)
	}

	cur, err := joinInputs(p, inputs)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = cur.Close()
		}
	}()
	sch := p.joined

	if !p.residual.IsEmpty() {
		cur = scan.NewSelectScan(cur, p.residual)
	}

	q := p.q
	if p.grouped {
		if len(q.GroupBy) > 0 {
			keys := make([]scan.SortKey, len(q.GroupBy))
			for i, f := range q.GroupBy {
				keys[i] = scan.SortKey{Field: f}
			}
			sorted, err := sortAndClose(cur, sch, keys)
			if err != nil {
				return nil, err
			}
			cur = sorted
		}
		// Aggregates in the parsed statement keep state; each run gets its own.
		fns := make([]materialize.AggregationFn, 0, len(q.Aggregates()))
		for _, tmpl := range q.Aggregates() {
			fn, err := materialize.NewAggregationFn(tmpl.Name(), tmpl.ArgField())
			if err != nil {
				return nil, err
			}
			fns = append(fns, fn)
		}
		g, err := materialize.NewGroupByScan(cur, q.GroupBy, fns)
		if err != nil {
			return nil, err
		}
		cur, sch = g, p.grouping
	}

	if len(q.OrderBy) > 0 {
		keys := make([]scan.SortKey, len(q.OrderBy))
		for i, o := range q.OrderBy {
			keys[i] = scan.SortKey{Field: o.Field, Desc: o.Desc}
		}
		sorted, err := sortAndClose(cur, sch, keys)
		if err != nil {
			return nil, err
		}
		cur = sorted
	}

	fields := q.OutputFields()
	if q.Distinct {
		cur = scan.NewDistinctScan(cur, fields)
	}
	return scan.NewProjectScan(cur, fields), nil
}

// joinInputs joins the opened sources left-deep, following p.joins.
// inputs[i] is the scan of p.sources[i]. On error every input is closed.
func joinInputs(p *queryPlan, inputs []query.Scan) (_ query.Scan, err error) {
	cur, pending := inputs[0], inputs[1:]
	defer func() {
		if err != nil {
			_ = cur.Close()
			closeAll(pending)
		}
	}()

	sch := p.sources[0].schema
	for i, step := range p.joins {
		right, rightSch := pending[0], p.sources[i+1].schema
		switch step.method {
		case JoinMethodMerge:
			l, err := sortAndClose(cur, sch, []scan.SortKey{{Field: step.leftField}})
			if err != nil {
				return nil, err
			}
			cur = l
			r, err := sortAndClose(right, rightSch, []scan.SortKey{{Field: step.rightField}})
			if err != nil {
				return nil, err
			}
			pending = pending[1:]
			mj, err := materialize.NewMergeJoinScan(l, r, step.leftField, step.rightField, query.Equals)
			if err != nil {
				_ = r.Close()
				return nil, err
			}
			cur = mj
		default:
			cur = scan.NewProductScan(cur, right)
			pending = pending[1:]
		}
		sch = record.Union(sch, rightSch)
	}
	return cur, nil
}

// sortAndClose sorts s into memory and closes s, which the sorted copy
// replaces. On error s is left for the caller to close.
func sortAndClose(s query.Scan, sch *record.Schema, keys []scan.SortKey) (*scan.Materialized, error) {
	m, err := scan.Sort(s, sch, keys)
	if err != nil {
		return nil, err
	}
	if err := s.Close(); err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}

// closeAll closes every scan, ignoring errors; it runs on failure paths
// where the original error is the one reported.
func closeAll(scans []query.Scan) {
	for _, s := range scans {
		_ = s.Close()
	}
}

func (e *Engine) openSource(ctx context.Context, src *source) (query.Scan, error) {
	if src.view == nil {
		return e.store.Scan(ctx, src.name, src.pushdown, nil)
	}
	m, err := e.materializeView(ctx, src)
	if err != nil {
		return nil, err
	}
	if src.pushdown == nil {
		return m, nil
	}
	return scan.NewSelectScan(m, src.pushdown), nil
}

// materializeView runs a view's query and keeps its rows in memory.
func (e *Engine) materializeView(ctx context.Context, src *source) (*scan.Materialized, error) {
	fields := src.schema.Fields()
	rows, err := e.run(ctx, src.view, fields)
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", src.name, err)
	}
	out := make([]scan.Row, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return scan.NewMaterialized(src.schema, out)
}

// run opens the plan and reads fields from every row.
func (e *Engine) run(ctx context.Context, p *queryPlan, fields []string) ([][]ir.Constant, error) {
	s, err := e.open(ctx, p)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	quota := newRowQuota(e.maxRows)
	if err := s.BeforeFirst(); err != nil {
		return nil, err
	}
	var rows [][]ir.Constant
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		if err := quota.Check(); err != nil {
			return nil, err
		}
		row := make([]ir.Constant, len(fields))
		for i, f := range fields {
			if row[i], err = s.GetVal(f); err != nil {
				return nil, err
			}
		}
		rows = append(rows, row)
	}
}
