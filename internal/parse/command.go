package parse

import (
	"strings"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/materialize"
	"github.com/roach88/minirel/internal/query"
	"github.com/roach88/minirel/internal/record"
)

// Command is the result of parsing one statement.
//
// This is a sealed interface - only the *Data types in this package
// implement it, so a type switch over them is exhaustive.
type Command interface {
	command() // Marker method - seals interface to this package

	// String renders the command back to statement text that parses to an
	// equivalent command.
	String() string

	// Canonical returns a JSON-ready description of the command.
	Canonical() map[string]any
}

// Projection is one item of a select list: a plain field, or an aggregate
// over a field.
type Projection struct {
	Field     string
	Aggregate materialize.AggregationFn // nil for a plain field
}

// OutputField is the name the projection has in the result.
func (p Projection) OutputField() string {
	if p.Aggregate != nil {
		return p.Aggregate.FieldName()
	}
	return p.Field
}

func (p Projection) String() string {
	if p.Aggregate != nil {
		return materialize.Describe(p.Aggregate)
	}
	return p.Field
}

// OrderField is one order-by key.
type OrderField struct {
	Field string
	Desc  bool
}

func (o OrderField) String() string {
	if o.Desc {
		return o.Field + " desc"
	}
	return o.Field
}

// QueryData is a parsed select statement.
type QueryData struct {
	Distinct    bool
	Projections []Projection
	Tables      []string
	Pred        *query.Predicate // never nil; empty means no where clause
	OrderBy     []OrderField     // one entry per field, in first-seen order
	GroupBy     []string         // duplicates kept
}

func (*QueryData) command() {}

// Fields returns every field the select list reads, including aggregate
// arguments, in select-list order.
func (q *QueryData) Fields() []string {
	out := make([]string, len(q.Projections))
	for i, p := range q.Projections {
		out[i] = p.Field
	}
	return out
}

// OutputFields returns the result column names in select-list order.
func (q *QueryData) OutputFields() []string {
	out := make([]string, len(q.Projections))
	for i, p := range q.Projections {
		out[i] = p.OutputField()
	}
	return out
}

// Aggregates returns the aggregation functions of the select list.
func (q *QueryData) Aggregates() []materialize.AggregationFn {
	var out []materialize.AggregationFn
	for _, p := range q.Projections {
		if p.Aggregate != nil {
			out = append(out, p.Aggregate)
		}
	}
	return out
}

// setOrder records an order-by key. A repeated field keeps its first
// position and takes the latest direction.
func (q *QueryData) setOrder(field string, desc bool) {
	for i := range q.OrderBy {
		if q.OrderBy[i].Field == field {
			q.OrderBy[i].Desc = desc
			return
		}
	}
	q.OrderBy = append(q.OrderBy, OrderField{Field: field, Desc: desc})
}

func (q *QueryData) String() string {
	var b strings.Builder
	b.WriteString("select ")
	if q.Distinct {
		b.WriteString("distinct ")
	}
	b.WriteString(joinStrings(q.Projections, ", "))
	b.WriteString(" from ")
	b.WriteString(strings.Join(q.Tables, ", "))
	if !q.Pred.IsEmpty() {
		b.WriteString(" where ")
		b.WriteString(q.Pred.String())
	}
	if len(q.OrderBy) > 0 {
		b.WriteString(" order by ")
		b.WriteString(joinStrings(q.OrderBy, ", "))
	}
	if len(q.GroupBy) > 0 {
		b.WriteString(" group by ")
		b.WriteString(strings.Join(q.GroupBy, ", "))
	}
	return b.String()
}

func (q *QueryData) Canonical() map[string]any {
	projections := make([]any, len(q.Projections))
	for i, p := range q.Projections {
		item := map[string]any{"field": p.Field}
		if p.Aggregate != nil {
			item["aggregate"] = p.Aggregate.Name()
			item["output"] = p.Aggregate.FieldName()
		}
		projections[i] = item
	}
	order := make([]any, len(q.OrderBy))
	for i, o := range q.OrderBy {
		order[i] = map[string]any{"field": o.Field, "desc": o.Desc}
	}
	return map[string]any{
		"kind":        "select",
		"distinct":    q.Distinct,
		"projections": projections,
		"tables":      stringsOrEmpty(q.Tables),
		"where":       canonicalPredicate(q.Pred),
		"order_by":    order,
		"group_by":    stringsOrEmpty(q.GroupBy),
	}
}

// InsertData is a parsed insert statement.
type InsertData struct {
	Table  string
	Fields []string
	Values []ir.Constant
}

func (*InsertData) command() {}

func (d *InsertData) String() string {
	return "insert into " + d.Table + " (" + strings.Join(d.Fields, ", ") + ") values (" +
		joinStrings(d.Values, ", ") + ")"
}

func (d *InsertData) Canonical() map[string]any {
	values := make([]any, len(d.Values))
	for i, v := range d.Values {
		values[i] = v
	}
	return map[string]any{
		"kind":   "insert",
		"table":  d.Table,
		"fields": stringsOrEmpty(d.Fields),
		"values": values,
	}
}

// DeleteData is a parsed delete statement.
type DeleteData struct {
	Table string
	Pred  *query.Predicate
}

func (*DeleteData) command() {}

func (d *DeleteData) String() string {
	return "delete from " + d.Table + whereClause(d.Pred)
}

func (d *DeleteData) Canonical() map[string]any {
	return map[string]any{
		"kind":  "delete",
		"table": d.Table,
		"where": canonicalPredicate(d.Pred),
	}
}

// ModifyData is a parsed update statement.
type ModifyData struct {
	Table    string
	Field    string
	NewValue query.Expression
	Pred     *query.Predicate
}

func (*ModifyData) command() {}

func (d *ModifyData) String() string {
	return "update " + d.Table + " set " + d.Field + " = " + d.NewValue.String() + whereClause(d.Pred)
}

func (d *ModifyData) Canonical() map[string]any {
	return map[string]any{
		"kind":  "update",
		"table": d.Table,
		"field": d.Field,
		"value": canonicalExpression(d.NewValue),
		"where": canonicalPredicate(d.Pred),
	}
}

// CreateTableData is a parsed create table statement.
type CreateTableData struct {
	Table  string
	Schema *record.Schema
}

func (*CreateTableData) command() {}

func (d *CreateTableData) String() string {
	return "create table " + d.Table + " (" + d.Schema.String() + ")"
}

func (d *CreateTableData) Canonical() map[string]any {
	fields := make([]any, 0, d.Schema.Len())
	for _, f := range d.Schema.Fields() {
		item := map[string]any{"name": f, "type": d.Schema.Type(f).String()}
		if d.Schema.Type(f) == ir.KindString {
			item["length"] = d.Schema.Length(f)
		}
		fields = append(fields, item)
	}
	return map[string]any{
		"kind":   "create_table",
		"table":  d.Table,
		"fields": fields,
	}
}

// CreateViewData is a parsed create view statement.
type CreateViewData struct {
	View  string
	Query *QueryData
}

func (*CreateViewData) command() {}

// ViewDef returns the defining select statement as text.
func (d *CreateViewData) ViewDef() string {
	return d.Query.String()
}

func (d *CreateViewData) String() string {
	return "create view " + d.View + " as " + d.ViewDef()
}

func (d *CreateViewData) Canonical() map[string]any {
	return map[string]any{
		"kind":  "create_view",
		"view":  d.View,
		"query": d.Query.Canonical(),
	}
}

// CreateIndexData is a parsed create index statement.
type CreateIndexData struct {
	Index string
	Table string
	Field string
	Type  IndexType
}

func (*CreateIndexData) command() {}

func (d *CreateIndexData) String() string {
	return "create index " + d.Index + " on " + d.Table + " (" + d.Field + ") using " + d.Type.String()
}

func (d *CreateIndexData) Canonical() map[string]any {
	return map[string]any{
		"kind":  "create_index",
		"index": d.Index,
		"table": d.Table,
		"field": d.Field,
		"using": d.Type.String(),
	}
}

// SettingData asks the planner to switch join mode.
type SettingData struct {
	Mode string
}

func (*SettingData) command() {}

func (d *SettingData) String() string {
	return "setting " + ir.NewString(d.Mode).String()
}

func (d *SettingData) Canonical() map[string]any {
	return map[string]any{
		"kind": "setting",
		"mode": d.Mode,
	}
}

func whereClause(p *query.Predicate) string {
	if p.IsEmpty() {
		return ""
	}
	return " where " + p.String()
}

func canonicalExpression(e query.Expression) map[string]any {
	if e.IsFieldName() {
		return map[string]any{"field": e.AsFieldName()}
	}
	return map[string]any{"const": e.AsConstant()}
}

func canonicalPredicate(p *query.Predicate) []any {
	terms := p.Terms()
	out := make([]any, len(terms))
	for i, t := range terms {
		out[i] = map[string]any{
			"lhs": canonicalExpression(t.LHS()),
			"op":  t.Op().String(),
			"rhs": canonicalExpression(t.RHS()),
		}
	}
	return out
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func joinStrings[T interface{ String() string }](items []T, sep string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, sep)
}
