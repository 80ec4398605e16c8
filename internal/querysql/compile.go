// Package querysql compiles predicates and update commands into
// parameterized SQLite SQL.
//
// Values are always bound as ? parameters, never interpolated. Identifiers
// are double-quoted. Every SELECT ends with a rowid tiebreaker so reads
// are deterministic.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/parse"
	"github.com/roach88/minirel/internal/query"
	"github.com/roach88/minirel/internal/record"
)

// OrderKey is one ORDER BY column.
type OrderKey struct {
	Field string
	Desc  bool
}

// SelectSpec describes a single-table read.
type SelectSpec struct {
	Table  string
	Fields []string         // empty selects every column
	Where  *query.Predicate // nil or empty means no filter
	Order  []OrderKey
}

// QuoteIdent quotes an identifier for SQLite.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// CompileSelect compiles a single-table read.
// The result always ends with "rowid ASC" so ties are broken by insertion
// order.
func CompileSelect(spec SelectSpec) (string, []any, error) {
	if spec.Table == "" {
		return "", nil, fmt.Errorf("compile select: missing table")
	}

	cols := "*"
	if len(spec.Fields) > 0 {
		cols = quoteList(spec.Fields)
	}

	where, params, err := CompilePredicate(spec.Where)
	if err != nil {
		return "", nil, fmt.Errorf("compile select: %w", err)
	}

	var order []string
	for _, k := range spec.Order {
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		order = append(order, QuoteIdent(k.Field)+" "+dir)
	}
	order = append(order, "rowid ASC")

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		cols, QuoteIdent(spec.Table), whereSQL(where), strings.Join(order, ", "))
	return sql, params, nil
}

// CompilePredicate compiles a conjunction to a WHERE fragment.
// An empty predicate compiles to "".
func CompilePredicate(p *query.Predicate) (string, []any, error) {
	var parts []string
	var params []any
	for _, t := range p.Terms() {
		sql, tp, err := compileTerm(t)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, tp...)
	}
	return strings.Join(parts, " AND "), params, nil
}

func compileTerm(t query.Term) (string, []any, error) {
	if !t.Op().Valid() {
		return "", nil, ir.NewEvaluationError(ir.ErrCodeUnknownOperator, "operator %s in %s", t.Op(), t)
	}
	lhs, lp, err := compileExpression(t.LHS())
	if err != nil {
		return "", nil, err
	}
	rhs, rp, err := compileExpression(t.RHS())
	if err != nil {
		return "", nil, err
	}
	return lhs + " " + t.Op().String() + " " + rhs, append(lp, rp...), nil
}

func compileExpression(e query.Expression) (string, []any, error) {
	if e.IsFieldName() {
		return QuoteIdent(e.AsFieldName()), nil, nil
	}
	c := e.AsConstant()
	if c == nil {
		return "", nil, fmt.Errorf("empty expression")
	}
	return "?", []any{ir.ToNative(c)}, nil
}

// CompileCreateTable compiles a table definition.
func CompileCreateTable(table string, sch *record.Schema) (string, error) {
	if sch.Len() == 0 {
		return "", fmt.Errorf("create table %s: no fields", table)
	}
	cols := make([]string, 0, sch.Len())
	for _, f := range sch.Fields() {
		cols = append(cols, QuoteIdent(f)+" "+ColumnType(sch, f))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdent(table), strings.Join(cols, ", ")), nil
}

// ColumnType returns the SQLite declared type of a field.
func ColumnType(sch *record.Schema, field string) string {
	if sch.Type(field) == ir.KindString {
		return fmt.Sprintf("VARCHAR(%d)", sch.Length(field))
	}
	return "INTEGER"
}

// CompileCreateIndex compiles an index definition. SQLite picks its own
// index structure; the requested type is only recorded in the catalog.
func CompileCreateIndex(d *parse.CreateIndexData) string {
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		QuoteIdent(d.Index), QuoteIdent(d.Table), QuoteIdent(d.Field))
}

// CompileInsert compiles an insert.
func CompileInsert(d *parse.InsertData) (string, []any, error) {
	if len(d.Fields) != len(d.Values) {
		return "", nil, fmt.Errorf("insert into %s: %d fields but %d values", d.Table, len(d.Fields), len(d.Values))
	}
	params := make([]any, len(d.Values))
	marks := make([]string, len(d.Values))
	for i, v := range d.Values {
		params[i] = ir.ToNative(v)
		marks[i] = "?"
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdent(d.Table), quoteList(d.Fields), strings.Join(marks, ", "))
	return sql, params, nil
}

// CompileDelete compiles a delete.
func CompileDelete(d *parse.DeleteData) (string, []any, error) {
	where, params, err := CompilePredicate(d.Pred)
	if err != nil {
		return "", nil, fmt.Errorf("delete from %s: %w", d.Table, err)
	}
	return "DELETE FROM " + QuoteIdent(d.Table) + whereSQL(where), params, nil
}

// CompileUpdate compiles an update. The new value may be a constant or
// another field of the same row.
func CompileUpdate(d *parse.ModifyData) (string, []any, error) {
	val, params, err := compileExpression(d.NewValue)
	if err != nil {
		return "", nil, fmt.Errorf("update %s: %w", d.Table, err)
	}
	where, wp, err := CompilePredicate(d.Pred)
	if err != nil {
		return "", nil, fmt.Errorf("update %s: %w", d.Table, err)
	}
	sql := fmt.Sprintf("UPDATE %s SET %s = %s%s",
		QuoteIdent(d.Table), QuoteIdent(d.Field), val, whereSQL(where))
	return sql, append(params, wp...), nil
}

// CompileDistinctCount compiles the statistics query for one field.
func CompileDistinctCount(table, field string) string {
	return fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s", QuoteIdent(field), QuoteIdent(table))
}

func whereSQL(where string) string {
	if where == "" {
		return ""
	}
	return " WHERE " + where
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
