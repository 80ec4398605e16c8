package store

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/parse"
	"github.com/roach88/minirel/internal/querysql"
	"github.com/roach88/minirel/internal/record"
)

var varcharType = regexp.MustCompile(`(?i)^VARCHAR\((\d+)\)$`)

// CreateTable creates a user table.
func (s *Store) CreateTable(ctx context.Context, d *parse.CreateTableData) error {
	if isCatalogTable(d.Table) {
		return newError(ErrCodeAlreadyExists, d.Table, "name is reserved")
	}
	if err := s.checkNameFree(ctx, d.Table); err != nil {
		return err
	}
	stmt, err := querysql.CompileCreateTable(d.Table, d.Schema)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", d.Table, err)
	}

	sch := record.NewSchema()
	sch.AddAll(d.Schema)
	s.mu.Lock()
	s.schemas[d.Table] = sch
	s.mu.Unlock()

	slog.Debug("table created", "table", d.Table, "fields", sch.Len())
	return nil
}

// Schema returns the schema of a user table.
func (s *Store) Schema(ctx context.Context, table string) (*record.Schema, error) {
	s.mu.RLock()
	sch, ok := s.schemas[table]
	s.mu.RUnlock()
	if ok {
		return sch, nil
	}
	if isCatalogTable(table) {
		return nil, newError(ErrCodeTableNotFound, table, "no such table")
	}

	rows, err := s.db.QueryContext(ctx, "SELECT name, type FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("read schema of %s: %w", table, err)
	}
	defer rows.Close()

	sch = record.NewSchema()
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, fmt.Errorf("read schema of %s: %w", table, err)
		}
		if m := varcharType.FindStringSubmatch(typ); m != nil {
			n, _ := strconv.Atoi(m[1])
			sch.AddStringField(name, n)
		} else {
			sch.AddIntField(name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read schema of %s: %w", table, err)
	}
	if sch.Len() == 0 {
		return nil, newError(ErrCodeTableNotFound, table, "no such table")
	}

	s.mu.Lock()
	s.schemas[table] = sch
	s.mu.Unlock()
	return sch, nil
}

// Tables lists the user tables in name order.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table'
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		if !isCatalogTable(name) {
			tables = append(tables, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// Insert adds one row. Fields left out of the insert get the zero value
// of their type.
func (s *Store) Insert(ctx context.Context, d *parse.InsertData) (int64, error) {
	sch, err := s.Schema(ctx, d.Table)
	if err != nil {
		return 0, err
	}
	if len(d.Fields) != len(d.Values) {
		return 0, newError(ErrCodeTypeMismatch, d.Table, "%d fields but %d values", len(d.Fields), len(d.Values))
	}

	given := make(map[string]ir.Constant, len(d.Fields))
	for i, f := range d.Fields {
		if _, dup := given[f]; dup {
			return 0, newError(ErrCodeTypeMismatch, d.Table, "field %q given twice", f)
		}
		if err := checkValue(sch, d.Table, f, d.Values[i]); err != nil {
			return 0, err
		}
		given[f] = d.Values[i]
	}

	full := &parse.InsertData{Table: d.Table}
	for _, f := range sch.Fields() {
		v, ok := given[f]
		if !ok {
			v = zeroValue(sch.Type(f))
		}
		full.Fields = append(full.Fields, f)
		full.Values = append(full.Values, v)
	}

	stmt, params, err := querysql.CompileInsert(full)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, "insert into "+d.Table, stmt, params)
}

// Delete removes the rows matching the predicate.
func (s *Store) Delete(ctx context.Context, d *parse.DeleteData) (int64, error) {
	sch, err := s.Schema(ctx, d.Table)
	if err != nil {
		return 0, err
	}
	if err := d.Pred.TypeCheck(sch); err != nil {
		return 0, fmt.Errorf("delete from %s: %w", d.Table, err)
	}
	stmt, params, err := querysql.CompileDelete(d)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, "delete from "+d.Table, stmt, params)
}

// Update sets one field on the rows matching the predicate.
func (s *Store) Update(ctx context.Context, d *parse.ModifyData) (int64, error) {
	sch, err := s.Schema(ctx, d.Table)
	if err != nil {
		return 0, err
	}
	if err := d.Pred.TypeCheck(sch); err != nil {
		return 0, fmt.Errorf("update %s: %w", d.Table, err)
	}
	if d.NewValue.IsFieldName() {
		src := d.NewValue.AsFieldName()
		if !sch.HasField(src) {
			return 0, newError(ErrCodeFieldNotFound, d.Table, "no field %q", src)
		}
		if !sch.HasField(d.Field) {
			return 0, newError(ErrCodeFieldNotFound, d.Table, "no field %q", d.Field)
		}
		if sch.Type(src) != sch.Type(d.Field) {
			return 0, newError(ErrCodeTypeMismatch, d.Table, "cannot assign %s field %q to %s field %q",
				sch.Type(src), src, sch.Type(d.Field), d.Field)
		}
		if sch.Type(src) == ir.KindString && sch.Length(src) > sch.Length(d.Field) {
			return 0, newError(ErrCodeValueTooLong, d.Table, "field %q is wider than %q", src, d.Field)
		}
	} else if err := checkValue(sch, d.Table, d.Field, d.NewValue.AsConstant()); err != nil {
		return 0, err
	}

	stmt, params, err := querysql.CompileUpdate(d)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, "update "+d.Table, stmt, params)
}

func (s *Store) exec(ctx context.Context, what, stmt string, params []any) (int64, error) {
	res, err := s.db.ExecContext(ctx, stmt, params...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", what, err)
	}
	slog.Debug("statement applied", "op", what, "rows", n)
	return n, nil
}

// checkNameFree fails if name is already a table or view.
func (s *Store) checkNameFree(ctx context.Context, name string) error {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sqlite_master WHERE name = ?) +
			(SELECT COUNT(*) FROM minirel_views WHERE name = ?)
	`, name, name).Scan(&n)
	if err != nil {
		return fmt.Errorf("check name %s: %w", name, err)
	}
	if n > 0 {
		return newError(ErrCodeAlreadyExists, name, "name already in use")
	}
	return nil
}

func checkValue(sch *record.Schema, table, field string, v ir.Constant) error {
	if !sch.HasField(field) {
		return newError(ErrCodeFieldNotFound, table, "no field %q", field)
	}
	if v == nil {
		return newError(ErrCodeTypeMismatch, table, "missing value for field %q", field)
	}
	if v.Kind() != sch.Type(field) {
		return newError(ErrCodeTypeMismatch, table, "field %q is %s, got %s %s", field, sch.Type(field), v.Kind(), v)
	}
	if s, ok := v.(ir.StringConstant); ok && utf8.RuneCountInString(string(s)) > sch.Length(field) {
		return newError(ErrCodeValueTooLong, table, "value for %q exceeds varchar(%d)", field, sch.Length(field))
	}
	return nil
}

func zeroValue(k ir.Kind) ir.Constant {
	if k == ir.KindString {
		return ir.NewString("")
	}
	return ir.NewInt(0)
}
