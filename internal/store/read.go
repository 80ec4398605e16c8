package store

import (
	"context"
	"fmt"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/query"
	"github.com/roach88/minirel/internal/querysql"
	"github.com/roach88/minirel/internal/scan"
)

// Scan reads the rows of a table that satisfy where, in the given order,
// ties broken by insertion order. The predicate must only name fields of
// the table.
func (s *Store) Scan(ctx context.Context, table string, where *query.Predicate, order []querysql.OrderKey) (*scan.Materialized, error) {
	sch, err := s.Schema(ctx, table)
	if err != nil {
		return nil, err
	}
	if err := where.TypeCheck(sch); err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	for _, k := range order {
		if !sch.HasField(k.Field) {
			return nil, newError(ErrCodeFieldNotFound, table, "no field %q", k.Field)
		}
	}

	stmt, params, err := querysql.CompileSelect(querysql.SelectSpec{
		Table:  table,
		Fields: sch.Fields(),
		Where:  where,
		Order:  order,
	})
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, stmt, params...)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	defer rows.Close()

	width := sch.Len()
	var out []scan.Row
	for rows.Next() {
		raw := make([]any, width)
		ptrs := make([]any, width)
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make(scan.Row, width)
		for i, v := range raw {
			c, err := ir.FromNative(v)
			if err != nil {
				return nil, fmt.Errorf("scan %s: field %s: %w", table, sch.Fields()[i], err)
			}
			row[i] = c
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}

	return scan.NewMaterialized(sch, out)
}

// TableStats holds the row count and per-field distinct counts of a table.
type TableStats struct {
	Table    string
	Rows     int
	Distinct map[string]int
}

// DistinctValues returns the number of distinct values of field, never
// less than 1. Fields the table does not have report 1.
func (t *TableStats) DistinctValues(field string) int {
	if t == nil {
		return 1
	}
	if n := t.Distinct[field]; n > 0 {
		return n
	}
	return 1
}

var _ query.PlanStats = (*TableStats)(nil)

// Stats computes the statistics of a table.
func (s *Store) Stats(ctx context.Context, table string) (*TableStats, error) {
	sch, err := s.Schema(ctx, table)
	if err != nil {
		return nil, err
	}

	st := &TableStats{Table: table, Distinct: make(map[string]int, sch.Len())}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+querysql.QuoteIdent(table)).Scan(&st.Rows); err != nil {
		return nil, fmt.Errorf("stats of %s: %w", table, err)
	}
	for _, f := range sch.Fields() {
		var n int
		if err := s.db.QueryRowContext(ctx, querysql.CompileDistinctCount(table, f)).Scan(&n); err != nil {
			return nil, fmt.Errorf("stats of %s.%s: %w", table, f, err)
		}
		st.Distinct[f] = n
	}
	return st, nil
}

// MergeStats combines the statistics of several tables for predicates
// that span them. Field names are resolved in table order.
func MergeStats(stats ...*TableStats) *TableStats {
	out := &TableStats{Rows: 1, Distinct: map[string]int{}}
	for _, st := range stats {
		if st == nil {
			continue
		}
		out.Rows *= st.Rows
		for f, n := range st.Distinct {
			if _, ok := out.Distinct[f]; !ok {
				out.Distinct[f] = n
			}
		}
	}
	return out
}
