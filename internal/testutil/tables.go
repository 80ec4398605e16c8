package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/query"
	"github.com/roach88/minirel/internal/record"
	"github.com/roach88/minirel/internal/scan"
)

// DefaultVarcharLength is the length given to string fields by Table.
const DefaultVarcharLength = 20

// Table builds an in-memory cursor from native Go values.
//
// Field kinds are taken from the first row: strings become varchar fields,
// everything else int. A table without rows has only int fields.
//
//	tbl := testutil.Table(t, []string{"k", "name"},
//	    []any{1, "a"},
//	    []any{2, "b"},
//	)
func Table(t testing.TB, fields []string, rows ...[]any) *scan.Materialized {
	t.Helper()

	converted := make([]scan.Row, 0, len(rows))
	for _, raw := range rows {
		require.Len(t, raw, len(fields), "row width")
		row := make(scan.Row, len(raw))
		for i, v := range raw {
			c, err := ir.FromNative(v)
			require.NoError(t, err)
			row[i] = c
		}
		converted = append(converted, row)
	}

	sch := record.NewSchema()
	for i, f := range fields {
		if len(converted) > 0 && converted[0][i].Kind() == ir.KindString {
			sch.AddStringField(f, DefaultVarcharLength)
		} else {
			sch.AddIntField(f)
		}
	}

	m, err := scan.NewMaterialized(sch, converted)
	require.NoError(t, err)
	return m
}

// Drain rewinds s and reads every row as native values of fields.
func Drain(t testing.TB, s query.Scan, fields ...string) [][]any {
	t.Helper()
	require.NoError(t, s.BeforeFirst())
	return DrainFromHere(t, s, fields...)
}

// DrainFromHere reads the remaining rows of s without rewinding it.
func DrainFromHere(t testing.TB, s query.Scan, fields ...string) [][]any {
	t.Helper()
	var out [][]any
	for {
		ok, err := s.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		row := make([]any, len(fields))
		for i, f := range fields {
			v, err := s.GetVal(f)
			require.NoError(t, err)
			row[i] = ir.ToNative(v)
		}
		out = append(out, row)
	}
}
