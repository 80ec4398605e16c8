package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/parse"
	"github.com/roach88/minirel/internal/query"
	"github.com/roach88/minirel/internal/record"
)

func mustParse(t *testing.T, stmt string) parse.Command {
	t.Helper()
	cmd, err := parse.Parse(stmt)
	require.NoError(t, err)
	return cmd
}

func TestCompileSelect(t *testing.T) {
	tests := []struct {
		name       string
		spec       SelectSpec
		wantSQL    string
		wantParams []any
	}{
		{
			name:    "all columns",
			spec:    SelectSpec{Table: "student"},
			wantSQL: `SELECT * FROM "student" ORDER BY rowid ASC`,
		},
		{
			name: "filter and order",
			spec: SelectSpec{
				Table:  "student",
				Fields: []string{"sid", "sname"},
				Where: query.NewPredicate(
					query.NewTerm(query.FieldExpr("majorid"), query.Equals, query.ConstExpr(ir.NewInt(10))),
					query.NewTerm(query.ConstExpr(ir.NewString("b")), query.LessThan, query.FieldExpr("sname")),
				),
				Order: []OrderKey{{Field: "sname", Desc: true}},
			},
			wantSQL:    `SELECT "sid", "sname" FROM "student" WHERE "majorid" = ? AND ? < "sname" ORDER BY "sname" DESC, rowid ASC`,
			wantParams: []any{int64(10), "b"},
		},
		{
			name: "field to field",
			spec: SelectSpec{
				Table: "t",
				Where: query.NewPredicate(query.NewTerm(query.FieldExpr("a"), query.NotEquals, query.FieldExpr("b"))),
			},
			wantSQL: `SELECT * FROM "t" WHERE "a" <> "b" ORDER BY rowid ASC`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := CompileSelect(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestCompileSelectValuesNeverInterpolated(t *testing.T) {
	evil := "'; DROP TABLE student; --"
	sql, params, err := CompileSelect(SelectSpec{
		Table: "student",
		Where: query.NewPredicate(query.NewTerm(query.FieldExpr("sname"), query.Equals, query.ConstExpr(ir.NewString(evil)))),
	})
	require.NoError(t, err)
	assert.NotContains(t, sql, "DROP")
	assert.Equal(t, []any{evil}, params)
}

func TestCompileSelectErrors(t *testing.T) {
	_, _, err := CompileSelect(SelectSpec{})
	assert.Error(t, err)

	_, _, err = CompileSelect(SelectSpec{
		Table: "t",
		Where: query.NewPredicate(query.NewTerm(query.FieldExpr("a"), query.CondOp(0), query.FieldExpr("b"))),
	})
	assert.True(t, ir.IsEvaluationError(err))
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"sid"`, QuoteIdent("sid"))
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
}

func TestCompileCreateTable(t *testing.T) {
	sch := record.NewSchema()
	sch.AddIntField("did")
	sch.AddStringField("dname", 12)

	sql, err := CompileCreateTable("dept", sch)
	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE "dept" ("did" INTEGER, "dname" VARCHAR(12))`, sql)

	_, err = CompileCreateTable("empty", record.NewSchema())
	assert.Error(t, err)
}

func TestCompileCreateIndex(t *testing.T) {
	d := mustParse(t, "create index ix on t (a) using hash").(*parse.CreateIndexData)
	assert.Equal(t, `CREATE INDEX "ix" ON "t" ("a")`, CompileCreateIndex(d))
}

func TestCompileInsert(t *testing.T) {
	d := mustParse(t, "insert into t (a, b) values (1, 'x')").(*parse.InsertData)
	sql, params, err := CompileInsert(d)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "t" ("a", "b") VALUES (?, ?)`, sql)
	assert.Equal(t, []any{int64(1), "x"}, params)

	d.Values = d.Values[:1]
	_, _, err = CompileInsert(d)
	assert.Error(t, err)
}

func TestCompileDelete(t *testing.T) {
	sql, params, err := CompileDelete(mustParse(t, "delete from t").(*parse.DeleteData))
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "t"`, sql)
	assert.Empty(t, params)

	sql, params, err = CompileDelete(mustParse(t, "delete from t where a >= 3").(*parse.DeleteData))
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "t" WHERE "a" >= ?`, sql)
	assert.Equal(t, []any{int64(3)}, params)
}

func TestCompileUpdate(t *testing.T) {
	sql, params, err := CompileUpdate(mustParse(t, "update t set a = 'v' where b = 2").(*parse.ModifyData))
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "t" SET "a" = ? WHERE "b" = ?`, sql)
	assert.Equal(t, []any{"v", int64(2)}, params)

	sql, params, err = CompileUpdate(mustParse(t, "update t set a = b").(*parse.ModifyData))
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "t" SET "a" = "b"`, sql)
	assert.Empty(t, params)
}

func TestCompileDistinctCount(t *testing.T) {
	assert.Equal(t, `SELECT COUNT(DISTINCT "a") FROM "t"`, CompileDistinctCount("t", "a"))
}
