package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minirel/internal/config"
	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/query"
	"github.com/roach88/minirel/internal/record"
	"github.com/roach88/minirel/internal/testutil"
)

func TestExplain_SingleTable(t *testing.T) {
	e := newUniversity(t)
	ctx := context.Background()
	_, err := e.Execute(ctx, "create index gyidx on student (gradyear) using btree")
	require.NoError(t, err)
	_, err = e.Execute(ctx, "create index sididx on student (sid) using hash")
	require.NoError(t, err)

	x, err := e.Explain(ctx, "select sname from student where sid > 1 and gradyear = 2020 order by sname desc")
	require.NoError(t, err)

	require.Len(t, x.Tables, 1)
	tbl := x.Tables[0]
	assert.Equal(t, "student", tbl.Name)
	assert.False(t, tbl.View)
	assert.Equal(t, 6, tbl.Rows)
	assert.Equal(t, "sid > 1 and gradyear = 2020", tbl.Pushdown)
	assert.Equal(t, "gradyear = 2020", tbl.DrivingTerm)
	assert.Equal(t, []string{"gyidx"}, tbl.Indexes)
	assert.Equal(t, 18, tbl.ReductionFactor) // 6 distinct sids * 3 distinct years
	assert.Equal(t, 0, tbl.EstimatedRows)

	assert.Empty(t, x.Joins)
	assert.Equal(t, "", x.Residual)
	assert.Equal(t, "sname desc", x.OrderBy)
	assert.Equal(t, []string{"sname"}, x.Output)
	assert.Equal(t, "merge", x.JoinMode)
}

func TestExplain_Join(t *testing.T) {
	e := newUniversity(t)
	ctx := context.Background()
	const stmt = "select sname, dname from student, dept where majorid = did and gradyear = 2020"

	x, err := e.Explain(ctx, stmt)
	require.NoError(t, err)

	require.Len(t, x.Tables, 2)
	assert.Equal(t, 2, x.Tables[0].EstimatedRows) // 6 rows / 3 years
	assert.Equal(t, 3, x.Tables[1].EstimatedRows)
	assert.Equal(t, "", x.Tables[1].Pushdown)

	require.Len(t, x.Joins, 1)
	assert.Equal(t, JoinExplain{
		Table:      "dept",
		Method:     "merge",
		Condition:  "majorid = did",
		LeftField:  "majorid",
		RightField: "did",
	}, x.Joins[0])
	assert.Equal(t, "majorid = did", x.Residual)

	assert.Equal(t, `query: select sname, dname from student, dept where majorid = did and gradyear = 2020
join mode: merge
table student: rows=6 estimated=2 reduction=3
  pushdown: gradyear = 2020
  driving term: gradyear = 2020
table dept: rows=3 estimated=3 reduction=1
join dept: merge on majorid = did
  condition: majorid = did
filter: majorid = did
output: sname, dname
`, x.String())

	_, err = e.Execute(ctx, "setting 'nested'")
	require.NoError(t, err)
	x, err = e.Explain(ctx, stmt)
	require.NoError(t, err)
	assert.Equal(t, string(config.JoinNested), x.JoinMode)
	assert.Equal(t, "nested", x.Joins[0].Method)
}

func TestExplain_View(t *testing.T) {
	e := newUniversity(t)
	ctx := context.Background()
	_, err := e.Execute(ctx, "create view years as select distinct gradyear from student")
	require.NoError(t, err)

	x, err := e.Explain(ctx, "select gradyear from years where gradyear = 2021")
	require.NoError(t, err)
	require.Len(t, x.Tables, 1)
	assert.True(t, x.Tables[0].View)
	assert.Equal(t, 3, x.Tables[0].Rows)
	assert.Equal(t, 1, x.Tables[0].EstimatedRows)
	assert.Equal(t, "gradyear = 2021", x.Tables[0].DrivingTerm)
}

func TestExplain_RejectsNonQueries(t *testing.T) {
	e := newUniversity(t)
	_, err := e.Explain(context.Background(), "delete from student")
	assert.Error(t, err)
}

func TestEquiJoinFields(t *testing.T) {
	left := record.NewSchema()
	left.AddIntField("a")
	left.AddIntField("b")
	right := record.NewSchema()
	right.AddIntField("c")

	field := query.FieldExpr
	cond := query.NewPredicate(
		query.NewTerm(field("a"), query.LessThan, field("c")),
		query.NewTerm(field("c"), query.Equals, field("b")),
	)
	lf, rf, ok := equiJoinFields(cond, left, right)
	require.True(t, ok)
	assert.Equal(t, "b", lf)
	assert.Equal(t, "c", rf)

	_, _, ok = equiJoinFields(query.NewPredicate(
		query.NewTerm(field("a"), query.MoreThan, field("c")),
	), left, right)
	assert.False(t, ok)

	_, _, ok = equiJoinFields(nil, left, right)
	assert.False(t, ok)
}

func TestStatsOf(t *testing.T) {
	m := testutil.Table(t, []string{"k", "v"},
		[]any{1, "a"},
		[]any{1, "b"},
		[]any{2, "b"},
	)
	st := statsOf("m", m)
	assert.Equal(t, 3, st.Rows)
	assert.Equal(t, 2, st.DistinctValues("k"))
	assert.Equal(t, 2, st.DistinctValues("v"))

	// the same text in different kinds counts twice
	mixed := testutil.Table(t, []string{"k"}, []any{1})
	assert.Equal(t, "int:1", valueKey(mixed.Rows()[0][0]))
	assert.Equal(t, "varchar:'1'", valueKey(ir.NewString("1")))
}
