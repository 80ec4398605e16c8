package engine

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minirel/internal/config"
	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/parse"
	"github.com/roach88/minirel/internal/store"
	"github.com/roach88/minirel/internal/testutil"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

var universitySetup = []string{
	"create table student (sid int, sname varchar(10), majorid int, gradyear int)",
	"create table dept (did int, dname varchar(10))",
	"insert into student (sid, sname, majorid, gradyear) values (1, 'joe', 10, 2021)",
	"insert into student (sid, sname, majorid, gradyear) values (2, 'amy', 20, 2020)",
	"insert into student (sid, sname, majorid, gradyear) values (3, 'max', 10, 2022)",
	"insert into student (sid, sname, majorid, gradyear) values (4, 'sue', 20, 2022)",
	"insert into student (sid, sname, majorid, gradyear) values (5, 'bob', 30, 2020)",
	"insert into student (sid, sname, majorid, gradyear) values (6, 'kim', 20, 2020)",
	"insert into dept (did, dname) values (10, 'compsci')",
	"insert into dept (did, dname) values (20, 'math')",
	"insert into dept (did, dname) values (30, 'drama')",
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	st, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	opts = append([]Option{WithIDGenerator(testutil.NewSequentialIDGenerator("stmt"))}, opts...)
	return New(st, config.Default(), opts...)
}

func newUniversity(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := newTestEngine(t, opts...)
	for _, stmt := range universitySetup {
		_, err := e.Execute(context.Background(), stmt)
		require.NoError(t, err, stmt)
	}
	return e
}

func queryRows(t *testing.T, e *Engine, stmt string) [][]any {
	t.Helper()
	res, err := e.Execute(context.Background(), stmt)
	require.NoError(t, err, stmt)
	return res.NativeRows()
}

func TestSelect_Pushdown(t *testing.T) {
	e := newUniversity(t)
	res, err := e.Execute(context.Background(), "select sname from student where gradyear = 2020")
	require.NoError(t, err)

	assert.Equal(t, "select", res.Kind)
	assert.Equal(t, []string{"sname"}, res.Fields)
	assert.Equal(t, [][]any{{"amy"}, {"bob"}, {"kim"}}, res.NativeRows())
}

func TestSelect_OrderBy(t *testing.T) {
	e := newUniversity(t)
	rows := queryRows(t, e, "select sname, gradyear from student where sid < 5 order by gradyear desc, sname")
	assert.Equal(t, [][]any{
		{"max", int64(2022)},
		{"sue", int64(2022)},
		{"joe", int64(2021)},
		{"amy", int64(2020)},
	}, rows)
}

func TestSelect_OrderByUnprojectedField(t *testing.T) {
	e := newUniversity(t)
	rows := queryRows(t, e, "select sname from student where majorid = 20 order by sid desc")
	assert.Equal(t, [][]any{{"kim"}, {"sue"}, {"amy"}}, rows)
}

func TestSelect_Distinct(t *testing.T) {
	e := newUniversity(t)
	rows := queryRows(t, e, "select distinct gradyear from student order by gradyear")
	assert.Equal(t, [][]any{{int64(2020)}, {int64(2021)}, {int64(2022)}}, rows)
}

func TestSelect_JoinModesAgree(t *testing.T) {
	const stmt = "select sname, dname from student, dept where majorid = did and gradyear > 2020 order by sname"
	want := [][]any{
		{"joe", "compsci"},
		{"max", "compsci"},
		{"sue", "math"},
	}

	for _, mode := range []config.JoinMode{config.JoinMerge, config.JoinNested} {
		t.Run(string(mode), func(t *testing.T) {
			e := newUniversity(t)
			require.NoError(t, e.Config().SetJoinMode(mode))
			assert.Equal(t, want, queryRows(t, e, stmt))
		})
	}
}

func TestSelect_MergeJoinReversedTerm(t *testing.T) {
	e := newUniversity(t)
	rows := queryRows(t, e, "select dname, sname from dept, student where majorid = did and did = 30")
	assert.Equal(t, [][]any{{"drama", "bob"}}, rows)
}

func TestSelect_NonEqualityJoin(t *testing.T) {
	e := newUniversity(t)
	rows := queryRows(t, e, "select sname, dname from student, dept where majorid < did and sid = 1 order by dname")
	assert.Equal(t, [][]any{{"joe", "drama"}, {"joe", "math"}}, rows)
}

func TestSelect_CrossProduct(t *testing.T) {
	e := newUniversity(t)
	res, err := e.Execute(context.Background(), "select sid, did from student, dept")
	require.NoError(t, err)
	assert.Len(t, res.Rows, 18)
}

func TestSelect_GroupBy(t *testing.T) {
	e := newUniversity(t)
	res, err := e.Execute(context.Background(),
		"select majorid, count(sid), max(gradyear), min(sname) from student order by majorid group by majorid")
	require.NoError(t, err)

	assert.Equal(t, []string{"majorid", "countofsid", "maxofgradyear", "minofsname"}, res.Fields)
	assert.Equal(t, [][]any{
		{int64(10), int64(2), int64(2022), "joe"},
		{int64(20), int64(3), int64(2022), "amy"},
		{int64(30), int64(1), int64(2020), "bob"},
	}, res.NativeRows())
}

func TestSelect_GroupByOrderedByAggregate(t *testing.T) {
	e := newUniversity(t)
	rows := queryRows(t, e, "select majorid, count(sid) from student order by countofsid desc, majorid group by majorid")
	assert.Equal(t, [][]any{
		{int64(20), int64(3)},
		{int64(10), int64(2)},
		{int64(30), int64(1)},
	}, rows)
}

func TestSelect_AggregateWithoutGroup(t *testing.T) {
	e := newUniversity(t)
	rows := queryRows(t, e, "select count(sid), sum(gradyear), avg(sid) from student where majorid = 20")
	// avg truncates: (2+4+6)/3
	assert.Equal(t, [][]any{{int64(3), int64(6062), int64(4)}}, rows)
}

func TestSelect_AggregateOfEmptyInput(t *testing.T) {
	e := newUniversity(t)
	rows := queryRows(t, e, "select count(sid) from student where sid > 100")
	assert.Empty(t, rows)
}

func TestSelect_Views(t *testing.T) {
	e := newUniversity(t)
	ctx := context.Background()

	_, err := e.Execute(ctx, "create view mathstudents as select sid, sname from student, dept where majorid = did and dname = 'math'")
	require.NoError(t, err)
	_, err = e.Execute(ctx, "create view counts as select gradyear, count(sid) from student group by gradyear")
	require.NoError(t, err)

	assert.Equal(t, [][]any{{"kim"}, {"sue"}},
		queryRows(t, e, "select sname from mathstudents where sid > 2 order by sname"))

	assert.Equal(t, [][]any{{int64(2020), int64(3)}},
		queryRows(t, e, "select gradyear, countofsid from counts where countofsid > 2"))

	// a view joined with a table
	assert.Equal(t, [][]any{{"amy", int64(2020)}},
		queryRows(t, e, "select sname, gradyear from mathstudents, counts where gradyear = 2020 and sname = 'amy'"))
}

func TestSelect_ViewOnView(t *testing.T) {
	e := newUniversity(t)
	ctx := context.Background()

	_, err := e.Execute(ctx, "create view recent as select sid, sname, gradyear from student where gradyear >= 2021")
	require.NoError(t, err)
	_, err = e.Execute(ctx, "create view recentnames as select sname from recent")
	require.NoError(t, err)

	assert.Equal(t, [][]any{{"joe"}, {"max"}, {"sue"}},
		queryRows(t, e, "select sname from recentnames order by sname"))
}

func TestSelect_Errors(t *testing.T) {
	e := newUniversity(t)
	ctx := context.Background()
	_, err := e.Execute(ctx, "create table twin (sid int)")
	require.NoError(t, err)

	tests := []struct {
		name string
		stmt string
		code PlanErrorCode
	}{
		{"unknown field", "select nope from student", ErrCodeUnknownField},
		{"unknown order field", "select sid from student order by nope", ErrCodeUnknownField},
		{"unknown group field", "select count(sid) from student group by nope", ErrCodeUnknownField},
		{"ungrouped field", "select sname, count(sid) from student group by majorid", ErrCodeInvalidGrouping},
		{"ungrouped order field", "select majorid from student order by sid group by majorid", ErrCodeInvalidGrouping},
		{"sum of varchar", "select sum(sname) from student", ErrCodeInvalidAggregate},
		{"ambiguous field", "select sid from student, twin", ErrCodeAmbiguousField},
		{"duplicate table", "select sid from student, student", ErrCodeDuplicateTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(ctx, tt.stmt)
			var pe *PlanError
			require.ErrorAs(t, err, &pe, tt.stmt)
			assert.Equal(t, tt.code, pe.Code)
			assert.NotEmpty(t, pe.StatementID)
		})
	}
}

func TestSelect_KindMismatchFailsAtPlanTime(t *testing.T) {
	e := newUniversity(t)
	_, err := e.Execute(context.Background(), "select sid from student, dept where sname = did")
	assert.True(t, ir.IsEvaluationError(err))

	_, err = e.Execute(context.Background(), "select sid from student where sname = 3")
	assert.True(t, ir.IsEvaluationError(err))
}

func TestSelect_UnknownTable(t *testing.T) {
	e := newUniversity(t)
	_, err := e.Execute(context.Background(), "select a from nowhere")
	assert.True(t, store.IsNotFound(err))
}

func TestSelect_SyntaxError(t *testing.T) {
	e := newUniversity(t)
	_, err := e.Execute(context.Background(), "select from student")
	assert.True(t, parse.IsSyntaxError(err))
}

func TestSelect_RowLimit(t *testing.T) {
	e := newUniversity(t, WithMaxRows(10))

	_, err := e.Execute(context.Background(), "select sid from student")
	require.NoError(t, err)

	_, err = e.Execute(context.Background(), "select sid, did from student, dept")
	assert.True(t, IsRowLimitError(err))
}

func TestWrites(t *testing.T) {
	e := newUniversity(t)
	ctx := context.Background()

	res, err := e.Execute(ctx, "update student set gradyear = 2023 where majorid = 10")
	require.NoError(t, err)
	assert.Equal(t, "update", res.Kind)
	assert.Equal(t, int64(2), res.RowsAffected)

	res, err = e.Execute(ctx, "delete from student where gradyear = 2020")
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.RowsAffected)

	assert.Equal(t, [][]any{{"joe", int64(2023)}, {"max", int64(2023)}, {"sue", int64(2022)}},
		queryRows(t, e, "select sname, gradyear from student order by sname"))
}

func TestCreateIndex(t *testing.T) {
	e := newUniversity(t)
	res, err := e.Execute(context.Background(), "create index majoridx on student (majorid) using hash")
	require.NoError(t, err)
	assert.Equal(t, "create_index", res.Kind)
}

func TestCreateView_Validated(t *testing.T) {
	e := newUniversity(t)
	ctx := context.Background()

	_, err := e.Execute(ctx, "create view broken as select nope from student")
	assert.True(t, IsPlanError(err))

	_, ok, err := e.store.ViewDef(ctx, "broken")
	require.NoError(t, err)
	assert.False(t, ok, "a view that does not plan is not stored")
}

func TestSetting(t *testing.T) {
	e := newUniversity(t)
	ctx := context.Background()

	res, err := e.Execute(ctx, "setting 'nested'")
	require.NoError(t, err)
	assert.Equal(t, "setting", res.Kind)
	assert.Equal(t, config.JoinNested, e.Config().JoinMode())

	_, err = e.Execute(ctx, "setting 'sideways'")
	assert.Error(t, err)
	assert.Equal(t, config.JoinNested, e.Config().JoinMode())
}

func TestStatementLog(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	r1, err := e.Execute(ctx, "create table t (a int)")
	require.NoError(t, err)
	r2, err := e.Execute(ctx, "insert into t (a) values (1)")
	require.NoError(t, err)
	_, err = e.Execute(ctx, "select nope from t")
	require.Error(t, err)
	r3, err := e.Execute(ctx, "select a from t")
	require.NoError(t, err)

	assert.Equal(t, "stmt-1", r1.ID)
	assert.Equal(t, []int64{1, 2, 3}, []int64{r1.Seq, r2.Seq, r3.Seq})
	assert.Equal(t, "stmt-4", r3.ID, "failed statements still consume an ID")

	recs, err := e.store.ReadStatements(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "select a from t", recs[2].Statement)
	assert.Equal(t, int64(1), recs[2].RowsAffected)
}

func TestExecuteScript(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	results, err := e.ExecuteScript(ctx, `
		create table t (a int);
		insert into t (a) values (1);
		insert into t (b) values (2);
		insert into t (a) values (3)
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 3")
	assert.Len(t, results, 2)

	assert.Equal(t, [][]any{{int64(1)}}, queryRows(t, e, "select a from t"))
}
