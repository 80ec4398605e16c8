package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minirel/internal/config"
)

func TestReplay_RebuildsState(t *testing.T) {
	ctx := context.Background()
	src := newUniversity(t)
	_, err := src.Execute(ctx, "create view seniors as select sname from student where gradyear = 2020")
	require.NoError(t, err)
	_, err = src.Execute(ctx, "update student set gradyear = 2024 where sid = 1")
	require.NoError(t, err)
	_, err = src.Execute(ctx, "select sname from seniors")
	require.NoError(t, err)
	_, err = src.Execute(ctx, "setting 'nested'")
	require.NoError(t, err)

	recs, err := src.store.ReadStatements(ctx, 0)
	require.NoError(t, err)

	dst := newTestEngine(t)
	res, err := dst.Replay(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, len(universitySetup)+3, res.Applied)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, config.JoinNested, dst.Config().JoinMode())

	// replayed statements keep their IDs
	replayed, err := dst.store.ReadStatements(ctx, 0)
	require.NoError(t, err)
	var wantIDs, gotIDs []string
	for _, r := range recs {
		if r.Kind != "select" {
			wantIDs = append(wantIDs, r.ID)
		}
	}
	for _, r := range replayed {
		gotIDs = append(gotIDs, r.ID)
	}
	assert.Equal(t, wantIDs, gotIDs)

	const q = "select sname, gradyear from student order by sid"
	assert.Equal(t, queryRows(t, src, q), queryRows(t, dst, q))
	assert.Equal(t, queryRows(t, src, "select sname from seniors"), queryRows(t, dst, "select sname from seniors"))
}

func TestReplay_Idempotent(t *testing.T) {
	ctx := context.Background()
	src := newUniversity(t)

	recs, err := src.store.ReadStatements(ctx, 0)
	require.NoError(t, err)

	res, err := src.Replay(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, len(recs), res.Skipped)

	rows := queryRows(t, src, "select sid from student")
	assert.Len(t, rows, 6, "no row inserted twice")
}

func TestReplay_StopsOnFailure(t *testing.T) {
	ctx := context.Background()
	src := newUniversity(t)
	recs, err := src.store.ReadStatements(ctx, 0)
	require.NoError(t, err)

	// drop the create table for dept so its inserts fail
	filtered := recs[:0:0]
	for _, r := range recs {
		if r.Statement != "create table dept (did int, dname varchar(10))" {
			filtered = append(filtered, r)
		}
	}

	dst := newTestEngine(t)
	res, err := dst.Replay(ctx, filtered)
	require.Error(t, err)
	assert.Equal(t, 7, res.Applied) // student table and its six rows
}
