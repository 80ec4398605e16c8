package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const universitySetup = `
create table student (sid int, sname varchar(10), majorid int);
create table dept (did int, dname varchar(10));
insert into student (sid, sname, majorid) values (1, 'joe', 10);
insert into student (sid, sname, majorid) values (2, 'amy', 20);
insert into student (sid, sname, majorid) values (3, 'max', 10);
insert into dept (did, dname) values (10, 'compsci');
insert into dept (did, dname) values (20, 'math');
`

// seedDB writes the university tables into a fresh database file.
func seedDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "setup.sql")
	require.NoError(t, os.WriteFile(script, []byte(universitySetup), 0o644))

	db := filepath.Join(dir, "uni.db")
	_, err := runCLI(t, "exec", "--db", db, "--file", script)
	require.NoError(t, err)
	return db
}

func decodeResponse(t *testing.T, out string) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func TestParseCommand_Text(t *testing.T) {
	out, err := runCLI(t, "parse", "SELECT sname FROM student WHERE majorid = 10")
	require.NoError(t, err)
	assert.Contains(t, out, "kind:        select")
	assert.Contains(t, out, "statement:   select sname from student where majorid = 10")
	assert.Contains(t, out, "fingerprint: ")
}

func TestParseCommand_JSON(t *testing.T) {
	out, err := runCLI(t, "--format", "json", "parse", "insert into dept (did, dname) values (10, 'compsci')")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp["status"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, "insert", data["kind"])
	assert.NotEmpty(t, data["fingerprint"])
	assert.Equal(t, "insert", data["command"].(map[string]any)["kind"])
}

func TestParseCommand_FingerprintIgnoresSpelling(t *testing.T) {
	out1, err := runCLI(t, "--format", "json", "parse", "select a from t where a = 1")
	require.NoError(t, err)
	out2, err := runCLI(t, "--format", "json", "parse", "SELECT   A FROM T WHERE A = 1")
	require.NoError(t, err)

	fp1 := decodeResponse(t, out1)["data"].(map[string]any)["fingerprint"]
	fp2 := decodeResponse(t, out2)["data"].(map[string]any)["fingerprint"]
	assert.Equal(t, fp1, fp2)
}

func TestParseCommand_SyntaxError(t *testing.T) {
	out, err := runCLI(t, "--format", "json", "parse", "select from t")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, ErrCodeSyntax, resp["error"].(map[string]any)["code"])
}

func TestExecCommand_Query(t *testing.T) {
	db := seedDB(t)

	out, err := runCLI(t, "exec", "--db", db, "select sname, dname from student, dept where majorid = did order by sname")
	require.NoError(t, err)
	assert.Contains(t, out, "'amy'")
	assert.Contains(t, out, "'compsci'")
	assert.Contains(t, out, "(3 rows)")
}

func TestExecCommand_JSON(t *testing.T) {
	db := seedDB(t)

	out, err := runCLI(t, "--format", "json", "exec", "--db", db,
		"delete from student where sid = 3",
		"select sid from student order by sid")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data := resp["data"].([]any)
	require.Len(t, data, 2)

	del := data[0].(map[string]any)
	assert.Equal(t, "delete", del["kind"])
	assert.Equal(t, float64(1), del["rows_affected"])
	assert.NotContains(t, del, "rows")

	sel := data[1].(map[string]any)
	assert.Equal(t, []any{"sid"}, sel["fields"])
	assert.Equal(t, []any{[]any{float64(1)}, []any{float64(2)}}, sel["rows"])
}

func TestExecCommand_WriteText(t *testing.T) {
	out, err := runCLI(t, "exec", "--db", filepath.Join(t.TempDir(), "w.db"),
		"create table t (a int)",
		"insert into t (a) values (1)")
	require.NoError(t, err)
	assert.Contains(t, out, "create table: ok")
	assert.Contains(t, out, "insert: 1 row(s) affected")
}

func TestExecCommand_StopsAtFailure(t *testing.T) {
	db := filepath.Join(t.TempDir(), "f.db")
	out, err := runCLI(t, "exec", "--db", db,
		"create table t (a int)",
		"select z from t",
		"insert into t (a) values (1)")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "create table: ok")
	assert.Contains(t, out, "Error [UNKNOWN_FIELD]")
	assert.Contains(t, out, "statement 2")

	// The insert after the failure never ran.
	out, err = runCLI(t, "exec", "--db", db, "select a from t")
	require.NoError(t, err)
	assert.Contains(t, out, "(0 rows)")
}

func TestExecCommand_JoinModeOverride(t *testing.T) {
	db := seedDB(t)

	out, err := runCLI(t, "exec", "--db", db, "--join", "nested",
		"select sname from student, dept where majorid = did and dname = 'math'")
	require.NoError(t, err)
	assert.Contains(t, out, "'amy'")
	assert.Contains(t, out, "(1 row)")

	_, err = runCLI(t, "exec", "--db", db, "--join", "hash", "select sid from student")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExecCommand_MaxRows(t *testing.T) {
	db := seedDB(t)

	out, err := runCLI(t, "exec", "--db", db, "--max-rows", "2", "select sid from student")
	require.Error(t, err)
	assert.Contains(t, out, "Error [ROW_LIMIT]")
}

func TestExecCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cfg.db")
	cfgPath := filepath.Join(dir, "minirel.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database: "+db+"\njoin_mode: nested\n"), 0o644))

	_, err := runCLI(t, "exec", "--config", cfgPath, "create table t (a int)")
	require.NoError(t, err)
	_, err = os.Stat(db)
	assert.NoError(t, err, "database should be created at the configured path")

	require.NoError(t, os.WriteFile(cfgPath, []byte("join_mode: merge\nbogus: 1\n"), 0o644))
	_, err = runCLI(t, "exec", "--config", cfgPath, "create table u (a int)")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExecCommand_Usage(t *testing.T) {
	_, err := runCLI(t, "exec")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = runCLI(t, "exec", "--file", "x.sql", "select a from t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be combined")

	_, err = runCLI(t, "exec", "--file", filepath.Join(t.TempDir(), "missing.sql"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExplainCommand(t *testing.T) {
	db := seedDB(t)
	query := "select sname from student, dept where majorid = did and did = 10"

	out, err := runCLI(t, "explain", "--db", db, query)
	require.NoError(t, err)
	assert.Contains(t, out, "join mode: merge")
	assert.Contains(t, out, "table student")
	assert.Contains(t, out, "pushdown: did = 10")
	assert.Contains(t, out, "merge on majorid = did")

	out, err = runCLI(t, "--format", "json", "explain", "--db", db, "--join", "nested", query)
	require.NoError(t, err)
	data := decodeResponse(t, out)["data"].(map[string]any)
	assert.Equal(t, "nested", data["join_mode"])
}

func TestExplainCommand_RejectsWrites(t *testing.T) {
	db := seedDB(t)
	_, err := runCLI(t, "explain", "--db", db, "delete from student")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestHistoryCommand(t *testing.T) {
	db := seedDB(t)
	_, err := runCLI(t, "exec", "--db", db, "select sid from student")
	require.NoError(t, err)

	out, err := runCLI(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "create_table")
	assert.Contains(t, out, "select sid from student  (3)")

	out, err = runCLI(t, "--format", "json", "history", "--db", db, "--limit", "2")
	require.NoError(t, err)
	data := decodeResponse(t, out)["data"].([]any)
	require.Len(t, data, 2)
	assert.Equal(t, float64(7), data[0].(map[string]any)["seq"])
	assert.Equal(t, "select", data[1].(map[string]any)["kind"])
	assert.Equal(t, float64(1), data[1].(map[string]any)["occurrences"])

	_, err = runCLI(t, "history", "--db", db, "--limit", "-1")
	require.Error(t, err)
}

func TestHistoryCommand_Empty(t *testing.T) {
	out, err := runCLI(t, "history", "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No statements logged.")
}

func TestReplayCommand(t *testing.T) {
	src := seedDB(t)
	_, err := runCLI(t, "exec", "--db", src, "select sid from student", "update student set majorid = 20 where sid = 1")
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "copy.db")
	out, err := runCLI(t, "--format", "json", "replay", "--from", src, "--db", dst)
	require.NoError(t, err)
	data := decodeResponse(t, out)["data"].(map[string]any)
	assert.Equal(t, float64(9), data["logged"])
	assert.Equal(t, float64(8), data["applied"])
	assert.Equal(t, float64(1), data["skipped"])

	out, err = runCLI(t, "exec", "--db", dst, "select sname from student where majorid = 20 order by sname")
	require.NoError(t, err)
	assert.Contains(t, out, "'amy'")
	assert.Contains(t, out, "'joe'")

	// A second replay applies nothing new.
	out, err = runCLI(t, "replay", "--from", src, "--db", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "Applied: 0")
	assert.Contains(t, out, "Skipped: 9")
}

func TestReplayCommand_Usage(t *testing.T) {
	_, err := runCLI(t, "replay", "--db", filepath.Join(t.TempDir(), "x.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--from is required")

	same := filepath.Join(t.TempDir(), "same.db")
	_, err = runCLI(t, "replay", "--from", same, "--db", same)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
