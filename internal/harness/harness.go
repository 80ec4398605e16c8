package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/minirel/internal/config"
	"github.com/roach88/minirel/internal/engine"
	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/store"
	"github.com/roach88/minirel/internal/testutil"
)

// Harness is the scenario execution context.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and engine
// 2. Run setup statements (any failure aborts the run)
// 3. Run steps, checking each against its expect clause
// 4. Evaluate assertions against the final state
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	cfg := config.Default()
	if scenario.JoinMode != "" {
		mode, err := config.ParseJoinMode(scenario.JoinMode)
		if err != nil {
			return nil, err
		}
		if err := cfg.SetJoinMode(mode); err != nil {
			return nil, err
		}
	}

	prefix := scenario.IDPrefix
	if prefix == "" {
		prefix = "test-stmt"
	}
	h := &Harness{
		store:  st,
		engine: engine.New(st, cfg, engine.WithIDGenerator(testutil.NewSequentialIDGenerator(prefix))),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	// Engine and store log through the default logger.
	prev := slog.Default()
	slog.SetDefault(h.logger)
	defer slog.SetDefault(prev)

	ctx := context.Background()
	for i, stmt := range scenario.Setup {
		if _, err := h.engine.Execute(ctx, stmt); err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.runStep(ctx, i, step, result)
	}

	actx := &AssertionContext{Store: st, Engine: h.engine, Ctx: ctx}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// runStep executes one step, records it in the trace, and checks its
// expect clause.
func (h *Harness) runStep(ctx context.Context, index int, step Step, result *Result) {
	res, err := h.engine.Execute(ctx, step.Statement)
	ev := TraceEvent{Statement: step.Statement}
	if err != nil {
		ev.Error = err.Error()
	} else {
		ev.Seq = res.Seq
		ev.Statement = res.Statement
		ev.Kind = res.Kind
		ev.Fields = res.Fields
		if res.Fields != nil {
			ev.Rows = res.NativeRows()
		}
		ev.RowsAffected = res.RowsAffected
	}
	result.AddTrace(ev)

	for _, msg := range checkExpect(step.Expect, ev, err) {
		result.AddError(fmt.Sprintf("steps[%d] %q: %s", index, step.Statement, msg))
	}
}

// checkExpect compares one step's outcome with its expect clause.
func checkExpect(exp *Expect, ev TraceEvent, err error) []string {
	if exp == nil {
		if err != nil {
			return []string{"unexpected error: " + err.Error()}
		}
		return nil
	}
	if exp.Error != "" {
		if err == nil {
			return []string{fmt.Sprintf("expected error containing %q, statement succeeded", exp.Error)}
		}
		if !strings.Contains(err.Error(), exp.Error) {
			return []string{fmt.Sprintf("expected error containing %q, got %q", exp.Error, err.Error())}
		}
		return nil
	}
	if err != nil {
		return []string{"unexpected error: " + err.Error()}
	}

	var errs []string
	if exp.Fields != nil && !slices.Equal(exp.Fields, ev.Fields) {
		errs = append(errs, fmt.Sprintf("fields: expected %v, got %v", exp.Fields, ev.Fields))
	}
	if exp.Rows != nil {
		if msg := compareRows(exp.Rows, ev.Rows, exp.Unordered); msg != "" {
			errs = append(errs, msg)
		}
	}
	if exp.RowsAffected != nil && *exp.RowsAffected != ev.RowsAffected {
		errs = append(errs, fmt.Sprintf("rows_affected: expected %d, got %d", *exp.RowsAffected, ev.RowsAffected))
	}
	return errs
}

// compareRows reports the first difference between expected and actual
// rows, or "" when they match.
func compareRows(expected, actual [][]any, unordered bool) string {
	if len(expected) != len(actual) {
		return fmt.Sprintf("rows: expected %d rows, got %d: %v", len(expected), len(actual), actual)
	}
	want, err := rowKeys(expected)
	if err != nil {
		return "rows: " + err.Error()
	}
	got, err := rowKeys(actual)
	if err != nil {
		return "rows: " + err.Error()
	}
	if unordered {
		slices.Sort(want)
		slices.Sort(got)
	}
	for i := range want {
		if want[i] != got[i] {
			return fmt.Sprintf("rows[%d]: expected %s, got %s", i, want[i], got[i])
		}
	}
	return ""
}

// rowKeys renders each row as its literal text, so YAML ints compare
// equal to int64 results.
func rowKeys(rows [][]any) ([]string, error) {
	out := make([]string, len(rows))
	for i, row := range rows {
		parts := make([]string, len(row))
		for j, v := range row {
			c, err := ir.FromNative(v)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			parts[j] = c.String()
		}
		out[i] = "(" + strings.Join(parts, ", ") + ")"
	}
	return out, nil
}
