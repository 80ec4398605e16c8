package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/minirel/internal/engine"
	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/store"
)

// AssertionContext provides what assertions read the final state from.
type AssertionContext struct {
	Store  *store.Store
	Engine *engine.Engine
	Ctx    context.Context
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("Assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion and returns the failure
// messages, in assertion order.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err))
		}
	}
	return errs
}

func evaluateAssertion(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertTableRows:
		return assertTableRows(a, actx)
	case AssertTableContains:
		return assertTableContains(a, actx)
	case AssertLogCount:
		return assertLogCount(a, actx)
	case AssertJoinMode:
		return assertJoinMode(a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTableRows checks the exact row count of a table.
func assertTableRows(a Assertion, actx *AssertionContext) error {
	m, err := actx.Store.Scan(actx.Ctx, a.Table, nil, nil)
	if err != nil {
		return err
	}
	if m.Len() != a.Count {
		return &AssertionError{
			Type:     AssertTableRows,
			Expected: fmt.Sprintf("%d rows in %s", a.Count, a.Table),
			Actual:   fmt.Sprintf("%d rows", m.Len()),
		}
	}
	return nil
}

// assertTableContains checks that some row of the table has every field
// value of a.Row.
func assertTableContains(a Assertion, actx *AssertionContext) error {
	m, err := actx.Store.Scan(actx.Ctx, a.Table, nil, nil)
	if err != nil {
		return err
	}

	fields := make([]string, 0, len(a.Row))
	for f := range a.Row {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	want := make(map[string]ir.Constant, len(fields))
	for _, f := range fields {
		if !m.HasField(f) {
			return fmt.Errorf("table %s has no field %q", a.Table, f)
		}
		c, err := ir.FromNative(a.Row[f])
		if err != nil {
			return fmt.Errorf("row.%s: %w", f, err)
		}
		want[f] = c
	}

	if err := m.BeforeFirst(); err != nil {
		return err
	}
	for {
		ok, err := m.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		matched := true
		for _, f := range fields {
			v, err := m.GetVal(f)
			if err != nil {
				return err
			}
			if !ir.ConstantEqual(v, want[f]) {
				matched = false
				break
			}
		}
		if matched {
			return nil
		}
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + "=" + want[f].String()
	}
	return &AssertionError{
		Type:     AssertTableContains,
		Expected: fmt.Sprintf("row in %s with %s", a.Table, strings.Join(parts, ", ")),
		Actual:   "no matching row",
	}
}

// assertLogCount checks how many logged statements have a kind.
func assertLogCount(a Assertion, actx *AssertionContext) error {
	recs, err := actx.Store.ReadStatements(actx.Ctx, 0)
	if err != nil {
		return err
	}
	n := 0
	for _, r := range recs {
		if r.Kind == a.Kind {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertLogCount,
			Expected: fmt.Sprintf("%d %s statements", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d", n),
		}
	}
	return nil
}

// assertJoinMode checks the join mode left by the scenario.
func assertJoinMode(a Assertion, actx *AssertionContext) error {
	got := string(actx.Engine.Config().JoinMode())
	if !strings.EqualFold(got, a.Mode) {
		return &AssertionError{
			Type:     AssertJoinMode,
			Expected: a.Mode,
			Actual:   got,
		}
	}
	return nil
}
