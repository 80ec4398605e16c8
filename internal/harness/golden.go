package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/minirel/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Pass         bool         `json:"pass"`
	Trace        []TraceEvent `json:"trace"`
	Errors       []string     `json:"errors,omitempty"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"seq":       event.Seq,
			"statement": event.Statement,
		}
		if event.Kind != "" {
			eventMap["kind"] = event.Kind
		}
		if event.Fields != nil {
			eventMap["fields"] = event.Fields
		}
		if event.Rows != nil {
			rows := make([]any, len(event.Rows))
			for j, row := range event.Rows {
				rows[j] = row
			}
			eventMap["rows"] = rows
		}
		if event.RowsAffected != 0 {
			eventMap["rows_affected"] = event.RowsAffected
		}
		if event.Error != "" {
			eventMap["error"] = event.Error
		}
		traceList[i] = eventMap
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"pass":          s.Pass,
		"trace":         traceList,
	}
	if len(s.Errors) > 0 {
		result["errors"] = s.Errors
	}
	return result
}

// Snapshot renders a result as canonical JSON.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Pass:         result.Pass,
		Trace:        result.Trace,
		Errors:       result.Errors,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
