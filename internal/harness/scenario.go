package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/minirel/internal/config"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// JoinMode sets the initial join mode. Empty means merge.
	JoinMode string `yaml:"join_mode,omitempty"`

	// Setup contains statements run before the steps.
	// Setup statements must succeed.
	Setup []string `yaml:"setup,omitempty"`

	// Steps contains the statements under test with expected outcomes.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	// Supported types: table_rows, table_contains, log_count, join_mode
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// IDPrefix prefixes the sequential statement IDs.
	// If empty, defaults to "test-stmt".
	IDPrefix string `yaml:"id_prefix,omitempty"`
}

// Step is one statement and what it should produce.
type Step struct {
	Statement string `yaml:"statement"`

	// Expect specifies the expected outcome.
	// If nil, the statement only has to succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Fields is the expected result column list of a query.
	Fields []string `yaml:"fields,omitempty"`

	// Rows are the expected result rows of a query, compared in order
	// unless Unordered is set. A nil Rows is not checked; an empty list
	// expects no rows.
	Rows [][]any `yaml:"rows,omitempty"`

	// Unordered compares Rows as a multiset.
	Unordered bool `yaml:"unordered,omitempty"`

	// RowsAffected is the expected write count of insert, delete or update.
	RowsAffected *int64 `yaml:"rows_affected,omitempty"`

	// Error is a substring the error message must contain. A step with
	// Error set must fail.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "table_rows": table has exactly Count rows
	// - "table_contains": table has a row matching Row (subset match)
	// - "log_count": statement log has Count entries of Kind
	// - "join_mode": the final join mode is Mode
	Type string `yaml:"type"`

	// Table is the table name (used by table_rows and table_contains).
	Table string `yaml:"table,omitempty"`

	// Row holds expected field values (used by table_contains).
	Row map[string]any `yaml:"row,omitempty"`

	// Kind is a statement kind such as "insert" (used by log_count).
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number of rows or log entries.
	Count int `yaml:"count,omitempty"`

	// Mode is the expected join mode (used by join_mode).
	Mode string `yaml:"mode,omitempty"`
}

// Assertion type constants.
const (
	AssertTableRows     = "table_rows"
	AssertTableContains = "table_contains"
	AssertLogCount      = "log_count"
	AssertJoinMode      = "join_mode"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.JoinMode != "" {
		if _, err := config.ParseJoinMode(s.JoinMode); err != nil {
			return fmt.Errorf("join_mode: %w", err)
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, stmt := range s.Setup {
		if stmt == "" {
			return fmt.Errorf("setup[%d]: statement is empty", i)
		}
	}
	for i, step := range s.Steps {
		if step.Statement == "" {
			return fmt.Errorf("steps[%d]: statement is required", i)
		}
		if e := step.Expect; e != nil && e.Error != "" && (e.Rows != nil || e.Fields != nil || e.RowsAffected != nil) {
			return fmt.Errorf("steps[%d].expect: error cannot be combined with results", i)
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTableRows:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for table_rows", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for table_rows", index)
		}
	case AssertTableContains:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for table_contains", index)
		}
		if len(a.Row) == 0 {
			return fmt.Errorf("assertions[%d]: row is required for table_contains", index)
		}
	case AssertLogCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for log_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for log_count", index)
		}
	case AssertJoinMode:
		if _, err := config.ParseJoinMode(a.Mode); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
