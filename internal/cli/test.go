package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/minirel/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // golden file directory; empty means <scenarios>/../golden
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios>",
		Short: "Run scenario files",
		Long: `Run YAML scenarios, each against a fresh in-memory database.

<scenarios> is a scenario file or a directory of them. A scenario passes
when every step matches its expectations, every assertion holds, and the
trace matches its golden file (when one exists).

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  minirel test ./testdata/scenarios
  minirel test ./testdata/scenarios --filter "university*"
  minirel test ./testdata/scenarios --update
  minirel test ./testdata/scenarios --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden file directory")

	return cmd
}

func runTests(opts *TestOptions, scenariosPath string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosPath); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios path not found: %s", scenariosPath))
	}
	if _, err := filepath.Match(opts.Filter, ""); err != nil {
		return WrapExitError(ExitCommandError, "invalid filter pattern", err)
	}

	files, err := harness.DiscoverScenarios(scenariosPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	files = filterScenarios(files, opts.Filter)

	if len(files) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(cmd, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = defaultGoldenDir(scenariosPath)
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr := runScenario(file, goldenDir, opts)
		if opts.Format != "json" {
			printScenarioResult(cmd, sr)
		}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}
	return outputTestText(cmd, result)
}

// filterScenarios keeps the files whose base name, without extension,
// matches the glob. The pattern has already been validated.
func filterScenarios(files []string, filter string) []string {
	if filter == "" {
		return files
	}
	var out []string
	for _, f := range files {
		base := filepath.Base(f)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		if ok, _ := filepath.Match(filter, name); ok {
			out = append(out, f)
		}
	}
	return out
}

// defaultGoldenDir places golden files in a "golden" directory next to
// the scenarios directory, the layout of testdata/scenarios and
// testdata/golden.
func defaultGoldenDir(scenariosPath string) string {
	dir := scenariosPath
	if info, err := os.Stat(scenariosPath); err == nil && !info.IsDir() {
		dir = filepath.Dir(scenariosPath)
	}
	return filepath.Join(filepath.Dir(filepath.Clean(dir)), "golden")
}

// runScenario executes a single scenario and returns the result.
func runScenario(file, goldenDir string, opts *TestOptions) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	result, err := harness.Run(scenario)
	if err != nil {
		return ScenarioResult{
			Name:   scenario.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	snapshot, err := harness.Snapshot(scenario.Name, result)
	if err != nil {
		return ScenarioResult{
			Name:   scenario.Name,
			Errors: []string{fmt.Sprintf("failed to marshal trace: %v", err)},
		}
	}
	goldenPath := filepath.Join(goldenDir, scenario.Name+".golden")

	if opts.Update {
		if err := os.MkdirAll(goldenDir, 0o755); err != nil {
			return ScenarioResult{Name: scenario.Name, Errors: []string{fmt.Sprintf("failed to create golden directory: %v", err)}}
		}
		if err := os.WriteFile(goldenPath, snapshot, 0o644); err != nil {
			return ScenarioResult{Name: scenario.Name, Errors: []string{fmt.Sprintf("failed to update golden file: %v", err)}}
		}
		return ScenarioResult{Name: scenario.Name, Pass: result.Pass, Errors: result.Errors}
	}

	errs := append([]string(nil), result.Errors...)
	golden, err := os.ReadFile(goldenPath)
	switch {
	case os.IsNotExist(err):
		// No golden file - expectations and assertions decide alone
	case err != nil:
		errs = append(errs, fmt.Sprintf("failed to read golden file: %v", err))
	case !bytes.Equal(golden, snapshot):
		errs = append(errs, "trace does not match golden file (run with --update to regenerate)")
	}

	return ScenarioResult{
		Name:   scenario.Name,
		Pass:   len(errs) == 0,
		Errors: errs,
	}
}

func printScenarioResult(cmd *cobra.Command, sr ScenarioResult) {
	w := cmd.OutOrStdout()
	if sr.Pass {
		fmt.Fprintf(w, "✓ %s\n", sr.Name)
		return
	}
	fmt.Fprintf(w, "✗ %s\n", sr.Name)
	for _, e := range sr.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
