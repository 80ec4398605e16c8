package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/minirel/internal/config"
	"github.com/roach88/minirel/internal/engine"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	File     string // script file, ';'-separated
	JoinMode string // overrides the config's join mode
	MaxRows  int    // query row limit; 0 keeps the engine default
}

// StatementOutput is one executed statement in JSON output.
type StatementOutput struct {
	ID           string   `json:"id"`
	Seq          int64    `json:"seq"`
	Kind         string   `json:"kind"`
	Statement    string   `json:"statement"`
	Fields       []string `json:"fields,omitempty"`
	Rows         [][]any  `json:"rows,omitempty"`
	RowsAffected int64    `json:"rows_affected"`
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec [statement...]",
		Short: "Run statements against the database",
		Long: `Run one or more statements in order, or a ';'-separated script file.

Execution stops at the first failing statement. Statements that ran
before it stay applied and logged.

Exit codes:
  0 - All statements succeeded
  1 - A statement failed (syntax, planning, or storage error)
  2 - Command error (bad flags, config, or database)

Examples:
  minirel exec --db uni.db "create table dept (did int, dname varchar(10))"
  minirel exec --db uni.db "select dname from dept where did = 10"
  minirel exec --db uni.db --file setup.sql
  minirel exec --db uni.db --join nested "select sname, dname from student, dept where majorid = did"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "script file of ';'-separated statements")
	cmd.Flags().StringVar(&opts.JoinMode, "join", "", "join mode (merge|nested), overrides config")
	cmd.Flags().IntVar(&opts.MaxRows, "max-rows", 0, "maximum rows a query may produce (0 = default)")

	return cmd
}

func runExec(opts *ExecOptions, args []string, cmd *cobra.Command) error {
	if opts.File == "" && len(args) == 0 {
		return NewExitError(ExitCommandError, "no statements: pass statements as arguments or use --file")
	}
	if opts.File != "" && len(args) > 0 {
		return NewExitError(ExitCommandError, "--file cannot be combined with statement arguments")
	}

	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	if opts.JoinMode != "" {
		if err := applyJoinMode(cfg, opts.JoinMode); err != nil {
			return err
		}
	}

	var engineOpts []engine.Option
	if opts.MaxRows > 0 {
		engineOpts = append(engineOpts, engine.WithMaxRows(opts.MaxRows))
	}
	eng, st, err := openEngine(cfg, engineOpts...)
	if err != nil {
		return err
	}
	defer st.Close()

	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		results []*engine.Result
		runErr  error
	)
	if opts.File != "" {
		script, err := os.ReadFile(opts.File)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read script", err)
		}
		formatter.VerboseLog("Running script %s", opts.File)
		results, runErr = eng.ExecuteScript(ctx, string(script))
	} else {
		for i, stmt := range args {
			res, err := eng.Execute(ctx, stmt)
			if err != nil {
				runErr = fmt.Errorf("statement %d: %w", i+1, err)
				break
			}
			results = append(results, res)
		}
	}

	if err := outputResults(formatter, results, runErr); err != nil {
		return err
	}
	if runErr != nil {
		return formatter.StatementFailure(runErr)
	}
	return nil
}

// applyJoinMode sets a join mode given on the command line.
func applyJoinMode(cfg *config.Config, text string) error {
	mode, err := config.ParseJoinMode(text)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --join", err)
	}
	return cfg.SetJoinMode(mode)
}

// outputResults writes the results of the statements that ran. In JSON
// mode a failure is reported by StatementFailure instead, so nothing is
// written here unless every statement succeeded.
func outputResults(formatter *OutputFormatter, results []*engine.Result, runErr error) error {
	if formatter.Format == "json" {
		if runErr != nil {
			return nil
		}
		out := make([]StatementOutput, len(results))
		for i, res := range results {
			out[i] = StatementOutput{
				ID:           res.ID,
				Seq:          res.Seq,
				Kind:         res.Kind,
				Statement:    res.Statement,
				Fields:       res.Fields,
				RowsAffected: res.RowsAffected,
			}
			if res.Fields != nil {
				out[i].Rows = res.NativeRows()
			}
		}
		return formatter.Success(out)
	}

	w := formatter.Writer
	for _, res := range results {
		formatter.VerboseLog("[%d] %s %s", res.Seq, res.ID, res.Statement)
		switch {
		case res.Fields != nil:
			if err := writeTable(w, res.Fields, res.Rows); err != nil {
				return err
			}
		case res.Kind == "insert" || res.Kind == "delete" || res.Kind == "update":
			fmt.Fprintf(w, "%s: %d row(s) affected\n", res.Kind, res.RowsAffected)
		default:
			fmt.Fprintf(w, "%s: ok\n", strings.ReplaceAll(res.Kind, "_", " "))
		}
	}
	return nil
}
