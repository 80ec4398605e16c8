package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	JoinMode string
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <query>",
		Short: "Show how a query would be planned",
		Long: `Plan a query without running it and report, per table, the pushed-down
predicate, the most constraining term, and the estimated row count, plus
the join method chosen for each join.

Examples:
  minirel explain --db uni.db "select sname from student, dept where majorid = did and did = 10"
  minirel explain --db uni.db --join nested --format json "select sname from student, dept where majorid = did"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.JoinMode, "join", "", "join mode (merge|nested), overrides config")

	return cmd
}

func runExplain(opts *ExplainOptions, query string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	if opts.JoinMode != "" {
		if err := applyJoinMode(cfg, opts.JoinMode); err != nil {
			return err
		}
	}

	eng, st, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	x, err := eng.Explain(ctx, query)
	if err != nil {
		return formatter.StatementFailure(err)
	}
	if opts.Format == "json" {
		return formatter.Success(x)
	}
	_, err = fmt.Fprint(formatter.Writer, x.String())
	return err
}
