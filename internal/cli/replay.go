package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/minirel/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	From string // database whose statement log is replayed
}

// ReplayOutput is the replay command's JSON payload.
type ReplayOutput struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Logged  int    `json:"logged"`
	Applied int    `json:"applied"`
	Skipped int    `json:"skipped"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild a database from another database's statement log",
		Long: `Re-run the statement log of --from against the target database (--db or
the config's database). Statements keep their original IDs. Queries and
statements the target already logged are skipped, so replaying twice
applies nothing new.

Exit codes:
  0 - Replay completed
  1 - A logged statement failed to re-run
  2 - Command error (missing --from, database not openable, etc.)

Examples:
  minirel replay --from uni.db --db copy.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "source database path (required)")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	if opts.From == "" {
		return NewExitError(ExitCommandError, "--from is required")
	}
	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	if opts.From == cfg.Database {
		return NewExitError(ExitCommandError, "source and target database are the same")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	src, err := store.Open(opts.From)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open source database", err)
	}
	defer src.Close()
	recs, err := src.ReadStatements(ctx, 0)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read statement log", err)
	}

	eng, st, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	formatter := newFormatter(opts.RootOptions, cmd)
	formatter.VerboseLog("Replaying %d statement(s) from %s", len(recs), opts.From)

	res, err := eng.Replay(ctx, recs)
	if err != nil {
		return formatter.StatementFailure(err)
	}

	out := ReplayOutput{
		Source:  opts.From,
		Target:  cfg.Database,
		Logged:  len(recs),
		Applied: res.Applied,
		Skipped: res.Skipped,
	}
	if opts.Format == "json" {
		return formatter.Success(out)
	}
	fmt.Fprintf(formatter.Writer, "Replay Summary: %d statement(s) from %s\n", out.Logged, out.Source)
	fmt.Fprintf(formatter.Writer, "  Applied: %d\n", out.Applied)
	fmt.Fprintf(formatter.Writer, "  Skipped: %d\n", out.Skipped)
	return nil
}
