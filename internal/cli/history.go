package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/minirel/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// HistoryEntry is one logged statement in JSON output.
type HistoryEntry struct {
	Seq          int64  `json:"seq"`
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Fingerprint  string `json:"fingerprint"`
	Statement    string `json:"statement"`
	RowsAffected int64  `json:"rows_affected"`
	Occurrences  int    `json:"occurrences"` // logged statements sharing the fingerprint
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the statement log",
		Long: `List the statements recorded in the database's statement log, oldest
first. For queries the row count is the number of rows returned.

Examples:
  minirel history --db uni.db
  minirel history --db uni.db --limit 10 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "show only the last N statements (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must be non-negative")
	}
	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	recs, err := st.ReadStatements(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read statement log", err)
	}

	occurrences := make(map[string]int)
	for _, r := range recs {
		if _, ok := occurrences[r.Fingerprint]; ok {
			continue
		}
		n, err := st.CountByFingerprint(ctx, r.Fingerprint)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read statement log", err)
		}
		occurrences[r.Fingerprint] = n
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		entries := make([]HistoryEntry, len(recs))
		for i, r := range recs {
			entries[i] = HistoryEntry{
				Seq:          r.Seq,
				ID:           r.ID,
				Kind:         r.Kind,
				Fingerprint:  r.Fingerprint,
				Statement:    r.Statement,
				RowsAffected: r.RowsAffected,
				Occurrences:  occurrences[r.Fingerprint],
			}
		}
		return formatter.Success(entries)
	}

	w := formatter.Writer
	if len(recs) == 0 {
		fmt.Fprintln(w, "No statements logged.")
		return nil
	}
	for _, r := range recs {
		fmt.Fprintf(w, "%4d  %-12s  %s  (%d)\n", r.Seq, r.Kind, r.Statement, r.RowsAffected)
		formatter.VerboseLog("      id=%s fingerprint=%s occurrences=%d", r.ID, r.Fingerprint, occurrences[r.Fingerprint])
	}
	return nil
}
