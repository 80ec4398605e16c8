package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/parse"
)

// ParseResult is the parse command's JSON payload.
type ParseResult struct {
	Kind        string         `json:"kind"`
	Statement   string         `json:"statement"`
	Fingerprint string         `json:"fingerprint"`
	Command     map[string]any `json:"command"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <statement>",
		Short: "Parse a statement and print its canonical form",
		Long: `Parse one statement without running it.

Text output shows the statement rendered back from its parse, and its
fingerprint. JSON output adds the full canonical command.

Examples:
  minirel parse "select sname from student where majorid = 10"
  minirel parse --format json "create index ix on student (sid) using btree"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runParse(opts *RootOptions, statement string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	parsed, err := parse.Parse(statement)
	if err != nil {
		return formatter.StatementFailure(err)
	}

	canonical := parsed.Canonical()
	fp, err := ir.Fingerprint(canonical)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to fingerprint statement", err)
	}
	kind, _ := canonical["kind"].(string)

	if opts.Format == "json" {
		return formatter.Success(ParseResult{
			Kind:        kind,
			Statement:   parsed.String(),
			Fingerprint: fp,
			Command:     canonical,
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "kind:        %s\n", kind)
	fmt.Fprintf(w, "statement:   %s\n", parsed.String())
	fmt.Fprintf(w, "fingerprint: %s\n", fp)
	if opts.Verbose {
		data, err := ir.MarshalCanonical(canonical)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to marshal command", err)
		}
		fmt.Fprintf(w, "canonical:   %s\n", data)
	}
	return nil
}
