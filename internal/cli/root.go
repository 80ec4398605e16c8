package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/minirel/internal/config"
	"github.com/roach88/minirel/internal/engine"
	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string // config file path; empty means defaults
	Database string // overrides the config file's database
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the minirel CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "minirel",
		Version: ir.EngineVersion,
		Short: "minirel - a small relational query front-end",
		Long: `minirel parses a small SQL dialect, plans queries over SQLite-backed
tables with pushdown and merge joins, and records every statement it runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "config file path")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "database path (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// loadConfig reads the config file named by --config, applies --db, and
// installs the configured logger as the slog default.
func loadConfig(opts *RootOptions, cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}

	// Logs go to stderr so JSON output stays parseable.
	logger, err := config.NewLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid log config", err)
	}
	slog.SetDefault(logger)
	return cfg, nil
}

// openEngine opens the configured database and builds an engine on it.
// The caller closes the returned store.
func openEngine(cfg *config.Config, opts ...engine.Option) (*engine.Engine, *store.Store, error) {
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return engine.New(st, cfg, opts...), st, nil
}

// newFormatter builds the formatter every command writes through.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}
