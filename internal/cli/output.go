package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/roach88/minirel/internal/engine"
	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/parse"
	"github.com/roach88/minirel/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Statement or scenario failure (syntax error, failed scenario, etc.)
	ExitCommandError = 2 // Command error (bad flags, unreadable config, database not openable, etc.)
)

// Error codes for failures that carry no code of their own.
const (
	ErrCodeGeneric = "E_GENERIC"
	ErrCodeSyntax  = "SYNTAX_ERROR"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrorCode returns the machine-readable code of a statement error.
func ErrorCode(err error) string {
	var (
		syntaxErr *parse.SyntaxError
		planErr   *engine.PlanError
		storeErr  *store.Error
		evalErr   *ir.EvaluationError
	)
	switch {
	case errors.As(err, &syntaxErr):
		return ErrCodeSyntax
	case errors.As(err, &planErr):
		return string(planErr.Code)
	case errors.As(err, &storeErr):
		return string(storeErr.Code)
	case errors.As(err, &evalErr):
		return string(evalErr.Code)
	default:
		return ErrCodeGeneric
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status      string    `json:"status"`                 // "ok" or "error"
	Data        any       `json:"data,omitempty"`         // success payload
	Error       *CLIError `json:"error,omitempty"`        // error details
	StatementID string    `json:"statement_id,omitempty"` // id of the failing statement, when known
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "SYNTAX_ERROR", "UNKNOWN_FIELD", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// StatementFailure reports a failed statement and returns the ExitError
// the command should return.
func (f *OutputFormatter) StatementFailure(err error) error {
	code := ErrorCode(err)
	if f.Format == "json" {
		resp := CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: err.Error()},
		}
		var planErr *engine.PlanError
		if errors.As(err, &planErr) {
			resp.StatementID = planErr.StatementID
		}
		if encErr := json.NewEncoder(f.Writer).Encode(resp); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, err.Error())
	}
	return WrapExitError(ExitFailure, "statement failed", err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// writeTable renders query output as a text table followed by a row count.
func writeTable(w io.Writer, fields []string, rows [][]ir.Constant) error {
	table := tablewriter.NewWriter(w)
	header := make([]any, len(fields))
	for i, f := range fields {
		header[i] = f
	}
	table.Header(header...)
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = c.String()
		}
		if err := table.Append(cells); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}

	noun := "rows"
	if len(rows) == 1 {
		noun = "row"
	}
	_, err := fmt.Fprintf(w, "(%d %s)\n", len(rows), noun)
	return err
}
