package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/minirel/internal/config"
	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/parse"
	"github.com/roach88/minirel/internal/store"
)

// IDGenerator generates unique statement IDs for log correlation.
// Implemented by UUIDv7Generator (production) and the testutil generators.
type IDGenerator interface {
	Generate() string
}

// Engine runs statements against a store.
//
// Thread-safety model:
//   - Execute, ExecuteCommand, ExecuteScript, Explain and Replay are safe
//     from any goroutine; statements run one at a time.
//   - The join mode lives in the shared config and may be changed by a
//     setting statement or by the caller between statements.
type Engine struct {
	mu      sync.Mutex
	store   *store.Store
	cfg     *config.Config
	ids     IDGenerator
	maxRows int
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithIDGenerator sets the statement ID source.
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithMaxRows sets the maximum rows a query may produce, including the
// rows of any view it reads. Zero means unlimited.
//
// Default: 1,000,000 rows (DefaultMaxRows)
func WithMaxRows(n int) Option {
	return func(e *Engine) {
		e.maxRows = n
	}
}

// New creates an Engine over the given store. A nil cfg uses
// config.Default().
func New(s *store.Store, cfg *config.Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	e := &Engine{
		store:   s,
		cfg:     cfg,
		ids:     UUIDv7Generator{},
		maxRows: DefaultMaxRows,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the configuration the engine reads its join mode from.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Result is the outcome of one statement.
type Result struct {
	ID        string
	Seq       int64 // position in the statement log
	Kind      string
	Statement string // the statement as parsed, rendered back to text

	// Fields and Rows hold the output of a query.
	Fields []string
	Rows   [][]ir.Constant

	// RowsAffected counts rows written by insert, delete and update.
	RowsAffected int64
}

// NativeRows returns the rows as plain Go values for output.
func (r *Result) NativeRows() [][]any {
	out := make([][]any, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = make([]any, len(row))
		for j, c := range row {
			out[i][j] = ir.ToNative(c)
		}
	}
	return out
}

// Execute parses and runs one statement.
func (e *Engine) Execute(ctx context.Context, statement string) (*Result, error) {
	cmd, err := parse.Parse(statement)
	if err != nil {
		return nil, err
	}
	return e.ExecuteCommand(ctx, cmd)
}

// ExecuteScript runs a ';'-separated script in order. It stops at the
// first failing statement and returns the results of the statements
// before it along with the error.
func (e *Engine) ExecuteScript(ctx context.Context, script string) ([]*Result, error) {
	cmds, err := parse.ParseScript(script)
	if err != nil {
		return nil, err
	}
	results := make([]*Result, 0, len(cmds))
	for i, cmd := range cmds {
		res, err := e.ExecuteCommand(ctx, cmd)
		if err != nil {
			return results, fmt.Errorf("statement %d: %w", i+1, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// ExecuteCommand runs a parsed statement and appends it to the statement
// log.
func (e *Engine) ExecuteCommand(ctx context.Context, cmd parse.Command) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.execute(ctx, e.ids.Generate(), cmd)
}

// execute runs cmd under the given statement ID. Callers hold e.mu.
func (e *Engine) execute(ctx context.Context, id string, cmd parse.Command) (*Result, error) {
	res := &Result{ID: id, Kind: commandKind(cmd), Statement: cmd.String()}

	if err := e.apply(ctx, cmd, res); err != nil {
		var pe *PlanError
		if errors.As(err, &pe) && pe.StatementID == "" {
			pe.StatementID = id
		}
		slog.Warn("statement failed", "id", id, "kind", res.Kind, "error", err)
		return nil, err
	}

	logged := res.RowsAffected
	if res.Kind == "select" {
		logged = int64(len(res.Rows))
	}
	seq, err := e.store.WriteStatement(ctx, id, cmd, logged)
	if err != nil {
		return nil, err
	}
	res.Seq = seq

	slog.Debug("statement executed",
		"id", id,
		"seq", seq,
		"kind", res.Kind,
		"rows", logged,
	)
	return res, nil
}

// apply dispatches on the command type.
func (e *Engine) apply(ctx context.Context, cmd parse.Command, res *Result) error {
	var err error
	switch c := cmd.(type) {
	case *parse.QueryData:
		var p *queryPlan
		if p, err = e.planQuery(ctx, c, 0); err != nil {
			return err
		}
		res.Fields = c.OutputFields()
		res.Rows, err = e.run(ctx, p, res.Fields)

	case *parse.InsertData:
		res.RowsAffected, err = e.store.Insert(ctx, c)

	case *parse.DeleteData:
		res.RowsAffected, err = e.store.Delete(ctx, c)

	case *parse.ModifyData:
		res.RowsAffected, err = e.store.Update(ctx, c)

	case *parse.CreateTableData:
		err = e.store.CreateTable(ctx, c)

	case *parse.CreateViewData:
		// The definition must plan now; views cannot refer to themselves
		// or to objects created later.
		if _, err = e.planQuery(ctx, c.Query, 1); err != nil {
			return fmt.Errorf("view %s: %w", c.View, err)
		}
		err = e.store.CreateView(ctx, c)

	case *parse.CreateIndexData:
		err = e.store.CreateIndex(ctx, c)

	case *parse.SettingData:
		var mode config.JoinMode
		if mode, err = config.ParseJoinMode(c.Mode); err != nil {
			return err
		}
		err = e.cfg.SetJoinMode(mode)
		if err == nil {
			slog.Info("join mode changed", "mode", mode)
		}

	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
	return err
}

func commandKind(cmd parse.Command) string {
	kind, _ := cmd.Canonical()["kind"].(string)
	return kind
}
