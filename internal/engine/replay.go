package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/minirel/internal/parse"
	"github.com/roach88/minirel/internal/store"
)

// ReplayResult summarizes a replay.
type ReplayResult struct {
	Applied int // statements run
	Skipped int // queries, and statements already in this engine's log
}

// Replay re-runs logged statements in log order, keeping their original
// IDs. Queries are skipped since they change nothing. A statement whose
// ID is already in this engine's log is skipped too, so replaying the
// same log twice, or into the store it came from, applies nothing new.
func (e *Engine) Replay(ctx context.Context, records []store.StatementRecord) (*ReplayResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := &ReplayResult{}
	for _, rec := range records {
		if rec.Kind == "select" {
			out.Skipped++
			continue
		}
		done, err := e.store.HasStatement(ctx, rec.ID)
		if err != nil {
			return out, err
		}
		if done {
			out.Skipped++
			continue
		}

		cmd, err := parse.Parse(rec.Statement)
		if err != nil {
			return out, fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		if _, err := e.execute(ctx, rec.ID, cmd); err != nil {
			return out, fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		out.Applied++
	}

	slog.Info("replay complete", "applied", out.Applied, "skipped", out.Skipped)
	return out, nil
}
