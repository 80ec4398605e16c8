package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/parse"
)

// StatementRecord is one entry of the statement log.
type StatementRecord struct {
	ID           string
	Seq          int64
	Kind         string
	Fingerprint  string
	Canonical    string
	Statement    string
	RowsAffected int64
}

// WriteStatement appends an executed statement to the log and returns its
// sequence number. Writing the same ID twice is a no-op that returns the
// existing sequence number.
func (s *Store) WriteStatement(ctx context.Context, id string, cmd parse.Command, rowsAffected int64) (int64, error) {
	canon := cmd.Canonical()
	data, err := ir.MarshalCanonical(canon)
	if err != nil {
		return 0, fmt.Errorf("log statement %s: %w", id, err)
	}
	fp, err := ir.Fingerprint(canon)
	if err != nil {
		return 0, fmt.Errorf("log statement %s: %w", id, err)
	}
	kind, _ := canon["kind"].(string)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO minirel_statements (id, seq, kind, fingerprint, canonical, statement, rows_affected)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM minirel_statements), ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, kind, fp, string(data), cmd.String(), rowsAffected)
	if err != nil {
		return 0, fmt.Errorf("log statement %s: %w", id, err)
	}

	var seq int64
	if err := s.db.QueryRowContext(ctx, "SELECT seq FROM minirel_statements WHERE id = ?", id).Scan(&seq); err != nil {
		return 0, fmt.Errorf("log statement %s: read seq: %w", id, err)
	}
	slog.Debug("statement logged", "id", id, "seq", seq, "kind", kind)
	return seq, nil
}

// ReadStatements returns the statement log in sequence order.
// A positive limit keeps only the most recent entries.
func (s *Store) ReadStatements(ctx context.Context, limit int) ([]StatementRecord, error) {
	query := `
		SELECT id, seq, kind, fingerprint, canonical, statement, rows_affected
		FROM minirel_statements
		ORDER BY seq ASC
	`
	var args []any
	if limit > 0 {
		query = `
			SELECT * FROM (
				SELECT id, seq, kind, fingerprint, canonical, statement, rows_affected
				FROM minirel_statements
				ORDER BY seq DESC
				LIMIT ?
			) ORDER BY seq ASC
		`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read statements: %w", err)
	}
	defer rows.Close()

	var out []StatementRecord
	for rows.Next() {
		var r StatementRecord
		if err := rows.Scan(&r.ID, &r.Seq, &r.Kind, &r.Fingerprint, &r.Canonical, &r.Statement, &r.RowsAffected); err != nil {
			return nil, fmt.Errorf("read statements: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read statements: %w", err)
	}
	return out, nil
}

// CountByFingerprint returns how many logged statements share a fingerprint.
func (s *Store) CountByFingerprint(ctx context.Context, fingerprint string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM minirel_statements WHERE fingerprint = ?", fingerprint).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count statements: %w", err)
	}
	return n, nil
}

// HasStatement reports whether a statement ID is already in the log.
func (s *Store) HasStatement(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM minirel_statements WHERE id = ?", id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check statement %s: %w", id, err)
	}
	return n > 0, nil
}
