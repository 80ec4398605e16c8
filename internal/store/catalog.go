package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/minirel/internal/parse"
	"github.com/roach88/minirel/internal/querysql"
)

// IndexInfo is one row of the index catalog.
type IndexInfo struct {
	Name  string
	Table string
	Field string
	Type  string
}

// CreateView records a view definition. The definition is stored as
// statement text and re-parsed each time the view is used.
func (s *Store) CreateView(ctx context.Context, d *parse.CreateViewData) error {
	if err := s.checkNameFree(ctx, d.View); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO minirel_views (name, definition) VALUES (?, ?)",
		d.View, d.ViewDef())
	if err != nil {
		return fmt.Errorf("create view %s: %w", d.View, err)
	}
	slog.Debug("view created", "view", d.View)
	return nil
}

// ViewDef returns the definition of a view.
// Returns ("", false, nil) if no view has that name.
func (s *Store) ViewDef(ctx context.Context, name string) (string, bool, error) {
	var def string
	err := s.db.QueryRowContext(ctx,
		"SELECT definition FROM minirel_views WHERE name = ?", name).Scan(&def)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read view %s: %w", name, err)
	}
	return def, true, nil
}

// CreateIndex creates an index on one field and records it in the catalog.
func (s *Store) CreateIndex(ctx context.Context, d *parse.CreateIndexData) error {
	sch, err := s.Schema(ctx, d.Table)
	if err != nil {
		return err
	}
	if !sch.HasField(d.Field) {
		return newError(ErrCodeFieldNotFound, d.Table, "no field %q", d.Field)
	}
	if err := s.checkNameFree(ctx, d.Index); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create index %s: begin: %w", d.Index, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, querysql.CompileCreateIndex(d)); err != nil {
		return fmt.Errorf("create index %s: %w", d.Index, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO minirel_indexes (name, table_name, field_name, index_type)
		VALUES (?, ?, ?, ?)
	`, d.Index, d.Table, d.Field, d.Type.String())
	if err != nil {
		return fmt.Errorf("create index %s: record: %w", d.Index, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create index %s: commit: %w", d.Index, err)
	}

	slog.Debug("index created", "index", d.Index, "table", d.Table, "field", d.Field, "type", d.Type)
	return nil
}

// Indexes lists the indexes on a table in name order.
func (s *Store) Indexes(ctx context.Context, table string) ([]IndexInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, table_name, field_name, index_type
		FROM minirel_indexes
		WHERE table_name = ?
		ORDER BY name COLLATE BINARY ASC
	`, table)
	if err != nil {
		return nil, fmt.Errorf("list indexes of %s: %w", table, err)
	}
	defer rows.Close()

	var out []IndexInfo
	for rows.Next() {
		var ix IndexInfo
		if err := rows.Scan(&ix.Name, &ix.Table, &ix.Field, &ix.Type); err != nil {
			return nil, fmt.Errorf("list indexes of %s: %w", table, err)
		}
		out = append(out, ix)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list indexes of %s: %w", table, err)
	}
	return out, nil
}
