package scan

import (
	"fmt"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/query"
	"github.com/roach88/minirel/internal/record"
)

// Row is one tuple, ordered like the fields of its schema.
type Row []ir.Constant

// Materialized is a cursor over rows held in memory. It implements
// query.SortScan.
type Materialized struct {
	schema *record.Schema
	index  map[string]int
	rows   []Row
	pos    int
	saved  int
	closed bool
}

var _ query.SortScan = (*Materialized)(nil)

// NewMaterialized creates a cursor over rows. Every row must have one
// value per schema field, of the field's kind.
func NewMaterialized(sch *record.Schema, rows []Row) (*Materialized, error) {
	fields := sch.Fields()
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f] = i
	}
	for i, row := range rows {
		if len(row) != len(fields) {
			return nil, fmt.Errorf("row %d: expected %d values, got %d", i, len(fields), len(row))
		}
		for j, v := range row {
			if v == nil {
				return nil, fmt.Errorf("row %d: field %q is missing", i, fields[j])
			}
			if v.Kind() != sch.Type(fields[j]) {
				return nil, fmt.Errorf("row %d: field %q: %w", i, fields[j],
					ir.NewEvaluationError(ir.ErrCodeFieldType, "expected %s, got %s", sch.Type(fields[j]), v.Kind()))
			}
		}
	}
	return &Materialized{schema: sch, index: index, rows: rows, pos: -1, saved: -1}, nil
}

// Collect drains s into a Materialized cursor with the given schema.
// s is left exhausted but not closed.
func Collect(s query.Scan, sch *record.Schema) (*Materialized, error) {
	fields := sch.Fields()
	if err := s.BeforeFirst(); err != nil {
		return nil, err
	}
	var rows []Row
	for {
		ok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		row := make(Row, len(fields))
		for i, f := range fields {
			if row[i], err = s.GetVal(f); err != nil {
				return nil, err
			}
		}
		rows = append(rows, row)
	}
	return NewMaterialized(sch, rows)
}

// Schema returns the schema of the rows.
func (m *Materialized) Schema() *record.Schema { return m.schema }

// Rows returns the underlying rows.
func (m *Materialized) Rows() []Row { return m.rows }

// Len returns the number of rows.
func (m *Materialized) Len() int { return len(m.rows) }

func (m *Materialized) BeforeFirst() error {
	m.pos = -1
	return nil
}

func (m *Materialized) Next() (bool, error) {
	if m.closed {
		return false, fmt.Errorf("scan is closed")
	}
	if m.pos < len(m.rows) {
		m.pos++
	}
	return m.pos < len(m.rows), nil
}

func (m *Materialized) GetVal(field string) (ir.Constant, error) {
	i, ok := m.index[field]
	if !ok {
		return nil, query.UnknownField(field)
	}
	if m.pos < 0 || m.pos >= len(m.rows) {
		return nil, fmt.Errorf("no current row for field %q", field)
	}
	return m.rows[m.pos][i], nil
}

func (m *Materialized) GetInt(field string) (int64, error) {
	v, err := m.GetVal(field)
	if err != nil {
		return 0, err
	}
	return query.IntValue(field, v)
}

func (m *Materialized) GetString(field string) (string, error) {
	v, err := m.GetVal(field)
	if err != nil {
		return "", err
	}
	return query.StringValue(field, v)
}

func (m *Materialized) HasField(field string) bool {
	_, ok := m.index[field]
	return ok
}

// SavePosition bookmarks the current row.
func (m *Materialized) SavePosition() {
	m.saved = m.pos
}

// RestorePosition makes the bookmarked row current.
func (m *Materialized) RestorePosition() error {
	if m.saved < 0 {
		return fmt.Errorf("no saved position")
	}
	m.pos = m.saved
	return nil
}

func (m *Materialized) Close() error {
	m.closed = true
	return nil
}
