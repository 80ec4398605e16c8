package scan

import (
	"strings"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/query"
)

// DistinctScan drops rows whose values on fields were already returned.
type DistinctScan struct {
	s      query.Scan
	fields []string
	seen   map[string]struct{}
}

func NewDistinctScan(s query.Scan, fields []string) *DistinctScan {
	return &DistinctScan{s: s, fields: fields, seen: make(map[string]struct{})}
}

func (d *DistinctScan) BeforeFirst() error {
	clear(d.seen)
	return d.s.BeforeFirst()
}

func (d *DistinctScan) Next() (bool, error) {
	for {
		ok, err := d.s.Next()
		if err != nil || !ok {
			return false, err
		}
		key, err := d.rowKey()
		if err != nil {
			return false, err
		}
		if _, dup := d.seen[key]; dup {
			continue
		}
		d.seen[key] = struct{}{}
		return true, nil
	}
}

// rowKey renders the current row as SQL literals; the quoting keeps
// string and int values apart.
func (d *DistinctScan) rowKey() (string, error) {
	var b strings.Builder
	for _, f := range d.fields {
		v, err := d.s.GetVal(f)
		if err != nil {
			return "", err
		}
		b.WriteString(v.String())
		b.WriteByte(0)
	}
	return b.String(), nil
}

func (d *DistinctScan) GetInt(field string) (int64, error)       { return d.s.GetInt(field) }
func (d *DistinctScan) GetString(field string) (string, error)   { return d.s.GetString(field) }
func (d *DistinctScan) GetVal(field string) (ir.Constant, error) { return d.s.GetVal(field) }
func (d *DistinctScan) HasField(field string) bool               { return d.s.HasField(field) }
func (d *DistinctScan) Close() error                             { return d.s.Close() }
