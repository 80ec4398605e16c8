package scan

import (
	"slices"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/query"
)

// ProjectScan hides every field of s outside fields.
type ProjectScan struct {
	s      query.Scan
	fields []string
}

func NewProjectScan(s query.Scan, fields []string) *ProjectScan {
	return &ProjectScan{s: s, fields: slices.Clone(fields)}
}

func (p *ProjectScan) BeforeFirst() error  { return p.s.BeforeFirst() }
func (p *ProjectScan) Next() (bool, error) { return p.s.Next() }
func (p *ProjectScan) Close() error        { return p.s.Close() }

func (p *ProjectScan) HasField(field string) bool {
	return slices.Contains(p.fields, field)
}

func (p *ProjectScan) GetVal(field string) (ir.Constant, error) {
	if !p.HasField(field) {
		return nil, query.UnknownField(field)
	}
	return p.s.GetVal(field)
}

func (p *ProjectScan) GetInt(field string) (int64, error) {
	if !p.HasField(field) {
		return 0, query.UnknownField(field)
	}
	return p.s.GetInt(field)
}

func (p *ProjectScan) GetString(field string) (string, error) {
	if !p.HasField(field) {
		return "", query.UnknownField(field)
	}
	return p.s.GetString(field)
}
