package scan

import (
	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/query"
)

// SelectScan passes through the rows of s that satisfy pred.
type SelectScan struct {
	s    query.Scan
	pred *query.Predicate
}

// NewSelectScan wraps s. A nil or empty predicate passes every row.
func NewSelectScan(s query.Scan, pred *query.Predicate) *SelectScan {
	return &SelectScan{s: s, pred: pred}
}

func (ss *SelectScan) BeforeFirst() error { return ss.s.BeforeFirst() }

func (ss *SelectScan) Next() (bool, error) {
	for {
		ok, err := ss.s.Next()
		if err != nil || !ok {
			return false, err
		}
		match, err := ss.pred.IsSatisfied(ss.s)
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
	}
}

func (ss *SelectScan) GetInt(field string) (int64, error)       { return ss.s.GetInt(field) }
func (ss *SelectScan) GetString(field string) (string, error)   { return ss.s.GetString(field) }
func (ss *SelectScan) GetVal(field string) (ir.Constant, error) { return ss.s.GetVal(field) }
func (ss *SelectScan) HasField(field string) bool               { return ss.s.HasField(field) }
func (ss *SelectScan) Close() error                             { return ss.s.Close() }
