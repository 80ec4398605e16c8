package scan

import (
	"errors"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/query"
)

// ProductScan pairs every row of s1 with every row of s2 (nested loop).
type ProductScan struct {
	s1, s2  query.Scan
	hasLeft bool
	started bool
}

func NewProductScan(s1, s2 query.Scan) *ProductScan {
	return &ProductScan{s1: s1, s2: s2}
}

func (p *ProductScan) BeforeFirst() error {
	p.started = false
	if err := p.s1.BeforeFirst(); err != nil {
		return err
	}
	return p.s2.BeforeFirst()
}

func (p *ProductScan) Next() (bool, error) {
	if !p.started {
		p.started = true
		ok, err := p.s1.Next()
		if err != nil {
			return false, err
		}
		p.hasLeft = ok
	}
	for p.hasLeft {
		ok, err := p.s2.Next()
		if err != nil || ok {
			return ok, err
		}
		if err := p.s2.BeforeFirst(); err != nil {
			return false, err
		}
		if p.hasLeft, err = p.s1.Next(); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (p *ProductScan) side(field string) query.Scan {
	if p.s1.HasField(field) {
		return p.s1
	}
	return p.s2
}

func (p *ProductScan) GetInt(field string) (int64, error)       { return p.side(field).GetInt(field) }
func (p *ProductScan) GetString(field string) (string, error)   { return p.side(field).GetString(field) }
func (p *ProductScan) GetVal(field string) (ir.Constant, error) { return p.side(field).GetVal(field) }

func (p *ProductScan) HasField(field string) bool {
	return p.s1.HasField(field) || p.s2.HasField(field)
}

func (p *ProductScan) Close() error {
	return errors.Join(p.s1.Close(), p.s2.Close())
}
