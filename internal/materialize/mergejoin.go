package materialize

import (
	"errors"
	"fmt"

	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/query"
)

// MergeJoinScan joins two streams sorted on their join fields.
//
// The right side must support save/restore so that a run of right rows
// sharing a key can be replayed for every matching left row. Once Next
// reports no more rows it keeps doing so, without touching either input,
// until BeforeFirst.
type MergeJoinScan struct {
	left       query.Scan
	right      query.SortScan
	leftField  string
	rightField string
	op         query.CondOp
	joinVal    ir.Constant
	exhausted  bool
}

var _ query.Scan = (*MergeJoinScan)(nil)

// NewMergeJoinScan creates a join of left and right on
// "leftField op rightField" and positions both inputs before their first
// rows.
func NewMergeJoinScan(left query.Scan, right query.SortScan, leftField, rightField string, op query.CondOp) (*MergeJoinScan, error) {
	if !op.Valid() {
		return nil, ir.NewEvaluationError(ir.ErrCodeUnknownOperator, "merge join on operator %s", op)
	}
	m := &MergeJoinScan{
		left:       left,
		right:      right,
		leftField:  leftField,
		rightField: rightField,
		op:         op,
	}
	if err := m.BeforeFirst(); err != nil {
		return nil, err
	}
	return m, nil
}

// BeforeFirst rewinds both inputs and forgets the current join value.
func (m *MergeJoinScan) BeforeFirst() error {
	m.joinVal = nil
	m.exhausted = false
	if err := m.left.BeforeFirst(); err != nil {
		return err
	}
	return m.right.BeforeFirst()
}

// Next moves to the next joined row.
func (m *MergeJoinScan) Next() (bool, error) {
	if m.exhausted {
		return false, nil
	}

	// A right row with the current join value pairs with the current left row.
	hasRight, err := m.right.Next()
	if err != nil {
		return false, err
	}
	if hasRight && m.joinVal != nil {
		v, err := m.right.GetVal(m.rightField)
		if err != nil {
			return false, err
		}
		if ir.ConstantEqual(v, m.joinVal) {
			return true, nil
		}
	}

	// A new left row that still matches the join value replays the right group.
	hasLeft, err := m.left.Next()
	if err != nil {
		return false, err
	}
	if hasLeft && m.joinVal != nil {
		v, err := m.left.GetVal(m.leftField)
		if err != nil {
			return false, err
		}
		ok, err := m.op.Evaluate(v, m.joinVal)
		if err != nil {
			return false, err
		}
		if ok {
			if err := m.right.RestorePosition(); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	// Merge until the two sides meet.
	for hasLeft && hasRight {
		v1, err := m.left.GetVal(m.leftField)
		if err != nil {
			return false, err
		}
		v2, err := m.right.GetVal(m.rightField)
		if err != nil {
			return false, err
		}
		ok, err := m.op.Evaluate(v1, v2)
		if err != nil {
			return false, err
		}
		if ok {
			m.right.SavePosition()
			m.joinVal = v2
			return true, nil
		}
		c, err := v1.Compare(v2)
		if err != nil {
			return false, err
		}
		if c <= 0 {
			hasLeft, err = m.left.Next()
		} else {
			hasRight, err = m.right.Next()
		}
		if err != nil {
			return false, err
		}
	}
	m.exhausted = true
	return false, nil
}

func (m *MergeJoinScan) side(field string) query.Scan {
	if m.left.HasField(field) {
		return m.left
	}
	return m.right
}

func (m *MergeJoinScan) GetInt(field string) (int64, error) {
	return m.side(field).GetInt(field)
}

func (m *MergeJoinScan) GetString(field string) (string, error) {
	return m.side(field).GetString(field)
}

func (m *MergeJoinScan) GetVal(field string) (ir.Constant, error) {
	return m.side(field).GetVal(field)
}

func (m *MergeJoinScan) HasField(field string) bool {
	return m.left.HasField(field) || m.right.HasField(field)
}

// Close closes both inputs.
func (m *MergeJoinScan) Close() error {
	if err := errors.Join(m.left.Close(), m.right.Close()); err != nil {
		return fmt.Errorf("close merge join: %w", err)
	}
	return nil
}
