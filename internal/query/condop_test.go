package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minirel/internal/ir"
)

func TestCondOpEvaluate(t *testing.T) {
	five, seven, three := ir.NewInt(5), ir.NewInt(7), ir.NewInt(3)

	tests := []struct {
		name string
		op   CondOp
		a, b ir.Constant
		want bool
	}{
		{"equal ints", Equals, five, ir.NewInt(5), true},
		{"not equals on equal ints", NotEquals, five, ir.NewInt(5), false},
		{"less than", LessThan, three, seven, true},
		{"more than", MoreThan, three, seven, false},
		{"less or equal on equal", LessThanOrEquals, five, five, true},
		{"more or equal", MoreThanOrEquals, seven, three, true},
		{"string order", LessThan, ir.NewString("abc"), ir.NewString("abd"), true},
		{"string equal", Equals, ir.NewString("x"), ir.NewString("x"), true},
		{"string not equal", NotEquals, ir.NewString("x"), ir.NewString("X"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op.Evaluate(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCondOpEvaluateKindMismatch(t *testing.T) {
	for _, op := range []CondOp{LessThan, LessThanOrEquals, Equals, MoreThan, MoreThanOrEquals, NotEquals} {
		t.Run(op.String(), func(t *testing.T) {
			_, err := op.Evaluate(ir.NewInt(1), ir.NewString("1"))
			require.Error(t, err)
			assert.True(t, ir.IsEvaluationError(err))
		})
	}
}

func TestCondOpEvaluateUnknownOperator(t *testing.T) {
	_, err := CondOp(0).Evaluate(ir.NewInt(1), ir.NewInt(1))
	require.Error(t, err)

	var ee *ir.EvaluationError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ir.ErrCodeUnknownOperator, ee.Code)
}

func TestCondOpEvaluateMissingValue(t *testing.T) {
	_, err := Equals.Evaluate(nil, ir.NewInt(1))
	assert.True(t, ir.IsEvaluationError(err))
}

func TestParseCondOp(t *testing.T) {
	for _, sym := range []string{"<", "<=", "=", ">", ">=", "<>"} {
		op, err := ParseCondOp(sym)
		require.NoError(t, err)
		assert.Equal(t, sym, op.String())
	}

	_, err := ParseCondOp("!=")
	assert.True(t, ir.IsEvaluationError(err))
}

func TestCondOpReverse(t *testing.T) {
	assert.Equal(t, MoreThan, LessThan.Reverse())
	assert.Equal(t, LessThanOrEquals, MoreThanOrEquals.Reverse())
	assert.Equal(t, Equals, Equals.Reverse())
	assert.Equal(t, NotEquals, NotEquals.Reverse())

	// Reverse preserves truth with swapped operands
	a, b := ir.NewInt(2), ir.NewInt(9)
	for _, op := range []CondOp{LessThan, LessThanOrEquals, Equals, MoreThan, MoreThanOrEquals, NotEquals} {
		fwd, err := op.Evaluate(a, b)
		require.NoError(t, err)
		rev, err := op.Reverse().Evaluate(b, a)
		require.NoError(t, err)
		assert.Equal(t, fwd, rev, op.String())
	}
}
