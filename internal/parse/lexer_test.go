package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minirel/internal/query"
)

func tokens(t *testing.T, input string) []Token {
	t.Helper()
	l := NewLexer(input)
	var out []Token
	for !l.MatchEOF() && l.Current().Kind != TokInvalid {
		out = append(out, l.Current())
		l.advance()
	}
	return out
}

func TestLexerTokenKinds(t *testing.T) {
	toks := tokens(t, `SELECT Name, count(x) FROM t WHERE a <= -12 AND b <> 'It''s' using BTREE`)

	kinds := make([]TokenKind, len(toks))
	texts := make([]string, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
		texts[i] = tok.Text
	}

	assert.Equal(t, []TokenKind{
		TokKeyword, TokIdent, TokDelim, TokAggregate, TokDelim, TokIdent, TokDelim,
		TokKeyword, TokIdent, TokKeyword, TokIdent, TokOp, TokInt, TokKeyword,
		TokIdent, TokOp, TokString, TokKeyword, TokIndexType,
	}, kinds)
	assert.Equal(t, []string{
		"select", "name", ",", "count", "(", "x", ")",
		"from", "t", "where", "a", "<=", "-12", "and",
		"b", "<>", "It's", "using", "btree",
	}, texts)
}

func TestLexerIdentifiersLowerCased(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"StudentID", "studentid"},
		{"Straße", "straße"},
		{"ÉCOLE", "école"},
		{"GRAD_YEAR2", "grad_year2"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id, err := NewLexer(tt.input).EatID()
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestLexerPositions(t *testing.T) {
	toks := tokens(t, "select  a")
	require.Len(t, toks, 2)
	assert.Equal(t, 0, toks[0].Pos)
	assert.Equal(t, 8, toks[1].Pos)
}

func TestLexerStringsAreVerbatim(t *testing.T) {
	l := NewLexer(`"MiXeD 'case'"`)
	s, err := l.EatStringConstant()
	require.NoError(t, err)
	assert.Equal(t, "MiXeD 'case'", s)
	assert.True(t, l.MatchEOF())
}

func TestLexerMatchNeverConsumes(t *testing.T) {
	l := NewLexer("from")
	assert.False(t, l.MatchID())
	assert.False(t, l.MatchKeyword("select"))
	assert.True(t, l.MatchKeyword("from"))
	assert.True(t, l.MatchKeyword("from"))
	require.NoError(t, l.EatKeyword("from"))
	assert.True(t, l.MatchEOF())
}

func TestLexerEatErrors(t *testing.T) {
	l := NewLexer("sname")

	err := l.EatKeyword("select")
	require.Error(t, err)

	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 0, se.Pos)
	assert.Equal(t, "sname", se.Token)
	assert.Equal(t, `"select"`, se.Expected)

	_, err = l.EatIntConstant()
	assert.True(t, IsSyntaxError(err))

	// The failed eats did not consume the identifier.
	id, err := l.EatID()
	require.NoError(t, err)
	assert.Equal(t, "sname", id)

	_, err = l.EatID()
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "", se.Token)
	assert.Contains(t, se.Error(), "end of input")
}

func TestLexerInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unterminated string", "'abc", "unterminated string"},
		{"bad character", "a ! b", "unexpected character"},
		{"lone minus", "- 3", "unexpected character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLexer(tt.input)
			var err error
			for err == nil && !l.MatchEOF() {
				if l.MatchID() {
					_, err = l.EatID()
					continue
				}
				_, err = l.EatIntConstant()
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLexerIntegerOverflow(t *testing.T) {
	_, err := NewLexer("99999999999999999999").EatIntConstant()
	assert.True(t, IsSyntaxError(err))
}

func TestLexerCondOps(t *testing.T) {
	l := NewLexer("< <= = > >= <>")
	var ops []query.CondOp
	for !l.MatchEOF() {
		op, err := l.EatCondOp()
		require.NoError(t, err)
		ops = append(ops, op)
	}
	assert.Equal(t, []query.CondOp{
		query.LessThan, query.LessThanOrEquals, query.Equals,
		query.MoreThan, query.MoreThanOrEquals, query.NotEquals,
	}, ops)
}

func TestLexerIndexType(t *testing.T) {
	l := NewLexer("HASH btree")
	typ, err := l.EatIndexType()
	require.NoError(t, err)
	assert.Equal(t, IndexHash, typ)
	typ, err = l.EatIndexType()
	require.NoError(t, err)
	assert.Equal(t, IndexBTree, typ)
}
