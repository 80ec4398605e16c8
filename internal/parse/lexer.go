package parse

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/minirel/internal/query"
)

// Lexer splits a statement into tokens and exposes them one at a time.
//
// Match methods peek at the current token and never fail. Eat methods
// consume the current token, or return a *SyntaxError if it is not what
// the caller expects.
type Lexer struct {
	input string
	pos   int
	tok   Token
	err   string // why tok is TokInvalid
	lower cases.Caser
}

// NewLexer creates a lexer positioned on the first token of input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, lower: cases.Lower(language.Und)}
	l.advance()
	return l
}

// Current returns the token under the cursor.
func (l *Lexer) Current() Token { return l.tok }

// MatchDelim reports whether the current token is the delimiter d.
func (l *Lexer) MatchDelim(d rune) bool {
	return l.tok.Kind == TokDelim && l.tok.Text == string(d)
}

// MatchIntConstant reports whether the current token is an integer.
func (l *Lexer) MatchIntConstant() bool { return l.tok.Kind == TokInt }

// MatchStringConstant reports whether the current token is a string.
func (l *Lexer) MatchStringConstant() bool { return l.tok.Kind == TokString }

// MatchKeyword reports whether the current token is the keyword w.
func (l *Lexer) MatchKeyword(w string) bool {
	return l.tok.Kind == TokKeyword && l.tok.Text == w
}

// MatchID reports whether the current token is an identifier.
func (l *Lexer) MatchID() bool { return l.tok.Kind == TokIdent }

// MatchAggregate reports whether the current token names an aggregate.
func (l *Lexer) MatchAggregate() bool { return l.tok.Kind == TokAggregate }

// MatchIndexType reports whether the current token names an index type.
func (l *Lexer) MatchIndexType() bool { return l.tok.Kind == TokIndexType }

// MatchCondOp reports whether the current token is a comparison operator.
func (l *Lexer) MatchCondOp() bool {
	return l.tok.Kind == TokOp || l.MatchDelim('=')
}

// MatchEOF reports whether the input is exhausted.
func (l *Lexer) MatchEOF() bool { return l.tok.Kind == TokEOF }

// EatDelim consumes the delimiter d.
func (l *Lexer) EatDelim(d rune) error {
	if !l.MatchDelim(d) {
		return l.expected(fmt.Sprintf("%q", string(d)))
	}
	l.advance()
	return nil
}

// EatIntConstant consumes an integer literal.
func (l *Lexer) EatIntConstant() (int64, error) {
	if !l.MatchIntConstant() {
		return 0, l.expected("integer")
	}
	n, err := strconv.ParseInt(l.tok.Text, 10, 64)
	if err != nil {
		return 0, &SyntaxError{Pos: l.tok.Pos, Token: l.tok.Raw, Expected: "integer in 64-bit range"}
	}
	l.advance()
	return n, nil
}

// EatStringConstant consumes a string literal and returns its content.
func (l *Lexer) EatStringConstant() (string, error) {
	if !l.MatchStringConstant() {
		return "", l.expected("string")
	}
	s := l.tok.Text
	l.advance()
	return s, nil
}

// EatKeyword consumes the keyword w.
func (l *Lexer) EatKeyword(w string) error {
	if !l.MatchKeyword(w) {
		return l.expected(fmt.Sprintf("%q", w))
	}
	l.advance()
	return nil
}

// EatID consumes an identifier and returns it in lower case.
func (l *Lexer) EatID() (string, error) {
	if !l.MatchID() {
		return "", l.expected("identifier")
	}
	s := l.tok.Text
	l.advance()
	return s, nil
}

// EatAggregate consumes an aggregate name.
func (l *Lexer) EatAggregate() (string, error) {
	if !l.MatchAggregate() {
		return "", l.expected("aggregate (avg, count, max, min, sum)")
	}
	s := l.tok.Text
	l.advance()
	return s, nil
}

// EatIndexType consumes an index type name.
func (l *Lexer) EatIndexType() (IndexType, error) {
	if !l.MatchIndexType() {
		return 0, l.expected("index type (hash, btree)")
	}
	t := indexTypes[l.tok.Text]
	l.advance()
	return t, nil
}

// EatCondOp consumes a comparison operator.
func (l *Lexer) EatCondOp() (query.CondOp, error) {
	if !l.MatchCondOp() {
		return 0, l.expected("comparison operator")
	}
	op, err := query.ParseCondOp(l.tok.Text)
	if err != nil {
		return 0, &SyntaxError{Pos: l.tok.Pos, Token: l.tok.Raw, Expected: "comparison operator"}
	}
	l.advance()
	return op, nil
}

// EatEOF checks that the input is exhausted.
func (l *Lexer) EatEOF() error {
	if !l.MatchEOF() {
		return l.expected("end of input")
	}
	return nil
}

func (l *Lexer) expected(what string) *SyntaxError {
	if l.tok.Kind == TokInvalid {
		what = fmt.Sprintf("%s (%s)", what, l.err)
	}
	return &SyntaxError{Pos: l.tok.Pos, Token: l.tok.Raw, Expected: what}
}

// advance scans the next token into l.tok. An invalid token stops the
// lexer; it stays current until the parser reports it.
func (l *Lexer) advance() {
	if l.tok.Kind == TokInvalid && l.err != "" {
		return
	}
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		l.pos += size
	}
	start := l.pos
	if start >= len(l.input) {
		l.tok = Token{Kind: TokEOF, Pos: start}
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[start:])
	switch {
	case strings.ContainsRune("(),=;", r):
		l.pos += size
		l.emit(TokDelim, string(r), start)
	case r == '<':
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '=' || l.input[l.pos] == '>') {
			l.pos++
		}
		l.emit(TokOp, l.input[start:l.pos], start)
	case r == '>':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
		}
		l.emit(TokOp, l.input[start:l.pos], start)
	case r == '\'' || r == '"':
		l.scanString(byte(r), start)
	case isDigit(r) || (r == '-' && start+1 < len(l.input) && isDigit(rune(l.input[start+1]))):
		l.pos++
		for l.pos < len(l.input) && isDigit(rune(l.input[l.pos])) {
			l.pos++
		}
		l.emit(TokInt, l.input[start:l.pos], start)
	case unicode.IsLetter(r) || r == '_':
		l.scanWord(start)
	default:
		l.pos += size
		l.invalid(start, fmt.Sprintf("unexpected character %q", r))
	}
}

func (l *Lexer) scanWord(start int) {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.pos += size
	}
	word := l.lower.String(l.input[start:l.pos])
	switch {
	case keywords[word]:
		l.emit(TokKeyword, word, start)
	case aggregates[word]:
		l.emit(TokAggregate, word, start)
	case indexTypes[word] != 0:
		l.emit(TokIndexType, word, start)
	default:
		l.emit(TokIdent, word, start)
	}
}

// scanString reads a quoted literal. A doubled quote stands for one quote
// character; everything else is kept verbatim.
func (l *Lexer) scanString(quote byte, start int) {
	var b strings.Builder
	l.pos++
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == quote {
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == quote {
				b.WriteByte(quote)
				l.pos += 2
				continue
			}
			l.pos++
			l.emit(TokString, b.String(), start)
			return
		}
		b.WriteByte(c)
		l.pos++
	}
	l.invalid(start, "unterminated string")
}

func (l *Lexer) emit(kind TokenKind, text string, start int) {
	l.tok = Token{Kind: kind, Text: text, Raw: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) invalid(start int, reason string) {
	l.tok = Token{Kind: TokInvalid, Raw: l.input[start:l.pos], Pos: start}
	l.err = reason
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
