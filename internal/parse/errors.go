package parse

import (
	"errors"
	"fmt"
)

// SyntaxError reports a token that does not fit the grammar.
type SyntaxError struct {
	// Pos is the byte offset of the offending token.
	Pos int

	// Token is the offending token text; empty at end of input.
	Token string

	// Expected describes what the grammar wanted.
	Expected string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	found := "end of input"
	if e.Token != "" {
		found = fmt.Sprintf("%q", e.Token)
	}
	return fmt.Sprintf("syntax error at position %d: expected %s, found %s", e.Pos, e.Expected, found)
}

// IsSyntaxError returns true if err is or wraps a SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
