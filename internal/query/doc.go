// Package query implements the predicate algebra used for row filtering
// and plan decisions, together with the cursor interfaces it evaluates
// against.
//
// The algebra is built from four value types:
//   - Expression: a field reference or a constant
//   - CondOp: one of the six comparison operators
//   - Term: a single comparison between two expressions
//   - Predicate: an ordered conjunction of terms (empty means true)
//
// All four are immutable once built, except that a Predicate may be
// extended with ConjoinWith. Functions that "find nothing" return a nil
// result or false, never an error.
package query
