// Package materialize holds the operators that need their input sorted:
// grouping with aggregation functions, and the sort-merge join.
package materialize
