// Package engine runs minirel statements.
//
// The engine parses a statement, plans it against the store's catalog,
// runs it, and appends it to the statement log. Writes and DDL go straight
// to the store. Queries are planned here:
//
//  1. Each FROM entry is resolved to a stored table or a view. Views are
//     re-parsed from their stored definition and planned recursively.
//  2. The WHERE predicate is type checked against the combined schema.
//     Terms that apply to one table alone are pushed into that table's
//     read (SelectSubPred).
//  3. Tables are joined left-deep in FROM order. In merge mode a pair
//     equated by a field comparison (JoinSubPred, RelationBetweenFields)
//     is sort-merge joined; anything else is a nested loop.
//  4. The remaining terms filter the joined rows, then group-by and
//     aggregates, order-by, distinct and projection are applied.
//
// Statements run one at a time. The join mode is read from config.Config
// when a query is planned, so a setting statement affects later queries
// only.
//
// Explain reports the per-table pushdown, the driving term of each read
// (GetMostConstrainingTerm) and an estimated row count from the store's
// distinct-value statistics (ReductionFactor).
package engine
