// Package parse turns SQL-subset statements into typed commands.
//
// Grammar (keywords are case-insensitive, identifiers are folded to lower
// case, string literals are kept verbatim):
//
//	select [distinct] <proj> {, <proj>} from <table> {, <table>}
//	    [where <predicate>] [order by <field> [asc|desc] {, ...}]
//	    [group by <field> {, <field>}]
//	insert into <table> (<field> {, <field>}) values (<const> {, <const>})
//	delete from <table> [where <predicate>]
//	update <table> set <field> = <expr> [where <predicate>]
//	create table <table> (<field> int|varchar(<n>) {, ...})
//	create view <view> as <select>
//	create index <index> on <table> (<field>) using hash|btree
//	setting '<mode>'
//
//	<proj>      ::= <field> | avg|count|max|min|sum (<field>)
//	<predicate> ::= <term> {and <term>}
//	<term>      ::= <expr> <|<=|=|>|>=|<> <expr>
//	<expr>      ::= <field> | <const>
//
// Parsing is all-or-nothing: the first mismatch returns a *SyntaxError
// and no command.
package parse
