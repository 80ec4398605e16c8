package parse

import (
	"github.com/roach88/minirel/internal/ir"
	"github.com/roach88/minirel/internal/materialize"
	"github.com/roach88/minirel/internal/query"
	"github.com/roach88/minirel/internal/record"
)

// Parser builds commands from a Lexer with one token of lookahead.
type Parser struct {
	lex *Lexer
}

// NewParser creates a parser over statement.
func NewParser(statement string) *Parser {
	return &Parser{lex: NewLexer(statement)}
}

// Parse parses exactly one statement. Trailing tokens are an error.
func Parse(statement string) (Command, error) {
	p := NewParser(statement)
	cmd, err := p.Statement()
	if err != nil {
		return nil, err
	}
	if err := p.lex.EatEOF(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// ParseScript parses statements separated by semicolons. Empty
// statements are skipped.
func ParseScript(script string) ([]Command, error) {
	p := NewParser(script)
	var cmds []Command
	for {
		for p.lex.MatchDelim(';') {
			_ = p.lex.EatDelim(';')
		}
		if p.lex.MatchEOF() {
			return cmds, nil
		}
		cmd, err := p.Statement()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
		if !p.lex.MatchEOF() {
			if err := p.lex.EatDelim(';'); err != nil {
				return nil, err
			}
		}
	}
}

// Statement parses a select, a setting, or an update command.
func (p *Parser) Statement() (Command, error) {
	switch {
	case p.lex.MatchKeyword("select"):
		return p.Query()
	case p.lex.MatchKeyword("setting"):
		return p.Setting()
	default:
		return p.UpdateCmd()
	}
}

// Field parses a field name.
func (p *Parser) Field() (string, error) {
	return p.lex.EatID()
}

// Constant parses an integer or string literal.
func (p *Parser) Constant() (ir.Constant, error) {
	if p.lex.MatchStringConstant() {
		s, err := p.lex.EatStringConstant()
		if err != nil {
			return nil, err
		}
		return ir.NewString(s), nil
	}
	if !p.lex.MatchIntConstant() {
		return nil, p.lex.expected("constant")
	}
	n, err := p.lex.EatIntConstant()
	if err != nil {
		return nil, err
	}
	return ir.NewInt(n), nil
}

// Expression parses a field reference or a constant.
func (p *Parser) Expression() (query.Expression, error) {
	if p.lex.MatchID() {
		f, err := p.Field()
		if err != nil {
			return query.Expression{}, err
		}
		return query.FieldExpr(f), nil
	}
	if !p.lex.MatchIntConstant() && !p.lex.MatchStringConstant() {
		return query.Expression{}, p.lex.expected("field or constant")
	}
	c, err := p.Constant()
	if err != nil {
		return query.Expression{}, err
	}
	return query.ConstExpr(c), nil
}

// Term parses "<expr> <op> <expr>".
func (p *Parser) Term() (query.Term, error) {
	lhs, err := p.Expression()
	if err != nil {
		return query.Term{}, err
	}
	op, err := p.lex.EatCondOp()
	if err != nil {
		return query.Term{}, err
	}
	rhs, err := p.Expression()
	if err != nil {
		return query.Term{}, err
	}
	return query.NewTerm(lhs, op, rhs), nil
}

// Predicate parses one or more terms joined by "and".
func (p *Parser) Predicate() (*query.Predicate, error) {
	pred := query.NewPredicate()
	for {
		t, err := p.Term()
		if err != nil {
			return nil, err
		}
		pred.ConjoinWith(query.NewPredicate(t))
		if !p.lex.MatchKeyword("and") {
			return pred, nil
		}
		if err := p.lex.EatKeyword("and"); err != nil {
			return nil, err
		}
	}
}

// optionalWhere parses "where <predicate>" if present.
func (p *Parser) optionalWhere() (*query.Predicate, error) {
	if !p.lex.MatchKeyword("where") {
		return query.NewPredicate(), nil
	}
	if err := p.lex.EatKeyword("where"); err != nil {
		return nil, err
	}
	return p.Predicate()
}

// commaList parses item {, item}.
func commaList[T any](p *Parser, item func() (T, error)) ([]T, error) {
	var out []T
	for {
		v, err := item()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if !p.lex.MatchDelim(',') {
			return out, nil
		}
		if err := p.lex.EatDelim(','); err != nil {
			return nil, err
		}
	}
}

// Query parses a select statement.
func (p *Parser) Query() (*QueryData, error) {
	if err := p.lex.EatKeyword("select"); err != nil {
		return nil, err
	}
	qd := &QueryData{}
	if p.lex.MatchKeyword("distinct") {
		if err := p.lex.EatKeyword("distinct"); err != nil {
			return nil, err
		}
		qd.Distinct = true
	}

	var err error
	if qd.Projections, err = commaList(p, p.projection); err != nil {
		return nil, err
	}
	if err := p.lex.EatKeyword("from"); err != nil {
		return nil, err
	}
	if qd.Tables, err = commaList(p, p.lex.EatID); err != nil {
		return nil, err
	}
	if qd.Pred, err = p.optionalWhere(); err != nil {
		return nil, err
	}

	if p.lex.MatchKeyword("order") {
		if err := p.eatKeywords("order", "by"); err != nil {
			return nil, err
		}
		if _, err := commaList(p, func() (struct{}, error) {
			f, err := p.Field()
			if err != nil {
				return struct{}{}, err
			}
			desc, err := p.direction()
			if err != nil {
				return struct{}{}, err
			}
			qd.setOrder(f, desc)
			return struct{}{}, nil
		}); err != nil {
			return nil, err
		}
	}

	if p.lex.MatchKeyword("group") {
		if err := p.eatKeywords("group", "by"); err != nil {
			return nil, err
		}
		if qd.GroupBy, err = commaList(p, p.Field); err != nil {
			return nil, err
		}
	}
	return qd, nil
}

func (p *Parser) projection() (Projection, error) {
	if !p.lex.MatchAggregate() {
		f, err := p.Field()
		return Projection{Field: f}, err
	}
	name, err := p.lex.EatAggregate()
	if err != nil {
		return Projection{}, err
	}
	if err := p.lex.EatDelim('('); err != nil {
		return Projection{}, err
	}
	f, err := p.Field()
	if err != nil {
		return Projection{}, err
	}
	if err := p.lex.EatDelim(')'); err != nil {
		return Projection{}, err
	}
	fn, err := materialize.NewAggregationFn(name, f)
	if err != nil {
		return Projection{}, err
	}
	return Projection{Field: f, Aggregate: fn}, nil
}

// direction parses an optional asc/desc and reports whether it was desc.
func (p *Parser) direction() (bool, error) {
	switch {
	case p.lex.MatchKeyword("asc"):
		return false, p.lex.EatKeyword("asc")
	case p.lex.MatchKeyword("desc"):
		return true, p.lex.EatKeyword("desc")
	default:
		return false, nil
	}
}

func (p *Parser) eatKeywords(words ...string) error {
	for _, w := range words {
		if err := p.lex.EatKeyword(w); err != nil {
			return err
		}
	}
	return nil
}

// Setting parses "setting '<mode>'".
func (p *Parser) Setting() (*SettingData, error) {
	if err := p.lex.EatKeyword("setting"); err != nil {
		return nil, err
	}
	mode, err := p.lex.EatStringConstant()
	if err != nil {
		return nil, err
	}
	return &SettingData{Mode: mode}, nil
}

// UpdateCmd parses insert, delete, update, or one of the create commands.
func (p *Parser) UpdateCmd() (Command, error) {
	switch {
	case p.lex.MatchKeyword("insert"):
		return p.Insert()
	case p.lex.MatchKeyword("delete"):
		return p.Delete()
	case p.lex.MatchKeyword("update"):
		return p.Modify()
	case p.lex.MatchKeyword("create"):
		return p.create()
	default:
		return nil, p.lex.expected("statement (select, insert, delete, update, create, setting)")
	}
}

func (p *Parser) create() (Command, error) {
	if err := p.lex.EatKeyword("create"); err != nil {
		return nil, err
	}
	switch {
	case p.lex.MatchKeyword("table"):
		return p.CreateTable()
	case p.lex.MatchKeyword("view"):
		return p.CreateView()
	case p.lex.MatchKeyword("index"):
		return p.CreateIndex()
	default:
		return nil, p.lex.expected("table, view or index")
	}
}

// Delete parses "delete from <table> [where <predicate>]".
func (p *Parser) Delete() (*DeleteData, error) {
	if err := p.eatKeywords("delete", "from"); err != nil {
		return nil, err
	}
	table, err := p.lex.EatID()
	if err != nil {
		return nil, err
	}
	pred, err := p.optionalWhere()
	if err != nil {
		return nil, err
	}
	return &DeleteData{Table: table, Pred: pred}, nil
}

// Insert parses "insert into <table> (<fields>) values (<constants>)".
func (p *Parser) Insert() (*InsertData, error) {
	if err := p.eatKeywords("insert", "into"); err != nil {
		return nil, err
	}
	d := &InsertData{}
	var err error
	if d.Table, err = p.lex.EatID(); err != nil {
		return nil, err
	}
	if err := p.lex.EatDelim('('); err != nil {
		return nil, err
	}
	if d.Fields, err = commaList(p, p.Field); err != nil {
		return nil, err
	}
	if err := p.lex.EatDelim(')'); err != nil {
		return nil, err
	}
	if err := p.lex.EatKeyword("values"); err != nil {
		return nil, err
	}
	if err := p.lex.EatDelim('('); err != nil {
		return nil, err
	}
	if d.Values, err = commaList(p, p.Constant); err != nil {
		return nil, err
	}
	if err := p.lex.EatDelim(')'); err != nil {
		return nil, err
	}
	return d, nil
}

// Modify parses "update <table> set <field> = <expr> [where <predicate>]".
func (p *Parser) Modify() (*ModifyData, error) {
	if err := p.lex.EatKeyword("update"); err != nil {
		return nil, err
	}
	d := &ModifyData{}
	var err error
	if d.Table, err = p.lex.EatID(); err != nil {
		return nil, err
	}
	if err := p.lex.EatKeyword("set"); err != nil {
		return nil, err
	}
	if d.Field, err = p.Field(); err != nil {
		return nil, err
	}
	if err := p.lex.EatDelim('='); err != nil {
		return nil, err
	}
	if d.NewValue, err = p.Expression(); err != nil {
		return nil, err
	}
	if d.Pred, err = p.optionalWhere(); err != nil {
		return nil, err
	}
	return d, nil
}

// CreateTable parses "table <name> (<field defs>)"; the leading create
// has already been consumed.
func (p *Parser) CreateTable() (*CreateTableData, error) {
	if err := p.lex.EatKeyword("table"); err != nil {
		return nil, err
	}
	table, err := p.lex.EatID()
	if err != nil {
		return nil, err
	}
	if err := p.lex.EatDelim('('); err != nil {
		return nil, err
	}
	sch := record.NewSchema()
	if _, err := commaList(p, func() (struct{}, error) {
		return struct{}{}, p.fieldDef(sch)
	}); err != nil {
		return nil, err
	}
	if err := p.lex.EatDelim(')'); err != nil {
		return nil, err
	}
	return &CreateTableData{Table: table, Schema: sch}, nil
}

func (p *Parser) fieldDef(sch *record.Schema) error {
	f, err := p.Field()
	if err != nil {
		return err
	}
	if p.lex.MatchKeyword("int") {
		sch.AddIntField(f)
		return p.lex.EatKeyword("int")
	}
	if !p.lex.MatchKeyword("varchar") {
		return p.lex.expected("field type (int, varchar)")
	}
	if err := p.lex.EatKeyword("varchar"); err != nil {
		return err
	}
	if err := p.lex.EatDelim('('); err != nil {
		return err
	}
	pos := p.lex.Current()
	n, err := p.lex.EatIntConstant()
	if err != nil {
		return err
	}
	if n <= 0 {
		return &SyntaxError{Pos: pos.Pos, Token: pos.Raw, Expected: "positive varchar length"}
	}
	sch.AddStringField(f, int(n))
	return p.lex.EatDelim(')')
}

// CreateView parses "view <name> as <select>"; the leading create has
// already been consumed.
func (p *Parser) CreateView() (*CreateViewData, error) {
	if err := p.lex.EatKeyword("view"); err != nil {
		return nil, err
	}
	view, err := p.lex.EatID()
	if err != nil {
		return nil, err
	}
	if err := p.lex.EatKeyword("as"); err != nil {
		return nil, err
	}
	qd, err := p.Query()
	if err != nil {
		return nil, err
	}
	return &CreateViewData{View: view, Query: qd}, nil
}

// CreateIndex parses "index <name> on <table> (<field>) using <type>";
// the leading create has already been consumed.
func (p *Parser) CreateIndex() (*CreateIndexData, error) {
	if err := p.lex.EatKeyword("index"); err != nil {
		return nil, err
	}
	d := &CreateIndexData{}
	var err error
	if d.Index, err = p.lex.EatID(); err != nil {
		return nil, err
	}
	if err := p.lex.EatKeyword("on"); err != nil {
		return nil, err
	}
	if d.Table, err = p.lex.EatID(); err != nil {
		return nil, err
	}
	if err := p.lex.EatDelim('('); err != nil {
		return nil, err
	}
	if d.Field, err = p.Field(); err != nil {
		return nil, err
	}
	if err := p.lex.EatDelim(')'); err != nil {
		return nil, err
	}
	if err := p.lex.EatKeyword("using"); err != nil {
		return nil, err
	}
	if d.Type, err = p.lex.EatIndexType(); err != nil {
		return nil, err
	}
	return d, nil
}
