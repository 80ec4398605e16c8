package parse

// TokenKind classifies a token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokInvalid
	TokKeyword
	TokAggregate
	TokIndexType
	TokIdent
	TokInt
	TokString
	TokDelim
	TokOp
)

var tokenKindNames = map[TokenKind]string{
	TokEOF:       "end of input",
	TokInvalid:   "invalid token",
	TokKeyword:   "keyword",
	TokAggregate: "aggregate",
	TokIndexType: "index type",
	TokIdent:     "identifier",
	TokInt:       "integer",
	TokString:    "string",
	TokDelim:     "delimiter",
	TokOp:        "operator",
}

func (k TokenKind) String() string {
	return tokenKindNames[k]
}

// Token is one lexical unit.
type Token struct {
	Kind TokenKind
	Text string // folded for keywords and identifiers, unquoted for strings
	Raw  string // source text
	Pos  int    // byte offset in the input
}

var keywords = map[string]bool{
	"select": true, "from": true, "where": true, "and": true,
	"order": true, "by": true, "asc": true, "desc": true, "group": true,
	"insert": true, "into": true, "values": true, "delete": true,
	"update": true, "set": true, "create": true, "table": true,
	"varchar": true, "int": true, "view": true, "as": true, "index": true,
	"on": true, "using": true, "distinct": true, "setting": true,
}

var aggregates = map[string]bool{
	"avg": true, "count": true, "max": true, "min": true, "sum": true,
}

// IndexType names the index structure of create index.
type IndexType int

const (
	IndexHash IndexType = iota + 1
	IndexBTree
)

var indexTypes = map[string]IndexType{
	"hash":  IndexHash,
	"btree": IndexBTree,
}

func (t IndexType) String() string {
	switch t {
	case IndexHash:
		return "hash"
	case IndexBTree:
		return "btree"
	default:
		return "unknown"
	}
}
