package ir

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant a Constant holds.
type Kind int

const (
	// KindInt is an integer constant.
	KindInt Kind = iota
	// KindString is a string constant.
	KindString
)

// String returns the SQL type name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "varchar"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Constant is a sealed interface over the literal values a row can hold.
// Only IntConstant and StringConstant implement it.
type Constant interface {
	constant() // Sealed - only these types implement it

	// Kind reports the variant.
	Kind() Kind

	// Equal reports whether both constants have the same kind and value.
	// Constants of different kinds are never equal.
	Equal(other Constant) bool

	// Compare orders two constants of the same kind.
	// Returns an *EvaluationError when the kinds differ.
	Compare(other Constant) (int, error)

	// String renders the constant as a SQL literal.
	String() string
}

// IntConstant is an integer value. Always int64.
type IntConstant int64

func (IntConstant) constant() {}

// Kind implements Constant.
func (IntConstant) Kind() Kind { return KindInt }

// Equal implements Constant.
func (c IntConstant) Equal(other Constant) bool {
	o, ok := other.(IntConstant)
	return ok && o == c
}

// Compare implements Constant.
func (c IntConstant) Compare(other Constant) (int, error) {
	o, ok := other.(IntConstant)
	if !ok {
		return 0, newKindMismatch(c, other)
	}
	return cmp.Compare(c, o), nil
}

// String implements Constant.
func (c IntConstant) String() string {
	return strconv.FormatInt(int64(c), 10)
}

// StringConstant is a string value. Content is kept verbatim.
type StringConstant string

func (StringConstant) constant() {}

// Kind implements Constant.
func (StringConstant) Kind() Kind { return KindString }

// Equal implements Constant.
func (c StringConstant) Equal(other Constant) bool {
	o, ok := other.(StringConstant)
	return ok && o == c
}

// Compare implements Constant.
func (c StringConstant) Compare(other Constant) (int, error) {
	o, ok := other.(StringConstant)
	if !ok {
		return 0, newKindMismatch(c, other)
	}
	return strings.Compare(string(c), string(o)), nil
}

// String renders the value as a single-quoted literal with quotes doubled.
func (c StringConstant) String() string {
	return "'" + strings.ReplaceAll(string(c), "'", "''") + "'"
}

// NewInt creates an IntConstant.
func NewInt(n int64) IntConstant {
	return IntConstant(n)
}

// NewString creates a StringConstant.
func NewString(s string) StringConstant {
	return StringConstant(s)
}

// ConstantEqual compares two possibly-nil constants.
// A nil constant equals nothing, not even another nil.
func ConstantEqual(a, b Constant) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Equal(b)
}

// ToNative converts a constant to the Go value used for SQL parameters
// and JSON output.
func ToNative(c Constant) any {
	switch v := c.(type) {
	case IntConstant:
		return int64(v)
	case StringConstant:
		return string(v)
	default:
		return nil
	}
}

// FromNative converts a database/sql or YAML value to a Constant.
func FromNative(v any) (Constant, error) {
	switch val := v.(type) {
	case int64:
		return IntConstant(val), nil
	case int:
		return IntConstant(int64(val)), nil
	case int32:
		return IntConstant(int64(val)), nil
	case string:
		return StringConstant(val), nil
	case []byte:
		return StringConstant(string(val)), nil
	case IntConstant:
		return val, nil
	case StringConstant:
		return val, nil
	case nil:
		return nil, fmt.Errorf("null values are not supported")
	case float64, float32:
		return nil, fmt.Errorf("float values are not supported: %v", val)
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}
