// Package record describes the shape of rows: field names, types and
// string lengths.
package record

import (
	"fmt"
	"strings"

	"github.com/roach88/minirel/internal/ir"
)

// FieldInfo describes a single field.
type FieldInfo struct {
	Type   ir.Kind
	Length int // declared varchar length; 0 for int fields
}

// Schema is an ordered set of field descriptors.
// The zero value is an empty schema ready to use.
type Schema struct {
	fields []string
	info   map[string]FieldInfo
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{info: make(map[string]FieldInfo)}
}

// Add adds a field. Adding an existing field replaces its descriptor but
// keeps its original position.
func (s *Schema) Add(name string, info FieldInfo) {
	if s.info == nil {
		s.info = make(map[string]FieldInfo)
	}
	if _, ok := s.info[name]; !ok {
		s.fields = append(s.fields, name)
	}
	s.info[name] = info
}

// AddIntField adds an integer field.
func (s *Schema) AddIntField(name string) {
	s.Add(name, FieldInfo{Type: ir.KindInt})
}

// AddStringField adds a varchar field of the given length.
func (s *Schema) AddStringField(name string, length int) {
	s.Add(name, FieldInfo{Type: ir.KindString, Length: length})
}

// AddField copies one field descriptor from another schema.
func (s *Schema) AddField(name string, other *Schema) {
	s.Add(name, other.info[name])
}

// AddAll copies every field of other, in order.
func (s *Schema) AddAll(other *Schema) {
	if other == nil {
		return
	}
	for _, name := range other.fields {
		s.Add(name, other.info[name])
	}
}

// HasField reports whether the schema contains the field.
func (s *Schema) HasField(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.info[name]
	return ok
}

// Fields returns the field names in declaration order.
func (s *Schema) Fields() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Info returns the descriptor of a field.
func (s *Schema) Info(name string) (FieldInfo, bool) {
	if s == nil {
		return FieldInfo{}, false
	}
	info, ok := s.info[name]
	return info, ok
}

// Type returns the type of a field, or KindInt if the field is unknown.
func (s *Schema) Type(name string) ir.Kind {
	info, _ := s.Info(name)
	return info.Type
}

// Length returns the declared varchar length of a field.
func (s *Schema) Length(name string) int {
	info, _ := s.Info(name)
	return info.Length
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Union returns a new schema with the fields of both schemas.
// Fields present in both keep the descriptor from a.
func Union(a, b *Schema) *Schema {
	out := NewSchema()
	out.AddAll(b)
	merged := NewSchema()
	merged.AddAll(a)
	for _, name := range out.fields {
		if !merged.HasField(name) {
			merged.Add(name, out.info[name])
		}
	}
	return merged
}

// FieldDef renders one field the way create table declares it.
func (s *Schema) FieldDef(name string) string {
	info := s.info[name]
	if info.Type == ir.KindString {
		return fmt.Sprintf("%s varchar(%d)", name, info.Length)
	}
	return name + " int"
}

// String renders the schema as a create-table field list.
func (s *Schema) String() string {
	parts := make([]string, 0, len(s.fields))
	for _, name := range s.fields {
		parts = append(parts, s.FieldDef(name))
	}
	return strings.Join(parts, ", ")
}
