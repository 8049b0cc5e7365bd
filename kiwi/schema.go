package kiwi

import (
	"fmt"

	"github.com/oderaine/figread/ferrors"
)

// Kind discriminates the three definition kinds a schema can declare.
type Kind uint8

const (
	KindEnum Kind = iota
	KindStruct
	KindMessage
)

// TypeCode is a field's encoded type: negative values select one of the
// primitive families below, non-negative values index into the schema's
// definition list (a reference to another ENUM/STRUCT/MESSAGE).
type TypeCode int32

const (
	TypeBool TypeCode = -1 - iota
	TypeByte
	TypeInt
	TypeUint
	TypeFloat
	TypeString
	TypeInt64
	TypeUint64
	TypeBytes
)

func (t TypeCode) isPrimitive() bool { return t < 0 }

// Field is one member of a STRUCT or MESSAGE definition.
type Field struct {
	Name  string
	Tag   uint32 // meaningful only for MESSAGE fields; 0 for STRUCT
	Type  TypeCode
	Array bool
}

// Definition is one ENUM/STRUCT/MESSAGE entry of the schema's ordered
// definition list.
type Definition struct {
	Name   string
	Kind   Kind
	Fields []Field
	// Values holds enum member name -> ordinal, populated only for KindEnum.
	Values map[string]int32
}

// Schema is the ordered list of type definitions decoded from the
// embedded binary schema block.
type Schema struct {
	Definitions []Definition
	byName      map[string]int
}

// ByName looks up a definition's index by name.
func (s *Schema) ByName(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// RootName picks the schema's single root message by the fixed priority
// "Message" > "Document" > "Fig" > "Root", falling back to the first
// MESSAGE definition found.
func (s *Schema) RootName() (string, error) {
	for _, candidate := range []string{"Message", "Document", "Fig", "Root"} {
		if i, ok := s.byName[candidate]; ok && s.Definitions[i].Kind == KindMessage {
			return candidate, nil
		}
	}
	for _, d := range s.Definitions {
		if d.Kind == KindMessage {
			return d.Name, nil
		}
	}
	return "", ferrors.NewError(ferrors.SchemaMismatch, fmt.Errorf("kiwi: schema declares no MESSAGE definition"))
}

// DecodeSchema parses the binary schema format: a varint-prefixed count of
// definition records, each (name, kind, field-count, fields...).
func DecodeSchema(raw []byte) (*Schema, error) {
	c := newCursor(raw)
	count, err := c.varint()
	if err != nil {
		return nil, err
	}
	s := &Schema{byName: make(map[string]int, count)}
	for i := uint64(0); i < count; i++ {
		def, err := decodeDefinition(c)
		if err != nil {
			return nil, err
		}
		s.byName[def.Name] = len(s.Definitions)
		s.Definitions = append(s.Definitions, def)
	}
	return s, nil
}

func decodeDefinition(c *cursor) (Definition, error) {
	name, err := c.lengthPrefixedString()
	if err != nil {
		return Definition{}, err
	}
	kindByte, err := c.byte()
	if err != nil {
		return Definition{}, err
	}
	if kindByte > byte(KindMessage) {
		return Definition{}, c.corrupt("unknown definition kind %d for %q", kindByte, name)
	}
	kind := Kind(kindByte)

	fieldCount, err := c.varint()
	if err != nil {
		return Definition{}, err
	}

	def := Definition{Name: name, Kind: kind}
	if kind == KindEnum {
		def.Values = make(map[string]int32, fieldCount)
	}
	for i := uint64(0); i < fieldCount; i++ {
		fname, err := c.lengthPrefixedString()
		if err != nil {
			return Definition{}, err
		}
		tag, err := c.varint()
		if err != nil {
			return Definition{}, err
		}
		typeCode, err := c.svarint()
		if err != nil {
			return Definition{}, err
		}
		arrayFlag, err := c.boolField()
		if err != nil {
			return Definition{}, err
		}
		if kind == KindEnum {
			def.Values[fname] = int32(tag)
			continue
		}
		def.Fields = append(def.Fields, Field{Name: fname, Tag: uint32(tag), Type: TypeCode(typeCode), Array: arrayFlag})
	}
	return def, nil
}
