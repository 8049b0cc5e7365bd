package kiwi

import (
	"fmt"

	"github.com/oderaine/figread/ferrors"
)

// decoderFunc is a pure decoder over a byte-cursor for one definition.
type decoderFunc func(c *cursor) (Value, error)

// Compiled is the in-memory function table keyed by definition name,
// produced once from a Schema and reused for every payload decode.
type Compiled struct {
	schema   *Schema
	decoders map[string]decoderFunc
}

// Compile produces the decoder function table. STRUCT decoders read
// fields in declaration order; MESSAGE decoders read tags until a
// terminating 0, dispatching by tag; ENUM decoders read a single varint
// ordinal.
func (s *Schema) Compile() (*Compiled, error) {
	comp := &Compiled{schema: s, decoders: make(map[string]decoderFunc, len(s.Definitions))}
	for i := range s.Definitions {
		def := &s.Definitions[i]
		switch def.Kind {
		case KindEnum:
			comp.decoders[def.Name] = comp.enumDecoder(def)
		case KindStruct:
			comp.decoders[def.Name] = comp.structDecoder(def)
		case KindMessage:
			comp.decoders[def.Name] = comp.messageDecoder(def)
		}
	}
	return comp, nil
}

func (comp *Compiled) enumDecoder(def *Definition) decoderFunc {
	return func(c *cursor) (Value, error) {
		ord, err := c.varint()
		if err != nil {
			return nil, err
		}
		return Int(int64(ord)), nil
	}
}

func (comp *Compiled) structDecoder(def *Definition) decoderFunc {
	return func(c *cursor) (Value, error) {
		rec := Record{TypeName: def.Name, Fields: make(map[string]Value, len(def.Fields))}
		for _, f := range def.Fields {
			v, err := comp.decodeField(c, f)
			if err != nil {
				return nil, err
			}
			rec.Fields[f.Name] = v
		}
		return rec, nil
	}
}

func (comp *Compiled) messageDecoder(def *Definition) decoderFunc {
	byTag := make(map[uint32]Field, len(def.Fields))
	for _, f := range def.Fields {
		byTag[f.Tag] = f
	}
	return func(c *cursor) (Value, error) {
		rec := Record{TypeName: def.Name, Fields: make(map[string]Value, len(def.Fields))}
		for {
			tag, err := c.varint()
			if err != nil {
				return nil, err
			}
			if tag == 0 {
				break
			}
			f, ok := byTag[uint32(tag)]
			if !ok {
				if err := comp.skipUnknownTag(c); err != nil {
					return nil, err
				}
				continue
			}
			v, err := comp.decodeField(c, f)
			if err != nil {
				return nil, err
			}
			rec.Fields[f.Name] = v
		}
		// fields never encountered fall back to their zero default
		for _, f := range def.Fields {
			if _, ok := rec.Fields[f.Name]; !ok {
				rec.Fields[f.Name] = ZeroValue(f.Type, f.Array, comp.refName(f.Type))
			}
		}
		return rec, nil
	}
}

func (comp *Compiled) refName(t TypeCode) string {
	if t.isPrimitive() {
		return ""
	}
	idx := int(t)
	if idx < 0 || idx >= len(comp.schema.Definitions) {
		return ""
	}
	return comp.schema.Definitions[idx].Name
}

// decodeField decodes one field's value, honoring the array-flag: array
// fields are preceded by a varint element count.
func (comp *Compiled) decodeField(c *cursor, f Field) (Value, error) {
	if f.Array {
		n, err := c.varint()
		if err != nil {
			return nil, err
		}
		seq := make(Sequence, 0, n)
		for i := uint64(0); i < n; i++ {
			v, err := comp.decodeScalar(c, f.Type)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil
	}
	return comp.decodeScalar(c, f.Type)
}

func (comp *Compiled) decodeScalar(c *cursor, t TypeCode) (Value, error) {
	if !t.isPrimitive() {
		idx := int(t)
		if idx < 0 || idx >= len(comp.schema.Definitions) {
			return nil, ferrors.NewErrorAt(ferrors.SchemaMismatch, int64(c.pos), fmt.Errorf("kiwi: type index %d out of range", idx))
		}
		dec, ok := comp.decoders[comp.schema.Definitions[idx].Name]
		if !ok {
			return nil, ferrors.NewErrorAt(ferrors.SchemaMismatch, int64(c.pos), fmt.Errorf("kiwi: no decoder compiled for %q", comp.schema.Definitions[idx].Name))
		}
		return dec(c)
	}
	switch t {
	case TypeBool:
		b, err := c.boolField()
		return Bool(b), err
	case TypeByte:
		b, err := c.byte()
		return Int(int64(b)), err
	case TypeInt:
		v, err := c.svarint()
		return Int(v), err
	case TypeUint:
		v, err := c.varint()
		return Uint(v), err
	case TypeInt64:
		v, err := c.svarint()
		return Int(v), err
	case TypeUint64:
		v, err := c.varint()
		return Uint(v), err
	case TypeFloat:
		v, err := c.float32Field()
		return Float(v), err
	case TypeString:
		v, err := c.lengthPrefixedString()
		return Str(v), err
	case TypeBytes:
		v, err := c.lengthPrefixedBytes()
		return Bytes(v), err
	default:
		return nil, c.corrupt("unknown primitive type code %d", t)
	}
}

// skipUnknownTag skips a field's encoded bytes when its tag is unknown to
// the compiled definition; the tag's own type is not known either in that
// case, so this always fails Corrupt per the error policy (unknown tag
// with unknown type is not recoverable).
func (comp *Compiled) skipUnknownTag(c *cursor) error {
	return c.corrupt("unknown tag with unknown type: cannot skip")
}

// Decode decodes data against the compiled root definition.
func (comp *Compiled) Decode(rootName string, data []byte) (Value, error) {
	dec, ok := comp.decoders[rootName]
	if !ok {
		return nil, ferrors.NewError(ferrors.SchemaMismatch, fmt.Errorf("kiwi: no decoder for root %q", rootName))
	}
	c := newCursor(data)
	v, err := dec(c)
	if err != nil {
		return nil, err
	}
	if c.remaining() != 0 {
		// trailing bytes after a fully-decoded root message are ignored:
		// the top-level document may append thumbnail/asset framing the
		// schema doesn't model.
		_ = c.remaining()
	}
	return v, nil
}
