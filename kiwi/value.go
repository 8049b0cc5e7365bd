package kiwi

// Value is the polymorphic decoded tree: a primitive, a byte array, an
// ordered sequence, or a string-keyed record. Downstream stages (scene
// tree building) pattern-match on the concrete Go type rather than
// consulting an open-ended untyped map, keeping "missing field" resolving
// to the type's natural zero value instead of a sentinel.
type Value interface{ isValue() }

// Bool, Int, Uint, Float, Str are the decoded primitive leaves.
type Bool bool
type Int int64
type Uint uint64
type Float float32
type Str string

// Bytes is a decoded raw byte array (the `bytes` primitive family).
type Bytes []byte

// Sequence is a decoded array field's element list.
type Sequence []Value

// Record is a decoded STRUCT or MESSAGE value, keyed by field name.
type Record struct {
	TypeName string
	Fields   map[string]Value
}

func (Bool) isValue()     {}
func (Int) isValue()      {}
func (Uint) isValue()     {}
func (Float) isValue()    {}
func (Str) isValue()      {}
func (Bytes) isValue()    {}
func (Sequence) isValue() {}
func (Record) isValue()   {}

// Get returns the named field and whether the record holds it; an absent
// field yields (nil, false) and the caller applies its own default.
func (r Record) Get(name string) (Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// ZeroValue returns the default value for a field's encoded type: 0 for
// numeric primitives, false, empty string, empty bytes, an empty Record of
// the right type name for references, and an empty Sequence for arrays.
func ZeroValue(t TypeCode, arrayed bool, refName string) Value {
	if arrayed {
		return Sequence(nil)
	}
	switch t {
	case TypeBool:
		return Bool(false)
	case TypeByte, TypeInt, TypeInt64:
		return Int(0)
	case TypeUint, TypeUint64:
		return Uint(0)
	case TypeFloat:
		return Float(0)
	case TypeString:
		return Str("")
	case TypeBytes:
		return Bytes(nil)
	default:
		return Record{TypeName: refName, Fields: map[string]Value{}}
	}
}
