package figread

import "github.com/oderaine/figread/kiwi"

// The decoded payload is a dynamic kiwi.Value tree with no compile-time
// field types, so every field pull below defensively type-asserts and
// falls back to a caller-supplied zero rather than panicking on a
// document that omits or mistypes a field.

func recordField(r kiwi.Record, name string) (kiwi.Record, bool) {
	v, ok := r.Get(name)
	if !ok {
		return kiwi.Record{}, false
	}
	sub, ok := v.(kiwi.Record)
	return sub, ok
}

func firstSequence(r kiwi.Record, names ...string) kiwi.Sequence {
	for _, name := range names {
		if v, ok := r.Get(name); ok {
			if seq, ok := v.(kiwi.Sequence); ok {
				return seq
			}
		}
	}
	return nil
}

func intField(r kiwi.Record, name string) (int, bool) {
	v, ok := r.Get(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case kiwi.Int:
		return int(n), true
	case kiwi.Uint:
		return int(n), true
	}
	return 0, false
}

func str(r kiwi.Record, name string) string {
	v, ok := r.Get(name)
	if !ok {
		return ""
	}
	return strValue(v)
}

func strOr(r kiwi.Record, name, def string) string {
	if v, ok := r.Get(name); ok {
		if s, ok := v.(kiwi.Str); ok {
			return string(s)
		}
	}
	return def
}

func boolOr(r kiwi.Record, name string, def bool) bool {
	if v, ok := r.Get(name); ok {
		return boolValue(v)
	}
	return def
}

func floatOr(r kiwi.Record, name string, def float64) float64 {
	if v, ok := r.Get(name); ok {
		return floatValue(v)
	}
	return def
}

func uintOr(r kiwi.Record, name string, def uint64) uint64 {
	v, ok := r.Get(name)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case kiwi.Uint:
		return uint64(n)
	case kiwi.Int:
		return uint64(n)
	default:
		return def
	}
}

func bytesOr(r kiwi.Record, name string) []byte {
	v, ok := r.Get(name)
	if !ok {
		return nil
	}
	return bytesValue(v)
}

func strValue(v kiwi.Value) string {
	if s, ok := v.(kiwi.Str); ok {
		return string(s)
	}
	return ""
}

func boolValue(v kiwi.Value) bool {
	if b, ok := v.(kiwi.Bool); ok {
		return bool(b)
	}
	return false
}

func floatValue(v kiwi.Value) float64 {
	switch n := v.(type) {
	case kiwi.Float:
		return float64(n)
	case kiwi.Int:
		return float64(n)
	case kiwi.Uint:
		return float64(n)
	default:
		return 0
	}
}

func bytesValue(v kiwi.Value) []byte {
	if b, ok := v.(kiwi.Bytes); ok {
		return []byte(b)
	}
	return nil
}
