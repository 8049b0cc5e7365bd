package kiwi

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buf is a tiny builder mirroring the binary schema/payload wire format,
// used to hand-construct fixtures without a real archive.
type buf struct{ b bytes.Buffer }

func (w *buf) varint(v uint64) *buf {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.b.WriteByte(b)
		if v == 0 {
			break
		}
	}
	return w
}

func (w *buf) svarint(v int64) *buf {
	u := uint64(v<<1) ^ uint64(v>>63)
	return w.varint(u)
}

func (w *buf) str(s string) *buf {
	w.varint(uint64(len(s)))
	w.b.WriteString(s)
	return w
}

func (w *buf) byteVal(b byte) *buf { w.b.WriteByte(b); return w }

func (w *buf) f32(f float32) *buf {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(f))
	w.b.Write(tmp[:])
	return w
}

func (w *buf) bytesVal() []byte { return w.b.Bytes() }

// schemaWithOneMessage builds: Message { name: string tag=1, count: uint tag=2 }
func schemaWithOneMessage() []byte {
	w := &buf{}
	w.varint(1) // 1 definition
	w.str("Message").byteVal(byte(KindMessage))
	w.varint(2) // 2 fields
	w.str("name").varint(1).svarint(int64(TypeString)).byteVal(0)
	w.str("count").varint(2).svarint(int64(TypeUint)).byteVal(0)
	return w.bytesVal()
}

func TestDecodeSchemaAndCompileRoundTrip(t *testing.T) {
	s, err := DecodeSchema(schemaWithOneMessage())
	require.NoError(t, err)
	require.Len(t, s.Definitions, 1)
	assert.Equal(t, "Message", s.Definitions[0].Name)
	assert.Equal(t, KindMessage, s.Definitions[0].Kind)

	root, err := s.RootName()
	require.NoError(t, err)
	assert.Equal(t, "Message", root)

	comp, err := s.Compile()
	require.NoError(t, err)

	payload := &buf{}
	payload.varint(1).str("hello")
	payload.varint(2).varint(42)
	payload.varint(0) // terminator

	v, err := comp.Decode("Message", payload.bytesVal())
	require.NoError(t, err)
	rec, ok := v.(Record)
	require.True(t, ok)
	assert.Equal(t, Str("hello"), rec.Fields["name"])
	assert.Equal(t, Uint(42), rec.Fields["count"])
}

func TestDecodeMessageMissingFieldDefaultsToZero(t *testing.T) {
	s, err := DecodeSchema(schemaWithOneMessage())
	require.NoError(t, err)
	comp, err := s.Compile()
	require.NoError(t, err)

	payload := &buf{}
	payload.varint(1).str("only-name")
	payload.varint(0)

	v, err := comp.Decode("Message", payload.bytesVal())
	require.NoError(t, err)
	rec := v.(Record)
	assert.Equal(t, Uint(0), rec.Fields["count"])
}

func TestDecodeUnknownTagIsCorrupt(t *testing.T) {
	s, err := DecodeSchema(schemaWithOneMessage())
	require.NoError(t, err)
	comp, err := s.Compile()
	require.NoError(t, err)

	payload := &buf{}
	payload.varint(99) // unknown tag
	_, err = comp.Decode("Message", payload.bytesVal())
	require.Error(t, err)
}

func TestCursorOverrunIsCorrupt(t *testing.T) {
	s, err := DecodeSchema(schemaWithOneMessage())
	require.NoError(t, err)
	comp, err := s.Compile()
	require.NoError(t, err)

	payload := &buf{}
	payload.varint(1) // says "string field" but no length/data follows
	_, err = comp.Decode("Message", payload.bytesVal())
	assert.Error(t, err)
}

func TestFloat32FieldRoundTrip(t *testing.T) {
	w := &buf{}
	w.f32(3.5)
	c := newCursor(w.bytesVal())
	f, err := c.float32Field()
	require.NoError(t, err)
	assert.InDelta(t, 3.5, float64(f), 1e-6)
}
