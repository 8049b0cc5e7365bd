// Package kiwi implements the schema-driven binary decoder: parsing the
// embedded binary schema, compiling it into a decoder function table, and
// decoding a payload against it into a dynamic structured Value.
package kiwi

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/oderaine/figread/ferrors"
)

// cursor is a forward-only byte reader tracking its own offset, so every
// decode error can be reported with the exact byte position it failed at
// per the Corrupt error policy.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor { return &cursor{buf: buf} }

func (c *cursor) remaining() int { return len(c.buf) - c.pos }

func (c *cursor) corrupt(format string, args ...any) error {
	return ferrors.NewErrorAt(ferrors.Corrupt, int64(c.pos), fmt.Errorf(format, args...))
}

func (c *cursor) byte() (byte, error) {
	if c.remaining() < 1 {
		return 0, c.corrupt("cursor overrun reading 1 byte")
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) bytesN(n int) ([]byte, error) {
	if n < 0 || n > c.remaining() {
		return nil, c.corrupt("cursor overrun reading %d bytes (remaining %d)", n, c.remaining())
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// varint reads an unsigned LEB128 varint.
func (c *cursor) varint() (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := c.byte()
		if err != nil {
			return 0, err
		}
		if shift >= 64 {
			return 0, c.corrupt("varint too long")
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return result, nil
}

// svarint reads a zig-zag encoded signed varint.
func (c *cursor) svarint() (int64, error) {
	u, err := c.varint()
	if err != nil {
		return 0, err
	}
	return int64(u>>1) ^ -int64(u&1), nil
}

func (c *cursor) uint32Field() (uint32, error) {
	v, err := c.varint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, c.corrupt("value %d overflows uint32", v)
	}
	return uint32(v), nil
}

func (c *cursor) float32Field() (float32, error) {
	b, err := c.bytesN(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

func (c *cursor) lengthPrefixedString() (string, error) {
	n, err := c.varint()
	if err != nil {
		return "", err
	}
	b, err := c.bytesN(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *cursor) lengthPrefixedBytes() ([]byte, error) {
	n, err := c.varint()
	if err != nil {
		return nil, err
	}
	return c.bytesN(int(n))
}

func (c *cursor) boolField() (bool, error) {
	b, err := c.byte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}
