package kiwi

import (
	"encoding/binary"
	"fmt"

	"github.com/oderaine/figread/ferrors"
	"github.com/oderaine/figread/internal/archive"
)

const magic = "fig-kiwi"

// Container is the parsed canvas.fig layout: magic + version + two
// compressed chunks (schema, then payload).
type Container struct {
	Version      uint32
	SchemaBytes  []byte
	PayloadBytes []byte
}

// DecodeContainer parses and decompresses the canvas document layout from
// §4.2: an 8-byte ASCII magic, a u32 version, then two
// length-prefixed compressed chunks.
func DecodeContainer(raw []byte) (*Container, error) {
	if len(raw) < len(magic)+4 {
		return nil, ferrors.NewError(ferrors.Corrupt, fmt.Errorf("kiwi: container too small (%d bytes)", len(raw)))
	}
	if string(raw[:len(magic)]) != magic {
		return nil, ferrors.NewError(ferrors.BadMagic, fmt.Errorf("kiwi: missing fig-kiwi header"))
	}
	pos := len(magic)
	version := binary.LittleEndian.Uint32(raw[pos : pos+4])
	pos += 4

	schemaChunk, pos, err := readLengthPrefixedChunk(raw, pos)
	if err != nil {
		return nil, err
	}
	dataChunk, _, err := readLengthPrefixedChunk(raw, pos)
	if err != nil {
		return nil, err
	}

	schemaBytes, err := archive.DecompressChunk(schemaChunk)
	if err != nil {
		return nil, err
	}
	payloadBytes, err := archive.DecompressChunk(dataChunk)
	if err != nil {
		return nil, err
	}

	return &Container{Version: version, SchemaBytes: schemaBytes, PayloadBytes: payloadBytes}, nil
}

func readLengthPrefixedChunk(raw []byte, pos int) ([]byte, int, error) {
	if pos+4 > len(raw) {
		return nil, 0, ferrors.NewErrorAt(ferrors.Corrupt, int64(pos), fmt.Errorf("kiwi: truncated chunk length"))
	}
	n := binary.LittleEndian.Uint32(raw[pos : pos+4])
	pos += 4
	end := pos + int(n)
	if end > len(raw) || end < pos {
		return nil, 0, ferrors.NewErrorAt(ferrors.Corrupt, int64(pos), fmt.Errorf("kiwi: chunk length %d exceeds remaining bytes", n))
	}
	return raw[pos:end], end, nil
}
