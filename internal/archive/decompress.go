package archive

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/oderaine/figread/ferrors"
)

const zstdMagic uint32 = 0xFD2FB528

func inflate(compressed []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, ferrors.NewError(ferrors.Corrupt, fmt.Errorf("archive: raw deflate decompression failed: %w", err))
	}
	return out, nil
}

// DecompressChunk discriminates the compression scheme of a canvas.fig
// inner chunk by its first four bytes: 0xFD2FB528 (little-endian) selects
// framed zstd, anything else is attempted as raw deflate.
func DecompressChunk(chunk []byte) ([]byte, error) {
	if len(chunk) >= 4 && binary.LittleEndian.Uint32(chunk[:4]) == zstdMagic {
		return decompressZstd(chunk)
	}
	return inflate(chunk)
}

func decompressZstd(chunk []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(chunk))
	if err != nil {
		return nil, ferrors.NewError(ferrors.Corrupt, fmt.Errorf("archive: zstd frame header invalid: %w", err))
	}
	defer dec.Close()
	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, ferrors.NewError(ferrors.Corrupt, fmt.Errorf("archive: zstd decompression failed: %w", err))
	}
	return out, nil
}
