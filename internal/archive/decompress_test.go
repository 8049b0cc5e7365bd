package archive

import (
	"bytes"
	"compress/flate"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

// TestDeflateRoundTrip exercises P6 for the deflate scheme.
func TestDeflateRoundTrip(t *testing.T) {
	original := []byte("the quick brown fox jumps over the lazy dog, repeatedly, repeatedly, repeatedly")
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = w.Write(original)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err := DecompressChunk(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, original, got)
}

// TestZstdRoundTrip exercises P6 for the zstd scheme, discriminated by the
// 0xFD2FB528 magic.
func TestZstdRoundTrip(t *testing.T) {
	original := []byte("vector network payload bytes, vector network payload bytes")
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	framed := enc.EncodeAll(original, nil)
	require.NoError(t, enc.Close())

	got, err := DecompressChunk(framed)
	require.NoError(t, err)
	require.Equal(t, original, got)
}
