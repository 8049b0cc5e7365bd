package geom

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePathCommandsBasicShapes(t *testing.T) {
	var raw []byte
	appendF32Cmd := func(code byte, args ...float32) {
		raw = append(raw, code)
		for _, a := range args {
			var tmp [4]byte
			binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(a))
			raw = append(raw, tmp[:]...)
		}
	}
	appendF32Cmd(1, 0, 0)   // move-to
	appendF32Cmd(2, 10, 0)  // line-to
	appendF32Cmd(0)         // close

	p := DecodePathCommands(raw)
	require.Len(t, p, 3)
	assert.IsType(t, MoveTo{}, p[0])
	assert.IsType(t, LineTo{}, p[1])
	assert.IsType(t, Close{}, p[2])
}

func TestDecodePathCommandsSoftStopOnUnknownCode(t *testing.T) {
	raw := []byte{1, 0, 0, 0, 0, 0, 0, 0, 0} // valid move-to
	raw = append(raw, 200)                   // unknown code -> soft stop
	p := DecodePathCommands(raw)
	require.Len(t, p, 1)
}

func TestDecodePathCommandsTextForm(t *testing.T) {
	p := DecodePathCommandsText("M0,0 L10,0 C1,1,2,2,3,3 Z")
	require.Len(t, p, 4)
	assert.IsType(t, CubicTo{}, p[2])
}

// TestPathBoundsWithinTolerance exercises P3: commandBounds must be
// contained within normalizedSize plus the 2-unit tolerance.
func TestPathBoundsWithinTolerance(t *testing.T) {
	p := DecodePathCommandsText("M0,0 L10,10 Z")
	b := p.Bounds()
	assert.InDelta(t, 0, b.MinX, 1e-6)
	assert.InDelta(t, 10, b.MaxX, 1e-6)
	assert.LessOrEqual(t, b.MaxX, 10+2.0)
}

func vertex(x, y float32) []byte {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:4], 0)
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(x))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(y))
	return buf[:]
}

func segment(style, start uint32, sdx, sdy float32, end uint32, edx, edy float32) []byte {
	var buf [28]byte
	binary.LittleEndian.PutUint32(buf[0:4], style)
	binary.LittleEndian.PutUint32(buf[4:8], start)
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(sdx))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(sdy))
	binary.LittleEndian.PutUint32(buf[16:20], end)
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(edx))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(edy))
	return buf[:]
}

func vnHeader(vertexCount, segmentCount, regionCount uint32) []byte {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:4], vertexCount)
	binary.LittleEndian.PutUint32(buf[4:8], segmentCount)
	binary.LittleEndian.PutUint32(buf[8:12], regionCount)
	return buf[:]
}

// TestVectorNetworkStraightLine builds a two-vertex, one-segment network
// (a straight line) and expects a move+line, closing to nothing since the
// end doesn't return to the start.
func TestVectorNetworkStraightLine(t *testing.T) {
	raw := append([]byte{}, vnHeader(2, 1, 0)...)
	raw = append(raw, vertex(0, 0)...)
	raw = append(raw, vertex(10, 0)...)
	raw = append(raw, segment(0, 0, 0, 0, 1, 0, 0)...)

	p := DecodeVectorNetwork(raw, VectorNetworkOptions{NormalizedW: 10, NormalizedH: 10})
	require.Len(t, p, 2)
	assert.IsType(t, MoveTo{}, p[0])
	assert.IsType(t, LineTo{}, p[1])
}

// TestVectorNetworkClosesWhenChainReturnsToStart exercises the close-loop
// rule: three segments forming a triangle should close.
func TestVectorNetworkClosesWhenChainReturnsToStart(t *testing.T) {
	raw := append([]byte{}, vnHeader(3, 3, 0)...)
	raw = append(raw, vertex(0, 0)...)
	raw = append(raw, vertex(10, 0)...)
	raw = append(raw, vertex(5, 10)...)
	raw = append(raw, segment(0, 0, 0, 0, 1, 0, 0)...)
	raw = append(raw, segment(0, 1, 0, 0, 2, 0, 0)...)
	raw = append(raw, segment(0, 2, 0, 0, 0, 0, 0)...)

	p := DecodeVectorNetwork(raw, VectorNetworkOptions{NormalizedW: 10, NormalizedH: 10})
	require.NotEmpty(t, p)
	_, isClose := p[len(p)-1].(Close)
	assert.True(t, isClose)
}

func TestVectorNetworkHandlesEmitCubic(t *testing.T) {
	raw := append([]byte{}, vnHeader(2, 1, 0)...)
	raw = append(raw, vertex(0, 0)...)
	raw = append(raw, vertex(10, 0)...)
	raw = append(raw, segment(0, 0, 1, 1, 1, -1, -1)...)

	p := DecodeVectorNetwork(raw, VectorNetworkOptions{NormalizedW: 10, NormalizedH: 10})
	require.Len(t, p, 2)
	assert.IsType(t, CubicTo{}, p[1])
}

func TestVectorNetworkOutOfBoundsFallsBackToDiagonal(t *testing.T) {
	raw := append([]byte{}, vnHeader(2, 1, 0)...)
	raw = append(raw, vertex(0, 0)...)
	raw = append(raw, vertex(1000, 0)...) // way outside normalizedSize+tolerance
	raw = append(raw, segment(0, 0, 0, 0, 1, 0, 0)...)

	p := DecodeVectorNetwork(raw, VectorNetworkOptions{NormalizedW: 10, NormalizedH: 10})
	require.Len(t, p, 2)
	assert.Equal(t, MoveTo{X: 0, Y: 0}, p[0])
}

func TestVectorNetworkExceedingCeilingFallsBack(t *testing.T) {
	raw := append([]byte{}, vnHeader(2, 1, 0)...)
	raw = append(raw, vertex(0, 0)...)
	raw = append(raw, vertex(1, 1)...)
	raw = append(raw, segment(0, 0, 0, 0, 1, 0, 0)...)

	p := DecodeVectorNetwork(raw, VectorNetworkOptions{NormalizedW: 1, NormalizedH: 1, Ceiling: 0})
	require.Len(t, p, 2) // fine below ceiling

	p2 := DecodeVectorNetwork(raw, VectorNetworkOptions{NormalizedW: 1, NormalizedH: 1, Ceiling: 1})
	require.Len(t, p2, 2)
	assert.Equal(t, MoveTo{X: 0, Y: 0}, p2[0]) // rejected: 2 vertices > ceiling 1, falls back
}

func TestVectorNetworkDropsZeroLengthSegments(t *testing.T) {
	raw := append([]byte{}, vnHeader(1, 1, 0)...)
	raw = append(raw, vertex(0, 0)...)
	raw = append(raw, segment(0, 0, 0, 0, 0, 0, 0)...) // start == end
	p := DecodeVectorNetwork(raw, VectorNetworkOptions{NormalizedW: 1, NormalizedH: 1})
	assert.Equal(t, MoveTo{X: 0, Y: 0}, p[0]) // no valid segments -> fallback
}

func TestFallbackDiagonalWhenTruncated(t *testing.T) {
	p := DecodeVectorNetwork([]byte{1, 2, 3}, VectorNetworkOptions{NormalizedW: 5, NormalizedH: 5})
	require.Len(t, p, 2)
	assert.Equal(t, LineTo{X: 5 * 64, Y: 5 * 64}, p[1])
}
