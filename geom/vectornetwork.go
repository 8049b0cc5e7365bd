package geom

import (
	"encoding/binary"
	"math"
)

// DefaultRegionEdgeCeiling is the default vertex/segment count ceiling
// above which a vector-network decode is rejected in favor of the
// fallback diagonal.
const DefaultRegionEdgeCeiling = 1000

// vnTolerance is the out-of-bounds tolerance applied to vertex coordinates
// against normalizedSize, per §4.4.
const vnTolerance = 2.0

type vnVertex struct {
	Style uint32
	X, Y  float32
}

type vnSegment struct {
	Style               uint32
	StartVertex         uint32
	StartDx, StartDy    float32
	EndVertex           uint32
	EndDx, EndDy        float32
}

// VectorNetworkOptions parametrizes the fallback/ceiling behavior of
// DecodeVectorNetwork.
type VectorNetworkOptions struct {
	NormalizedW, NormalizedH float64
	Ceiling                  int // 0 means DefaultRegionEdgeCeiling
}

// DecodeVectorNetwork parses the binary vertex/segment/region layout from
// §4.4 and reconstructs a stroke centerline. It never returns an error:
// out-of-range vertices, oversized inputs, or truncated data all fall back
// to the single-diagonal-line construction, per the renderer's contract
// that geometry decoding never raises.
func DecodeVectorNetwork(raw []byte, opts VectorNetworkOptions) Path {
	ceiling := opts.Ceiling
	if ceiling == 0 {
		ceiling = DefaultRegionEdgeCeiling
	}

	verts, segs, ok := parseVectorNetworkBinary(raw)
	if !ok {
		return fallbackDiagonal(opts)
	}
	if len(verts) > ceiling || len(segs) > ceiling {
		return fallbackDiagonal(opts)
	}
	for _, v := range verts {
		if float64(v.X) < -vnTolerance || float64(v.X) > opts.NormalizedW+vnTolerance ||
			float64(v.Y) < -vnTolerance || float64(v.Y) > opts.NormalizedH+vnTolerance {
			return fallbackDiagonal(opts)
		}
	}

	path := reconstructCenterline(verts, segs)
	if len(path) == 0 {
		return fallbackDiagonal(opts)
	}
	return path
}

func parseVectorNetworkBinary(raw []byte) ([]vnVertex, []vnSegment, bool) {
	if len(raw) < 12 {
		return nil, nil, false
	}
	vertexCount := binary.LittleEndian.Uint32(raw[0:4])
	segmentCount := binary.LittleEndian.Uint32(raw[4:8])
	// regionCount at raw[8:12] is read but not consumed further: the
	// present renderer ignores regions and decodes only the segment list
	// (inherited from the observed source behavior, see DESIGN.md).
	pos := 12

	const vertexStride = 12
	const segmentStride = 28

	vertsEnd := pos + int(vertexCount)*vertexStride
	if vertsEnd > len(raw) || vertsEnd < pos {
		return nil, nil, false
	}
	verts := make([]vnVertex, vertexCount)
	for i := range verts {
		off := pos + i*vertexStride
		verts[i] = vnVertex{
			Style: binary.LittleEndian.Uint32(raw[off : off+4]),
			X:     math.Float32frombits(binary.LittleEndian.Uint32(raw[off+4 : off+8])),
			Y:     math.Float32frombits(binary.LittleEndian.Uint32(raw[off+8 : off+12])),
		}
	}
	pos = vertsEnd

	segsEnd := pos + int(segmentCount)*segmentStride
	if segsEnd > len(raw) || segsEnd < pos {
		return nil, nil, false
	}
	segs := make([]vnSegment, segmentCount)
	for i := range segs {
		off := pos + i*segmentStride
		segs[i] = vnSegment{
			Style:       binary.LittleEndian.Uint32(raw[off : off+4]),
			StartVertex: binary.LittleEndian.Uint32(raw[off+4 : off+8]),
			StartDx:     math.Float32frombits(binary.LittleEndian.Uint32(raw[off+8 : off+12])),
			StartDy:     math.Float32frombits(binary.LittleEndian.Uint32(raw[off+12 : off+16])),
			EndVertex:   binary.LittleEndian.Uint32(raw[off+16 : off+20]),
			EndDx:       math.Float32frombits(binary.LittleEndian.Uint32(raw[off+20 : off+24])),
			EndDy:       math.Float32frombits(binary.LittleEndian.Uint32(raw[off+24 : off+28])),
		}
	}
	return verts, segs, true
}

// reconstructCenterline walks segments by following end->next.start
// matches, starting a new subpath with a move-to whenever the chain
// breaks. Handles with nonzero dx|dy emit a cubic; otherwise a line.
func reconstructCenterline(verts []vnVertex, segs []vnSegment) Path {
	var path Path
	used := make([]bool, len(segs))

	valid := make([]vnSegment, 0, len(segs))
	for _, s := range segs {
		if s.StartVertex == s.EndVertex {
			continue // dropped per §4.4
		}
		if int(s.StartVertex) >= len(verts) || int(s.EndVertex) >= len(verts) {
			continue
		}
		valid = append(valid, s)
	}
	if len(valid) == 0 {
		return nil
	}

	byStart := make(map[uint32][]int, len(valid))
	for i, s := range valid {
		byStart[s.StartVertex] = append(byStart[s.StartVertex], i)
	}

	subpathStartX, subpathStartY := 0.0, 0.0
	haveSubpathStart := false

	emit := func(s vnSegment) {
		v0, v1 := verts[s.StartVertex], verts[s.EndVertex]
		x0, y0 := float64(v0.X), float64(v0.Y)
		x1, y1 := float64(v1.X), float64(v1.Y)
		if !haveSubpathStart {
			path.moveTo(x0, y0)
			subpathStartX, subpathStartY = x0, y0
			haveSubpathStart = true
		}
		if s.StartDx != 0 || s.StartDy != 0 || s.EndDx != 0 || s.EndDy != 0 {
			c1x, c1y := x0+float64(s.StartDx), y0+float64(s.StartDy)
			c2x, c2y := x1+float64(s.EndDx), y1+float64(s.EndDy)
			path.cubicTo(c1x, c1y, c2x, c2y, x1, y1)
		} else {
			path.lineTo(x1, y1)
		}
	}

	for i := range valid {
		if used[i] {
			continue
		}
		haveSubpathStart = false
		cur := i
		for {
			used[cur] = true
			emit(valid[cur])
			end := valid[cur].EndVertex
			last := verts[end]
			if math.Abs(float64(last.X)-subpathStartX) < 1e-2 && math.Abs(float64(last.Y)-subpathStartY) < 1e-2 {
				path.close()
				break
			}
			next := -1
			for _, cand := range byStart[end] {
				if !used[cand] {
					next = cand
					break
				}
			}
			if next < 0 {
				break
			}
			cur = next
		}
	}
	return path
}

// fallbackDiagonal is the single line from (0,0) to normalizedSize, used
// whenever geometry is needed but all decodes fail.
func fallbackDiagonal(opts VectorNetworkOptions) Path {
	var p Path
	p.moveTo(0, 0)
	p.lineTo(opts.NormalizedW, opts.NormalizedH)
	return p
}
