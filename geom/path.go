// Package geom decodes the two geometry blob encodings — path-command
// streams and vector networks — into a structured Path, and computes path
// bounds for the renderer's per-path scale derivation.
package geom

import (
	"fmt"
	"math"

	"golang.org/x/image/math/fixed"
)

type opKind uint8

const (
	opMoveTo opKind = iota
	opLineTo
	opQuadTo
	opCubicTo
	opClose
)

// Operation is one command of a decoded Path.
type Operation interface{ kind() opKind }

type MoveTo fixed.Point26_6
type LineTo fixed.Point26_6
type QuadTo [2]fixed.Point26_6
type CubicTo [3]fixed.Point26_6
type Close struct{}

func (MoveTo) kind() opKind  { return opMoveTo }
func (LineTo) kind() opKind  { return opLineTo }
func (QuadTo) kind() opKind  { return opQuadTo }
func (CubicTo) kind() opKind { return opCubicTo }
func (Close) kind() opKind   { return opClose }

// Path is a decoded sequence of path operations, in fixed-point
// coordinates for sub-pixel-precise rasterization.
type Path []Operation

func (p *Path) moveTo(x, y float64) { *p = append(*p, MoveTo(toFixed(x, y))) }
func (p *Path) lineTo(x, y float64) { *p = append(*p, LineTo(toFixed(x, y))) }
func (p *Path) quadTo(cx, cy, x, y float64) {
	*p = append(*p, QuadTo{toFixed(cx, cy), toFixed(x, y)})
}
func (p *Path) cubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	*p = append(*p, CubicTo{toFixed(c1x, c1y), toFixed(c2x, c2y), toFixed(x, y)})
}
func (p *Path) close() { *p = append(*p, Close{}) }

func toFixed(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
}

func fromFixed(p fixed.Point26_6) (float64, float64) {
	return float64(p.X) / 64, float64(p.Y) / 64
}

// Rect is an axis-aligned bounding box in float coordinates.
type Rect struct{ MinX, MinY, MaxX, MaxY float64 }

// Empty reports whether the rect has never been extended by a point.
func (r Rect) Empty() bool { return r.MinX > r.MaxX || r.MinY > r.MaxY }

// EmptyRect returns the identity rect for successive unions.
func EmptyRect() Rect {
	return Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
}

func (r Rect) union(x, y float64) Rect {
	if x < r.MinX {
		r.MinX = x
	}
	if y < r.MinY {
		r.MinY = y
	}
	if x > r.MaxX {
		r.MaxX = x
	}
	if y > r.MaxY {
		r.MaxY = y
	}
	return r
}

func (r Rect) unionRect(o Rect) Rect {
	if o.Empty() {
		return r
	}
	r = r.union(o.MinX, o.MinY)
	r = r.union(o.MaxX, o.MaxY)
	return r
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Bounds sweeps every endpoint and control point of the path.
func (p Path) Bounds() Rect {
	r := EmptyRect()
	var cur fixed.Point26_6
	for _, op := range p {
		switch o := op.(type) {
		case MoveTo:
			cur = fixed.Point26_6(o)
			x, y := fromFixed(cur)
			r = r.union(x, y)
		case LineTo:
			cur = fixed.Point26_6(o)
			x, y := fromFixed(cur)
			r = r.union(x, y)
		case QuadTo:
			for _, pt := range o {
				x, y := fromFixed(pt)
				r = r.union(x, y)
			}
			cur = o[1]
		case CubicTo:
			for _, pt := range o {
				x, y := fromFixed(pt)
				r = r.union(x, y)
			}
			cur = o[2]
		case Close:
			_ = cur
		}
	}
	return r
}

// String renders the path in a compact SVG-path-like textual form, used
// for diagnostics.
func (p Path) String() string {
	s := ""
	for _, op := range p {
		switch o := op.(type) {
		case MoveTo:
			x, y := fromFixed(fixed.Point26_6(o))
			s += fmt.Sprintf("M%.3f,%.3f ", x, y)
		case LineTo:
			x, y := fromFixed(fixed.Point26_6(o))
			s += fmt.Sprintf("L%.3f,%.3f ", x, y)
		case QuadTo:
			cx, cy := fromFixed(o[0])
			x, y := fromFixed(o[1])
			s += fmt.Sprintf("Q%.3f,%.3f,%.3f,%.3f ", cx, cy, x, y)
		case CubicTo:
			c1x, c1y := fromFixed(o[0])
			c2x, c2y := fromFixed(o[1])
			x, y := fromFixed(o[2])
			s += fmt.Sprintf("C%.3f,%.3f,%.3f,%.3f,%.3f,%.3f ", c1x, c1y, c2x, c2y, x, y)
		case Close:
			s += "Z "
		}
	}
	return s
}
