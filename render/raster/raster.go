// Package raster is a second output driver alongside render's vector
// markup: it rasterizes a resolved scene subtree straight to an
// image.RGBA using rasterx, a scanline filler and dasher pair. It
// covers solid box, ellipse, and vector fills;
// gradients, images, strokes, text, and effects are reported as
// UnrenderableFeature warnings rather than approximated, since this
// driver exists for quick raster previews, not pixel parity with the
// source tool.
package raster

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"

	"github.com/oderaine/figread/ferrors"
	"github.com/oderaine/figread/geom"
	"github.com/oderaine/figread/render"
	"github.com/oderaine/figread/scene"
)

// Render walks the subtree rooted at root and fills an image.RGBA sized to
// its content bounds (per render.Bounds) scaled by opts.Scale.
func Render(root *scene.Node, blobs render.Blobs, opts render.Options) (*image.RGBA, []ferrors.Warning, error) {
	if root == nil {
		return nil, []ferrors.Warning{ferrors.Warnf(ferrors.NotFound, "no bounds")}, nil
	}

	originX, originY, w, h, ok := render.Bounds(root, opts.MaxDepth)
	if !ok {
		return nil, []ferrors.Warning{ferrors.Warnf(ferrors.NotFound, "no bounds")}, nil
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	width, height := int(math.Ceil(w*scale)), int(math.Ceil(h*scale))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	filler := rasterx.NewFiller(width, height, scanner)

	c := &rasterCtx{
		filler:  filler,
		blobs:   blobs,
		opts:    opts,
		originX: originX,
		originY: originY,
		scale:   scale,
	}
	c.walk(root, scene.Identity, 0)

	return img, c.warnings, nil
}

type rasterCtx struct {
	filler   *rasterx.Filler
	blobs    render.Blobs
	opts     render.Options
	warnings []ferrors.Warning

	originX, originY float64
	scale            float64
}

func (c *rasterCtx) warn(kind ferrors.Kind, msg string) {
	c.warnings = append(c.warnings, ferrors.Warnf(kind, "%s", msg))
}

func (c *rasterCtx) toDevice(world scene.Transform) scene.Transform {
	shifted := scene.Translation(-c.originX, -c.originY).Mul(world)
	return scene.Transform{
		A: shifted.A * c.scale, B: shifted.B * c.scale,
		C: shifted.C * c.scale, D: shifted.D * c.scale,
		E: shifted.E * c.scale, F: shifted.F * c.scale,
	}
}

func (c *rasterCtx) walk(n *scene.Node, parentWorld scene.Transform, depth int) {
	if !n.Visible || depth > c.opts.MaxDepth {
		return
	}
	local := parentWorld
	if n.Transform != nil {
		local = parentWorld.Mul(*n.Transform)
	} else {
		local = parentWorld.Mul(scene.Translation(n.X, n.Y))
	}

	if c.opts.IncludeFills && n.Type != scene.TypeDocument && n.Type != scene.TypeCanvas {
		c.fillNode(n, local)
	}
	if len(n.StrokePaints) > 0 || len(n.Effects) > 0 {
		c.warn(ferrors.UnrenderableFeature, "raster driver skips strokes and effects on node "+n.Id.String())
	}
	if n.Type == scene.TypeText {
		c.warn(ferrors.UnrenderableFeature, "raster driver skips text on node "+n.Id.String())
	}

	for _, child := range n.Children {
		c.walk(child, local, depth+1)
	}
}

func (c *rasterCtx) fillNode(n *scene.Node, world scene.Transform) {
	paint, ok := firstSolidPaint(n.FillPaints)
	if !ok {
		if first, ok := firstVisiblePaint(n.FillPaints); ok {
			c.warn(ferrors.UnrenderableFeature, "raster driver skips non-solid paint "+first.Variant+" on node "+n.Id.String())
		}
		return
	}

	var p geom.Path
	switch n.Type {
	case scene.TypeRectangle, scene.TypeFrame, scene.TypeComponent, scene.TypeComponentSet, scene.TypeInstance:
		p = boxPath(n.Size.W, n.Size.H)
	case scene.TypeEllipse:
		p = ellipsePath(n.Size.W, n.Size.H)
	case scene.TypeVector, scene.TypeBooleanOperation, scene.TypeRegularPolygon, scene.TypeStar:
		p, ok = c.decodeFirst(n.FillGeometry, n.Size.W, n.Size.H)
		if !ok {
			return
		}
		p = normalizeToSize(p, n.Size.W, n.Size.H)
	default:
		return
	}

	device := c.toDevice(world)
	fillPath(c.filler, p, device)
	r, g, b, a := straightToPremultiplied(paint.Color, paint.Opacity*n.Opacity)
	c.filler.Scanner.SetColor(color.NRGBA{R: r, G: g, B: b, A: a})
	c.filler.Draw()
	c.filler.Clear()
}

func (c *rasterCtx) decodeFirst(refs []scene.GeometryRef, w, h float64) (geom.Path, bool) {
	for _, ref := range refs {
		switch {
		case len(ref.VectorNet) > 0:
			return geom.DecodeVectorNetwork(ref.VectorNet, geom.VectorNetworkOptions{NormalizedW: w, NormalizedH: h}), true
		case len(ref.Inline) > 0:
			return geom.DecodePathCommands(ref.Inline), true
		case ref.HasBlob && ref.BlobIndex >= 0 && ref.BlobIndex < len(c.blobs):
			return geom.DecodePathCommands(c.blobs[ref.BlobIndex]), true
		}
	}
	return nil, false
}

func firstSolidPaint(paints []scene.Paint) (scene.Paint, bool) {
	for _, p := range paints {
		if p.Visible && p.Kind == scene.PaintSolid {
			return p, true
		}
	}
	return scene.Paint{}, false
}

func firstVisiblePaint(paints []scene.Paint) (scene.Paint, bool) {
	for _, p := range paints {
		if p.Visible {
			return p, true
		}
	}
	return scene.Paint{}, false
}

func straightToPremultiplied(c scene.RGBA, opacity float64) (r, g, b, a uint8) {
	alpha := clamp01(c.A * opacity)
	return uint8(clamp01(c.R)*alpha*255 + 0.5), uint8(clamp01(c.G)*alpha*255 + 0.5), uint8(clamp01(c.B)*alpha*255 + 0.5), uint8(alpha*255 + 0.5)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func boxPath(w, h float64) geom.Path {
	raw := geom.DecodePathCommandsText("M0,0 L" + ftoa(w) + ",0 L" + ftoa(w) + "," + ftoa(h) + " L0," + ftoa(h) + " Z")
	return raw
}

// ellipsePath approximates an ellipse with four cubic Bezier quadrants,
// the same construction rasterx's own shape helpers use.
func ellipsePath(w, h float64) geom.Path {
	const k = 0.5522847498307936
	rx, ry := w/2, h/2
	cx, cy := rx, ry
	cmds := "M" + ftoa(cx+rx) + "," + ftoa(cy) + " " +
		"C" + ftoa(cx+rx) + "," + ftoa(cy+ry*k) + " " + ftoa(cx+rx*k) + "," + ftoa(cy+ry) + " " + ftoa(cx) + "," + ftoa(cy+ry) + " " +
		"C" + ftoa(cx-rx*k) + "," + ftoa(cy+ry) + " " + ftoa(cx-rx) + "," + ftoa(cy+ry*k) + " " + ftoa(cx-rx) + "," + ftoa(cy) + " " +
		"C" + ftoa(cx-rx) + "," + ftoa(cy-ry*k) + " " + ftoa(cx-rx*k) + "," + ftoa(cy-ry) + " " + ftoa(cx) + "," + ftoa(cy-ry) + " " +
		"C" + ftoa(cx+rx*k) + "," + ftoa(cy-ry) + " " + ftoa(cx+rx) + "," + ftoa(cy-ry*k) + " " + ftoa(cx+rx) + "," + ftoa(cy) + " Z"
	return geom.DecodePathCommandsText(cmds)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// normalizeToSize rescales a decoded path's bounds onto (0,0)-(w,h), so a
// vector node's own command-space geometry lines up with its Size before
// the world transform is applied, mirroring the vector-render rule.
func normalizeToSize(p geom.Path, w, h float64) geom.Path {
	b := p.Bounds()
	if b.Empty() || b.Width() == 0 || b.Height() == 0 {
		return p
	}
	sx, sy := w/b.Width(), h/b.Height()
	out := make(geom.Path, len(p))
	tf := func(x, y float64) (float64, float64) {
		return (x - b.MinX) * sx, (y - b.MinY) * sy
	}
	for i, op := range p {
		out[i] = transformOp(op, tf)
	}
	return out
}

func transformOp(op geom.Operation, tf func(x, y float64) (float64, float64)) geom.Operation {
	switch o := op.(type) {
	case geom.MoveTo:
		x, y := tf(float64(o.X)/64, float64(o.Y)/64)
		return geom.MoveTo(toFixedPt(x, y))
	case geom.LineTo:
		x, y := tf(float64(o.X)/64, float64(o.Y)/64)
		return geom.LineTo(toFixedPt(x, y))
	case geom.QuadTo:
		cx, cy := tf(float64(o[0].X)/64, float64(o[0].Y)/64)
		x, y := tf(float64(o[1].X)/64, float64(o[1].Y)/64)
		return geom.QuadTo{toFixedPt(cx, cy), toFixedPt(x, y)}
	case geom.CubicTo:
		c1x, c1y := tf(float64(o[0].X)/64, float64(o[0].Y)/64)
		c2x, c2y := tf(float64(o[1].X)/64, float64(o[1].Y)/64)
		x, y := tf(float64(o[2].X)/64, float64(o[2].Y)/64)
		return geom.CubicTo{toFixedPt(c1x, c1y), toFixedPt(c2x, c2y), toFixedPt(x, y)}
	default:
		return op
	}
}

func toFixedPt(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
}

// fillPath feeds a decoded Path through world into the filler's
// Start/Line/QuadBezier/CubeBezier/Stop calls, rasterx's Adder protocol.
func fillPath(filler *rasterx.Filler, p geom.Path, world scene.Transform) {
	apply := func(pt fixed.Point26_6) fixed.Point26_6 {
		x, y := world.Apply(float64(pt.X)/64, float64(pt.Y)/64)
		return toFixedPt(x, y)
	}
	open := false
	for _, op := range p {
		switch o := op.(type) {
		case geom.MoveTo:
			if open {
				filler.Stop(true)
			}
			filler.Start(apply(fixed.Point26_6(o)))
			open = true
		case geom.LineTo:
			filler.Line(apply(fixed.Point26_6(o)))
		case geom.QuadTo:
			filler.QuadBezier(apply(o[0]), apply(o[1]))
		case geom.CubicTo:
			filler.CubeBezier(apply(o[0]), apply(o[1]), apply(o[2]))
		case geom.Close:
			filler.Stop(true)
			open = false
		}
	}
	if open {
		filler.Stop(true)
	}
}
