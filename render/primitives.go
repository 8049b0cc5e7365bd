package render

import (
	"fmt"
	"math"

	"github.com/oderaine/figread/ferrors"
	"github.com/oderaine/figread/geom"
	"github.com/oderaine/figread/scene"
)

func (c *renderCtx) writeHeader(w, h float64) {
	c.out.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		fmtF(w), fmtF(h), fmtF(w), fmtF(h)))
	c.out.WriteString("<defs>")
	c.out.WriteString("</defs>")
}

func (c *renderCtx) writeFooter() {
	c.out.WriteString("</svg>")
}

func (c *renderCtx) writeBackground(w, h float64) {
	c.out.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%s" height="%s" fill="%s"/>`, fmtF(w), fmtF(h), c.opts.Background))
}

func (c *renderCtx) writeRectClip(id string, w, h float64, world scene.Transform) {
	c.out.WriteString(fmt.Sprintf(`<clipPath id="%s"><rect x="0" y="0" width="%s" height="%s" transform="%s"/></clipPath>`,
		id, fmtF(w), fmtF(h), matrixAttr(world)))
}

// writeMaskClip builds a clip region from the mask node's fill geometry
// when present, else its axis-aligned bounds, recolored white per §4.5.
func (c *renderCtx) writeMaskClip(id string, mask *scene.Node, parentWorld scene.Transform) {
	world := parentWorld.Mul(localTransform(mask))
	outWorld := c.toOutputSpace(world)
	if p, ok := c.firstDecodablePath(mask.FillGeometry, mask.Size.W, mask.Size.H); ok {
		d, rule := c.pathToD(p, mask, outWorld)
		c.out.WriteString(fmt.Sprintf(`<clipPath id="%s"><path d="%s" clip-rule="%s"/></clipPath>`, id, d, rule))
		return
	}
	c.warn(ferrors.UnrenderableFeature, "mask %s has no rendered geometry, degrading to bounding-box clip", mask.Id)
	c.writeRectClip(id, mask.Size.W, mask.Size.H, outWorld)
}

func matrixAttr(t scene.Transform) string {
	return fmt.Sprintf("matrix(%s,%s,%s,%s,%s,%s)", fmtF(t.A), fmtF(t.B), fmtF(t.C), fmtF(t.D), fmtF(t.E), fmtF(t.F))
}

func fmtF(f float64) string {
	return fmt.Sprintf("%g", roundSmall(f))
}

func roundSmall(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// emitPrimitive emits a node's own primitive per its type.
func (c *renderCtx) emitPrimitive(n *scene.Node, world scene.Transform) {
	switch n.Type {
	case scene.TypeRectangle, scene.TypeFrame, scene.TypeComponent, scene.TypeComponentSet, scene.TypeInstance:
		c.emitBoxFill(n, world)
		c.emitBoxStroke(n, world)
	case scene.TypeEllipse:
		c.emitEllipse(n, world)
	case scene.TypeText:
		if c.opts.IncludeText {
			c.emitText(n, world)
		}
	case scene.TypeVector, scene.TypeBooleanOperation, scene.TypeRegularPolygon, scene.TypeStar:
		c.emitVectorNode(n, world)
	case scene.TypeLine:
		c.emitStrokeOnlyPath(n, world)
	default:
		// GROUP and others carry no primitive of their own.
	}
}

func (c *renderCtx) emitBoxFill(n *scene.Node, world scene.Transform) {
	if !c.opts.IncludeFills {
		return
	}
	paint, ok := firstVisiblePaint(n.FillPaints)
	if !ok {
		return
	}
	fillAttr, ok := c.paintAttr(paint)
	if !ok {
		return
	}
	c.emitBoxShape(n, world, fmt.Sprintf(`fill="%s" fill-opacity="%s"`, fillAttr, fmtF(paint.Opacity*n.Opacity)))
}

func (c *renderCtx) emitBoxStroke(n *scene.Node, world scene.Transform) {
	if !c.opts.IncludeStrokes {
		return
	}
	paint, ok := firstVisiblePaint(n.StrokePaints)
	if !ok {
		return
	}
	fillAttr, ok := c.paintAttr(paint)
	if !ok {
		return
	}
	attrs := fmt.Sprintf(`fill="none" stroke="%s" stroke-opacity="%s" stroke-width="%s"%s`,
		fillAttr, fmtF(paint.Opacity*n.Opacity), fmtF(n.Stroke.Weight), strokeCapJoinAttrs(n.Stroke))
	c.emitBoxShape(n, world, attrs)
}

// emitBoxShape emits either a <rect> (axis-aligned corners, within 1e-2)
// or a four-point closed path, with corner radius clamped before
// emission so stadiums stay stadium-shaped.
func (c *renderCtx) emitBoxShape(n *scene.Node, world scene.Transform, attrs string) {
	w, h := n.Size.W, n.Size.H
	if axisAligned(world) {
		radius := clampCornerRadius(cornerScalar(n.Corner), w, h)
		c.out.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%s" height="%s" rx="%s" ry="%s" transform="%s" %s/>`,
			fmtF(w), fmtF(h), fmtF(radius), fmtF(radius), matrixAttr(world), attrs))
		return
	}
	corners := boxCorners(w, h)
	d := "M"
	for i, pt := range corners {
		x, y := world.Apply(pt[0], pt[1])
		if i > 0 {
			d += " L"
		}
		d += fmt.Sprintf("%s,%s", fmtF(x), fmtF(y))
	}
	d += " Z"
	c.out.WriteString(fmt.Sprintf(`<path d="%s" %s/>`, d, attrs))
}

// axisAligned reports whether the transform's tested edges stay
// horizontal/vertical within 1e-2.
func axisAligned(t scene.Transform) bool {
	return math.Abs(t.B) < 1e-2 && math.Abs(t.C) < 1e-2
}

func cornerScalar(c scene.CornerRadius) float64 {
	if c.Uniform {
		return c.Radius
	}
	max := c.PerCorner[0]
	for _, r := range c.PerCorner[1:] {
		if r > max {
			max = r
		}
	}
	return max
}

func strokeCapJoinAttrs(s scene.Stroke) string {
	out := ""
	switch s.Cap {
	case scene.CapRound:
		out += ` stroke-linecap="round"`
	case scene.CapSquare:
		out += ` stroke-linecap="square"`
	default:
		out += ` stroke-linecap="butt"`
	}
	switch s.Join {
	case scene.JoinRound:
		out += ` stroke-linejoin="round"`
	case scene.JoinBevel:
		out += ` stroke-linejoin="bevel"`
	default:
		out += ` stroke-linejoin="miter"`
	}
	if len(s.DashPattern) > 0 {
		out += fmt.Sprintf(` stroke-dasharray="%s"`, joinFloats(s.DashPattern))
	}
	return out
}

func joinFloats(fs []float64) string {
	s := ""
	for i, f := range fs {
		if i > 0 {
			s += ","
		}
		s += fmtF(f)
	}
	return s
}

func (c *renderCtx) emitEllipse(n *scene.Node, world scene.Transform) {
	rx, ry := n.Size.W/2, n.Size.H/2
	cx, cy := world.Apply(rx, ry)
	if paint, ok := firstVisiblePaint(n.FillPaints); ok && c.opts.IncludeFills {
		if fillAttr, ok := c.paintAttr(paint); ok {
			c.out.WriteString(fmt.Sprintf(`<ellipse cx="%s" cy="%s" rx="%s" ry="%s" fill="%s" fill-opacity="%s"/>`,
				fmtF(cx), fmtF(cy), fmtF(rx), fmtF(ry), fillAttr, fmtF(paint.Opacity*n.Opacity)))
		}
	}
	if paint, ok := firstVisiblePaint(n.StrokePaints); ok && c.opts.IncludeStrokes {
		if fillAttr, ok := c.paintAttr(paint); ok {
			c.out.WriteString(fmt.Sprintf(`<ellipse cx="%s" cy="%s" rx="%s" ry="%s" fill="none" stroke="%s" stroke-width="%s"/>`,
				fmtF(cx), fmtF(cy), fmtF(rx), fmtF(ry), fillAttr, fmtF(n.Stroke.Weight)))
		}
	}
}

// firstDecodablePath returns the first geometry ref that decodes
// successfully into a non-empty path, resolved against the node's own
// size for vector-network bounds checking.
func (c *renderCtx) firstDecodablePath(refs []scene.GeometryRef, w, h float64) (geom.Path, bool) {
	for _, ref := range refs {
		p, ok := c.decodeGeometryRef(ref, w, h)
		if ok && len(p) > 1 {
			return p, true
		}
	}
	return nil, false
}

func (c *renderCtx) decodeGeometryRef(ref scene.GeometryRef, normW, normH float64) (geom.Path, bool) {
	if len(ref.VectorNet) > 0 {
		return geom.DecodeVectorNetwork(ref.VectorNet, geom.VectorNetworkOptions{NormalizedW: normW, NormalizedH: normH}), true
	}
	if len(ref.Inline) > 0 {
		return geom.DecodePathCommands(ref.Inline), true
	}
	if ref.HasBlob {
		if ref.BlobIndex < 0 || ref.BlobIndex >= len(c.blobs) {
			return nil, false
		}
		return geom.DecodePathCommands(c.blobs[ref.BlobIndex]), true
	}
	return nil, false
}

// emitVectorNode handles filled vector paths: choose the first path that
// successfully decodes, derive a per-axis scale from its command bounds
// against the node's target size, then compose into the world transform.
func (c *renderCtx) emitVectorNode(n *scene.Node, world scene.Transform) {
	if c.opts.IncludeFills {
		if p, ok := c.firstDecodablePath(n.FillGeometry, n.Size.W, n.Size.H); ok {
			if paint, ok := firstVisiblePaint(n.FillPaints); ok {
				if fillAttr, ok := c.paintAttr(paint); ok {
					d, rule := c.pathToD(p, n, scaledTransform(p, n.Size.W, n.Size.H, world))
					c.out.WriteString(fmt.Sprintf(`<path d="%s" fill="%s" fill-opacity="%s" fill-rule="%s"/>`,
						d, fillAttr, fmtF(paint.Opacity*n.Opacity), rule))
				}
			}
		}
	}
	if c.opts.IncludeStrokes && len(n.StrokePaints) > 0 {
		c.emitStrokeOnlyPath(n, world)
	}
}

func ref0(refs []scene.GeometryRef) scene.GeometryRef {
	if len(refs) == 0 {
		return scene.GeometryRef{}
	}
	return refs[0]
}

// scaledTransform derives targetSize/commandBounds per axis and composes
// translate(-bounds)+scale into world, per §4.5's vector-path rule.
func scaledTransform(p geom.Path, targetW, targetH float64, world scene.Transform) scene.Transform {
	b := p.Bounds()
	if b.Empty() || b.Width() == 0 || b.Height() == 0 {
		return world
	}
	sx, sy := targetW/b.Width(), targetH/b.Height()
	local := scene.Translation(-b.MinX, -b.MinY)
	scaleT := scene.Transform{A: sx, D: sy}
	return world.Mul(scaleT.Mul(local))
}

// pathToD renders a decoded Path through a transform into an SVG path
// data string, along with its fill rule.
func (c *renderCtx) pathToD(p geom.Path, n *scene.Node, world scene.Transform) (string, string) {
	rule := "nonzero"
	if ref := ref0(n.FillGeometry); ref.EvenOdd {
		rule = "evenodd"
	}
	return transformPathToD(p, world), rule
}

func transformPathToD(p geom.Path, world scene.Transform) string {
	d := ""
	for _, op := range p {
		switch o := op.(type) {
		case geom.MoveTo:
			x, y := world.Apply(float64(o.X)/64, float64(o.Y)/64)
			d += fmt.Sprintf("M%s,%s ", fmtF(x), fmtF(y))
		case geom.LineTo:
			x, y := world.Apply(float64(o.X)/64, float64(o.Y)/64)
			d += fmt.Sprintf("L%s,%s ", fmtF(x), fmtF(y))
		case geom.QuadTo:
			cx, cy := world.Apply(float64(o[0].X)/64, float64(o[0].Y)/64)
			x, y := world.Apply(float64(o[1].X)/64, float64(o[1].Y)/64)
			d += fmt.Sprintf("Q%s,%s,%s,%s ", fmtF(cx), fmtF(cy), fmtF(x), fmtF(y))
		case geom.CubicTo:
			c1x, c1y := world.Apply(float64(o[0].X)/64, float64(o[0].Y)/64)
			c2x, c2y := world.Apply(float64(o[1].X)/64, float64(o[1].Y)/64)
			x, y := world.Apply(float64(o[2].X)/64, float64(o[2].Y)/64)
			d += fmt.Sprintf("C%s,%s,%s,%s,%s,%s ", fmtF(c1x), fmtF(c1y), fmtF(c2x), fmtF(c2y), fmtF(x), fmtF(y))
		case geom.Close:
			d += "Z "
		}
	}
	return d
}

// emitStrokeOnlyPath handles stroked geometry without a fill: prefer
// inline vector network, fall back to blob, fall back to a single
// diagonal line.
func (c *renderCtx) emitStrokeOnlyPath(n *scene.Node, world scene.Transform) {
	if !c.opts.IncludeStrokes {
		return
	}
	paint, ok := firstVisiblePaint(n.StrokePaints)
	if !ok {
		return
	}
	strokeAttr, ok := c.paintAttr(paint)
	if !ok {
		return
	}

	var p geom.Path
	decoded := false
	for _, ref := range n.StrokeGeometry {
		if pp, ok := c.decodeGeometryRef(ref, n.Size.W, n.Size.H); ok && len(pp) > 1 {
			p = pp
			decoded = true
			break
		}
	}
	if !decoded {
		p = geom.DecodeVectorNetwork(nil, geom.VectorNetworkOptions{NormalizedW: n.Size.W, NormalizedH: n.Size.H})
	}
	if len(p) == 0 {
		return
	}

	d := transformPathToD(p, world)
	clip := ""
	if n.Stroke.Align == scene.AlignInside {
		// respect strokeAlign=INSIDE by clipping to the node's own geometry box
		clipId := c.nextClipId()
		c.writeRectClip(clipId, n.Size.W, n.Size.H, world)
		clip = fmt.Sprintf(` clip-path="url(#%s)"`, clipId)
	}
	c.out.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="%s" stroke-opacity="%s" stroke-width="%s"%s%s/>`,
		d, strokeAttr, fmtF(paint.Opacity*n.Opacity), fmtF(n.Stroke.Weight), strokeCapJoinAttrs(n.Stroke), clip))
}

func firstVisiblePaint(paints []scene.Paint) (scene.Paint, bool) {
	for _, p := range paints {
		if p.Visible {
			return p, true
		}
	}
	return scene.Paint{}, false
}

// paintAttr resolves a Paint to a fill/stroke color attribute. It reports
// false for recognized-but-unrenderable variants (gradients, video, emoji),
// recording an UnrenderableFeature warning itself, and for image paints
// when IncludeImages is off or the image cannot be embedded; the caller
// skips the paint.
func (c *renderCtx) paintAttr(p scene.Paint) (string, bool) {
	switch p.Kind {
	case scene.PaintSolid:
		return rgbaToCSS(p.Color), true
	case scene.PaintImage:
		if !c.opts.IncludeImages {
			return "", false
		}
		return c.imagePatternAttr(p)
	case scene.PaintUnrenderable:
		c.warn(ferrors.UnrenderableFeature, "unsupported paint variant %s skipped", p.Variant)
		return "", false
	default:
		return "", false
	}
}

func rgbaToCSS(c scene.RGBA) string {
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", int(c.R*255), int(c.G*255), int(c.B*255), fmtF(c.A))
}
