package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/oderaine/figread/ferrors"
	"github.com/oderaine/figread/geom"
	"github.com/oderaine/figread/scene"
)

// Result is the renderer's output: the emitted markup string, the content
// box dimensions it was framed to, and any non-fatal warnings collected
// along the way.
type Result struct {
	Output   string
	Width    float64
	Height   float64
	Warnings []ferrors.Warning
}

// Images maps a lower-cased hex hash to raw image bytes, consulted for
// IMAGE paints.
type Images map[string][]byte

// Blobs is the document's geometry blob array, indexed by GeometryRef.BlobIndex.
type Blobs [][]byte

type renderCtx struct {
	opts     Options
	images   Images
	blobs    Blobs
	warnings []ferrors.Warning

	filterCounter int
	clipCounter   int

	originX, originY float64
	out              strings.Builder
}

func (c *renderCtx) warn(kind ferrors.Kind, format string, args ...any) {
	c.warnings = append(c.warnings, ferrors.Warnf(kind, format, args...))
}

func (c *renderCtx) nextFilterId() string {
	c.filterCounter++
	return fmt.Sprintf("f%d", c.filterCounter)
}

func (c *renderCtx) nextClipId() string {
	c.clipCounter++
	return fmt.Sprintf("c%d", c.clipCounter)
}

// Render is the markup entry point: two passes (bounds, then render) over
// the subtree rooted at root.
func Render(root *scene.Node, images Images, blobs Blobs, opts Options) (Result, error) {
	if root == nil {
		return Result{Warnings: []ferrors.Warning{ferrors.Warnf(ferrors.NotFound, "no bounds")}}, nil
	}

	bounds := computeBounds(root, scene.Identity, opts.MaxDepth)
	if bounds == nil {
		return Result{Warnings: []ferrors.Warning{ferrors.Warnf(ferrors.NotFound, "no bounds")}}, nil
	}

	c := &renderCtx{opts: opts, images: images, blobs: blobs, originX: bounds.MinX, originY: bounds.MinY}

	width := bounds.Width() * opts.Scale
	height := bounds.Height() * opts.Scale

	c.writeHeader(width, height)
	if opts.Background != "" {
		c.writeBackground(bounds.Width(), bounds.Height())
	}
	c.renderNode(root, scene.Identity, 0, true)
	c.writeFooter()

	return Result{
		Output:   c.out.String(),
		Width:    width,
		Height:   height,
		Warnings: c.warnings,
	}, nil
}

// Bounds computes the same content-box bounds Render uses, exposed for
// alternate output drivers (render/raster) that need to size their own
// canvas before walking the tree themselves.
func Bounds(root *scene.Node, maxDepth int) (originX, originY, width, height float64, ok bool) {
	if root == nil {
		return 0, 0, 0, 0, false
	}
	b := computeBounds(root, scene.Identity, maxDepth)
	if b == nil {
		return 0, 0, 0, 0, false
	}
	return b.MinX, b.MinY, b.Width(), b.Height(), true
}

// computeBounds composes transforms top-down and unions every non-
// DOCUMENT/CANVAS node's transformed four corners.
func computeBounds(n *scene.Node, parentWorld scene.Transform, maxDepth int) *geom.Rect {
	r := geom.EmptyRect()
	var walk func(n *scene.Node, world scene.Transform, depth int)
	walk = func(n *scene.Node, world scene.Transform, depth int) {
		if !n.Visible || depth > maxDepth {
			return
		}
		local := localTransform(n)
		world = world.Mul(local)
		if n.Type != scene.TypeDocument && n.Type != scene.TypeCanvas {
			corners := boxCorners(n.Size.W, n.Size.H)
			for _, pt := range corners {
				x, y := world.Apply(pt[0], pt[1])
				r = unionPoint(r, x, y)
			}
		}
		for _, c := range n.Children {
			walk(c, world, depth+1)
		}
	}
	walk(n, parentWorld, 0)
	if r.Empty() {
		return nil
	}
	return &r
}

func unionPoint(r geom.Rect, x, y float64) geom.Rect {
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

func boxCorners(w, h float64) [4][2]float64 {
	return [4][2]float64{{0, 0}, {w, 0}, {w, h}, {0, h}}
}

// localTransform returns the node's explicit matrix if present, else a
// pure translation by (x, y).
func localTransform(n *scene.Node) scene.Transform {
	if n.Transform != nil {
		return *n.Transform
	}
	return scene.Translation(n.X, n.Y)
}

func (c *renderCtx) toOutputSpace(world scene.Transform) scene.Transform {
	return scene.Translation(-c.originX, -c.originY).Mul(world)
}

// renderNode implements the render pass' per-node algorithm (§4.5,
// numbered steps 1-6).
func (c *renderCtx) renderNode(n *scene.Node, parentWorld scene.Transform, depth int, isRoot bool) {
	if !n.Visible || depth > c.opts.MaxDepth {
		return
	}
	world := parentWorld.Mul(localTransform(n))
	outWorld := c.toOutputSpace(world)

	needsFilter := c.opts.IncludeShadows && hasVisibleEffect(n.Effects)
	var filterId string
	if needsFilter {
		filterId = c.nextFilterId()
		c.writeFilterDef(filterId, n.Effects)
		c.out.WriteString(fmt.Sprintf(`<g filter="url(#%s)">`, filterId))
	}

	if n.Type != scene.TypeDocument && n.Type != scene.TypeCanvas {
		c.emitPrimitive(n, outWorld)
	}

	c.renderChildren(n, world, depth)

	if needsFilter {
		c.out.WriteString("</g>")
	}
}

// renderChildren applies mask-scope and clipsContent grouping before
// descending into children.
func (c *renderCtx) renderChildren(n *scene.Node, world scene.Transform, depth int) {
	children := n.Children
	if n.Type == scene.TypeInstance && len(children) == 0 {
		children = c.resolveInstanceChildren(n, world)
	}
	if len(children) == 0 {
		return
	}

	clipId := ""
	if n.ClipsContent {
		clipId = c.nextClipId()
		c.writeRectClip(clipId, n.Size.W, n.Size.H, c.toOutputSpace(world))
		c.out.WriteString(fmt.Sprintf(`<g clip-path="url(#%s)">`, clipId))
	}

	i := 0
	for i < len(children) {
		child := children[i]
		if child.IsMask {
			maskId := c.nextClipId()
			c.writeMaskClip(maskId, child, world)
			c.out.WriteString(fmt.Sprintf(`<g clip-path="url(#%s)">`, maskId))
			i++
			for i < len(children) && !children[i].IsMask {
				c.renderNode(children[i], world, depth+1, false)
				i++
			}
			c.out.WriteString("</g>")
			continue
		}
		c.renderNode(child, world, depth+1, false)
		i++
	}

	if clipId != "" {
		c.out.WriteString("</g>")
	}
}

// resolveInstanceChildren looks up a pre-resolved expansion from the
// options' node indices, falling back to a stacked-text layout when no
// index is present or resolution yields nothing.
func (c *renderCtx) resolveInstanceChildren(n *scene.Node, world scene.Transform) []*scene.Node {
	key := n.Id.String()
	if c.opts.NodeIndex != nil {
		if r, ok := c.opts.NodeIndex[key]; ok && len(r.Children) > 0 {
			return r.Children
		}
	}
	if c.opts.RawNodeIndex != nil {
		if r, ok := c.opts.RawNodeIndex[key]; ok && len(r.Children) > 0 {
			return r.Children
		}
	}
	var texts []string
	if c.opts.NodeIndex != nil {
		if r, ok := c.opts.NodeIndex[key]; ok {
			texts = r.Texts
		}
	}
	if len(texts) == 0 {
		for _, entry := range n.Component.SymbolOverrides {
			if entry.Fields.Characters != nil && *entry.Fields.Characters != "" {
				texts = append(texts, *entry.Fields.Characters)
			}
		}
	}
	if len(texts) == 0 {
		return nil
	}
	const defaultLineHeight = 16.0
	out := make([]*scene.Node, 0, len(texts))
	for i, t := range texts {
		tn := &scene.Node{
			Type:    scene.TypeText,
			Visible: true,
			Y:       float64(i) * defaultLineHeight,
		}
		tn.Text.Characters = t
		out = append(out, tn)
	}
	return out
}

func hasVisibleEffect(effects []scene.Effect) bool {
	for _, e := range effects {
		if e.Visible {
			return true
		}
	}
	return false
}

// clampCornerRadius clamps a uniform radius to min(w,h)/2 so stadiums stay
// stadium-shaped instead of tapering, per §4.5's rectangle rule.
func clampCornerRadius(r, w, h float64) float64 {
	max := math.Min(w, h) / 2
	if r > max {
		return max
	}
	return r
}
