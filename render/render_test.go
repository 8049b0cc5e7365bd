package render

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oderaine/figread/ferrors"
	"github.com/oderaine/figread/scene"
)

// singleMoveToBlob encodes a binary path-command stream containing exactly
// one move-to and nothing else.
func singleMoveToBlob(x, y float32) []byte {
	buf := make([]byte, 9)
	buf[0] = 1 // move-to
	binary.LittleEndian.PutUint32(buf[1:5], math.Float32bits(x))
	binary.LittleEndian.PutUint32(buf[5:9], math.Float32bits(y))
	return buf
}

func rect(w, h, x, y float64) *scene.Node {
	return &scene.Node{
		Type:    scene.TypeRectangle,
		Visible: true,
		Opacity: 1,
		X:       x,
		Y:       y,
		Size:    scene.Size{W: w, H: h},
		FillPaints: []scene.Paint{
			{Kind: scene.PaintSolid, Visible: true, Opacity: 1, Color: scene.RGBA{R: 1, G: 0, B: 0, A: 1}},
		},
	}
}

func TestRenderNilRootHasNoBoundsWarning(t *testing.T) {
	res, err := Render(nil, nil, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Output)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "no bounds", res.Warnings[0].Message)
}

func TestRenderEmptyInvisibleSubtreeHasNoBounds(t *testing.T) {
	root := &scene.Node{Type: scene.TypeFrame, Visible: false, Size: scene.Size{W: 10, H: 10}}
	res, err := Render(root, nil, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Output)
	require.Len(t, res.Warnings, 1)
}

// TestRenderSimpleRectangleProducesRect exercises the axis-aligned
// primitive path and confirms the reported box matches the node's size
// (P4: emitted primitive bounds are contained in the reported box).
func TestRenderSimpleRectangleProducesRect(t *testing.T) {
	root := rect(100, 50, 0, 0)
	res, err := Render(root, nil, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, res.Output, "<rect")
	assert.InDelta(t, 100, res.Width, 1e-6)
	assert.InDelta(t, 50, res.Height, 1e-6)
	assert.Empty(t, res.Warnings)
}

// TestRenderIsDeterministic exercises P5: two renders of the same input
// produce byte-identical output.
func TestRenderIsDeterministic(t *testing.T) {
	root := rect(20, 20, 0, 0)
	root.Effects = []scene.Effect{{Kind: scene.EffectDropShadow, Visible: true, Radius: 4, Color: scene.RGBA{A: 0.5}}}
	opts := DefaultOptions()
	res1, err1 := Render(root, nil, nil, opts)
	res2, err2 := Render(root, nil, nil, opts)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, res1.Output, res2.Output)
}

func TestRenderCornerRadiusClampedToStadium(t *testing.T) {
	root := rect(20, 10, 0, 0)
	root.Corner = scene.CornerRadius{Uniform: true, Radius: 999}
	res, err := Render(root, nil, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, res.Output, `rx="5"`)
}

func TestRenderMaskWithNoGeometryDegradesToBoundingBoxClip(t *testing.T) {
	root := &scene.Node{
		Type: scene.TypeFrame, Visible: true, Opacity: 1, Size: scene.Size{W: 40, H: 40},
		Children: []*scene.Node{
			{Type: scene.TypeRectangle, Visible: true, Opacity: 1, IsMask: true, Size: scene.Size{W: 10, H: 10}},
			rect(40, 40, 0, 0),
		},
	}
	res, err := Render(root, nil, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, res.Output, "<clipPath")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, ferrors.UnrenderableFeature, res.Warnings[0].Kind)
}

func TestRenderSkipsInvisibleNode(t *testing.T) {
	root := rect(10, 10, 0, 0)
	root.Visible = false
	res, err := Render(root, nil, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Output)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "no bounds", res.Warnings[0].Message)
}

func TestRenderClipsContentWrapsChildren(t *testing.T) {
	child := rect(100, 100, 0, 0)
	root := &scene.Node{
		Type: scene.TypeFrame, Visible: true, Opacity: 1, Size: scene.Size{W: 10, H: 10},
		ClipsContent: true,
		Children:     []*scene.Node{child},
	}
	res, err := Render(root, nil, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, res.Output, "clip-path")
}

func TestRenderUnrenderablePaintSkippedWithWarning(t *testing.T) {
	root := &scene.Node{
		Type: scene.TypeRectangle, Visible: true, Opacity: 1, Size: scene.Size{W: 10, H: 10},
		FillPaints: []scene.Paint{{Kind: scene.PaintUnrenderable, Visible: true, Opacity: 1, Variant: "GRADIENT_LINEAR"}},
	}
	res, err := Render(root, nil, nil, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Message, "GRADIENT_LINEAR")
	assert.False(t, strings.Contains(res.Output, "fill=\"rgba"))
}

func TestRenderInstanceFallsBackToStackedText(t *testing.T) {
	inst := &scene.Node{Type: scene.TypeInstance, Visible: true, Opacity: 1, Size: scene.Size{W: 50, H: 50}}
	opts := DefaultOptions()
	opts.NodeIndex = map[string]*ResolvedInstance{
		inst.Id.String(): {Texts: []string{"one", "two"}},
	}
	res, err := Render(inst, nil, nil, opts)
	require.NoError(t, err)
	assert.Contains(t, res.Output, "one")
	assert.Contains(t, res.Output, "two")
}

// TestRenderSingleMoveToPathEmitsNoPrimitive exercises the named boundary
// case: a fill geometry blob containing only a move-to, no drawing command,
// emits no primitive and records no warning.
func TestRenderSingleMoveToPathEmitsNoPrimitive(t *testing.T) {
	root := &scene.Node{
		Type: scene.TypeVector, Visible: true, Opacity: 1, Size: scene.Size{W: 10, H: 10},
		FillPaints: []scene.Paint{
			{Kind: scene.PaintSolid, Visible: true, Opacity: 1, Color: scene.RGBA{R: 1, G: 0, B: 0, A: 1}},
		},
		FillGeometry: []scene.GeometryRef{{Inline: singleMoveToBlob(0, 0)}},
	}
	res, err := Render(root, nil, nil, DefaultOptions())
	require.NoError(t, err)
	assert.NotContains(t, res.Output, "<path")
	assert.Empty(t, res.Warnings)
}

func TestParseOptionsRejectsUnknownKey(t *testing.T) {
	_, err := ParseOptions(map[string]any{"bogus": true})
	require.Error(t, err)
}

func TestParseOptionsOverlaysDefaults(t *testing.T) {
	opts, err := ParseOptions(map[string]any{"scale": 2.0, "includeImages": true})
	require.NoError(t, err)
	assert.Equal(t, 2.0, opts.Scale)
	assert.True(t, opts.IncludeImages)
	assert.True(t, opts.IncludeText)
}
