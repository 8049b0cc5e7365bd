package raster

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oderaine/figread/ferrors"
	"github.com/oderaine/figread/render"
	"github.com/oderaine/figread/scene"
)

func solidRect(w, h float64, c scene.RGBA) *scene.Node {
	return &scene.Node{
		Type:    scene.TypeRectangle,
		Visible: true,
		Opacity: 1,
		Size:    scene.Size{W: w, H: h},
		FillPaints: []scene.Paint{
			{Kind: scene.PaintSolid, Visible: true, Opacity: 1, Color: c},
		},
	}
}

func TestRasterNilRootReturnsNoBoundsWarning(t *testing.T) {
	img, warnings, err := Render(nil, nil, render.DefaultOptions())
	require.NoError(t, err)
	assert.Nil(t, img)
	require.Len(t, warnings, 1)
	assert.Equal(t, ferrors.NotFound, warnings[0].Kind)
}

func TestRasterFillsSolidRectangle(t *testing.T) {
	root := solidRect(10, 10, scene.RGBA{R: 1, G: 0, B: 0, A: 1})
	img, warnings, err := Render(root, nil, render.DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Empty(t, warnings)

	center := img.RGBAAt(5, 5)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, center)
}

func TestRasterSkipsUnfilledUnrenderablePaint(t *testing.T) {
	root := &scene.Node{
		Type: scene.TypeRectangle, Visible: true, Opacity: 1, Size: scene.Size{W: 10, H: 10},
		FillPaints: []scene.Paint{{Kind: scene.PaintUnrenderable, Visible: true, Opacity: 1, Variant: "GRADIENT_LINEAR"}},
	}
	img, warnings, err := Render(root, nil, render.DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, img)
	require.Len(t, warnings, 1)
	assert.Equal(t, ferrors.UnrenderableFeature, warnings[0].Kind)
	assert.Contains(t, warnings[0].Message, "GRADIENT_LINEAR")
	assert.Equal(t, color.RGBA{}, img.RGBAAt(5, 5))
}

func TestRasterWarnsOnSkippedStrokesAndEffects(t *testing.T) {
	root := solidRect(10, 10, scene.RGBA{R: 0, G: 1, B: 0, A: 1})
	root.StrokePaints = []scene.Paint{{Kind: scene.PaintSolid, Visible: true, Opacity: 1, Color: scene.RGBA{A: 1}}}
	_, warnings, err := Render(root, nil, render.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, ferrors.UnrenderableFeature, warnings[0].Kind)
}

func TestRasterAppliesScale(t *testing.T) {
	root := solidRect(10, 10, scene.RGBA{R: 1, G: 1, B: 1, A: 1})
	opts := render.DefaultOptions()
	opts.Scale = 2
	img, _, err := Render(root, nil, opts)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
}
