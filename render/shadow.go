package render

import (
	"fmt"

	"github.com/oderaine/figread/ferrors"
	"github.com/oderaine/figread/scene"
)

// writeFilterDef composes one <filter> for a node's effect stack. Only the
// first visible drop shadow and first visible inner shadow are rendered;
// additional shadows of either kind are reported as warnings rather than
// stacked, per the renderer's effect-composition rule. Blur effects apply
// directly to the running result in stack order.
func (c *renderCtx) writeFilterDef(id string, effects []scene.Effect) {
	c.out.WriteString(fmt.Sprintf(`<filter id="%s" x="-50%%" y="-50%%" width="200%%" height="200%%">`, id))

	prevOut := "SourceGraphic"
	sawDrop, sawInner := false, false
	for i, e := range effects {
		if !e.Visible {
			continue
		}
		switch e.Kind {
		case scene.EffectDropShadow:
			if sawDrop {
				c.warn(ferrors.UnrenderableFeature, "additional drop shadow effect ignored")
				continue
			}
			sawDrop = true
			prevOut = c.writeDropShadow(i, e, prevOut)
		case scene.EffectInnerShadow:
			if sawInner {
				c.warn(ferrors.UnrenderableFeature, "additional inner shadow effect ignored")
				continue
			}
			sawInner = true
			prevOut = c.writeInnerShadow(i, e, prevOut)
		case scene.EffectLayerBlur:
			blurred := fmt.Sprintf("blur%d", i)
			c.out.WriteString(fmt.Sprintf(`<feGaussianBlur in="%s" stdDeviation="%s" result="%s"/>`,
				prevOut, fmtF(e.Radius/2), blurred))
			prevOut = blurred
		case scene.EffectBackgroundBlur:
			// Composited against layers beneath this node, which the flat
			// output has no notion of; approximated with a self-blur.
			blurred := fmt.Sprintf("bgblur%d", i)
			c.out.WriteString(fmt.Sprintf(`<feGaussianBlur in="%s" stdDeviation="%s" result="%s"/>`,
				prevOut, fmtF(e.Radius/2), blurred))
			prevOut = blurred
		}
	}
	c.out.WriteString("</filter>")
}

// writeDropShadow uses the built-in drop-shadow primitive when spread is
// zero; otherwise composes the full alpha/dilate/offset/blur/flood chain,
// merged above the running output.
func (c *renderCtx) writeDropShadow(i int, e scene.Effect, in string) string {
	if e.Spread == 0 {
		out := fmt.Sprintf("dsBuiltin%d", i)
		c.out.WriteString(fmt.Sprintf(`<feDropShadow in="%s" dx="%s" dy="%s" stdDeviation="%s" flood-color="%s" flood-opacity="%s" result="%s"/>`,
			in, fmtF(e.OffsetX), fmtF(e.OffsetY), fmtF(e.Radius/2), rgbaToCSS(e.Color), fmtF(e.Color.A), out))
		return out
	}

	alpha := fmt.Sprintf("dsAlpha%d", i)
	c.out.WriteString(fmt.Sprintf(`<feColorMatrix in="%s" type="matrix" values="0 0 0 0 0  0 0 0 0 0  0 0 0 0 0  0 0 0 1 0" result="%s"/>`, in, alpha))

	spread := fmt.Sprintf("dsSpread%d", i)
	op := "dilate"
	if e.Spread < 0 {
		op = "erode"
	}
	c.out.WriteString(fmt.Sprintf(`<feMorphology in="%s" operator="%s" radius="%s" result="%s"/>`,
		alpha, op, fmtF(absF(e.Spread)), spread))

	offset := fmt.Sprintf("dsOffset%d", i)
	c.out.WriteString(fmt.Sprintf(`<feOffset in="%s" dx="%s" dy="%s" result="%s"/>`,
		spread, fmtF(e.OffsetX), fmtF(e.OffsetY), offset))

	blurred := fmt.Sprintf("dsBlur%d", i)
	c.out.WriteString(fmt.Sprintf(`<feGaussianBlur in="%s" stdDeviation="%s" result="%s"/>`,
		offset, fmtF(e.Radius/2), blurred))

	flood := fmt.Sprintf("dsFlood%d", i)
	c.out.WriteString(fmt.Sprintf(`<feFlood flood-color="%s" flood-opacity="%s" result="%s"/>`,
		rgbaToCSS(e.Color), fmtF(e.Color.A), flood))
	tinted := fmt.Sprintf("dsTint%d", i)
	c.out.WriteString(fmt.Sprintf(`<feComposite in="%s" in2="%s" operator="in" result="%s"/>`, flood, blurred, tinted))

	merged := fmt.Sprintf("dsMerge%d", i)
	c.out.WriteString(fmt.Sprintf(`<feMerge result="%s"><feMergeNode in="%s"/><feMergeNode in="%s"/></feMerge>`,
		merged, tinted, in))
	return merged
}

// writeInnerShadow mirrors the drop-shadow chain but composites the
// shadow only where the source alpha is opaque, and merges the source
// graphic beneath the clipped shadow.
func (c *renderCtx) writeInnerShadow(i int, e scene.Effect, in string) string {
	alpha := fmt.Sprintf("isAlpha%d", i)
	c.out.WriteString(fmt.Sprintf(`<feColorMatrix in="%s" type="matrix" values="0 0 0 0 0  0 0 0 0 0  0 0 0 0 0  0 0 0 -1 1" result="%s"/>`, in, alpha))

	offset := fmt.Sprintf("isOffset%d", i)
	c.out.WriteString(fmt.Sprintf(`<feOffset in="%s" dx="%s" dy="%s" result="%s"/>`,
		alpha, fmtF(e.OffsetX), fmtF(e.OffsetY), offset))

	blurred := fmt.Sprintf("isBlur%d", i)
	c.out.WriteString(fmt.Sprintf(`<feGaussianBlur in="%s" stdDeviation="%s" result="%s"/>`,
		offset, fmtF(e.Radius/2), blurred))

	flood := fmt.Sprintf("isFlood%d", i)
	c.out.WriteString(fmt.Sprintf(`<feFlood flood-color="%s" flood-opacity="%s" result="%s"/>`,
		rgbaToCSS(e.Color), fmtF(e.Color.A), flood))
	tinted := fmt.Sprintf("isTint%d", i)
	c.out.WriteString(fmt.Sprintf(`<feComposite in="%s" in2="%s" operator="in" result="%s"/>`, flood, blurred, tinted))
	clipped := fmt.Sprintf("isClip%d", i)
	c.out.WriteString(fmt.Sprintf(`<feComposite in="%s" in2="%s" operator="in" result="%s"/>`, tinted, in, clipped))

	merged := fmt.Sprintf("isMerge%d", i)
	c.out.WriteString(fmt.Sprintf(`<feMerge result="%s"><feMergeNode in="%s"/><feMergeNode in="%s"/></feMerge>`,
		merged, in, clipped))
	return merged
}

func absF(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
