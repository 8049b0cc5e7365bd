package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/oderaine/figread/scene"
)

// emitText lays out one <text> element per baseline, splitting Characters
// on the recorded [firstCharacter, endCharacter) ranges and trimming
// trailing whitespace from each span. A node with no derived baselines
// falls back to splitting the raw text on newlines and advancing by
// lineHeightPx or fontSize*1.2.
func (c *renderCtx) emitText(n *scene.Node, world scene.Transform) {
	paint, ok := firstVisiblePaint(n.FillPaints)
	fillAttr := "rgba(0,0,0,1)"
	opacity := n.Opacity
	if ok {
		if attr, ok := c.paintAttr(paint); ok {
			fillAttr = attr
			opacity *= paint.Opacity
		}
	}

	anchor := textAnchor(n.Text.AlignHorizontal)
	xShift := 0.0
	switch n.Text.AlignHorizontal {
	case "CENTER":
		xShift = n.Size.W / 2
	case "RIGHT":
		xShift = n.Size.W
	}

	c.out.WriteString(fmt.Sprintf(`<g font-family="%s" font-size="%s" fill="%s" fill-opacity="%s" text-anchor="%s">`,
		html.EscapeString(n.Text.FontName), fmtF(n.Text.FontSize), fillAttr, fmtF(opacity), anchor))

	if len(n.Text.Baselines) > 0 {
		runes := []rune(n.Text.Characters)
		y := 0.0
		for _, b := range n.Text.Baselines {
			line := strings.TrimRight(sliceRunes(runes, b.FirstCharacter, b.EndCharacter), " \t\r\n")
			y += lineHeightOrDefault(b.LineHeight, n.Text.FontSize)
			x, ty := world.Apply(xShift, y)
			c.out.WriteString(fmt.Sprintf(`<text x="%s" y="%s">%s</text>`, fmtF(x), fmtF(ty), html.EscapeString(line)))
		}
	} else {
		lineHeight := lineHeightOrDefault(n.Text.LineHeightPx, n.Text.FontSize)
		y := 0.0
		for _, line := range strings.Split(n.Text.Characters, "\n") {
			y += lineHeight
			x, ty := world.Apply(xShift, y)
			c.out.WriteString(fmt.Sprintf(`<text x="%s" y="%s">%s</text>`, fmtF(x), fmtF(ty), html.EscapeString(line)))
		}
	}
	c.out.WriteString("</g>")
}

func sliceRunes(runes []rune, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}

func lineHeightOrDefault(lh, fontSize float64) float64 {
	if lh > 0 {
		return lh
	}
	if fontSize > 0 {
		return fontSize * 1.2
	}
	return 16.0
}

func textAnchor(align string) string {
	switch align {
	case "CENTER":
		return "middle"
	case "RIGHT":
		return "end"
	default:
		return "start"
	}
}
