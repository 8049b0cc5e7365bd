package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/oderaine/figread/ferrors"
	"github.com/oderaine/figread/scene"
)

// imagePatternAttr resolves an IMAGE paint's hash against the caller-
// supplied image set, sniffs its container format from the leading magic
// bytes, and returns a fill referencing a fresh <pattern> wrapping a
// base64 data URI. Reports false (with a warning) when the hash is
// missing from the image set or the bytes carry no recognized magic.
func (c *renderCtx) imagePatternAttr(p scene.Paint) (string, bool) {
	data, ok := c.images[p.ImageHash]
	if !ok {
		c.warn(ferrors.NotFound, "image hash %s not present in document", p.ImageHash)
		return "", false
	}
	mime, ok := sniffImageMime(data)
	if !ok {
		c.warn(ferrors.UnrenderableFeature, "image hash %s has unrecognized container format", p.ImageHash)
		return "", false
	}

	c.filterCounter++ // patterns share the deterministic counter space with filters
	id := fmt.Sprintf("img%d", c.filterCounter)
	uri := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))

	if p.ScaleMode == scene.ScaleTile {
		// Tiling repeats the image at its own pixel size instead of
		// stretching it across the fill's bounding box, so the pattern
		// needs the decoded natural width/height to size each tile.
		if w, h, ok := naturalSize(data); ok {
			c.out.WriteString(fmt.Sprintf(
				`<pattern id="%s" patternUnits="userSpaceOnUse" width="%d" height="%d"><image href="%s" width="%d" height="%d"/></pattern>`,
				id, w, h, uri, w, h))
			return fmt.Sprintf("url(#%s)", id), true
		}
		c.warn(ferrors.UnrenderableFeature, "image hash %s has no readable dimensions to tile, falling back to fill scaling", p.ImageHash)
	}

	preserve := "xMidYMid slice"
	if p.ScaleMode == scene.ScaleFit {
		preserve = "xMidYMid meet"
	} else if p.ScaleMode == scene.ScaleStretch {
		preserve = "none"
	}
	c.out.WriteString(fmt.Sprintf(
		`<pattern id="%s" patternUnits="objectBoundingBox" width="1" height="1"><image href="%s" width="1" height="1" preserveAspectRatio="%s"/></pattern>`,
		id, uri, preserve))
	return fmt.Sprintf("url(#%s)", id), true
}

// naturalSize decodes just enough of an image container to read its pixel
// dimensions, without allocating a full pixel buffer.
func naturalSize(data []byte) (w, h int, ok bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

var imageMagics = []struct {
	prefix []byte
	mime   string
}{
	{[]byte{0x89, 'P', 'N', 'G'}, "image/png"},
	{[]byte{0xFF, 0xD8, 0xFF}, "image/jpeg"},
	{[]byte("GIF87a"), "image/gif"},
	{[]byte("GIF89a"), "image/gif"},
	{[]byte("RIFF"), "image/webp"}, // narrowed further below
}

func sniffImageMime(data []byte) (string, bool) {
	for _, m := range imageMagics {
		if len(data) < len(m.prefix) {
			continue
		}
		match := true
		for i, b := range m.prefix {
			if data[i] != b {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		if m.mime == "image/webp" {
			if len(data) < 12 || string(data[8:12]) != "WEBP" {
				continue
			}
		}
		return m.mime, true
	}
	return "", false
}
