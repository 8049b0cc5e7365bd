// Package render implements the scene renderer: transform/clip/mask/effect
// composition over a resolved scene.Node tree, geometry decoding via geom,
// and emission of deterministic, well-formed vector markup.
package render

import (
	"fmt"

	"github.com/oderaine/figread/ferrors"
	"github.com/oderaine/figread/scene"
)

// Options is the renderer's option surface (§4.5). Every field has a
// documented default; ParseOptions rejects unknown keys as a programmer
// error rather than silently ignoring them.
type Options struct {
	MaxDepth       int
	IncludeText    bool
	IncludeFills   bool
	IncludeStrokes bool
	IncludeImages  bool
	IncludeShadows bool
	Background     string
	Scale          float64

	NodeIndex    map[string]*ResolvedInstance
	RawNodeIndex map[string]*ResolvedInstance
}

// ResolvedInstance is the pre-resolved expansion of an INSTANCE node,
// threaded in by the caller (figread wires scene.ResolveInstance results
// here) so the renderer never has to import scene's override machinery.
type ResolvedInstance struct {
	Children []*scene.Node
	Texts    []string // stacked-text fallback content, one per textual override
}

// DefaultOptions returns the documented defaults from §4.5's table.
func DefaultOptions() Options {
	return Options{
		MaxDepth:       200,
		IncludeText:    true,
		IncludeFills:   true,
		IncludeStrokes: true,
		IncludeImages:  false,
		IncludeShadows: true,
		Background:     "",
		Scale:          1,
	}
}

var knownOptionKeys = map[string]bool{
	"maxDepth": true, "includeText": true, "includeFills": true,
	"includeStrokes": true, "includeImages": true, "includeShadows": true,
	"background": true, "scale": true, "nodeIndex": true, "rawNodeIndex": true,
}

// ParseOptions overlays raw onto DefaultOptions, rejecting any key not in
// the recognized option surface.
func ParseOptions(raw map[string]any) (Options, error) {
	opts := DefaultOptions()
	for k, v := range raw {
		if !knownOptionKeys[k] {
			// Unknown option keys are a programmer error, not a recognized-
			// but-unsupported feature, so this is fatal rather than the
			// always-non-fatal UnrenderableFeature kind.
			return opts, ferrors.NewError(ferrors.SchemaMismatch, fmt.Errorf("render: unknown option key %q", k))
		}
		switch k {
		case "maxDepth":
			if n, ok := toInt(v); ok {
				opts.MaxDepth = n
			}
		case "includeText":
			if b, ok := v.(bool); ok {
				opts.IncludeText = b
			}
		case "includeFills":
			if b, ok := v.(bool); ok {
				opts.IncludeFills = b
			}
		case "includeStrokes":
			if b, ok := v.(bool); ok {
				opts.IncludeStrokes = b
			}
		case "includeImages":
			if b, ok := v.(bool); ok {
				opts.IncludeImages = b
			}
		case "includeShadows":
			if b, ok := v.(bool); ok {
				opts.IncludeShadows = b
			}
		case "background":
			if s, ok := v.(string); ok {
				opts.Background = s
			}
		case "scale":
			if f, ok := toFloat(v); ok {
				opts.Scale = f
			}
		}
	}
	return opts, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
