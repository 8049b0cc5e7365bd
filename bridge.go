package figread

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/oderaine/figread/ferrors"
	"github.com/oderaine/figread/kiwi"
	"github.com/oderaine/figread/scene"
)

// nodeChangesFromValue walks the decoded root message and extracts its
// flat node-change list, tolerating schema variants that name the field
// differently by trying a short list of known aliases (the wire schema
// is user-supplied per-document and only its shape, not its exact field
// names, is fixed by the format).
func nodeChangesFromValue(root kiwi.Value) ([]scene.NodeChange, []ferrors.Warning, error) {
	rec, ok := root.(kiwi.Record)
	if !ok {
		return nil, nil, ferrors.NewError(ferrors.SchemaMismatch, errors.New("decoded root is not a record"))
	}
	seq := firstSequence(rec, "nodeChanges", "nodeChangesList", "changes")
	out := make([]scene.NodeChange, 0, len(seq))
	var warnings []ferrors.Warning
	for _, elem := range seq {
		nrec, ok := elem.(kiwi.Record)
		if !ok {
			warnings = append(warnings, ferrors.Warnf(ferrors.Corrupt, "node change element is not a record, skipped"))
			continue
		}
		nc, w := nodeChangeFromRecord(nrec)
		warnings = append(warnings, w...)
		out = append(out, nc)
	}
	return out, warnings, nil
}

func nodeChangeFromRecord(r kiwi.Record) (scene.NodeChange, []ferrors.Warning) {
	var warnings []ferrors.Warning
	n := scene.Node{
		Id:        idFromRecord(r, "guid"),
		Type:      scene.ParseType(str(r, "type")),
		Name:      str(r, "name"),
		Visible:   boolOr(r, "visible", true),
		Opacity:   floatOr(r, "opacity", 1),
		BlendMode: strOr(r, "blendMode", "NORMAL"),
		X:         floatOr(r, "x", 0),
		Y:         floatOr(r, "y", 0),
		Size:      sizeField(r),
	}
	if m, ok := matrixField(r, "transform"); ok {
		n.Transform = &m
	}
	n.FillPaints = paintsField(r, "fillPaints")
	n.StrokePaints = paintsField(r, "strokePaints")
	n.Stroke = strokeField(r)
	n.Corner = cornerField(r)
	n.Effects = effectsField(r, "effects")
	n.Text = textField(r)
	n.FillGeometry = geometryField(r, "fillGeometry")
	n.StrokeGeometry = geometryField(r, "strokeGeometry")
	n.IsMask = boolOr(r, "isMask", false)
	n.ClipsContent = boolOr(r, "clipsContent", false)
	n.OverrideKey = bytesOr(r, "overrideKey")

	if symbolRec, ok := recordField(r, "symbolData"); ok {
		n.Component.SymbolId = idFromRecord(symbolRec, "symbolId")
	}
	n.Component.IsSymbol = n.Type == scene.TypeComponent || n.Type == scene.TypeComponentSet
	n.Component.SymbolOverrides = overrideEntriesField(r, "symbolOverrides")
	n.Component.ComponentPropAssignments = propAssignmentsField(r, "componentPropAssignments")
	n.Component.ComponentPropRefs = propRefsField(r, "componentPropRefs")

	nc := scene.NodeChange{Node: n}
	if pi, ok := recordField(r, "parentIndex"); ok {
		nc.HasParent = true
		nc.ParentGuid = idFromRecord(pi, "guid")
		nc.Position = str(pi, "position")
	}
	return nc, warnings
}

func sizeField(r kiwi.Record) scene.Size {
	if sz, ok := recordField(r, "size"); ok {
		return scene.Size{W: floatOr(sz, "x", 0), H: floatOr(sz, "y", 0)}
	}
	return scene.Size{}
}

func idFromRecord(r kiwi.Record, field string) scene.Id {
	sub, ok := recordField(r, field)
	if !ok {
		return scene.Id{}
	}
	return scene.Id{Session: uint32(uintOr(sub, "sessionID", 0)), Local: uint32(uintOr(sub, "localID", 0))}
}

func matrixField(r kiwi.Record, field string) (scene.Transform, bool) {
	sub, ok := recordField(r, field)
	if !ok {
		return scene.Transform{}, false
	}
	return scene.Transform{
		A: floatOr(sub, "m00", 1), C: floatOr(sub, "m01", 0), E: floatOr(sub, "m02", 0),
		B: floatOr(sub, "m10", 0), D: floatOr(sub, "m11", 1), F: floatOr(sub, "m12", 0),
	}, true
}

func paintsField(r kiwi.Record, field string) []scene.Paint {
	seq := firstSequence(r, field)
	out := make([]scene.Paint, 0, len(seq))
	for _, elem := range seq {
		prec, ok := elem.(kiwi.Record)
		if !ok {
			continue
		}
		out = append(out, paintFromRecord(prec))
	}
	return out
}

func paintFromRecord(r kiwi.Record) scene.Paint {
	kind := str(r, "type")
	p := scene.Paint{Visible: boolOr(r, "visible", true), Opacity: floatOr(r, "opacity", 1)}
	switch kind {
	case "SOLID":
		p.Kind = scene.PaintSolid
		p.Color = colorField(r, "color")
	case "IMAGE":
		p.Kind = scene.PaintImage
		p.ImageHash = hex.EncodeToString(bytesOr(r, "image"))
		p.ScaleMode = scaleModeFromString(str(r, "scaleMode"))
	default:
		p.Kind = scene.PaintUnrenderable
		p.Variant = kind
	}
	return p
}

func scaleModeFromString(s string) scene.ScaleMode {
	switch s {
	case "FIT":
		return scene.ScaleFit
	case "TILE":
		return scene.ScaleTile
	case "STRETCH":
		return scene.ScaleStretch
	default:
		return scene.ScaleFill
	}
}

func colorField(r kiwi.Record, field string) scene.RGBA {
	sub, ok := recordField(r, field)
	if !ok {
		return scene.RGBA{A: 1}
	}
	return scene.RGBA{R: floatOr(sub, "r", 0), G: floatOr(sub, "g", 0), B: floatOr(sub, "b", 0), A: floatOr(sub, "a", 1)}
}

func strokeField(r kiwi.Record) scene.Stroke {
	return scene.Stroke{
		Weight: floatOr(r, "strokeWeight", 0),
		Cap:    strokeCapFromString(str(r, "strokeCap")),
		Join:   strokeJoinFromString(str(r, "strokeJoin")),
		Align:  strokeAlignFromString(strOr(r, "strokeAlign", "CENTER")),
	}
}

func strokeCapFromString(s string) scene.StrokeCap {
	switch s {
	case "ROUND":
		return scene.CapRound
	case "SQUARE":
		return scene.CapSquare
	case "ARROW_LINES":
		return scene.CapArrowLines
	case "ARROW_EQUILATERAL":
		return scene.CapArrowEquilateral
	default:
		return scene.CapNone
	}
}

func strokeJoinFromString(s string) scene.StrokeJoin {
	switch s {
	case "ROUND":
		return scene.JoinRound
	case "BEVEL":
		return scene.JoinBevel
	default:
		return scene.JoinMiter
	}
}

func strokeAlignFromString(s string) scene.StrokeAlign {
	switch s {
	case "INSIDE":
		return scene.AlignInside
	case "OUTSIDE":
		return scene.AlignOutside
	default:
		return scene.AlignCenter
	}
}

func cornerField(r kiwi.Record) scene.CornerRadius {
	if seq := firstSequence(r, "rectangleCornerRadii"); len(seq) == 4 {
		var out [4]float64
		for i, v := range seq {
			out[i] = floatValue(v)
		}
		return scene.CornerRadius{PerCorner: out}
	}
	return scene.CornerRadius{Uniform: true, Radius: floatOr(r, "cornerRadius", 0)}
}

func effectsField(r kiwi.Record, field string) []scene.Effect {
	seq := firstSequence(r, field)
	out := make([]scene.Effect, 0, len(seq))
	for _, elem := range seq {
		erec, ok := elem.(kiwi.Record)
		if !ok {
			continue
		}
		out = append(out, effectFromRecord(erec))
	}
	return out
}

func effectFromRecord(r kiwi.Record) scene.Effect {
	kind := scene.EffectDropShadow
	switch str(r, "type") {
	case "INNER_SHADOW":
		kind = scene.EffectInnerShadow
	case "LAYER_BLUR":
		kind = scene.EffectLayerBlur
	case "BACKGROUND_BLUR":
		kind = scene.EffectBackgroundBlur
	}
	return scene.Effect{
		Kind:    kind,
		Visible: boolOr(r, "visible", true),
		Radius:  floatOr(r, "radius", 0),
		Spread:  floatOr(r, "spread", 0),
		Color:   colorField(r, "color"),
		OffsetX: floatOr(r, "offsetX", 0),
		OffsetY: floatOr(r, "offsetY", 0),
	}
}

func textField(r kiwi.Record) scene.TextStyle {
	t := scene.TextStyle{
		Characters:      str(r, "characters"),
		FontSize:        floatOr(r, "fontSize", 0),
		LineHeightPx:    floatOr(r, "lineHeightPx", 0),
		AlignHorizontal: strOr(r, "textAlignHorizontal", "LEFT"),
		AutoResize:      str(r, "textAutoResize"),
	}
	if fontRec, ok := recordField(r, "fontName"); ok {
		t.FontName = str(fontRec, "family")
	}
	if derived, ok := recordField(r, "derivedTextData"); ok {
		for _, elem := range firstSequence(derived, "baselines") {
			brec, ok := elem.(kiwi.Record)
			if !ok {
				continue
			}
			t.Baselines = append(t.Baselines, scene.Baseline{
				FirstCharacter: int(uintOr(brec, "firstCharacter", 0)),
				EndCharacter:   int(uintOr(brec, "endCharacter", 0)),
				LineHeight:     floatOr(brec, "lineHeight", 0),
			})
		}
	}
	return t
}

func geometryField(r kiwi.Record, field string) []scene.GeometryRef {
	seq := firstSequence(r, field)
	out := make([]scene.GeometryRef, 0, len(seq))
	for _, elem := range seq {
		grec, ok := elem.(kiwi.Record)
		if !ok {
			continue
		}
		ref := scene.GeometryRef{EvenOdd: strOr(grec, "windingRule", "NONZERO") == "EVENODD"}
		if vn := bytesOr(grec, "vectorNetworkBlob"); len(vn) > 0 {
			ref.VectorNet = vn
		} else if inline := bytesOr(grec, "commandsBlob"); len(inline) > 0 {
			ref.Inline = inline
		} else if idx, ok := intField(grec, "geometryBlobIndex"); ok {
			ref.HasBlob = true
			ref.BlobIndex = idx
		}
		out = append(out, ref)
	}
	return out
}

func overrideEntriesField(r kiwi.Record, field string) []scene.OverrideEntry {
	seq := firstSequence(r, field)
	out := make([]scene.OverrideEntry, 0, len(seq))
	for _, elem := range seq {
		erec, ok := elem.(kiwi.Record)
		if !ok {
			continue
		}
		out = append(out, scene.OverrideEntry{
			GuidPath:                 guidPathField(erec),
			Fields:                   overrideFieldsFromRecord(erec),
			ComponentPropAssignments: propAssignmentsField(erec, "componentPropAssignments"),
		})
	}
	return out
}

func guidPathField(r kiwi.Record) string {
	seq := firstSequence(r, "guidPath")
	segs := make([]string, 0, len(seq))
	for _, elem := range seq {
		segs = append(segs, hex.EncodeToString(bytesValue(elem)))
	}
	return strings.Join(segs, ">")
}

func overrideFieldsFromRecord(r kiwi.Record) scene.OverrideFields {
	var f scene.OverrideFields
	if v, ok := r.Get("characters"); ok {
		s := strValue(v)
		f.Characters = &s
	}
	if _, ok := r.Get("fillPaints"); ok {
		f.FillPaints = paintsField(r, "fillPaints")
	}
	if _, ok := r.Get("strokePaints"); ok {
		f.StrokePaints = paintsField(r, "strokePaints")
	}
	if _, ok := r.Get("cornerRadius"); ok {
		c := cornerField(r)
		f.CornerRadius = &c
	}
	if _, ok := recordField(r, "size"); ok {
		s := sizeField(r)
		f.Size = &s
	}
	if m, ok := matrixField(r, "transform"); ok {
		f.Transform = &m
	}
	if fontRec, ok := recordField(r, "fontName"); ok {
		name := str(fontRec, "family")
		f.FontName = &name
	}
	if v, ok := r.Get("fontSize"); ok {
		s := floatValue(v)
		f.FontSize = &s
	}
	if v, ok := r.Get("lineHeightPx"); ok {
		s := floatValue(v)
		f.LineHeightPx = &s
	}
	if v, ok := r.Get("textAutoResize"); ok {
		s := strValue(v)
		f.TextAutoResize = &s
	}
	if _, ok := r.Get("fillGeometry"); ok {
		f.FillGeometry = geometryField(r, "fillGeometry")
	}
	if _, ok := r.Get("strokeGeometry"); ok {
		f.StrokeGeometry = geometryField(r, "strokeGeometry")
	}
	if v, ok := r.Get("visible"); ok {
		b := boolValue(v)
		f.Visible = &b
	}
	if _, ok := recordField(r, "overrideSymbolId"); ok {
		id := idFromRecord(r, "overrideSymbolId")
		f.OverrideSymbolId = &id
	}
	return f
}

func propAssignmentsField(r kiwi.Record, field string) []scene.PropAssignment {
	seq := firstSequence(r, field)
	out := make([]scene.PropAssignment, 0, len(seq))
	for _, elem := range seq {
		prec, ok := elem.(kiwi.Record)
		if !ok {
			continue
		}
		out = append(out, scene.PropAssignment{DefId: str(prec, "defId"), Value: str(prec, "value")})
	}
	return out
}

func propRefsField(r kiwi.Record, field string) []scene.PropRef {
	seq := firstSequence(r, field)
	out := make([]scene.PropRef, 0, len(seq))
	for _, elem := range seq {
		prec, ok := elem.(kiwi.Record)
		if !ok {
			continue
		}
		out = append(out, scene.PropRef{DefId: str(prec, "defId"), Field: propFieldFromString(str(prec, "componentPropNodeField"))})
	}
	return out
}

func propFieldFromString(s string) scene.PropField {
	switch s {
	case "VISIBLE":
		return scene.PropFieldVisible
	case "OVERRIDDEN_SYMBOL_ID":
		return scene.PropFieldOverriddenSymbolId
	default:
		return scene.PropFieldTextData
	}
}
