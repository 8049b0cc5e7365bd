package scene

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/oderaine/figread/ferrors"
)

// pathToNodeId maps a symbol-relative guidPath (">"-joined hex-encoded
// override keys) onto the node id it identifies within one symbol subtree.
type pathToNodeId map[string]Id

// buildOverrideKeyPaths walks the symbol subtree, carrying a stack of each
// node's OverrideKey, and records every descendant's cumulative ">"-joined
// path. Paths are relative to the symbol root: the root's own key is not a
// segment.
func buildOverrideKeyPaths(root *Node) pathToNodeId {
	out := make(pathToNodeId)
	var walk func(n *Node, stack []string)
	walk = func(n *Node, stack []string) {
		key := hex.EncodeToString(n.OverrideKey)
		path := append(append([]string{}, stack...), key)
		out[strings.Join(path, ">")] = n.Id
		for _, c := range n.Children {
			walk(c, path)
		}
	}
	for _, c := range root.Children {
		walk(c, nil)
	}
	return out
}

// mergeFields applies the non-nil/non-empty members of src onto dst,
// per-field, so a later merge only overwrites what it actually sets.
func mergeFields(dst *OverrideFields, src OverrideFields) {
	if src.Characters != nil {
		dst.Characters = src.Characters
	}
	if len(src.FillPaints) > 0 {
		dst.FillPaints = src.FillPaints
	}
	if len(src.StrokePaints) > 0 {
		dst.StrokePaints = src.StrokePaints
	}
	if src.CornerRadius != nil {
		dst.CornerRadius = src.CornerRadius
	}
	if src.Size != nil {
		dst.Size = src.Size
	}
	if src.Transform != nil {
		dst.Transform = src.Transform
	}
	if src.FontName != nil {
		dst.FontName = src.FontName
	}
	if src.FontSize != nil {
		dst.FontSize = src.FontSize
	}
	if src.LineHeightPx != nil {
		dst.LineHeightPx = src.LineHeightPx
	}
	if src.TextAutoResize != nil {
		dst.TextAutoResize = src.TextAutoResize
	}
	if len(src.Baselines) > 0 {
		dst.Baselines = src.Baselines
	}
	if len(src.FillGeometry) > 0 {
		dst.FillGeometry = src.FillGeometry
	}
	if len(src.StrokeGeometry) > 0 {
		dst.StrokeGeometry = src.StrokeGeometry
	}
	if src.Visible != nil {
		dst.Visible = src.Visible
	}
	if src.OverrideSymbolId != nil {
		dst.OverrideSymbolId = src.OverrideSymbolId
	}
}

// applyFields writes the resolved OverrideFields onto a cloned node.
func applyFields(n *Node, f OverrideFields) {
	if f.Characters != nil {
		n.Text.Characters = *f.Characters
	}
	if f.FillPaints != nil {
		n.FillPaints = f.FillPaints
	}
	if f.StrokePaints != nil {
		n.StrokePaints = f.StrokePaints
	}
	if f.CornerRadius != nil {
		n.Corner = *f.CornerRadius
	}
	if f.Size != nil {
		n.Size = *f.Size
	}
	if f.Transform != nil {
		n.Transform = f.Transform
	}
	if f.FontName != nil {
		n.Text.FontName = *f.FontName
	}
	if f.FontSize != nil {
		n.Text.FontSize = *f.FontSize
	}
	if f.LineHeightPx != nil {
		n.Text.LineHeightPx = *f.LineHeightPx
	}
	if f.TextAutoResize != nil {
		n.Text.AutoResize = *f.TextAutoResize
	}
	if f.Baselines != nil {
		n.Text.Baselines = f.Baselines
	}
	if f.FillGeometry != nil {
		n.FillGeometry = f.FillGeometry
	}
	if f.StrokeGeometry != nil {
		n.StrokeGeometry = f.StrokeGeometry
	}
	if f.Visible != nil {
		n.Visible = *f.Visible
	}
	if f.OverrideSymbolId != nil {
		n.Component.SymbolId = *f.OverrideSymbolId
	}
}

// cloneSubtree deep-copies a symbol subtree into a fresh arena, so the
// symbol's own tree stays read-only for future instances.
func cloneSubtree(n *Node, parent *Node) *Node {
	c := *n
	c.Parent = parent
	c.Children = make([]*Node, len(n.Children))
	for i, k := range n.Children {
		c.Children[i] = cloneSubtree(k, &c)
	}
	return &c
}

// ResolveInstance expands an INSTANCE node's symbol subtree with its
// overrides applied, returning a cloned tree ready to replace the
// instance's empty Children on query. visited guards against symbol
// self-reference cycles across nested instance expansion.
func ResolveInstance(instance *Node, byId ById, visited map[Id]bool) (*Node, []ferrors.Warning, error) {
	var warnings []ferrors.Warning
	symbolId := instance.Component.SymbolId
	symbol, ok := byId[symbolId]
	if !ok {
		return nil, warnings, ferrors.NewError(ferrors.NotFound, fmt.Errorf("symbol %s not found", symbolId))
	}
	if visited[symbolId] {
		warnings = append(warnings, ferrors.Warnf(ferrors.Corrupt, "cyclic instance->symbol->instance reference at %s, breaking cycle", symbolId))
		return nil, warnings, nil
	}
	visited = markVisited(visited, symbolId)

	traceId := uuid.NewString()
	log.Debug().Str("trace", traceId).Str("instance", instance.Id.String()).Str("symbol", symbolId.String()).
		Int("overrides", len(instance.Component.SymbolOverrides)).Msg("scene: expanding instance")

	paths := buildOverrideKeyPaths(symbol)

	overridesByNodeId := make(map[Id]OverrideFields)
	// Nested-override precedence: entries are applied in list order, so a
	// later entry (deeper, or a duplicate path) always wins the merge.
	for _, entry := range instance.Component.SymbolOverrides {
		id, ok := paths[entry.GuidPath]
		if !ok {
			warnings = append(warnings, ferrors.Warnf(ferrors.NotFound, "override guidPath %q not found in symbol %s", entry.GuidPath, symbolId))
			continue
		}
		cur := overridesByNodeId[id]
		mergeFields(&cur, entry.Fields)
		overridesByNodeId[id] = cur

		applyPropAssignments(entry.ComponentPropAssignments, symbol, overridesByNodeId)
	}

	applyPropAssignments(instance.Component.ComponentPropAssignments, symbol, overridesByNodeId)

	clone := cloneSubtree(symbol, instance.Parent)
	clone.Id = symbol.Id
	clone.OverrideKey = nil

	var apply func(n *Node)
	apply = func(n *Node) {
		if f, ok := overridesByNodeId[n.Id]; ok {
			applyFields(n, f)
		}
		if n.Type == TypeInstance && n.Id != instance.Id {
			expanded, w, err := ResolveInstance(n, byId, visited)
			warnings = append(warnings, w...)
			if err == nil && expanded != nil {
				n.Children = expanded.Children
			}
		}
		for _, c := range n.Children {
			apply(c)
		}
	}
	apply(clone)

	return clone, warnings, nil
}

func markVisited(visited map[Id]bool, id Id) map[Id]bool {
	out := make(map[Id]bool, len(visited)+1)
	for k, v := range visited {
		out[k] = v
	}
	out[id] = true
	return out
}

// applyPropAssignments walks the symbol subtree looking for nodes whose
// componentPropRefs mention one of the assigned defIds, mapping each
// assignment's value onto the referenced field.
func applyPropAssignments(assignments []PropAssignment, symbol *Node, overridesByNodeId map[Id]OverrideFields) {
	if len(assignments) == 0 {
		return
	}
	byDef := make(map[string]string, len(assignments))
	for _, a := range assignments {
		byDef[a.DefId] = a.Value
	}
	symbol.Walk(func(n *Node) bool {
		for _, ref := range n.Component.ComponentPropRefs {
			value, ok := byDef[ref.DefId]
			if !ok {
				continue
			}
			cur := overridesByNodeId[n.Id]
			switch ref.Field {
			case PropFieldTextData:
				v := value
				cur.Characters = &v
			case PropFieldVisible:
				v := value == "true" || value == "1"
				cur.Visible = &v
			case PropFieldOverriddenSymbolId:
				if id, err := ParseId(value); err == nil {
					cur.OverrideSymbolId = &id
				}
			}
			overridesByNodeId[n.Id] = cur
		}
		return true
	})
}
