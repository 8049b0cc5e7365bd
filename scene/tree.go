package scene

import (
	"fmt"
	"sort"

	"github.com/oderaine/figread/ferrors"
)

// NodeChange is one flat record of the document payload: a fully decoded
// node plus its raw parent linkage. BuildTree consumes an ordered slice of
// these (document order) and reconstructs the parent-linked tree.
type NodeChange struct {
	Node       Node
	ParentGuid Id
	Position   string
	HasParent  bool
}

// ById indexes every materialized node by its Id.
type ById map[Id]*Node

// ByIdToPath maps every Id onto its "/"-joined ancestor-id path, root
// first, the node's own Id last.
type ByIdToPath map[Id]string

// BuildTree materializes nodeChanges into a parent-linked tree rooted at
// the unique DOCUMENT-typed node. Children within a parent are ordered by
// their position token, compared as plain Unicode-codepoint strings (the
// source tool's exact tie-breaking behavior for non-ASCII tokens is an
// open question, see DESIGN.md).
func BuildTree(nodeChanges []NodeChange) (*Node, ById, ByIdToPath, []ferrors.Warning, error) {
	var warnings []ferrors.Warning

	byId := make(ById, len(nodeChanges))
	nodes := make([]*Node, 0, len(nodeChanges))
	parentOf := make(map[Id]Id, len(nodeChanges))
	positionOf := make(map[Id]string, len(nodeChanges))
	hasParent := make(map[Id]bool, len(nodeChanges))

	for _, nc := range nodeChanges {
		n := nc.Node // copy: this record owns its own Node value
		node := &n
		node.Children = nil
		node.Parent = nil
		byId[node.Id] = node
		nodes = append(nodes, node)
		if nc.HasParent {
			node.ParentGuid = nc.ParentGuid
			node.Position = nc.Position
			parentOf[node.Id] = nc.ParentGuid
			positionOf[node.Id] = nc.Position
			hasParent[node.Id] = true
		}
	}

	childrenOf := make(map[Id][]*Node)
	var root *Node
	for _, node := range nodes {
		if node.Type == TypeDocument {
			if root != nil {
				return nil, nil, nil, warnings, ferrors.NewError(ferrors.SchemaMismatch, fmt.Errorf("more than one DOCUMENT node (%s and %s)", root.Id, node.Id))
			}
			root = node
			continue
		}
		if !hasParent[node.Id] {
			warnings = append(warnings, ferrors.Warnf(ferrors.Corrupt, "orphan node %s dropped: no parent", node.Id))
			continue
		}
		pid := parentOf[node.Id]
		childrenOf[pid] = append(childrenOf[pid], node)
	}

	if root == nil {
		return nil, nil, nil, warnings, ferrors.NewError(ferrors.SchemaMismatch, fmt.Errorf("no DOCUMENT node present"))
	}

	for pid, kids := range childrenOf {
		sort.SliceStable(kids, func(i, j int) bool {
			return positionOf[kids[i].Id] < positionOf[kids[j].Id]
		})
		childrenOf[pid] = kids
	}

	byPath := make(ByIdToPath, len(nodes))
	var wire func(parent *Node)
	wire = func(parent *Node) {
		kids := childrenOf[parent.Id]
		parent.Children = kids
		for _, k := range kids {
			k.Parent = parent
			wire(k)
		}
	}
	wire(root)

	var buildPaths func(n *Node, prefix string)
	buildPaths = func(n *Node, prefix string) {
		p := n.Id.String()
		if prefix != "" {
			p = prefix + "/" + p
		}
		byPath[n.Id] = p
		for _, c := range n.Children {
			buildPaths(c, p)
		}
	}
	buildPaths(root, "")

	// Nodes wired as children but never reached from root (cyclic parent
	// links, or a parent id that never materialized) are also orphans.
	if len(byPath) != len(nodes) {
		for _, node := range nodes {
			// nodes with no parent at all were already warned about above
			if _, ok := byPath[node.Id]; !ok && hasParent[node.Id] {
				warnings = append(warnings, ferrors.Warnf(ferrors.Corrupt, "orphan node %s dropped: parent %s unreachable from root", node.Id, parentOf[node.Id]))
			}
		}
	}

	return root, byId, byPath, warnings, nil
}
