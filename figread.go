// Package figread ties the archive reader, schema decoder, tree builder,
// and renderer into a single top-level entry point: open a document, query
// its resolved scene graph, and render any subtree to vector markup.
package figread

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/oderaine/figread/ferrors"
	"github.com/oderaine/figread/internal/archive"
	"github.com/oderaine/figread/kiwi"
	"github.com/oderaine/figread/render"
	"github.com/oderaine/figread/scene"
)

// Document is a decoded design archive: its resolved scene tree, index,
// image and geometry-blob stores, and any warnings collected while
// decoding it. It is immutable once returned by Open.
type Document struct {
	root     *scene.Node
	byId     scene.ById
	images   map[string][]byte
	blobs    [][]byte
	metadata map[string]string
	version  uint32
	warnings []ferrors.Warning
}

// Open reads a design archive from disk and decodes it end to end: archive
// extraction, kiwi schema/payload decode, and scene tree construction.
// Fatal taxonomy kinds (§7) abort with an error; everything else is
// collected onto Document.Warnings.
func Open(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("figread: reading %q: %w", path, err)
	}
	return OpenBytes(raw)
}

// OpenBytes decodes an already-read archive, for callers that source the
// bytes from somewhere other than the local filesystem.
func OpenBytes(raw []byte) (*Document, error) {
	var warnings []ferrors.Warning

	doc, w, err := archive.OpenDocument(raw)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, w...)
	log.Debug().Int("size", len(raw)).Int("images", len(doc.Images)).Msg("figread: archive extracted")

	container, err := kiwi.DecodeContainer(doc.Canvas)
	if err != nil {
		return nil, err
	}
	log.Debug().Uint32("version", container.Version).Int("schemaBytes", len(container.SchemaBytes)).
		Int("payloadBytes", len(container.PayloadBytes)).Msg("figread: kiwi container decoded")

	schema, err := kiwi.DecodeSchema(container.SchemaBytes)
	if err != nil {
		return nil, err
	}
	compiled, err := schema.Compile()
	if err != nil {
		return nil, err
	}
	rootName, err := schema.RootName()
	if err != nil {
		return nil, err
	}

	payload, err := compiled.Decode(rootName, container.PayloadBytes)
	if err != nil {
		return nil, err
	}

	changes, w, err := nodeChangesFromValue(payload)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, w...)

	blobs := blobsFromValue(payload)

	root, byId, _, w, err := scene.BuildTree(changes)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, w...)
	log.Debug().Int("nodes", len(byId)).Msg("figread: scene tree built")

	return &Document{
		root:     root,
		byId:     byId,
		images:   doc.Images,
		blobs:    blobs,
		metadata: doc.Metadata,
		version:  container.Version,
		warnings: warnings,
	}, nil
}

// blobsFromValue extracts the document's geometry blob array, tolerating
// either a sequence of raw byte arrays or a sequence of {bytes: ...} records.
func blobsFromValue(root kiwi.Value) [][]byte {
	rec, ok := root.(kiwi.Record)
	if !ok {
		return nil
	}
	seq := firstSequence(rec, "blobs", "geometryBlobs")
	out := make([][]byte, 0, len(seq))
	for _, elem := range seq {
		switch v := elem.(type) {
		case kiwi.Bytes:
			out = append(out, []byte(v))
		case kiwi.Record:
			out = append(out, bytesOr(v, "bytes"))
		default:
			out = append(out, nil)
		}
	}
	return out
}

// Resolve looks up a node by its "session:local" id string.
func (d *Document) Resolve(id string) (*scene.Node, bool) {
	pid, err := scene.ParseId(id)
	if err != nil {
		return nil, false
	}
	n, ok := d.byId[pid]
	return n, ok
}

// Pages returns the document's top-level CANVAS nodes, in tree order.
func (d *Document) Pages() []*scene.Node {
	if d.root == nil {
		return nil
	}
	var pages []*scene.Node
	for _, c := range d.root.Children {
		if c.Type == scene.TypeCanvas {
			pages = append(pages, c)
		}
	}
	return pages
}

// Find returns every node whose Type matches typ (case-insensitive schema
// tag, e.g. "FRAME") and whose Name contains substr, walking the whole
// tree. An empty typ matches every type; an empty substr matches every name.
func (d *Document) Find(typ, substr string) []*scene.Node {
	if d.root == nil {
		return nil
	}
	wantType, hasType := scene.Type(0), typ != ""
	if hasType {
		wantType = scene.ParseType(strings.ToUpper(typ))
	}
	var out []*scene.Node
	d.root.Walk(func(n *scene.Node) bool {
		if hasType && n.Type != wantType {
			return true
		}
		if substr != "" && !strings.Contains(n.Name, substr) {
			return true
		}
		out = append(out, n)
		return true
	})
	return out
}

// Image returns the raw bytes stored under an image hash, as referenced by
// a PaintImage's ImageHash field.
func (d *Document) Image(hash string) ([]byte, bool) {
	b, ok := d.images[strings.ToLower(hash)]
	return b, ok
}

// Metadata returns the archive's meta.json contents, or an empty map if
// the entry was absent or malformed.
func (d *Document) Metadata() map[string]string { return d.metadata }

// Version returns the kiwi container's format version.
func (d *Document) Version() uint32 { return d.version }

// Warnings returns every non-fatal issue collected while opening the
// document.
func (d *Document) Warnings() []ferrors.Warning { return d.warnings }

// Render resolves rootID to a node and renders its subtree, pre-resolving
// any INSTANCE descendants via scene.ResolveInstance so the renderer never
// has to see an unexpanded component instance.
func (d *Document) Render(rootID string, opts render.Options) (render.Result, error) {
	root, ok := d.Resolve(rootID)
	if !ok {
		return render.Result{}, ferrors.NewError(ferrors.NotFound, fmt.Errorf("figread: node %q not found", rootID))
	}

	index := make(map[string]*render.ResolvedInstance)
	var resolveWarnings []ferrors.Warning
	root.Walk(func(n *scene.Node) bool {
		if n.Type != scene.TypeInstance || n.Component.SymbolId.Zero() {
			return true
		}
		texts := stackedTextFallback(n)
		expanded, w, err := scene.ResolveInstance(n, d.byId, nil)
		resolveWarnings = append(resolveWarnings, w...)
		if err != nil {
			resolveWarnings = append(resolveWarnings, ferrors.Warnf(ferrors.NotFound, "instance %s: %v", n.Id, err))
			index[n.Id.String()] = &render.ResolvedInstance{Texts: texts}
			return true
		}
		var children []*scene.Node
		if expanded != nil {
			children = expanded.Children
		}
		index[n.Id.String()] = &render.ResolvedInstance{Children: children, Texts: texts}
		return true
	})

	if opts.NodeIndex == nil {
		opts.NodeIndex = index
	} else {
		for k, v := range index {
			opts.NodeIndex[k] = v
		}
	}

	res, err := render.Render(root, d.images, d.blobs, opts)
	res.Warnings = append(resolveWarnings, res.Warnings...)
	return res, err
}

// stackedTextFallback collects the text content an instance's own override
// entries carry, for the renderer's stacked-text layout when symbol
// resolution yields no children.
func stackedTextFallback(n *scene.Node) []string {
	var texts []string
	for _, entry := range n.Component.SymbolOverrides {
		if entry.Fields.Characters != nil && *entry.Fields.Characters != "" {
			texts = append(texts, *entry.Fields.Characters)
		}
	}
	return texts
}
