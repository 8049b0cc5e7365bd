package scene

// Type is the closed enumeration of scene-node kinds. Unknown type tags
// found in a document decode to TypeOther rather than failing the parse.
type Type uint8

const (
	TypeOther Type = iota
	TypeDocument
	TypeCanvas
	TypeFrame
	TypeGroup
	TypeComponent
	TypeComponentSet
	TypeInstance
	TypeVector
	TypeLine
	TypeEllipse
	TypeRectangle
	TypeRegularPolygon
	TypeStar
	TypeBooleanOperation
	TypeText
	TypeSlice
)

var typeNames = map[string]Type{
	"DOCUMENT":            TypeDocument,
	"CANVAS":              TypeCanvas,
	"FRAME":               TypeFrame,
	"GROUP":               TypeGroup,
	"COMPONENT":           TypeComponent,
	"COMPONENT_SET":       TypeComponentSet,
	"INSTANCE":            TypeInstance,
	"VECTOR":              TypeVector,
	"LINE":                TypeLine,
	"ELLIPSE":             TypeEllipse,
	"RECTANGLE":           TypeRectangle,
	"REGULAR_POLYGON":     TypeRegularPolygon,
	"STAR":                TypeStar,
	"BOOLEAN_OPERATION":   TypeBooleanOperation,
	"TEXT":                TypeText,
	"SLICE":               TypeSlice,
}

var typeStrings = func() map[Type]string {
	m := make(map[Type]string, len(typeNames))
	for k, v := range typeNames {
		m[v] = k
	}
	return m
}()

// ParseType maps a schema-decoded type-tag string onto the closed Type
// enumeration, defaulting to TypeOther for anything unrecognized.
func ParseType(s string) Type {
	if t, ok := typeNames[s]; ok {
		return t
	}
	return TypeOther
}

func (t Type) String() string {
	if s, ok := typeStrings[t]; ok {
		return s
	}
	return "OTHER"
}

// ScaleMode is the fitting mode for an IMAGE paint.
type ScaleMode uint8

const (
	ScaleFill ScaleMode = iota
	ScaleFit
	ScaleTile
	ScaleStretch
)

// PaintKind discriminates the paint variant carried by a Paint value.
type PaintKind uint8

const (
	PaintSolid PaintKind = iota
	PaintImage
	PaintUnrenderable // GRADIENT_*, VIDEO, EMOJI: recognized, never rendered
)

// RGBA is a straight (non-premultiplied) color in the 0..1 range, matching
// the schema's float-per-channel color record.
type RGBA struct{ R, G, B, A float64 }

// Paint is one entry of a fill or stroke paint list.
type Paint struct {
	Kind      PaintKind
	Visible   bool
	Opacity   float64
	Color     RGBA      // PaintSolid
	ImageHash string    // PaintImage: 40 hex chars, lower-cased
	ScaleMode ScaleMode // PaintImage
	Variant   string    // PaintUnrenderable: "GRADIENT_LINEAR", "VIDEO", "EMOJI", ...
}

// StrokeCap and StrokeJoin mirror the vector network's line-ending styles.
type StrokeCap uint8

const (
	CapNone StrokeCap = iota
	CapRound
	CapSquare
	CapArrowLines
	CapArrowEquilateral
)

type StrokeJoin uint8

const (
	JoinMiter StrokeJoin = iota
	JoinBevel
	JoinRound
)

type StrokeAlign uint8

const (
	AlignCenter StrokeAlign = iota
	AlignInside
	AlignOutside
)

// Stroke groups the stroke-only rendering attributes.
type Stroke struct {
	Weight     float64
	Cap        StrokeCap
	Join       StrokeJoin
	Align      StrokeAlign
	DashPattern []float64
}

// CornerRadius is either a single scalar applied to all four corners, or
// four independent per-corner radii.
type CornerRadius struct {
	Uniform    bool
	Radius     float64    // used when Uniform
	PerCorner  [4]float64 // TL, TR, BR, BL, used otherwise
}

// EffectKind discriminates the four supported effect kinds.
type EffectKind uint8

const (
	EffectDropShadow EffectKind = iota
	EffectInnerShadow
	EffectLayerBlur
	EffectBackgroundBlur
)

// Effect is one entry of a node's effect stack.
type Effect struct {
	Kind    EffectKind
	Visible bool
	Radius  float64 // blur radius, or shadow blur radius
	Spread  float64 // shadow spread; 0 for blur effects
	Color   RGBA    // shadow color
	OffsetX float64
	OffsetY float64
}

// Transform is the 2x3 affine (a c e; b d f) used for a node's local and
// composed world transforms.
type Transform struct {
	A, B, C, D, E, F float64
}

// Identity is the neutral affine transform.
var Identity = Transform{A: 1, D: 1}

// Mul composes m applied first, then t: result = t . m (world = parent . local).
func (t Transform) Mul(m Transform) Transform {
	return Transform{
		A: t.A*m.A + t.C*m.B,
		B: t.B*m.A + t.D*m.B,
		C: t.A*m.C + t.C*m.D,
		D: t.B*m.C + t.D*m.D,
		E: t.A*m.E + t.C*m.F + t.E,
		F: t.B*m.E + t.D*m.F + t.F,
	}
}

// Apply maps a point through the transform.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return t.A*x + t.C*y + t.E, t.B*x + t.D*y + t.F
}

// Translation builds a pure-translation transform, the default used when a
// node carries no explicit matrix.
func Translation(x, y float64) Transform {
	return Transform{A: 1, D: 1, E: x, F: y}
}

// Size is a node's local width/height.
type Size struct{ W, H float64 }

// GeometryRef points either at a blob-array index or carries an inline
// command sequence; exactly one form is populated per the data-model
// invariant.
type GeometryRef struct {
	HasBlob    bool
	BlobIndex  int
	Inline     []byte // raw inline command bytes, decoded lazily by geom
	EvenOdd    bool
	VectorNet  []byte // raw inline vector-network bytes, if present (wins over blob)
}

// Baseline is one entry of derivedTextData.baselines.
type Baseline struct {
	FirstCharacter int
	EndCharacter   int
	LineHeight     float64
}

// TextStyle groups the text-only rendering attributes.
type TextStyle struct {
	Characters       string
	FontName         string
	FontSize         float64
	LineHeightPx     float64
	AlignHorizontal  string // LEFT, CENTER, RIGHT
	Baselines        []Baseline
	AutoResize       string
}

// ComponentLink groups an INSTANCE's link to its symbol and the raw
// override entries carried on the node-change record, consumed by the
// override resolver in override.go.
type ComponentLink struct {
	SymbolId               Id
	IsSymbol               bool // true for COMPONENT/COMPONENT_SET roots
	OverrideKey            []byte
	SymbolOverrides        []OverrideEntry
	ComponentPropAssignments []PropAssignment
	ComponentPropRefs      []PropRef
}

// OverrideEntry is one raw entry of an INSTANCE's symbolOverrides list.
type OverrideEntry struct {
	GuidPath                 string // ">"-joined 16-byte override keys, hex-encoded per segment
	Fields                   OverrideFields
	ComponentPropAssignments []PropAssignment
}

// OverrideFields is the sparse set of fields an override entry may carry;
// nil pointer and nil slice members are not applied.
type OverrideFields struct {
	Characters       *string
	FillPaints       []Paint
	StrokePaints     []Paint
	CornerRadius     *CornerRadius
	Size             *Size
	Transform        *Transform
	FontName         *string
	FontSize         *float64
	LineHeightPx     *float64
	TextAutoResize   *string
	Baselines        []Baseline
	FillGeometry     []GeometryRef
	StrokeGeometry   []GeometryRef
	Visible          *bool
	OverrideSymbolId *Id
}

// PropAssignment is one {defId, value} entry of componentPropAssignments.
type PropAssignment struct {
	DefId string
	Value string
}

// PropField discriminates which node field a component-property reference
// targets.
type PropField uint8

const (
	PropFieldTextData PropField = iota
	PropFieldVisible
	PropFieldOverriddenSymbolId
)

// PropRef is one entry of componentPropRefs, found on nodes inside a
// symbol subtree.
type PropRef struct {
	DefId string
	Field PropField
}

// Node is the single polymorphic scene-graph node; the renderer dispatches
// on Type rather than using per-kind subclasses.
type Node struct {
	Id         Id
	Type       Type
	Name       string
	Visible    bool
	Opacity    float64
	BlendMode  string // "NORMAL" is the only one the renderer composites; others pass through unrendered per Non-goals

	Transform  *Transform // nil means "derive from X,Y"
	X, Y       float64
	Size       Size

	FillPaints   []Paint
	StrokePaints []Paint
	Stroke       Stroke
	Corner       CornerRadius
	Effects      []Effect

	Text TextStyle

	FillGeometry   []GeometryRef
	StrokeGeometry []GeometryRef
	IsMask         bool
	ClipsContent   bool

	Component ComponentLink

	OverrideKey []byte // this node's own key within an ancestor symbol subtree

	Parent   *Node
	Children []*Node

	// ParentGuid/Position are the raw flat-record parent-linkage fields,
	// retained after tree build for diagnostics; not part of the public
	// query surface.
	ParentGuid Id
	Position   string
}

// Walk performs a depth-first, pre-order traversal, calling fn on n and
// every descendant. If fn returns false, Walk skips that subtree's
// children but continues with n's remaining siblings.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
