package document

import (
	"maps"

	"github.com/verdant/verdant/editor-go/internal/geom"
	"github.com/verdant/verdant/editor-go/internal/typeid"
)

// Scene is the garden canvas. It owns its layers exclusively.
type Scene struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Layers   []Layer        `json:"layers"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Layer owns an ordered list of nodes. Higher Order paints and hit-tests on top.
type Layer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Locked  bool   `json:"locked"`
	Order   int    `json:"order"`
	Nodes   []Node `json:"nodes"`
}

type NodeKind string

const (
	KindBed        NodeKind = "bed"
	KindPath       NodeKind = "path"
	KindLabel      NodeKind = "label"
	KindGuide      NodeKind = "guide"
	KindImage      NodeKind = "image"
	KindPlant      NodeKind = "plant"
	KindIrrigation NodeKind = "irrigation"
	KindStructure  NodeKind = "structure"
	KindCompost    NodeKind = "compost"
)

// Kinds lists every node variant.
var Kinds = []NodeKind{
	KindBed, KindPath, KindLabel, KindGuide, KindImage,
	KindPlant, KindIrrigation, KindStructure, KindCompost,
}

// Valid reports whether k is one of the closed set of variants.
func (k NodeKind) Valid() bool {
	switch k {
	case KindBed, KindPath, KindLabel, KindGuide, KindImage,
		KindPlant, KindIrrigation, KindStructure, KindCompost:
		return true
	}
	return false
}

// IDPrefix is the typeid prefix used for nodes of this kind.
func (k NodeKind) IDPrefix() string {
	switch k {
	case KindBed:
		return typeid.PrefixBed
	case KindPath:
		return typeid.PrefixPath
	case KindLabel:
		return typeid.PrefixLabel
	case KindGuide:
		return typeid.PrefixGuide
	case KindImage:
		return typeid.PrefixImage
	case KindPlant:
		return typeid.PrefixPlant
	case KindIrrigation:
		return typeid.PrefixIrrigation
	case KindStructure:
		return typeid.PrefixStructure
	case KindCompost:
		return typeid.PrefixCompost
	}
	return "node"
}

// NewNodeID returns a fresh id for a node of the given kind.
func NewNodeID(kind NodeKind) string {
	return typeid.New(kind.IDPrefix())
}

// Transform is the absolute position of a node's center plus rotation in degrees.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

type Style struct {
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Opacity     float64 `json:"opacity,omitempty"`
}

// InteractionFlags restricts what the editor may do with a node. A nil flag set
// means everything is allowed.
type InteractionFlags struct {
	Selectable bool `json:"selectable"`
	Draggable  bool `json:"draggable"`
	Resizable  bool `json:"resizable"`
	Rotatable  bool `json:"rotatable"`
}

// Node is a tagged union over the garden element variants. Kind selects which
// payload pointer is populated; the others stay nil.
type Node struct {
	ID        string            `json:"id"`
	Kind      NodeKind          `json:"kind"`
	Transform Transform         `json:"transform"`
	Width     float64           `json:"width,omitempty"`
	Height    float64           `json:"height,omitempty"`
	Style     *Style            `json:"style,omitempty"`
	Flags     *InteractionFlags `json:"flags,omitempty"`
	Metadata  map[string]any    `json:"metadata,omitempty"`

	Bed        *BedData        `json:"bed,omitempty"`
	Path       *PathData       `json:"path,omitempty"`
	Label      *LabelData      `json:"label,omitempty"`
	Guide      *GuideData      `json:"guide,omitempty"`
	Image      *ImageData      `json:"image,omitempty"`
	Plant      *PlantData      `json:"plant,omitempty"`
	Irrigation *IrrigationData `json:"irrigation,omitempty"`
	Structure  *StructureData  `json:"structure,omitempty"`
	Compost    *CompostData    `json:"compost,omitempty"`
}

type Orientation string

const (
	OrientationNS     Orientation = "NS"
	OrientationEW     Orientation = "EW"
	OrientationCustom Orientation = "Custom"
)

type BedData struct {
	RaisedHeight float64     `json:"height"`
	Orientation  Orientation `json:"orientation"`
	Wicking      bool        `json:"wicking"`
	Trellis      bool        `json:"trellis"`
	Curve        *CurveData  `json:"curve,omitempty"`
}

// CurveData keeps the render path of a free-form bed together with the points
// it was drawn from so the shape can be edited again.
type CurveData struct {
	Path       string       `json:"path"`
	EditPoints []CurvePoint `json:"editPoints"`
	BedWidth   float64      `json:"bedWidth"`
}

// CurvePoint is a centerline vertex. Control, when set, bends the segment
// that ends at this point into a quadratic curve.
type CurvePoint struct {
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	Control *geom.Point `json:"control,omitempty"`
}

type Surface string

const (
	SurfaceMulch  Surface = "mulch"
	SurfaceGravel Surface = "gravel"
	SurfaceGrass  Surface = "grass"
	SurfacePaver  Surface = "paver"
	SurfaceSoil   Surface = "soil"
)

type PathData struct {
	Surface Surface `json:"surface"`
}

type LabelData struct {
	Text     string  `json:"text"`
	FontSize float64 `json:"fontSize"`
}

type GuideAxis string

const (
	GuideHorizontal GuideAxis = "horizontal"
	GuideVertical   GuideAxis = "vertical"
)

// GuideData is an infinite alignment line at Offset along the perpendicular axis.
type GuideData struct {
	Axis   GuideAxis `json:"axis"`
	Offset float64   `json:"offset"`
}

type ImageData struct {
	AssetID string `json:"assetId"`
	URL     string `json:"url,omitempty"`
}

type PlantData struct {
	SpeciesID string  `json:"speciesId"`
	Name      string  `json:"name,omitempty"`
	Spread    float64 `json:"spread"`
}

type IrrigationType string

const (
	IrrigationDripLine  IrrigationType = "drip-line"
	IrrigationDripZone  IrrigationType = "drip-zone"
	IrrigationSprinkler IrrigationType = "sprinkler"
	IrrigationSoaker    IrrigationType = "soaker-hose"
	IrrigationBarrel    IrrigationType = "rain-barrel"
)

type IrrigationData struct {
	Type     IrrigationType `json:"type"`
	FlowRate float64        `json:"flowRate,omitempty"`
	Coverage float64        `json:"coverage,omitempty"`
	Capacity float64        `json:"capacity,omitempty"`
}

// AreaBased reports whether the irrigation element covers a rectangular area
// and so carries width and height.
func (d *IrrigationData) AreaBased() bool {
	return d != nil && (d.Type == IrrigationDripZone || d.Type == IrrigationSprinkler)
}

type StructureData struct {
	Type     string  `json:"type"`
	Material string  `json:"material,omitempty"`
	Capacity float64 `json:"capacity,omitempty"`
}

type CompostData struct {
	Type     string  `json:"type"`
	Material string  `json:"material,omitempty"`
	Capacity float64 `json:"capacity,omitempty"`
}

// IsSized reports whether the node carries its own width and height.
func (n *Node) IsSized() bool {
	switch n.Kind {
	case KindBed, KindPath, KindImage, KindStructure, KindCompost:
		return true
	case KindIrrigation:
		return n.Irrigation.AreaBased()
	}
	return false
}

func (n *Node) Selectable() bool { return n.Flags == nil || n.Flags.Selectable }
func (n *Node) Draggable() bool  { return n.Flags == nil || n.Flags.Draggable }

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	c := n
	if n.Style != nil {
		s := *n.Style
		c.Style = &s
	}
	if n.Flags != nil {
		f := *n.Flags
		c.Flags = &f
	}
	c.Metadata = maps.Clone(n.Metadata)
	if n.Bed != nil {
		b := *n.Bed
		if n.Bed.Curve != nil {
			curve := *n.Bed.Curve
			curve.EditPoints = make([]CurvePoint, len(n.Bed.Curve.EditPoints))
			for i, p := range n.Bed.Curve.EditPoints {
				curve.EditPoints[i] = p
				if p.Control != nil {
					ctrl := *p.Control
					curve.EditPoints[i].Control = &ctrl
				}
			}
			b.Curve = &curve
		}
		c.Bed = &b
	}
	if n.Path != nil {
		p := *n.Path
		c.Path = &p
	}
	if n.Label != nil {
		l := *n.Label
		c.Label = &l
	}
	if n.Guide != nil {
		g := *n.Guide
		c.Guide = &g
	}
	if n.Image != nil {
		i := *n.Image
		c.Image = &i
	}
	if n.Plant != nil {
		p := *n.Plant
		c.Plant = &p
	}
	if n.Irrigation != nil {
		i := *n.Irrigation
		c.Irrigation = &i
	}
	if n.Structure != nil {
		s := *n.Structure
		c.Structure = &s
	}
	if n.Compost != nil {
		cp := *n.Compost
		c.Compost = &cp
	}
	return c
}

// Clone returns a deep copy of the layer.
func (l Layer) Clone() Layer {
	c := l
	c.Nodes = make([]Node, len(l.Nodes))
	for i, n := range l.Nodes {
		c.Nodes[i] = n.Clone()
	}
	return c
}

// Clone returns a deep copy of the scene.
func (s *Scene) Clone() *Scene {
	if s == nil {
		return nil
	}
	c := *s
	c.Layers = make([]Layer, len(s.Layers))
	for i, l := range s.Layers {
		c.Layers[i] = l.Clone()
	}
	c.Metadata = maps.Clone(s.Metadata)
	return &c
}

// NewBed returns a bed node with sensible defaults centered at (x, y).
func NewBed(x, y, width, height float64) Node {
	return Node{
		ID:        NewNodeID(KindBed),
		Kind:      KindBed,
		Transform: Transform{X: x, Y: y},
		Width:     width,
		Height:    height,
		Bed:       &BedData{RaisedHeight: 12, Orientation: OrientationNS},
	}
}

// NewPath returns a path node centered at (x, y).
func NewPath(x, y, width, height float64, surface Surface) Node {
	return Node{
		ID:        NewNodeID(KindPath),
		Kind:      KindPath,
		Transform: Transform{X: x, Y: y},
		Width:     width,
		Height:    height,
		Path:      &PathData{Surface: surface},
	}
}

// NewScene creates an empty scene with a single default layer.
func NewScene(name string, width, height float64) *Scene {
	return &Scene{
		ID:     typeid.NewSceneID(),
		Name:   name,
		Width:  width,
		Height: height,
		Layers: []Layer{{
			ID:      typeid.NewLayerID(),
			Name:    "Layer 1",
			Visible: true,
			Order:   0,
			Nodes:   []Node{},
		}},
	}
}
