package document

import (
	"github.com/verdant/verdant/editor-go/internal/typeid"
)

// NewSamplePlan builds a small kitchen garden: three raised beds, a mulch path,
// a compost bay and a title label.
func NewSamplePlan() *Plan {
	groundID := typeid.NewLayerID()
	notesID := typeid.NewLayerID()

	scene := &Scene{
		ID:     typeid.NewSceneID(),
		Name:   "Kitchen Garden",
		Width:  480,
		Height: 360,
		Layers: []Layer{
			{
				ID:      groundID,
				Name:    "Beds & Paths",
				Visible: true,
				Order:   0,
				Nodes: []Node{
					{
						ID:        NewNodeID(KindBed),
						Kind:      KindBed,
						Transform: Transform{X: 72, Y: 96},
						Width:     48,
						Height:    96,
						Style:     &Style{Fill: "#8d6e63", Stroke: "#4e342e", StrokeWidth: 2, Opacity: 1},
						Bed:       &BedData{RaisedHeight: 12, Orientation: OrientationNS, Trellis: true},
					},
					{
						ID:        NewNodeID(KindBed),
						Kind:      KindBed,
						Transform: Transform{X: 168, Y: 96},
						Width:     48,
						Height:    96,
						Style:     &Style{Fill: "#8d6e63", Stroke: "#4e342e", StrokeWidth: 2, Opacity: 1},
						Bed:       &BedData{RaisedHeight: 12, Orientation: OrientationNS, Wicking: true},
					},
					{
						ID:        NewNodeID(KindBed),
						Kind:      KindBed,
						Transform: Transform{X: 264, Y: 96},
						Width:     48,
						Height:    96,
						Style:     &Style{Fill: "#8d6e63", Stroke: "#4e342e", StrokeWidth: 2, Opacity: 1},
						Bed:       &BedData{RaisedHeight: 18, Orientation: OrientationNS},
					},
					{
						ID:        NewNodeID(KindPath),
						Kind:      KindPath,
						Transform: Transform{X: 168, Y: 180},
						Width:     288,
						Height:    24,
						Style:     &Style{Fill: "#d7ccc8", Opacity: 1},
						Path:      &PathData{Surface: SurfaceMulch},
					},
					{
						ID:        NewNodeID(KindCompost),
						Kind:      KindCompost,
						Transform: Transform{X: 408, Y: 300},
						Width:     36,
						Height:    36,
						Compost:   &CompostData{Type: "three-bay", Material: "pallet", Capacity: 27},
					},
				},
			},
			{
				ID:      notesID,
				Name:    "Notes",
				Visible: true,
				Order:   1,
				Nodes: []Node{
					{
						ID:        NewNodeID(KindLabel),
						Kind:      KindLabel,
						Transform: Transform{X: 168, Y: 24},
						Label:     &LabelData{Text: "Kitchen Garden", FontSize: 12},
					},
				},
			},
		},
	}

	plan := NewPlan(scene, UnitsImperial)
	vp := DefaultViewport()
	plan.Viewport = &vp
	return plan
}
