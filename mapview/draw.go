package mapview

import (
	"errors"

	"github.com/yonbergman/electric-planner/geometry"
	"github.com/yonbergman/electric-planner/plan"
)

var ErrTooFewPoints = errors.New("polygon needs at least 3 points")

// PolygonTool collects the outline of a room boundary in world coordinates.
//
// In rectangle mode a press sets one corner, dragging moves the opposite
// corner and the release finishes the shape. In polygon mode every press adds
// a vertex and Close finishes the shape.
type PolygonTool struct {
	RoomID string
	Kind   plan.ShapeKind

	points   []plan.Point
	cursor   plan.Point
	dragging bool
}

func NewPolygonTool(roomID string, kind plan.ShapeKind) *PolygonTool {
	if kind == "" {
		kind = plan.ShapePolygon
	}
	return &PolygonTool{RoomID: roomID, Kind: kind}
}

func (d *PolygonTool) Press(p plan.Point) {
	d.cursor = p
	if d.Kind == plan.ShapeRectangle {
		d.points = []plan.Point{p}
		d.dragging = true
		return
	}
	// A double click delivers its presses at the same spot.
	if n := len(d.points); n > 0 && d.points[n-1] == p {
		return
	}
	d.points = append(d.points, p)
}

func (d *PolygonTool) Move(p plan.Point) {
	d.cursor = p
}

// Release ends a rectangle drag. finished is true when the tool is done; the
// shape is nil when the two corners do not span an area.
func (d *PolygonTool) Release(p plan.Point) (shape []plan.Point, finished bool) {
	if d.Kind != plan.ShapeRectangle || !d.dragging {
		return nil, false
	}
	d.dragging = false
	a := d.points[0]
	d.points = nil
	if a.X == p.X || a.Y == p.Y {
		return nil, true
	}
	return geometry.Rectangle(a, p), true
}

// Close finishes a free polygon.
func (d *PolygonTool) Close() ([]plan.Point, error) {
	if d.Kind != plan.ShapePolygon || len(d.points) < 3 {
		return nil, ErrTooFewPoints
	}
	shape := append([]plan.Point{}, d.points...)
	d.points = nil
	return shape, nil
}

// Outline is the in-progress shape for rendering, including the rubber-band
// segment to the cursor.
func (d *PolygonTool) Outline() []plan.Point {
	if d.Kind == plan.ShapeRectangle {
		if !d.dragging {
			return nil
		}
		return geometry.Rectangle(d.points[0], d.cursor)
	}
	if len(d.points) == 0 {
		return nil
	}
	return append(append([]plan.Point{}, d.points...), d.cursor)
}

func (d *PolygonTool) Points() []plan.Point {
	return append([]plan.Point{}, d.points...)
}
