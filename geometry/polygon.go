package geometry

import "github.com/yonbergman/electric-planner/plan"

// Contains reports whether p lies inside the polygon, using the ray-casting
// parity rule. Polygons with fewer than three vertices contain nothing.
func Contains(polygon []plan.Point, p plan.Point) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := polygon[i], polygon[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// PolygonAt returns the room polygon on floorPlanID that contains p. When
// polygons overlap the last one drawn wins, matching paint order.
func PolygonAt(polygons []plan.RoomPolygon, floorPlanID string, p plan.Point) (plan.RoomPolygon, bool) {
	for i := len(polygons) - 1; i >= 0; i-- {
		poly := polygons[i]
		if poly.FloorPlanID == floorPlanID && Contains(poly.Points, p) {
			return poly, true
		}
	}
	return plan.RoomPolygon{}, false
}

// Rectangle returns the four axis-aligned corners spanned by two opposite
// corners, in drawing order.
func Rectangle(a, b plan.Point) []plan.Point {
	return []plan.Point{
		{X: a.X, Y: a.Y},
		{X: b.X, Y: a.Y},
		{X: b.X, Y: b.Y},
		{X: a.X, Y: b.Y},
	}
}

// Centroid returns the vertex average, used to anchor room labels.
func Centroid(polygon []plan.Point) plan.Point {
	if len(polygon) == 0 {
		return plan.Point{}
	}
	var c plan.Point
	for _, p := range polygon {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(polygon))
	return plan.Point{X: c.X / n, Y: c.Y / n}
}
