// Package geometry converts between floor-plan pixel space ("world") and the
// on-screen viewport and answers spatial queries against placed entities.
package geometry

import (
	"math"

	"github.com/yonbergman/electric-planner/plan"
)

const (
	MinZoom = 0.1
	MaxZoom = 10.0

	wheelZoomOut = 0.9
	wheelZoomIn  = 1.1
)

// View is the pan/zoom transform of a floor-plan viewport.
type View struct {
	Zoom float64    `json:"zoom"`
	Pan  plan.Point `json:"pan"`
}

// DefaultView shows the floor plan at 100% with no offset.
func DefaultView() View {
	return View{Zoom: 1}
}

// ClampZoom limits z to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

func (v View) WorldToScreen(p plan.Point) plan.Point {
	return plan.Point{X: p.X*v.Zoom + v.Pan.X, Y: p.Y*v.Zoom + v.Pan.Y}
}

func (v View) ScreenToWorld(p plan.Point) plan.Point {
	return plan.Point{X: (p.X - v.Pan.X) / v.Zoom, Y: (p.Y - v.Pan.Y) / v.Zoom}
}

// ZoomAt returns the view zoomed to z (clamped) around screen point m, so the
// world point under m stays under m.
func (v View) ZoomAt(m plan.Point, z float64) View {
	z = ClampZoom(z)
	scale := z / v.Zoom
	return View{
		Zoom: z,
		Pan: plan.Point{
			X: m.X - (m.X-v.Pan.X)*scale,
			Y: m.Y - (m.Y-v.Pan.Y)*scale,
		},
	}
}

// PanBy shifts the view by a screen-space delta.
func (v View) PanBy(dx, dy float64) View {
	v.Pan.X += dx
	v.Pan.Y += dy
	return v
}

// Wheel applies a mouse wheel step at screen point m. With shift held the
// wheel scrolls horizontally instead of zooming.
func (v View) Wheel(m plan.Point, deltaY float64, shift bool) View {
	if shift {
		return v.PanBy(-deltaY, 0)
	}
	factor := wheelZoomIn
	if deltaY > 0 {
		factor = wheelZoomOut
	}
	return v.ZoomAt(m, v.Zoom*factor)
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b plan.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
