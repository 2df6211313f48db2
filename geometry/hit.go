package geometry

import "github.com/yonbergman/electric-planner/plan"

// Hit radii in world pixels. Boxes are drawn larger than items.
const (
	BoxHitRadius  = 15.0
	ItemHitRadius = 12.0
)

// HitRadius returns the pick radius for an entity type.
func HitRadius(t plan.EntityType) float64 {
	if t == plan.EntityBox {
		return BoxHitRadius
	}
	return ItemHitRadius
}

// Hit is a map position found under a point.
type Hit struct {
	Position plan.MapPosition `json:"position"`
	Distance float64          `json:"distance"`
}

// FindEntityAt returns the placed entity on floorPlanID nearest to p among
// those within their type's hit radius. Equal distances keep the earlier
// position.
func FindEntityAt(positions []plan.MapPosition, floorPlanID string, p plan.Point) (Hit, bool) {
	var best Hit
	found := false
	for _, pos := range positions {
		if pos.FloorPlanID != floorPlanID {
			continue
		}
		d := Distance(p, pos.Point())
		if d > HitRadius(pos.EntityType) {
			continue
		}
		if !found || d < best.Distance {
			best = Hit{Position: pos, Distance: d}
			found = true
		}
	}
	return best, found
}
