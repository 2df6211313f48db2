package geometry

import "github.com/yonbergman/electric-planner/plan"

// Segment is a wiring line from a placed box to a placed item.
type Segment struct {
	ModuleID   string     `json:"moduleId"`
	ItemID     string     `json:"itemId"`
	PositionID string     `json:"positionId"`
	From       plan.Point `json:"from"`
	To         plan.Point `json:"to"`
}

// WiringLines returns one segment per (wired module, item placement) pair for
// box boxID on floorPlanID. It is empty when the box is not placed there.
func WiringLines(s plan.Snapshot, floorPlanID, boxID string) []Segment {
	var boxPos *plan.MapPosition
	for i := range s.MapPositions {
		p := &s.MapPositions[i]
		if p.FloorPlanID == floorPlanID && p.EntityType == plan.EntityBox && p.EntityID == boxID {
			boxPos = p
			break
		}
	}
	if boxPos == nil {
		return nil
	}

	var out []Segment
	for _, m := range s.Modules {
		if m.BoxID != boxID || m.ItemID == "" {
			continue
		}
		for _, p := range s.MapPositions {
			if p.FloorPlanID != floorPlanID || p.EntityType != plan.EntityItem || p.EntityID != m.ItemID {
				continue
			}
			out = append(out, Segment{
				ModuleID:   m.ID,
				ItemID:     m.ItemID,
				PositionID: p.ID,
				From:       boxPos.Point(),
				To:         p.Point(),
			})
		}
	}
	return out
}
