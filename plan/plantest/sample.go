// Package plantest provides plan fixtures for tests.
package plantest

import "github.com/yonbergman/electric-planner/plan"

// Sample returns a small plan with every collection populated: two rooms, a
// box holding a double-width socket and a switch both wired to one light, and
// a floor plan with a room polygon, the box placed once and the light placed
// twice.
func Sample() plan.Snapshot {
	return plan.Snapshot{
		Version: plan.SchemaVersion,
		Rooms: []plan.Room{
			{ID: "room-kitchen", Name: "Kitchen"},
			{ID: "room-hall", Name: "Hall"},
		},
		Boxes: []plan.Box{
			{ID: "box-a1", RoomID: "room-kitchen", Name: "A1", Size: 4},
		},
		Modules: []plan.Module{
			{ID: "mod-socket", BoxID: "box-a1", Type: plan.ModuleSocket, Position: 0, Label: "Socket", ItemID: "item-light"},
			{ID: "mod-switch", BoxID: "box-a1", Type: plan.ModuleLightSwitchSmart, Position: 2, Label: "Main", ItemID: "item-light", Notes: "two-way"},
		},
		Items: []plan.Item{
			{ID: "item-light", RoomID: "room-kitchen", Name: "Ceiling", Type: plan.ItemLight},
			{ID: "item-fan", RoomID: "room-hall", Type: plan.ItemCeilingFan, Icon: "Fan"},
		},
		FloorPlans: []plan.FloorPlan{
			{ID: "fp-ground", Name: "Ground", ImageURL: "data:image/png;base64,AA==", Width: 640, Height: 480},
		},
		RoomPolygons: []plan.RoomPolygon{
			{
				ID:          "poly-kitchen",
				RoomID:      "room-kitchen",
				FloorPlanID: "fp-ground",
				Points:      []plan.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 80}, {X: 0, Y: 80}},
				ShapeKind:   plan.ShapeRectangle,
			},
		},
		MapPositions: []plan.MapPosition{
			{ID: "pos-box", FloorPlanID: "fp-ground", EntityType: plan.EntityBox, EntityID: "box-a1", X: 5, Y: 70},
			{ID: "pos-light-1", FloorPlanID: "fp-ground", EntityType: plan.EntityItem, EntityID: "item-light", X: 20, Y: 20},
			{ID: "pos-light-2", FloorPlanID: "fp-ground", EntityType: plan.EntityItem, EntityID: "item-light", X: 60, Y: 40},
		},
	}
}
