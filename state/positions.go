package state

import "github.com/yonbergman/electric-planner/plan"

// PlaceBox puts a box on a floor plan. A box has at most one placement per
// floor plan, so placing it again moves the existing placement.
func (s *Store) PlaceBox(floorPlanID, boxID string, x, y float64) (plan.MapPosition, error) {
	var pos plan.MapPosition
	err := s.update(func(t *tx) error {
		if floorPlanIndex(t.data, floorPlanID) < 0 {
			return notFound("floor plan", floorPlanID)
		}
		if boxIndex(t.data, boxID) < 0 {
			return notFound("box", boxID)
		}
		for i := range t.data.MapPositions {
			p := &t.data.MapPositions[i]
			if p.FloorPlanID == floorPlanID && p.EntityType == plan.EntityBox && p.EntityID == boxID {
				p.X, p.Y = x, y
				pos = *p
				t.emit(ActionUpdated, EntityMapPosition, p.ID)
				return nil
			}
		}
		pos = plan.MapPosition{ID: t.newID(), FloorPlanID: floorPlanID, EntityType: plan.EntityBox, EntityID: boxID, X: x, Y: y}
		t.data.MapPositions = append(t.data.MapPositions, pos)
		t.emit(ActionCreated, EntityMapPosition, pos.ID)
		return nil
	})
	return pos, err
}

// PlaceItem adds a new placement of an item. Items may be placed any number
// of times on the same floor plan.
func (s *Store) PlaceItem(floorPlanID, itemID string, x, y float64) (plan.MapPosition, error) {
	var pos plan.MapPosition
	err := s.update(func(t *tx) error {
		if floorPlanIndex(t.data, floorPlanID) < 0 {
			return notFound("floor plan", floorPlanID)
		}
		if itemIndex(t.data, itemID) < 0 {
			return notFound("item", itemID)
		}
		pos = plan.MapPosition{ID: t.newID(), FloorPlanID: floorPlanID, EntityType: plan.EntityItem, EntityID: itemID, X: x, Y: y}
		t.data.MapPositions = append(t.data.MapPositions, pos)
		t.emit(ActionCreated, EntityMapPosition, pos.ID)
		return nil
	})
	return pos, err
}

// Place dispatches to PlaceBox or PlaceItem.
func (s *Store) Place(floorPlanID string, entityType plan.EntityType, entityID string, x, y float64) (plan.MapPosition, error) {
	switch entityType {
	case plan.EntityBox:
		return s.PlaceBox(floorPlanID, entityID, x, y)
	case plan.EntityItem:
		return s.PlaceItem(floorPlanID, entityID, x, y)
	default:
		return plan.MapPosition{}, invalid("entity type %q", entityType)
	}
}

func (s *Store) MovePosition(id string, x, y float64) error {
	return s.update(func(t *tx) error {
		i := positionIndex(t.data, id)
		if i < 0 {
			return notFound("map position", id)
		}
		t.data.MapPositions[i].X = x
		t.data.MapPositions[i].Y = y
		t.emit(ActionUpdated, EntityMapPosition, id)
		return nil
	})
}

func (s *Store) RemovePosition(id string) error {
	return s.update(func(t *tx) error {
		i := positionIndex(t.data, id)
		if i < 0 {
			return notFound("map position", id)
		}
		t.data.MapPositions = append(t.data.MapPositions[:i], t.data.MapPositions[i+1:]...)
		t.emit(ActionDeleted, EntityMapPosition, id)
		return nil
	})
}

// Positions returns the placements on one floor plan.
func (s *Store) Positions(floorPlanID string) []plan.MapPosition {
	var out []plan.MapPosition
	s.read(func(d *plan.Snapshot, _ Focus) {
		for _, p := range d.MapPositions {
			if p.FloorPlanID == floorPlanID {
				out = append(out, p)
			}
		}
	})
	return out
}
