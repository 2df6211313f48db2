package state

import "github.com/yonbergman/electric-planner/plan"

// AddRoom creates a room. Names need not be unique.
func (s *Store) AddRoom(name string) (plan.Room, error) {
	var room plan.Room
	err := s.update(func(t *tx) error {
		room = plan.Room{ID: t.newID(), Name: name}
		t.data.Rooms = append(t.data.Rooms, room)
		t.emit(ActionCreated, EntityRoom, room.ID)
		return nil
	})
	return room, err
}

func (s *Store) UpdateRoom(id, name string) error {
	return s.update(func(t *tx) error {
		i := roomIndex(t.data, id)
		if i < 0 {
			return notFound("room", id)
		}
		t.data.Rooms[i].Name = name
		t.emit(ActionUpdated, EntityRoom, id)
		return nil
	})
}

// DeleteRoom removes the room together with its boxes (and their modules),
// its items, its polygons and every map position of a removed box or item.
// The selection is cleared if it pointed at the room.
func (s *Store) DeleteRoom(id string) error {
	return s.update(func(t *tx) error {
		i := roomIndex(t.data, id)
		if i < 0 {
			return notFound("room", id)
		}
		t.data.Rooms = append(t.data.Rooms[:i], t.data.Rooms[i+1:]...)

		boxes := make(map[string]bool)
		for _, b := range t.data.Boxes {
			if b.RoomID == id {
				boxes[b.ID] = true
			}
		}
		removeBoxes(t, boxes)

		items := make(map[string]bool)
		for _, it := range t.data.Items {
			if it.RoomID == id {
				items[it.ID] = true
			}
		}
		removeItems(t, items)

		polygons := t.data.RoomPolygons[:0]
		for _, p := range t.data.RoomPolygons {
			if p.RoomID != id {
				polygons = append(polygons, p)
			}
		}
		t.data.RoomPolygons = polygons

		if t.focus.SelectedRoomID == id {
			t.focus.SelectedRoomID = ""
		}
		t.emit(ActionDeleted, EntityRoom, id)
		return nil
	})
}

// removeBoxes deletes the given boxes, their modules and their placements.
func removeBoxes(t *tx, ids map[string]bool) {
	if len(ids) == 0 {
		return
	}
	boxes := t.data.Boxes[:0]
	for _, b := range t.data.Boxes {
		if !ids[b.ID] {
			boxes = append(boxes, b)
		}
	}
	t.data.Boxes = boxes

	modules := t.data.Modules[:0]
	for _, m := range t.data.Modules {
		if ids[m.BoxID] {
			if t.focus.HoveredModuleID == m.ID {
				t.focus.HoveredModuleID = ""
			}
			continue
		}
		modules = append(modules, m)
	}
	t.data.Modules = modules

	removePlacements(t, plan.EntityBox, ids)
}

// removeItems deletes the given items, clears the wiring of modules that
// referenced them and removes their placements.
func removeItems(t *tx, ids map[string]bool) {
	if len(ids) == 0 {
		return
	}
	items := t.data.Items[:0]
	for _, it := range t.data.Items {
		if !ids[it.ID] {
			items = append(items, it)
		}
	}
	t.data.Items = items

	for i := range t.data.Modules {
		if ids[t.data.Modules[i].ItemID] {
			t.data.Modules[i].ItemID = ""
		}
	}
	if ids[t.focus.HoveredItemID] {
		t.focus.HoveredItemID = ""
	}
	removePlacements(t, plan.EntityItem, ids)
}

func removePlacements(t *tx, entityType plan.EntityType, ids map[string]bool) {
	positions := t.data.MapPositions[:0]
	for _, p := range t.data.MapPositions {
		if p.EntityType == entityType && ids[p.EntityID] {
			continue
		}
		positions = append(positions, p)
	}
	t.data.MapPositions = positions
}
