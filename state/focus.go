package state

// SelectRoom selects a room, or clears the selection when id is empty.
func (s *Store) SelectRoom(id string) error {
	return s.update(func(t *tx) error {
		if id != "" && roomIndex(t.data, id) < 0 {
			return notFound("room", id)
		}
		t.focus.SelectedRoomID = id
		t.emit(ActionUpdated, EntityFocus, id)
		return nil
	})
}

func (s *Store) SetHoveredItem(id string) error {
	return s.update(func(t *tx) error {
		if id != "" && itemIndex(t.data, id) < 0 {
			return notFound("item", id)
		}
		t.focus.HoveredItemID = id
		t.emit(ActionUpdated, EntityFocus, id)
		return nil
	})
}

func (s *Store) SetHoveredModule(id string) error {
	return s.update(func(t *tx) error {
		if id != "" && moduleIndex(t.data, id) < 0 {
			return notFound("module", id)
		}
		t.focus.HoveredModuleID = id
		t.emit(ActionUpdated, EntityFocus, id)
		return nil
	})
}
