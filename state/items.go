package state

import "github.com/yonbergman/electric-planner/plan"

// ItemUpdate carries the fields UpdateItem merges. An empty Icon restores the
// type's default icon.
type ItemUpdate struct {
	Name *string `json:"name"`
	Icon *string `json:"icon"`
}

func (s *Store) AddItem(roomID string, typ plan.ItemType, name string) (plan.Item, error) {
	var item plan.Item
	err := s.update(func(t *tx) error {
		if !typ.Valid() {
			return invalid("item type %q", typ)
		}
		if roomIndex(t.data, roomID) < 0 {
			return notFound("room", roomID)
		}
		item = plan.Item{ID: t.newID(), RoomID: roomID, Type: typ, Name: name}
		t.data.Items = append(t.data.Items, item)
		t.emit(ActionCreated, EntityItem, item.ID)
		return nil
	})
	return item, err
}

func (s *Store) UpdateItem(id string, u ItemUpdate) error {
	return s.update(func(t *tx) error {
		i := itemIndex(t.data, id)
		if i < 0 {
			return notFound("item", id)
		}
		if u.Icon != nil && *u.Icon != "" && !plan.ValidIcon(*u.Icon) {
			return invalid("icon %q", *u.Icon)
		}
		if u.Name != nil {
			t.data.Items[i].Name = *u.Name
		}
		if u.Icon != nil {
			t.data.Items[i].Icon = *u.Icon
		}
		t.emit(ActionUpdated, EntityItem, id)
		return nil
	})
}

// DeleteItem removes the item. Modules wired to it stay in place with their
// wiring cleared; every placement of the item is removed.
func (s *Store) DeleteItem(id string) error {
	return s.update(func(t *tx) error {
		if itemIndex(t.data, id) < 0 {
			return notFound("item", id)
		}
		removeItems(t, map[string]bool{id: true})
		t.emit(ActionDeleted, EntityItem, id)
		return nil
	})
}
