package state

import (
	"fmt"

	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/slots"
)

func (s *Store) AddBox(roomID, name string, size int) (plan.Box, error) {
	var box plan.Box
	err := s.update(func(t *tx) error {
		if !plan.ValidBoxSize(size) {
			return invalid("box size %d", size)
		}
		if roomIndex(t.data, roomID) < 0 {
			return notFound("room", roomID)
		}
		box = plan.Box{ID: t.newID(), RoomID: roomID, Name: name, Size: size}
		t.data.Boxes = append(t.data.Boxes, box)
		t.emit(ActionCreated, EntityBox, box.ID)
		return nil
	})
	return box, err
}

// UpdateBox renames and resizes a box. A resize that would leave a module
// past the end of the box is rejected with slots.ErrInsufficientSpace and the
// box is left unchanged.
func (s *Store) UpdateBox(id, name string, size int) error {
	return s.update(func(t *tx) error {
		if !plan.ValidBoxSize(size) {
			return invalid("box size %d", size)
		}
		i := boxIndex(t.data, id)
		if i < 0 {
			return notFound("box", id)
		}
		resized := t.data.Boxes[i]
		resized.Name = name
		resized.Size = size
		if size < t.data.Boxes[i].Size {
			if err := slots.CheckBox(resized, t.data.Modules); err != nil {
				return fmt.Errorf("resize box %q to %d: %w", id, size, err)
			}
		}
		t.data.Boxes[i] = resized
		t.emit(ActionUpdated, EntityBox, id)
		return nil
	})
}

// DeleteBox removes the box, its modules and its placements.
func (s *Store) DeleteBox(id string) error {
	return s.update(func(t *tx) error {
		if boxIndex(t.data, id) < 0 {
			return notFound("box", id)
		}
		removeBoxes(t, map[string]bool{id: true})
		t.emit(ActionDeleted, EntityBox, id)
		return nil
	})
}
