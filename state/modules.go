package state

import (
	"fmt"

	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/slots"
)

// ModuleUpdate carries the fields UpdateModule merges. Nil fields are left
// as they are; an empty ItemID clears the wiring.
type ModuleUpdate struct {
	Label  *string `json:"label"`
	ItemID *string `json:"itemId"`
	Notes  *string `json:"notes"`
}

// AddModule mounts a module in a box. The slot allocator validates the
// placement: slots.ErrInsufficientSpace or slots.ErrSlotOccupied is returned
// and nothing is stored when it does not fit. An empty label defaults to the
// type's label.
func (s *Store) AddModule(boxID string, typ plan.ModuleType, position int, label string) (plan.Module, error) {
	var m plan.Module
	err := s.update(func(t *tx) error {
		if !typ.Valid() {
			return invalid("module type %q", typ)
		}
		i := boxIndex(t.data, boxID)
		if i < 0 {
			return notFound("box", boxID)
		}
		if err := slots.CanPlace(t.data.Boxes[i], t.data.Modules, position, typ); err != nil {
			return fmt.Errorf("place %s at slot %d: %w", typ, position, err)
		}
		if label == "" {
			label = typ.Label()
		}
		m = plan.Module{ID: t.newID(), BoxID: boxID, Type: typ, Position: position, Label: label}
		t.data.Modules = append(t.data.Modules, m)
		t.emit(ActionCreated, EntityModule, m.ID)
		return nil
	})
	return m, err
}

func (s *Store) UpdateModule(id string, u ModuleUpdate) error {
	return s.update(func(t *tx) error {
		i := moduleIndex(t.data, id)
		if i < 0 {
			return notFound("module", id)
		}
		m := &t.data.Modules[i]
		if u.ItemID != nil && *u.ItemID != "" && itemIndex(t.data, *u.ItemID) < 0 {
			return notFound("item", *u.ItemID)
		}
		if u.Label != nil {
			m.Label = *u.Label
		}
		if u.ItemID != nil {
			m.ItemID = *u.ItemID
		}
		if u.Notes != nil {
			m.Notes = *u.Notes
		}
		t.emit(ActionUpdated, EntityModule, id)
		return nil
	})
}

func (s *Store) DeleteModule(id string) error {
	return s.update(func(t *tx) error {
		i := moduleIndex(t.data, id)
		if i < 0 {
			return notFound("module", id)
		}
		t.data.Modules = append(t.data.Modules[:i], t.data.Modules[i+1:]...)
		if t.focus.HoveredModuleID == id {
			t.focus.HoveredModuleID = ""
		}
		t.emit(ActionDeleted, EntityModule, id)
		return nil
	})
}

// AssignItem wires a module to an item, or clears the wiring when itemID is
// empty. Any number of modules may point at the same item.
func (s *Store) AssignItem(moduleID, itemID string) error {
	return s.UpdateModule(moduleID, ModuleUpdate{ItemID: &itemID})
}
