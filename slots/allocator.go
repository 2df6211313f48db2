// Package slots derives module slot occupancy for a box and validates new
// placements against it. Occupancy is recomputed from the module list on
// every call and never stored.
package slots

import (
	"errors"
	"fmt"

	"github.com/yonbergman/electric-planner/plan"
)

var (
	ErrSlotOccupied      = errors.New("slot is occupied")
	ErrInsufficientSpace = errors.New("not enough space in box")
)

// Slot describes one position in a box.
type Slot struct {
	Position int `json:"position"`
	// ModuleID is set when a module starts at or extends over this slot.
	ModuleID string `json:"moduleId,omitempty"`
	// Continuation marks the second slot of a double-width module. It is
	// rendered as part of the first slot and never selected on its own.
	Continuation bool `json:"continuation,omitempty"`
}

func (s Slot) Free() bool { return s.ModuleID == "" }

// Layout returns the slot array for box, considering only modules that belong
// to it. Modules that do not fit are ignored.
func Layout(box plan.Box, modules []plan.Module) []Slot {
	layout := make([]Slot, box.Size)
	for i := range layout {
		layout[i].Position = i
	}
	for _, m := range modules {
		if m.BoxID != box.ID || m.Position < 0 || m.Position >= box.Size {
			continue
		}
		layout[m.Position].ModuleID = m.ID
		for k := 1; k < m.Width(); k++ {
			p := m.Position + k
			if p >= box.Size {
				break
			}
			layout[p] = Slot{Position: p, ModuleID: m.ID, Continuation: true}
		}
	}
	return layout
}

// CanPlace reports whether a module of type t fits at position in box.
// It returns ErrInsufficientSpace when the module would extend past the end
// of the box and ErrSlotOccupied when any slot it needs is taken.
func CanPlace(box plan.Box, modules []plan.Module, position int, t plan.ModuleType) error {
	return canPlace(box, modules, position, t.Width(), "")
}

// CanMove is CanPlace for an existing module, which does not collide with
// itself.
func CanMove(box plan.Box, modules []plan.Module, m plan.Module, position int) error {
	return canPlace(box, modules, position, m.Width(), m.ID)
}

func canPlace(box plan.Box, modules []plan.Module, position, width int, ignore string) error {
	if position < 0 || position+width > box.Size {
		return ErrInsufficientSpace
	}
	layout := Layout(box, modules)
	for p := position; p < position+width; p++ {
		if id := layout[p].ModuleID; id != "" && id != ignore {
			return ErrSlotOccupied
		}
	}
	return nil
}

// CheckBox verifies that every module of box fits inside it and that no two
// modules overlap.
func CheckBox(box plan.Box, modules []plan.Module) error {
	var placed []plan.Module
	for _, m := range modules {
		if m.BoxID != box.ID {
			continue
		}
		if err := CanPlace(box, placed, m.Position, m.Type); err != nil {
			return err
		}
		placed = append(placed, m)
	}
	return nil
}

// CheckSnapshot runs CheckBox for every box in s. Failures wrap
// plan.ErrInvalidSnapshot.
func CheckSnapshot(s plan.Snapshot) error {
	for _, b := range s.Boxes {
		if err := CheckBox(b, s.Modules); err != nil {
			return fmt.Errorf("%w: box %q: %v", plan.ErrInvalidSnapshot, b.ID, err)
		}
	}
	return nil
}

// FreePositions lists the positions where a module of type t could start.
func FreePositions(box plan.Box, modules []plan.Module, t plan.ModuleType) []int {
	var out []int
	for p := 0; p < box.Size; p++ {
		if CanPlace(box, modules, p, t) == nil {
			out = append(out, p)
		}
	}
	return out
}
