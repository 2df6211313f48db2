// Package state holds the planner's entity store: the single source of truth
// for rooms, boxes, modules, items, floor plans, room polygons and map
// positions, plus the current selection and hover focus.
//
// Every operation runs against a private copy of the data and commits only
// when it succeeds, so readers never observe a partially applied change and
// cascades always land together with the delete that caused them.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/slots"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid value")
)

// Focus is the UI focus that travels with the store.
type Focus struct {
	SelectedRoomID  string `json:"selectedRoomId,omitempty"`
	HoveredItemID   string `json:"hoveredItemId,omitempty"`
	HoveredModuleID string `json:"hoveredModuleId,omitempty"`
}

// Store is the entity store. The zero value is not usable; call New.
type Store struct {
	mu      sync.Mutex
	data    plan.Snapshot
	focus   Focus
	emitter Emitter
	newID   func() string
}

// New returns an empty store reporting committed changes to emitter. A nil
// emitter discards them.
func New(emitter Emitter) *Store {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &Store{
		data:    plan.Empty(),
		emitter: emitter,
		newID:   plan.NewID,
	}
}

// tx is the working copy handed to an update.
type tx struct {
	data    *plan.Snapshot
	focus   *Focus
	newID   func() string
	changes []Change
}

func (t *tx) emit(action Action, entity Entity, id string) {
	t.changes = append(t.changes, Change{Action: action, Entity: entity, ID: id})
}

// update runs fn against a copy of the store and commits the copy if fn
// succeeds. Changes are emitted after the lock is released.
func (s *Store) update(fn func(t *tx) error) error {
	s.mu.Lock()
	work := s.data.Clone()
	focus := s.focus
	t := &tx{data: &work, focus: &focus, newID: s.newID}
	if err := fn(t); err != nil {
		s.mu.Unlock()
		return err
	}
	s.data = work
	s.focus = focus
	changes := t.changes
	s.mu.Unlock()

	for _, c := range changes {
		s.emitter.EmitChanged(c)
	}
	return nil
}

// read runs fn under the lock against the live data. fn must not retain or
// modify what it is given.
func (s *Store) read(fn func(d *plan.Snapshot, f Focus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data, s.focus)
}

// Export returns a copy of every collection.
func (s *Store) Export() plan.Snapshot {
	var out plan.Snapshot
	s.read(func(d *plan.Snapshot, _ Focus) { out = d.Clone() })
	return out
}

// Focus returns the current selection and hover state.
func (s *Store) Focus() Focus {
	var f Focus
	s.read(func(_ *plan.Snapshot, cur Focus) { f = cur })
	return f
}

// Summary returns the bill of materials for the current plan.
func (s *Store) Summary() plan.Summary {
	var sum plan.Summary
	s.read(func(d *plan.Snapshot, _ Focus) { sum = plan.Summarize(*d) })
	return sum
}

// BoxLayout returns the derived slot layout of a box.
func (s *Store) BoxLayout(boxID string) ([]slots.Slot, error) {
	var (
		layout []slots.Slot
		err    error
	)
	s.read(func(d *plan.Snapshot, _ Focus) {
		i := boxIndex(d, boxID)
		if i < 0 {
			err = notFound("box", boxID)
			return
		}
		layout = slots.Layout(d.Boxes[i], d.Modules)
	})
	return layout, err
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func roomIndex(d *plan.Snapshot, id string) int {
	for i := range d.Rooms {
		if d.Rooms[i].ID == id {
			return i
		}
	}
	return -1
}

func boxIndex(d *plan.Snapshot, id string) int {
	for i := range d.Boxes {
		if d.Boxes[i].ID == id {
			return i
		}
	}
	return -1
}

func moduleIndex(d *plan.Snapshot, id string) int {
	for i := range d.Modules {
		if d.Modules[i].ID == id {
			return i
		}
	}
	return -1
}

func itemIndex(d *plan.Snapshot, id string) int {
	for i := range d.Items {
		if d.Items[i].ID == id {
			return i
		}
	}
	return -1
}

func floorPlanIndex(d *plan.Snapshot, id string) int {
	for i := range d.FloorPlans {
		if d.FloorPlans[i].ID == id {
			return i
		}
	}
	return -1
}

func polygonIndex(d *plan.Snapshot, id string) int {
	for i := range d.RoomPolygons {
		if d.RoomPolygons[i].ID == id {
			return i
		}
	}
	return -1
}

func positionIndex(d *plan.Snapshot, id string) int {
	for i := range d.MapPositions {
		if d.MapPositions[i].ID == id {
			return i
		}
	}
	return -1
}
