package state

import (
	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/slots"
)

// Import replaces the whole plan. The snapshot is migrated and validated
// first, including slot overlap in every box; on failure the error wraps
// plan.ErrInvalidSnapshot and the store is left untouched. The selection
// moves to the first imported room and hover state is cleared.
func (s *Store) Import(snap plan.Snapshot) error {
	next, err := prepare(snap)
	if err != nil {
		return err
	}
	return s.update(func(t *tx) error {
		*t.data = next
		*t.focus = Focus{}
		if len(next.Rooms) > 0 {
			t.focus.SelectedRoomID = next.Rooms[0].ID
		}
		t.emit(ActionImported, EntityPlan, "")
		return nil
	})
}

// ImportJSON decodes and imports a serialized snapshot.
func (s *Store) ImportJSON(data []byte) error {
	snap, err := plan.Decode(data)
	if err != nil {
		return err
	}
	return s.Import(snap)
}

// Restore loads a persisted snapshot at startup. It applies the same checks
// as Import but reports no change.
func (s *Store) Restore(snap plan.Snapshot) error {
	next, err := prepare(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = next
	s.focus = Focus{}
	if len(next.Rooms) > 0 {
		s.focus.SelectedRoomID = next.Rooms[0].ID
	}
	return nil
}

// ExportJSON serializes the current plan.
func (s *Store) ExportJSON() ([]byte, error) {
	return s.Export().Encode()
}

func prepare(snap plan.Snapshot) (plan.Snapshot, error) {
	next := snap.Clone()
	if err := next.Migrate(); err != nil {
		return plan.Snapshot{}, err
	}
	if err := next.Validate(); err != nil {
		return plan.Snapshot{}, err
	}
	if err := slots.CheckSnapshot(next); err != nil {
		return plan.Snapshot{}, err
	}
	return next, nil
}
