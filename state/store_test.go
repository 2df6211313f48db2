package state

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/slots"
)

// newTestStore returns a store with sequential ids and a record of emitted
// changes.
func newTestStore(t *testing.T) (*Store, *[]Change) {
	t.Helper()
	var changes []Change
	s := New(EmitterFunc(func(c Change) { changes = append(changes, c) }))
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
	return s, &changes
}

func TestKitchenScenario(t *testing.T) {
	s, _ := newTestStore(t)

	kitchen, err := s.AddRoom("Kitchen")
	require.NoError(t, err)
	box, err := s.AddBox(kitchen.ID, "A1", 4)
	require.NoError(t, err)

	socket, err := s.AddModule(box.ID, plan.ModuleSocket, 0, "")
	require.NoError(t, err)
	assert.Equal(t, "Socket", socket.Label)

	layout, err := s.BoxLayout(box.ID)
	require.NoError(t, err)
	assert.Equal(t, socket.ID, layout[0].ModuleID)
	assert.Equal(t, socket.ID, layout[1].ModuleID)
	assert.True(t, layout[1].Continuation)

	_, err = s.AddModule(box.ID, plan.ModuleLightSwitchDumb, 1, "")
	require.ErrorIs(t, err, slots.ErrSlotOccupied)
	assert.Len(t, s.Export().Modules, 1)

	sw, err := s.AddModule(box.ID, plan.ModuleLightSwitchDumb, 2, "Island")
	require.NoError(t, err)
	assert.Equal(t, 2, sw.Position)

	item, err := s.AddItem(kitchen.ID, plan.ItemAppliance, "Kettle")
	require.NoError(t, err)
	require.NoError(t, s.AssignItem(socket.ID, item.ID))
	require.NoError(t, s.DeleteItem(item.ID))

	snap := s.Export()
	require.Len(t, snap.Modules, 2)
	assert.Equal(t, socket.ID, snap.Modules[0].ID)
	assert.Empty(t, snap.Modules[0].ItemID)
}

func TestAddModule_InsufficientSpace(t *testing.T) {
	s, _ := newTestStore(t)
	room, _ := s.AddRoom("Hall")
	box, _ := s.AddBox(room.ID, "H1", 3)

	_, err := s.AddModule(box.ID, plan.ModuleSocket, 2, "")
	assert.ErrorIs(t, err, slots.ErrInsufficientSpace)
}

func TestUnknownIDsAreNotFound(t *testing.T) {
	s, changes := newTestStore(t)
	room, _ := s.AddRoom("Hall")
	_, err := s.AddItem(room.ID, plan.ItemLight, "")
	require.NoError(t, err)
	before := s.Export()
	*changes = nil

	assert.ErrorIs(t, s.DeleteRoom("nope"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteBox("nope"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteModule("nope"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteItem("nope"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteFloorPlan("nope"), ErrNotFound)
	assert.ErrorIs(t, s.AssignItem("nope", ""), ErrNotFound)
	assert.ErrorIs(t, s.SelectRoom("nope"), ErrNotFound)
	assert.ErrorIs(t, s.MovePosition("nope", 1, 1), ErrNotFound)
	_, err = s.AddBox("nope", "X", 4)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, before, s.Export())
	assert.Empty(t, *changes)
}

func TestDeleteRoomCascades(t *testing.T) {
	s, _ := newTestStore(t)
	kitchen, _ := s.AddRoom("Kitchen")
	hall, _ := s.AddRoom("Hall")
	box, _ := s.AddBox(kitchen.ID, "K1", 4)
	other, _ := s.AddBox(hall.ID, "H1", 4)
	m, _ := s.AddModule(box.ID, plan.ModuleDimmer, 0, "")
	light, _ := s.AddItem(kitchen.ID, plan.ItemLight, "Pendant")
	hallLight, _ := s.AddItem(hall.ID, plan.ItemLight, "")
	hallSwitch, _ := s.AddModule(other.ID, plan.ModuleLightSwitchDumb, 0, "")
	require.NoError(t, s.AssignItem(hallSwitch.ID, light.ID))
	require.NoError(t, s.AssignItem(m.ID, hallLight.ID))

	fp, _ := s.AddFloorPlan("Ground", "data:image/png;base64,AA==", 800, 600)
	_, err := s.PlaceBox(fp.ID, box.ID, 10, 10)
	require.NoError(t, err)
	_, err = s.PlaceItem(fp.ID, light.ID, 20, 20)
	require.NoError(t, err)
	_, err = s.PlaceItem(fp.ID, hallLight.ID, 30, 30)
	require.NoError(t, err)
	_, err = s.AddRoomPolygon(kitchen.ID, fp.ID, []plan.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, "")
	require.NoError(t, err)

	require.NoError(t, s.SelectRoom(kitchen.ID))
	require.NoError(t, s.SetHoveredModule(m.ID))
	require.NoError(t, s.DeleteRoom(kitchen.ID))

	snap := s.Export()
	assert.Equal(t, []plan.Room{hall}, snap.Rooms)
	assert.Equal(t, []plan.Box{other}, snap.Boxes)
	require.Len(t, snap.Modules, 1)
	assert.Equal(t, hallSwitch.ID, snap.Modules[0].ID)
	assert.Empty(t, snap.Modules[0].ItemID)
	assert.Equal(t, []plan.Item{hallLight}, snap.Items)
	assert.Empty(t, snap.RoomPolygons)
	require.Len(t, snap.MapPositions, 1)
	assert.Equal(t, hallLight.ID, snap.MapPositions[0].EntityID)
	assert.Equal(t, Focus{}, s.Focus())
	assertNoDangling(t, snap)
}

func TestDeleteBoxCascades(t *testing.T) {
	s, _ := newTestStore(t)
	room, _ := s.AddRoom("Office")
	box, _ := s.AddBox(room.ID, "O1", 7)
	_, _ = s.AddModule(box.ID, plan.ModuleSocket, 0, "")
	_, _ = s.AddModule(box.ID, plan.ModuleEthernet, 2, "")
	fp, _ := s.AddFloorPlan("First", "data:image/png;base64,AA==", 0, 0)
	_, _ = s.PlaceBox(fp.ID, box.ID, 5, 5)

	require.NoError(t, s.DeleteBox(box.ID))

	snap := s.Export()
	assert.Empty(t, snap.Boxes)
	assert.Empty(t, snap.Modules)
	assert.Empty(t, snap.MapPositions)
	assertNoDangling(t, snap)
}

func TestDeleteFloorPlanCascades(t *testing.T) {
	s, _ := newTestStore(t)
	room, _ := s.AddRoom("Office")
	item, _ := s.AddItem(room.ID, plan.ItemBlinds, "")
	keep, _ := s.AddFloorPlan("Keep", "data:image/png;base64,AA==", 100, 100)
	drop, _ := s.AddFloorPlan("Drop", "data:image/png;base64,AA==", 100, 100)
	square := []plan.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	_, _ = s.AddRoomPolygon(room.ID, keep.ID, square, plan.ShapeRectangle)
	_, _ = s.AddRoomPolygon(room.ID, drop.ID, square, plan.ShapeRectangle)
	kept, _ := s.PlaceItem(keep.ID, item.ID, 1, 1)
	_, _ = s.PlaceItem(drop.ID, item.ID, 1, 1)

	require.NoError(t, s.DeleteFloorPlan(drop.ID))

	snap := s.Export()
	assert.Equal(t, []plan.FloorPlan{keep}, snap.FloorPlans)
	require.Len(t, snap.RoomPolygons, 1)
	assert.Equal(t, keep.ID, snap.RoomPolygons[0].FloorPlanID)
	assert.Equal(t, []plan.MapPosition{kept}, snap.MapPositions)
	assertNoDangling(t, snap)
}

func TestUpdateBox_RejectsOrphaningShrink(t *testing.T) {
	s, _ := newTestStore(t)
	room, _ := s.AddRoom("Hall")
	box, _ := s.AddBox(room.ID, "H1", 7)
	_, err := s.AddModule(box.ID, plan.ModuleBlank, 5, "")
	require.NoError(t, err)

	err = s.UpdateBox(box.ID, "H1", 4)
	require.ErrorIs(t, err, slots.ErrInsufficientSpace)
	assert.Equal(t, 7, s.Export().Boxes[0].Size)

	require.NoError(t, s.UpdateBox(box.ID, "Hall main", 14))
	assert.Equal(t, plan.Box{ID: box.ID, RoomID: room.ID, Name: "Hall main", Size: 14}, s.Export().Boxes[0])

	err = s.UpdateBox(box.ID, "Hall main", 5)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestPlacementModel(t *testing.T) {
	s, _ := newTestStore(t)
	room, _ := s.AddRoom("Living")
	box, _ := s.AddBox(room.ID, "L1", 4)
	fan, _ := s.AddItem(room.ID, plan.ItemCeilingFan, "")
	fp, _ := s.AddFloorPlan("Ground", "data:image/png;base64,AA==", 500, 500)

	first, err := s.PlaceBox(fp.ID, box.ID, 10, 10)
	require.NoError(t, err)
	again, err := s.PlaceBox(fp.ID, box.ID, 50, 60)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	a, _ := s.PlaceItem(fp.ID, fan.ID, 100, 100)
	b, _ := s.PlaceItem(fp.ID, fan.ID, 200, 200)
	assert.NotEqual(t, a.ID, b.ID)

	positions := s.Positions(fp.ID)
	require.Len(t, positions, 3)
	assert.Equal(t, 50.0, positions[0].X)
	assert.Equal(t, 60.0, positions[0].Y)

	require.NoError(t, s.MovePosition(b.ID, 250, 260))
	require.NoError(t, s.RemovePosition(a.ID))
	positions = s.Positions(fp.ID)
	require.Len(t, positions, 2)
	assert.Equal(t, plan.Point{X: 250, Y: 260}, positions[1].Point())

	_, err = s.Place(fp.ID, "lamp", fan.ID, 0, 0)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestAddRoomPolygon_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	room, _ := s.AddRoom("Bath")
	fp, _ := s.AddFloorPlan("Ground", "data:image/png;base64,AA==", 10, 10)

	_, err := s.AddRoomPolygon(room.ID, fp.ID, []plan.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, "")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.AddRoomPolygon(room.ID, fp.ID, []plan.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}, "circle")
	assert.ErrorIs(t, err, ErrInvalid)

	pts := []plan.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	poly, err := s.AddRoomPolygon(room.ID, fp.ID, pts, "")
	require.NoError(t, err)
	assert.Equal(t, plan.ShapePolygon, poly.ShapeKind)

	pts[0].X = 99
	assert.Equal(t, 0.0, s.Export().RoomPolygons[0].Points[0].X)

	require.NoError(t, s.DeleteRoomPolygon(poly.ID))
	assert.Empty(t, s.Export().RoomPolygons)
}

func TestFocus(t *testing.T) {
	s, changes := newTestStore(t)
	room, _ := s.AddRoom("Den")
	item, _ := s.AddItem(room.ID, plan.ItemLEDs, "")
	*changes = nil

	require.NoError(t, s.SelectRoom(room.ID))
	require.NoError(t, s.SetHoveredItem(item.ID))
	assert.Equal(t, Focus{SelectedRoomID: room.ID, HoveredItemID: item.ID}, s.Focus())

	require.NoError(t, s.DeleteItem(item.ID))
	assert.Empty(t, s.Focus().HoveredItemID)

	require.NoError(t, s.SelectRoom(""))
	assert.Empty(t, s.Focus().SelectedRoomID)

	require.Len(t, *changes, 4)
	assert.Equal(t, Change{Action: ActionUpdated, Entity: EntityFocus, ID: room.ID}, (*changes)[0])
	assert.Equal(t, Change{Action: ActionDeleted, Entity: EntityItem, ID: item.ID}, (*changes)[2])
}

func TestExportImportRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	buildSample(t, s)
	before := s.Export()
	require.NoError(t, s.SelectRoom(before.Rooms[1].ID))

	require.NoError(t, s.Import(s.Export()))

	assert.Equal(t, before, s.Export())
	assert.Equal(t, before.Rooms[0].ID, s.Focus().SelectedRoomID)
}

func TestImportJSON_ResetsSelectionOnEmptyPlan(t *testing.T) {
	s, changes := newTestStore(t)
	room, _ := s.AddRoom("Den")
	require.NoError(t, s.SelectRoom(room.ID))
	*changes = nil

	require.NoError(t, s.ImportJSON([]byte(`{"rooms":[],"boxes":[],"modules":[],"items":[]}`)))

	assert.Empty(t, s.Export().Rooms)
	assert.Equal(t, Focus{}, s.Focus())
	assert.Equal(t, []Change{{Action: ActionImported, Entity: EntityPlan}}, *changes)
}

func TestImport_RejectedLeavesStoreUnchanged(t *testing.T) {
	s, changes := newTestStore(t)
	buildSample(t, s)
	before := s.Export()
	focus := s.Focus()
	*changes = nil

	cases := map[string]string{
		"missing items": `{"rooms":[],"boxes":[],"modules":[]}`,
		"bad size":      `{"rooms":[{"id":"r"}],"boxes":[{"id":"b","roomId":"r","size":2}],"modules":[],"items":[]}`,
		"overlap": `{"rooms":[{"id":"r"}],"boxes":[{"id":"b","roomId":"r","size":4}],"modules":[
			{"id":"m1","boxId":"b","type":"socket","position":0},
			{"id":"m2","boxId":"b","type":"blank","position":1}],"items":[]}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			err := s.ImportJSON([]byte(data))
			require.ErrorIs(t, err, plan.ErrInvalidSnapshot)
			assert.Equal(t, before, s.Export())
			assert.Equal(t, focus, s.Focus())
		})
	}
	assert.Empty(t, *changes)
}

func TestRestore_DoesNotEmit(t *testing.T) {
	src, _ := newTestStore(t)
	buildSample(t, src)

	s, changes := newTestStore(t)
	require.NoError(t, s.Restore(src.Export()))
	assert.Equal(t, src.Export(), s.Export())
	assert.Empty(t, *changes)
}

func TestCodecRoundTripSnapshot(t *testing.T) {
	s, _ := newTestStore(t)
	buildSample(t, s)
	snap := s.Export()

	data, err := snap.Encode()
	require.NoError(t, err)
	decoded, err := plan.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, snap, decoded)
}

func TestExportIsACopy(t *testing.T) {
	s, _ := newTestStore(t)
	buildSample(t, s)
	snap := s.Export()
	snap.Rooms[0].Name = "changed"
	snap.RoomPolygons[0].Points[0].X = 1000
	assert.NotEqual(t, "changed", s.Export().Rooms[0].Name)
	assert.NotEqual(t, 1000.0, s.Export().RoomPolygons[0].Points[0].X)
}

// buildSample creates two rooms, a box with a double-width module, an item
// wired to two modules and a floor plan with a polygon and two placements of
// that item.
func buildSample(t *testing.T, s *Store) {
	t.Helper()
	kitchen, err := s.AddRoom("Kitchen")
	require.NoError(t, err)
	_, err = s.AddRoom("Hall")
	require.NoError(t, err)
	box, err := s.AddBox(kitchen.ID, "A1", 4)
	require.NoError(t, err)
	socket, err := s.AddModule(box.ID, plan.ModuleSocket, 0, "")
	require.NoError(t, err)
	sw, err := s.AddModule(box.ID, plan.ModuleLightSwitchSmart, 2, "Main")
	require.NoError(t, err)
	light, err := s.AddItem(kitchen.ID, plan.ItemLight, "Ceiling")
	require.NoError(t, err)
	require.NoError(t, s.AssignItem(socket.ID, light.ID))
	require.NoError(t, s.AssignItem(sw.ID, light.ID))
	fp, err := s.AddFloorPlan("Ground", "data:image/png;base64,AA==", 640, 480)
	require.NoError(t, err)
	_, err = s.AddRoomPolygon(kitchen.ID, fp.ID, []plan.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 80}, {X: 0, Y: 80}}, plan.ShapeRectangle)
	require.NoError(t, err)
	_, err = s.PlaceItem(fp.ID, light.ID, 20, 20)
	require.NoError(t, err)
	_, err = s.PlaceItem(fp.ID, light.ID, 60, 40)
	require.NoError(t, err)
	_, err = s.PlaceBox(fp.ID, box.ID, 5, 70)
	require.NoError(t, err)
}

func assertNoDangling(t *testing.T, snap plan.Snapshot) {
	t.Helper()
	ids := make(map[string]bool)
	for _, r := range snap.Rooms {
		ids[r.ID] = true
	}
	for _, b := range snap.Boxes {
		ids[b.ID] = true
		assert.True(t, ids[b.RoomID], "box %s references missing room", b.ID)
	}
	for _, it := range snap.Items {
		ids[it.ID] = true
		assert.True(t, ids[it.RoomID], "item %s references missing room", it.ID)
	}
	for _, fp := range snap.FloorPlans {
		ids[fp.ID] = true
	}
	for _, m := range snap.Modules {
		assert.True(t, ids[m.BoxID], "module %s references missing box", m.ID)
		if m.ItemID != "" {
			assert.True(t, ids[m.ItemID], "module %s references missing item", m.ID)
		}
	}
	for _, p := range snap.RoomPolygons {
		assert.True(t, ids[p.RoomID] && ids[p.FloorPlanID], "polygon %s dangles", p.ID)
	}
	for _, p := range snap.MapPositions {
		assert.True(t, ids[p.EntityID] && ids[p.FloorPlanID], "position %s dangles", p.ID)
	}
}

func TestAddFloorPlan_RejectsUnsupportedImageURL(t *testing.T) {
	s, changes := newTestStore(t)
	for _, u := range []string{"", "file:///etc/passwd", "javascript:alert(1)"} {
		_, err := s.AddFloorPlan("Ground", u, 10, 10)
		assert.ErrorIs(t, err, ErrInvalid, u)
	}
	assert.Empty(t, s.Export().FloorPlans)
	assert.Empty(t, *changes)
}
