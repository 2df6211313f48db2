package plan

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_LegacySnapshotGetsEmptyFloorPlanCollections(t *testing.T) {
	data := []byte(`{
		"rooms": [{"id": "r1", "name": "Kitchen"}],
		"boxes": [{"id": "b1", "roomId": "r1", "name": "A1", "size": 4}],
		"modules": [{"id": "m1", "boxId": "b1", "type": "socket", "position": 0, "label": "Socket"}],
		"items": []
	}`)

	s, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, SchemaVersion, s.Version)
	assert.NotNil(t, s.FloorPlans)
	assert.NotNil(t, s.RoomPolygons)
	assert.NotNil(t, s.MapPositions)
	assert.Empty(t, s.FloorPlans)
	assert.Len(t, s.Modules, 1)
}

func TestDecode_MissingCoreCollection(t *testing.T) {
	cases := map[string]string{
		"rooms":   `{"boxes": [], "modules": [], "items": []}`,
		"boxes":   `{"rooms": [], "modules": [], "items": []}`,
		"modules": `{"rooms": [], "boxes": [], "items": []}`,
		"items":   `{"rooms": [], "boxes": [], "modules": []}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSnapshot))
			assert.Contains(t, err.Error(), "missing "+name)
		})
	}
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestDecode_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"box size":       `{"rooms":[{"id":"r1"}],"boxes":[{"id":"b1","roomId":"r1","size":5}],"modules":[],"items":[]}`,
		"module type":    `{"rooms":[{"id":"r1"}],"boxes":[{"id":"b1","roomId":"r1","size":4}],"modules":[{"id":"m1","boxId":"b1","type":"toaster"}],"items":[]}`,
		"item type":      `{"rooms":[{"id":"r1"}],"boxes":[],"modules":[],"items":[{"id":"i1","roomId":"r1","type":"robot"}]}`,
		"duplicate id":   `{"rooms":[{"id":"r1"},{"id":"r1"}],"boxes":[],"modules":[],"items":[]}`,
		"image url":      `{"rooms":[],"boxes":[],"modules":[],"items":[],"floorPlans":[{"id":"f1","imageUrl":"file:///etc/passwd"}]}`,
		"future version": `{"version":99,"rooms":[],"boxes":[],"modules":[],"items":[]}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(data))
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}

func TestMigrate_DropsDanglingReferences(t *testing.T) {
	s := Snapshot{
		Rooms:   []Room{{ID: "r1", Name: "Hall"}},
		Boxes:   []Box{{ID: "b1", RoomID: "r1", Size: 3}, {ID: "b2", RoomID: "gone", Size: 3}},
		Modules: []Module{{ID: "m1", BoxID: "b1", Type: ModuleDimmer, ItemID: "missing"}, {ID: "m2", BoxID: "b2", Type: ModuleBlank}},
		Items:   []Item{},
		FloorPlans: []FloorPlan{{ID: "f1"}},
		MapPositions: []MapPosition{
			{ID: "p1", FloorPlanID: "f1", EntityType: EntityBox, EntityID: "b1"},
			{ID: "p2", FloorPlanID: "f1", EntityType: EntityBox, EntityID: "b2"},
			{ID: "p3", FloorPlanID: "nope", EntityType: EntityBox, EntityID: "b1"},
		},
	}
	require.NoError(t, s.Migrate())

	require.Len(t, s.Boxes, 1)
	require.Len(t, s.Modules, 1)
	assert.Equal(t, "", s.Modules[0].ItemID)
	require.Len(t, s.MapPositions, 1)
	assert.Equal(t, "p1", s.MapPositions[0].ID)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := Snapshot{
		Rooms:   []Room{{ID: "r1", Name: "Kitchen"}},
		Boxes:   []Box{{ID: "b1", RoomID: "r1", Name: "A1", Size: 4}},
		Modules: []Module{{ID: "m1", BoxID: "b1", Type: ModuleScenario, Position: 2, Label: "Movie", Notes: "dim lights"}},
		Items:   []Item{{ID: "i1", RoomID: "r1", Type: ItemLEDs, Icon: "Star"}},
		FloorPlans: []FloorPlan{{ID: "f1", Name: "Ground", ImageURL: "data:image/png;base64,AA==", Width: 800, Height: 600}},
		RoomPolygons: []RoomPolygon{{ID: "g1", RoomID: "r1", FloorPlanID: "f1", ShapeKind: ShapeRectangle,
			Points: []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}}},
		MapPositions: []MapPosition{{ID: "p1", FloorPlanID: "f1", EntityType: EntityItem, EntityID: "i1", X: 5, Y: 6}},
	}

	data, err := s.Encode()
	require.NoError(t, err)

	var probe map[string]any
	require.NoError(t, json.Unmarshal(data, &probe))
	assert.EqualValues(t, SchemaVersion, probe["version"])

	got, err := Decode(data)
	require.NoError(t, err)
	s.Version = SchemaVersion
	assert.Equal(t, s, got)
}

func TestClone_IsDeep(t *testing.T) {
	s := Snapshot{RoomPolygons: []RoomPolygon{{ID: "g1", Points: []Point{{1, 1}, {2, 2}, {3, 1}}}}}
	c := s.Clone()
	c.RoomPolygons[0].Points[0].X = 99
	assert.Equal(t, 1.0, s.RoomPolygons[0].Points[0].X)
}

func TestLookupTables(t *testing.T) {
	assert.Equal(t, 2, ModuleSocket.Width())
	for _, mt := range ModuleTypes {
		if mt != ModuleSocket {
			assert.Equal(t, 1, mt.Width(), mt)
		}
	}
	assert.Equal(t, "Light Switch (Dumb)", ModuleLightSwitchDumb.Label())
	assert.Equal(t, "Ceiling Fan", ItemCeilingFan.Label())
	assert.Equal(t, "Sparkles", ItemLEDs.DefaultIcon())
	assert.Equal(t, "Plug", Item{Type: ItemAppliance}.DisplayIcon())
	assert.Equal(t, "Tv", Item{Type: ItemAppliance, Icon: "Tv"}.DisplayIcon())
	assert.True(t, ValidIcon("Gamepad2"))
	assert.False(t, ValidIcon("Rocket"))
	assert.True(t, ValidBoxSize(14))
	assert.False(t, ValidBoxSize(5))
}

func TestValidImageURL(t *testing.T) {
	for _, u := range []string{"data:image/png;base64,AA==", "https://example.com/plan.png", "http://10.0.0.2:8080/a.jpg"} {
		assert.True(t, ValidImageURL(u), u)
	}
	for _, u := range []string{"", "file:///etc/passwd", "javascript:alert(1)", "gopher://x", "https://", "/relative.png"} {
		assert.False(t, ValidImageURL(u), u)
	}
}
