package mapview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonbergman/electric-planner/geometry"
	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/state"
)

type fixture struct {
	store *state.Store
	fp    plan.FloorPlan
	room  plan.Room
	box   plan.Box
	item  plan.Item
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s := state.New(nil)
	room, err := s.AddRoom("Kitchen")
	require.NoError(t, err)
	box, err := s.AddBox(room.ID, "A1", 4)
	require.NoError(t, err)
	item, err := s.AddItem(room.ID, plan.ItemLight, "Pendant")
	require.NoError(t, err)
	fp, err := s.AddFloorPlan("Ground", "data:image/png;base64,AA==", 1000, 800)
	require.NoError(t, err)
	return fixture{store: s, fp: fp, room: room, box: box, item: item}
}

func pt(x, y float64) plan.Point { return plan.Point{X: x, Y: y} }

func TestController_PanOnEmptySpace(t *testing.T) {
	f := newFixture(t)
	c := NewController(f.store, f.fp.ID)

	require.NoError(t, c.PointerDown(pt(10, 10)))
	assert.Equal(t, ModePanning, c.Mode())
	c.PointerMove(pt(30, 15))
	require.NoError(t, c.PointerUp(pt(40, 20)))

	assert.Equal(t, ModeIdle, c.Mode())
	assert.Equal(t, pt(30, 10), c.View().Pan)
}

func TestController_MoveEntityCommitsOnRelease(t *testing.T) {
	f := newFixture(t)
	pos, err := f.store.PlaceBox(f.fp.ID, f.box.ID, 100, 100)
	require.NoError(t, err)
	c := NewController(f.store, f.fp.ID)
	c.SetView(geometry.View{Zoom: 2, Pan: pt(0, 0)})

	// World (102,102) is within the box radius of (100,100).
	require.NoError(t, c.PointerDown(pt(204, 204)))
	require.Equal(t, ModeMovingEntity, c.Mode())

	c.PointerMove(pt(304, 404))
	preview, ok := c.Preview()
	require.True(t, ok)
	assert.Equal(t, pt(150, 200), preview.Point())
	assert.Equal(t, pt(100, 100), f.store.Positions(f.fp.ID)[0].Point(), "store untouched while dragging")

	require.NoError(t, c.PointerUp(pt(304, 404)))
	assert.Equal(t, ModeIdle, c.Mode())
	positions := f.store.Positions(f.fp.ID)
	require.Len(t, positions, 1)
	assert.Equal(t, pos.ID, positions[0].ID)
	assert.Equal(t, pt(150, 200), positions[0].Point())
}

func TestController_CancelMoveKeepsStoredPosition(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.PlaceItem(f.fp.ID, f.item.ID, 50, 50)
	require.NoError(t, err)
	c := NewController(f.store, f.fp.ID)

	require.NoError(t, c.PointerDown(pt(50, 50)))
	c.PointerMove(pt(400, 400))
	c.Cancel()

	assert.Equal(t, ModeIdle, c.Mode())
	assert.Equal(t, pt(50, 50), f.store.Positions(f.fp.ID)[0].Point())
}

func TestController_PlacingCommitsAtClickedWorldPoint(t *testing.T) {
	f := newFixture(t)
	c := NewController(f.store, f.fp.ID)
	c.SetView(geometry.View{Zoom: 2, Pan: pt(100, 0)})

	require.NoError(t, c.BeginPlacing(Target{EntityType: plan.EntityItem, EntityID: f.item.ID}))
	assert.Equal(t, ModePlacing, c.Mode())
	require.NoError(t, c.PointerDown(pt(300, 200)))

	assert.Equal(t, ModeIdle, c.Mode())
	positions := f.store.Positions(f.fp.ID)
	require.Len(t, positions, 1)
	assert.Equal(t, plan.EntityItem, positions[0].EntityType)
	assert.Equal(t, pt(100, 100), positions[0].Point())
}

func TestController_MutualExclusion(t *testing.T) {
	f := newFixture(t)
	c := NewController(f.store, f.fp.ID)
	target := Target{EntityType: plan.EntityBox, EntityID: f.box.ID}

	require.NoError(t, c.PointerDown(pt(500, 500)))
	require.Equal(t, ModePanning, c.Mode())
	assert.ErrorIs(t, c.BeginPlacing(target), ErrBusy)
	assert.ErrorIs(t, c.BeginDrawing(f.room.ID, plan.ShapeRectangle), ErrBusy)
	assert.ErrorIs(t, c.PointerDown(pt(500, 500)), ErrBusy)
	assert.ErrorIs(t, c.Drop(pt(1, 1), target), ErrBusy)
	require.NoError(t, c.PointerUp(pt(500, 500)))

	require.NoError(t, c.BeginDrawing(f.room.ID, plan.ShapePolygon))
	assert.ErrorIs(t, c.BeginPlacing(target), ErrBusy)
	c.Cancel()
	require.NoError(t, c.BeginPlacing(target))
}

func TestController_DropWhilePlacing(t *testing.T) {
	f := newFixture(t)
	c := NewController(f.store, f.fp.ID)
	require.NoError(t, c.BeginPlacing(Target{EntityType: plan.EntityItem, EntityID: f.item.ID}))

	require.NoError(t, c.Drop(pt(20, 30), Target{EntityType: plan.EntityBox, EntityID: f.box.ID}))

	assert.Equal(t, ModeIdle, c.Mode())
	positions := f.store.Positions(f.fp.ID)
	require.Len(t, positions, 1)
	assert.Equal(t, f.box.ID, positions[0].EntityID)
}

func TestController_DrawRectangle(t *testing.T) {
	f := newFixture(t)
	c := NewController(f.store, f.fp.ID)
	require.NoError(t, c.BeginDrawing(f.room.ID, plan.ShapeRectangle))

	require.NoError(t, c.PointerDown(pt(10, 10)))
	c.PointerMove(pt(50, 40))
	tool, ok := c.Drawing()
	require.True(t, ok)
	assert.Len(t, tool.Outline(), 4)
	require.NoError(t, c.PointerUp(pt(60, 70)))

	assert.Equal(t, ModeIdle, c.Mode())
	polys := f.store.Export().RoomPolygons
	require.Len(t, polys, 1)
	assert.Equal(t, plan.ShapeRectangle, polys[0].ShapeKind)
	assert.Equal(t, []plan.Point{pt(10, 10), pt(60, 10), pt(60, 70), pt(10, 70)}, polys[0].Points)
}

func TestController_DegenerateRectangleIsDiscarded(t *testing.T) {
	f := newFixture(t)
	c := NewController(f.store, f.fp.ID)
	require.NoError(t, c.BeginDrawing(f.room.ID, plan.ShapeRectangle))

	require.NoError(t, c.PointerDown(pt(10, 10)))
	require.NoError(t, c.PointerUp(pt(10, 90)))

	assert.Equal(t, ModeIdle, c.Mode())
	assert.Empty(t, f.store.Export().RoomPolygons)
}

func TestController_DrawPolygon(t *testing.T) {
	f := newFixture(t)
	c := NewController(f.store, f.fp.ID)
	require.NoError(t, c.BeginDrawing(f.room.ID, plan.ShapePolygon))

	require.NoError(t, c.PointerDown(pt(0, 0)))
	require.NoError(t, c.PointerDown(pt(100, 0)))
	assert.ErrorIs(t, c.DoubleClick(pt(100, 0)), ErrTooFewPoints)
	assert.Equal(t, ModeDrawing, c.Mode())

	require.NoError(t, c.PointerDown(pt(100, 100)))
	require.NoError(t, c.PointerDown(pt(100, 100)))
	require.NoError(t, c.DoubleClick(pt(100, 100)))

	assert.Equal(t, ModeIdle, c.Mode())
	polys := f.store.Export().RoomPolygons
	require.Len(t, polys, 1)
	assert.Equal(t, []plan.Point{pt(0, 0), pt(100, 0), pt(100, 100)}, polys[0].Points)
	assert.Equal(t, f.room.ID, polys[0].RoomID)
}

func TestController_CancelDiscardsPolygon(t *testing.T) {
	f := newFixture(t)
	c := NewController(f.store, f.fp.ID)
	require.NoError(t, c.BeginDrawing(f.room.ID, plan.ShapePolygon))
	for _, p := range []plan.Point{pt(0, 0), pt(10, 0), pt(10, 10), pt(0, 10)} {
		require.NoError(t, c.PointerDown(p))
	}
	c.Cancel()

	assert.Equal(t, ModeIdle, c.Mode())
	assert.Empty(t, f.store.Export().RoomPolygons)
}

func TestController_WheelZoomKeepsCursorAnchored(t *testing.T) {
	f := newFixture(t)
	c := NewController(f.store, f.fp.ID)
	cursor := pt(240, 120)
	before := c.View().ScreenToWorld(cursor)

	c.Wheel(cursor, -100, false)
	c.Wheel(cursor, -100, false)

	after := c.View().ScreenToWorld(cursor)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
	assert.InDelta(t, 1.21, c.View().Zoom, 1e-9)
}

func TestController_BeginDrawingRejectsUnknownShape(t *testing.T) {
	f := newFixture(t)
	c := NewController(f.store, f.fp.ID)

	assert.Error(t, c.BeginDrawing(f.room.ID, plan.ShapeKind("circle")))
	assert.Equal(t, ModeIdle, c.Mode())

	require.NoError(t, c.BeginDrawing(f.room.ID, ""))
	assert.Equal(t, ModeDrawing, c.Mode())
}
