// Package mapview drives a floor-plan viewport: the pointer state machine for
// panning, moving, placing and polygon drawing, plus floor-plan image intake.
//
// The controller holds only interaction state. Every change to the plan goes
// through the Store it is given, and rendering reads the controller without
// mutating it.
package mapview

import (
	"errors"
	"fmt"

	"github.com/yonbergman/electric-planner/geometry"
	"github.com/yonbergman/electric-planner/plan"
)

// ErrBusy is returned when an interaction is started while another one is
// still active.
var ErrBusy = errors.New("another map interaction is in progress")

// Mode is the active pointer interaction. Exactly one is active at a time.
type Mode int

const (
	ModeIdle Mode = iota
	ModePanning
	ModeMovingEntity
	ModePlacing
	ModeDrawing
)

var modeNames = [...]string{"idle", "panning", "moving", "placing", "drawing"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Store is the part of the entity store the map mutates.
type Store interface {
	Positions(floorPlanID string) []plan.MapPosition
	Place(floorPlanID string, entityType plan.EntityType, entityID string, x, y float64) (plan.MapPosition, error)
	MovePosition(id string, x, y float64) error
	AddRoomPolygon(roomID, floorPlanID string, points []plan.Point, kind plan.ShapeKind) (plan.RoomPolygon, error)
}

// Target names an entity waiting to be placed.
type Target struct {
	EntityType plan.EntityType `json:"entityType"`
	EntityID   string          `json:"entityId"`
}

// Controller is the interaction state of one floor-plan viewport.
type Controller struct {
	store       Store
	floorPlanID string
	view        geometry.View
	mode        Mode

	last    plan.Point // screen point of the previous pan event
	moving  plan.MapPosition
	grab    plan.Point // world offset from the grabbed position to the pointer
	placing Target
	draw    *PolygonTool
}

func NewController(store Store, floorPlanID string) *Controller {
	return &Controller{store: store, floorPlanID: floorPlanID, view: geometry.DefaultView()}
}

func (c *Controller) FloorPlanID() string { return c.floorPlanID }
func (c *Controller) Mode() Mode          { return c.mode }
func (c *Controller) View() geometry.View { return c.view }

func (c *Controller) SetView(v geometry.View) {
	v.Zoom = geometry.ClampZoom(v.Zoom)
	c.view = v
}

// Preview returns the position being dragged with its live coordinates.
func (c *Controller) Preview() (plan.MapPosition, bool) {
	return c.moving, c.mode == ModeMovingEntity
}

// Placing returns the entity waiting to be dropped on the map.
func (c *Controller) Placing() (Target, bool) {
	return c.placing, c.mode == ModePlacing
}

// Drawing returns the active polygon tool.
func (c *Controller) Drawing() (*PolygonTool, bool) {
	return c.draw, c.mode == ModeDrawing
}

// BeginPlacing arms placement of an entity picked from a side list. The next
// click on the map commits it.
func (c *Controller) BeginPlacing(t Target) error {
	if c.mode != ModeIdle {
		return ErrBusy
	}
	if !t.EntityType.Valid() {
		return fmt.Errorf("place %q: unknown entity type", t.EntityType)
	}
	c.placing = t
	c.mode = ModePlacing
	return nil
}

// BeginDrawing starts a room-boundary tool for roomID.
func (c *Controller) BeginDrawing(roomID string, kind plan.ShapeKind) error {
	if c.mode != ModeIdle {
		return ErrBusy
	}
	if kind != "" && !kind.Valid() {
		return fmt.Errorf("draw %q: unknown shape kind", kind)
	}
	c.draw = NewPolygonTool(roomID, kind)
	c.mode = ModeDrawing
	return nil
}

// PointerDown handles a primary button press at a screen point.
func (c *Controller) PointerDown(screen plan.Point) error {
	world := c.view.ScreenToWorld(screen)
	switch c.mode {
	case ModeIdle:
		hit, ok := geometry.FindEntityAt(c.store.Positions(c.floorPlanID), c.floorPlanID, world)
		if ok {
			c.moving = hit.Position
			c.grab = plan.Point{X: hit.Position.X - world.X, Y: hit.Position.Y - world.Y}
			c.mode = ModeMovingEntity
			return nil
		}
		c.last = screen
		c.mode = ModePanning
		return nil
	case ModePlacing:
		t := c.placing
		c.reset()
		_, err := c.store.Place(c.floorPlanID, t.EntityType, t.EntityID, world.X, world.Y)
		return err
	case ModeDrawing:
		c.draw.Press(world)
		return nil
	default:
		return ErrBusy
	}
}

// PointerMove handles pointer motion with or without a button held.
func (c *Controller) PointerMove(screen plan.Point) {
	switch c.mode {
	case ModePanning:
		c.view = c.view.PanBy(screen.X-c.last.X, screen.Y-c.last.Y)
		c.last = screen
	case ModeMovingEntity:
		world := c.view.ScreenToWorld(screen)
		c.moving.X = world.X + c.grab.X
		c.moving.Y = world.Y + c.grab.Y
	case ModeDrawing:
		c.draw.Move(c.view.ScreenToWorld(screen))
	}
}

// PointerUp ends a pan or a move. A move commits the final position.
func (c *Controller) PointerUp(screen plan.Point) error {
	switch c.mode {
	case ModePanning:
		c.PointerMove(screen)
		c.reset()
	case ModeMovingEntity:
		c.PointerMove(screen)
		pos := c.moving
		c.reset()
		return c.store.MovePosition(pos.ID, pos.X, pos.Y)
	case ModeDrawing:
		world := c.view.ScreenToWorld(screen)
		shape, finished := c.draw.Release(world)
		if !finished {
			return nil
		}
		return c.commitShape(shape)
	}
	return nil
}

// DoubleClick closes a free polygon. With fewer than three vertices it
// returns ErrTooFewPoints and drawing continues.
func (c *Controller) DoubleClick(screen plan.Point) error {
	if c.mode != ModeDrawing || c.draw.Kind != plan.ShapePolygon {
		return nil
	}
	c.draw.Press(c.view.ScreenToWorld(screen))
	shape, err := c.draw.Close()
	if err != nil {
		return err
	}
	return c.commitShape(shape)
}

// Drop commits a drag-and-drop from a side list at a screen point. It is
// accepted while idle or while placing.
func (c *Controller) Drop(screen plan.Point, t Target) error {
	if c.mode != ModeIdle && c.mode != ModePlacing {
		return ErrBusy
	}
	c.reset()
	world := c.view.ScreenToWorld(screen)
	_, err := c.store.Place(c.floorPlanID, t.EntityType, t.EntityID, world.X, world.Y)
	return err
}

// Wheel zooms toward the pointer, or scrolls horizontally with shift held.
func (c *Controller) Wheel(screen plan.Point, deltaY float64, shift bool) {
	c.view = c.view.Wheel(screen, deltaY, shift)
}

// Cancel abandons the active interaction without touching the plan. A move
// in progress snaps back to its stored position.
func (c *Controller) Cancel() {
	c.reset()
}

func (c *Controller) commitShape(shape []plan.Point) error {
	roomID, kind := c.draw.RoomID, c.draw.Kind
	c.reset()
	if shape == nil {
		return nil
	}
	_, err := c.store.AddRoomPolygon(roomID, c.floorPlanID, shape, kind)
	return err
}

func (c *Controller) reset() {
	c.mode = ModeIdle
	c.moving = plan.MapPosition{}
	c.grab = plan.Point{}
	c.placing = Target{}
	c.draw = nil
}
