package state

// Action is what happened to an entity.
type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionImported Action = "imported"
)

// Entity names the collection a change applies to.
type Entity string

const (
	EntityPlan        Entity = "plan"
	EntityFocus       Entity = "focus"
	EntityRoom        Entity = "room"
	EntityBox         Entity = "box"
	EntityModule      Entity = "module"
	EntityItem        Entity = "item"
	EntityFloorPlan   Entity = "floor_plan"
	EntityRoomPolygon Entity = "room_polygon"
	EntityMapPosition Entity = "map_position"
)

// Change describes one committed store change. Cascaded removals are implied
// by the root change and not reported separately.
type Change struct {
	Action Action `json:"action"`
	Entity Entity `json:"entity"`
	ID     string `json:"id,omitempty"`
}

// Emitter receives committed changes.
type Emitter interface {
	EmitChanged(c Change)
}

type nopEmitter struct{}

func (nopEmitter) EmitChanged(Change) {}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(Change)

func (f EmitterFunc) EmitChanged(c Change) { f(c) }
