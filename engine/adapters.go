package engine

import "github.com/yonbergman/electric-planner/state"

// storeEmitter adapts the engine's EventBus to the state.Emitter interface.
type storeEmitter struct {
	bus *EventBus
}

func (e *storeEmitter) EmitChanged(c state.Change) {
	e.bus.Emit(Event{Type: EventPlanChanged, Payload: PlanChangedEvent{
		Action: c.Action, Entity: c.Entity, ID: c.ID,
	}})
}
