package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/yonbergman/electric-planner/messaging"
	"github.com/yonbergman/electric-planner/state"
)

const auditActor = "planner"

// wireEventHandlers sets up the change chain:
// PlanChanged → autosave, audit, outbox, floor-plan measurement
// PlanShared → audit, outbox
func (e *Engine) wireEventHandlers() {
	e.Events.SubscribeTypes(func(evt Event) {
		ch := evt.Payload.(PlanChangedEvent)
		if ch.Entity == state.EntityFocus {
			return
		}
		e.save()
		e.audit(string(ch.Entity), ch.ID, string(ch.Action))
		e.publishChange(ch)
	}, EventPlanChanged)

	e.Events.SubscribeTypes(func(evt Event) {
		e.handleFloorPlanChange(evt.Payload.(PlanChangedEvent))
	}, EventPlanChanged)

	e.Events.SubscribeTypes(func(evt Event) {
		sh := evt.Payload.(PlanSharedEvent)
		e.audit("share", sh.ID, "created")
		e.publish(messaging.TypePlanShared, &messaging.PlanShared{
			ShareID: sh.ID, Path: sh.Path, ExpiresAt: sh.ExpiresAt,
		})
	}, EventPlanShared)
}

func (e *Engine) handleFloorPlanChange(ch PlanChangedEvent) {
	switch {
	case ch.Entity == state.EntityFloorPlan && ch.Action == state.ActionDeleted:
		e.loader.Forget(ch.ID)
	case ch.Entity == state.EntityFloorPlan && ch.Action == state.ActionCreated:
		for _, fp := range e.store.Export().FloorPlans {
			if fp.ID == ch.ID {
				e.loader.Load(context.Background(), fp)
			}
		}
	case ch.Action == state.ActionImported:
		e.measureFloorPlans(context.Background())
	}
}

func (e *Engine) audit(entityType, entityID, action string) {
	if e.db == nil {
		return
	}
	if err := e.db.AppendAudit(entityType, entityID, action, "", "", auditActor); err != nil {
		e.log.Warn("append audit", zap.String("entity", entityType), zap.String("id", entityID), zap.Error(err))
	}
}

func (e *Engine) publishChange(ch PlanChangedEvent) {
	slot := ""
	if e.workspace != nil {
		slot = e.workspace.Slot()
	}
	e.publish(messaging.TypePlanChanged, &messaging.PlanChanged{
		Action: string(ch.Action), Entity: string(ch.Entity), EntityID: ch.ID, Slot: slot,
	})
}

// publish enqueues an envelope in the outbox; the drainer delivers it.
func (e *Engine) publish(msgType string, payload any) {
	if !e.messagingEnabled() {
		return
	}
	env, err := messaging.NewEnvelope(msgType, e.cfg.Messaging.Source, payload)
	if err != nil {
		e.log.Error("build envelope", zap.String("type", msgType), zap.Error(err))
		return
	}
	if err := messaging.Enqueue(e.db, e.cfg.Messaging.ChangesTopic, env); err != nil {
		e.log.Error("enqueue outbox", zap.String("type", msgType), zap.Error(err))
	}
}
